package handler

import (
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
)

var (
	specMu   sync.RWMutex
	specBody []byte
	specETag string
)

// SetSwaggerSpec sets the OpenAPI YAML served at /swagger/spec. nil unloads it.
func SetSwaggerSpec(spec []byte) {
	specMu.Lock()
	defer specMu.Unlock()

	specBody = spec
	specETag = ""
	if spec != nil {
		sum := sha256.Sum256(spec)
		specETag = `"` + hex.EncodeToString(sum[:8]) + `"`
	}
}

// SwaggerSpec serves the raw OpenAPI YAML with an ETag.
func SwaggerSpec(c *gin.Context) {
	specMu.RLock()
	body, etag := specBody, specETag
	specMu.RUnlock()

	if body == nil {
		c.String(http.StatusNotFound, "OpenAPI spec not loaded")
		return
	}
	c.Header("ETag", etag)
	if c.GetHeader("If-None-Match") == etag {
		c.AbortWithStatus(http.StatusNotModified)
		return
	}
	c.Data(http.StatusOK, "application/yaml", body)
}

const swaggerPage = `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8">
  <title>Settlement Ledger - API Docs</title>
  <link rel="stylesheet" href="https://cdn.jsdelivr.net/npm/swagger-ui-dist@5/swagger-ui.css">
</head>
<body>
  <div id="swagger-ui"></div>
  <script src="https://cdn.jsdelivr.net/npm/swagger-ui-dist@5/swagger-ui-bundle.js"></script>
  <script>
    SwaggerUIBundle({
      url: '/swagger/spec',
      dom_id: '#swagger-ui',
      persistAuthorization: true,
      presets: [SwaggerUIBundle.presets.apis]
    });
  </script>
</body>
</html>`

// SwaggerUI serves a Swagger UI page that loads /swagger/spec.
func SwaggerUI(c *gin.Context) {
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(swaggerPage))
}
