package middleware

import (
	"errors"
	"net/http"

	"settlement-ledger/pkg/apperror"
	"settlement-ledger/pkg/response"

	"github.com/gin-gonic/gin"
)

// CtxBodyLimit holds the byte limit applied to the request body.
const CtxBodyLimit = "body_limit"

// MaxBodySize rejects requests whose declared Content-Length exceeds maxBytes
// and caps the body reader for the rest, so handlers see a *http.MaxBytesError.
func MaxBodySize(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.ContentLength > maxBytes {
			response.Error(c, apperror.ErrPayloadTooLarge(maxBytes))
			c.Abort()
			return
		}
		if c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		}
		c.Set(CtxBodyLimit, maxBytes)
		c.Next()
	}
}

// BindError converts a body binding failure into the API error it should surface as.
func BindError(err error) *apperror.AppError {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return apperror.ErrPayloadTooLarge(tooLarge.Limit)
	}
	return apperror.Validation(err.Error())
}
