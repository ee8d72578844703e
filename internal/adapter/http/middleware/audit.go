package middleware

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"settlement-ledger/internal/core/domain"
	"settlement-ledger/internal/core/ports"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// AuditDenied records write requests that were refused with 401 or 403.
// Successful writes are audited by the services themselves.
func AuditDenied(auditSvc ports.AuditService) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		status := c.Writer.Status()
		if status != http.StatusUnauthorized && status != http.StatusForbidden {
			return
		}
		if c.Request.Method == http.MethodGet || c.Request.Method == http.MethodHead || c.Request.Method == http.MethodOptions {
			return
		}

		resourceType, resourceID := resourceFromRoute(c)
		if resourceType == "" {
			return
		}

		var actor *string
		if sub := SubjectFrom(c); sub != "" {
			actor = &sub
		}

		details, _ := json.Marshal(map[string]interface{}{
			"method": c.Request.Method,
			"path":   c.Request.URL.Path,
			"status": status,
		})

		auditSvc.Log(c.Request.Context(), &domain.AuditLog{
			ID:           uuid.New(),
			ActorID:      actor,
			Action:       domain.AuditActionAccessDenied,
			ResourceType: resourceType,
			ResourceID:   resourceID,
			IPAddress:    c.ClientIP(),
			Details:      string(details),
			CreatedAt:    time.Now(),
		})
	}
}

// resourceFromRoute maps the matched route template to the resource it acts on.
func resourceFromRoute(c *gin.Context) (string, string) {
	route := c.FullPath()
	switch {
	case strings.HasPrefix(route, "/api/v1/trips/:trip_id"):
		return "trip", c.Param("trip_id")
	case strings.HasPrefix(route, "/api/v1/drivers/:driver_id"):
		return "driver", c.Param("driver_id")
	}
	return "", ""
}
