package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"chalin/internal/core/id"
	"chalin/internal/infrastructure/storage/postgres"
	"chalin/pkg/logger"
)

// Audit journals successful mutating requests. It runs after the
// handler, so only committed changes are recorded. A failed audit
// write never fails the request.
func Audit(audit *postgres.AuditService) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Request.Method == http.MethodGet {
			return
		}
		if c.Writer.Status() < 200 || c.Writer.Status() >= 300 {
			return
		}

		entityType, action := classifyRequest(c)
		if entityType == "" {
			return
		}

		entityID := id.Nil()
		if raw := c.Param("id"); raw != "" {
			if parsed, err := id.Parse(raw); err == nil {
				entityID = parsed
			}
		}

		err := audit.LogChange(c.Request.Context(), entityType, entityID, action, map[string]any{
			"method": c.Request.Method,
			"path":   c.FullPath(),
			"status": c.Writer.Status(),
		})
		if err != nil {
			logger.Warn(c.Request.Context(), "audit write failed",
				"entity_type", entityType,
				"error", err,
			)
		}
	}
}

// classifyRequest derives the audited entity type and action from the
// route. The entity type is the first path segment after the API
// prefix; action-suffixed routes (receive, approve, ...) override the
// method-derived action.
func classifyRequest(c *gin.Context) (string, postgres.AuditAction) {
	path := strings.TrimPrefix(c.FullPath(), "/api/v1/")
	segments := strings.Split(path, "/")
	if len(segments) == 0 || segments[0] == "" {
		return "", ""
	}
	entityType := segments[0]

	switch segments[len(segments)-1] {
	case "receive":
		return entityType, postgres.AuditActionReceive
	case "approve":
		return entityType, postgres.AuditActionApprove
	case "cancel":
		return entityType, postgres.AuditActionCancel
	case "convert":
		return entityType, postgres.AuditActionConvert
	case "adjust":
		return entityType, postgres.AuditActionAdjust
	}

	switch c.Request.Method {
	case http.MethodPost:
		return entityType, postgres.AuditActionCreate
	case http.MethodPut, http.MethodPatch:
		return entityType, postgres.AuditActionUpdate
	case http.MethodDelete:
		return entityType, postgres.AuditActionDelete
	}
	return entityType, postgres.AuditActionUpdate
}
