package v1

import (
	"github.com/gin-gonic/gin"

	"chalin/internal/core/security"
	"chalin/internal/infrastructure/http/v1/middleware"
)

// catalogRoutes is the common CRUD surface of catalog handlers.
type catalogRoutes interface {
	List(c *gin.Context)
	Get(c *gin.Context)
	GetByCode(c *gin.Context)
	Create(c *gin.Context)
	Update(c *gin.Context)
	Delete(c *gin.Context)
	SetDeletionMark(c *gin.Context)
}

// registerCatalogCRUD wires the standard catalog endpoints.
// Reads are open to every authenticated user; writes need manager.
func registerCatalogCRUD(rg *gin.RouterGroup, h catalogRoutes) {
	manage := middleware.RequireRole(security.RoleManager)

	rg.GET("", h.List)
	rg.GET("/:id", h.Get)
	rg.GET("/by-code/:code", h.GetByCode)
	rg.POST("", manage, h.Create)
	rg.PUT("/:id", manage, h.Update)
	rg.DELETE("/:id", manage, h.Delete)
	rg.POST("/:id/deletion-mark", manage, h.SetDeletionMark)
}
