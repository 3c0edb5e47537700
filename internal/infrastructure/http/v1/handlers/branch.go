package handlers

import (
	"github.com/gin-gonic/gin"

	"chalin/internal/domain/catalogs/branch"
	"chalin/internal/infrastructure/http/v1/dto"
)

// BranchHandler serves the branch catalog plus branch-specific queries.
type BranchHandler struct {
	*CatalogHandler[*branch.Branch, dto.CreateBranchRequest, dto.UpdateBranchRequest]
	service *branch.Service
}

// NewBranchHandler creates the branch handler.
func NewBranchHandler(base *BaseHandler, service *branch.Service) *BranchHandler {
	config := CatalogHandlerConfig[*branch.Branch, dto.CreateBranchRequest, dto.UpdateBranchRequest]{
		Service:    service.CatalogService,
		EntityName: "branch",

		MapCreateDTO: func(req dto.CreateBranchRequest) (*branch.Branch, error) {
			return req.ToEntity()
		},

		MapUpdateDTO: func(req dto.UpdateBranchRequest, existing *branch.Branch) (*branch.Branch, error) {
			if err := req.ApplyTo(existing); err != nil {
				return nil, err
			}
			return existing, nil
		},

		MapToDTO: func(b *branch.Branch) any {
			return dto.FromBranch(b)
		},
	}

	return &BranchHandler{
		CatalogHandler: NewCatalogHandler(base, config),
		service:        service,
	}
}

// ListActive handles GET /branches/active.
func (h *BranchHandler) ListActive(c *gin.Context) {
	branches, err := h.service.ListActive(c.Request.Context())
	if err != nil {
		h.Error(c, err)
		return
	}

	items := make([]dto.BranchResponse, len(branches))
	for i, b := range branches {
		items[i] = dto.FromBranch(b)
	}

	h.OK(c, gin.H{"items": items})
}
