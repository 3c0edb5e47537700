package handlers

import (
	"github.com/gin-gonic/gin"

	"chalin/internal/core/apperror"
	"chalin/internal/core/id"
	"chalin/internal/domain/reports"
)

// ReportsHandler serves the reporting endpoints.
type ReportsHandler struct {
	*BaseHandler
	service *reports.Service
}

// NewReportsHandler creates the reports handler.
func NewReportsHandler(base *BaseHandler, service *reports.Service) *ReportsHandler {
	return &ReportsHandler{BaseHandler: base, service: service}
}

// ConsignmentStock handles GET /reports/consignment-stock/:branchId.
func (h *ReportsHandler) ConsignmentStock(c *gin.Context) {
	branchID, ok := h.ParseIDParam(c, "branchId")
	if !ok {
		return
	}

	report, err := h.service.ConsignmentStock(c.Request.Context(), branchID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, report)
}

// ConsignmentSales handles GET /reports/consignment-sales.
// branchId may repeat; empty means all consignment branches.
func (h *ReportsHandler) ConsignmentSales(c *gin.Context) {
	var filter reports.SalesSummaryFilter

	for _, raw := range c.QueryArray("branchId") {
		branchID, err := id.Parse(raw)
		if err != nil {
			h.Error(c, apperror.NewValidation("invalid branchId").WithDetail("value", raw))
			return
		}
		filter.BranchIDs = append(filter.BranchIDs, branchID)
	}

	from, ok := h.ParseTimeQuery(c, "dateFrom")
	if !ok {
		return
	}
	to, ok := h.ParseTimeQuery(c, "dateTo")
	if !ok {
		return
	}
	if from == nil || to == nil {
		h.Error(c, apperror.NewValidation("dateFrom and dateTo are required"))
		return
	}
	filter.FromDate = *from
	filter.ToDate = *to

	report, err := h.service.ConsignmentSales(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, report)
}
