package handlers

import (
	"github.com/gin-gonic/gin"

	"chalin/internal/domain"
)

// parseDocumentFilter reads the common document list parameters.
// Returns false when a parameter failed to parse (error already sent).
func (h *BaseHandler) parseDocumentFilter(c *gin.Context) (domain.ListFilter, bool) {
	filter := domain.DefaultListFilter()
	filter.Search = c.Query("search")
	filter.Limit = h.ParseIntQuery(c, "limit", 50)
	filter.Offset = h.ParseIntQuery(c, "offset", 0)
	filter.OrderBy = c.Query("orderBy")
	filter.Status = c.Query("status")
	filter.IncludeDeleted = c.Query("includeDeleted") == "true"

	branchID, ok := h.ParseIDQuery(c, "branchId")
	if !ok {
		return filter, false
	}
	filter.BranchID = branchID

	from, ok := h.ParseTimeQuery(c, "dateFrom")
	if !ok {
		return filter, false
	}
	filter.DateFrom = from

	to, ok := h.ParseTimeQuery(c, "dateTo")
	if !ok {
		return filter, false
	}
	filter.DateTo = to

	return filter, true
}
