package handlers

import (
	"github.com/gin-gonic/gin"

	"chalin/internal/core/apperror"
	"chalin/internal/core/entity"
	"chalin/internal/domain/registers/stock"
	"chalin/internal/infrastructure/http/v1/dto"
)

// StockHandler serves stock register queries and manual adjustments.
type StockHandler struct {
	*BaseHandler
	service *stock.Service
}

// NewStockHandler creates the stock handler.
func NewStockHandler(base *BaseHandler, service *stock.Service) *StockHandler {
	return &StockHandler{BaseHandler: base, service: service}
}

// GetBalance handles GET /stock/balance?branchId=&productId=.
func (h *StockHandler) GetBalance(c *gin.Context) {
	branchID, ok := h.ParseIDQuery(c, "branchId")
	if !ok {
		return
	}
	productID, ok := h.ParseIDQuery(c, "productId")
	if !ok {
		return
	}
	if branchID == nil || productID == nil {
		h.Error(c, apperror.NewValidation("branchId and productId are required"))
		return
	}

	balance, err := h.service.GetBalance(c.Request.Context(), *branchID, *productID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, balance)
}

// GetBranchStock handles GET /stock/branches/:id - non-zero balances.
func (h *StockHandler) GetBranchStock(c *gin.Context) {
	branchID, ok := h.ParseIDParam(c, "id")
	if !ok {
		return
	}

	balances, err := h.service.GetBranchStock(c.Request.Context(), branchID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, gin.H{"items": balances})
}

// GetAvailability handles GET /stock/availability/:productId -
// total quantity across the network.
func (h *StockHandler) GetAvailability(c *gin.Context) {
	productID, ok := h.ParseIDParam(c, "productId")
	if !ok {
		return
	}

	total, err := h.service.GetProductAvailability(c.Request.Context(), productID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.AvailabilityResponse{
		ProductID: productID.String(),
		Quantity:  total,
	})
}

// GetLowStock handles GET /stock/low?branchId=.
func (h *StockHandler) GetLowStock(c *gin.Context) {
	branchID, ok := h.ParseIDQuery(c, "branchId")
	if !ok {
		return
	}

	balances, err := h.service.GetLowStock(c.Request.Context(), branchID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, gin.H{"items": balances})
}

// Adjust handles POST /stock/adjust - manual balance correction.
func (h *StockHandler) Adjust(c *gin.Context) {
	var req dto.AdjustStockRequest
	if !h.BindJSON(c, &req) {
		return
	}

	branchID, err := dto.ParseID("branchId", req.BranchID)
	if err != nil {
		h.Error(c, err)
		return
	}
	productID, err := dto.ParseID("productId", req.ProductID)
	if err != nil {
		h.Error(c, err)
		return
	}

	balance, err := h.service.ManualAdjust(
		c.Request.Context(),
		branchID, productID,
		stock.AdjustMode(req.Mode), req.Quantity,
	)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, balance)
}

// SetMinStock handles POST /stock/min-stock.
func (h *StockHandler) SetMinStock(c *gin.Context) {
	var req dto.SetMinStockRequest
	if !h.BindJSON(c, &req) {
		return
	}

	branchID, err := dto.ParseID("branchId", req.BranchID)
	if err != nil {
		h.Error(c, err)
		return
	}
	productID, err := dto.ParseID("productId", req.ProductID)
	if err != nil {
		h.Error(c, err)
		return
	}

	if err := h.service.SetMinStock(c.Request.Context(), branchID, productID, req.MinStock); err != nil {
		h.Error(c, err)
		return
	}

	h.Success(c, "min stock updated")
}

// GetMovements handles GET /stock/movements/:productId.
func (h *StockHandler) GetMovements(c *gin.Context) {
	productID, ok := h.ParseIDParam(c, "productId")
	if !ok {
		return
	}

	var filter stock.MovementFilter

	branchID, ok := h.ParseIDQuery(c, "branchId")
	if !ok {
		return
	}
	filter.BranchID = branchID

	if raw := c.Query("recordType"); raw != "" {
		rt := entity.RecordType(raw)
		filter.RecordType = &rt
	}

	from, ok := h.ParseTimeQuery(c, "dateFrom")
	if !ok {
		return
	}
	filter.FromDate = from

	to, ok := h.ParseTimeQuery(c, "dateTo")
	if !ok {
		return
	}
	filter.ToDate = to

	filter.Limit = h.ParseIntQuery(c, "limit", 100)
	filter.Offset = h.ParseIntQuery(c, "offset", 0)

	movements, err := h.service.GetMovementHistory(c.Request.Context(), productID, filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, gin.H{"items": movements})
}

// GetTurnover handles GET /stock/turnover?dateFrom=&dateTo=.
func (h *StockHandler) GetTurnover(c *gin.Context) {
	var filter stock.TurnoverFilter

	branchID, ok := h.ParseIDQuery(c, "branchId")
	if !ok {
		return
	}
	filter.BranchID = branchID

	productID, ok := h.ParseIDQuery(c, "productId")
	if !ok {
		return
	}
	filter.ProductID = productID

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

	turnover, err := h.service.GetTurnover(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, turnover)
}

// GetValuation handles GET /stock/valuation/:branchId - remaining lot
// quantity and value per product.
func (h *StockHandler) GetValuation(c *gin.Context) {
	branchID, ok := h.ParseIDParam(c, "branchId")
	if !ok {
		return
	}

	rows, err := h.service.GetStockValuation(c.Request.Context(), branchID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, gin.H{"items": rows})
}
