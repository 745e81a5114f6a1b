package handlers

import (
	"github.com/gin-gonic/gin"

	"uniworld/internal/domain/reports"
	"uniworld/internal/infrastructure/http/v1/dto"
)

// ReportsHandler serves stock reconstruction reports.
type ReportsHandler struct {
	*BaseHandler
	service *reports.Service
}

// NewReportsHandler creates a new reports handler.
func NewReportsHandler(base *BaseHandler, service *reports.Service) *ReportsHandler {
	return &ReportsHandler{BaseHandler: base, service: service}
}

// StockWindow handles GET /reports/stock/:id.
func (h *ReportsHandler) StockWindow(c *gin.Context) {
	productID, ok := h.PathID(c)
	if !ok {
		return
	}

	var req dto.StockWindowRequest
	if !h.BindQuery(c, &req) {
		return
	}

	window, err := h.service.ReconstructStock(c.Request.Context(), productID, req.From, req.To)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromStockWindow(window))
}

// Summary handles GET /reports/stock.
func (h *ReportsHandler) Summary(c *gin.Context) {
	var req dto.StockWindowRequest
	if !h.BindQuery(c, &req) {
		return
	}

	summary, err := h.service.Summary(c.Request.Context(), req.From, req.To)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromStockSummary(summary))
}
