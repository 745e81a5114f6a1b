package handlers

import (
	"github.com/gin-gonic/gin"

	"uniworld/internal/core/apperror"
	"uniworld/internal/core/types"
	"uniworld/internal/domain/ledger"
	"uniworld/internal/infrastructure/http/v1/dto"
)

// LedgerHandler serves ledger history and manual adjustments.
type LedgerHandler struct {
	*BaseHandler
	service *ledger.Service
}

// NewLedgerHandler creates a new ledger handler.
func NewLedgerHandler(base *BaseHandler, service *ledger.Service) *LedgerHandler {
	return &LedgerHandler{BaseHandler: base, service: service}
}

// History handles GET /ledger/products/:id/history.
func (h *LedgerHandler) History(c *gin.Context) {
	productID, ok := h.PathID(c)
	if !ok {
		return
	}

	var req dto.LedgerHistoryRequest
	if !h.BindQuery(c, &req) {
		return
	}
	req.Defaults()

	filter := ledger.HistoryFilter{
		ProductID: productID,
		From:      req.From,
		To:        req.To,
		Reference: req.Reference,
		Limit:     req.Limit,
		Offset:    req.Offset,
	}
	for _, k := range req.Kinds {
		kind := ledger.Kind(k)
		if !kind.Valid() {
			h.Error(c, apperror.NewValidation("unknown entry kind").WithDetail("kind", k))
			return
		}
		filter.Kinds = append(filter.Kinds, kind)
	}

	result, err := h.service.History(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.NewListResponse(result, dto.FromLedgerEntries(result.Items)))
}

// Adjust handles POST /ledger/products/:id/adjust. Sets the balance to
// an absolute value via an ADJUST entry (stocktake).
func (h *LedgerHandler) Adjust(c *gin.Context) {
	productID, ok := h.PathID(c)
	if !ok {
		return
	}

	var req dto.AdjustStockRequest
	if !h.BindJSON(c, &req) {
		return
	}

	entry, err := h.service.Adjust(c.Request.Context(), productID, types.Quantity(req.Quantity), req.Reference)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromLedgerEntry(entry))
}
