package handlers

import (
	"github.com/gin-gonic/gin"

	"uniworld/internal/core/apperror"
	"uniworld/internal/core/types"
	"uniworld/internal/domain/documents/salesreturn"
	"uniworld/internal/infrastructure/http/v1/dto"
	"uniworld/internal/infrastructure/storage/postgres"
)

// SalesReturnHandler serves customer returns.
type SalesReturnHandler struct {
	*BaseHandler
	service *salesreturn.Service
	audit   *postgres.AuditService
}

// NewSalesReturnHandler creates a new sales return handler.
func NewSalesReturnHandler(base *BaseHandler, service *salesreturn.Service, audit *postgres.AuditService) *SalesReturnHandler {
	return &SalesReturnHandler{BaseHandler: base, service: service, audit: audit}
}

// List handles GET /document/sales-returns.
func (h *SalesReturnHandler) List(c *gin.Context) {
	result, err := h.service.List(c.Request.Context(), h.ListFilter(c))
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.NewListResponse(result, dto.FromReturns(result.Items)))
}

// Create handles POST /document/sales-returns.
func (h *SalesReturnHandler) Create(c *gin.Context) {
	var req dto.CreateReturnRequest
	if !h.BindJSON(c, &req) {
		return
	}

	ret, err := req.ToEntity()
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid request").WithDetail("error", err.Error()))
		return
	}

	if err := h.service.CreateReturn(c.Request.Context(), ret); err != nil {
		h.Error(c, err)
		return
	}

	h.logAudit(c, ret, postgres.AuditActionCreate, map[string]any{
		"number":     ret.Number,
		"salesOrder": ret.SalesOrderID.String(),
		"total":      ret.TotalAmount.String(),
	})
	h.Created(c, ret.ID.String())
}

// Get handles GET /document/sales-returns/:id.
func (h *SalesReturnHandler) Get(c *gin.Context) {
	returnID, ok := h.PathID(c)
	if !ok {
		return
	}

	ret, err := h.service.GetByID(c.Request.Context(), returnID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromReturn(ret))
}

// UpdateLine handles PUT /document/sales-returns/items/:itemId.
// Only the delta between old and new quantity is posted.
func (h *SalesReturnHandler) UpdateLine(c *gin.Context) {
	itemID, ok := h.PathIDParam(c, "itemId")
	if !ok {
		return
	}

	var req dto.UpdateReturnLineRequest
	if !h.BindJSON(c, &req) {
		return
	}

	item, err := h.service.UpdateReturnLine(c.Request.Context(), itemID, types.Quantity(req.Quantity))
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromReturnItem(item))
}

func (h *SalesReturnHandler) logAudit(c *gin.Context, r *salesreturn.ReturnSales, action postgres.AuditAction, changes map[string]any) {
	if h.audit == nil {
		return
	}
	_ = h.audit.LogChange(c.Request.Context(), "sales_return", r.ID, action, changes)
}
