package handlers

import (
	"github.com/gin-gonic/gin"

	"uniworld/internal/core/apperror"
	"uniworld/internal/core/types"
	"uniworld/internal/domain/documents/salesorder"
	"uniworld/internal/infrastructure/http/v1/dto"
	"uniworld/internal/infrastructure/storage/postgres"
)

// SalesOrderHandler serves sales orders and their line settlements.
type SalesOrderHandler struct {
	*BaseHandler
	service *salesorder.Service
	audit   *postgres.AuditService
}

// NewSalesOrderHandler creates a new sales order handler.
func NewSalesOrderHandler(base *BaseHandler, service *salesorder.Service, audit *postgres.AuditService) *SalesOrderHandler {
	return &SalesOrderHandler{BaseHandler: base, service: service, audit: audit}
}

// List handles GET /document/sales-orders.
func (h *SalesOrderHandler) List(c *gin.Context) {
	result, err := h.service.List(c.Request.Context(), h.ListFilter(c))
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.NewListResponse(result, dto.FromSalesOrders(result.Items)))
}

// Create handles POST /document/sales-orders.
func (h *SalesOrderHandler) Create(c *gin.Context) {
	var req dto.CreateSalesOrderRequest
	if !h.BindJSON(c, &req) {
		return
	}

	o, err := req.ToEntity()
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid request").WithDetail("error", err.Error()))
		return
	}

	if err := h.service.CreateOrder(c.Request.Context(), o); err != nil {
		h.Error(c, err)
		return
	}

	h.logAudit(c, o, postgres.AuditActionCreate, map[string]any{
		"number": o.Number,
		"total":  o.TotalAmount.String(),
		"items":  len(o.Items),
	})
	h.Created(c, o.ID.String())
}

// Get handles GET /document/sales-orders/:id.
func (h *SalesOrderHandler) Get(c *gin.Context) {
	orderID, ok := h.PathID(c)
	if !ok {
		return
	}

	o, err := h.service.GetByID(c.Request.Context(), orderID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromSalesOrder(o))
}

// Update handles PUT /document/sales-orders/:id (header fields only).
func (h *SalesOrderHandler) Update(c *gin.Context) {
	orderID, ok := h.PathID(c)
	if !ok {
		return
	}

	var req dto.UpdateSalesOrderRequest
	if !h.BindJSON(c, &req) {
		return
	}

	o, err := h.service.GetByID(c.Request.Context(), orderID)
	if err != nil {
		h.Error(c, err)
		return
	}

	if err := req.ApplyTo(o); err != nil {
		h.Error(c, apperror.NewValidation("invalid amount").WithDetail("error", err.Error()))
		return
	}

	if err := h.service.UpdateOrder(c.Request.Context(), o); err != nil {
		h.Error(c, err)
		return
	}

	h.logAudit(c, o, postgres.AuditActionUpdate, map[string]any{
		"total": o.TotalAmount.String(),
	})
	h.OK(c, dto.FromSalesOrder(o))
}

// Delete handles DELETE /document/sales-orders/:id. Every line is
// settled as a delete before the order is marked.
func (h *SalesOrderHandler) Delete(c *gin.Context) {
	orderID, ok := h.PathID(c)
	if !ok {
		return
	}

	o, err := h.service.GetByID(c.Request.Context(), orderID)
	if err != nil {
		h.Error(c, err)
		return
	}

	if err := h.service.DeleteOrder(c.Request.Context(), orderID); err != nil {
		h.Error(c, err)
		return
	}

	h.logAudit(c, o, postgres.AuditActionDelete, map[string]any{
		"number": o.Number,
	})
	h.NoContent(c)
}

// AddLine handles POST /document/sales-orders/:id/items.
func (h *SalesOrderHandler) AddLine(c *gin.Context) {
	orderID, ok := h.PathID(c)
	if !ok {
		return
	}

	var req dto.AddSalesOrderLineRequest
	if !h.BindJSON(c, &req) {
		return
	}

	productID, ok := h.ParseID(c, req.ProductID)
	if !ok {
		return
	}

	item, err := h.service.AddLine(c.Request.Context(), orderID, productID, types.Quantity(req.Quantity))
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromSalesOrderItem(item))
}

// UpdateLine handles PUT /document/sales-orders/items/:itemId.
func (h *SalesOrderHandler) UpdateLine(c *gin.Context) {
	itemID, ok := h.PathIDParam(c, "itemId")
	if !ok {
		return
	}

	var req dto.UpdateSalesOrderLineRequest
	if !h.BindJSON(c, &req) {
		return
	}

	item, err := h.service.UpdateLine(c.Request.Context(), itemID, types.Quantity(req.Quantity))
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromSalesOrderItem(item))
}

// RemoveLine handles DELETE /document/sales-orders/items/:itemId.
func (h *SalesOrderHandler) RemoveLine(c *gin.Context) {
	itemID, ok := h.PathIDParam(c, "itemId")
	if !ok {
		return
	}

	if err := h.service.RemoveLine(c.Request.Context(), itemID); err != nil {
		h.Error(c, err)
		return
	}
	h.NoContent(c)
}

// MarkDelivered handles POST /document/sales-orders/:id/deliver.
func (h *SalesOrderHandler) MarkDelivered(c *gin.Context) {
	orderID, ok := h.PathID(c)
	if !ok {
		return
	}

	if err := h.service.MarkDelivered(c.Request.Context(), orderID); err != nil {
		h.Error(c, err)
		return
	}
	h.Success(c, "order marked as delivered")
}

// AllocatedLines handles GET /document/sales-orders/:id/allocated-lines.
// Display only: shares are never persisted and never posted.
func (h *SalesOrderHandler) AllocatedLines(c *gin.Context) {
	orderID, ok := h.PathID(c)
	if !ok {
		return
	}

	lines, err := h.service.AllocatedLines(c.Request.Context(), orderID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromAllocatedLines(lines))
}

func (h *SalesOrderHandler) logAudit(c *gin.Context, o *salesorder.SalesOrder, action postgres.AuditAction, changes map[string]any) {
	if h.audit == nil {
		return
	}
	_ = h.audit.LogChange(c.Request.Context(), "sales_order", o.ID, action, changes)
}
