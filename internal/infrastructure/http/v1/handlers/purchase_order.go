package handlers

import (
	"github.com/gin-gonic/gin"

	"uniworld/internal/core/apperror"
	"uniworld/internal/core/types"
	"uniworld/internal/domain/documents/purchaseorder"
	"uniworld/internal/infrastructure/http/v1/dto"
	"uniworld/internal/infrastructure/storage/postgres"
)

// PurchaseOrderHandler serves purchase orders and receiving.
type PurchaseOrderHandler struct {
	*BaseHandler
	service *purchaseorder.Service
	audit   *postgres.AuditService
}

// NewPurchaseOrderHandler creates a new purchase order handler.
func NewPurchaseOrderHandler(base *BaseHandler, service *purchaseorder.Service, audit *postgres.AuditService) *PurchaseOrderHandler {
	return &PurchaseOrderHandler{BaseHandler: base, service: service, audit: audit}
}

// List handles GET /document/purchase-orders.
func (h *PurchaseOrderHandler) List(c *gin.Context) {
	result, err := h.service.List(c.Request.Context(), h.ListFilter(c))
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.NewListResponse(result, dto.FromPurchaseOrders(result.Items)))
}

// Create handles POST /document/purchase-orders. Nothing is posted to
// the ledger until Receive.
func (h *PurchaseOrderHandler) Create(c *gin.Context) {
	var req dto.CreatePurchaseOrderRequest
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

// Get handles GET /document/purchase-orders/:id.
func (h *PurchaseOrderHandler) Get(c *gin.Context) {
	orderID, ok := h.PathID(c)
	if !ok {
		return
	}

	o, err := h.service.GetByID(c.Request.Context(), orderID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromPurchaseOrder(o))
}

// Receive handles POST /document/purchase-orders/:id/receive.
// One IN entry per line, exactly once per order.
func (h *PurchaseOrderHandler) Receive(c *gin.Context) {
	orderID, ok := h.PathID(c)
	if !ok {
		return
	}

	if err := h.service.Receive(c.Request.Context(), orderID); err != nil {
		h.Error(c, err)
		return
	}

	o, err := h.service.GetByID(c.Request.Context(), orderID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.logAudit(c, o, postgres.AuditActionReceive, map[string]any{
		"number": o.Number,
		"items":  len(o.Items),
	})
	h.OK(c, dto.FromPurchaseOrder(o))
}

// Delete handles DELETE /document/purchase-orders/:id. Received orders
// cannot be deleted.
func (h *PurchaseOrderHandler) Delete(c *gin.Context) {
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

// AddLine handles POST /document/purchase-orders/:id/items.
func (h *PurchaseOrderHandler) AddLine(c *gin.Context) {
	orderID, ok := h.PathID(c)
	if !ok {
		return
	}

	var req dto.AddPurchaseOrderLineRequest
	if !h.BindJSON(c, &req) {
		return
	}

	productID, ok := h.ParseID(c, req.ProductID)
	if !ok {
		return
	}
	unitPrice, err := types.NewMoneyFromString(req.UnitPrice)
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid amount").WithDetail("unitPrice", req.UnitPrice))
		return
	}

	item, err := h.service.AddLine(c.Request.Context(), orderID, productID, types.Quantity(req.Quantity), unitPrice)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromPurchaseOrderItem(item))
}

// UpdateLine handles PUT /document/purchase-orders/items/:itemId.
func (h *PurchaseOrderHandler) UpdateLine(c *gin.Context) {
	itemID, ok := h.PathIDParam(c, "itemId")
	if !ok {
		return
	}

	var req dto.UpdatePurchaseOrderLineRequest
	if !h.BindJSON(c, &req) {
		return
	}

	unitPrice, err := types.NewMoneyFromString(req.UnitPrice)
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid amount").WithDetail("unitPrice", req.UnitPrice))
		return
	}

	item, err := h.service.UpdateLine(c.Request.Context(), itemID, types.Quantity(req.Quantity), unitPrice)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromPurchaseOrderItem(item))
}

// RemoveLine handles DELETE /document/purchase-orders/items/:itemId.
func (h *PurchaseOrderHandler) RemoveLine(c *gin.Context) {
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

func (h *PurchaseOrderHandler) logAudit(c *gin.Context, o *purchaseorder.PurchaseOrder, action postgres.AuditAction, changes map[string]any) {
	if h.audit == nil {
		return
	}
	_ = h.audit.LogChange(c.Request.Context(), "purchase_order", o.ID, action, changes)
}
