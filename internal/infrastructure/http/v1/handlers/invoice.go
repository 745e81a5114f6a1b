package handlers

import (
	"github.com/gin-gonic/gin"

	"uniworld/internal/core/apperror"
	"uniworld/internal/core/id"
	"uniworld/internal/domain/documents/invoice"
	"uniworld/internal/infrastructure/http/v1/dto"
	"uniworld/internal/infrastructure/storage/postgres"
)

// InvoiceHandler serves AR invoices.
type InvoiceHandler struct {
	*BaseHandler
	service *invoice.Service
	audit   *postgres.AuditService
}

// NewInvoiceHandler creates a new invoice handler.
func NewInvoiceHandler(base *BaseHandler, service *invoice.Service, audit *postgres.AuditService) *InvoiceHandler {
	return &InvoiceHandler{BaseHandler: base, service: service, audit: audit}
}

// List handles GET /document/invoices.
func (h *InvoiceHandler) List(c *gin.Context) {
	result, err := h.service.List(c.Request.Context(), h.ListFilter(c))
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.NewListResponse(result, dto.FromInvoices(result.Items)))
}

// Create handles POST /document/invoices.
func (h *InvoiceHandler) Create(c *gin.Context) {
	var req dto.CreateInvoiceRequest
	if !h.BindJSON(c, &req) {
		return
	}

	orderID, err := id.Parse(req.SalesOrderID)
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid sales order id").WithDetail("error", err.Error()))
		return
	}

	create := invoice.CreateRequest{SalesOrderID: orderID, Notes: req.Notes}
	if req.DueDate != nil {
		create.DueDate = *req.DueDate
	}

	inv, err := h.service.CreateFromOrder(c.Request.Context(), create)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.logAudit(c, inv, postgres.AuditActionCreate, map[string]any{
		"number":     inv.Number,
		"salesOrder": inv.SalesOrderID.String(),
		"total":      inv.TotalAmount.String(),
	})
	h.Created(c, inv.ID.String())
}

// Get handles GET /document/invoices/:id.
func (h *InvoiceHandler) Get(c *gin.Context) {
	invoiceID, ok := h.PathID(c)
	if !ok {
		return
	}

	inv, err := h.service.GetByID(c.Request.Context(), invoiceID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromInvoice(inv))
}

// MarkPaid handles POST /document/invoices/:id/pay.
func (h *InvoiceHandler) MarkPaid(c *gin.Context) {
	invoiceID, ok := h.PathID(c)
	if !ok {
		return
	}

	if err := h.service.MarkPaid(c.Request.Context(), invoiceID); err != nil {
		h.Error(c, err)
		return
	}

	inv, err := h.service.GetByID(c.Request.Context(), invoiceID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.logAudit(c, inv, postgres.AuditActionUpdate, map[string]any{
		"number":        inv.Number,
		"paymentStatus": string(inv.PaymentStatus),
	})
	h.OK(c, dto.FromInvoice(inv))
}

// Delete handles DELETE /document/invoices/:id.
func (h *InvoiceHandler) Delete(c *gin.Context) {
	invoiceID, ok := h.PathID(c)
	if !ok {
		return
	}

	inv, err := h.service.GetByID(c.Request.Context(), invoiceID)
	if err != nil {
		h.Error(c, err)
		return
	}

	if err := h.service.DeleteInvoice(c.Request.Context(), invoiceID); err != nil {
		h.Error(c, err)
		return
	}

	h.logAudit(c, inv, postgres.AuditActionDelete, map[string]any{
		"number": inv.Number,
	})
	h.NoContent(c)
}

func (h *InvoiceHandler) logAudit(c *gin.Context, inv *invoice.Invoice, action postgres.AuditAction, changes map[string]any) {
	if h.audit == nil {
		return
	}
	_ = h.audit.LogChange(c.Request.Context(), "invoice", inv.ID, action, changes)
}
