package invoice

import (
	"context"
	"fmt"
	"time"

	"uniworld/internal/core/apperror"
	"uniworld/internal/core/id"
	"uniworld/internal/core/tx"
	"uniworld/internal/domain"
	"uniworld/pkg/logger"
	"uniworld/pkg/numerator"
)

// Default payment term when the caller does not supply a due date.
const defaultPaymentTerm = 30 * 24 * time.Hour

// Service provides business operations for invoices.
type Service struct {
	repo      Repository
	orders    OrderReader
	numerator *numerator.Service
	txManager tx.Manager
}

// NewService creates a new invoice service.
func NewService(repo Repository, orders OrderReader, num *numerator.Service, txManager tx.Manager) *Service {
	return &Service{
		repo:      repo,
		orders:    orders,
		numerator: num,
		txManager: txManager,
	}
}

// CreateRequest describes an invoice to issue for a sales order.
type CreateRequest struct {
	SalesOrderID id.ID

	// DueDate defaults to the order date plus the standard payment
	// term when zero.
	DueDate time.Time

	Notes  string
	Number string
}

// CreateFromOrder issues the invoice for a sales order: customer, date
// and lines are copied from the order, the total is derived. An order
// can be invoiced at most once.
func (s *Service) CreateFromOrder(ctx context.Context, req CreateRequest) (*Invoice, error) {
	if id.IsNil(req.SalesOrderID) {
		return nil, apperror.NewValidation("sales order is required").
			WithDetail("field", "salesOrderId")
	}

	var inv *Invoice
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		existing, err := s.repo.GetBySalesOrderID(ctx, req.SalesOrderID)
		if err != nil {
			return err
		}
		if existing != nil {
			return apperror.NewConflict("an invoice already exists for this sales order").
				WithDetail("sales_order_id", req.SalesOrderID.String()).
				WithDetail("invoice_id", existing.ID.String())
		}

		order, err := s.orders.GetByID(ctx, req.SalesOrderID)
		if err != nil {
			return err
		}
		orderItems, err := s.orders.GetItems(ctx, order.ID)
		if err != nil {
			return fmt.Errorf("get order items: %w", err)
		}
		if len(orderItems) == 0 {
			return apperror.NewValidation("order has no lines to invoice").
				WithDetail("sales_order_id", order.ID.String())
		}

		inv = NewInvoice(order.CustomerID, order.ID)
		inv.Date = order.Date
		inv.Notes = req.Notes
		inv.DueDate = req.DueDate
		if inv.DueDate.IsZero() {
			inv.DueDate = order.Date.Add(defaultPaymentTerm)
		}

		inv.Number = req.Number
		if inv.Number == "" {
			number, err := s.numerator.NextNumber(ctx, numerator.DefaultConfig("INV"), time.Now())
			if err != nil {
				return fmt.Errorf("generate number: %w", err)
			}
			inv.Number = number
		}

		for _, line := range orderItems {
			item := NewItem(line.ProductID, line.Quantity, line.UnitPrice)
			item.InvoiceID = inv.ID
			item.Settle()
			inv.Items = append(inv.Items, item)
		}
		inv.RecalculateTotal()

		if err := inv.Validate(ctx); err != nil {
			return err
		}
		if err := s.repo.Create(ctx, inv); err != nil {
			return fmt.Errorf("create invoice: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "invoice created", "id", inv.ID, "number", inv.Number, "order_id", inv.SalesOrderID)
	return inv, nil
}

// GetByID retrieves an invoice with its items.
func (s *Service) GetByID(ctx context.Context, invoiceID id.ID) (*Invoice, error) {
	inv, err := s.repo.GetByID(ctx, invoiceID)
	if err != nil {
		return nil, err
	}

	items, err := s.repo.GetItems(ctx, invoiceID)
	if err != nil {
		return nil, fmt.Errorf("get items: %w", err)
	}
	inv.Items = items

	return inv, nil
}

// MarkPaid transitions the invoice to completed.
func (s *Service) MarkPaid(ctx context.Context, invoiceID id.ID) error {
	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		inv, err := s.repo.GetByID(ctx, invoiceID)
		if err != nil {
			return err
		}
		if inv.IsPaid() {
			return nil
		}
		inv.PaymentStatus = PaymentCompleted
		inv.Touch()
		return s.repo.Update(ctx, inv)
	})
}

// DeleteInvoice soft-deletes the invoice. Stock is untouched; the
// invoice never posted to the ledger.
func (s *Service) DeleteInvoice(ctx context.Context, invoiceID id.ID) error {
	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if _, err := s.repo.GetByID(ctx, invoiceID); err != nil {
			return err
		}
		return s.repo.SetDeletionMark(ctx, invoiceID, true)
	})
}

// List retrieves invoices with filtering.
func (s *Service) List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[*Invoice], error) {
	return s.repo.List(ctx, filter)
}
