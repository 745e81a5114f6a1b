package purchaseorder

import (
	"context"
	"fmt"
	"time"

	"uniworld/internal/core/apperror"
	"uniworld/internal/core/entity"
	"uniworld/internal/core/id"
	"uniworld/internal/core/tx"
	"uniworld/internal/core/types"
	"uniworld/internal/domain"
	"uniworld/internal/domain/ledger"
	"uniworld/pkg/logger"
	"uniworld/pkg/numerator"
)

// Service provides business operations for purchase orders. Line edits
// while pending only move money; receiving the order is the single
// moment stock enters the ledger.
type Service struct {
	repo      Repository
	ledger    Poster
	numerator *numerator.Service
	txManager tx.Manager
}

// NewService creates a new purchase order service.
func NewService(repo Repository, poster Poster, num *numerator.Service, txManager tx.Manager) *Service {
	return &Service{
		repo:      repo,
		ledger:    poster,
		numerator: num,
		txManager: txManager,
	}
}

// CreateOrder creates a pending purchase order with its lines. Nothing
// is posted to the ledger yet.
func (s *Service) CreateOrder(ctx context.Context, o *PurchaseOrder) error {
	if err := o.Validate(ctx); err != nil {
		return err
	}

	if o.Number == "" {
		number, err := s.numerator.NextNumber(ctx, numerator.DefaultConfig("PO"), time.Now())
		if err != nil {
			return fmt.Errorf("generate number: %w", err)
		}
		o.Number = number
	}
	o.Status = StatusPending

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		for _, item := range o.Items {
			item.OrderID = o.ID
			item.Settle()
		}
		o.RecalculateTotal()
		if err := s.repo.Create(ctx, o); err != nil {
			return fmt.Errorf("create order: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	logger.Info(ctx, "purchase order created", "id", o.ID, "number", o.Number, "items", len(o.Items))
	return nil
}

// GetByID retrieves a purchase order with its items.
func (s *Service) GetByID(ctx context.Context, orderID id.ID) (*PurchaseOrder, error) {
	o, err := s.repo.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	items, err := s.repo.GetItems(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("get items: %w", err)
	}
	o.Items = items

	return o, nil
}

// AddLine adds a line to a pending order and recomputes the total.
func (s *Service) AddLine(ctx context.Context, orderID, productID id.ID, qty types.Quantity, unitPrice types.Money) (*Item, error) {
	item := &Item{
		BaseEntity: entity.NewBaseEntity(),
		OrderID:    orderID,
		ProductID:  productID,
		Quantity:   qty,
		UnitPrice:  unitPrice,
	}
	if err := item.Validate(ctx); err != nil {
		return nil, err
	}

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		o, err := s.repo.GetByID(ctx, orderID)
		if err != nil {
			return err
		}
		if err := o.CanModify(); err != nil {
			return err
		}

		item.Settle()
		if err := s.repo.InsertItem(ctx, item); err != nil {
			return fmt.Errorf("insert item: %w", err)
		}
		return s.recalculateAndSave(ctx, o)
	})
	if err != nil {
		return nil, err
	}
	return item, nil
}

// UpdateLine changes quantity or price on a pending order line.
func (s *Service) UpdateLine(ctx context.Context, itemID id.ID, qty types.Quantity, unitPrice types.Money) (*Item, error) {
	var updated *Item
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		item, err := s.repo.GetItem(ctx, itemID)
		if err != nil {
			return err
		}
		o, err := s.repo.GetByID(ctx, item.OrderID)
		if err != nil {
			return err
		}
		if err := o.CanModify(); err != nil {
			return err
		}

		item.Quantity = qty
		item.UnitPrice = unitPrice
		if err := item.Validate(ctx); err != nil {
			return err
		}
		item.Settle()
		item.Touch()

		if err := s.repo.UpdateItem(ctx, item); err != nil {
			return fmt.Errorf("update item: %w", err)
		}
		if err := s.recalculateAndSave(ctx, o); err != nil {
			return err
		}
		updated = item
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// RemoveLine deletes a line from a pending order.
func (s *Service) RemoveLine(ctx context.Context, itemID id.ID) error {
	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		item, err := s.repo.GetItem(ctx, itemID)
		if err != nil {
			return err
		}
		o, err := s.repo.GetByID(ctx, item.OrderID)
		if err != nil {
			return err
		}
		if err := o.CanModify(); err != nil {
			return err
		}

		if err := s.repo.DeleteItem(ctx, itemID); err != nil {
			return fmt.Errorf("delete item: %w", err)
		}
		return s.recalculateAndSave(ctx, o)
	})
}

// Receive transitions the order Pending -> Received exactly once and
// posts one IN entry per line, all in a single transaction. Receiving
// an already received order is a conflict; the ledger is never fed
// twice from the same order.
func (s *Service) Receive(ctx context.Context, orderID id.ID) error {
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		o, err := s.repo.GetByID(ctx, orderID)
		if err != nil {
			return err
		}
		if o.IsReceived() {
			return apperror.NewBusinessRule(
				apperror.CodeOrderReceived,
				"Order has already been received",
			).WithDetail("order_id", orderID.String())
		}

		items, err := s.repo.GetItems(ctx, orderID)
		if err != nil {
			return fmt.Errorf("get items: %w", err)
		}

		for _, item := range items {
			if _, err := s.ledger.Post(ctx, ledger.PostRequest{
				ProductID: item.ProductID,
				Kind:      ledger.KindIn,
				Quantity:  item.Quantity,
				Reference: o.Number,
			}); err != nil {
				return err
			}
		}

		o.Status = StatusReceived
		o.Touch()
		if err := s.repo.Update(ctx, o); err != nil {
			return fmt.Errorf("update order: %w", err)
		}

		logger.Info(ctx, "purchase order received", "id", orderID, "number", o.Number, "items", len(items))
		return nil
	})
	return err
}

// DeleteOrder soft-deletes a pending order. Received orders cannot be
// deleted; their stock is already on the ledger.
func (s *Service) DeleteOrder(ctx context.Context, orderID id.ID) error {
	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		o, err := s.repo.GetByID(ctx, orderID)
		if err != nil {
			return err
		}
		if err := o.CanModify(); err != nil {
			return err
		}
		return s.repo.SetDeletionMark(ctx, orderID, true)
	})
}

// List retrieves purchase orders with filtering.
func (s *Service) List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[*PurchaseOrder], error) {
	return s.repo.List(ctx, filter)
}

func (s *Service) recalculateAndSave(ctx context.Context, o *PurchaseOrder) error {
	items, err := s.repo.GetItems(ctx, o.ID)
	if err != nil {
		return fmt.Errorf("get items: %w", err)
	}
	o.Items = items
	o.RecalculateTotal()
	o.Touch()

	if err := s.repo.Update(ctx, o); err != nil {
		return fmt.Errorf("update order: %w", err)
	}
	return nil
}
