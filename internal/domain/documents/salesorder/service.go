package salesorder

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

// Service provides business operations for sales orders. Every mutation
// that changes a line quantity posts a compensating ledger entry in the
// same transaction that persists the document.
type Service struct {
	repo      Repository
	products  ProductReader
	ledger    Poster
	numerator *numerator.Service
	txManager tx.Manager
}

// NewService creates a new sales order service.
func NewService(
	repo Repository,
	products ProductReader,
	poster Poster,
	num *numerator.Service,
	txManager tx.Manager,
) *Service {
	return &Service{
		repo:      repo,
		products:  products,
		ledger:    poster,
		numerator: num,
		txManager: txManager,
	}
}

// CreateOrder creates a sales order with its initial lines. Each line
// is settled as a creation: price and discount snapshots are taken from
// the product and an OUT entry is posted for the full quantity.
func (s *Service) CreateOrder(ctx context.Context, o *SalesOrder) error {
	if err := o.Validate(ctx); err != nil {
		return err
	}

	if o.Number == "" {
		number, err := s.numerator.NextNumber(ctx, numerator.DefaultConfig("SO"), time.Now())
		if err != nil {
			return fmt.Errorf("generate number: %w", err)
		}
		o.Number = number
	}

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		for _, item := range o.Items {
			item.OrderID = o.ID
			if err := s.snapshotFromProduct(ctx, item); err != nil {
				return err
			}
			item.Settle()
		}
		o.RecalculateTotal()

		if err := s.repo.Create(ctx, o); err != nil {
			return fmt.Errorf("create order: %w", err)
		}

		for _, item := range o.Items {
			if _, err := s.ledger.Post(ctx, ledger.PostRequest{
				ProductID: item.ProductID,
				Kind:      ledger.KindOut,
				Quantity:  item.Quantity,
				Reference: o.Number,
			}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	logger.Info(ctx, "sales order created", "id", o.ID, "number", o.Number, "items", len(o.Items))
	return nil
}

// GetByID retrieves a sales order with its items.
func (s *Service) GetByID(ctx context.Context, orderID id.ID) (*SalesOrder, error) {
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

// UpdateOrder persists header changes (customer, discount, shipping,
// notes) and recomputes the total. Line changes go through the line
// operations; this never touches the ledger.
func (s *Service) UpdateOrder(ctx context.Context, o *SalesOrder) error {
	if err := o.Validate(ctx); err != nil {
		return err
	}

	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
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
	})
}

// AddLine adds one line to an existing order and settles it: snapshots
// price and discount from the product, posts OUT for the quantity, and
// recomputes the order total.
func (s *Service) AddLine(ctx context.Context, orderID, productID id.ID, qty types.Quantity) (*Item, error) {
	if !qty.IsPositive() {
		return nil, apperror.NewInvalidQuantity("quantity must be positive").
			WithDetail("quantity", qty.Int64())
	}

	var created *Item
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		o, err := s.repo.GetByID(ctx, orderID)
		if err != nil {
			return err
		}

		item := &Item{
			BaseEntity: entity.NewBaseEntity(),
			OrderID:    orderID,
			ProductID:  productID,
			Quantity:   qty,
		}
		if err := s.snapshotFromProduct(ctx, item); err != nil {
			return err
		}
		item.Settle()

		if err := s.repo.InsertItem(ctx, item); err != nil {
			return fmt.Errorf("insert item: %w", err)
		}

		if _, err := s.ledger.Post(ctx, ledger.PostRequest{
			ProductID: productID,
			Kind:      ledger.KindOut,
			Quantity:  qty,
			Reference: o.Number,
		}); err != nil {
			return err
		}

		if err := s.recalculateAndSave(ctx, o); err != nil {
			return err
		}
		created = item
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// UpdateLine changes a line's quantity. The per-unit discount is
// refreshed from the product and the monetary fields recomputed. Only
// the quantity delta is posted: an increase issues OUT for the delta, a
// decrease returns the surplus as RETURN. A pure monetary refresh with
// an unchanged quantity posts nothing.
//
// The line's product cannot be changed; remove the line and add a new
// one instead.
func (s *Service) UpdateLine(ctx context.Context, itemID id.ID, qty types.Quantity) (*Item, error) {
	if !qty.IsPositive() {
		return nil, apperror.NewInvalidQuantity("quantity must be positive").
			WithDetail("quantity", qty.Int64())
	}

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

		delta := qty - item.Quantity

		item.Quantity = qty
		if err := s.refreshDiscount(ctx, item); err != nil {
			return err
		}
		item.Settle()
		item.Touch()

		if err := s.repo.UpdateItem(ctx, item); err != nil {
			return fmt.Errorf("update item: %w", err)
		}

		if delta != 0 {
			req := ledger.PostRequest{
				ProductID: item.ProductID,
				Reference: fmt.Sprintf("%s-Update", o.Number),
			}
			if delta > 0 {
				req.Kind = ledger.KindOut
				req.Quantity = delta
			} else {
				req.Kind = ledger.KindReturn
				req.Quantity = delta.Abs()
			}
			if _, err := s.ledger.Post(ctx, req); err != nil {
				return err
			}
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

// RemoveLine deletes a line and returns its full quantity to stock.
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

		if err := s.repo.DeleteItem(ctx, itemID); err != nil {
			return fmt.Errorf("delete item: %w", err)
		}

		if _, err := s.ledger.Post(ctx, ledger.PostRequest{
			ProductID: item.ProductID,
			Kind:      ledger.KindReturn,
			Quantity:  item.Quantity,
			Reference: fmt.Sprintf("%s-DeletedItem", o.Number),
		}); err != nil {
			return err
		}

		return s.recalculateAndSave(ctx, o)
	})
}

// DeleteOrder settles every line as a deletion (full quantity back to
// stock) and soft-deletes the order.
func (s *Service) DeleteOrder(ctx context.Context, orderID id.ID) error {
	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		o, err := s.repo.GetByID(ctx, orderID)
		if err != nil {
			return err
		}
		items, err := s.repo.GetItems(ctx, orderID)
		if err != nil {
			return fmt.Errorf("get items: %w", err)
		}

		for _, item := range items {
			if err := s.repo.DeleteItem(ctx, item.ID); err != nil {
				return fmt.Errorf("delete item: %w", err)
			}
			if _, err := s.ledger.Post(ctx, ledger.PostRequest{
				ProductID: item.ProductID,
				Kind:      ledger.KindReturn,
				Quantity:  item.Quantity,
				Reference: fmt.Sprintf("%s-DeletedItem", o.Number),
			}); err != nil {
				return err
			}
		}

		if err := s.repo.SetDeletionMark(ctx, orderID, true); err != nil {
			return fmt.Errorf("delete order: %w", err)
		}

		logger.Info(ctx, "sales order deleted", "id", orderID, "number", o.Number)
		return nil
	})
}

// MarkDelivered transitions the order to delivered.
func (s *Service) MarkDelivered(ctx context.Context, orderID id.ID) error {
	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		o, err := s.repo.GetByID(ctx, orderID)
		if err != nil {
			return err
		}
		if o.DeliveryStatus == DeliveryDelivered {
			return nil
		}
		o.DeliveryStatus = DeliveryDelivered
		o.Touch()
		return s.repo.Update(ctx, o)
	})
}

// List retrieves sales orders with filtering.
func (s *Service) List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[*SalesOrder], error) {
	return s.repo.List(ctx, filter)
}

// AllocatedLines returns the order's lines with the proportional order
// discount applied for display.
func (s *Service) AllocatedLines(ctx context.Context, orderID id.ID) ([]AllocatedLine, error) {
	o, err := s.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	return o.AllocatedLines(), nil
}

// snapshotFromProduct copies price and per-unit discount onto a new line.
func (s *Service) snapshotFromProduct(ctx context.Context, item *Item) error {
	p, err := s.products.GetByID(ctx, item.ProductID)
	if err != nil {
		return err
	}
	item.UnitPrice = p.Price
	item.UnitDiscount = p.DiscountAmount
	return nil
}

// refreshDiscount re-reads the per-unit discount from the product.
// The price snapshot is kept; only the discount follows the catalog.
func (s *Service) refreshDiscount(ctx context.Context, item *Item) error {
	p, err := s.products.GetByID(ctx, item.ProductID)
	if err != nil {
		return err
	}
	item.UnitDiscount = p.DiscountAmount
	return nil
}

// recalculateAndSave reloads items, recomputes the derived total and
// persists the header.
func (s *Service) recalculateAndSave(ctx context.Context, o *SalesOrder) error {
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
