package salesreturn

import (
	"context"
	"fmt"
	"time"

	"uniworld/internal/core/apperror"
	"uniworld/internal/core/id"
	"uniworld/internal/core/tx"
	"uniworld/internal/core/types"
	"uniworld/internal/domain"
	"uniworld/internal/domain/documents/salesorder"
	"uniworld/internal/domain/ledger"
	"uniworld/internal/domain/pricing"
	"uniworld/pkg/logger"
	"uniworld/pkg/numerator"
)

// Service provides business operations for sales returns.
type Service struct {
	repo      Repository
	orders    OrderReader
	ledger    Poster
	numerator *numerator.Service
	txManager tx.Manager
}

// NewService creates a new return service.
func NewService(
	repo Repository,
	orders OrderReader,
	poster Poster,
	num *numerator.Service,
	txManager tx.Manager,
) *Service {
	return &Service{
		repo:      repo,
		orders:    orders,
		ledger:    poster,
		numerator: num,
		txManager: txManager,
	}
}

// CreateReturn creates a return document. Every line is validated
// against its sales order line's remaining returnable quantity, then a
// RETURN entry is posted for each non-zero line. A return where every
// line is zero is rejected outright.
func (s *Service) CreateReturn(ctx context.Context, r *ReturnSales) error {
	if err := r.Validate(ctx); err != nil {
		return err
	}

	if !r.HasReturnedItems() {
		return apperror.NewNoItemsReturned()
	}

	if r.Number == "" {
		number, err := s.numerator.NextNumber(ctx, numerator.DefaultConfig("RET"), time.Now())
		if err != nil {
			return fmt.Errorf("generate number: %w", err)
		}
		r.Number = number
	}

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		// Lines in the same submission may reference the same order
		// line; the cap counts them jointly, not one by one.
		requested := make(map[id.ID]types.Quantity)

		for _, item := range r.Items {
			item.ReturnID = r.ID

			orderItem, err := s.orders.GetItem(ctx, item.SalesOrderItemID)
			if err != nil {
				return err
			}
			item.ProductID = orderItem.ProductID
			item.UnitPrice = pricing.EffectiveUnitPrice(orderItem.UnitPrice, orderItem.UnitDiscount)
			item.Settle()

			if item.Quantity.IsZero() {
				continue
			}

			if err := s.checkReturnable(ctx, orderItem, item.Quantity, nil, requested[item.SalesOrderItemID]); err != nil {
				return err
			}
			requested[item.SalesOrderItemID] += item.Quantity
		}
		r.RecalculateTotal()

		if err := s.repo.Create(ctx, r); err != nil {
			return fmt.Errorf("create return: %w", err)
		}

		for _, item := range r.Items {
			if item.Quantity.IsZero() {
				continue
			}
			if _, err := s.ledger.Post(ctx, ledger.PostRequest{
				ProductID: item.ProductID,
				Kind:      ledger.KindReturn,
				Quantity:  item.Quantity,
				Reference: r.Number,
			}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	logger.Info(ctx, "sales return created", "id", r.ID, "number", r.Number, "items", len(r.Items))
	return nil
}

// GetByID retrieves a return with its items.
func (s *Service) GetByID(ctx context.Context, returnID id.ID) (*ReturnSales, error) {
	r, err := s.repo.GetByID(ctx, returnID)
	if err != nil {
		return nil, err
	}

	items, err := s.repo.GetItems(ctx, returnID)
	if err != nil {
		return nil, fmt.Errorf("get items: %w", err)
	}
	r.Items = items

	return r, nil
}

// UpdateReturnLine changes a return line's quantity and posts only the
// delta: an increase returns more stock (RETURN), a decrease takes the
// surplus back out (OUT). The max-returnable check excludes the line
// itself, so shrinking an over-counted line is always possible.
func (s *Service) UpdateReturnLine(ctx context.Context, itemID id.ID, qty types.Quantity) (*Item, error) {
	if qty.IsNegative() {
		return nil, apperror.NewInvalidQuantity("quantity cannot be negative").
			WithDetail("quantity", qty.Int64())
	}

	var updated *Item
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		item, err := s.repo.GetItem(ctx, itemID)
		if err != nil {
			return err
		}
		r, err := s.repo.GetByID(ctx, item.ReturnID)
		if err != nil {
			return err
		}

		orderItem, err := s.orders.GetItem(ctx, item.SalesOrderItemID)
		if err != nil {
			return err
		}

		if qty.IsPositive() {
			if err := s.checkReturnable(ctx, orderItem, qty, &item.ID, 0); err != nil {
				return err
			}
		}

		delta := qty - item.Quantity

		item.Quantity = qty
		item.UnitPrice = pricing.EffectiveUnitPrice(orderItem.UnitPrice, orderItem.UnitDiscount)
		item.Settle()
		item.Touch()

		if err := s.repo.UpdateItem(ctx, item); err != nil {
			return fmt.Errorf("update item: %w", err)
		}

		if delta != 0 {
			req := ledger.PostRequest{
				ProductID: item.ProductID,
				Reference: fmt.Sprintf("%s-Update", r.Number),
			}
			if delta > 0 {
				req.Kind = ledger.KindReturn
				req.Quantity = delta
			} else {
				req.Kind = ledger.KindOut
				req.Quantity = delta.Abs()
			}
			if _, err := s.ledger.Post(ctx, req); err != nil {
				return err
			}
		}

		items, err := s.repo.GetItems(ctx, r.ID)
		if err != nil {
			return fmt.Errorf("get items: %w", err)
		}
		r.Items = items
		r.RecalculateTotal()
		r.Touch()
		if err := s.repo.Update(ctx, r); err != nil {
			return fmt.Errorf("update return: %w", err)
		}

		updated = item
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// List retrieves returns with filtering.
func (s *Service) List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[*ReturnSales], error) {
	return s.repo.List(ctx, filter)
}

// checkReturnable enforces max returnable = sold - already returned.
// pending is the quantity already claimed against the same order line
// earlier in the same submission.
func (s *Service) checkReturnable(ctx context.Context, orderItem *salesorder.Item, qty types.Quantity, excludeItemID *id.ID, pending types.Quantity) error {
	returned, err := s.repo.SumReturnedForOrderItem(ctx, orderItem.ID, excludeItemID)
	if err != nil {
		return fmt.Errorf("sum returned: %w", err)
	}

	maxReturnable := orderItem.Quantity - returned - pending
	if maxReturnable.IsNegative() {
		maxReturnable = 0
	}
	if qty > maxReturnable {
		return apperror.NewReturnExceedsAvailable(maxReturnable.Int64()).
			WithDetail("sales_order_item_id", orderItem.ID.String()).
			WithDetail("requested", qty.Int64())
	}
	return nil
}
