package reports

import (
	"context"
	"fmt"
	"time"

	"uniworld/internal/core/apperror"
	"uniworld/internal/core/id"
	"uniworld/internal/core/tx"
	"uniworld/internal/core/types"
	"uniworld/internal/domain/ledger"
	"uniworld/pkg/logger"
)

// Service reconstructs stock positions from the ledger.
type Service struct {
	repo      Repository
	cfg       Config
	txManager tx.ReadOnlyManager
}

// NewService creates a new reports service.
func NewService(repo Repository, cfg Config, txManager tx.ReadOnlyManager) *Service {
	return &Service{repo: repo, cfg: cfg, txManager: txManager}
}

// ReconstructStock rebuilds the opening/received/issued/closing picture
// for one product over [from, to]. The window start is floored at
// MinStockDate; entries older than the floor carry balances from before
// the balance-carrying schema and are used only as a last resort.
func (s *Service) ReconstructStock(ctx context.Context, productID id.ID, from, to time.Time) (*StockWindow, error) {
	if id.IsNil(productID) {
		return nil, apperror.NewValidation("product is required").
			WithDetail("field", "productId")
	}
	if from.IsZero() || to.IsZero() {
		return nil, apperror.NewValidation("from and to dates are required")
	}
	if from.After(to) {
		return nil, apperror.NewValidation("from must not be after to").
			WithDetail("from", from).
			WithDetail("to", to)
	}

	var window *StockWindow
	err := s.txManager.ReadOnly(ctx, func(ctx context.Context) error {
		w, err := s.reconstruct(ctx, productID, from, to)
		if err != nil {
			return err
		}
		window = w
		return nil
	})
	if err != nil {
		return nil, err
	}
	return window, nil
}

func (s *Service) reconstruct(ctx context.Context, productID id.ID, from, to time.Time) (*StockWindow, error) {
	effectiveFrom := from
	var floor *time.Time
	if !s.cfg.MinStockDate.IsZero() {
		f := s.cfg.MinStockDate
		floor = &f
		if effectiveFrom.Before(f) {
			effectiveFrom = f
		}
	}

	w := &StockWindow{
		ProductID:     productID,
		From:          from,
		To:            to,
		EffectiveFrom: effectiveFrom,
		FromLedger:    true,
	}

	opening, openingFromLedger, err := s.opening(ctx, productID, effectiveFrom, floor)
	if err != nil {
		return nil, err
	}
	w.Opening = opening
	if !openingFromLedger {
		w.FromLedger = false
	}

	received, err := s.repo.SumKinds(ctx, productID,
		[]ledger.Kind{ledger.KindIn, ledger.KindReturn}, effectiveFrom, to)
	if err != nil {
		return nil, fmt.Errorf("sum received: %w", err)
	}
	w.Received = received

	issued, err := s.repo.SumKinds(ctx, productID,
		[]ledger.Kind{ledger.KindOut}, effectiveFrom, to)
	if err != nil {
		return nil, fmt.Errorf("sum issued: %w", err)
	}
	w.Issued = issued

	closing, closingFromLedger, err := s.closing(ctx, productID, to, floor)
	if err != nil {
		return nil, err
	}
	w.Closing = closing
	if !closingFromLedger {
		w.FromLedger = false
	}

	if !w.FromLedger {
		logger.Debug(ctx, "stock reconstruction used fallback balances",
			"product_id", productID.String(), "from", from, "to", to)
	}

	return w, nil
}

// opening resolves the balance at the effective window start:
//  1. closing balance of the last entry before the start (floored)
//  2. opening balance of the first entry at or after the start
//  3. the cached product balance (marks the window as not-from-ledger)
func (s *Service) opening(ctx context.Context, productID id.ID, effectiveFrom time.Time, floor *time.Time) (types.Quantity, bool, error) {
	before, err := s.repo.LastEntryBefore(ctx, productID, effectiveFrom, floor)
	if err != nil {
		return 0, false, fmt.Errorf("last entry before window: %w", err)
	}
	if before != nil {
		return before.CurrentStock, true, nil
	}

	first, err := s.repo.FirstEntrySince(ctx, productID, effectiveFrom)
	if err != nil {
		return 0, false, fmt.Errorf("first entry in window: %w", err)
	}
	if first != nil {
		return first.PreviousStock, true, nil
	}

	cached, err := s.repo.CachedStock(ctx, productID)
	if err != nil {
		return 0, false, fmt.Errorf("cached stock: %w", err)
	}
	return cached, false, nil
}

// closing resolves the balance at the window end:
//  1. closing balance of the last entry inside [floor, end]
//  2. closing balance of the last entry before the floor (stale, so the
//     window is marked not-from-ledger)
//  3. the cached product balance (also not-from-ledger)
func (s *Service) closing(ctx context.Context, productID id.ID, end time.Time, floor *time.Time) (types.Quantity, bool, error) {
	last, err := s.repo.LastEntryUntil(ctx, productID, end, floor)
	if err != nil {
		return 0, false, fmt.Errorf("last entry in window: %w", err)
	}
	if last != nil {
		return last.CurrentStock, true, nil
	}

	if floor != nil {
		stale, err := s.repo.LastEntryBefore(ctx, productID, *floor, nil)
		if err != nil {
			return 0, false, fmt.Errorf("last entry before floor: %w", err)
		}
		if stale != nil {
			return stale.CurrentStock, false, nil
		}
	}

	cached, err := s.repo.CachedStock(ctx, productID)
	if err != nil {
		return 0, false, fmt.Errorf("cached stock: %w", err)
	}
	return cached, false, nil
}

// Summary reconstructs windows for every active product.
func (s *Service) Summary(ctx context.Context, from, to time.Time) (*StockSummary, error) {
	if from.IsZero() || to.IsZero() {
		return nil, apperror.NewValidation("from and to dates are required")
	}
	if from.After(to) {
		return nil, apperror.NewValidation("from must not be after to")
	}

	summary := &StockSummary{From: from, To: to}
	err := s.txManager.ReadOnly(ctx, func(ctx context.Context) error {
		productIDs, err := s.repo.ActiveProductIDs(ctx)
		if err != nil {
			return fmt.Errorf("list products: %w", err)
		}

		for _, productID := range productIDs {
			w, err := s.reconstruct(ctx, productID, from, to)
			if err != nil {
				return err
			}
			summary.Items = append(summary.Items, w)
			summary.TotalReceived += w.Received
			summary.TotalIssued += w.Issued
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return summary, nil
}
