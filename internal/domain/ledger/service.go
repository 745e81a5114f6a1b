package ledger

import (
	"context"
	"fmt"
	"time"

	"uniworld/internal/core/apperror"
	appctx "uniworld/internal/core/context"
	"uniworld/internal/core/id"
	"uniworld/internal/core/tx"
	"uniworld/internal/core/types"
	"uniworld/internal/domain"
	"uniworld/pkg/logger"
)

// maxPostAttempts bounds retries on concurrency conflicts.
const maxPostAttempts = 3

// PostRequest describes one posting to the ledger.
type PostRequest struct {
	ProductID  id.ID
	Kind       Kind
	Quantity   types.Quantity
	Reference  string
	OccurredAt time.Time

	// Owner overrides the actor from context when set.
	Owner string
}

// Service posts entries to the ledger and keeps the cached product
// balance in lockstep with the chain.
type Service struct {
	repo      Repository
	products  ProductStore
	txManager tx.Manager
}

// NewService creates a new ledger service.
func NewService(repo Repository, products ProductStore, txManager tx.Manager) *Service {
	return &Service{
		repo:      repo,
		products:  products,
		txManager: txManager,
	}
}

// Post appends one entry to the ledger. The whole operation runs in a
// single transaction: lock the product row, verify the chain, compute
// the new balance, insert the entry, write the balance back.
//
// Concurrency conflicts are retried up to maxPostAttempts times when
// Post owns the transaction.
func (s *Service) Post(ctx context.Context, req PostRequest) (*Entry, error) {
	if err := s.validate(req); err != nil {
		return nil, err
	}

	var posted *Entry
	err := tx.WithRetry(ctx, s.txManager, maxPostAttempts, func(ctx context.Context) error {
		e, err := s.post(ctx, req)
		if err != nil {
			return err
		}
		posted = e
		return nil
	})
	if err != nil {
		return nil, err
	}
	return posted, nil
}

func (s *Service) validate(req PostRequest) error {
	if id.IsNil(req.ProductID) {
		return apperror.NewValidation("product is required").
			WithDetail("field", "productId")
	}
	if !req.Kind.Valid() {
		return apperror.NewValidation("unknown entry kind").
			WithDetail("field", "kind").
			WithDetail("value", string(req.Kind))
	}
	if req.Quantity.IsNegative() {
		return apperror.NewInvalidQuantity("quantity cannot be negative").
			WithDetail("quantity", req.Quantity.Int64())
	}
	if req.Reference == "" {
		return apperror.NewValidation("reference is required").
			WithDetail("field", "reference")
	}
	return nil
}

func (s *Service) post(ctx context.Context, req PostRequest) (*Entry, error) {
	previous, err := s.products.GetStockForUpdate(ctx, req.ProductID)
	if err != nil {
		return nil, fmt.Errorf("lock product balance: %w", err)
	}

	// The cached balance must mirror the last entry's closing balance.
	// A mismatch means the chain is broken; never post on top of it.
	last, err := s.repo.LastEntry(ctx, req.ProductID)
	if err != nil {
		return nil, fmt.Errorf("read last entry: %w", err)
	}
	if last != nil && last.CurrentStock != previous {
		logger.Error(ctx, "ledger chain broken",
			"product_id", req.ProductID.String(),
			"cached_balance", previous.Int64(),
			"chain_balance", last.CurrentStock.Int64(),
		)
		return nil, apperror.NewLedgerInconsistent(
			req.ProductID.String(), previous.Int64(), last.CurrentStock.Int64())
	}

	current, err := s.apply(req, previous)
	if err != nil {
		return nil, err
	}

	occurredAt := req.OccurredAt
	if occurredAt.IsZero() {
		occurredAt = time.Now().UTC()
	}
	owner := req.Owner
	if owner == "" {
		owner = appctx.GetActorName(ctx)
	}

	entry := &Entry{
		ID:            id.New(),
		ProductID:     req.ProductID,
		Kind:          req.Kind,
		Quantity:      req.Quantity,
		PreviousStock: previous,
		CurrentStock:  current,
		OccurredAt:    occurredAt,
		Reference:     req.Reference,
		Owner:         owner,
	}

	if err := s.repo.Insert(ctx, entry); err != nil {
		return nil, fmt.Errorf("insert entry: %w", err)
	}
	if err := s.products.SetStock(ctx, req.ProductID, current); err != nil {
		return nil, fmt.Errorf("write balance: %w", err)
	}

	logger.Debug(ctx, "ledger entry posted",
		"product_id", req.ProductID.String(),
		"kind", string(req.Kind),
		"quantity", req.Quantity.Int64(),
		"current_stock", current.Int64(),
		"reference", req.Reference,
	)

	return entry, nil
}

// apply computes the closing balance for an entry.
func (s *Service) apply(req PostRequest, previous types.Quantity) (types.Quantity, error) {
	switch req.Kind {
	case KindIn, KindReturn:
		return previous + req.Quantity, nil
	case KindOut:
		if req.Quantity > previous {
			return 0, apperror.NewInsufficientStock(
				req.ProductID.String(), req.Quantity.Int64(), previous.Int64())
		}
		return previous - req.Quantity, nil
	case KindAdjust:
		return req.Quantity, nil
	default:
		return 0, apperror.NewValidation("unknown entry kind").
			WithDetail("value", string(req.Kind))
	}
}

// History returns ledger entries for a product, newest first.
func (s *Service) History(ctx context.Context, filter HistoryFilter) (domain.ListResult[*Entry], error) {
	if id.IsNil(filter.ProductID) {
		return domain.ListResult[*Entry]{}, apperror.NewValidation("product is required").
			WithDetail("field", "productId")
	}
	return s.repo.History(ctx, filter)
}

// Adjust posts an absolute balance correction (stocktake result).
func (s *Service) Adjust(ctx context.Context, productID id.ID, qty types.Quantity, reference string) (*Entry, error) {
	return s.Post(ctx, PostRequest{
		ProductID: productID,
		Kind:      KindAdjust,
		Quantity:  qty,
		Reference: reference,
	})
}
