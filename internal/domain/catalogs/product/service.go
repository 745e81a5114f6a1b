package product

import (
	"context"
	"fmt"
	"time"

	"uniworld/internal/core/apperror"
	"uniworld/internal/core/id"
	"uniworld/internal/core/tx"
	"uniworld/internal/domain"
	"uniworld/pkg/numerator"
)

// Service provides business logic for the product catalog.
type Service struct {
	repo      Repository
	txManager tx.Manager
	numerator *numerator.Service
}

// NewService creates a new product service.
func NewService(repo Repository, txManager tx.Manager, num *numerator.Service) *Service {
	return &Service{
		repo:      repo,
		txManager: txManager,
		numerator: num,
	}
}

// Create validates and inserts a new product. The cached balance always
// starts at zero; initial stock arrives through a ledger adjustment.
func (s *Service) Create(ctx context.Context, p *Product) error {
	if err := p.Validate(ctx); err != nil {
		return err
	}

	if p.SKU == "" && s.numerator != nil {
		sku, err := s.numerator.NextNumber(ctx, numerator.DefaultConfig("SKU"), time.Now())
		if err != nil {
			return fmt.Errorf("generate sku: %w", err)
		}
		p.SKU = sku
	}

	p.StockQuantity = 0

	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if existing, err := s.repo.GetBySKU(ctx, p.SKU); err == nil && existing != nil {
			return apperror.NewConflict("product with this sku already exists").
				WithDetail("sku", p.SKU)
		}
		if err := s.repo.Create(ctx, p); err != nil {
			return fmt.Errorf("create product: %w", err)
		}
		return nil
	})
}

// GetByID retrieves a product by ID.
func (s *Service) GetByID(ctx context.Context, productID id.ID) (*Product, error) {
	return s.repo.GetByID(ctx, productID)
}

// GetBySKU retrieves a product by SKU.
func (s *Service) GetBySKU(ctx context.Context, sku string) (*Product, error) {
	return s.repo.GetBySKU(ctx, sku)
}

// Update persists master data changes. Client-supplied stock quantities
// are ignored: the repository update excludes the balance column.
func (s *Service) Update(ctx context.Context, p *Product) error {
	if err := p.Validate(ctx); err != nil {
		return err
	}

	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.Update(ctx, p); err != nil {
			return fmt.Errorf("update product: %w", err)
		}
		return nil
	})
}

// Delete soft-deletes a product.
func (s *Service) Delete(ctx context.Context, productID id.ID) error {
	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		return s.repo.SetDeletionMark(ctx, productID, true)
	})
}

// List retrieves products with filtering.
func (s *Service) List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[*Product], error) {
	return s.repo.List(ctx, filter)
}

// FindLowStock retrieves products at or below their reorder level.
func (s *Service) FindLowStock(ctx context.Context, filter domain.ListFilter) (domain.ListResult[*Product], error) {
	return s.repo.FindLowStock(ctx, filter)
}
