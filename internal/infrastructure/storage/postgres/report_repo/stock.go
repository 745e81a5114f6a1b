// Package report_repo provides the read-only queries behind stock
// reconstruction.
package report_repo

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"uniworld/internal/core/apperror"
	"uniworld/internal/core/id"
	"uniworld/internal/core/types"
	"uniworld/internal/domain/ledger"
	"uniworld/internal/domain/reports"
	"uniworld/internal/infrastructure/storage/postgres"
)

const (
	entriesTable  = "stock_ledger"
	productsTable = "cat_products"
)

var entryColumns = []string{
	"id", "product_id", "kind", "quantity",
	"previous_stock", "current_stock",
	"occurred_at", "reference", "owner",
}

// StockReportRepo implements reports.Repository.
type StockReportRepo struct {
	txm     *postgres.TxManager
	builder squirrel.StatementBuilderType
}

// NewStockReportRepo creates a new stock report repository.
func NewStockReportRepo(txm *postgres.TxManager) *StockReportRepo {
	return &StockReportRepo{
		txm:     txm,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// LastEntryBefore returns the latest entry strictly before cutoff,
// nil when none matches.
func (r *StockReportRepo) LastEntryBefore(ctx context.Context, productID id.ID, cutoff time.Time, floor *time.Time) (*ledger.Entry, error) {
	q := r.builder.Select(entryColumns...).
		From(entriesTable).
		Where(squirrel.Eq{"product_id": productID}).
		Where(squirrel.Lt{"occurred_at": cutoff})
	if floor != nil {
		q = q.Where(squirrel.GtOrEq{"occurred_at": *floor})
	}
	q = q.OrderBy("occurred_at DESC", "id DESC").Limit(1)

	return r.getEntry(ctx, q)
}

// LastEntryUntil returns the latest entry with occurred_at <= end,
// nil when none matches.
func (r *StockReportRepo) LastEntryUntil(ctx context.Context, productID id.ID, end time.Time, floor *time.Time) (*ledger.Entry, error) {
	q := r.builder.Select(entryColumns...).
		From(entriesTable).
		Where(squirrel.Eq{"product_id": productID}).
		Where(squirrel.LtOrEq{"occurred_at": end})
	if floor != nil {
		q = q.Where(squirrel.GtOrEq{"occurred_at": *floor})
	}
	q = q.OrderBy("occurred_at DESC", "id DESC").Limit(1)

	return r.getEntry(ctx, q)
}

// FirstEntrySince returns the earliest entry with occurred_at >= from,
// nil when none matches.
func (r *StockReportRepo) FirstEntrySince(ctx context.Context, productID id.ID, from time.Time) (*ledger.Entry, error) {
	q := r.builder.Select(entryColumns...).
		From(entriesTable).
		Where(squirrel.Eq{"product_id": productID}).
		Where(squirrel.GtOrEq{"occurred_at": from}).
		OrderBy("occurred_at ASC", "id ASC").
		Limit(1)

	return r.getEntry(ctx, q)
}

func (r *StockReportRepo) getEntry(ctx context.Context, q squirrel.SelectBuilder) (*ledger.Entry, error) {
	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var e ledger.Entry
	querier := r.txm.GetQuerier(ctx)
	if err := pgxscan.Get(ctx, querier, &e, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get entry: %w", err)
	}
	return &e, nil
}

// SumKinds totals entry quantities of the given kinds over [from, to].
func (r *StockReportRepo) SumKinds(ctx context.Context, productID id.ID, kinds []ledger.Kind, from, to time.Time) (types.Quantity, error) {
	q := r.builder.Select("COALESCE(SUM(quantity), 0)").
		From(entriesTable).
		Where(squirrel.Eq{"product_id": productID}).
		Where(squirrel.Eq{"kind": kinds}).
		Where(squirrel.GtOrEq{"occurred_at": from}).
		Where(squirrel.LtOrEq{"occurred_at": to})

	sql, args, err := q.ToSql()
	if err != nil {
		return 0, fmt.Errorf("build query: %w", err)
	}

	var total int64
	querier := r.txm.GetQuerier(ctx)
	if err := querier.QueryRow(ctx, sql, args...).Scan(&total); err != nil {
		return 0, fmt.Errorf("sum quantities: %w", err)
	}
	return types.Quantity(total), nil
}

// CachedStock reads the product's cached balance.
func (r *StockReportRepo) CachedStock(ctx context.Context, productID id.ID) (types.Quantity, error) {
	q := r.builder.Select("stock_quantity").
		From(productsTable).
		Where(squirrel.Eq{"id": productID})

	sql, args, err := q.ToSql()
	if err != nil {
		return 0, fmt.Errorf("build query: %w", err)
	}

	var qty int64
	querier := r.txm.GetQuerier(ctx)
	if err := querier.QueryRow(ctx, sql, args...).Scan(&qty); err != nil {
		if pgxscan.NotFound(err) {
			return 0, apperror.NewNotFound("product", productID.String())
		}
		return 0, fmt.Errorf("cached stock: %w", err)
	}
	return types.Quantity(qty), nil
}

// ActiveProductIDs lists non-deleted active products for the summary
// report.
func (r *StockReportRepo) ActiveProductIDs(ctx context.Context) ([]id.ID, error) {
	q := r.builder.Select("id").
		From(productsTable).
		Where(squirrel.Eq{"deletion_mark": false, "is_active": true}).
		OrderBy("name")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var ids []id.ID
	querier := r.txm.GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &ids, sql, args...); err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	return ids, nil
}

var _ reports.Repository = (*StockReportRepo)(nil)
