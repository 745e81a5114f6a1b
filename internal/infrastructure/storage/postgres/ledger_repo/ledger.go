// Package ledger_repo provides the PostgreSQL ledger store.
// The table is insert-only; corrections are compensating entries.
package ledger_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"uniworld/internal/core/apperror"
	"uniworld/internal/core/id"
	"uniworld/internal/domain"
	"uniworld/internal/domain/ledger"
	"uniworld/internal/infrastructure/storage/postgres"
)

const entriesTable = "stock_ledger"

var entryColumns = []string{
	"id", "product_id", "kind", "quantity",
	"previous_stock", "current_stock",
	"occurred_at", "reference", "owner",
}

// LedgerRepo implements ledger.Repository.
type LedgerRepo struct {
	txm     *postgres.TxManager
	builder squirrel.StatementBuilderType
}

// NewLedgerRepo creates a new ledger repository.
func NewLedgerRepo(txm *postgres.TxManager) *LedgerRepo {
	return &LedgerRepo{
		txm:     txm,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// Insert appends one entry.
func (r *LedgerRepo) Insert(ctx context.Context, e *ledger.Entry) error {
	q := r.builder.Insert(entriesTable).
		Columns(entryColumns...).
		Values(
			e.ID, e.ProductID, e.Kind, e.Quantity,
			e.PreviousStock, e.CurrentStock,
			e.OccurredAt, e.Reference, e.Owner,
		)

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	querier := r.txm.GetQuerier(ctx)
	if _, err := querier.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert ledger entry: %w", err)
	}
	return nil
}

// GetByID retrieves a single entry.
func (r *LedgerRepo) GetByID(ctx context.Context, entryID id.ID) (*ledger.Entry, error) {
	q := r.builder.Select(entryColumns...).
		From(entriesTable).
		Where(squirrel.Eq{"id": entryID})

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var e ledger.Entry
	querier := r.txm.GetQuerier(ctx)
	if err := pgxscan.Get(ctx, querier, &e, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("ledger entry", entryID.String())
		}
		return nil, fmt.Errorf("get ledger entry: %w", err)
	}
	return &e, nil
}

// LastEntry returns the product's most recent entry, nil when the
// product has no history.
func (r *LedgerRepo) LastEntry(ctx context.Context, productID id.ID) (*ledger.Entry, error) {
	q := r.builder.Select(entryColumns...).
		From(entriesTable).
		Where(squirrel.Eq{"product_id": productID}).
		OrderBy("occurred_at DESC", "id DESC").
		Limit(1)

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
		return nil, fmt.Errorf("last ledger entry: %w", err)
	}
	return &e, nil
}

// History retrieves entries newest first with kind, date and reference
// filters.
func (r *LedgerRepo) History(ctx context.Context, filter ledger.HistoryFilter) (domain.ListResult[*ledger.Entry], error) {
	result := domain.ListResult[*ledger.Entry]{
		Limit:  filter.Limit,
		Offset: filter.Offset,
	}

	q := r.builder.Select(entryColumns...).From(entriesTable)
	countQ := r.builder.Select("COUNT(*)").From(entriesTable)

	conds := make([]squirrel.Sqlizer, 0, 5)
	if !id.IsNil(filter.ProductID) {
		conds = append(conds, squirrel.Eq{"product_id": filter.ProductID})
	}
	if len(filter.Kinds) > 0 {
		conds = append(conds, squirrel.Eq{"kind": filter.Kinds})
	}
	if filter.From != nil {
		conds = append(conds, squirrel.GtOrEq{"occurred_at": *filter.From})
	}
	if filter.To != nil {
		conds = append(conds, squirrel.LtOrEq{"occurred_at": *filter.To})
	}
	if filter.Reference != "" {
		conds = append(conds, squirrel.ILike{"reference": "%" + filter.Reference + "%"})
	}
	for _, c := range conds {
		q = q.Where(c)
		countQ = countQ.Where(c)
	}

	q = q.OrderBy("occurred_at DESC", "id DESC")
	if filter.Limit > 0 {
		q = q.Limit(uint64(filter.Limit))
	}
	if filter.Offset > 0 {
		q = q.Offset(uint64(filter.Offset))
	}

	querier := r.txm.GetQuerier(ctx)

	countSQL, countArgs, err := countQ.ToSql()
	if err != nil {
		return result, fmt.Errorf("build count: %w", err)
	}
	if err := querier.QueryRow(ctx, countSQL, countArgs...).Scan(&result.TotalCount); err != nil {
		return result, fmt.Errorf("count ledger entries: %w", err)
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return result, fmt.Errorf("build query: %w", err)
	}
	if err := pgxscan.Select(ctx, querier, &result.Items, sql, args...); err != nil {
		return result, fmt.Errorf("select ledger entries: %w", err)
	}

	return result, nil
}

var _ ledger.Repository = (*LedgerRepo)(nil)
