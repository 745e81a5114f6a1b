package document_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"uniworld/internal/core/apperror"
	"uniworld/internal/core/id"
	"uniworld/internal/core/types"
	"uniworld/internal/domain/documents/salesreturn"
	"uniworld/internal/infrastructure/storage/postgres"
)

const (
	salesReturnsTable     = "doc_sales_returns"
	salesReturnItemsTable = "doc_sales_return_items"
)

var salesReturnItemColumns = []string{
	"id", "deletion_mark", "version",
	"return_id", "sales_order_item_id", "product_id",
	"quantity", "unit_price", "total",
}

// SalesReturnRepo implements salesreturn.Repository.
type SalesReturnRepo struct {
	*BaseDocumentRepo[*salesreturn.ReturnSales]
	txm *postgres.TxManager
}

// NewSalesReturnRepo creates a new sales return repository.
func NewSalesReturnRepo(txm *postgres.TxManager) *SalesReturnRepo {
	return &SalesReturnRepo{
		BaseDocumentRepo: NewBaseDocumentRepo(
			txm,
			salesReturnsTable,
			postgres.ExtractDBColumns[salesreturn.ReturnSales](),
			func() *salesreturn.ReturnSales { return &salesreturn.ReturnSales{} },
		),
		txm: txm,
	}
}

// Create inserts the return header and all of its lines.
func (r *SalesReturnRepo) Create(ctx context.Context, ret *salesreturn.ReturnSales) error {
	if err := r.BaseDocumentRepo.Create(ctx, ret); err != nil {
		return err
	}

	if len(ret.Items) == 0 {
		return nil
	}

	q := r.Builder().
		Insert(salesReturnItemsTable).
		Columns(salesReturnItemColumns...)
	for _, item := range ret.Items {
		q = q.Values(
			item.ID, item.DeletionMark, item.Version,
			item.ReturnID, item.SalesOrderItemID, item.ProductID,
			item.Quantity, item.UnitPrice, item.Total,
		)
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert items: %w", err)
	}

	querier := r.txm.GetQuerier(ctx)
	if _, err := querier.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert items: %w", err)
	}
	return nil
}

// GetItems retrieves the return's lines in insertion order.
func (r *SalesReturnRepo) GetItems(ctx context.Context, returnID id.ID) ([]*salesreturn.Item, error) {
	q := r.Builder().
		Select(salesReturnItemColumns...).
		From(salesReturnItemsTable).
		Where(squirrel.Eq{"return_id": returnID}).
		OrderBy("id")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var items []*salesreturn.Item
	querier := r.txm.GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &items, sql, args...); err != nil {
		return nil, fmt.Errorf("get items: %w", err)
	}
	return items, nil
}

// GetItem retrieves one return line.
func (r *SalesReturnRepo) GetItem(ctx context.Context, itemID id.ID) (*salesreturn.Item, error) {
	q := r.Builder().
		Select(salesReturnItemColumns...).
		From(salesReturnItemsTable).
		Where(squirrel.Eq{"id": itemID})

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var item salesreturn.Item
	querier := r.txm.GetQuerier(ctx)
	if err := pgxscan.Get(ctx, querier, &item, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("return item", itemID.String())
		}
		return nil, fmt.Errorf("get item: %w", err)
	}
	return &item, nil
}

// UpdateItem rewrites one line's quantity and total.
func (r *SalesReturnRepo) UpdateItem(ctx context.Context, item *salesreturn.Item) error {
	q := r.Builder().
		Update(salesReturnItemsTable).
		Set("quantity", item.Quantity).
		Set("unit_price", item.UnitPrice).
		Set("total", item.Total).
		Set("version", squirrel.Expr("version + 1")).
		Where(squirrel.Eq{"id": item.ID})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	querier := r.txm.GetQuerier(ctx)
	tag, err := querier.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update item: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewNotFound("return item", item.ID.String())
	}
	return nil
}

// SumReturnedForOrderItem totals quantities already returned against a
// sales order line, optionally excluding one return line.
func (r *SalesReturnRepo) SumReturnedForOrderItem(ctx context.Context, salesOrderItemID id.ID, excludeItemID *id.ID) (types.Quantity, error) {
	q := r.Builder().
		Select("COALESCE(SUM(quantity), 0)").
		From(salesReturnItemsTable).
		Where(squirrel.Eq{"sales_order_item_id": salesOrderItemID})
	if excludeItemID != nil {
		q = q.Where(squirrel.NotEq{"id": *excludeItemID})
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return 0, fmt.Errorf("build query: %w", err)
	}

	var total int64
	querier := r.txm.GetQuerier(ctx)
	if err := querier.QueryRow(ctx, sql, args...).Scan(&total); err != nil {
		return 0, fmt.Errorf("sum returned: %w", err)
	}
	return types.Quantity(total), nil
}

var _ salesreturn.Repository = (*SalesReturnRepo)(nil)
