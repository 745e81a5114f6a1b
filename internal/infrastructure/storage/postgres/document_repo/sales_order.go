package document_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"uniworld/internal/core/apperror"
	"uniworld/internal/core/id"
	"uniworld/internal/domain/documents/salesorder"
	"uniworld/internal/infrastructure/storage/postgres"
)

const (
	salesOrdersTable     = "doc_sales_orders"
	salesOrderItemsTable = "doc_sales_order_items"
)

var salesOrderItemColumns = []string{
	"id", "deletion_mark", "version",
	"order_id", "product_id", "quantity",
	"unit_price", "unit_discount", "discount_total", "total",
}

// SalesOrderRepo implements salesorder.Repository.
type SalesOrderRepo struct {
	*BaseDocumentRepo[*salesorder.SalesOrder]
	txm *postgres.TxManager
}

// NewSalesOrderRepo creates a new sales order repository.
func NewSalesOrderRepo(txm *postgres.TxManager) *SalesOrderRepo {
	return &SalesOrderRepo{
		BaseDocumentRepo: NewBaseDocumentRepo(
			txm,
			salesOrdersTable,
			postgres.ExtractDBColumns[salesorder.SalesOrder](),
			func() *salesorder.SalesOrder { return &salesorder.SalesOrder{} },
		),
		txm: txm,
	}
}

// Create inserts the order header and its initial lines.
func (r *SalesOrderRepo) Create(ctx context.Context, o *salesorder.SalesOrder) error {
	if err := r.BaseDocumentRepo.Create(ctx, o); err != nil {
		return err
	}

	for _, item := range o.Items {
		if err := r.InsertItem(ctx, item); err != nil {
			return err
		}
	}
	return nil
}

// GetItems retrieves the order's lines in insertion order.
func (r *SalesOrderRepo) GetItems(ctx context.Context, orderID id.ID) ([]*salesorder.Item, error) {
	q := r.Builder().
		Select(salesOrderItemColumns...).
		From(salesOrderItemsTable).
		Where(squirrel.Eq{"order_id": orderID}).
		OrderBy("id")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var items []*salesorder.Item
	querier := r.txm.GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &items, sql, args...); err != nil {
		return nil, fmt.Errorf("get items: %w", err)
	}
	return items, nil
}

// GetItem retrieves one order line.
func (r *SalesOrderRepo) GetItem(ctx context.Context, itemID id.ID) (*salesorder.Item, error) {
	q := r.Builder().
		Select(salesOrderItemColumns...).
		From(salesOrderItemsTable).
		Where(squirrel.Eq{"id": itemID})

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var item salesorder.Item
	querier := r.txm.GetQuerier(ctx)
	if err := pgxscan.Get(ctx, querier, &item, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("sales order item", itemID.String())
		}
		return nil, fmt.Errorf("get item: %w", err)
	}
	return &item, nil
}

// InsertItem appends one line.
func (r *SalesOrderRepo) InsertItem(ctx context.Context, item *salesorder.Item) error {
	q := r.Builder().
		Insert(salesOrderItemsTable).
		Columns(salesOrderItemColumns...).
		Values(
			item.ID, item.DeletionMark, item.Version,
			item.OrderID, item.ProductID, item.Quantity,
			item.UnitPrice, item.UnitDiscount, item.DiscountTotal, item.Total,
		)

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	querier := r.txm.GetQuerier(ctx)
	if _, err := querier.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert item: %w", err)
	}
	return nil
}

// UpdateItem rewrites one line's quantity and monetary snapshots.
func (r *SalesOrderRepo) UpdateItem(ctx context.Context, item *salesorder.Item) error {
	q := r.Builder().
		Update(salesOrderItemsTable).
		Set("quantity", item.Quantity).
		Set("unit_price", item.UnitPrice).
		Set("unit_discount", item.UnitDiscount).
		Set("discount_total", item.DiscountTotal).
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
		return apperror.NewNotFound("sales order item", item.ID.String())
	}
	return nil
}

// DeleteItem removes one line. Lines are hard-deleted; the ledger keeps
// the history.
func (r *SalesOrderRepo) DeleteItem(ctx context.Context, itemID id.ID) error {
	sql := "DELETE FROM " + salesOrderItemsTable + " WHERE id = $1"

	querier := r.txm.GetQuerier(ctx)
	tag, err := querier.Exec(ctx, sql, itemID)
	if err != nil {
		return fmt.Errorf("delete item: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewNotFound("sales order item", itemID.String())
	}
	return nil
}

var _ salesorder.Repository = (*SalesOrderRepo)(nil)
