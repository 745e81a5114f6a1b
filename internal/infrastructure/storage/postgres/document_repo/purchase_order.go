package document_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"uniworld/internal/core/apperror"
	"uniworld/internal/core/id"
	"uniworld/internal/domain/documents/purchaseorder"
	"uniworld/internal/infrastructure/storage/postgres"
)

const (
	purchaseOrdersTable     = "doc_purchase_orders"
	purchaseOrderItemsTable = "doc_purchase_order_items"
)

var purchaseOrderItemColumns = []string{
	"id", "deletion_mark", "version",
	"order_id", "product_id", "quantity", "unit_price", "total",
}

// PurchaseOrderRepo implements purchaseorder.Repository.
type PurchaseOrderRepo struct {
	*BaseDocumentRepo[*purchaseorder.PurchaseOrder]
	txm *postgres.TxManager
}

// NewPurchaseOrderRepo creates a new purchase order repository.
func NewPurchaseOrderRepo(txm *postgres.TxManager) *PurchaseOrderRepo {
	return &PurchaseOrderRepo{
		BaseDocumentRepo: NewBaseDocumentRepo(
			txm,
			purchaseOrdersTable,
			postgres.ExtractDBColumns[purchaseorder.PurchaseOrder](),
			func() *purchaseorder.PurchaseOrder { return &purchaseorder.PurchaseOrder{} },
		),
		txm: txm,
	}
}

// Create inserts the order header and its initial lines.
func (r *PurchaseOrderRepo) Create(ctx context.Context, o *purchaseorder.PurchaseOrder) error {
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
func (r *PurchaseOrderRepo) GetItems(ctx context.Context, orderID id.ID) ([]*purchaseorder.Item, error) {
	q := r.Builder().
		Select(purchaseOrderItemColumns...).
		From(purchaseOrderItemsTable).
		Where(squirrel.Eq{"order_id": orderID}).
		OrderBy("id")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var items []*purchaseorder.Item
	querier := r.txm.GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &items, sql, args...); err != nil {
		return nil, fmt.Errorf("get items: %w", err)
	}
	return items, nil
}

// GetItem retrieves one order line.
func (r *PurchaseOrderRepo) GetItem(ctx context.Context, itemID id.ID) (*purchaseorder.Item, error) {
	q := r.Builder().
		Select(purchaseOrderItemColumns...).
		From(purchaseOrderItemsTable).
		Where(squirrel.Eq{"id": itemID})

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var item purchaseorder.Item
	querier := r.txm.GetQuerier(ctx)
	if err := pgxscan.Get(ctx, querier, &item, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("purchase order item", itemID.String())
		}
		return nil, fmt.Errorf("get item: %w", err)
	}
	return &item, nil
}

// InsertItem appends one line.
func (r *PurchaseOrderRepo) InsertItem(ctx context.Context, item *purchaseorder.Item) error {
	q := r.Builder().
		Insert(purchaseOrderItemsTable).
		Columns(purchaseOrderItemColumns...).
		Values(
			item.ID, item.DeletionMark, item.Version,
			item.OrderID, item.ProductID, item.Quantity, item.UnitPrice, item.Total,
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

// UpdateItem rewrites one line.
func (r *PurchaseOrderRepo) UpdateItem(ctx context.Context, item *purchaseorder.Item) error {
	q := r.Builder().
		Update(purchaseOrderItemsTable).
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
		return apperror.NewNotFound("purchase order item", item.ID.String())
	}
	return nil
}

// DeleteItem removes one line.
func (r *PurchaseOrderRepo) DeleteItem(ctx context.Context, itemID id.ID) error {
	sql := "DELETE FROM " + purchaseOrderItemsTable + " WHERE id = $1"

	querier := r.txm.GetQuerier(ctx)
	tag, err := querier.Exec(ctx, sql, itemID)
	if err != nil {
		return fmt.Errorf("delete item: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewNotFound("purchase order item", itemID.String())
	}
	return nil
}

var _ purchaseorder.Repository = (*PurchaseOrderRepo)(nil)
