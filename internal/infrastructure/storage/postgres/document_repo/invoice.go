package document_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"uniworld/internal/core/id"
	"uniworld/internal/domain/documents/invoice"
	"uniworld/internal/infrastructure/storage/postgres"
)

const (
	invoicesTable     = "doc_invoices"
	invoiceItemsTable = "doc_invoice_items"
)

var invoiceItemColumns = []string{
	"id", "deletion_mark", "version",
	"invoice_id", "product_id", "quantity", "unit_price", "total",
}

// InvoiceRepo implements invoice.Repository.
type InvoiceRepo struct {
	*BaseDocumentRepo[*invoice.Invoice]
	txm *postgres.TxManager
}

// NewInvoiceRepo creates a new invoice repository.
func NewInvoiceRepo(txm *postgres.TxManager) *InvoiceRepo {
	return &InvoiceRepo{
		BaseDocumentRepo: NewBaseDocumentRepo(
			txm,
			invoicesTable,
			postgres.ExtractDBColumns[invoice.Invoice](),
			func() *invoice.Invoice { return &invoice.Invoice{} },
		),
		txm: txm,
	}
}

// Create inserts the invoice header and all of its lines.
func (r *InvoiceRepo) Create(ctx context.Context, inv *invoice.Invoice) error {
	if err := r.BaseDocumentRepo.Create(ctx, inv); err != nil {
		return err
	}

	if len(inv.Items) == 0 {
		return nil
	}

	q := r.Builder().
		Insert(invoiceItemsTable).
		Columns(invoiceItemColumns...)
	for _, item := range inv.Items {
		q = q.Values(
			item.ID, item.DeletionMark, item.Version,
			item.InvoiceID, item.ProductID,
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

// GetBySalesOrderID retrieves the live invoice for an order, nil when
// the order has never been invoiced.
func (r *InvoiceRepo) GetBySalesOrderID(ctx context.Context, salesOrderID id.ID) (*invoice.Invoice, error) {
	q := r.Builder().
		Select(postgres.ExtractDBColumns[invoice.Invoice]()...).
		From(invoicesTable).
		Where(squirrel.Eq{"sales_order_id": salesOrderID, "deletion_mark": false}).
		Limit(1)

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var inv invoice.Invoice
	querier := r.txm.GetQuerier(ctx)
	if err := pgxscan.Get(ctx, querier, &inv, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get invoice by order: %w", err)
	}
	return &inv, nil
}

// GetItems retrieves the invoice's lines in insertion order.
func (r *InvoiceRepo) GetItems(ctx context.Context, invoiceID id.ID) ([]*invoice.Item, error) {
	q := r.Builder().
		Select(invoiceItemColumns...).
		From(invoiceItemsTable).
		Where(squirrel.Eq{"invoice_id": invoiceID}).
		OrderBy("id")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var items []*invoice.Item
	querier := r.txm.GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &items, sql, args...); err != nil {
		return nil, fmt.Errorf("get items: %w", err)
	}
	return items, nil
}

var _ invoice.Repository = (*InvoiceRepo)(nil)
