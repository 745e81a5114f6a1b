// Package catalog_repo provides PostgreSQL implementations for catalog
// repositories.
package catalog_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"uniworld/internal/core/apperror"
	"uniworld/internal/core/id"
	"uniworld/internal/core/types"
	"uniworld/internal/domain"
	"uniworld/internal/domain/catalogs/product"
	"uniworld/internal/infrastructure/storage/postgres"
)

const productsTable = "cat_products"

var productColumns = []string{
	"id", "deletion_mark", "version",
	"sku", "name", "category", "unit",
	"price", "discount_amount",
	"stock_quantity", "reorder_level",
	"barcode", "description", "is_active",
}

// ProductRepo implements product.Repository.
type ProductRepo struct {
	txm     *postgres.TxManager
	builder squirrel.StatementBuilderType
}

// NewProductRepo creates a new product repository.
func NewProductRepo(txm *postgres.TxManager) *ProductRepo {
	return &ProductRepo{
		txm:     txm,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// Create inserts a new product.
func (r *ProductRepo) Create(ctx context.Context, p *product.Product) error {
	q := r.builder.Insert(productsTable).
		Columns(productColumns...).
		Values(
			p.ID, p.DeletionMark, p.Version,
			p.SKU, p.Name, p.Category, p.Unit,
			p.Price, p.DiscountAmount,
			p.StockQuantity, p.ReorderLevel,
			p.Barcode, p.Description, p.IsActive,
		)

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	querier := r.txm.GetQuerier(ctx)
	if _, err := querier.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert product: %w", err)
	}
	return nil
}

// GetByID retrieves a product by ID.
func (r *ProductRepo) GetByID(ctx context.Context, productID id.ID) (*product.Product, error) {
	return r.getOne(ctx, squirrel.Eq{"id": productID})
}

// GetBySKU retrieves a product by SKU.
func (r *ProductRepo) GetBySKU(ctx context.Context, sku string) (*product.Product, error) {
	return r.getOne(ctx, squirrel.Eq{"sku": sku})
}

func (r *ProductRepo) getOne(ctx context.Context, where squirrel.Eq) (*product.Product, error) {
	q := r.builder.Select(productColumns...).
		From(productsTable).
		Where(where).
		Limit(1)

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var p product.Product
	querier := r.txm.GetQuerier(ctx)
	if err := pgxscan.Get(ctx, querier, &p, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("product", fmt.Sprintf("%v", where))
		}
		return nil, fmt.Errorf("get product: %w", err)
	}
	return &p, nil
}

// Update persists master data with optimistic locking. The cached
// balance column is deliberately excluded.
func (r *ProductRepo) Update(ctx context.Context, p *product.Product) error {
	q := r.builder.Update(productsTable).
		Set("sku", p.SKU).
		Set("name", p.Name).
		Set("category", p.Category).
		Set("unit", p.Unit).
		Set("price", p.Price).
		Set("discount_amount", p.DiscountAmount).
		Set("reorder_level", p.ReorderLevel).
		Set("barcode", p.Barcode).
		Set("description", p.Description).
		Set("is_active", p.IsActive).
		Set("version", p.Version+1).
		Where(squirrel.Eq{"id": p.ID, "version": p.Version})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	querier := r.txm.GetQuerier(ctx)
	tag, err := querier.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update product: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewConcurrencyConflict(nil).
			WithDetail("entity", "product").
			WithDetail("id", p.ID.String())
	}

	p.SetVersion(p.Version + 1)
	return nil
}

// SetDeletionMark sets or clears the soft-delete mark.
func (r *ProductRepo) SetDeletionMark(ctx context.Context, productID id.ID, marked bool) error {
	q := r.builder.Update(productsTable).
		Set("deletion_mark", marked).
		Where(squirrel.Eq{"id": productID})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	querier := r.txm.GetQuerier(ctx)
	tag, err := querier.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("set deletion mark: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewNotFound("product", productID.String())
	}
	return nil
}

// List retrieves products with filtering and pagination.
func (r *ProductRepo) List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[*product.Product], error) {
	return r.list(ctx, filter, nil)
}

// FindLowStock retrieves products at or below their reorder level.
func (r *ProductRepo) FindLowStock(ctx context.Context, filter domain.ListFilter) (domain.ListResult[*product.Product], error) {
	lowStock := squirrel.Expr("stock_quantity <= reorder_level")
	return r.list(ctx, filter, lowStock)
}

func (r *ProductRepo) list(ctx context.Context, filter domain.ListFilter, extra squirrel.Sqlizer) (domain.ListResult[*product.Product], error) {
	result := domain.ListResult[*product.Product]{
		Limit:  filter.Limit,
		Offset: filter.Offset,
	}

	q := r.builder.Select(productColumns...).From(productsTable)
	countQ := r.builder.Select("COUNT(*)").From(productsTable)

	conds := make([]squirrel.Sqlizer, 0, 4)
	if !filter.IncludeDeleted {
		conds = append(conds, squirrel.Eq{"deletion_mark": false})
	}
	if len(filter.IDs) > 0 {
		conds = append(conds, squirrel.Eq{"id": filter.IDs})
	}
	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		conds = append(conds, squirrel.Or{
			squirrel.ILike{"name": pattern},
			squirrel.ILike{"sku": pattern},
			squirrel.ILike{"category": pattern},
		})
	}
	if extra != nil {
		conds = append(conds, extra)
	}
	for _, c := range conds {
		q = q.Where(c)
		countQ = countQ.Where(c)
	}

	orderBy := filter.OrderBy
	if orderBy == "" {
		orderBy = "name"
	}
	q = q.OrderBy(orderColumn(orderBy))

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
		return result, fmt.Errorf("count products: %w", err)
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return result, fmt.Errorf("build query: %w", err)
	}
	if err := pgxscan.Select(ctx, querier, &result.Items, sql, args...); err != nil {
		return result, fmt.Errorf("select products: %w", err)
	}

	return result, nil
}

// GetStockForUpdate reads the cached balance under a row lock.
func (r *ProductRepo) GetStockForUpdate(ctx context.Context, productID id.ID) (types.Quantity, error) {
	sql := `
		SELECT stock_quantity
		FROM cat_products
		WHERE id = $1
		FOR UPDATE
	`

	var qty int64
	querier := r.txm.GetQuerier(ctx)
	if err := querier.QueryRow(ctx, sql, productID).Scan(&qty); err != nil {
		if pgxscan.NotFound(err) {
			return 0, apperror.NewNotFound("product", productID.String())
		}
		return 0, fmt.Errorf("lock product stock: %w", err)
	}
	return types.Quantity(qty), nil
}

// SetStock writes the cached balance back.
func (r *ProductRepo) SetStock(ctx context.Context, productID id.ID, qty types.Quantity) error {
	q := r.builder.Update(productsTable).
		Set("stock_quantity", qty).
		Where(squirrel.Eq{"id": productID})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	querier := r.txm.GetQuerier(ctx)
	tag, err := querier.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("write stock: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewNotFound("product", productID.String())
	}
	return nil
}

// orderColumn whitelists sortable columns; "-col" sorts descending.
func orderColumn(orderBy string) string {
	desc := false
	col := orderBy
	if len(col) > 0 && col[0] == '-' {
		desc = true
		col = col[1:]
	}
	switch col {
	case "name", "sku", "category", "price", "stock_quantity":
	default:
		col = "name"
	}
	if desc {
		return col + " DESC"
	}
	return col
}

var _ product.Repository = (*ProductRepo)(nil)
