package salesorder

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"uniworld/internal/core/apperror"
	"uniworld/internal/core/entity"
	"uniworld/internal/core/id"
	"uniworld/internal/core/types"
	"uniworld/internal/domain"
	"uniworld/internal/domain/catalogs/product"
	"uniworld/internal/domain/ledger"
)

// --- Fakes ---

type fakeTxManager struct{}

func (m *fakeTxManager) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}
func (m *fakeTxManager) InTransaction(ctx context.Context) bool { return false }

type fakeRepo struct {
	orders map[id.ID]*SalesOrder
	items  map[id.ID]*Item
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{orders: make(map[id.ID]*SalesOrder), items: make(map[id.ID]*Item)}
}

func (r *fakeRepo) Create(ctx context.Context, o *SalesOrder) error {
	stored := *o
	stored.Items = nil
	r.orders[o.ID] = &stored
	for _, item := range o.Items {
		cp := *item
		r.items[item.ID] = &cp
	}
	return nil
}

func (r *fakeRepo) GetByID(ctx context.Context, orderID id.ID) (*SalesOrder, error) {
	o, ok := r.orders[orderID]
	if !ok || o.DeletionMark {
		return nil, apperror.NewNotFound("sales order", orderID.String())
	}
	cp := *o
	return &cp, nil
}

func (r *fakeRepo) Update(ctx context.Context, o *SalesOrder) error {
	stored := *o
	stored.Items = nil
	r.orders[o.ID] = &stored
	return nil
}

func (r *fakeRepo) SetDeletionMark(ctx context.Context, orderID id.ID, marked bool) error {
	if o, ok := r.orders[orderID]; ok {
		o.DeletionMark = marked
	}
	return nil
}

func (r *fakeRepo) List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[*SalesOrder], error) {
	out := make([]*SalesOrder, 0, len(r.orders))
	for _, o := range r.orders {
		if !o.DeletionMark {
			out = append(out, o)
		}
	}
	return domain.ListResult[*SalesOrder]{Items: out, TotalCount: int64(len(out))}, nil
}

func (r *fakeRepo) GetItems(ctx context.Context, orderID id.ID) ([]*Item, error) {
	out := make([]*Item, 0)
	for _, item := range r.items {
		if item.OrderID == orderID {
			cp := *item
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *fakeRepo) GetItem(ctx context.Context, itemID id.ID) (*Item, error) {
	item, ok := r.items[itemID]
	if !ok {
		return nil, apperror.NewNotFound("sales order item", itemID.String())
	}
	cp := *item
	return &cp, nil
}

func (r *fakeRepo) InsertItem(ctx context.Context, item *Item) error {
	cp := *item
	r.items[item.ID] = &cp
	return nil
}

func (r *fakeRepo) UpdateItem(ctx context.Context, item *Item) error {
	cp := *item
	r.items[item.ID] = &cp
	return nil
}

func (r *fakeRepo) DeleteItem(ctx context.Context, itemID id.ID) error {
	delete(r.items, itemID)
	return nil
}

type fakeProducts struct {
	products map[id.ID]*product.Product
}

func (f *fakeProducts) GetByID(ctx context.Context, productID id.ID) (*product.Product, error) {
	p, ok := f.products[productID]
	if !ok {
		return nil, apperror.NewNotFound("product", productID.String())
	}
	return p, nil
}

type fakePoster struct {
	posts []ledger.PostRequest
	stock map[id.ID]types.Quantity
}

func newFakePoster() *fakePoster {
	return &fakePoster{stock: make(map[id.ID]types.Quantity)}
}

func (f *fakePoster) Post(ctx context.Context, req ledger.PostRequest) (*ledger.Entry, error) {
	previous := f.stock[req.ProductID]
	var current types.Quantity
	switch req.Kind {
	case ledger.KindIn, ledger.KindReturn:
		current = previous + req.Quantity
	case ledger.KindOut:
		if req.Quantity > previous {
			return nil, apperror.NewInsufficientStock(req.ProductID.String(), req.Quantity.Int64(), previous.Int64())
		}
		current = previous - req.Quantity
	case ledger.KindAdjust:
		current = req.Quantity
	}
	f.stock[req.ProductID] = current
	f.posts = append(f.posts, req)
	return &ledger.Entry{
		ID: id.New(), ProductID: req.ProductID, Kind: req.Kind,
		Quantity: req.Quantity, PreviousStock: previous, CurrentStock: current,
		Reference: req.Reference,
	}, nil
}

type fixture struct {
	svc      *Service
	repo     *fakeRepo
	poster   *fakePoster
	products *fakeProducts
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	repo := newFakeRepo()
	poster := newFakePoster()
	products := &fakeProducts{products: make(map[id.ID]*product.Product)}
	svc := NewService(repo, products, poster, nil, &fakeTxManager{})
	return &fixture{svc: svc, repo: repo, poster: poster, products: products}
}

func (f *fixture) addProduct(price, discount string, stock int64) *product.Product {
	p := product.NewProduct("SKU-"+id.New().String()[:8], "test product", types.MustMoney(price))
	p.DiscountAmount = types.MustMoney(discount)
	f.products.products[p.ID] = p
	f.poster.stock[p.ID] = types.Quantity(stock)
	return p
}

func newOrder(items ...*Item) *SalesOrder {
	o := NewSalesOrder(id.New())
	o.Number = "SO-2025-00042"
	o.Items = items
	return o
}

// --- Tests ---

func TestCreateOrder_SettlesEachLine(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p1 := f.addProduct("100", "10", 50)
	p2 := f.addProduct("20", "0", 30)

	o := newOrder(
		&Item{ProductID: p1.ID, Quantity: 3},
		&Item{ProductID: p2.ID, Quantity: 5},
	)
	for _, item := range o.Items {
		item.BaseEntity = entity.NewBaseEntity()
	}
	o.ShippingCost = types.MustMoney("15")

	require.NoError(t, f.svc.CreateOrder(ctx, o))

	// One OUT entry per line with the order reference
	require.Len(t, f.poster.posts, 2)
	for _, post := range f.poster.posts {
		assert.Equal(t, ledger.KindOut, post.Kind)
		assert.Equal(t, "SO-2025-00042", post.Reference)
	}
	assert.Equal(t, types.Quantity(47), f.poster.stock[p1.ID])
	assert.Equal(t, types.Quantity(25), f.poster.stock[p2.ID])

	// Line snapshots and totals: 3 x (100-10) + 5 x 20 = 370; +15 shipping
	stored, err := f.svc.GetByID(ctx, o.ID)
	require.NoError(t, err)
	assert.True(t, stored.TotalAmount.Equal(types.MustMoney("385")), "got %s", stored.TotalAmount)
}

func TestCreateOrder_InsufficientStockAborts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.addProduct("10", "0", 2)

	o := newOrder(&Item{BaseEntity: entity.NewBaseEntity(), ProductID: p.ID, Quantity: 5})

	err := f.svc.CreateOrder(ctx, o)
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeInsufficientStock))
}

func TestAddLine_PostsOutAndRecomputesTotal(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.addProduct("50", "5", 100)

	o := newOrder()
	require.NoError(t, f.svc.CreateOrder(ctx, o))

	item, err := f.svc.AddLine(ctx, o.ID, p.ID, 4)
	require.NoError(t, err)
	assert.True(t, item.Total.Equal(types.MustMoney("180")), "got %s", item.Total)

	last := f.poster.posts[len(f.poster.posts)-1]
	assert.Equal(t, ledger.KindOut, last.Kind)
	assert.Equal(t, types.Quantity(4), last.Quantity)
	assert.Equal(t, "SO-2025-00042", last.Reference)

	stored, err := f.svc.GetByID(ctx, o.ID)
	require.NoError(t, err)
	assert.True(t, stored.TotalAmount.Equal(types.MustMoney("180")), "got %s", stored.TotalAmount)
}

func TestUpdateLine_IncreasePostsDelta(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.addProduct("50", "0", 100)

	o := newOrder()
	require.NoError(t, f.svc.CreateOrder(ctx, o))
	item, err := f.svc.AddLine(ctx, o.ID, p.ID, 4)
	require.NoError(t, err)

	before := len(f.poster.posts)
	updated, err := f.svc.UpdateLine(ctx, item.ID, 7)
	require.NoError(t, err)
	assert.Equal(t, types.Quantity(7), updated.Quantity)

	require.Len(t, f.poster.posts, before+1)
	post := f.poster.posts[before]
	assert.Equal(t, ledger.KindOut, post.Kind)
	assert.Equal(t, types.Quantity(3), post.Quantity)
	assert.Equal(t, "SO-2025-00042-Update", post.Reference)
	assert.Equal(t, types.Quantity(93), f.poster.stock[p.ID])
}

func TestUpdateLine_DecreasePostsReturn(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.addProduct("50", "0", 100)

	o := newOrder()
	require.NoError(t, f.svc.CreateOrder(ctx, o))
	item, err := f.svc.AddLine(ctx, o.ID, p.ID, 10)
	require.NoError(t, err)

	before := len(f.poster.posts)
	_, err = f.svc.UpdateLine(ctx, item.ID, 6)
	require.NoError(t, err)

	post := f.poster.posts[before]
	assert.Equal(t, ledger.KindReturn, post.Kind)
	assert.Equal(t, types.Quantity(4), post.Quantity)
	assert.Equal(t, "SO-2025-00042-Update", post.Reference)
	assert.Equal(t, types.Quantity(94), f.poster.stock[p.ID])
}

func TestUpdateLine_SameQuantityPostsNothing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.addProduct("50", "5", 100)

	o := newOrder()
	require.NoError(t, f.svc.CreateOrder(ctx, o))
	item, err := f.svc.AddLine(ctx, o.ID, p.ID, 4)
	require.NoError(t, err)

	// Catalog discount drifts between settlements
	p.DiscountAmount = types.MustMoney("10")

	before := len(f.poster.posts)
	updated, err := f.svc.UpdateLine(ctx, item.ID, 4)
	require.NoError(t, err)

	// No ledger entry, but monetary fields refreshed
	assert.Len(t, f.poster.posts, before)
	assert.True(t, updated.UnitDiscount.Equal(types.MustMoney("10")))
	assert.True(t, updated.Total.Equal(types.MustMoney("160")), "got %s", updated.Total)
}

func TestUpdateLine_RepeatedRecomputeIsIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.addProduct("50", "5", 100)

	o := newOrder()
	require.NoError(t, f.svc.CreateOrder(ctx, o))
	item, err := f.svc.AddLine(ctx, o.ID, p.ID, 4)
	require.NoError(t, err)

	first, err := f.svc.UpdateLine(ctx, item.ID, 4)
	require.NoError(t, err)
	second, err := f.svc.UpdateLine(ctx, item.ID, 4)
	require.NoError(t, err)

	assert.True(t, first.Total.Equal(second.Total))
	assert.True(t, first.DiscountTotal.Equal(second.DiscountTotal))
}

func TestRemoveLine_ReturnsFullQuantity(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.addProduct("50", "0", 100)

	o := newOrder()
	require.NoError(t, f.svc.CreateOrder(ctx, o))
	item, err := f.svc.AddLine(ctx, o.ID, p.ID, 8)
	require.NoError(t, err)

	before := len(f.poster.posts)
	require.NoError(t, f.svc.RemoveLine(ctx, item.ID))

	post := f.poster.posts[before]
	assert.Equal(t, ledger.KindReturn, post.Kind)
	assert.Equal(t, types.Quantity(8), post.Quantity)
	assert.Equal(t, "SO-2025-00042-DeletedItem", post.Reference)
	assert.Equal(t, types.Quantity(100), f.poster.stock[p.ID])

	stored, err := f.svc.GetByID(ctx, o.ID)
	require.NoError(t, err)
	assert.Empty(t, stored.Items)
	assert.True(t, stored.TotalAmount.IsZero())
}

func TestDeleteOrder_SettlesEveryLine(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p1 := f.addProduct("10", "0", 50)
	p2 := f.addProduct("20", "0", 50)

	o := newOrder()
	require.NoError(t, f.svc.CreateOrder(ctx, o))
	_, err := f.svc.AddLine(ctx, o.ID, p1.ID, 3)
	require.NoError(t, err)
	_, err = f.svc.AddLine(ctx, o.ID, p2.ID, 5)
	require.NoError(t, err)

	before := len(f.poster.posts)
	require.NoError(t, f.svc.DeleteOrder(ctx, o.ID))

	returns := f.poster.posts[before:]
	require.Len(t, returns, 2)
	for _, post := range returns {
		assert.Equal(t, ledger.KindReturn, post.Kind)
		assert.Equal(t, "SO-2025-00042-DeletedItem", post.Reference)
	}
	assert.Equal(t, types.Quantity(50), f.poster.stock[p1.ID])
	assert.Equal(t, types.Quantity(50), f.poster.stock[p2.ID])

	_, err = f.svc.GetByID(ctx, o.ID)
	assert.True(t, apperror.IsNotFound(err))
}

func TestAllocatedLines_ProportionalShares(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p1 := f.addProduct("100", "0", 50)
	p2 := f.addProduct("100", "0", 50)

	o := newOrder()
	o.Discount = types.MustMoney("40")
	require.NoError(t, f.svc.CreateOrder(ctx, o))
	_, err := f.svc.AddLine(ctx, o.ID, p1.ID, 3) // total 300
	require.NoError(t, err)
	_, err = f.svc.AddLine(ctx, o.ID, p2.ID, 1) // total 100
	require.NoError(t, err)

	postsBefore := len(f.poster.posts)
	lines, err := f.svc.AllocatedLines(ctx, o.ID)
	require.NoError(t, err)
	require.Len(t, lines, 2)

	byTotal := map[string]types.Money{}
	for _, l := range lines {
		byTotal[l.Item.Total.String()] = l.OrderDiscountShare
	}
	assert.True(t, byTotal["300"].Equal(types.MustMoney("30")))
	assert.True(t, byTotal["100"].Equal(types.MustMoney("10")))

	// Display-only: no ledger posts, stored lines untouched
	assert.Len(t, f.poster.posts, postsBefore)
	stored, err := f.svc.GetByID(ctx, o.ID)
	require.NoError(t, err)
	for _, item := range stored.Items {
		assert.False(t, item.Total.Equal(types.MustMoney("270")))
	}
}

func TestMarkDelivered(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	o := newOrder()
	require.NoError(t, f.svc.CreateOrder(ctx, o))
	require.NoError(t, f.svc.MarkDelivered(ctx, o.ID))

	stored, err := f.svc.GetByID(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, DeliveryDelivered, stored.DeliveryStatus)
}
