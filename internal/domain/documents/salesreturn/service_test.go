package salesreturn

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
	"uniworld/internal/domain/documents/salesorder"
	"uniworld/internal/domain/ledger"
)

// --- Fakes ---

type fakeTxManager struct{}

func (m *fakeTxManager) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}
func (m *fakeTxManager) InTransaction(ctx context.Context) bool { return false }

type fakeRepo struct {
	returns map[id.ID]*ReturnSales
	items   map[id.ID]*Item
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{returns: make(map[id.ID]*ReturnSales), items: make(map[id.ID]*Item)}
}

func (r *fakeRepo) Create(ctx context.Context, ret *ReturnSales) error {
	stored := *ret
	stored.Items = nil
	r.returns[ret.ID] = &stored
	for _, item := range ret.Items {
		cp := *item
		r.items[item.ID] = &cp
	}
	return nil
}

func (r *fakeRepo) GetByID(ctx context.Context, returnID id.ID) (*ReturnSales, error) {
	ret, ok := r.returns[returnID]
	if !ok {
		return nil, apperror.NewNotFound("sales return", returnID.String())
	}
	cp := *ret
	return &cp, nil
}

func (r *fakeRepo) Update(ctx context.Context, ret *ReturnSales) error {
	stored := *ret
	stored.Items = nil
	r.returns[ret.ID] = &stored
	return nil
}

func (r *fakeRepo) List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[*ReturnSales], error) {
	out := make([]*ReturnSales, 0, len(r.returns))
	for _, ret := range r.returns {
		out = append(out, ret)
	}
	return domain.ListResult[*ReturnSales]{Items: out, TotalCount: int64(len(out))}, nil
}

func (r *fakeRepo) GetItems(ctx context.Context, returnID id.ID) ([]*Item, error) {
	out := make([]*Item, 0)
	for _, item := range r.items {
		if item.ReturnID == returnID {
			cp := *item
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *fakeRepo) GetItem(ctx context.Context, itemID id.ID) (*Item, error) {
	item, ok := r.items[itemID]
	if !ok {
		return nil, apperror.NewNotFound("return item", itemID.String())
	}
	cp := *item
	return &cp, nil
}

func (r *fakeRepo) UpdateItem(ctx context.Context, item *Item) error {
	cp := *item
	r.items[item.ID] = &cp
	return nil
}

func (r *fakeRepo) SumReturnedForOrderItem(ctx context.Context, salesOrderItemID id.ID, excludeItemID *id.ID) (types.Quantity, error) {
	var sum types.Quantity
	for _, item := range r.items {
		if item.SalesOrderItemID != salesOrderItemID {
			continue
		}
		if excludeItemID != nil && item.ID == *excludeItemID {
			continue
		}
		sum += item.Quantity
	}
	return sum, nil
}

type fakeOrders struct {
	items map[id.ID]*salesorder.Item
}

func (f *fakeOrders) GetItem(ctx context.Context, itemID id.ID) (*salesorder.Item, error) {
	item, ok := f.items[itemID]
	if !ok {
		return nil, apperror.NewNotFound("sales order item", itemID.String())
	}
	return item, nil
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
	case ledger.KindReturn, ledger.KindIn:
		current = previous + req.Quantity
	case ledger.KindOut:
		if req.Quantity > previous {
			return nil, apperror.NewInsufficientStock(req.ProductID.String(), req.Quantity.Int64(), previous.Int64())
		}
		current = previous - req.Quantity
	}
	f.stock[req.ProductID] = current
	f.posts = append(f.posts, req)
	return &ledger.Entry{ID: id.New(), ProductID: req.ProductID, Kind: req.Kind, Quantity: req.Quantity}, nil
}

type fixture struct {
	svc    *Service
	repo   *fakeRepo
	orders *fakeOrders
	poster *fakePoster
}

func newFixture() *fixture {
	repo := newFakeRepo()
	orders := &fakeOrders{items: make(map[id.ID]*salesorder.Item)}
	poster := newFakePoster()
	svc := NewService(repo, orders, poster, nil, &fakeTxManager{})
	return &fixture{svc: svc, repo: repo, orders: orders, poster: poster}
}

// soldLine registers a shipped sales order line to return against.
func (f *fixture) soldLine(qty int64, price, discount string) *salesorder.Item {
	item := &salesorder.Item{
		BaseEntity:   entity.NewBaseEntity(),
		OrderID:      id.New(),
		ProductID:    id.New(),
		Quantity:     types.Quantity(qty),
		UnitPrice:    types.MustMoney(price),
		UnitDiscount: types.MustMoney(discount),
	}
	f.orders.items[item.ID] = item
	return item
}

func newReturn(lines ...*Item) *ReturnSales {
	r := NewReturnSales(id.New())
	r.Number = "RET-2025-00003"
	for _, l := range lines {
		l.BaseEntity = entity.NewBaseEntity()
	}
	r.Items = lines
	return r
}

// --- Tests ---

func TestCreateReturn_PostsReturnPerNonZeroLine(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	sold1 := f.soldLine(10, "100", "10")
	sold2 := f.soldLine(5, "20", "0")

	r := newReturn(
		&Item{SalesOrderItemID: sold1.ID, Quantity: 4},
		&Item{SalesOrderItemID: sold2.ID, Quantity: 0},
	)

	require.NoError(t, f.svc.CreateReturn(ctx, r))

	// Only the non-zero line posts
	require.Len(t, f.poster.posts, 1)
	post := f.poster.posts[0]
	assert.Equal(t, ledger.KindReturn, post.Kind)
	assert.Equal(t, types.Quantity(4), post.Quantity)
	assert.Equal(t, "RET-2025-00003", post.Reference)
	assert.Equal(t, sold1.ProductID, post.ProductID)

	// Effective unit price copied: 100 - 10 = 90; total 4 x 90 = 360
	stored, err := f.svc.GetByID(ctx, r.ID)
	require.NoError(t, err)
	assert.True(t, stored.TotalAmount.Equal(types.MustMoney("360")), "got %s", stored.TotalAmount)
}

func TestCreateReturn_AllZeroRejected(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	sold := f.soldLine(10, "100", "0")

	r := newReturn(
		&Item{SalesOrderItemID: sold.ID, Quantity: 0},
		&Item{SalesOrderItemID: sold.ID, Quantity: 0},
	)

	err := f.svc.CreateReturn(ctx, r)
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeNoItemsReturned))
	assert.Empty(t, f.poster.posts)
}

func TestCreateReturn_ExceedsAvailableRejected(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	sold := f.soldLine(10, "100", "0")

	// First return takes 7 of 10
	first := newReturn(&Item{SalesOrderItemID: sold.ID, Quantity: 7})
	require.NoError(t, f.svc.CreateReturn(ctx, first))

	// Second return asks for 5; only 3 remain
	second := newReturn(&Item{SalesOrderItemID: sold.ID, Quantity: 5})
	second.Number = "RET-2025-00004"
	err := f.svc.CreateReturn(ctx, second)
	require.Error(t, err)

	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeReturnExceedsAvailable, appErr.Code)
	assert.EqualValues(t, 3, appErr.Details["max_returnable"])
}

func TestCreateReturn_DuplicateLinesCappedJointly(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	sold := f.soldLine(10, "100", "0")

	// Two lines against the same order line: 7 + 7 > 10 sold. The cap
	// must count both, not check each against the full 10.
	r := newReturn(
		&Item{SalesOrderItemID: sold.ID, Quantity: 7},
		&Item{SalesOrderItemID: sold.ID, Quantity: 7},
	)

	err := f.svc.CreateReturn(ctx, r)
	require.Error(t, err)

	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeReturnExceedsAvailable, appErr.Code)
	assert.EqualValues(t, 3, appErr.Details["max_returnable"])
	assert.Empty(t, f.poster.posts)

	// Splitting within the cap is fine: 7 + 3 = 10
	ok10 := newReturn(
		&Item{SalesOrderItemID: sold.ID, Quantity: 7},
		&Item{SalesOrderItemID: sold.ID, Quantity: 3},
	)
	ok10.Number = "RET-2025-00005"
	require.NoError(t, f.svc.CreateReturn(ctx, ok10))
	assert.Len(t, f.poster.posts, 2)
}

func TestUpdateReturnLine_IncreasePostsReturnDelta(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	sold := f.soldLine(10, "50", "0")

	r := newReturn(&Item{SalesOrderItemID: sold.ID, Quantity: 2})
	require.NoError(t, f.svc.CreateReturn(ctx, r))
	itemID := r.Items[0].ID

	before := len(f.poster.posts)
	updated, err := f.svc.UpdateReturnLine(ctx, itemID, 6)
	require.NoError(t, err)
	assert.Equal(t, types.Quantity(6), updated.Quantity)

	post := f.poster.posts[before]
	assert.Equal(t, ledger.KindReturn, post.Kind)
	assert.Equal(t, types.Quantity(4), post.Quantity)
	assert.Equal(t, "RET-2025-00003-Update", post.Reference)
}

func TestUpdateReturnLine_DecreasePostsOutDelta(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	sold := f.soldLine(10, "50", "0")

	r := newReturn(&Item{SalesOrderItemID: sold.ID, Quantity: 6})
	require.NoError(t, f.svc.CreateReturn(ctx, r))
	itemID := r.Items[0].ID

	before := len(f.poster.posts)
	_, err := f.svc.UpdateReturnLine(ctx, itemID, 2)
	require.NoError(t, err)

	post := f.poster.posts[before]
	assert.Equal(t, ledger.KindOut, post.Kind)
	assert.Equal(t, types.Quantity(4), post.Quantity)
	assert.Equal(t, "RET-2025-00003-Update", post.Reference)
	assert.Equal(t, types.Quantity(2), f.poster.stock[sold.ProductID])
}

func TestUpdateReturnLine_ExcludesSelfFromCap(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	sold := f.soldLine(10, "50", "0")

	r := newReturn(&Item{SalesOrderItemID: sold.ID, Quantity: 7})
	require.NoError(t, f.svc.CreateReturn(ctx, r))
	itemID := r.Items[0].ID

	// 7 already returned by this very line; raising it to 10 is still
	// within the sold quantity because the line excludes itself.
	updated, err := f.svc.UpdateReturnLine(ctx, itemID, 10)
	require.NoError(t, err)
	assert.Equal(t, types.Quantity(10), updated.Quantity)

	// But 11 exceeds the sold quantity
	_, err = f.svc.UpdateReturnLine(ctx, itemID, 11)
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeReturnExceedsAvailable))
}

func TestUpdateReturnLine_SameQuantityPostsNothing(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	sold := f.soldLine(10, "50", "0")

	r := newReturn(&Item{SalesOrderItemID: sold.ID, Quantity: 3})
	require.NoError(t, f.svc.CreateReturn(ctx, r))
	itemID := r.Items[0].ID

	before := len(f.poster.posts)
	_, err := f.svc.UpdateReturnLine(ctx, itemID, 3)
	require.NoError(t, err)
	assert.Len(t, f.poster.posts, before)
}

func TestUpdateReturnLine_RecomputesTotal(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	sold := f.soldLine(10, "100", "20")

	r := newReturn(&Item{SalesOrderItemID: sold.ID, Quantity: 2})
	require.NoError(t, f.svc.CreateReturn(ctx, r))

	_, err := f.svc.UpdateReturnLine(ctx, r.Items[0].ID, 5)
	require.NoError(t, err)

	stored, err := f.svc.GetByID(ctx, r.ID)
	require.NoError(t, err)
	// 5 x (100 - 20) = 400
	assert.True(t, stored.TotalAmount.Equal(types.MustMoney("400")), "got %s", stored.TotalAmount)
}
