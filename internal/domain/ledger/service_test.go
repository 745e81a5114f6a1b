package ledger

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"uniworld/internal/core/apperror"
	"uniworld/internal/core/id"
	"uniworld/internal/core/types"
	"uniworld/internal/domain"
)

// --- Fakes ---

type fakeTxManager struct {
	inTx bool
}

func (m *fakeTxManager) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func (m *fakeTxManager) InTransaction(ctx context.Context) bool { return m.inTx }

type fakeLedgerRepo struct {
	entries map[id.ID][]*Entry
}

func newFakeLedgerRepo() *fakeLedgerRepo {
	return &fakeLedgerRepo{entries: make(map[id.ID][]*Entry)}
}

func (r *fakeLedgerRepo) Insert(ctx context.Context, e *Entry) error {
	r.entries[e.ProductID] = append(r.entries[e.ProductID], e)
	return nil
}

func (r *fakeLedgerRepo) GetByID(ctx context.Context, entryID id.ID) (*Entry, error) {
	for _, list := range r.entries {
		for _, e := range list {
			if e.ID == entryID {
				return e, nil
			}
		}
	}
	return nil, apperror.NewNotFound("ledger entry", entryID.String())
}

func (r *fakeLedgerRepo) LastEntry(ctx context.Context, productID id.ID) (*Entry, error) {
	list := r.entries[productID]
	if len(list) == 0 {
		return nil, nil
	}
	return list[len(list)-1], nil
}

func (r *fakeLedgerRepo) History(ctx context.Context, filter HistoryFilter) (domain.ListResult[*Entry], error) {
	list := r.entries[filter.ProductID]
	out := make([]*Entry, 0, len(list))
	for i := len(list) - 1; i >= 0; i-- {
		out = append(out, list[i])
	}
	return domain.ListResult[*Entry]{Items: out, TotalCount: int64(len(out))}, nil
}

type fakeProductStore struct {
	stock map[id.ID]types.Quantity
}

func newFakeProductStore() *fakeProductStore {
	return &fakeProductStore{stock: make(map[id.ID]types.Quantity)}
}

func (s *fakeProductStore) GetStockForUpdate(ctx context.Context, productID id.ID) (types.Quantity, error) {
	return s.stock[productID], nil
}

func (s *fakeProductStore) SetStock(ctx context.Context, productID id.ID, qty types.Quantity) error {
	s.stock[productID] = qty
	return nil
}

func newTestService() (*Service, *fakeLedgerRepo, *fakeProductStore) {
	repo := newFakeLedgerRepo()
	products := newFakeProductStore()
	svc := NewService(repo, products, &fakeTxManager{})
	return svc, repo, products
}

// --- Tests ---

func TestPost_InIncreasesBalance(t *testing.T) {
	svc, _, products := newTestService()
	ctx := context.Background()
	productID := id.New()

	entry, err := svc.Post(ctx, PostRequest{
		ProductID: productID,
		Kind:      KindIn,
		Quantity:  10,
		Reference: "PO-2025-00001",
	})
	require.NoError(t, err)

	assert.Equal(t, types.Quantity(0), entry.PreviousStock)
	assert.Equal(t, types.Quantity(10), entry.CurrentStock)
	assert.Equal(t, types.Quantity(10), products.stock[productID])
}

func TestPost_OutRejectsInsufficientStock(t *testing.T) {
	svc, _, products := newTestService()
	ctx := context.Background()
	productID := id.New()
	products.stock[productID] = 5

	// Seed a consistent chain
	_, err := svc.Post(ctx, PostRequest{
		ProductID: productID, Kind: KindAdjust, Quantity: 5, Reference: "ADJ-1",
	})
	require.NoError(t, err)

	_, err = svc.Post(ctx, PostRequest{
		ProductID: productID, Kind: KindOut, Quantity: 8, Reference: "SO-2025-00001",
	})
	require.Error(t, err)

	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeInsufficientStock, appErr.Code)
	assert.EqualValues(t, 5, appErr.Details["available"])
	assert.EqualValues(t, 8, appErr.Details["requested"])

	// Balance unchanged after rejection
	assert.Equal(t, types.Quantity(5), products.stock[productID])
}

func TestPost_ChainLinksEntries(t *testing.T) {
	svc, repo, _ := newTestService()
	ctx := context.Background()
	productID := id.New()

	posts := []PostRequest{
		{ProductID: productID, Kind: KindIn, Quantity: 20, Reference: "PO-1"},
		{ProductID: productID, Kind: KindOut, Quantity: 7, Reference: "SO-1"},
		{ProductID: productID, Kind: KindReturn, Quantity: 2, Reference: "RET-1"},
		{ProductID: productID, Kind: KindAdjust, Quantity: 30, Reference: "ADJ-1"},
	}
	for _, p := range posts {
		_, err := svc.Post(ctx, p)
		require.NoError(t, err)
	}

	entries := repo.entries[productID]
	require.Len(t, entries, 4)
	for i := 1; i < len(entries); i++ {
		assert.Equal(t, entries[i-1].CurrentStock, entries[i].PreviousStock,
			"entry %d must open at previous closing balance", i)
	}
	assert.Equal(t, types.Quantity(30), entries[3].CurrentStock)
}

func TestPost_AdjustSetsAbsoluteBalance(t *testing.T) {
	svc, _, products := newTestService()
	ctx := context.Background()
	productID := id.New()

	_, err := svc.Post(ctx, PostRequest{
		ProductID: productID, Kind: KindIn, Quantity: 12, Reference: "PO-1",
	})
	require.NoError(t, err)

	entry, err := svc.Post(ctx, PostRequest{
		ProductID: productID, Kind: KindAdjust, Quantity: 3, Reference: "ADJ-1",
	})
	require.NoError(t, err)

	assert.Equal(t, types.Quantity(12), entry.PreviousStock)
	assert.Equal(t, types.Quantity(3), entry.CurrentStock)
	assert.Equal(t, types.Quantity(3), products.stock[productID])
}

func TestPost_BrokenChainAborts(t *testing.T) {
	svc, repo, products := newTestService()
	ctx := context.Background()
	productID := id.New()

	_, err := svc.Post(ctx, PostRequest{
		ProductID: productID, Kind: KindIn, Quantity: 10, Reference: "PO-1",
	})
	require.NoError(t, err)

	// Corrupt the cached balance behind the ledger's back
	products.stock[productID] = 99

	_, err = svc.Post(ctx, PostRequest{
		ProductID: productID, Kind: KindIn, Quantity: 1, Reference: "PO-2",
	})
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeLedgerInconsistent))

	// Nothing was appended
	assert.Len(t, repo.entries[productID], 1)
}

func TestPost_ValidationErrors(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	cases := []struct {
		name string
		req  PostRequest
		code string
	}{
		{
			name: "missing product",
			req:  PostRequest{Kind: KindIn, Quantity: 1, Reference: "X"},
			code: apperror.CodeValidation,
		},
		{
			name: "unknown kind",
			req:  PostRequest{ProductID: id.New(), Kind: "TRANSFER", Quantity: 1, Reference: "X"},
			code: apperror.CodeValidation,
		},
		{
			name: "negative quantity",
			req:  PostRequest{ProductID: id.New(), Kind: KindIn, Quantity: -1, Reference: "X"},
			code: apperror.CodeInvalidQuantity,
		},
		{
			name: "missing reference",
			req:  PostRequest{ProductID: id.New(), Kind: KindIn, Quantity: 1},
			code: apperror.CodeValidation,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Post(ctx, tc.req)
			require.Error(t, err)
			assert.True(t, apperror.IsCode(err, tc.code), "got %v", err)
		})
	}
}

func TestPost_RetriesConcurrencyConflict(t *testing.T) {
	repo := newFakeLedgerRepo()
	products := &flakyProductStore{fakeProductStore: newFakeProductStore(), failures: 2}
	svc := NewService(repo, products, &fakeTxManager{})
	ctx := context.Background()
	productID := id.New()

	entry, err := svc.Post(ctx, PostRequest{
		ProductID: productID, Kind: KindIn, Quantity: 4, Reference: "PO-1",
	})
	require.NoError(t, err)
	assert.Equal(t, types.Quantity(4), entry.CurrentStock)
	assert.Equal(t, 3, products.attempts)
}

func TestPost_SurfacesConflictAfterRetriesExhausted(t *testing.T) {
	repo := newFakeLedgerRepo()
	products := &flakyProductStore{fakeProductStore: newFakeProductStore(), failures: 10}
	svc := NewService(repo, products, &fakeTxManager{})
	ctx := context.Background()

	_, err := svc.Post(ctx, PostRequest{
		ProductID: id.New(), Kind: KindIn, Quantity: 4, Reference: "PO-1",
	})
	require.Error(t, err)
	assert.True(t, apperror.IsConcurrencyConflict(err))
	assert.Equal(t, maxPostAttempts, products.attempts)
}

// flakyProductStore fails the first N balance reads with a concurrency
// conflict, simulating serialization failures.
type flakyProductStore struct {
	*fakeProductStore
	failures int
	attempts int
}

func (s *flakyProductStore) GetStockForUpdate(ctx context.Context, productID id.ID) (types.Quantity, error) {
	s.attempts++
	if s.attempts <= s.failures {
		return 0, apperror.NewConcurrencyConflict(nil)
	}
	return s.fakeProductStore.GetStockForUpdate(ctx, productID)
}

func TestHistory_NewestFirst(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()
	productID := id.New()

	base := time.Date(2025, 8, 1, 10, 0, 0, 0, time.UTC)
	for i, ref := range []string{"PO-1", "SO-1", "RET-1"} {
		kind := KindIn
		switch ref[0] {
		case 'S':
			kind = KindOut
		case 'R':
			kind = KindReturn
		}
		_, err := svc.Post(ctx, PostRequest{
			ProductID:  productID,
			Kind:       kind,
			Quantity:   5,
			Reference:  ref,
			OccurredAt: base.Add(time.Duration(i) * time.Hour),
		})
		require.NoError(t, err)
	}

	result, err := svc.History(ctx, HistoryFilter{ProductID: productID})
	require.NoError(t, err)
	require.Len(t, result.Items, 3)
	assert.Equal(t, "RET-1", result.Items[0].Reference)
	assert.Equal(t, "PO-1", result.Items[2].Reference)
}
