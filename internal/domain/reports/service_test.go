package reports

import (
	"context"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"uniworld/internal/core/id"
	"uniworld/internal/core/types"
	"uniworld/internal/domain/ledger"
)

// --- Fakes ---

type fakeTxManager struct{}

func (m *fakeTxManager) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}
func (m *fakeTxManager) InTransaction(ctx context.Context) bool { return false }
func (m *fakeTxManager) ReadOnly(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type fakeRepo struct {
	entries map[id.ID][]*ledger.Entry
	cached  map[id.ID]types.Quantity
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		entries: make(map[id.ID][]*ledger.Entry),
		cached:  make(map[id.ID]types.Quantity),
	}
}

func (r *fakeRepo) sorted(productID id.ID) []*ledger.Entry {
	list := append([]*ledger.Entry(nil), r.entries[productID]...)
	sort.Slice(list, func(i, j int) bool {
		return list[i].OccurredAt.Before(list[j].OccurredAt)
	})
	return list
}

func (r *fakeRepo) LastEntryBefore(ctx context.Context, productID id.ID, cutoff time.Time, floor *time.Time) (*ledger.Entry, error) {
	var found *ledger.Entry
	for _, e := range r.sorted(productID) {
		if !e.OccurredAt.Before(cutoff) {
			continue
		}
		if floor != nil && e.OccurredAt.Before(*floor) {
			continue
		}
		found = e
	}
	return found, nil
}

func (r *fakeRepo) LastEntryUntil(ctx context.Context, productID id.ID, end time.Time, floor *time.Time) (*ledger.Entry, error) {
	var found *ledger.Entry
	for _, e := range r.sorted(productID) {
		if e.OccurredAt.After(end) {
			continue
		}
		if floor != nil && e.OccurredAt.Before(*floor) {
			continue
		}
		found = e
	}
	return found, nil
}

func (r *fakeRepo) FirstEntrySince(ctx context.Context, productID id.ID, from time.Time) (*ledger.Entry, error) {
	for _, e := range r.sorted(productID) {
		if !e.OccurredAt.Before(from) {
			return e, nil
		}
	}
	return nil, nil
}

func (r *fakeRepo) SumKinds(ctx context.Context, productID id.ID, kinds []ledger.Kind, from, to time.Time) (types.Quantity, error) {
	var sum types.Quantity
	for _, e := range r.entries[productID] {
		if e.OccurredAt.Before(from) || e.OccurredAt.After(to) {
			continue
		}
		for _, k := range kinds {
			if e.Kind == k {
				sum += e.Quantity
			}
		}
	}
	return sum, nil
}

func (r *fakeRepo) CachedStock(ctx context.Context, productID id.ID) (types.Quantity, error) {
	return r.cached[productID], nil
}

func (r *fakeRepo) ActiveProductIDs(ctx context.Context) ([]id.ID, error) {
	out := make([]id.ID, 0, len(r.cached))
	for pid := range r.cached {
		out = append(out, pid)
	}
	return out, nil
}

// addEntry appends a chained entry; previous stock is taken from the
// last appended entry.
func (r *fakeRepo) addEntry(productID id.ID, kind ledger.Kind, qty int64, at time.Time) {
	list := r.entries[productID]
	var previous types.Quantity
	if len(list) > 0 {
		previous = list[len(list)-1].CurrentStock
	}
	var current types.Quantity
	switch kind {
	case ledger.KindIn, ledger.KindReturn:
		current = previous + types.Quantity(qty)
	case ledger.KindOut:
		current = previous - types.Quantity(qty)
	case ledger.KindAdjust:
		current = types.Quantity(qty)
	}
	r.entries[productID] = append(list, &ledger.Entry{
		ID: id.New(), ProductID: productID, Kind: kind,
		Quantity: types.Quantity(qty), PreviousStock: previous, CurrentStock: current,
		OccurredAt: at,
	})
	r.cached[productID] = current
}

var floorDate = time.Date(2025, 7, 27, 0, 0, 0, 0, time.UTC)

func day(d int) time.Time {
	return time.Date(2025, 8, d, 12, 0, 0, 0, time.UTC)
}

func newTestService(repo *fakeRepo) *Service {
	return NewService(repo, Config{MinStockDate: floorDate}, &fakeTxManager{})
}

// --- Tests ---

func TestReconstructStock_ConsistentWindow(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo)
	ctx := context.Background()
	productID := id.New()

	repo.addEntry(productID, ledger.KindIn, 50, day(1))
	repo.addEntry(productID, ledger.KindOut, 10, day(5))
	repo.addEntry(productID, ledger.KindOut, 5, day(10))
	repo.addEntry(productID, ledger.KindReturn, 2, day(12))
	repo.addEntry(productID, ledger.KindIn, 20, day(20))

	w, err := svc.ReconstructStock(ctx, productID, day(3), day(15))
	require.NoError(t, err)

	assert.True(t, w.FromLedger)
	assert.Equal(t, types.Quantity(50), w.Opening)
	assert.Equal(t, types.Quantity(2), w.Received)
	assert.Equal(t, types.Quantity(15), w.Issued)
	assert.Equal(t, types.Quantity(37), w.Closing)

	// closing == opening + received - issued when fully from ledger
	assert.Equal(t, w.Opening+w.Received-w.Issued, w.Closing)
}

func TestReconstructStock_OpeningFromFirstEntryInWindow(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo)
	ctx := context.Background()
	productID := id.New()

	// No history before the window start; first in-window entry's
	// opening balance is used.
	repo.addEntry(productID, ledger.KindIn, 30, day(8))
	repo.addEntry(productID, ledger.KindOut, 10, day(9))

	w, err := svc.ReconstructStock(ctx, productID, day(5), day(15))
	require.NoError(t, err)

	assert.True(t, w.FromLedger)
	assert.Equal(t, types.Quantity(0), w.Opening)
	assert.Equal(t, types.Quantity(30), w.Received)
	assert.Equal(t, types.Quantity(10), w.Issued)
	assert.Equal(t, types.Quantity(20), w.Closing)
}

func TestReconstructStock_NoHistoryFallsBackToCache(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo)
	ctx := context.Background()
	productID := id.New()
	repo.cached[productID] = 42

	w, err := svc.ReconstructStock(ctx, productID, day(1), day(15))
	require.NoError(t, err)

	assert.False(t, w.FromLedger)
	assert.Equal(t, types.Quantity(42), w.Opening)
	assert.Equal(t, types.Quantity(42), w.Closing)
	assert.True(t, w.Received.IsZero())
	assert.True(t, w.Issued.IsZero())
}

func TestReconstructStock_FloorAppliedToWindowStart(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo)
	ctx := context.Background()
	productID := id.New()

	// Entry before the floor must not anchor the opening balance
	repo.addEntry(productID, ledger.KindIn, 100, time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC))
	repo.addEntry(productID, ledger.KindIn, 10, day(2))

	w, err := svc.ReconstructStock(ctx, productID, time.Date(2025, 7, 10, 0, 0, 0, 0, time.UTC), day(15))
	require.NoError(t, err)

	assert.Equal(t, floorDate, w.EffectiveFrom)
	// Opening comes from the first post-floor entry's previous stock
	assert.Equal(t, types.Quantity(100), w.Opening)
	assert.Equal(t, types.Quantity(10), w.Received)
	assert.Equal(t, types.Quantity(110), w.Closing)
	assert.True(t, w.FromLedger)
}

func TestReconstructStock_ClosingBeforeFloorIsNotFromLedger(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo)
	ctx := context.Background()
	productID := id.New()

	// Only pre-floor history exists
	repo.addEntry(productID, ledger.KindIn, 100, time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC))

	w, err := svc.ReconstructStock(ctx, productID, day(1), day(15))
	require.NoError(t, err)

	assert.False(t, w.FromLedger)
	assert.Equal(t, types.Quantity(100), w.Closing)
}

func TestReconstructStock_AdjustInsideWindow(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo)
	ctx := context.Background()
	productID := id.New()

	repo.addEntry(productID, ledger.KindIn, 50, day(1))
	repo.addEntry(productID, ledger.KindAdjust, 30, day(5))
	repo.addEntry(productID, ledger.KindOut, 10, day(6))

	w, err := svc.ReconstructStock(ctx, productID, day(2), day(10))
	require.NoError(t, err)

	// Adjustments move balances without counting as received/issued
	assert.Equal(t, types.Quantity(50), w.Opening)
	assert.True(t, w.Received.IsZero())
	assert.Equal(t, types.Quantity(10), w.Issued)
	assert.Equal(t, types.Quantity(20), w.Closing)
	assert.True(t, w.FromLedger)
}

func TestReconstructStock_Validation(t *testing.T) {
	svc := newTestService(newFakeRepo())
	ctx := context.Background()

	_, err := svc.ReconstructStock(ctx, id.Nil(), day(1), day(2))
	require.Error(t, err)

	_, err = svc.ReconstructStock(ctx, id.New(), day(5), day(1))
	require.Error(t, err)

	_, err = svc.ReconstructStock(ctx, id.New(), time.Time{}, day(1))
	require.Error(t, err)
}

func TestSummary_AggregatesProducts(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo)
	ctx := context.Background()
	p1, p2 := id.New(), id.New()

	repo.addEntry(p1, ledger.KindIn, 10, day(2))
	repo.addEntry(p2, ledger.KindIn, 20, day(3))
	repo.addEntry(p2, ledger.KindOut, 5, day(4))

	summary, err := svc.Summary(ctx, day(1), day(10))
	require.NoError(t, err)

	require.Len(t, summary.Items, 2)
	assert.Equal(t, types.Quantity(30), summary.TotalReceived)
	assert.Equal(t, types.Quantity(5), summary.TotalIssued)
}
