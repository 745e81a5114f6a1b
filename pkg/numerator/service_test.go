package numerator

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
)

// Mock objects
type mockRow struct {
	val int64
	err error
}

func (m *mockRow) Scan(dest ...any) error {
	if m.err != nil {
		return m.err
	}
	if len(dest) > 0 {
		if ptr, ok := dest[0].(*int64); ok {
			*ptr = m.val
		}
	}
	return nil
}

type mockQuerier struct {
	mu           sync.Mutex
	currentValue int64 // Simulates DB sequence value
	calls        int
}

func (m *mockQuerier) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	m.mu.Lock()
	defer m.mu.Unlock()

	// Strict passes (key); cached passes (key, increment).
	var increment int64 = 1
	if len(args) == 2 {
		if val, ok := args[1].(int64); ok {
			increment = val
		}
	}

	m.currentValue += increment
	m.calls++

	return &mockRow{val: m.currentValue}
}

func TestNextNumber_Strict(t *testing.T) {
	q := &mockQuerier{}
	svc := New(q)
	ctx := context.Background()
	cfg := DefaultConfig("TEST")
	period := time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC)

	num, err := svc.NextNumber(ctx, cfg, period)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if num != "TEST-2025-00001" {
		t.Errorf("expected TEST-2025-00001, got %s", num)
	}

	num, err = svc.NextNumber(ctx, cfg, period)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if num != "TEST-2025-00002" {
		t.Errorf("expected TEST-2025-00002, got %s", num)
	}
}

func TestNextNumber_Cached(t *testing.T) {
	q := &mockQuerier{}
	svc := New(q)
	ctx := context.Background()
	cfg := DefaultConfig("ORD")
	period := time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC)

	opts := &Options{
		Strategy:  StrategyCached,
		RangeSize: 10,
	}

	// First call allocates the range 1..10 from the DB
	num, err := svc.NextNumberWithOptions(ctx, cfg, opts, period)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if num != "ORD-2025-00001" {
		t.Errorf("expected ORD-2025-00001, got %s", num)
	}
	if q.currentValue != 10 {
		t.Errorf("expected DB value to be 10, got %d", q.currentValue)
	}

	// Second call is served from memory, DB untouched
	num, err = svc.NextNumberWithOptions(ctx, cfg, opts, period)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if num != "ORD-2025-00002" {
		t.Errorf("expected ORD-2025-00002, got %s", num)
	}
	if q.currentValue != 10 {
		t.Errorf("expected DB value to stay 10, got %d", q.currentValue)
	}

	// Exhaust the range; the next call reserves 11..20
	for i := 0; i < 8; i++ {
		_, _ = svc.NextNumberWithOptions(ctx, cfg, opts, period)
	}

	num, err = svc.NextNumberWithOptions(ctx, cfg, opts, period)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if num != "ORD-2025-00011" {
		t.Errorf("expected ORD-2025-00011, got %s", num)
	}
	if q.currentValue != 20 {
		t.Errorf("expected DB value to be 20, got %d", q.currentValue)
	}
}

func TestParseNumber(t *testing.T) {
	cases := []struct {
		in   string
		want int64
	}{
		{"SO-2025-00042", 42},
		{"RET-00007", 7},
		{"garbage", -1},
	}
	for _, tc := range cases {
		if got := ParseNumber(tc.in); got != tc.want {
			t.Errorf("ParseNumber(%q) = %d, want %d", tc.in, got, tc.want)
		}
	}
}
