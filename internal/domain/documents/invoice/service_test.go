package invoice

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"uniworld/internal/core/apperror"
	"uniworld/internal/core/entity"
	"uniworld/internal/core/id"
	"uniworld/internal/core/types"
	"uniworld/internal/domain"
	"uniworld/internal/domain/documents/salesorder"
)

// --- Fakes ---

type fakeTxManager struct{}

func (m *fakeTxManager) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}
func (m *fakeTxManager) InTransaction(ctx context.Context) bool { return false }

type fakeRepo struct {
	invoices map[id.ID]*Invoice
	items    map[id.ID]*Item
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{invoices: make(map[id.ID]*Invoice), items: make(map[id.ID]*Item)}
}

func (r *fakeRepo) Create(ctx context.Context, inv *Invoice) error {
	stored := *inv
	stored.Items = nil
	r.invoices[inv.ID] = &stored
	for _, item := range inv.Items {
		cp := *item
		r.items[item.ID] = &cp
	}
	return nil
}

func (r *fakeRepo) GetByID(ctx context.Context, invoiceID id.ID) (*Invoice, error) {
	inv, ok := r.invoices[invoiceID]
	if !ok || inv.DeletionMark {
		return nil, apperror.NewNotFound("invoice", invoiceID.String())
	}
	cp := *inv
	return &cp, nil
}

func (r *fakeRepo) Update(ctx context.Context, inv *Invoice) error {
	stored := *inv
	stored.Items = nil
	r.invoices[inv.ID] = &stored
	return nil
}

func (r *fakeRepo) SetDeletionMark(ctx context.Context, invoiceID id.ID, mark bool) error {
	inv, ok := r.invoices[invoiceID]
	if !ok {
		return apperror.NewNotFound("invoice", invoiceID.String())
	}
	inv.DeletionMark = mark
	return nil
}

func (r *fakeRepo) List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[*Invoice], error) {
	out := make([]*Invoice, 0, len(r.invoices))
	for _, inv := range r.invoices {
		out = append(out, inv)
	}
	return domain.ListResult[*Invoice]{Items: out, TotalCount: int64(len(out))}, nil
}

func (r *fakeRepo) GetBySalesOrderID(ctx context.Context, salesOrderID id.ID) (*Invoice, error) {
	for _, inv := range r.invoices {
		if inv.SalesOrderID == salesOrderID && !inv.DeletionMark {
			cp := *inv
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *fakeRepo) GetItems(ctx context.Context, invoiceID id.ID) ([]*Item, error) {
	out := make([]*Item, 0)
	for _, item := range r.items {
		if item.InvoiceID == invoiceID {
			cp := *item
			out = append(out, &cp)
		}
	}
	return out, nil
}

type fakeOrders struct {
	orders map[id.ID]*salesorder.SalesOrder
	items  map[id.ID][]*salesorder.Item
}

func (f *fakeOrders) GetByID(ctx context.Context, orderID id.ID) (*salesorder.SalesOrder, error) {
	o, ok := f.orders[orderID]
	if !ok {
		return nil, apperror.NewNotFound("sales order", orderID.String())
	}
	return o, nil
}

func (f *fakeOrders) GetItems(ctx context.Context, orderID id.ID) ([]*salesorder.Item, error) {
	return f.items[orderID], nil
}

type fixture struct {
	svc    *Service
	repo   *fakeRepo
	orders *fakeOrders
}

func newFixture() *fixture {
	repo := newFakeRepo()
	orders := &fakeOrders{
		orders: make(map[id.ID]*salesorder.SalesOrder),
		items:  make(map[id.ID][]*salesorder.Item),
	}
	svc := NewService(repo, orders, nil, &fakeTxManager{})
	return &fixture{svc: svc, repo: repo, orders: orders}
}

type line struct {
	qty   int64
	price string
}

// order registers a sales order with the given lines.
func (f *fixture) order(lines ...line) *salesorder.SalesOrder {
	o := salesorder.NewSalesOrder(id.New())
	o.Number = "SO-2025-00042"
	o.Date = time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	f.orders.orders[o.ID] = o
	for _, l := range lines {
		item := &salesorder.Item{
			BaseEntity: entity.NewBaseEntity(),
			OrderID:    o.ID,
			ProductID:  id.New(),
			Quantity:   types.Quantity(l.qty),
			UnitPrice:  types.MustMoney(l.price),
		}
		f.orders.items[o.ID] = append(f.orders.items[o.ID], item)
	}
	return o
}

// --- Tests ---

func TestCreateFromOrder_CopiesLinesAndDerivesTotal(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	o := f.order(line{3, "100"}, line{2, "25.50"})

	inv, err := f.svc.CreateFromOrder(ctx, CreateRequest{
		SalesOrderID: o.ID,
		Number:       "INV-2025-00001",
	})
	require.NoError(t, err)

	assert.Equal(t, o.CustomerID, inv.CustomerID)
	assert.Equal(t, o.ID, inv.SalesOrderID)
	assert.Equal(t, PaymentPending, inv.PaymentStatus)
	require.Len(t, inv.Items, 2)

	// 3 x 100 + 2 x 25.50 = 351
	assert.True(t, inv.TotalAmount.Equal(types.MustMoney("351")), "got %s", inv.TotalAmount)

	// Due date defaults to the order date plus 30 days
	assert.Equal(t, o.Date.Add(defaultPaymentTerm), inv.DueDate)
	assert.Equal(t, o.Date, inv.Date)
}

func TestCreateFromOrder_SecondInvoiceRejected(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	o := f.order(line{1, "10"})

	_, err := f.svc.CreateFromOrder(ctx, CreateRequest{SalesOrderID: o.ID, Number: "INV-2025-00001"})
	require.NoError(t, err)

	_, err = f.svc.CreateFromOrder(ctx, CreateRequest{SalesOrderID: o.ID, Number: "INV-2025-00002"})
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeConflict))
}

func TestCreateFromOrder_EmptyOrderRejected(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	o := f.order()

	_, err := f.svc.CreateFromOrder(ctx, CreateRequest{SalesOrderID: o.ID, Number: "INV-2025-00001"})
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeValidation))
}

func TestCreateFromOrder_ExplicitDueDateKept(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	o := f.order(line{1, "10"})
	due := time.Date(2025, 9, 15, 0, 0, 0, 0, time.UTC)

	inv, err := f.svc.CreateFromOrder(ctx, CreateRequest{
		SalesOrderID: o.ID,
		DueDate:      due,
		Number:       "INV-2025-00001",
	})
	require.NoError(t, err)
	assert.Equal(t, due, inv.DueDate)
}

func TestMarkPaid_TransitionsOnce(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	o := f.order(line{1, "10"})

	inv, err := f.svc.CreateFromOrder(ctx, CreateRequest{SalesOrderID: o.ID, Number: "INV-2025-00001"})
	require.NoError(t, err)

	require.NoError(t, f.svc.MarkPaid(ctx, inv.ID))
	stored, err := f.svc.GetByID(ctx, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, PaymentCompleted, stored.PaymentStatus)

	// Paying twice is a no-op
	require.NoError(t, f.svc.MarkPaid(ctx, inv.ID))
}

func TestDeleteInvoice_FreesTheOrderForReinvoicing(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	o := f.order(line{1, "10"})

	inv, err := f.svc.CreateFromOrder(ctx, CreateRequest{SalesOrderID: o.ID, Number: "INV-2025-00001"})
	require.NoError(t, err)
	require.NoError(t, f.svc.DeleteInvoice(ctx, inv.ID))

	_, err = f.svc.CreateFromOrder(ctx, CreateRequest{SalesOrderID: o.ID, Number: "INV-2025-00002"})
	require.NoError(t, err)
}
