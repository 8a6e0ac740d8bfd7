package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/belanjain/internal/models"
	"github.com/example/belanjain/internal/repository"
)

type recordingNotifier struct {
	created chan *models.Order
	changed chan models.OrderTracking
}

func newRecordingNotifier() *recordingNotifier {
	return &recordingNotifier{
		created: make(chan *models.Order, 8),
		changed: make(chan models.OrderTracking, 8),
	}
}

func (n *recordingNotifier) NotifyOrderCreated(_ context.Context, order *models.Order) error {
	n.created <- order
	return nil
}

func (n *recordingNotifier) NotifyStatusChanged(_ context.Context, _ *models.Order, tracking models.OrderTracking) error {
	n.changed <- tracking
	return nil
}

type failingOrderRepository struct {
	repository.OrderRepository
	err error
}

func (r failingOrderRepository) CreateOrder(context.Context, *models.Order, []models.OrderItem, *models.OrderTracking) error {
	return r.err
}

func (r failingOrderRepository) ListOrders(context.Context, string) ([]models.Order, error) {
	return nil, r.err
}

func validOrderInput() CreateOrderInput {
	return CreateOrderInput{
		CustomerName:    "Budi Santoso",
		CustomerEmail:   "budi@example.com",
		CustomerPhone:   "081234567890",
		CustomerAddress: "Jl. Merdeka No. 1, Jakarta",
		TotalAmount:     25,
		PaymentMethod:   models.PaymentBankTransfer,
		Items: []OrderItemInput{
			{ProductID: "p1", ProductName: "Kaos", ProductPrice: 10, Quantity: 2},
			{ProductID: "p2", ProductName: "Topi", ProductPrice: 5, Quantity: 1},
		},
	}
}

func newTestOrderService(t *testing.T) (*OrderService, *recordingNotifier) {
	t.Helper()
	notifier := newRecordingNotifier()
	return NewOrderService(repository.NewMemoryOrderRepository(), notifier), notifier
}

func TestOrderServiceCreate(t *testing.T) {
	svc, notifier := newTestOrderService(t)
	fixed := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return fixed }

	order, err := svc.Create(context.Background(), validOrderInput())
	require.NoError(t, err)

	assert.Regexp(t, `^order_`, order.ID)
	assert.Equal(t, models.StatusPending, order.Status)
	assert.Equal(t, fixed, order.CreatedAt)
	assert.Equal(t, fixed, order.UpdatedAt)
	assert.Nil(t, order.PromoCode)

	require.Len(t, order.Items, 2)
	assert.Equal(t, 1, order.Items[0].LineNo)
	assert.Equal(t, 20.0, order.Items[0].Subtotal)
	assert.Equal(t, 5.0, order.Items[1].Subtotal)

	require.Len(t, order.Tracking, 1)
	assert.Equal(t, models.StatusPending, order.Tracking[0].Status)
	assert.Equal(t, "Pesanan berhasil dibuat dan menunggu pembayaran", order.Tracking[0].Description)

	select {
	case published := <-notifier.created:
		assert.Equal(t, order.ID, published.ID)
	case <-time.After(time.Second):
		t.Fatal("order created event was not published")
	}
}

func TestOrderServiceCreateValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*CreateOrderInput)
		field  string
	}{
		{"missing name", func(in *CreateOrderInput) { in.CustomerName = "  " }, "customer_name"},
		{"missing email", func(in *CreateOrderInput) { in.CustomerEmail = "" }, "customer_email"},
		{"missing phone", func(in *CreateOrderInput) { in.CustomerPhone = "" }, "customer_phone"},
		{"missing address", func(in *CreateOrderInput) { in.CustomerAddress = "" }, "customer_address"},
		{"unknown payment method", func(in *CreateOrderInput) { in.PaymentMethod = "cash" }, "payment_method"},
		{"negative total", func(in *CreateOrderInput) { in.TotalAmount = -1 }, "total_amount"},
		{"negative discount", func(in *CreateOrderInput) { in.DiscountAmount = -1 }, "discount_amount"},
		{"no items", func(in *CreateOrderInput) { in.Items = nil }, "items"},
		{"zero quantity", func(in *CreateOrderInput) { in.Items[0].Quantity = 0 }, "items.quantity"},
		{"negative price", func(in *CreateOrderInput) { in.Items[1].ProductPrice = -5 }, "items.product_price"},
		{"missing product id", func(in *CreateOrderInput) { in.Items[0].ProductID = "" }, "items.product_id"},
		{"total mismatch", func(in *CreateOrderInput) { in.TotalAmount = 24 }, "total_amount"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _ := newTestOrderService(t)
			in := validOrderInput()
			tt.mutate(&in)

			_, err := svc.Create(context.Background(), in)
			require.ErrorIs(t, err, ErrValidation)

			var svcErr *Error
			require.ErrorAs(t, err, &svcErr)
			assert.Equal(t, tt.field, svcErr.Field)

			orders, err := svc.List(context.Background(), "")
			require.NoError(t, err)
			assert.Empty(t, orders)
		})
	}
}

func TestOrderServiceCreateWithDiscount(t *testing.T) {
	svc, _ := newTestOrderService(t)
	in := validOrderInput()
	in.DiscountAmount = 2.5
	in.TotalAmount = 22.5
	in.PromoCode = "SAVE10"

	order, err := svc.Create(context.Background(), in)
	require.NoError(t, err)
	require.NotNil(t, order.PromoCode)
	assert.Equal(t, "SAVE10", *order.PromoCode)

	var sum float64
	for _, item := range order.Items {
		sum += item.Subtotal
	}
	assert.InDelta(t, order.TotalAmount+order.DiscountAmount, sum, 0.005)
}

func TestOrderServiceCreatePersistenceFailure(t *testing.T) {
	svc := NewOrderService(failingOrderRepository{err: errors.New("connection refused")}, nil)

	_, err := svc.Create(context.Background(), validOrderInput())
	require.ErrorIs(t, err, ErrPersistence)

	var svcErr *Error
	require.ErrorAs(t, err, &svcErr)
	assert.Equal(t, ErrPersistence.Error(), svcErr.Message())
}

func TestOrderServiceGet(t *testing.T) {
	svc, _ := newTestOrderService(t)
	created, err := svc.Create(context.Background(), validOrderInput())
	require.NoError(t, err)

	order, err := svc.Get(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, order.ID)
	require.Len(t, order.Items, 2)
	assert.Equal(t, "p1", order.Items[0].ProductID)
	assert.Len(t, order.Tracking, 1)

	_, err = svc.Get(context.Background(), "order_missing")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestOrderServiceList(t *testing.T) {
	svc, _ := newTestOrderService(t)
	base := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

	emails := []string{"a@example.com", "b@example.com", "a@example.com"}
	for i, email := range emails {
		at := base.Add(time.Duration(i) * time.Minute)
		svc.now = func() time.Time { return at }
		in := validOrderInput()
		in.CustomerEmail = email
		_, err := svc.Create(context.Background(), in)
		require.NoError(t, err)
	}

	all, err := svc.List(context.Background(), "")
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.True(t, all[0].CreatedAt.Before(all[1].CreatedAt))

	mine, err := svc.List(context.Background(), "a@example.com")
	require.NoError(t, err)
	assert.Len(t, mine, 2)

	upper, err := svc.List(context.Background(), "A@example.com")
	require.NoError(t, err)
	assert.Empty(t, upper)
}

func TestOrderServiceUpdateStatus(t *testing.T) {
	svc, notifier := newTestOrderService(t)
	created, err := svc.Create(context.Background(), validOrderInput())
	require.NoError(t, err)
	<-notifier.created

	later := created.CreatedAt.Add(time.Hour)
	svc.now = func() time.Time { return later }

	order, err := svc.UpdateStatus(context.Background(), created.ID, models.StatusPaid, "")
	require.NoError(t, err)
	assert.Equal(t, models.StatusPaid, order.Status)
	assert.Equal(t, later, order.UpdatedAt)
	require.Len(t, order.Tracking, 2)
	assert.Equal(t, 2, order.Tracking[1].Sequence)
	assert.Equal(t, "Pembayaran telah diterima", order.Tracking[1].Description)

	// Any status may follow any other.
	order, err = svc.UpdateStatus(context.Background(), created.ID, models.StatusPending, "Dikembalikan ke antrean")
	require.NoError(t, err)
	require.Len(t, order.Tracking, 3)
	last := order.Tracking[len(order.Tracking)-1]
	assert.Equal(t, order.Status, last.Status)
	assert.Equal(t, "Dikembalikan ke antrean", last.Description)

	select {
	case tracking := <-notifier.changed:
		assert.Equal(t, created.ID, tracking.OrderID)
	case <-time.After(time.Second):
		t.Fatal("status change event was not published")
	}
}

func TestOrderServiceUpdateStatusErrors(t *testing.T) {
	svc, _ := newTestOrderService(t)
	created, err := svc.Create(context.Background(), validOrderInput())
	require.NoError(t, err)

	_, err = svc.UpdateStatus(context.Background(), "order_missing", models.StatusPaid, "")
	require.ErrorIs(t, err, ErrNotFound)

	_, err = svc.UpdateStatus(context.Background(), created.ID, models.OrderStatus("lost"), "")
	require.ErrorIs(t, err, ErrValidation)

	order, err := svc.Get(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Len(t, order.Tracking, 1)
}

type itemsUnavailableRepository struct {
	*repository.MemoryOrderRepository
}

func (itemsUnavailableRepository) ListItems(context.Context, string) ([]models.OrderItem, error) {
	return nil, errors.New("i/o timeout")
}

func TestOrderServiceUpdateStatusSurvivesFailedReread(t *testing.T) {
	repo := itemsUnavailableRepository{repository.NewMemoryOrderRepository()}
	notifier := newRecordingNotifier()
	svc := NewOrderService(repo, notifier)

	created, err := svc.Create(context.Background(), validOrderInput())
	require.NoError(t, err)
	<-notifier.created

	order, err := svc.UpdateStatus(context.Background(), created.ID, models.StatusPaid, "")
	require.NoError(t, err)
	assert.Equal(t, created.ID, order.ID)
	assert.Equal(t, models.StatusPaid, order.Status)
	require.Len(t, order.Tracking, 1)
	assert.Equal(t, 2, order.Tracking[0].Sequence)

	history, err := repo.ListTracking(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Len(t, history, 2)

	select {
	case tracking := <-notifier.changed:
		assert.Equal(t, models.StatusPaid, tracking.Status)
	case <-time.After(time.Second):
		t.Fatal("status change event was not published")
	}
}

func TestOrderServiceStats(t *testing.T) {
	svc, _ := newTestOrderService(t)
	now := time.Date(2024, 3, 2, 12, 0, 0, 0, time.UTC)

	svc.now = func() time.Time { return now.Add(-48 * time.Hour) }
	_, err := svc.Create(context.Background(), validOrderInput())
	require.NoError(t, err)

	svc.now = func() time.Time { return now }
	second, err := svc.Create(context.Background(), validOrderInput())
	require.NoError(t, err)
	cancelled, err := svc.Create(context.Background(), validOrderInput())
	require.NoError(t, err)
	_, err = svc.UpdateStatus(context.Background(), cancelled.ID, models.StatusCancelled, "")
	require.NoError(t, err)
	_, err = svc.UpdateStatus(context.Background(), second.ID, models.StatusPaid, "")
	require.NoError(t, err)

	stats, err := svc.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, stats.TotalOrders)
	assert.Equal(t, int64(1), stats.OrdersByStatus[models.StatusPending])
	assert.Equal(t, int64(1), stats.OrdersByStatus[models.StatusPaid])
	assert.Equal(t, int64(1), stats.OrdersByStatus[models.StatusCancelled])
	assert.Equal(t, 50.0, stats.TotalRevenue)
	assert.Equal(t, 25.0, stats.TodayRevenue)
}

func TestOrderServiceStatsPersistenceFailure(t *testing.T) {
	svc := NewOrderService(failingOrderRepository{err: errors.New("timeout")}, nil)

	_, err := svc.Stats(context.Background())
	require.ErrorIs(t, err, ErrPersistence)
}
