package engine_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/yeremiapane/restaurant-floor/engine"
	"github.com/yeremiapane/restaurant-floor/events"
	"github.com/yeremiapane/restaurant-floor/models"
	"github.com/yeremiapane/restaurant-floor/store"
)

// pubRecorder merekam event yang dipublish engine, pengganti hub di test.
type pubRecorder struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *pubRecorder) Publish(ev events.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
}

func (p *pubRecorder) kinds() []events.Kind {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []events.Kind
	for _, ev := range p.events {
		out = append(out, ev.EventKind())
	}
	return out
}

// setupEngine -> engine di atas SQLite in-memory, satu koneksi supaya
// transaksi concurrent ter-serialize seperti conditional write production.
func setupEngine(t *testing.T) (*engine.Engine, *gorm.DB, *pubRecorder) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&models.Table{}, &models.MenuCategory{}, &models.Menu{},
		&models.Booking{}, &models.BookingItem{},
		&models.Order{}, &models.OrderItem{},
		&models.Notification{},
	))

	// Seed meja dan katalog
	db.Create(&models.Table{Number: "T1", Capacity: 4, Status: models.TableStatusEmpty})
	db.Create(&models.Table{Number: "T2", Capacity: 2, Status: models.TableStatusEmpty})
	db.Create(&models.MenuCategory{Name: "Main"})
	db.Create(&models.Menu{CategoryID: 1, Name: "Nasi Goreng", Price: 15000})
	db.Create(&models.Menu{CategoryID: 1, Name: "Es Teh", Price: 5000})

	pub := &pubRecorder{}
	return engine.New(store.New(db), pub), db, pub
}

func customer(id uint) models.Actor {
	return models.Actor{Role: models.RoleCustomer, ID: id}
}

func employee(id uint) models.Actor {
	return models.Actor{Role: models.RoleEmployee, ID: id}
}

func bookingReq(tableID uint, guests int) engine.CreateBookingRequest {
	return engine.CreateBookingRequest{
		TableID:    tableID,
		ReservedAt: time.Date(2024, 1, 15, 19, 0, 0, 0, time.Local),
		GuestCount: guests,
		Selections: []engine.MenuSelection{{MenuID: 1, Quantity: 2}},
		Requester:  customer(7),
	}
}

func TestCreateBookingValidation(t *testing.T) {
	eng, _, _ := setupEngine(t)
	ctx := context.Background()

	// guest count 0 ditolak, 1 dan 9999 diterima (tidak ada batas atas)
	_, err := eng.CreateBooking(ctx, bookingReq(1, 0))
	assert.True(t, engine.IsInvalidInput(err))

	b, err := eng.CreateBooking(ctx, bookingReq(1, 1))
	require.NoError(t, err)
	assert.Equal(t, models.BookingStatusPending, b.Status)

	req := bookingReq(2, 9999)
	b, err = eng.CreateBooking(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, 9999, b.GuestCount)

	// pre-order kosong ditolak
	req = bookingReq(2, 2)
	req.ReservedAt = req.ReservedAt.Add(6 * time.Hour)
	req.Selections = nil
	_, err = eng.CreateBooking(ctx, req)
	assert.True(t, engine.IsInvalidInput(err))

	// menu tak dikenal
	req.Selections = []engine.MenuSelection{{MenuID: 99, Quantity: 1}}
	_, err = eng.CreateBooking(ctx, req)
	assert.True(t, engine.IsNotFound(err))
}

func TestCreateBookingDeposit(t *testing.T) {
	eng, _, _ := setupEngine(t)

	req := bookingReq(1, 2)
	req.Selections = []engine.MenuSelection{
		{MenuID: 1, Quantity: 2}, // 30000
		{MenuID: 2, Quantity: 1}, // 5000
	}
	b, err := eng.CreateBooking(context.Background(), req)
	require.NoError(t, err)
	assert.InDelta(t, 35000*0.2, b.Deposit, 0.001)
	assert.Len(t, b.Items, 2)
}

func TestCreateBookingOverlappingTimeslot(t *testing.T) {
	eng, _, _ := setupEngine(t)
	ctx := context.Background()

	_, err := eng.CreateBooking(ctx, bookingReq(1, 4))
	require.NoError(t, err)

	// Slot yang sama persis -> Conflict
	_, err = eng.CreateBooking(ctx, bookingReq(1, 2))
	assert.True(t, engine.IsConflict(err))

	// Geser 1 jam masih di dalam lebar slot 2 jam -> Conflict
	req := bookingReq(1, 2)
	req.ReservedAt = req.ReservedAt.Add(time.Hour)
	_, err = eng.CreateBooking(ctx, req)
	assert.True(t, engine.IsConflict(err))

	// Slot yang cukup jauh -> boleh
	req.ReservedAt = req.ReservedAt.Add(3 * time.Hour)
	_, err = eng.CreateBooking(ctx, req)
	assert.NoError(t, err)

	// Meja lain tidak terpengaruh
	_, err = eng.CreateBooking(ctx, bookingReq(2, 2))
	assert.NoError(t, err)
}

func TestConfirmBookingLifecycle(t *testing.T) {
	eng, db, pub := setupEngine(t)
	ctx := context.Background()

	b, err := eng.CreateBooking(ctx, bookingReq(1, 4))
	require.NoError(t, err)

	confirmed, err := eng.ConfirmBooking(ctx, b.ID, employee(3))
	require.NoError(t, err)
	assert.Equal(t, models.BookingStatusConfirmed, confirmed.Status)
	require.NotNil(t, confirmed.OrderID)

	var table models.Table
	require.NoError(t, db.First(&table, b.TableID).Error)
	assert.Equal(t, models.TableStatusOccupied, table.Status)

	// Order open dengan item pre-order dan total turunannya
	var order models.Order
	require.NoError(t, db.Preload("Items").First(&order, *confirmed.OrderID).Error)
	assert.Equal(t, models.OrderStatusOpen, order.Status)
	assert.Len(t, order.Items, 1)
	assert.InDelta(t, 30000, order.Total, 0.001)

	assert.Equal(t, []events.Kind{events.KindBookingCreated, events.KindBookingConfirmed}, pub.kinds())
}

func TestConfirmBookingOnlyStaff(t *testing.T) {
	eng, _, _ := setupEngine(t)
	ctx := context.Background()

	b, err := eng.CreateBooking(ctx, bookingReq(1, 2))
	require.NoError(t, err)

	_, err = eng.ConfirmBooking(ctx, b.ID, customer(7))
	assert.True(t, engine.IsInvalidInput(err))
}

func TestConfirmBookingDoubleInvocation(t *testing.T) {
	eng, _, _ := setupEngine(t)
	ctx := context.Background()

	b, err := eng.CreateBooking(ctx, bookingReq(1, 4))
	require.NoError(t, err)

	_, err = eng.ConfirmBooking(ctx, b.ID, employee(3))
	require.NoError(t, err)

	// Konfirmasi kedua tidak pernah menghasilkan mutasi meja/order kedua
	_, err = eng.ConfirmBooking(ctx, b.ID, employee(4))
	assert.True(t, engine.IsInvalidState(err) || engine.IsConflict(err))
}

func TestConfirmBookingConcurrent(t *testing.T) {
	eng, db, _ := setupEngine(t)
	ctx := context.Background()

	b, err := eng.CreateBooking(ctx, bookingReq(1, 4))
	require.NoError(t, err)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = eng.ConfirmBooking(ctx, b.ID, employee(uint(i+1)))
		}(i)
	}
	wg.Wait()

	// Tepat satu menang; yang kalah Conflict atau InvalidState
	wins := 0
	for _, err := range errs {
		if err == nil {
			wins++
		} else {
			assert.True(t, engine.IsConflict(err) || engine.IsInvalidState(err), "unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, wins)

	var openOrders int64
	db.Model(&models.Order{}).Where("table_id = ? AND status = ?", b.TableID, models.OrderStatusOpen).Count(&openOrders)
	assert.EqualValues(t, 1, openOrders)
}

func TestConfirmBookingTableOccupied(t *testing.T) {
	eng, _, _ := setupEngine(t)
	ctx := context.Background()

	b, err := eng.CreateBooking(ctx, bookingReq(1, 4))
	require.NoError(t, err)

	// Walk-in keburu menduduki meja
	_, err = eng.OpenOrEnsureOrder(ctx, b.TableID)
	require.NoError(t, err)

	_, err = eng.ConfirmBooking(ctx, b.ID, employee(3))
	assert.True(t, engine.IsConflict(err))
}

func TestCancelBookingPendingByCustomer(t *testing.T) {
	eng, db, pub := setupEngine(t)
	ctx := context.Background()

	b, err := eng.CreateBooking(ctx, bookingReq(1, 4))
	require.NoError(t, err)

	cancelled, err := eng.CancelBooking(ctx, b.ID, customer(7))
	require.NoError(t, err)
	assert.Equal(t, models.BookingStatusCancelled, cancelled.Status)

	// Meja tidak pernah occupied untuk booking pending
	var table models.Table
	require.NoError(t, db.First(&table, b.TableID).Error)
	assert.Equal(t, models.TableStatusEmpty, table.Status)

	assert.Contains(t, pub.kinds(), events.KindBookingCancelled)
}

func TestCancelBookingCustomerRestrictions(t *testing.T) {
	eng, _, _ := setupEngine(t)
	ctx := context.Background()

	b, err := eng.CreateBooking(ctx, bookingReq(1, 4))
	require.NoError(t, err)

	// Bukan miliknya
	_, err = eng.CancelBooking(ctx, b.ID, customer(99))
	assert.True(t, engine.IsInvalidInput(err))

	_, err = eng.ConfirmBooking(ctx, b.ID, employee(3))
	require.NoError(t, err)

	// Customer tidak boleh membatalkan setelah konfirmasi
	_, err = eng.CancelBooking(ctx, b.ID, customer(7))
	assert.True(t, engine.IsInvalidState(err))
}

func TestCancelConfirmedBookingFreesTable(t *testing.T) {
	eng, db, _ := setupEngine(t)
	ctx := context.Background()

	b, err := eng.CreateBooking(ctx, bookingReq(1, 4))
	require.NoError(t, err)
	confirmed, err := eng.ConfirmBooking(ctx, b.ID, employee(3))
	require.NoError(t, err)

	// Belum ada item di luar pre-order -> meja bebas, order di-archive
	_, err = eng.CancelBooking(ctx, b.ID, employee(3))
	require.NoError(t, err)

	var table models.Table
	require.NoError(t, db.First(&table, b.TableID).Error)
	assert.Equal(t, models.TableStatusEmpty, table.Status)

	var count int64
	db.Model(&models.Order{}).Where("id = ?", *confirmed.OrderID).Count(&count)
	assert.EqualValues(t, 0, count, "unpaid order should be archived")
}

func TestCancelConfirmedBookingKeepsLiveTab(t *testing.T) {
	eng, db, _ := setupEngine(t)
	ctx := context.Background()

	b, err := eng.CreateBooking(ctx, bookingReq(1, 4))
	require.NoError(t, err)
	confirmed, err := eng.ConfirmBooking(ctx, b.ID, employee(3))
	require.NoError(t, err)

	// Tamu sudah pesan tambahan: tab tetap hidup walau booking batal
	_, err = eng.AddOrderItems(ctx, *confirmed.OrderID, []engine.OrderItemRequest{{MenuID: 2, Quantity: 1}})
	require.NoError(t, err)

	_, err = eng.CancelBooking(ctx, b.ID, employee(3))
	require.NoError(t, err)

	var table models.Table
	require.NoError(t, db.First(&table, b.TableID).Error)
	assert.Equal(t, models.TableStatusOccupied, table.Status)

	var order models.Order
	require.NoError(t, db.First(&order, *confirmed.OrderID).Error)
	assert.Equal(t, models.OrderStatusOpen, order.Status)
}

func TestCancelCompletedBookingRejected(t *testing.T) {
	eng, _, _ := setupEngine(t)
	ctx := context.Background()

	b, err := eng.CreateBooking(ctx, bookingReq(1, 4))
	require.NoError(t, err)
	_, err = eng.ConfirmBooking(ctx, b.ID, employee(3))
	require.NoError(t, err)
	_, err = eng.PayOrder(ctx, b.TableID)
	require.NoError(t, err)

	_, err = eng.CancelBooking(ctx, b.ID, employee(3))
	assert.True(t, engine.IsInvalidState(err))
}

func TestOpenOrEnsureOrderIdempotent(t *testing.T) {
	eng, db, _ := setupEngine(t)
	ctx := context.Background()

	first, err := eng.OpenOrEnsureOrder(ctx, 1)
	require.NoError(t, err)

	second, err := eng.OpenOrEnsureOrder(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	var table models.Table
	require.NoError(t, db.First(&table, 1).Error)
	assert.Equal(t, models.TableStatusOccupied, table.Status)
}

func TestAtMostOneOpenOrderPerTable(t *testing.T) {
	eng, db, _ := setupEngine(t)
	ctx := context.Background()

	// Campuran open dan pay yang concurrent; invariant: tidak pernah ada
	// lebih dari satu order open terikat ke meja yang sama.
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if i%4 == 3 {
				eng.PayOrder(ctx, 1)
				return
			}
			eng.OpenOrEnsureOrder(ctx, 1)
		}(i)
	}
	wg.Wait()

	var open int64
	db.Model(&models.Order{}).Where("table_id = ? AND status = ?", 1, models.OrderStatusOpen).Count(&open)
	assert.LessOrEqual(t, open, int64(1))
}

func TestAddOrderItems(t *testing.T) {
	eng, _, _ := setupEngine(t)
	ctx := context.Background()

	order, err := eng.OpenOrEnsureOrder(ctx, 1)
	require.NoError(t, err)

	updated, err := eng.AddOrderItems(ctx, order.ID, []engine.OrderItemRequest{
		{MenuID: 1, Quantity: 2},
		{MenuID: 2, Quantity: 3, Notes: "less sugar"},
	})
	require.NoError(t, err)
	assert.Len(t, updated.Items, 2)
	assert.InDelta(t, 45000, updated.Total, 0.001)

	// Append lagi: total bertambah, bukan di-reset
	updated, err = eng.AddOrderItems(ctx, order.ID, []engine.OrderItemRequest{{MenuID: 2, Quantity: 1}})
	require.NoError(t, err)
	assert.Len(t, updated.Items, 3)
	assert.InDelta(t, 50000, updated.Total, 0.001)

	// Validasi input
	_, err = eng.AddOrderItems(ctx, order.ID, nil)
	assert.True(t, engine.IsInvalidInput(err))
	_, err = eng.AddOrderItems(ctx, order.ID, []engine.OrderItemRequest{{MenuID: 1, Quantity: 0}})
	assert.True(t, engine.IsInvalidInput(err))
}

func TestAddOrderItemsAfterPaid(t *testing.T) {
	eng, _, _ := setupEngine(t)
	ctx := context.Background()

	order, err := eng.OpenOrEnsureOrder(ctx, 1)
	require.NoError(t, err)
	_, err = eng.AddOrderItems(ctx, order.ID, []engine.OrderItemRequest{{MenuID: 1, Quantity: 1}})
	require.NoError(t, err)
	_, err = eng.PayOrder(ctx, 1)
	require.NoError(t, err)

	_, err = eng.AddOrderItems(ctx, order.ID, []engine.OrderItemRequest{{MenuID: 2, Quantity: 1}})
	assert.True(t, engine.IsInvalidState(err))
}

func TestPayOrderLifecycle(t *testing.T) {
	eng, db, pub := setupEngine(t)
	ctx := context.Background()

	b, err := eng.CreateBooking(ctx, bookingReq(1, 4))
	require.NoError(t, err)
	confirmed, err := eng.ConfirmBooking(ctx, b.ID, employee(3))
	require.NoError(t, err)
	_, err = eng.AddOrderItems(ctx, *confirmed.OrderID, []engine.OrderItemRequest{{MenuID: 2, Quantity: 2}})
	require.NoError(t, err)

	paid, err := eng.PayOrder(ctx, b.TableID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusPaid, paid.Status)

	var table models.Table
	require.NoError(t, db.First(&table, b.TableID).Error)
	assert.Equal(t, models.TableStatusEmpty, table.Status)

	var booking models.Booking
	require.NoError(t, db.First(&booking, b.ID).Error)
	assert.Equal(t, models.BookingStatusCompleted, booking.Status)

	kinds := pub.kinds()
	assert.Equal(t, events.KindPaymentCompleted, kinds[len(kinds)-1])
}

func TestPayOrderTwice(t *testing.T) {
	eng, db, _ := setupEngine(t)
	ctx := context.Background()

	_, err := eng.OpenOrEnsureOrder(ctx, 1)
	require.NoError(t, err)
	_, err = eng.PayOrder(ctx, 1)
	require.NoError(t, err)

	// Tidak ada lagi order open di meja ini
	_, err = eng.PayOrder(ctx, 1)
	assert.True(t, engine.IsNotFound(err))

	var table models.Table
	require.NoError(t, db.First(&table, 1).Error)
	assert.Equal(t, models.TableStatusEmpty, table.Status)
}

func TestPayOrderNoOpenOrder(t *testing.T) {
	eng, _, _ := setupEngine(t)

	_, err := eng.PayOrder(context.Background(), 1)
	assert.True(t, engine.IsNotFound(err))
}
