// Package engine adalah satu-satunya penulis transisi state untuk meja,
// booking, order, dan pembayaran. Setiap operasi atomik terhadap record
// store: transisi either fully applied atau semua entity tidak tersentuh.
// Correctness concurrency dicapai lewat conditional write per entity
// (optimistic concurrency), bukan global lock.
package engine

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yeremiapane/restaurant-floor/events"
	"github.com/yeremiapane/restaurant-floor/models"
	"github.com/yeremiapane/restaurant-floor/store"
)

// Publisher menerima event domain setelah transisi sukses commit.
// Di produksi ini hub fan-out; di test cukup recorder.
type Publisher interface {
	Publish(ev events.Event)
}

const (
	defaultSlotDuration = 2 * time.Hour
	defaultDepositRate  = 0.2
)

type Engine struct {
	store *store.Store
	pub   Publisher

	// SlotDuration menentukan lebar timeslot satu booking; dua booking di
	// meja yang sama dianggap overlap kalau selisih waktunya < SlotDuration.
	SlotDuration time.Duration
	// DepositRate -> porsi total pre-order yang jadi deposit booking.
	DepositRate float64
}

func New(st *store.Store, pub Publisher) *Engine {
	return &Engine{
		store:        st,
		pub:          pub,
		SlotDuration: defaultSlotDuration,
		DepositRate:  defaultDepositRate,
	}
}

// MenuSelection adalah satu baris pre-order di request booking.
type MenuSelection struct {
	MenuID   uint `json:"menu_id"`
	Quantity int  `json:"quantity"`
}

type CreateBookingRequest struct {
	TableID    uint
	ReservedAt time.Time
	GuestCount int
	Selections []MenuSelection
	Requester  models.Actor
}

// storeErr memetakan error lapisan store ke taksonomi engine.
func storeErr(err error, what string) error {
	switch {
	case err == nil:
		return nil
	case err == store.ErrNotFound:
		return newError(CodeNotFound, "%s not found", what)
	case err == store.ErrVersionConflict:
		return newError(CodeConflict, "%s changed concurrently, re-fetch and retry", what)
	case store.Unavailable(err):
		return newError(CodeUnavailable, "storage timeout while accessing %s", what)
	default:
		return newError(CodeUnavailable, "storage error on %s: %v", what, err)
	}
}

// CreateBooking membuat reservasi pending untuk satu meja dan timeslot.
// Gagal Conflict kalau meja sudah punya booking pending/confirmed yang
// overlap; InvalidInput kalau guest count <= 0 atau pre-order kosong.
func (e *Engine) CreateBooking(ctx context.Context, req CreateBookingRequest) (*models.Booking, error) {
	if req.GuestCount <= 0 {
		return nil, newError(CodeInvalidInput, "guest count must be positive, got %d", req.GuestCount)
	}
	if len(req.Selections) == 0 {
		return nil, newError(CodeInvalidInput, "menu pre-order must not be empty")
	}
	if !req.Requester.Role.Valid() {
		return nil, newError(CodeInvalidInput, "unknown requester role %q", req.Requester.Role)
	}
	if req.ReservedAt.IsZero() {
		return nil, newError(CodeInvalidInput, "reservation timeslot is required")
	}
	for _, sel := range req.Selections {
		if sel.Quantity <= 0 {
			return nil, newError(CodeInvalidInput, "menu %d: quantity must be positive", sel.MenuID)
		}
	}

	var table models.Table
	if err := e.store.Get(ctx, &table, req.TableID); err != nil {
		return nil, storeErr(err, "table")
	}

	booking := models.Booking{
		Code:         uuid.NewString(),
		TableID:      table.ID,
		CustomerRole: req.Requester.Role,
		CustomerID:   req.Requester.ID,
		ReservedAt:   req.ReservedAt,
		GuestCount:   req.GuestCount,
		Status:       models.BookingStatusPending,
	}

	err := e.store.Transaction(ctx, func(tx *gorm.DB) error {
		// Cek overlap di dalam transaksi supaya insert dan cek satu unit.
		var clash int64
		if err := tx.Model(&models.Booking{}).
			Where("table_id = ? AND status IN ? AND reserved_at > ? AND reserved_at < ?",
				table.ID,
				[]models.BookingStatus{models.BookingStatusPending, models.BookingStatusConfirmed},
				req.ReservedAt.Add(-e.SlotDuration),
				req.ReservedAt.Add(e.SlotDuration)).
			Count(&clash).Error; err != nil {
			return err
		}
		if clash > 0 {
			return newError(CodeConflict, "table %s already has an active booking for an overlapping timeslot", table.Number)
		}

		var preorderTotal float64
		for _, sel := range req.Selections {
			var menu models.Menu
			if err := tx.First(&menu, sel.MenuID).Error; err != nil {
				if err == gorm.ErrRecordNotFound {
					return newError(CodeNotFound, "menu %d not found", sel.MenuID)
				}
				return err
			}
			booking.Items = append(booking.Items, models.BookingItem{
				MenuID:   menu.ID,
				Quantity: sel.Quantity,
				Price:    menu.Price,
			})
			preorderTotal += float64(sel.Quantity) * menu.Price
		}
		booking.Deposit = preorderTotal * e.DepositRate

		return tx.Create(&booking).Error
	})
	if err != nil {
		if _, ok := err.(*Error); ok {
			return nil, err
		}
		return nil, storeErr(err, "booking")
	}

	e.pub.Publish(events.BookingCreated{Booking: booking})
	return &booking, nil
}

// ConfirmBooking -> staff menyetujui booking pending: booking confirmed,
// meja occupied, order open dibuka dari pre-order booking. Dua konfirmasi
// yang race di booking yang sama: conditional write memastikan hanya yang
// pertama menang, yang kalah dapat Conflict.
func (e *Engine) ConfirmBooking(ctx context.Context, bookingID uint, approver models.Actor) (*models.Booking, error) {
	if !approver.IsStaff() {
		return nil, newError(CodeInvalidInput, "only employees or admins may confirm bookings")
	}

	var booking models.Booking
	if err := e.store.GetWith(ctx, &booking, bookingID, "Items", "Table"); err != nil {
		return nil, storeErr(err, "booking")
	}
	if booking.Status != models.BookingStatusPending {
		return nil, newError(CodeInvalidState, "booking %d is %s, only pending bookings can be confirmed", booking.ID, booking.Status)
	}

	var order models.Order
	err := e.store.Transaction(ctx, func(tx *gorm.DB) error {
		now := time.Now()

		// Linearisasi di booking: hanya satu konfirmasi yang lolos.
		if err := store.TxUpdateIfStatus(tx, &models.Booking{}, booking.ID,
			string(models.BookingStatusPending), map[string]interface{}{
				"status":     models.BookingStatusConfirmed,
				"updated_at": now,
			}); err != nil {
			return err
		}

		// Klaim meja: empty -> occupied. Conditional write sekaligus cek
		// occupancy; kalah berarti meja keburu dipakai order lain.
		if err := store.TxUpdateIfStatus(tx, &models.Table{}, booking.TableID,
			string(models.TableStatusEmpty), map[string]interface{}{
				"status":     models.TableStatusOccupied,
				"updated_at": now,
			}); err != nil {
			if err == store.ErrVersionConflict {
				return newError(CodeConflict, "table %d is occupied by another active order", booking.TableID)
			}
			return err
		}

		order = models.Order{
			TableID:   booking.TableID,
			BookingID: &booking.ID,
			Status:    models.OrderStatusOpen,
		}
		for _, it := range booking.Items {
			order.Items = append(order.Items, models.OrderItem{
				MenuID:   it.MenuID,
				Quantity: it.Quantity,
				Price:    it.Price,
			})
			order.Total += float64(it.Quantity) * it.Price
		}
		if err := tx.Create(&order).Error; err != nil {
			return err
		}

		return tx.Model(&models.Booking{}).Where("id = ?", booking.ID).
			Update("order_id", order.ID).Error
	})
	if err != nil {
		if _, ok := err.(*Error); ok {
			return nil, err
		}
		return nil, storeErr(err, "booking")
	}

	booking.Status = models.BookingStatusConfirmed
	booking.OrderID = &order.ID

	e.pub.Publish(events.BookingConfirmed{Booking: booking, Order: order, Approver: approver})
	return &booking, nil
}

// CancelBooking membatalkan booking. Customer hanya boleh membatalkan
// booking pending miliknya sendiri; staff boleh kapan pun sebelum completed.
// Kalau meja occupied semata karena booking ini dan belum ada item tambahan
// di luar pre-order, meja dibebaskan dan order yang belum dibayar di-archive.
func (e *Engine) CancelBooking(ctx context.Context, bookingID uint, actor models.Actor) (*models.Booking, error) {
	var booking models.Booking
	if err := e.store.GetWith(ctx, &booking, bookingID, "Items"); err != nil {
		return nil, storeErr(err, "booking")
	}

	if !booking.Status.CanTransition(models.BookingStatusCancelled) {
		return nil, newError(CodeInvalidState, "booking %d is %s and can no longer be cancelled", booking.ID, booking.Status)
	}
	if actor.Role == models.RoleCustomer {
		if actor.ID != booking.CustomerID {
			return nil, newError(CodeInvalidInput, "booking %d does not belong to this customer", booking.ID)
		}
		if booking.Status != models.BookingStatusPending {
			return nil, newError(CodeInvalidState, "booking %d is %s, customers may only cancel before confirmation", booking.ID, booking.Status)
		}
	}

	prev := booking.Status
	tableFreed := false
	err := e.store.Transaction(ctx, func(tx *gorm.DB) error {
		now := time.Now()

		if err := store.TxUpdateIfStatus(tx, &models.Booking{}, booking.ID,
			string(prev), map[string]interface{}{
				"status":     models.BookingStatusCancelled,
				"updated_at": now,
			}); err != nil {
			return err
		}

		if prev != models.BookingStatusConfirmed || booking.OrderID == nil {
			return nil
		}

		var order models.Order
		if err := tx.Preload("Items").First(&order, *booking.OrderID).Error; err != nil {
			return err
		}
		if order.Status != models.OrderStatusOpen {
			return nil
		}
		// Item tambahan di luar pre-order berarti tab masih hidup: meja
		// tetap occupied, order jalan terus tanpa booking.
		if len(order.Items) > len(booking.Items) {
			return nil
		}

		if err := tx.Delete(&order).Error; err != nil {
			return err
		}
		if err := store.TxUpdateIfStatus(tx, &models.Table{}, booking.TableID,
			string(models.TableStatusOccupied), map[string]interface{}{
				"status":     models.TableStatusEmpty,
				"updated_at": now,
			}); err != nil {
			return err
		}
		tableFreed = true
		return nil
	})
	if err != nil {
		if _, ok := err.(*Error); ok {
			return nil, err
		}
		return nil, storeErr(err, "booking")
	}

	booking.Status = models.BookingStatusCancelled

	e.pub.Publish(events.BookingCancelled{Booking: booking, Actor: actor, TableFreed: tableFreed})
	return &booking, nil
}

// OpenOrEnsureOrder -> idempotent: kembalikan order open yang ada untuk meja
// atau buka yang baru sambil set meja occupied. Dipakai saat staff menambah
// item langsung ke meja tanpa reservasi.
func (e *Engine) OpenOrEnsureOrder(ctx context.Context, tableID uint) (*models.Order, error) {
	var table models.Table
	if err := e.store.Get(ctx, &table, tableID); err != nil {
		return nil, storeErr(err, "table")
	}

	var existing models.Order
	err := e.store.First(ctx, &existing, "table_id = ? AND status = ?", tableID, models.OrderStatusOpen)
	if err == nil {
		return &existing, nil
	}
	if err != store.ErrNotFound {
		return nil, storeErr(err, "order")
	}

	order := models.Order{
		TableID: tableID,
		Status:  models.OrderStatusOpen,
	}
	err = e.store.Transaction(ctx, func(tx *gorm.DB) error {
		if err := store.TxUpdateIfStatus(tx, &models.Table{}, tableID,
			string(models.TableStatusEmpty), map[string]interface{}{
				"status":     models.TableStatusOccupied,
				"updated_at": time.Now(),
			}); err != nil {
			return err
		}
		return tx.Create(&order).Error
	})
	if err != nil {
		if err == store.ErrVersionConflict {
			// Racer lain keburu mengklaim meja; kalau dia membuka order,
			// idempotensi tetap berlaku: pakai order itu.
			if ferr := e.store.First(ctx, &existing, "table_id = ? AND status = ?", tableID, models.OrderStatusOpen); ferr == nil {
				return &existing, nil
			}
			return nil, newError(CodeConflict, "table %d was claimed concurrently", tableID)
		}
		return nil, storeErr(err, "order")
	}
	return &order, nil
}

// OrderItemRequest adalah satu baris yang ditambahkan ke order open.
type OrderItemRequest struct {
	MenuID   uint   `json:"menu_id"`
	Quantity int    `json:"quantity"`
	Notes    string `json:"notes"`
}

// AddOrderItems menambah line item ke order open dan menghitung ulang total.
// Tidak ada transisi status dan tidak ada notifikasi: operasi frekuensi
// tinggi, sinkronisasi item diserahkan ke polling client.
func (e *Engine) AddOrderItems(ctx context.Context, orderID uint, items []OrderItemRequest) (*models.Order, error) {
	if len(items) == 0 {
		return nil, newError(CodeInvalidInput, "items must not be empty")
	}
	for _, it := range items {
		if it.Quantity <= 0 {
			return nil, newError(CodeInvalidInput, "menu %d: quantity must be positive", it.MenuID)
		}
	}

	var order models.Order
	if err := e.store.GetWith(ctx, &order, orderID, "Items"); err != nil {
		return nil, storeErr(err, "order")
	}
	if order.Status != models.OrderStatusOpen {
		return nil, newError(CodeInvalidState, "order %d is %s, items can only be added while open", order.ID, order.Status)
	}

	err := e.store.Transaction(ctx, func(tx *gorm.DB) error {
		added := 0.0
		for _, it := range items {
			var menu models.Menu
			if err := tx.First(&menu, it.MenuID).Error; err != nil {
				if err == gorm.ErrRecordNotFound {
					return newError(CodeNotFound, "menu %d not found", it.MenuID)
				}
				return err
			}
			row := models.OrderItem{
				OrderID:  order.ID,
				MenuID:   menu.ID,
				Quantity: it.Quantity,
				Price:    menu.Price,
				Notes:    it.Notes,
			}
			if err := tx.Create(&row).Error; err != nil {
				return err
			}
			order.Items = append(order.Items, row)
			added += row.Subtotal()
		}

		// Total di-update conditional pada status open supaya penambahan
		// yang race dengan payOrder kalah bersih.
		return store.TxUpdateIfStatus(tx, &models.Order{}, order.ID,
			string(models.OrderStatusOpen), map[string]interface{}{
				"total":      gorm.Expr("total + ?", added),
				"updated_at": time.Now(),
			})
	})
	if err != nil {
		if _, ok := err.(*Error); ok {
			return nil, err
		}
		if err == store.ErrVersionConflict {
			return nil, newError(CodeConflict, "order %d was closed concurrently", order.ID)
		}
		return nil, storeErr(err, "order")
	}

	if err := e.store.GetWith(ctx, &order, order.ID, "Items"); err != nil {
		return nil, storeErr(err, "order")
	}
	return &order, nil
}

// PayOrder menutup tab meja: order paid, meja empty, booking terkait
// completed. Pembayaran kedua di meja yang sama gagal NotFound karena tidak
// ada lagi order open.
func (e *Engine) PayOrder(ctx context.Context, tableID uint) (*models.Order, error) {
	var order models.Order
	err := e.store.First(ctx, &order, "table_id = ? AND status = ?", tableID, models.OrderStatusOpen)
	if err != nil {
		if err == store.ErrNotFound {
			return nil, newError(CodeNotFound, "no open order for table %d", tableID)
		}
		return nil, storeErr(err, "order")
	}

	var booking *models.Booking
	err = e.store.Transaction(ctx, func(tx *gorm.DB) error {
		now := time.Now()

		if err := store.TxUpdateIfStatus(tx, &models.Order{}, order.ID,
			string(models.OrderStatusOpen), map[string]interface{}{
				"status":     models.OrderStatusPaid,
				"updated_at": now,
			}); err != nil {
			if err == store.ErrVersionConflict {
				// Pembayaran lain menang duluan: dari sisi caller tidak ada
				// lagi order open di meja ini.
				return newError(CodeNotFound, "no open order for table %d", tableID)
			}
			return err
		}

		if err := store.TxUpdateIfStatus(tx, &models.Table{}, tableID,
			string(models.TableStatusOccupied), map[string]interface{}{
				"status":     models.TableStatusEmpty,
				"updated_at": now,
			}); err != nil && err != store.ErrVersionConflict {
			return err
		}

		if order.BookingID != nil {
			var b models.Booking
			if err := tx.First(&b, *order.BookingID).Error; err != nil {
				return err
			}
			if b.Status == models.BookingStatusConfirmed {
				if err := store.TxUpdateIfStatus(tx, &models.Booking{}, b.ID,
					string(models.BookingStatusConfirmed), map[string]interface{}{
						"status":     models.BookingStatusCompleted,
						"updated_at": now,
					}); err != nil {
					return err
				}
				b.Status = models.BookingStatusCompleted
			}
			booking = &b
		}
		return nil
	})
	if err != nil {
		if _, ok := err.(*Error); ok {
			return nil, err
		}
		return nil, storeErr(err, "order")
	}

	order.Status = models.OrderStatusPaid

	e.pub.Publish(events.PaymentCompleted{Order: order, Booking: booking})
	return &order, nil
}
