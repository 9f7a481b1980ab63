// Package events mendefinisikan union tertutup event domain yang dipancarkan
// state engine setiap transisi sukses. Tiap kind membawa payload bertipe
// tetap; handler melakukan switch exhaustive atas kind.
package events

import "github.com/yeremiapane/restaurant-floor/models"

type Kind string

const (
	KindBookingCreated   Kind = "booking_created"
	KindBookingConfirmed Kind = "booking_confirmed"
	KindBookingCancelled Kind = "booking_cancelled"
	KindPaymentCompleted Kind = "payment_completed"
)

// Event adalah interface tertutup: hanya tipe di package ini yang bisa jadi
// event domain.
type Event interface {
	EventKind() Kind
	sealed()
}

// BookingCreated -> booking baru masuk dengan status pending.
type BookingCreated struct {
	Booking models.Booking
}

// BookingConfirmed -> booking dikonfirmasi staff; meja occupied, order dibuka.
type BookingConfirmed struct {
	Booking  models.Booking
	Order    models.Order
	Approver models.Actor
}

// BookingCancelled -> booking dibatalkan customer atau staff.
type BookingCancelled struct {
	Booking    models.Booking
	Actor      models.Actor
	TableFreed bool
}

// PaymentCompleted -> order dibayar; meja bebas, booking terkait completed.
type PaymentCompleted struct {
	Order models.Order
	// Booking nil kalau order dibuka langsung tanpa reservasi.
	Booking *models.Booking
}

func (BookingCreated) EventKind() Kind   { return KindBookingCreated }
func (BookingConfirmed) EventKind() Kind { return KindBookingConfirmed }
func (BookingCancelled) EventKind() Kind { return KindBookingCancelled }
func (PaymentCompleted) EventKind() Kind { return KindPaymentCompleted }

func (BookingCreated) sealed()   {}
func (BookingConfirmed) sealed() {}
func (BookingCancelled) sealed() {}
func (PaymentCompleted) sealed() {}
