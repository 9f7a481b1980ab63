package models

import "time"

type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "pending"
	BookingStatusConfirmed BookingStatus = "confirmed"
	BookingStatusCancelled BookingStatus = "cancelled"
	BookingStatusCompleted BookingStatus = "completed"
)

// Transisi yang sah per status. completed dan cancelled terminal.
var bookingNext = map[BookingStatus]map[BookingStatus]bool{
	BookingStatusPending:   {BookingStatusConfirmed: true, BookingStatusCancelled: true},
	BookingStatusConfirmed: {BookingStatusCompleted: true, BookingStatusCancelled: true},
	BookingStatusCancelled: {},
	BookingStatusCompleted: {},
}

func (s BookingStatus) CanTransition(to BookingStatus) bool {
	return bookingNext[s][to]
}

// Active -> booking masih memegang klaim atas meja/timeslot.
func (s BookingStatus) Active() bool {
	return s == BookingStatusPending || s == BookingStatusConfirmed
}

// Booking adalah reservasi satu meja pada satu timeslot, dimiliki customer
// yang membuatnya (atau dibuat staff atas nama customer). GuestCount bebas
// ke atas, tidak ada batas maksimum.
type Booking struct {
	ID           uint          `gorm:"primaryKey" json:"id"`
	Code         string        `gorm:"type:varchar(64);uniqueIndex;not null" json:"code"`
	TableID      uint          `gorm:"not null;index" json:"table_id"`
	Table        Table         `gorm:"foreignKey:TableID" json:"table,omitempty"`
	CustomerRole Role          `gorm:"type:varchar(20);not null" json:"customer_role"`
	CustomerID   uint          `gorm:"not null;index" json:"customer_id"`
	ReservedAt   time.Time     `gorm:"not null;index" json:"reserved_at"`
	GuestCount   int           `gorm:"not null" json:"guest_count"`
	Deposit      float64       `gorm:"type:decimal(10,2);not null;default:0.00" json:"deposit"`
	Status       BookingStatus `gorm:"type:varchar(20);not null;default:'pending'" json:"status"`
	OrderID      *uint         `gorm:"index" json:"order_id,omitempty"`
	Items        []BookingItem `gorm:"foreignKey:BookingID" json:"items"`
	CreatedAt    time.Time     `gorm:"not null" json:"created_at"`
	UpdatedAt    time.Time     `gorm:"not null" json:"updated_at"`
}

// Requester -> identitas pemilik booking untuk pengalamatan notifikasi.
func (b *Booking) Requester() Actor {
	return Actor{Role: b.CustomerRole, ID: b.CustomerID}
}

// BookingItem adalah satu baris pre-order menu yang menempel pada booking.
// Harga diambil dari katalog saat booking dibuat.
type BookingItem struct {
	ID        uint    `gorm:"primaryKey" json:"id"`
	BookingID uint    `gorm:"not null;index" json:"booking_id"`
	MenuID    uint    `gorm:"not null" json:"menu_id"`
	Menu      Menu    `gorm:"foreignKey:MenuID" json:"menu,omitempty"`
	Quantity  int     `gorm:"not null" json:"quantity"`
	Price     float64 `gorm:"type:decimal(10,2);not null" json:"price"`
}
