package models

import (
	"time"

	"gorm.io/gorm"
)

type OrderStatus string

const (
	OrderStatusOpen OrderStatus = "open"
	OrderStatusPaid OrderStatus = "paid"
)

// Order tidak pernah dibuka ulang: open -> paid, selesai. Meja yang bebas
// lagi dapat order baru.
var orderNext = map[OrderStatus]map[OrderStatus]bool{
	OrderStatusOpen: {OrderStatusPaid: true},
	OrderStatusPaid: {},
}

func (s OrderStatus) CanTransition(to OrderStatus) bool {
	return orderNext[s][to]
}

// Order adalah tab berjalan untuk satu meja: urutan line item plus total
// turunan. Maksimal satu order open per meja pada satu waktu, dijaga oleh
// state engine (bukan hanya constraint storage).
type Order struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	TableID   uint           `gorm:"not null;index" json:"table_id"`
	Table     Table          `gorm:"foreignKey:TableID" json:"table,omitempty"`
	BookingID *uint          `gorm:"index" json:"booking_id,omitempty"`
	Status    OrderStatus    `gorm:"type:varchar(20);not null;default:'open'" json:"status"`
	Total     float64        `gorm:"type:decimal(10,2);not null;default:0.00" json:"total"`
	Items     []OrderItem    `gorm:"foreignKey:OrderID" json:"items"`
	CreatedAt time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}
