package models

import (
	"time"

	"gorm.io/gorm"
)

type TableStatus string

const (
	TableStatusEmpty    TableStatus = "empty"
	TableStatusOccupied TableStatus = "occupied"
)

// Table merepresentasikan satu meja fisik di lantai restoran.
// Status hanya diubah oleh state engine sebagai respon transisi
// booking/order/payment, tidak pernah langsung oleh client.
// Meja tidak dihapus permanen selama masih direferensikan order/booking
// historis, maka pakai soft delete.
type Table struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	Number    string         `gorm:"type:varchar(50);not null" json:"number"`
	Capacity  int            `gorm:"not null;default:4" json:"capacity"`
	Status    TableStatus    `gorm:"type:varchar(20);not null;default:'empty'" json:"status"`
	CreatedAt time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}
