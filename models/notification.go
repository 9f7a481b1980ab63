package models

import (
	"time"
)

type RecipientKind string

const (
	// RecipientPersonal -> notifikasi untuk satu identitas spesifik.
	RecipientPersonal RecipientKind = "personal"
	// RecipientBroadcast -> notifikasi untuk seluruh anggota satu role group.
	RecipientBroadcast RecipientKind = "broadcast"
)

// Notification adalah catatan durable satu event untuk satu penerima.
// Isinya immutable setelah dibuat; hanya flag IsRead yang boleh berubah.
type Notification struct {
	ID            uint          `gorm:"primaryKey" json:"id"`
	RecipientKind RecipientKind `gorm:"type:varchar(20);not null" json:"recipient_kind"`
	RecipientRole Role          `gorm:"type:varchar(20);not null;index:idx_notifications_recipient" json:"recipient_role"`
	// RecipientID nil untuk broadcast (semua anggota role group).
	RecipientID *uint    `gorm:"index:idx_notifications_recipient" json:"recipient_id,omitempty"`
	Type        string   `gorm:"type:varchar(50);not null" json:"type"`
	Title       string   `gorm:"type:varchar(100);not null" json:"title"`
	Message     string   `gorm:"type:text;not null" json:"message"`
	BookingID   *uint    `gorm:"index" json:"booking_id,omitempty"`
	Booking     *Booking `gorm:"foreignKey:BookingID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:SET NULL" json:"booking,omitempty"`
	IsRead      bool     `gorm:"not null;default:false" json:"is_read"`
	CreatedAt   time.Time `gorm:"not null;index" json:"created_at"`
}
