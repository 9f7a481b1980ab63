// Package ledger menyimpan catatan durable tiap notifikasi, terlepas dari
// push websocket live. Client yang reconnect atau polling membaca ledger
// untuk merekonstruksi event yang terlewat; tidak ada logika transisi di
// sini, murni append dan flip flag read.
package ledger

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/yeremiapane/restaurant-floor/models"
)

var ErrNotFound = errors.New("notification not found")

const defaultPageSize = 50

type Ledger struct {
	DB *gorm.DB
}

func New(db *gorm.DB) *Ledger {
	return &Ledger{DB: db}
}

// Append -> tulis satu entry. Isi notifikasi immutable setelah ini.
func (l *Ledger) Append(ctx context.Context, n *models.Notification) error {
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now()
	}
	return l.DB.WithContext(ctx).Create(n).Error
}

// MarkRead -> flip flag read; satu-satunya mutasi yang sah pada entry.
// Hanya penerima yang boleh: entry personal milik identitas ini atau
// broadcast untuk role group-nya. Untuk broadcast, flag berlaku untuk satu
// role group utuh, bukan per anggota. Entry milik orang lain tidak
// dibedakan dari yang tidak ada.
func (l *Ledger) MarkRead(ctx context.Context, id uint, role models.Role, identity uint) error {
	res := l.DB.WithContext(ctx).Model(&models.Notification{}).
		Where("id = ? AND ((recipient_kind = ? AND recipient_role = ? AND recipient_id = ?) OR (recipient_kind = ? AND recipient_role = ?))",
			id,
			models.RecipientPersonal, role, identity,
			models.RecipientBroadcast, role).
		Update("is_read", true)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// ListFor -> entry personal milik identitas ini plus broadcast untuk role
// group-nya, urut naik berdasarkan waktu pembuatan. page mulai dari 1.
func (l *Ledger) ListFor(ctx context.Context, role models.Role, identity uint, page, pageSize int) ([]models.Notification, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = defaultPageSize
	}

	var notifs []models.Notification
	err := l.DB.WithContext(ctx).
		Where("(recipient_kind = ? AND recipient_role = ? AND recipient_id = ?) OR (recipient_kind = ? AND recipient_role = ?)",
			models.RecipientPersonal, role, identity,
			models.RecipientBroadcast, role).
		Order("created_at ASC, id ASC").
		Limit(pageSize).
		Offset((page - 1) * pageSize).
		Find(&notifs).Error
	return notifs, err
}

// UnreadCount -> jumlah entry yang belum dibaca untuk badge client.
func (l *Ledger) UnreadCount(ctx context.Context, role models.Role, identity uint) (int64, error) {
	var count int64
	err := l.DB.WithContext(ctx).Model(&models.Notification{}).
		Where("((recipient_kind = ? AND recipient_role = ? AND recipient_id = ?) OR (recipient_kind = ? AND recipient_role = ?)) AND is_read = ?",
			models.RecipientPersonal, role, identity,
			models.RecipientBroadcast, role,
			false).
		Count(&count).Error
	return count, err
}
