package store

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
)

var (
	// ErrVersionConflict -> conditional write kalah race: status entity di
	// storage sudah bukan status yang diharapkan pemanggil.
	ErrVersionConflict = errors.New("version conflict: entity status changed")
	// ErrNotFound -> record tidak ada.
	ErrNotFound = errors.New("record not found")
)

const defaultTimeout = 5 * time.Second

// Store membungkus akses ke record store dengan budget timeout per call dan
// conditional write (optimistic concurrency) berbasis status entity.
// Semua transisi multi-entity jalan dalam satu transaksi database sehingga
// either fully applied atau tidak sama sekali.
type Store struct {
	DB      *gorm.DB
	Timeout time.Duration
}

func New(db *gorm.DB) *Store {
	return &Store{DB: db, Timeout: defaultTimeout}
}

// withBudget -> pastikan setiap call storage punya deadline.
func (s *Store) withBudget(ctx context.Context) (context.Context, context.CancelFunc) {
	timeout := s.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return context.WithTimeout(ctx, timeout)
}

// Get -> baca satu record berdasarkan primary key.
func (s *Store) Get(ctx context.Context, dest interface{}, id uint) error {
	ctx, cancel := s.withBudget(ctx)
	defer cancel()

	err := s.DB.WithContext(ctx).First(dest, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

// GetWith -> seperti Get dengan preload asosiasi.
func (s *Store) GetWith(ctx context.Context, dest interface{}, id uint, preloads ...string) error {
	ctx, cancel := s.withBudget(ctx)
	defer cancel()

	q := s.DB.WithContext(ctx)
	for _, p := range preloads {
		q = q.Preload(p)
	}
	err := q.First(dest, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

// Find -> query by filter, hasil ke dest (slice atau struct).
func (s *Store) Find(ctx context.Context, dest interface{}, query string, args ...interface{}) error {
	ctx, cancel := s.withBudget(ctx)
	defer cancel()

	return s.DB.WithContext(ctx).Where(query, args...).Find(dest).Error
}

// First -> satu record by filter; ErrNotFound kalau tidak ada.
func (s *Store) First(ctx context.Context, dest interface{}, query string, args ...interface{}) error {
	ctx, cancel := s.withBudget(ctx)
	defer cancel()

	err := s.DB.WithContext(ctx).Where(query, args...).First(dest).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

// Create -> insert satu record.
func (s *Store) Create(ctx context.Context, value interface{}) error {
	ctx, cancel := s.withBudget(ctx)
	defer cancel()

	return s.DB.WithContext(ctx).Create(value).Error
}

// Transaction menjalankan fn atomik. Di dalam fn pakai helper Tx* di bawah
// supaya conditional write tetap berlaku di dalam transaksi.
func (s *Store) Transaction(ctx context.Context, fn func(tx *gorm.DB) error) error {
	ctx, cancel := s.withBudget(ctx)
	defer cancel()

	return s.DB.WithContext(ctx).Transaction(fn)
}

// UpdateIfStatus -> compare-and-set pada kolom status: UPDATE ... WHERE
// id = ? AND status = ?. Nol row berarti transisi lain menang duluan
// (atau record hilang) -> ErrVersionConflict / ErrNotFound.
func (s *Store) UpdateIfStatus(ctx context.Context, model interface{}, id uint, expected string, updates map[string]interface{}) error {
	ctx, cancel := s.withBudget(ctx)
	defer cancel()

	return TxUpdateIfStatus(s.DB.WithContext(ctx), model, id, expected, updates)
}

// TxUpdateIfStatus -> varian UpdateIfStatus untuk dipakai di dalam
// Transaction; tx sudah membawa context dan budget dari pembungkusnya.
func TxUpdateIfStatus(tx *gorm.DB, model interface{}, id uint, expected string, updates map[string]interface{}) error {
	res := tx.Model(model).
		Where("id = ? AND status = ?", id, expected).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		var count int64
		if err := tx.Model(model).Where("id = ?", id).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return ErrNotFound
		}
		return ErrVersionConflict
	}
	return nil
}

// Unavailable -> true kalau err adalah kegagalan budget timeout storage,
// aman untuk di-retry caller karena tidak ada partial write.
func Unavailable(err error) bool {
	return errors.Is(err, context.DeadlineExceeded)
}
