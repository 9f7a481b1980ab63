package services

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/yeremiapane/restaurant-floor/engine"
	"github.com/yeremiapane/restaurant-floor/models"
	"github.com/yeremiapane/restaurant-floor/utils"
)

// BookingSweeper membatalkan booking pending yang timeslot-nya lewat tanpa
// konfirmasi. Pembatalan lewat engine, bukan update langsung, supaya
// notifikasi dan pembebasan meja ikut jalur transisi normal.
type BookingSweeper struct {
	DB       *gorm.DB
	Engine   *engine.Engine
	Interval time.Duration
	// Grace -> toleransi setelah timeslot sebelum booking dianggap hangus.
	Grace    time.Duration
	StopChan chan struct{}
}

func NewBookingSweeper(db *gorm.DB, eng *engine.Engine) *BookingSweeper {
	return &BookingSweeper{
		DB:       db,
		Engine:   eng,
		Interval: 1 * time.Minute,
		Grace:    15 * time.Minute,
		StopChan: make(chan struct{}),
	}
}

func (bs *BookingSweeper) Start() {
	go func() {
		ticker := time.NewTicker(bs.Interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				bs.Sweep()
			case <-bs.StopChan:
				return
			}
		}
	}()
}

func (bs *BookingSweeper) Stop() {
	close(bs.StopChan)
}

// Sweep -> satu lintasan pembatalan; dipanggil ticker di Start.
func (bs *BookingSweeper) Sweep() {
	cutoff := time.Now().Add(-bs.Grace)

	var stale []models.Booking
	if err := bs.DB.
		Where("status = ? AND reserved_at < ?", models.BookingStatusPending, cutoff).
		Limit(100).
		Find(&stale).Error; err != nil {
		utils.ErrorLogger.Printf("sweeper: fetching stale bookings: %v", err)
		return
	}

	system := models.Actor{Role: models.RoleEmployee}
	for _, b := range stale {
		if _, err := bs.Engine.CancelBooking(context.Background(), b.ID, system); err != nil {
			// Conflict/InvalidState berarti orang lain keburu memproses
			// booking ini; biarkan.
			if !engine.IsConflict(err) && !engine.IsInvalidState(err) {
				utils.ErrorLogger.Printf("sweeper: cancelling booking %d: %v", b.ID, err)
			}
			continue
		}
		utils.InfoLogger.Printf("sweeper: booking %s expired unconfirmed, cancelled", b.Code)
	}
}
