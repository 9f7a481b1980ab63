package controllers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/yeremiapane/restaurant-floor/engine"
	"github.com/yeremiapane/restaurant-floor/middlewares"
	"github.com/yeremiapane/restaurant-floor/models"
	"github.com/yeremiapane/restaurant-floor/utils"
)

type BookingController struct {
	DB     *gorm.DB
	Engine *engine.Engine
}

func NewBookingController(db *gorm.DB, eng *engine.Engine) *BookingController {
	return &BookingController{DB: db, Engine: eng}
}

// CreateBooking -> customer (atau staff atas nama customer) mengajukan
// reservasi. Validasi bentuk request di sini; invariant meja/timeslot
// sepenuhnya urusan engine.
func (bc *BookingController) CreateBooking(c *gin.Context) {
	actor, ok := middlewares.ActorFrom(c)
	if !ok {
		utils.RespondError(c, http.StatusUnauthorized, ErrNoPermission)
		return
	}

	var req struct {
		TableID    uint                   `json:"table_id" binding:"required"`
		ReservedAt string                 `json:"reserved_at" binding:"required"`
		GuestCount int                    `json:"guest_count" binding:"required"`
		Selections []engine.MenuSelection `json:"selections" binding:"required"`
		// Staff boleh membuat booking atas nama customer tertentu.
		CustomerID *uint `json:"customer_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	reservedAt, err := time.Parse(time.RFC3339, req.ReservedAt)
	if err != nil {
		// Terima juga format tanpa offset, mis. "2024-01-15T19:00".
		reservedAt, err = time.ParseInLocation("2006-01-02T15:04", req.ReservedAt, time.Local)
		if err != nil {
			utils.RespondError(c, http.StatusBadRequest, err)
			return
		}
	}

	requester := actor
	if actor.IsStaff() && req.CustomerID != nil {
		requester = models.Actor{Role: models.RoleCustomer, ID: *req.CustomerID}
	}

	booking, err := bc.Engine.CreateBooking(c.Request.Context(), engine.CreateBookingRequest{
		TableID:    req.TableID,
		ReservedAt: reservedAt,
		GuestCount: req.GuestCount,
		Selections: req.Selections,
		Requester:  requester,
	})
	if err != nil {
		respondEngineError(c, err)
		return
	}

	utils.InfoLogger.Printf("Booking %s created for table %d (%d guests)", booking.Code, booking.TableID, booking.GuestCount)
	utils.RespondJSON(c, http.StatusCreated, "Booking created", booking)
}

// ConfirmBooking -> staff/admin menyetujui booking pending.
func (bc *BookingController) ConfirmBooking(c *gin.Context) {
	actor, ok := middlewares.ActorFrom(c)
	if !ok || !actor.IsStaff() {
		utils.RespondError(c, http.StatusForbidden, ErrNoPermission)
		return
	}

	id, err := strconv.Atoi(c.Param("booking_id"))
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	booking, err := bc.Engine.ConfirmBooking(c.Request.Context(), uint(id), actor)
	if err != nil {
		respondEngineError(c, err)
		return
	}

	utils.InfoLogger.Printf("Booking %s confirmed by %s %d", booking.Code, actor.Role, actor.ID)
	utils.RespondJSON(c, http.StatusOK, "Booking confirmed", booking)
}

// CancelBooking -> customer membatalkan miliknya (sebelum konfirmasi) atau
// staff membatalkan kapan pun sebelum completed.
func (bc *BookingController) CancelBooking(c *gin.Context) {
	actor, ok := middlewares.ActorFrom(c)
	if !ok {
		utils.RespondError(c, http.StatusUnauthorized, ErrNoPermission)
		return
	}

	id, err := strconv.Atoi(c.Param("booking_id"))
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	booking, err := bc.Engine.CancelBooking(c.Request.Context(), uint(id), actor)
	if err != nil {
		respondEngineError(c, err)
		return
	}

	utils.InfoLogger.Printf("Booking %s cancelled by %s %d", booking.Code, actor.Role, actor.ID)
	utils.RespondJSON(c, http.StatusOK, "Booking cancelled", booking)
}

// GetAllBookings -> staff melihat daftar booking, bisa difilter status.
func (bc *BookingController) GetAllBookings(c *gin.Context) {
	q := bc.DB.Preload("Items").Preload("Table")
	if status := c.Query("status"); status != "" {
		q = q.Where("status = ?", status)
	}

	var bookings []models.Booking
	if err := q.Order("reserved_at ASC").Find(&bookings).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "List of bookings", bookings)
}

// GetMyBookings -> customer melihat booking miliknya sendiri.
func (bc *BookingController) GetMyBookings(c *gin.Context) {
	actor, ok := middlewares.ActorFrom(c)
	if !ok {
		utils.RespondError(c, http.StatusUnauthorized, ErrNoPermission)
		return
	}

	var bookings []models.Booking
	if err := bc.DB.Preload("Items").Preload("Table").
		Where("customer_role = ? AND customer_id = ?", actor.Role, actor.ID).
		Order("reserved_at ASC").
		Find(&bookings).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "My bookings", bookings)
}

// GetBookingByID
func (bc *BookingController) GetBookingByID(c *gin.Context) {
	id := c.Param("booking_id")

	var booking models.Booking
	if err := bc.DB.Preload("Items").Preload("Table").First(&booking, id).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Booking detail", booking)
}
