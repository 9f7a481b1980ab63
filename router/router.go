package router

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/yeremiapane/restaurant-floor/controllers"
	"github.com/yeremiapane/restaurant-floor/engine"
	"github.com/yeremiapane/restaurant-floor/hub"
	"github.com/yeremiapane/restaurant-floor/ledger"
	"github.com/yeremiapane/restaurant-floor/middlewares"
	"github.com/yeremiapane/restaurant-floor/store"
)

// Deps memegang komponen inti yang dirakit main (atau test) sebelum router
// dibangun di atasnya.
type Deps struct {
	DB     *gorm.DB
	Store  *store.Store
	Ledger *ledger.Ledger
	Hub    *hub.Hub
	Engine *engine.Engine
	// CORSOrigin -> origin frontend yang diizinkan; kosong berarti "*".
	CORSOrigin string
}

// Build merakit komponen inti dari satu koneksi database.
func Build(db *gorm.DB) Deps {
	st := store.New(db)
	led := ledger.New(db)
	h := hub.New(led)
	eng := engine.New(st, h)
	return Deps{DB: db, Store: st, Ledger: led, Hub: h, Engine: eng}
}

func SetupRouter(deps Deps) *gin.Engine {
	r := gin.Default()

	r.Use(middlewares.SecurityHeaders())
	r.Use(middlewares.CORSMiddlewares(deps.CORSOrigin))
	r.Use(middlewares.LoggerMiddleware())

	// Inisialisasi controller
	userCtrl := controllers.NewUserController(deps.DB)
	tableCtrl := controllers.NewTableController(deps.DB, deps.Hub)
	menuCtrl := controllers.NewMenuController(deps.DB)
	bookingCtrl := controllers.NewBookingController(deps.DB, deps.Engine)
	orderCtrl := controllers.NewOrderController(deps.DB, deps.Engine)
	paymentCtrl := controllers.NewPaymentController(deps.Engine)
	notifCtrl := controllers.NewNotificationController(deps.Ledger)
	wsCtrl := controllers.NewFloorWSController(deps.Hub)

	// ----------------------------------------------------------------
	//                      PUBLIC ROUTES
	// ----------------------------------------------------------------
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{"message": "pong"})
	})

	// Rate limiter untuk login/register
	public := r.Group("/")
	public.Use(middlewares.NewStrictRateLimiter())
	{
		public.POST("/register", userCtrl.Register)
		public.POST("/login", userCtrl.Login)
	}

	// Katalog dan denah meja bisa dilihat tanpa login
	r.GET("/menus", menuCtrl.GetAllMenus)
	r.GET("/menus/by-category", menuCtrl.GetMenuByCategory)
	r.GET("/tables", tableCtrl.GetAllTables)
	r.GET("/tables/by-status", tableCtrl.FindTablesByStatus)

	// ----------------------------------------------------------------
	//                      AUTHENTICATED ROUTES
	// ----------------------------------------------------------------
	auth := r.Group("/")
	auth.Use(middlewares.AuthMiddleware())

	auth.GET("/profile", userCtrl.GetProfile)

	// BOOKINGS -- customer mengajukan dan membatalkan miliknya, staff
	// mengonfirmasi/membatalkan yang mana pun. Invariant di engine.
	auth.POST("/bookings", bookingCtrl.CreateBooking)
	auth.GET("/bookings/mine", bookingCtrl.GetMyBookings)
	auth.GET("/bookings/:booking_id", bookingCtrl.GetBookingByID)
	auth.POST("/bookings/:booking_id/cancel", bookingCtrl.CancelBooking)

	// NOTIFICATIONS -- ledger durable untuk client reconnect/polling
	auth.GET("/notifications", notifCtrl.GetMyNotifications)
	auth.GET("/notifications/unread-count", notifCtrl.GetUnreadCount)
	auth.PATCH("/notifications/:notif_id/read", notifCtrl.MarkRead)

	// Staff/admin
	staff := auth.Group("/")
	staff.Use(middlewares.RequireStaff())
	{
		staff.GET("/bookings", bookingCtrl.GetAllBookings)
		staff.POST("/bookings/:booking_id/confirm", bookingCtrl.ConfirmBooking)

		staff.GET("/orders", orderCtrl.GetAllOrders)
		staff.GET("/orders/:order_id", orderCtrl.GetOrderByID)
		staff.POST("/orders/:order_id/items", orderCtrl.AddOrderItems)
		staff.POST("/tables/:table_id/order", orderCtrl.OpenOrder)
		staff.GET("/tables/:table_id/order", orderCtrl.GetOpenOrderForTable)
		staff.POST("/tables/:table_id/pay", paymentCtrl.PayOrder)

		staff.GET("/tables/:table_id", tableCtrl.GetTableByID)
	}

	// Admin: manajemen denah meja. Perhatikan tidak ada endpoint untuk
	// set status meja -- occupancy hanya digerakkan engine.
	admin := auth.Group("/admin")
	admin.Use(middlewares.RequireAdmin())
	{
		admin.POST("/tables", tableCtrl.CreateTable)
		admin.DELETE("/tables/:table_id", tableCtrl.DeleteTable)
	}

	// WebSocket endpoint dengan auth token di query
	wsGroup := r.Group("/ws")
	wsGroup.Use(middlewares.WebSocketAuthMiddleware())
	{
		wsGroup.GET("", wsCtrl.Handle)
	}

	return r
}
