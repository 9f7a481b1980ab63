package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/yeremiapane/restaurant-floor/engine"
	"github.com/yeremiapane/restaurant-floor/models"
	"github.com/yeremiapane/restaurant-floor/utils"
)

type OrderController struct {
	DB     *gorm.DB
	Engine *engine.Engine
}

func NewOrderController(db *gorm.DB, eng *engine.Engine) *OrderController {
	return &OrderController{DB: db, Engine: eng}
}

// GetAllOrders -> list orders beserta items.
func (oc *OrderController) GetAllOrders(c *gin.Context) {
	q := oc.DB.Preload("Items")
	if status := c.Query("status"); status != "" {
		q = q.Where("status = ?", status)
	}

	var orders []models.Order
	if err := q.Find(&orders).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "List of orders", orders)
}

// OpenOrder -> staff membuka (atau mengambil) tab untuk satu meja.
// Idempotent: panggilan kedua mengembalikan order open yang sama.
func (oc *OrderController) OpenOrder(c *gin.Context) {
	tableID, err := strconv.Atoi(c.Param("table_id"))
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	order, err := oc.Engine.OpenOrEnsureOrder(c.Request.Context(), uint(tableID))
	if err != nil {
		respondEngineError(c, err)
		return
	}

	utils.InfoLogger.Printf("Order #%d open for table %d", order.ID, order.TableID)
	utils.RespondJSON(c, http.StatusOK, "Order open", order)
}

// AddOrderItems -> tambah line item ke order open. Tidak ada broadcast:
// operasi frekuensi tinggi, client sinkron lewat GET.
func (oc *OrderController) AddOrderItems(c *gin.Context) {
	orderID, err := strconv.Atoi(c.Param("order_id"))
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	var req struct {
		Items []engine.OrderItemRequest `json:"items" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	order, err := oc.Engine.AddOrderItems(c.Request.Context(), uint(orderID), req.Items)
	if err != nil {
		respondEngineError(c, err)
		return
	}

	utils.RespondJSON(c, http.StatusOK, "Items added", order)
}

// GetOrderByID -> detail 1 order dengan items.
func (oc *OrderController) GetOrderByID(c *gin.Context) {
	id := c.Param("order_id")

	var order models.Order
	if err := oc.DB.Preload("Items").Preload("Items.Menu").First(&order, id).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Order detail", order)
}

// GetOpenOrderForTable -> tab yang sedang jalan di satu meja, kalau ada.
func (oc *OrderController) GetOpenOrderForTable(c *gin.Context) {
	tableID := c.Param("table_id")

	var order models.Order
	if err := oc.DB.Preload("Items").
		Where("table_id = ? AND status = ?", tableID, models.OrderStatusOpen).
		First(&order).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Open order", order)
}
