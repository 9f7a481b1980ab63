package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/yeremiapane/restaurant-floor/hub"
	"github.com/yeremiapane/restaurant-floor/models"
	"github.com/yeremiapane/restaurant-floor/utils"
)

type TableController struct {
	DB  *gorm.DB
	Hub *hub.Hub
}

func NewTableController(db *gorm.DB, h *hub.Hub) *TableController {
	return &TableController{DB: db, Hub: h}
}

// CreateTable -> floor management menambahkan meja baru. Status awal selalu
// empty; status tidak pernah di-set langsung lewat request, hanya engine.
func (tc *TableController) CreateTable(c *gin.Context) {
	var req struct {
		Number   string `json:"number" binding:"required"`
		Capacity int    `json:"capacity"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	table := models.Table{
		Number:   req.Number,
		Status:   models.TableStatusEmpty,
		Capacity: 4,
	}
	if req.Capacity > 0 {
		table.Capacity = req.Capacity
	}

	if err := tc.DB.Create(&table).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	// Statistik lantai ikut dikirim ke staff supaya dashboard langsung segar.
	tc.Hub.Emit(models.RoleEmployee.SharedRoom(), hub.Message{
		Event: "table_create",
		Data: map[string]interface{}{
			"table": table,
			"stats": tc.getFloorStats(),
		},
	})

	utils.InfoLogger.Printf("New table created: %s (capacity=%d)", table.Number, table.Capacity)
	utils.RespondJSON(c, http.StatusCreated, "Table created successfully", table)
}

// GetAllTables -> menampilkan seluruh meja.
func (tc *TableController) GetAllTables(c *gin.Context) {
	var tables []models.Table
	if err := tc.DB.Find(&tables).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "List of tables", tables)
}

// GetTableByID -> detail satu meja.
func (tc *TableController) GetTableByID(c *gin.Context) {
	tableID := c.Param("table_id")
	var table models.Table
	if err := tc.DB.First(&table, tableID).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Table detail", table)
}

// FindTablesByStatus -> mis. list meja empty untuk walk-in.
func (tc *TableController) FindTablesByStatus(c *gin.Context) {
	status := c.Query("status")
	if status == "" {
		status = string(models.TableStatusEmpty)
	}
	var tables []models.Table
	if err := tc.DB.Where("status = ?", status).Find(&tables).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Tables with status: "+status, tables)
}

// DeleteTable -> soft delete; meja yang pernah dipakai order/booking historis
// tidak boleh hilang dari referensi.
func (tc *TableController) DeleteTable(c *gin.Context) {
	tableID := c.Param("table_id")
	var table models.Table

	if err := tc.DB.First(&table, tableID).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, err)
		return
	}
	if table.Status == models.TableStatusOccupied {
		utils.RespondError(c, http.StatusConflict, &CustomError{"table is occupied"})
		return
	}

	if err := tc.DB.Delete(&table).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	tc.Hub.Emit(models.RoleEmployee.SharedRoom(), hub.Message{
		Event: "table_delete",
		Data: map[string]interface{}{
			"table_id": table.ID,
			"stats":    tc.getFloorStats(),
		},
	})

	utils.InfoLogger.Printf("Table %d removed", table.ID)
	utils.RespondJSON(c, http.StatusOK, "Table removed", gin.H{"id": table.ID})
}

// getFloorStats menghitung statistik occupancy lantai.
func (tc *TableController) getFloorStats() map[string]interface{} {
	var emptyCount, occupiedCount int64

	tc.DB.Model(&models.Table{}).Where("status = ?", models.TableStatusEmpty).Count(&emptyCount)
	tc.DB.Model(&models.Table{}).Where("status = ?", models.TableStatusOccupied).Count(&occupiedCount)

	return map[string]interface{}{
		"empty":    emptyCount,
		"occupied": occupiedCount,
		"total":    emptyCount + occupiedCount,
	}
}
