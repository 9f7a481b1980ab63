package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/yeremiapane/restaurant-floor/models"
	"github.com/yeremiapane/restaurant-floor/utils"
)

// MenuController hanya melayani baca katalog: pengelolaan menu/ingredient
// ada di sistem lain, service ini cuma butuh nama dan harga untuk line item
// dan pre-order.
type MenuController struct {
	DB *gorm.DB
}

func NewMenuController(db *gorm.DB) *MenuController {
	return &MenuController{DB: db}
}

// GetAllMenus
func (mc *MenuController) GetAllMenus(c *gin.Context) {
	var menus []models.Menu
	if err := mc.DB.Preload("Category").Find(&menus).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "List of menus", menus)
}

// GetMenuByCategory -> ?category_id=N
func (mc *MenuController) GetMenuByCategory(c *gin.Context) {
	categoryID := c.Query("category_id")
	if categoryID == "" {
		utils.RespondError(c, http.StatusBadRequest, &CustomError{"category_id is required"})
		return
	}

	var menus []models.Menu
	if err := mc.DB.Where("category_id = ?", categoryID).Find(&menus).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Menus in category", menus)
}
