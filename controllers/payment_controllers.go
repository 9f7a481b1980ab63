package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/yeremiapane/restaurant-floor/engine"
	"github.com/yeremiapane/restaurant-floor/middlewares"
	"github.com/yeremiapane/restaurant-floor/utils"
)

type PaymentController struct {
	Engine *engine.Engine
}

func NewPaymentController(eng *engine.Engine) *PaymentController {
	return &PaymentController{Engine: eng}
}

// PayOrder -> staff menutup tab satu meja. Order jadi paid, meja bebas,
// booking terkait completed; fan-out PaymentCompleted diurus engine+hub.
// Integrasi gateway/QR ada di luar service ini; yang dicatat di sini hanya
// transisi state-nya.
func (pc *PaymentController) PayOrder(c *gin.Context) {
	actor, ok := middlewares.ActorFrom(c)
	if !ok || !actor.IsStaff() {
		utils.RespondError(c, http.StatusForbidden, ErrNoPermission)
		return
	}

	tableID, err := strconv.Atoi(c.Param("table_id"))
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	order, err := pc.Engine.PayOrder(c.Request.Context(), uint(tableID))
	if err != nil {
		respondEngineError(c, err)
		return
	}

	utils.InfoLogger.Printf("Order #%d paid (%.2f), table %d freed", order.ID, order.Total, order.TableID)
	utils.RespondJSON(c, http.StatusOK, "Payment completed", order)
}
