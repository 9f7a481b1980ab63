package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/yeremiapane/restaurant-floor/ledger"
	"github.com/yeremiapane/restaurant-floor/middlewares"
	"github.com/yeremiapane/restaurant-floor/utils"
)

type NotificationController struct {
	Ledger *ledger.Ledger
}

func NewNotificationController(led *ledger.Ledger) *NotificationController {
	return &NotificationController{Ledger: led}
}

// GetMyNotifications -> entry ledger untuk aktor ini: personal plus
// broadcast role group-nya, urut waktu, dengan pagination. Inilah jalur
// client reconnect/polling menyusul event yang terlewat.
func (nc *NotificationController) GetMyNotifications(c *gin.Context) {
	actor, ok := middlewares.ActorFrom(c)
	if !ok {
		utils.RespondError(c, http.StatusUnauthorized, ErrNoPermission)
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "50"))

	notifs, err := nc.Ledger.ListFor(c.Request.Context(), actor.Role, actor.ID, page, pageSize)
	if err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "My notifications", notifs)
}

// MarkRead -> flip flag read satu entry. Hanya entry yang dialamatkan ke
// aktor ini yang bisa diubah; milik orang lain berakhir 404.
func (nc *NotificationController) MarkRead(c *gin.Context) {
	actor, ok := middlewares.ActorFrom(c)
	if !ok {
		utils.RespondError(c, http.StatusUnauthorized, ErrNoPermission)
		return
	}

	id, err := strconv.Atoi(c.Param("notif_id"))
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	if err := nc.Ledger.MarkRead(c.Request.Context(), uint(id), actor.Role, actor.ID); err != nil {
		if err == ledger.ErrNotFound {
			utils.RespondError(c, http.StatusNotFound, err)
			return
		}
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Notification marked read", gin.H{"notif_id": id})
}

// GetUnreadCount -> badge jumlah notifikasi belum dibaca.
func (nc *NotificationController) GetUnreadCount(c *gin.Context) {
	actor, ok := middlewares.ActorFrom(c)
	if !ok {
		utils.RespondError(c, http.StatusUnauthorized, ErrNoPermission)
		return
	}

	count, err := nc.Ledger.UnreadCount(c.Request.Context(), actor.Role, actor.ID)
	if err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Unread count", gin.H{"unread": count})
}
