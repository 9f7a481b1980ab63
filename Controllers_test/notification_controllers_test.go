package Controllers_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/yeremiapane/restaurant-floor/controllers"
	"github.com/yeremiapane/restaurant-floor/ledger"
	"github.com/yeremiapane/restaurant-floor/models"
	"github.com/yeremiapane/restaurant-floor/utils"
)

func setupTestDBForNotifications() *gorm.DB {
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	if err != nil {
		panic("failed to connect database")
	}
	if err := db.AutoMigrate(&models.Notification{}); err != nil {
		panic(err)
	}
	return db
}

func setupNotificationRouter(db *gorm.DB, actor models.Actor) *gin.Engine {
	gin.SetMode(gin.TestMode)
	notifCtrl := controllers.NewNotificationController(ledger.New(db))

	router := gin.Default()
	router.Use(asActor(actor))
	router.GET("/notifications", notifCtrl.GetMyNotifications)
	router.GET("/notifications/unread-count", notifCtrl.GetUnreadCount)
	router.PATCH("/notifications/:notif_id/read", notifCtrl.MarkRead)
	return router
}

func seedNotification(db *gorm.DB, kind models.RecipientKind, role models.Role, id *uint, title string, at time.Time) models.Notification {
	n := models.Notification{
		RecipientKind: kind,
		RecipientRole: role,
		RecipientID:   id,
		Type:          "booking_created",
		Title:         title,
		Message:       title,
		CreatedAt:     at,
	}
	db.Create(&n)
	return n
}

func TestGetMyNotifications(t *testing.T) {
	utils.InitLogger()
	db := setupTestDBForNotifications()
	base := time.Date(2024, 1, 15, 19, 0, 0, 0, time.UTC)

	uid := uint(7)
	other := uint(8)
	seedNotification(db, models.RecipientPersonal, models.RoleCustomer, &uid, "mine", base)
	seedNotification(db, models.RecipientBroadcast, models.RoleCustomer, nil, "shared", base.Add(time.Minute))
	seedNotification(db, models.RecipientPersonal, models.RoleCustomer, &other, "not mine", base)
	seedNotification(db, models.RecipientBroadcast, models.RoleEmployee, nil, "staff", base)

	router := setupNotificationRouter(db, models.Actor{Role: models.RoleCustomer, ID: 7})
	req, err := http.NewRequest("GET", "/notifications", nil)
	assert.NoError(t, err)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var response map[string]interface{}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	data := response["data"].([]interface{})
	assert.Len(t, data, 2)
	// Urutan kronologis naik
	first := data[0].(map[string]interface{})
	assert.Equal(t, "mine", first["title"])
}

func TestMarkReadAndUnreadCount(t *testing.T) {
	utils.InitLogger()
	db := setupTestDBForNotifications()

	uid := uint(7)
	seedNotification(db, models.RecipientPersonal, models.RoleCustomer, &uid, "mine", time.Now())

	router := setupNotificationRouter(db, models.Actor{Role: models.RoleCustomer, ID: 7})

	req, _ := http.NewRequest("GET", "/notifications/unread-count", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	var response map[string]interface{}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.EqualValues(t, 1, response["data"].(map[string]interface{})["unread"])

	req, _ = http.NewRequest("PATCH", "/notifications/1/read", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	req, _ = http.NewRequest("GET", "/notifications/unread-count", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.EqualValues(t, 0, response["data"].(map[string]interface{})["unread"])
}

func TestMarkReadSomeoneElsesEntry(t *testing.T) {
	utils.InitLogger()
	db := setupTestDBForNotifications()

	uid := uint(7)
	entry := seedNotification(db, models.RecipientPersonal, models.RoleCustomer, &uid, "mine", time.Now())

	// Aktor lain mencoba flip entry customer 7: diperlakukan seperti tidak ada
	router := setupNotificationRouter(db, models.Actor{Role: models.RoleCustomer, ID: 8})
	req, _ := http.NewRequest("PATCH", "/notifications/1/read", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)

	var after models.Notification
	assert.NoError(t, db.First(&after, entry.ID).Error)
	assert.False(t, after.IsRead)
}

func TestMarkReadUnknownID(t *testing.T) {
	utils.InitLogger()
	db := setupTestDBForNotifications()
	router := setupNotificationRouter(db, models.Actor{Role: models.RoleCustomer, ID: 7})

	req, _ := http.NewRequest("PATCH", "/notifications/999/read", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
