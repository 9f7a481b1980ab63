package controllers

import (
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/yeremiapane/restaurant-floor/hub"
	"github.com/yeremiapane/restaurant-floor/middlewares"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Sesuaikan dengan kebutuhan keamanan
	},
}

// wsConn mengadaptasi *websocket.Conn ke hub.Conn. Gorilla tidak mengizinkan
// writer concurrent, jadi semua write diserialisasi lewat mutex.
type wsConn struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (w *wsConn) WriteJSON(v interface{}) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.conn.WriteJSON(v)
}

func (w *wsConn) Close() error {
	return w.conn.Close()
}

type FloorWSController struct {
	Hub *hub.Hub
}

func NewFloorWSController(h *hub.Hub) *FloorWSController {
	return &FloorWSController{Hub: h}
}

// Handle -> endpoint WebSocket. Koneksi join room pribadi + room role-nya;
// disconnect melepas semua room, tidak ada langganan yang bertahan. Client
// menyusul event lewat ledger lalu join ulang.
func (fc *FloorWSController) Handle(c *gin.Context) {
	actor, ok := middlewares.ActorFrom(c)
	if !ok {
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}

	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}

	conn := &wsConn{conn: ws}
	fc.Hub.Join(conn, actor)
	defer fc.Hub.Leave(conn)

	// Baca sampai disconnect; inbound message tidak dipakai.
	for {
		if _, _, err := ws.ReadMessage(); err != nil {
			break
		}
	}
}
