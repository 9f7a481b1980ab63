// Package hub mendistribusikan event state engine ke semua aktor yang
// terhubung lewat multicast ber-room. Registry koneksi injectable, bukan
// state global, supaya tiap test bisa membangun hub terisolasi.
package hub

import (
	"context"
	"fmt"
	"sync"

	"github.com/yeremiapane/restaurant-floor/events"
	"github.com/yeremiapane/restaurant-floor/ledger"
	"github.com/yeremiapane/restaurant-floor/models"
	"github.com/yeremiapane/restaurant-floor/utils"
)

// Conn adalah kontrak minimum sebuah koneksi live. Adapter gorilla/websocket
// ada di layer controller; test pakai fake.
type Conn interface {
	WriteJSON(v interface{}) error
	Close() error
}

// Message adalah amplop payload yang dikirim ke client websocket.
type Message struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data"`
}

// Hub memegang registry koneksi -> rooms. Mutasi registry (join/leave)
// diserialisasi lewat write lock; broadcast mengambil snapshot penerima di
// bawah read lock lalu mengirim di luar lock, jadi join/leave yang sedang
// berlangsung tidak pernah mengganggu broadcast in flight.
type Hub struct {
	mu    sync.RWMutex
	rooms map[string]map[Conn]bool
	conns map[Conn][]string

	ledger *ledger.Ledger
}

func New(led *ledger.Ledger) *Hub {
	return &Hub{
		rooms:  make(map[string]map[Conn]bool),
		conns:  make(map[Conn][]string),
		ledger: led,
	}
}

// Join mendaftarkan koneksi ke room pribadi aktor dan room bersama
// role group-nya. Event yang terbit sebelum join selesai tidak diterima
// live; itu tugas ledger.
func (h *Hub) Join(conn Conn, actor models.Actor) {
	rooms := []string{actor.PersonalRoom(), actor.Role.SharedRoom()}

	h.mu.Lock()
	defer h.mu.Unlock()
	for _, room := range rooms {
		if h.rooms[room] == nil {
			h.rooms[room] = make(map[Conn]bool)
		}
		h.rooms[room][conn] = true
	}
	h.conns[conn] = rooms
}

// Leave melepas koneksi dari semua room. Tidak ada langganan yang bertahan
// setelah disconnect; client wajib join ulang saat reconnect.
func (h *Hub) Leave(conn Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, room := range h.conns[conn] {
		delete(h.rooms[room], conn)
		if len(h.rooms[room]) == 0 {
			delete(h.rooms, room)
		}
	}
	delete(h.conns, conn)
	conn.Close()
}

// RoomSize -> jumlah koneksi yang sedang tergabung di satu room.
func (h *Hub) RoomSize(room string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[room])
}

// recipient -> satu alamat penerima hasil resolusi rule table.
type recipient struct {
	room   string
	record models.Notification
}

// Publish menerima satu event domain, menulis satu entry ledger per penerima,
// lalu push payload ke room yang match. Kegagalan delivery ke satu koneksi
// ditelan (cukup di-log): ledger adalah fallback durable-nya, dan satu
// penerima gagal tidak boleh memblokir penerima lain.
func (h *Hub) Publish(ev events.Event) {
	for _, rcpt := range resolve(ev) {
		rec := rcpt.record
		if err := h.ledger.Append(context.Background(), &rec); err != nil {
			utils.ErrorLogger.Printf("hub: ledger append failed for room %s: %v", rcpt.room, err)
		}
		h.emit(rcpt.room, Message{Event: string(ev.EventKind()), Data: rec})
	}
}

// Emit mengirim payload bebas ke satu room tanpa entry ledger. Dipakai untuk
// data tambahan non-durable seperti statistik lantai.
func (h *Hub) Emit(room string, msg Message) {
	h.emit(room, msg)
}

func (h *Hub) emit(room string, msg Message) {
	// Snapshot penerima dulu, kirim di luar lock.
	h.mu.RLock()
	targets := make([]Conn, 0, len(h.rooms[room]))
	for conn := range h.rooms[room] {
		targets = append(targets, conn)
	}
	h.mu.RUnlock()

	for _, conn := range targets {
		if err := conn.WriteJSON(msg); err != nil {
			utils.ErrorLogger.Printf("hub: send to room %s failed: %v", room, err)
			continue
		}
	}
}

// resolve -> rule table event -> daftar penerima. Switch harus exhaustive
// atas semua kind di package events.
func resolve(ev events.Event) []recipient {
	switch e := ev.(type) {
	case events.BookingCreated:
		requester := e.Booking.Requester()
		return []recipient{
			personal(requester, e, "Booking received",
				fmt.Sprintf("Your booking %s for table %d is awaiting confirmation", e.Booking.Code, e.Booking.TableID)),
			broadcastEmployees(e, "New booking",
				fmt.Sprintf("Booking %s: table %d, %d guests at %s", e.Booking.Code, e.Booking.TableID, e.Booking.GuestCount, e.Booking.ReservedAt.Format("2006-01-02 15:04"))),
		}
	case events.BookingConfirmed:
		requester := e.Booking.Requester()
		return []recipient{
			personal(requester, e, "Booking confirmed",
				fmt.Sprintf("Your booking %s is confirmed, table %d is reserved", e.Booking.Code, e.Booking.TableID)),
		}
	case events.BookingCancelled:
		requester := e.Booking.Requester()
		return []recipient{
			personal(requester, e, "Booking cancelled",
				fmt.Sprintf("Booking %s has been cancelled", e.Booking.Code)),
			broadcastEmployees(e, "Booking cancelled",
				fmt.Sprintf("Booking %s for table %d was cancelled", e.Booking.Code, e.Booking.TableID)),
		}
	case events.PaymentCompleted:
		rcpts := []recipient{
			broadcastEmployees(e, "Payment completed",
				fmt.Sprintf("Table %d paid %.2f, order #%d closed", e.Order.TableID, e.Order.Total, e.Order.ID)),
		}
		if e.Booking != nil {
			rcpts = append(rcpts,
				personal(e.Booking.Requester(), e, "Payment completed",
					fmt.Sprintf("Payment of %.2f received, thank you for visiting", e.Order.Total)))
		}
		return rcpts
	}
	return nil
}

func personal(to models.Actor, ev events.Event, title, message string) recipient {
	id := to.ID
	return recipient{
		room: to.PersonalRoom(),
		record: models.Notification{
			RecipientKind: models.RecipientPersonal,
			RecipientRole: to.Role,
			RecipientID:   &id,
			Type:          string(ev.EventKind()),
			Title:         title,
			Message:       message,
			BookingID:     bookingRef(ev),
		},
	}
}

func broadcastEmployees(ev events.Event, title, message string) recipient {
	return recipient{
		room: models.RoleEmployee.SharedRoom(),
		record: models.Notification{
			RecipientKind: models.RecipientBroadcast,
			RecipientRole: models.RoleEmployee,
			Type:          string(ev.EventKind()),
			Title:         title,
			Message:       message,
			BookingID:     bookingRef(ev),
		},
	}
}

// bookingRef -> referensi booking pemicu, kalau ada.
func bookingRef(ev events.Event) *uint {
	switch e := ev.(type) {
	case events.BookingCreated:
		id := e.Booking.ID
		return &id
	case events.BookingConfirmed:
		id := e.Booking.ID
		return &id
	case events.BookingCancelled:
		id := e.Booking.ID
		return &id
	case events.PaymentCompleted:
		if e.Booking != nil {
			id := e.Booking.ID
			return &id
		}
	}
	return nil
}
