package realtime

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

// Client yang tidak bisa menerima pesan dalam writeWait dianggap macet dan
// dilepas; satu koneksi mati tidak boleh memblokir notifikasi post-commit.
const writeWait = 5 * time.Second

// Event kinds yang di-broadcast setelah commit. Client (desktop grid,
// waiter app) melakukan refresh berdasarkan kind.
const (
	EventHalls        = "halls"
	EventTables       = "tables"
	EventTableItems   = "table-items"
	EventProducts     = "products"
	EventCategories   = "categories"
	EventKitchens     = "kitchens"
	EventSales        = "sales"
	EventCustomers    = "customers"
	EventDebtors      = "debtors"
	EventUsers        = "users"
	EventSettings     = "settings"
	EventPrinterError = "printer-error"
)

type Message struct {
	Event string      `json:"event"`
	ID    interface{} `json:"id,omitempty"`
	Data  interface{} `json:"data,omitempty"`
}

// Hub menampung semua koneksi client (desktop + mobile waiter) dan
// menyiarkan change notification post-commit.
type Hub struct {
	clients map[*websocket.Conn]string // conn -> role
	mutex   sync.Mutex
	log     *logrus.Logger
}

var hub = Hub{
	clients: make(map[*websocket.Conn]string),
}

// SetLogger dipanggil sekali saat bootstrap.
func SetLogger(l *logrus.Logger) {
	hub.log = l
}

// RegisterClient menambahkan connection ke set dengan role.
func RegisterClient(conn *websocket.Conn, role string) {
	hub.mutex.Lock()
	defer hub.mutex.Unlock()
	hub.clients[conn] = role
}

// UnregisterClient melepaskan connection.
func UnregisterClient(conn *websocket.Conn) {
	hub.mutex.Lock()
	defer hub.mutex.Unlock()
	delete(hub.clients, conn)
	conn.Close()
}

// Notify menyiarkan change event dengan optional id. Dipanggil hanya
// setelah transaksi pemicu commit.
func Notify(event string, id interface{}) {
	broadcast(Message{Event: event, ID: id})
}

// NotifyPrinterError melaporkan kegagalan print lewat side-channel;
// tidak pernah mempengaruhi transaksi yang sudah commit.
func NotifyPrinterError(detail string) {
	broadcast(Message{Event: EventPrinterError, Data: detail})
}

// BroadcastMessage untuk payload bebas.
func BroadcastMessage(msg Message) {
	broadcast(msg)
}

func broadcast(msg Message) {
	hub.mutex.Lock()
	defer hub.mutex.Unlock()

	data, err := json.Marshal(msg)
	if err != nil {
		if hub.log != nil {
			hub.log.Printf("Error marshaling realtime message: %v", err)
		}
		return
	}

	for conn, role := range hub.clients {
		conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			if hub.log != nil {
				hub.log.Printf("Dropping %s client: %v", role, err)
			}
			conn.Close()
			delete(hub.clients, conn)
		}
	}
}
