package realtime

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clientCount() int {
	hub.mutex.Lock()
	defer hub.mutex.Unlock()
	return len(hub.clients)
}

// Koneksi yang sudah mati dilepas saat broadcast; satu client macet tidak
// boleh menahan notifikasi untuk semua client lain.
func TestBroadcastDropsDeadClients(t *testing.T) {
	upgrader := websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		RegisterClient(conn, "desktop")
	}))
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")
	client, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)

	require.Eventually(t, func() bool { return clientCount() == 1 },
		time.Second, 10*time.Millisecond)

	require.NoError(t, client.Close())

	// Write ke koneksi mati gagal dalam satu-dua broadcast; setelah itu
	// client harus hilang dari set.
	assert.Eventually(t, func() bool {
		Notify(EventTables, nil)
		return clientCount() == 0
	}, 2*time.Second, 50*time.Millisecond)
}
