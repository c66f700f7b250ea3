package api_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/amanah/zakat-service/internal/api"
)

func dialWS(t *testing.T, srv *httptest.Server, userID string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	if userID != "" {
		url += "?user_id=" + userID
	}
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial %s: %v", url, err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func waitForClients(t *testing.T, hub *api.WSHub, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for hub.Clients() < n {
		if time.Now().After(deadline) {
			t.Fatalf("expected %d clients, have %d", n, hub.Clients())
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func readWS(t *testing.T, conn *websocket.Conn) api.WSMessage {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg api.WSMessage
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read: %v", err)
	}
	return msg
}

func TestWSHub_ScopesEventsToUser(t *testing.T) {
	hub := api.NewWSHub()
	go hub.Run()

	srv := httptest.NewServer(http.HandlerFunc(hub.HandleWS))
	defer srv.Close()

	alice := dialWS(t, srv, "alice")
	bob := dialWS(t, srv, "bob")
	dashboard := dialWS(t, srv, "")
	waitForClients(t, hub, 3)

	hub.Broadcast(api.WSMessage{Type: "nisab_updated", GoldPricePerGram: "1000000"})
	for name, conn := range map[string]*websocket.Conn{"alice": alice, "bob": bob, "dashboard": dashboard} {
		if msg := readWS(t, conn); msg.Type != "nisab_updated" || msg.GoldPricePerGram != "1000000" {
			t.Errorf("%s: expected nisab update, got %+v", name, msg)
		}
	}

	hub.Broadcast(api.WSMessage{Type: "payment_paid", UserID: "alice", PaymentID: "pay-alice"})
	hub.Broadcast(api.WSMessage{Type: "payment_paid", UserID: "bob", PaymentID: "pay-bob"})
	hub.Broadcast(api.WSMessage{Type: "nisab_updated", GoldPricePerGram: "1100000"})

	expect := map[string][]string{
		"alice":     {"pay-alice", ""},
		"bob":       {"pay-bob", ""},
		"dashboard": {"pay-alice", "pay-bob", ""},
	}
	conns := map[string]*websocket.Conn{"alice": alice, "bob": bob, "dashboard": dashboard}
	for name, ids := range expect {
		for _, id := range ids {
			msg := readWS(t, conns[name])
			if msg.PaymentID != id {
				t.Errorf("%s: expected payment %q, got %+v", name, id, msg)
			}
			if id == "" && msg.GoldPricePerGram != "1100000" {
				t.Errorf("%s: expected second nisab update, got %+v", name, msg)
			}
		}
	}
}
