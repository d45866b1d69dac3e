package realtime

import (
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func wsURL(srv *httptest.Server, query string) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http") + "/?" + query
}

func waitForSubscribers(t *testing.T, h *Hub, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for h.Subscribers() != n {
		if time.Now().After(deadline) {
			t.Fatalf("Subscribers() = %d, want %d", h.Subscribers(), n)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestParseTables(t *testing.T) {
	got := ParseTables(" bookings, ,contact_messages,")
	want := []string{"bookings", "contact_messages"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ParseTables = %v, want %v", got, want)
	}
	if ParseTables("") != nil {
		t.Error("empty input should yield nil")
	}
}

func TestHandlerRelaysEvents(t *testing.T) {
	hub := NewHub()
	srv := httptest.NewServer(NewHandler(hub, nil))
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial(wsURL(srv, "tables=bookings"), nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	waitForSubscribers(t, hub, 1)

	hub.Publish(Event{Table: "contact_messages", Op: OpInsert, ID: "m1"})
	hub.Publish(Event{Table: "bookings", Op: OpUpdate, ID: "b7"})

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var got Event
	if err := conn.ReadJSON(&got); err != nil {
		t.Fatalf("read: %v", err)
	}
	want := Event{Table: "bookings", Op: OpUpdate, ID: "b7"}
	if got != want {
		t.Errorf("got %+v, want %+v", got, want)
	}
}

func TestHandlerUnsubscribesOnDisconnect(t *testing.T) {
	hub := NewHub()
	srv := httptest.NewServer(NewHandler(hub, nil))
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial(wsURL(srv, "tables=chat_messages"), nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	waitForSubscribers(t, hub, 1)
	conn.Close()
	waitForSubscribers(t, hub, 0)
}

func TestHandlerRejectsUnauthorizedTables(t *testing.T) {
	hub := NewHub()
	authorize := func(r *http.Request, table string) bool {
		return table == "chat_messages"
	}
	srv := httptest.NewServer(NewHandler(hub, authorize))
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial(wsURL(srv, "tables=chat_messages,bookings"), nil)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	defer conn.Close()

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, _, err = conn.ReadMessage()
	if !websocket.IsCloseError(err, websocket.ClosePolicyViolation) {
		t.Fatalf("expected policy violation close, got %v", err)
	}
	if hub.Subscribers() != 0 {
		t.Error("no subscription should be created")
	}
}

func TestHandlerRequiresTables(t *testing.T) {
	srv := httptest.NewServer(NewHandler(NewHub(), nil))
	defer srv.Close()

	_, resp, err := websocket.DefaultDialer.Dial(wsURL(srv, ""), nil)
	if err == nil {
		t.Fatal("expected dial to fail")
	}
	if resp == nil || resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %v", resp)
	}
}

func TestHandlerClosesWhenHubCloses(t *testing.T) {
	hub := NewHub()
	srv := httptest.NewServer(NewHandler(hub, nil))
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial(wsURL(srv, "tables=bookings"), nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	waitForSubscribers(t, hub, 1)

	hub.Close()
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, _, err = conn.ReadMessage()
	if !websocket.IsCloseError(err, websocket.CloseGoingAway) {
		t.Errorf("expected going-away close, got %v", err)
	}
}
