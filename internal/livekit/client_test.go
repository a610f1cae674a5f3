package livekit

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/gmasi/parley/internal/realtime"
)

type signalServer struct {
	upgrader websocket.Upgrader

	mu    sync.Mutex
	conns []*websocket.Conn
	query []string
}

func (s *signalServer) handler(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/rtc" {
		http.NotFound(w, r)
		return
	}
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	s.mu.Lock()
	s.conns = append(s.conns, conn)
	s.query = append(s.query, r.URL.RawQuery)
	s.mu.Unlock()

	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

func (s *signalServer) lastQuery() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.query) == 0 {
		return ""
	}
	return s.query[len(s.query)-1]
}

func (s *signalServer) closeAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, conn := range s.conns {
		conn.Close()
	}
	s.conns = nil
}

func newSignalTest(t *testing.T) (*SignalClient, *signalServer, string) {
	t.Helper()
	srv := &signalServer{}
	ts := httptest.NewServer(http.HandlerFunc(srv.handler))
	t.Cleanup(ts.Close)
	t.Cleanup(srv.closeAll)

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http")
	return NewSignalClient(Config{PingInterval: 50 * time.Millisecond}), srv, wsURL
}

func TestConnectSendsTokenAndDisconnects(t *testing.T) {
	client, srv, wsURL := newSignalTest(t)

	if err := client.Connect(context.Background(), wsURL, "tok-123", "room_1", "user_1"); err != nil {
		t.Fatalf("Connect() error = %v", err)
	}

	q := srv.lastQuery()
	if !strings.Contains(q, "access_token=tok-123") {
		t.Fatalf("handshake query = %q, want access_token", q)
	}
	if !strings.Contains(q, "auto_subscribe=1") {
		t.Fatalf("handshake query = %q, want auto_subscribe", q)
	}

	if err := client.Disconnect(context.Background()); err != nil {
		t.Fatalf("Disconnect() error = %v", err)
	}
	// Idempotent.
	if err := client.Disconnect(context.Background()); err != nil {
		t.Fatalf("second Disconnect() error = %v", err)
	}
}

func TestConnectRejectsDoubleConnect(t *testing.T) {
	client, _, wsURL := newSignalTest(t)

	if err := client.Connect(context.Background(), wsURL, "tok", "room_1", "user_1"); err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	defer client.Disconnect(context.Background())

	if err := client.Connect(context.Background(), wsURL, "tok", "room_2", "user_2"); err == nil {
		t.Fatalf("second Connect() should fail while connected")
	}
}

func TestConnectFailsAgainstDeadServer(t *testing.T) {
	client := NewSignalClient(Config{})
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := client.Connect(ctx, "ws://127.0.0.1:1", "tok", "room", "user"); err == nil {
		t.Fatalf("Connect() to a dead address should fail")
	}
}

func TestRemoteCloseReportsTransportEvent(t *testing.T) {
	client, srv, wsURL := newSignalTest(t)

	events := make(chan realtime.TransportEvent, 4)
	client.SetEventHandler(func(ev realtime.TransportEvent) { events <- ev })

	if err := client.Connect(context.Background(), wsURL, "tok", "room_1", "user_1"); err != nil {
		t.Fatalf("Connect() error = %v", err)
	}

	srv.closeAll()

	select {
	case ev := <-events:
		if ev != realtime.TransportFailed && ev != realtime.TransportClosed {
			t.Fatalf("event = %q, want a close/fail transport event", ev)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("no transport event after remote close")
	}
}

func TestDeliberateDisconnectReportsNothing(t *testing.T) {
	client, _, wsURL := newSignalTest(t)

	events := make(chan realtime.TransportEvent, 4)
	client.SetEventHandler(func(ev realtime.TransportEvent) { events <- ev })

	if err := client.Connect(context.Background(), wsURL, "tok", "room_1", "user_1"); err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	if err := client.Disconnect(context.Background()); err != nil {
		t.Fatalf("Disconnect() error = %v", err)
	}

	select {
	case ev := <-events:
		t.Fatalf("unexpected transport event %q after deliberate disconnect", ev)
	case <-time.After(200 * time.Millisecond):
	}
}
