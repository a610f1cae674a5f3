// Package livekit holds the thin wrapper around the LiveKit signaling
// endpoint. Media, codec negotiation and reconnection internals belong to
// the platform SDKs; this client only establishes the participant's
// signaling presence and reports transport-level events upward.
package livekit

import (
	"context"
	"fmt"
	"log"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/gmasi/parley/internal/realtime"
)

// Config for the signal client.
type Config struct {
	// PingInterval paces keepalive pings on the signaling socket.
	PingInterval time.Duration
}

// SignalClient implements realtime.MediaClient against a LiveKit
// deployment's websocket signaling endpoint.
type SignalClient struct {
	cfg     Config
	onEvent func(realtime.TransportEvent)

	mu      sync.Mutex
	conn    *websocket.Conn
	writeMu sync.Mutex
	cancel  context.CancelFunc
	closing bool

	micEnabled bool
	volume     float64
}

func NewSignalClient(cfg Config) *SignalClient {
	if cfg.PingInterval <= 0 {
		cfg.PingInterval = 15 * time.Second
	}
	return &SignalClient{
		cfg:        cfg,
		micEnabled: true,
		volume:     realtime.DefaultVolume,
	}
}

// SetEventHandler installs the callback receiving transport events. Must
// be called before Connect.
func (c *SignalClient) SetEventHandler(handler func(realtime.TransportEvent)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onEvent = handler
}

// Connect dials the signaling endpoint with the join token. The platform
// validates the token and room grant during the handshake, so a rejected
// credential fails here rather than later.
func (c *SignalClient) Connect(ctx context.Context, serverURL, token, roomName, identity string) error {
	u, err := url.Parse(strings.TrimRight(serverURL, "/") + "/rtc")
	if err != nil {
		return fmt.Errorf("parse server url: %w", err)
	}
	q := u.Query()
	q.Set("access_token", token)
	q.Set("auto_subscribe", "1")
	u.RawQuery = q.Encode()

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		return fmt.Errorf("dial signal websocket: %w", err)
	}

	loopCtx, cancel := context.WithCancel(context.Background())

	c.mu.Lock()
	if c.conn != nil {
		c.mu.Unlock()
		cancel()
		conn.Close()
		return fmt.Errorf("signal client already connected")
	}
	c.conn = conn
	c.cancel = cancel
	c.closing = false
	c.mu.Unlock()

	log.Printf("livekit: signaling connected, room=%s identity=%s", roomName, identity)

	go c.readLoop(conn)
	go c.pingLoop(loopCtx, conn)
	return nil
}

// Disconnect closes the signaling socket. Safe to call when already
// disconnected.
func (c *SignalClient) Disconnect(_ context.Context) error {
	c.mu.Lock()
	conn := c.conn
	cancel := c.cancel
	c.conn = nil
	c.cancel = nil
	c.closing = true
	c.mu.Unlock()

	if conn == nil {
		return nil
	}
	if cancel != nil {
		cancel()
	}

	c.writeMu.Lock()
	_ = conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "leaving"),
		time.Now().Add(2*time.Second))
	c.writeMu.Unlock()
	if err := conn.Close(); err != nil {
		return fmt.Errorf("close signal websocket: %w", err)
	}
	return nil
}

// SetMicrophoneEnabled records the local publish intent. Track-level mute
// lives in the platform SDK on the media path; the companion only keeps
// the flag so the UI and the agent-side metadata agree.
func (c *SignalClient) SetMicrophoneEnabled(_ context.Context, enabled bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.micEnabled = enabled
	return nil
}

// SetVolume records the local playback level. Applied by the media path,
// not the signaling socket. The value is stored as given, unclamped.
func (c *SignalClient) SetVolume(_ context.Context, level float64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.volume = level
	return nil
}

func (c *SignalClient) readLoop(conn *websocket.Conn) {
	for {
		// Signaling payloads are platform-internal; the read loop exists
		// to detect liveness and closure.
		if _, _, err := conn.ReadMessage(); err != nil {
			c.mu.Lock()
			deliberate := c.closing
			handler := c.onEvent
			if c.conn == conn {
				c.conn = nil
				if c.cancel != nil {
					c.cancel()
					c.cancel = nil
				}
			}
			c.mu.Unlock()

			if deliberate || handler == nil {
				return
			}
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				handler(realtime.TransportClosed)
			} else {
				log.Printf("livekit: signal read: %v", err)
				handler(realtime.TransportFailed)
			}
			return
		}
	}
}

func (c *SignalClient) pingLoop(ctx context.Context, conn *websocket.Conn) {
	ticker := time.NewTicker(c.cfg.PingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.writeMu.Lock()
			err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(5*time.Second))
			c.writeMu.Unlock()
			if err != nil {
				return
			}
		}
	}
}
