package realtime

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/gmasi/parley/internal/catalog"
)

// ErrSessionActive is returned when a connect is attempted while another
// session is still active. At most one session exists at a time.
var ErrSessionActive = errors.New("a session is already active")

// MediaClient is the boundary to the vendor real-time platform. Transport,
// signaling and media stay on the other side of it.
type MediaClient interface {
	Connect(ctx context.Context, serverURL, token, roomName, identity string) error
	Disconnect(ctx context.Context) error
	SetMicrophoneEnabled(ctx context.Context, enabled bool) error
	SetVolume(ctx context.Context, level float64) error
}

// DefaultVolume matches the client's initial speaker level.
const DefaultVolume = 0.8

// Coordinator wraps the media client behind two small state machines and
// the imperative verbs that drive them. Verbs serialize on a single slot:
// a disconnect issued during an in-flight connect waits for it rather than
// racing it. State reads never block on an in-flight verb.
type Coordinator struct {
	verbMu sync.Mutex

	mu        sync.RWMutex
	client    MediaClient
	connState ConnectionState
	callState CallState
	session   *Session
	muted     bool
	volume    float64

	onTransition func(conn ConnectionState, call CallState)
}

func NewCoordinator(client MediaClient) *Coordinator {
	return &Coordinator{
		client:    client,
		connState: ConnDisconnected,
		callState: CallIdle,
		volume:    DefaultVolume,
	}
}

// SetTransitionHook installs an optional callback fired after every state
// change, used for metrics.
func (c *Coordinator) SetTransitionHook(hook func(conn ConnectionState, call CallState)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onTransition = hook
}

// ConnectToAgent begins an audio session with the platform and returns the
// local session record. On failure both state machines land on failed and
// the error is returned to the caller; there is no automatic retry.
func (c *Coordinator) ConnectToAgent(ctx context.Context, agent catalog.Agent, serverURL, token string) (*Session, error) {
	c.verbMu.Lock()
	defer c.verbMu.Unlock()

	c.mu.RLock()
	active := c.session != nil && c.session.Active
	c.mu.RUnlock()
	if active {
		return nil, ErrSessionActive
	}

	c.setStates(ConnConnecting, CallCalling)

	now := time.Now()
	sess := &Session{
		ID:            fmt.Sprintf("room_%d", now.UnixMilli()),
		Name:          "Conversation with " + agent.Name,
		AgentID:       agent.ID,
		ParticipantID: fmt.Sprintf("user_%d", now.UnixMilli()),
		Token:         token,
		ServerURL:     serverURL,
		CreatedAt:     now.UTC(),
	}

	if err := c.client.Connect(ctx, serverURL, token, sess.ID, sess.ParticipantID); err != nil {
		c.setStates(ConnFailed, CallFailed)
		return nil, fmt.Errorf("connect to agent %s: %w", agent.ID, err)
	}

	sess.Active = true
	c.mu.Lock()
	c.session = sess
	c.connState = ConnConnected
	c.callState = CallConnected
	hook := c.onTransition
	c.mu.Unlock()
	if hook != nil {
		hook(ConnConnected, CallConnected)
	}

	return cloneSession(sess), nil
}

// Disconnect tears down the audio session. The state machines land on
// disconnected/ended and the session's active flag is cleared even when
// the teardown call fails; the error is logged and returned.
func (c *Coordinator) Disconnect(ctx context.Context) error {
	c.verbMu.Lock()
	defer c.verbMu.Unlock()

	c.mu.Lock()
	if c.session != nil {
		c.session.Active = false
		c.session = nil
	}
	c.mu.Unlock()

	err := c.client.Disconnect(ctx)
	c.setStates(ConnDisconnected, CallEnded)
	if err != nil {
		log.Printf("realtime: disconnect: %v", err)
		return fmt.Errorf("disconnect: %w", err)
	}
	return nil
}

// MuteMicrophone toggles the published microphone track.
func (c *Coordinator) MuteMicrophone(ctx context.Context, muted bool) error {
	if err := c.client.SetMicrophoneEnabled(ctx, !muted); err != nil {
		return fmt.Errorf("set microphone: %w", err)
	}
	c.mu.Lock()
	c.muted = muted
	c.mu.Unlock()
	return nil
}

// SetSpeakerVolume passes the level through to the client. The expected
// range is [0,1] but out-of-range values are deliberately not clamped
// here; the platform decides what to do with them.
func (c *Coordinator) SetSpeakerVolume(ctx context.Context, level float64) error {
	if err := c.client.SetVolume(ctx, level); err != nil {
		return fmt.Errorf("set volume: %w", err)
	}
	c.mu.Lock()
	c.volume = level
	c.mu.Unlock()
	return nil
}

// OnTransportEvent folds platform-driven state changes (delivered by the
// media client off the verb path) into the state machines.
func (c *Coordinator) OnTransportEvent(ev TransportEvent) {
	c.mu.Lock()
	switch ev {
	case TransportReconnecting:
		if c.connState == ConnConnected {
			c.connState = ConnReconnecting
		}
	case TransportResumed:
		if c.connState == ConnReconnecting {
			c.connState = ConnConnected
		}
	case TransportFailed:
		c.connState = ConnFailed
		c.callState = CallFailed
		if c.session != nil {
			c.session.Active = false
			c.session = nil
		}
	case TransportClosed:
		if c.session != nil {
			c.session.Active = false
			c.session = nil
			c.connState = ConnDisconnected
			c.callState = CallEnded
		}
	}
	conn, call := c.connState, c.callState
	hook := c.onTransition
	c.mu.Unlock()
	if hook != nil {
		hook(conn, call)
	}
}

func (c *Coordinator) ConnectionState() ConnectionState {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.connState
}

func (c *Coordinator) CallState() CallState {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.callState
}

func (c *Coordinator) CurrentSession() *Session {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return cloneSession(c.session)
}

func (c *Coordinator) IsConnected() bool {
	return c.ConnectionState() == ConnConnected
}

func (c *Coordinator) IsInCall() bool {
	return c.CallState() == CallConnected
}

func (c *Coordinator) setStates(conn ConnectionState, call CallState) {
	c.mu.Lock()
	c.connState = conn
	c.callState = call
	hook := c.onTransition
	c.mu.Unlock()
	if hook != nil {
		hook(conn, call)
	}
}
