package realtime

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/gmasi/parley/internal/catalog"
)

func testAgent() catalog.Agent {
	return catalog.Agent{
		ID:           "security",
		Name:         "Security Expert",
		Capabilities: []string{"security"},
		Status:       catalog.StatusOnline,
	}
}

func TestConnectToAgentSuccess(t *testing.T) {
	client := NewMockClient()
	c := NewCoordinator(client)

	sess, err := c.ConnectToAgent(context.Background(), testAgent(), "wss://x", "tok")
	if err != nil {
		t.Fatalf("ConnectToAgent() error = %v", err)
	}
	if !sess.Active {
		t.Fatalf("session should be active after connect")
	}
	if sess.AgentID != "security" || sess.Name != "Conversation with Security Expert" {
		t.Fatalf("unexpected session: %+v", sess)
	}

	if got := c.ConnectionState(); got != ConnConnected {
		t.Fatalf("ConnectionState = %q, want %q", got, ConnConnected)
	}
	if got := c.CallState(); got != CallConnected {
		t.Fatalf("CallState = %q, want %q", got, CallConnected)
	}
	if !c.IsConnected() || !c.IsInCall() {
		t.Fatalf("IsConnected/IsInCall should both be true")
	}

	serverURL, tok, room, identity := client.LastRoom()
	if serverURL != "wss://x" || tok != "tok" {
		t.Fatalf("client got serverURL %q token %q", serverURL, tok)
	}
	if room != sess.ID || identity != sess.ParticipantID {
		t.Fatalf("client got room %q identity %q, want %q/%q", room, identity, sess.ID, sess.ParticipantID)
	}
}

func TestConnectToAgentFailurePropagates(t *testing.T) {
	client := NewMockClient()
	client.ConnectErr = errors.New("no route to platform")
	c := NewCoordinator(client)

	_, err := c.ConnectToAgent(context.Background(), testAgent(), "wss://x", "tok")
	if err == nil {
		t.Fatalf("ConnectToAgent() should propagate the client error")
	}
	if got := c.ConnectionState(); got != ConnFailed {
		t.Fatalf("ConnectionState = %q, want %q", got, ConnFailed)
	}
	if got := c.CallState(); got != CallFailed {
		t.Fatalf("CallState = %q, want %q", got, CallFailed)
	}
	if c.CurrentSession() != nil {
		t.Fatalf("no session should survive a failed connect")
	}
}

func TestConnectRejectsSecondActiveSession(t *testing.T) {
	client := NewMockClient()
	c := NewCoordinator(client)

	if _, err := c.ConnectToAgent(context.Background(), testAgent(), "wss://x", "tok"); err != nil {
		t.Fatalf("first connect error = %v", err)
	}
	_, err := c.ConnectToAgent(context.Background(), testAgent(), "wss://x", "tok2")
	if !errors.Is(err, ErrSessionActive) {
		t.Fatalf("second connect error = %v, want ErrSessionActive", err)
	}
	if client.ConnectCalls() != 1 {
		t.Fatalf("client.Connect called %d times, want 1", client.ConnectCalls())
	}
}

func TestDisconnect(t *testing.T) {
	client := NewMockClient()
	c := NewCoordinator(client)

	if _, err := c.ConnectToAgent(context.Background(), testAgent(), "wss://x", "tok"); err != nil {
		t.Fatalf("connect error = %v", err)
	}
	if err := c.Disconnect(context.Background()); err != nil {
		t.Fatalf("Disconnect() error = %v", err)
	}

	if got := c.ConnectionState(); got != ConnDisconnected {
		t.Fatalf("ConnectionState = %q, want %q", got, ConnDisconnected)
	}
	if got := c.CallState(); got != CallEnded {
		t.Fatalf("CallState = %q, want %q", got, CallEnded)
	}
	if c.CurrentSession() != nil {
		t.Fatalf("session should be cleared after disconnect")
	}
	if client.Connected() {
		t.Fatalf("client should be disconnected")
	}
}

func TestDisconnectErrorStillTransitions(t *testing.T) {
	client := NewMockClient()
	c := NewCoordinator(client)
	if _, err := c.ConnectToAgent(context.Background(), testAgent(), "wss://x", "tok"); err != nil {
		t.Fatalf("connect error = %v", err)
	}

	client.DisconnectErr = errors.New("teardown refused")
	if err := c.Disconnect(context.Background()); err == nil {
		t.Fatalf("Disconnect() should re-raise the teardown error")
	}
	if got := c.ConnectionState(); got != ConnDisconnected {
		t.Fatalf("ConnectionState = %q, want %q after failed teardown", got, ConnDisconnected)
	}
	if got := c.CallState(); got != CallEnded {
		t.Fatalf("CallState = %q, want %q after failed teardown", got, CallEnded)
	}
}

func TestMuteAndVolumePassThrough(t *testing.T) {
	client := NewMockClient()
	c := NewCoordinator(client)

	if err := c.MuteMicrophone(context.Background(), true); err != nil {
		t.Fatalf("MuteMicrophone() error = %v", err)
	}
	if client.MicEnabled() {
		t.Fatalf("microphone should be disabled after mute")
	}
	if !c.Snapshot().Muted {
		t.Fatalf("snapshot should report muted")
	}

	// Out-of-range values pass through unclamped.
	if err := c.SetSpeakerVolume(context.Background(), 1.5); err != nil {
		t.Fatalf("SetSpeakerVolume() error = %v", err)
	}
	if got := client.Volume(); got != 1.5 {
		t.Fatalf("client volume = %v, want 1.5", got)
	}
}

func TestTransportEvents(t *testing.T) {
	client := NewMockClient()
	c := NewCoordinator(client)
	if _, err := c.ConnectToAgent(context.Background(), testAgent(), "wss://x", "tok"); err != nil {
		t.Fatalf("connect error = %v", err)
	}

	c.OnTransportEvent(TransportReconnecting)
	if got := c.ConnectionState(); got != ConnReconnecting {
		t.Fatalf("ConnectionState = %q, want %q", got, ConnReconnecting)
	}
	// The call itself survives a transport blip.
	if got := c.CallState(); got != CallConnected {
		t.Fatalf("CallState = %q, want %q during reconnect", got, CallConnected)
	}

	c.OnTransportEvent(TransportResumed)
	if got := c.ConnectionState(); got != ConnConnected {
		t.Fatalf("ConnectionState = %q, want %q after resume", got, ConnConnected)
	}

	c.OnTransportEvent(TransportFailed)
	if got := c.ConnectionState(); got != ConnFailed {
		t.Fatalf("ConnectionState = %q, want %q", got, ConnFailed)
	}
	if got := c.CallState(); got != CallFailed {
		t.Fatalf("CallState = %q, want %q", got, CallFailed)
	}
	if c.CurrentSession() != nil {
		t.Fatalf("session should be dropped on transport failure")
	}
}

func TestTransportClosedEndsCall(t *testing.T) {
	client := NewMockClient()
	c := NewCoordinator(client)
	if _, err := c.ConnectToAgent(context.Background(), testAgent(), "wss://x", "tok"); err != nil {
		t.Fatalf("connect error = %v", err)
	}

	c.OnTransportEvent(TransportClosed)
	if got := c.ConnectionState(); got != ConnDisconnected {
		t.Fatalf("ConnectionState = %q, want %q", got, ConnDisconnected)
	}
	if got := c.CallState(); got != CallEnded {
		t.Fatalf("CallState = %q, want %q", got, CallEnded)
	}

	// Closed without an active session is a no-op.
	before := c.Snapshot()
	c.OnTransportEvent(TransportClosed)
	if after := c.Snapshot(); after != before {
		t.Fatalf("closed event without session changed state: %+v -> %+v", before, after)
	}
}

func TestWatchObservesConnectWithinOneInterval(t *testing.T) {
	client := NewMockClient()
	c := NewCoordinator(client)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	interval := 10 * time.Millisecond
	watch := c.Watch(ctx, interval)

	first := <-watch
	if first.ConnectionState != ConnDisconnected || first.CallState != CallIdle {
		t.Fatalf("initial snapshot = %+v", first)
	}

	if _, err := c.ConnectToAgent(ctx, testAgent(), "wss://x", "tok"); err != nil {
		t.Fatalf("connect error = %v", err)
	}

	deadline := time.After(20 * interval)
	for {
		select {
		case snap := <-watch:
			if snap.ConnectionState == ConnConnected && snap.CallState == CallConnected {
				if snap.Session == nil || !snap.Session.Active {
					t.Fatalf("connected snapshot missing active session: %+v", snap)
				}
				return
			}
		case <-deadline:
			t.Fatalf("connected state never observed")
		}
	}
}

type blockingClient struct {
	MockClient
	started chan struct{}
	release chan struct{}
}

func (b *blockingClient) Connect(ctx context.Context, serverURL, token, roomName, identity string) error {
	close(b.started)
	<-b.release
	return b.MockClient.Connect(ctx, serverURL, token, roomName, identity)
}

func TestDisconnectWaitsForInFlightConnect(t *testing.T) {
	client := &blockingClient{
		started: make(chan struct{}),
		release: make(chan struct{}),
	}
	c := NewCoordinator(client)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, _ = c.ConnectToAgent(context.Background(), testAgent(), "wss://x", "tok")
	}()
	<-client.started

	disconnectDone := make(chan struct{})
	go func() {
		defer close(disconnectDone)
		_ = c.Disconnect(context.Background())
	}()

	select {
	case <-disconnectDone:
		t.Fatalf("disconnect completed while connect was still in flight")
	case <-time.After(50 * time.Millisecond):
	}

	close(client.release)
	wg.Wait()
	<-disconnectDone

	if got := c.ConnectionState(); got != ConnDisconnected {
		t.Fatalf("final ConnectionState = %q, want %q", got, ConnDisconnected)
	}
	if got := c.CallState(); got != CallEnded {
		t.Fatalf("final CallState = %q, want %q", got, CallEnded)
	}
	if c.CurrentSession() != nil {
		t.Fatalf("session should be cleared after serialized connect+disconnect")
	}
}
