package realtime

import (
	"context"
	"sync"
)

// MockClient is a local stand-in for the media platform, used when no
// LiveKit deployment is configured and by tests.
type MockClient struct {
	mu sync.Mutex

	ConnectErr    error
	DisconnectErr error
	VerbErr       error

	connectCalls    int
	disconnectCalls int
	connected       bool
	micEnabled      bool
	volume          float64

	lastServerURL string
	lastToken     string
	lastRoom      string
	lastIdentity  string
}

func NewMockClient() *MockClient {
	return &MockClient{micEnabled: true, volume: DefaultVolume}
}

func (m *MockClient) Connect(_ context.Context, serverURL, token, roomName, identity string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.connectCalls++
	if m.ConnectErr != nil {
		return m.ConnectErr
	}
	m.connected = true
	m.lastServerURL = serverURL
	m.lastToken = token
	m.lastRoom = roomName
	m.lastIdentity = identity
	return nil
}

func (m *MockClient) Disconnect(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.disconnectCalls++
	if m.DisconnectErr != nil {
		return m.DisconnectErr
	}
	m.connected = false
	return nil
}

func (m *MockClient) SetMicrophoneEnabled(_ context.Context, enabled bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.VerbErr != nil {
		return m.VerbErr
	}
	m.micEnabled = enabled
	return nil
}

func (m *MockClient) SetVolume(_ context.Context, level float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.VerbErr != nil {
		return m.VerbErr
	}
	m.volume = level
	return nil
}

func (m *MockClient) Connected() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.connected
}

func (m *MockClient) ConnectCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.connectCalls
}

func (m *MockClient) DisconnectCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.disconnectCalls
}

func (m *MockClient) MicEnabled() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.micEnabled
}

func (m *MockClient) Volume() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.volume
}

func (m *MockClient) LastRoom() (serverURL, token, room, identity string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastServerURL, m.lastToken, m.lastRoom, m.lastIdentity
}
