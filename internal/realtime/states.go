package realtime

// ConnectionState tracks the transport to the media platform:
// disconnected -> connecting -> connected -> {reconnecting -> connected | failed}.
// failed and disconnected are terminal until the next connect.
type ConnectionState string

const (
	ConnDisconnected ConnectionState = "disconnected"
	ConnConnecting   ConnectionState = "connecting"
	ConnConnected    ConnectionState = "connected"
	ConnReconnecting ConnectionState = "reconnecting"
	ConnFailed       ConnectionState = "failed"
)

// CallState tracks the call with the agent, separate from the transport:
// "transport connected" and "agent joined" are distinct events.
// idle -> calling -> connected -> {ended | failed}.
type CallState string

const (
	CallIdle      CallState = "idle"
	CallCalling   CallState = "calling"
	CallConnected CallState = "connected"
	CallEnded     CallState = "ended"
	CallFailed    CallState = "failed"
)

// TransportEvent is pushed by the media client when the platform changes
// state underneath an established connection.
type TransportEvent string

const (
	TransportReconnecting TransportEvent = "reconnecting"
	TransportResumed      TransportEvent = "resumed"
	TransportFailed       TransportEvent = "failed"
	TransportClosed       TransportEvent = "closed"
)
