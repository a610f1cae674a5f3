package realtime

import "time"

// Session is the local record of one active connection to the media
// platform. It is runtime-only state, distinct from a persisted
// conversation, and is discarded on disconnect rather than archived.
type Session struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	AgentID       string    `json:"agentId"`
	ParticipantID string    `json:"participantId"`
	Token         string    `json:"-"`
	ServerURL     string    `json:"serverUrl"`
	CreatedAt     time.Time `json:"createdAt"`
	Active        bool      `json:"isActive"`
}

func cloneSession(s *Session) *Session {
	if s == nil {
		return nil
	}
	c := *s
	return &c
}
