package store

import (
	"time"

	"github.com/google/uuid"

	"github.com/gmasi/parley/internal/catalog"
)

// AudioQuality is the user's preferred capture/playback quality.
type AudioQuality string

const (
	AudioQualityLow    AudioQuality = "low"
	AudioQualityMedium AudioQuality = "medium"
	AudioQualityHigh   AudioQuality = "high"
)

// Preferences are per-user settings, embedded in User and mutated via
// partial merge.
type Preferences struct {
	PreferredAgent       string       `json:"preferredAgent,omitempty"`
	VoiceEnabled         bool         `json:"voiceEnabled"`
	TextModeEnabled      bool         `json:"textModeEnabled"`
	NotificationsEnabled bool         `json:"notificationsEnabled"`
	AudioQuality         AudioQuality `json:"audioQuality"`
	Language             string       `json:"language"`
}

// DefaultPreferences returns the settings a fresh user starts with.
func DefaultPreferences() Preferences {
	return Preferences{
		VoiceEnabled:         true,
		TextModeEnabled:      true,
		NotificationsEnabled: true,
		AudioQuality:         AudioQualityHigh,
		Language:             "en",
	}
}

// User is the authenticated end user.
type User struct {
	ID          string      `json:"id"`
	Email       string      `json:"email"`
	DisplayName string      `json:"displayName"`
	Avatar      string      `json:"avatar,omitempty"`
	Preferences Preferences `json:"preferences"`
}

// MessageType distinguishes transcript turns from raw audio references.
type MessageType string

const (
	MessageText  MessageType = "text"
	MessageAudio MessageType = "audio"
)

// Sender identifies which side of the conversation produced a message.
type Sender string

const (
	SenderUser  Sender = "user"
	SenderAgent Sender = "agent"
)

// Message is one turn in a conversation. Append-only, immutable once
// created.
type Message struct {
	ID             string            `json:"id"`
	ConversationID string            `json:"conversationId"`
	Content        string            `json:"content"`
	Type           MessageType       `json:"type"`
	Sender         Sender            `json:"sender"`
	Timestamp      time.Time         `json:"timestamp"`
	Metadata       map[string]string `json:"metadata,omitempty"`
}

// ConversationStatus tracks a conversation through its lifecycle.
type ConversationStatus string

const (
	ConversationActive    ConversationStatus = "active"
	ConversationCompleted ConversationStatus = "completed"
	ConversationFailed    ConversationStatus = "failed"
)

// Conversation is one historical or active session record.
type Conversation struct {
	ID        string             `json:"id"`
	AgentID   string             `json:"agentId"`
	AgentName string             `json:"agentName"`
	Messages  []Message          `json:"messages"`
	StartTime time.Time          `json:"startTime"`
	EndTime   *time.Time         `json:"endTime,omitempty"`
	Duration  *int64             `json:"duration,omitempty"`
	Status    ConversationStatus `json:"status"`
}

// NewConversation starts an active conversation with the given agent.
func NewConversation(agent catalog.Agent) Conversation {
	return Conversation{
		ID:        uuid.NewString(),
		AgentID:   agent.ID,
		AgentName: agent.Name,
		StartTime: time.Now().UTC(),
		Status:    ConversationActive,
	}
}

// ConversationPatch is a partial update merged into an existing
// conversation; nil fields are left untouched.
type ConversationPatch struct {
	AgentName *string             `json:"agentName,omitempty"`
	EndTime   *time.Time          `json:"endTime,omitempty"`
	Duration  *int64              `json:"duration,omitempty"`
	Status    *ConversationStatus `json:"status,omitempty"`
}

// PreferencesPatch is a partial update merged into user preferences; nil
// fields are left untouched.
type PreferencesPatch struct {
	PreferredAgent       *string       `json:"preferredAgent,omitempty"`
	VoiceEnabled         *bool         `json:"voiceEnabled,omitempty"`
	TextModeEnabled      *bool         `json:"textModeEnabled,omitempty"`
	NotificationsEnabled *bool         `json:"notificationsEnabled,omitempty"`
	AudioQuality         *AudioQuality `json:"audioQuality,omitempty"`
	Language             *string       `json:"language,omitempty"`
}

func cloneUser(u *User) *User {
	if u == nil {
		return nil
	}
	c := *u
	return &c
}

func cloneAgent(a *catalog.Agent) *catalog.Agent {
	if a == nil {
		return nil
	}
	c := *a
	c.Capabilities = append([]string(nil), a.Capabilities...)
	return &c
}

func cloneConversation(c Conversation) Conversation {
	out := c
	out.Messages = append([]Message(nil), c.Messages...)
	if c.EndTime != nil {
		t := *c.EndTime
		out.EndTime = &t
	}
	if c.Duration != nil {
		d := *c.Duration
		out.Duration = &d
	}
	return out
}

func cloneConversations(list []Conversation) []Conversation {
	if list == nil {
		return nil
	}
	out := make([]Conversation, len(list))
	for i, c := range list {
		out[i] = cloneConversation(c)
	}
	return out
}

func cloneConversationPtr(c *Conversation) *Conversation {
	if c == nil {
		return nil
	}
	out := cloneConversation(*c)
	return &out
}

func applyConversationPatch(c Conversation, patch ConversationPatch) Conversation {
	if patch.AgentName != nil {
		c.AgentName = *patch.AgentName
	}
	if patch.EndTime != nil {
		t := *patch.EndTime
		c.EndTime = &t
	}
	if patch.Duration != nil {
		d := *patch.Duration
		c.Duration = &d
	}
	if patch.Status != nil {
		c.Status = *patch.Status
	}
	return c
}

func applyPreferencesPatch(p Preferences, patch PreferencesPatch) Preferences {
	if patch.PreferredAgent != nil {
		p.PreferredAgent = *patch.PreferredAgent
	}
	if patch.VoiceEnabled != nil {
		p.VoiceEnabled = *patch.VoiceEnabled
	}
	if patch.TextModeEnabled != nil {
		p.TextModeEnabled = *patch.TextModeEnabled
	}
	if patch.NotificationsEnabled != nil {
		p.NotificationsEnabled = *patch.NotificationsEnabled
	}
	if patch.AudioQuality != nil {
		p.AudioQuality = *patch.AudioQuality
	}
	if patch.Language != nil {
		p.Language = *patch.Language
	}
	return p
}
