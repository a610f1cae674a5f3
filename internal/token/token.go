// Package token mints LiveKit-compatible access tokens. A token is a
// signed, time-limited grant authorizing one participant to join one room
// with specific capabilities; the media platform validates it on join.
package token

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrNotConfigured is returned when the signing credentials are absent.
// This is an operator problem, not a retryable fault.
var ErrNotConfigured = errors.New("signing credentials not configured")

// DefaultTTL matches the 24 hour expiry the client expects.
const DefaultTTL = 24 * time.Hour

// VideoGrant mirrors the LiveKit grant block inside the token.
type VideoGrant struct {
	Room                 string `json:"room,omitempty"`
	RoomJoin             bool   `json:"roomJoin,omitempty"`
	CanPublish           bool   `json:"canPublish,omitempty"`
	CanSubscribe         bool   `json:"canSubscribe,omitempty"`
	CanPublishData       bool   `json:"canPublishData,omitempty"`
	CanUpdateOwnMetadata bool   `json:"canUpdateOwnMetadata,omitempty"`
	Hidden               bool   `json:"hidden,omitempty"`
}

// ParticipantMetadata is attached to the participant and readable by the
// agent on the other side of the room.
type ParticipantMetadata struct {
	Role     string `json:"role"`
	Subject  string `json:"subject"`
	JoinedAt string `json:"joinedAt"`
}

// Claims is the full signed payload.
type Claims struct {
	jwt.RegisteredClaims
	Name     string     `json:"name,omitempty"`
	Metadata string     `json:"metadata,omitempty"`
	Video    VideoGrant `json:"video"`
}

// Issuer signs access tokens with a LiveKit API key pair.
type Issuer struct {
	apiKey    string
	apiSecret string
	ttl       time.Duration

	now func() time.Time
}

func NewIssuer(apiKey, apiSecret string, ttl time.Duration) *Issuer {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Issuer{
		apiKey:    strings.TrimSpace(apiKey),
		apiSecret: strings.TrimSpace(apiSecret),
		ttl:       ttl,
		now:       time.Now,
	}
}

// Configured reports whether both credentials are present.
func (i *Issuer) Configured() bool {
	return i.apiKey != "" && i.apiSecret != ""
}

// TTLSeconds is the expiry the response advertises alongside the token.
func (i *Issuer) TTLSeconds() int64 {
	return int64(i.ttl / time.Second)
}

// Mint signs a join token for the participant in the given room. The
// grant allows joining, publishing, subscribing, publishing data and
// updating own metadata, matching what the companion client needs.
func (i *Issuer) Mint(roomName, participantName string) (string, error) {
	if !i.Configured() {
		return "", ErrNotConfigured
	}

	now := i.now().UTC()
	metadata, err := json.Marshal(ParticipantMetadata{
		Role:     "student",
		Subject:  "security-plus",
		JoinedAt: now.Format(time.RFC3339),
	})
	if err != nil {
		return "", fmt.Errorf("encode participant metadata: %w", err)
	}

	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    i.apiKey,
			Subject:   participantName,
			ID:        participantName,
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
		},
		Name:     participantName,
		Metadata: string(metadata),
		Video: VideoGrant{
			Room:                 roomName,
			RoomJoin:             true,
			CanPublish:           true,
			CanSubscribe:         true,
			CanPublishData:       true,
			CanUpdateOwnMetadata: true,
			Hidden:               false,
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(i.apiSecret))
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}
