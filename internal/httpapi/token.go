package httpapi

import (
	"log"
	"net/http"
	"strings"
)

// Error messages on this route are fixed strings the web client matches
// against; the signing failure one deliberately leaks no internals.
const (
	msgMissingFields = "Room name and participant name are required"
	msgNotConfigured = "LiveKit Cloud configuration missing. Please set LIVEKIT_HOST, LIVEKIT_API_KEY, and LIVEKIT_API_SECRET in your environment variables."
	msgSigningFailed = "Failed to generate token. Please check your LiveKit Cloud configuration."
)

type tokenRequest struct {
	RoomName        string `json:"roomName"`
	ParticipantName string `json:"participantName"`
}

type tokenResponse struct {
	Token      string `json:"token"`
	LiveKitURL string `json:"livekitUrl"`
	ExpiresIn  int64  `json:"expiresIn"`
}

func (s *Server) handleToken(w http.ResponseWriter, r *http.Request) {
	var req tokenRequest
	if err := decodeJSON(r, &req); err != nil {
		s.metrics.TokenErrors.WithLabelValues("validation").Inc()
		respondJSON(w, http.StatusBadRequest, map[string]string{"error": msgMissingFields})
		return
	}
	if strings.TrimSpace(req.RoomName) == "" || strings.TrimSpace(req.ParticipantName) == "" {
		s.metrics.TokenErrors.WithLabelValues("validation").Inc()
		respondJSON(w, http.StatusBadRequest, map[string]string{"error": msgMissingFields})
		return
	}

	if !s.minter.Configured() {
		s.metrics.TokenErrors.WithLabelValues("configuration").Inc()
		respondJSON(w, http.StatusInternalServerError, map[string]string{"error": msgNotConfigured})
		return
	}

	signed, err := s.minter.Mint(req.RoomName, req.ParticipantName)
	if err != nil {
		log.Printf("httpapi: token generation: %v", err)
		s.metrics.TokenErrors.WithLabelValues("signing").Inc()
		respondJSON(w, http.StatusInternalServerError, map[string]string{"error": msgSigningFailed})
		return
	}

	s.metrics.TokensIssued.Inc()
	respondJSON(w, http.StatusOK, tokenResponse{
		Token:      signed,
		LiveKitURL: s.cfg.LiveKitHost,
		ExpiresIn:  s.minter.TTLSeconds(),
	})
}
