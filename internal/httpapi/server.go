package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/gmasi/parley/internal/catalog"
	"github.com/gmasi/parley/internal/config"
	"github.com/gmasi/parley/internal/observability"
	"github.com/gmasi/parley/internal/realtime"
	"github.com/gmasi/parley/internal/store"
)

// TokenMinter signs room join tokens. Implemented by token.Issuer.
type TokenMinter interface {
	Configured() bool
	TTLSeconds() int64
	Mint(roomName, participantName string) (string, error)
}

type Server struct {
	cfg     config.Config
	store   *store.Store
	agents  catalog.Provider
	coord   *realtime.Coordinator
	minter  TokenMinter
	metrics *observability.Metrics
}

func New(cfg config.Config, st *store.Store, agents catalog.Provider, coord *realtime.Coordinator, minter TokenMinter, metrics *observability.Metrics) *Server {
	return &Server{
		cfg:     cfg,
		store:   st,
		agents:  agents,
		coord:   coord,
		minter:  minter,
		metrics: metrics,
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", s.handleHealth)
	r.Get("/readyz", s.handleReady)
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		observability.MetricsHandler().ServeHTTP(w, r)
	})

	r.Post("/api/token", s.handleToken)

	r.Get("/v1/agents", s.handleListAgents)
	r.Post("/v1/agents/select", s.handleSelectAgent)

	r.Get("/v1/state", s.handleState)
	r.Get("/v1/conversations", s.handleListConversations)
	r.Get("/v1/conversations/{id}", s.handleGetConversation)
	r.Post("/v1/conversations/{id}/messages", s.handleAppendMessage)
	r.Put("/v1/preferences", s.handleUpdatePreferences)
	r.Post("/v1/auth/signin", s.handleSignIn)
	r.Post("/v1/auth/signout", s.handleSignOut)
	r.Post("/v1/ui/voice-mode", s.handleVoiceMode)
	r.Post("/v1/ui/settings-open", s.handleSettingsOpen)

	r.Post("/v1/call/connect", s.handleConnect)
	r.Post("/v1/call/disconnect", s.handleDisconnect)
	r.Post("/v1/call/mute", s.handleMute)
	r.Post("/v1/call/volume", s.handleVolume)
	r.Get("/v1/call/state", s.handleCallState)

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"status":             "ok",
		"media_provider":     s.cfg.MediaProvider,
		"signing_configured": s.minter.Configured(),
	})
}

func (s *Server) handleReady(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"status": "ready",
	})
}

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

var errEmptyBody = errors.New("empty body")

func decodeJSON(r *http.Request, out any) error {
	if r.Body == nil {
		return errEmptyBody
	}
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(out); err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "eof") {
			return errEmptyBody
		}
		return err
	}
	return nil
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, errorResponse{Error: message, Code: code})
}
