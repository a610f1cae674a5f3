package httpapi

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/gmasi/parley/internal/store"
)

func (s *Server) handleState(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, s.store.Snapshot())
}

func (s *Server) handleListAgents(w http.ResponseWriter, r *http.Request) {
	agents, err := s.agents.Agents(r.Context())
	if err != nil {
		respondError(w, http.StatusBadGateway, "catalog_unavailable", err.Error())
		return
	}
	s.store.SetAvailableAgents(agents)
	respondJSON(w, http.StatusOK, agents)
}

type selectAgentRequest struct {
	AgentID string `json:"agent_id"`
}

func (s *Server) handleSelectAgent(w http.ResponseWriter, r *http.Request) {
	var req selectAgentRequest
	if err := decodeJSON(r, &req); err != nil || strings.TrimSpace(req.AgentID) == "" {
		respondError(w, http.StatusBadRequest, "invalid_request", "agent_id is required")
		return
	}

	agent, ok := s.resolveAgent(w, r, req.AgentID)
	if !ok {
		return
	}
	s.store.SetSelectedAgent(&agent)
	respondJSON(w, http.StatusOK, agent)
}

func (s *Server) handleListConversations(w http.ResponseWriter, _ *http.Request) {
	st := s.store.Snapshot()
	if st.Conversations == nil {
		respondJSON(w, http.StatusOK, []store.Conversation{})
		return
	}
	respondJSON(w, http.StatusOK, st.Conversations)
}

func (s *Server) handleGetConversation(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	for _, c := range s.store.Snapshot().Conversations {
		if c.ID == id {
			respondJSON(w, http.StatusOK, c)
			return
		}
	}
	respondError(w, http.StatusNotFound, "conversation_not_found", "unknown conversation: "+id)
}

type appendMessageRequest struct {
	Content string            `json:"content"`
	Type    store.MessageType `json:"type"`
	Sender  store.Sender      `json:"sender"`
}

func (s *Server) handleAppendMessage(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req appendMessageRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	if strings.TrimSpace(req.Content) == "" {
		respondError(w, http.StatusBadRequest, "invalid_request", "content is required")
		return
	}
	switch req.Type {
	case "":
		req.Type = store.MessageText
	case store.MessageText, store.MessageAudio:
	default:
		respondError(w, http.StatusBadRequest, "invalid_request", "type must be text or audio")
		return
	}
	switch req.Sender {
	case store.SenderUser, store.SenderAgent:
	default:
		respondError(w, http.StatusBadRequest, "invalid_request", "sender must be user or agent")
		return
	}

	found := false
	for _, c := range s.store.Snapshot().Conversations {
		if c.ID == id {
			found = true
			break
		}
	}
	if !found {
		respondError(w, http.StatusNotFound, "conversation_not_found", "unknown conversation: "+id)
		return
	}

	msg := store.Message{
		ID:             uuid.NewString(),
		ConversationID: id,
		Content:        req.Content,
		Type:           req.Type,
		Sender:         req.Sender,
		Timestamp:      time.Now().UTC(),
	}
	s.store.AppendMessage(id, msg)
	respondJSON(w, http.StatusCreated, msg)
}

func (s *Server) handleUpdatePreferences(w http.ResponseWriter, r *http.Request) {
	var patch store.PreferencesPatch
	if err := decodeJSON(r, &patch); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	if patch.AudioQuality != nil {
		switch *patch.AudioQuality {
		case store.AudioQualityLow, store.AudioQualityMedium, store.AudioQualityHigh:
		default:
			respondError(w, http.StatusBadRequest, "invalid_request", "audioQuality must be low, medium or high")
			return
		}
	}
	if s.store.Snapshot().User == nil {
		respondError(w, http.StatusConflict, "no_user", "no user is signed in")
		return
	}

	s.store.UpdateUserPreferences(patch)
	respondJSON(w, http.StatusOK, s.store.Snapshot().User.Preferences)
}

type signInRequest struct {
	Email       string `json:"email"`
	DisplayName string `json:"displayName"`
}

func (s *Server) handleSignIn(w http.ResponseWriter, r *http.Request) {
	var req signInRequest
	if err := decodeJSON(r, &req); err != nil || strings.TrimSpace(req.Email) == "" {
		respondError(w, http.StatusBadRequest, "invalid_request", "email is required")
		return
	}
	if strings.TrimSpace(req.DisplayName) == "" {
		req.DisplayName = req.Email[:strings.IndexByte(req.Email+"@", '@')]
	}

	user := &store.User{
		ID:          uuid.NewString(),
		Email:       req.Email,
		DisplayName: req.DisplayName,
		Preferences: store.DefaultPreferences(),
	}
	s.store.SetUser(user)
	s.store.SetAuthenticated(true)
	respondJSON(w, http.StatusCreated, user)
}

func (s *Server) handleSignOut(w http.ResponseWriter, _ *http.Request) {
	s.store.SetUser(nil)
	s.store.SetAuthenticated(false)
	respondJSON(w, http.StatusOK, map[string]string{"status": "signed_out"})
}

type voiceModeRequest struct {
	Enabled bool `json:"enabled"`
}

func (s *Server) handleVoiceMode(w http.ResponseWriter, r *http.Request) {
	var req voiceModeRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	s.store.SetVoiceMode(req.Enabled)
	respondJSON(w, http.StatusOK, map[string]bool{"isVoiceMode": req.Enabled})
}

type settingsOpenRequest struct {
	Open bool `json:"open"`
}

func (s *Server) handleSettingsOpen(w http.ResponseWriter, r *http.Request) {
	var req settingsOpenRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	s.store.SetSettingsOpen(req.Open)
	respondJSON(w, http.StatusOK, map[string]bool{"isSettingsOpen": req.Open})
}
