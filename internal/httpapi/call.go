package httpapi

import (
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gmasi/parley/internal/catalog"
	"github.com/gmasi/parley/internal/realtime"
	"github.com/gmasi/parley/internal/store"
	"github.com/gmasi/parley/internal/token"
)

type connectRequest struct {
	AgentID string `json:"agent_id"`
}

type connectResponse struct {
	Session      *realtime.Session  `json:"session"`
	Conversation store.Conversation `json:"conversation"`
}

func (s *Server) handleConnect(w http.ResponseWriter, r *http.Request) {
	var req connectRequest
	if err := decodeJSON(r, &req); err != nil || strings.TrimSpace(req.AgentID) == "" {
		respondError(w, http.StatusBadRequest, "invalid_request", "agent_id is required")
		return
	}

	agent, ok := s.resolveAgent(w, r, req.AgentID)
	if !ok {
		return
	}

	// Reject before touching the store so a busy coordinator leaves no
	// orphaned conversation behind.
	if cur := s.coord.CurrentSession(); cur != nil && cur.Active {
		respondError(w, http.StatusConflict, "session_active", realtime.ErrSessionActive.Error())
		return
	}

	// The platform joins the room named in the token grant; the session's
	// local room label is independent of it.
	identity := "anonymous"
	if u := s.store.Snapshot().User; u != nil {
		identity = u.ID
	}
	signed, err := s.minter.Mint("room_"+agent.ID, identity)
	if err != nil {
		if errors.Is(err, token.ErrNotConfigured) {
			respondError(w, http.StatusInternalServerError, "not_configured", msgNotConfigured)
			return
		}
		log.Printf("httpapi: mint join token: %v", err)
		respondError(w, http.StatusInternalServerError, "signing_failed", msgSigningFailed)
		return
	}

	s.store.SetSelectedAgent(&agent)
	conv := store.NewConversation(agent)
	s.store.AddConversation(conv)

	s.metrics.ConnectionEvents.WithLabelValues("connect_requested").Inc()
	started := time.Now()
	sess, err := s.coord.ConnectToAgent(r.Context(), agent, s.cfg.LiveKitHost, signed)
	if err != nil {
		failed := store.ConversationFailed
		end := time.Now().UTC()
		s.store.UpdateConversation(conv.ID, store.ConversationPatch{Status: &failed, EndTime: &end})
		if errors.Is(err, realtime.ErrSessionActive) {
			// Lost the race against a concurrent connect.
			respondError(w, http.StatusConflict, "session_active", err.Error())
			return
		}
		s.metrics.ConnectionEvents.WithLabelValues("connect_failed").Inc()
		respondError(w, http.StatusBadGateway, "connect_failed", err.Error())
		return
	}
	s.metrics.ObserveConnectDuration(time.Since(started))
	s.metrics.ConnectionEvents.WithLabelValues("connected").Inc()
	s.metrics.ActiveSession.Set(1)

	s.store.SetCurrentConversation(&conv)
	respondJSON(w, http.StatusCreated, connectResponse{Session: sess, Conversation: conv})
}

func (s *Server) handleDisconnect(w http.ResponseWriter, r *http.Request) {
	err := s.coord.Disconnect(r.Context())

	// The local session ended either way; the conversation record closes
	// with it.
	if current := s.store.Snapshot().CurrentConversation; current != nil {
		completed := store.ConversationCompleted
		end := time.Now().UTC()
		duration := int64(end.Sub(current.StartTime) / time.Second)
		s.store.UpdateConversation(current.ID, store.ConversationPatch{
			Status:   &completed,
			EndTime:  &end,
			Duration: &duration,
		})
		s.store.SetCurrentConversation(nil)
	}

	s.metrics.ConnectionEvents.WithLabelValues("disconnected").Inc()
	s.metrics.ActiveSession.Set(0)

	if err != nil {
		respondError(w, http.StatusBadGateway, "disconnect_failed", err.Error())
		return
	}
	respondJSON(w, http.StatusOK, s.coord.Snapshot())
}

type muteRequest struct {
	Muted bool `json:"muted"`
}

func (s *Server) handleMute(w http.ResponseWriter, r *http.Request) {
	var req muteRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	if err := s.coord.MuteMicrophone(r.Context(), req.Muted); err != nil {
		respondError(w, http.StatusBadGateway, "mute_failed", err.Error())
		return
	}
	respondJSON(w, http.StatusOK, s.coord.Snapshot())
}

type volumeRequest struct {
	Volume float64 `json:"volume"`
}

func (s *Server) handleVolume(w http.ResponseWriter, r *http.Request) {
	var req volumeRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	// The expected range is [0,1]; values outside it are passed through
	// unclamped, matching the coordinator contract.
	if err := s.coord.SetSpeakerVolume(r.Context(), req.Volume); err != nil {
		respondError(w, http.StatusBadGateway, "volume_failed", err.Error())
		return
	}
	respondJSON(w, http.StatusOK, s.coord.Snapshot())
}

func (s *Server) handleCallState(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, s.coord.Snapshot())
}

// resolveAgent loads the catalog, refreshes the store copy and returns the
// requested agent when it is callable. Writes the error response itself.
func (s *Server) resolveAgent(w http.ResponseWriter, r *http.Request, agentID string) (catalog.Agent, bool) {
	agents, err := s.agents.Agents(r.Context())
	if err != nil {
		respondError(w, http.StatusBadGateway, "catalog_unavailable", err.Error())
		return catalog.Agent{}, false
	}
	s.store.SetAvailableAgents(agents)

	agent, err := catalog.Find(agents, agentID)
	if err != nil {
		respondError(w, http.StatusNotFound, "agent_not_found", "unknown agent: "+agentID)
		return catalog.Agent{}, false
	}
	if agent.Status != catalog.StatusOnline {
		respondError(w, http.StatusConflict, "agent_unavailable", "this agent is currently "+string(agent.Status))
		return catalog.Agent{}, false
	}
	return agent, true
}
