package store

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/gmasi/parley/internal/catalog"
)

// State is the full application state read by every screen. Only the
// subset in persistedState survives a restart; everything else starts at
// its zero default so stale transient state cannot be resumed.
type State struct {
	User                *User           `json:"user"`
	Authenticated       bool            `json:"isAuthenticated"`
	AvailableAgents     []catalog.Agent `json:"availableAgents"`
	SelectedAgent       *catalog.Agent  `json:"selectedAgent"`
	Conversations       []Conversation  `json:"conversations"`
	CurrentConversation *Conversation   `json:"currentConversation"`
	VoiceMode           bool            `json:"isVoiceMode"`
	SettingsOpen        bool            `json:"isSettingsOpen"`
}

// persistedState is the durable subset of State, stored as one JSON
// document under the storage namespace.
type persistedState struct {
	User          *User          `json:"user"`
	SelectedAgent *catalog.Agent `json:"selectedAgent"`
	Conversations []Conversation `json:"conversations"`
	VoiceMode     bool           `json:"isVoiceMode"`
}

const persistTimeout = 5 * time.Second

// Store is the single authoritative state container. It is constructed
// once at application start and passed by reference to consumers. Every
// mutation rewrites the persisted subset through the configured Persister;
// persistence is best-effort and never fails the mutation.
type Store struct {
	mu        sync.RWMutex
	state     State
	persister Persister
	namespace string

	onMutation     func(op string)
	onPersistError func(err error)
}

// New builds a store and rehydrates the persisted subset before first
// read. A missing document is not an error: the store starts fresh.
func New(ctx context.Context, persister Persister, namespace string) (*Store, error) {
	s := &Store{
		persister: persister,
		namespace: namespace,
		state: State{
			VoiceMode: true,
		},
	}

	data, err := persister.Load(ctx, namespace)
	if err != nil {
		if err == ErrNoState {
			return s, nil
		}
		return nil, fmt.Errorf("load persisted state: %w", err)
	}

	var saved persistedState
	if err := json.Unmarshal(data, &saved); err != nil {
		return nil, fmt.Errorf("decode persisted state: %w", err)
	}
	s.state.User = saved.User
	s.state.SelectedAgent = saved.SelectedAgent
	s.state.Conversations = saved.Conversations
	s.state.VoiceMode = saved.VoiceMode
	return s, nil
}

// SetHooks installs optional instrumentation callbacks.
func (s *Store) SetHooks(onMutation func(op string), onPersistError func(err error)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onMutation = onMutation
	s.onPersistError = onPersistError
}

// Snapshot returns a copy of the current state safe for concurrent use.
func (s *Store) Snapshot() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return State{
		User:                cloneUser(s.state.User),
		Authenticated:       s.state.Authenticated,
		AvailableAgents:     append([]catalog.Agent(nil), s.state.AvailableAgents...),
		SelectedAgent:       cloneAgent(s.state.SelectedAgent),
		Conversations:       cloneConversations(s.state.Conversations),
		CurrentConversation: cloneConversationPtr(s.state.CurrentConversation),
		VoiceMode:           s.state.VoiceMode,
		SettingsOpen:        s.state.SettingsOpen,
	}
}

// SetUser replaces the identity wholesale; nil clears it. Authenticated is
// deliberately not touched: the two setters are independent, as in the
// client this store descends from.
func (s *Store) SetUser(u *User) {
	s.mutate("set_user", func(st *State) {
		st.User = cloneUser(u)
	})
}

func (s *Store) SetAuthenticated(authenticated bool) {
	s.mutate("set_authenticated", func(st *State) {
		st.Authenticated = authenticated
	})
}

// SetAvailableAgents replaces the catalog. It does not revalidate
// SelectedAgent against the new list; a stale selection is the caller's
// problem until selection is next changed.
func (s *Store) SetAvailableAgents(agents []catalog.Agent) {
	s.mutate("set_available_agents", func(st *State) {
		st.AvailableAgents = append([]catalog.Agent(nil), agents...)
	})
}

func (s *Store) SetSelectedAgent(agent *catalog.Agent) {
	s.mutate("set_selected_agent", func(st *State) {
		st.SelectedAgent = cloneAgent(agent)
	})
}

// AddConversation prepends the conversation to the history. No dedup by id
// happens here; callers must not insert the same id twice.
func (s *Store) AddConversation(c Conversation) {
	s.mutate("add_conversation", func(st *State) {
		list := make([]Conversation, 0, len(st.Conversations)+1)
		list = append(list, cloneConversation(c))
		list = append(list, st.Conversations...)
		st.Conversations = list
	})
}

// UpdateConversation merges the patch into the conversation with the
// matching id. Unknown ids are a silent no-op. When the current
// conversation has the same id the patch is mirrored into it.
func (s *Store) UpdateConversation(id string, patch ConversationPatch) {
	s.mutate("update_conversation", func(st *State) {
		for i := range st.Conversations {
			if st.Conversations[i].ID == id {
				st.Conversations[i] = applyConversationPatch(st.Conversations[i], patch)
				break
			}
		}
		if st.CurrentConversation != nil && st.CurrentConversation.ID == id {
			updated := applyConversationPatch(*st.CurrentConversation, patch)
			st.CurrentConversation = &updated
		}
	})
}

// AppendMessage appends a turn to the conversation with the matching id,
// mirroring into the current conversation. Unknown ids are a no-op.
func (s *Store) AppendMessage(conversationID string, msg Message) {
	s.mutate("append_message", func(st *State) {
		for i := range st.Conversations {
			if st.Conversations[i].ID == conversationID {
				st.Conversations[i].Messages = append(st.Conversations[i].Messages, msg)
				break
			}
		}
		if st.CurrentConversation != nil && st.CurrentConversation.ID == conversationID {
			st.CurrentConversation.Messages = append(st.CurrentConversation.Messages, msg)
		}
	})
}

func (s *Store) SetCurrentConversation(c *Conversation) {
	s.mutate("set_current_conversation", func(st *State) {
		st.CurrentConversation = cloneConversationPtr(c)
	})
}

func (s *Store) SetVoiceMode(enabled bool) {
	s.mutate("set_voice_mode", func(st *State) {
		st.VoiceMode = enabled
	})
}

func (s *Store) SetSettingsOpen(open bool) {
	s.mutate("set_settings_open", func(st *State) {
		st.SettingsOpen = open
	})
}

// UpdateUserPreferences merges the patch into the user's preferences.
// With no user set this is a no-op.
func (s *Store) UpdateUserPreferences(patch PreferencesPatch) {
	s.mutate("update_user_preferences", func(st *State) {
		if st.User == nil {
			return
		}
		u := *st.User
		u.Preferences = applyPreferencesPatch(u.Preferences, patch)
		st.User = &u
	})
}

func (s *Store) mutate(op string, fn func(st *State)) {
	s.mu.Lock()
	fn(&s.state)
	data, err := json.Marshal(persistedState{
		User:          s.state.User,
		SelectedAgent: s.state.SelectedAgent,
		Conversations: s.state.Conversations,
		VoiceMode:     s.state.VoiceMode,
	})
	onMutation := s.onMutation
	onPersistError := s.onPersistError
	s.mu.Unlock()

	if onMutation != nil {
		onMutation(op)
	}
	if err != nil {
		s.reportPersistError(onPersistError, fmt.Errorf("encode persisted state: %w", err))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()
	if err := s.persister.Save(ctx, s.namespace, data); err != nil {
		s.reportPersistError(onPersistError, fmt.Errorf("save persisted state: %w", err))
	}
}

func (s *Store) reportPersistError(hook func(error), err error) {
	log.Printf("store: %v", err)
	if hook != nil {
		hook(err)
	}
}
