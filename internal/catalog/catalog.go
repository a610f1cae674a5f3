package catalog

import (
	"context"
	"errors"
)

// AgentStatus tells whether an agent can take a call right now.
type AgentStatus string

const (
	StatusOnline  AgentStatus = "online"
	StatusOffline AgentStatus = "offline"
	StatusBusy    AgentStatus = "busy"
)

var ErrNotFound = errors.New("agent not found")

// Agent is a selectable conversational counterpart.
type Agent struct {
	ID           string      `json:"id"`
	Name         string      `json:"name"`
	Description  string      `json:"description"`
	Voice        string      `json:"voice,omitempty"`
	Avatar       string      `json:"avatar,omitempty"`
	Capabilities []string    `json:"capabilities"`
	Status       AgentStatus `json:"status"`
}

// Provider supplies the agent catalog. The static provider below serves the
// built-in set; a backend-backed provider can replace it without touching
// callers.
type Provider interface {
	Agents(ctx context.Context) ([]Agent, error)
}

// StaticProvider serves a fixed agent list.
type StaticProvider struct {
	agents []Agent
}

func NewStaticProvider(agents []Agent) *StaticProvider {
	if agents == nil {
		agents = BuiltinAgents()
	}
	return &StaticProvider{agents: agents}
}

func (p *StaticProvider) Agents(_ context.Context) ([]Agent, error) {
	out := make([]Agent, len(p.agents))
	copy(out, p.agents)
	return out, nil
}

// BuiltinAgents returns the default catalog used until a real backend
// exists.
func BuiltinAgents() []Agent {
	return []Agent{
		{
			ID:           "assistant",
			Name:         "General Assistant",
			Description:  "Helpful AI assistant for everyday tasks",
			Capabilities: []string{"conversation", "information", "tasks"},
			Status:       StatusOnline,
		},
		{
			ID:           "security",
			Name:         "Security Expert",
			Description:  "Specialized in cybersecurity and best practices",
			Capabilities: []string{"security", "analysis", "guidance"},
			Status:       StatusOnline,
		},
		{
			ID:           "tutor",
			Name:         "Learning Tutor",
			Description:  "Educational assistant for various subjects",
			Capabilities: []string{"teaching", "explanation", "learning"},
			Status:       StatusOnline,
		},
	}
}

// Find returns the agent with the given id from the list.
func Find(agents []Agent, id string) (Agent, error) {
	for _, a := range agents {
		if a.ID == id {
			return a, nil
		}
	}
	return Agent{}, ErrNotFound
}
