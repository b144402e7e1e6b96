package api

import (
	"github.com/schoemantian/pokemon-agent/internal/monitor"
	"github.com/schoemantian/pokemon-agent/internal/session"
	"github.com/schoemantian/pokemon-agent/internal/storage"
)

// AgentHandler groups all battle-related HTTP handlers.
type AgentHandler struct {
	manager *session.Manager
	repo    storage.Repository
	policy  monitor.Policy
}

// NewAgentHandler creates a handler backed by the given session manager
// and result repository. policy is the default timeout policy applied
// to battles started without overrides.
func NewAgentHandler(manager *session.Manager, repo storage.Repository, policy monitor.Policy) *AgentHandler {
	return &AgentHandler{manager: manager, repo: repo, policy: policy}
}
