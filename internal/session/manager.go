package session

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/schoemantian/pokemon-agent/internal/constants"
	"github.com/schoemantian/pokemon-agent/internal/engine"
	"github.com/schoemantian/pokemon-agent/internal/monitor"
	"github.com/schoemantian/pokemon-agent/internal/oracle"
	"github.com/schoemantian/pokemon-agent/internal/scorer"
	"github.com/schoemantian/pokemon-agent/internal/storage"
	"github.com/schoemantian/pokemon-agent/internal/transport"
)

// TransportFactory builds the transport for a new battle. onActivity
// must be invoked on transport traffic (stall detection).
type TransportFactory func(format string, onActivity func()) (transport.Transport, error)

// Defaults are the manager-wide settings applied to sessions that do
// not override them.
type Defaults struct {
	Format  string
	Oracle  string
	Model   string
	Weights scorer.Weights
	Engine  engine.Config
}

// Options configures one battle session. Zero-valued fields fall back
// to the manager's defaults.
type Options struct {
	Format string
	Oracle string
	Policy monitor.Policy
}

// Manager owns all running sessions. Sessions are fully independent;
// the manager only hands out IDs and supervises their goroutines.
type Manager struct {
	repo         storage.Repository
	newTransport TransportFactory
	defaults     Defaults

	group *errgroup.Group
	ctx   context.Context

	mu       sync.Mutex
	sessions map[string]*Session
	nextID   atomic.Int64
}

// NewManager returns a manager supervising sessions under ctx.
func NewManager(ctx context.Context, repo storage.Repository, factory TransportFactory, defaults Defaults) *Manager {
	g, gctx := errgroup.WithContext(ctx)
	return &Manager{
		repo:         repo,
		newTransport: factory,
		defaults:     defaults,
		group:        g,
		ctx:          gctx,
		sessions:     make(map[string]*Session),
	}
}

// Start assembles a session from the options and launches it.
func (m *Manager) Start(opts Options) (*Session, error) {
	format := opts.Format
	if format == "" {
		format = m.defaults.Format
	}
	advisor, err := m.newAdvisor(opts.Oracle)
	if err != nil {
		return nil, err
	}
	policy := opts.Policy
	if policy == (monitor.Policy{}) {
		policy = monitor.DefaultPolicy()
	}

	bus := NewEventBus()
	mon := monitor.New(policy, bus.Emit)
	tr, err := m.newTransport(format, mon.Touch)
	if err != nil {
		return nil, fmt.Errorf("failed to open transport: %w", err)
	}

	id := fmt.Sprintf("battle-%d", m.nextID.Add(1))
	eng := engine.New(scorer.New(m.defaults.Weights), m.defaults.Engine)
	s := New(id, format, tr, eng, advisor, mon, m.repo, bus)

	m.mu.Lock()
	m.sessions[id] = s
	m.mu.Unlock()

	m.group.Go(func() error { return s.Run(m.ctx) })
	return s, nil
}

func (m *Manager) newAdvisor(name string) (oracle.Advisor, error) {
	if name == "" {
		name = m.defaults.Oracle
	}
	if (name == "" || name == constants.OracleOpenAI) && m.defaults.Model != "" {
		return oracle.NewOpenAIAdvisor(m.defaults.Model), nil
	}
	return oracle.New(name)
}

// Get looks a session up by ID.
func (m *Manager) Get(id string) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	return s, ok
}

// List returns all known sessions.
func (m *Manager) List() []*Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		out = append(out, s)
	}
	return out
}

// Wait blocks until every running session has concluded.
func (m *Manager) Wait() error { return m.group.Wait() }
