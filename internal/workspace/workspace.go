// Package workspace owns the resource stores of one admin session. Stores
// are created on first use and injected into handlers through the request
// context, so no store is shared between operators.
package workspace

import (
	"sync"
	"time"

	EventBus "github.com/asaskevich/EventBus"
	"go.uber.org/zap"

	"github.com/jyotishdesk/backoffice/internal/domain"
	"github.com/jyotishdesk/backoffice/internal/resource"
)

// Canceller is the type-erased view of a *resource.Store.
type Canceller interface {
	Name() string
	Cancel()
}

// Options configures the clients behind a workspace.
type Options struct {
	BaseURL string
	Timeout time.Duration
	Bus     EventBus.Bus
	Tokens  func(operator string) resource.TokenSource
}

// Workspace is the set of stores of one session.
type Workspace struct {
	ID       string
	Operator string

	opts     Options
	mu       sync.Mutex
	stores   map[string]Canceller
	lastUsed time.Time
}

func newWorkspace(id, operator string, opts Options) *Workspace {
	return &Workspace{
		ID:       id,
		Operator: operator,
		opts:     opts,
		stores:   map[string]Canceller{},
		lastUsed: time.Now(),
	}
}

func (w *Workspace) touch(now time.Time) {
	w.mu.Lock()
	w.lastUsed = now
	w.mu.Unlock()
}

// LastUsed returns when the workspace last served a request.
func (w *Workspace) LastUsed() time.Time {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.lastUsed
}

// Cancel aborts every in-flight operation of every store.
func (w *Workspace) Cancel() {
	w.mu.Lock()
	stores := make([]Canceller, 0, len(w.stores))
	for _, s := range w.stores {
		stores = append(stores, s)
	}
	w.mu.Unlock()
	for _, s := range stores {
		s.Cancel()
	}
}

func (w *Workspace) clientOptions() []resource.ClientOption {
	opts := []resource.ClientOption{resource.WithTimeout(w.opts.Timeout)}
	if w.opts.Tokens != nil {
		opts = append(opts, resource.WithTokenSource(w.opts.Tokens(w.Operator)))
	}
	return opts
}

// ClientOf returns a client for the named resource using the workspace
// credentials. Clients hold no state; exports and counts use them directly.
func ClientOf[T any](w *Workspace, name string) *resource.Client[T] {
	return resource.NewClient[T](name, w.opts.BaseURL, domain.ResourcePaths[name], w.clientOptions()...)
}

// StoreOf returns the store of the named resource, creating it on first use.
func StoreOf[T resource.Entity](w *Workspace, name string) *resource.Store[T] {
	w.mu.Lock()
	defer w.mu.Unlock()
	if s, ok := w.stores[name]; ok {
		if typed, ok := s.(*resource.Store[T]); ok {
			return typed
		}
		zap.L().Error("store registered with another entity type", zap.String("resource", name))
	}
	var opts []resource.StoreOption
	if w.opts.Bus != nil {
		opts = append(opts, resource.WithBus(w.opts.Bus))
	}
	s := resource.NewStore[T](name, ClientOf[T](w, name), opts...)
	w.stores[name] = s
	return s
}

// Manager keeps the workspaces of live sessions.
type Manager struct {
	opts Options
	mu   sync.Mutex
	all  map[string]*Workspace
	now  func() time.Time
}

func NewManager(opts Options) *Manager {
	return &Manager{opts: opts, all: map[string]*Workspace{}, now: time.Now}
}

// Get returns the workspace of a session, creating it when missing or when
// the session now belongs to another operator.
func (m *Manager) Get(sessionID, operator string) *Workspace {
	var replaced *Workspace
	m.mu.Lock()
	ws, ok := m.all[sessionID]
	if !ok || ws.Operator != operator {
		if ok {
			replaced = ws
		}
		ws = newWorkspace(sessionID, operator, m.opts)
		m.all[sessionID] = ws
	}
	m.mu.Unlock()
	if replaced != nil {
		replaced.Cancel()
	}
	ws.touch(m.now())
	return ws
}

// Drop cancels and forgets the workspace of a session.
func (m *Manager) Drop(sessionID string) {
	m.mu.Lock()
	ws, ok := m.all[sessionID]
	delete(m.all, sessionID)
	m.mu.Unlock()
	if ok {
		ws.Cancel()
	}
}

// Evict drops workspaces idle for longer than idle and returns how many were
// removed.
func (m *Manager) Evict(idle time.Duration) int {
	cutoff := m.now().Add(-idle)
	var stale []*Workspace
	m.mu.Lock()
	for id, ws := range m.all {
		if ws.LastUsed().Before(cutoff) {
			stale = append(stale, ws)
			delete(m.all, id)
		}
	}
	m.mu.Unlock()
	for _, ws := range stale {
		ws.Cancel()
	}
	return len(stale)
}

// OperatorSessions counts the live workspaces of operator.
func (m *Manager) OperatorSessions(operator string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, ws := range m.all {
		if ws.Operator == operator {
			n++
		}
	}
	return n
}

// Len returns the number of live workspaces.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.all)
}

// CloseAll cancels every workspace, used at shutdown.
func (m *Manager) CloseAll() {
	m.mu.Lock()
	all := m.all
	m.all = map[string]*Workspace{}
	m.mu.Unlock()
	for _, ws := range all {
		ws.Cancel()
	}
}
