package session

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"sync"

	"golang.org/x/time/rate"

	"github.com/textvault/textvault/internal/composer"
	"github.com/textvault/textvault/internal/editor"
	verrors "github.com/textvault/textvault/internal/errors"
	"github.com/textvault/textvault/internal/logging"
	"github.com/textvault/textvault/internal/theme"
)

var errManagerClosed = verrors.NewInternalError(verrors.ErrCodeSessionClosed, "session manager is shut down", nil)

// Manager owns the live sessions.
type Manager struct {
	cfg    Config
	sink   composer.Sink
	logger logging.Logger

	mu       sync.RWMutex
	sessions map[string]*Session
	closed   bool
}

// NewManager returns a manager whose sessions submit to sink.
func NewManager(cfg Config, sink composer.Sink, logger logging.Logger) *Manager {
	def := DefaultConfig()
	if cfg.SettleDelay <= 0 {
		cfg.SettleDelay = def.SettleDelay
	}
	if cfg.EventRate <= 0 {
		cfg.EventRate, cfg.EventBurst = def.EventRate, def.EventBurst
	}
	if cfg.EventBurst <= 0 {
		cfg.EventBurst = 1
	}
	if cfg.SubmitRate <= 0 {
		cfg.SubmitRate, cfg.SubmitBurst = def.SubmitRate, def.SubmitBurst
	}
	if cfg.SubmitBurst <= 0 {
		cfg.SubmitBurst = 1
	}
	if cfg.Outbound <= 0 {
		cfg.Outbound = def.Outbound
	}
	if logger == nil {
		logger = logging.Nop()
	}

	return &Manager{
		cfg:      cfg,
		sink:     sink,
		logger:   logger.WithComponent("session"),
		sessions: make(map[string]*Session),
	}
}

// Open mounts a new composer session. initial overrides the configured theme
// when set, e.g. from the page's stored preference. The first messages on
// the outbound queue configure the page editor and report the initial state.
func (m *Manager) Open(initial *theme.Mode) (*Session, error) {
	id, err := newID()
	if err != nil {
		return nil, err
	}

	mode := m.cfg.Theme
	if initial != nil {
		mode = *initial
	}

	s := &Session{
		id:      id,
		theme:   theme.NewSignal(mode),
		events:  rate.NewLimiter(rate.Limit(m.cfg.EventRate), m.cfg.EventBurst),
		submits: rate.NewLimiter(rate.Limit(m.cfg.SubmitRate), m.cfg.SubmitBurst),
		logger:  m.logger.With("session", id),
		out:     make(chan any, m.cfg.Outbound),
		done:    make(chan struct{}),
	}
	s.remote = editor.NewRemote(func(c editor.Command) { s.push(c) })

	var validator func(composer.Draft) composer.Verdict
	if m.cfg.Validate {
		validator = composer.Validate
	}

	s.composer = composer.New(composer.Options{
		Surface:     s.remote,
		Theme:       s.theme,
		Clock:       m.cfg.Clock,
		SettleDelay: m.cfg.SettleDelay,
		ReadySignal: m.cfg.ReadySignal,
		Sink:        m.sink,
		Validator:   validator,
		OnRender:    func(snap composer.Snapshot) { s.push(stateMessage(snap)) },
		Logger:      s.logger,
	})
	s.push(stateMessage(s.composer.Snapshot()))

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		s.Close()
		return nil, errManagerClosed
	}
	m.sessions[id] = s
	n := len(m.sessions)
	m.mu.Unlock()

	m.logger.Debug(context.Background(), "Session opened", "session", id, "sessions", n)
	return s, nil
}

// Get looks up a live session.
func (m *Manager) Get(id string) (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	return s, ok
}

// Close tears down and forgets one session.
func (m *Manager) Close(id string) {
	m.mu.Lock()
	s, ok := m.sessions[id]
	delete(m.sessions, id)
	n := len(m.sessions)
	m.mu.Unlock()

	if ok {
		s.Close()
		m.logger.Debug(context.Background(), "Session closed", "session", id, "sessions", n)
	}
}

// Len returns the number of live sessions.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Shutdown closes every session and refuses new ones.
func (m *Manager) Shutdown() {
	m.mu.Lock()
	m.closed = true
	sessions := m.sessions
	m.sessions = make(map[string]*Session)
	m.mu.Unlock()

	for _, s := range sessions {
		s.Close()
	}
}

func newID() (string, error) {
	var b [12]byte
	if _, err := rand.Read(b[:]); err != nil {
		return "", err
	}
	return hex.EncodeToString(b[:]), nil
}
