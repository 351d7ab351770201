package session

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/opd-ai/peerdrop/transport"
	"github.com/sirupsen/logrus"
)

// TimeProvider abstracts time operations for deterministic testing.
type TimeProvider interface {
	Now() time.Time
	Since(t time.Time) time.Duration
}

// DefaultTimeProvider uses the standard library time functions.
type DefaultTimeProvider struct{}

// Now returns the current time.
func (DefaultTimeProvider) Now() time.Time { return time.Now() }

// Since returns the duration since t.
func (DefaultTimeProvider) Since(t time.Time) time.Duration { return time.Since(t) }

// Manager owns the sessions of one local node, keyed by remote peer id.
type Manager struct {
	mu           sync.Mutex
	sessions     map[string]*Session
	timeProvider TimeProvider
	closed       bool
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithTimeProvider sets a custom time provider for deterministic testing.
func WithTimeProvider(tp TimeProvider) ManagerOption {
	return func(m *Manager) {
		if tp != nil {
			m.timeProvider = tp
		}
	}
}

// NewManager creates an empty session manager.
func NewManager(opts ...ManagerOption) *Manager {
	m := &Manager{
		sessions:     make(map[string]*Session),
		timeProvider: DefaultTimeProvider{},
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Create registers a new connecting session for remotePeerID that owns a.
// An existing session for the same id is torn down first.
func (m *Manager) Create(remotePeerID string, a transport.Adapter) (*Session, error) {
	if remotePeerID == "" {
		return nil, ErrEmptyPeerID
	}

	now := m.timeProvider.Now()
	ctx, cancel := context.WithCancelCause(context.Background())
	s := &Session{
		ID:           remotePeerID,
		Status:       StatusConnecting,
		LastActivity: now,
		CreatedAt:    now,
		adapter:      a,
		ctx:          ctx,
		cancel:       cancel,
	}

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		cancel(ErrManagerClosed)
		return nil, ErrManagerClosed
	}
	old := m.sessions[remotePeerID]
	m.sessions[remotePeerID] = s
	snap := s.snapshot()
	m.mu.Unlock()

	if old != nil {
		logrus.WithFields(logrus.Fields{
			"function":   "Create",
			"session_id": remotePeerID,
			"old_status": old.Status.String(),
		}).Info("Replacing existing session")
		if old.adapter == a {
			// The new session owns the same adapter; only revoke the old context.
			old.cancel(ErrSessionReplaced)
		} else {
			teardown(old, ErrSessionReplaced)
		}
	}

	logrus.WithFields(logrus.Fields{
		"function":   "Create",
		"session_id": remotePeerID,
	}).Info("Session created")

	return snap, nil
}

// UpdateStatus moves a session to status and refreshes its activity time.
func (m *Manager) UpdateStatus(id string, status Status) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	if !canTransition(s.Status, status) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, s.Status, status)
	}

	if s.Status != status {
		logrus.WithFields(logrus.Fields{
			"function":   "UpdateStatus",
			"session_id": id,
			"old_status": s.Status.String(),
			"new_status": status.String(),
		}).Info("Session status changed")
	}
	s.Status = status
	s.LastActivity = m.timeProvider.Now()
	return nil
}

// RecordProgress stores the latest transfer progress percentage.
func (m *Manager) RecordProgress(id string, percent int) error {
	if percent < 0 || percent > 100 {
		return fmt.Errorf("%w: %d", ErrInvalidProgress, percent)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	s.Progress = percent
	s.LastActivity = m.timeProvider.Now()
	return nil
}

// RecordReceivedFile appends f to the session's received-file history.
func (m *Manager) RecordReceivedFile(id string, f ReceivedFile) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	now := m.timeProvider.Now()
	if f.ReceivedAt.IsZero() {
		f.ReceivedAt = now
	}
	s.ReceivedFiles = append(s.ReceivedFiles, f)
	s.LastActivity = now

	logrus.WithFields(logrus.Fields{
		"function":   "RecordReceivedFile",
		"session_id": id,
		"file_name":  f.Name,
		"file_size":  f.Size,
		"count":      len(s.ReceivedFiles),
	}).Debug("Received file recorded")
	return nil
}

// Touch refreshes the session's activity time.
func (m *Manager) Touch(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	s.LastActivity = m.timeProvider.Now()
	return nil
}

// Lookup returns a snapshot of the session for id.
func (m *Manager) Lookup(id string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	return s.snapshot(), nil
}

// Remove tears down and forgets the session for id.
func (m *Manager) Remove(id string) error {
	m.mu.Lock()
	s, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()

	if !ok {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}

	logrus.WithFields(logrus.Fields{
		"function":   "Remove",
		"session_id": id,
	}).Info("Session removed")

	teardown(s, ErrSessionRemoved)
	return nil
}

// List returns snapshots of all sessions ordered by id.
func (m *Manager) List() []*Session {
	m.mu.Lock()
	out := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		out = append(out, s.snapshot())
	}
	m.mu.Unlock()

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Len returns the number of live sessions.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// EvictIdle removes every session whose last activity is more than timeout
// ago and returns their ids in order. A session idle for exactly timeout is kept.
func (m *Manager) EvictIdle(timeout time.Duration) []string {
	var evicted []*Session

	m.mu.Lock()
	for id, s := range m.sessions {
		if m.timeProvider.Since(s.LastActivity) > timeout {
			evicted = append(evicted, s)
			delete(m.sessions, id)
		}
	}
	m.mu.Unlock()

	sort.Slice(evicted, func(i, j int) bool { return evicted[i].ID < evicted[j].ID })
	ids := make([]string, 0, len(evicted))
	for _, s := range evicted {
		logrus.WithFields(logrus.Fields{
			"function":      "EvictIdle",
			"session_id":    s.ID,
			"status":        s.Status.String(),
			"last_activity": s.LastActivity,
			"timeout":       timeout,
		}).Info("Evicting idle session")

		teardown(s, ErrSessionEvicted)
		ids = append(ids, s.ID)
	}
	return ids
}

// Run evicts sessions idle for more than timeout every interval until ctx is done.
func (m *Manager) Run(ctx context.Context, interval, timeout time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			m.EvictIdle(timeout)
		}
	}
}

// Close tears down every session. Create fails afterwards.
func (m *Manager) Close() error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil
	}
	m.closed = true
	sessions := m.sessions
	m.sessions = make(map[string]*Session)
	m.mu.Unlock()

	logrus.WithFields(logrus.Fields{
		"function": "Close",
		"sessions": len(sessions),
	}).Info("Closing session manager")

	for _, s := range sessions {
		teardown(s, ErrManagerClosed)
	}
	return nil
}

// teardown cancels the session context and closes its adapter.
func teardown(s *Session, cause error) {
	s.cancel(cause)
	if s.adapter == nil {
		return
	}
	if err := s.adapter.Close(); err != nil {
		logrus.WithFields(logrus.Fields{
			"function":   "teardown",
			"session_id": s.ID,
			"error":      err.Error(),
		}).Warn("Failed to close session adapter")
	}
}
