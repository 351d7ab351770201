package session

import (
	"sync"
	"time"

	"github.com/opd-ai/peerdrop/transport"
)

// mockTimeProvider provides deterministic time for testing.
type mockTimeProvider struct {
	mu          sync.Mutex
	currentTime time.Time
}

func (m *mockTimeProvider) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.currentTime
}

func (m *mockTimeProvider) Since(t time.Time) time.Duration {
	return m.Now().Sub(t)
}

func (m *mockTimeProvider) advance(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.currentTime = m.currentTime.Add(d)
}

func newMockTimeProvider() *mockTimeProvider {
	return &mockTimeProvider{
		currentTime: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

// mockAdapter records whether it has been closed.
type mockAdapter struct {
	mu     sync.Mutex
	closed int
}

func (m *mockAdapter) Send([]byte) error      { return nil }
func (m *mockAdapter) BufferedAmount() uint64 { return 0 }
func (m *mockAdapter) MaxMessageSize() uint64 { return transport.DefaultMaxMessageSize }
func (m *mockAdapter) Bind(transport.Handler) {}
func (m *mockAdapter) closeCount() int        { m.mu.Lock(); defer m.mu.Unlock(); return m.closed }
func (m *mockAdapter) Close() error           { m.mu.Lock(); defer m.mu.Unlock(); m.closed++; return nil }
