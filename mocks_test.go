package peerdrop

import (
	"errors"
	"sync"
	"time"

	"github.com/opd-ai/peerdrop/notify"
	"github.com/opd-ai/peerdrop/session"
	"github.com/opd-ai/peerdrop/transport"
)

// mockTimeProvider allows tests to control time deterministically.
type mockTimeProvider struct {
	mu          sync.Mutex
	currentTime time.Time
}

func newMockTimeProvider() *mockTimeProvider {
	return &mockTimeProvider{currentTime: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (m *mockTimeProvider) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.currentTime
}

func (m *mockTimeProvider) Since(t time.Time) time.Duration {
	return m.Now().Sub(t)
}

func (m *mockTimeProvider) Advance(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.currentTime = m.currentTime.Add(d)
}

// recordingNotifier captures notifier events.
type recordingNotifier struct {
	mu       sync.Mutex
	files    []notify.ReceivedFile
	statuses []session.Status
	progress []int
	failed   []string
	errs     []error
}

func (r *recordingNotifier) FileReceived(_ string, f notify.ReceivedFile) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.files = append(r.files, f)
}

func (r *recordingNotifier) TransferProgress(_ string, percent int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.progress = append(r.progress, percent)
}

func (r *recordingNotifier) SessionStatusChanged(_ string, status session.Status) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.statuses = append(r.statuses, status)
}

func (r *recordingNotifier) TransportError(_ string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errs = append(r.errs, err)
}

func (r *recordingNotifier) TransferFailed(_ string, name string, _ error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failed = append(r.failed, name)
}

func (r *recordingNotifier) receivedFiles() []notify.ReceivedFile {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]notify.ReceivedFile(nil), r.files...)
}

func (r *recordingNotifier) statusHistory() []session.Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]session.Status(nil), r.statuses...)
}

func (r *recordingNotifier) transportErrors() []error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]error(nil), r.errs...)
}

func (r *recordingNotifier) failedFiles() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.failed...)
}

var errSendRefused = errors.New("send refused")

// brokenAdapter fails every Send and lets tests raise handler events.
type brokenAdapter struct {
	mu      sync.Mutex
	handler transport.Handler
	closed  bool
}

func (b *brokenAdapter) Send([]byte) error      { return errSendRefused }
func (b *brokenAdapter) BufferedAmount() uint64 { return 0 }
func (b *brokenAdapter) MaxMessageSize() uint64 { return transport.DefaultMaxMessageSize }

func (b *brokenAdapter) Bind(h transport.Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handler = h
}

func (b *brokenAdapter) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	return nil
}

func (b *brokenAdapter) bound() transport.Handler {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.handler
}

func (b *brokenAdapter) isClosed() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.closed
}

// stuckAdapter never drains its send buffer.
type stuckAdapter struct {
	brokenAdapter
}

func (s *stuckAdapter) Send([]byte) error      { return nil }
func (s *stuckAdapter) BufferedAmount() uint64 { return 1 << 30 }
