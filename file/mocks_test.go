package file

import (
	"errors"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/opd-ai/peerdrop/limits"
	"github.com/opd-ai/peerdrop/transport"
	"github.com/stretchr/testify/require"
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

// mockAdapter implements transport.Adapter with a settable buffer gauge.
type mockAdapter struct {
	mu        sync.Mutex
	sent      [][]byte
	buffered  uint64
	maxSize   uint64
	sendErr   error
	afterSend func(count int)
}

func newMockAdapter() *mockAdapter {
	return &mockAdapter{maxSize: 65535}
}

func (m *mockAdapter) Send(data []byte) error {
	m.mu.Lock()
	if m.sendErr != nil {
		m.mu.Unlock()
		return m.sendErr
	}
	msg := make([]byte, len(data))
	copy(msg, data)
	m.sent = append(m.sent, msg)
	count := len(m.sent)
	hook := m.afterSend
	m.mu.Unlock()

	if hook != nil {
		hook(count)
	}
	return nil
}

func (m *mockAdapter) BufferedAmount() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.buffered
}

func (m *mockAdapter) setBuffered(n uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.buffered = n
}

func (m *mockAdapter) MaxMessageSize() uint64 { return m.maxSize }

func (m *mockAdapter) Bind(transport.Handler) {}

func (m *mockAdapter) Close() error { return nil }

func (m *mockAdapter) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sent)
}

func (m *mockAdapter) raw() [][]byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([][]byte(nil), m.sent...)
}

// messages decodes everything sent so far.
func (m *mockAdapter) messages(t *testing.T) []Message {
	t.Helper()
	var out []Message
	for _, data := range m.raw() {
		msg, err := Decode(data)
		require.NoError(t, err)
		out = append(out, msg)
	}
	return out
}

type failure struct {
	progress Progress
	err      error
}

// recordingObserver captures observer events.
type recordingObserver struct {
	mu       sync.Mutex
	progress []Progress
	received []ReceivedFile
	failed   []failure
}

func (o *recordingObserver) TransferProgress(p Progress) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.progress = append(o.progress, p)
}

func (o *recordingObserver) FileReceived(f ReceivedFile) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.received = append(o.received, f)
}

func (o *recordingObserver) TransferFailed(p Progress, err error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.failed = append(o.failed, failure{progress: p, err: err})
}

func (o *recordingObserver) files() []ReceivedFile {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]ReceivedFile(nil), o.received...)
}

func (o *recordingObserver) failures() []failure {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]failure(nil), o.failed...)
}

// failingSource returns readErr from every ReadAt.
type failingSource struct {
	name    string
	size    int64
	readErr error
}

func (s *failingSource) ReadAt(p []byte, off int64) (int, error) { return 0, s.readErr }
func (s *failingSource) Name() string                            { return s.name }
func (s *failingSource) Type() string                            { return "text/plain" }
func (s *failingSource) Size() int64                             { return s.size }

var errDiskGone = errors.New("disk gone")

// randomBytes returns deterministic pseudo-random content.
func randomBytes(n int, seed int64) []byte {
	b := make([]byte, n)
	rand.New(rand.NewSource(seed)).Read(b)
	return b
}

// encodeTransfer builds the wire messages a sender would emit for data.
func encodeTransfer(t *testing.T, id, name string, data []byte, checksum []byte) ([]byte, [][]byte) {
	t.Helper()

	meta, err := Encode(&Metadata{
		TransferID: id,
		FileName:   name,
		FileType:   "application/octet-stream",
		FileSize:   int64(len(data)),
		Checksum:   checksum,
	})
	require.NoError(t, err)

	total := limits.TotalChunks(int64(len(data)), limits.ChunkSize)
	chunks := make([][]byte, total)
	for i := 0; i < total; i++ {
		start := i * limits.ChunkSize
		end := start + limits.ChunkLength(int64(len(data)), i, limits.ChunkSize)
		chunks[i], err = Encode(&Chunk{
			TransferID:  id,
			FileName:    name,
			ChunkIndex:  i,
			TotalChunks: total,
			Data:        data[start:end],
		})
		require.NoError(t, err)
	}
	return meta, chunks
}
