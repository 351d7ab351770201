// Package file implements the peerdrop chunked file-transfer protocol.
//
// Example:
//
//	sender := file.NewSender(adapter, observer)
//	err := sender.SendAll(ctx, file.NewBytesSource("notes.txt", "text/plain", data))
package file

import (
	"bytes"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/opd-ai/peerdrop/limits"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/blake2b"
)

// TransferDirection indicates whether a transfer is incoming or outgoing.
type TransferDirection uint8

const (
	// TransferDirectionIncoming represents a file being received.
	TransferDirectionIncoming TransferDirection = iota
	// TransferDirectionOutgoing represents a file being sent.
	TransferDirectionOutgoing
)

func (d TransferDirection) String() string {
	if d == TransferDirectionOutgoing {
		return "outgoing"
	}
	return "incoming"
}

// SendState represents the current state of an outgoing transfer.
type SendState uint8

const (
	// SendStateIdle indicates no file is being sent.
	SendStateIdle SendState = iota
	// SendStateSendingMetadata indicates the metadata message is being emitted.
	SendStateSendingMetadata
	// SendStateSendingChunks indicates chunk messages are being emitted.
	SendStateSendingChunks
	// SendStateDraining indicates emission is suspended until the transport buffer drains.
	SendStateDraining
	// SendStateComplete indicates the last chunk was handed to the transport.
	SendStateComplete
	// SendStateFailed indicates the transfer was aborted.
	SendStateFailed
)

var sendStateNames = [...]string{"idle", "sending_metadata", "sending_chunks", "draining", "complete", "failed"}

func (s SendState) String() string {
	if int(s) < len(sendStateNames) {
		return sendStateNames[s]
	}
	return fmt.Sprintf("SendState(%d)", s)
}

// DefaultStallTimeout is the default timeout duration for detecting stalled transfers.
// Transfers that receive no data for this duration are considered stalled.
const DefaultStallTimeout = 30 * time.Second

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

// defaultTimeProvider is the package-level default time provider.
var defaultTimeProvider TimeProvider = DefaultTimeProvider{}

// ValidatePath checks if a file path is safe from directory traversal attacks.
// It returns the cleaned path or an error if the path contains traversal attempts.
func ValidatePath(path string) (string, error) {
	cleanedPath := filepath.Clean(path)

	for _, part := range strings.Split(filepath.ToSlash(cleanedPath), "/") {
		if part == ".." {
			return "", ErrDirectoryTraversal
		}
	}

	return cleanedPath, nil
}

// OutgoingTransfer tracks one file while its chunks are being sent.
type OutgoingTransfer struct {
	ID          string
	Source      Source
	ChunkSize   int
	TotalChunks int
	Offset      int64
}

func newOutgoingTransfer(id string, src Source) *OutgoingTransfer {
	return &OutgoingTransfer{
		ID:          id,
		Source:      src,
		ChunkSize:   limits.ChunkSize,
		TotalChunks: limits.TotalChunks(src.Size(), limits.ChunkSize),
	}
}

// Done reports whether every chunk has been read.
func (t *OutgoingTransfer) Done() bool {
	return t.Offset >= t.Source.Size()
}

// metadata builds the announcement for this transfer.
func (t *OutgoingTransfer) metadata(checksum []byte) *Metadata {
	return &Metadata{
		TransferID: t.ID,
		FileName:   t.Source.Name(),
		FileType:   t.Source.Type(),
		FileSize:   t.Source.Size(),
		Checksum:   checksum,
	}
}

// nextChunk reads the chunk at the current offset into buf and advances.
func (t *OutgoingTransfer) nextChunk(buf []byte) (*Chunk, error) {
	index := int(t.Offset / int64(t.ChunkSize))
	want := limits.ChunkLength(t.Source.Size(), index, t.ChunkSize)
	if want <= 0 {
		return nil, fmt.Errorf("%w: no chunk at offset %d", ErrReadFailed, t.Offset)
	}

	n, err := t.Source.ReadAt(buf[:want], t.Offset)
	if n < want {
		if err == nil || err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		return nil, fmt.Errorf("%w: %s at offset %d: %w", ErrReadFailed, t.Source.Name(), t.Offset, err)
	}

	t.Offset += int64(n)
	return &Chunk{
		TransferID:  t.ID,
		FileName:    t.Source.Name(),
		ChunkIndex:  index,
		TotalChunks: t.TotalChunks,
		Data:        buf[:n],
	}, nil
}

func (t *OutgoingTransfer) progress() Progress {
	return Progress{
		TransferID:  t.ID,
		FileName:    t.Source.Name(),
		Direction:   TransferDirectionOutgoing,
		Transferred: t.Offset,
		Total:       t.Source.Size(),
	}
}

// checksumSource computes the BLAKE2b-256 digest of src.
func checksumSource(src Source) ([]byte, error) {
	h, err := blake2b.New256(nil)
	if err != nil {
		return nil, err
	}
	if _, err := io.Copy(h, io.NewSectionReader(src, 0, src.Size())); err != nil {
		return nil, fmt.Errorf("%w: checksum %s: %w", ErrReadFailed, src.Name(), err)
	}
	return h.Sum(nil), nil
}

// IncomingTransfer holds the chunks of one file being received. Slots are
// indexed by chunk index, so arrival order does not matter.
type IncomingTransfer struct {
	ID          string
	FileName    string
	FileType    string
	FileSize    int64
	Checksum    []byte
	TotalChunks int
	Received    int64
	StartTime   time.Time

	slots         [][]byte
	filled        int
	lastChunkTime time.Time
	lastPercent   int
}

func newIncomingTransfer(m *Metadata, now time.Time) *IncomingTransfer {
	total := limits.TotalChunks(m.FileSize, limits.ChunkSize)
	return &IncomingTransfer{
		ID:            m.TransferID,
		FileName:      m.FileName,
		FileType:      m.FileType,
		FileSize:      m.FileSize,
		Checksum:      m.Checksum,
		TotalChunks:   total,
		StartTime:     now,
		slots:         make([][]byte, total),
		lastChunkTime: now,
	}
}

// store places c in its slot. The payload length must match exactly the
// length expected for that index, which keeps Received <= FileSize.
func (t *IncomingTransfer) store(c *Chunk, now time.Time) error {
	if c.TotalChunks != t.TotalChunks {
		return fmt.Errorf("%w: transfer %s declares %d chunks, message says %d",
			ErrSizeMismatch, t.ID, t.TotalChunks, c.TotalChunks)
	}
	want := limits.ChunkLength(t.FileSize, c.ChunkIndex, limits.ChunkSize)
	if want != len(c.Data) {
		return fmt.Errorf("%w: transfer %s chunk %d has %d bytes, want %d",
			ErrSizeMismatch, t.ID, c.ChunkIndex, len(c.Data), want)
	}
	if t.slots[c.ChunkIndex] != nil {
		return fmt.Errorf("%w: transfer %s chunk %d", ErrDuplicateChunk, t.ID, c.ChunkIndex)
	}

	t.slots[c.ChunkIndex] = c.Data
	t.filled++
	t.Received += int64(len(c.Data))
	t.lastChunkTime = now
	return nil
}

// Complete reports whether every declared byte has been received.
func (t *IncomingTransfer) Complete() bool {
	return t.Received == t.FileSize
}

// assemble concatenates the slots in chunk-index order and verifies the
// checksum when one was declared.
func (t *IncomingTransfer) assemble() ([]byte, error) {
	data := bytes.Join(t.slots, nil)
	if data == nil {
		data = []byte{}
	}
	if t.Checksum != nil {
		sum := blake2b.Sum256(data)
		if !bytes.Equal(sum[:], t.Checksum) {
			logrus.WithFields(logrus.Fields{
				"function":    "assemble",
				"transfer_id": t.ID,
				"file_name":   t.FileName,
			}).Warn("Reassembled file does not match declared checksum")
			return nil, fmt.Errorf("%w: transfer %s", ErrChecksumMismatch, t.ID)
		}
	}
	return data, nil
}

// stalled reports whether no chunk arrived within timeout. A zero timeout
// disables stall detection.
func (t *IncomingTransfer) stalled(tp TimeProvider, timeout time.Duration) bool {
	if timeout == 0 {
		return false
	}
	return tp.Since(t.lastChunkTime) >= timeout
}

func (t *IncomingTransfer) progress() Progress {
	return Progress{
		TransferID:  t.ID,
		FileName:    t.FileName,
		Direction:   TransferDirectionIncoming,
		Transferred: t.Received,
		Total:       t.FileSize,
	}
}
