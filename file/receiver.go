package file

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/opd-ai/peerdrop/limits"
	"github.com/sirupsen/logrus"
)

// Receiver reassembles incoming files from metadata and chunk messages
// arriving on one adapter. Transfers are keyed by the sender-generated
// transfer id, so two files with the same name never share slots.
type Receiver struct {
	observer     Observer
	stallTimeout time.Duration
	maxFileSize  int64
	timeProvider TimeProvider

	mu        sync.Mutex
	transfers map[string]*IncomingTransfer
	closed    bool

	// Ids of completed or expired transfers, oldest overwritten first.
	retired    []string
	retiredSet map[string]struct{}
	retiredPos int
}

// retiredHistory bounds how many finished transfer ids a Receiver remembers
// to reject redelivered metadata.
const retiredHistory = 1024

// ReceiverOption configures a Receiver.
type ReceiverOption func(*Receiver)

// WithStallTimeout sets how long a transfer may go without a chunk before
// ExpireStalled terminates it. Zero disables stall detection.
func WithStallTimeout(d time.Duration) ReceiverOption {
	return func(r *Receiver) { r.stallTimeout = d }
}

// WithMaxFileSize rejects metadata declaring more than n bytes.
func WithMaxFileSize(n int64) ReceiverOption {
	return func(r *Receiver) { r.maxFileSize = n }
}

// WithTimeProvider sets a custom time provider for deterministic testing.
func WithTimeProvider(tp TimeProvider) ReceiverOption {
	return func(r *Receiver) {
		if tp != nil {
			r.timeProvider = tp
		}
	}
}

// NewReceiver creates a receiver reporting to obs. A nil observer is replaced by NopObserver.
func NewReceiver(obs Observer, opts ...ReceiverOption) *Receiver {
	if obs == nil {
		obs = NopObserver{}
	}
	r := &Receiver{
		observer:     obs,
		stallTimeout: DefaultStallTimeout,
		maxFileSize:  limits.DefaultMaxFileSize,
		timeProvider: defaultTimeProvider,
		transfers:    make(map[string]*IncomingTransfer),
		retired:      make([]string, 0, retiredHistory),
		retiredSet:   make(map[string]struct{}, retiredHistory),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// event is an observer call deferred until the receiver lock is released.
type event func(Observer)

// HandleMessage decodes and applies one inbound message. Errors wrapping
// ErrProtocolAnomaly describe a dropped message; the receiver stays usable.
func (r *Receiver) HandleMessage(data []byte) error {
	msg, err := Decode(data)
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"function": "HandleMessage",
			"size":     len(data),
			"error":    err.Error(),
		}).Warn("Dropping malformed message")
		return err
	}

	var events []event
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return ErrReceiverClosed
	}
	switch m := msg.(type) {
	case *Metadata:
		events, err = r.handleMetadata(m)
	case *Chunk:
		events, err = r.handleChunk(m)
	}
	r.mu.Unlock()

	for _, ev := range events {
		ev(r.observer)
	}

	if err != nil {
		logrus.WithFields(logrus.Fields{
			"function":    "HandleMessage",
			"kind":        msg.Kind(),
			"transfer_id": msg.ID(),
			"error":       err.Error(),
		}).Debug("Dropping protocol anomaly")
	}
	return err
}

func (r *Receiver) handleMetadata(m *Metadata) ([]event, error) {
	if _, exists := r.transfers[m.TransferID]; exists {
		return nil, fmt.Errorf("%w: %s", ErrDuplicateTransfer, m.TransferID)
	}
	if _, done := r.retiredSet[m.TransferID]; done {
		return nil, fmt.Errorf("%w: %s already finished", ErrDuplicateTransfer, m.TransferID)
	}
	if err := limits.ValidateFileSize(m.FileSize, r.maxFileSize); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSizeMismatch, err)
	}

	t := newIncomingTransfer(m, r.timeProvider.Now())

	logrus.WithFields(logrus.Fields{
		"function":     "handleMetadata",
		"transfer_id":  t.ID,
		"file_name":    t.FileName,
		"file_type":    t.FileType,
		"file_size":    t.FileSize,
		"total_chunks": t.TotalChunks,
	}).Info("Incoming file transfer created")

	if t.Complete() {
		return r.finish(t), nil
	}

	r.transfers[t.ID] = t
	p := t.progress()
	return []event{func(o Observer) { o.TransferProgress(p) }}, nil
}

func (r *Receiver) handleChunk(c *Chunk) ([]event, error) {
	t, exists := r.transfers[c.TransferID]
	if !exists {
		return nil, fmt.Errorf("%w: %s chunk %d", ErrUnknownTransfer, c.TransferID, c.ChunkIndex)
	}

	if err := t.store(c, r.timeProvider.Now()); err != nil {
		return nil, err
	}

	if t.Complete() {
		delete(r.transfers, t.ID)
		return r.finish(t), nil
	}

	p := t.progress()
	if pct := p.Percent(); pct != t.lastPercent {
		t.lastPercent = pct
		return []event{func(o Observer) { o.TransferProgress(p) }}, nil
	}
	return nil, nil
}

// retire remembers id as finished, forgetting the oldest id once the
// history is full.
func (r *Receiver) retire(id string) {
	if _, ok := r.retiredSet[id]; ok {
		return
	}
	if len(r.retired) < retiredHistory {
		r.retired = append(r.retired, id)
	} else {
		delete(r.retiredSet, r.retired[r.retiredPos])
		r.retired[r.retiredPos] = id
		r.retiredPos = (r.retiredPos + 1) % retiredHistory
	}
	r.retiredSet[id] = struct{}{}
}

// finish assembles a complete transfer. The caller has already removed it
// from the pending map, so its slots are released with it.
func (r *Receiver) finish(t *IncomingTransfer) []event {
	r.retire(t.ID)
	p := t.progress()
	data, err := t.assemble()
	if err != nil {
		return []event{func(o Observer) { o.TransferFailed(p, err) }}
	}

	logrus.WithFields(logrus.Fields{
		"function":    "finish",
		"transfer_id": t.ID,
		"file_name":   t.FileName,
		"file_size":   len(data),
	}).Info("Incoming file transfer complete")

	f := ReceivedFile{TransferID: t.ID, Name: t.FileName, Type: t.FileType, Data: data}
	return []event{
		func(o Observer) { o.TransferProgress(p) },
		func(o Observer) { o.FileReceived(f) },
	}
}

// ExpireStalled terminates every transfer that received no chunk within the
// stall timeout, reporting ErrTransferStalled for each. It returns the ids
// of the expired transfers.
func (r *Receiver) ExpireStalled() []string {
	var events []event
	var expired []string

	r.mu.Lock()
	for id, t := range r.transfers {
		if !t.stalled(r.timeProvider, r.stallTimeout) {
			continue
		}
		delete(r.transfers, id)
		r.retire(id)
		expired = append(expired, id)

		logrus.WithFields(logrus.Fields{
			"function":      "ExpireStalled",
			"transfer_id":   id,
			"file_name":     t.FileName,
			"received":      t.Received,
			"file_size":     t.FileSize,
			"stall_timeout": r.stallTimeout,
		}).Warn("Transfer stalled: no data received within timeout period")

		p := t.progress()
		events = append(events, func(o Observer) { o.TransferFailed(p, ErrTransferStalled) })
	}
	r.mu.Unlock()

	for _, ev := range events {
		ev(r.observer)
	}
	sort.Strings(expired)
	return expired
}

// Abort drops every pending transfer, reporting err wrapped in
// ErrTransferCancelled, and rejects all further messages.
func (r *Receiver) Abort(cause error) {
	if cause == nil {
		cause = errors.New("receiver aborted")
	}
	err := fmt.Errorf("%w: %w", ErrTransferCancelled, cause)

	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	r.closed = true
	pending := r.transfers
	r.transfers = make(map[string]*IncomingTransfer)
	r.mu.Unlock()

	if len(pending) > 0 {
		logrus.WithFields(logrus.Fields{
			"function": "Abort",
			"pending":  len(pending),
			"cause":    cause.Error(),
		}).Info("Aborting pending incoming transfers")
	}
	for _, t := range pending {
		r.observer.TransferFailed(t.progress(), err)
	}
}

// Pending returns the number of transfers awaiting chunks.
func (r *Receiver) Pending() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.transfers)
}

// Progress returns the progress of a pending transfer.
func (r *Receiver) Progress(transferID string) (Progress, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.transfers[transferID]
	if !ok {
		return Progress{}, false
	}
	return t.progress(), true
}
