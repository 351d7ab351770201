package file

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/opd-ai/peerdrop/limits"
	"github.com/opd-ai/peerdrop/transport"
	"github.com/sirupsen/logrus"
)

// DefaultPollInterval is how often a draining sender re-reads the transport buffer gauge.
const DefaultPollInterval = 100 * time.Millisecond

// Sender splits files into metadata and chunk messages on one adapter.
// Files are sent strictly one after another: concurrent Send calls queue on
// an internal lock and are never interleaved.
type Sender struct {
	adapter  transport.Adapter
	observer Observer

	threshold    uint64
	pollInterval time.Duration
	checksum     bool
	maxFileSize  int64

	queue sync.Mutex

	mu      sync.Mutex
	state   SendState
	current string
}

// SenderOption configures a Sender.
type SenderOption func(*Sender)

// WithBufferThreshold overrides the flow-control threshold. Zero keeps the
// default of twice the adapter's maximum message size.
func WithBufferThreshold(n uint64) SenderOption {
	return func(s *Sender) { s.threshold = n }
}

// WithPollInterval sets how often the buffer gauge is polled while draining.
func WithPollInterval(d time.Duration) SenderOption {
	return func(s *Sender) {
		if d > 0 {
			s.pollInterval = d
		}
	}
}

// WithChecksum enables or disables the whole-file checksum in metadata.
func WithChecksum(enabled bool) SenderOption {
	return func(s *Sender) { s.checksum = enabled }
}

// WithSendMaxFileSize refuses to send files above n bytes.
func WithSendMaxFileSize(n int64) SenderOption {
	return func(s *Sender) { s.maxFileSize = n }
}

// NewSender creates a sender writing to a. A nil observer is replaced by NopObserver.
func NewSender(a transport.Adapter, obs Observer, opts ...SenderOption) *Sender {
	if obs == nil {
		obs = NopObserver{}
	}
	s := &Sender{
		adapter:      a,
		observer:     obs,
		pollInterval: DefaultPollInterval,
		checksum:     true,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Threshold returns the buffered byte count above which emission is suspended.
func (s *Sender) Threshold() uint64 {
	if s.threshold > 0 {
		return s.threshold
	}
	return 2 * s.adapter.MaxMessageSize()
}

// State returns the state of the transfer in progress, or of the last one.
func (s *Sender) State() SendState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Current returns the id and state of the transfer in progress, or of the last one.
func (s *Sender) Current() (string, SendState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current, s.state
}

func (s *Sender) setState(id string, state SendState) {
	s.mu.Lock()
	s.state = state
	s.current = id
	s.mu.Unlock()

	logrus.WithFields(logrus.Fields{
		"function":    "setState",
		"transfer_id": id,
		"state":       state.String(),
	}).Debug("Send state changed")
}

// SendAll sends each source in order. A read failure aborts only that file;
// a transport failure or cancellation aborts the rest of the queue. All
// per-file errors are returned joined.
func (s *Sender) SendAll(ctx context.Context, sources ...Source) error {
	var errs []error
	for _, src := range sources {
		if _, err := s.Send(ctx, src); err != nil {
			errs = append(errs, err)
			if errors.Is(err, ErrTransport) || errors.Is(err, ErrTransferCancelled) {
				break
			}
		}
	}
	return errors.Join(errs...)
}

// Send transmits one file and returns its transfer id.
func (s *Sender) Send(ctx context.Context, src Source) (string, error) {
	s.queue.Lock()
	defer s.queue.Unlock()

	t := newOutgoingTransfer(uuid.NewString(), src)

	logrus.WithFields(logrus.Fields{
		"function":     "Send",
		"transfer_id":  t.ID,
		"file_name":    src.Name(),
		"file_size":    src.Size(),
		"total_chunks": t.TotalChunks,
	}).Info("Starting outgoing file transfer")

	if err := s.send(ctx, t); err != nil {
		s.setState(t.ID, SendStateFailed)
		logrus.WithFields(logrus.Fields{
			"function":    "Send",
			"transfer_id": t.ID,
			"file_name":   src.Name(),
			"offset":      t.Offset,
			"error":       err.Error(),
		}).Error("Outgoing file transfer failed")
		s.observer.TransferFailed(t.progress(), err)
		return t.ID, err
	}

	s.setState(t.ID, SendStateComplete)
	logrus.WithFields(logrus.Fields{
		"function":    "Send",
		"transfer_id": t.ID,
		"file_name":   src.Name(),
	}).Info("Outgoing file transfer complete")
	return t.ID, nil
}

func (s *Sender) send(ctx context.Context, t *OutgoingTransfer) error {
	src := t.Source
	if err := limits.ValidateFileName(src.Name()); err != nil {
		return err
	}
	if err := limits.ValidateFileSize(src.Size(), s.maxFileSize); err != nil {
		return err
	}

	var checksum []byte
	if s.checksum && src.Size() > 0 {
		sum, err := checksumSource(src)
		if err != nil {
			return err
		}
		checksum = sum
	}

	s.setState(t.ID, SendStateSendingMetadata)
	if err := s.emit(ctx, t.ID, t.metadata(checksum)); err != nil {
		return err
	}
	s.observer.TransferProgress(t.progress())

	lastPercent := 0
	buf := make([]byte, t.ChunkSize)
	if !t.Done() {
		s.setState(t.ID, SendStateSendingChunks)
	}
	for !t.Done() {
		if ctx.Err() != nil {
			return fmt.Errorf("%w: %w", ErrTransferCancelled, context.Cause(ctx))
		}

		chunk, err := t.nextChunk(buf)
		if err != nil {
			return err
		}
		if err := s.emit(ctx, t.ID, chunk); err != nil {
			return err
		}

		if p := t.progress(); p.Percent() != lastPercent {
			lastPercent = p.Percent()
			s.observer.TransferProgress(p)
		}
	}
	return nil
}

// emit applies flow control, then hands one message to the adapter.
func (s *Sender) emit(ctx context.Context, id string, msg Message) error {
	if err := s.waitForDrain(ctx, id); err != nil {
		return err
	}

	data, err := Encode(msg)
	if err != nil {
		return err
	}
	if err := s.adapter.Send(data); err != nil {
		return fmt.Errorf("%w: %w", ErrTransport, err)
	}
	return nil
}

// waitForDrain suspends while the adapter holds more than Threshold bytes,
// polling the gauge every pollInterval.
func (s *Sender) waitForDrain(ctx context.Context, id string) error {
	limit := s.Threshold()
	if s.adapter.BufferedAmount() <= limit {
		return nil
	}

	s.mu.Lock()
	resume := s.state
	s.mu.Unlock()
	s.setState(id, SendStateDraining)

	logrus.WithFields(logrus.Fields{
		"function":        "waitForDrain",
		"transfer_id":     id,
		"buffered_amount": s.adapter.BufferedAmount(),
		"threshold":       limit,
	}).Debug("Transport buffer above threshold, suspending")

	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()
	for s.adapter.BufferedAmount() > limit {
		select {
		case <-ctx.Done():
			return fmt.Errorf("%w: %w", ErrTransferCancelled, context.Cause(ctx))
		case <-ticker.C:
		}
	}

	s.setState(id, resume)
	return nil
}
