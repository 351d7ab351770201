package peerdrop

import (
	"errors"
	"time"

	"github.com/opd-ai/peerdrop/file"
	"github.com/opd-ai/peerdrop/limits"
	"github.com/opd-ai/peerdrop/notify"
)

// ErrNodeClosed is returned by a Node after Close.
var ErrNodeClosed = errors.New("node closed")

// Options contains configuration options for creating a Node.
type Options struct {
	// BufferThreshold pauses sending while the adapter holds more bytes.
	// Zero means twice the adapter's maximum message size.
	BufferThreshold uint64
	PollInterval    time.Duration

	// StallTimeout abandons incoming transfers without a chunk for this long. Zero disables.
	StallTimeout time.Duration
	MaxFileSize  int64
	Checksum     bool

	IdleTimeout   time.Duration
	SweepInterval time.Duration

	// DownloadDir receives completed files. Empty keeps them in memory only.
	DownloadDir string

	Notifier     notify.Notifier
	TimeProvider TimeProvider
}

// TimeProvider abstracts time operations for deterministic testing.
type TimeProvider interface {
	Now() time.Time
	Since(t time.Time) time.Duration
}

// NewOptions creates a new default options.
func NewOptions() *Options {
	return &Options{
		BufferThreshold: 0, // 2x max message size
		PollInterval:    file.DefaultPollInterval,
		StallTimeout:    file.DefaultStallTimeout,
		MaxFileSize:     limits.DefaultMaxFileSize,
		Checksum:        true,
		IdleTimeout:     10 * time.Minute,
		SweepInterval:   30 * time.Second,
	}
}

func (o *Options) senderOptions() []file.SenderOption {
	return []file.SenderOption{
		file.WithBufferThreshold(o.BufferThreshold),
		file.WithPollInterval(o.PollInterval),
		file.WithChecksum(o.Checksum),
		file.WithSendMaxFileSize(o.MaxFileSize),
	}
}

func (o *Options) receiverOptions() []file.ReceiverOption {
	opts := []file.ReceiverOption{
		file.WithStallTimeout(o.StallTimeout),
		file.WithMaxFileSize(o.MaxFileSize),
	}
	if o.TimeProvider != nil {
		opts = append(opts, file.WithTimeProvider(o.TimeProvider))
	}
	return opts
}
