package config

import (
	"fmt"
	"time"
)

// Duration is a time.Duration that reads and writes as a string such as
// "30s" in TOML and environment variables.
type Duration time.Duration

// Std returns d as a time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

func (d Duration) String() string { return time.Duration(d).String() }

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", text, err)
	}
	*d = Duration(v)
	return nil
}

// Config is the complete peerdrop configuration.
type Config struct {
	Transfer Transfer
	Session  Session
	WebRTC   WebRTC
	Storage  Storage
	Log      Log
}

// Transfer contains configs for the chunked transfer protocol
type Transfer struct {
	// Bytes queued on the data channel above which sending pauses.
	// 0 means twice the channel's maximum message size.
	BufferThreshold uint64 `envconfig:"BUFFER_THRESHOLD"`

	// How often a paused sender re-checks the queued byte count.
	PollInterval Duration `envconfig:"POLL_INTERVAL"`

	// An incoming transfer with no chunk for this long is abandoned. 0 disables.
	StallTimeout Duration `envconfig:"STALL_TIMEOUT"`

	// Largest file accepted or sent, in bytes.
	MaxFileSize int64 `envconfig:"MAX_FILE_SIZE"`

	// Announce a BLAKE2b-256 checksum with every file.
	Checksum bool
}

// Session contains configs for peer session bookkeeping
type Session struct {
	// Sessions with no activity for longer than this are evicted.
	IdleTimeout Duration `envconfig:"IDLE_TIMEOUT"`

	// How often idle sessions and stalled transfers are swept.
	SweepInterval Duration `envconfig:"SWEEP_INTERVAL"`
}

// WebRTC contains configs for the peer connection
type WebRTC struct {
	// STUN/TURN server URLs
	ICEServers []string `envconfig:"ICE_SERVERS"`

	// Label of the data channel carrying transfers
	ChannelLabel string `envconfig:"CHANNEL_LABEL"`
}

// Storage contains configs for received files
type Storage struct {
	// Directory received files are written to. Empty keeps them in memory only.
	DownloadDir string `envconfig:"DOWNLOAD_DIR"`
}

// Log contains configs for the global logger
type Log struct {
	// panic, fatal, error, warn, info, debug or trace
	Level string

	// text or json
	Format string
}
