package config

import (
	"time"

	"github.com/opd-ai/peerdrop/file"
	"github.com/opd-ai/peerdrop/limits"
)

// EnvPrefix prefixes every environment variable override,
// e.g. PEERDROP_TRANSFER_STALL_TIMEOUT.
const EnvPrefix = "PEERDROP"

// DefaultChannelLabel names the data channel opened for transfers.
const DefaultChannelLabel = "peerdrop"

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Transfer: Transfer{
			BufferThreshold: 0,
			PollInterval:    Duration(file.DefaultPollInterval),
			StallTimeout:    Duration(file.DefaultStallTimeout),
			MaxFileSize:     limits.DefaultMaxFileSize,
			Checksum:        true,
		},
		Session: Session{
			IdleTimeout:   Duration(10 * time.Minute),
			SweepInterval: Duration(30 * time.Second),
		},
		WebRTC: WebRTC{
			ICEServers:   []string{"stun:stun.l.google.com:19302"},
			ChannelLabel: DefaultChannelLabel,
		},
		Storage: Storage{
			DownloadDir: "~/Downloads/peerdrop",
		},
		Log: Log{
			Level:  "info",
			Format: "text",
		},
	}
}
