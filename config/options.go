package config

import (
	"github.com/opd-ai/peerdrop"
)

// Options converts c into node options. Notifier and TimeProvider are left
// for the caller to set.
func (c *Config) Options() *peerdrop.Options {
	options := peerdrop.NewOptions()
	options.BufferThreshold = c.Transfer.BufferThreshold
	options.PollInterval = c.Transfer.PollInterval.Std()
	options.StallTimeout = c.Transfer.StallTimeout.Std()
	options.MaxFileSize = c.Transfer.MaxFileSize
	options.Checksum = c.Transfer.Checksum
	options.IdleTimeout = c.Session.IdleTimeout.Std()
	options.SweepInterval = c.Session.SweepInterval.Std()
	options.DownloadDir = c.Storage.DownloadDir
	return options
}
