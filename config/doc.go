// Package config loads peerdrop settings from a TOML file with
// PEERDROP_* environment variable overrides.
//
// Example config.toml:
//
//	[Transfer]
//	  StallTimeout = "30s"
//	  Checksum = true
//
//	[WebRTC]
//	  ICEServers = ["stun:stun.l.google.com:19302"]
//
//	[Storage]
//	  DownloadDir = "~/Downloads/peerdrop"
//
// Every key can be overridden from the environment, e.g.
// PEERDROP_TRANSFER_STALL_TIMEOUT=1m or PEERDROP_LOG_LEVEL=debug.
package config
