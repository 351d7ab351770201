// Package peerdrop implements direct peer-to-peer file transfer over a
// message-oriented data channel.
//
// A Node owns one session per remote peer. Each session holds the transport
// adapter for that peer, a file.Sender for outgoing files and a
// file.Receiver reassembling incoming ones. Events flow to a
// notify.Notifier supplied in Options.
//
// # Getting Started
//
//	options := peerdrop.NewOptions()
//	options.DownloadDir = "/tmp/incoming"
//	options.Notifier = notify.NewLogger(nil)
//
//	node, err := peerdrop.New(options)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer node.Close()
//
//	// adapter is a transport.Adapter, e.g. a WebRTC data channel
//	if _, err := node.Attach("peer-42", adapter); err != nil {
//	    log.Fatal(err)
//	}
//	if err := node.WaitOpen(ctx, "peer-42"); err != nil {
//	    log.Fatal(err)
//	}
//
//	src, err := file.OpenFile("report.pdf")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer src.Close()
//	err = node.SendFiles(ctx, "peer-42", src)
//
//	// Evict idle sessions and expire stalled transfers in the background
//	go node.Run(ctx)
//
// # Core Types
//
//   - [Node]: session registry and protocol wiring
//   - [Options]: configuration for creating a Node
//   - [TimeProvider]: injectable time for deterministic tests
//
// # Session Lifecycle
//
// Attach creates a session in the connecting state. The adapter's open
// event moves it to connected; a close event to disconnected; a transport
// error, or a transfer failing on send, to error. Attaching a second adapter
// for the same peer replaces the session. Removing, replacing or evicting a
// session cancels any SendFiles in progress and drops its partially received
// files.
//
// # Thread Safety
//
// All Node methods are safe for concurrent use. Sends to one peer are queued
// and never interleaved.
package peerdrop
