// Package transport provides the message channels that carry the peerdrop
// transfer protocol between two endpoints.
//
// # Architecture
//
// The core abstraction is the Adapter interface, a bidirectional message
// channel to exactly one remote peer:
//
//	type Adapter interface {
//	    Send(data []byte) error
//	    BufferedAmount() uint64
//	    MaxMessageSize() uint64
//	    Bind(h Handler)
//	    Close() error
//	}
//
// Events flow from the adapter to a Handler through explicit method calls
// (HandleOpen, HandleMessage, HandleClose, HandleError) rather than through
// per-event callback registration. An adapter delivers events for one channel
// sequentially.
//
// # Implementations
//
// WebRTC data channel:
//
//	peer, err := transport.NewPeer([]string{"stun:stun.l.google.com:19302"})
//	channel, err := peer.Open("peerdrop")
//	offer, err := peer.Offer(ctx) // hand to the remote side out of band
//	err = peer.Accept(answer)
//
// In-memory pipe (tests and loopback):
//
//	a, b := transport.Pipe(0)
//	a.Bind(handlerA)
//	b.Bind(handlerB)
//
// PipeEnd.Hold and PipeEnd.Release stop and resume delivery, letting tests
// observe BufferedAmount grow on the sending end.
//
// # Flow Control
//
// BufferedAmount reports bytes queued but not yet flushed. The file package
// suspends chunk emission while it exceeds a threshold derived from
// MaxMessageSize.
//
// # Signaling
//
// Peer exchanges complete (non-trickle) session descriptions encoded with
// EncodeDescription. How those strings reach the remote side is left to the
// caller; the peerdrop CLI prints and reads them on the terminal.
package transport
