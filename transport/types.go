package transport

import "errors"

// ErrClosed is returned by Send on an adapter that has been closed.
var ErrClosed = errors.New("transport adapter closed")

// ErrNotOpen is returned by Send before the underlying channel is open.
var ErrNotOpen = errors.New("transport adapter not open")

// Handler receives the events of one Adapter. Adapters invoke these methods
// one at a time, in the order the events occurred; HandleMessage is never
// called concurrently with itself for a single adapter.
type Handler interface {
	// HandleOpen is called once the channel is ready to carry messages.
	HandleOpen()

	// HandleMessage is called with each inbound message. The slice is owned
	// by the handler after the call.
	HandleMessage(data []byte)

	// HandleClose is called once when the channel has closed.
	HandleClose()

	// HandleError reports a transport failure.
	HandleError(err error)
}

// Adapter defines a bidirectional message channel to one remote peer.
// This abstraction allows the transfer protocol to run over a WebRTC data
// channel or an in-memory pipe interchangeably.
type Adapter interface {
	// Send queues one message for delivery.
	Send(data []byte) error

	// BufferedAmount reports the bytes queued for send but not yet flushed.
	BufferedAmount() uint64

	// MaxMessageSize is the largest single message the channel accepts.
	MaxMessageSize() uint64

	// Bind installs the handler that receives this adapter's events.
	// It must be called before any message can be delivered.
	Bind(h Handler)

	// Close shuts down the channel.
	Close() error
}

// NopHandler ignores every event.
type NopHandler struct{}

func (NopHandler) HandleOpen()           {}
func (NopHandler) HandleMessage([]byte)  {}
func (NopHandler) HandleClose()          {}
func (NopHandler) HandleError(err error) {}
