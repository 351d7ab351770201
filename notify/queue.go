package notify

import (
	"sync"
	"sync/atomic"

	"github.com/opd-ai/peerdrop/session"
	"github.com/sirupsen/logrus"
)

// DefaultQueueSize is the event buffer used when NewQueue is given zero.
const DefaultQueueSize = 64

// EventKind identifies the Notifier method an Event came from.
type EventKind uint8

const (
	EventFileReceived EventKind = iota
	EventProgress
	EventStatus
	EventTransportError
	EventTransferFailed
)

func (k EventKind) String() string {
	switch k {
	case EventFileReceived:
		return "file_received"
	case EventProgress:
		return "progress"
	case EventStatus:
		return "status"
	case EventTransportError:
		return "transport_error"
	case EventTransferFailed:
		return "transfer_failed"
	}
	return "unknown"
}

// Event is one queued notification. Only the fields relevant to Kind are set.
type Event struct {
	Kind      EventKind
	SessionID string
	File      ReceivedFile
	FileName  string
	Percent   int
	Status    session.Status
	Err       error
}

// Queue is a Notifier that buffers events on a channel for a presentation
// loop. Progress events are dropped while the buffer is full; every other
// event waits for room, so a consumer must keep draining Events until Close.
type Queue struct {
	events  chan Event
	done    chan struct{}
	once    sync.Once
	dropped atomic.Uint64
}

// NewQueue creates a queue buffering up to size events.
func NewQueue(size int) *Queue {
	if size <= 0 {
		size = DefaultQueueSize
	}
	return &Queue{
		events: make(chan Event, size),
		done:   make(chan struct{}),
	}
}

// Events returns the channel to drain. It is never closed; select on Done
// to stop.
func (q *Queue) Events() <-chan Event { return q.events }

// Done is closed by Close.
func (q *Queue) Done() <-chan struct{} { return q.done }

// Dropped returns the number of progress events discarded on a full buffer.
func (q *Queue) Dropped() uint64 { return q.dropped.Load() }

// Close stops accepting events. Pending blocked producers return immediately.
func (q *Queue) Close() {
	q.once.Do(func() { close(q.done) })
}

func (q *Queue) put(ev Event) {
	select {
	case <-q.done:
		return
	default:
	}
	select {
	case q.events <- ev:
	case <-q.done:
	}
}

// FileReceived implements Notifier.
func (q *Queue) FileReceived(sessionID string, f ReceivedFile) {
	q.put(Event{Kind: EventFileReceived, SessionID: sessionID, File: f, FileName: f.Name})
}

// TransferProgress implements Notifier.
func (q *Queue) TransferProgress(sessionID string, percent int) {
	select {
	case <-q.done:
		return
	default:
	}
	select {
	case q.events <- Event{Kind: EventProgress, SessionID: sessionID, Percent: percent}:
	default:
		n := q.dropped.Add(1)
		logrus.WithFields(logrus.Fields{
			"function":   "TransferProgress",
			"session_id": sessionID,
			"dropped":    n,
		}).Debug("Event queue full, dropping progress event")
	}
}

// SessionStatusChanged implements Notifier.
func (q *Queue) SessionStatusChanged(sessionID string, status session.Status) {
	q.put(Event{Kind: EventStatus, SessionID: sessionID, Status: status})
}

// TransportError implements Notifier.
func (q *Queue) TransportError(sessionID string, err error) {
	q.put(Event{Kind: EventTransportError, SessionID: sessionID, Err: err})
}

// TransferFailed implements Notifier.
func (q *Queue) TransferFailed(sessionID, fileName string, err error) {
	q.put(Event{Kind: EventTransferFailed, SessionID: sessionID, FileName: fileName, Err: err})
}
