package transport

import (
	"fmt"
	"sync"

	"github.com/opd-ai/peerdrop/limits"
	"github.com/sirupsen/logrus"
)

// DefaultMaxMessageSize is the message size hint used when a channel does not
// advertise one. It matches the SCTP default for WebRTC data channels.
const DefaultMaxMessageSize = 65535

// pipe is the state shared by the two ends of an in-memory channel.
type pipe struct {
	mu     sync.Mutex
	cond   *sync.Cond
	ends   [2]*PipeEnd
	closed bool
}

// PipeEnd is one side of an in-memory message channel created by Pipe.
// Messages sent on one end are delivered, in order, to the handler bound to
// the other end by a dedicated goroutine. Until delivered they count towards
// the sender's BufferedAmount, which makes PipeEnd suitable for exercising
// flow control without a network.
type PipeEnd struct {
	p          *pipe
	idx        int
	maxMsgSize uint64
	handler    Handler
	inbox      [][]byte
	inboxBytes uint64
	held       bool
}

// Pipe creates a connected pair of in-memory adapters. A maxMessageSize of
// zero selects DefaultMaxMessageSize.
func Pipe(maxMessageSize uint64) (*PipeEnd, *PipeEnd) {
	if maxMessageSize == 0 {
		maxMessageSize = DefaultMaxMessageSize
	}

	p := &pipe{}
	p.cond = sync.NewCond(&p.mu)
	for i := range p.ends {
		p.ends[i] = &PipeEnd{p: p, idx: i, maxMsgSize: maxMessageSize}
	}
	for _, e := range p.ends {
		go e.run()
	}

	logrus.WithFields(logrus.Fields{
		"function":         "Pipe",
		"max_message_size": maxMessageSize,
	}).Debug("In-memory pipe created")

	return p.ends[0], p.ends[1]
}

func (e *PipeEnd) peer() *PipeEnd {
	return e.p.ends[1-e.idx]
}

// Send queues data for delivery to the other end.
func (e *PipeEnd) Send(data []byte) error {
	if uint64(len(data)) > e.maxMsgSize {
		return fmt.Errorf("%w: size %d exceeds limit %d", limits.ErrMessageTooLarge, len(data), e.maxMsgSize)
	}

	msg := make([]byte, len(data))
	copy(msg, data)

	e.p.mu.Lock()
	defer e.p.mu.Unlock()
	if e.p.closed {
		return ErrClosed
	}
	peer := e.peer()
	peer.inbox = append(peer.inbox, msg)
	peer.inboxBytes += uint64(len(msg))
	e.p.cond.Broadcast()
	return nil
}

// BufferedAmount reports the bytes sent on this end that the other end has
// not yet taken for delivery.
func (e *PipeEnd) BufferedAmount() uint64 {
	e.p.mu.Lock()
	defer e.p.mu.Unlock()
	return e.peer().inboxBytes
}

// MaxMessageSize returns the size limit given to Pipe.
func (e *PipeEnd) MaxMessageSize() uint64 {
	return e.maxMsgSize
}

// Bind installs the handler for messages arriving at this end. HandleOpen is
// delivered as soon as the handler is bound.
func (e *PipeEnd) Bind(h Handler) {
	e.p.mu.Lock()
	defer e.p.mu.Unlock()
	e.handler = h
	e.p.cond.Broadcast()
}

// Hold stops delivery of inbound messages to this end until Release is
// called, so the other end's BufferedAmount grows as a congested channel's would.
func (e *PipeEnd) Hold() {
	e.p.mu.Lock()
	defer e.p.mu.Unlock()
	e.held = true
}

// Release resumes delivery after Hold.
func (e *PipeEnd) Release() {
	e.p.mu.Lock()
	defer e.p.mu.Unlock()
	e.held = false
	e.p.cond.Broadcast()
}

// Close shuts down both ends. Undelivered messages are dropped and both
// bound handlers receive HandleClose.
func (e *PipeEnd) Close() error {
	e.p.mu.Lock()
	defer e.p.mu.Unlock()
	if e.p.closed {
		return nil
	}
	e.p.closed = true
	e.p.cond.Broadcast()
	return nil
}

// run delivers this end's events to its handler.
func (e *PipeEnd) run() {
	p := e.p

	p.mu.Lock()
	for e.handler == nil && !p.closed {
		p.cond.Wait()
	}
	h := e.handler
	p.mu.Unlock()
	if h == nil {
		return
	}

	h.HandleOpen()

	for {
		p.mu.Lock()
		for (len(e.inbox) == 0 || e.held) && !p.closed {
			p.cond.Wait()
		}
		if p.closed {
			e.inbox = nil
			e.inboxBytes = 0
			p.mu.Unlock()
			h.HandleClose()
			return
		}
		msg := e.inbox[0]
		e.inbox[0] = nil
		e.inbox = e.inbox[1:]
		e.inboxBytes -= uint64(len(msg))
		p.cond.Broadcast()
		p.mu.Unlock()

		h.HandleMessage(msg)
	}
}
