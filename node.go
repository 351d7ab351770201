package peerdrop

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/opd-ai/peerdrop/file"
	"github.com/opd-ai/peerdrop/notify"
	"github.com/opd-ai/peerdrop/session"
	"github.com/opd-ai/peerdrop/transport"
	"github.com/sirupsen/logrus"
)

// Node runs the transfer protocol over every attached peer adapter.
// Each remote peer gets one session, one Sender and one Receiver.
type Node struct {
	options  *Options
	sessions *session.Manager
	notifier notify.Notifier

	mu     sync.Mutex
	links  map[string]*link
	closed bool
}

// New creates a node. A nil options uses NewOptions.
func New(options *Options) (*Node, error) {
	if options == nil {
		options = NewOptions()
	}
	if options.IdleTimeout <= 0 {
		return nil, fmt.Errorf("idle timeout must be positive, got %s", options.IdleTimeout)
	}
	if options.SweepInterval <= 0 {
		return nil, fmt.Errorf("sweep interval must be positive, got %s", options.SweepInterval)
	}

	notifier := options.Notifier
	if notifier == nil {
		notifier = notify.Nop{}
	}

	var managerOpts []session.ManagerOption
	if options.TimeProvider != nil {
		managerOpts = append(managerOpts, session.WithTimeProvider(options.TimeProvider))
	}

	logrus.WithFields(logrus.Fields{
		"function":      "New",
		"idle_timeout":  options.IdleTimeout,
		"stall_timeout": options.StallTimeout,
		"download_dir":  options.DownloadDir,
	}).Info("Creating peerdrop node")

	return &Node{
		options:  options,
		sessions: session.NewManager(managerOpts...),
		notifier: notifier,
		links:    make(map[string]*link),
	}, nil
}

// Attach creates a session for remotePeerID owning a, replacing any existing
// session for that peer, and starts handling a's events.
func (n *Node) Attach(remotePeerID string, a transport.Adapter) (*session.Session, error) {
	n.mu.Lock()
	if n.closed {
		n.mu.Unlock()
		return nil, ErrNodeClosed
	}
	n.mu.Unlock()

	s, err := n.sessions.Create(remotePeerID, a)
	if err != nil {
		return nil, err
	}

	l := newLink(n, s)
	n.mu.Lock()
	n.links[remotePeerID] = l
	n.mu.Unlock()

	context.AfterFunc(s.Context(), l.teardown)

	logrus.WithFields(logrus.Fields{
		"function":   "Attach",
		"session_id": remotePeerID,
	}).Info("Adapter attached")

	n.notifier.SessionStatusChanged(remotePeerID, session.StatusConnecting)
	a.Bind(l)
	return s, nil
}

// lookup returns the live link for id.
func (n *Node) lookup(id string) (*link, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	l, ok := n.links[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", session.ErrSessionNotFound, id)
	}
	return l, nil
}

// current reports whether l is still the live link for its peer.
func (n *Node) current(l *link) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.links[l.id] == l
}

func (n *Node) drop(l *link) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.links[l.id] == l {
		delete(n.links, l.id)
	}
}

// WaitOpen blocks until the adapter of remotePeerID has opened, the session
// is torn down or ctx is done.
func (n *Node) WaitOpen(ctx context.Context, remotePeerID string) error {
	l, err := n.lookup(remotePeerID)
	if err != nil {
		return err
	}
	select {
	case <-l.opened:
		return nil
	case <-l.ctx.Done():
		return context.Cause(l.ctx)
	case <-ctx.Done():
		return ctx.Err()
	}
}

// SendFiles sends srcs to remotePeerID one after another. Removing or
// evicting the session cancels the send.
func (n *Node) SendFiles(ctx context.Context, remotePeerID string, srcs ...file.Source) error {
	l, err := n.lookup(remotePeerID)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)
	stop := context.AfterFunc(l.ctx, func() { cancel(context.Cause(l.ctx)) })
	defer stop()

	_ = n.sessions.Touch(remotePeerID)

	logrus.WithFields(logrus.Fields{
		"function":   "SendFiles",
		"session_id": remotePeerID,
		"files":      len(srcs),
	}).Info("Sending files")

	return l.sender.SendAll(ctx, srcs...)
}

// Session returns a snapshot of the session for remotePeerID.
func (n *Node) Session(remotePeerID string) (*session.Session, error) {
	return n.sessions.Lookup(remotePeerID)
}

// Sessions returns snapshots of all sessions ordered by peer id.
func (n *Node) Sessions() []*session.Session {
	return n.sessions.List()
}

// Remove tears down the session for remotePeerID.
func (n *Node) Remove(remotePeerID string) error {
	return n.sessions.Remove(remotePeerID)
}

// Sweep evicts idle sessions and expires stalled incoming transfers. It
// returns the evicted peer ids.
func (n *Node) Sweep() []string {
	evicted := n.sessions.EvictIdle(n.options.IdleTimeout)

	n.mu.Lock()
	links := make([]*link, 0, len(n.links))
	for _, l := range n.links {
		links = append(links, l)
	}
	n.mu.Unlock()

	for _, l := range links {
		l.receiver.ExpireStalled()
	}
	return evicted
}

// Run sweeps every SweepInterval until ctx is done.
func (n *Node) Run(ctx context.Context) error {
	ticker := time.NewTicker(n.options.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if evicted := n.Sweep(); len(evicted) > 0 {
				logrus.WithFields(logrus.Fields{
					"function": "Run",
					"evicted":  evicted,
				}).Info("Evicted idle sessions")
			}
		}
	}
}

// Close tears down every session. The node cannot be used afterwards.
func (n *Node) Close() error {
	n.mu.Lock()
	if n.closed {
		n.mu.Unlock()
		return nil
	}
	n.closed = true
	n.mu.Unlock()

	logrus.WithFields(logrus.Fields{
		"function": "Close",
	}).Info("Closing peerdrop node")

	return n.sessions.Close()
}
