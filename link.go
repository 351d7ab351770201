package peerdrop

import (
	"context"
	"errors"
	"sync"

	"github.com/opd-ai/peerdrop/file"
	"github.com/opd-ai/peerdrop/notify"
	"github.com/opd-ai/peerdrop/session"
	"github.com/opd-ai/peerdrop/transport"
	"github.com/sirupsen/logrus"
)

// link binds one session's adapter to its Sender and Receiver. It is the
// adapter's transport.Handler and the protocol's file.Observer.
type link struct {
	node     *Node
	id       string
	ctx      context.Context
	sender   *file.Sender
	receiver *file.Receiver

	opened     chan struct{}
	openOnce   sync.Once
	mu         sync.Mutex
	status     session.Status
	lastReport int
}

func newLink(n *Node, s *session.Session) *link {
	l := &link{
		node:       n,
		id:         s.ID,
		ctx:        s.Context(),
		opened:     make(chan struct{}),
		status:     session.StatusConnecting,
		lastReport: -1,
	}
	l.sender = file.NewSender(s.Adapter(), l, n.options.senderOptions()...)
	l.receiver = file.NewReceiver(l, n.options.receiverOptions()...)
	return l
}

// live reports whether the session behind l has not been torn down.
func (l *link) live() bool {
	return l.ctx.Err() == nil && l.node.current(l)
}

// setStatus moves the session to status and notifies on change.
func (l *link) setStatus(status session.Status) {
	if !l.live() {
		return
	}
	if err := l.node.sessions.UpdateStatus(l.id, status); err != nil {
		logrus.WithFields(logrus.Fields{
			"function":   "setStatus",
			"session_id": l.id,
			"status":     status.String(),
			"error":      err.Error(),
		}).Debug("Ignoring status change")
		return
	}

	l.mu.Lock()
	changed := l.status != status
	l.status = status
	l.mu.Unlock()

	if changed {
		l.node.notifier.SessionStatusChanged(l.id, status)
	}
}

// teardown runs once the session context is cancelled.
func (l *link) teardown() {
	cause := context.Cause(l.ctx)
	l.receiver.Abort(cause)
	l.node.drop(l)

	l.mu.Lock()
	terminal := l.status.Terminal()
	l.status = session.StatusDisconnected
	l.mu.Unlock()

	logrus.WithFields(logrus.Fields{
		"function":   "teardown",
		"session_id": l.id,
		"cause":      cause.Error(),
	}).Info("Session torn down")

	if !terminal && !errors.Is(cause, session.ErrSessionReplaced) {
		l.node.notifier.SessionStatusChanged(l.id, session.StatusDisconnected)
	}
}

// HandleOpen implements transport.Handler.
func (l *link) HandleOpen() {
	l.openOnce.Do(func() { close(l.opened) })
	l.setStatus(session.StatusConnected)
}

// HandleMessage implements transport.Handler.
func (l *link) HandleMessage(data []byte) {
	if !l.live() {
		return
	}
	_ = l.node.sessions.Touch(l.id)
	// Anomalies are logged by the receiver and dropped.
	_ = l.receiver.HandleMessage(data)
}

// HandleClose implements transport.Handler.
func (l *link) HandleClose() {
	l.setStatus(session.StatusDisconnected)
	l.receiver.Abort(transport.ErrClosed)
}

// HandleError implements transport.Handler.
func (l *link) HandleError(err error) {
	logrus.WithFields(logrus.Fields{
		"function":   "HandleError",
		"session_id": l.id,
		"error":      err.Error(),
	}).Error("Transport error")

	l.setStatus(session.StatusError)
	l.node.notifier.TransportError(l.id, err)
}

// TransferProgress implements file.Observer.
func (l *link) TransferProgress(p file.Progress) {
	if !l.live() {
		return
	}
	pct := p.Percent()
	if err := l.node.sessions.RecordProgress(l.id, pct); err != nil {
		return
	}

	l.mu.Lock()
	if pct == l.lastReport {
		l.mu.Unlock()
		return
	}
	l.lastReport = pct
	l.mu.Unlock()

	l.node.notifier.TransferProgress(l.id, pct)
}

// FileReceived implements file.Observer.
func (l *link) FileReceived(f file.ReceivedFile) {
	var path string
	if dir := l.node.options.DownloadDir; dir != "" {
		saved, err := file.Save(dir, f)
		if err != nil {
			logrus.WithFields(logrus.Fields{
				"function":   "FileReceived",
				"session_id": l.id,
				"file_name":  f.Name,
				"error":      err.Error(),
			}).Error("Failed to save received file")
			l.node.notifier.TransferFailed(l.id, f.Name, err)
		} else {
			path = saved
		}
	}

	_ = l.node.sessions.RecordReceivedFile(l.id, session.ReceivedFile{
		Name: f.Name,
		Type: f.Type,
		Size: int64(len(f.Data)),
		Path: path,
	})

	l.node.notifier.FileReceived(l.id, notify.ReceivedFile{
		Name: f.Name,
		Type: f.Type,
		Data: f.Data,
		Path: path,
	})
}

// TransferFailed implements file.Observer.
func (l *link) TransferFailed(p file.Progress, err error) {
	l.node.notifier.TransferFailed(l.id, p.FileName, err)

	if errors.Is(err, file.ErrTransport) {
		l.setStatus(session.StatusError)
		l.node.notifier.TransportError(l.id, err)
	}
}
