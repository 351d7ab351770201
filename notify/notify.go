// Package notify carries events from the transfer core to a presentation
// layer: received files, progress, session status changes and errors.
//
// The core calls a Notifier synchronously. Implementations must return
// quickly; Queue hands events to a separate consumer goroutine.
package notify

import (
	"github.com/opd-ai/peerdrop/session"
)

// ReceivedFile is a completed incoming file.
type ReceivedFile struct {
	Name string
	Type string
	Data []byte
	// Path is where the file was saved, empty if it was kept in memory only.
	Path string
}

// Notifier receives core-to-presentation events for one node.
type Notifier interface {
	FileReceived(sessionID string, f ReceivedFile)
	TransferProgress(sessionID string, percent int)
	SessionStatusChanged(sessionID string, status session.Status)
	TransportError(sessionID string, err error)
	TransferFailed(sessionID, fileName string, err error)
}

// Nop discards every event.
type Nop struct{}

func (Nop) FileReceived(string, ReceivedFile)           {}
func (Nop) TransferProgress(string, int)                {}
func (Nop) SessionStatusChanged(string, session.Status) {}
func (Nop) TransportError(string, error)                {}
func (Nop) TransferFailed(string, string, error)        {}

// Multi fans every event out to each of its notifiers in order.
type Multi []Notifier

// FileReceived implements Notifier.
func (m Multi) FileReceived(sessionID string, f ReceivedFile) {
	for _, n := range m {
		n.FileReceived(sessionID, f)
	}
}

// TransferProgress implements Notifier.
func (m Multi) TransferProgress(sessionID string, percent int) {
	for _, n := range m {
		n.TransferProgress(sessionID, percent)
	}
}

// SessionStatusChanged implements Notifier.
func (m Multi) SessionStatusChanged(sessionID string, status session.Status) {
	for _, n := range m {
		n.SessionStatusChanged(sessionID, status)
	}
}

// TransportError implements Notifier.
func (m Multi) TransportError(sessionID string, err error) {
	for _, n := range m {
		n.TransportError(sessionID, err)
	}
}

// TransferFailed implements Notifier.
func (m Multi) TransferFailed(sessionID, fileName string, err error) {
	for _, n := range m {
		n.TransferFailed(sessionID, fileName, err)
	}
}
