package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/opd-ai/peerdrop/transport"
)

var (
	// ErrSessionNotFound is returned for an id with no live session.
	ErrSessionNotFound = errors.New("session not found")

	// ErrEmptyPeerID is returned by Create for an empty remote peer id.
	ErrEmptyPeerID = errors.New("empty remote peer id")

	// ErrInvalidTransition is returned when a status change violates the state machine.
	ErrInvalidTransition = errors.New("invalid session status transition")

	// ErrInvalidProgress is returned for a progress value outside 0..100.
	ErrInvalidProgress = errors.New("progress out of range")

	// ErrManagerClosed is returned by Create after Close, and is the
	// cancellation cause of sessions torn down by Close.
	ErrManagerClosed = errors.New("session manager closed")

	// ErrSessionRemoved is the cancellation cause of a removed session.
	ErrSessionRemoved = errors.New("session removed")

	// ErrSessionReplaced is the cancellation cause of a session superseded by Create.
	ErrSessionReplaced = errors.New("session replaced")

	// ErrSessionEvicted is the cancellation cause of an idle session.
	ErrSessionEvicted = errors.New("session evicted after inactivity")
)

// Status represents the connection status of a session.
type Status uint8

const (
	StatusConnecting Status = iota
	StatusConnected
	StatusDisconnected
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusConnecting:
		return "connecting"
	case StatusConnected:
		return "connected"
	case StatusDisconnected:
		return "disconnected"
	case StatusError:
		return "error"
	default:
		return fmt.Sprintf("Status(%d)", s)
	}
}

// Terminal reports whether no further transition is allowed from s.
func (s Status) Terminal() bool {
	return s == StatusDisconnected || s == StatusError
}

// canTransition reports whether from -> to is allowed.
func canTransition(from, to Status) bool {
	if from == to {
		return true
	}
	switch from {
	case StatusConnecting:
		return to == StatusConnected || to == StatusDisconnected || to == StatusError
	case StatusConnected:
		return to == StatusDisconnected || to == StatusError
	}
	return false
}

// ReceivedFile is one entry of a session's received-file history.
type ReceivedFile struct {
	Name       string
	Type       string
	Size       int64
	Path       string
	ReceivedAt time.Time
}

// Session is the state kept for one remote peer. Values returned by the
// Manager are snapshots; mutating them does not affect the live session.
type Session struct {
	ID            string
	Status        Status
	Progress      int
	ReceivedFiles []ReceivedFile
	LastActivity  time.Time
	CreatedAt     time.Time

	adapter transport.Adapter
	ctx     context.Context
	cancel  context.CancelCauseFunc
}

// Adapter returns the transport adapter owned by the session.
func (s *Session) Adapter() transport.Adapter { return s.adapter }

// Context is cancelled when the session is removed, replaced, evicted or
// its manager is closed. context.Cause reports which.
func (s *Session) Context() context.Context { return s.ctx }

func (s *Session) snapshot() *Session {
	c := *s
	c.ReceivedFiles = append([]ReceivedFile(nil), s.ReceivedFiles...)
	return &c
}
