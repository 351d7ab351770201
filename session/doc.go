// Package session tracks one Session per remote peer: its connection status,
// transfer progress, received-file history and the adapter it owns.
//
// A Manager is constructed explicitly and owned by the caller; there is no
// package-level session registry.
//
//	m := session.NewManager()
//	s, err := m.Create("peer-42", adapter)
//	_ = m.UpdateStatus("peer-42", session.StatusConnected)
//	go m.Run(ctx, time.Minute, 5*time.Minute)
//
// # Status
//
// A session starts in StatusConnecting and moves forward only:
//
//	connecting -> connected -> disconnected | error
//	connecting -> disconnected | error
//
// Disconnected and error are terminal. UpdateStatus rejects any other
// transition with ErrInvalidTransition. Setting the current status again is
// accepted and only refreshes the activity time.
//
// # Teardown
//
// Every session carries a context. Remove, a Create that replaces an
// existing entry, EvictIdle and Close cancel it with a cause
// (ErrSessionRemoved, ErrSessionReplaced, ErrSessionEvicted, ErrManagerClosed)
// and close the session's adapter, so work bound to the session stops.
package session
