package peerdrop

import "time"

const (
	testPeerAlice = "alice"
	testPeerBob   = "bob"

	testWait = 2 * time.Second
	testTick = 2 * time.Millisecond
)
