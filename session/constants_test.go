package session

import "time"

const (
	testPeerA = "peer-a"
	testPeerB = "peer-b"
	testPeerC = "peer-c"

	testIdleTimeout = 5 * time.Minute
)
