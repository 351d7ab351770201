package file

import "time"

// Common test file size constants.
const (
	testFileSize1KB      = 1024
	testScenarioFileSize = 40000
	testMultiChunkSize   = 5*16384 + 123
)

// Timing used when polling asynchronous sender state.
const (
	testWait         = 2 * time.Second
	testTick         = 2 * time.Millisecond
	testPollInterval = 2 * time.Millisecond
)

// testStallTimeout is the stall timeout used by deterministic stall tests.
const testStallTimeout = 30 * time.Second

func waitTimeout() <-chan time.Time {
	return time.After(testWait)
}
