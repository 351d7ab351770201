package file

import (
	"context"
	"testing"

	"github.com/opd-ai/peerdrop/limits"
	"github.com/opd-ai/peerdrop/transport"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// receiverHandler feeds a Receiver from a transport adapter.
type receiverHandler struct {
	transport.NopHandler
	r *Receiver
}

func (h receiverHandler) HandleMessage(data []byte) {
	_ = h.r.HandleMessage(data)
}

func TestRoundTripOverPipe(t *testing.T) {
	local, remote := transport.Pipe(0)
	defer local.Close()

	rx := &recordingObserver{}
	remote.Bind(receiverHandler{r: NewReceiver(rx)})
	local.Bind(transport.NopHandler{})

	want := map[string][]byte{
		"report.pdf": randomBytes(testScenarioFileSize, 1),
		"empty.txt":  {},
		"large.bin":  randomBytes(10*limits.ChunkSize+17, 2),
	}
	srcs := []Source{
		NewBytesSource("report.pdf", "application/pdf", want["report.pdf"]),
		NewBytesSource("empty.txt", "text/plain", want["empty.txt"]),
		NewBytesSource("large.bin", "", want["large.bin"]),
	}

	s := NewSender(local, nil, WithPollInterval(testPollInterval))
	require.NoError(t, s.SendAll(context.Background(), srcs...))

	require.Eventually(t, func() bool { return len(rx.files()) == len(want) }, testWait, testTick)

	files := rx.files()
	assert.Equal(t, "report.pdf", files[0].Name)
	assert.Equal(t, "application/pdf", files[0].Type)
	assert.Equal(t, "empty.txt", files[1].Name)
	assert.Equal(t, "large.bin", files[2].Name)
	for _, f := range files {
		assert.Equal(t, want[f.Name], f.Data, f.Name)
	}
	assert.Empty(t, rx.failures())
}

func TestRoundTripOverCongestedPipe(t *testing.T) {
	local, remote := transport.Pipe(0)
	defer local.Close()

	rx := &recordingObserver{}
	remote.Bind(receiverHandler{r: NewReceiver(rx)})
	local.Bind(transport.NopHandler{})
	remote.Hold()

	data := randomBytes(10*limits.ChunkSize, 3)
	s := NewSender(local, nil, WithBufferThreshold(2*limits.MaxMessageSize), WithPollInterval(testPollInterval))

	done := make(chan error, 1)
	go func() {
		done <- s.SendAll(context.Background(), NewBytesSource("held.bin", "", data))
	}()

	require.Eventually(t, func() bool { return s.State() == SendStateDraining }, testWait, testTick)
	assert.LessOrEqual(t, local.BufferedAmount(), uint64(4*limits.MaxMessageSize))

	remote.Release()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-waitTimeout():
		t.Fatal("sender did not finish after release")
	}
	require.Eventually(t, func() bool { return len(rx.files()) == 1 }, testWait, testTick)
	assert.Equal(t, data, rx.files()[0].Data)
}
