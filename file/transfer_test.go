package file

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProgressPercent(t *testing.T) {
	tests := []struct {
		transferred, total int64
		want               int
	}{
		{0, 0, 100},
		{0, 40000, 0},
		{16384, 40000, 40},
		{32768, 40000, 81},
		{40000, 40000, 100},
		{50000, 40000, 100},
		{-1, 40000, 0},
	}
	for _, tt := range tests {
		p := Progress{Transferred: tt.transferred, Total: tt.total}
		assert.Equal(t, tt.want, p.Percent(), "%d/%d", tt.transferred, tt.total)
	}
}

func TestSendStateString(t *testing.T) {
	assert.Equal(t, "idle", SendStateIdle.String())
	assert.Equal(t, "draining", SendStateDraining.String())
	assert.Equal(t, "failed", SendStateFailed.String())
	assert.Equal(t, "SendState(42)", SendState(42).String())
}

func TestTransferDirectionString(t *testing.T) {
	assert.Equal(t, "incoming", TransferDirectionIncoming.String())
	assert.Equal(t, "outgoing", TransferDirectionOutgoing.String())
}

func TestOutgoingTransferShortRead(t *testing.T) {
	src := NewBytesSource("a.bin", "", randomBytes(100, 1))
	tr := newOutgoingTransfer("t-1", &truncatedSource{Source: src, size: 200})

	_, err := tr.nextChunk(make([]byte, tr.ChunkSize))
	assert.ErrorIs(t, err, ErrReadFailed)
	assert.Equal(t, int64(0), tr.Offset)
}

// truncatedSource claims more bytes than it can serve.
type truncatedSource struct {
	Source
	size int64
}

func (s *truncatedSource) Size() int64 { return s.size }
