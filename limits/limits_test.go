package limits

import (
	"errors"
	"strings"
	"testing"
)

// TestTotalChunks verifies ceil(size/chunkSize) for boundary sizes
func TestTotalChunks(t *testing.T) {
	tests := []struct {
		size int64
		want int
	}{
		{0, 0},
		{1, 1},
		{ChunkSize - 1, 1},
		{ChunkSize, 1},
		{ChunkSize + 1, 2},
		{40000, 3},
		{3 * ChunkSize, 3},
	}

	for _, tt := range tests {
		if got := TotalChunks(tt.size, ChunkSize); got != tt.want {
			t.Errorf("TotalChunks(%d) = %d, want %d", tt.size, got, tt.want)
		}
	}

	if got := TotalChunks(100, 0); got != 0 {
		t.Errorf("TotalChunks with zero chunk size = %d, want 0", got)
	}
}

// TestChunkLength verifies the 40000-byte file splits into 16384, 16384, 7232
func TestChunkLength(t *testing.T) {
	want := []int{16384, 16384, 7232}
	for i, w := range want {
		if got := ChunkLength(40000, i, ChunkSize); got != w {
			t.Errorf("ChunkLength(40000, %d) = %d, want %d", i, got, w)
		}
	}

	if got := ChunkLength(40000, 3, ChunkSize); got != -1 {
		t.Errorf("out of range index returned %d, want -1", got)
	}
	if got := ChunkLength(40000, -1, ChunkSize); got != -1 {
		t.Errorf("negative index returned %d, want -1", got)
	}
	if got := ChunkLength(0, 0, ChunkSize); got != -1 {
		t.Errorf("zero-byte file index 0 returned %d, want -1", got)
	}
}

// TestChunkLengthsSumToSize checks that all chunk lengths add up to the file size
func TestChunkLengthsSumToSize(t *testing.T) {
	for _, size := range []int64{1, 100, ChunkSize, ChunkSize + 7, 5*ChunkSize - 3, 1 << 20} {
		var sum int64
		n := TotalChunks(size, ChunkSize)
		for i := 0; i < n; i++ {
			l := ChunkLength(size, i, ChunkSize)
			if l <= 0 || l > ChunkSize {
				t.Fatalf("size %d index %d: invalid length %d", size, i, l)
			}
			sum += int64(l)
		}
		if sum != size {
			t.Errorf("size %d: chunk lengths sum to %d", size, sum)
		}
	}
}

func TestValidateChunk(t *testing.T) {
	tests := []struct {
		name    string
		chunk   []byte
		wantErr error
	}{
		{"nil chunk", nil, ErrMessageEmpty},
		{"empty chunk", []byte{}, ErrMessageEmpty},
		{"one byte", []byte{1}, nil},
		{"full chunk", make([]byte, ChunkSize), nil},
		{"oversized chunk", make([]byte, ChunkSize+1), ErrChunkTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateChunk(tt.chunk)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidateChunk() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateFileName(t *testing.T) {
	if err := ValidateFileName("photo.jpg"); err != nil {
		t.Errorf("valid name rejected: %v", err)
	}
	if err := ValidateFileName(""); !errors.Is(err, ErrFileNameEmpty) {
		t.Errorf("empty name: got %v, want ErrFileNameEmpty", err)
	}
	if err := ValidateFileName(strings.Repeat("a", MaxFileNameLength)); err != nil {
		t.Errorf("max-length name rejected: %v", err)
	}
	if err := ValidateFileName(strings.Repeat("a", MaxFileNameLength+1)); !errors.Is(err, ErrFileNameTooLong) {
		t.Errorf("long name: got %v, want ErrFileNameTooLong", err)
	}
}

func TestValidateFileSize(t *testing.T) {
	if err := ValidateFileSize(0, 0); err != nil {
		t.Errorf("zero size rejected: %v", err)
	}
	if err := ValidateFileSize(-1, 0); !errors.Is(err, ErrNegativeSize) {
		t.Errorf("negative size: got %v, want ErrNegativeSize", err)
	}
	if err := ValidateFileSize(DefaultMaxFileSize+1, 0); !errors.Is(err, ErrFileTooLarge) {
		t.Errorf("default limit: got %v, want ErrFileTooLarge", err)
	}
	if err := ValidateFileSize(101, 100); !errors.Is(err, ErrFileTooLarge) {
		t.Errorf("custom limit: got %v, want ErrFileTooLarge", err)
	}
	if err := ValidateFileSize(100, 100); err != nil {
		t.Errorf("size at limit rejected: %v", err)
	}
}

// TestValidateWireMessage tests the inbound message bound
func TestValidateWireMessage(t *testing.T) {
	if err := ValidateWireMessage(nil); err != ErrMessageEmpty {
		t.Errorf("nil message: got %v, want ErrMessageEmpty", err)
	}
	if err := ValidateWireMessage(make([]byte, MaxMessageSize)); err != nil {
		t.Errorf("max-size message rejected: %v", err)
	}
	if err := ValidateWireMessage(make([]byte, MaxMessageSize+1)); !errors.Is(err, ErrMessageTooLarge) {
		t.Errorf("oversized message: got %v, want ErrMessageTooLarge", err)
	}
}

// TestConstantConsistency verifies internal consistency of the size constants
func TestConstantConsistency(t *testing.T) {
	if MaxMessageSize <= ChunkSize {
		t.Errorf("MaxMessageSize (%d) should be > ChunkSize (%d)", MaxMessageSize, ChunkSize)
	}
	if DefaultMaxFileSize < ChunkSize {
		t.Errorf("DefaultMaxFileSize (%d) should be >= ChunkSize (%d)", DefaultMaxFileSize, ChunkSize)
	}
}
