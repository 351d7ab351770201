// Package limits provides centralized size limits for the peerdrop transfer protocol.
// This ensures consistent validation across the sender, the receiver and the wire codec.
package limits

import (
	"errors"
	"fmt"
)

const (
	// ChunkSize is the fixed payload size of one chunk message.
	// The final chunk of a transfer may be shorter.
	ChunkSize = 16384

	// MaxFileNameLength is the maximum file name length in bytes.
	// The value (255) matches typical filesystem limits.
	MaxFileNameLength = 255

	// MaxFileTypeLength bounds the declared MIME type.
	MaxFileTypeLength = 255

	// MaxTransferIDLength bounds the sender-generated transfer identifier.
	MaxTransferIDLength = 64

	// MessageOverhead is the headroom reserved for the CBOR envelope around a chunk payload.
	MessageOverhead = 512

	// MaxMessageSize is the largest inbound wire message accepted before decoding.
	MaxMessageSize = ChunkSize + MessageOverhead

	// DefaultMaxFileSize caps a declared file size (1GB). Incoming files are
	// reassembled in memory, so this bounds memory per transfer.
	DefaultMaxFileSize = 1 << 30
)

var (
	// ErrMessageEmpty indicates an empty message was provided
	ErrMessageEmpty = errors.New("empty message")

	// ErrMessageTooLarge indicates message exceeds maximum size
	ErrMessageTooLarge = errors.New("message too large")

	// ErrChunkTooLarge indicates that a chunk exceeds ChunkSize.
	ErrChunkTooLarge = errors.New("chunk size exceeds maximum allowed")

	// ErrFileNameTooLong indicates that a file name exceeds MaxFileNameLength.
	ErrFileNameTooLong = errors.New("file name too long")

	// ErrFileNameEmpty indicates a missing file name.
	ErrFileNameEmpty = errors.New("file name empty")

	// ErrFileTooLarge indicates a declared size above the configured maximum.
	ErrFileTooLarge = errors.New("file too large")

	// ErrNegativeSize indicates a negative declared size.
	ErrNegativeSize = errors.New("negative file size")
)

// ValidateMessageSize validates a message against the specified maximum size.
// Returns an error with context including the actual and maximum sizes.
func ValidateMessageSize(message []byte, maxSize int) error {
	if len(message) == 0 {
		return ErrMessageEmpty
	}
	if len(message) > maxSize {
		return fmt.Errorf("%w: size %d exceeds limit %d", ErrMessageTooLarge, len(message), maxSize)
	}
	return nil
}

// ValidateWireMessage validates an inbound wire message against MaxMessageSize.
func ValidateWireMessage(message []byte) error {
	return ValidateMessageSize(message, MaxMessageSize)
}

// ValidateChunk checks a chunk payload is non-empty and at most ChunkSize bytes.
func ValidateChunk(chunk []byte) error {
	if len(chunk) == 0 {
		return ErrMessageEmpty
	}
	if len(chunk) > ChunkSize {
		return fmt.Errorf("%w: chunk size %d exceeds limit %d", ErrChunkTooLarge, len(chunk), ChunkSize)
	}
	return nil
}

// ValidateFileName checks a file name is present and within MaxFileNameLength.
func ValidateFileName(name string) error {
	if name == "" {
		return ErrFileNameEmpty
	}
	if len(name) > MaxFileNameLength {
		return fmt.Errorf("%w: %d bytes exceeds limit %d", ErrFileNameTooLong, len(name), MaxFileNameLength)
	}
	return nil
}

// ValidateFileSize checks a declared size against maxSize. A maxSize of zero
// means DefaultMaxFileSize.
func ValidateFileSize(size int64, maxSize int64) error {
	if maxSize <= 0 {
		maxSize = DefaultMaxFileSize
	}
	if size < 0 {
		return fmt.Errorf("%w: %d", ErrNegativeSize, size)
	}
	if size > maxSize {
		return fmt.Errorf("%w: size %d exceeds limit %d", ErrFileTooLarge, size, maxSize)
	}
	return nil
}

// TotalChunks returns ceil(size/chunkSize), the number of chunk messages a
// file of the given size produces. Zero-byte files produce no chunks.
func TotalChunks(size int64, chunkSize int) int {
	if size <= 0 || chunkSize <= 0 {
		return 0
	}
	c := int64(chunkSize)
	return int((size + c - 1) / c)
}

// ChunkLength returns the exact payload length of chunk index for a file of
// the given size, or -1 if the index is out of range.
func ChunkLength(size int64, index int, chunkSize int) int {
	total := TotalChunks(size, chunkSize)
	if index < 0 || index >= total {
		return -1
	}
	if index < total-1 {
		return chunkSize
	}
	return int(size - int64(index)*int64(chunkSize))
}
