package file

import (
	"errors"
	"fmt"
)

// ErrProtocolAnomaly is the parent of every error caused by an unexpected or
// invalid inbound message. Anomalies are logged and dropped; they never
// affect other transfers on the same channel.
var ErrProtocolAnomaly = errors.New("protocol anomaly")

var (
	// ErrMalformedMessage indicates a message that does not match either wire variant.
	ErrMalformedMessage = fmt.Errorf("%w: malformed message", ErrProtocolAnomaly)

	// ErrUnknownTransfer indicates a chunk for a transfer with no live metadata.
	ErrUnknownTransfer = fmt.Errorf("%w: unknown transfer", ErrProtocolAnomaly)

	// ErrDuplicateChunk indicates redelivery of an already stored chunk index.
	ErrDuplicateChunk = fmt.Errorf("%w: duplicate chunk", ErrProtocolAnomaly)

	// ErrDuplicateTransfer indicates a second metadata message for a live or recently finished transfer.
	ErrDuplicateTransfer = fmt.Errorf("%w: duplicate transfer", ErrProtocolAnomaly)

	// ErrSizeMismatch indicates a chunk whose length or count disagrees with the declared size.
	ErrSizeMismatch = fmt.Errorf("%w: size mismatch", ErrProtocolAnomaly)
)

var (
	// ErrReadFailed indicates the local file could not be read while sending.
	ErrReadFailed = errors.New("file read failed")

	// ErrTransport indicates the adapter refused a message.
	ErrTransport = errors.New("transport send failed")

	// ErrTransferStalled indicates that a transfer has not received data within the timeout period.
	ErrTransferStalled = errors.New("transfer stalled: no data received within timeout period")

	// ErrTransferCancelled indicates the transfer was aborted by its session.
	ErrTransferCancelled = errors.New("transfer cancelled")

	// ErrChecksumMismatch indicates the reassembled bytes do not match the declared checksum.
	ErrChecksumMismatch = errors.New("checksum mismatch")

	// ErrDirectoryTraversal indicates an attempt to access files outside allowed directories.
	ErrDirectoryTraversal = errors.New("path contains directory traversal")

	// ErrReceiverClosed is returned by a receiver after Abort.
	ErrReceiverClosed = errors.New("receiver closed")
)
