// Package limits provides centralized size constants and validation functions
// for the peerdrop transfer protocol. This package ensures consistent size
// enforcement between the sender, the receiver and the wire codec.
//
// # Size Hierarchy
//
//   - ChunkSize (16384 bytes): The fixed payload size of a chunk message. Only
//     the final chunk of a file may be shorter.
//
//   - MaxMessageSize (ChunkSize + MessageOverhead): The largest encoded wire
//     message a receiver will attempt to decode.
//
//   - DefaultMaxFileSize (1GB): The largest declared file size accepted when no
//     explicit limit is configured. Incoming files are reassembled in memory.
//
// # Chunk Arithmetic
//
// TotalChunks and ChunkLength describe how a file of a given size is split:
//
//	limits.TotalChunks(40000, limits.ChunkSize)    // 3
//	limits.ChunkLength(40000, 2, limits.ChunkSize) // 7232
//
// The receiver uses ChunkLength to reject any chunk whose payload length does
// not match its index, which keeps the received byte count from ever
// exceeding the declared size.
//
// # Error Types
//
//   - ErrMessageEmpty: Returned when an empty or nil message is provided
//   - ErrMessageTooLarge: Returned when message exceeds the specified limit
//   - ErrChunkTooLarge: Returned for chunk payloads above ChunkSize
//   - ErrFileNameEmpty, ErrFileNameTooLong: File name validation failures
//   - ErrFileTooLarge, ErrNegativeSize: Declared size validation failures
package limits
