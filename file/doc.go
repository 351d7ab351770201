// Package file implements the peerdrop chunked file-transfer protocol,
// splitting outgoing files into bounded chunks and reassembling incoming
// chunks that may arrive out of order or more than once.
//
// # Overview
//
// The file package provides two primary components:
//
//   - Sender: Emits one metadata message followed by the chunk stream for
//     each queued file, applying flow control against the transport buffer
//   - Receiver: Reassembles chunks into complete files keyed by transfer id,
//     detecting completion and expiring stalled transfers
//
// # Wire Messages
//
// Two message kinds travel over the data channel, encoded as canonical CBOR
// maps:
//
//	metadata: transferId, fileName, fileType, fileSize, [checksum]
//	chunk:    transferId, fileName, chunkIndex, totalChunks, chunk
//
// Decode validates every inbound message against exactly these two shapes.
// Unknown keys, missing keys, fields from the other variant and out-of-range
// values are rejected with ErrMalformedMessage.
//
// # Sending
//
//	sender := file.NewSender(adapter, observer,
//	    file.WithPollInterval(100*time.Millisecond))
//
//	src, err := file.OpenFile("/path/to/photo.jpg")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer src.Close()
//
//	if err := sender.SendAll(ctx, src); err != nil {
//	    log.Println(err)
//	}
//
// Outgoing transfers progress through defined states:
//
//	SendStateIdle -> SendStateSendingMetadata -> SendStateSendingChunks
//	    -> (SendStateDraining <-> SendStateSendingChunks) -> SendStateComplete
//
// SendStateDraining is entered whenever the adapter's BufferedAmount exceeds
// the threshold (twice the adapter's MaxMessageSize unless overridden) and
// left once the gauge is back at or below it.
//
// Zero-byte files produce a metadata message and no chunks.
//
// # Receiving
//
//	receiver := file.NewReceiver(observer, file.WithStallTimeout(30*time.Second))
//
//	// From the adapter's Handler:
//	func (h *handler) HandleMessage(data []byte) {
//	    if err := receiver.HandleMessage(data); err != nil {
//	        // errors.Is(err, file.ErrProtocolAnomaly): logged and dropped
//	    }
//	}
//
// Chunks are stored by index. A chunk whose slot is already filled is a
// no-op, a chunk for an unknown transfer id is dropped, and a chunk whose
// length does not match its index is rejected, so the received byte count
// never exceeds the declared size. When every byte has arrived the slots are
// concatenated in index order and the Observer receives FileReceived exactly
// once.
//
// # Cancellation and Stalls
//
// Receiver.ExpireStalled terminates transfers that received nothing within
// the stall timeout (ErrTransferStalled). Receiver.Abort drops every pending
// transfer (ErrTransferCancelled); the peerdrop Node calls it when a session
// ends. A Sender observes its context between chunks and while draining.
//
// # Deterministic Testing
//
// For reproducible stall scenarios, inject a TimeProvider:
//
//	receiver := file.NewReceiver(obs, file.WithTimeProvider(mockTime))
//
// # Error Handling
//
// Anomalies wrap ErrProtocolAnomaly (ErrMalformedMessage, ErrUnknownTransfer,
// ErrDuplicateChunk, ErrDuplicateTransfer, ErrSizeMismatch). Send failures
// wrap ErrTransport, local read failures wrap ErrReadFailed. All errors are
// wrapped with context for debugging.
package file
