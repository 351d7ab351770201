package file

import (
	"fmt"
	"math"

	"github.com/fxamacker/cbor/v2"
	"github.com/opd-ai/peerdrop/limits"
)

// Kind discriminates the two wire message variants.
type Kind string

const (
	// KindMetadata announces a file before its chunk stream.
	KindMetadata Kind = "metadata"
	// KindChunk carries one slice of a file.
	KindChunk Kind = "chunk"
)

// ChecksumSize is the length of the optional BLAKE2b-256 file checksum.
const ChecksumSize = 32

// Message is a decoded, validated wire message: *Metadata or *Chunk.
type Message interface {
	Kind() Kind
	ID() string
}

// Metadata announces name, type and size of the file identified by TransferID.
type Metadata struct {
	TransferID string
	FileName   string
	FileType   string
	FileSize   int64
	Checksum   []byte
}

// Kind implements Message.
func (m *Metadata) Kind() Kind { return KindMetadata }

// ID implements Message.
func (m *Metadata) ID() string { return m.TransferID }

// Chunk carries the bytes at position ChunkIndex of the transfer's file.
type Chunk struct {
	TransferID  string
	FileName    string
	ChunkIndex  int
	TotalChunks int
	Data        []byte
}

// Kind implements Message.
func (c *Chunk) Kind() Kind { return KindChunk }

// ID implements Message.
func (c *Chunk) ID() string { return c.TransferID }

// wireMessage is the CBOR map shared by both variants. Pointer fields
// distinguish an absent key from a zero value during validation.
type wireMessage struct {
	Kind        Kind    `cbor:"kind"`
	TransferID  string  `cbor:"transferId"`
	FileName    string  `cbor:"fileName"`
	FileType    *string `cbor:"fileType,omitempty"`
	FileSize    *int64  `cbor:"fileSize,omitempty"`
	Checksum    []byte  `cbor:"checksum,omitempty"`
	ChunkIndex  *int64  `cbor:"chunkIndex,omitempty"`
	TotalChunks *int64  `cbor:"totalChunks,omitempty"`
	Chunk       []byte  `cbor:"chunk,omitempty"`
}

var (
	encMode cbor.EncMode
	decMode cbor.DecMode
)

func init() {
	var err error
	if encMode, err = cbor.CanonicalEncOptions().EncMode(); err != nil {
		panic(fmt.Sprintf("file: cbor encoder: %v", err))
	}
	decMode, err = cbor.DecOptions{
		DupMapKey:         cbor.DupMapKeyEnforcedAPF,
		ExtraReturnErrors: cbor.ExtraDecErrorUnknownField,
		MaxNestedLevels:   4,
	}.DecMode()
	if err != nil {
		panic(fmt.Sprintf("file: cbor decoder: %v", err))
	}
}

// Encode serializes a Metadata or Chunk message.
func Encode(msg Message) ([]byte, error) {
	var w wireMessage
	switch m := msg.(type) {
	case *Metadata:
		fileType, fileSize := m.FileType, m.FileSize
		w = wireMessage{
			Kind:       KindMetadata,
			TransferID: m.TransferID,
			FileName:   m.FileName,
			FileType:   &fileType,
			FileSize:   &fileSize,
			Checksum:   m.Checksum,
		}
	case *Chunk:
		index, total := int64(m.ChunkIndex), int64(m.TotalChunks)
		w = wireMessage{
			Kind:        KindChunk,
			TransferID:  m.TransferID,
			FileName:    m.FileName,
			ChunkIndex:  &index,
			TotalChunks: &total,
			Chunk:       m.Data,
		}
	default:
		return nil, fmt.Errorf("encode: unsupported message type %T", msg)
	}
	return encMode.Marshal(&w)
}

// Decode parses and validates one inbound message. Anything that is not a
// well-formed metadata or chunk message yields an error wrapping
// ErrMalformedMessage.
func Decode(data []byte) (Message, error) {
	if err := limits.ValidateWireMessage(data); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedMessage, err)
	}

	var w wireMessage
	if err := decMode.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedMessage, err)
	}

	if w.TransferID == "" || len(w.TransferID) > limits.MaxTransferIDLength {
		return nil, fmt.Errorf("%w: invalid transfer id length %d", ErrMalformedMessage, len(w.TransferID))
	}
	if err := limits.ValidateFileName(w.FileName); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedMessage, err)
	}

	switch w.Kind {
	case KindMetadata:
		return decodeMetadata(&w)
	case KindChunk:
		return decodeChunk(&w)
	default:
		return nil, fmt.Errorf("%w: unknown kind %q", ErrMalformedMessage, w.Kind)
	}
}

func decodeMetadata(w *wireMessage) (*Metadata, error) {
	if w.FileType == nil || w.FileSize == nil {
		return nil, fmt.Errorf("%w: metadata missing fileType or fileSize", ErrMalformedMessage)
	}
	if w.ChunkIndex != nil || w.TotalChunks != nil || w.Chunk != nil {
		return nil, fmt.Errorf("%w: metadata carries chunk fields", ErrMalformedMessage)
	}
	if len(*w.FileType) > limits.MaxFileTypeLength {
		return nil, fmt.Errorf("%w: fileType too long", ErrMalformedMessage)
	}
	if *w.FileSize < 0 {
		return nil, fmt.Errorf("%w: negative fileSize %d", ErrMalformedMessage, *w.FileSize)
	}
	if w.Checksum != nil && len(w.Checksum) != ChecksumSize {
		return nil, fmt.Errorf("%w: checksum length %d", ErrMalformedMessage, len(w.Checksum))
	}

	return &Metadata{
		TransferID: w.TransferID,
		FileName:   w.FileName,
		FileType:   *w.FileType,
		FileSize:   *w.FileSize,
		Checksum:   w.Checksum,
	}, nil
}

func decodeChunk(w *wireMessage) (*Chunk, error) {
	if w.ChunkIndex == nil || w.TotalChunks == nil || w.Chunk == nil {
		return nil, fmt.Errorf("%w: chunk missing chunkIndex, totalChunks or chunk", ErrMalformedMessage)
	}
	if w.FileType != nil || w.FileSize != nil || w.Checksum != nil {
		return nil, fmt.Errorf("%w: chunk carries metadata fields", ErrMalformedMessage)
	}

	index, total := *w.ChunkIndex, *w.TotalChunks
	if total < 1 || index < 0 || index >= total {
		return nil, fmt.Errorf("%w: chunk index %d of %d", ErrMalformedMessage, index, total)
	}
	if total > math.MaxInt32 {
		return nil, fmt.Errorf("%w: totalChunks %d out of range", ErrMalformedMessage, total)
	}
	if err := limits.ValidateChunk(w.Chunk); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedMessage, err)
	}

	return &Chunk{
		TransferID:  w.TransferID,
		FileName:    w.FileName,
		ChunkIndex:  int(index),
		TotalChunks: int(total),
		Data:        w.Chunk,
	}, nil
}
