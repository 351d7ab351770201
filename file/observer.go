package file

// Progress describes how far one transfer has advanced.
type Progress struct {
	TransferID  string
	FileName    string
	Direction   TransferDirection
	Transferred int64
	Total       int64
}

// Percent returns progress as an integer in [0, 100]. Zero-byte transfers
// are reported complete.
func (p Progress) Percent() int {
	if p.Total <= 0 {
		return 100
	}
	pct := int(p.Transferred * 100 / p.Total)
	switch {
	case pct < 0:
		return 0
	case pct > 100:
		return 100
	}
	return pct
}

// ReceivedFile is a completely reassembled incoming file.
type ReceivedFile struct {
	TransferID string
	Name       string
	Type       string
	Data       []byte
}

// Observer receives transfer events from a Sender or Receiver. Methods are
// called synchronously from the goroutine driving the transfer, never while
// internal locks are held.
type Observer interface {
	// TransferProgress reports a change in whole-percent progress.
	TransferProgress(p Progress)

	// FileReceived delivers a completed incoming file exactly once.
	FileReceived(f ReceivedFile)

	// TransferFailed reports a transfer that terminated without completing.
	TransferFailed(p Progress, err error)
}

// NopObserver ignores every event.
type NopObserver struct{}

func (NopObserver) TransferProgress(Progress)      {}
func (NopObserver) FileReceived(ReceivedFile)      {}
func (NopObserver) TransferFailed(Progress, error) {}
