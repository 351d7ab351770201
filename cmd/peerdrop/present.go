package main

import (
	"context"
	"fmt"
	"io"

	"github.com/dustin/go-humanize"
	"github.com/opd-ai/peerdrop/notify"
	"github.com/opd-ai/peerdrop/session"
	"github.com/schollz/progressbar/v3"
)

// presenter renders queued node events on a terminal.
type presenter struct {
	out  io.Writer
	bar  *progressbar.ProgressBar
	last int

	// want stops the presenter after this many received files; 0 never stops.
	want     int
	received int
}

func newPresenter(out io.Writer, want int) *presenter {
	return &presenter{
		out:  out,
		want: want,
		bar: progressbar.NewOptions(100,
			progressbar.OptionSetWriter(out),
			progressbar.OptionSetDescription("transfer"),
			progressbar.OptionSetWidth(30),
			progressbar.OptionShowCount(),
		),
	}
}

// handle renders ev. It returns done once nothing more is expected.
func (p *presenter) handle(ev notify.Event) (done bool, err error) {
	switch ev.Kind {
	case notify.EventProgress:
		if ev.Percent < p.last {
			p.bar.Reset()
		}
		p.last = ev.Percent
		_ = p.bar.Set(ev.Percent)

	case notify.EventFileReceived:
		p.received++
		p.last = 0
		p.bar.Reset()
		where := ev.File.Path
		if where == "" {
			where = "(memory)"
		}
		fmt.Fprintf(p.out, "\nreceived %s (%s) -> %s\n", ev.File.Name, humanize.Bytes(uint64(len(ev.File.Data))), where)
		if p.want > 0 && p.received >= p.want {
			return true, nil
		}

	case notify.EventTransferFailed:
		fmt.Fprintf(p.out, "\nfailed %s: %v\n", ev.FileName, ev.Err)

	case notify.EventTransportError:
		return true, fmt.Errorf("transport error: %w", ev.Err)

	case notify.EventStatus:
		fmt.Fprintf(p.out, "peer %s: %s\n", ev.SessionID, ev.Status)
		if ev.Status.Terminal() {
			return true, nil
		}
	}
	return false, nil
}

// drain renders events from q until ctx is done or the presenter is finished.
func (p *presenter) drain(ctx context.Context, q *notify.Queue) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-q.Done():
			return nil
		case ev := <-q.Events():
			done, err := p.handle(ev)
			if err != nil || done {
				return err
			}
		}
	}
}

// statusLine is used in summaries printed after a command finishes.
func statusLine(s *session.Session) string {
	return fmt.Sprintf("%s %s, %d file(s) received", s.ID, s.Status, len(s.ReceivedFiles))
}
