package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/opd-ai/peerdrop"
	"github.com/opd-ai/peerdrop/file"
	"github.com/opd-ai/peerdrop/notify"
	"github.com/opd-ai/peerdrop/transport"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"
)

const receiverID = "receiver"

var sendCmd = &cli.Command{
	Name:      "send",
	Usage:     "offer a connection and send files once the receiver answers",
	ArgsUsage: "FILE...",
	Action: func(cctx *cli.Context) error {
		if cctx.NArg() == 0 {
			return cli.Exit("at least one file is required", 1)
		}
		cfg := loadedConfig(cctx)

		srcs := make([]file.Source, 0, cctx.NArg())
		defer func() { _ = file.CloseAll(srcs) }()
		for _, path := range cctx.Args().Slice() {
			src, err := file.OpenFile(path)
			if err != nil {
				return err
			}
			srcs = append(srcs, src)
		}

		queue := notify.NewQueue(notify.DefaultQueueSize)
		defer queue.Close()

		options := cfg.Options()
		options.Notifier = notify.Multi{queue, notify.NewLogger(nil)}
		node, err := peerdrop.New(options)
		if err != nil {
			return err
		}
		defer node.Close()

		peer, err := transport.NewPeer(cfg.WebRTC.ICEServers)
		if err != nil {
			return err
		}
		defer peer.Close()

		sigCtx, stopSignals := signal.NotifyContext(cctx.Context, os.Interrupt)
		defer stopSignals()
		ctx, cancel := context.WithCancelCause(sigCtx)
		defer cancel(nil)
		peer.OnFailed(cancel)

		dc, err := peer.Open(cfg.WebRTC.ChannelLabel)
		if err != nil {
			return err
		}
		if _, err := node.Attach(receiverID, dc); err != nil {
			return err
		}

		offer, err := peer.Offer(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintln(cctx.App.Writer, "Offer (give this to the receiver):")
		fmt.Fprintln(cctx.App.Writer, offer)
		fmt.Fprintln(cctx.App.Writer, "Paste the receiver's answer:")

		answer, err := readDescription(bufio.NewReader(cctx.App.Reader))
		if err != nil {
			return err
		}
		if err := peer.Accept(answer); err != nil {
			return err
		}

		p := newPresenter(cctx.App.ErrWriter, 0)
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error { return node.Run(gctx) })
		g.Go(func() error {
			defer cancel(nil)
			return p.drain(gctx, queue)
		})
		g.Go(func() error {
			defer cancel(nil)
			if err := node.WaitOpen(gctx, receiverID); err != nil {
				return err
			}
			if err := node.SendFiles(gctx, receiverID, srcs...); err != nil {
				return err
			}
			return flush(gctx, dc, cfg.Transfer.PollInterval.Std())
		})

		err = g.Wait()
		queue.Close()
		if cause := context.Cause(ctx); errors.Is(cause, transport.ErrPeerFailed) {
			return cause
		}
		if err != nil {
			return err
		}

		if s, err := node.Session(receiverID); err == nil {
			fmt.Fprintln(cctx.App.Writer, statusLine(s))
		}
		return nil
	},
}

// flush waits until the adapter has handed every queued byte to the network
// so closing the peer does not cut off the last chunks.
func flush(ctx context.Context, a transport.Adapter, interval time.Duration) error {
	if interval <= 0 {
		interval = file.DefaultPollInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for a.BufferedAmount() > 0 {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
	logrus.WithFields(logrus.Fields{
		"function": "flush",
	}).Debug("Send buffer drained")
	return nil
}
