package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/opd-ai/peerdrop"
	"github.com/opd-ai/peerdrop/notify"
	"github.com/opd-ai/peerdrop/transport"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"
)

const senderID = "sender"

var FlagCount = &cli.IntFlag{
	Name:  "count",
	Usage: "exit after this many files have been received (0 waits for the sender to disconnect)",
}

var receiveCmd = &cli.Command{
	Name:  "receive",
	Usage: "answer a sender's offer and save the files it sends",
	Flags: []cli.Flag{
		FlagCount,
	},
	Action: func(cctx *cli.Context) error {
		want := cctx.Int(FlagCount.Name)
		if want < 0 {
			return cli.Exit("--count must not be negative", 1)
		}
		cfg := loadedConfig(cctx)

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

		label := cfg.WebRTC.ChannelLabel
		peer.OnChannel(func(dc *transport.DataChannel) {
			if dc.Label() != label {
				logrus.WithFields(logrus.Fields{
					"function": "receive",
					"label":    dc.Label(),
				}).Warn("Ignoring data channel with unexpected label")
				return
			}
			if _, err := node.Attach(senderID, dc); err != nil {
				cancel(err)
			}
		})

		fmt.Fprintln(cctx.App.Writer, "Paste the sender's offer:")
		offer, err := readDescription(bufio.NewReader(cctx.App.Reader))
		if err != nil {
			return err
		}
		answer, err := peer.Answer(ctx, offer)
		if err != nil {
			return err
		}
		fmt.Fprintln(cctx.App.Writer, "Answer (give this to the sender):")
		fmt.Fprintln(cctx.App.Writer, answer)

		if cfg.Storage.DownloadDir != "" {
			fmt.Fprintln(cctx.App.Writer, "Saving files to", cfg.Storage.DownloadDir)
		}

		p := newPresenter(cctx.App.ErrWriter, want)
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error { return node.Run(gctx) })
		g.Go(func() error {
			defer cancel(nil)
			return p.drain(gctx, queue)
		})

		err = g.Wait()
		queue.Close()
		if cause := context.Cause(ctx); cause != nil && !errors.Is(cause, context.Canceled) {
			return cause
		}
		if err != nil {
			return err
		}

		if s, err := node.Session(senderID); err == nil {
			fmt.Fprintln(cctx.App.Writer, statusLine(s))
		}
		return nil
	},
}
