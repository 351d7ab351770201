package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/opd-ai/peerdrop/config"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

const metadataConfig = "config"

var FlagConfig = &cli.StringFlag{
	Name:    "config",
	Aliases: []string{"c"},
	Usage:   "path to the TOML config file",
	EnvVars: []string{"PEERDROP_CONFIG"},
	Value:   config.DefaultPath,
}

var FlagLogLevel = &cli.StringFlag{
	Name:  "log-level",
	Usage: "override Log.Level (trace, debug, info, warn, error)",
}

func before(cctx *cli.Context) error {
	cfg, err := config.Load(cctx.String(FlagConfig.Name))
	if err != nil {
		return err
	}
	if cctx.IsSet(FlagLogLevel.Name) {
		cfg.Log.Level = cctx.String(FlagLogLevel.Name)
	}
	if err := config.SetupLogging(cfg.Log); err != nil {
		return err
	}
	// Logs go to stderr so stdout carries only descriptions and results.
	logrus.SetOutput(os.Stderr)

	cctx.App.Metadata[metadataConfig] = cfg
	return nil
}

func loadedConfig(cctx *cli.Context) *config.Config {
	cfg, ok := cctx.App.Metadata[metadataConfig].(*config.Config)
	if !ok {
		return config.Default()
	}
	return cfg
}

// readDescription returns the first non-empty line from r.
func readDescription(r *bufio.Reader) (string, error) {
	for {
		line, err := r.ReadString('\n')
		if s := strings.TrimSpace(line); s != "" {
			return s, nil
		}
		if errors.Is(err, io.EOF) {
			return "", errors.New("no session description on input")
		}
		if err != nil {
			return "", err
		}
	}
}

var configCmd = &cli.Command{
	Name:  "config",
	Usage: "print the effective configuration as TOML",
	Action: func(cctx *cli.Context) error {
		return config.Encode(cctx.App.Writer, loadedConfig(cctx))
	},
}

func main() {
	app := &cli.App{
		Name:                 "peerdrop",
		Usage:                "send files directly to another machine over WebRTC",
		EnableBashCompletion: true,
		Before:               before,
		Metadata:             map[string]interface{}{},
		Flags: []cli.Flag{
			FlagConfig,
			FlagLogLevel,
		},
		Commands: []*cli.Command{
			sendCmd,
			receiveCmd,
			configCmd,
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "ERROR:", err)
		os.Exit(1)
	}
}
