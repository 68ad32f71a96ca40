package app

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli"

	"clanwake/internal/config"
	"clanwake/internal/gate"
	"clanwake/internal/logging"
	"clanwake/internal/wakeup"
)

func newProbeCommand() cli.Command {
	return cli.Command{
		Name:      "probe",
		Usage:     "wake the backend once and report whether it answered",
		UsageText: "clanwake probe [--config path] [--url url] [--attempts n] [--delay 1s]",
		Action:    probeAction,
		Flags: []cli.Flag{
			configFlag,
			debugFlag,
			cli.StringFlag{
				Name:  "url, u",
				Usage: "ping URL, overrides configuration and " + config.PingURLEnv,
			},
			cli.IntFlag{
				Name:  "attempts, n",
				Usage: "maximum number of attempts",
			},
			cli.DurationFlag{
				Name:  "delay",
				Usage: "pause between attempts",
			},
		},
	}
}

type probeReport struct {
	URL       string `json:"url"`
	Ready     bool   `json:"ready"`
	Attempts  int    `json:"attempts"`
	ElapsedMS int64  `json:"elapsed_ms"`
	Kind      string `json:"kind,omitempty"`
	Body      any    `json:"body,omitempty"`
	Error     string `json:"error,omitempty"`
}

func probeAction(c *cli.Context) error {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	log, err := logging.New(cfg.LogLevel, c.Bool("debug"))
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	url := cfg.PingURL
	if c.IsSet("url") {
		url = c.String("url")
	}
	opts := probeOptions(cfg)
	if c.IsSet("attempts") {
		opts.MaxAttempts = c.Int("attempts")
	}
	if c.IsSet("delay") {
		opts.Delay = c.Duration("delay")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	out := gate.New(wakeup.NewProber(nil), url, opts, log).Wait(ctx)

	report := probeReport{
		URL:       url,
		Ready:     out.Ready,
		Attempts:  out.Attempts,
		ElapsedMS: out.Elapsed.Round(time.Millisecond).Milliseconds(),
	}
	if out.Ready {
		report.Kind = string(out.Result.Kind)
		report.Body = out.Result.Value
	}
	if out.Err != nil {
		report.Error = out.Err.Error()
	}

	enc := json.NewEncoder(c.App.Writer)
	enc.SetIndent("", "  ")
	if err := enc.Encode(report); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	if !out.Ready {
		return fmt.Errorf("backend not ready: %w", out.Err)
	}
	return nil
}
