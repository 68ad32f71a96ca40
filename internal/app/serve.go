package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/urfave/cli"
	"go.uber.org/zap"

	"clanwake/internal/config"
	"clanwake/internal/gate"
	"clanwake/internal/logging"
	"clanwake/internal/monitor"
	"clanwake/internal/server"
	"clanwake/internal/storage"
	"clanwake/internal/wakeup"
)

func newServeCommand() cli.Command {
	return cli.Command{
		Name:      "serve",
		Usage:     "wake the backend, keep it warm and serve readiness status",
		UsageText: "clanwake serve [--config path] [--addr :8080] [--no-keep-warm]",
		Action:    serveAction,
		Flags: []cli.Flag{
			configFlag,
			debugFlag,
			cli.StringFlag{
				Name:  "addr",
				Usage: "address for the status server, overrides configuration",
			},
			cli.BoolFlag{
				Name:  "no-keep-warm",
				Usage: "only wake the backend once at startup",
			},
		},
	}
}

func serveAction(c *cli.Context) error {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	log, err := logging.New(cfg.LogLevel, c.Bool("debug"))
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	addr := cfg.Address
	if c.IsSet("addr") {
		addr = c.String("addr")
	}
	log.Info("loaded configuration",
		zap.String("ping_url", cfg.PingURL),
		zap.Int("targets", len(cfg.Targets)))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	prober := wakeup.NewProber(nil)
	opts := probeOptions(cfg)

	g := gate.New(prober, cfg.PingURL, opts, log.With(zap.String("component", "gate")))
	g.Start(ctx)

	historyPath := filepath.Join(cfg.DataDirectory, "wake_history.json")
	store, err := storage.NewWakeStorage(historyPath, cfg.HistoryLimit)
	if err != nil {
		return fmt.Errorf("initialise storage: %w", err)
	}

	var feed server.Feed
	if !c.Bool("no-keep-warm") {
		interval := time.Duration(cfg.IntervalSeconds) * time.Second
		mon := monitor.New(interval, cfg.Targets, opts, prober, store, log.With(zap.String("component", "keep-warm")))
		mon.StartAfter(g.Done())
		defer mon.Stop()
		feed = mon
	}

	srv := server.New(addr, store, feed, g, log.With(zap.String("component", "server")))

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Warn("server shutdown", zap.Error(err))
		}
	}()

	log.Info("clanwake listening", zap.String("addr", addr))
	if err := srv.Run(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}
