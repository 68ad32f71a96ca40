// Package app wires the clanwake command line.
package app

import (
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/urfave/cli"

	"clanwake/internal/config"
	"clanwake/internal/wakeup"
)

// Version is set at build time.
var Version = "dev"

var (
	configFlag = cli.StringFlag{
		Name:  "config, c",
		Usage: "path to configuration file (YAML)",
		Value: "clanwake.yaml",
	}
	debugFlag = cli.BoolFlag{
		Name:  "debug, d",
		Usage: "enable debug logging",
	}
)

func versionPrinter(c *cli.Context) {
	_, _ = fmt.Fprintf(c.App.Writer, "clanwake\nVersion: %s\nGoVersion: %s\n",
		Version,
		runtime.Version(),
	)
}

// New creates a clanwake instance of [cli.App] with all commands included.
func New() *cli.App {
	cli.VersionPrinter = versionPrinter
	ctl := cli.NewApp()
	ctl.Name = "clanwake"
	ctl.Version = Version
	ctl.Usage = "Wake a sleeping backend and keep it warm"
	ctl.ErrWriter = os.Stderr

	ctl.Commands = []cli.Command{
		newProbeCommand(),
		newServeCommand(),
	}
	return ctl
}

// probeOptions turns configuration into probe options.
func probeOptions(cfg config.Config) wakeup.Options {
	opts := wakeup.DefaultOptions()
	opts.MaxAttempts = cfg.MaxAttempts
	opts.Delay = time.Duration(cfg.DelayMS) * time.Millisecond
	return opts
}
