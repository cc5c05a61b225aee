// Command temperature-notifier compares the latest indoor and outdoor
// temperature samples from InfluxDB and alerts when it is cooler
// outside than inside. It is meant to run as a one-shot process from a
// scheduler; all cross-run memory lives in the state file.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/loewekordel/temperature-notifier/internal/config"
	"github.com/loewekordel/temperature-notifier/internal/engine"
	"github.com/loewekordel/temperature-notifier/internal/influx"
	"github.com/loewekordel/temperature-notifier/internal/logging"
	"github.com/loewekordel/temperature-notifier/internal/notify"
	"github.com/loewekordel/temperature-notifier/internal/state"
)

const version = "0.1.0"

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config", "config.yaml", "path to the YAML configuration file")
	statePath := flag.String("state", "notifier_state.json", "path to the persisted state file")
	logDir := flag.String("log-dir", "./logs", "directory for the rotating log file")
	debug := flag.Bool("debug", false, "enable debug logging")
	showVersion := flag.Bool("version", false, "print the version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("temperature-notifier %s\n", version)
		return 0
	}

	lg := logging.New(logging.Options{Dir: *logDir, Debug: *debug})
	lg.Info("temperature-notifier starting", "version", version)
	defer lg.Info("temperature-notifier finished")

	cfg, err := config.Load(*configPath)
	if err != nil {
		lg.Error("configuration error", "error", err)
		return 1
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	source := influx.New(cfg.InfluxDB, lg)
	defer source.Close()

	store := state.NewStore(*statePath, cfg.Notification.RapidChangeEvent.WindowMinutes, lg)

	notifiers, err := notify.Build(cfg.Notifiers, lg)
	if err != nil {
		lg.Error("notifier error", "error", err)
		return 1
	}
	defer func() {
		for _, n := range notifiers {
			if err := n.Close(); err != nil {
				lg.Warn("notifier close failed", "channel", n.Name(), "error", err)
			}
		}
	}()

	eng := engine.New(cfg, store, source, notifiers, lg)
	if err := eng.Run(ctx); err != nil {
		lg.Error("run failed", "error", err)
		return 1
	}
	return 0
}
