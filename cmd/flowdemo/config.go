package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/rakunlabs/chu"
	"github.com/rakunlabs/chu/loader/loaderenv"
	"github.com/rakunlabs/logi"
	"github.com/rakunlabs/tell"
)

// Config is the demo binary's settings, loaded the same way the teacher's
// cmd/at loads internal/config.Config: github.com/rakunlabs/chu with an
// env-var loader prefixed by the service name.
type Config struct {
	LogLevel string `cfg:"log_level,no_prefix" default:"info"`

	// Schedule is the cron spec the demo flow runs on; empty means run once
	// and exit.
	Schedule string `cfg:"schedule"`

	Telemetry tell.Config `cfg:"telemetry,noprefix"`
}

func loadConfig(ctx context.Context, name string) (*Config, error) {
	var cfg Config
	if err := chu.Load(ctx, name, &cfg, chu.WithLoaderOption(loaderenv.New(loaderenv.WithPrefix("FLOWDEMO_")))); err != nil {
		return nil, err
	}

	if err := logi.SetLogLevel(cfg.LogLevel); err != nil {
		return nil, fmt.Errorf("set log level %s: %w", cfg.LogLevel, err)
	}

	slog.Info("loaded configuration", "config", chu.MarshalMap(cfg))

	return &cfg, nil
}
