// Command psid runs the private set-intersection accumulator service.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/dogmatiq/psikit/aggregate"
	"github.com/dogmatiq/psikit/dispatch"
	"github.com/dogmatiq/psikit/internal/config"
	flags "github.com/jessevdk/go-flags"
	"go.uber.org/zap"
)

func main() {
	var opts options

	parser := flags.NewParser(&opts, flags.Default)
	if _, err := parser.Parse(); err != nil {
		var e *flags.Error
		if errors.As(err, &e) && e.Type == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, opts); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, opts options) error {
	cfg, err := config.Load(opts.Config)
	if err != nil {
		return err
	}

	opts.apply(&cfg)

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logger, err := newLogger(cfg.Log)
	if err != nil {
		return fmt.Errorf("unable to build logger: %w", err)
	}
	defer logger.Sync() //nolint:errcheck

	tel, err := newProviders(cfg.Telemetry)
	if err != nil {
		return err
	}
	defer func() {
		if err := tel.Shutdown(context.WithoutCancel(ctx)); err != nil {
			logger.Warn("unable to flush telemetry", zap.Error(err))
		}
	}()

	store, closeStore, err := newStore(ctx, cfg, tel)
	if err != nil {
		return err
	}
	defer func() {
		if err := closeStore(); err != nil {
			logger.Warn("unable to close storage", zap.Error(err))
		}
	}()

	logger.Info(
		"storage ready",
		zap.String("driver", cfg.Storage.Driver),
		zap.Uint("threshold", cfg.Threshold),
	)

	d := &dispatch.Dispatcher{
		Store: aggregate.WithTelemetry(
			store,
			tel.TracerProvider,
			tel.MeterProvider,
			tel.LoggerProvider,
		),
		Limits: dispatch.Limits{
			MaxElements:      cfg.Limits.MaxElements,
			MaxElementLength: cfg.Limits.MaxElementLength,
			MaxSetIDLength:   cfg.Limits.MaxSetIDLength,
		},
	}

	return serve(ctx, logger, d, cfg.Listen)
}

// newLogger returns the process logger for the given configuration.
func newLogger(cfg config.LogConfig) (*zap.Logger, error) {
	if cfg.Mode == "development" {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
