package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/yurifrl/vizbuck/pkg/bootstrap"
	"github.com/yurifrl/vizbuck/pkg/config"
	"github.com/yurifrl/vizbuck/pkg/importer"
	"github.com/yurifrl/vizbuck/pkg/server"
	"github.com/yurifrl/vizbuck/pkg/telemetry"
)

func main() {
	flags := pflag.NewFlagSet("vizbuck-server", pflag.ExitOnError)
	cfgFile := flags.StringP("config", "c", "", "Config file (default is config.yaml)")
	flags.String("addr", "", "Listen address")
	flags.String("log-level", "", "Log level")
	flags.String("store", "", "Ledger store: memory, file, mongo, gcs")
	_ = flags.Parse(os.Args[1:])

	cfg, err := config.Build(*cfgFile, flags)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	logger, err := bootstrap.NewLogger(os.Stderr, cfg.LogLevel)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, closeStore, err := bootstrap.OpenStore(ctx, cfg)
	if err != nil {
		logger.Fatal("failed to open store", "err", err)
	}
	defer func() {
		if err := closeStore(); err != nil {
			logger.Warn("failed to close store", "err", err)
		}
	}()
	classifier, err := bootstrap.NewClassifier(ctx, cfg)
	if err != nil {
		logger.Fatal("failed to create classifier", "err", err)
	}

	metrics := telemetry.New()
	im := importer.New(logger, st, classifier, importer.WithMetrics(metrics))
	srv := server.New(logger, im, metrics)
	if err := srv.Start(ctx, cfg.Addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server error", "err", err)
		stop()
		os.Exit(1)
	}
}
