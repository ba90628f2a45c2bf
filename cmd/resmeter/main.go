package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/fayvince/resmeter/internal/config"
	"github.com/fayvince/resmeter/internal/logging"
	"github.com/fayvince/resmeter/internal/paramstore"
	"github.com/fayvince/resmeter/internal/pipeline"
	"github.com/fayvince/resmeter/internal/session"
	"github.com/fayvince/resmeter/internal/storage"
)

var configFile = flag.String("config", "", "Path to the configuration file (default: ./resmeter.yaml or /etc/resmeter/resmeter.yaml)")

func main() {
	flag.Parse()

	cfg, err := config.Load(*configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: Failed to load configuration from %q: %v\n", *configFile, err)
		os.Exit(1)
	}

	logger, err := logging.NewLogger(cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = logger.Sync()
	}()

	if err := run(cfg, logger); err != nil {
		logger.Error("resmeter stopped due to error", zap.Error(err))
		_ = logger.Sync()
		os.Exit(1)
	}
	logger.Info("resmeter finished.")
}

func run(cfg *config.Config, logger *zap.Logger) error {
	sugar := logger.Sugar()
	sugar.Infow("Configuration loaded",
		"config", *configFile,
		"transport", cfg.Transport.Kind,
		"location", cfg.Location.Kind,
		"data_dir", cfg.Session.DataDir,
	)

	storeDir := cfg.Params.StoreDir
	if cfg.Params.InMemory {
		storeDir = ""
	}
	store, err := paramstore.OpenBadger(storeDir, logger.Named("paramstore"))
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			sugar.Warnw("Failed to close parameter store", zap.Error(err))
		}
	}()

	params := session.NewParameters(store, cfg.Session.DefaultWindowSize, cfg.Session.DefaultSaveInterval, logger.Named("params"))
	hub := pipeline.NewStatusHub(logger.Named("status"))
	sched := session.NewScheduler(params,
		storage.NewSinkFactory(cfg.Session.DataDir, logger.Named("storage")),
		logger.Named("session"),
		session.WithPublisher(hub),
		session.WithDemoMode(cfg.Session.DemoMode),
		session.WithUITick(cfg.Session.UITick),
		session.WithSaveUnit(cfg.Session.SaveUnit),
	)

	pipe, err := pipeline.New(cfg, sched, hub, logger)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Session.AutoStart {
		sched.Start()
	}

	sugar.Info("Starting resmeter pipeline...")
	runErr := pipe.Run(ctx)

	// Whatever ended the pipeline, the session file is already complete up
	// to the last save tick.
	if sched.Stop() {
		sugar.Info("Active session stopped on shutdown")
	}

	level := zapcore.InfoLevel
	reason := "gracefully"
	errField := zap.Skip()
	switch {
	case runErr == nil, errors.Is(runErr, context.Canceled):
	default:
		level = zapcore.ErrorLevel
		reason = "due to error"
		errField = zap.Error(runErr)
	}
	logger.Log(level, fmt.Sprintf("Pipeline shutdown %s.", reason), zap.String("reason", reason), errField)
	return runErr
}
