// Command whisperpoold spawns and supervises a pool of whisper-server
// child processes and proxies transcription requests across them.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kbukum/whisperpool/api"
	"github.com/kbukum/whisperpool/config"
	"github.com/kbukum/whisperpool/logger"
	"github.com/kbukum/whisperpool/observability"
	"github.com/kbukum/whisperpool/pool"
	"github.com/kbukum/whisperpool/worker"
)

const serviceName = "whisperpoold"

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	settings, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger.Init(logger.Config{Level: settings.Log.Level, Format: settings.Log.Format})
	log := logger.Get(serviceName)
	log.Info("starting", logger.Fields("pool_size", settings.PoolSize, "starting_port", settings.StartingPort))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var rec pool.Recorder
	if settings.OTel.Endpoint != "" {
		meterCfg := observability.DefaultMeterConfig(serviceName)
		meterCfg.Endpoint = settings.OTel.Endpoint
		meterCfg.Insecure = settings.OTel.Insecure
		mp, err := observability.InitMeter(ctx, meterCfg)
		if err != nil {
			log.Warn("meter init failed, continuing without metrics", logger.Fields(logger.FieldError, err.Error()))
		} else {
			defer mp.Shutdown(context.Background())
			r, err := observability.NewRecorder(observability.Meter(serviceName))
			if err != nil {
				log.Warn("recorder init failed, continuing without metrics", logger.Fields(logger.FieldError, err.Error()))
			} else {
				rec = r
			}
		}

		tracerCfg := observability.DefaultTracerConfig(serviceName)
		tracerCfg.Endpoint = settings.OTel.Endpoint
		tracerCfg.Insecure = settings.OTel.Insecure
		if tp, err := observability.InitTracer(ctx, tracerCfg); err != nil {
			log.Warn("tracer init failed, continuing without tracing", logger.Fields(logger.FieldError, err.Error()))
		} else {
			defer tp.Shutdown(context.Background())
		}
	}

	mgr := pool.NewManager(pool.Config{
		PoolSize:        settings.PoolSize,
		RotateThreshold: settings.RotateThreshold,
		StartingPort:    settings.StartingPort,
		Worker: worker.Config{
			Command:   settings.WhisperServer.Cmd,
			Dir:       settings.WhisperServer.Cwd,
			Model:     settings.WhisperServer.Model,
			Threads:   settings.WhisperServer.Threads,
			ExtraArgs: settings.WhisperServer.ExtraArgs,
		},
	}, log, rec)

	if err := mgr.Init(ctx); err != nil {
		return fmt.Errorf("pool init: %w", err)
	}

	httpServer := api.New(api.Config{Addr: settings.HTTP.Addr, AuthToken: settings.HTTP.AuthToken}, mgr, log)
	if err := httpServer.Start(ctx); err != nil {
		return fmt.Errorf("http server start: %w", err)
	}

	waitForSignal(log)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := httpServer.Stop(shutdownCtx); err != nil {
		log.Error("http server shutdown error", logger.Fields(logger.FieldError, err.Error()))
	}
	mgr.Dispose()
	log.Info("shutdown complete", nil)
	return nil
}

func waitForSignal(log *logger.Logger) os.Signal {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	sig := <-sigCh
	log.Info("received shutdown signal", logger.Fields("signal", sig.String()))
	return sig
}
