// budgetbook-sync is the long-running sync worker. It keeps the local budget
// document converged with the configured remote store and, when AMQP is
// configured, turns document saved events into immediate uploads.
package main

import (
	"context"
	"errors"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"budgetbook/internal/amqp"
	"budgetbook/internal/cli"
	"budgetbook/internal/services"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger()
	cfg := cli.LoadAndValidateConfig(logger)
	logger = cli.ConfigureLogger(cfg)

	logger.Info("Starting budgetbook-sync")

	if cfg.RemoteProvider == "" {
		logger.Error("No remote provider configured, nothing to sync (set REMOTE_PROVIDER)")
		os.Exit(1)
	}

	ctx, stop := cli.ShutdownContext(context.Background())
	defer stop()

	store := cli.InitStore(ctx, logger, cfg)
	if store.Cleanup != nil {
		defer func() {
			if err := store.Cleanup(); err != nil {
				logger.Warn("Closing store failed", "error", err)
			}
		}()
	}

	defaults := cli.LoadDefaults(logger)
	led := cli.OpenLedger(ctx, logger, store, cfg, defaults)

	blob, closeBlob, _ := cli.InitRemote(ctx, logger, cfg)
	defer closeBlob()

	syncer := services.NewBlobSyncer(led, blob, defaults, services.SyncerConfig{
		PollInterval: cfg.SyncInterval,
		UploadOnSave: cfg.UploadOnSave,
	})
	led.AddSaveHook(syncer.Hook())

	if err := syncer.Start(ctx); err != nil {
		logger.Error("Failed to start syncer", "error", err)
		os.Exit(1)
	}

	g, gctx := errgroup.WithContext(ctx)

	if cfg.AMQPURL != "" {
		bus, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", "error", err)
			os.Exit(1)
		}
		defer bus.Close()

		g.Go(func() error {
			err := bus.ConsumeDocumentSaved(gctx, func(msg *amqp.DocumentSavedMessage) error {
				// Another process saved the shared document. Pick up its
				// write and push it out without waiting for the next poll.
				if err := led.Reload(gctx); err != nil {
					return err
				}
				return syncer.UploadNow(gctx)
			})
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		})
	} else {
		logger.Info("AMQP disabled - no AMQP_URL provided")
	}

	g.Go(func() error {
		<-gctx.Done()
		return nil
	})

	err := g.Wait()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if stopErr := syncer.Stop(shutdownCtx); stopErr != nil {
		logger.Warn("Syncer did not stop cleanly", "error", stopErr)
	}

	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Worker failed", "error", err)
		os.Exit(1)
	}
	logger.Info("Worker shutdown complete")
}
