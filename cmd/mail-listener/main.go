package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"cardapio/internal/archive"
	"cardapio/internal/config"
	"cardapio/internal/listener"
	"cardapio/internal/logging"
	"cardapio/internal/pipeline"
	"cardapio/internal/publish"
	"cardapio/internal/storage"
)

func main() {
	cfg, err := config.Load()
	must(err)

	logger, err := logging.New(cfg.LogLevel, cfg.LogDev)
	must(err)
	defer func() { _ = logger.Sync() }()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	db, err := storage.Open(cfg.DBPath)
	must(err)
	defer db.Close()

	store, closeStore, err := storage.OpenResultStore(ctx, cfg.DatabaseURL, db)
	must(err)
	defer closeStore()

	engine, err := pipeline.NewEngine(cfg, logger)
	must(err)

	var arch archive.Archive
	if cfg.ArchiveEnabled() {
		s3a, err := archive.NewS3Archive(ctx, archive.S3Options{
			Endpoint:  cfg.ArchiveS3Endpoint,
			Region:    cfg.ArchiveS3Region,
			Bucket:    cfg.ArchiveS3Bucket,
			AccessKey: cfg.ArchiveS3AccessKey,
			SecretKey: cfg.ArchiveS3SecretKey,
		})
		must(err)
		arch = s3a
	}
	proc := pipeline.NewProcessingService(db, store, engine, arch, cfg, logger)

	conn, err := listener.NewConnector(ctx, cfg, cfg.MailListenerProvider)
	must(err)

	var pub listener.Publisher
	if client := publish.NewClient(cfg, logger); client.Enabled() {
		pub = client
	}

	logger.Info("mail listener started",
		zap.String("provider", cfg.MailListenerProvider),
		zap.Int("interval_sec", cfg.MailListenerIntervalSec),
	)
	svc := listener.NewService(db, conn, proc, pub, cfg, logger)
	must(svc.Run(ctx))
}

func must(err error) {
	if err == nil {
		return
	}
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}
