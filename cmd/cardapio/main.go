package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"cardapio/internal/archive"
	"cardapio/internal/config"
	"cardapio/internal/logging"
	"cardapio/internal/menu"
	"cardapio/internal/pipeline"
	"cardapio/internal/storage"
)

var (
	logLevel string
	devLog   bool

	cfg    config.Config
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:           "cardapio",
	Short:         "Normalize school menu tables into dated, per-shift items",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load()
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("log-level") {
			cfg.LogLevel = logLevel
		}
		if devLog {
			cfg.LogDev = true
		}
		logger, err = logging.New(cfg.LogLevel, cfg.LogDev)
		return err
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func main() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "debug|info|warn|error")
	rootCmd.PersistentFlags().BoolVar(&devLog, "dev", false, "human readable logs")
	rootCmd.AddCommand(parseCmd(), serveCmd(), mailFetchCmd(), mailProcessCmd(), mailListenCmd(), exportCmd(), runsShowCmd(), runsListCmd())

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	cancel()
	must(err)
}

// app holds what most commands need: the queue database, the result store,
// the engine and the processing service.
type app struct {
	db      *storage.DB
	store   storage.ResultStore
	engine  *menu.Engine
	proc    *pipeline.ProcessingService
	closers []func()
}

func openApp(ctx context.Context) (*app, error) {
	db, err := storage.Open(cfg.DBPath)
	if err != nil {
		return nil, err
	}
	a := &app{db: db, closers: []func(){func() { _ = db.Close() }}}

	store, closeStore, err := storage.OpenResultStore(ctx, cfg.DatabaseURL, db)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.store = store
	a.closers = append(a.closers, closeStore)

	a.engine, err = pipeline.NewEngine(cfg, logger)
	if err != nil {
		a.Close()
		return nil, err
	}

	var arch archive.Archive
	if cfg.ArchiveEnabled() {
		s3a, err := archive.NewS3Archive(ctx, archive.S3Options{
			Endpoint:  cfg.ArchiveS3Endpoint,
			Region:    cfg.ArchiveS3Region,
			Bucket:    cfg.ArchiveS3Bucket,
			AccessKey: cfg.ArchiveS3AccessKey,
			SecretKey: cfg.ArchiveS3SecretKey,
		})
		if err != nil {
			a.Close()
			return nil, err
		}
		arch = s3a
	}

	a.proc = pipeline.NewProcessingService(db, store, a.engine, arch, cfg, logger)
	return a, nil
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

func must(err error) {
	if err == nil {
		return
	}
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}
