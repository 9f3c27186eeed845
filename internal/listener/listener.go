package listener

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"cardapio/internal"
	"cardapio/internal/config"
	"cardapio/internal/connectors"
	gmailconnector "cardapio/internal/connectors/gmail"
	imapconnector "cardapio/internal/connectors/imap"
	"cardapio/internal/menu"
	"cardapio/internal/pipeline"
	"cardapio/internal/storage"
	"cardapio/internal/util"
)

// Publisher delivers a finished run downstream.
type Publisher interface {
	Publish(ctx context.Context, runID string, res menu.Result) error
}

type Service struct {
	db        *storage.DB
	connector connectors.MailConnector
	proc      *pipeline.ProcessingService
	publisher Publisher
	cfg       config.Config
	log       *zap.Logger
}

// NewService wires one listener. publisher may be nil.
func NewService(db *storage.DB, connector connectors.MailConnector, proc *pipeline.ProcessingService, publisher Publisher, cfg config.Config, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{db: db, connector: connector, proc: proc, publisher: publisher, cfg: cfg, log: log}
}

// NewConnector builds the mailbox connector named by provider.
func NewConnector(ctx context.Context, cfg config.Config, provider string) (connectors.MailConnector, error) {
	switch strings.ToLower(strings.TrimSpace(provider)) {
	case "gmail":
		return gmailconnector.NewConnector(ctx, cfg)
	case "imap":
		return imapconnector.NewConnector(cfg)
	default:
		return nil, fmt.Errorf("unsupported listener provider: %s", provider)
	}
}

func (s *Service) Run(ctx context.Context) error {
	interval := time.Duration(s.cfg.MailListenerIntervalSec) * time.Second
	if interval <= 0 {
		interval = 30 * time.Second
	}
	for {
		if _, err := s.RunCycle(ctx); err != nil && ctx.Err() == nil {
			s.log.Error("listener cycle failed", zap.Error(err))
		}

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(interval):
		}
	}
}

type CycleResult struct {
	Fetched   int
	Stored    int
	Processed int
	Runs      int
	Exported  int
	Published int
}

// RunCycle fetches new mail, parses every queued e-mail of the provider and
// hands the successful runs to export and publish.
func (s *Service) RunCycle(ctx context.Context) (CycleResult, error) {
	provider := strings.ToLower(strings.TrimSpace(s.cfg.MailListenerProvider))
	var out CycleResult

	fetchService := connectors.NewFetchService(s.db, s.cfg.RawMailDir, s.connector, s.log)
	fetched, err := fetchService.FetchAndStore(ctx, s.cfg.MailListenerLabel, s.cfg.MailListenerFetchMax)
	if err != nil {
		return out, fmt.Errorf("fetch: %w", err)
	}
	out.Fetched, out.Stored = fetched.Fetched, fetched.Stored

	pending, err := s.db.ListEmailsByStatus(internal.EmailStatusFetched, s.cfg.MailListenerProcessBatch)
	if err != nil {
		return out, err
	}
	for _, email := range pending {
		if email.Provider != provider {
			continue
		}
		res, err := s.proc.ProcessEmail(ctx, email)
		if err != nil {
			return out, fmt.Errorf("process e-mail %d: %w", email.ID, err)
		}
		out.Processed++
		for i, run := range res.Runs {
			if !run.Result.Success {
				continue
			}
			out.Runs++
			if s.cfg.MailListenerAutoExport {
				if err := s.export(email, i, run); err != nil {
					return out, err
				}
				out.Exported++
			}
			if s.cfg.MailListenerAutoPublish && s.publisher != nil {
				if err := s.publisher.Publish(ctx, run.RunID, run.Result); err != nil {
					s.log.Warn("publish failed", zap.String("run_id", run.RunID), zap.Error(err))
					continue
				}
				out.Published++
			}
		}
	}

	if err := s.db.SetMetadata(LastCycleKey(provider), time.Now().UTC().Format(time.RFC3339)); err != nil {
		s.log.Warn("record cycle time failed", zap.Error(err))
	}
	s.log.Info("listener cycle done",
		zap.String("provider", provider),
		zap.Int("fetched", out.Fetched),
		zap.Int("stored", out.Stored),
		zap.Int("processed", out.Processed),
		zap.Int("runs", out.Runs),
		zap.Int("exported", out.Exported),
		zap.Int("published", out.Published),
	)
	return out, nil
}

// LastCycleKey is the metadata key holding the end time of the provider's
// last completed cycle.
func LastCycleKey(provider string) string {
	return "listener." + provider + ".last_cycle"
}

func (s *Service) export(email internal.EmailRow, n int, run pipeline.RunOutcome) error {
	dir := filepath.Join(s.cfg.OutputDir, "listener")
	filename := fmt.Sprintf("%d_%s_%d.xlsx", email.ID, util.SafeFileName(email.MessageID, 120), n+1)
	if err := pipeline.ExportEntriesToXLSX(run.Result, filepath.Join(dir, filename)); err != nil {
		return fmt.Errorf("export run %s: %w", run.RunID, err)
	}
	if _, err := pipeline.SaveResultJSON(run.Result, dir); err != nil {
		return fmt.Errorf("save run %s: %w", run.RunID, err)
	}
	return nil
}
