package pipeline

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"cardapio/internal"
	"cardapio/internal/archive"
	"cardapio/internal/config"
	"cardapio/internal/menu"
	"cardapio/internal/storage"
	"cardapio/internal/util"
)

type ProcessingService struct {
	db      *storage.DB
	store   storage.ResultStore
	engine  *menu.Engine
	archive archive.Archive
	cfg     config.Config
	log     *zap.Logger
}

// NewProcessingService wires the pipeline. store may be db itself; arch may be
// nil when archiving is off.
func NewProcessingService(db *storage.DB, store storage.ResultStore, engine *menu.Engine, arch archive.Archive, cfg config.Config, log *zap.Logger) *ProcessingService {
	if log == nil {
		log = zap.NewNop()
	}
	if store == nil {
		store = db
	}
	return &ProcessingService{db: db, store: store, engine: engine, archive: arch, cfg: cfg, log: log}
}

func (s *ProcessingService) Engine() *menu.Engine { return s.engine }

func (s *ProcessingService) Store() storage.ResultStore { return s.store }

// RunOutcome is one stored parse run.
type RunOutcome struct {
	RunID      string
	Result     menu.Result
	ArchiveKey *string
}

type ProcessResult struct {
	EmailID int
	Status  string
	Runs    []RunOutcome
	Entries int
}

// ProcessDocument parses doc, archives the source when configured and stores
// the run. Failed parses are stored too.
func (s *ProcessingService) ProcessDocument(ctx context.Context, doc internal.MenuDocument, mode string, emailID *int) (RunOutcome, error) {
	start := time.Now()
	m, err := s.engine.ParseMode(mode)
	if err != nil {
		return RunOutcome{}, err
	}
	id := uuid.NewString()
	log := s.log.With(zap.String("run_id", id), zap.String("source", doc.Name), zap.String("mode", string(m)))

	res, err := ParseDocument(s.engine, doc, m)
	if err != nil {
		return RunOutcome{}, err
	}

	var key *string
	if s.archive != nil {
		k := archive.DocumentKey(id, doc.Name)
		if err := s.archive.Put(ctx, k, doc.Blob, archive.ContentType(doc.Name)); err != nil {
			log.Warn("archive source failed", zap.Error(err))
		} else {
			key = &k
		}
	}

	if err := s.store.SaveRun(ctx, storage.RunFromResult(id, emailID, res, key), res.Entries); err != nil {
		return RunOutcome{}, fmt.Errorf("save run %s: %w", id, err)
	}

	if res.Success {
		log.Info("document parsed",
			zap.Int("entries", res.TotalEntries),
			zap.Int("days", res.TotalDays),
			zap.Duration("took", time.Since(start)),
		)
	} else {
		log.Warn("document not parsed", zap.String("error", res.Error))
	}
	return RunOutcome{RunID: id, Result: res, ArchiveKey: key}, nil
}

func (s *ProcessingService) ProcessByProviderMessageID(ctx context.Context, provider, messageID string) (ProcessResult, error) {
	email, err := s.db.MustEmailByProviderMessageID(provider, messageID)
	if err != nil {
		return ProcessResult{}, err
	}
	return s.ProcessEmail(ctx, email)
}

// ProcessPending processes fetched e-mails and returns how many e-mails were
// handled and how many entries they produced.
func (s *ProcessingService) ProcessPending(ctx context.Context, limit int, provider string) (int, int, error) {
	pending, err := s.db.ListEmailsByStatus(internal.EmailStatusFetched, limit)
	if err != nil {
		return 0, 0, err
	}
	processedEmails := 0
	processedEntries := 0
	for _, email := range pending {
		if err := ctx.Err(); err != nil {
			return processedEmails, processedEntries, err
		}
		if provider != "" && email.Provider != provider {
			continue
		}
		res, err := s.ProcessEmail(ctx, email)
		if err != nil {
			return processedEmails, processedEntries, err
		}
		processedEmails++
		processedEntries += res.Entries
	}
	return processedEmails, processedEntries, nil
}

func (s *ProcessingService) ProcessEmail(ctx context.Context, email internal.EmailRow) (ProcessResult, error) {
	log := s.log.With(zap.Int("email_id", email.ID), zap.String("provider", email.Provider))
	raw, err := os.ReadFile(email.RawRef)
	if err != nil {
		return ProcessResult{}, err
	}

	mail, err := ExtractMenuDocuments(raw)
	if err != nil {
		_ = s.db.UpdateEmailStatus(email.ID, internal.EmailStatusFailed)
		return ProcessResult{}, err
	}

	detect := DetectMenuEmail(util.FirstNonEmpty(mail.Subject, email.Subject), mail.Text, mail.HTML, mail.AttachmentNames)
	if err := s.db.ClearEmailRuns(email.ID); err != nil {
		return ProcessResult{}, err
	}

	out := ProcessResult{EmailID: email.ID}
	if !detect.IsMenu || len(mail.Documents) == 0 {
		log.Info("e-mail is not a menu", zap.Float64("score", detect.Score), zap.Int("documents", len(mail.Documents)))
		out.Status = internal.EmailStatusNoMenu
		return out, s.db.UpdateEmailStatus(email.ID, out.Status)
	}

	emailID := email.ID
	succeeded := 0
	for _, doc := range mail.Documents {
		if limit := s.cfg.MaxUploadBytes(); limit > 0 && int64(len(doc.Blob)) > limit {
			log.Warn("document over the size limit skipped", zap.String("source", doc.Name), zap.Int("bytes", len(doc.Blob)))
			continue
		}
		run, err := s.ProcessDocument(ctx, doc, "", &emailID)
		if err != nil {
			return out, err
		}
		out.Runs = append(out.Runs, run)
		out.Entries += run.Result.TotalEntries
		if run.Result.Success {
			succeeded++
		}
	}

	out.Status = internal.EmailStatusProcessed
	if succeeded == 0 {
		out.Status = internal.EmailStatusFailed
	}
	if err := s.db.UpdateEmailStatus(email.ID, out.Status); err != nil {
		return out, err
	}
	return out, nil
}
