package connectors

import (
	"context"

	"go.uber.org/zap"

	"cardapio/internal/storage"
)

type FetchService struct {
	connector MailConnector
	store     *MailStoreService
	log       *zap.Logger
}

type FetchResult struct {
	Fetched int
	Stored  int
	Known   int
}

func NewFetchService(db *storage.DB, rawMailDir string, connector MailConnector, log *zap.Logger) *FetchService {
	if log == nil {
		log = zap.NewNop()
	}
	return &FetchService{
		connector: connector,
		store:     NewMailStoreService(db, rawMailDir),
		log:       log,
	}
}

// FetchAndStore pulls up to max messages from label and queues the new ones
// for processing. Messages already queued keep their status.
func (s *FetchService) FetchAndStore(ctx context.Context, label string, max int) (FetchResult, error) {
	messages, err := s.connector.FetchInbox(ctx, label, max)
	if err != nil {
		return FetchResult{}, err
	}

	res := FetchResult{Fetched: len(messages)}
	for _, msg := range messages {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		row, created, err := s.store.Store(msg)
		if err != nil {
			return res, err
		}
		if !created {
			res.Known++
			continue
		}
		res.Stored++
		s.log.Debug("message queued", zap.Int("email_id", row.ID), zap.String("subject", row.Subject))
	}
	return res, nil
}
