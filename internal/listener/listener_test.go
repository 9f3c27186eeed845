package listener

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cardapio/internal"
	"cardapio/internal/config"
	"cardapio/internal/menu"
	"cardapio/internal/pipeline"
	"cardapio/internal/storage"
)

const menuMail = "From: nutricao@escola.example\r\n" +
	"Subject: =?UTF-8?Q?Card=C3=A1pio_semana_1?=\r\n" +
	"MIME-Version: 1.0\r\n" +
	"Content-Type: text/html; charset=UTF-8\r\n\r\n" +
	"<p>Cardápio da semana</p><table>" +
	"<tr><td>TURNOS</td><td>06/01/2025</td><td>07/01/2025</td></tr>" +
	"<tr><td>Matutino</td><td>LL25.228 Arroz</td><td>LL25.229 Feijão</td></tr>" +
	"</table>\r\n"

type fakeConnector struct{ raw string }

func (f fakeConnector) FetchInbox(ctx context.Context, label string, max int) ([]internal.FetchedMailMessage, error) {
	return []internal.FetchedMailMessage{{
		Provider:   "imap",
		MessageID:  "<menu-1@escola.example>",
		Subject:    "Cardápio semana 1",
		ReceivedAt: "2025-01-06T11:00:00Z",
		Raw:        []byte(f.raw),
	}}, nil
}

type recordingPublisher struct {
	mu   sync.Mutex
	runs []string
}

func (p *recordingPublisher) Publish(ctx context.Context, runID string, res menu.Result) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.runs = append(p.runs, runID)
	return nil
}

func TestRunCycle(t *testing.T) {
	tmp := t.TempDir()
	db, err := storage.Open(filepath.Join(tmp, "app.db"))
	require.NoError(t, err)
	defer db.Close()

	cfg := config.Config{
		RawMailDir:               filepath.Join(tmp, "raw"),
		OutputDir:                filepath.Join(tmp, "out"),
		MenuMode:                 "page_marker",
		MailListenerProvider:     "imap",
		MailListenerLabel:        "INBOX",
		MailListenerFetchMax:     10,
		MailListenerProcessBatch: 10,
		MailListenerAutoExport:   true,
		MailListenerAutoPublish:  true,
	}
	engine, err := pipeline.NewEngine(cfg, nil)
	require.NoError(t, err)
	proc := pipeline.NewProcessingService(db, db, engine, nil, cfg, nil)
	pub := &recordingPublisher{}
	svc := NewService(db, fakeConnector{raw: menuMail}, proc, pub, cfg, nil)

	res, err := svc.RunCycle(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, res.Stored)
	assert.Equal(t, 1, res.Processed)
	assert.Equal(t, 1, res.Runs)
	assert.Equal(t, 1, res.Exported)
	assert.Len(t, pub.runs, 1)

	files, err := os.ReadDir(filepath.Join(cfg.OutputDir, "listener"))
	require.NoError(t, err)
	var names []string
	for _, f := range files {
		names = append(names, f.Name())
	}
	require.Len(t, names, 2)
	assert.True(t, strings.HasSuffix(names[0], ".xlsx") || strings.HasSuffix(names[1], ".xlsx"))

	last, err := db.GetMetadata(LastCycleKey("imap"))
	require.NoError(t, err)
	require.NotNil(t, last)

	// The same message on the next cycle is known and not parsed again.
	res, err = svc.RunCycle(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, res.Stored)
	assert.Equal(t, 0, res.Processed)
	assert.Len(t, pub.runs, 1)
}

func TestNewConnectorUnknownProvider(t *testing.T) {
	_, err := NewConnector(context.Background(), config.Config{}, "pop3")
	assert.Error(t, err)
}
