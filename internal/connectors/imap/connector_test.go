package imap

import (
	"bytes"
	"testing"
	"time"

	"github.com/emersion/go-imap"

	"cardapio/internal/config"
)

func TestNewConnectorRequiresCredentials(t *testing.T) {
	if _, err := NewConnector(config.Config{IMAPHost: "imap.escola.example"}); err == nil {
		t.Fatal("expected missing user error")
	}
	c, err := NewConnector(config.Config{IMAPHost: "imap.escola.example", IMAPPort: 993, IMAPUser: "cozinha", IMAPPassword: "x"})
	if err != nil {
		t.Fatal(err)
	}
	if c.host != "imap.escola.example" || c.port != 993 {
		t.Fatalf("connector=%+v", c)
	}
}

func TestFormatAddresses(t *testing.T) {
	got := formatAddresses([]*imap.Address{
		{PersonalName: "Nutrição", MailboxName: "nutricao", HostName: "escola.example"},
		nil,
		{MailboxName: "cozinha", HostName: "escola.example"},
	})
	if got != "Nutrição <nutricao@escola.example>, cozinha@escola.example" {
		t.Fatalf("got %q", got)
	}
}

func TestToFetched(t *testing.T) {
	section := &imap.BodySectionName{Peek: true}
	msg := &imap.Message{
		Uid:          7,
		InternalDate: time.Date(2025, 1, 6, 11, 0, 0, 0, time.UTC),
		Envelope:     &imap.Envelope{Subject: "Cardápio"},
		// Servers answer without the PEEK flag.
		Body: map[*imap.BodySectionName]imap.Literal{{}: bytes.NewBufferString("Subject: Cardápio\r\n\r\nok")},
	}
	got, ok, err := toFetched(msg, section)
	if err != nil || !ok {
		t.Fatalf("ok=%v err=%v", ok, err)
	}
	if got.MessageID != "imap-7" || got.ReceivedAt != "2025-01-06T11:00:00Z" || got.Subject != "Cardápio" {
		t.Fatalf("got %+v", got)
	}
}
