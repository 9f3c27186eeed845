package connectors

import (
	"context"

	"cardapio/internal"
)

// MailConnector lists the newest messages of a mailbox label with their raw
// RFC 822 bytes.
type MailConnector interface {
	FetchInbox(ctx context.Context, label string, max int) ([]internal.FetchedMailMessage, error)
}
