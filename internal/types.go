package internal

type DocumentKind string

const (
	KindPDF  DocumentKind = "pdf"
	KindXLSX DocumentKind = "xlsx"
	KindHTML DocumentKind = "html"
)

const (
	EmailStatusFetched   = "fetched"
	EmailStatusProcessed = "processed"
	EmailStatusNoMenu    = "no_menu"
	EmailStatusFailed    = "failed"
)

// MenuDocument is one menu file ready for extraction, whether uploaded,
// read from disk or detached from an e-mail.
type MenuDocument struct {
	Name string
	Kind DocumentKind
	Blob []byte
}

type EmailRow struct {
	ID         int
	Provider   string
	MessageID  string
	Subject    string
	Sender     string
	ReceivedAt string
	Hash       string
	Status     string
	RawRef     string
}

type FetchedMailMessage struct {
	Provider   string
	MessageID  string
	Subject    string
	From       string
	ReceivedAt string
	Raw        []byte
}

// RunRow is the stored summary of one parse run.
type RunRow struct {
	ID           string  `json:"id"`
	EmailID      *int    `json:"emailId,omitempty"`
	Source       string  `json:"source"`
	Mode         string  `json:"mode"`
	Success      bool    `json:"success"`
	Error        *string `json:"error,omitempty"`
	TotalEntries int     `json:"totalEntries"`
	TotalDays    int     `json:"totalDays"`
	RowCount     int     `json:"rowCount"`
	ColumnCount  int     `json:"columnCount"`
	ArchiveKey   *string `json:"archiveKey,omitempty"`
	ProcessedAt  string  `json:"processedAt"`
}
