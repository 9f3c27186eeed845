package menu

import (
	"errors"
	"time"
)

// ShiftName is a meal period label. The constants are the canonical names;
// any other value is a literal taken from the source cell.
type ShiftName string

const (
	ShiftMorning        ShiftName = "Matutino"
	ShiftAfternoon      ShiftName = "Vespertino"
	ShiftEvening        ShiftName = "Noturno"
	ShiftMorningSnack   ShiftName = "Lanche Manhã"
	ShiftLunch          ShiftName = "Almoço"
	ShiftAfternoonSnack ShiftName = "Lanche Tarde"
	ShiftPartial        ShiftName = "Parcial"
	ShiftSpecialProgram ShiftName = "EJA"
)

// UnidentifiedDate is the date key of entries whose date could not be
// recovered from the header, the cell or its neighbourhood.
const UnidentifiedDate = "unidentified"

type Mode string

const (
	ModeHeaderDate Mode = "header_date"
	ModePageMarker Mode = "page_marker"
)

var ErrNoTables = errors.New("no tables could be extracted from the document")

type ItemRecord struct {
	Code        *string `json:"code"`
	Description string  `json:"description"`
	Incomplete  bool    `json:"incomplete,omitempty"`
}

type MenuEntry struct {
	Date  string    `json:"date"`
	Shift ShiftName `json:"shift"`
	Week  string    `json:"week,omitempty"`
	ItemRecord
	RawText string `json:"rawText"`
}

type Meta struct {
	SourceFileName string    `json:"sourceFileName"`
	ProcessedAt    time.Time `json:"processedAtTimestamp"`
	Mode           Mode      `json:"mode"`
	RowCount       int       `json:"rowCount"`
	ColumnCount    int       `json:"columnCount"`
}

type Result struct {
	Success      bool        `json:"success"`
	Error        string      `json:"error,omitempty"`
	TotalEntries int         `json:"totalEntries"`
	TotalDays    int         `json:"totalDays"`
	Entries      []MenuEntry `json:"entries"`
	ByDate       MenuByDate  `json:"byDate"`
	RawGrid      Grid        `json:"rawGrid,omitempty"`
	Meta         Meta        `json:"meta"`
}

// FailedResult reports a document for which no grid could be obtained.
func FailedResult(source string, mode Mode, processedAt time.Time, err error) Result {
	if err == nil {
		err = ErrNoTables
	}
	return Result{
		Success: false,
		Error:   err.Error(),
		Entries: []MenuEntry{},
		Meta: Meta{
			SourceFileName: source,
			ProcessedAt:    processedAt,
			Mode:           mode,
		},
	}
}
