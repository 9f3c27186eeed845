package pipeline

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"cardapio/internal/menu"
	"cardapio/internal/util"
)

// ExportEntriesToXLSX writes the flat entries to an "entries" sheet and the
// date by shift grouping to a "by_date" sheet.
func ExportEntriesToXLSX(res menu.Result, outputPath string) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet := "entries"
	if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
		return err
	}
	writeHeaders(f, sheet, []string{"date", "shift", "week", "code", "description", "incomplete", "raw_text"})
	for i, e := range res.Entries {
		r := i + 2
		set := func(col int, value any) {
			cell, _ := excelize.CoordinatesToCellName(col, r)
			_ = f.SetCellValue(sheet, cell, value)
		}

		set(1, e.Date)
		set(2, string(e.Shift))
		set(3, e.Week)
		set(4, util.DerefString(e.Code))
		set(5, e.Description)
		set(6, e.Incomplete)
		set(7, e.RawText)
	}

	grouped := "by_date"
	if _, err := f.NewSheet(grouped); err != nil {
		return err
	}
	writeHeaders(f, grouped, []string{"date", "shift", "items"})
	r := 2
	for _, day := range res.ByDate.Days() {
		for _, shift := range day.Shifts {
			lines := make([]string, 0, len(shift.Items))
			for _, item := range shift.Items {
				lines = append(lines, itemLabel(item))
			}
			set := func(col int, value any) {
				cell, _ := excelize.CoordinatesToCellName(col, r)
				_ = f.SetCellValue(grouped, cell, value)
			}
			set(1, day.Date)
			set(2, string(shift.Shift))
			set(3, strings.Join(lines, "\n"))
			r++
		}
	}

	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return err
	}
	return f.SaveAs(outputPath)
}

func writeHeaders(f *excelize.File, sheet string, headers []string) {
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}
}

func itemLabel(item menu.ItemRecord) string {
	if item.Code == nil || strings.HasPrefix(item.Description, *item.Code) {
		return item.Description
	}
	return *item.Code + " " + item.Description
}

// SaveResultJSON writes res to dir as cardapio-<mode>-<timestamp>.json and
// returns the file path.
func SaveResultJSON(res menu.Result, dir string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	blob, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		return "", err
	}
	name := fmt.Sprintf("cardapio-%s-%s.json", res.Meta.Mode, res.Meta.ProcessedAt.UTC().Format("20060102T150405.000Z"))
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, blob, 0o644); err != nil {
		return "", err
	}
	return path, nil
}
