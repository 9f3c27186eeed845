package pipeline

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"cardapio/internal"
	"cardapio/internal/menu"
)

// ReadDocument loads a menu file from disk.
func ReadDocument(path string) (internal.MenuDocument, error) {
	kind, err := DetectKind(path)
	if err != nil {
		return internal.MenuDocument{}, err
	}
	blob, err := os.ReadFile(path)
	if err != nil {
		return internal.MenuDocument{}, err
	}
	return internal.MenuDocument{Name: filepath.Base(path), Kind: kind, Blob: blob}, nil
}

// ParseDocument extracts and normalizes one document. A document that cannot
// be read as tables yields a failed result rather than an error; only an
// unsupported kind or mode is an error.
func ParseDocument(engine *menu.Engine, doc internal.MenuDocument, mode menu.Mode) (menu.Result, error) {
	if _, err := engine.ParseMode(string(mode)); err != nil {
		return menu.Result{}, err
	}
	pages, err := ExtractPages(doc)
	if errors.Is(err, ErrUnsupportedInput) {
		return menu.Result{}, err
	}
	if err != nil {
		return engine.Failed(doc.Name, mode, fmt.Errorf("extract %s: %w", doc.Name, err)), nil
	}
	return engine.ParseWith(mode, doc.Name, pages)
}

// ParseFile is ReadDocument followed by ParseDocument; an empty mode uses the
// engine default.
func ParseFile(engine *menu.Engine, path, mode string) (menu.Result, error) {
	m, err := engine.ParseMode(mode)
	if err != nil {
		return menu.Result{}, err
	}
	doc, err := ReadDocument(path)
	if err != nil {
		return menu.Result{}, err
	}
	return ParseDocument(engine, doc, m)
}
