package pipeline

import (
	"bytes"
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/jhillyerd/enmime"
	"github.com/xuri/excelize/v2"
	"golang.org/x/net/html"

	"cardapio/internal"
	"cardapio/internal/menu"
	"cardapio/internal/util"
)

var ErrUnsupportedInput = errors.New("unsupported input type")

// DetectKind maps a file name to the document kind its extension denotes.
func DetectKind(fileName string) (internal.DocumentKind, error) {
	switch strings.ToLower(filepath.Ext(fileName)) {
	case ".pdf":
		return internal.KindPDF, nil
	case ".xlsx", ".xlsm":
		return internal.KindXLSX, nil
	case ".html", ".htm":
		return internal.KindHTML, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedInput, fileName)
	}
}

// ExtractPages turns a document into the raw tables of each of its pages.
func ExtractPages(doc internal.MenuDocument) ([]menu.Page, error) {
	switch doc.Kind {
	case internal.KindPDF:
		return ParsePDF(doc.Blob)
	case internal.KindXLSX:
		return ParseXLSX(doc.Blob)
	case internal.KindHTML:
		return ParseHTMLTables(string(doc.Blob))
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedInput, doc.Kind)
	}
}

// ParseXLSX reads every sheet as one page holding one table.
func ParseXLSX(content []byte) ([]menu.Page, error) {
	f, err := excelize.OpenReader(bytes.NewReader(content))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	pages := []menu.Page{}
	for i, sheet := range f.GetSheetList() {
		rows, err := f.GetRows(sheet)
		if err != nil {
			continue
		}
		if len(rows) == 0 {
			continue
		}
		pages = append(pages, menu.Page{Number: i + 1, Tables: []menu.Table{menu.TableFromStrings(rows)}})
	}
	return pages, nil
}

// ParseHTMLTables reads every <table> as its own page. Line breaks inside a
// cell survive as "\n" and a colspan leaves empty cells behind it.
func ParseHTMLTables(source string) ([]menu.Page, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(source))
	if err != nil {
		return nil, err
	}

	pages := []menu.Page{}
	doc.Find("table").Each(func(i int, table *goquery.Selection) {
		var rows [][]string
		table.Find("tr").Each(func(_ int, row *goquery.Selection) {
			if row.ParentsFiltered("table").First().Get(0) != table.Get(0) {
				return
			}
			cells := []string{}
			row.ChildrenFiltered("th,td").Each(func(_ int, cell *goquery.Selection) {
				cells = append(cells, cellText(cell))
				span, _ := strconv.Atoi(cell.AttrOr("colspan", "1"))
				for k := 1; k < span && k < 64; k++ {
					cells = append(cells, "")
				}
			})
			if len(cells) > 0 {
				rows = append(rows, cells)
			}
		})
		if len(rows) > 0 {
			pages = append(pages, menu.Page{Number: i + 1, Tables: []menu.Table{menu.TableFromStrings(rows)}})
		}
	})
	return pages, nil
}

func cellText(cell *goquery.Selection) string {
	var b strings.Builder
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		switch {
		case n.Type == html.TextNode:
			b.WriteString(n.Data)
		case n.Type == html.ElementNode && (n.Data == "br" || n.Data == "p" || n.Data == "div" || n.Data == "li"):
			b.WriteString("\n")
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	for _, n := range cell.Nodes {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	return util.CleanMultiline(b.String())
}

// MailContent is what a raw menu e-mail carries.
type MailContent struct {
	Subject         string
	Text            string
	HTML            string
	AttachmentNames []string
	Documents       []internal.MenuDocument
}

// ExtractMenuDocuments collects the menu files of a raw e-mail: supported
// attachments first, then the HTML body when it holds a table.
func ExtractMenuDocuments(raw []byte) (MailContent, error) {
	env, err := enmime.ReadEnvelope(bytes.NewReader(raw))
	if err != nil {
		return MailContent{}, err
	}

	out := MailContent{
		Subject: env.GetHeader("Subject"),
		Text:    env.Text,
		HTML:    env.HTML,
	}
	parts := append(append([]*enmime.Part{}, env.Attachments...), env.Inlines...)
	for _, att := range parts {
		filename := strings.TrimSpace(att.FileName)
		if filename == "" {
			filename = "attachment"
		}
		out.AttachmentNames = append(out.AttachmentNames, filename)
		kind, err := DetectKind(filename)
		if err != nil {
			continue
		}
		out.Documents = append(out.Documents, internal.MenuDocument{Name: filename, Kind: kind, Blob: att.Content})
	}
	if strings.Contains(strings.ToLower(env.HTML), "<table") {
		out.Documents = append(out.Documents, internal.MenuDocument{Name: "body.html", Kind: internal.KindHTML, Blob: []byte(env.HTML)})
	}
	return out, nil
}
