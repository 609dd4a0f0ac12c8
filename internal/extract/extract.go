// Package extract pulls rows of one HTML table into a record set.
package extract

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/dbsmedya/wikietl/internal/config"
	"github.com/dbsmedya/wikietl/internal/recordset"
)

// Mode selects how a cell becomes text.
type Mode string

const (
	// ModeText joins every text node of the cell, each trimmed.
	ModeText Mode = config.ModeText
	// ModeAnchor takes the first child of the first <a> in the cell.
	ModeAnchor Mode = config.ModeAnchor
	// ModeRaw takes the first child of the cell, untrimmed.
	ModeRaw Mode = config.ModeRaw
)

// ColumnSpec maps a cell position to an output column.
type ColumnSpec struct {
	Name string
	Cell int
	Mode Mode
}

// Placeholder marks rows whose cell holds a missing-data token.
type Placeholder struct {
	Cell  int
	Token string
}

// TableSpec locates a table and describes which rows and cells to keep.
type TableSpec struct {
	TableIndex  int // zero-based index into the document's tbody elements
	LinkCell    int // a data row has an <a> in this cell
	Columns     []ColumnSpec
	Placeholder *Placeholder
}

// SpecFromConfig converts a job's table configuration.
func SpecFromConfig(tc config.TableConfig) TableSpec {
	spec := TableSpec{
		TableIndex: tc.Index,
		LinkCell:   tc.LinkCell,
		Columns:    make([]ColumnSpec, len(tc.Columns)),
	}
	for i, c := range tc.Columns {
		mode := Mode(c.Mode)
		if mode == "" {
			mode = ModeText
		}
		spec.Columns[i] = ColumnSpec{Name: c.Name, Cell: c.Cell, Mode: mode}
	}
	if tc.Placeholder != nil {
		spec.Placeholder = &Placeholder{Cell: tc.Placeholder.Cell, Token: tc.Placeholder.Token}
	}
	return spec
}

// ParseError reports a missing table section or a missing cell in a row the
// inclusion filter accepted.
type ParseError struct {
	TableIndex int
	Row        int // -1 when the table itself is missing
	Cell       int
	Message    string
}

func (e *ParseError) Error() string {
	if e.Row < 0 {
		return fmt.Sprintf("parse table %d: %s", e.TableIndex, e.Message)
	}
	return fmt.Sprintf("parse table %d row %d cell %d: %s", e.TableIndex, e.Row, e.Cell, e.Message)
}

// Stats counts how the rows of the table were classified.
type Stats struct {
	RowsScanned        int
	RowsIncluded       int
	SkippedNoCells     int
	SkippedNoLink      int
	SkippedPlaceholder int
}

// Parser extracts a record set from an HTML document.
type Parser struct {
	spec   TableSpec
	schema *recordset.Schema
}

// NewParser validates spec and prepares the output schema. All extracted
// columns are text.
func NewParser(spec TableSpec) (*Parser, error) {
	if len(spec.Columns) == 0 {
		return nil, fmt.Errorf("table spec declares no columns")
	}
	if spec.TableIndex < 0 || spec.LinkCell < 0 {
		return nil, fmt.Errorf("table spec has negative table index or link cell")
	}
	names := make([]string, len(spec.Columns))
	for i, c := range spec.Columns {
		if c.Cell < 0 {
			return nil, fmt.Errorf("column %q has negative cell %d", c.Name, c.Cell)
		}
		switch c.Mode {
		case ModeText, ModeAnchor, ModeRaw:
		default:
			return nil, fmt.Errorf("column %q has unknown mode %q", c.Name, c.Mode)
		}
		names[i] = c.Name
	}
	schema, err := recordset.TextSchema(names...)
	if err != nil {
		return nil, err
	}
	return &Parser{spec: spec, schema: schema}, nil
}

// Parse reads an HTML document and returns the rows of the configured table
// that pass the inclusion filter.
func (p *Parser) Parse(r io.Reader) (*recordset.RecordSet, *Stats, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, nil, fmt.Errorf("parse html: %w", err)
	}

	bodies := doc.Find("tbody")
	if bodies.Length() <= p.spec.TableIndex {
		return nil, nil, &ParseError{
			TableIndex: p.spec.TableIndex,
			Row:        -1,
			Message:    fmt.Sprintf("document has %d table sections", bodies.Length()),
		}
	}

	rs := recordset.New(p.schema)
	stats := &Stats{}
	var parseErr error

	bodies.Eq(p.spec.TableIndex).Find("tr").EachWithBreak(func(i int, row *goquery.Selection) bool {
		stats.RowsScanned++
		cells := row.Find("td")
		if cells.Length() == 0 {
			stats.SkippedNoCells++
			return true
		}

		values, include, err := p.extractRow(i, cells, stats)
		if err != nil {
			parseErr = err
			return false
		}
		if !include {
			return true
		}
		if err := rs.Append(values...); err != nil {
			parseErr = err
			return false
		}
		stats.RowsIncluded++
		return true
	})
	if parseErr != nil {
		return nil, nil, parseErr
	}

	return rs, stats, nil
}

// ParseBytes is Parse over an in-memory document.
func (p *Parser) ParseBytes(doc []byte) (*recordset.RecordSet, *Stats, error) {
	return p.Parse(bytes.NewReader(doc))
}

func (p *Parser) extractRow(rowIdx int, cells *goquery.Selection, stats *Stats) ([]recordset.Value, bool, error) {
	linkCell, err := p.cell(rowIdx, cells, p.spec.LinkCell)
	if err != nil {
		return nil, false, err
	}
	if linkCell.Find("a").Length() == 0 {
		stats.SkippedNoLink++
		return nil, false, nil
	}

	if ph := p.spec.Placeholder; ph != nil {
		cell, err := p.cell(rowIdx, cells, ph.Cell)
		if err != nil {
			return nil, false, err
		}
		if holdsToken(cell, ph.Token) {
			stats.SkippedPlaceholder++
			return nil, false, nil
		}
	}

	values := make([]recordset.Value, len(p.spec.Columns))
	for i, col := range p.spec.Columns {
		cell, err := p.cell(rowIdx, cells, col.Cell)
		if err != nil {
			return nil, false, err
		}
		text, err := p.cellText(rowIdx, col, cell)
		if err != nil {
			return nil, false, err
		}
		values[i] = recordset.TextValue(text)
	}
	return values, true, nil
}

func (p *Parser) cell(rowIdx int, cells *goquery.Selection, idx int) (*goquery.Selection, error) {
	if idx >= cells.Length() {
		return nil, &ParseError{
			TableIndex: p.spec.TableIndex,
			Row:        rowIdx,
			Cell:       idx,
			Message:    fmt.Sprintf("row has only %d cells", cells.Length()),
		}
	}
	return cells.Eq(idx), nil
}

func (p *Parser) cellText(rowIdx int, col ColumnSpec, cell *goquery.Selection) (string, error) {
	switch col.Mode {
	case ModeAnchor:
		anchor := cell.Find("a").First()
		if anchor.Length() == 0 {
			return "", &ParseError{TableIndex: p.spec.TableIndex, Row: rowIdx, Cell: col.Cell, Message: "cell has no link"}
		}
		text, ok := firstChildText(anchor.Get(0))
		if !ok {
			return "", &ParseError{TableIndex: p.spec.TableIndex, Row: rowIdx, Cell: col.Cell, Message: "link has no content"}
		}
		return text, nil
	case ModeRaw:
		text, ok := firstChildText(cell.Get(0))
		if !ok {
			return "", &ParseError{TableIndex: p.spec.TableIndex, Row: rowIdx, Cell: col.Cell, Message: "cell has no content"}
		}
		return text, nil
	default:
		return strippedText(cell.Get(0)), nil
	}
}

// strippedText trims every text node under n and concatenates the non-empty
// pieces without a separator.
func strippedText(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(strings.TrimSpace(n.Data))
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return b.String()
}

// firstChildText returns the text of n's first child: the data of a text
// node, or the full text of an element.
func firstChildText(n *html.Node) (string, bool) {
	child := n.FirstChild
	if child == nil {
		return "", false
	}
	if child.Type == html.TextNode {
		return child.Data, true
	}
	return goquery.NewDocumentFromNode(child).Text(), true
}

// holdsToken reports whether the cell, or one of its direct text children,
// is exactly token after trimming.
func holdsToken(cell *goquery.Selection, token string) bool {
	if strings.TrimSpace(cell.Text()) == token {
		return true
	}
	for c := cell.Get(0).FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.TextNode && strings.TrimSpace(c.Data) == token {
			return true
		}
	}
	return false
}
