package ledgercsv

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"

	enc "github.com/MrJamesThe3rd/zakati/internal/encoding"
	"github.com/MrJamesThe3rd/zakati/internal/ledger"
	"github.com/shopspring/decimal"
)

var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	time.DateOnly,
	"02/01/2006",
	"02-01-2006",
	"2006/01/02",
}

// Parser reads ledger CSV exports in English or Arabic and produces drafts.
// The layout is chosen by matching header names against known profiles.
type Parser struct {
	loc *time.Location
}

// NewParser returns a parser reading dates without a zone in loc.
func NewParser(loc *time.Location) *Parser {
	if loc == nil {
		loc = time.UTC
	}

	return &Parser{loc: loc}
}

func (p *Parser) Parse(r io.Reader, charsetHint string) ([]ledger.Draft, error) {
	utf8r, err := enc.NewUTF8Reader(r, charsetHint)
	if err != nil {
		return nil, fmt.Errorf("detect encoding: %w", err)
	}

	data, err := io.ReadAll(utf8r)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}

	reader := csv.NewReader(bytes.NewReader(data))
	reader.Comma = sniffDelimiter(data)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	var (
		rows  [][]string
		lines []int
	)

	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}

		if err != nil {
			return nil, fmt.Errorf("read csv: %w", err)
		}

		line, _ := reader.FieldPos(0)
		rows = append(rows, row)
		lines = append(lines, line)
	}

	if len(rows) == 0 {
		return nil, nil
	}

	profile, cols, headerIdx := detectProfile(rows)
	if profile == nil {
		return nil, fmt.Errorf("no matching ledger format found: expected date, asset and type/quantity or in/out columns")
	}

	return p.parseRows(profile, cols, rows[headerIdx+1:], lines[headerIdx+1:])
}

// sniffDelimiter picks ';' when the first line has more semicolons than commas.
func sniffDelimiter(data []byte) rune {
	first, _, _ := bytes.Cut(data, []byte("\n"))
	if bytes.Count(first, []byte(";")) > bytes.Count(first, []byte(",")) {
		return ';'
	}

	return ','
}

// colIndex maps lowercased column names to their index in the row.
type colIndex map[string]int

func (c colIndex) get(name string) int {
	if name == "" {
		return -1
	}

	idx, ok := c[name]
	if !ok {
		return -1
	}

	return idx
}

func detectProfile(rows [][]string) (*Profile, colIndex, int) {
	for rowIdx, row := range rows {
		cols := make(colIndex)

		for i, cell := range row {
			name := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(cell, "\uFEFF")))
			if name != "" {
				cols[name] = i
			}
		}

		for i := range profiles {
			if matchesProfile(&profiles[i], cols) {
				return &profiles[i], cols, rowIdx
			}
		}
	}

	return nil, nil, 0
}

func matchesProfile(p *Profile, cols colIndex) bool {
	for _, name := range p.requiredCols() {
		if _, ok := cols[name]; !ok {
			return false
		}
	}

	return true
}

// parseRows skips rows without a readable date (blank lines, totals, footers)
// and rejects rows that have a date but no usable asset, type or quantity.
func (p *Parser) parseRows(profile *Profile, cols colIndex, rows [][]string, lines []int) ([]ledger.Draft, error) {
	dateIdx := cols.get(profile.DateCol)
	assetIdx := cols.get(profile.AssetCol)
	noteIdx := cols.get(profile.NoteCol)

	var drafts []ledger.Draft

	for i, row := range rows {
		rowNum := lines[i]

		occurredAt, ok := p.parseDate(cellValue(row, dateIdx))
		if !ok {
			continue
		}

		label := cellValue(row, assetIdx)
		if label == "" {
			return nil, fmt.Errorf("row %d: missing asset", rowNum)
		}

		typ, qty, err := parseMovement(profile, cols, row)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", rowNum, err)
		}

		drafts = append(drafts, ledger.Draft{
			Line:       rowNum,
			OccurredAt: occurredAt,
			AssetLabel: label,
			Type:       typ,
			Quantity:   qty,
			Note:       cellValue(row, noteIdx),
		})
	}

	return drafts, nil
}

func (p *Parser) parseDate(s string) (time.Time, bool) {
	s = digits.Replace(s)
	if s == "" {
		return time.Time{}, false
	}

	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, s, p.loc); err == nil {
			return t, true
		}
	}

	return time.Time{}, false
}

func parseMovement(profile *Profile, cols colIndex, row []string) (ledger.TransferType, decimal.Decimal, error) {
	switch profile.QuantityMode {
	case quantityTyped:
		raw := strings.ToLower(cellValue(row, cols.get(profile.TypeCol)))

		typ, ok := typeNames[raw]
		if !ok {
			return "", decimal.Zero, fmt.Errorf("unknown type %q", raw)
		}

		qty, err := parseQuantity(cellValue(row, cols.get(profile.QuantityCol)))
		if err != nil {
			return "", decimal.Zero, fmt.Errorf("quantity: %w", err)
		}

		return typ, qty, nil
	case quantitySplit:
		if s := cellValue(row, cols.get(profile.InCol)); s != "" {
			qty, err := parseQuantity(s)
			if err != nil {
				return "", decimal.Zero, fmt.Errorf("in: %w", err)
			}

			if !qty.IsZero() {
				return ledger.TypeAdd, qty.Abs(), nil
			}
		}

		qty, err := parseQuantity(cellValue(row, cols.get(profile.OutCol)))
		if err != nil {
			return "", decimal.Zero, fmt.Errorf("out: %w", err)
		}

		return ledger.TypeWithdraw, qty.Abs(), nil
	}

	return "", decimal.Zero, fmt.Errorf("unsupported layout %q", profile.Name)
}

func cellValue(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}

	return strings.TrimSpace(row[idx])
}
