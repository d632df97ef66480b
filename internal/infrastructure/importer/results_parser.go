package importer

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	appdispatch "github.com/codledger/backend/internal/application/dispatch"
	"github.com/shopspring/decimal"
)

// Common parse errors
var (
	// ErrEmptyFile is returned when the CSV file is empty
	ErrEmptyFile = errors.New("CSV file is empty")

	// ErrInvalidEncoding is returned when the file is not valid UTF-8
	ErrInvalidEncoding = errors.New("invalid file encoding")

	// ErrMissingHeader is returned when the CSV file has no header row
	ErrMissingHeader = errors.New("CSV file missing header row")

	// ErrNoDataRows is returned when the CSV file has no data rows
	ErrNoDataRows = errors.New("CSV file contains no data rows")
)

// Column names a results sheet must carry. Carriers fill these sheets in by
// hand, so a few aliases per column are accepted.
const (
	ColumnOrderCode = "order_code"
	ColumnDelivered = "delivered"
	ColumnCollected = "collected_amount"
)

var columnAliases = map[string]string{
	"order_code":       ColumnOrderCode,
	"order":            ColumnOrderCode,
	"code":             ColumnOrderCode,
	"delivered":        ColumnDelivered,
	"status":           ColumnDelivered,
	"outcome":          ColumnDelivered,
	"collected_amount": ColumnCollected,
	"collected":        ColumnCollected,
	"cod_amount":       ColumnCollected,
}

// ParsedResults is the outcome of parsing one results sheet. Parseable rows
// and rejected rows are reported side by side; the caller applies the good
// rows and returns the bad ones for correction.
type ParsedResults struct {
	Rows    []appdispatch.ResultRow
	Skipped []appdispatch.RowError
}

// ResultsParser reads carrier delivery-results CSV sheets
type ResultsParser struct {
	reader  *csv.Reader
	columns map[string]int
}

// NewResultsParser creates a parser over a results CSV. The reader content
// must be UTF-8; a leading BOM is stripped.
func NewResultsParser(r io.Reader) (*ResultsParser, error) {
	buf := bufio.NewReader(r)

	head, err := buf.Peek(3)
	if err != nil && err != io.EOF {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	if len(head) >= 3 && head[0] == 0xEF && head[1] == 0xBB && head[2] == 0xBF {
		_, _ = buf.Discard(3)
	}

	if err := validateUTF8(buf); err != nil {
		return nil, err
	}

	reader := csv.NewReader(buf)
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	return &ResultsParser{reader: reader}, nil
}

// ParseResultsFromBytes parses a whole results sheet held in memory
func ParseResultsFromBytes(data []byte) (*ParsedResults, error) {
	parser, err := NewResultsParser(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	return parser.Parse()
}

// Parse reads the header and every data row. A malformed row never aborts the
// sheet; it lands in Skipped with the reason.
func (p *ResultsParser) Parse() (*ParsedResults, error) {
	if err := p.parseHeader(); err != nil {
		return nil, err
	}

	result := &ParsedResults{}
	line := 1
	for {
		record, err := p.reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			result.Skipped = append(result.Skipped, appdispatch.RowError{
				Row:    line,
				Reason: "malformed CSV row",
			})
			continue
		}
		if isEmptyRecord(record) {
			continue
		}
		row, reason := p.parseRow(record)
		if reason != "" {
			result.Skipped = append(result.Skipped, appdispatch.RowError{Row: line, Reason: reason})
			continue
		}
		result.Rows = append(result.Rows, row)
	}

	if len(result.Rows) == 0 && len(result.Skipped) == 0 {
		return nil, ErrNoDataRows
	}
	return result, nil
}

// parseHeader reads the header row and resolves column aliases
func (p *ResultsParser) parseHeader() error {
	record, err := p.reader.Read()
	if err == io.EOF {
		return ErrMissingHeader
	}
	if err != nil {
		return fmt.Errorf("failed to read header: %w", err)
	}

	p.columns = make(map[string]int, len(record))
	for i, h := range record {
		name := strings.ToLower(strings.TrimSpace(h))
		if canonical, ok := columnAliases[name]; ok {
			if _, seen := p.columns[canonical]; !seen {
				p.columns[canonical] = i
			}
		}
	}

	var missing []string
	for _, required := range []string{ColumnOrderCode, ColumnDelivered} {
		if _, ok := p.columns[required]; !ok {
			missing = append(missing, required)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing columns %s", ErrMissingHeader, strings.Join(missing, ", "))
	}
	return nil
}

func (p *ResultsParser) parseRow(record []string) (appdispatch.ResultRow, string) {
	row := appdispatch.ResultRow{CollectedAmount: decimal.Zero}

	row.OrderCode = strings.TrimSpace(p.field(record, ColumnOrderCode))
	if row.OrderCode == "" {
		return row, "order code is required"
	}

	delivered, ok := parseDelivered(p.field(record, ColumnDelivered))
	if !ok {
		return row, "delivered must be one of yes, no, delivered or failed"
	}
	row.Delivered = delivered

	if raw := strings.TrimSpace(p.field(record, ColumnCollected)); raw != "" {
		amount, err := decimal.NewFromString(strings.ReplaceAll(raw, ",", ""))
		if err != nil {
			return row, fmt.Sprintf("invalid collected amount %q", raw)
		}
		row.CollectedAmount = amount
	}
	return row, ""
}

func (p *ResultsParser) field(record []string, column string) string {
	idx, ok := p.columns[column]
	if !ok || idx >= len(record) {
		return ""
	}
	return record[idx]
}

// parseDelivered accepts the outcome spellings carriers actually write
func parseDelivered(raw string) (bool, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "yes", "y", "true", "1", "delivered", "ok":
		return true, true
	case "no", "n", "false", "0", "failed", "returned":
		return false, true
	}
	return false, false
}

// validateUTF8 checks that the content is valid UTF-8
func validateUTF8(r *bufio.Reader) error {
	const checkSize = 4096
	content, err := r.Peek(checkSize)
	if err != nil && err != io.EOF {
		return fmt.Errorf("failed to read file for encoding validation: %w", err)
	}
	if len(content) == 0 {
		return ErrEmptyFile
	}
	if !utf8.Valid(content) {
		return ErrInvalidEncoding
	}
	return nil
}

func isEmptyRecord(record []string) bool {
	for _, f := range record {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}
