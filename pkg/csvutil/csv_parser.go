package csvutil

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strings"
)

// utf8BOM is prepended by spreadsheet programs when exporting UTF-8 CSV.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// RowValidator validates a CSV row.
type RowValidator func(row []string, rowNum int) error

// ParserConfig configures CSV parsing behavior.
type ParserConfig struct {
	HasHeader        bool
	Comma            rune
	Comment          rune
	LazyQuotes       bool
	TrimLeadingSpace bool
	SkipEmptyRows    bool
	Validators       []RowValidator
}

// DefaultParserConfig returns a default parser configuration.
func DefaultParserConfig() ParserConfig {
	return ParserConfig{
		HasHeader:        true,
		Comma:            ',',
		LazyQuotes:       true,
		TrimLeadingSpace: true,
		SkipEmptyRows:    true,
	}
}

// Parser handles CSV parsing with validation.
type Parser struct {
	config ParserConfig
	header []string
}

// NewParser creates a new CSV parser.
func NewParser(config ParserConfig) *Parser {
	return &Parser{
		config: config,
	}
}

// Header returns the header read by the last Parse call.
func (p *Parser) Header() []string {
	return p.header
}

// Parse parses CSV data from a reader and calls the handler for each row.
// A leading UTF-8 byte order mark is ignored. Rows may be shorter than the
// header.
func (p *Parser) Parse(reader io.Reader, handler func(rowNum int, headers []string, row []string) error) error {
	br := bufio.NewReader(reader)
	if head, err := br.Peek(len(utf8BOM)); err == nil && bytes.Equal(head, utf8BOM) {
		_, _ = br.Discard(len(utf8BOM))
	}

	csvReader := csv.NewReader(br)
	csvReader.Comma = p.config.Comma
	csvReader.Comment = p.config.Comment
	csvReader.LazyQuotes = p.config.LazyQuotes
	csvReader.TrimLeadingSpace = p.config.TrimLeadingSpace
	csvReader.FieldsPerRecord = -1

	rowNum := 0

	if p.config.HasHeader {
		header, err := csvReader.Read()
		if err != nil {
			if err == io.EOF {
				return fmt.Errorf("CSV file is empty")
			}
			return fmt.Errorf("failed to read header: %w", err)
		}
		for i := range header {
			header[i] = strings.TrimSpace(header[i])
		}
		p.header = header
		rowNum++
	}

	for {
		row, err := csvReader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to read row %d: %w", rowNum+1, err)
		}
		rowNum++

		if p.config.SkipEmptyRows && isEmptyRow(row) {
			continue
		}
		for i := range row {
			row[i] = strings.TrimSpace(row[i])
		}

		for _, validator := range p.config.Validators {
			if err := validator(row, rowNum); err != nil {
				return fmt.Errorf("validation failed for row %d: %w", rowNum, err)
			}
		}
		if err := handler(rowNum, p.header, row); err != nil {
			return fmt.Errorf("handler error for row %d: %w", rowNum, err)
		}
	}

	return nil
}

func isEmptyRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

// ParseToSlice parses CSV data and returns all rows as a slice.
func (p *Parser) ParseToSlice(reader io.Reader) ([][]string, error) {
	var rows [][]string

	err := p.Parse(reader, func(rowNum int, headers []string, row []string) error {
		rows = append(rows, row)
		return nil
	})

	return rows, err
}

// ColumnIndex returns the position of the first header cell matching any of
// the names, compared case-insensitively, or -1.
func ColumnIndex(header []string, names ...string) int {
	for i, h := range header {
		for _, n := range names {
			if strings.EqualFold(h, n) {
				return i
			}
		}
	}
	return -1
}

// Cell returns row[i], or "" when the row is too short or i is negative.
func Cell(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return row[i]
}

// MinColumnsValidator validates that a row has at least N columns.
func MinColumnsValidator(minCols int) RowValidator {
	return func(row []string, rowNum int) error {
		if len(row) < minCols {
			return fmt.Errorf("row has %d columns, expected at least %d", len(row), minCols)
		}
		return nil
	}
}
