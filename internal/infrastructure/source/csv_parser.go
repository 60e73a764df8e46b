package source

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/erp/catalogsync/internal/domain/syncrun"
	"golang.org/x/text/encoding/charmap"
)

// utf8BOM is stripped from the start of exports
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// ErrMalformedFile is returned when a file cannot be parsed as delimited text
var ErrMalformedFile = errors.New("malformed source file")

// ParserOption is a functional option for ParseRows
type ParserOption func(*parser)

type parser struct {
	delimiter rune
}

// WithDelimiter sets the field delimiter (default is comma)
func WithDelimiter(d rune) ParserOption {
	return func(p *parser) {
		if d != 0 {
			p.delimiter = d
		}
	}
}

// ParseRows reads a delimited export into rows keyed by header text.
// The header is line 1. Exports that are not valid UTF-8 are decoded as
// Windows-1252, the default of spreadsheet tools. Blank rows are dropped.
// An empty file or a file with only a header yields no rows.
func ParseRows(r io.Reader, opts ...ParserOption) ([]syncrun.Row, error) {
	p := &parser{delimiter: ','}
	for _, opt := range opts {
		opt(p)
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read source file: %w", err)
	}
	data = bytes.TrimPrefix(data, utf8BOM)
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}

	var text io.Reader = bytes.NewReader(data)
	if !utf8.Valid(data) {
		text = charmap.Windows1252.NewDecoder().Reader(text)
	}

	reader := csv.NewReader(bufio.NewReader(text))
	reader.Comma = p.delimiter
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: header: %v", ErrMalformedFile, err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}

	var rows []syncrun.Row
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedFile, err)
		}

		line, _ := reader.FieldPos(0)
		row := syncrun.Row{Line: line, Fields: make(map[string]string, len(header))}
		blank := true
		for i, h := range header {
			if h == "" {
				continue
			}
			value := ""
			if i < len(record) {
				value = strings.TrimSpace(record[i])
			}
			if value != "" {
				blank = false
			}
			row.Fields[h] = value
		}
		if !blank {
			rows = append(rows, row)
		}
	}
	return rows, nil
}
