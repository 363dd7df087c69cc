package ingest

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"unicode/utf8"

	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/transform"
)

// Parsing errors
var (
	ErrEmptyFile     = errors.New("ingest: file is empty")
	ErrMissingHeader = errors.New("ingest: missing header row")
)

// parseCSV decodes a CSV artifact into rows. Platform CSV exports come
// either UTF-8 (optionally BOM-prefixed) or GBK encoded; GBK content is
// transcoded before header matching.
func parseCSV(data []byte) ([]*Row, error) {
	if len(data) == 0 {
		return nil, ErrEmptyFile
	}

	// UTF-8 BOM: 0xEF, 0xBB, 0xBF
	data = bytes.TrimPrefix(data, []byte{0xEF, 0xBB, 0xBF})

	if !utf8.Valid(data) {
		decoded, _, err := transform.Bytes(simplifiedchinese.GBK.NewDecoder(), data)
		if err != nil {
			return nil, fmt.Errorf("ingest: transcode GBK: %w", err)
		}
		data = decoded
	}

	reader := csv.NewReader(bytes.NewReader(data))
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1 // allow ragged rows

	header, err := reader.Read()
	if err == io.EOF {
		return nil, ErrMissingHeader
	}
	if err != nil {
		return nil, fmt.Errorf("ingest: read header: %w", err)
	}

	headers := make([]string, len(header))
	for i, h := range header {
		headers[i] = trimSpaces(h)
	}

	var rows []*Row
	line := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("ingest: read row %d: %w", line, err)
		}

		row := zipRecord(headers, record, line)
		if row.IsEmpty() {
			continue
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// trimSpaces trims whitespace from a string.
func trimSpaces(s string) string {
	start := 0
	end := len(s)

	for start < end {
		r, size := utf8.DecodeRuneInString(s[start:])
		if !isWhitespace(r) {
			break
		}
		start += size
	}

	for end > start {
		r, size := utf8.DecodeLastRuneInString(s[:end])
		if !isWhitespace(r) {
			break
		}
		end -= size
	}

	return s[start:end]
}

func isWhitespace(r rune) bool {
	switch r {
	case ' ', '\t', '\n', '\r', '\v', '\f':
		return true
	}
	return false
}
