package ingest

import (
	"bytes"
	"fmt"
	"os"
)

// zipMagic is the local file header signature shared by all ZIP-based
// formats, XLSX included.
var zipMagic = []byte{'P', 'K', 0x03, 0x04}

// ParseArtifact reads an export artifact from disk and decodes it into
// rows. The format is sniffed from content, not the file name: the
// platform serves XLSX from one endpoint and CSV from another, both
// under arbitrary names.
func ParseArtifact(path string) ([]*Row, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("ingest: read artifact: %w", err)
	}
	return ParseBytes(data)
}

// ParseBytes decodes artifact content already held in memory.
func ParseBytes(data []byte) ([]*Row, error) {
	if bytes.HasPrefix(data, zipMagic) {
		return parseXLSX(data)
	}
	return parseCSV(data)
}
