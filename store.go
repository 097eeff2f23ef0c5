package takkencrawler

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

const utf8BOM = "\ufeff"

// minSeenColumns is the shortest stored row that still carries a phone number.
const minSeenColumns = 4

var listingHeader = []string{"カナ", "会社名", "所在地", "電話番号", "資本金", "区分"}

// Header returns the canonical column header for the variant.
func Header(variant Variant) []string {
	if variant == VariantListing {
		return append([]string(nil), listingHeader...)
	}
	return append([]string(nil), listingHeader[:5]...)
}

// RecordStore is the append-only results table on disk.
type RecordStore struct {
	path    string
	variant Variant
}

func NewRecordStore(path string, variant Variant) *RecordStore {
	return &RecordStore{path: path, variant: variant}
}

func (s *RecordStore) Path() string {
	return s.path
}

// LoadSeenKeys rebuilds the seen set from every data row in the table.
// A missing or header-only table yields an empty set; rows too short to
// carry an identity, or that fail to parse, are skipped.
func (s *RecordStore) LoadSeenKeys() (*SeenSet, error) {
	seen := NewSeenSet()

	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return seen, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", s.path, err)
	}
	data = bytes.TrimPrefix(data, []byte(utf8BOM))

	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header := true
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		var parseErr *csv.ParseError
		if errors.As(err, &parseErr) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", s.path, err)
		}
		if header {
			header = false
			continue
		}
		if len(row) < minSeenColumns {
			continue
		}
		seen.Insert(NewIdentityKey(row[1], row[3]))
	}
	return seen, nil
}

// EnsureHeader writes the BOM and the header row when the table is absent
// or empty. An existing non-empty table is left untouched.
func (s *RecordStore) EnsureHeader() error {
	info, err := os.Stat(s.path)
	if err == nil && info.Size() > 0 {
		return nil
	}
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to stat %s: %w", s.path, err)
	}

	if dir := filepath.Dir(s.path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directories: %w", err)
		}
	}

	file, err := os.OpenFile(s.path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	buf := bufio.NewWriter(file)
	if _, err := buf.WriteString(utf8BOM); err != nil {
		return fmt.Errorf("failed to write BOM: %w", err)
	}
	writer := csv.NewWriter(buf)
	if err := writer.Write(Header(s.variant)); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	if err := buf.Flush(); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	return file.Sync()
}

// Append writes one row and syncs it before returning.
func (s *RecordStore) Append(record Record) error {
	if err := s.EnsureHeader(); err != nil {
		return err
	}

	file, err := os.OpenFile(s.path, os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	if err := writer.Write(record.Row(s.variant)); err != nil {
		return fmt.Errorf("failed to write record to CSV: %w", err)
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("failed to write record to CSV: %w", err)
	}
	return file.Sync()
}

// CountRows returns the number of physical lines in the table, header included.
func (s *RecordStore) CountRows() (int, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	text := strings.TrimSuffix(string(data), "\n")
	if text == "" {
		return 0, nil
	}
	return strings.Count(text, "\n") + 1, nil
}
