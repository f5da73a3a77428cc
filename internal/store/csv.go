package store

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/jgoulah/powerpal/pkg/models"
)

// ParseError reports a malformed row in the usage log
type ParseError struct {
	Line int
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("line %d: %v", e.Line, e.Err)
}

func (e *ParseError) Unwrap() []error {
	return []error{models.ErrIO, e.Err}
}

// CSVStore keeps the usage log as a headerless comma-separated file
type CSVStore struct {
	path string
	mu   sync.RWMutex
	now  func() time.Time
}

// NewCSVStore creates a store backed by the file at path. The file is created on first append.
func NewCSVStore(path string) *CSVStore {
	return &CSVStore{path: path, now: time.Now}
}

// Path returns the backing file path
func (s *CSVStore) Path() string {
	return s.path
}

// Append validates the record and writes it as one line in a single write call
func (s *CSVStore) Append(record models.UsageRecord) error {
	if err := record.Validate(); err != nil {
		return err
	}

	line, err := encodeRows([]models.UsageRecord{record})
	if err != nil {
		return fmt.Errorf("encoding record: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return fmt.Errorf("%w: creating data directory: %v", models.ErrIO, err)
	}

	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("%w: opening usage log: %v", models.ErrIO, err)
	}
	defer f.Close()

	if _, err := f.Write(line); err != nil {
		return fmt.Errorf("%w: appending record: %v", models.ErrIO, err)
	}
	if err := f.Sync(); err != nil {
		return fmt.Errorf("%w: syncing usage log: %v", models.ErrIO, err)
	}

	return nil
}

// LoadAll reads every record in insertion order.
// Returns models.ErrNotFound if the log has never been written.
func (s *CSVStore) LoadAll() ([]models.UsageRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	f, err := os.Open(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("usage log %s: %w", s.path, models.ErrNotFound)
		}
		return nil, fmt.Errorf("%w: opening usage log: %v", models.ErrIO, err)
	}
	defer f.Close()

	records := []models.UsageRecord{}
	err = readRows(f, func(line int, fields []string) error {
		record, err := models.ParseFields(fields)
		if err != nil {
			return &ParseError{Line: line, Err: err}
		}
		records = append(records, record)
		return nil
	})
	if err != nil {
		return nil, err
	}

	return records, nil
}

// Repair rewrites rows whose date cannot be parsed, replacing the date with today.
// Rows with malformed numeric fields are not repaired. The rewrite is atomic.
func (s *CSVStore) Repair() (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.Open(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, fmt.Errorf("usage log %s: %w", s.path, models.ErrNotFound)
		}
		return 0, fmt.Errorf("%w: opening usage log: %v", models.ErrIO, err)
	}

	today := models.TruncateDate(s.now())
	var records []models.UsageRecord
	repaired := 0
	err = readRows(f, func(line int, fields []string) error {
		if len(fields) == 4 {
			if _, err := models.ParseDate(fields[0]); err != nil {
				fields[0] = today.Format(models.DateLayout)
				repaired++
			}
		}
		record, err := models.ParseFields(fields)
		if err != nil {
			return &ParseError{Line: line, Err: err}
		}
		records = append(records, record)
		return nil
	})
	f.Close()
	if err != nil {
		return 0, err
	}

	if repaired == 0 {
		return 0, nil
	}

	data, err := encodeRows(records)
	if err != nil {
		return 0, fmt.Errorf("encoding records: %w", err)
	}
	if err := writeAtomic(s.path, data); err != nil {
		return 0, err
	}

	return repaired, nil
}

func readRows(r io.Reader, fn func(line int, fields []string) error) error {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	for {
		fields, err := reader.Read()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			var perr *csv.ParseError
			if errors.As(err, &perr) {
				return &ParseError{Line: perr.Line, Err: perr.Err}
			}
			return fmt.Errorf("%w: reading usage log: %v", models.ErrIO, err)
		}

		line, _ := reader.FieldPos(0)
		if err := fn(line, fields); err != nil {
			return err
		}
	}
}

func encodeRows(records []models.UsageRecord) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	for _, record := range records {
		if err := w.Write(record.Fields()); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// writeAtomic replaces path via a synced temp file and rename
func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".usage-*")
	if err != nil {
		return fmt.Errorf("%w: creating temp file: %v", models.ErrIO, err)
	}
	defer os.Remove(tmp.Name())

	if err := tmp.Chmod(0644); err != nil {
		tmp.Close()
		return fmt.Errorf("%w: setting temp file mode: %v", models.ErrIO, err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("%w: writing temp file: %v", models.ErrIO, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("%w: syncing temp file: %v", models.ErrIO, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("%w: closing temp file: %v", models.ErrIO, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("%w: replacing usage log: %v", models.ErrIO, err)
	}
	return nil
}
