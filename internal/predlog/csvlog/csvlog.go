// Package csvlog appends prediction records to a CSV ledger.
package csvlog

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/Prabal729/disease-2/internal/model"
	"github.com/Prabal729/disease-2/internal/predlog"
)

// Log is an append-only CSV file of prediction records. Rows are appended
// with O_APPEND under a mutex, and the header is written exactly once, when
// the file is empty.
type Log struct {
	mu   sync.Mutex
	f    *os.File
	path string
}

// Open opens (or creates) the log at path.
func Open(path string) (*Log, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("csvlog: mkdir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("csvlog: open %s: %w", path, err)
	}
	return &Log{f: f, path: path}, nil
}

// Path returns the file location.
func (l *Log) Path() string { return l.path }

// Append writes rec as one row, preceded by the header if the file is empty.
func (l *Log) Append(_ context.Context, rec model.PredictionRecord) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	info, err := l.f.Stat()
	if err != nil {
		return fmt.Errorf("csvlog: stat: %w", err)
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if info.Size() == 0 {
		w.Write(predlog.Header)
	}
	w.Write(predlog.EncodeRow(rec))
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("csvlog: encode: %w", err)
	}

	// One write per record keeps rows whole.
	if _, err := l.f.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("csvlog: write: %w", err)
	}
	return nil
}

// Recent returns the last n records, oldest first. Rows that do not parse
// are skipped. A missing file yields no records.
func (l *Log) Recent(n int) ([]model.PredictionRecord, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return ReadRecent(l.path, n)
}

// ReadRecent reads the last n records of the log file at path.
func ReadRecent(path string, n int) ([]model.PredictionRecord, error) {
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("csvlog: open %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	var recs []model.PredictionRecord
	header := true
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return recs, fmt.Errorf("csvlog: read: %w", err)
		}
		if header {
			header = false
			continue
		}
		rec, err := predlog.DecodeRow(row)
		if err != nil {
			continue
		}
		recs = append(recs, rec)
	}
	if n > 0 && len(recs) > n {
		recs = recs[len(recs)-n:]
	}
	return recs, nil
}

// Close closes the file.
func (l *Log) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.f.Close()
}
