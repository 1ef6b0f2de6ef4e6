// Package data provides a file-backed document source for runs that
// feed from CSV or JSON files instead of a live store. It serves
// records through the same paged cursor interface a server-side store
// would, so the rest of the engine cannot tell the difference.
package data

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/avrhamo/releases-sub000/internal/core"
)

// FileSource serves loaded records as pages. It implements
// core.DocumentSource; the opaque filter is accepted and ignored
// because file contents are pre-filtered by whoever produced them.
type FileSource struct {
	records []core.SourceRecord

	nextID  atomic.Int64
	mu      sync.Mutex
	cursors map[core.CursorHandle]*fileCursor
}

type fileCursor struct {
	pos      int
	pageSize int
}

// NewFileSource creates a source from pre-loaded records.
func NewFileSource(records []core.SourceRecord) *FileSource {
	return &FileSource{
		records: records,
		cursors: make(map[core.CursorHandle]*fileCursor),
	}
}

// LoadFile loads a data file (CSV or JSON array) and returns a source.
// Relative paths resolve against baseDir.
func LoadFile(path, baseDir string) (*FileSource, error) {
	if !filepath.IsAbs(path) {
		path = filepath.Join(baseDir, path)
	}

	ext := strings.ToLower(filepath.Ext(path))
	var records []core.SourceRecord
	var err error

	switch ext {
	case ".csv":
		records, err = loadCSV(path)
	case ".json":
		records, err = loadJSON(path)
	default:
		return nil, fmt.Errorf("unsupported file format %q (use .csv or .json)", ext)
	}

	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", path, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("data file %s is empty", path)
	}
	return NewFileSource(records), nil
}

func (s *FileSource) OpenCursor(_ context.Context, _ map[string]any, pageSize int) (core.CursorHandle, error) {
	if pageSize <= 0 {
		return "", fmt.Errorf("page size must be positive, got %d", pageSize)
	}
	h := core.CursorHandle(fmt.Sprintf("file-%d", s.nextID.Add(1)))
	s.mu.Lock()
	s.cursors[h] = &fileCursor{pageSize: pageSize}
	s.mu.Unlock()
	return h, nil
}

func (s *FileSource) FetchPage(_ context.Context, h core.CursorHandle) ([]core.SourceRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.cursors[h]
	if !ok {
		return nil, fmt.Errorf("unknown cursor handle %q", h)
	}
	if cur.pos >= len(s.records) {
		return nil, nil
	}
	end := cur.pos + cur.pageSize
	if end > len(s.records) {
		end = len(s.records)
	}
	page := s.records[cur.pos:end]
	cur.pos = end
	return page, nil
}

func (s *FileSource) CloseCursor(_ context.Context, h core.CursorHandle) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.cursors[h]; !ok {
		return fmt.Errorf("unknown cursor handle %q", h)
	}
	delete(s.cursors, h)
	return nil
}

// Len returns the number of loaded records.
func (s *FileSource) Len() int {
	return len(s.records)
}

// loadCSV loads a CSV file. First row is headers, subsequent rows are data.
func loadCSV(path string) ([]core.SourceRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	reader := csv.NewReader(f)
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(rows) < 2 {
		return nil, fmt.Errorf("CSV must have header row and at least one data row")
	}

	headers := rows[0]
	records := make([]core.SourceRecord, 0, len(rows)-1)
	for _, row := range rows[1:] {
		rec := make(core.SourceRecord, len(headers))
		for i, header := range headers {
			if i < len(row) {
				rec[header] = row[i]
			} else {
				rec[header] = ""
			}
		}
		records = append(records, rec)
	}
	return records, nil
}

// loadJSON loads a JSON file. Must be an array of objects.
func loadJSON(path string) ([]core.SourceRecord, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var records []core.SourceRecord
	if err := json.Unmarshal(raw, &records); err != nil {
		return nil, fmt.Errorf("JSON must be an array of objects: %w", err)
	}
	return records, nil
}
