package data

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/avrhamo/releases-sub000/internal/core"
)

func writeTempFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing temp file: %v", err)
	}
	return path
}

func TestLoadFile_JSON(t *testing.T) {
	path := writeTempFile(t, "users.json", `[
		{"name": "alice", "age": 30},
		{"name": "bob", "age": 25}
	]`)

	src, err := LoadFile(path, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if src.Len() != 2 {
		t.Errorf("expected 2 records, got %d", src.Len())
	}
}

func TestLoadFile_CSV(t *testing.T) {
	path := writeTempFile(t, "users.csv", "name,age\nalice,30\nbob,25\n")

	src, err := LoadFile(path, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if src.Len() != 2 {
		t.Errorf("expected 2 records, got %d", src.Len())
	}

	h, _ := src.OpenCursor(context.Background(), nil, 10)
	page, _ := src.FetchPage(context.Background(), h)
	if page[0]["name"] != "alice" || page[0]["age"] != "30" {
		t.Errorf("unexpected first record: %v", page[0])
	}
}

func TestLoadFile_Errors(t *testing.T) {
	if _, err := LoadFile("missing.txt", ""); err == nil {
		t.Error("expected error for unsupported extension")
	}
	empty := writeTempFile(t, "empty.json", "[]")
	if _, err := LoadFile(empty, ""); err == nil {
		t.Error("expected error for empty data file")
	}
	bad := writeTempFile(t, "bad.json", `{"not": "an array"}`)
	if _, err := LoadFile(bad, ""); err == nil {
		t.Error("expected error for non-array JSON")
	}
}

func TestFileSource_Paging(t *testing.T) {
	recs := make([]core.SourceRecord, 7)
	for i := range recs {
		recs[i] = core.SourceRecord{"id": i}
	}
	src := NewFileSource(recs)

	h, err := src.OpenCursor(context.Background(), map[string]any{"ignored": true}, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	sizes := []int{3, 3, 1, 0}
	for _, want := range sizes {
		page, err := src.FetchPage(context.Background(), h)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(page) != want {
			t.Errorf("expected page of %d, got %d", want, len(page))
		}
	}
}

func TestFileSource_IndependentCursors(t *testing.T) {
	src := NewFileSource([]core.SourceRecord{{"id": 1}, {"id": 2}})

	h1, _ := src.OpenCursor(context.Background(), nil, 1)
	h2, _ := src.OpenCursor(context.Background(), nil, 2)

	p1, _ := src.FetchPage(context.Background(), h1)
	p2, _ := src.FetchPage(context.Background(), h2)
	if len(p1) != 1 || len(p2) != 2 {
		t.Errorf("cursors share position: %d, %d", len(p1), len(p2))
	}
}

func TestFileSource_UnknownHandle(t *testing.T) {
	src := NewFileSource([]core.SourceRecord{{"id": 1}})

	if _, err := src.FetchPage(context.Background(), "nope"); err == nil {
		t.Error("expected error for unknown handle")
	}
	if err := src.CloseCursor(context.Background(), "nope"); err == nil {
		t.Error("expected error for unknown handle")
	}
}

func TestFileSource_CloseReleasesHandle(t *testing.T) {
	src := NewFileSource([]core.SourceRecord{{"id": 1}})
	h, _ := src.OpenCursor(context.Background(), nil, 1)

	if err := src.CloseCursor(context.Background(), h); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := src.FetchPage(context.Background(), h); err == nil {
		t.Error("expected error fetching from closed cursor")
	}
}

func TestFileSource_BadPageSize(t *testing.T) {
	src := NewFileSource([]core.SourceRecord{{"id": 1}})
	if _, err := src.OpenCursor(context.Background(), nil, 0); err == nil {
		t.Error("expected error for zero page size")
	}
}
