package template

import (
	"encoding/json"
	"regexp"
	"testing"
	"time"

	"github.com/avrhamo/releases-sub000/internal/core"
)

var uuidPattern = regexp.MustCompile(`^[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}$`)

func TestDefaultRegistry_Kinds(t *testing.T) {
	reg := DefaultRegistry()
	kinds := []string{
		"uuid", "uuid_v1", "short_uuid", "nanoid",
		"timestamp", "timestamp_ms", "timestamp_iso",
		"random_int", "random_float", "random_string", "random_email",
		"sequence", "run_id", "document",
	}
	for _, k := range kinds {
		if _, ok := reg[k]; !ok {
			t.Errorf("missing generator kind %q", k)
		}
	}
}

func TestGenerators_UUID(t *testing.T) {
	reg := DefaultRegistry()
	rctx := core.RunContext{}

	if v := reg["uuid"](rctx).(string); !uuidPattern.MatchString(v) {
		t.Errorf("uuid output %q does not look like a UUID", v)
	}
	if v := reg["uuid_v1"](rctx).(string); !uuidPattern.MatchString(v) {
		t.Errorf("uuid_v1 output %q does not look like a UUID", v)
	}
	if v := reg["short_uuid"](rctx).(string); len(v) != 8 {
		t.Errorf("short_uuid output %q is not 8 chars", v)
	}
	if v := reg["nanoid"](rctx).(string); len(v) != 21 {
		t.Errorf("nanoid output %q is not 21 chars", v)
	}
}

func TestGenerators_Timestamps(t *testing.T) {
	reg := DefaultRegistry()
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	rctx := core.RunContext{Now: now}

	if v := reg["timestamp"](rctx); v != now.Unix() {
		t.Errorf("expected %d, got %v", now.Unix(), v)
	}
	if v := reg["timestamp_ms"](rctx); v != now.UnixMilli() {
		t.Errorf("expected %d, got %v", now.UnixMilli(), v)
	}
	if v := reg["timestamp_iso"](rctx); v != "2024-03-01T12:00:00Z" {
		t.Errorf("unexpected ISO timestamp %v", v)
	}
}

func TestGenerators_RandomEmail(t *testing.T) {
	reg := DefaultRegistry()
	v := reg["random_email"](core.RunContext{}).(string)
	if !regexp.MustCompile(`^[a-z]{8}@[a-z]{6}\.com$`).MatchString(v) {
		t.Errorf("random_email output %q has unexpected shape", v)
	}
}

func TestGenerators_Document(t *testing.T) {
	reg := DefaultRegistry()
	record := core.SourceRecord{"a": float64(1), "b": "two"}

	v := reg["document"](core.RunContext{Record: record}).(string)
	var decoded map[string]any
	if err := json.Unmarshal([]byte(v), &decoded); err != nil {
		t.Fatalf("document output is not JSON: %v", err)
	}
	if decoded["a"] != float64(1) || decoded["b"] != "two" {
		t.Errorf("document round trip mismatch: %v", decoded)
	}

	if v := reg["document"](core.RunContext{}).(string); v != "{}" {
		t.Errorf("expected {} for nil record, got %q", v)
	}
}

func TestGenerateFromPattern(t *testing.T) {
	out := generateFromPattern("##-??-**x")
	if len(out) != 9 {
		t.Fatalf("expected 9 chars, got %q", out)
	}
	if !regexp.MustCompile(`^\d{2}-[a-zA-Z]{2}-[a-zA-Z0-9]{2}x$`).MatchString(out) {
		t.Errorf("pattern output %q does not match template", out)
	}
}

func TestValidatePattern(t *testing.T) {
	if err := validatePattern(""); err == nil {
		t.Error("expected error for empty pattern")
	}
	long := make([]byte, maxPatternLength+1)
	for i := range long {
		long[i] = '#'
	}
	if err := validatePattern(string(long)); err == nil {
		t.Error("expected error for oversized pattern")
	}
	if err := validatePattern("###"); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}
