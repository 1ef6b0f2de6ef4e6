package template

import (
	"encoding/base64"
	"encoding/json"
	"testing"
	"time"

	"github.com/avrhamo/releases-sub000/internal/core"
)

func testContext(record core.SourceRecord) core.RunContext {
	return core.RunContext{
		RunID:    "run-1",
		Sequence: 7,
		Now:      time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
		Record:   record,
	}
}

func TestResolve_SourceFieldNested(t *testing.T) {
	r := NewResolver(nil)
	record := core.SourceRecord{
		"user": map[string]any{
			"address": map[string]any{"city": "Lisbon"},
		},
	}

	val, ok := r.Resolve(Mapping{Spec: SourceField{Path: "user.address.city"}}, testContext(record))
	if !ok {
		t.Fatal("expected defined value")
	}
	if val != "Lisbon" {
		t.Errorf("expected Lisbon, got %v", val)
	}
}

func TestResolve_SourceFieldIndexed(t *testing.T) {
	r := NewResolver(nil)
	record := core.SourceRecord{
		"items": []any{
			map[string]any{"sku": "A-1"},
			map[string]any{"sku": "B-2"},
		},
	}

	val, ok := r.Resolve(Mapping{Spec: SourceField{Path: "items[1].sku"}}, testContext(record))
	if !ok {
		t.Fatal("expected defined value")
	}
	if val != "B-2" {
		t.Errorf("expected B-2, got %v", val)
	}
}

func TestResolve_SourceFieldMissingIsUndefined(t *testing.T) {
	r := NewResolver(nil)
	record := core.SourceRecord{"user": map[string]any{}}

	val, ok := r.Resolve(Mapping{Spec: SourceField{Path: "user.address.city"}}, testContext(record))
	if ok {
		t.Error("expected undefined for missing intermediate key")
	}
	if val != nil {
		t.Errorf("expected nil, got %v", val)
	}
}

func TestResolve_SourceFieldPreservesType(t *testing.T) {
	r := NewResolver(nil)
	record := core.SourceRecord{"count": float64(42)}

	val, ok := r.Resolve(Mapping{Spec: SourceField{Path: "count"}}, testContext(record))
	if !ok {
		t.Fatal("expected defined value")
	}
	if val != float64(42) {
		t.Errorf("expected 42 as float64, got %v (%T)", val, val)
	}
}

func TestResolve_FixedLiteral(t *testing.T) {
	r := NewResolver(nil)

	val, ok := r.Resolve(Mapping{Spec: FixedValue{Literal: "premium"}}, testContext(nil))
	if !ok || val != "premium" {
		t.Errorf("expected premium, got %v (defined=%v)", val, ok)
	}
}

func TestResolve_FixedRandomPattern(t *testing.T) {
	r := NewResolver(nil)

	val, ok := r.Resolve(Mapping{Spec: FixedValue{Random: true, Pattern: "??-###"}}, testContext(nil))
	if !ok {
		t.Fatal("expected defined value")
	}
	s, isString := val.(string)
	if !isString || len(s) != 6 {
		t.Fatalf("expected 6-char string, got %v", val)
	}
	if s[2] != '-' {
		t.Errorf("expected literal dash at position 2, got %q", s)
	}
	for _, c := range s[3:] {
		if c < '0' || c > '9' {
			t.Errorf("expected digits after dash, got %q", s)
		}
	}
}

func TestResolve_Generator(t *testing.T) {
	reg := Registry{
		"constant": func(core.RunContext) any { return 99 },
	}
	r := NewResolver(reg)

	val, ok := r.Resolve(Mapping{Spec: Generator{Kind: "constant"}}, testContext(nil))
	if !ok || val != 99 {
		t.Errorf("expected 99, got %v (defined=%v)", val, ok)
	}
}

func TestResolve_GeneratorSeesRunContext(t *testing.T) {
	r := NewResolver(DefaultRegistry())
	rctx := testContext(nil)

	seq, _ := r.Resolve(Mapping{Spec: Generator{Kind: "sequence"}}, rctx)
	if seq != 7 {
		t.Errorf("expected sequence 7, got %v", seq)
	}
	id, _ := r.Resolve(Mapping{Spec: Generator{Kind: "run_id"}}, rctx)
	if id != "run-1" {
		t.Errorf("expected run-1, got %v", id)
	}
}

func TestResolve_Base64StructuralRoundTrip(t *testing.T) {
	original := base64.StdEncoding.EncodeToString([]byte(`{"email":"a@b.com","plan":"free"}`))
	r := NewResolver(nil)
	record := core.SourceRecord{"contact": map[string]any{"email": "z@y.com"}}

	val, ok := r.Resolve(Mapping{
		Spec:   SourceField{Path: "contact.email"},
		Base64: &Base64Blob{Original: original, Key: "email"},
	}, testContext(record))
	if !ok {
		t.Fatal("expected defined value")
	}

	decoded, err := base64.StdEncoding.DecodeString(val.(string))
	if err != nil {
		t.Fatalf("result is not valid base64: %v", err)
	}
	var obj map[string]any
	if err := json.Unmarshal(decoded, &obj); err != nil {
		t.Fatalf("result is not valid JSON: %v", err)
	}
	if obj["email"] != "z@y.com" {
		t.Errorf("expected spliced email z@y.com, got %v", obj["email"])
	}
	if obj["plan"] != "free" {
		t.Errorf("expected sibling key preserved, got %v", obj["plan"])
	}
}

func TestResolve_Base64FallbackOnBadBlob(t *testing.T) {
	r := NewResolver(nil)

	val, ok := r.Resolve(Mapping{
		Spec:   FixedValue{Literal: "z@y.com"},
		Base64: &Base64Blob{Original: "not base64 at all!!!", Key: "email"},
	}, testContext(nil))
	if !ok {
		t.Fatal("expected defined value")
	}

	decoded, err := base64.StdEncoding.DecodeString(val.(string))
	if err != nil {
		t.Fatalf("fallback is not valid base64: %v", err)
	}
	var obj map[string]any
	if err := json.Unmarshal(decoded, &obj); err != nil {
		t.Fatalf("fallback is not valid JSON: %v", err)
	}
	if len(obj) != 1 || obj["email"] != "z@y.com" {
		t.Errorf("expected one-key fallback object, got %v", obj)
	}
}

func TestConvertPath(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"user.id", "user.id"},
		{"items[0].sku", "items.0.sku"},
		{"a[2].b[3]", "a.2.b.3"},
		{"plain", "plain"},
	}
	for _, tt := range tests {
		if got := convertPath(tt.in); got != tt.want {
			t.Errorf("convertPath(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
