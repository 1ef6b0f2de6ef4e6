// Package template turns source records into concrete outbound payloads.
// It owns the placeholder grammar, the mapping variants that resolve
// placeholders, and the Base64 structure-preserving re-encode rule. It
// is sink-agnostic and can feed HTTP endpoints, brokers, or anything
// that accepts a loosely typed payload tree.
package template

import (
	"errors"
	"fmt"
	"regexp"
)

// MappingSpec describes how one placeholder is resolved. The variant
// set is closed: SourceField, FixedValue, Generator.
type MappingSpec interface {
	mappingSpec()
}

// SourceField resolves a dotted/indexed path into the source record.
// Missing intermediate keys yield an undefined value, not an error.
type SourceField struct {
	Path string // e.g. "user.address.city" or "items[0].sku"
}

func (SourceField) mappingSpec() {}

// FixedValue resolves to a constant literal, or to a fresh
// pattern-generated value per record when Random is set.
type FixedValue struct {
	Literal any
	Random  bool
	Pattern string // '#'=digit, '?'=letter, '*'=alphanumeric, else literal
}

func (FixedValue) mappingSpec() {}

// Generator resolves via a named function from the generator registry.
type Generator struct {
	Kind string
}

func (Generator) mappingSpec() {}

// Base64Blob marks a placeholder that originally sat inside a
// Base64-encoded JSON object. Original is the encoded blob the
// placeholder location held; Key is the nested key the placeholder
// represented inside the decoded object.
type Base64Blob struct {
	Original string
	Key      string
}

// Mapping pairs the resolution variant with the optional structural
// re-encode marker.
type Mapping struct {
	Spec   MappingSpec
	Base64 *Base64Blob
}

// Table maps placeholder names to their mappings. Completeness is
// checked once, before any dispatch begins.
type Table map[string]Mapping

// placeholderPattern matches {{name}} tokens.
var placeholderPattern = regexp.MustCompile(`\{\{\s*([^{}\s][^{}]*?)\s*\}\}`)

// Template is the payload shape with placeholder tokens. Key and
// Headers use the same {{name}} grammar and matter only to
// message-oriented sinks.
type Template struct {
	Body    any
	Key     string
	Headers map[string]string
}

// Placeholders returns the distinct placeholder names appearing
// anywhere in the template, in discovery order.
func (t Template) Placeholders() []string {
	seen := make(map[string]bool)
	var names []string
	add := func(s string) {
		for _, m := range placeholderPattern.FindAllStringSubmatch(s, -1) {
			if !seen[m[1]] {
				seen[m[1]] = true
				names = append(names, m[1])
			}
		}
	}
	walkStrings(t.Body, add)
	add(t.Key)
	for _, v := range t.Headers {
		add(v)
	}
	return names
}

// walkStrings visits every string leaf in a payload tree.
func walkStrings(node any, visit func(string)) {
	switch n := node.(type) {
	case string:
		visit(n)
	case map[string]any:
		for _, v := range n {
			walkStrings(v, visit)
		}
	case []any:
		for _, v := range n {
			walkStrings(v, visit)
		}
	}
}

// Validate checks a mapping table against a template: every placeholder
// must be mapped, every random pattern must be well formed, and every
// generator kind must exist in the registry. Returns all problems
// joined so a bad config surfaces everything at once.
func Validate(t Template, table Table, reg Registry) error {
	var errs []error
	for _, name := range t.Placeholders() {
		m, ok := table[name]
		if !ok {
			errs = append(errs, fmt.Errorf("placeholder %q has no mapping", name))
			continue
		}
		switch spec := m.Spec.(type) {
		case SourceField:
			if spec.Path == "" {
				errs = append(errs, fmt.Errorf("placeholder %q: empty source path", name))
			}
		case FixedValue:
			if spec.Random {
				if err := validatePattern(spec.Pattern); err != nil {
					errs = append(errs, fmt.Errorf("placeholder %q: %w", name, err))
				}
			}
		case Generator:
			if _, ok := reg[spec.Kind]; !ok {
				errs = append(errs, fmt.Errorf("placeholder %q: unknown generator %q", name, spec.Kind))
			}
		default:
			errs = append(errs, fmt.Errorf("placeholder %q: unsupported mapping variant %T", name, m.Spec))
		}
	}
	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}
