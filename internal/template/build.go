package template

import (
	"fmt"
	"strings"

	"github.com/avrhamo/releases-sub000/internal/core"
)

// Builder applies a mapping table to a template, producing one concrete
// payload per source record. A Builder is validated at construction:
// every placeholder has a mapping before the first record is pulled.
type Builder struct {
	template Template
	table    Table
	resolver *Resolver
}

// NewBuilder validates the template against the table and registry.
// Validation failures are ConfigurationErrors: they abort the run
// before any I/O happens.
func NewBuilder(t Template, table Table, reg Registry) (*Builder, error) {
	if reg == nil {
		reg = DefaultRegistry()
	}
	if err := Validate(t, table, reg); err != nil {
		return nil, core.ConfigErrorf("%v", err)
	}
	return &Builder{
		template: t,
		table:    table,
		resolver: NewResolver(reg),
	}, nil
}

// Build walks the template tree substituting every placeholder.
// Nested arrays and objects are walked recursively. A string that is
// exactly one placeholder substitutes the resolved value with its type
// preserved; strings mixing literals and placeholders substitute
// textually. Undefined values degrade to nil (typed) or "" (textual).
func (b *Builder) Build(rctx core.RunContext) (core.Payload, error) {
	env := &recordEnv{rctx: rctx}

	p := core.Payload{
		Body: b.walk(b.template.Body, env),
		Key:  b.substituteText(b.template.Key, env),
	}
	if b.template.Headers != nil {
		p.Headers = make(map[string]string, len(b.template.Headers))
		for k, v := range b.template.Headers {
			p.Headers[k] = b.substituteText(v, env)
		}
	}
	return p, nil
}

func (b *Builder) walk(node any, env *recordEnv) any {
	switch n := node.(type) {
	case string:
		return b.substituteString(n, env)
	case map[string]any:
		out := make(map[string]any, len(n))
		for k, v := range n {
			out[k] = b.walk(v, env)
		}
		return out
	case []any:
		out := make([]any, len(n))
		for i, v := range n {
			out[i] = b.walk(v, env)
		}
		return out
	default:
		return n
	}
}

// substituteString performs typed substitution for pure-placeholder
// strings and textual substitution otherwise.
func (b *Builder) substituteString(s string, env *recordEnv) any {
	// Fast path: no placeholders.
	if !strings.Contains(s, "{{") {
		return s
	}
	if name, ok := purePlaceholder(s); ok {
		m, found := b.table[name]
		if !found {
			return nil
		}
		val, _ := b.resolver.resolve(m, env)
		return val
	}
	return b.substituteText(s, env)
}

func (b *Builder) substituteText(s string, env *recordEnv) string {
	if !strings.Contains(s, "{{") {
		return s
	}
	return placeholderPattern.ReplaceAllStringFunc(s, func(match string) string {
		sub := placeholderPattern.FindStringSubmatch(match)
		m, found := b.table[sub[1]]
		if !found {
			return ""
		}
		val, defined := b.resolver.resolve(m, env)
		if !defined || val == nil {
			return ""
		}
		return fmt.Sprintf("%v", val)
	})
}

// purePlaceholder reports whether s is exactly one {{name}} token.
func purePlaceholder(s string) (string, bool) {
	sub := placeholderPattern.FindStringSubmatchIndex(s)
	if sub == nil || sub[0] != 0 || sub[1] != len(s) {
		return "", false
	}
	return s[sub[2]:sub[3]], true
}
