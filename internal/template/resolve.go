package template

import (
	"encoding/json"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/avrhamo/releases-sub000/internal/core"
)

// Resolver resolves a single mapping against a source record, the run
// context, and the generator registry. Resolution never fails at run
// time: missing source paths degrade to an undefined value and all
// generator/pattern problems are caught by Validate beforehand.
type Resolver struct {
	generators Registry
}

func NewResolver(reg Registry) *Resolver {
	if reg == nil {
		reg = DefaultRegistry()
	}
	return &Resolver{generators: reg}
}

// Resolve returns the value for one mapping. The second return is
// false when a source path did not exist in the record.
func (r *Resolver) Resolve(m Mapping, rctx core.RunContext) (any, bool) {
	env := &recordEnv{rctx: rctx}
	return r.resolve(m, env)
}

// recordEnv caches the record's JSON form so a build resolving many
// source fields marshals the record once.
type recordEnv struct {
	rctx core.RunContext
	json []byte
}

func (e *recordEnv) recordJSON() []byte {
	if e.json == nil {
		data, err := json.Marshal(e.rctx.Record)
		if err != nil {
			data = []byte("{}")
		}
		e.json = data
	}
	return e.json
}

func (r *Resolver) resolve(m Mapping, env *recordEnv) (any, bool) {
	val, defined := r.resolveSpec(m.Spec, env)
	if m.Base64 != nil {
		if !defined {
			val = nil
		}
		return spliceBase64(m.Base64.Original, m.Base64.Key, val), true
	}
	return val, defined
}

func (r *Resolver) resolveSpec(spec MappingSpec, env *recordEnv) (any, bool) {
	switch s := spec.(type) {
	case SourceField:
		result := gjson.GetBytes(env.recordJSON(), convertPath(s.Path))
		if !result.Exists() {
			return nil, false
		}
		return result.Value(), true
	case FixedValue:
		if s.Random {
			return generateFromPattern(s.Pattern), true
		}
		return s.Literal, true
	case Generator:
		fn, ok := r.generators[s.Kind]
		if !ok {
			// Unknown kinds are rejected by Validate; an unchecked
			// table degrades to undefined rather than panicking.
			return nil, false
		}
		return fn(env.rctx), true
	}
	return nil, false
}

// convertPath converts dotted/indexed paths to gjson format.
// user.address.city -> user.address.city
// items[0].sku      -> items.0.sku
func convertPath(path string) string {
	if !strings.Contains(path, "[") {
		return path
	}
	var result strings.Builder
	i := 0
	for i < len(path) {
		if path[i] == '[' {
			j := i + 1
			for j < len(path) && path[j] != ']' {
				j++
			}
			if j < len(path) {
				result.WriteByte('.')
				result.WriteString(path[i+1 : j])
				i = j + 1
				continue
			}
		}
		result.WriteByte(path[i])
		i++
	}
	return result.String()
}
