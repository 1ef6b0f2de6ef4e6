// Package config handles YAML run-definition parsing.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/avrhamo/releases-sub000/internal/core"
	"github.com/avrhamo/releases-sub000/internal/template"
)

// Config is the root run definition.
type Config struct {
	Run      RunSection               `yaml:"run"`
	Source   SourceSection            `yaml:"source"`
	Sink     SinkSection              `yaml:"sink"`
	Template TemplateSection          `yaml:"template"`
	Mappings map[string]MappingConfig `yaml:"mappings"`
}

// RunSection controls the dispatch policy.
type RunSection struct {
	Count          int           `yaml:"count"`
	Mode           string        `yaml:"mode"` // concurrent (default) or sequential
	BatchSize      int           `yaml:"batchSize"`
	TargetRPS      int           `yaml:"targetRPS"`
	Delay          time.Duration `yaml:"delay"`
	RequestTimeout time.Duration `yaml:"requestTimeout"`
}

// SourceSection names the document source. Filter is opaque and passed
// through to the store untouched.
type SourceSection struct {
	File   string         `yaml:"file"`
	Filter map[string]any `yaml:"filter"`
}

// SinkSection names the delivery target.
type SinkSection struct {
	URL    string `yaml:"url"`
	Method string `yaml:"method"`
}

// TemplateSection is the payload shape; Body is an arbitrary tree with
// {{placeholder}} tokens.
type TemplateSection struct {
	Body    any               `yaml:"body"`
	Key     string            `yaml:"key"`
	Headers map[string]string `yaml:"headers"`
}

// MappingConfig is the YAML form of one placeholder mapping. The
// string tag is converted to a closed variant once, at load time; the
// engine never does string-tag dispatch per record.
type MappingConfig struct {
	Type    string        `yaml:"type"` // field, fixed, generator
	Path    string        `yaml:"path"`
	Value   any           `yaml:"value"`
	Random  bool          `yaml:"random"`
	Pattern string        `yaml:"pattern"`
	Kind    string        `yaml:"kind"`
	Base64  *Base64Config `yaml:"base64"`
}

// Base64Config marks a placeholder that lives inside a Base64-encoded
// JSON envelope.
type Base64Config struct {
	Original string `yaml:"original"`
	Key      string `yaml:"key"`
}

// LoadConfig reads and parses a YAML run definition.
func LoadConfig(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Run.Mode == "" {
		c.Run.Mode = string(core.ModeConcurrent)
	}
	if c.Run.BatchSize == 0 {
		c.Run.BatchSize = 25
	}
	if c.Run.RequestTimeout == 0 {
		c.Run.RequestTimeout = 30 * time.Second
	}
	if c.Sink.Method == "" {
		c.Sink.Method = "POST"
	}
}

func (c *Config) validate() error {
	switch core.DispatchMode(c.Run.Mode) {
	case core.ModeConcurrent, core.ModeSequential:
	default:
		return core.ConfigErrorf("run.mode must be %q or %q, got %q",
			core.ModeConcurrent, core.ModeSequential, c.Run.Mode)
	}
	if c.Run.Count < 0 {
		return core.ConfigErrorf("run.count must be >= 0, got %d", c.Run.Count)
	}
	if c.Source.File == "" {
		return core.ConfigErrorf("source.file is required")
	}
	if c.Sink.URL == "" {
		return core.ConfigErrorf("sink.url is required")
	}
	for name, m := range c.Mappings {
		switch m.Type {
		case "field", "fixed", "generator":
		default:
			return core.ConfigErrorf("mapping %q: unknown type %q", name, m.Type)
		}
	}
	return nil
}

// RunConfig converts the run section to the engine's immutable config.
func (c *Config) RunConfig() core.RunConfig {
	return core.RunConfig{
		Count:          c.Run.Count,
		Mode:           core.DispatchMode(c.Run.Mode),
		BatchSize:      c.Run.BatchSize,
		TargetRPS:      c.Run.TargetRPS,
		Delay:          c.Run.Delay,
		RequestTimeout: c.Run.RequestTimeout,
	}
}

// MappingTable converts the YAML mapping section into the engine's
// tagged-variant table.
func (c *Config) MappingTable() template.Table {
	table := make(template.Table, len(c.Mappings))
	for name, m := range c.Mappings {
		var spec template.MappingSpec
		switch m.Type {
		case "field":
			spec = template.SourceField{Path: m.Path}
		case "fixed":
			spec = template.FixedValue{Literal: m.Value, Random: m.Random, Pattern: m.Pattern}
		case "generator":
			spec = template.Generator{Kind: m.Kind}
		}
		mapping := template.Mapping{Spec: spec}
		if m.Base64 != nil {
			mapping.Base64 = &template.Base64Blob{
				Original: m.Base64.Original,
				Key:      m.Base64.Key,
			}
		}
		table[name] = mapping
	}
	return table
}

// PayloadTemplate converts the template section, normalizing YAML maps
// into the JSON-like tree shape the builder walks.
func (c *Config) PayloadTemplate() template.Template {
	return template.Template{
		Body:    normalize(c.Template.Body),
		Key:     c.Template.Key,
		Headers: c.Template.Headers,
	}
}

// normalize converts yaml.v3's map[string]interface{} trees (and any
// map[interface{}]interface{} leftovers) into map[string]any.
func normalize(node any) any {
	switch n := node.(type) {
	case map[string]any:
		out := make(map[string]any, len(n))
		for k, v := range n {
			out[k] = normalize(v)
		}
		return out
	case map[any]any:
		out := make(map[string]any, len(n))
		for k, v := range n {
			out[fmt.Sprintf("%v", k)] = normalize(v)
		}
		return out
	case []any:
		out := make([]any, len(n))
		for i, v := range n {
			out[i] = normalize(v)
		}
		return out
	default:
		return n
	}
}
