package template

import (
	"crypto/rand"
	"encoding/json"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/avrhamo/releases-sub000/internal/core"
)

// GeneratorFunc produces a value from the run context alone, so every
// record yields a legal payload even when the source carries no data.
type GeneratorFunc func(core.RunContext) any

// Registry is a closed mapping from generator kind to function. The
// default registry can be swapped out wholesale for testing.
type Registry map[string]GeneratorFunc

// DefaultRegistry returns the built-in generator set.
func DefaultRegistry() Registry {
	return Registry{
		"uuid":          func(core.RunContext) any { return uuid.New().String() },
		"uuid_v1":       genUUIDv1,
		"short_uuid":    func(core.RunContext) any { return uuid.New().String()[:8] },
		"nanoid":        func(core.RunContext) any { return nanoid(21) },
		"timestamp":     func(c core.RunContext) any { return c.Now.Unix() },
		"timestamp_ms":  func(c core.RunContext) any { return c.Now.UnixMilli() },
		"timestamp_iso": func(c core.RunContext) any { return c.Now.Format(time.RFC3339) },
		"random_int":    func(core.RunContext) any { return randomInt(0, 1000000) },
		"random_float":  genRandomFloat,
		"random_string": func(core.RunContext) any { return randomString(alnumCharset, 16) },
		"random_email":  genRandomEmail,
		"sequence":      func(c core.RunContext) any { return c.Sequence },
		"run_id":        func(c core.RunContext) any { return c.RunID },
		"document":      genDocument,
	}
}

func genUUIDv1(core.RunContext) any {
	id, err := uuid.NewUUID()
	if err != nil {
		// Time-based generation can fail only on clock sequence
		// exhaustion; fall back to v4 rather than break the run.
		return uuid.New().String()
	}
	return id.String()
}

func genRandomFloat(core.RunContext) any {
	n := randomInt(0, 1000000)
	return float64(n) / 1000.0
}

func genRandomEmail(core.RunContext) any {
	return fmt.Sprintf("%s@%s.com", randomString(lowerCharset, 8), randomString(lowerCharset, 6))
}

// genDocument serializes the whole source record as a JSON string.
func genDocument(c core.RunContext) any {
	if c.Record == nil {
		return "{}"
	}
	data, err := json.Marshal(c.Record)
	if err != nil {
		return "{}"
	}
	return string(data)
}

const (
	alnumCharset  = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	lowerCharset  = "abcdefghijklmnopqrstuvwxyz"
	letterCharset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"
	digitCharset  = "0123456789"
	// nanoid alphabet per the reference implementation.
	nanoidCharset = "_-0123456789abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"
)

// randomInt returns a random integer in [min, max).
func randomInt(min, max int64) int64 {
	n, err := rand.Int(rand.Reader, big.NewInt(max-min))
	if err != nil {
		return min
	}
	return min + n.Int64()
}

func randomString(charset string, length int) string {
	var b strings.Builder
	b.Grow(length)
	for i := 0; i < length; i++ {
		b.WriteByte(charset[randomInt(0, int64(len(charset)))])
	}
	return b.String()
}

func nanoid(length int) string {
	return randomString(nanoidCharset, length)
}
