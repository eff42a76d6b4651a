// Package features derives per-record diversity counts from the usage maps
// exported alongside each weekly activity row.
//
// Usage maps arrive as Python-style dict literals, e.g. {'gpt-4o': 12}. Every
// parse path here is total: anything that does not decode to an object is
// treated as "no usage" and yields an empty map.
package features

import (
	"encoding/json"
	"strings"

	"github.com/kaptinlin/jsonrepair"

	"github.com/brianfmorissette/chatgpt-champion/internal/domain/model"
)

// Mode selects how tolerant the usage parser is.
type Mode string

const (
	// ModeStrict swaps single quotes for double quotes and requires the
	// result to be a valid JSON object.
	ModeStrict Mode = "strict"
	// ModeRepair runs the raw value through a JSON repairer first, recovering
	// truncated or loosely quoted literals.
	ModeRepair Mode = "repair"
)

// ParseMode converts a config string into a Mode. Unknown values report false.
func ParseMode(s string) (Mode, bool) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case "", ModeStrict:
		return ModeStrict, true
	case ModeRepair:
		return ModeRepair, true
	default:
		return ModeStrict, false
	}
}

// Parser turns raw usage literals into usage maps.
type Parser struct {
	mode Mode
}

// Option applies a configuration option to the Parser.
type Option func(*Parser)

// WithMode sets the parse mode. Unknown modes keep the default.
func WithMode(m Mode) Option {
	return func(p *Parser) {
		if m == ModeStrict || m == ModeRepair {
			p.mode = m
		}
	}
}

// NewParser creates a strict parser unless configured otherwise.
func NewParser(opts ...Option) *Parser {
	p := &Parser{mode: ModeStrict}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Mode reports the configured parse mode.
func (p *Parser) Mode() Mode { return p.mode }

// Parse decodes raw into a usage map. The second result is false when raw was
// present but could not be decoded, so callers can count data-quality issues.
// An empty raw value is "absent" and reports true.
func (p *Parser) Parse(raw string) (model.Usage, bool) {
	if strings.TrimSpace(raw) == "" {
		return model.Usage{}, true
	}

	var text string
	switch p.mode {
	case ModeRepair:
		repaired, err := jsonrepair.JSONRepair(raw)
		if err != nil {
			return model.Usage{}, false
		}
		text = repaired
	default:
		text = strings.ReplaceAll(raw, "'", `"`)
	}

	var decoded any
	if err := json.Unmarshal([]byte(text), &decoded); err != nil {
		return model.Usage{}, false
	}
	obj, ok := decoded.(map[string]any)
	if !ok {
		return model.Usage{}, false
	}

	usage := make(model.Usage, len(obj))
	for k, v := range obj {
		// Keys count toward diversity even when the message count is unusable.
		n, _ := v.(float64)
		if n < 0 {
			n = 0
		}
		usage[k] = n
	}
	return usage, true
}

// Diversity returns the number of distinct keys raw decodes to.
func (p *Parser) Diversity(raw string) int {
	u, _ := p.Parse(raw)
	return len(u)
}

var defaultParser = NewParser()

// ParseUsage decodes raw with the strict parser.
func ParseUsage(raw string) model.Usage {
	u, _ := defaultParser.Parse(raw)
	return u
}

// Diversity counts the distinct keys of raw using the strict parser.
func Diversity(raw string) int {
	return defaultParser.Diversity(raw)
}

// Count returns the diversity of an already decoded usage map.
func Count(u model.Usage) int {
	return len(u)
}
