// Package ingest coerces loosely typed export rows into activity records.
//
// Everything except the period timestamp has a safe default: identity fields
// fall back to sentinel strings, counters to 0 and usage maps to an empty map.
// Each correction is reported as a Warning rather than an error.
package ingest

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/brianfmorissette/chatgpt-champion/internal/domain/features"
	"github.com/brianfmorissette/chatgpt-champion/internal/domain/model"
)

// Column names of the weekly export.
const (
	ColName            = "name"
	ColEmail           = "email"
	ColCompany         = "company"
	ColOrgUnit         = "pbu"
	ColPeriodEnd       = "period_end"
	ColMessages        = "messages"
	ColGPTMessages     = "gpts_messaged"
	ColProjectsCreated = "projects_created"
	ColModelUsage      = "model_to_messages"
	ColToolUsage       = "tool_to_messages"
)

// Columns lists every column the parser understands, in export order.
var Columns = []string{
	ColName, ColEmail, ColCompany, ColOrgUnit, ColPeriodEnd,
	ColMessages, ColGPTMessages, ColProjectsCreated, ColModelUsage, ColToolUsage,
}

// Row is one export row keyed by column name. An absent key is a missing column.
type Row map[string]string

// Kind classifies a data-quality warning.
type Kind string

// Warning kinds.
const (
	KindMissing  Kind = "missing_value"
	KindNumeric  Kind = "invalid_number"
	KindNegative Kind = "negative_number"
	KindUsage    Kind = "invalid_usage_map"
)

// Warning records a value that was replaced by a safe default.
type Warning struct {
	Kind  Kind
	Field string
	Value string
}

func (w Warning) String() string {
	return fmt.Sprintf("%s: %s=%q", w.Kind, w.Field, w.Value)
}

var periodLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04:05-07:00",
	"2006-01-02",
	"01/02/2006",
}

// Parser converts rows into records.
type Parser struct {
	usage *features.Parser
}

// Option applies a configuration option to the Parser.
type Option func(*Parser)

// WithUsageParser sets the parser used for the usage map columns.
func WithUsageParser(p *features.Parser) Option {
	return func(ip *Parser) {
		if p != nil {
			ip.usage = p
		}
	}
}

// New creates a Parser that decodes usage maps strictly by default.
func New(opts ...Option) *Parser {
	p := &Parser{usage: features.NewParser()}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Parse converts row into an ActivityRecord. The error is non-nil only when
// period_end is missing or unparseable.
func (p *Parser) Parse(row Row) (model.ActivityRecord, []Warning, error) {
	var warns []Warning

	period, err := ParsePeriod(row[ColPeriodEnd])
	if err != nil {
		return model.ActivityRecord{}, nil, err
	}

	rec := model.ActivityRecord{
		Identity: model.Identity{
			Name:    identity(row, ColName, model.UnknownName, &warns),
			Email:   identity(row, ColEmail, model.UnknownEmail, &warns),
			Company: identity(row, ColCompany, model.UnknownCompany, &warns),
		},
		OrgUnit:         optional(row, ColOrgUnit, model.UnknownOrgUnit),
		PeriodEnd:       period,
		Messages:        number(row, ColMessages, &warns),
		GPTMessages:     number(row, ColGPTMessages, &warns),
		ProjectsCreated: number(row, ColProjectsCreated, &warns),
		ModelUsage:      p.usageMap(row, ColModelUsage, &warns),
		ToolUsage:       p.usageMap(row, ColToolUsage, &warns),
	}
	return rec, warns, nil
}

// ParsePeriod accepts the timestamp layouts seen in exports. The result is
// always in UTC.
func ParsePeriod(raw string) (time.Time, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return time.Time{}, fmt.Errorf("%w: missing", ErrInvalidPeriod)
	}
	for _, layout := range periodLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidPeriod, s)
}

func identity(row Row, col, fallback string, warns *[]Warning) string {
	v := strings.TrimSpace(row[col])
	if v == "" {
		*warns = append(*warns, Warning{Kind: KindMissing, Field: col})
		return fallback
	}
	return v
}

func optional(row Row, col, fallback string) string {
	if v := strings.TrimSpace(row[col]); v != "" {
		return v
	}
	return fallback
}

// number coerces a counter; blanks are 0, garbage and negatives are 0 with a warning.
func number(row Row, col string, warns *[]Warning) float64 {
	raw := strings.TrimSpace(row[col])
	if raw == "" {
		return 0
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		*warns = append(*warns, Warning{Kind: KindNumeric, Field: col, Value: raw})
		return 0
	}
	if v < 0 {
		*warns = append(*warns, Warning{Kind: KindNegative, Field: col, Value: raw})
		return 0
	}
	return v
}

func (p *Parser) usageMap(row Row, col string, warns *[]Warning) model.Usage {
	raw := row[col]
	u, ok := p.usage.Parse(raw)
	if !ok {
		*warns = append(*warns, Warning{Kind: KindUsage, Field: col, Value: raw})
	}
	return u
}
