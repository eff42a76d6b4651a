// Package source loads weekly activity exports from files.
package source

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/brianfmorissette/chatgpt-champion/internal/domain/ingest"
	"github.com/brianfmorissette/chatgpt-champion/internal/domain/model"
	"github.com/brianfmorissette/chatgpt-champion/pkg/logger"
	"github.com/brianfmorissette/chatgpt-champion/pkg/metrics"
)

// Supported formats.
const (
	FormatCSV    = "csv"
	FormatSQLite = "sqlite"
)

// DefaultTable is the sqlite table read when none is configured.
const DefaultTable = "weekly_activity"

// Source produces the activity records of one dataset.
type Source interface {
	Load(ctx context.Context) ([]model.ActivityRecord, error)
	String() string
}

type options struct {
	logger logger.Logger
	parser *ingest.Parser
	table  string
}

// Option configures a source.
type Option func(*options)

// WithLogger sets the logger used for load summaries and row warnings.
func WithLogger(l logger.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithParser sets the row parser.
func WithParser(p *ingest.Parser) Option {
	return func(o *options) {
		if p != nil {
			o.parser = p
		}
	}
}

// WithTable sets the sqlite table name.
func WithTable(table string) Option {
	return func(o *options) {
		if table != "" {
			o.table = table
		}
	}
}

func buildOptions(opts []Option) options {
	o := options{logger: logger.Nop(), parser: ingest.New(), table: DefaultTable}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// New returns the source for format reading path.
func New(format, path string, opts ...Option) (Source, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", FormatCSV:
		return NewCSVSource(path, opts...), nil
	case FormatSQLite:
		return NewSQLiteSource(path, opts...)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}

// collector runs rows through ingest and keeps the load report.
type collector struct {
	opts     options
	src      string
	records  []model.ActivityRecord
	skipped  int
	warnings map[ingest.Kind]int
	started  time.Time
}

func newCollector(o options, src string) *collector {
	return &collector{opts: o, src: src, warnings: make(map[ingest.Kind]int), started: time.Now()}
}

// missingColumns logs optional columns the header lacks.
func (c *collector) missingColumns(ctx context.Context, header []string) {
	have := make(map[string]struct{}, len(header))
	for _, h := range header {
		have[h] = struct{}{}
	}
	for _, col := range ingest.Columns {
		if _, ok := have[col]; !ok {
			c.opts.logger.Warn(ctx, "column missing from source, using defaults",
				logger.String("source", c.src),
				logger.String("column", col),
			)
		}
	}
}

func (c *collector) add(ctx context.Context, line int, row ingest.Row) {
	rec, warns, err := c.opts.parser.Parse(row)
	if err != nil {
		c.skipped++
		metrics.RecordRowSkipped()
		c.opts.logger.Debug(ctx, "skipping row", logger.Int("line", line), logger.Error(err))
		return
	}
	for _, w := range warns {
		c.warnings[w.Kind]++
		metrics.RecordDataQualityWarning(string(w.Kind))
		c.opts.logger.Debug(ctx, "data quality warning",
			logger.Int("line", line),
			logger.String("warning", w.String()),
		)
	}
	c.records = append(c.records, rec)
}

func (c *collector) finish(ctx context.Context) []model.ActivityRecord {
	took := time.Since(c.started)
	metrics.RecordSourceLoadLatency(float64(took.Microseconds()) / 1000)
	metrics.UpdateRecordsLoaded(len(c.records))

	fields := []logger.Field{
		logger.String("source", c.src),
		logger.Int("records", len(c.records)),
		logger.Int("skipped", c.skipped),
		logger.Duration("took", took),
	}
	kinds := make([]string, 0, len(c.warnings))
	for k := range c.warnings {
		kinds = append(kinds, string(k))
	}
	sort.Strings(kinds)
	for _, k := range kinds {
		fields = append(fields, logger.Int("warn_"+k, c.warnings[ingest.Kind(k)]))
	}
	c.opts.logger.Info(ctx, "records loaded", fields...)

	if c.records == nil {
		return []model.ActivityRecord{}
	}
	return c.records
}
