package source

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"github.com/brianfmorissette/chatgpt-champion/internal/domain/ingest"
	"github.com/brianfmorissette/chatgpt-champion/internal/domain/model"
)

// CSVSource reads a header-driven CSV export.
type CSVSource struct {
	path string
	opts options
}

// NewCSVSource creates a source for the CSV file at path.
func NewCSVSource(path string, opts ...Option) *CSVSource {
	return &CSVSource{path: path, opts: buildOptions(opts)}
}

func (s *CSVSource) String() string { return "csv:" + s.path }

// Load reads the whole file.
func (s *CSVSource) Load(ctx context.Context) ([]model.ActivityRecord, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoad, err)
	}
	defer f.Close()
	return s.read(ctx, f)
}

func (s *CSVSource) read(ctx context.Context, r io.Reader) ([]model.ActivityRecord, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: %s: empty file", ErrLoad, s.path)
		}
		return nil, fmt.Errorf("%w: %s: header: %w", ErrLoad, s.path, err)
	}
	for i := range header {
		header[i] = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(header[i], "\ufeff")))
	}
	if !slices.Contains(header, ingest.ColPeriodEnd) {
		return nil, fmt.Errorf("%w: %w: %s", ErrLoad, ErrMissingColumn, ingest.ColPeriodEnd)
	}

	c := newCollector(s.opts, s.String())
	c.missingColumns(ctx, header)
	line := 1
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		fields, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("%w: %s:%d: %w", ErrLoad, s.path, line, err)
		}
		row := make(ingest.Row, len(header))
		for i, col := range header {
			if i < len(fields) {
				row[col] = fields[i]
			}
		}
		c.add(ctx, line, row)
	}
	return c.finish(ctx), nil
}
