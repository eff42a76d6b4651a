package source

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	// sqlite driver
	_ "modernc.org/sqlite"

	"github.com/brianfmorissette/chatgpt-champion/internal/domain/ingest"
	"github.com/brianfmorissette/chatgpt-champion/internal/domain/model"
)

var tableName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// SQLiteSource reads weekly rows from one table of a sqlite database.
// Column names follow the CSV export; extra columns are ignored.
type SQLiteSource struct {
	path string
	opts options
}

// NewSQLiteSource creates a source for the table configured with WithTable.
func NewSQLiteSource(path string, opts ...Option) (*SQLiteSource, error) {
	o := buildOptions(opts)
	if !tableName.MatchString(o.table) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidTable, o.table)
	}
	return &SQLiteSource{path: path, opts: o}, nil
}

func (s *SQLiteSource) String() string { return "sqlite:" + s.path + "#" + s.opts.table }

// Load reads every row of the table in rowid order.
func (s *SQLiteSource) Load(ctx context.Context) ([]model.ActivityRecord, error) {
	db, err := sql.Open("sqlite", "file:"+s.path+"?mode=ro")
	if err != nil {
		return nil, fmt.Errorf("%w: open sqlite: %w", ErrLoad, err)
	}
	defer db.Close()

	rows, err := db.QueryContext(ctx, `SELECT * FROM "`+s.opts.table+`" ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("%w: query %s: %w", ErrLoad, s.opts.table, err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("%w: columns: %w", ErrLoad, err)
	}
	for i := range cols {
		cols[i] = strings.ToLower(cols[i])
	}
	hasPeriod := false
	for _, c := range cols {
		hasPeriod = hasPeriod || c == ingest.ColPeriodEnd
	}
	if !hasPeriod {
		return nil, fmt.Errorf("%w: %w: %s", ErrLoad, ErrMissingColumn, ingest.ColPeriodEnd)
	}

	c := newCollector(s.opts, s.String())
	c.missingColumns(ctx, cols)

	vals := make([]any, len(cols))
	ptrs := make([]any, len(cols))
	for i := range vals {
		ptrs[i] = &vals[i]
	}
	line := 0
	for rows.Next() {
		line++
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("%w: row %d: %w", ErrLoad, line, err)
		}
		row := make(ingest.Row, len(cols))
		for i, col := range cols {
			row[col] = cell(vals[i])
		}
		c.add(ctx, line, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoad, err)
	}
	return c.finish(ctx), nil
}

// cell renders a sqlite value the way it would appear in a CSV export.
func cell(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case []byte:
		return string(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		if x {
			return "1"
		}
		return "0"
	case time.Time:
		return x.Format(time.RFC3339Nano)
	default:
		return fmt.Sprint(x)
	}
}

// Import writes records into table, creating it if needed. Usage maps are
// stored as JSON objects, which the strict usage parser accepts.
func Import(ctx context.Context, path, table string, records []model.ActivityRecord) error {
	if !tableName.MatchString(table) {
		return fmt.Errorf("%w: %q", ErrInvalidTable, table)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return fmt.Errorf("open sqlite: %w", err)
	}
	defer db.Close()

	ddl := `CREATE TABLE IF NOT EXISTS "` + table + `" (
		name TEXT, email TEXT, company TEXT, pbu TEXT,
		period_end TEXT NOT NULL,
		messages REAL, gpts_messaged REAL, projects_created REAL,
		model_to_messages TEXT, tool_to_messages TEXT
	)`
	if _, err := db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("create table: %w", err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO "`+table+`"
		(name, email, company, pbu, period_end, messages, gpts_messaged, projects_created, model_to_messages, tool_to_messages)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, r := range records {
		models, err := usageJSON(r.ModelUsage)
		if err != nil {
			return fmt.Errorf("record %d: %w", i, err)
		}
		tools, err := usageJSON(r.ToolUsage)
		if err != nil {
			return fmt.Errorf("record %d: %w", i, err)
		}
		if _, err := stmt.ExecContext(ctx,
			r.Name, r.Email, r.Company, r.OrgUnit,
			r.PeriodEnd.UTC().Format(time.RFC3339),
			r.Messages, r.GPTMessages, r.ProjectsCreated,
			models, tools,
		); err != nil {
			return fmt.Errorf("insert record %d: %w", i, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// usageJSON encodes u as a JSON object with apostrophes escaped, so the
// strict parser's quote swap leaves the document intact.
func usageJSON(u model.Usage) (string, error) {
	if u == nil {
		return "{}", nil
	}
	b, err := json.Marshal(u)
	if err != nil {
		return "", err
	}
	return strings.ReplaceAll(string(b), "'", `\u0027`), nil
}
