package store

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"time"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/duckdb/duckdb-go/v2"
	_ "github.com/go-sql-driver/mysql"
	"github.com/google/uuid"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"

	"github.com/roach88/twinq/internal/criteria"
	"github.com/roach88/twinq/internal/relational"
)

// Supported database/sql driver names.
const (
	DriverSQLite   = "sqlite3"
	DriverPostgres = "postgres"
	DriverMySQL    = "mysql"
	DriverDuckDB   = "duckdb"
)

// Drivers lists every supported driver name.
var Drivers = []string{DriverSQLite, DriverPostgres, DriverMySQL, DriverDuckDB}

// Row is one result row keyed by column name. Byte slices are returned as
// strings.
type Row map[string]any

// Result holds the rows of a select and the number of matching rows in the
// database. For a paginated select Count is the total before paging, so it
// can exceed len(Rows).
type Result struct {
	Rows  []Row
	Count int64
}

// Store executes entity queries against one database.
type Store struct {
	db          *sql.DB
	driver      string
	renderer    *relational.Renderer
	placeholder sq.PlaceholderFormat
	logger      *slog.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithRenderer sets the renderer used by Run. It must render SQL, not the
// object query dialect.
func WithRenderer(r *relational.Renderer) Option {
	return func(s *Store) {
		if r != nil {
			s.renderer = r
		}
	}
}

// WithTables renders entity queries in the SQL dialect resolved through
// tables.
func WithTables(tables relational.TableResolver) Option {
	return func(s *Store) {
		s.renderer = relational.NewRenderer(
			relational.WithDialect(relational.SQL(tables)),
			relational.WithLogger(s.logger))
	}
}

// WithLogger sets the logger for debug output.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// Open connects to a database through driver and verifies the connection.
//
// SQLite connections are limited to a single open connection, with a
// 5-second busy timeout and foreign key enforcement.
func Open(driver, dsn string, opts ...Option) (*Store, error) {
	placeholder, err := placeholderFormat(driver)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if driver == DriverSQLite {
		// SQLite only supports one writer at a time, so limit connections
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
		if err := applyPragmas(db); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to apply pragmas: %w", err)
		}
	}

	s := &Store{
		db:          db,
		driver:      driver,
		placeholder: placeholder,
		logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// DB returns the underlying sql.DB for direct queries.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Driver returns the driver name the store was opened with.
func (s *Store) Driver() string {
	return s.driver
}

// Exec runs a statement that returns no rows, such as fixture DDL.
func (s *Store) Exec(ctx context.Context, query string, args ...any) error {
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("exec: %w", err)
	}
	return nil
}

// Run renders q and executes it, in criteria mode when q asks for it.
func (s *Store) Run(ctx context.Context, q criteria.EntityQuery) (*Result, error) {
	if s.renderer == nil {
		return nil, fmt.Errorf("store has no renderer: open it with WithTables or WithRenderer")
	}
	if q.UseCriteria {
		c, err := s.renderer.Criteria(q)
		if err != nil {
			return nil, err
		}
		return s.ExecuteCriteria(ctx, c)
	}
	stmt, err := s.renderer.Render(q)
	if err != nil {
		return nil, err
	}
	return s.Execute(ctx, stmt)
}

// Execute runs a rendered statement. Named parameters are rewritten to the
// driver's placeholders.
func (s *Store) Execute(ctx context.Context, stmt relational.Statement) (*Result, error) {
	text, args, err := stmt.Positional()
	if err != nil {
		return nil, err
	}
	if text, err = s.placeholder.ReplacePlaceholders(text); err != nil {
		return nil, fmt.Errorf("rewrite placeholders: %w", err)
	}
	if stmt.Count {
		return s.query(ctx, text, args, true)
	}
	return s.list(ctx, text, args, stmt.First, stmt.PageSize)
}

// ExecuteCriteria runs a structured query.
func (s *Store) ExecuteCriteria(ctx context.Context, c *relational.Criteria) (*Result, error) {
	b, err := c.Select()
	if err != nil {
		return nil, err
	}
	text, args, err := b.PlaceholderFormat(s.placeholder).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build criteria query: %w", err)
	}
	if c.Count {
		return s.query(ctx, text, args, true)
	}
	return s.list(ctx, text, args, c.First, c.PageSize)
}

// list runs a select one page at a time. When the page may not hold every
// match, the unpaged select is counted separately.
func (s *Store) list(ctx context.Context, text string, args []any, first, size int) (*Result, error) {
	res, err := s.query(ctx, text+s.paginate(first, size), args, false)
	if err != nil {
		return nil, err
	}
	if first == 0 && (size == 0 || len(res.Rows) < size) {
		return res, nil
	}
	total, err := s.query(ctx, "SELECT count(*) FROM ("+text+") AS total", args, true)
	if err != nil {
		return nil, err
	}
	res.Count = total.Count
	return res, nil
}

func (s *Store) query(ctx context.Context, text string, args []any, count bool) (*Result, error) {
	queryID := uuid.Must(uuid.NewV7()).String()
	start := time.Now()
	s.logger.Debug("executing query",
		"query_id", queryID,
		"driver", s.driver,
		"sql", text,
		"args", len(args))

	if count {
		var n int64
		if err := s.db.QueryRowContext(ctx, text, args...).Scan(&n); err != nil {
			return nil, fmt.Errorf("query %s: %w", queryID, err)
		}
		s.logger.Debug("query executed", "query_id", queryID, "count", n, "duration", time.Since(start))
		return &Result{Count: n}, nil
	}

	rows, err := s.db.QueryContext(ctx, text, args...)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", queryID, err)
	}
	defer rows.Close()

	out, err := scanRows(rows)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", queryID, err)
	}
	s.logger.Debug("query executed", "query_id", queryID, "rows", len(out), "duration", time.Since(start))
	return &Result{Rows: out, Count: int64(len(out))}, nil
}

func scanRows(rows *sql.Rows) ([]Row, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("read columns: %w", err)
	}

	out := []Row{}
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		row := make(Row, len(cols))
		for i, col := range cols {
			if b, ok := values[i].([]byte); ok {
				row[col] = string(b)
				continue
			}
			row[col] = values[i]
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return out, nil
}

// paginate renders the LIMIT/OFFSET suffix. An offset without a page size
// needs an explicit unbounded limit on SQLite and MySQL.
func (s *Store) paginate(first, size int) string {
	switch {
	case size > 0 && first > 0:
		return " LIMIT " + strconv.Itoa(size) + " OFFSET " + strconv.Itoa(first)
	case size > 0:
		return " LIMIT " + strconv.Itoa(size)
	case first > 0:
		switch s.driver {
		case DriverSQLite:
			return " LIMIT -1 OFFSET " + strconv.Itoa(first)
		case DriverMySQL:
			return " LIMIT 18446744073709551615 OFFSET " + strconv.Itoa(first)
		default:
			return " OFFSET " + strconv.Itoa(first)
		}
	}
	return ""
}

func placeholderFormat(driver string) (sq.PlaceholderFormat, error) {
	switch driver {
	case DriverSQLite, DriverMySQL, DriverDuckDB:
		return sq.Question, nil
	case DriverPostgres:
		return sq.Dollar, nil
	default:
		return nil, fmt.Errorf("unsupported driver %q", driver)
	}
}

// applyPragmas sets required SQLite configuration.
func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}

	return nil
}
