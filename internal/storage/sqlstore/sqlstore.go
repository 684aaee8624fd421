// Package sqlstore provides a database/sql implementation of storage.Store
// for SQLite (default) and PostgreSQL.
package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	_ "github.com/lib/pq"  // PostgreSQL driver
	_ "modernc.org/sqlite" // Pure Go SQLite driver (no CGO)

	"github.com/mmynk/familybudget/internal/storage"
)

// Ensure Store implements storage.Store
var _ storage.Store = (*Store)(nil)

// Dialect selects the SQL flavour and driver.
type Dialect string

const (
	DialectSQLite   Dialect = "sqlite"
	DialectPostgres Dialect = "postgres"
)

// rebind converts ? placeholders to $1, $2, ... for PostgreSQL.
// Queries in this package never contain a literal question mark.
func (d Dialect) rebind(query string) string {
	if d != DialectPostgres {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// forUpdate adds a row lock to a SELECT on PostgreSQL. SQLite has no row
// locks and needs none with a single connection.
func (d Dialect) forUpdate(query string) string {
	if d != DialectPostgres {
		return query
	}
	return query + " FOR UPDATE"
}

// sqliteDSN returns the file path of a SQLite DSN and the DSN with the
// connection pragmas added. Foreign keys are per connection in SQLite, so
// they go in the DSN. In-memory databases are rejected: migrations run on
// their own connection and the schema would not survive it.
func sqliteDSN(dsn string) (path, withPragmas string, err error) {
	path, query, hasQuery := strings.Cut(dsn, "?")
	path = strings.TrimPrefix(path, "file:")
	if path == "" || path == ":memory:" || strings.Contains(query, "mode=memory") {
		return "", "", fmt.Errorf("sqlite database %q must be a file path", dsn)
	}

	const pragmas = "_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	sep := "?"
	if hasQuery {
		sep = "&"
		if query == "" {
			sep = ""
		}
	}
	return path, dsn + sep + pragmas, nil
}

// Store implements storage.Store on top of database/sql.
type Store struct {
	db      *sql.DB
	dialect Dialect
	now     func() time.Time
}

// New creates a SQLite-backed Store at dbPath.
// It creates the parent directories and runs migrations automatically.
func New(dbPath string) (*Store, error) {
	return Open(DialectSQLite, dbPath)
}

// Open connects to the database, runs pending migrations and returns the store.
// For SQLite dsn is a file path; for PostgreSQL a connection URL.
func Open(dialect Dialect, dsn string) (*Store, error) {
	var driverName string
	switch dialect {
	case DialectSQLite:
		path, withPragmas, err := sqliteDSN(dsn)
		if err != nil {
			return nil, err
		}
		// Create parent directory if it doesn't exist
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
		dsn = withPragmas
		driverName = "sqlite"
	case DialectPostgres:
		driverName = "postgres"
	default:
		return nil, fmt.Errorf("unsupported database dialect %q", dialect)
	}

	if err := runMigrations(dialect, driverName, dsn); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if dialect == DialectSQLite {
		// One writer at a time; transactions serialize instead of failing with SQLITE_BUSY.
		db.SetMaxOpenConns(1)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	return &Store{
		db:      db,
		dialect: dialect,
		now:     func() time.Time { return time.Now().UTC() },
	}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping checks the database connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// queryer is satisfied by both *sql.DB and *sql.Tx.
type queryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// dbtx runs queries against a connection or transaction, rewriting
// placeholders for the dialect.
type dbtx struct {
	q       queryer
	dialect Dialect
}

func (d dbtx) exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return d.q.ExecContext(ctx, d.dialect.rebind(query), args...)
}

func (d dbtx) query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return d.q.QueryContext(ctx, d.dialect.rebind(query), args...)
}

func (d dbtx) queryRow(ctx context.Context, query string, args ...any) *sql.Row {
	return d.q.QueryRowContext(ctx, d.dialect.rebind(query), args...)
}

// conn returns a dbtx outside of any transaction.
func (s *Store) conn() dbtx {
	return dbtx{q: s.db, dialect: s.dialect}
}

// withTx runs fn in a transaction. The transaction is rolled back when fn
// returns an error, leaving prior state unchanged.
func (s *Store) withTx(ctx context.Context, fn func(tx dbtx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(dbtx{q: tx, dialect: s.dialect}); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// Timestamps are stored as Unix nanoseconds so that creation order is
// preserved for rows created within the same second.

func toUnix(t time.Time) int64 {
	return t.UnixNano()
}

func fromUnix(n int64) time.Time {
	return time.Unix(0, n).UTC()
}

func nullTime(t *time.Time) sql.NullInt64 {
	if t == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: toUnix(*t), Valid: true}
}

func timePtr(n sql.NullInt64) *time.Time {
	if !n.Valid {
		return nil
	}
	t := fromUnix(n.Int64)
	return &t
}

func nullString(s *string) sql.NullString {
	if s == nil || *s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func stringPtr(n sql.NullString) *string {
	if !n.Valid {
		return nil
	}
	s := n.String
	return &s
}
