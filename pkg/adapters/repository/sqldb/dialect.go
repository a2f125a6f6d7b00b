package sqldb

import (
	"errors"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

const pgErrCodeUniqueViolation = "23505"

// dialect captures the differences between the supported databases.
// Queries are written with "?" placeholders and rebound when needed.
type dialect struct {
	name     string
	driver   string
	schema   string
	clickDay string // clicks.created_at as YYYY-MM-DD
	numbered bool   // $1, $2, ... placeholders
}

var (
	sqliteDialect = dialect{
		name:     "sqlite",
		driver:   "sqlite",
		schema:   sqliteSchema,
		clickDay: "substr(created_at, 1, 10)",
	}
	libsqlDialect = dialect{
		name:     "libsql",
		driver:   "libsql",
		schema:   sqliteSchema,
		clickDay: "substr(created_at, 1, 10)",
	}
	postgresDialect = dialect{
		name:     "postgres",
		driver:   "pgx",
		schema:   postgresSchema,
		clickDay: "to_char(created_at AT TIME ZONE 'UTC', 'YYYY-MM-DD')",
		numbered: true,
	}
)

func dialectFor(dbURL string) dialect {
	switch {
	case strings.HasPrefix(dbURL, "postgres://"), strings.HasPrefix(dbURL, "postgresql://"):
		return postgresDialect
	case strings.Contains(dbURL, "libsql://"), strings.Contains(dbURL, "wss://"):
		return libsqlDialect
	default:
		return sqliteDialect
	}
}

func (d dialect) rebind(query string) string {
	if !d.numbered {
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

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgErrCodeUniqueViolation
	}

	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		return liteErr.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE ||
			liteErr.Code() == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY
	}

	// libsql reports constraint failures as plain text
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS users (
	id TEXT PRIMARY KEY,
	email TEXT NOT NULL UNIQUE,
	password TEXT NOT NULL,
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL,
	deleted_at DATETIME
);

CREATE TABLE IF NOT EXISTS short_urls (
	id TEXT PRIMARY KEY,
	original_url TEXT NOT NULL,
	short_code TEXT NOT NULL,
	user_id TEXT REFERENCES users(id),
	click_count INTEGER NOT NULL DEFAULT 0,
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL,
	deleted_at DATETIME
);
CREATE UNIQUE INDEX IF NOT EXISTS idx_short_urls_active_code ON short_urls(short_code) WHERE deleted_at IS NULL;
CREATE INDEX IF NOT EXISTS idx_short_urls_user_id ON short_urls(user_id);

CREATE TABLE IF NOT EXISTS clicks (
	id TEXT PRIMARY KEY,
	url_id TEXT NOT NULL REFERENCES short_urls(id),
	ip_address TEXT,
	user_agent TEXT,
	created_at DATETIME NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_clicks_url_id ON clicks(url_id);
`

const postgresSchema = `
CREATE TABLE IF NOT EXISTS users (
	id TEXT PRIMARY KEY,
	email TEXT NOT NULL UNIQUE,
	password TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL,
	deleted_at TIMESTAMPTZ
);

CREATE TABLE IF NOT EXISTS short_urls (
	id TEXT PRIMARY KEY,
	original_url TEXT NOT NULL,
	short_code VARCHAR(32) NOT NULL,
	user_id TEXT REFERENCES users(id),
	click_count BIGINT NOT NULL DEFAULT 0,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL,
	deleted_at TIMESTAMPTZ
);
CREATE UNIQUE INDEX IF NOT EXISTS idx_short_urls_active_code ON short_urls(short_code) WHERE deleted_at IS NULL;
CREATE INDEX IF NOT EXISTS idx_short_urls_user_id ON short_urls(user_id);

CREATE TABLE IF NOT EXISTS clicks (
	id TEXT PRIMARY KEY,
	url_id TEXT NOT NULL REFERENCES short_urls(id),
	ip_address TEXT,
	user_agent TEXT,
	created_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_clicks_url_id ON clicks(url_id);
`
