package sqldb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"                   // PostgreSQL driver
	_ "github.com/tursodatabase/libsql-client-go/libsql" // Turso driver
	"github.com/wadjakorntonsri/shortlink/pkg/core/domain"
	"github.com/wadjakorntonsri/shortlink/pkg/ports"
	_ "modernc.org/sqlite" // Local SQLite driver
)

const (
	maxOpenConnections     = 10
	maxIdleConnections     = 2
	connectionsMaxIdleTime = 2 * time.Minute
	connectionsLifetime    = 30 * time.Minute
	pingTimeout            = 5 * time.Second
)

var (
	errURLNotFound  = domain.NewError(domain.KindNotFound, "short url not found")
	errUserNotFound = domain.NewError(domain.KindNotFound, "user not found")
)

var (
	_ ports.URLRepository  = (*Repository)(nil)
	_ ports.UserRepository = (*Repository)(nil)
)

// Repository stores users, short URLs and clicks through database/sql.
type Repository struct {
	db      *sql.DB
	dialect dialect
}

// NewRepository opens dbURL with the driver matching its scheme
// (postgres, libsql or a local sqlite file) and creates the schema.
func NewRepository(ctx context.Context, dbURL string) (*Repository, error) {
	d := dialectFor(dbURL)

	db, err := sql.Open(d.driver, dbURL)
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", d.name, err)
	}

	if d == sqliteDialect {
		// one writer at a time; also keeps shared in-memory databases alive
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(maxOpenConnections)
		db.SetMaxIdleConns(maxIdleConnections)
		db.SetConnMaxIdleTime(connectionsMaxIdleTime)
		db.SetConnMaxLifetime(connectionsLifetime)
	}

	r := &Repository{db: db, dialect: d}

	if err := r.Ping(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}

	if err := r.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}

	return r, nil
}

func (r *Repository) Dialect() string {
	return r.dialect.name
}

func (r *Repository) migrate(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, r.dialect.schema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

func (r *Repository) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if err := r.db.PingContext(ctx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}
	return nil
}

func (r *Repository) Close() error {
	return r.db.Close()
}

func (r *Repository) q(query string) string {
	return r.dialect.rebind(query)
}

type scanner interface {
	Scan(dest ...any) error
}

const urlColumns = `id, original_url, short_code, user_id, click_count, created_at, updated_at, deleted_at`

func scanURL(s scanner) (*domain.ShortURL, error) {
	var (
		u         domain.ShortURL
		userID    sql.NullString
		deletedAt sql.NullTime
	)
	err := s.Scan(&u.ID, &u.OriginalURL, &u.ShortCode, &userID, &u.ClickCount,
		&u.CreatedAt, &u.UpdatedAt, &deletedAt)
	if err != nil {
		return nil, err
	}

	if userID.Valid {
		u.UserID = &userID.String
	}
	if deletedAt.Valid {
		u.DeletedAt = &deletedAt.Time
	}
	return &u, nil
}

func (r *Repository) CreateURL(ctx context.Context, url *domain.ShortURL) error {
	query := `INSERT INTO short_urls (id, original_url, short_code, user_id, click_count, created_at, updated_at)
			  VALUES (?, ?, ?, ?, ?, ?, ?)`

	_, err := r.db.ExecContext(ctx, r.q(query),
		url.ID, url.OriginalURL, url.ShortCode, url.UserID, url.ClickCount, url.CreatedAt, url.UpdatedAt)
	if isUniqueViolation(err) {
		return domain.ErrShortCodeTaken
	}
	if err != nil {
		return fmt.Errorf("insert short url: %w", err)
	}
	return nil
}

func (r *Repository) GetURLByShortCode(ctx context.Context, code string) (*domain.ShortURL, error) {
	query := `SELECT ` + urlColumns + ` FROM short_urls WHERE short_code = ? AND deleted_at IS NULL`
	return r.getURL(ctx, query, code)
}

func (r *Repository) GetURLByID(ctx context.Context, id string) (*domain.ShortURL, error) {
	query := `SELECT ` + urlColumns + ` FROM short_urls WHERE id = ? AND deleted_at IS NULL`
	return r.getURL(ctx, query, id)
}

func (r *Repository) getURL(ctx context.Context, query string, arg any) (*domain.ShortURL, error) {
	url, err := scanURL(r.db.QueryRowContext(ctx, r.q(query), arg))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errURLNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get short url: %w", err)
	}
	return url, nil
}

func (r *Repository) ShortCodeExists(ctx context.Context, code string) (bool, error) {
	query := `SELECT COUNT(*) FROM short_urls WHERE short_code = ? AND deleted_at IS NULL`

	var count int64
	if err := r.db.QueryRowContext(ctx, r.q(query), code).Scan(&count); err != nil {
		return false, fmt.Errorf("check short code: %w", err)
	}
	return count > 0, nil
}

func (r *Repository) ListURLsByUser(ctx context.Context, userID string) ([]domain.ShortURL, error) {
	query := `SELECT ` + urlColumns + ` FROM short_urls
			  WHERE user_id = ? AND deleted_at IS NULL
			  ORDER BY created_at DESC`
	return r.listURLs(ctx, query, userID)
}

func (r *Repository) DumpURLs(ctx context.Context) ([]domain.ShortURL, error) {
	query := `SELECT ` + urlColumns + ` FROM short_urls ORDER BY created_at`
	return r.listURLs(ctx, query)
}

func (r *Repository) listURLs(ctx context.Context, query string, args ...any) ([]domain.ShortURL, error) {
	rows, err := r.db.QueryContext(ctx, r.q(query), args...)
	if err != nil {
		return nil, fmt.Errorf("query short urls: %w", err)
	}
	defer rows.Close()

	urls := []domain.ShortURL{}
	for rows.Next() {
		url, err := scanURL(rows)
		if err != nil {
			return nil, fmt.Errorf("scan short url: %w", err)
		}
		urls = append(urls, *url)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}
	return urls, nil
}

func (r *Repository) UpdateURL(ctx context.Context, url *domain.ShortURL) error {
	query := `UPDATE short_urls SET original_url = ?, updated_at = ? WHERE id = ? AND deleted_at IS NULL`

	res, err := r.db.ExecContext(ctx, r.q(query), url.OriginalURL, url.UpdatedAt, url.ID)
	if err != nil {
		return fmt.Errorf("update short url: %w", err)
	}
	return expectAffected(res, errURLNotFound)
}

func (r *Repository) SoftDeleteURL(ctx context.Context, id string, at time.Time) error {
	query := `UPDATE short_urls SET deleted_at = ?, updated_at = ? WHERE id = ? AND deleted_at IS NULL`

	res, err := r.db.ExecContext(ctx, r.q(query), at, at, id)
	if err != nil {
		return fmt.Errorf("delete short url: %w", err)
	}
	return expectAffected(res, errURLNotFound)
}

// ImportURL inserts a dumped row as is, keeping its id, counters and timestamps.
func (r *Repository) ImportURL(ctx context.Context, url *domain.ShortURL) error {
	query := `INSERT INTO short_urls (id, original_url, short_code, user_id, click_count, created_at, updated_at, deleted_at)
			  VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := r.db.ExecContext(ctx, r.q(query),
		url.ID, url.OriginalURL, url.ShortCode, url.UserID, url.ClickCount,
		url.CreatedAt, url.UpdatedAt, url.DeletedAt)
	if isUniqueViolation(err) {
		return domain.ErrShortCodeTaken
	}
	if err != nil {
		return fmt.Errorf("import short url: %w", err)
	}
	return nil
}

// RecordClick bumps the counter of an active URL and stores the click in
// one transaction. A deleted or unknown URL gets neither.
func (r *Repository) RecordClick(ctx context.Context, click *domain.Click) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		r.q(`UPDATE short_urls SET click_count = click_count + 1 WHERE id = ? AND deleted_at IS NULL`),
		click.URLID)
	if err != nil {
		return fmt.Errorf("increment click count: %w", err)
	}
	if err := expectAffected(res, errURLNotFound); err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx,
		r.q(`INSERT INTO clicks (id, url_id, ip_address, user_agent, created_at) VALUES (?, ?, ?, ?, ?)`),
		click.ID, click.URLID, click.IPAddress, click.UserAgent, click.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert click: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit click: %w", err)
	}
	return nil
}

func (r *Repository) GetClickStats(ctx context.Context, urlID string, days int) (*domain.ClickStats, error) {
	stats := &domain.ClickStats{
		URLID:       urlID,
		DailyClicks: []domain.DailyClick{},
	}

	err := r.db.QueryRowContext(ctx, r.q(`SELECT COUNT(*) FROM clicks WHERE url_id = ?`), urlID).
		Scan(&stats.TotalClicks)
	if err != nil {
		return nil, fmt.Errorf("count clicks: %w", err)
	}

	query := `SELECT ` + r.dialect.clickDay + ` AS day, COUNT(*)
			  FROM clicks
			  WHERE url_id = ?
			  GROUP BY day
			  ORDER BY day DESC
			  LIMIT ?`
	rows, err := r.db.QueryContext(ctx, r.q(query), urlID, days)
	if err != nil {
		return nil, fmt.Errorf("daily clicks: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var dc domain.DailyClick
		if err := rows.Scan(&dc.Date, &dc.Count); err != nil {
			return nil, fmt.Errorf("scan daily clicks: %w", err)
		}
		stats.DailyClicks = append(stats.DailyClicks, dc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return stats, nil
}

func (r *Repository) CreateUser(ctx context.Context, user *domain.User) error {
	query := `INSERT INTO users (id, email, password, created_at, updated_at, deleted_at) VALUES (?, ?, ?, ?, ?, ?)`

	_, err := r.db.ExecContext(ctx, r.q(query),
		user.ID, user.Email, user.PasswordHash, user.CreatedAt, user.UpdatedAt, user.DeletedAt)
	if isUniqueViolation(err) {
		return domain.ErrEmailTaken
	}
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (r *Repository) EmailExists(ctx context.Context, email string) (bool, error) {
	var count int64
	err := r.db.QueryRowContext(ctx, r.q(`SELECT COUNT(*) FROM users WHERE email = ?`), email).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("check email: %w", err)
	}
	return count > 0, nil
}

func (r *Repository) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	query := `SELECT id, email, password, created_at, updated_at, deleted_at
			  FROM users WHERE email = ? AND deleted_at IS NULL`
	return r.getUser(ctx, query, email)
}

func (r *Repository) GetUserByID(ctx context.Context, id string) (*domain.User, error) {
	query := `SELECT id, email, password, created_at, updated_at, deleted_at
			  FROM users WHERE id = ? AND deleted_at IS NULL`
	return r.getUser(ctx, query, id)
}

func (r *Repository) getUser(ctx context.Context, query string, arg any) (*domain.User, error) {
	var (
		u         domain.User
		deletedAt sql.NullTime
	)
	err := r.db.QueryRowContext(ctx, r.q(query), arg).
		Scan(&u.ID, &u.Email, &u.PasswordHash, &u.CreatedAt, &u.UpdatedAt, &deletedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}

	if deletedAt.Valid {
		u.DeletedAt = &deletedAt.Time
	}
	return &u, nil
}

func expectAffected(res sql.Result, notFound error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return notFound
	}
	return nil
}
