package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"os"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/markdave123-py/Penpal/internal/config"
	"github.com/markdave123-py/Penpal/internal/core"
	"github.com/markdave123-py/Penpal/internal/models"
)

var _ core.DbClient = (*DatabaseClient)(nil)

type DatabaseClient struct {
	db *sql.DB
}

// NewDatabaseClient opens the Postgres pool, pings it and makes sure the
// schema exists. SSL_CERT_PATH is optional; when set the connection verifies
// the server against it.
func NewDatabaseClient(ctx context.Context, cfg *config.Config) (core.DbClient, error) {
	if cfg == nil {
		return nil, fmt.Errorf("database client configuration is nil")
	}
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is empty")
	}

	dsn, err := buildDSN(cfg.DatabaseURL, cfg.SslCertPath)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)
	db.SetConnMaxIdleTime(10 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}

	if err := EnsureBootstrapped(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("bootstrap: %w", err)
	}

	return &DatabaseClient{db: db}, nil
}

func buildDSN(databaseURL, certPath string) (string, error) {
	if certPath == "" {
		return databaseURL, nil
	}
	if _, err := os.Stat(certPath); err != nil {
		return "", fmt.Errorf("ssl cert not accessible at %q: %w", certPath, err)
	}
	u, err := url.Parse(databaseURL)
	if err != nil {
		return "", fmt.Errorf("invalid DATABASE_URL: %w", err)
	}
	q := u.Query()
	q.Set("sslmode", "verify-ca")
	q.Set("sslrootcert", certPath)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func (c *DatabaseClient) Close() error {
	if c.db != nil {
		return c.db.Close()
	}
	return nil
}

// Users

func (c *DatabaseClient) CreateUser(ctx context.Context, user *models.User) error {
	if user == nil {
		return errors.New("nil user")
	}
	const q = `
		INSERT INTO users (id, first_name, email, password_hash, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := c.db.ExecContext(ctx, q,
		user.ID, user.FirstName, user.Email, user.PasswordHash, orNow(user.CreatedAt), orNow(user.UpdatedAt))
	return err
}

func (c *DatabaseClient) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	const q = `
		SELECT id, first_name, email, password_hash, created_at, updated_at
		FROM users WHERE email = $1
	`
	var u models.User
	err := c.db.QueryRowContext(ctx, q, email).Scan(
		&u.ID, &u.FirstName, &u.Email, &u.PasswordHash, &u.CreatedAt, &u.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// Journal entries

const entryColumns = `user_id, date_key, text, ai_reply, submitted, created_at, updated_at`

func (c *DatabaseClient) GetEntry(ctx context.Context, userID, dateKey string) (*models.JournalEntry, error) {
	q := `SELECT ` + entryColumns + ` FROM journal_entries WHERE user_id = $1 AND date_key = $2`
	var e models.JournalEntry
	err := c.db.QueryRowContext(ctx, q, userID, dateKey).Scan(
		&e.UserID, &e.DateKey, &e.Text, &e.AIReply, &e.Submitted, &e.CreatedAt, &e.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// UpsertEntry writes the entry keyed by (user_id, date_key). created_at is
// kept from the first write.
func (c *DatabaseClient) UpsertEntry(ctx context.Context, e *models.JournalEntry) error {
	if e == nil {
		return errors.New("nil entry")
	}
	const q = `
		INSERT INTO journal_entries (user_id, date_key, text, ai_reply, submitted, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (user_id, date_key) DO UPDATE SET
			text       = EXCLUDED.text,
			ai_reply   = EXCLUDED.ai_reply,
			submitted  = EXCLUDED.submitted,
			updated_at = EXCLUDED.updated_at
	`
	_, err := c.db.ExecContext(ctx, q,
		e.UserID, e.DateKey, e.Text, e.AIReply, e.Submitted, orNow(e.CreatedAt), orNow(e.UpdatedAt))
	return err
}

func (c *DatabaseClient) DeleteEntry(ctx context.Context, userID, dateKey string) error {
	const q = `DELETE FROM journal_entries WHERE user_id = $1 AND date_key = $2`
	_, err := c.db.ExecContext(ctx, q, userID, dateKey)
	return err
}

func (c *DatabaseClient) ListEntries(ctx context.Context, userID string) ([]models.JournalEntry, error) {
	q := `SELECT ` + entryColumns + ` FROM journal_entries WHERE user_id = $1 ORDER BY date_key ASC`
	rows, err := c.db.QueryContext(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.JournalEntry
	for rows.Next() {
		var e models.JournalEntry
		if err := rows.Scan(
			&e.UserID, &e.DateKey, &e.Text, &e.AIReply, &e.Submitted, &e.CreatedAt, &e.UpdatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// Saved phrases

func (c *DatabaseClient) GetPhrase(ctx context.Context, userID, phrase string) (*models.SavedPhrase, error) {
	const q = `
		SELECT id, user_id, phrase, translation, created_at
		FROM saved_phrases
		WHERE user_id = $1 AND phrase = $2
		ORDER BY created_at ASC
		LIMIT 1
	`
	var p models.SavedPhrase
	err := c.db.QueryRowContext(ctx, q, userID, phrase).Scan(
		&p.ID, &p.UserID, &p.Phrase, &p.Translation, &p.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *DatabaseClient) CreatePhrase(ctx context.Context, p *models.SavedPhrase) error {
	if p == nil {
		return errors.New("nil phrase")
	}
	const q = `
		INSERT INTO saved_phrases (id, user_id, phrase, translation, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := c.db.ExecContext(ctx, q, p.ID, p.UserID, p.Phrase, p.Translation, orNow(p.CreatedAt))
	return err
}

// DeletePhrase removes the phrase only when it belongs to userID and reports
// whether a row was deleted.
func (c *DatabaseClient) DeletePhrase(ctx context.Context, userID, id string) (bool, error) {
	const q = `DELETE FROM saved_phrases WHERE id = $1 AND user_id = $2`
	res, err := c.db.ExecContext(ctx, q, id, userID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (c *DatabaseClient) ListPhrases(ctx context.Context, userID string) ([]models.SavedPhrase, error) {
	const q = `
		SELECT id, user_id, phrase, translation, created_at
		FROM saved_phrases
		WHERE user_id = $1
		ORDER BY created_at DESC
	`
	rows, err := c.db.QueryContext(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.SavedPhrase
	for rows.Next() {
		var p models.SavedPhrase
		if err := rows.Scan(&p.ID, &p.UserID, &p.Phrase, &p.Translation, &p.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (c *DatabaseClient) CountPhrases(ctx context.Context, userID string) (int, error) {
	const q = `SELECT COUNT(*) FROM saved_phrases WHERE user_id = $1`
	var n int
	if err := c.db.QueryRowContext(ctx, q, userID).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

func orNow(t time.Time) time.Time {
	if t.IsZero() {
		return time.Now().UTC()
	}
	return t
}
