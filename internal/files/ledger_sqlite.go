package files

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"siteqr/internal/models"

	_ "modernc.org/sqlite"
)

// SQLiteLedger stores issued tokens in a single SQLite table.
type SQLiteLedger struct {
	db *sql.DB
}

// OpenSQLiteLedger opens (or creates) the database at path and ensures the schema.
func OpenSQLiteLedger(ctx context.Context, path string) (*SQLiteLedger, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)", path))
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(0)
	db.SetConnMaxIdleTime(5 * time.Minute)

	l := &SQLiteLedger{db: db}
	if err := l.initSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return l, nil
}

func (l *SQLiteLedger) initSchema(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS issued_tokens (
			id TEXT PRIMARY KEY,
			run_id TEXT NOT NULL,
			site_id TEXT NOT NULL,
			qr_code TEXT NOT NULL,
			token TEXT NOT NULL UNIQUE,
			key_id TEXT NOT NULL,
			generated_at TEXT NOT NULL,
			expires_at TEXT NOT NULL,
			created_at TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_issued_tokens_site ON issued_tokens(site_id);`,
	}
	for _, stmt := range stmts {
		if _, err := l.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("init schema: %w", err)
		}
	}
	return nil
}

func (l *SQLiteLedger) Save(ctx context.Context, t *models.IssuedToken) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	t.CreatedAt = time.Now().UTC()

	_, err := l.db.ExecContext(
		ctx,
		`INSERT INTO issued_tokens (id, run_id, site_id, qr_code, token, key_id, generated_at, expires_at, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?);`,
		t.ID,
		t.RunID,
		t.SiteID,
		t.QRCode,
		t.Token,
		t.KeyID,
		t.GeneratedAt,
		t.ExpiresAt,
		t.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed: issued_tokens.token") {
			return ErrDuplicateToken
		}
		return fmt.Errorf("insert issued token: %w", err)
	}
	return nil
}

func (l *SQLiteLedger) List(ctx context.Context) ([]models.IssuedToken, error) {
	return l.query(ctx, "")
}

func (l *SQLiteLedger) BySite(ctx context.Context, siteID string) ([]models.IssuedToken, error) {
	return l.query(ctx, " WHERE site_id = ?", siteID)
}

func (l *SQLiteLedger) query(ctx context.Context, where string, args ...any) ([]models.IssuedToken, error) {
	rows, err := l.db.QueryContext(ctx,
		`SELECT id, run_id, site_id, qr_code, token, key_id, generated_at, expires_at, created_at
		 FROM issued_tokens`+where+` ORDER BY rowid;`, args...)
	if err != nil {
		return nil, fmt.Errorf("query issued tokens: %w", err)
	}
	defer rows.Close()

	var out []models.IssuedToken
	for rows.Next() {
		var (
			t         models.IssuedToken
			createdAt string
		)
		if err := rows.Scan(&t.ID, &t.RunID, &t.SiteID, &t.QRCode, &t.Token, &t.KeyID, &t.GeneratedAt, &t.ExpiresAt, &createdAt); err != nil {
			return nil, fmt.Errorf("scan issued token: %w", err)
		}
		if t.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
			return nil, fmt.Errorf("parse created_at %q: %w", createdAt, err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (l *SQLiteLedger) Close() error {
	if l.db == nil {
		return nil
	}
	return l.db.Close()
}
