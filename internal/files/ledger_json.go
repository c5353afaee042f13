package files

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"siteqr/internal/models"
)

// JSONLedger keeps the whole ledger in one indented JSON array and rewrites
// the file on every Save.
type JSONLedger struct {
	filePath string
	mu       sync.RWMutex
}

// NewJSONLedger opens the ledger at filePath, creating its directory. A missing
// file is an empty ledger; an unreadable one is an error.
func NewJSONLedger(filePath string) (*JSONLedger, error) {
	if err := os.MkdirAll(filepath.Dir(filePath), 0o755); err != nil {
		return nil, fmt.Errorf("create ledger directory: %w", err)
	}
	l := &JSONLedger{filePath: filePath}
	if _, err := l.load(); err != nil {
		return nil, err
	}
	return l, nil
}

func (l *JSONLedger) Save(ctx context.Context, t *models.IssuedToken) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	tokens, err := l.load()
	if err != nil {
		return err
	}
	for _, v := range tokens {
		if v.Token == t.Token {
			return ErrDuplicateToken
		}
	}

	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	t.CreatedAt = time.Now().UTC()
	tokens = append(tokens, *t)

	data, err := json.MarshalIndent(tokens, "", "  ")
	if err != nil {
		return err
	}
	tmp := l.filePath + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("write ledger: %w", err)
	}
	return os.Rename(tmp, l.filePath)
}

func (l *JSONLedger) List(ctx context.Context) ([]models.IssuedToken, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.load()
}

func (l *JSONLedger) BySite(ctx context.Context, siteID string) ([]models.IssuedToken, error) {
	all, err := l.List(ctx)
	if err != nil {
		return nil, err
	}
	var out []models.IssuedToken
	for _, t := range all {
		if t.SiteID == siteID {
			out = append(out, t)
		}
	}
	return out, nil
}

func (l *JSONLedger) Close() error { return nil }

// load reads the file; callers hold the lock.
func (l *JSONLedger) load() ([]models.IssuedToken, error) {
	data, err := os.ReadFile(l.filePath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read ledger: %w", err)
	}
	if len(data) == 0 {
		return nil, nil
	}
	var tokens []models.IssuedToken
	if err := json.Unmarshal(data, &tokens); err != nil {
		return nil, fmt.Errorf("decode ledger %s: %w", l.filePath, err)
	}
	return tokens, nil
}
