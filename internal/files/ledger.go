// Package files persists what siteqr hands out: the issuance ledger and the
// shared secret file.
package files

import (
	"context"
	"errors"
	"fmt"

	"siteqr/internal/models"
)

var ErrDuplicateToken = errors.New("token already recorded")

// Ledger records issued tokens. It is an audit trail only and is never read
// during validation.
type Ledger interface {
	// Save assigns ID (when empty) and CreatedAt, then stores t.
	Save(ctx context.Context, t *models.IssuedToken) error
	List(ctx context.Context) ([]models.IssuedToken, error)
	BySite(ctx context.Context, siteID string) ([]models.IssuedToken, error)
	Close() error
}

// OpenLedger opens the ledger backend named by driver ("json" or "sqlite").
func OpenLedger(ctx context.Context, driver, path string) (Ledger, error) {
	switch driver {
	case "json", "":
		return NewJSONLedger(path)
	case "sqlite":
		return OpenSQLiteLedger(ctx, path)
	}
	return nil, fmt.Errorf("unknown ledger driver %q", driver)
}
