package models

import "time"

// IssuedToken is one ledger entry: a token handed to the renderer for a site.
type IssuedToken struct {
	ID          string    `json:"id"`
	RunID       string    `json:"run_id"`
	SiteID      string    `json:"site_id"`
	QRCode      string    `json:"qr_code"`
	Token       string    `json:"token"`
	KeyID       string    `json:"key_id"`
	GeneratedAt string    `json:"generated_at"`
	ExpiresAt   string    `json:"expires_at"`
	CreatedAt   time.Time `json:"created_at"`
}
