package validator

import (
	"fmt"

	"siteqr/internal/models"
)

// State is a step of the validation state machine. A Result records the
// last state reached before it terminated.
type State int

const (
	StateReceived State = iota
	StateDecrypted
	StateActiveChecked
	StateHashChecked
	StateExpiryChecked
)

func (s State) String() string {
	switch s {
	case StateReceived:
		return "RECEIVED"
	case StateDecrypted:
		return "DECRYPTED"
	case StateActiveChecked:
		return "ACTIVE_CHECKED"
	case StateHashChecked:
		return "HASH_CHECKED"
	case StateExpiryChecked:
		return "EXPIRY_CHECKED"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Reason is the terminal outcome of a validation.
type Reason string

const (
	ReasonValid            Reason = "valid"
	ReasonDecryptionFailed Reason = "decryption failed"
	ReasonInactive         Reason = "site inactive"
	ReasonTampered         Reason = "tamper detected"
	ReasonExpired          Reason = "expired"
)

// Message is the user-facing text for a reason.
func (r Reason) Message() string {
	switch r {
	case ReasonValid:
		return "QR code is valid"
	case ReasonDecryptionFailed:
		return "Invalid QR code format or decryption failed"
	case ReasonInactive:
		return "This monitoring site is currently inactive"
	case ReasonTampered:
		return "QR code data has been tampered with"
	case ReasonExpired:
		return "QR code has expired"
	}
	return string(r)
}

// Result is the outcome of one Validate call. Payload is nil only when the
// token could not be decrypted.
type Result struct {
	OK      bool
	Payload *models.Payload
	Reason  Reason
	State   State

	err error
}

// Err returns the typed error behind a failed result (*crypto.DecryptError,
// *InactiveError, *TamperError or *ExpiredError), or nil when OK.
func (r Result) Err() error { return r.err }

// ===== Outcome errors =====

type InactiveError struct {
	SiteID string
}

func (e *InactiveError) Error() string {
	return fmt.Sprintf("site %q is inactive", e.SiteID)
}

type TamperError struct {
	SiteID   string
	Stored   string
	Computed string
}

func (e *TamperError) Error() string {
	return fmt.Sprintf("site %q: validation hash %q does not match computed %q", e.SiteID, e.Stored, e.Computed)
}

type ExpiredError struct {
	SiteID    string
	ExpiresAt string
	Err       error
}

func (e *ExpiredError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("site %q: unreadable expiry %q: %v", e.SiteID, e.ExpiresAt, e.Err)
	}
	return fmt.Sprintf("site %q: expired at %s", e.SiteID, e.ExpiresAt)
}

func (e *ExpiredError) Unwrap() error { return e.Err }
