// Package codec builds token payloads from raw site records and computes
// their validation hash.
package codec

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"
	"time"

	"siteqr/internal/models"
)

// DefaultValidity is how long a freshly encoded payload stays valid.
const DefaultValidity = 365 * 24 * time.Hour

// HashLength is the number of hex characters kept from the validation digest.
const HashLength = 16

// Codec turns SiteRecords into Payloads. The zero value is not usable; call New.
type Codec struct {
	now      func() time.Time
	validity time.Duration
}

type Option func(*Codec)

// WithClock overrides the time source used for generatedAt/expiresAt.
func WithClock(now func() time.Time) Option {
	return func(c *Codec) { c.now = now }
}

// WithValidity overrides DefaultValidity. Non-positive values are ignored.
func WithValidity(d time.Duration) Option {
	return func(c *Codec) {
		if d > 0 {
			c.validity = d
		}
	}
}

func New(opts ...Option) *Codec {
	c := &Codec{now: time.Now, validity: DefaultValidity}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

var defaultCodec = New()

// Encode encodes a record with the default codec (wall clock, 365 day validity).
func Encode(record models.SiteRecord) (models.Payload, error) {
	return defaultCodec.Encode(record)
}

// Encode selects and coerces the payload fields of record, stamps the
// generation and expiry times and computes the validation hash.
func (c *Codec) Encode(record models.SiteRecord) (models.Payload, error) {
	var (
		p   models.Payload
		err error
	)
	if p.SiteID, err = textField(record, models.FieldID); err != nil {
		return models.Payload{}, err
	}
	if p.Name, err = textField(record, models.FieldName); err != nil {
		return models.Payload{}, err
	}
	if p.Location, err = textField(record, models.FieldLocation); err != nil {
		return models.Payload{}, err
	}
	if p.Coordinates.Lat, err = floatField(record, models.FieldLatitude); err != nil {
		return models.Payload{}, err
	}
	if p.Coordinates.Lng, err = floatField(record, models.FieldLongitude); err != nil {
		return models.Payload{}, err
	}
	if p.Levels.Safe, err = floatField(record, models.FieldSafeLevel); err != nil {
		return models.Payload{}, err
	}
	if p.Levels.Warning, err = floatField(record, models.FieldWarningLevel); err != nil {
		return models.Payload{}, err
	}
	if p.Levels.Danger, err = floatField(record, models.FieldDangerLevel); err != nil {
		return models.Payload{}, err
	}
	if p.GeofenceRadius, err = intField(record, models.FieldGeofenceRadius); err != nil {
		return models.Payload{}, err
	}
	if p.QRCode, err = textField(record, models.FieldQRCode); err != nil {
		return models.Payload{}, err
	}
	if p.IsActive, err = boolField(record, models.FieldIsActive); err != nil {
		return models.Payload{}, err
	}

	now := c.now()
	p.GeneratedAt = models.FormatTimestamp(now)
	p.ExpiresAt = models.FormatTimestamp(now.Add(c.validity))
	p.ValidationHash = ValidationHash(p.SiteID, p.Name, p.Coordinates.Lat, p.Coordinates.Lng)
	return p, nil
}

// ValidationHash returns the first HashLength hex characters of
// SHA-256(siteId || name || lat || lng).
//
// Only identity and location are covered, so thresholds, radius, the active
// flag and timestamps can be reissued without changing the hash.
func ValidationHash(siteID, name string, lat, lng float64) string {
	var b strings.Builder
	b.WriteString(siteID)
	b.WriteString(name)
	b.WriteString(formatCoordinate(lat))
	b.WriteString(formatCoordinate(lng))
	sum := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(sum[:])[:HashLength]
}

// PayloadHash recomputes the validation hash of p from its own fields.
func PayloadHash(p models.Payload) string {
	return ValidationHash(p.SiteID, p.Name, p.Coordinates.Lat, p.Coordinates.Lng)
}

// formatCoordinate writes the shortest decimal that round-trips, keeping a
// trailing ".0" on integral values (10 -> "10.0").
func formatCoordinate(f float64) string {
	s := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}
