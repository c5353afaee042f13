package models

import (
	"fmt"
	"time"
)

// ===== Domain Models =====

// SiteRecord is a raw monitoring site row as handed over by the ingestion side
// (CSV column name -> cell value). Values are untyped; the codec coerces them.
type SiteRecord map[string]any

// Column names understood by the codec.
const (
	FieldID             = "id"
	FieldName           = "name"
	FieldLocation       = "location"
	FieldLatitude       = "latitude"
	FieldLongitude      = "longitude"
	FieldSafeLevel      = "safe_level"
	FieldWarningLevel   = "warning_level"
	FieldDangerLevel    = "danger_level"
	FieldGeofenceRadius = "geofence_radius"
	FieldQRCode         = "qr_code"
	FieldIsActive       = "is_active"

	// Descriptive columns, carried by the record but not placed in the payload.
	FieldRiverName    = "river_name"
	FieldState        = "state"
	FieldDistrict     = "district"
	FieldSiteType     = "site_type"
	FieldOrganization = "organization"
)

type Coordinates struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Levels are the water level thresholds of a site, in centimeters.
type Levels struct {
	Safe    float64 `json:"safe"`
	Warning float64 `json:"warning"`
	Danger  float64 `json:"danger"`
}

// Payload is the compact site descriptor that travels inside a token.
// Field names and order are the wire contract; do not reorder.
type Payload struct {
	SiteID         string      `json:"siteId"`
	Name           string      `json:"name"`
	Location       string      `json:"location"`
	Coordinates    Coordinates `json:"coordinates"`
	Levels         Levels      `json:"levels"`
	GeofenceRadius int         `json:"geofenceRadius"`
	QRCode         string      `json:"qrCode"`
	IsActive       bool        `json:"isActive"`
	GeneratedAt    string      `json:"generatedAt"`
	ExpiresAt      string      `json:"expiresAt"`
	ValidationHash string      `json:"validationHash"`
}

// GeneratedTime parses GeneratedAt.
func (p Payload) GeneratedTime() (time.Time, error) { return ParseTimestamp(p.GeneratedAt) }

// ExpiresTime parses ExpiresAt.
func (p Payload) ExpiresTime() (time.Time, error) { return ParseTimestamp(p.ExpiresAt) }

// ===== Timestamps =====

// TimestampLayout is the ISO-8601 form written into payloads.
const TimestampLayout = time.RFC3339Nano

// Zone-less ISO-8601 forms are accepted on read and taken as UTC.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
}

// FormatTimestamp renders t in UTC using TimestampLayout.
func FormatTimestamp(t time.Time) string { return t.UTC().Format(TimestampLayout) }

// ParseTimestamp accepts ISO-8601 timestamps with or without a zone offset.
func ParseTimestamp(s string) (time.Time, error) {
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid timestamp %q", s)
}
