package codec

import (
	"encoding/json"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"siteqr/internal/models"
)

var fixedNow = time.Date(2025, 10, 19, 12, 0, 0, 0, time.UTC)

func exampleRecord() models.SiteRecord {
	return models.SiteRecord{
		"id":              "S1",
		"name":            "Alpha",
		"location":        "Upper Reach",
		"latitude":        10.0,
		"longitude":       20.0,
		"safe_level":      1,
		"warning_level":   2,
		"danger_level":    3,
		"geofence_radius": 100,
		"qr_code":         "Q1",
		"is_active":       true,
		"river_name":      "Ganga",
		"state":           "Bihar",
	}
}

func TestEncode_Example(t *testing.T) {
	c := New(WithClock(func() time.Time { return fixedNow }))

	p, err := c.Encode(exampleRecord())
	require.NoError(t, err)

	assert.Equal(t, "S1", p.SiteID)
	assert.Equal(t, "Alpha", p.Name)
	assert.Equal(t, "Upper Reach", p.Location)
	assert.Equal(t, models.Coordinates{Lat: 10, Lng: 20}, p.Coordinates)
	assert.Equal(t, models.Levels{Safe: 1, Warning: 2, Danger: 3}, p.Levels)
	assert.Equal(t, 100, p.GeofenceRadius)
	assert.Equal(t, "Q1", p.QRCode)
	assert.True(t, p.IsActive)
	assert.Len(t, p.ValidationHash, HashLength)
	assert.Equal(t, ValidationHash("S1", "Alpha", 10, 20), p.ValidationHash)

	generated, err := p.GeneratedTime()
	require.NoError(t, err)
	expires, err := p.ExpiresTime()
	require.NoError(t, err)
	assert.True(t, generated.Equal(fixedNow))
	assert.Equal(t, 365*24*time.Hour, expires.Sub(generated))
}

func TestEncode_WireFieldNames(t *testing.T) {
	p, err := New(WithClock(func() time.Time { return fixedNow })).Encode(exampleRecord())
	require.NoError(t, err)

	raw, err := json.Marshal(p)
	require.NoError(t, err)

	var m map[string]any
	require.NoError(t, json.Unmarshal(raw, &m))

	for _, key := range []string{"siteId", "name", "location", "coordinates", "levels", "geofenceRadius",
		"qrCode", "isActive", "generatedAt", "expiresAt", "validationHash"} {
		assert.Contains(t, m, key)
	}
	assert.Len(t, m, 11, "descriptive fields must not leak into the payload")
	assert.Contains(t, m["coordinates"], "lat")
	assert.Contains(t, m["levels"], "warning")
}

func TestEncode_StringCoercion(t *testing.T) {
	r := models.SiteRecord{
		"id":              "CWC-042",
		"name":            "Bridge",
		"location":        "Patna",
		"latitude":        " 25.61 ",
		"longitude":       "85.14",
		"safe_level":      "120.5",
		"warning_level":   "150",
		"danger_level":    "180",
		"geofence_radius": "150.0",
		"qr_code":         "QR-042",
		"is_active":       "False",
	}

	p, err := New().Encode(r)
	require.NoError(t, err)
	assert.Equal(t, 25.61, p.Coordinates.Lat)
	assert.Equal(t, 120.5, p.Levels.Safe)
	assert.Equal(t, 150, p.GeofenceRadius)
	assert.False(t, p.IsActive)
}

func TestEncode_NumericIDBecomesText(t *testing.T) {
	r := exampleRecord()
	r["id"] = 42
	r["geofence_radius"] = 150.7

	p, err := New().Encode(r)
	require.NoError(t, err)
	assert.Equal(t, "42", p.SiteID)
	assert.Equal(t, 150, p.GeofenceRadius)
}

func TestEncode_FieldMissing(t *testing.T) {
	for _, field := range []string{"id", "name", "location", "latitude", "longitude", "safe_level",
		"warning_level", "danger_level", "geofence_radius", "qr_code", "is_active"} {
		t.Run(field, func(t *testing.T) {
			r := exampleRecord()
			delete(r, field)

			_, err := New().Encode(r)
			var missing *FieldMissingError
			require.True(t, errors.As(err, &missing), "got %v", err)
			assert.Equal(t, field, missing.Field)
		})
	}
}

func TestEncode_NilCountsAsMissing(t *testing.T) {
	r := exampleRecord()
	r["name"] = nil

	_, err := New().Encode(r)
	var missing *FieldMissingError
	assert.True(t, errors.As(err, &missing))
}

func TestEncode_TypeConversion(t *testing.T) {
	tests := []struct {
		field string
		value any
	}{
		{"latitude", "north"},
		{"longitude", []int{1}},
		{"safe_level", math.NaN()},
		{"danger_level", math.Inf(1)},
		{"warning_level", "NaN"},
		{"geofence_radius", "wide"},
		{"geofence_radius", 1e12},
		{"is_active", "maybe"},
		{"is_active", struct{}{}},
		{"name", []string{"a"}},
	}

	for _, tt := range tests {
		t.Run(tt.field, func(t *testing.T) {
			r := exampleRecord()
			r[tt.field] = tt.value

			_, err := New().Encode(r)
			var conv *TypeConversionError
			require.True(t, errors.As(err, &conv), "got %v", err)
			assert.Equal(t, tt.field, conv.Field)
		})
	}
}

func TestValidationHash_Stable(t *testing.T) {
	a := ValidationHash("S1", "Alpha", 10, 20)
	b := ValidationHash("S1", "Alpha", 10, 20)
	assert.Equal(t, a, b)
	assert.Regexp(t, "^[0-9a-f]{16}$", a)
}

func TestValidationHash_SensitiveToEachInput(t *testing.T) {
	base := ValidationHash("S1", "Alpha", 10, 20)

	assert.NotEqual(t, base, ValidationHash("S2", "Alpha", 10, 20))
	assert.NotEqual(t, base, ValidationHash("S1", "Beta", 10, 20))
	assert.NotEqual(t, base, ValidationHash("S1", "Alpha", 10.0001, 20))
	assert.NotEqual(t, base, ValidationHash("S1", "Alpha", 10, 20.0001))
}

func TestValidationHash_IgnoresNonIdentityFields(t *testing.T) {
	c := New(WithClock(func() time.Time { return fixedNow }))
	a, err := c.Encode(exampleRecord())
	require.NoError(t, err)

	r := exampleRecord()
	r["danger_level"] = 99
	r["is_active"] = false
	r["geofence_radius"] = 5
	b, err := New(WithClock(func() time.Time { return fixedNow.Add(time.Hour) })).Encode(r)
	require.NoError(t, err)

	assert.Equal(t, a.ValidationHash, b.ValidationHash)
}

func TestFormatCoordinate(t *testing.T) {
	assert.Equal(t, "10.0", formatCoordinate(10))
	assert.Equal(t, "-0.5", formatCoordinate(-0.5))
	assert.Equal(t, "25.6123", formatCoordinate(25.6123))
}

func TestWithValidity(t *testing.T) {
	p, err := New(WithClock(func() time.Time { return fixedNow }), WithValidity(time.Hour)).Encode(exampleRecord())
	require.NoError(t, err)

	expires, err := p.ExpiresTime()
	require.NoError(t, err)
	assert.True(t, expires.Equal(fixedNow.Add(time.Hour)))
}
