package validator

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"siteqr/internal/codec"
	"siteqr/internal/crypto"
	"siteqr/internal/models"
)

var issuedAt = time.Date(2025, 10, 19, 12, 0, 0, 0, time.UTC)

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
	}
}

type fixture struct {
	engine *crypto.Engine
	codec  *codec.Codec
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	e, err := crypto.NewEngine("validator-test-secret")
	require.NoError(t, err)
	return fixture{engine: e, codec: codec.New(codec.WithClock(func() time.Time { return issuedAt }))}
}

func (f fixture) payload(t *testing.T, r models.SiteRecord) models.Payload {
	t.Helper()
	p, err := f.codec.Encode(r)
	require.NoError(t, err)
	return p
}

func (f fixture) token(t *testing.T, p models.Payload) string {
	t.Helper()
	tok, err := f.engine.Encrypt(p)
	require.NoError(t, err)
	return tok
}

func (f fixture) validatorAt(at time.Time, opts ...Option) *Validator {
	return New(f.engine, append([]Option{WithClock(func() time.Time { return at })}, opts...)...)
}

func TestValidate_EndToEndExample(t *testing.T) {
	f := newFixture(t)
	token := f.token(t, f.payload(t, exampleRecord()))

	res := f.validatorAt(issuedAt.Add(200 * 24 * time.Hour)).Validate(token)

	require.True(t, res.OK, "reason=%s err=%v", res.Reason, res.Err())
	assert.Equal(t, ReasonValid, res.Reason)
	assert.Equal(t, StateExpiryChecked, res.State)
	assert.NoError(t, res.Err())
	require.NotNil(t, res.Payload)
	assert.Equal(t, "S1", res.Payload.SiteID)
	assert.Equal(t, models.Coordinates{Lat: 10, Lng: 20}, res.Payload.Coordinates)
}

func TestValidate_RoundTripPreservesFields(t *testing.T) {
	f := newFixture(t)
	r := exampleRecord()
	r["location"] = "Ghat No. 3, Patna"
	r["latitude"] = 25.6123
	r["longitude"] = 85.1411
	r["safe_level"] = 120.5
	p := f.payload(t, r)

	res := f.validatorAt(issuedAt).Validate(f.token(t, p))

	require.True(t, res.OK)
	assert.Equal(t, p, *res.Payload)
}

func TestValidate_DecryptionFailed(t *testing.T) {
	f := newFixture(t)
	other, err := crypto.NewEngine("someone else")
	require.NoError(t, err)
	foreign, err := other.Encrypt(f.payload(t, exampleRecord()))
	require.NoError(t, err)
	notJSON, err := f.engine.Seal([]byte("<xml/>"))
	require.NoError(t, err)

	for name, token := range map[string]string{
		"garbage":   "definitely not a token",
		"empty":     "",
		"wrong key": foreign,
		"not json":  notJSON,
	} {
		t.Run(name, func(t *testing.T) {
			res := f.validatorAt(issuedAt).Validate(token)
			assert.False(t, res.OK)
			assert.Equal(t, ReasonDecryptionFailed, res.Reason)
			assert.Equal(t, StateReceived, res.State)
			assert.Nil(t, res.Payload)

			var de *crypto.DecryptError
			assert.True(t, errors.As(res.Err(), &de))
		})
	}
}

func TestValidate_InactiveShortCircuits(t *testing.T) {
	f := newFixture(t)
	r := exampleRecord()
	r["is_active"] = false
	p := f.payload(t, r)
	p.ValidationHash = "ffffffffffffffff"
	p.ExpiresAt = "2000-01-01T00:00:00Z"

	res := f.validatorAt(issuedAt).Validate(f.token(t, p))

	assert.False(t, res.OK)
	assert.Equal(t, ReasonInactive, res.Reason)
	assert.Equal(t, StateDecrypted, res.State)
	require.NotNil(t, res.Payload)
	var ie *InactiveError
	require.True(t, errors.As(res.Err(), &ie))
	assert.Equal(t, "S1", ie.SiteID)
}

func TestValidate_TamperDetected(t *testing.T) {
	f := newFixture(t)

	tests := map[string]func(p *models.Payload){
		"site id": func(p *models.Payload) { p.SiteID = "S2" },
		"name":    func(p *models.Payload) { p.Name = "Beta" },
		"lat":     func(p *models.Payload) { p.Coordinates.Lat = 10.5 },
		"lng":     func(p *models.Payload) { p.Coordinates.Lng = 19.9 },
		"hash":    func(p *models.Payload) { p.ValidationHash = "0000000000000000" },
	}

	for name, mutate := range tests {
		t.Run(name, func(t *testing.T) {
			p := f.payload(t, exampleRecord())
			mutate(&p)

			res := f.validatorAt(issuedAt).Validate(f.token(t, p))
			assert.False(t, res.OK)
			assert.Equal(t, ReasonTampered, res.Reason)
			assert.Equal(t, StateActiveChecked, res.State)
			var te *TamperError
			assert.True(t, errors.As(res.Err(), &te))
		})
	}
}

func TestValidate_TamperReportedBeforeExpiry(t *testing.T) {
	f := newFixture(t)
	p := f.payload(t, exampleRecord())
	p.Name = "Beta"

	res := f.validatorAt(issuedAt.Add(2 * 365 * 24 * time.Hour)).Validate(f.token(t, p))
	assert.Equal(t, ReasonTampered, res.Reason)
}

func TestValidate_ThresholdChangesKeepHash(t *testing.T) {
	f := newFixture(t)
	p := f.payload(t, exampleRecord())
	p.Levels.Danger = 42
	p.GeofenceRadius = 10

	res := f.validatorAt(issuedAt).Validate(f.token(t, p))
	assert.True(t, res.OK)
}

func TestValidate_Expired(t *testing.T) {
	f := newFixture(t)
	token := f.token(t, f.payload(t, exampleRecord()))
	expiresAt := issuedAt.Add(codec.DefaultValidity)

	tests := []struct {
		name string
		at   time.Time
		ok   bool
	}{
		{"just before expiry", expiresAt.Add(-time.Second), true},
		{"at expiry", expiresAt, false},
		{"a day after", expiresAt.Add(24 * time.Hour), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := f.validatorAt(tt.at).Validate(token)
			assert.Equal(t, tt.ok, res.OK)
			if !tt.ok {
				assert.Equal(t, ReasonExpired, res.Reason)
				assert.Equal(t, StateHashChecked, res.State)
				var ee *ExpiredError
				assert.True(t, errors.As(res.Err(), &ee))
			}
		})
	}
}

func TestValidate_UnreadableExpiryIsExpired(t *testing.T) {
	f := newFixture(t)
	p := f.payload(t, exampleRecord())
	p.ExpiresAt = "next year"

	res := f.validatorAt(issuedAt).Validate(f.token(t, p))
	assert.Equal(t, ReasonExpired, res.Reason)
	var ee *ExpiredError
	require.True(t, errors.As(res.Err(), &ee))
	assert.Error(t, ee.Err)
}

func TestValidate_NaiveTimestampAccepted(t *testing.T) {
	f := newFixture(t)
	p := f.payload(t, exampleRecord())
	p.ExpiresAt = "2026-10-19T12:00:00.123456"

	res := f.validatorAt(issuedAt).Validate(f.token(t, p))
	assert.True(t, res.OK)
}

func TestValidate_SingleCharacterFlipNeverValid(t *testing.T) {
	f := newFixture(t)
	token := f.token(t, f.payload(t, exampleRecord()))
	v := f.validatorAt(issuedAt)

	const alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789-_"
	for i := range token {
		for _, shift := range []int{1, 32} {
			repl := alphabet[(strings.IndexByte(alphabet, token[i])+shift)%len(alphabet)]
			flipped := token[:i] + string(repl) + token[i+1:]

			res := v.Validate(flipped)
			require.False(t, res.OK, "flip at %d accepted", i)
			assert.Contains(t, []Reason{ReasonDecryptionFailed, ReasonTampered}, res.Reason)
		}
	}
}

func TestValidate_Repeatable(t *testing.T) {
	f := newFixture(t)
	token := f.token(t, f.payload(t, exampleRecord()))
	v := f.validatorAt(issuedAt)

	for i := 0; i < 3; i++ {
		assert.True(t, v.Validate(token).OK)
	}
}

type recordingCollector struct {
	mu      sync.Mutex
	reasons []string
}

func (c *recordingCollector) ValidationCompleted(reason string, _ time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.reasons = append(c.reasons, reason)
}
func (c *recordingCollector) TokenIssued()                {}
func (c *recordingCollector) GenerationFailed(string)     {}
func (c *recordingCollector) GeofenceChecked(within bool) {}

func TestValidate_ReportsMetrics(t *testing.T) {
	f := newFixture(t)
	rc := &recordingCollector{}
	v := f.validatorAt(issuedAt, WithMetrics(rc))

	v.Validate(f.token(t, f.payload(t, exampleRecord())))
	v.Validate("junk")

	assert.Equal(t, []string{"valid", "decryption failed"}, rc.reasons)
}

func TestValidateAll(t *testing.T) {
	f := newFixture(t)
	inactive := exampleRecord()
	inactive["is_active"] = false

	tokens := []string{
		f.token(t, f.payload(t, exampleRecord())),
		"junk",
		f.token(t, f.payload(t, inactive)),
		f.token(t, f.payload(t, exampleRecord())),
	}

	results, err := f.validatorAt(issuedAt).ValidateAll(context.Background(), tokens, 2)
	require.NoError(t, err)
	require.Len(t, results, 4)

	assert.Equal(t, ReasonValid, results[0].Reason)
	assert.Equal(t, ReasonDecryptionFailed, results[1].Reason)
	assert.Equal(t, ReasonInactive, results[2].Reason)
	assert.Equal(t, ReasonValid, results[3].Reason)
}

func TestValidateAll_Cancelled(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.validatorAt(issuedAt).ValidateAll(ctx, []string{"a", "b"}, 1)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestReasonMessages(t *testing.T) {
	assert.Equal(t, "QR code is valid", ReasonValid.Message())
	assert.Equal(t, "QR code has expired", ReasonExpired.Message())
	assert.Equal(t, "This monitoring site is currently inactive", ReasonInactive.Message())
	assert.Equal(t, "QR code data has been tampered with", ReasonTampered.Message())
	assert.Equal(t, "Invalid QR code format or decryption failed", ReasonDecryptionFailed.Message())
	assert.Equal(t, "HASH_CHECKED", StateHashChecked.String())
}

func TestNewSiteResponse(t *testing.T) {
	f := newFixture(t)
	p := f.payload(t, exampleRecord())
	at := issuedAt.Add(time.Hour)

	resp := NewSiteResponse(p, at)

	assert.True(t, resp.Success)
	assert.Equal(t, "S1", resp.SiteInfo.ID)
	assert.Equal(t, p.Coordinates, resp.Geofence.Center)
	assert.Equal(t, 100, resp.Geofence.Radius)
	assert.Equal(t, p.Levels, resp.Levels)
	assert.Equal(t, "Q1", resp.Validation.QRCode)
	assert.Equal(t, p.GeneratedAt, resp.Validation.GeneratedAt)
	assert.Equal(t, models.FormatTimestamp(at), resp.Validation.ValidatedAt)
}
