// Package mobile is the gomobile-facing surface for scanning apps. Exported
// signatures use only strings, float64s, bools and errors so they bind cleanly.
package mobile

import (
	"encoding/json"
	"time"

	"siteqr/internal/crypto"
	"siteqr/internal/geofence"
	"siteqr/internal/validator"
)

// ScanResult is the JSON returned to the app for every scan.
type ScanResult struct {
	OK      bool                    `json:"ok"`
	Reason  string                  `json:"reason"`
	Message string                  `json:"message"`
	Site    *validator.SiteResponse `json:"site,omitempty"`
}

// ProximityResult is the JSON returned by CheckProximity.
type ProximityResult struct {
	ScanResult
	Within         bool    `json:"within"`
	DistanceMeters float64 `json:"distanceMeters"`
	RadiusMeters   int     `json:"radiusMeters"`
}

// Scanner validates tokens on the device with the shared secret.
type Scanner struct {
	v   *validator.Validator
	now func() time.Time
}

func NewScanner(secret string) (*Scanner, error) {
	engine, err := crypto.NewEngine(secret)
	if err != nil {
		return nil, err
	}
	return newScanner(engine, time.Now), nil
}

func newScanner(dec validator.Decrypter, now func() time.Time) *Scanner {
	return &Scanner{v: validator.New(dec, validator.WithClock(now)), now: now}
}

// Validate returns a ScanResult as JSON. Rejections are results, not errors.
func (s *Scanner) Validate(token string) string {
	res, _ := s.scan(token)
	return mustJSON(res)
}

// CheckProximity validates token and, when valid, reports whether (lat, lng)
// lies inside the site's geofence. Out-of-range coordinates are an error.
func (s *Scanner) CheckProximity(token string, lat, lng float64) (string, error) {
	if !geofence.ValidCoordinates(lat, lng) {
		return "", geofence.ErrInvalidCoordinates
	}
	res, vr := s.scan(token)
	out := ProximityResult{ScanResult: res}
	if vr.OK {
		prox, err := geofence.Check(*vr.Payload, lat, lng)
		if err != nil {
			return "", err
		}
		out.Within = prox.Within
		out.DistanceMeters = prox.DistanceMeters
		out.RadiusMeters = prox.RadiusMeters
	}
	return mustJSON(out), nil
}

func (s *Scanner) scan(token string) (ScanResult, validator.Result) {
	vr := s.v.Validate(token)
	res := ScanResult{OK: vr.OK, Reason: string(vr.Reason), Message: vr.Reason.Message()}
	if vr.OK {
		site := validator.NewSiteResponse(*vr.Payload, s.now())
		res.Site = &site
	}
	return res, vr
}

// The result types hold only strings, numbers and bools.
func mustJSON(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return string(b)
}
