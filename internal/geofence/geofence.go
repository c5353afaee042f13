// Package geofence answers whether a user stands inside a site's circular
// proximity zone.
package geofence

import (
	"errors"
	"math"

	"siteqr/internal/models"
)

// EarthRadiusMeters is the mean Earth radius used by Distance.
const EarthRadiusMeters = 6371000.0

var ErrInvalidCoordinates = errors.New("coordinates out of range")

// Proximity is the verdict for one user position against one site.
type Proximity struct {
	Within         bool    `json:"within"`
	DistanceMeters float64 `json:"distanceMeters"`
	RadiusMeters   int     `json:"radiusMeters"`
}

// Distance returns the great-circle (haversine) distance in meters between
// the user position and the site position, both in decimal degrees.
func Distance(userLat, userLng, siteLat, siteLng float64) float64 {
	lat1 := toRadians(userLat)
	lat2 := toRadians(siteLat)
	dLat := lat2 - lat1
	dLng := toRadians(siteLng) - toRadians(userLng)

	a := math.Pow(math.Sin(dLat/2), 2) + math.Cos(lat1)*math.Cos(lat2)*math.Pow(math.Sin(dLng/2), 2)
	// Rounding can push a past 1 for antipodal points.
	a = math.Min(1, math.Max(0, a))
	return 2 * math.Asin(math.Sqrt(a)) * EarthRadiusMeters
}

// WithinGeofence reports whether distance lies inside radius; the boundary counts as inside.
func WithinGeofence(distance float64, radius int) bool {
	return distance <= float64(radius)
}

// Check measures the user position against the payload's coordinates and radius.
func Check(p models.Payload, userLat, userLng float64) (Proximity, error) {
	if !ValidCoordinates(userLat, userLng) {
		return Proximity{}, ErrInvalidCoordinates
	}
	d := Distance(userLat, userLng, p.Coordinates.Lat, p.Coordinates.Lng)
	return Proximity{
		Within:         WithinGeofence(d, p.GeofenceRadius),
		DistanceMeters: d,
		RadiusMeters:   p.GeofenceRadius,
	}, nil
}

// ValidCoordinates reports whether lat/lng are finite and within [-90,90] / [-180,180].
func ValidCoordinates(lat, lng float64) bool {
	if math.IsNaN(lat) || math.IsNaN(lng) {
		return false
	}
	return lat >= -90 && lat <= 90 && lng >= -180 && lng <= 180
}

func toRadians(deg float64) float64 { return deg * math.Pi / 180 }
