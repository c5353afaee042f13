package validator

import (
	"time"

	"siteqr/internal/models"
)

// SiteResponse is what a scanning app receives after a successful validation.
type SiteResponse struct {
	Success    bool           `json:"success"`
	Message    string         `json:"message"`
	SiteInfo   SiteInfo       `json:"siteInfo"`
	Levels     models.Levels  `json:"levels"`
	Geofence   GeofenceInfo   `json:"geofence"`
	Validation ValidationInfo `json:"validation"`
}

type SiteInfo struct {
	ID          string             `json:"id"`
	Name        string             `json:"name"`
	Location    string             `json:"location"`
	Coordinates models.Coordinates `json:"coordinates"`
}

type GeofenceInfo struct {
	Radius int                `json:"radius"`
	Center models.Coordinates `json:"center"`
}

type ValidationInfo struct {
	QRCode      string `json:"qrCode"`
	ValidatedAt string `json:"validatedAt"`
	GeneratedAt string `json:"generatedAt"`
}

// NewSiteResponse builds the app-facing view of a validated payload.
func NewSiteResponse(p models.Payload, now time.Time) SiteResponse {
	return SiteResponse{
		Success: true,
		Message: "Site validated successfully",
		SiteInfo: SiteInfo{
			ID:          p.SiteID,
			Name:        p.Name,
			Location:    p.Location,
			Coordinates: p.Coordinates,
		},
		Levels: p.Levels,
		Geofence: GeofenceInfo{
			Radius: p.GeofenceRadius,
			Center: p.Coordinates,
		},
		Validation: ValidationInfo{
			QRCode:      p.QRCode,
			ValidatedAt: models.FormatTimestamp(now),
			GeneratedAt: p.GeneratedAt,
		},
	}
}
