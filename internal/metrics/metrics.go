package metrics

import "time"

// Collector receives operational events from the validator, generator and API.
type Collector interface {
	// ValidationCompleted records one token validation and its terminal reason.
	ValidationCompleted(reason string, duration time.Duration)

	// TokenIssued records a successfully generated token.
	TokenIssued()

	// GenerationFailed records a record that could not be turned into a token.
	// kind is a short error class such as "field_missing".
	GenerationFailed(kind string)

	// GeofenceChecked records one proximity verdict.
	GeofenceChecked(within bool)
}

type noopCollector struct{}

func (noopCollector) ValidationCompleted(reason string, duration time.Duration) {}
func (noopCollector) TokenIssued()                                              {}
func (noopCollector) GenerationFailed(kind string)                              {}
func (noopCollector) GeofenceChecked(within bool)                               {}

// NewNoopCollector returns a Collector that drops everything.
func NewNoopCollector() Collector { return noopCollector{} }
