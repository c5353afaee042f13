// Package validator decides whether a scanned token describes a genuine,
// active and unexpired monitoring site.
//
// Validation is offline-repeatable: the same token validates any number of
// times until it expires. Nothing here tracks prior scans.
package validator

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"siteqr/internal/codec"
	"siteqr/internal/crypto"
	"siteqr/internal/metrics"
	"siteqr/internal/models"
)

// Decrypter opens a token into payload bytes. *crypto.Engine implements it.
type Decrypter interface {
	Decrypt(token string) ([]byte, error)
}

type Validator struct {
	dec     Decrypter
	now     func() time.Time
	metrics metrics.Collector
	logger  *slog.Logger
}

type Option func(*Validator)

// WithClock overrides the time source used for the expiry check.
func WithClock(now func() time.Time) Option {
	return func(v *Validator) { v.now = now }
}

func WithMetrics(c metrics.Collector) Option {
	return func(v *Validator) { v.metrics = c }
}

func WithLogger(l *slog.Logger) Option {
	return func(v *Validator) { v.logger = l }
}

func New(dec Decrypter, opts ...Option) *Validator {
	v := &Validator{
		dec:     dec,
		now:     time.Now,
		metrics: metrics.NewNoopCollector(),
		logger:  slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// check runs in state `at`; on success the machine moves to the next state.
type check struct {
	at     State
	reason Reason
	run    func(p *models.Payload, now time.Time) error
}

// The order is fixed: cheapest and most fundamental first.
var checks = []check{
	{at: StateDecrypted, reason: ReasonInactive, run: checkActive},
	{at: StateActiveChecked, reason: ReasonTampered, run: checkHash},
	{at: StateHashChecked, reason: ReasonExpired, run: checkExpiry},
}

// Validate runs the state machine on token. It never returns an error; every
// failure is a Result with OK=false and a Reason.
func (v *Validator) Validate(token string) Result {
	start := time.Now()
	res := v.run(token)
	v.metrics.ValidationCompleted(string(res.Reason), time.Since(start))

	if res.OK {
		v.logger.Debug("token valid", "site_id", res.Payload.SiteID)
	} else {
		attrs := []any{"reason", string(res.Reason), "state", res.State.String(), "error", res.err}
		if res.Payload != nil {
			attrs = append(attrs, "site_id", res.Payload.SiteID)
		}
		v.logger.Info("token rejected", attrs...)
	}
	return res
}

func (v *Validator) run(token string) Result {
	p, err := v.open(token)
	if err != nil {
		return Result{Reason: ReasonDecryptionFailed, State: StateReceived, err: err}
	}

	now := v.now()
	for _, c := range checks {
		if err := c.run(&p, now); err != nil {
			return Result{Payload: &p, Reason: c.reason, State: c.at, err: err}
		}
	}
	return Result{OK: true, Payload: &p, Reason: ReasonValid, State: StateExpiryChecked}
}

func (v *Validator) open(token string) (models.Payload, error) {
	body, err := v.dec.Decrypt(token)
	if err != nil {
		return models.Payload{}, err
	}
	var p models.Payload
	if err := json.Unmarshal(body, &p); err != nil {
		return models.Payload{}, &crypto.DecryptError{Op: "unmarshal", Err: err}
	}
	return p, nil
}

func checkActive(p *models.Payload, _ time.Time) error {
	if !p.IsActive {
		return &InactiveError{SiteID: p.SiteID}
	}
	return nil
}

func checkHash(p *models.Payload, _ time.Time) error {
	if computed := codec.PayloadHash(*p); computed != p.ValidationHash {
		return &TamperError{SiteID: p.SiteID, Stored: p.ValidationHash, Computed: computed}
	}
	return nil
}

// An unreadable expiry counts as expired.
func checkExpiry(p *models.Payload, now time.Time) error {
	expires, err := p.ExpiresTime()
	if err != nil {
		return &ExpiredError{SiteID: p.SiteID, ExpiresAt: p.ExpiresAt, Err: err}
	}
	if !now.Before(expires) {
		return &ExpiredError{SiteID: p.SiteID, ExpiresAt: p.ExpiresAt}
	}
	return nil
}

// ValidateAll validates tokens on up to workers goroutines. Results are in
// input order. The only error is ctx cancellation.
func (v *Validator) ValidateAll(ctx context.Context, tokens []string, workers int) ([]Result, error) {
	results := make([]Result, len(tokens))

	g, ctx := errgroup.WithContext(ctx)
	if workers > 0 {
		g.SetLimit(workers)
	}
	for i, token := range tokens {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			results[i] = v.Validate(token)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
