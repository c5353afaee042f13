// Package generator turns batches of site records into issued tokens.
package generator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"siteqr/internal/codec"
	"siteqr/internal/files"
	"siteqr/internal/metrics"
	"siteqr/internal/models"
)

// Encrypter seals payloads into tokens. *crypto.Engine implements it.
type Encrypter interface {
	Encrypt(p models.Payload) (string, error)
	KeyID() string
}

type Generator struct {
	enc     Encrypter
	codec   *codec.Codec
	workers int
	ledger  files.Ledger
	metrics metrics.Collector
	logger  *slog.Logger
	now     func() time.Time
}

type Option func(*Generator)

func WithCodec(c *codec.Codec) Option {
	return func(g *Generator) { g.codec = c }
}

// WithWorkers bounds how many records are processed at once. Values below 1 mean 1.
func WithWorkers(n int) Option {
	return func(g *Generator) { g.workers = max(n, 1) }
}

// WithLedger records every issued token in l.
func WithLedger(l files.Ledger) Option {
	return func(g *Generator) { g.ledger = l }
}

func WithMetrics(c metrics.Collector) Option {
	return func(g *Generator) { g.metrics = c }
}

func WithLogger(l *slog.Logger) Option {
	return func(g *Generator) { g.logger = l }
}

func New(enc Encrypter, opts ...Option) *Generator {
	g := &Generator{
		enc:     enc,
		codec:   codec.New(),
		workers: 1,
		metrics: metrics.NewNoopCollector(),
		logger:  slog.New(slog.DiscardHandler),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Failure is a record that produced no token.
type Failure struct {
	Index  int    `json:"index"`
	SiteID string `json:"siteId"`
	Kind   string `json:"kind"`
	Err    error  `json:"-"`
}

func (f Failure) Error() string {
	return fmt.Sprintf("record %d (site %q): %v", f.Index, f.SiteID, f.Err)
}

// Report is the outcome of one Generate run. Issued and Failures are each in
// input order.
type Report struct {
	RunID     string
	StartedAt time.Time
	KeyID     string
	Total     int
	Issued    []models.IssuedToken
	Failures  []Failure
}

// Summary is the JSON written next to generated tokens. It never carries the secret.
type Summary struct {
	RunID       string   `json:"runId"`
	GeneratedAt string   `json:"generatedAt"`
	KeyID       string   `json:"keyId"`
	TotalSites  int      `json:"totalSites"`
	Successful  int      `json:"successful"`
	Failed      int      `json:"failed"`
	FailedSites []string `json:"failedSites"`
}

func (r Report) Summary() Summary {
	failed := make([]string, 0, len(r.Failures))
	for _, f := range r.Failures {
		failed = append(failed, f.SiteID)
	}
	return Summary{
		RunID:       r.RunID,
		GeneratedAt: models.FormatTimestamp(r.StartedAt),
		KeyID:       r.KeyID,
		TotalSites:  r.Total,
		Successful:  len(r.Issued),
		Failed:      len(r.Failures),
		FailedSites: failed,
	}
}

// Failure kinds, also used as the metrics label.
const (
	KindFieldMissing   = "field_missing"
	KindTypeConversion = "type_conversion"
	KindEncrypt        = "encrypt"
	KindLedger         = "ledger"
	KindCanceled       = "canceled"
)

type outcome struct {
	issued  *models.IssuedToken
	failure *Failure
}

// Generate encodes and encrypts every record. A failing record is reported
// in Failures and never stops the others. Records not reached before ctx is
// done fail with KindCanceled.
func (g *Generator) Generate(ctx context.Context, records []models.SiteRecord) Report {
	report := Report{
		RunID:     uuid.NewString(),
		StartedAt: g.now(),
		KeyID:     g.enc.KeyID(),
		Total:     len(records),
	}
	log := g.logger.With("run_id", report.RunID)
	log.Info("generation started", "records", len(records), "key_id", report.KeyID, "workers", g.workers)

	outcomes := make([]outcome, len(records))
	var eg errgroup.Group
	eg.SetLimit(g.workers)
	for i, rec := range records {
		eg.Go(func() error {
			outcomes[i] = g.issue(ctx, report.RunID, i, rec)
			return nil
		})
	}
	_ = eg.Wait()

	for _, o := range outcomes {
		if o.failure != nil {
			g.metrics.GenerationFailed(o.failure.Kind)
			log.Warn("record failed", "index", o.failure.Index, "site_id", o.failure.SiteID, "kind", o.failure.Kind, "error", o.failure.Err)
			report.Failures = append(report.Failures, *o.failure)
			continue
		}
		g.metrics.TokenIssued()
		report.Issued = append(report.Issued, *o.issued)
	}

	log.Info("generation finished", "issued", len(report.Issued), "failed", len(report.Failures))
	return report
}

func (g *Generator) issue(ctx context.Context, runID string, i int, rec models.SiteRecord) outcome {
	fail := func(kind string, err error) outcome {
		return outcome{failure: &Failure{Index: i, SiteID: recordSiteID(rec), Kind: kind, Err: err}}
	}
	if err := ctx.Err(); err != nil {
		return fail(KindCanceled, err)
	}

	p, err := g.codec.Encode(rec)
	if err != nil {
		return fail(failureKind(err), err)
	}
	token, err := g.enc.Encrypt(p)
	if err != nil {
		return fail(KindEncrypt, err)
	}

	it := &models.IssuedToken{
		ID:          uuid.NewString(),
		RunID:       runID,
		SiteID:      p.SiteID,
		QRCode:      p.QRCode,
		Token:       token,
		KeyID:       g.enc.KeyID(),
		GeneratedAt: p.GeneratedAt,
		ExpiresAt:   p.ExpiresAt,
		CreatedAt:   g.now().UTC(),
	}
	if g.ledger != nil {
		if err := g.ledger.Save(ctx, it); err != nil {
			return fail(KindLedger, fmt.Errorf("ledger: %w", err))
		}
	}
	return outcome{issued: it}
}

func failureKind(err error) string {
	var missing *codec.FieldMissingError
	if errors.As(err, &missing) {
		return KindFieldMissing
	}
	return KindTypeConversion
}

func recordSiteID(rec models.SiteRecord) string {
	v, ok := rec[models.FieldID]
	if !ok || v == nil {
		return ""
	}
	return fmt.Sprint(v)
}
