package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"siteqr/internal/geofence"
	"siteqr/internal/metrics"
	"siteqr/internal/utils"
	"siteqr/internal/validator"
)

const (
	maxBodyBytes = 1 << 20
	maxBatchSize = 1000
)

// Handlers serves the validation endpoints.
type Handlers struct {
	validator      *validator.Validator
	metrics        metrics.Collector
	logger         *slog.Logger
	maxTokenLength int
	workers        int
	now            func() time.Time
}

type Config struct {
	MaxTokenLength int
	Workers        int
	Metrics        metrics.Collector
	Logger         *slog.Logger
	Now            func() time.Time
}

func NewHandlers(v *validator.Validator, cfg Config) *Handlers {
	h := &Handlers{
		validator:      v,
		metrics:        cfg.Metrics,
		logger:         cfg.Logger,
		maxTokenLength: cfg.MaxTokenLength,
		workers:        cfg.Workers,
		now:            cfg.Now,
	}
	if h.metrics == nil {
		h.metrics = metrics.NewNoopCollector()
	}
	if h.logger == nil {
		h.logger = slog.New(slog.DiscardHandler)
	}
	if h.maxTokenLength <= 0 {
		h.maxTokenLength = 4096
	}
	if h.workers <= 0 {
		h.workers = 1
	}
	if h.now == nil {
		h.now = time.Now
	}
	return h
}

// ===== Request / response bodies =====

type ValidateRequest struct {
	Token string `json:"token"`
}

type ValidateResponse struct {
	OK      bool                    `json:"ok"`
	Reason  string                  `json:"reason"`
	Message string                  `json:"message"`
	State   string                  `json:"state"`
	Site    *validator.SiteResponse `json:"site,omitempty"`
}

type BatchRequest struct {
	Tokens []string `json:"tokens"`
}

type BatchResponse struct {
	Results []ValidateResponse `json:"results"`
}

type ProximityRequest struct {
	Token string   `json:"token"`
	Lat   *float64 `json:"lat"`
	Lng   *float64 `json:"lng"`
}

type ProximityResponse struct {
	OK             bool    `json:"ok"`
	Within         bool    `json:"within"`
	DistanceMeters float64 `json:"distanceMeters"`
	RadiusMeters   int     `json:"radiusMeters"`
}

// ===== Handlers =====

// GetTimeHandler returns the current server time in RFC3339 format.
func (h *Handlers) GetTimeHandler(w http.ResponseWriter, r *http.Request) {
	utils.WriteJSON(w, http.StatusOK, map[string]string{"time": h.now().Format(time.RFC3339)})
}

func (h *Handlers) HealthHandler(w http.ResponseWriter, r *http.Request) {
	fmt.Fprintln(w, "OK")
}

func (h *Handlers) ValidateHandler(w http.ResponseWriter, r *http.Request) {
	var req ValidateRequest
	if apiErr := decode(w, r, &req); apiErr != nil {
		utils.WriteError(w, apiErr)
		return
	}
	if apiErr := h.checkToken(req.Token); apiErr != nil {
		utils.WriteError(w, apiErr)
		return
	}
	utils.WriteJSON(w, http.StatusOK, h.respond(h.validator.Validate(req.Token)))
}

func (h *Handlers) ValidateBatchHandler(w http.ResponseWriter, r *http.Request) {
	var req BatchRequest
	if apiErr := decode(w, r, &req); apiErr != nil {
		utils.WriteError(w, apiErr)
		return
	}
	if len(req.Tokens) == 0 {
		utils.WriteError(w, utils.New(http.StatusBadRequest, "tokens is required"))
		return
	}
	if len(req.Tokens) > maxBatchSize {
		utils.WriteError(w, utils.New(http.StatusBadRequest, fmt.Sprintf("at most %d tokens per batch", maxBatchSize)))
		return
	}
	for i, tok := range req.Tokens {
		if apiErr := h.checkToken(tok); apiErr != nil {
			apiErr.Message = fmt.Sprintf("tokens[%d]: %s", i, apiErr.Message)
			utils.WriteError(w, apiErr)
			return
		}
	}

	results, err := h.validator.ValidateAll(r.Context(), req.Tokens, h.workers)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			h.logger.Warn("batch validation aborted", "error", err)
			return
		}
		utils.WriteError(w, utils.New(http.StatusInternalServerError, "batch validation failed"))
		return
	}

	resp := BatchResponse{Results: make([]ValidateResponse, len(results))}
	for i, res := range results {
		resp.Results[i] = h.respond(res)
	}
	utils.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handlers) ProximityHandler(w http.ResponseWriter, r *http.Request) {
	var req ProximityRequest
	if apiErr := decode(w, r, &req); apiErr != nil {
		utils.WriteError(w, apiErr)
		return
	}
	if apiErr := h.checkToken(req.Token); apiErr != nil {
		utils.WriteError(w, apiErr)
		return
	}
	if req.Lat == nil || req.Lng == nil {
		utils.WriteError(w, utils.New(http.StatusBadRequest, "lat and lng are required"))
		return
	}

	res := h.validator.Validate(req.Token)
	if !res.OK {
		utils.WriteJSON(w, http.StatusOK, h.respond(res))
		return
	}

	prox, err := geofence.Check(*res.Payload, *req.Lat, *req.Lng)
	if err != nil {
		utils.WriteError(w, utils.New(http.StatusBadRequest, err.Error()))
		return
	}
	h.metrics.GeofenceChecked(prox.Within)
	h.logger.Debug("proximity checked", "site_id", res.Payload.SiteID, "within", prox.Within, "distance_m", prox.DistanceMeters)

	utils.WriteJSON(w, http.StatusOK, ProximityResponse{
		OK:             true,
		Within:         prox.Within,
		DistanceMeters: prox.DistanceMeters,
		RadiusMeters:   prox.RadiusMeters,
	})
}

// ===== Helpers =====

func (h *Handlers) respond(res validator.Result) ValidateResponse {
	out := ValidateResponse{
		OK:      res.OK,
		Reason:  string(res.Reason),
		Message: res.Reason.Message(),
		State:   res.State.String(),
	}
	if res.OK {
		site := validator.NewSiteResponse(*res.Payload, h.now())
		out.Site = &site
	}
	return out
}

func (h *Handlers) checkToken(token string) *utils.APIError {
	if token == "" {
		return utils.New(http.StatusBadRequest, "token is required")
	}
	if len(token) > h.maxTokenLength {
		return utils.New(http.StatusBadRequest, fmt.Sprintf("token longer than %d characters", h.maxTokenLength))
	}
	return nil
}

func decode(w http.ResponseWriter, r *http.Request, v any) *utils.APIError {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return &utils.APIError{Code: http.StatusBadRequest, Message: "invalid JSON body", Reason: err.Error()}
	}
	return nil
}
