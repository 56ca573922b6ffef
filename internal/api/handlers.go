// Package api exposes HTTP handlers for the progress service.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"example.com/progress/internal/analytics"
	"example.com/progress/internal/auth"
	"example.com/progress/internal/domain"
)

// HealthChecker is probed by /healthz when configured.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// Option configures optional behaviour for the Handler.
type Option func(*Handler)

// WithHealthChecker makes /healthz report the data source's reachability.
func WithHealthChecker(hc HealthChecker) Option {
	return func(h *Handler) {
		h.health = hc
	}
}

// WithLogger overrides the logger.
func WithLogger(logger logrus.FieldLogger) Option {
	return func(h *Handler) {
		h.logger = logger
	}
}

// Handler coordinates HTTP requests with the domain service.
type Handler struct {
	service *domain.Service
	health  HealthChecker
	logger  logrus.FieldLogger
}

// NewHandler builds a Handler.
func NewHandler(service *domain.Service, opts ...Option) *Handler {
	h := &Handler{service: service, logger: logrus.StandardLogger()}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// RegisterRoutes wires endpoints to the mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/v1/progress/dashboard", h.get(h.dashboard))
	mux.HandleFunc("/v1/progress/workouts", h.get(h.workouts))
	mux.HandleFunc("/v1/progress/strength", h.get(h.strength))
	mux.HandleFunc("/v1/progress/muscle-groups", h.get(h.muscleGroups))
	mux.HandleFunc("/v1/progress/measurements", h.get(h.measurements))
	mux.HandleFunc("/v1/progress/blood-pressure", h.get(h.bloodPressure))
	mux.HandleFunc("/v1/progress/points", h.get(h.points))
	mux.HandleFunc("/v1/tools/one-rep-max", h.get(h.oneRepMax))
	mux.HandleFunc("/healthz", h.healthz)
}

// healthz reports OK, or 503 when the configured data source cannot be reached.
func (h *Handler) healthz(w http.ResponseWriter, r *http.Request) {
	if h.health != nil {
		if err := h.health.Ping(r.Context()); err != nil {
			h.logger.WithError(err).Warn("health check failed")
			writeError(w, http.StatusServiceUnavailable, "unavailable", "data source unreachable")
			return
		}
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

type subjectHandler func(w http.ResponseWriter, r *http.Request, subject domain.Subject)

// get restricts a route to GET and resolves the authorised subject.
func (h *Handler) get(next subjectHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
			return
		}

		claims, ok := auth.FromContext(r.Context())
		if !ok {
			writeError(w, http.StatusUnauthorized, "unauthorized", "missing bearer token")
			return
		}
		if !claims.HasScope(auth.ScopeProgressRead) {
			writeError(w, http.StatusForbidden, "forbidden", "scope progress:read required")
			return
		}

		userID := strings.TrimSpace(r.URL.Query().Get("user_id"))
		if userID == "" {
			userID = claims.Subject
		}
		next(w, r, domain.Subject{TenantID: claims.TenantID, UserID: userID})
	}
}

func (h *Handler) dashboard(w http.ResponseWriter, r *http.Request, subject domain.Subject) {
	resp, err := h.service.Dashboard(r.Context(), subject)
	h.respond(w, resp, err)
}

func (h *Handler) workouts(w http.ResponseWriter, r *http.Request, subject domain.Subject) {
	q := r.URL.Query()
	size, err := analytics.ParseBucketSize(q.Get("bucket"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", err.Error())
		return
	}
	count, ok := intParam(w, q.Get("count"), "count", 0)
	if !ok {
		return
	}
	resp, err := h.service.WorkoutActivity(r.Context(), subject, size, count)
	h.respond(w, resp, err)
}

func (h *Handler) strength(w http.ResponseWriter, r *http.Request, subject domain.Subject) {
	q := r.URL.Query()
	window, err := analytics.ParseWindow(q.Get("window"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", err.Error())
		return
	}
	order, err := analytics.ParseRecordOrder(q.Get("order"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", err.Error())
		return
	}
	formula, err := analytics.ParseFormula(q.Get("formula"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", err.Error())
		return
	}
	resp, err := h.service.Strength(r.Context(), subject, domain.StrengthQuery{Window: window, Order: order, Formula: formula})
	h.respond(w, resp, err)
}

func (h *Handler) muscleGroups(w http.ResponseWriter, r *http.Request, subject domain.Subject) {
	q := r.URL.Query()
	window, err := analytics.ParseWindow(q.Get("window"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", err.Error())
		return
	}
	top, ok := intParam(w, q.Get("top"), "top", domain.DefaultTopMuscleGroups)
	if !ok {
		return
	}
	resp, err := h.service.MuscleGroups(r.Context(), subject, window, top)
	h.respond(w, resp, err)
}

func (h *Handler) measurements(w http.ResponseWriter, r *http.Request, subject domain.Subject) {
	q := r.URL.Query()
	raw := q.Get("metric")
	if raw == "" {
		raw = string(analytics.MetricWeight)
	}
	metric, err := analytics.ParseMetric(raw)
	if err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", err.Error())
		return
	}
	window, err := analytics.ParseWindow(q.Get("window"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", err.Error())
		return
	}
	resp, err := h.service.MeasurementProgress(r.Context(), subject, metric, window)
	h.respond(w, resp, err)
}

func (h *Handler) bloodPressure(w http.ResponseWriter, r *http.Request, subject domain.Subject) {
	window, err := analytics.ParseWindow(r.URL.Query().Get("window"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", err.Error())
		return
	}
	resp, err := h.service.BloodPressure(r.Context(), subject, window)
	h.respond(w, resp, err)
}

func (h *Handler) points(w http.ResponseWriter, r *http.Request, subject domain.Subject) {
	q := r.URL.Query()
	size, err := analytics.ParseBucketSize(q.Get("bucket"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", err.Error())
		return
	}
	count, ok := intParam(w, q.Get("count"), "count", 0)
	if !ok {
		return
	}
	resp, err := h.service.Points(r.Context(), subject, size, count)
	h.respond(w, resp, err)
}

func (h *Handler) oneRepMax(w http.ResponseWriter, r *http.Request, _ domain.Subject) {
	q := r.URL.Query()
	weight, err := strconv.ParseFloat(q.Get("weight"), 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", "weight must be a number")
		return
	}
	reps, err := strconv.Atoi(q.Get("reps"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", "reps must be an integer")
		return
	}
	formula, err := analytics.ParseFormula(q.Get("formula"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", err.Error())
		return
	}

	estimate, err := analytics.EstimateOneRepMax(weight, reps, formula)
	if err != nil {
		var invalid *analytics.InvalidInputError
		if errors.As(err, &invalid) {
			writeError(w, http.StatusBadRequest, "validation_failed", invalid.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "server_error", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, OneRepMaxResponse{
		Weight:    weight,
		Reps:      reps,
		Formula:   formula.String(),
		OneRepMax: estimate,
		Reliable:  reps <= analytics.MaxReliableReps,
	})
}

// OneRepMaxResponse is the body of GET /v1/tools/one-rep-max.
type OneRepMaxResponse struct {
	Weight    float64 `json:"weight"`
	Reps      int     `json:"reps"`
	Formula   string  `json:"formula"`
	OneRepMax float64 `json:"one_rep_max"`
	Reliable  bool    `json:"reliable"`
}

func (h *Handler) respond(w http.ResponseWriter, payload any, err error) {
	if err != nil {
		if isValidation(err) {
			writeError(w, http.StatusBadRequest, "validation_failed", err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "server_error", "failed to build progress summary")
		return
	}
	writeJSON(w, http.StatusOK, payload)
}

func isValidation(err error) bool {
	for _, target := range []error{
		analytics.ErrUnknownWindow,
		analytics.ErrUnknownBucket,
		analytics.ErrUnknownFormula,
		analytics.ErrUnknownMetric,
		analytics.ErrUnknownOrder,
		domain.ErrBucketCount,
		domain.ErrMissingSubject,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

func intParam(w http.ResponseWriter, raw, name string, fallback int) (int, bool) {
	if raw == "" {
		return fallback, true
	}
	parsed, err := strconv.Atoi(raw)
	if err != nil || parsed < 0 {
		writeError(w, http.StatusBadRequest, "validation_failed", name+" must be a non-negative integer")
		return 0, false
	}
	return parsed, true
}

func writeError(w http.ResponseWriter, status int, code, detail string) {
	payload := map[string]string{
		"type":   code,
		"detail": detail,
	}
	writeJSON(w, status, payload)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
