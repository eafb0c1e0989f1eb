package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/opd-ai/go-shipyard/pkg/analysis"
	"github.com/opd-ai/go-shipyard/pkg/blueprint"
	"github.com/opd-ai/go-shipyard/pkg/health"
	"github.com/opd-ai/go-shipyard/pkg/logging"
	"github.com/opd-ai/go-shipyard/pkg/metrics"
	"github.com/opd-ai/go-shipyard/pkg/validation"
)

// CorrelationHeader carries the request correlation id in both directions
const CorrelationHeader = "X-Correlation-ID"

// DefaultMaxBodyBytes limits request bodies when no limit is configured
const DefaultMaxBodyBytes = 8 << 20

// HTTPConfig configures the HTTP front end
type HTTPConfig struct {
	MaxBodyBytes int64
	// Defaults apply when a request leaves a query parameter out
	Defaults Options
}

// Server serves the analysis API, health probes and metrics
type Server struct {
	svc     *Service
	limiter *validation.RateLimiter
	health  *health.HealthChecker
	metrics *metrics.Collector
	logger  *logging.Logger
	cfg     HTTPConfig
}

// NewServer wires the HTTP routes. limiter, hc and m may be nil.
func NewServer(svc *Service, limiter *validation.RateLimiter, hc *health.HealthChecker, m *metrics.Collector, cfg HTTPConfig) *Server {
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = DefaultMaxBodyBytes
	}
	if hc == nil {
		hc = health.NewHealthChecker()
	}
	return &Server{
		svc:     svc,
		limiter: limiter,
		health:  hc,
		metrics: m,
		logger:  svc.logger,
		cfg:     cfg,
	}
}

// Handler returns the route multiplexer
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("POST /v1/analyze", s.instrument("analyze", s.limit(s.handleAnalyze)))
	mux.Handle("POST /v1/analyze/batch", s.instrument("analyze_batch", s.limit(s.handleBatch)))
	mux.HandleFunc("GET /health", s.health.LivenessHandler)
	mux.HandleFunc("GET /ready", s.health.ReadinessHandler)
	if s.metrics != nil {
		mux.Handle("GET /metrics", s.metrics.Handler())
	}
	return mux
}

type analyzeResponse struct {
	*Report
	// encoding/json writes the PNG as base64
	Image []byte `json:"image_png,omitempty"`
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	ctx := s.requestContext(w, r)
	opts, err := s.options(r)
	if err != nil {
		s.writeError(ctx, w, http.StatusBadRequest, err)
		return
	}
	bp, err := blueprint.DecodeJSON(http.MaxBytesReader(w, r.Body, s.cfg.MaxBodyBytes))
	if err != nil {
		s.writeError(ctx, w, statusFor(err), err)
		return
	}

	report, err := s.svc.Analyze(ctx, bp, opts)
	if err != nil {
		s.writeError(ctx, w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, analyzeResponse{Report: report, Image: report.Image})
}

func (s *Server) handleBatch(w http.ResponseWriter, r *http.Request) {
	ctx := s.requestContext(w, r)
	opts, err := s.options(r)
	if err != nil {
		s.writeError(ctx, w, http.StatusBadRequest, err)
		return
	}

	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, s.cfg.MaxBodyBytes))
	dec.DisallowUnknownFields()
	var bps []*blueprint.Blueprint
	if err := dec.Decode(&bps); err != nil {
		err = fmt.Errorf("%w: %w", blueprint.ErrMalformed, err)
		s.writeError(ctx, w, statusFor(err), err)
		return
	}

	reports, err := s.svc.AnalyzeBatch(ctx, bps, opts)
	if err != nil {
		s.writeError(ctx, w, statusFor(err), err)
		return
	}
	out := make([]analyzeResponse, len(reports))
	for i, rep := range reports {
		out[i] = analyzeResponse{Report: rep, Image: rep.Image}
	}
	writeJSON(w, http.StatusOK, out)
}

// options reads the boost, render and overlay query parameters
func (s *Server) options(r *http.Request) (Options, error) {
	opts := s.cfg.Defaults
	q := r.URL.Query()
	flags := []struct {
		name string
		dst  *bool
	}{
		{"boost", &opts.BoostEnabled},
		{"render", &opts.Render},
		{"upload", &opts.Upload},
		{"com", &opts.Overlays.DrawCoM},
		{"all_com", &opts.Overlays.DrawAllCoM},
		{"cot", &opts.Overlays.DrawCoT},
		{"all_cot", &opts.Overlays.DrawAllCoT},
		{"flip", &opts.Overlays.FlipVectors},
	}
	for _, f := range flags {
		v := q.Get(f.name)
		if v == "" {
			continue
		}
		b, err := strconv.ParseBool(v)
		if err != nil {
			return Options{}, fmt.Errorf("%w: query parameter %s=%q is not a boolean", validation.ErrInvalidField, f.name, v)
		}
		*f.dst = b
	}
	return opts, nil
}

func (s *Server) requestContext(w http.ResponseWriter, r *http.Request) context.Context {
	id := r.Header.Get(CorrelationHeader)
	if id == "" {
		id = logging.GenerateCorrelationID()
	}
	w.Header().Set(CorrelationHeader, id)
	return logging.WithCorrelationID(r.Context(), id)
}

func (s *Server) limit(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.limiter != nil && !s.limiter.Allow(clientAddr(r)) {
			if s.metrics != nil {
				s.metrics.RecordRateLimited()
			}
			w.Header().Set("Retry-After", "60")
			s.writeError(r.Context(), w, http.StatusTooManyRequests, ErrRateLimited)
			return
		}
		next(w, r)
	}
}

type statusRecorder struct {
	http.ResponseWriter
	code int
}

func (sr *statusRecorder) WriteHeader(code int) {
	sr.code = code
	sr.ResponseWriter.WriteHeader(code)
}

func (s *Server) instrument(route string, next http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, code: http.StatusOK}
		next(rec, r)
		if s.metrics != nil {
			s.metrics.RecordRequest(route, rec.code, time.Since(start))
		}
	})
}

func clientAddr(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func statusFor(err error) int {
	var maxBytes *http.MaxBytesError
	switch {
	case errors.As(err, &maxBytes):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, blueprint.ErrMalformed), errors.Is(err, validation.ErrInvalidField):
		return http.StatusBadRequest
	case errors.Is(err, validation.ErrLimitExceeded), errors.Is(err, analysis.ErrInvalidRotation):
		return http.StatusUnprocessableEntity
	case errors.Is(err, ErrRateLimited):
		return http.StatusTooManyRequests
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

func (s *Server) writeError(ctx context.Context, w http.ResponseWriter, code int, err error) {
	if code >= http.StatusInternalServerError {
		s.logger.Error(ctx, "request failed", err, "status", code)
	} else {
		s.logger.Debug(ctx, "request rejected", "status", code, "error", err.Error())
	}
	writeJSON(w, code, map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
