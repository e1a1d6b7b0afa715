package http

import (
	"bytes"
	"context"
	"errors"
	"net/http"

	"it10bb/internal/cache"
	"it10bb/internal/core"
	"it10bb/internal/log"
	"it10bb/internal/middleware/ratelimit"
	"it10bb/internal/middleware/security"
	"it10bb/internal/middleware/trace"
	"it10bb/internal/render"
	"it10bb/internal/services"
)

// errorStatus maps estimate errors to HTTP statuses.
func errorStatus(err error) int {
	switch {
	case errors.Is(err, core.ErrInvalidInput):
		return http.StatusUnprocessableEntity
	case errors.Is(err, services.ErrExportDisabled):
		return http.StatusServiceUnavailable
	case errors.Is(err, services.ErrExportFailed):
		return http.StatusBadGateway
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

type exportErrorBody struct {
	Error  string         `json:"error"`
	Kind   string         `json:"kind"`
	Report *render.Report `json:"report"`
}

func (s *Server) handleEstimate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := log.FromContext(ctx)

	if resp := RequireMethod(r, http.MethodPost); resp != nil {
		resp.Write(w)
		return
	}

	format, ok := parseFormat(r)
	if !ok {
		BadRequestError("unknown format " + format).Write(w)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	req, err := parseEstimateRequest(r)
	if err != nil {
		logger.WarnContext(ctx, "Estimate request body rejected", log.FieldError, err)
		BadRequestError("invalid request body").Write(w)
		return
	}

	profile, err := req.Raw.Resolve()
	if err != nil {
		UnprocessableEntityError(err.Error()).Write(w)
		return
	}

	res, err := s.svc.Run(ctx, profile, req.Reference, req.Export)
	if err != nil && !services.IsExportError(err) {
		status := errorStatus(err)
		if status >= http.StatusInternalServerError {
			logger.ErrorContext(ctx, "Estimate failed", log.NewFields().WithProfile(profile).WithError(err).ToSlice()...)
		}
		ErrorResponse(status, err.Error()).Write(w)
		return
	}

	report := render.NewReport(res.Allocation)
	report.ExportedRef = res.ExportedRef

	if err != nil {
		logger.WarnContext(ctx, "Estimate computed but export failed",
			log.FieldOperation, log.OpExport,
			log.FieldError, err)
		NewJSONResponse().
			Status(errorStatus(err)).
			JSON(exportErrorBody{Error: err.Error(), Kind: "export", Report: &report}).
			Write(w)
		return
	}

	var buf bytes.Buffer
	if err := render.Write(&buf, format, report); err != nil {
		logger.ErrorContext(ctx, "Render estimate failed", log.FieldError, err)
		InternalServerError("failed to render estimate").Write(w)
		return
	}

	cacheStatus := "MISS"
	if res.CacheHit {
		cacheStatus = "HIT"
	}
	w.Header().Set("Content-Type", contentType(format))
	w.Header().Set("X-Estimate-Reference", res.Reference)
	w.Header().Set("X-Cache", cacheStatus)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

func handleCategories(w http.ResponseWriter, r *http.Request) {
	if resp := RequireMethod(r, http.MethodGet, http.MethodHead); resp != nil {
		resp.Write(w)
		return
	}

	format, ok := parseFormat(r)
	if !ok {
		BadRequestError("unknown format " + format).Write(w)
		return
	}

	var buf bytes.Buffer
	if err := render.Categories(&buf, format); err != nil {
		InternalServerError("failed to render categories").Write(w)
		return
	}
	w.Header().Set("Content-Type", contentType(format))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if !s.ready.Load() {
		ErrorResponse(http.StatusServiceUnavailable, "shutting down").Write(w)
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

// Stats is the GET /stats payload.
type Stats struct {
	Cache     cache.Stats               `json:"cache"`
	Requests  trace.Metrics             `json:"requests"`
	RateLimit ratelimit.Metrics         `json:"rate_limit"`
	Security  security.DetectionMetrics `json:"security"`
	Export    bool                      `json:"export_enabled"`
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	if resp := RequireMethod(r, http.MethodGet); resp != nil {
		resp.Write(w)
		return
	}

	NewJSONResponse().JSON(s.Stats()).Write(w)
}

// Stats snapshots the server and estimate service counters.
func (s *Server) Stats() Stats {
	return Stats{
		Cache:     s.svc.CacheStats(),
		Requests:  s.tracer.GetMetrics(),
		RateLimit: s.limiter.GetMetrics(),
		Security:  s.detector.GetMetrics(),
		Export:    s.svc.ExportEnabled(),
	}
}
