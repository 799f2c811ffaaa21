package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"promptvault/internal/analytics"
	"promptvault/internal/cache"
	"promptvault/internal/models"
	"promptvault/internal/prompt"
)

const analyticsCacheTTL = time.Minute

type AnalyticsHandler struct {
	svc       *analytics.Service
	promptSvc *prompt.Service
	cache     *cache.Cache // nil when redis is unavailable
}

func NewAnalyticsHandler(svc *analytics.Service, promptSvc *prompt.Service, c *cache.Cache) *AnalyticsHandler {
	return &AnalyticsHandler{svc: svc, promptSvc: promptSvc, cache: c}
}

// Dashboard serves the aggregated analytics snapshot. The whole
// aggregation is all-or-nothing: any failure is a 500 with no partial
// payload.
func (h *AnalyticsHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	timeRange := r.URL.Query().Get("timeRange")
	switch timeRange {
	case "7d", "30d", "90d", "1y":
	default:
		timeRange = "30d"
	}

	cacheKey := "analytics:" + timeRange
	if h.cache != nil {
		var cached models.Dashboard
		err := h.cache.Get(r.Context(), cacheKey, &cached)
		if err == nil {
			writeJSON(w, http.StatusOK, &cached)
			return
		}
		if !errors.Is(err, cache.ErrMiss) {
			slog.Warn("analytics cache read failed", "error", err)
		}
	}

	d, err := h.svc.Dashboard(r.Context(), timeRange)
	if err != nil {
		slog.Error("analytics aggregation failed", "time_range", timeRange, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to compute analytics")
		return
	}

	if h.cache != nil {
		if err := h.cache.Set(r.Context(), cacheKey, d, analyticsCacheTTL); err != nil {
			slog.Warn("analytics cache write failed", "error", err)
		}
	}

	writeJSON(w, http.StatusOK, d)
}

// Filters serves the distinct categories/models/tags index.
func (h *AnalyticsHandler) Filters(w http.ResponseWriter, r *http.Request) {
	const cacheKey = "filters"

	if h.cache != nil {
		var cached models.Filters
		if err := h.cache.Get(r.Context(), cacheKey, &cached); err == nil {
			writeJSON(w, http.StatusOK, &cached)
			return
		}
	}

	f, err := h.promptSvc.Filters(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	if h.cache != nil {
		if err := h.cache.Set(r.Context(), cacheKey, f, analyticsCacheTTL); err != nil {
			slog.Warn("filters cache write failed", "error", err)
		}
	}

	writeJSON(w, http.StatusOK, f)
}
