package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
)

var (
	errDateRequired = errors.New("date is required")
	errDateFormat   = errors.New("date must be YYYY-MM-DD")
)

func (h *Handler) handleTurbineDaily(w http.ResponseWriter, r *http.Request) {
	date, err := parseDate(r.URL.Query().Get("date"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"ok": false, "message": err.Error()})
		return
	}
	ctx, cancel := h.requestContext(r)
	defer cancel()
	daily, err := h.Analytics.TurbineDaily(ctx, chi.URLParam(r, "id"), date)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]any{"ok": false, "message": "failed to compute daily metrics"})
		return
	}
	writeJSON(w, http.StatusOK, daily)
}

func (h *Handler) handleTurbineHistorical(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	startDate, err := parseDate(q.Get("startDate"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"ok": false, "message": "startDate " + err.Error()})
		return
	}
	endDate, err := parseDate(q.Get("endDate"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"ok": false, "message": "endDate " + err.Error()})
		return
	}
	if endDate.Before(startDate) {
		writeJSON(w, http.StatusBadRequest, map[string]any{"ok": false, "message": "endDate must not precede startDate"})
		return
	}
	ctx, cancel := h.requestContext(r)
	defer cancel()
	perf, err := h.Analytics.TurbinePerformance(ctx, chi.URLParam(r, "id"), startDate, endDate)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]any{"ok": false, "message": "failed to compute performance"})
		return
	}
	writeJSON(w, http.StatusOK, perf)
}

func (h *Handler) handleDailyMetrics(w http.ResponseWriter, r *http.Request) {
	start, end, err := parseTimeRange(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"ok": false, "message": err.Error()})
		return
	}
	ctx, cancel := h.requestContext(r)
	defer cancel()
	q := r.URL.Query()
	metrics, err := h.Analytics.DailyMetrics(ctx, start, end, q.Get("farm"), q.Get("region"))
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]any{"ok": false, "message": "failed to compute daily metrics"})
		return
	}
	writeJSON(w, http.StatusOK, metrics)
}

func (h *Handler) handleGraphData(w http.ResponseWriter, r *http.Request) {
	start, end, err := parseTimeRange(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"ok": false, "message": err.Error()})
		return
	}
	ctx, cancel := h.requestContext(r)
	defer cancel()
	q := r.URL.Query()
	points, err := h.Analytics.GraphData(ctx, start, end, q.Get("farm"), q.Get("region"))
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]any{"ok": false, "message": "failed to compute graph data"})
		return
	}
	writeJSON(w, http.StatusOK, points)
}

func parseDate(raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, errDateRequired
	}
	parsed, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return time.Time{}, errDateFormat
	}
	return parsed, nil
}
