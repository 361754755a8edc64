package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"turbine-monitor/internal/aggregation"
	"turbine-monitor/internal/alerts"
	"turbine-monitor/internal/analytics"
	"turbine-monitor/internal/storage"
	"turbine-monitor/internal/ws"
)

type Handler struct {
	Repo      *storage.Repository
	Alerts    *alerts.Lifecycle
	Engine    *aggregation.Engine
	Analytics *analytics.Service
	Hub       *ws.Hub
	Timeout   time.Duration
}

type pageResponse struct {
	Items any   `json:"items"`
	Page  int   `json:"page"`
	Size  int   `json:"size"`
	Total int64 `json:"total"`
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/api/farms", func(r chi.Router) {
		r.Get("/", h.handleFarmsList)
		r.Post("/", h.handleFarmCreate)
		r.Get("/{id}", h.handleFarmGet)
	})
	r.Route("/api/turbines", func(r chi.Router) {
		r.Get("/", h.handleTurbinesList)
		r.Post("/", h.handleTurbineCreate)
		r.Get("/{id}", h.handleTurbineGet)
		r.Put("/{id}/status", h.handleTurbineStatusUpdate)
	})
	r.Route("/api/telemetry", func(r chi.Router) {
		r.Post("/", h.handleTelemetryCreate)
		r.Get("/turbine/{id}", h.handleTelemetryByTurbine)
	})
	r.Get("/api/aggregates", h.handleAggregatesList)
	r.Route("/api/analytics", func(r chi.Router) {
		r.Get("/turbine/{id}/daily", h.handleTurbineDaily)
		r.Get("/turbine/{id}/historical", h.handleTurbineHistorical)
		r.Get("/daily", h.handleDailyMetrics)
		r.Get("/graph", h.handleGraphData)
	})
	r.Route("/api/health", func(r chi.Router) {
		r.Get("/alerts", h.handleActiveAlerts)
		r.Post("/alerts/{id}/resolve", h.handleAlertResolve)
		r.Get("/turbine/{id}/status", h.handleTurbineStatus)
	})
	r.Route("/api/admin", func(r chi.Router) {
		r.Post("/aggregate", h.handleAggregateTrigger)
		r.Post("/seed", h.handleSeed)
	})
	if h.Hub != nil {
		r.Get("/ws/alerts", h.Hub.ServeHTTP)
	}
}

type farmRequest struct {
	Name     string `json:"name"`
	Region   string `json:"region"`
	Location string `json:"location"`
}

func (h *Handler) handleFarmsList(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.requestContext(r)
	defer cancel()
	farms, err := h.Repo.ListFarms(ctx)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]any{"ok": false, "message": "failed to list farms"})
		return
	}
	writeJSON(w, http.StatusOK, farms)
}

func (h *Handler) handleFarmCreate(w http.ResponseWriter, r *http.Request) {
	var req farmRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"ok": false, "message": err.Error()})
		return
	}
	if req.Name == "" || req.Region == "" {
		writeJSON(w, http.StatusBadRequest, map[string]any{"ok": false, "message": "name and region are required"})
		return
	}
	ctx, cancel := h.requestContext(r)
	defer cancel()
	id, err := h.Repo.CreateFarm(ctx, storage.FarmRecord{Name: req.Name, Region: req.Region, Location: req.Location})
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]any{"ok": false, "message": "failed to create farm"})
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"id": id})
}

func (h *Handler) handleFarmGet(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.requestContext(r)
	defer cancel()
	farm, err := h.Repo.GetFarm(ctx, chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusNotFound, map[string]any{"ok": false, "message": "farm not found"})
		return
	}
	writeJSON(w, http.StatusOK, farm)
}

type turbineRequest struct {
	Name       string  `json:"name"`
	FarmID     string  `json:"farmId"`
	RatedPower float64 `json:"ratedPower"`
	Status     string  `json:"status"`
}

func (h *Handler) handleTurbinesList(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.requestContext(r)
	defer cancel()
	farmID := r.URL.Query().Get("farmId")
	var (
		turbines []storage.TurbineRecord
		err      error
	)
	if farmID != "" {
		turbines, err = h.Repo.ListTurbinesByFarm(ctx, farmID)
	} else {
		turbines, err = h.Repo.ListTurbines(ctx)
	}
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]any{"ok": false, "message": "failed to list turbines"})
		return
	}
	writeJSON(w, http.StatusOK, turbines)
}

func (h *Handler) handleTurbineCreate(w http.ResponseWriter, r *http.Request) {
	var req turbineRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"ok": false, "message": err.Error()})
		return
	}
	if req.Name == "" || req.FarmID == "" || req.RatedPower <= 0 {
		writeJSON(w, http.StatusBadRequest, map[string]any{"ok": false, "message": "name, farmId and a positive ratedPower are required"})
		return
	}
	status := req.Status
	if status == "" {
		status = storage.TurbineStatusActive
	}
	ctx, cancel := h.requestContext(r)
	defer cancel()
	id, err := h.Repo.CreateTurbine(ctx, storage.TurbineRecord{
		Name:       req.Name,
		FarmID:     req.FarmID,
		RatedPower: req.RatedPower,
		Status:     status,
	})
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]any{"ok": false, "message": "failed to create turbine"})
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"id": id})
}

func (h *Handler) handleTurbineGet(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.requestContext(r)
	defer cancel()
	turbine, err := h.Repo.GetTurbine(ctx, chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusNotFound, map[string]any{"ok": false, "message": "turbine not found"})
		return
	}
	writeJSON(w, http.StatusOK, turbine)
}

type turbineStatusRequest struct {
	Status string `json:"status"`
}

func (h *Handler) handleTurbineStatusUpdate(w http.ResponseWriter, r *http.Request) {
	var req turbineStatusRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"ok": false, "message": err.Error()})
		return
	}
	if req.Status != storage.TurbineStatusActive && req.Status != storage.TurbineStatusMaintenance {
		writeJSON(w, http.StatusBadRequest, map[string]any{"ok": false, "message": "status must be ACTIVE or MAINTENANCE"})
		return
	}
	ctx, cancel := h.requestContext(r)
	defer cancel()
	if err := h.Repo.UpdateTurbineStatus(ctx, chi.URLParam(r, "id"), req.Status); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, map[string]any{"ok": false, "message": "turbine not found"})
			return
		}
		writeJSON(w, http.StatusInternalServerError, map[string]any{"ok": false, "message": "failed to update turbine"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

type telemetryRequest struct {
	TurbineID   string    `json:"turbineId"`
	Timestamp   time.Time `json:"timestamp"`
	WindSpeed   float64   `json:"windSpeed"`
	PowerOutput float64   `json:"powerOutput"`
	RotorSpeed  float64   `json:"rotorSpeed"`
	Temperature float64   `json:"temperature"`
	Vibration   float64   `json:"vibration"`
}

func (h *Handler) handleTelemetryCreate(w http.ResponseWriter, r *http.Request) {
	var req telemetryRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"ok": false, "message": err.Error()})
		return
	}
	ctx, cancel := h.requestContext(r)
	defer cancel()
	turbine, err := h.Repo.GetTurbine(ctx, req.TurbineID)
	if err != nil {
		writeJSON(w, http.StatusNotFound, map[string]any{"ok": false, "message": "turbine not found"})
		return
	}
	ts := req.Timestamp
	if ts.IsZero() {
		ts = time.Now().UTC()
	}
	id, err := h.Repo.InsertTelemetry(ctx, storage.TelemetryRecord{
		TurbineID:   turbine.ID,
		Timestamp:   ts,
		WindSpeed:   req.WindSpeed,
		PowerOutput: req.PowerOutput,
		RotorSpeed:  req.RotorSpeed,
		Temperature: req.Temperature,
		Vibration:   req.Vibration,
		Efficiency:  req.PowerOutput / turbine.RatedPower * 100.0,
	})
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]any{"ok": false, "message": "failed to store telemetry"})
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"id": id})
}

func (h *Handler) handleTelemetryByTurbine(w http.ResponseWriter, r *http.Request) {
	start, end, err := parseTimeRange(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"ok": false, "message": err.Error()})
		return
	}
	ctx, cancel := h.requestContext(r)
	defer cancel()
	recs, err := h.Repo.TelemetryByTurbine(ctx, chi.URLParam(r, "id"), start, end)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]any{"ok": false, "message": "failed to query telemetry"})
		return
	}
	writeJSON(w, http.StatusOK, recs)
}

func (h *Handler) handleAggregatesList(w http.ResponseWriter, r *http.Request) {
	start, end, err := parseTimeRange(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"ok": false, "message": err.Error()})
		return
	}
	ctx, cancel := h.requestContext(r)
	defer cancel()
	q := r.URL.Query()
	var recs []storage.AggregateRecord
	if turbineID := q.Get("turbineId"); turbineID != "" {
		recs, err = h.Repo.AggregatesByTurbine(ctx, turbineID, start, end)
	} else {
		recs, err = h.Repo.AggregatesFiltered(ctx, start, end, q.Get("farm"), q.Get("region"))
	}
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]any{"ok": false, "message": "failed to query aggregates"})
		return
	}
	writeJSON(w, http.StatusOK, recs)
}

func (h *Handler) handleActiveAlerts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := storage.AlertFilter{
		TurbineID: q.Get("turbineId"),
		Region:    q.Get("region"),
		Farm:      q.Get("farm"),
		Page:      parseIntDefault(q.Get("page"), 0),
		Size:      parseIntDefault(q.Get("size"), 10),
	}
	ctx, cancel := h.requestContext(r)
	defer cancel()
	items, total, err := h.Repo.ActiveAlerts(ctx, filter)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]any{"ok": false, "message": "failed to query alerts"})
		return
	}
	writeJSON(w, http.StatusOK, pageResponse{Items: items, Page: filter.Page, Size: filter.Size, Total: total})
}

func (h *Handler) handleAlertResolve(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.requestContext(r)
	defer cancel()
	alert, err := h.Alerts.Resolve(ctx, chi.URLParam(r, "id"))
	switch {
	case errors.Is(err, storage.ErrNotFound):
		writeJSON(w, http.StatusNotFound, map[string]any{"ok": false, "message": "alert not found"})
	case errors.Is(err, alerts.ErrAlreadyResolved):
		writeJSON(w, http.StatusConflict, map[string]any{"ok": false, "message": "alert already resolved"})
	case err != nil:
		writeJSON(w, http.StatusInternalServerError, map[string]any{"ok": false, "message": "failed to resolve alert"})
	default:
		writeJSON(w, http.StatusOK, alert)
	}
}

func (h *Handler) handleTurbineStatus(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.requestContext(r)
	defer cancel()
	turbine, err := h.Repo.GetTurbine(ctx, chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusNotFound, map[string]any{"ok": false, "message": "turbine not found"})
		return
	}
	active, total, err := h.Repo.ActiveAlerts(ctx, storage.AlertFilter{TurbineID: turbine.ID, Size: 100})
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]any{"ok": false, "message": "failed to query alerts"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"turbine":      turbine,
		"activeAlerts": active,
		"alertCount":   total,
		"healthy":      total == 0,
	})
}

func (h *Handler) requestContext(r *http.Request) (context.Context, context.CancelFunc) {
	timeout := h.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return context.WithTimeout(r.Context(), timeout)
}

func parseTimeRange(r *http.Request) (time.Time, time.Time, error) {
	q := r.URL.Query()
	end := time.Now().UTC()
	start := end.Add(-24 * time.Hour)
	if raw := q.Get("start"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return time.Time{}, time.Time{}, errors.New("start must be RFC3339")
		}
		start = parsed
	}
	if raw := q.Get("end"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return time.Time{}, time.Time{}, errors.New("end must be RFC3339")
		}
		end = parsed
	}
	if !start.Before(end) {
		return time.Time{}, time.Time{}, errors.New("start must be before end")
	}
	return start, end, nil
}

func parseIntDefault(raw string, fallback int) int {
	if raw == "" {
		return fallback
	}
	if parsed, err := strconv.Atoi(raw); err == nil && parsed >= 0 {
		return parsed
	}
	return fallback
}

func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
