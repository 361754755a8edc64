package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"turbine-monitor/internal/analytics"
	"turbine-monitor/internal/storage"
)

type memAggregateSource struct {
	aggregates []storage.FarmAggregate
}

func (m *memAggregateSource) AggregatesByTurbine(ctx context.Context, turbineID string, start, end time.Time) ([]storage.AggregateRecord, error) {
	results := []storage.AggregateRecord{}
	for _, agg := range m.aggregates {
		if agg.TurbineID == turbineID && !agg.WindowStart.Before(start) && agg.WindowStart.Before(end) {
			results = append(results, agg.AggregateRecord)
		}
	}
	return results, nil
}

func (m *memAggregateSource) AggregatesWithFarm(ctx context.Context, start, end time.Time, farm, region string) ([]storage.FarmAggregate, error) {
	results := []storage.FarmAggregate{}
	for _, agg := range m.aggregates {
		if !agg.WindowStart.Before(start) && agg.WindowStart.Before(end) {
			results = append(results, agg)
		}
	}
	return results, nil
}

func setupAnalyticsRouter(src *memAggregateSource) *chi.Mux {
	h := &Handler{Analytics: analytics.NewService(src)}
	r := chi.NewRouter()
	r.Get("/api/analytics/turbine/{id}/daily", h.handleTurbineDaily)
	r.Get("/api/analytics/turbine/{id}/historical", h.handleTurbineHistorical)
	r.Get("/api/analytics/graph", h.handleGraphData)
	return r
}

func TestTurbineDailyEndpoint(t *testing.T) {
	window := time.Date(2026, 1, 2, 10, 0, 0, 0, time.UTC)
	src := &memAggregateSource{aggregates: []storage.FarmAggregate{
		{AggregateRecord: storage.AggregateRecord{TurbineID: "t1", WindowStart: window, TotalGeneration: 2.0, AvgEfficiency: 60.0, AvgPowerOutput: 2.0}, FarmName: "Alpha"},
		{AggregateRecord: storage.AggregateRecord{TurbineID: "t1", WindowStart: window.Add(time.Hour), TotalGeneration: 3.0, AvgEfficiency: 80.0, AvgPowerOutput: 3.0}, FarmName: "Alpha"},
	}}
	r := setupAnalyticsRouter(src)

	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/analytics/turbine/t1/daily?date=2026-01-02", nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}
	var daily analytics.TurbineDaily
	if err := json.Unmarshal(resp.Body.Bytes(), &daily); err != nil {
		t.Fatalf("invalid response: %v", err)
	}
	if daily.TotalGeneration != 5.0 || daily.AvgEfficiency != 70.0 || daily.HourCount != 2 {
		t.Fatalf("bad rollup: %+v", daily)
	}
}

func TestTurbineDailyRejectsBadDate(t *testing.T) {
	r := setupAnalyticsRouter(&memAggregateSource{})

	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/analytics/turbine/t1/daily?date=02-01-2026", nil))
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for malformed date, got %d", resp.Code)
	}

	resp = httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/analytics/turbine/t1/daily", nil))
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for missing date, got %d", resp.Code)
	}
}

func TestTurbineHistoricalRejectsInvertedRange(t *testing.T) {
	r := setupAnalyticsRouter(&memAggregateSource{})
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet,
		"/api/analytics/turbine/t1/historical?startDate=2026-01-05&endDate=2026-01-02", nil))
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for inverted range, got %d", resp.Code)
	}
}

func TestGraphEndpointZeroFills(t *testing.T) {
	window := time.Date(2026, 1, 2, 10, 0, 0, 0, time.UTC)
	src := &memAggregateSource{aggregates: []storage.FarmAggregate{
		{AggregateRecord: storage.AggregateRecord{TurbineID: "t1", WindowStart: window, TotalGeneration: 2.0, AvgEfficiency: 60.0}, FarmName: "Alpha"},
	}}
	r := setupAnalyticsRouter(src)

	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet,
		"/api/analytics/graph?start=2026-01-02T00:00:00Z&end=2026-01-04T00:00:00Z", nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}
	var points []analytics.GraphPoint
	if err := json.Unmarshal(resp.Body.Bytes(), &points); err != nil {
		t.Fatalf("invalid response: %v", err)
	}
	if len(points) != 2 {
		t.Fatalf("expected 2 days, got %d: %+v", len(points), points)
	}
	if points[0].TotalGeneration != 2.0 || points[1].TotalGeneration != 0 {
		t.Fatalf("expected zero-filled second day, got %+v", points)
	}
}
