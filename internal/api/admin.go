package api

import (
	"fmt"
	"net/http"
	"time"

	"turbine-monitor/internal/storage"
)

// handleAggregateTrigger runs one window on demand. The response reports
// success or failure and the number of aggregates produced; a whole-window
// failure is never swallowed.
func (h *Handler) handleAggregateTrigger(w http.ResponseWriter, r *http.Request) {
	window := time.Now().UTC().Truncate(time.Hour).Add(-time.Hour)
	if raw := r.URL.Query().Get("hour"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]any{"ok": false, "message": "hour must be RFC3339"})
			return
		}
		window = parsed
	}
	result, err := h.Engine.AggregateWindow(r.Context(), window)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]any{"ok": false, "message": err.Error(), "result": result})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "result": result})
}

// handleSeed creates the demo farms and turbines. It refuses to run against
// a non-empty turbine directory.
func (h *Handler) handleSeed(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.requestContext(r)
	defer cancel()
	count, err := h.Repo.CountTurbines(ctx)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]any{"ok": false, "message": "failed to inspect turbines"})
		return
	}
	if count > 0 {
		writeJSON(w, http.StatusConflict, map[string]any{"ok": false, "message": "turbines already exist"})
		return
	}

	farms := []storage.FarmRecord{
		{Name: "Wind Farm Alpha", Region: "North Region", Location: "Location A"},
		{Name: "Wind Farm Beta", Region: "South Region", Location: "Location B"},
	}
	farmIDs := make([]string, 0, len(farms))
	for _, farm := range farms {
		id, err := h.Repo.CreateFarm(ctx, farm)
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]any{"ok": false, "message": "failed to seed farms"})
			return
		}
		farmIDs = append(farmIDs, id)
	}

	created := 0
	for i := 1; i <= 10; i++ {
		farmID := farmIDs[0]
		if i > 5 {
			farmID = farmIDs[1]
		}
		status := storage.TurbineStatusActive
		if i%5 == 0 {
			status = storage.TurbineStatusMaintenance
		}
		_, err := h.Repo.CreateTurbine(ctx, storage.TurbineRecord{
			Name:       fmt.Sprintf("Turbine %d", i),
			FarmID:     farmID,
			RatedPower: 2.5 + float64(i)*0.1,
			Status:     status,
		})
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]any{"ok": false, "message": "failed to seed turbines"})
			return
		}
		created++
	}
	writeJSON(w, http.StatusCreated, map[string]any{"ok": true, "farms": len(farmIDs), "turbines": created})
}
