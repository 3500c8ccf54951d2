package rng

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/realdegrees/rng/pool"
)

// RandomHandler serves GET /rng: one derived float per request as
// {"random": v}, or 503 once the engine reports degraded entropy. Responses
// carry no-store cache headers so no intermediary ever replays a value.
func RandomHandler(engine *Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		value, err := engine.Random(r.Context())
		if err != nil {
			if !errors.Is(err, ErrDegraded) {
				log.Printf("ERR: rng [%s]: %s", r.RemoteAddr, err)
			}
			writeJson(w, http.StatusServiceUnavailable, map[string]string{
				"error": err.Error(),
			})
			return
		}

		w.Header().Set("Cache-Control", "no-store, no-cache, must-revalidate, max-age=0")
		w.Header().Set("Pragma", "no-cache")
		w.Header().Set("Expires", "0")
		writeJson(w, http.StatusOK, map[string]float64{"random": value})
	}
}

// healthReport is the payload of GET /health.
type healthReport struct {
	Status         string         `json:"status"`
	EntropySources []string       `json:"entropy_sources"`
	TotalRegions   int            `json:"total_regions"`
	RegionsByZone  map[string]int `json:"regions_by_zone"`
	Prefetching    bool           `json:"prefetching"`
}

// HealthHandler serves GET /health with the current entropy inventory.
// Status is "degraded" while no regions are buffered at all (jitter-only
// derivation still works, so this is always a 200).
func HealthHandler(engine *Engine, store *pool.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		total := store.TotalRegions()
		status := "ok"
		if total == 0 {
			status = "degraded"
		}

		writeJson(w, http.StatusOK, healthReport{
			Status:         status,
			EntropySources: engine.SourceNames(),
			TotalRegions:   total,
			RegionsByZone:  store.ByZone(),
			Prefetching:    store.Prefetching(),
		})
	}
}

func writeJson(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
