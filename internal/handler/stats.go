package handler

import (
	"encoding/json"
	"net/http"
	"yolonode/internal/service"
)

// StatsProvider exposes the processing counters.
type StatsProvider interface {
	Stats() service.Stats
}

// StatsHandler returns the processing counters as JSON.
func StatsHandler(stats StatsProvider) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Cache-Control", "no-cache")
		json.NewEncoder(w).Encode(stats.Stats())
	}
}

// HealthHandler reports that the node is serving.
func HealthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write([]byte("ok"))
}
