package main

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/emg/fieldzones/zones"
)

// newHTTPServer creates an HTTP handler serving the built zone dataset.
// The dataset is immutable for the server's lifetime, so the GeoJSON body
// is encoded once up front.
func newHTTPServer(ds *zones.ZoneDataset, summary *zones.Summary) (http.Handler, error) {
	body, err := ds.ToFeatureCollection().MarshalJSON()
	if err != nil {
		return nil, fmt.Errorf("encoding zone dataset: %w", err)
	}

	r := chi.NewRouter()

	r.Get("/health", func(w http.ResponseWriter, req *http.Request) {
		log.Printf("[HTTP] /health request from %s", req.RemoteAddr)
		w.Header().Set("Content-Type", "application/json")
		status := struct {
			Status    string    `json:"status"`
			Timestamp time.Time `json:"timestamp"`
			Zones     int       `json:"zones"`
		}{
			Status:    "ok",
			Timestamp: time.Now(),
			Zones:     ds.Len(),
		}
		if err := json.NewEncoder(w).Encode(status); err != nil {
			log.Printf("Error encoding health status: %v", err)
		}
	})

	r.Get("/zones.geojson", func(w http.ResponseWriter, req *http.Request) {
		log.Printf("[HTTP] /zones.geojson request from %s", req.RemoteAddr)
		w.Header().Set("Content-Type", "application/geo+json")
		w.Header().Set("Cache-Control", "no-cache")
		if _, err := w.Write(body); err != nil {
			log.Printf("Error writing zone dataset: %v", err)
		}
	})

	r.Get("/summary", func(w http.ResponseWriter, req *http.Request) {
		log.Printf("[HTTP] /summary request from %s", req.RemoteAddr)
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(summary); err != nil {
			log.Printf("Error encoding summary: %v", err)
		}
	})

	return r, nil
}
