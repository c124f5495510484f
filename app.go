package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"strings"

	"github.com/emg/fieldzones/zones"
)

// App encapsulates the application state and dependencies
type App struct {
	Config      *zones.Config
	Eligibility zones.EligibilitySet
	Boundary    *zones.ServiceBoundary

	// CLI flags (effectively dependencies)
	ConfigFile      string
	OutputOverride  string
	WorkersOverride int
	HttpPort        int
	SummaryFile     string
}

// NewApp creates a new App instance
func NewApp() *App {
	return &App{}
}

// loadInputs loads the territory config, eligibility list, and service
// boundary. A missing or unreadable boundary is fatal: there is nothing to
// clip against. A failed eligibility load degrades to an empty set, which
// yields an empty (but valid) result downstream.
func (a *App) loadInputs() error {
	config, err := zones.LoadConfig(a.ConfigFile)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if a.OutputOverride != "" {
		config.OutputFile = a.OutputOverride
	}
	if a.WorkersOverride > 0 {
		config.Workers = a.WorkersOverride
	}
	a.Config = config
	log.Printf("loaded config from %s (%d units)", a.ConfigFile, len(config.Units))

	if config.EligibilityFile != "" {
		set, err := zones.LoadEligibilityList(config.EligibilityFile)
		if err != nil {
			log.Printf("Warning: failed to load eligibility list %s: %v (result will be empty)", config.EligibilityFile, err)
			set = zones.NewEligibilitySet()
		} else {
			log.Printf("loaded eligibility list from %s (%d GEOIDs)", config.EligibilityFile, set.Len())
		}
		a.Eligibility = set
	} else {
		log.Printf("Warning: no eligibility file configured; result will be empty")
		a.Eligibility = zones.NewEligibilitySet()
	}

	boundary, err := zones.LoadServiceBoundary(config.BoundaryFile)
	if err != nil {
		return fmt.Errorf("loading boundary: %w", err)
	}
	a.Boundary = boundary
	log.Printf("loaded service boundary from %s", config.BoundaryFile)

	return nil
}

// buildDataset runs the pipeline once and returns the clipped dataset.
func (a *App) buildDataset(ctx context.Context) (*zones.ZoneDataset, *zones.Summary, error) {
	client := zones.NewSourceClient(a.Config.Endpoint,
		zones.WithTimeout(a.Config.FetchTimeout()))
	pipeline := zones.NewPipeline(a.Config, client, a.Eligibility, a.Boundary)
	return pipeline.Run(ctx)
}

// RunBuild executes the pipeline and writes the zone dataset to disk.
func (a *App) RunBuild() {
	fmt.Println(strings.Repeat("=", 60))
	fmt.Println("Territory Zone Builder")
	fmt.Println(strings.Repeat("=", 60))

	if err := a.loadInputs(); err != nil {
		log.Fatalf("Error: %v", err)
	}

	ds, summary, err := a.buildDataset(context.Background())
	if err != nil {
		log.Fatalf("Pipeline error: %v", err)
	}

	if err := ds.WriteFile(a.Config.OutputFile); err != nil {
		log.Fatalf("Error writing output: %v", err)
	}
	fmt.Printf("\nSaved: %s\n", a.Config.OutputFile)

	if a.SummaryFile != "" {
		if err := writeSummaryJSON(summary, a.SummaryFile); err != nil {
			log.Printf("Warning: failed to write summary: %v", err)
		} else {
			fmt.Printf("Saved: %s\n", a.SummaryFile)
		}
	}

	printSummary(summary)
}

// RunServe builds the dataset once, then serves it over HTTP for the
// map-rendering side to consume.
func (a *App) RunServe() {
	if err := a.loadInputs(); err != nil {
		log.Fatalf("Error: %v", err)
	}

	ds, summary, err := a.buildDataset(context.Background())
	if err != nil {
		log.Fatalf("Pipeline error: %v", err)
	}
	printSummary(summary)

	handler, err := newHTTPServer(ds, summary)
	if err != nil {
		log.Fatalf("Error preparing HTTP server: %v", err)
	}

	addr := fmt.Sprintf("0.0.0.0:%d", a.HttpPort)
	log.Printf("[HTTP] Starting server on %s", addr)
	fmt.Printf("\nHTTP endpoints (port %d):\n", a.HttpPort)
	fmt.Println("  GET /health        - Health check")
	fmt.Println("  GET /zones.geojson - Clipped zone dataset")
	fmt.Println("  GET /summary       - Run summary counts")

	if err := http.ListenAndServe(addr, handler); err != nil {
		log.Fatalf("[HTTP] Server error: %v", err)
	}
}

// printSummary prints the operator-facing run summary block.
func printSummary(s *zones.Summary) {
	fmt.Println()
	fmt.Println(strings.Repeat("=", 60))
	fmt.Println("SUMMARY")
	fmt.Println(strings.Repeat("=", 60))
	if s.Territory != "" {
		fmt.Printf("  Territory:        %s\n", s.Territory)
	}
	fmt.Printf("  Units fetched:    %d of %d\n", s.UnitsFetched, s.UnitsRequested)
	if len(s.FailedUnits) > 0 {
		fmt.Printf("  Failed units:     %s\n", strings.Join(s.FailedUnits, ", "))
	}
	fmt.Printf("  Tracts fetched:   %d (%d unique, %d duplicates)\n",
		s.TractsFetched, s.TractsUnique, s.DuplicatesDropped)
	if s.FeaturesSkipped > 0 {
		fmt.Printf("  Features skipped: %d (no GEOID or non-polygonal)\n", s.FeaturesSkipped)
	}
	fmt.Printf("  Eligible tracts:  %d\n", s.TractsEligible)
	fmt.Printf("  Final zones:      %d (%d outside territory)\n",
		s.TractsClipped, s.DroppedOutside)
}

func writeSummaryJSON(s *zones.Summary, path string) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal summary: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write summary: %w", err)
	}
	return nil
}
