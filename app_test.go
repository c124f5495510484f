package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/emg/fieldzones/zones"
)

const testBoundaryGeoJSON = `{
  "type": "FeatureCollection",
  "features": [
    {
      "type": "Feature",
      "properties": {},
      "geometry": {
        "type": "Polygon",
        "coordinates": [[[0,0],[10,0],[10,10],[0,10],[0,0]]]
      }
    }
  ]
}`

// writeAppFixtures lays out a config, boundary, and optional eligibility
// file in a temp dir and returns the config path.
func writeAppFixtures(t *testing.T, withEligibility bool) string {
	t.Helper()
	dir := t.TempDir()

	boundaryPath := filepath.Join(dir, "boundary.geojson")
	if err := os.WriteFile(boundaryPath, []byte(testBoundaryGeoJSON), 0644); err != nil {
		t.Fatalf("write boundary: %v", err)
	}

	eligibilityLine := ""
	if withEligibility {
		eligibilityPath := filepath.Join(dir, "qct.txt")
		if err := os.WriteFile(eligibilityPath, []byte("51760000100\n51760000200\n"), 0644); err != nil {
			t.Fatalf("write eligibility: %v", err)
		}
		eligibilityLine = fmt.Sprintf("eligibility_file: %s\n", eligibilityPath)
	}

	configPath := filepath.Join(dir, "territory.yaml")
	body := fmt.Sprintf(`territory: "Test Territory"
endpoint: "https://example.com/query"
units:
  "51760": "Richmond City"
boundary_file: %s
%s`, boundaryPath, eligibilityLine)
	if err := os.WriteFile(configPath, []byte(body), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return configPath
}

func TestAppLoadInputs(t *testing.T) {
	app := NewApp()
	app.ConfigFile = writeAppFixtures(t, true)

	if err := app.loadInputs(); err != nil {
		t.Fatalf("loadInputs: %v", err)
	}
	if app.Config.Territory != "Test Territory" {
		t.Errorf("Territory = %q", app.Config.Territory)
	}
	if app.Eligibility.Len() != 2 {
		t.Errorf("eligibility entries = %d, want 2", app.Eligibility.Len())
	}
	if app.Boundary == nil {
		t.Fatal("boundary not loaded")
	}
}

func TestAppLoadInputs_MissingConfig(t *testing.T) {
	app := NewApp()
	app.ConfigFile = filepath.Join(t.TempDir(), "nope.yaml")

	if err := app.loadInputs(); err == nil {
		t.Fatal("expected error for missing config")
	}
}

func TestAppLoadInputs_MissingEligibilityDegrades(t *testing.T) {
	app := NewApp()
	app.ConfigFile = writeAppFixtures(t, false)

	// No eligibility file configured: not fatal, but the set is empty so
	// the pipeline produces an empty result.
	if err := app.loadInputs(); err != nil {
		t.Fatalf("loadInputs: %v", err)
	}
	if app.Eligibility.Len() != 0 {
		t.Errorf("eligibility entries = %d, want 0", app.Eligibility.Len())
	}
}

func TestAppLoadInputs_Overrides(t *testing.T) {
	app := NewApp()
	app.ConfigFile = writeAppFixtures(t, true)
	app.OutputOverride = "custom.geojson"
	app.WorkersOverride = 4

	if err := app.loadInputs(); err != nil {
		t.Fatalf("loadInputs: %v", err)
	}
	if app.Config.OutputFile != "custom.geojson" {
		t.Errorf("OutputFile = %q, want custom.geojson", app.Config.OutputFile)
	}
	if app.Config.Workers != 4 {
		t.Errorf("Workers = %d, want 4", app.Config.Workers)
	}
}

func TestWriteSummaryJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "summary.json")
	summary := &zones.Summary{
		Territory:     "Test Territory",
		UnitsFetched:  2,
		TractsClipped: 5,
		FailedUnits:   []string{"51999"},
	}

	if err := writeSummaryJSON(summary, path); err != nil {
		t.Fatalf("writeSummaryJSON: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading summary: %v", err)
	}
	var got zones.Summary
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("summary is not valid JSON: %v", err)
	}
	if got.TractsClipped != 5 {
		t.Errorf("TractsClipped = %d, want 5", got.TractsClipped)
	}
	if len(got.FailedUnits) != 1 || got.FailedUnits[0] != "51999" {
		t.Errorf("FailedUnits = %v", got.FailedUnits)
	}
}
