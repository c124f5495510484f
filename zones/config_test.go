package zones

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func validConfigYAML() string {
	return `territory: "Dominion Energy Virginia"
endpoint: "https://tigerweb.geo.census.gov/arcgis/rest/services/TIGERweb/tigerWMS_Current/MapServer/8/query"
units:
  "51760": "Richmond City"
  "51041": "Chesterfield County"
  "51087": "Henrico County"
eligibility_file: virginia_qct_2025.geojson
boundary_file: dominion_service_area.geojson
output_file: territory_zones.geojson
`
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "territory.yaml")
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatalf("write config fixture: %v", err)
	}
	return path
}

func TestLoadConfig_NotExists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nope.yaml")
	_, err := LoadConfig(path)
	if err == nil {
		t.Fatal("expected error for missing config file, got nil")
	}
}

func TestLoadConfig_ValidYAML(t *testing.T) {
	path := writeConfig(t, validConfigYAML())

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Territory != "Dominion Energy Virginia" {
		t.Errorf("Territory = %q", cfg.Territory)
	}
	if len(cfg.Units) != 3 {
		t.Fatalf("len(Units) = %d, want 3", len(cfg.Units))
	}

	// Defaults applied.
	if cfg.TargetCRS != CRSWGS84 {
		t.Errorf("TargetCRS default = %q, want %q", cfg.TargetCRS, CRSWGS84)
	}
	if cfg.FetchTimeout() != 30*time.Second {
		t.Errorf("FetchTimeout default = %v, want 30s", cfg.FetchTimeout())
	}
	if cfg.Workers != 1 {
		t.Errorf("Workers default = %d, want 1", cfg.Workers)
	}
}

func TestLoadConfig_Validation(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{
			name: "missing endpoint",
			yaml: `units:
  "51760": "Richmond City"
boundary_file: boundary.geojson
`,
		},
		{
			name: "no units",
			yaml: `endpoint: "https://example.com/query"
units: {}
boundary_file: boundary.geojson
`,
		},
		{
			name: "malformed unit ID",
			yaml: `endpoint: "https://example.com/query"
units:
  "5176": "Richmond City"
boundary_file: boundary.geojson
`,
		},
		{
			name: "non-digit unit ID",
			yaml: `endpoint: "https://example.com/query"
units:
  "51a60": "Richmond City"
boundary_file: boundary.geojson
`,
		},
		{
			name: "missing boundary file",
			yaml: `endpoint: "https://example.com/query"
units:
  "51760": "Richmond City"
`,
		},
		{
			name: "unsupported target CRS",
			yaml: `endpoint: "https://example.com/query"
units:
  "51760": "Richmond City"
boundary_file: boundary.geojson
target_crs: "EPSG:2283"
`,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			path := writeConfig(t, tc.yaml)
			_, err := LoadConfig(path)
			if err == nil {
				t.Errorf("expected validation error for %q, got nil", tc.name)
			}
		})
	}
}

func TestConfig_UnitListSorted(t *testing.T) {
	cfg := &Config{
		Units: map[string]string{
			"51760": "Richmond City",
			"51041": "Chesterfield County",
			"51087": "Henrico County",
		},
	}

	units := cfg.UnitList()
	want := []string{"51041", "51087", "51760"}
	if len(units) != len(want) {
		t.Fatalf("len(units) = %d, want %d", len(units), len(want))
	}
	for i, id := range want {
		if units[i].ID != id {
			t.Errorf("units[%d].ID = %s, want %s", i, units[i].ID, id)
		}
	}
}

func TestAdministrativeUnit_FIPSSplit(t *testing.T) {
	u := AdministrativeUnit{ID: "51760", Name: "Richmond City"}
	if err := u.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if u.StateFIPS() != "51" {
		t.Errorf("StateFIPS = %s, want 51", u.StateFIPS())
	}
	if u.CountyFIPS() != "760" {
		t.Errorf("CountyFIPS = %s, want 760", u.CountyFIPS())
	}
}
