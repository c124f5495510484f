package zones

import (
	"fmt"
	"os"
	"sort"
	"time"

	"gopkg.in/yaml.v3"
)

// Config describes one territory build: which counties to fetch, where the
// eligibility list and service boundary live, and where the result goes.
// It is passed into the pipeline explicitly so multiple territories can be
// built from the same process without shared globals.
type Config struct {
	// Territory is a display name used in logs and the summary block.
	Territory string `yaml:"territory"`

	// Endpoint is the feature-service query URL (ArcGIS REST query
	// endpoint returning GeoJSON).
	Endpoint string `yaml:"endpoint"`

	// Units maps 5-digit state+county FIPS codes to display names.
	Units map[string]string `yaml:"units"`

	// TargetCRS is the CRS the output dataset is normalized to.
	// Defaults to EPSG:4326.
	TargetCRS string `yaml:"target_crs"`

	// FetchTimeoutSeconds bounds each per-unit fetch. Defaults to 30.
	FetchTimeoutSeconds int `yaml:"fetch_timeout_seconds"`

	// Workers is the number of concurrent unit fetches. Defaults to 1
	// (sequential). Results are merged in sorted unit order regardless.
	Workers int `yaml:"workers"`

	// EligibilityFile is the path to the qualifying-tract list, either a
	// GeoJSON FeatureCollection with GEOID properties or a plain-text
	// file with one GEOID per line.
	EligibilityFile string `yaml:"eligibility_file"`

	// BoundaryFile is the path to the service-territory GeoJSON.
	BoundaryFile string `yaml:"boundary_file"`

	// OutputFile is where the clipped zone dataset is written.
	OutputFile string `yaml:"output_file"`
}

// LoadConfig loads a territory configuration from a YAML file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config file not found: %s", path)
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("parsing config YAML: %w", err)
	}

	config.applyDefaults()
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

func (c *Config) applyDefaults() {
	if c.TargetCRS == "" {
		c.TargetCRS = CRSWGS84
	}
	if c.FetchTimeoutSeconds <= 0 {
		c.FetchTimeoutSeconds = 30
	}
	if c.Workers <= 0 {
		c.Workers = 1
	}
	if c.OutputFile == "" {
		c.OutputFile = "territory_zones.geojson"
	}
}

// Validate checks required fields. A missing boundary file path is a hard
// configuration error: without the territory polygon there is nothing to
// clip against.
func (c *Config) Validate() error {
	if c.Endpoint == "" {
		return fmt.Errorf("endpoint is required")
	}
	if len(c.Units) == 0 {
		return fmt.Errorf("at least one unit must be defined")
	}
	for id := range c.Units {
		u := AdministrativeUnit{ID: id}
		if err := u.Validate(); err != nil {
			return err
		}
	}
	if c.BoundaryFile == "" {
		return fmt.Errorf("boundary_file is required")
	}
	if c.TargetCRS != CRSWGS84 && c.TargetCRS != CRSWebMercator {
		return fmt.Errorf("target_crs %q is not supported (want %s or %s)", c.TargetCRS, CRSWGS84, CRSWebMercator)
	}
	return nil
}

// FetchTimeout returns the per-unit fetch timeout as a duration.
func (c *Config) FetchTimeout() time.Duration {
	return time.Duration(c.FetchTimeoutSeconds) * time.Second
}

// UnitList returns the configured units sorted by ID. The pipeline fetches
// and merges in this order so duplicate resolution is deterministic.
func (c *Config) UnitList() []AdministrativeUnit {
	units := make([]AdministrativeUnit, 0, len(c.Units))
	for id, name := range c.Units {
		units = append(units, AdministrativeUnit{ID: id, Name: name})
	}
	sort.Slice(units, func(i, j int) bool {
		return units[i].ID < units[j].ID
	})
	return units
}
