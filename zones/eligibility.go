package zones

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/paulmach/orb/geojson"
)

// EligibilitySet is the set of tract GEOIDs that qualify. It is loaded once
// from a versioned external file and read-only for the pipeline's lifetime;
// the list is never compiled into the binary because its refresh cycle is
// outside this system's control.
type EligibilitySet map[string]struct{}

// NewEligibilitySet builds a set from the given GEOIDs.
func NewEligibilitySet(ids ...string) EligibilitySet {
	s := make(EligibilitySet, len(ids))
	for _, id := range ids {
		if id != "" {
			s[id] = struct{}{}
		}
	}
	return s
}

// Contains reports whether the GEOID is a member. Exact string equality
// only: GEOID is a fixed-format code, so there is nothing fuzzy to match.
func (s EligibilitySet) Contains(geoid string) bool {
	_, ok := s[geoid]
	return ok
}

// Len returns the number of GEOIDs in the set.
func (s EligibilitySet) Len() int {
	return len(s)
}

// LoadEligibilityList reads a qualifying-tract list from disk. Two formats
// are accepted: a GeoJSON FeatureCollection whose features carry a GEOID
// property (the shape of published QCT extracts), or a plain-text file with
// one GEOID per line ('#' lines are comments).
func LoadEligibilityList(path string) (EligibilitySet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading eligibility list: %w", err)
	}

	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		return eligibilityFromGeoJSON(trimmed)
	}
	return eligibilityFromLines(trimmed)
}

func eligibilityFromGeoJSON(data []byte) (EligibilitySet, error) {
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, fmt.Errorf("parsing eligibility GeoJSON: %w", err)
	}

	set := make(EligibilitySet, len(fc.Features))
	for _, f := range fc.Features {
		geoid, _ := f.Properties["GEOID"].(string)
		if geoid == "" {
			// Some extracts use the feature ID instead.
			geoid, _ = f.ID.(string)
		}
		if geoid != "" {
			set[geoid] = struct{}{}
		}
	}
	return set, nil
}

func eligibilityFromLines(data []byte) (EligibilitySet, error) {
	set := make(EligibilitySet)
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		set[line] = struct{}{}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading eligibility lines: %w", err)
	}
	return set, nil
}

// Filter returns the subset of the dataset whose GEOIDs are members of the
// eligibility set, preserving order and CRS. This is membership filtering:
// an empty set yields an empty result, never the full input.
func Filter(ds *ZoneDataset, set EligibilitySet) *ZoneDataset {
	out := NewZoneDataset(ds.CRS())
	for _, t := range ds.Tracts() {
		if set.Contains(t.GEOID) {
			out.Add(t)
		}
	}
	return out
}
