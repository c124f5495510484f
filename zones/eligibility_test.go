package zones

import (
	"os"
	"path/filepath"
	"testing"
)

func writeEligibility(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatalf("write eligibility fixture: %v", err)
	}
	return path
}

func TestLoadEligibilityList_TextLines(t *testing.T) {
	path := writeEligibility(t, "qct.txt", `# 2025 qualified census tracts
51760000100
51760000200

51041100100
`)

	set, err := LoadEligibilityList(path)
	if err != nil {
		t.Fatalf("LoadEligibilityList: %v", err)
	}
	if set.Len() != 3 {
		t.Fatalf("Len = %d, want 3", set.Len())
	}
	for _, id := range []string{"51760000100", "51760000200", "51041100100"} {
		if !set.Contains(id) {
			t.Errorf("set missing %s", id)
		}
	}
	if set.Contains("# 2025 qualified census tracts") {
		t.Error("comment line leaked into the set")
	}
}

func TestLoadEligibilityList_GeoJSON(t *testing.T) {
	path := writeEligibility(t, "qct.geojson", `{
  "type": "FeatureCollection",
  "features": [
    {"type": "Feature", "properties": {"GEOID": "51760000100"}, "geometry": null},
    {"type": "Feature", "id": "51760000200", "properties": {}, "geometry": null},
    {"type": "Feature", "properties": {"NAME": "no geoid"}, "geometry": null}
  ]
}`)

	set, err := LoadEligibilityList(path)
	if err != nil {
		t.Fatalf("LoadEligibilityList: %v", err)
	}
	if set.Len() != 2 {
		t.Fatalf("Len = %d, want 2", set.Len())
	}
	if !set.Contains("51760000100") || !set.Contains("51760000200") {
		t.Errorf("set = %v, missing expected GEOIDs", set)
	}
}

func TestLoadEligibilityList_Missing(t *testing.T) {
	_, err := LoadEligibilityList(filepath.Join(t.TempDir(), "nope.txt"))
	if err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestFilter_MembershipOnly(t *testing.T) {
	ds := NewZoneDataset(CRSWGS84)
	ds.Add(testTract("51760000100", "51760", square(0, 0, 1, 1)))
	ds.Add(testTract("51760000200", "51760", square(1, 0, 2, 1)))
	ds.Add(testTract("51041100100", "51041", square(2, 0, 3, 1)))

	got := Filter(ds, NewEligibilitySet("51760000200", "51041100100", "99999999999"))
	if got.Len() != 2 {
		t.Fatalf("Len = %d, want 2", got.Len())
	}
	if got.Get("51760000100") != nil {
		t.Error("ineligible tract survived the filter")
	}

	// Order of survivors matches the input dataset.
	ids := got.GEOIDs()
	if ids[0] != "51760000200" || ids[1] != "51041100100" {
		t.Errorf("order = %v", ids)
	}
	if got.CRS() != CRSWGS84 {
		t.Errorf("CRS = %q, want %q", got.CRS(), CRSWGS84)
	}
}

func TestFilter_EmptySetYieldsEmptyResult(t *testing.T) {
	ds := NewZoneDataset(CRSWGS84)
	ds.Add(testTract("51760000100", "51760", square(0, 0, 1, 1)))

	got := Filter(ds, NewEligibilitySet())
	if got.Len() != 0 {
		t.Errorf("empty set kept %d tracts, want 0 (membership, not pass-through)", got.Len())
	}
}

func TestFilter_NoMembersPresent(t *testing.T) {
	ds := NewZoneDataset(CRSWGS84)
	ds.Add(testTract("51760000100", "51760", square(0, 0, 1, 1)))

	got := Filter(ds, NewEligibilitySet("11001000100", "24510000200"))
	if got.Len() != 0 {
		t.Errorf("Len = %d, want 0 when no set member is in the dataset", got.Len())
	}
}

func TestFilter_AllEligible(t *testing.T) {
	ds := NewZoneDataset(CRSWGS84)
	ds.Add(testTract("51760000100", "51760", square(0, 0, 1, 1)))
	ds.Add(testTract("51760000200", "51760", square(1, 0, 2, 1)))

	got := Filter(ds, NewEligibilitySet("51760000100", "51760000200"))
	if got.Len() != ds.Len() {
		t.Errorf("Len = %d, want %d", got.Len(), ds.Len())
	}
}
