package zones

import (
	"fmt"
	"os"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// Supported coordinate reference systems. Tract boundaries arrive from the
// feature service in geodetic degrees; web map outputs sometimes want
// spherical mercator.
const (
	CRSWGS84       = "EPSG:4326"
	CRSWebMercator = "EPSG:3857"
)

// Tract is a single census tract: a GEOID, a display name, and a polygonal
// boundary. Tracts are created by the source client and flow through the
// pipeline unchanged except for CRS reprojection and clip-derived geometry
// replacement. The Unit field records which administrative unit the tract
// was fetched for.
type Tract struct {
	GEOID      string
	Name       string
	Unit       string
	Geometry   orb.Geometry
	Properties map[string]interface{}
}

// ToFeature converts the tract to a GeoJSON feature. The GEOID is used as
// the feature ID and is also guaranteed to be present in properties.
func (t *Tract) ToFeature() *geojson.Feature {
	f := geojson.NewFeature(t.Geometry)
	f.ID = t.GEOID

	props := make(geojson.Properties, len(t.Properties)+2)
	for k, v := range t.Properties {
		props[k] = v
	}
	props["GEOID"] = t.GEOID
	if t.Name != "" {
		props["NAME"] = t.Name
	}
	f.Properties = props
	return f
}

// ZoneDataset is an ordered mapping from GEOID to Tract, tagged with a
// single CRS. No two entries share a GEOID; insertion order is preserved so
// that a pipeline run over a sorted unit list produces deterministic output.
type ZoneDataset struct {
	crs     string
	order   []string
	entries map[string]*Tract
}

// NewZoneDataset creates an empty dataset tagged with the given CRS.
func NewZoneDataset(crs string) *ZoneDataset {
	return &ZoneDataset{
		crs:     crs,
		entries: make(map[string]*Tract),
	}
}

// CRS returns the coordinate reference system all entries share.
func (ds *ZoneDataset) CRS() string {
	return ds.crs
}

// Len returns the number of tracts in the dataset.
func (ds *ZoneDataset) Len() int {
	return len(ds.entries)
}

// Add inserts a tract, keeping the first-seen entry when the GEOID is
// already present. Returns false if the tract was a duplicate and was
// discarded.
func (ds *ZoneDataset) Add(t *Tract) bool {
	if t == nil || t.GEOID == "" {
		return false
	}
	if _, ok := ds.entries[t.GEOID]; ok {
		return false
	}
	ds.entries[t.GEOID] = t
	ds.order = append(ds.order, t.GEOID)
	return true
}

// Get returns the tract with the given GEOID, or nil if absent.
func (ds *ZoneDataset) Get(geoid string) *Tract {
	return ds.entries[geoid]
}

// GEOIDs returns the tract identifiers in insertion order.
func (ds *ZoneDataset) GEOIDs() []string {
	ids := make([]string, len(ds.order))
	copy(ids, ds.order)
	return ids
}

// Tracts returns the tracts in insertion order.
func (ds *ZoneDataset) Tracts() []*Tract {
	out := make([]*Tract, 0, len(ds.order))
	for _, id := range ds.order {
		out = append(out, ds.entries[id])
	}
	return out
}

// ToFeatureCollection converts the dataset to a GeoJSON FeatureCollection
// in insertion order.
func (ds *ZoneDataset) ToFeatureCollection() *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, id := range ds.order {
		fc.Append(ds.entries[id].ToFeature())
	}
	return fc
}

// WriteFile writes the dataset as a single GeoJSON document, the
// interchange format consumed by the map-rendering side.
func (ds *ZoneDataset) WriteFile(path string) error {
	data, err := ds.ToFeatureCollection().MarshalJSON()
	if err != nil {
		return fmt.Errorf("marshal zone dataset: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write zone dataset: %w", err)
	}
	return nil
}
