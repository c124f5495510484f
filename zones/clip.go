package zones

import (
	"fmt"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/twpayne/go-geos"
)

// ClipResult carries the clipped dataset plus the count of tracts that fell
// entirely outside the territory (or degenerated to zero area) and were
// removed.
type ClipResult struct {
	Dataset        *ZoneDataset
	DroppedOutside int
}

// Clipper intersects tract geometries with a service-territory polygon.
// Tracts fully inside the boundary keep their original geometry; tracts
// straddling the edge are truncated to the intersection; tracts outside are
// dropped. The territory geometry is parsed into GEOS once and reused
// across Clip calls.
//
// A Clipper is not safe for concurrent use: all geometries share one GEOS
// context.
type Clipper struct {
	gctx     *geos.Context
	boundary *geos.Geom
	crs      string
}

// NewClipper prepares a clipper for the given boundary. Invalid boundary
// geometry (self-intersections and the like) is repaired up front so every
// subsequent intersection runs against clean input.
func NewClipper(b *ServiceBoundary) (*Clipper, error) {
	if b == nil {
		return nil, fmt.Errorf("clipper: nil boundary")
	}

	gctx := geos.NewContext()
	bg, err := geosFromOrb(gctx, b.Geometry)
	if err != nil {
		return nil, fmt.Errorf("clipper: boundary geometry: %w", err)
	}
	if !bg.IsValid() {
		bg = bg.MakeValid()
	}
	if bg.IsEmpty() {
		return nil, fmt.Errorf("clipper: boundary geometry is empty")
	}

	return &Clipper{gctx: gctx, boundary: bg, crs: b.CRS}, nil
}

// Clip intersects every tract in the dataset with the territory boundary
// and returns a new dataset in the same order and CRS. The dataset and
// boundary must share a CRS; a mismatch is a precondition failure reported
// before any geometry work, never a silent empty result.
func (c *Clipper) Clip(ds *ZoneDataset) (*ClipResult, error) {
	if ds.CRS() != c.crs {
		return nil, fmt.Errorf("clip: CRS mismatch: dataset is %s, boundary is %s", ds.CRS(), c.crs)
	}

	out := NewZoneDataset(ds.CRS())
	result := &ClipResult{Dataset: out}

	for _, t := range ds.Tracts() {
		tg, err := geosFromOrb(c.gctx, t.Geometry)
		if err != nil {
			return nil, fmt.Errorf("clip tract %s: %w", t.GEOID, err)
		}
		if !tg.IsValid() {
			tg = tg.MakeValid()
		}

		// Fully contained tracts keep their geometry byte-for-byte;
		// intersection would only reshuffle ring vertices.
		if c.boundary.Contains(tg) {
			out.Add(t)
			continue
		}

		inter := c.boundary.Intersection(tg)
		if inter == nil || inter.IsEmpty() || inter.Area() <= 0 {
			result.DroppedOutside++
			continue
		}

		geom, err := orbFromGeos(inter)
		if err != nil {
			return nil, fmt.Errorf("clip tract %s: %w", t.GEOID, err)
		}
		geom = polygonalOnly(geom)
		if geom == nil {
			result.DroppedOutside++
			continue
		}

		clipped := *t
		clipped.Geometry = geom
		out.Add(&clipped)
	}

	return result, nil
}

// Clip is a convenience wrapper for a single clip against a boundary.
func Clip(ds *ZoneDataset, b *ServiceBoundary) (*ClipResult, error) {
	c, err := NewClipper(b)
	if err != nil {
		return nil, err
	}
	return c.Clip(ds)
}

// geosFromOrb converts an orb geometry to a GEOS geometry via GeoJSON.
func geosFromOrb(gctx *geos.Context, geom orb.Geometry) (*geos.Geom, error) {
	if geom == nil {
		return nil, fmt.Errorf("nil geometry")
	}
	data, err := geojson.NewGeometry(geom).MarshalJSON()
	if err != nil {
		return nil, fmt.Errorf("encoding geometry: %w", err)
	}
	g, err := gctx.NewGeomFromGeoJSON(string(data))
	if err != nil {
		return nil, fmt.Errorf("parsing geometry into GEOS: %w", err)
	}
	return g, nil
}

// orbFromGeos converts a GEOS geometry back to an orb geometry.
func orbFromGeos(g *geos.Geom) (orb.Geometry, error) {
	gj, err := geojson.UnmarshalGeometry([]byte(g.ToGeoJSON(0)))
	if err != nil {
		return nil, fmt.Errorf("decoding GEOS geometry: %w", err)
	}
	return gj.Geometry(), nil
}

// polygonalOnly reduces a geometry to its polygonal parts. Intersections
// along a shared edge can produce lines or points (alone or inside a
// collection); those carry no canvassable area and are discarded.
func polygonalOnly(geom orb.Geometry) orb.Geometry {
	switch g := geom.(type) {
	case orb.Polygon, orb.MultiPolygon:
		return g
	case orb.Collection:
		var mp orb.MultiPolygon
		for _, member := range g {
			switch m := member.(type) {
			case orb.Polygon:
				mp = append(mp, m)
			case orb.MultiPolygon:
				mp = append(mp, m...)
			}
		}
		if len(mp) == 0 {
			return nil
		}
		if len(mp) == 1 {
			return mp[0]
		}
		return mp
	default:
		return nil
	}
}
