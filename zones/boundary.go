package zones

import (
	"fmt"
	"os"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// ServiceBoundary is the utility territory polygon the zone dataset is
// clipped against, tagged with the CRS its coordinates are expressed in.
type ServiceBoundary struct {
	Geometry orb.Geometry
	CRS      string
}

// LoadServiceBoundary reads the territory polygon from a GeoJSON file. A
// multi-feature document is collected into one MultiPolygon; overlap between
// features does not change intersection semantics, so no true union is
// needed here.
func LoadServiceBoundary(path string) (*ServiceBoundary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading boundary file: %w", err)
	}

	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, fmt.Errorf("parsing boundary GeoJSON: %w", err)
	}

	var mp orb.MultiPolygon
	for _, f := range fc.Features {
		switch g := f.Geometry.(type) {
		case orb.Polygon:
			mp = append(mp, g)
		case orb.MultiPolygon:
			mp = append(mp, g...)
		}
	}
	if len(mp) == 0 {
		return nil, fmt.Errorf("boundary file %s contains no polygonal features", path)
	}

	var geom orb.Geometry = mp
	if len(mp) == 1 {
		geom = mp[0]
	}

	return &ServiceBoundary{
		Geometry: geom,
		CRS:      documentCRS(fc),
	}, nil
}
