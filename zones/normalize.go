package zones

import (
	"fmt"
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/project"
)

// NormalizeCollection aligns a fetched tract collection to the target CRS
// and sanitizes non-JSON-serializable attribute values. A collection with
// no declared CRS is assumed to be in geodetic degrees (EPSG:4326) before
// reprojection, which matches what the feature service actually returns.
//
// Normalization is idempotent: a collection already in the target CRS is
// returned with geometry untouched.
func NormalizeCollection(coll *TractCollection, targetCRS string) (*TractCollection, error) {
	if coll == nil {
		return nil, fmt.Errorf("normalize: nil collection")
	}

	sourceCRS := coll.CRS
	if sourceCRS == "" {
		sourceCRS = CRSWGS84
	}

	for _, t := range coll.Tracts {
		if sourceCRS != targetCRS {
			geom, err := reprojectGeometry(t.Geometry, sourceCRS, targetCRS)
			if err != nil {
				return nil, fmt.Errorf("normalize unit %s tract %s: %w", coll.Unit, t.GEOID, err)
			}
			t.Geometry = geom
		}
		sanitizeProperties(t.Properties)
	}

	coll.CRS = targetCRS
	return coll, nil
}

// NormalizeBoundary aligns a service boundary to the target CRS, assuming
// EPSG:4326 when the boundary document declared none.
func NormalizeBoundary(b *ServiceBoundary, targetCRS string) error {
	if b == nil {
		return fmt.Errorf("normalize: nil boundary")
	}

	sourceCRS := b.CRS
	if sourceCRS == "" {
		sourceCRS = CRSWGS84
	}

	if sourceCRS != targetCRS {
		geom, err := reprojectGeometry(b.Geometry, sourceCRS, targetCRS)
		if err != nil {
			return fmt.Errorf("normalize boundary: %w", err)
		}
		b.Geometry = geom
	}

	b.CRS = targetCRS
	return nil
}

// reprojectGeometry converts a geometry between the supported reference
// systems. An unsupported pair is an error rather than a silent pass-through
// so a misconfigured CRS cannot leak into the clip stage.
func reprojectGeometry(geom orb.Geometry, from, to string) (orb.Geometry, error) {
	if from == to {
		return geom, nil
	}

	switch {
	case from == CRSWGS84 && to == CRSWebMercator:
		return project.Geometry(geom, project.WGS84.ToMercator), nil
	case from == CRSWebMercator && to == CRSWGS84:
		return project.Geometry(geom, project.Mercator.ToWGS84), nil
	default:
		return nil, fmt.Errorf("unsupported reprojection %s -> %s", from, to)
	}
}

// sanitizeProperties converts attribute values that do not survive JSON
// serialization to their string representation. Geometry is never touched.
func sanitizeProperties(props map[string]interface{}) {
	for k, v := range props {
		switch val := v.(type) {
		case time.Time:
			props[k] = val.Format(time.RFC3339)
		case *time.Time:
			if val != nil {
				props[k] = val.Format(time.RFC3339)
			} else {
				delete(props, k)
			}
		case []byte:
			props[k] = string(val)
		}
	}
}
