package zones

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

const (
	// DefaultFetchTimeout is the default HTTP request timeout for a
	// per-unit boundary fetch.
	DefaultFetchTimeout = 30 * time.Second

	// maxResponseBytes limits the response body to 50 MB to prevent OOM
	// on a misbehaving endpoint.
	maxResponseBytes = 50 << 20

	// tractOutFields are the attribute fields requested from the feature
	// service for each tract.
	tractOutFields = "GEOID,NAME,STATE,COUNTY,CENTLAT,CENTLON,AREALAND"
)

// TractCollection is the result of one per-unit fetch: the tracts belonging
// to the unit, the CRS they were declared in (empty when the document
// carried none), and a count of features that were skipped because they had
// no usable GEOID or polygonal geometry.
type TractCollection struct {
	Unit    string
	CRS     string
	Tracts  []*Tract
	Skipped int
}

// ClientOption configures a SourceClient.
type ClientOption func(*SourceClient)

// WithTimeout sets the HTTP request timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *SourceClient) {
		c.timeout = d
	}
}

// WithHTTPClient overrides the default HTTP client (useful for testing).
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *SourceClient) {
		c.client = client
	}
}

// SourceClient fetches census tract boundaries for one administrative unit
// at a time from an ArcGIS-style feature query endpoint.
//
// The client performs no retries: a failed unit is reported to the caller
// as an error, the caller skips it, and the absence shows up in the run
// summary. Partial coverage is preferred over aborting the whole run.
type SourceClient struct {
	endpoint string
	timeout  time.Duration
	client   *http.Client
}

// NewSourceClient creates a client for the given feature-service query URL.
func NewSourceClient(endpoint string, opts ...ClientOption) *SourceClient {
	c := &SourceClient{
		endpoint: endpoint,
		timeout:  DefaultFetchTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.client == nil {
		c.client = &http.Client{Timeout: c.timeout}
	}
	return c
}

// FetchUnitTracts performs one query for all tracts in the given unit and
// returns them as a TractCollection. Network errors, non-200 statuses, and
// malformed payloads are returned as errors; the collection is nil in those
// cases.
func (c *SourceClient) FetchUnitTracts(ctx context.Context, unit AdministrativeUnit) (*TractCollection, error) {
	if c.endpoint == "" {
		return nil, fmt.Errorf("fetch unit %s: endpoint is empty", unit.ID)
	}
	if err := unit.Validate(); err != nil {
		return nil, fmt.Errorf("fetch unit: %w", err)
	}

	reqURL, err := c.buildQueryURL(unit)
	if err != nil {
		return nil, fmt.Errorf("fetch unit %s: %w", unit.ID, err)
	}

	body, err := c.doFetch(ctx, reqURL)
	if err != nil {
		return nil, fmt.Errorf("fetch unit %s: %w", unit.ID, err)
	}

	fc, err := geojson.UnmarshalFeatureCollection(body)
	if err != nil {
		return nil, fmt.Errorf("fetch unit %s: decoding GeoJSON: %w", unit.ID, err)
	}

	coll := &TractCollection{
		Unit: unit.ID,
		CRS:  documentCRS(fc),
	}
	for _, f := range fc.Features {
		t := featureToTract(f, unit.ID)
		if t == nil {
			coll.Skipped++
			continue
		}
		coll.Tracts = append(coll.Tracts, t)
	}

	return coll, nil
}

// buildQueryURL assembles the ArcGIS query for one unit: a WHERE clause on
// the state and county FIPS codes, the tract attribute fields, and GeoJSON
// output.
func (c *SourceClient) buildQueryURL(unit AdministrativeUnit) (string, error) {
	u, err := url.Parse(c.endpoint)
	if err != nil {
		return "", fmt.Errorf("parsing endpoint: %w", err)
	}

	q := u.Query()
	q.Set("where", fmt.Sprintf("STATE='%s' AND COUNTY='%s'", unit.StateFIPS(), unit.CountyFIPS()))
	q.Set("outFields", tractOutFields)
	q.Set("f", "geojson")
	u.RawQuery = q.Encode()

	return u.String(), nil
}

// doFetch performs a single HTTP GET and returns the response body bytes.
func (c *SourceClient) doFetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("HTTP GET: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP GET: status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	return body, nil
}

// featureToTract converts one GeoJSON feature to a Tract. Returns nil when
// the feature has no GEOID or no polygonal geometry; such features cannot
// participate in the pipeline.
func featureToTract(f *geojson.Feature, unitID string) *Tract {
	if f == nil {
		return nil
	}
	geoid, _ := f.Properties["GEOID"].(string)
	if geoid == "" {
		return nil
	}

	switch f.Geometry.(type) {
	case orb.Polygon, orb.MultiPolygon:
	default:
		return nil
	}

	name, _ := f.Properties["NAME"].(string)

	props := make(map[string]interface{}, len(f.Properties))
	for k, v := range f.Properties {
		props[k] = v
	}

	return &Tract{
		GEOID:      geoid,
		Name:       name,
		Unit:       unitID,
		Geometry:   f.Geometry,
		Properties: props,
	}
}

// documentCRS extracts the declared CRS name from a feature collection's
// extra members, normalizing the legacy CRS84 URN to EPSG:4326. Returns ""
// when no CRS member is present.
func documentCRS(fc *geojson.FeatureCollection) string {
	raw, ok := fc.ExtraMembers["crs"]
	if !ok {
		return ""
	}
	obj, ok := raw.(map[string]interface{})
	if !ok {
		return ""
	}
	props, ok := obj["properties"].(map[string]interface{})
	if !ok {
		return ""
	}
	name, _ := props["name"].(string)
	switch name {
	case "urn:ogc:def:crs:OGC:1.3:CRS84", "CRS84", "EPSG:4326", "urn:ogc:def:crs:EPSG::4326":
		return CRSWGS84
	case "EPSG:3857", "urn:ogc:def:crs:EPSG::3857":
		return CRSWebMercator
	}
	return name
}
