package zones

import (
	"context"
	"fmt"
	"log"
	"sort"
	"sync"
)

// Summary records what a pipeline run actually did, so operators can tell
// partial coverage and empty-but-valid results apart from failures. Empty
// terminal states (no units fetched, no eligible tracts, empty clip) are
// not errors; they show up here as zero counts alongside the failure list.
type Summary struct {
	Territory         string   `json:"territory"`
	UnitsRequested    int      `json:"unitsRequested"`
	UnitsFetched      int      `json:"unitsFetched"`
	FailedUnits       []string `json:"failedUnits"`
	FeaturesSkipped   int      `json:"featuresSkipped"`
	TractsFetched     int      `json:"tractsFetched"`
	DuplicatesDropped int      `json:"duplicatesDropped"`
	TractsUnique      int      `json:"tractsUnique"`
	TractsEligible    int      `json:"tractsEligible"`
	TractsClipped     int      `json:"tractsClipped"`
	DroppedOutside    int      `json:"droppedOutside"`
}

// Pipeline wires the stages together: fetch per-unit tract boundaries,
// normalize CRS, aggregate and deduplicate, filter by the eligibility list,
// and clip to the service territory. The pipeline computes the zone
// dataset; rendering it is someone else's job.
type Pipeline struct {
	config      *Config
	client      *SourceClient
	eligibility EligibilitySet
	boundary    *ServiceBoundary
}

// NewPipeline assembles a pipeline from its collaborators. The eligibility
// set and boundary are read-only for the run's lifetime.
func NewPipeline(config *Config, client *SourceClient, eligibility EligibilitySet, boundary *ServiceBoundary) *Pipeline {
	return &Pipeline{
		config:      config,
		client:      client,
		eligibility: eligibility,
		boundary:    boundary,
	}
}

// Run executes the full pipeline and returns the clipped zone dataset plus
// a run summary. Failed units are skipped and recorded, never fatal; a CRS
// misconfiguration or an unusable boundary aborts the run.
func (p *Pipeline) Run(ctx context.Context) (*ZoneDataset, *Summary, error) {
	units := p.config.UnitList()
	summary := &Summary{
		Territory:      p.config.Territory,
		UnitsRequested: len(units),
		FailedUnits:    []string{},
	}

	log.Printf("fetching tract boundaries for %d units", len(units))
	fetched, failed, err := p.fetchAll(ctx, units)
	if err != nil {
		return nil, nil, err
	}
	summary.FailedUnits = failed
	summary.UnitsFetched = len(fetched)

	// Normalize and merge in sorted unit order so duplicate resolution
	// is deterministic.
	colls := make([]*TractCollection, 0, len(fetched))
	for _, coll := range fetched {
		normalized, err := NormalizeCollection(coll, p.config.TargetCRS)
		if err != nil {
			return nil, nil, err
		}
		summary.FeaturesSkipped += normalized.Skipped
		colls = append(colls, normalized)
	}

	agg, err := Aggregate(colls, p.config.TargetCRS)
	if err != nil {
		return nil, nil, err
	}
	summary.TractsFetched = agg.Total
	summary.DuplicatesDropped = agg.Duplicates
	summary.TractsUnique = agg.Dataset.Len()
	log.Printf("aggregated %d tracts (%d unique, %d duplicates dropped)",
		agg.Total, agg.Dataset.Len(), agg.Duplicates)

	eligible := Filter(agg.Dataset, p.eligibility)
	summary.TractsEligible = eligible.Len()
	log.Printf("eligibility filter: %d of %d tracts qualify (list has %d entries)",
		eligible.Len(), agg.Dataset.Len(), p.eligibility.Len())

	if err := NormalizeBoundary(p.boundary, p.config.TargetCRS); err != nil {
		return nil, nil, err
	}

	clip, err := Clip(eligible, p.boundary)
	if err != nil {
		return nil, nil, err
	}
	summary.TractsClipped = clip.Dataset.Len()
	summary.DroppedOutside = clip.DroppedOutside
	log.Printf("clipped to territory: %d tracts kept, %d outside boundary",
		clip.Dataset.Len(), clip.DroppedOutside)

	return clip.Dataset, summary, nil
}

// fetchAll fetches every unit, sequentially by default or with a bounded
// worker pool when config.Workers > 1. Either way the returned collections
// are ordered by unit ID (a join barrier, then a sorted merge), so the
// aggregation downstream does not depend on scheduling order.
func (p *Pipeline) fetchAll(ctx context.Context, units []AdministrativeUnit) ([]*TractCollection, []string, error) {
	results := make(map[string]*TractCollection, len(units))
	var failed []string

	if p.config.Workers <= 1 {
		for i, unit := range units {
			if err := ctx.Err(); err != nil {
				return nil, nil, fmt.Errorf("fetch cancelled: %w", err)
			}
			coll, err := p.fetchUnit(ctx, unit)
			if err != nil {
				log.Printf("  [%d/%d] unit %s (%s): %v -- skipping", i+1, len(units), unit.ID, unit.Name, err)
				failed = append(failed, unit.ID)
				continue
			}
			log.Printf("  [%d/%d] unit %s (%s): %d tracts", i+1, len(units), unit.ID, unit.Name, len(coll.Tracts))
			results[unit.ID] = coll
		}
	} else {
		var mu sync.Mutex
		var wg sync.WaitGroup
		work := make(chan AdministrativeUnit)

		for w := 0; w < p.config.Workers; w++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for unit := range work {
					coll, err := p.fetchUnit(ctx, unit)
					mu.Lock()
					if err != nil {
						log.Printf("  unit %s (%s): %v -- skipping", unit.ID, unit.Name, err)
						failed = append(failed, unit.ID)
					} else {
						log.Printf("  unit %s (%s): %d tracts", unit.ID, unit.Name, len(coll.Tracts))
						results[unit.ID] = coll
					}
					mu.Unlock()
				}
			}()
		}

		for _, unit := range units {
			if err := ctx.Err(); err != nil {
				break
			}
			work <- unit
		}
		close(work)
		wg.Wait()

		if err := ctx.Err(); err != nil {
			return nil, nil, fmt.Errorf("fetch cancelled: %w", err)
		}
	}

	sort.Strings(failed)
	if failed == nil {
		failed = []string{}
	}

	ordered := make([]*TractCollection, 0, len(results))
	for _, unit := range units {
		if coll, ok := results[unit.ID]; ok {
			ordered = append(ordered, coll)
		}
	}
	return ordered, failed, nil
}

// fetchUnit performs one bounded fetch.
func (p *Pipeline) fetchUnit(ctx context.Context, unit AdministrativeUnit) (*TractCollection, error) {
	fetchCtx, cancel := context.WithTimeout(ctx, p.config.FetchTimeout())
	defer cancel()
	return p.client.FetchUnitTracts(fetchCtx, unit)
}
