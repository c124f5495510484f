package zones

import "fmt"

// AggregateResult carries the merged dataset plus the counts operators need
// to detect partial coverage or unexpected duplication.
type AggregateResult struct {
	Dataset    *ZoneDataset
	Total      int
	Duplicates int
}

// Aggregate merges per-unit tract collections into a single deduplicated
// ZoneDataset. Two tracts with the same GEOID fetched from different calls
// are resolved by keeping the first-seen entry; callers pass collections in
// sorted unit order, so the outcome is deterministic.
//
// Every collection must already be normalized to the dataset CRS; a
// mismatch here is a programming error, not data noise.
func Aggregate(colls []*TractCollection, crs string) (*AggregateResult, error) {
	ds := NewZoneDataset(crs)
	result := &AggregateResult{Dataset: ds}

	for _, coll := range colls {
		if coll == nil {
			continue
		}
		if coll.CRS != crs {
			return nil, fmt.Errorf("aggregate: unit %s collection is in %s, dataset wants %s (normalize first)", coll.Unit, coll.CRS, crs)
		}
		for _, t := range coll.Tracts {
			result.Total++
			if !ds.Add(t) {
				result.Duplicates++
			}
		}
	}

	return result, nil
}
