package query

// tombstoneLookup loads the tombstoned paths for one (project, ref).
// Satisfied by *store.Store in production and a stub in tests.
type tombstoneLookup interface {
	TombstonedPaths(projectID, ref string) (map[string]bool, error)
}

// TombstoneFilter memoizes tombstoned-path lookups for the lifetime of one
// query, so a result set spanning many candidates from the same
// (project, ref) only pays for one store round trip.
type TombstoneFilter struct {
	store tombstoneLookup
	cache map[string]map[string]bool
}

// NewTombstoneFilter builds a filter scoped to a single query.
func NewTombstoneFilter(store tombstoneLookup) *TombstoneFilter {
	return &TombstoneFilter{store: store, cache: make(map[string]map[string]bool)}
}

func (f *TombstoneFilter) pathsFor(projectID, ref string) (map[string]bool, error) {
	key := projectID + "\x00" + ref
	if paths, ok := f.cache[key]; ok {
		return paths, nil
	}
	paths, err := f.store.TombstonedPaths(projectID, ref)
	if err != nil {
		return nil, err
	}
	if paths == nil {
		paths = map[string]bool{}
	}
	f.cache[key] = paths
	return paths, nil
}

// Filter drops every result whose path is tombstoned for (projectID, ref),
// preserving order.
func (f *TombstoneFilter) Filter(results []Result, projectID, ref string) ([]Result, error) {
	tombstoned, err := f.pathsFor(projectID, ref)
	if err != nil {
		return nil, err
	}
	if len(tombstoned) == 0 {
		return results, nil
	}

	kept := results[:0:0]
	for _, r := range results {
		if tombstoned[r.Path] {
			continue
		}
		kept = append(kept, r)
	}
	return kept, nil
}
