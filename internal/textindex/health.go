package textindex

import "fmt"

// IndexHealth is one index's health check result.
type IndexHealth struct {
	Kind    Kind
	Healthy bool
	Message string
}

// HealthCheck iterates every index in the set, verifying it is open and
// can be searched, returning one result per kind with an actionable
// message on failure.
func HealthCheck(set *IndexSet) []IndexHealth {
	checks := []struct {
		kind Kind
		idx  *Index
	}{
		{KindSymbols, set.Symbols},
		{KindSnippets, set.Snippets},
		{KindFiles, set.Files},
	}

	results := make([]IndexHealth, 0, len(checks))
	for _, c := range checks {
		h := IndexHealth{Kind: c.kind, Healthy: true}
		if c.idx == nil {
			h.Healthy = false
			h.Message = fmt.Sprintf("index %q was not opened", c.kind)
			results = append(results, h)
			continue
		}
		func() {
			defer func() {
				if r := recover(); r != nil {
					h.Healthy = false
					h.Message = fmt.Sprintf("index %q searcher panicked: %v", c.kind, r)
				}
			}()
			c.idx.Search("health-check-probe", 1)
		}()
		if h.Message == "" {
			h.Message = fmt.Sprintf("index %q ok (%d documents)", c.kind, c.idx.DocCount())
		}
		results = append(results, h)
	}
	return results
}
