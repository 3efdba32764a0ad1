package store

// MaxTraverseDepth is the hard bound on get_call_graph / get_symbol_hierarchy
// BFS depth named in the design notes.
const MaxTraverseDepth = 5

// TraverseResult holds BFS traversal results over symbol_edges.
type TraverseResult struct {
	Visited []*SymbolHop
	Edges   []*Edge
}

// SymbolHop is a symbol_stable_id with its BFS hop distance from the root.
type SymbolHop struct {
	SymbolStableID string
	Hop            int
}

// BFS performs breadth-first traversal over symbol_edges from
// startSymbolID, following edges of the given types (empty means all).
// direction "callees"/"descendants" follows from->to; "callers"/"ancestors"
// follows to->from. A maxDepth outside [1, MaxTraverseDepth] is replaced
// by MaxTraverseDepth, and maxResults bounds total visited nodes. The visited set is keyed by
// symbol_stable_id, so a symbol reachable via multiple paths is only
// queued once.
func (s *Store) BFS(projectID, ref, startSymbolID, direction string, edgeTypes []string, maxDepth, maxResults int) (*TraverseResult, error) {
	if maxDepth <= 0 || maxDepth > MaxTraverseDepth {
		maxDepth = MaxTraverseDepth
	}
	if maxResults <= 0 {
		maxResults = 200
	}
	forward := direction == "callees" || direction == "descendants"

	result := &TraverseResult{}
	visited := map[string]bool{startSymbolID: true}

	type queueItem struct {
		symbolID string
		hop      int
	}
	queue := []queueItem{{startSymbolID, 0}}

	for len(queue) > 0 && len(result.Visited) < maxResults {
		item := queue[0]
		queue = queue[1:]

		if item.hop >= maxDepth {
			continue
		}

		var edges []*Edge
		var err error
		if forward {
			edges, err = s.FindEdgesFrom(projectID, ref, item.symbolID, edgeTypes)
		} else {
			edges, err = s.FindEdgesTo(projectID, ref, item.symbolID, edgeTypes)
		}
		if err != nil {
			return nil, err
		}

		for _, e := range edges {
			result.Edges = append(result.Edges, e)

			var next string
			if forward {
				next = e.ToSymbolID
			} else {
				next = e.FromSymbolID
			}
			if next == "" || visited[next] {
				continue
			}
			visited[next] = true
			result.Visited = append(result.Visited, &SymbolHop{SymbolStableID: next, Hop: item.hop + 1})
			queue = append(queue, queueItem{next, item.hop + 1})

			if len(result.Visited) >= maxResults {
				break
			}
		}
	}

	return result, nil
}
