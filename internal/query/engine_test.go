package query

import (
	"context"
	"testing"

	"github.com/cruxe/cruxe/internal/ids"
	"github.com/cruxe/cruxe/internal/textindex"
)

func buildTestOverlay(t *testing.T, dataDir, ref string) {
	t.Helper()
	dir := ids.OverlayDirForRef(dataDir, ref)
	set, err := textindex.OpenAt(dir)
	if err != nil {
		t.Fatalf("open test overlay: %v", err)
	}

	set.Symbols.Add(textindex.NewSymbolDocument(
		"sym:helper", ref, "helper.go", "go", "sym1", "sym1@live", "Helper", "demo.Helper", "function", "func Helper()", "public", 3, 5))
	set.Snippets.Add(textindex.NewSnippetDocument(
		"snip:helper", ref, "helper.go", "go", "function", "func Helper() { return 1 }", 3, 5))

	if err := set.Commit(); err != nil {
		t.Fatalf("commit test overlay: %v", err)
	}
}

func TestSearchSymbolIntentReturnsRankedResults(t *testing.T) {
	dataDir := t.TempDir()
	buildTestOverlay(t, dataDir, "live")
	store := &stubTombstoneStore{paths: map[string]bool{}}

	resp, err := Search(context.Background(), store, dataDir, "proj1", Request{Query: "Helper", LiveSentinel: "live"})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if resp.Plan.Intent != IntentSymbol {
		t.Fatalf("intent = %q, want symbol", resp.Plan.Intent)
	}
	if len(resp.Results) == 0 {
		t.Fatal("expected at least one result")
	}
	if resp.Results[0].Name != "Helper" {
		t.Fatalf("top result = %+v, want Helper", resp.Results[0])
	}
	if len(resp.RankingReasons) != len(resp.Results) {
		t.Fatalf("ranking reasons length %d != results length %d", len(resp.RankingReasons), len(resp.Results))
	}
}

func TestSearchFiltersTombstonedPaths(t *testing.T) {
	dataDir := t.TempDir()
	buildTestOverlay(t, dataDir, "live")
	store := &stubTombstoneStore{paths: map[string]bool{"helper.go": true}}

	resp, err := Search(context.Background(), store, dataDir, "proj1", Request{Query: "Helper", LiveSentinel: "live"})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(resp.Results) != 0 {
		t.Fatalf("expected all results tombstoned, got %+v", resp.Results)
	}
	if resp.SuppressedTombstoned == 0 {
		t.Fatalf("expected SuppressedTombstoned > 0")
	}
}

func TestSearchReturnsRefNotIndexedForMissingOverlay(t *testing.T) {
	dataDir := t.TempDir()
	store := &stubTombstoneStore{paths: map[string]bool{}}

	_, err := Search(context.Background(), store, dataDir, "proj1", Request{Query: "Helper", LiveSentinel: "live"})
	if err == nil {
		t.Fatal("expected error for missing overlay")
	}
}
