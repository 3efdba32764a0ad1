package state

import (
	"fmt"

	"github.com/cruxe/cruxe/internal/lock"
	"github.com/cruxe/cruxe/internal/store"
)

// ImportResult reports what Import did beyond unpacking the bundle, for
// the CLI to print to the operator.
type ImportResult struct {
	Metadata           Metadata
	Remapped           bool
	ReindexRecommended bool
}

// Import runs the full import lifecycle spec.md §4.14 describes: holds
// the project maintenance lock for the whole operation, unpacks and
// promotes the bundle via ImportBundle, remaps every per-ref table's
// project_id if the bundle's embedded id differs from localProjectID,
// and marks every existing ref stale so the next query against it
// re-validates freshness rather than trusting cached state.
func Import(bundlePath, dataDir, localProjectID string) (ImportResult, error) {
	var result ImportResult

	pl, err := lock.Acquire(dataDir, "state_import")
	if err != nil {
		return result, err
	}
	defer pl.Release()

	meta, err := ImportBundle(bundlePath, dataDir)
	if err != nil {
		return result, err
	}
	result.Metadata = meta

	st, err := store.OpenInDataDir(dataDir, store.Config{})
	if err != nil {
		return result, fmt.Errorf("open imported store: %w", err)
	}
	defer st.Close()

	if meta.ProjectID != localProjectID {
		if err := st.RemapProjectID(meta.ProjectID, localProjectID); err != nil {
			return result, fmt.Errorf("remap project id: %w", err)
		}
		result.Remapped = true
	}

	if err := st.SetAllBranchesStale(localProjectID); err != nil {
		return result, fmt.Errorf("mark branches stale: %w", err)
	}

	result.ReindexRecommended = meta.ParserVersion != cruxeParserVersion
	return result, nil
}

// Export runs the export lifecycle: holds the project maintenance lock
// for the duration of the archive write, so a concurrent sync/index
// cannot mutate the data directory mid-export.
func Export(dataDir, bundlePath, projectID, repoRoot string) error {
	pl, err := lock.Acquire(dataDir, "state_export")
	if err != nil {
		return err
	}
	defer pl.Release()

	return ExportBundle(dataDir, bundlePath, NewMetadata(projectID, repoRoot))
}
