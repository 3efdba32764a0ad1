// Package indexer runs full and incremental indexing jobs: it discovers a
// project's source files, extracts symbols/call sites/imports via
// internal/extractor, writes symbol and edge rows to internal/store, and
// publishes the per-ref text indices via internal/overlay's staging
// protocol.
package indexer

import (
	"bufio"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/cruxe/cruxe/internal/advisor"
	"github.com/cruxe/cruxe/internal/discover"
	"github.com/cruxe/cruxe/internal/extractor"
	"github.com/cruxe/cruxe/internal/fqn"
	"github.com/cruxe/cruxe/internal/ids"
	"github.com/cruxe/cruxe/internal/lock"
	"github.com/cruxe/cruxe/internal/overlay"
	"github.com/cruxe/cruxe/internal/semantic"
	"github.com/cruxe/cruxe/internal/store"
	"github.com/cruxe/cruxe/internal/textindex"
	"github.com/cruxe/cruxe/internal/vcs"
)

// Mode selects full vs. incremental indexing.
type Mode string

const (
	ModeFull        Mode = "full"
	ModeIncremental Mode = "incremental"
)

// contentHeadLines is how many leading lines of a file are stored as
// content_head for the files index's preview snippet.
const contentHeadLines = 20

// ProgressNotifier receives counter updates mid-job when the caller
// registered a progress_token. Optional; Indexer.Progress may be nil.
type ProgressNotifier interface {
	Notify(progressToken string, filesScanned, filesIndexed, symbolsExtracted, changedFiles int)
}

// Options configures a single indexing run.
type Options struct {
	JobID         string
	ExplicitRef   string // overrides VCS HEAD / "live" resolution when set
	Mode          Mode
	ProgressToken string
}

// Result summarizes a completed (published or failed) job.
type Result struct {
	Ref              string
	FilesScanned     int
	FilesIndexed     int
	SymbolsExtracted int
	ChangedFiles     int
	DeletedFiles     int
	DurationMS       int64
}

// Indexer runs indexing jobs for one project against its data directory.
type Indexer struct {
	Store     *store.Store
	DataDir   string
	RepoRoot  string
	ProjectID string
	Extractor extractor.Extractor
	Progress  ProgressNotifier
	// Semantic is an optional vector-search provider. When set, every
	// changed symbol's snippet is indexed into it right after the job's
	// overlay publishes, giving search_code's hybrid channel real
	// documents to match against — gated per job by RecommendProfile: a
	// fast_local recommendation skips the vector store entirely rather
	// than pay its latency for a repo/budget where it won't be used.
	Semantic semantic.Provider
	// SemanticTargetLatencyMS feeds advisor.RecommendProfile's latency
	// input; zero uses defaultSemanticTargetLatencyMS.
	SemanticTargetLatencyMS int

	pendingSemanticDocs []semantic.Document
	semanticEnabled     bool
}

// defaultSemanticTargetLatencyMS is the query latency budget assumed when
// a caller doesn't set SemanticTargetLatencyMS, chosen to land in
// RecommendProfile's "code_quality" middle ground rather than either
// extreme.
const defaultSemanticTargetLatencyMS = 400

// New builds an Indexer with the default generic extractor.
func New(s *store.Store, dataDir, repoRoot, projectID string) *Indexer {
	return &Indexer{
		Store:     s,
		DataDir:   dataDir,
		RepoRoot:  repoRoot,
		ProjectID: projectID,
		Extractor: extractor.New(),
	}
}

// Run acquires the maintenance lock, resolves the effective ref, and runs
// a full or incremental index job against it, publishing the result
// atomically via C7's staging→overlay protocol. On any fatal error the
// job row is marked "failed"; on success it is marked "published".
func (ix *Indexer) Run(ctx context.Context, opts Options) (*Result, error) {
	start := time.Now()

	projectLock, err := lock.Acquire(ix.DataDir, "index")
	if err != nil {
		return nil, err
	}
	defer projectLock.Release()

	ref, err := vcs.ResolveRef(ix.RepoRoot, opts.ExplicitRef, ids.DefaultRef)
	if err != nil {
		return nil, fmt.Errorf("resolve ref: %w", err)
	}

	mode := opts.Mode
	if mode == "" {
		mode = ModeIncremental
	}

	// InsertJob is a no-op if the job manager already recorded this job_id
	// as "queued" before spawning the worker; it only creates the row when
	// Run is invoked directly (e.g. from tests or a synchronous CLI path).
	if err := ix.Store.InsertJob(&store.IndexJob{
		JobID:         opts.JobID,
		ProjectID:     ix.ProjectID,
		Ref:           ref,
		Mode:          string(mode),
		Status:        "queued",
		ProgressToken: opts.ProgressToken,
		PID:           os.Getpid(),
	}); err != nil {
		return nil, fmt.Errorf("insert job: %w", err)
	}
	if err := ix.Store.MarkJobRunning(opts.JobID, ref, os.Getpid()); err != nil {
		return nil, fmt.Errorf("mark job running: %w", err)
	}

	result, runErr := ix.runJob(ctx, ref, mode, opts)

	status := "published"
	if runErr != nil {
		status = "failed"
		slog.Error("indexer.job.failed", "job_id", opts.JobID, "project", ix.ProjectID, "ref", ref, "err", runErr)
	}
	durationMS := time.Since(start).Milliseconds()
	if err := ix.Store.FinishJob(opts.JobID, status, durationMS); err != nil {
		slog.Error("indexer.job.finish_failed", "job_id", opts.JobID, "err", err)
	}

	if runErr != nil {
		return nil, runErr
	}
	result.DurationMS = durationMS
	return result, nil
}

func (ix *Indexer) runJob(ctx context.Context, ref string, mode Mode, opts Options) (*Result, error) {
	ix.pendingSemanticDocs = nil

	if err := ix.Store.UpsertProject(&store.Project{
		ProjectID:     ix.ProjectID,
		RepoRoot:      ix.RepoRoot,
		DisplayName:   filepath.Base(ix.RepoRoot),
		DefaultRef:    ref,
		VCSMode:       string(vcs.DetectMode(ix.RepoRoot)),
		SchemaVersion: store.SchemaVersion,
		ParserVersion: ids.ParserVersion,
	}); err != nil {
		return nil, fmt.Errorf("upsert project: %w", err)
	}

	discovered, err := discover.Discover(ctx, ix.RepoRoot, nil)
	if err != nil {
		return nil, fmt.Errorf("discover: %w", err)
	}

	previous, err := ix.Store.GetFileManifest(ix.ProjectID, ref)
	if err != nil {
		return nil, fmt.Errorf("load file manifest: %w", err)
	}

	current := make(map[string]discoveredFile, len(discovered))
	for _, f := range discovered {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		hash, err := hashFile(f.Path)
		if err != nil {
			slog.Warn("indexer.hash_failed", "path", f.RelPath, "err", err)
			continue
		}
		current[f.RelPath] = discoveredFile{FileInfo: f, ContentHash: hash}
	}

	ix.semanticEnabled = false
	if ix.Semantic != nil {
		languageCounts := make(map[string]int)
		for _, f := range current {
			languageCounts[string(f.Language)]++
		}
		latencyBudget := ix.SemanticTargetLatencyMS
		if latencyBudget <= 0 {
			latencyBudget = defaultSemanticTargetLatencyMS
		}
		profile := advisor.RecommendProfile(advisor.Input{
			FileCount:       len(current),
			LanguageCounts:  languageCounts,
			TargetLatencyMS: latencyBudget,
		})
		ix.semanticEnabled = profile.Profile != "fast_local"
		slog.Info("indexer.semantic_profile", "ref", ref, "profile", profile.Profile,
			"repo_size_bucket", profile.RepoSizeBucket, "reasons", profile.ReasonCodes, "enabled", ix.semanticEnabled)
	}

	var changedPaths, unchangedPaths, deletedPaths []string
	for path, f := range current {
		prev, existed := previous[path]
		if mode == ModeFull || !existed || prev.ContentHash != f.ContentHash {
			changedPaths = append(changedPaths, path)
		} else {
			unchangedPaths = append(unchangedPaths, path)
		}
	}
	for path := range previous {
		if _, ok := current[path]; !ok {
			deletedPaths = append(deletedPaths, path)
		}
	}

	syncID := uuid.NewString()
	_, stagingSet, err := overlay.CreateStagingIndexSet(ix.DataDir, syncID)
	if err != nil {
		return nil, fmt.Errorf("create staging index set: %w", err)
	}

	if err := ix.carryForwardUnchanged(ref, unchangedPaths, stagingSet); err != nil {
		_ = overlay.RollbackStaging(ix.DataDir, syncID)
		return nil, fmt.Errorf("carry forward unchanged files: %w", err)
	}

	result := &Result{
		Ref:          ref,
		FilesScanned: len(current),
		DeletedFiles: len(deletedPaths),
		ChangedFiles: len(changedPaths),
	}

	txErr := ix.Store.WithTransaction(func(txStore *store.Store) error {
		orig := ix.Store
		ix.Store = txStore
		defer func() { ix.Store = orig }()

		for _, path := range deletedPaths {
			if err := ix.removeDeletedFile(ref, path); err != nil {
				return fmt.Errorf("remove deleted file %s: %w", path, err)
			}
		}

		for i, path := range changedPaths {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			f := current[path]
			symbolsExtracted, err := ix.indexFile(opts.JobID, ref, f, stagingSet)
			if err != nil {
				slog.Warn("indexer.file_failed", "path", path, "err", err)
				continue
			}
			result.FilesIndexed++
			result.SymbolsExtracted += symbolsExtracted

			if opts.ProgressToken != "" && ix.Progress != nil {
				ix.Progress.Notify(opts.ProgressToken, result.FilesScanned, result.FilesIndexed, result.SymbolsExtracted, result.ChangedFiles)
			}
			if err := ix.Store.UpdateJobCounters(opts.JobID, result.FilesScanned, i+1, result.SymbolsExtracted, result.ChangedFiles); err != nil {
				return fmt.Errorf("update job counters: %w", err)
			}
		}

		return nil
	})
	if txErr != nil {
		_ = overlay.RollbackStaging(ix.DataDir, syncID)
		return nil, txErr
	}

	if err := stagingSet.Commit(); err != nil {
		_ = overlay.RollbackStaging(ix.DataDir, syncID)
		return nil, fmt.Errorf("commit staging index set: %w", err)
	}

	publish, err := overlay.CommitStagingToOverlay(ix.DataDir, syncID, ref)
	if err != nil {
		return nil, fmt.Errorf("publish overlay: %w", err)
	}

	if err := ix.Store.UpsertBranchState(ix.ProjectID, &store.BranchState{
		Ref:            ref,
		Status:         "active",
		LastAccessedAt: store.Now(),
		OverlayDir:     publish.OverlayDir,
	}); err != nil {
		_ = overlay.RollbackOverlayPublish(publish)
		return nil, fmt.Errorf("update branch state: %w", err)
	}

	if err := overlay.FinalizeOverlayPublish(publish); err != nil {
		slog.Warn("indexer.finalize_publish_failed", "ref", ref, "err", err)
	}

	if ix.Semantic != nil && len(ix.pendingSemanticDocs) > 0 {
		// Best-effort: the vector store mirrors the published overlay but
		// never gates it; a down Qdrant must not fail an otherwise-good
		// indexing job.
		if err := ix.Semantic.Index(ctx, ix.ProjectID, ref, ix.pendingSemanticDocs); err != nil {
			slog.Warn("indexer.semantic_index_failed", "ref", ref, "err", err)
		}
	}

	return result, nil
}

type discoveredFile struct {
	discover.FileInfo
	ContentHash string
}

// carryForwardUnchanged copies the existing overlay's symbol/snippet/file
// documents for every unchanged path into the new staging set, so an
// incremental job's text index remains a complete per-ref snapshot even
// though only changed files are re-extracted.
func (ix *Indexer) carryForwardUnchanged(ref string, paths []string, staging *textindex.IndexSet) error {
	if len(paths) == 0 {
		return nil
	}
	existingDir := ids.OverlayDirForRef(ix.DataDir, ref)
	if _, err := os.Stat(existingDir); err != nil {
		return nil
	}
	existing, err := textindex.OpenExistingAt(existingDir)
	if err != nil {
		return nil
	}

	wanted := make(map[string]bool, len(paths))
	for _, p := range paths {
		wanted[p] = true
	}

	copyMatching(existing.Symbols, staging.Symbols, wanted)
	copyMatching(existing.Snippets, staging.Snippets, wanted)
	copyMatching(existing.Files, staging.Files, wanted)
	return nil
}

func copyMatching(src, dst *textindex.Index, wanted map[string]bool) {
	for _, doc := range src.AllDocuments() {
		if wanted[doc.Fields[textindex.FieldPath]] {
			dst.Add(doc)
		}
	}
}

func (ix *Indexer) removeDeletedFile(ref, path string) error {
	if err := ix.Store.InsertTombstone(ix.ProjectID, ref, path, "deleted"); err != nil {
		return err
	}
	if err := ix.Store.DeleteSymbolsByPath(ix.ProjectID, ref, path); err != nil {
		return err
	}
	if err := ix.Store.DeleteEdgesBySourceFile(ix.ProjectID, ref, path); err != nil {
		return err
	}
	return ix.Store.DeleteFileManifestEntry(ix.ProjectID, ref, path)
}

// indexFile re-extracts one changed file: deletes its previous symbols and
// edges, extracts fresh ones, writes everything to the store and the
// staging text index, and refreshes its manifest row. Returns the number
// of symbols extracted.
func (ix *Indexer) indexFile(jobID, ref string, f discoveredFile, staging *textindex.IndexSet) (int, error) {
	source, err := os.ReadFile(f.Path)
	if err != nil {
		return 0, fmt.Errorf("read file: %w", err)
	}

	if err := ix.Store.DeleteSymbolsByPath(ix.ProjectID, ref, f.RelPath); err != nil {
		return 0, err
	}
	if err := ix.Store.DeleteEdgesBySourceFile(ix.ProjectID, ref, f.RelPath); err != nil {
		return 0, err
	}
	if err := ix.Store.DeleteTombstone(ix.ProjectID, ref, f.RelPath); err != nil {
		return 0, err
	}

	result, err := ix.Extractor.Extract(source, f.Language, f.RelPath)
	if err != nil {
		return 0, fmt.Errorf("extract: %w", err)
	}

	projectName := filepath.Base(ix.RepoRoot)
	language := string(f.Language)

	symbolIDByQName := make(map[string]string, len(result.Symbols))
	symbols := make([]*store.Symbol, 0, len(result.Symbols))

	for _, sym := range result.Symbols {
		qualifiedName := fqn.Compute(projectName, f.RelPath, sym.QualifiedName)
		symbolID := ids.SymbolID(jobID, f.RelPath, qualifiedName, sym.LineStart)
		stableID := ids.SymbolStableID(qualifiedName, string(sym.Kind))
		symbolIDByQName[sym.QualifiedName] = symbolID
		symbolIDByQName[sym.Name] = symbolID

		symbols = append(symbols, &store.Symbol{
			Path:           f.RelPath,
			Language:       language,
			SymbolID:       symbolID,
			SymbolStableID: stableID,
			Name:           sym.Name,
			QualifiedName:  qualifiedName,
			Kind:           string(sym.Kind),
			Signature:      sym.Signature,
			LineStart:      sym.LineStart,
			LineEnd:        sym.LineEnd,
			Visibility:     sym.Visibility,
			Content:        sym.Body,
		})

		docID := ix.ProjectID + ":" + ref + ":" + symbolID
		staging.Symbols.Add(textindex.NewSymbolDocument(
			docID, ref, f.RelPath, language, symbolID, stableID, sym.Name, qualifiedName,
			string(sym.Kind), sym.Signature, sym.Visibility, sym.LineStart, sym.LineEnd))
		staging.Snippets.Add(textindex.NewSnippetDocument(
			docID, ref, f.RelPath, language, "symbol", sym.Body, sym.LineStart, sym.LineEnd))

		if ix.Semantic != nil && ix.semanticEnabled {
			ix.pendingSemanticDocs = append(ix.pendingSemanticDocs, semantic.Document{
				ResultID:  docID,
				SymbolID:  symbolID,
				Path:      f.RelPath,
				Language:  language,
				Content:   sym.Body,
				LineStart: sym.LineStart,
				LineEnd:   sym.LineEnd,
			})
		}
	}

	if err := ix.Store.UpsertSymbolBatch(ix.ProjectID, ref, symbols); err != nil {
		return 0, err
	}

	// fileSymbolID is a synthetic from-symbol id for import edges, which
	// originate from the file itself rather than a specific symbol.
	fileSymbolID := "file:" + f.RelPath

	edges := make([]*store.Edge, 0, len(result.RawImports)+len(result.CallSites))
	for _, imp := range result.RawImports {
		conf := assignEdgeConfidence("imports", "", imp.TargetQualifiedName, "")
		edges = append(edges, &store.Edge{
			FromSymbolID:      fileSymbolID,
			ToName:            imp.TargetQualifiedName,
			EdgeType:          "imports",
			EdgeProvider:      conf.Provider,
			ResolutionOutcome: conf.Outcome,
			ConfidenceBucket:  conf.Bucket,
			ConfidenceWeight:  conf.Weight,
			SourceFile:        f.RelPath,
			SourceLine:        imp.ImportLine,
		})
	}
	for _, call := range result.CallSites {
		toSymbolID := symbolIDByQName[call.CalleeName]
		conf := assignEdgeConfidence("calls", toSymbolID, call.CalleeName, string(call.Confidence))
		fromID := enclosingSymbolID(symbols, call.Line)
		edges = append(edges, &store.Edge{
			FromSymbolID:      fromID,
			ToSymbolID:        toSymbolID,
			ToName:            call.CalleeName,
			EdgeType:          "calls",
			EdgeProvider:      conf.Provider,
			ResolutionOutcome: conf.Outcome,
			ConfidenceBucket:  conf.Bucket,
			ConfidenceWeight:  conf.Weight,
			SourceFile:        f.RelPath,
			SourceLine:        call.Line,
		})
	}
	if err := ix.Store.InsertEdgeBatch(ix.ProjectID, ref, edges); err != nil {
		return 0, err
	}

	head := firstLines(source, contentHeadLines)
	if err := ix.Store.UpsertFileManifestEntry(ix.ProjectID, ref, &store.FileManifestEntry{
		Path:        f.RelPath,
		Filename:    filepath.Base(f.RelPath),
		Language:    language,
		ContentHash: f.ContentHash,
		SizeBytes:   f.SizeBytes,
		UpdatedAt:   store.Now(),
		ContentHead: head,
	}); err != nil {
		return 0, err
	}
	staging.Files.Add(textindex.NewFileDocument(
		ix.ProjectID+":"+ref+":"+f.RelPath, ref, f.RelPath, filepath.Base(f.RelPath), head))

	return len(symbols), nil
}

// enclosingSymbolID finds the function/method symbol whose line range
// contains line, the caller of a call site. Returns "" for calls at
// module scope (no enclosing function, e.g. top-level statements).
func enclosingSymbolID(symbols []*store.Symbol, line int) string {
	best := ""
	bestSpan := -1
	for _, sym := range symbols {
		if sym.Kind != string(extractor.KindFunction) && sym.Kind != string(extractor.KindMethod) {
			continue
		}
		if line < sym.LineStart || line > sym.LineEnd {
			continue
		}
		span := sym.LineEnd - sym.LineStart
		if best == "" || span < bestSpan {
			best = sym.SymbolID
			bestSpan = span
		}
	}
	return best
}

func hashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

func firstLines(source []byte, n int) string {
	var sb strings.Builder
	scanner := bufio.NewScanner(strings.NewReader(string(source)))
	count := 0
	for scanner.Scan() && count < n {
		sb.WriteString(scanner.Text())
		sb.WriteByte('\n')
		count++
	}
	return strings.TrimRight(sb.String(), "\n")
}
