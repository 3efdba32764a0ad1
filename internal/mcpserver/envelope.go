// Package mcpserver implements the tool dispatcher: argument validation,
// ref resolution, freshness/schema checks, and the 16 MCP tools exposed
// to coding assistants, each wrapped in the common metadata envelope.
package mcpserver

import (
	"github.com/cruxe/cruxe/internal/store"
)

// ProtocolVersion is the codecompass_protocol_version stamped on every
// tool response's metadata envelope.
const ProtocolVersion = "1.0"

// FreshnessStatus describes how current a query's results are relative
// to the repository's live state.
type FreshnessStatus string

const (
	FreshnessFresh   FreshnessStatus = "fresh"
	FreshnessStale   FreshnessStatus = "stale"
	FreshnessSyncing FreshnessStatus = "syncing"
)

// IndexingStatus describes the project's overall indexing lifecycle.
type IndexingStatus string

const (
	IndexingReady      IndexingStatus = "ready"
	IndexingInProgress IndexingStatus = "indexing"
	IndexingNotIndexed IndexingStatus = "not_indexed"
	IndexingFailed     IndexingStatus = "failed"
)

// ResultCompleteness describes whether a response reflects every match
// or was bounded by a limit/token budget.
type ResultCompleteness string

const (
	CompletenessComplete  ResultCompleteness = "complete"
	CompletenessPartial   ResultCompleteness = "partial"
	CompletenessTruncated ResultCompleteness = "truncated"
)

// SchemaStatus describes the compatibility of the on-disk text indices
// with this binary's schema version.
type SchemaStatus string

const (
	SchemaCompatible      SchemaStatus = "compatible"
	SchemaReindexRequired SchemaStatus = "reindex_required"
	SchemaCorruptManifest SchemaStatus = "corrupt_manifest"
	SchemaNotIndexed      SchemaStatus = "not_indexed"
)

// Metadata is the envelope every tool response carries, per spec.md §4.13.
type Metadata struct {
	ProtocolVersion        string             `json:"codecompass_protocol_version"`
	FreshnessStatus        FreshnessStatus    `json:"freshness_status"`
	IndexingStatus         IndexingStatus     `json:"indexing_status"`
	ResultCompleteness     ResultCompleteness `json:"result_completeness"`
	Ref                    string             `json:"ref"`
	SchemaStatus           SchemaStatus       `json:"schema_status"`
	RankingReasons         any                `json:"ranking_reasons,omitempty"`
	SuppressedDuplicateCount int              `json:"suppressed_duplicate_count,omitempty"`
	SafetyLimitApplied     bool               `json:"safety_limit_applied,omitempty"`
}

// envelopeInputs bundles the facts buildMetadata needs, gathered once per
// tool call by resolveContext.
type envelopeInputs struct {
	ref            string
	activeJob      *store.IndexJob
	schemaStatus   SchemaStatus
	indexingStatus IndexingStatus
	completeness   ResultCompleteness
	suppressed     int
	safetyLimit    bool
	rankingReasons any
}

func buildMetadata(in envelopeInputs) Metadata {
	freshness := FreshnessFresh
	if in.activeJob != nil {
		switch in.activeJob.Mode {
		case "incremental":
			freshness = FreshnessSyncing
		default:
			freshness = FreshnessStale
		}
	}

	completeness := in.completeness
	if completeness == "" {
		completeness = CompletenessComplete
	}

	return Metadata{
		ProtocolVersion:          ProtocolVersion,
		FreshnessStatus:          freshness,
		IndexingStatus:           in.indexingStatus,
		ResultCompleteness:       completeness,
		Ref:                      in.ref,
		SchemaStatus:             in.schemaStatus,
		RankingReasons:           in.rankingReasons,
		SuppressedDuplicateCount: in.suppressed,
		SafetyLimitApplied:       in.safetyLimit,
	}
}
