// Package cxerr defines the closed taxonomy of protocol error codes
// returned to tool callers, and a small Error type that carries a code
// alongside the usual wrapped error chain.
package cxerr

import (
	"errors"
	"fmt"
)

// Code is one of the fixed protocol error codes. New values must not be
// added without updating every tool dispatcher switch that branches on
// them.
type Code string

const (
	// Input errors
	CodeInvalidInput    Code = "invalid_input"
	CodeInvalidStrategy Code = "invalid_strategy"
	CodeInvalidMaxTokens Code = "invalid_max_tokens"

	// Workspace errors
	CodeWorkspaceNotRegistered  Code = "workspace_not_registered"
	CodeWorkspaceNotAllowed     Code = "workspace_not_allowed"
	CodeWorkspaceLimitExceeded  Code = "workspace_limit_exceeded"
	CodeProjectNotFound         Code = "project_not_found"

	// Lifecycle errors
	CodeIndexInProgress Code = "index_in_progress"
	CodeSyncInProgress  Code = "sync_in_progress"
	CodeIndexNotReady   Code = "index_not_ready"
	CodeRefNotIndexed   Code = "ref_not_indexed"
	CodeOverlayNotReady Code = "overlay_not_ready"
	CodeIndexStale      Code = "index_stale"
	CodeIndexIncompatible Code = "index_incompatible"
	CodeCorruptManifest Code = "corrupt_manifest"

	// Lookup errors
	CodeSymbolNotFound   Code = "symbol_not_found"
	CodeAmbiguousSymbol  Code = "ambiguous_symbol"
	CodeFileNotFound     Code = "file_not_found"
	CodeResultNotFound   Code = "result_not_found"
	CodeNoEdgesAvailable Code = "no_edges_available"

	// Integrity errors
	CodeMaintenanceLockBusy Code = "maintenance_lock_busy"
	CodeMergeBaseFailed     Code = "merge_base_failed"
	CodeInternalError       Code = "internal_error"

	// Internal-only code surfaced by the store layer when the on-disk
	// schema version is newer or older than what this binary supports;
	// the tool dispatcher always translates this into CodeIndexIncompatible
	// before it reaches a caller.
	CodeSchemaMigrationRequired Code = "schema_migration_required"
)

// Error wraps an underlying cause with a protocol code and a
// human-readable message suitable for direct display to a tool caller.
type Error struct {
	Code    Code
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

// New builds an Error with no underlying cause.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Wrap builds an Error that carries cause in its chain, so callers can
// still errors.Is/errors.As through to it.
func Wrap(code Code, message string, cause error) *Error {
	return &Error{Code: code, Message: message, Cause: cause}
}

// CodeOf extracts the protocol code from err's chain, defaulting to
// CodeInternalError when err does not wrap a *Error.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeInternalError
}

// SchemaMigrationRequired is a structured variant carrying the version
// numbers the tool dispatcher needs to build an index_incompatible
// message ("current=%d required=%d").
type SchemaMigrationRequired struct {
	Current  int
	Required int
}

func (e *SchemaMigrationRequired) Error() string {
	return fmt.Sprintf("%s: on-disk schema version %d incompatible with required version %d", CodeSchemaMigrationRequired, e.Current, e.Required)
}

// AsIndexIncompatible converts a SchemaMigrationRequired error into the
// public protocol error, per the translation policy: schema mismatch on
// open always surfaces to callers as index_incompatible.
func AsIndexIncompatible(err error) *Error {
	var smr *SchemaMigrationRequired
	if errors.As(err, &smr) {
		return Wrap(CodeIndexIncompatible,
			fmt.Sprintf("index schema version %d requires %d; run index --force to rebuild", smr.Current, smr.Required),
			smr)
	}
	return Wrap(CodeInternalError, "schema check failed", err)
}
