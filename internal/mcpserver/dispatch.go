package mcpserver

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/cruxe/cruxe/internal/cxerr"
	"github.com/cruxe/cruxe/internal/ids"
	"github.com/cruxe/cruxe/internal/textindex"
	"github.com/cruxe/cruxe/internal/vcs"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// toolContext is what every handler needs after the common dispatch steps
// (workspace resolution, ref resolution, freshness/schema checks) have run.
type toolContext struct {
	proj *project
	ref  string
	meta envelopeInputs
}

// resolveContext runs the shared pre-execution steps spec.md §4.13 requires
// of every tool call: resolve the workspace, resolve the effective ref,
// check schema compatibility, and check freshness against any active job.
func resolveContext(reg *Registry, args map[string]any) (*toolContext, *mcp.CallToolResult) {
	workspace := getStringArg(args, "workspace")
	if workspace == "" {
		workspace, _ = os.Getwd()
	}

	proj, err := reg.Resolve(workspace)
	if err != nil {
		return nil, errorResult(err, envelopeInputs{})
	}

	explicitRef := getStringArg(args, "ref")
	ref, err := vcs.ResolveRef(workspace, explicitRef, ids.DefaultRef)
	if err != nil {
		return nil, errorResult(err, envelopeInputs{ref: explicitRef})
	}

	active, err := proj.store.ActiveJobForProject(proj.id)
	if err != nil {
		return nil, errorResult(fmt.Errorf("check active job: %w", err), envelopeInputs{ref: ref})
	}

	indexingStatus := IndexingReady
	if active != nil {
		indexingStatus = IndexingInProgress
	}
	status := schemaStatusFor(proj.dataDir, ref)
	if status == SchemaNotIndexed && active == nil {
		indexingStatus = IndexingNotIndexed
	}

	in := envelopeInputs{
		ref:            ref,
		activeJob:      active,
		schemaStatus:   status,
		indexingStatus: indexingStatus,
	}
	return &toolContext{proj: proj, ref: ref, meta: in}, nil
}

// schemaStatusFor classifies the on-disk text indices at dataDir/overlay/ref
// without itself failing the surrounding tool call; every response carries
// this in its metadata envelope regardless of whether the operation needed
// the index.
func schemaStatusFor(dataDir, ref string) SchemaStatus {
	overlayDir := ids.OverlayDirForRef(dataDir, ref)
	if _, err := os.Stat(overlayDir); err != nil {
		return SchemaNotIndexed
	}

	_, err := textindex.OpenExistingAt(overlayDir)
	if err == nil {
		return SchemaCompatible
	}
	var smr *cxerr.SchemaMigrationRequired
	if errors.As(err, &smr) {
		return SchemaReindexRequired
	}
	if cxerr.CodeOf(err) == cxerr.CodeCorruptManifest {
		return SchemaCorruptManifest
	}
	return SchemaNotIndexed
}

// errorPayload is the user-visible shape of every failed tool call, per
// spec.md §7: {error: {code, message}, metadata}.
type errorPayload struct {
	Error struct {
		Code    cxerr.Code `json:"code"`
		Message string     `json:"message"`
	} `json:"error"`
	Metadata Metadata `json:"metadata"`
}

// errorResult translates err into the closed protocol error shape,
// converting a bare SchemaMigrationRequired into index_incompatible per the
// propagation policy in spec.md §7.
func errorResult(err error, in envelopeInputs) *mcp.CallToolResult {
	var smr *cxerr.SchemaMigrationRequired
	if errors.As(err, &smr) {
		err = cxerr.AsIndexIncompatible(err)
	}

	payload := errorPayload{Metadata: buildMetadata(in)}
	payload.Error.Code = cxerr.CodeOf(err)
	payload.Error.Message = err.Error()

	b, merr := json.MarshalIndent(payload, "", "  ")
	if merr != nil {
		return &mcp.CallToolResult{
			Content: []mcp.Content{&mcp.TextContent{Text: err.Error()}},
			IsError: true,
		}
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: string(b)}},
		IsError: true,
	}
}

// okResult marshals data alongside the metadata envelope built from in.
func okResult(data any, in envelopeInputs) *mcp.CallToolResult {
	envelope := struct {
		Result   any      `json:"result"`
		Metadata Metadata `json:"metadata"`
	}{Result: data, Metadata: buildMetadata(in)}

	b, err := json.MarshalIndent(envelope, "", "  ")
	if err != nil {
		return errorResult(fmt.Errorf("marshal result: %w", err), in)
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: string(b)}},
	}
}

// parseArgs unmarshals a tool call's raw JSON arguments into a map.
func parseArgs(req *mcp.CallToolRequest) (map[string]any, error) {
	if len(req.Params.Arguments) == 0 {
		return map[string]any{}, nil
	}
	var m map[string]any
	if err := json.Unmarshal(req.Params.Arguments, &m); err != nil {
		return nil, cxerr.Wrap(cxerr.CodeInvalidInput, "invalid arguments", err)
	}
	return m, nil
}

func getStringArg(args map[string]any, key string) string {
	v, ok := args[key]
	if !ok {
		return ""
	}
	s, _ := v.(string)
	return s
}

func getIntArg(args map[string]any, key string, defaultVal int) int {
	v, ok := args[key]
	if !ok {
		return defaultVal
	}
	f, ok := v.(float64)
	if !ok {
		return defaultVal
	}
	return int(f)
}

func getFloatArg(args map[string]any, key string, defaultVal float64) float64 {
	v, ok := args[key]
	if !ok {
		return defaultVal
	}
	f, ok := v.(float64)
	if !ok {
		return defaultVal
	}
	return f
}

func getBoolArg(args map[string]any, key string) bool {
	v, ok := args[key]
	if !ok {
		return false
	}
	b, _ := v.(bool)
	return b
}
