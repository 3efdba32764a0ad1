package mcpserver

import (
	"context"
	"encoding/json"

	"github.com/cruxe/cruxe/internal/cxerr"
	"github.com/cruxe/cruxe/internal/ids"
	"github.com/cruxe/cruxe/internal/indexer"
	"github.com/cruxe/cruxe/internal/jobmgr"
	"github.com/cruxe/cruxe/internal/textindex"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

func (s *Server) registerLifecycleTools() {
	s.addTool(&mcp.Tool{
		Name:        "index_repo",
		Description: "Run a full index of the workspace, spawning a background worker.",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"workspace": {"type": "string"},
				"force": {"type": "boolean"},
				"ref": {"type": "string"}
			}
		}`),
	}, s.handleIndexRepo)

	s.addTool(&mcp.Tool{
		Name:        "sync_repo",
		Description: "Run an incremental sync of the workspace, spawning a background worker.",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"workspace": {"type": "string"},
				"force": {"type": "boolean"},
				"ref": {"type": "string"}
			}
		}`),
	}, s.handleSyncRepo)

	s.addTool(&mcp.Tool{
		Name:        "index_status",
		Description: "Report the active/most-recent indexing job status for the workspace.",
		InputSchema: json.RawMessage(`{"type": "object", "properties": {"workspace": {"type": "string"}}}`),
	}, s.handleIndexStatus)

	s.addTool(&mcp.Tool{
		Name:        "health_check",
		Description: "Report SQL and text-index health, plus any interrupted-job recovery performed at startup.",
		InputSchema: json.RawMessage(`{"type": "object", "properties": {"workspace": {"type": "string"}}}`),
	}, s.handleHealthCheck)

	s.addTool(&mcp.Tool{
		Name:        "list_refs",
		Description: "List every ref with lifecycle state tracked for the workspace.",
		InputSchema: json.RawMessage(`{"type": "object", "properties": {"workspace": {"type": "string"}}}`),
	}, s.handleListRefs)

	s.addTool(&mcp.Tool{
		Name:        "switch_ref",
		Description: "Validate a ref has a published overlay and mark it as the active one queried by default.",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"workspace": {"type": "string"},
				"ref": {"type": "string"}
			},
			"required": ["ref"]
		}`),
	}, s.handleSwitchRef)
}

func (s *Server) startJob(ctx context.Context, req *mcp.CallToolRequest, mode indexer.Mode) (*mcp.CallToolResult, error) {
	args, err := parseArgs(req)
	if err != nil {
		return errorResult(err, envelopeInputs{}), nil
	}
	qc, errRes := resolveContext(s.registry, args)
	if errRes != nil {
		return errRes, nil
	}

	force := getBoolArg(args, "force")
	explicitRef := getStringArg(args, "ref")

	if !force {
		active, err := qc.proj.store.ActiveJobForProject(qc.proj.id)
		if err != nil {
			return errorResult(err, qc.meta), nil
		}
		if active != nil {
			code := cxerr.CodeIndexInProgress
			if mode == indexer.ModeIncremental {
				code = cxerr.CodeSyncInProgress
			}
			return errorResult(cxerr.New(code, "a job is already running for this workspace"), qc.meta), nil
		}
	}

	workspace := getStringArg(args, "workspace")
	if workspace == "" {
		workspace = qc.proj.dataDir
	}
	jobID, err := qc.proj.jobs.StartJob(jobmgr.StartRequest{
		ProjectID:   qc.proj.id,
		DataDir:     qc.proj.dataDir,
		RepoRoot:    workspace,
		Mode:        mode,
		ExplicitRef: explicitRef,
	})
	if err != nil {
		return errorResult(err, qc.meta), nil
	}

	qc.meta.indexingStatus = IndexingInProgress
	return okResult(struct {
		JobID string `json:"job_id"`
		Mode  string `json:"mode"`
	}{JobID: jobID, Mode: string(mode)}, qc.meta), nil
}

func (s *Server) handleIndexRepo(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return s.startJob(ctx, req, indexer.ModeFull)
}

func (s *Server) handleSyncRepo(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return s.startJob(ctx, req, indexer.ModeIncremental)
}

func (s *Server) handleIndexStatus(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, err := parseArgs(req)
	if err != nil {
		return errorResult(err, envelopeInputs{}), nil
	}
	qc, errRes := resolveContext(s.registry, args)
	if errRes != nil {
		return errRes, nil
	}

	out := struct {
		ActiveJob any `json:"active_job,omitempty"`
	}{}
	if qc.meta.activeJob != nil {
		out.ActiveJob = qc.meta.activeJob
	}
	return okResult(out, qc.meta), nil
}

func (s *Server) handleHealthCheck(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, err := parseArgs(req)
	if err != nil {
		return errorResult(err, envelopeInputs{}), nil
	}
	qc, errRes := resolveContext(s.registry, args)
	if errRes != nil {
		return errRes, nil
	}

	overlayDir := ids.OverlayDirForRef(qc.proj.dataDir, qc.ref)
	var healths []textindex.IndexHealth
	if set, err := textindex.OpenExistingAt(overlayDir); err == nil {
		healths = textindex.HealthCheck(set)
	}

	var recovered []string
	if s.startupRecovery != nil {
		recovered = s.startupRecovery.RecoveredJobIDs
	}

	return okResult(struct {
		SQLOK               bool                    `json:"sql_ok"`
		Indices             []textindex.IndexHealth `json:"indices,omitempty"`
		InterruptedRecovery []string                `json:"interrupted_recovery_report"`
	}{SQLOK: true, Indices: healths, InterruptedRecovery: recovered}, qc.meta), nil
}

func (s *Server) handleListRefs(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, err := parseArgs(req)
	if err != nil {
		return errorResult(err, envelopeInputs{}), nil
	}
	qc, errRes := resolveContext(s.registry, args)
	if errRes != nil {
		return errRes, nil
	}

	branches, err := qc.proj.store.ListBranchStates(qc.proj.id)
	if err != nil {
		return errorResult(err, qc.meta), nil
	}
	return okResult(struct {
		Refs any `json:"refs"`
	}{Refs: branches}, qc.meta), nil
}

func (s *Server) handleSwitchRef(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, err := parseArgs(req)
	if err != nil {
		return errorResult(err, envelopeInputs{}), nil
	}
	qc, errRes := resolveContext(s.registry, args)
	if errRes != nil {
		return errRes, nil
	}

	ref := getStringArg(args, "ref")
	if ref == "" {
		return errorResult(cxerr.New(cxerr.CodeInvalidInput, "ref is required"), qc.meta), nil
	}
	normalized := ids.NormalizeRef(ref)

	state, err := qc.proj.store.GetBranchState(qc.proj.id, normalized)
	if err != nil {
		return errorResult(err, qc.meta), nil
	}
	if state == nil {
		return errorResult(cxerr.New(cxerr.CodeRefNotIndexed, "ref "+ref+" has never been indexed"), qc.meta), nil
	}
	if err := qc.proj.store.TouchBranchState(qc.proj.id, normalized); err != nil {
		return errorResult(err, qc.meta), nil
	}

	return okResult(struct {
		Ref    string `json:"ref"`
		Status string `json:"status"`
	}{Ref: normalized, Status: state.Status}, qc.meta), nil
}
