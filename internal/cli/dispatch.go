package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/cruxe/cruxe/internal/mcpserver"
	humanize "github.com/dustin/go-humanize"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/tidwall/gjson"
)

// runTool resolves a Registry, dispatches one tool call through the same
// Server.CallTool path the MCP transport uses, prints the result, and
// returns a non-nil error whenever the call itself failed to execute
// (never merely because the tool returned a protocol error — that's
// printed and reported via exit code instead).
func runTool(name string, args map[string]any) error {
	srv, reg, err := openServer()
	if err != nil {
		return err
	}
	defer reg.Close()

	argsJSON, err := json.Marshal(args)
	if err != nil {
		return fmt.Errorf("marshal tool arguments: %w", err)
	}

	res, err := srv.CallTool(context.Background(), name, argsJSON)
	if err != nil {
		return err
	}

	text := resultText(res)
	if flagJSONOutput {
		printRawJSON(text)
	} else {
		printSummary(name, text)
	}
	if res.IsError {
		os.Exit(1)
	}
	return nil
}

func resultText(res *mcp.CallToolResult) string {
	for _, c := range res.Content {
		if tc, ok := c.(*mcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

func printRawJSON(text string) {
	var buf json.RawMessage
	if json.Unmarshal([]byte(text), &buf) == nil {
		if pretty, err := json.MarshalIndent(buf, "", "  "); err == nil {
			fmt.Println(string(pretty))
			return
		}
	}
	fmt.Println(text)
}

// printSummary renders the common case (an error envelope, or a
// result envelope) as a short human-readable summary; any tool whose
// result shape doesn't match one of the named cases below falls back to
// the raw indented JSON, same as the teacher's dispatcher default case.
func printSummary(toolName, text string) {
	if errCode := gjson.Get(text, "error.code"); errCode.Exists() {
		fmt.Printf("error: %s: %s\n", errCode.String(), gjson.Get(text, "error.message").String())
		return
	}

	switch toolName {
	case "index_repo", "sync_repo":
		fmt.Printf("job %s started (mode=%s)\n", gjson.Get(text, "result.job_id").String(), gjson.Get(text, "result.mode").String())
	case "index_status":
		if job := gjson.Get(text, "result.active_job"); job.Exists() {
			fmt.Printf("active job: %s (status=%s)\n", job.Get("job_id").String(), job.Get("status").String())
		} else {
			fmt.Println("no active job")
		}
	case "health_check":
		printHealthCheckSummary(text)
	case "search_code":
		printSearchSummary(text)
	case "list_refs":
		for _, ref := range gjson.Get(text, "result.refs").Array() {
			fmt.Printf("%s (status=%s, last_accessed=%s)\n", ref.Get("Ref").String(), ref.Get("Status").String(),
				ref.Get("LastAccessedAt").String())
		}
	case "switch_ref":
		fmt.Printf("now on ref %s (status=%s)\n", gjson.Get(text, "result.ref").String(), gjson.Get(text, "result.status").String())
	default:
		printRawJSON(text)
	}
}

func printHealthCheckSummary(text string) {
	fmt.Printf("sql_ok=%v\n", gjson.Get(text, "result.sql_ok").Bool())
	for _, idx := range gjson.Get(text, "result.indices").Array() {
		status := "ok"
		if !idx.Get("Healthy").Bool() {
			status = "unhealthy"
		}
		fmt.Printf("  %s: %s (%s)\n", idx.Get("Kind").String(), status, idx.Get("Message").String())
	}
	if recovered := gjson.Get(text, "result.interrupted_recovery_report").Array(); len(recovered) > 0 {
		fmt.Printf("recovered %d interrupted job(s) at startup\n", len(recovered))
	}
}

func printSearchSummary(text string) {
	results := gjson.Get(text, "result.results").Array()
	fmt.Printf("%s result(s), intent=%s\n", humanize.Comma(int64(len(results))), gjson.Get(text, "result.query_intent").String())
	for _, r := range results {
		fmt.Printf("  %-8.3f %s:%d  %s\n", r.Get("score").Float(), r.Get("path").String(), r.Get("line_start").Int(), r.Get("qualified_name").String())
	}
}
