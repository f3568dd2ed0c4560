package mcp

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/texmill/texmill/internal/report"
)

type inspectParams struct {
	BuildID string `json:"build_id,omitempty" jsonschema:"Build identifier from tex_compile or tex_build output. Required."`
}

func (h *handler) inspectHandler(ctx context.Context, req *mcp.CallToolRequest, params inspectParams) (*mcp.CallToolResult, any, error) {
	if params.BuildID == "" {
		return errorResult("build_id is required")
	}
	if h.store == nil {
		return errorResult("build records are not enabled")
	}

	rec, err := h.store.Load(params.BuildID)
	if errors.Is(err, report.ErrNotFound) {
		return errorResult(fmt.Sprintf("no record for build %s; records are kept for recent builds only", params.BuildID))
	}
	if err != nil {
		return errorResult(fmt.Sprintf("loading build %s: %v", params.BuildID, err))
	}
	return textResult(formatRecord(rec))
}

func formatRecord(rec *report.BuildRecord) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Build: %s\n", rec.ID)
	fmt.Fprintf(&b, "Created: %s\n", rec.CreatedAt.Format(time.RFC3339))
	fmt.Fprintf(&b, "Outcome: %s\n", rec.Outcome)
	fmt.Fprintf(&b, "Duration: %s\n", rec.Duration.Round(time.Millisecond))
	if rec.ArtifactSize > 0 {
		fmt.Fprintf(&b, "Artifact: %d bytes\n", rec.ArtifactSize)
	}
	fmt.Fprintln(&b)

	fmt.Fprintln(&b, "Passes:")
	for _, p := range rec.Passes {
		fmt.Fprintf(&b, "  %d. %s: %s (exit %d, %s)\n", p.Seq, p.Kind, p.Outcome, p.ExitCode, p.Duration.Round(time.Millisecond))
	}
	fmt.Fprintln(&b)

	fmt.Fprintln(&b, "Log:")
	fmt.Fprintln(&b, rec.Log)

	return b.String()
}
