package mcp

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/texmill/texmill/internal/compile"
	"github.com/texmill/texmill/internal/workspace"
)

type buildParams struct {
	Dir    string `json:"dir,omitempty" jsonschema:"Directory containing the document sources, with main.tex at its root. Required."`
	Output string `json:"output,omitempty" jsonschema:"Path to write the rendered PDF. Defaults to main.pdf inside dir."`
}

func (h *handler) buildHandler(ctx context.Context, req *mcp.CallToolRequest, params buildParams) (*mcp.CallToolResult, any, error) {
	if params.Dir == "" {
		return errorResult("dir is required")
	}

	// A previously rendered artifact in the directory is an output, not
	// an input.
	files, err := workspace.Collect(params.Dir, compile.ArtifactName)
	if err != nil {
		return errorResult(fmt.Sprintf("collecting %s: %v", params.Dir, err))
	}

	output := params.Output
	if output == "" {
		output = filepath.Join(params.Dir, compile.ArtifactName)
	}
	return h.runBuild(ctx, files, output)
}
