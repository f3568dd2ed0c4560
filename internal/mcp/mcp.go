// Package mcp provides the Texmill MCP server, registering all tools
// and publishing model instructions.
package mcp

import (
	_ "embed"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/texmill/texmill"
	"github.com/texmill/texmill/internal/compile"
	"github.com/texmill/texmill/internal/report"
)

//go:embed instructions.md
var Instructions string

// handler holds shared dependencies for all tool handlers.
type handler struct {
	engine *compile.Engine
	store  report.Store // nil disables tex_inspect
}

// NewServer creates an MCP server with all Texmill tools registered.
func NewServer(engine *compile.Engine, store report.Store) *mcp.Server {
	h := &handler{engine: engine, store: store}

	mcpOpts := &mcp.ServerOptions{
		Instructions: Instructions,
		Capabilities: &mcp.ServerCapabilities{
			Tools: &mcp.ToolCapabilities{ListChanged: false},
		},
	}
	s := mcp.NewServer(&mcp.Implementation{Name: "texmill", Version: texmill.Version}, mcpOpts)

	mcp.AddTool(s, &mcp.Tool{
		Name: "tex_compile",
		Description: `Compile LaTeX sources into a PDF.

Pass the entry point content as main; further text sources (chapters, .bib
databases, style files) go in files, images and fonts base64-encoded in
binary_files. The build reruns pdflatex and bibtex as many times as the
document needs. Results are stored for drill-down via tex_inspect.`,
	}, h.compileHandler)

	mcp.AddTool(s, &mcp.Tool{
		Name: "tex_build",
		Description: `Compile a LaTeX document directory on disk.

The directory must contain main.tex at its root. Regular files in it are
used as build inputs; the rendered PDF is written back next to them unless
output points elsewhere. Results are stored for drill-down via tex_inspect.`,
	}, h.buildHandler)

	mcp.AddTool(s, &mcp.Tool{
		Name: "tex_inspect",
		Description: `Drill into a finished build.

Use the build_id from tex_compile or tex_build output to see per-pass
outcomes, exit codes, and the full compilation log.`,
	}, h.inspectHandler)

	return s
}

// textResult is a helper to build a text-only tool result.
func textResult(text string) (*mcp.CallToolResult, any, error) {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
	}, nil, nil
}

// errorResult is a helper to build an error tool result.
func errorResult(text string) (*mcp.CallToolResult, any, error) {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
		IsError: true,
	}, nil, nil
}
