package mcp

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/texmill/texmill/internal/compile"
	"github.com/texmill/texmill/internal/report"
	"github.com/texmill/texmill/internal/workspace"
)

type compileParams struct {
	Main        string            `json:"main,omitempty" jsonschema:"Content of the main.tex entry point. Required."`
	Files       map[string]string `json:"files,omitempty" jsonschema:"Additional text files keyed by relative path (e.g. refs.bib, chapters/intro.tex)."`
	BinaryFiles map[string]string `json:"binary_files,omitempty" jsonschema:"Base64-encoded binary files keyed by relative path (images, fonts)."`
	Output      string            `json:"output,omitempty" jsonschema:"Local path to write the rendered PDF to. Omit to keep the artifact in the build record only."`
}

func (h *handler) compileHandler(ctx context.Context, req *mcp.CallToolRequest, params compileParams) (*mcp.CallToolResult, any, error) {
	files, err := compile.AssembleFileSet(params.Main, params.Files, params.BinaryFiles)
	if err != nil {
		return errorResult(err.Error())
	}
	return h.runBuild(ctx, files, params.Output)
}

// runBuild compiles the file set, saves the record for tex_inspect,
// optionally writes the artifact to disk, and formats the summary.
func (h *handler) runBuild(ctx context.Context, files workspace.FileSet, output string) (*mcp.CallToolResult, any, error) {
	// A build runs to natural completion once started; a dropped client
	// session must not kill passes mid-flight.
	res, err := h.engine.Compile(context.WithoutCancel(ctx), files)
	if err != nil {
		return errorResult(fmt.Sprintf("compile failed: %v", err))
	}

	if h.store != nil {
		_ = h.store.Save(report.FromResult(res))
	}

	written := ""
	if output != "" && res.ArtifactProduced() {
		if err := os.WriteFile(output, res.Artifact, 0o644); err != nil {
			return errorResult(fmt.Sprintf("writing %s: %v", output, err))
		}
		written = output
	}

	return textResult(formatBuild(res, written))
}

func formatBuild(res *compile.Result, written string) string {
	var b strings.Builder

	if res.ArtifactProduced() {
		fmt.Fprintln(&b, "Status: SUCCESS")
	} else {
		fmt.Fprintln(&b, "Status: NO ARTIFACT")
	}
	fmt.Fprintf(&b, "Build: %s\n", res.ID)
	fmt.Fprintln(&b)

	fmt.Fprintln(&b, "Passes:")
	for _, p := range res.Passes {
		fmt.Fprintf(&b, "  %d. %s: %s (%s)\n", p.Seq, p.Kind, p.Outcome, p.Duration.Round(time.Millisecond))
	}
	fmt.Fprintln(&b)

	switch {
	case written != "":
		fmt.Fprintf(&b, "Artifact: %d bytes written to %s\n", len(res.Artifact), written)
	case res.ArtifactProduced():
		fmt.Fprintf(&b, "Artifact: %d bytes (set output to write the PDF to disk)\n", len(res.Artifact))
	default:
		fmt.Fprintln(&b, "Artifact: none")
	}

	if !res.ArtifactProduced() {
		fmt.Fprintln(&b)
		fmt.Fprintln(&b, "Log tail:")
		fmt.Fprintln(&b, logTail(res.Log, 30))
		fmt.Fprintf(&b, "\nFull log via tex_inspect(build_id=%q).\n", res.ID)
	}

	return b.String()
}

// logTail returns the last n lines of log.
func logTail(log string, n int) string {
	lines := strings.Split(strings.TrimRight(log, "\n"), "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.Join(lines, "\n")
}
