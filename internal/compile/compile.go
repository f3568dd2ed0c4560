// Package compile drives multi-pass document builds. Each build runs a
// mandatory initial typeset pass, at most one bibliography pass, and a
// diagnostic-driven rerun loop bounded by a pass ceiling, then collects
// the rendered artifact from the build workspace. It is consumed by the
// HTTP server, the MCP server, and the CLI commands.
package compile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/texmill/texmill/internal/config"
	"github.com/texmill/texmill/internal/logfields"
	"github.com/texmill/texmill/internal/metrics"
	"github.com/texmill/texmill/internal/runner"
	"github.com/texmill/texmill/internal/texlog"
	"github.com/texmill/texmill/internal/workspace"
)

// Log section headers. Each pass contributes a header plus its captured
// output; headers after the first carry a leading newline so passes stay
// visually separated in the joined log.
const (
	headerInitial    = "=== Initial LaTeX compilation ==="
	headerBib        = "\n=== BibTeX compilation ==="
	headerRerun      = "\n=== LaTeX compilation pass %d ==="
	markerNoArtifact = "\n=== ERROR: PDF file was not generated ==="
)

// CommandRunner executes one external command in a directory.
// Implemented by runner.Runner.
type CommandRunner interface {
	Run(ctx context.Context, argv []string, dir string) *runner.Result
}

// Classifier interprets the captured output of a pass. Implementations
// carry the marker vocabulary of one engine dialect; the control flow
// here never inspects the output itself.
type Classifier interface {
	NeedsBibliography(output string) bool
	NeedsRerun(output string) bool
}

// Engine drives complete builds. It holds no per-build state, so one
// Engine may serve concurrent builds; each build owns a private
// workspace and the configuration is never mutated after construction.
type Engine struct {
	Config     *config.Config
	Runner     CommandRunner
	Classifier Classifier       // optional; nil selects the pdflatex vocabulary
	Metrics    metrics.Recorder // optional; nil means no metrics
}

func (e *Engine) classifier() Classifier {
	if e.Classifier == nil {
		return texlog.Classifier{}
	}
	return e.Classifier
}

func (e *Engine) recorder() metrics.Recorder {
	if e.Metrics == nil {
		return metrics.NoopRecorder{}
	}
	return e.Metrics
}

// Compile builds files into a document. The returned error is limited to
// precondition and workspace failures; engine crashes, timeouts, and a
// missing artifact are absorbed into the Result so the caller always gets
// the full diagnostic log. The build workspace is removed on every path.
func (e *Engine) Compile(ctx context.Context, files workspace.FileSet) (*Result, error) {
	if _, ok := files[EntryName]; !ok {
		e.recorder().IncBuildOutcome(metrics.BuildRejected)
		return nil, ErrMissingEntry
	}

	id := uuid.New().String()
	start := time.Now()
	slog.Info("build started", logfields.BuildID(id), slog.Int("files", len(files)))

	ws, err := workspace.Materialize(files)
	if err != nil {
		if errors.Is(err, workspace.ErrUnsafePath) {
			e.recorder().IncBuildOutcome(metrics.BuildRejected)
		} else {
			e.recorder().IncBuildOutcome(metrics.BuildError)
		}
		return nil, fmt.Errorf("materializing workspace: %w", err)
	}
	defer ws.Destroy()

	var (
		sections []string
		passes   []PassRecord
	)

	runPass := func(kind PassKind, header string, argv []string) *runner.Result {
		sections = append(sections, header)
		passStart := time.Now()
		res := e.Runner.Run(ctx, argv, ws.Dir())
		elapsed := time.Since(passStart)
		passes = append(passes, PassRecord{
			Seq:       len(passes) + 1,
			Kind:      kind,
			Outcome:   res.Outcome,
			ExitCode:  res.ExitCode,
			Output:    res.Output,
			Truncated: res.Truncated,
			Duration:  elapsed,
		})
		sections = append(sections, res.Output)
		e.recorder().IncPassOutcome(string(kind), string(res.Outcome))
		e.recorder().ObservePassDuration(string(kind), elapsed)
		slog.Debug("pass finished",
			logfields.BuildID(id),
			logfields.PassKind(string(kind)),
			logfields.Command(argv[0]),
			logfields.Outcome(string(res.Outcome)),
			logfields.ExitCode(res.ExitCode),
			logfields.DurationMS(float64(elapsed.Milliseconds())))
		return res
	}

	engineArgv := append(append([]string{e.Config.Command()}, e.Config.Args()...), EntryName)
	bibArgv := []string{e.Config.BibCommand(), JobName}

	// Initial pass. A failure does not abort the build: the engine
	// usually leaves a partial, still informative log behind.
	res := runPass(PassTypeset, headerInitial, engineArgv)
	if !res.OK() {
		slog.Warn("initial pass failed, continuing",
			logfields.BuildID(id), logfields.Outcome(string(res.Outcome)))
	}

	forcedRerun := false
	if e.classifier().NeedsBibliography(res.Output) {
		bib := runPass(PassBibliography, headerBib, bibArgv)
		forcedRerun = true
		if !bib.OK() {
			slog.Warn("bibliography pass had issues",
				logfields.BuildID(id), logfields.Outcome(string(bib.Outcome)))
		}
	}

	// Rerun loop. The ceiling counts typeset passes only, with the
	// initial pass as number one; the bibliography pass is exempt. This
	// bound is the sole liveness guarantee against an engine whose
	// output never stops asking for reruns.
	typesets := 1
	for typesets < e.Config.MaxPasses() {
		needsRerun := e.classifier().NeedsRerun(passes[len(passes)-1].Output)
		if forcedRerun {
			// A bibliography pass always forces one more typeset pass,
			// whatever its own output says.
			needsRerun = true
			forcedRerun = false
		}
		if !needsRerun {
			break
		}
		typesets++
		rerun := runPass(PassRerun, fmt.Sprintf(headerRerun, typesets), engineArgv)
		if !rerun.OK() {
			slog.Warn("typeset pass had issues",
				logfields.BuildID(id), logfields.Pass(typesets), logfields.Outcome(string(rerun.Outcome)))
		}
	}

	artifact, readErr := ws.ReadFile(ArtifactName)
	if readErr != nil {
		artifact = nil
		sections = append(sections, markerNoArtifact)
		slog.Error("artifact not produced", logfields.BuildID(id), slog.Int("passes", len(passes)))
	}

	result := &Result{
		ID:       id,
		Passes:   passes,
		Log:      strings.Join(sections, "\n"),
		Artifact: artifact,
		Duration: time.Since(start),
	}
	e.recorder().IncBuildOutcome(result.Outcome())
	e.recorder().ObserveBuildDuration(result.Duration)
	slog.Info("build finished",
		logfields.BuildID(id),
		logfields.Outcome(result.Outcome()),
		slog.Int("passes", len(passes)),
		logfields.Bytes(len(artifact)),
		logfields.DurationMS(float64(result.Duration.Milliseconds())))
	return result, nil
}
