package compile

import (
	"errors"
	"time"

	"github.com/texmill/texmill/internal/metrics"
	"github.com/texmill/texmill/internal/runner"
)

// Fixed filename conventions. The entry point anchors the build, the job
// name is its stem, and the artifact is what the engine writes for it.
const (
	EntryName    = "main.tex"
	JobName      = "main"
	ArtifactName = "main.pdf"
)

// ErrMissingEntry is returned when a file set lacks the entry point. It
// fails the build before any workspace or process side effects occur.
var ErrMissingEntry = errors.New("main.tex must be provided")

// PassKind identifies the role of one pass within a build.
type PassKind string

const (
	PassTypeset      PassKind = "latex"  // the mandatory initial typeset pass
	PassBibliography PassKind = "bibtex" // the single conditional bibliography pass
	PassRerun        PassKind = "rerun"  // an additional typeset pass
)

// PassRecord captures one external invocation. Records are appended in
// execution order and never modified afterwards.
type PassRecord struct {
	Seq       int            `json:"seq"` // 1-based position within the build
	Kind      PassKind       `json:"kind"`
	Outcome   runner.Outcome `json:"outcome"`
	ExitCode  int            `json:"exit_code"`
	Output    string         `json:"output"`
	Truncated bool           `json:"truncated,omitempty"`
	Duration  time.Duration  `json:"duration"`
}

// Result is the final product of one build.
type Result struct {
	ID       string        `json:"id"`
	Passes   []PassRecord  `json:"passes"`
	Log      string        `json:"log"`                // aggregated pass logs, in order
	Artifact []byte        `json:"artifact,omitempty"` // nil when no document was produced
	Duration time.Duration `json:"duration"`
}

// ArtifactProduced reports whether the build yielded a document.
func (r *Result) ArtifactProduced() bool {
	return len(r.Artifact) > 0
}

// Outcome maps the result onto a metrics outcome label.
func (r *Result) Outcome() string {
	if r.ArtifactProduced() {
		return metrics.BuildArtifact
	}
	return metrics.BuildNoArtifact
}
