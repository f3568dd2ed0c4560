// Package metrics provides observability hooks for builds and passes.
//
// Components receive a Recorder through dependency injection. The zero
// default is NoopRecorder, so metrics stay optional: the server wires a
// PrometheusRecorder, the one-shot CLI does not wire anything.
package metrics

import "time"

// Build outcome labels.
const (
	BuildArtifact   = "artifact"    // build finished and produced the document
	BuildNoArtifact = "no_artifact" // build finished but no document appeared
	BuildRejected   = "rejected"    // request refused before a workspace existed
	BuildError      = "error"       // workspace materialization failed
)

// Recorder defines the metrics operations the build pipeline emits.
// Implementations must tolerate concurrent use.
type Recorder interface {
	ObservePassDuration(kind string, d time.Duration)
	IncPassOutcome(kind, outcome string)
	ObserveBuildDuration(d time.Duration)
	IncBuildOutcome(outcome string) // artifact|no_artifact|rejected|error
}

// NoopRecorder is a Recorder that does nothing.
type NoopRecorder struct{}

func (NoopRecorder) ObservePassDuration(string, time.Duration) {}
func (NoopRecorder) IncPassOutcome(string, string)             {}
func (NoopRecorder) ObserveBuildDuration(time.Duration)        {}
func (NoopRecorder) IncBuildOutcome(string)                    {}
