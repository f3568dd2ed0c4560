package runner

// Outcome classifies how a command invocation ended.
type Outcome string

const (
	// Success means the process ran to completion and exited zero.
	Success Outcome = "success"
	// Failed means the process ran to completion and exited non-zero.
	Failed Outcome = "failed"
	// SpawnError means the process could not be started at all, for
	// example because the binary is not installed.
	SpawnError Outcome = "spawn_error"
	// TimedOut means the process was killed at the timeout boundary.
	TimedOut Outcome = "timeout"
)

// Result holds the outcome of one command invocation. Every failure mode
// is represented here; Run never returns an error.
type Result struct {
	Outcome   Outcome
	ExitCode  int    // -1 when the process did not run to completion
	Output    string // stdout, a newline, then stderr
	Truncated bool   // true if either stream exceeded the size cap
}

// OK reports whether the process exited zero.
func (r *Result) OK() bool {
	return r.Outcome == Success
}
