// Package runner executes external commands with a bounded wall-clock
// timeout and a capped output buffer. Failures never surface as errors:
// spawn problems, non-zero exits, and timeouts are all folded into the
// returned Result so callers can sequence further work off a crashed or
// hung tool without unwinding.
package runner

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"time"
)

// TimeoutMessage replaces the captured output of a timed-out invocation.
// Partial output from a killed process is discarded rather than reported,
// so that truncated diagnostics can never satisfy a rerun marker.
const TimeoutMessage = "Command timed out"

const (
	fallbackTimeout   = 60 * time.Second
	fallbackMaxOutput = 1 << 20
)

// Runner executes commands inside a caller-supplied directory.
// The zero value is usable; unset limits fall back to 60s and 1 MB.
type Runner struct {
	Timeout   time.Duration // per invocation
	MaxOutput int           // bytes, applied to each stream
}

// Run executes argv[0] with the remaining arguments in dir. The binary
// name is resolved via PATH. All failure modes are reported through
// the Result; Run itself never fails.
func (r *Runner) Run(ctx context.Context, argv []string, dir string) *Result {
	if len(argv) == 0 {
		return &Result{Outcome: SpawnError, ExitCode: -1, Output: "empty command"}
	}

	timeout := r.Timeout
	if timeout <= 0 {
		timeout = fallbackTimeout
	}
	maxOutput := r.MaxOutput
	if maxOutput <= 0 {
		maxOutput = fallbackMaxOutput
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Dir = dir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &limitWriter{buf: &stdout, limit: maxOutput}
	cmd.Stderr = &limitWriter{buf: &stderr, limit: maxOutput}

	runErr := cmd.Run()

	if ctx.Err() != nil {
		return &Result{Outcome: TimedOut, ExitCode: -1, Output: TimeoutMessage}
	}

	// Streams are joined with a single newline so the boundary stays
	// visible in the combined text.
	output := stdout.String() + "\n" + stderr.String()
	truncated := stdout.Len() >= maxOutput || stderr.Len() >= maxOutput

	if runErr != nil {
		var exitErr *exec.ExitError
		if !errors.As(runErr, &exitErr) {
			// Binary not found, permission denied, or similar.
			return &Result{Outcome: SpawnError, ExitCode: -1, Output: runErr.Error()}
		}
		return &Result{
			Outcome:   Failed,
			ExitCode:  exitErr.ExitCode(),
			Output:    output,
			Truncated: truncated,
		}
	}

	return &Result{
		Outcome:   Success,
		ExitCode:  0,
		Output:    output,
		Truncated: truncated,
	}
}

// limitWriter writes up to limit bytes to buf, then silently discards the rest.
type limitWriter struct {
	buf   *bytes.Buffer
	limit int
}

func (w *limitWriter) Write(p []byte) (int, error) {
	remaining := w.limit - w.buf.Len()
	if remaining <= 0 {
		return len(p), nil // discard
	}
	if len(p) > remaining {
		// Write only what fits, but report all bytes as consumed
		// to avoid short write errors from io.Copy.
		w.buf.Write(p[:remaining])
		return len(p), nil
	}
	return w.buf.Write(p)
}
