package logfields

import "log/slog"

// Canonical log field name constants to avoid drift across packages.
const (
	KeyBuildID    = "build_id"
	KeyPass       = "pass"
	KeyPassKind   = "pass_kind"
	KeyPath       = "path"
	KeyDir        = "dir"
	KeyCommand    = "command"
	KeyDurationMS = "duration_ms"
	KeyExitCode   = "exit_code"
	KeyOutcome    = "outcome"
	KeyBytes      = "bytes"
	KeyError      = "error"
)

// Granular helpers returning slog.Attr so callers can compose them.
func BuildID(id string) slog.Attr     { return slog.String(KeyBuildID, id) }
func Pass(n int) slog.Attr            { return slog.Int(KeyPass, n) }
func PassKind(k string) slog.Attr     { return slog.String(KeyPassKind, k) }
func Path(p string) slog.Attr         { return slog.String(KeyPath, p) }
func Dir(d string) slog.Attr          { return slog.String(KeyDir, d) }
func Command(c string) slog.Attr      { return slog.String(KeyCommand, c) }
func DurationMS(ms float64) slog.Attr { return slog.Float64(KeyDurationMS, ms) }
func ExitCode(code int) slog.Attr     { return slog.Int(KeyExitCode, code) }
func Outcome(o string) slog.Attr      { return slog.String(KeyOutcome, o) }
func Bytes(n int) slog.Attr           { return slog.Int(KeyBytes, n) }

func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
