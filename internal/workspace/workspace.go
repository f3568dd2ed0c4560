package workspace

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/texmill/texmill/internal/logfields"
)

// ErrUnsafePath marks a file set entry whose path would resolve outside
// the workspace root.
var ErrUnsafePath = errors.New("path escapes the workspace root")

// File is one input file: raw content plus a flag recording whether the
// caller supplied it as binary. The flag does not affect materialization;
// it is carried so transport layers can round-trip the encoding.
type File struct {
	Data   []byte
	Binary bool
}

// FileSet maps workspace-relative paths to file contents. Paths may
// contain forward-slash separated subdirectories.
type FileSet map[string]File

// ValidatePath rejects paths that are empty, absolute, or that climb out
// of the workspace root via parent segments.
func ValidatePath(rel string) error {
	if rel == "" {
		return fmt.Errorf("%w: empty path", ErrUnsafePath)
	}
	if filepath.IsAbs(rel) || strings.HasPrefix(rel, "/") {
		return fmt.Errorf("%w: %s", ErrUnsafePath, rel)
	}
	clean := filepath.Clean(filepath.FromSlash(rel))
	if clean == "." || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return fmt.Errorf("%w: %s", ErrUnsafePath, rel)
	}
	return nil
}

// Workspace is one build's private directory tree.
type Workspace struct {
	dir string
}

// Materialize allocates a fresh directory and writes every entry of fs
// into it, creating intermediate directories as needed. On any write
// failure the partially built directory is removed before the error is
// returned, so a failed Materialize leaves nothing on disk.
func Materialize(fs FileSet) (*Workspace, error) {
	for rel := range fs {
		if err := ValidatePath(rel); err != nil {
			return nil, err
		}
	}

	dir, err := os.MkdirTemp("", "texmill-")
	if err != nil {
		return nil, fmt.Errorf("creating workspace: %w", err)
	}
	ws := &Workspace{dir: dir}

	for rel, file := range fs {
		target := filepath.Join(dir, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(target), 0o750); err != nil {
			ws.Destroy()
			return nil, fmt.Errorf("creating directory for %s: %w", rel, err)
		}
		if err := os.WriteFile(target, file.Data, 0o644); err != nil {
			ws.Destroy()
			return nil, fmt.Errorf("writing %s: %w", rel, err)
		}
	}

	slog.Debug("workspace materialized", logfields.Dir(dir), slog.Int("files", len(fs)))
	return ws, nil
}

// Dir returns the workspace root. Empty after Destroy.
func (w *Workspace) Dir() string {
	if w == nil {
		return ""
	}
	return w.dir
}

// ReadFile reads a file from the workspace by relative path.
func (w *Workspace) ReadFile(rel string) ([]byte, error) {
	return os.ReadFile(filepath.Join(w.dir, filepath.FromSlash(rel)))
}

// Destroy removes the workspace directory tree. A removal failure is
// logged and swallowed; teardown must never disturb a build's already
// computed result. Destroy is safe to call more than once.
func (w *Workspace) Destroy() {
	if w == nil || w.dir == "" {
		return
	}
	if err := os.RemoveAll(w.dir); err != nil {
		slog.Warn("workspace cleanup failed", logfields.Dir(w.dir), logfields.Error(err))
		return
	}
	slog.Debug("workspace removed", logfields.Dir(w.dir))
	w.dir = ""
}
