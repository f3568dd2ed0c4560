// Package watch rebuilds a document directory whenever its sources
// change. The directory is collected into a fresh file set on every
// build, so renames and deletions are picked up without bookkeeping.
package watch

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/texmill/texmill/internal/compile"
	"github.com/texmill/texmill/internal/logfields"
	"github.com/texmill/texmill/internal/workspace"
)

const fallbackDebounce = 300 * time.Millisecond

// Watcher drives continuous compilation of one document directory.
type Watcher struct {
	Engine   *compile.Engine
	Dir      string        // document directory with main.tex at its root
	Output   string        // artifact destination, default main.pdf inside Dir
	Debounce time.Duration // quiet period that folds an event burst into one build
}

// Run builds the document once, then watches the directory tree and
// rebuilds after each burst of changes. It returns when ctx is done or
// the filesystem watcher shuts down.
func (w *Watcher) Run(ctx context.Context) error {
	if w.Dir == "" {
		w.Dir = "."
	}
	if st, err := os.Stat(w.Dir); err != nil || !st.IsDir() {
		return fmt.Errorf("document directory not found: %s", w.Dir)
	}

	// Build once up front so the session starts from a fresh artifact.
	w.build(ctx)

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("fsnotify: %w", err)
	}
	defer func() { _ = watcher.Close() }()
	if err := addDirsRecursive(watcher, w.Dir); err != nil {
		return err
	}

	rebuild := make(chan struct{}, 1)
	trigger := w.newDebouncer(rebuild)
	go w.worker(ctx, rebuild)

	slog.Info("watching for changes",
		logfields.Dir(w.Dir),
		slog.Duration("debounce", w.debounceInterval()))

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			w.handleEvent(watcher, ev, trigger)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			slog.Warn("watcher error", logfields.Error(err))
		}
	}
}

// build collects the directory, compiles it, and writes the artifact
// back. Failures are logged and absorbed; the watch session outlives a
// broken intermediate state of the sources.
func (w *Watcher) build(ctx context.Context) {
	var skip []string
	if rel, err := filepath.Rel(w.Dir, w.artifactPath()); err == nil && filepath.IsLocal(rel) {
		skip = append(skip, rel)
	}
	files, err := workspace.Collect(w.Dir, skip...)
	if err != nil {
		slog.Error("collecting sources failed", logfields.Dir(w.Dir), logfields.Error(err))
		return
	}

	res, err := w.Engine.Compile(ctx, files)
	if err != nil {
		slog.Error("build failed", logfields.Error(err))
		return
	}
	if !res.ArtifactProduced() {
		slog.Warn("build produced no artifact", logfields.BuildID(res.ID))
		return
	}
	if err := os.WriteFile(w.artifactPath(), res.Artifact, 0o644); err != nil {
		slog.Error("writing artifact failed", logfields.Path(w.artifactPath()), logfields.Error(err))
		return
	}
	slog.Info("artifact written", logfields.Path(w.artifactPath()), logfields.Bytes(len(res.Artifact)))
}

func (w *Watcher) artifactPath() string {
	if w.Output != "" {
		return w.Output
	}
	return filepath.Join(w.Dir, compile.ArtifactName)
}

func (w *Watcher) debounceInterval() time.Duration {
	if w.Debounce > 0 {
		return w.Debounce
	}
	return fallbackDebounce
}

// newDebouncer returns a trigger that arms a timer on every call and
// requests one rebuild once the burst goes quiet.
func (w *Watcher) newDebouncer(rebuild chan<- struct{}) func() {
	var mu sync.Mutex
	var timer *time.Timer

	return func() {
		mu.Lock()
		defer mu.Unlock()
		if timer != nil {
			timer.Stop()
		}
		timer = time.AfterFunc(w.debounceInterval(), func() {
			select {
			case rebuild <- struct{}{}:
			default:
			}
		})
	}
}

// worker serializes rebuilds. The channel is buffered one deep, so
// triggers arriving mid-build collapse into a single follow-up build.
func (w *Watcher) worker(ctx context.Context, rebuild <-chan struct{}) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-rebuild:
			w.build(ctx)
		}
	}
}

func (w *Watcher) handleEvent(watcher *fsnotify.Watcher, ev fsnotify.Event, trigger func()) {
	if w.ignored(ev.Name) {
		return
	}
	if ev.Op&fsnotify.Create == fsnotify.Create {
		if fi, err := os.Stat(ev.Name); err == nil && fi.IsDir() {
			_ = addDirsRecursive(watcher, ev.Name)
		}
	}
	slog.Debug("change detected", logfields.Path(ev.Name), slog.String("op", ev.Op.String()))
	trigger()
}

// ignored reports whether an event on path must not trigger a rebuild:
// hidden files, editor temp and swap files, engine intermediates from
// manual runs, and the artifact this watcher writes back itself.
func (w *Watcher) ignored(path string) bool {
	base := filepath.Base(path)

	if strings.HasPrefix(base, ".") {
		return true
	}
	if strings.HasSuffix(base, "~") ||
		strings.HasSuffix(base, ".swp") ||
		strings.HasSuffix(base, ".swx") {
		return true
	}
	if strings.HasPrefix(base, "#") && strings.HasSuffix(base, "#") {
		return true
	}
	if base == "Thumbs.db" {
		return true
	}
	if workspace.IsIntermediate(base) {
		return true
	}
	return filepath.Clean(path) == filepath.Clean(w.artifactPath())
}

func addDirsRecursive(w *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && strings.HasPrefix(filepath.Base(path), ".") {
			return fs.SkipDir
		}
		if err := w.Add(path); err != nil {
			slog.Warn("watch add failed", logfields.Dir(path), logfields.Error(err))
		}
		return nil
	})
}
