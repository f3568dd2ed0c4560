package workspace

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestMaterialize_WritesNestedPaths(t *testing.T) {
	fs := FileSet{
		"main.tex":         {Data: []byte(`\documentclass{article}`)},
		"chapters/one.tex": {Data: []byte("first chapter")},
		"figures/plot.png": {Data: []byte{0x89, 0x50, 0x4e, 0x47}, Binary: true},
	}

	ws, err := Materialize(fs)
	if err != nil {
		t.Fatalf("Materialize: %v", err)
	}
	defer ws.Destroy()

	if ws.Dir() == "" {
		t.Fatal("Dir() returned empty string")
	}
	for rel, f := range fs {
		got, err := os.ReadFile(filepath.Join(ws.Dir(), filepath.FromSlash(rel)))
		if err != nil {
			t.Fatalf("reading %s: %v", rel, err)
		}
		if string(got) != string(f.Data) {
			t.Errorf("%s content = %q, want %q", rel, got, f.Data)
		}
	}
}

func TestMaterialize_RejectsTraversal(t *testing.T) {
	fs := FileSet{
		"main.tex":      {Data: []byte("ok")},
		"../escape.tex": {Data: []byte("bad")},
	}
	if _, err := Materialize(fs); !errors.Is(err, ErrUnsafePath) {
		t.Fatalf("Materialize error = %v, want ErrUnsafePath", err)
	}
}

func TestMaterialize_RejectsAbsolute(t *testing.T) {
	fs := FileSet{"/etc/evil": {Data: []byte("bad")}}
	if _, err := Materialize(fs); !errors.Is(err, ErrUnsafePath) {
		t.Fatalf("Materialize error = %v, want ErrUnsafePath", err)
	}
}

func TestValidatePath(t *testing.T) {
	cases := []struct {
		path string
		ok   bool
	}{
		{"main.tex", true},
		{"chapters/one.tex", true},
		{"a/b/c.bib", true},
		{"a/../b.tex", true}, // cleans to b.tex, stays inside
		{"", false},
		{".", false},
		{"..", false},
		{"../x.tex", false},
		{"a/../../x.tex", false},
		{"/abs/path.tex", false},
	}
	for _, tc := range cases {
		err := ValidatePath(tc.path)
		if tc.ok && err != nil {
			t.Errorf("ValidatePath(%q) = %v, want nil", tc.path, err)
		}
		if !tc.ok && !errors.Is(err, ErrUnsafePath) {
			t.Errorf("ValidatePath(%q) = %v, want ErrUnsafePath", tc.path, err)
		}
	}
}

func TestDestroy_RemovesTree(t *testing.T) {
	ws, err := Materialize(FileSet{"main.tex": {Data: []byte("x")}})
	if err != nil {
		t.Fatalf("Materialize: %v", err)
	}
	dir := ws.Dir()

	ws.Destroy()
	if _, err := os.Stat(dir); !os.IsNotExist(err) {
		t.Errorf("workspace still exists after Destroy: %s", dir)
	}

	// Second Destroy is a no-op.
	ws.Destroy()
}

func TestDestroy_NilSafe(t *testing.T) {
	var ws *Workspace
	ws.Destroy()
	if ws.Dir() != "" {
		t.Error("nil workspace Dir() should be empty")
	}
}

func TestReadFile(t *testing.T) {
	ws, err := Materialize(FileSet{"out/report.txt": {Data: []byte("done")}})
	if err != nil {
		t.Fatalf("Materialize: %v", err)
	}
	defer ws.Destroy()

	got, err := ws.ReadFile("out/report.txt")
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if string(got) != "done" {
		t.Errorf("ReadFile = %q, want %q", got, "done")
	}

	if _, err := ws.ReadFile("missing.txt"); err == nil {
		t.Error("ReadFile on missing file: expected error")
	}
}

func TestCollect(t *testing.T) {
	dir := t.TempDir()
	write := func(rel, content string) {
		t.Helper()
		path := filepath.Join(dir, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	write("main.tex", "document")
	write("refs.bib", "bibliography")
	write("chapters/two.tex", "chapter")
	write("figures/plot.png", "png-bytes")
	write("main.aux", "stale")
	write("main.log", "stale")
	write("main.synctex.gz", "stale")
	write(".git/config", "hidden")
	write("main.pdf", "previous artifact")

	set, err := Collect(dir, "main.pdf")
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}

	want := []string{"main.tex", "refs.bib", "chapters/two.tex", "figures/plot.png"}
	if len(set) != len(want) {
		t.Errorf("Collect returned %d files, want %d: %v", len(set), len(want), keys(set))
	}
	for _, rel := range want {
		if _, ok := set[rel]; !ok {
			t.Errorf("Collect missing %s", rel)
		}
	}
	if set["figures/plot.png"].Binary != true {
		t.Error("plot.png should be flagged binary")
	}
	if set["main.tex"].Binary {
		t.Error("main.tex should not be flagged binary")
	}
}

func TestIsIntermediate(t *testing.T) {
	for _, path := range []string{"main.aux", "main.toc", "a/b/main.bbl", "main.synctex.gz", "MAIN.LOG"} {
		if !IsIntermediate(path) {
			t.Errorf("IsIntermediate(%q) = false, want true", path)
		}
	}
	for _, path := range []string{"main.tex", "refs.bib", "style.sty", "figure.pdf"} {
		if IsIntermediate(path) {
			t.Errorf("IsIntermediate(%q) = true, want false", path)
		}
	}
}

func keys(set FileSet) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	return out
}
