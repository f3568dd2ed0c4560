package workspace

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// IsBinaryPath reports whether path should be transported base64-encoded.
// Images, fonts, and embedded PDFs count as binary; everything else is
// treated as text.
func IsBinaryPath(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png", ".jpg", ".jpeg", ".gif", ".bmp", ".tif", ".tiff",
		".pdf", ".eps", ".ttf", ".otf", ".woff", ".woff2":
		return true
	}
	return false
}

// IsIntermediate reports whether path is a byproduct of a previous run of
// the typesetting engine rather than a document source. Compressed synctex
// output carries a double extension, so it is tested against the full name.
func IsIntermediate(path string) bool {
	name := strings.ToLower(filepath.Base(path))
	if strings.HasSuffix(name, ".synctex.gz") || strings.HasSuffix(name, ".synctex") {
		return true
	}
	switch filepath.Ext(name) {
	case ".aux", ".bbl", ".blg", ".fdb_latexmk", ".fls", ".idx", ".ilg",
		".ind", ".lof", ".log", ".lot", ".nav", ".out", ".snm", ".toc",
		".vrb", ".xdv":
		return true
	}
	return false
}

// Collect walks dir and builds a FileSet from its regular files, keyed by
// forward-slash relative path. Hidden entries and engine byproducts are
// left out, as is any relative path named in skip. PDF inputs such as
// embedded figures are collected; callers skip the build's own artifact
// by name.
func Collect(dir string, skip ...string) (FileSet, error) {
	skipped := make(map[string]bool, len(skip))
	for _, s := range skip {
		skipped[s] = true
	}

	set := FileSet{}
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		name := d.Name()
		if strings.HasPrefix(name, ".") && path != dir {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		if IsIntermediate(path) {
			return nil
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if skipped[rel] {
			return nil
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading %s: %w", rel, err)
		}
		set[rel] = File{Data: data, Binary: IsBinaryPath(name)}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return set, nil
}
