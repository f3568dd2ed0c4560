package compile

import (
	"encoding/base64"
	"fmt"

	"github.com/texmill/texmill/internal/workspace"
)

// AssembleFileSet builds the inputs for a compilation from wire-format
// maps: the entry point source, additional text files keyed by relative
// path, and base64-encoded binary files. The entry is written first, so
// a text entry reusing the reserved name overrides it.
func AssembleFileSet(main string, texts, binaries map[string]string) (workspace.FileSet, error) {
	files := workspace.FileSet{}
	if main != "" {
		files[EntryName] = workspace.File{Data: []byte(main)}
	}
	for path, content := range texts {
		files[path] = workspace.File{Data: []byte(content)}
	}
	for path, encoded := range binaries {
		data, err := base64.StdEncoding.DecodeString(encoded)
		if err != nil {
			return nil, fmt.Errorf("decoding binary file %s: %v", path, err)
		}
		files[path] = workspace.File{Data: data, Binary: true}
	}
	return files, nil
}
