// Package texlog classifies typesetting diagnostics. It answers two
// questions about the captured output of a single engine pass: does the
// document need a bibliography pass, and does it need another typeset
// pass. Both predicates are pure functions over the log text.
package texlog

import "strings"

// bibliographyMarkers indicate unresolved citations or an explicit
// instruction from a citation package to run the bibliography tool.
// Matching is case-sensitive substring search.
var bibliographyMarkers = []string{
	"Citation",
	"There were undefined references",
	"Please (re)run Biber on the file",
	"Please (re)run BibTeX on the file",
}

// rerunMarkers indicate that labels, cross-references, or generated
// tables changed during the pass, or that an expected auxiliary file was
// absent. The missing-file markers are tied to the fixed main job name.
var rerunMarkers = []string{
	"Rerun to get cross-references right",
	"Label(s) may have changed",
	"Rerun LaTeX",
	"Table widths have changed. Rerun LaTeX",
	"No file main.aux.",
	"No file main.toc.",
}

// Classifier applies the pdflatex/bibtex marker vocabulary. It exists so
// consumers can depend on the two predicates as a capability and swap in
// another dialect without touching their control flow.
type Classifier struct{}

func (Classifier) NeedsBibliography(output string) bool { return NeedsBibliography(output) }
func (Classifier) NeedsRerun(output string) bool        { return NeedsRerun(output) }

// NeedsBibliography reports whether output asks for a bibliography pass.
func NeedsBibliography(output string) bool {
	return containsAny(output, bibliographyMarkers)
}

// NeedsRerun reports whether output asks for another typeset pass.
func NeedsRerun(output string) bool {
	return containsAny(output, rerunMarkers)
}

func containsAny(text string, markers []string) bool {
	for _, marker := range markers {
		if strings.Contains(text, marker) {
			return true
		}
	}
	return false
}
