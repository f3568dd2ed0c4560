package texlog

import "testing"

func TestNeedsBibliography(t *testing.T) {
	positives := []string{
		"LaTeX Warning: Citation `knuth84' on page 1 undefined on input line 12.",
		"LaTeX Warning: There were undefined references.",
		"Package biblatex Warning: Please (re)run Biber on the file:\n(biblatex) main",
		"Package natbib Warning: Please (re)run BibTeX on the file: main",
	}
	for _, log := range positives {
		if !NeedsBibliography(log) {
			t.Errorf("NeedsBibliography(%q) = false, want true", log)
		}
	}

	negatives := []string{
		"",
		"Output written on main.pdf (3 pages, 41203 bytes).",
		"LaTeX Warning: citation undefined", // lowercase, no match
		"Underfull \\hbox (badness 10000) in paragraph",
	}
	for _, log := range negatives {
		if NeedsBibliography(log) {
			t.Errorf("NeedsBibliography(%q) = true, want false", log)
		}
	}
}

func TestNeedsRerun(t *testing.T) {
	positives := []string{
		"LaTeX Warning: Label(s) may have changed. Rerun to get cross-references right.",
		"Package longtable Warning: Table widths have changed. Rerun LaTeX.",
		"Package rerunfilecheck Warning: File `main.out' has changed. Rerun LaTeX.",
		"No file main.aux.",
		"No file main.toc.",
	}
	for _, log := range positives {
		if !NeedsRerun(log) {
			t.Errorf("NeedsRerun(%q) = false, want true", log)
		}
	}

	negatives := []string{
		"",
		"Output written on main.pdf (12 pages, 180347 bytes).",
		"No file other.aux.", // different job name
		"rerun latex",       // lowercase, no match
	}
	for _, log := range negatives {
		if NeedsRerun(log) {
			t.Errorf("NeedsRerun(%q) = true, want false", log)
		}
	}
}

func TestPredicatesAreDeterministic(t *testing.T) {
	log := "LaTeX Warning: There were undefined references.\nNo file main.toc."
	for i := 0; i < 3; i++ {
		if !NeedsBibliography(log) || !NeedsRerun(log) {
			t.Fatal("predicate result changed between identical calls")
		}
	}
}
