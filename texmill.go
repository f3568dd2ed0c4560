// Package texmill compiles LaTeX documents to PDF through a bounded
// multi-pass pipeline around an external TeX engine and bibliography tool.
package texmill

// Version is the texmill release version.
const Version = "0.3.0"
