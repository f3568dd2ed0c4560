// Package workspace manages the ephemeral build directories that input
// files are materialized into and artifacts are read back from.
//
// Each build owns exactly one workspace. The directory is created under
// the system temp dir, populated from a FileSet, handed to the build
// pipeline, and removed unconditionally when the build ends. Relative
// paths inside a FileSet are validated so that no entry can escape the
// workspace root.
package workspace
