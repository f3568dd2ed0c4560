// Package report provides structured persistence and retrieval of build
// records. A record keeps the diagnostic trail of one build: its passes,
// the aggregated log, and summary figures. Artifact bytes are not
// retained; records exist so that a past build can be inspected, not
// re-downloaded.
package report

import (
	"errors"
	"time"

	"github.com/texmill/texmill/internal/compile"
)

// ErrNotFound is returned when no record exists for a build ID.
var ErrNotFound = errors.New("build record not found")

// Store persists and retrieves build records.
type Store interface {
	Save(rec *BuildRecord) error
	Load(id string) (*BuildRecord, error)
}

// BuildRecord is the stored form of one build result.
type BuildRecord struct {
	ID           string               `json:"id"`
	CreatedAt    time.Time            `json:"created_at"`
	Outcome      string               `json:"outcome"`
	Passes       []compile.PassRecord `json:"passes"`
	Log          string               `json:"log"`
	ArtifactSize int                  `json:"artifact_size"`
	Duration     time.Duration        `json:"duration"`
}

// FromResult converts a finished build into its stored record.
func FromResult(res *compile.Result) *BuildRecord {
	return &BuildRecord{
		ID:           res.ID,
		CreatedAt:    time.Now().UTC(),
		Outcome:      res.Outcome(),
		Passes:       res.Passes,
		Log:          res.Log,
		ArtifactSize: len(res.Artifact),
		Duration:     res.Duration,
	}
}
