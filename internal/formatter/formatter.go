// package formatter renders run artifacts: the mutation failure CSV, the run manifest and summary lines
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/desertthunder/ytmigrate/internal/shared"
)

// FailureHeader is the header row of the failure report.
var FailureHeader = []string{"videoId", "spotify_track", "reason"}

// FailureRow is one rejected video id together with the source track that produced it.
type FailureRow struct {
	VideoID     string
	SourceTrack string // normalized "title — artists", empty when unknown
	Reason      string
}

// ExportFailuresToCSV converts failure rows to CSV, header included.
func ExportFailuresToCSV(rows []FailureRow) ([]byte, error) {
	var buf bytes.Buffer
	if err := writeFailureRows(&buf, rows, true); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeFailureRows(w *bytes.Buffer, rows []FailureRow, header bool) error {
	writer := csv.NewWriter(w)
	if header {
		if err := writer.Write(FailureHeader); err != nil {
			return fmt.Errorf("failed to write CSV headers: %w", err)
		}
	}

	for _, r := range rows {
		if err := writer.Write([]string{r.VideoID, r.SourceTrack, r.Reason}); err != nil {
			return fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("CSV writer error: %w", err)
	}
	return nil
}

// FailureReport accumulates the failure rows of one run in a single CSV file.
//
// The first Write of a run replaces any report left by an earlier run; later
// writes append, so every playlist's failures end up in the same file.
type FailureReport struct {
	Path    string
	started bool
	rows    int
}

// NewFailureReport returns a report that writes to path.
func NewFailureReport(path string) *FailureReport {
	return &FailureReport{Path: path}
}

// Write appends rows to the report, creating it with a header on first use.
func (r *FailureReport) Write(rows []FailureRow) error {
	if len(rows) == 0 {
		return nil
	}

	var buf bytes.Buffer
	if err := writeFailureRows(&buf, rows, !r.started); err != nil {
		return err
	}

	flags := os.O_WRONLY | os.O_CREATE | os.O_APPEND
	if !r.started {
		flags = os.O_WRONLY | os.O_CREATE | os.O_TRUNC
		if dir := filepath.Dir(r.Path); dir != "." {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return fmt.Errorf("failed to create report directory: %w", err)
			}
		}
	}

	f, err := os.OpenFile(r.Path, flags, 0644)
	if err != nil {
		return fmt.Errorf("failed to open failure report: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("failed to write failure report: %w", err)
	}

	r.started = true
	r.rows += len(rows)
	return nil
}

// Rows returns how many rows this run has written.
func (r *FailureReport) Rows() int {
	return r.rows
}

// PlaylistManifest is the per-playlist section of a [RunManifest].
type PlaylistManifest struct {
	SourceID  string `json:"source_id"`
	TargetID  string `json:"target_id,omitempty"`
	Name      string `json:"name"`
	Tracks    int    `json:"tracks"`
	CacheHits int    `json:"cache_hits"`
	Searched  int    `json:"searched"`
	NoMatch   int    `json:"no_match"`
	Attempted int    `json:"attempted"`
	Added     int    `json:"added"`
	Failed    int    `json:"failed"`
	Size      int    `json:"size"`
	Created   bool   `json:"created"`
	Error     string `json:"error,omitempty"`
}

// RunManifest describes a finished sync run.
type RunManifest struct {
	RunID      string             `json:"run_id"`
	StartedAt  time.Time          `json:"started_at"`
	FinishedAt time.Time          `json:"finished_at"`
	DryRun     bool               `json:"dry_run"`
	Playlists  []PlaylistManifest `json:"playlists"`
}

// WriteRunManifest writes the manifest as indented JSON.
func WriteRunManifest(m *RunManifest, path string) error {
	data, err := shared.MarshalJSON(m, true)
	if err != nil {
		return fmt.Errorf("failed to encode manifest: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}
	return nil
}

// OutcomeLine is the per-playlist result line printed after mutation.
func OutcomeLine(name string, attempted, added, failed int) string {
	return fmt.Sprintf("Attempted: %d, added: %d, failed: %d to '%s'.", attempted, added, failed, name)
}

// SizeLine confirms the target playlist size after mutation.
func SizeLine(size int) string {
	return fmt.Sprintf("Playlist now shows %d items on YT Music.", size)
}

// NoMatchLine reports a track that cleared no candidate.
func NoMatchLine(track string) string {
	return fmt.Sprintf("  ! No good match for: %s", track)
}
