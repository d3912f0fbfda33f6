package tasks

import (
	"fmt"

	"github.com/desertthunder/ytmigrate/internal/formatter"
	"github.com/desertthunder/ytmigrate/internal/models"
)

// ProgressUpdate represents a progress event during a sync run.
//
// Used to send real-time updates to the CLI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data
}

// Operation phase enumeration
type Phase int

const (
	FetchPlaylists Phase = iota
	ProcessPlaylist
	EnsurePlaylist
	ResolveTracks
	NoMatch
	Mutate
	Report
)

func (p Phase) String() string {
	switch p {
	case FetchPlaylists:
		return "fetch_playlists"
	case ProcessPlaylist:
		return "process_playlist"
	case EnsurePlaylist:
		return "ensure_playlist"
	case ResolveTracks:
		return "resolve_tracks"
	case NoMatch:
		return "no_match"
	case Mutate:
		return "mutate"
	case Report:
		return "report"
	default:
		return ""
	}
}

func loggedInUpdate(u *models.User) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchPlaylists,
		Message: fmt.Sprintf("Logged in to Spotify as: %s (%s)", u.DisplayName, u.ID),
		Data:    u,
	}
}

func foundPlaylistsUpdate(n int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchPlaylists,
		Total:   n,
		Message: fmt.Sprintf("Found %d Spotify playlists + Liked Songs.", n),
	}
}

func nothingSelectedUpdate() ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchPlaylists,
		Message: "No playlists to process after filters.",
	}
}

func processingUpdate(step, total int, pl models.PlaylistDescriptor) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ProcessPlaylist,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("=== Processing: %s ===", pl.Name),
		Data:    pl,
	}
}

func ensuredUpdate(name, id string, created bool) ProgressUpdate {
	verb := "Using existing"
	if created {
		verb = "Created"
	}
	return ProgressUpdate{
		Phase:   EnsurePlaylist,
		Message: fmt.Sprintf("%s YT Music playlist '%s' (%s)", verb, name, id),
	}
}

func tracksFoundUpdate(n int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ResolveTracks,
		Total:   n,
		Message: fmt.Sprintf("%d tracks to process.", n),
	}
}

func noMatchUpdate(step, total int, track string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   NoMatch,
		Step:    step,
		Total:   total,
		Message: formatter.NoMatchLine(track),
		Data:    track,
	}
}

func outcomeUpdate(name string, o models.BatchOutcome) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Mutate,
		Message: formatter.OutcomeLine(name, o.Attempted, o.Added, len(o.Failed)),
		Data:    o,
	}
}

func sizeUpdate(size int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Mutate,
		Message: formatter.SizeLine(size),
	}
}

func failureReportUpdate(path string, n int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Report,
		Message: fmt.Sprintf("Wrote %d rejected items to %s.", n, path),
	}
}

func nothingToAddUpdate() ProgressUpdate {
	return ProgressUpdate{
		Phase:   Report,
		Message: "Nothing to add for this playlist.",
	}
}

func dryRunUpdate(name string, pending int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Report,
		Message: fmt.Sprintf("Dry run: would add %d items to '%s'.", pending, name),
	}
}
