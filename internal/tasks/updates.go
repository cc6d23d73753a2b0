package tasks

import (
	"fmt"
	"strings"

	"github.com/duskmoss/sortify/internal/models"
)

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data for advanced UIs
}

// Operation phase enumeration
type Phase int

const (
	FetchSource Phase = iota
	FetchTracks
	SortTracks
	CreatePlaylist
	WriteTracks
	ExportPlaylist
	Completed
)

func (p Phase) String() string {
	switch p {
	case FetchSource:
		return "fetch_source"
	case FetchTracks:
		return "fetch_tracks"
	case SortTracks:
		return "sort_tracks"
	case CreatePlaylist:
		return "create_playlist"
	case WriteTracks:
		return "write_tracks"
	case ExportPlaylist:
		return "export_playlist"
	case Completed:
		return "completed"
	default:
		return ""
	}
}

func fetchSourceUpdate(step, total int, idOrName string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchSource,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("Looking up playlist '%s'...", idOrName),
	}
}

func fetchTracksUpdate(step, total int, name string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchTracks,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("Fetching tracks from '%s'...", name),
	}
}

func sortTracksUpdate(count int, rules []models.SortRule) ProgressUpdate {
	parts := make([]string, len(rules))
	for i, rule := range rules {
		parts[i] = rule.String()
	}
	return ProgressUpdate{
		Phase:   SortTracks,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Sorting %d tracks by %s...", count, strings.Join(parts, ", ")),
	}
}

func createPlaylistUpdate(name string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   CreatePlaylist,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Creating playlist '%s'...", name),
	}
}

func writeTracksUpdate(batch, totalBatches, size int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   WriteTracks,
		Step:    batch,
		Total:   totalBatches,
		Message: fmt.Sprintf("[%d/%d] Writing %d tracks...", batch, totalBatches, size),
	}
}

func completedUpdate(created *models.PlaylistSummary, count int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Completed,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Playlist created: %s (%d tracks)", created.Name, count),
		Data:    created,
	}
}

func exportingPlaylistUpdate(step, total int, name string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ExportPlaylist,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] Exporting: %s...", step, total, name),
	}
}

func exportCompletedUpdate(step, total int, name string, filesCount int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ExportPlaylist,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✓ %s (%d files)", step, total, name, filesCount),
	}
}

func exportFailedUpdate(step, total int, name string, err error) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ExportPlaylist,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✗ %s: %v", step, total, name, err),
	}
}
