// package tasks implements the long-running playlist operations.
//
// The core abstraction is SortEngine, which orchestrates fetching a playlist,
// ordering its tracks, and writing the result to a new playlist.
// Operations emit progress updates via channels for non-blocking status reporting to CLI/UI layers.
package tasks

import (
	"context"
	"fmt"
	"strings"

	"github.com/duskmoss/sortify/internal/models"
	"github.com/duskmoss/sortify/internal/services"
	"github.com/duskmoss/sortify/internal/shared"
	"github.com/duskmoss/sortify/internal/sorter"
)

// writeBatchSize is how many tracks each write step commits.
const writeBatchSize = 100

// SortRunResult contains all data from a full sort-and-write operation.
type SortRunResult struct {
	Source     *models.PlaylistSummary // Source playlist
	Created    *models.PlaylistSummary // Newly created destination playlist
	Rules      []models.SortRule       // Rules applied, in priority order
	TrackCount int                     // Tracks written to the destination
	Batches    int                     // Write batches committed
}

// SortPreviewResult contains the sorted track listing without any write.
type SortPreviewResult struct {
	Source *models.PlaylistSummary
	Rules  []models.SortRule
	Rows   []models.TrackRow
}

// SortEngine defines the playlist sorting operations.
type SortEngine interface {
	// Run fetches a playlist, sorts its tracks by the given rules, and writes
	// the result to a new playlist.
	Run(ctx context.Context, progress chan<- ProgressUpdate, sourceIDOrName, destName string, rules []models.SortRule) (*SortRunResult, error)

	// Preview fetches a playlist and returns its tracks in sorted order
	// without creating anything.
	Preview(ctx context.Context, progress chan<- ProgressUpdate, sourceIDOrName string, rules []models.SortRule) (*SortPreviewResult, error)

	// ExportAll writes the given playlists (or the whole library when ids is
	// empty) to files in the requested format.
	ExportAll(ctx context.Context, progress chan<- ProgressUpdate, ids []string, opts BulkExportOpts) (*BulkExportResult, error)
}

// PlaylistSortEngine implements [SortEngine] against a [services.Service].
type PlaylistSortEngine struct {
	spotify services.Service
	sorter  *sorter.Engine
}

// NewPlaylistSortEngine creates a new PlaylistSortEngine with the provided service.
func NewPlaylistSortEngine(spotify services.Service) *PlaylistSortEngine {
	return &PlaylistSortEngine{
		spotify: spotify,
		sorter:  sorter.New(),
	}
}

// sendProgress sends a progress update through the channel without blocking.
// Uses select with default to ensure progress reporting never blocks execution.
func (e *PlaylistSortEngine) sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
		// Sent successfully
	default:
		// Channel full or closed, skip this update
	}
}

// resolvePlaylist finds a playlist by ID or, failing that, by exact name.
func (e *PlaylistSortEngine) resolvePlaylist(ctx context.Context, idOrName string) (*models.PlaylistSummary, error) {
	playlists, err := e.spotify.GetPlaylists(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to list playlists: %v", shared.ErrAPIRequest, err)
	}

	for i := range playlists {
		if playlists[i].ID == idOrName {
			return &playlists[i], nil
		}
	}
	for i := range playlists {
		if playlists[i].Name == idOrName {
			return &playlists[i], nil
		}
	}

	return nil, fmt.Errorf("%w: no playlist found matching '%s'", shared.ErrPlaylistNotFound, idOrName)
}

// fetchSorted resolves the source playlist and returns its tracks in sorted order.
func (e *PlaylistSortEngine) fetchSorted(ctx context.Context, progress chan<- ProgressUpdate, sourceIDOrName string, rules []models.SortRule) (*models.PlaylistSummary, []models.TrackRow, error) {
	if e.spotify == nil {
		return nil, nil, fmt.Errorf("%w: Spotify service not initialized", shared.ErrServiceUnavailable)
	}

	e.sendProgress(progress, fetchSourceUpdate(1, 1, sourceIDOrName))
	source, err := e.resolvePlaylist(ctx, sourceIDOrName)
	if err != nil {
		return nil, nil, err
	}

	e.sendProgress(progress, fetchTracksUpdate(1, 1, source.Name))
	rows, err := e.spotify.GetPlaylistTracks(ctx, source.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: failed to fetch tracks: %v", shared.ErrAPIRequest, err)
	}
	if len(rows) == 0 {
		return nil, nil, fmt.Errorf("%w: playlist '%s' has no playable tracks", shared.ErrEmptyTrackSet, source.Name)
	}

	e.sendProgress(progress, sortTracksUpdate(len(rows), rules))
	sorted := e.sorter.Sort(rows, rules)

	return source, sorted, nil
}

// Preview fetches and sorts without writing anything.
func (e *PlaylistSortEngine) Preview(ctx context.Context, progress chan<- ProgressUpdate, sourceIDOrName string, rules []models.SortRule) (*SortPreviewResult, error) {
	source, sorted, err := e.fetchSorted(ctx, progress, sourceIDOrName, rules)
	if err != nil {
		return nil, err
	}

	return &SortPreviewResult{
		Source: source,
		Rules:  rules,
		Rows:   sorted,
	}, nil
}

// Run performs the full sort: fetch, order, create the destination playlist,
// and write the tracks in sequential batches.
//
// The source playlist is never modified. A failure mid-write leaves the
// destination holding a committed prefix of the sorted order.
func (e *PlaylistSortEngine) Run(ctx context.Context, progress chan<- ProgressUpdate, sourceIDOrName, destName string, rules []models.SortRule) (*SortRunResult, error) {
	source, sorted, err := e.fetchSorted(ctx, progress, sourceIDOrName, rules)
	if err != nil {
		return nil, err
	}

	result := &SortRunResult{
		Source:     source,
		Rules:      rules,
		TrackCount: len(sorted),
	}

	profile, err := e.spotify.UserProfile(ctx)
	if err != nil {
		return result, fmt.Errorf("%w: failed to resolve user: %v", shared.ErrAPIRequest, err)
	}

	destName = strings.TrimSpace(destName)
	if destName == "" {
		destName = fmt.Sprintf("%s (sorted)", source.Name)
	}

	e.sendProgress(progress, createPlaylistUpdate(destName))
	created, err := e.spotify.CreatePlaylist(ctx, profile.ID, destName, describeSort(source.Name, rules), false)
	if err != nil {
		return result, fmt.Errorf("failed to create destination playlist: %w", err)
	}
	result.Created = created

	uris := make([]string, len(sorted))
	for i, row := range sorted {
		uris[i] = row.URI
	}

	totalBatches := (len(uris) + writeBatchSize - 1) / writeBatchSize
	for start := 0; start < len(uris); start += writeBatchSize {
		end := min(start+writeBatchSize, len(uris))
		batch := result.Batches + 1

		e.sendProgress(progress, writeTracksUpdate(batch, totalBatches, end-start))
		if err := e.spotify.AddTracks(ctx, created.ID, uris[start:end]); err != nil {
			return result, fmt.Errorf("write stopped after %d of %d batches: %w", result.Batches, totalBatches, err)
		}
		result.Batches = batch
	}

	e.sendProgress(progress, completedUpdate(created, len(uris)))
	return result, nil
}

// describeSort renders the applied rules for the destination description.
func describeSort(sourceName string, rules []models.SortRule) string {
	if len(rules) == 0 {
		return fmt.Sprintf("Sorted copy of %s", sourceName)
	}

	parts := make([]string, len(rules))
	for i, rule := range rules {
		parts[i] = rule.String()
	}
	return fmt.Sprintf("Sorted copy of %s (%s)", sourceName, strings.Join(parts, ", "))
}
