package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/duskmoss/sortify/internal/shared"
	"github.com/duskmoss/sortify/internal/tasks"
)

// PlaylistsList lists the current user's playlists with optional limit.
func (r *Runner) PlaylistsList(ctx context.Context, cmd *cli.Command) error {
	limit := int(cmd.Int("limit"))
	useJSON := cmd.Bool("json")
	pretty := cmd.Bool("pretty")

	if r.spotify == nil {
		return fmt.Errorf("%w: Spotify service not initialized", shared.ErrServiceUnavailable)
	}

	r.logger.Info("listing playlists", "limit", limit)

	playlists, err := r.spotify.GetPlaylists(ctx)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}

	if limit > 0 && limit < len(playlists) {
		playlists = playlists[:limit]
	}

	if useJSON {
		return r.writeJSON(playlists, pretty)
	}

	r.writePlain("Found %d playlists:\n\n", len(playlists))
	for i, p := range playlists {
		r.writePlain("%d. %s\n", i+1, p.Name)
		if p.Description != "" {
			r.writePlain("   Description: %s\n", p.Description)
		}
		r.writePlain("   ID: %s\n", p.ID)
		r.writePlain("   Tracks: %d\n", p.TotalTracks)
		if p.OwnerName != "" {
			r.writePlain("   Owner: %s\n", p.OwnerName)
		}
		r.writePlain("\n")
	}

	return nil
}

// PlaylistTracks lists the tracks of one playlist, resolved by ID or exact name.
func (r *Runner) PlaylistTracks(ctx context.Context, cmd *cli.Command) error {
	idOrName := cmd.StringArg("playlist")
	useJSON := cmd.Bool("json")
	pretty := cmd.Bool("pretty")

	if idOrName == "" {
		return fmt.Errorf("%w: playlist ID or name is required", shared.ErrMissingArgument)
	}

	// Preview with no rules keeps the playlist order.
	preview, err := r.engine.Preview(ctx, nil, idOrName, nil)
	if err != nil {
		return err
	}

	if useJSON {
		return r.writeJSON(preview, pretty)
	}

	r.writePlain("Playlist: %s\n", preview.Source.Name)
	r.writePlain("Tracks: %d\n\n", len(preview.Rows))

	for i, row := range preview.Rows {
		r.writePlain("%d. %s - %s\n", i+1, row.Artists, row.Name)
		if row.Album != "" {
			r.writePlain("   Album: %s\n", row.Album)
		}
		r.writePlain("   Duration: %s\n", shared.FormatDuration(row.DurationMS))
	}

	return nil
}

// PlaylistsExport exports playlists to files; with no --id it exports the whole library.
func (r *Runner) PlaylistsExport(ctx context.Context, cmd *cli.Command) error {
	ids := cmd.StringSlice("id")
	opts := tasks.BulkExportOpts{
		Format:     cmd.String("format"),
		OutputDir:  cmd.String("output"),
		NumWorkers: int(cmd.Int("workers")),
		RateLimit:  cmd.Float("rate"),
	}

	r.logger.Info("exporting playlists", "count", len(ids), "format", opts.Format)

	progress := make(chan tasks.ProgressUpdate, 32)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for update := range progress {
			r.logger.Info(update.Message, "phase", update.Phase, "step", update.Step, "total", update.Total)
		}
	}()

	result, err := r.engine.ExportAll(ctx, progress, ids, opts)
	close(progress)
	<-done
	if err != nil {
		return err
	}

	r.writePlain("✓ Exported %d of %d playlists to %s\n", result.SuccessfulExports, result.TotalPlaylists, result.OutputDirectory)
	if result.ManifestPath != "" {
		r.writePlain("Manifest: %s\n", result.ManifestPath)
	}
	for _, pr := range result.Results {
		if !pr.Success {
			r.writePlain("✗ %s (%s): %v\n", pr.PlaylistName, pr.PlaylistID, pr.Error)
		}
	}
	if result.FailedExports > 0 {
		return fmt.Errorf("%d exports failed", result.FailedExports)
	}

	return nil
}
