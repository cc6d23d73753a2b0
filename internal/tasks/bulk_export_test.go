package tasks

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/duskmoss/sortify/internal/models"
	tu "github.com/duskmoss/sortify/internal/testing"
)

func exportFake() *fakeService {
	return &fakeService{
		playlists: []models.PlaylistSummary{
			{ID: "p1", Name: "First", TotalTracks: 1},
			{ID: "p2", Name: "Second", TotalTracks: 1},
		},
		tracks: map[string][]models.TrackRow{
			"p1": {{ID: "t1", URI: "spotify:track:t1", Name: "One", Artists: "Ana", OriginalIndex: 0}},
			"p2": {{ID: "t2", URI: "spotify:track:t2", Name: "Two", Artists: "Bo", OriginalIndex: 0}},
		},
	}
}

func TestExportAll(t *testing.T) {
	t.Run("Exports named playlists as JSON with a manifest", func(t *testing.T) {
		dir := t.TempDir()
		engine := NewPlaylistSortEngine(exportFake())

		result, err := engine.ExportAll(context.Background(), nil, []string{"p1", "p2"}, BulkExportOpts{
			Format:    "json",
			OutputDir: dir,
		})
		if err != nil {
			t.Fatalf("export failed: %v", err)
		}

		if result.SuccessfulExports != 2 || result.FailedExports != 0 {
			t.Errorf("unexpected result %+v", result)
		}
		for _, name := range []string{"p1.json", "p2.json", "export_manifest.json"} {
			tu.AssertFileExists(t, filepath.Join(dir, name))
		}
	})

	t.Run("Empty ID list exports the whole library", func(t *testing.T) {
		dir := t.TempDir()
		engine := NewPlaylistSortEngine(exportFake())

		result, err := engine.ExportAll(context.Background(), nil, nil, BulkExportOpts{
			Format:    "txt",
			OutputDir: dir,
		})
		if err != nil {
			t.Fatalf("export failed: %v", err)
		}
		if result.TotalPlaylists != 2 || result.SuccessfulExports != 2 {
			t.Errorf("unexpected result %+v", result)
		}
		tu.AssertFileExists(t, filepath.Join(dir, "p1_tracks.txt"))
	})

	t.Run("Unknown IDs are recorded, not fatal", func(t *testing.T) {
		dir := t.TempDir()
		engine := NewPlaylistSortEngine(exportFake())

		result, err := engine.ExportAll(context.Background(), nil, []string{"p1", "missing"}, BulkExportOpts{
			Format:    "json",
			OutputDir: dir,
		})
		if err != nil {
			t.Fatalf("export failed: %v", err)
		}
		if result.SuccessfulExports != 1 || result.FailedExports != 1 {
			t.Errorf("unexpected result %+v", result)
		}
	})

	t.Run("CSV export writes tracks and metadata files", func(t *testing.T) {
		dir := t.TempDir()
		engine := NewPlaylistSortEngine(exportFake())

		if _, err := engine.ExportAll(context.Background(), nil, []string{"p1"}, BulkExportOpts{
			Format:    "csv",
			OutputDir: dir,
		}); err != nil {
			t.Fatalf("export failed: %v", err)
		}

		for _, name := range []string{"p1_tracks.csv", "p1_metadata.json"} {
			tu.AssertFileExists(t, filepath.Join(dir, name))
		}
	})
}
