package formatter

import (
	"encoding/csv"
	"path/filepath"
	"strings"
	"testing"

	"github.com/duskmoss/sortify/internal/models"
	tu "github.com/duskmoss/sortify/internal/testing"
)

func samplePlaylist() *models.PlaylistSummary {
	return &models.PlaylistSummary{
		ID:          "pl-1",
		Name:        "Morning Mix",
		Description: "Easy start",
		TotalTracks: 2,
		OwnerName:   "Ada",
	}
}

func sampleRows() []models.TrackRow {
	pop := 73
	return []models.TrackRow{
		{
			ID: "t1", URI: "spotify:track:t1", Name: "Sunrise",
			Artists: "Ana, Bo", MainArtist: "Ana", Album: "Dawn",
			Popularity: &pop, DurationMS: 245_000,
			AddedAt: "2024-03-01T08:00:00Z", OriginalIndex: 0,
		},
		{
			ID: "t2", URI: "spotify:track:t2", Name: "Noon",
			Artists: "Cleo", MainArtist: "Cleo",
			DurationMS: 181_000, AddedAt: "2024-03-02T08:00:00Z", OriginalIndex: 1,
		},
	}
}

func TestExportToCSV(t *testing.T) {
	data, err := ExportToCSV(sampleRows())
	if err != nil {
		t.Fatalf("failed to export CSV: %v", err)
	}

	records, err := csv.NewReader(strings.NewReader(string(data))).ReadAll()
	if err != nil {
		t.Fatalf("failed to parse generated CSV: %v", err)
	}

	if len(records) != 3 {
		t.Fatalf("expected header plus 2 rows, got %d records", len(records))
	}
	if records[0][0] != "Position" || records[0][1] != "Name" {
		t.Errorf("unexpected header %v", records[0])
	}
	if records[1][1] != "Sunrise" || records[1][4] != "73" {
		t.Errorf("unexpected first row %v", records[1])
	}

	t.Run("Missing popularity is blank", func(t *testing.T) {
		if records[2][4] != "" {
			t.Errorf("expected blank popularity, got %q", records[2][4])
		}
	})

	t.Run("Duration is human readable", func(t *testing.T) {
		if records[1][5] != "4:05" {
			t.Errorf("expected 4:05, got %q", records[1][5])
		}
	})
}

func TestExportToMarkdown(t *testing.T) {
	data, err := ExportToMarkdown(samplePlaylist(), sampleRows(), "cover.jpg")
	if err != nil {
		t.Fatalf("failed to export Markdown: %v", err)
	}
	out := string(data)

	for _, want := range []string{"# Morning Mix", "![Cover](cover.jpg)", "**Owner**: Ada", "1. Ana, Bo - Sunrise (Dawn) [4:05]"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected output to contain %q\n%s", want, out)
		}
	}
}

func TestExportToText(t *testing.T) {
	data, err := ExportToText(samplePlaylist(), sampleRows())
	if err != nil {
		t.Fatalf("failed to export text: %v", err)
	}
	out := string(data)

	if !strings.Contains(out, "Playlist: Morning Mix") {
		t.Errorf("expected playlist header\n%s", out)
	}
	if !strings.Contains(out, "2. Cleo - Noon") {
		t.Errorf("expected numbered track lines\n%s", out)
	}
}

func TestWriteCSVExport(t *testing.T) {
	dir := t.TempDir()
	base := filepath.Join(dir, "pl-1")

	result, err := WriteCSVExport(samplePlaylist(), sampleRows(), base)
	if err != nil {
		t.Fatalf("failed to write CSV export: %v", err)
	}

	tu.AssertFileExists(t, result.TracksFile)
	tu.AssertFileExists(t, result.MetadataFile)

	if !strings.Contains(tu.MustReadFile(t, result.MetadataFile), `"Morning Mix"`) {
		t.Error("expected playlist name in metadata file")
	}
}

func TestWriteTextExport(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tracks.txt")

	written, err := WriteTextExport(samplePlaylist(), sampleRows(), path)
	if err != nil {
		t.Fatalf("failed to write text export: %v", err)
	}
	if written != path {
		t.Errorf("expected %s, got %s", path, written)
	}
	tu.AssertFileExists(t, path)

	if !strings.Contains(tu.MustReadFile(t, path), "Playlist: Morning Mix") {
		t.Error("expected playlist header in written file")
	}
}

func TestWriteMarkdownExport(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "export")

	result, err := WriteMarkdownExport(samplePlaylist(), sampleRows(), dir, "")
	if err != nil {
		t.Fatalf("failed to write Markdown export: %v", err)
	}

	if len(result.Files) != 1 || !strings.HasSuffix(result.Files[0], "README.md") {
		t.Errorf("unexpected files %v", result.Files)
	}
	tu.AssertDirExists(t, dir)
	tu.AssertFileExists(t, filepath.Join(dir, "README.md"))
}
