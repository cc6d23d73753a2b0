package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/urfave/cli/v3"

	"github.com/duskmoss/sortify/internal/models"
	"github.com/duskmoss/sortify/internal/services"
	"github.com/duskmoss/sortify/internal/shared"
	"github.com/duskmoss/sortify/internal/tasks"
	tu "github.com/duskmoss/sortify/internal/testing"
)

// stubService is a minimal in-memory [services.Service] for command tests.
type stubService struct {
	playlists []models.PlaylistSummary
	tracks    map[string][]models.TrackRow
}

func (s *stubService) UserProfile(ctx context.Context) (*services.SpotifyUser, error) {
	return &services.SpotifyUser{ID: "user-1", DisplayName: "Test User"}, nil
}

func (s *stubService) GetPlaylists(ctx context.Context) ([]models.PlaylistSummary, error) {
	return s.playlists, nil
}

func (s *stubService) GetPlaylistTracks(ctx context.Context, playlistID string) ([]models.TrackRow, error) {
	return s.tracks[playlistID], nil
}

func (s *stubService) CreatePlaylist(ctx context.Context, userID, name, description string, public bool) (*models.PlaylistSummary, error) {
	return &models.PlaylistSummary{ID: "new", Name: name}, nil
}

func (s *stubService) AddTracks(ctx context.Context, playlistID string, uris []string) error {
	return nil
}

func (s *stubService) Name() string { return "stub" }

// stubEngine records the arguments of the last Run call.
type stubEngine struct {
	runResult  *tasks.SortRunResult
	runErr     error
	lastSource string
	lastDest   string
	lastRules  []models.SortRule
}

func (e *stubEngine) Run(ctx context.Context, progress chan<- tasks.ProgressUpdate, source, dest string, rules []models.SortRule) (*tasks.SortRunResult, error) {
	e.lastSource = source
	e.lastDest = dest
	e.lastRules = rules
	return e.runResult, e.runErr
}

func (e *stubEngine) Preview(ctx context.Context, progress chan<- tasks.ProgressUpdate, source string, rules []models.SortRule) (*tasks.SortPreviewResult, error) {
	return &tasks.SortPreviewResult{
		Source: &models.PlaylistSummary{ID: source, Name: "Preview"},
		Rules:  rules,
		Rows: []models.TrackRow{
			{Name: "First", Artists: "Ana"},
			{Name: "Second", Artists: "Bo"},
		},
	}, nil
}

func (e *stubEngine) ExportAll(ctx context.Context, progress chan<- tasks.ProgressUpdate, ids []string, opts tasks.BulkExportOpts) (*tasks.BulkExportResult, error) {
	return &tasks.BulkExportResult{TotalPlaylists: len(ids), SuccessfulExports: len(ids), OutputDirectory: opts.OutputDir}, nil
}

func TestRunner(t *testing.T) {
	t.Run("NewRunner", func(t *testing.T) {
		t.Run("with all dependencies provided", func(t *testing.T) {
			config := shared.DefaultConfig()
			logger := shared.NewLogger(nil)
			output := &bytes.Buffer{}
			spotify := &stubService{}
			engine := &stubEngine{}

			runner := NewRunner(RunnerOpts{
				Config:  config,
				Logger:  logger,
				Output:  output,
				Spotify: spotify,
				Engine:  engine,
			})

			if runner.config != config {
				t.Error("expected config to be set")
			}
			if runner.logger != logger {
				t.Error("expected logger to be set")
			}
			if runner.output != output {
				t.Error("expected output to be set")
			}
			if runner.spotify != spotify {
				t.Error("expected spotify to be set")
			}
			if runner.engine != engine {
				t.Error("expected engine to be set")
			}
		})

		t.Run("with nil config uses defaults", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Config: nil})

			if runner.config == nil {
				t.Error("expected default config to be set")
			}
		})

		t.Run("with nil logger uses default", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Logger: nil})

			if runner.logger == nil {
				t.Error("expected default logger to be set")
			}
		})

		t.Run("with nil output uses stdout", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: nil})

			if runner.output != os.Stdout {
				t.Error("expected output to default to os.Stdout")
			}
		})

		t.Run("with nil engine builds one", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Spotify: &stubService{}})

			if runner.engine == nil {
				t.Error("expected a default engine to be built")
			}
		})
	})

	t.Run("writeJSON", func(t *testing.T) {
		t.Run("writes formatted JSON successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			data := map[string]string{"key": "value"}
			err := runner.writeJSON(data, true)

			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			result := output.String()
			if !strings.Contains(result, `"key": "value"`) {
				t.Errorf("expected formatted JSON, got %s", result)
			}
			if !strings.HasSuffix(result, "\n") {
				t.Error("expected output to end with newline")
			}
		})

		t.Run("writes compact JSON successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			data := map[string]string{"key": "value"}
			err := runner.writeJSON(data, false)

			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			expected := `{"key":"value"}` + "\n"
			if output.String() != expected {
				t.Errorf("expected %q, got %q", expected, output.String())
			}
		})

		t.Run("handles marshal error with non-serializable data", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &bytes.Buffer{}})

			// channels cannot be marshaled to JSON
			err := runner.writeJSON(make(chan int), false)

			if err == nil {
				t.Fatal("expected error for non-serializable data")
			}
			if !strings.Contains(err.Error(), "failed to marshal JSON") {
				t.Errorf("expected marshal error, got %v", err)
			}
		})

		t.Run("handles write failure", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &tu.FWriter{}})

			err := runner.writeJSON(map[string]string{"key": "value"}, false)

			if err == nil {
				t.Fatal("expected error from failing writer")
			}
			if !strings.Contains(err.Error(), "failed to write output") {
				t.Errorf("expected write error, got %v", err)
			}
		})

		t.Run("handles newline write failure", func(t *testing.T) {
			limitedWriter := tu.NewLimitedWriter(1, 0, &bytes.Buffer{})
			runner := NewRunner(RunnerOpts{Output: &limitedWriter})

			err := runner.writeJSON(map[string]string{"key": "value"}, false)

			if err == nil {
				t.Fatal("expected error writing newline")
			}
			if !strings.Contains(err.Error(), "failed to write newline") {
				t.Errorf("expected newline write error, got %v", err)
			}
		})
	})

	t.Run("writePlain", func(t *testing.T) {
		t.Run("writes plain text successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			err := runner.writePlain("hello %s", "world")

			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if output.String() != "hello world" {
				t.Errorf("expected 'hello world', got %q", output.String())
			}
		})

		t.Run("handles write failure", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &tu.FWriter{}})

			err := runner.writePlain("test")

			if err == nil {
				t.Fatal("expected error from failing writer")
			}
			if !strings.Contains(err.Error(), "failed to write output") {
				t.Errorf("expected write error, got %v", err)
			}
		})
	})

	t.Run("register", func(t *testing.T) {
		runner := NewRunner(RunnerOpts{})
		commands := runner.register()

		if len(commands) == 0 {
			t.Error("expected at least one command to be registered")
		}

		for i, cmd := range commands {
			if cmd == nil {
				t.Errorf("command at index %d is nil", i)
			}
		}
	})
}

func TestParseRules(t *testing.T) {
	t.Run("parses fields with directions", func(t *testing.T) {
		rules, err := parseRules("popularity:desc,name:asc")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if len(rules) != 2 {
			t.Fatalf("expected 2 rules, got %d", len(rules))
		}
		if rules[0].Field != models.FieldPopularity || rules[0].Direction != models.Descending {
			t.Errorf("unexpected first rule %v", rules[0])
		}
		if rules[1].Field != models.FieldName || rules[1].Direction != models.Ascending {
			t.Errorf("unexpected second rule %v", rules[1])
		}
	})

	t.Run("direction defaults to ascending", func(t *testing.T) {
		rules, err := parseRules("album")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if rules[0].Direction != models.Ascending {
			t.Errorf("expected ascending default, got %v", rules[0].Direction)
		}
	})

	t.Run("trims whitespace between rules", func(t *testing.T) {
		rules, err := parseRules(" duration:desc , added_at ")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if len(rules) != 2 {
			t.Fatalf("expected 2 rules, got %d", len(rules))
		}
	})

	t.Run("rejects unknown fields", func(t *testing.T) {
		if _, err := parseRules("loudness:desc"); !errors.Is(err, shared.ErrInvalidFlag) {
			t.Errorf("expected ErrInvalidFlag, got %v", err)
		}
	})

	t.Run("rejects unknown directions", func(t *testing.T) {
		if _, err := parseRules("name:sideways"); !errors.Is(err, shared.ErrInvalidFlag) {
			t.Errorf("expected ErrInvalidFlag, got %v", err)
		}
	})

	t.Run("rejects an empty rule list", func(t *testing.T) {
		if _, err := parseRules(" , "); !errors.Is(err, shared.ErrInvalidFlag) {
			t.Errorf("expected ErrInvalidFlag, got %v", err)
		}
	})
}

func TestPlaylistsList(t *testing.T) {
	newListCommand := func(runner *Runner) *cli.Command {
		return &cli.Command{
			Name: "list",
			Flags: []cli.Flag{
				&cli.IntFlag{Name: "limit"},
				&cli.BoolFlag{Name: "json"},
				&cli.BoolFlag{Name: "pretty"},
			},
			Action: runner.PlaylistsList,
		}
	}

	t.Run("prints playlists", func(t *testing.T) {
		output := &bytes.Buffer{}
		runner := NewRunner(RunnerOpts{
			Output: output,
			Spotify: &stubService{playlists: []models.PlaylistSummary{
				{ID: "p1", Name: "My Mix", TotalTracks: 3, OwnerName: "Test User"},
				{ID: "p2", Name: "Other", TotalTracks: 1},
			}},
		})

		if err := newListCommand(runner).Run(context.Background(), []string{"list"}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		got := output.String()
		if !strings.Contains(got, "Found 2 playlists") {
			t.Errorf("expected playlist count in output, got %q", got)
		}
		if !strings.Contains(got, "My Mix") || !strings.Contains(got, "p2") {
			t.Errorf("expected playlist details in output, got %q", got)
		}
	})

	t.Run("limit truncates the listing", func(t *testing.T) {
		output := &bytes.Buffer{}
		runner := NewRunner(RunnerOpts{
			Output: output,
			Spotify: &stubService{playlists: []models.PlaylistSummary{
				{ID: "p1", Name: "My Mix"},
				{ID: "p2", Name: "Other"},
			}},
		})

		if err := newListCommand(runner).Run(context.Background(), []string{"list", "--limit", "1"}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		got := output.String()
		if !strings.Contains(got, "Found 1 playlists") {
			t.Errorf("expected truncated listing, got %q", got)
		}
		if strings.Contains(got, "Other") {
			t.Errorf("expected second playlist to be dropped, got %q", got)
		}
	})

	t.Run("missing service is an error", func(t *testing.T) {
		runner := NewRunner(RunnerOpts{Output: &bytes.Buffer{}})
		runner.spotify = nil

		err := newListCommand(runner).Run(context.Background(), []string{"list"})
		if !errors.Is(err, shared.ErrServiceUnavailable) {
			t.Errorf("expected ErrServiceUnavailable, got %v", err)
		}
	})
}

func TestSortRun(t *testing.T) {
	newRunCommand := func(runner *Runner) *cli.Command {
		return &cli.Command{
			Name: "run",
			Flags: []cli.Flag{
				&cli.StringFlag{Name: "source", Required: true},
				&cli.StringFlag{Name: "dest"},
				&cli.StringFlag{Name: "rules"},
				&cli.StringFlag{Name: "preset"},
			},
			Action: runner.SortRun,
		}
	}

	t.Run("runs the engine with parsed rules", func(t *testing.T) {
		output := &bytes.Buffer{}
		engine := &stubEngine{
			runResult: &tasks.SortRunResult{
				Source:     &models.PlaylistSummary{ID: "p1", Name: "My Mix"},
				Created:    &models.PlaylistSummary{ID: "new", Name: "My Mix (sorted)"},
				TrackCount: 3,
				Batches:    1,
			},
		}
		runner := NewRunner(RunnerOpts{Output: output, Engine: engine})

		args := []string{"run", "--source", "p1", "--rules", "popularity:desc,name:asc"}
		if err := newRunCommand(runner).Run(context.Background(), args); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if engine.lastSource != "p1" {
			t.Errorf("expected source p1, got %q", engine.lastSource)
		}
		if len(engine.lastRules) != 2 || engine.lastRules[0].Field != models.FieldPopularity {
			t.Errorf("unexpected rules %v", engine.lastRules)
		}
		if !strings.Contains(output.String(), "My Mix (sorted)") {
			t.Errorf("expected created playlist name in output, got %q", output.String())
		}
		if !strings.Contains(output.String(), "Tracks written: 3 (1 batches)") {
			t.Errorf("expected write summary in output, got %q", output.String())
		}
	})

	t.Run("rules and preset together are rejected", func(t *testing.T) {
		runner := NewRunner(RunnerOpts{Output: &bytes.Buffer{}, Engine: &stubEngine{}})

		args := []string{"run", "--source", "p1", "--rules", "name:asc", "--preset", "mine"}
		err := newRunCommand(runner).Run(context.Background(), args)
		if !errors.Is(err, shared.ErrInvalidFlag) {
			t.Errorf("expected ErrInvalidFlag, got %v", err)
		}
	})

	t.Run("missing rules and preset is an error", func(t *testing.T) {
		runner := NewRunner(RunnerOpts{Output: &bytes.Buffer{}, Engine: &stubEngine{}})

		err := newRunCommand(runner).Run(context.Background(), []string{"run", "--source", "p1"})
		if !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("expected ErrMissingArgument, got %v", err)
		}
	})

	t.Run("engine failure propagates", func(t *testing.T) {
		engine := &stubEngine{runErr: shared.ErrPlaylistNotFound}
		runner := NewRunner(RunnerOpts{Output: &bytes.Buffer{}, Engine: engine})

		args := []string{"run", "--source", "missing", "--rules", "name:asc"}
		err := newRunCommand(runner).Run(context.Background(), args)
		if !errors.Is(err, shared.ErrPlaylistNotFound) {
			t.Errorf("expected ErrPlaylistNotFound, got %v", err)
		}
	})
}
