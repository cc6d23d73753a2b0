// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

// authCommand handles login, session inspection, and logout.
func authCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Manage the Spotify session",
		Commands: []*cli.Command{
			{
				Name:  "login",
				Usage: "Authenticate with Spotify using the authorization-code + PKCE flow",
				Flags: []cli.Flag{
					&cli.DurationFlag{
						Name:  "timeout",
						Usage: "How long to wait for the browser authorization",
						Value: loginTimeout,
					},
				},
				Action: r.AuthLogin,
			},
			{
				Name:   "status",
				Usage:  "Show the stored session state",
				Action: r.AuthStatus,
			},
			{
				Name:   "logout",
				Usage:  "Clear the stored session",
				Action: r.AuthLogout,
			},
		},
	}
}

// playlistsCommand handles playlist listing, track inspection, and export.
func playlistsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "playlists",
		Aliases: []string{"pl"},
		Usage:   "Browse and export playlists",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List the current user's playlists",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum number of playlists to show",
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
					&cli.BoolFlag{
						Name:  "pretty",
						Usage: "Pretty-print output",
						Value: true,
					},
				},
				Action: r.PlaylistsList,
			},
			{
				Name:  "tracks",
				Usage: "List the tracks of a playlist, by ID or exact name",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "playlist"},
				},
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
					&cli.BoolFlag{
						Name:  "pretty",
						Usage: "Pretty-print output",
						Value: true,
					},
				},
				Action: r.PlaylistTracks,
			},
			{
				Name:  "export",
				Usage: "Export playlists to files (the whole library when no --id is given)",
				Flags: []cli.Flag{
					&cli.StringSliceFlag{
						Name:  "id",
						Usage: "Playlist ID to export, repeatable",
					},
					&cli.StringFlag{
						Name:    "format",
						Aliases: []string{"f"},
						Usage:   "Export format: json, csv, markdown, txt",
						Value:   "json",
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Output directory",
					},
					&cli.IntFlag{
						Name:  "workers",
						Usage: "Concurrent export workers",
					},
					&cli.FloatFlag{
						Name:  "rate",
						Usage: "API requests per second while fetching",
					},
				},
				Action: r.PlaylistsExport,
			},
		},
	}
}

// sortCommand handles the sort-and-write pipeline.
func sortCommand(r *Runner) *cli.Command {
	ruleFlags := []cli.Flag{
		&cli.StringFlag{
			Name:  "rules",
			Usage: "Comma-separated rules, e.g. popularity:desc,name:asc",
		},
		&cli.StringFlag{
			Name:  "preset",
			Usage: "Name of a saved preset to use instead of --rules",
		},
	}

	return &cli.Command{
		Name:  "sort",
		Usage: "Sort a playlist into a new one",
		Commands: []*cli.Command{
			{
				Name:  "run",
				Usage: "Fetch, sort, and write the result to a new playlist",
				Flags: append([]cli.Flag{
					&cli.StringFlag{
						Name:     "source",
						Aliases:  []string{"s"},
						Usage:    "Source playlist name or ID",
						Required: true,
					},
					&cli.StringFlag{
						Name:    "dest",
						Aliases: []string{"d"},
						Usage:   "Destination playlist name (default: \"<source> (sorted)\")",
					},
				}, ruleFlags...),
				Action: r.SortRun,
			},
			{
				Name:  "preview",
				Usage: "Show the sorted order without writing anything",
				Flags: append([]cli.Flag{
					&cli.StringFlag{
						Name:     "source",
						Aliases:  []string{"s"},
						Usage:    "Source playlist name or ID",
						Required: true,
					},
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum number of tracks to show",
						Value: 20,
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				}, ruleFlags...),
				Action: r.SortPreview,
			},
		},
	}
}

// presetCommand handles saved rule lists.
func presetCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "preset",
		Usage: "Manage saved sort presets",
		Commands: []*cli.Command{
			{
				Name:  "save",
				Usage: "Save a named rule list",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "name"},
				},
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "rules",
						Usage:    "Comma-separated rules, e.g. popularity:desc,name:asc",
						Required: true,
					},
				},
				Action: r.PresetSave,
			},
			{
				Name:   "list",
				Usage:  "List saved presets",
				Action: r.PresetList,
			},
			{
				Name:  "delete",
				Usage: "Delete a preset by name",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "name"},
				},
				Action: r.PresetDelete,
			},
		},
	}
}

// setupCommand handles setup operations for configuration and the database.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Setup and configuration commands",
		Commands: []*cli.Command{
			{
				Name:  "database",
				Usage: "Initialize database and run migrations",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "config",
						Aliases: []string{"c"},
						Usage:   "Path to configuration file",
						Value:   "config.toml",
					},
				},
				Action: r.SetupDatabase,
			},
		},
	}
}

// tuiCommand returns the top-level TUI command for interactive sorting.
func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "tui",
		Aliases: []string{"interactive", "ui"},
		Usage:   "Launch interactive TUI for playlist sorting",
		Action:  r.TUI,
	}
}
