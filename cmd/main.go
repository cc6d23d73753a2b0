package main

import (
	"context"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/duskmoss/sortify/internal/models"
	"github.com/duskmoss/sortify/internal/repositories"
	"github.com/duskmoss/sortify/internal/services"
	"github.com/duskmoss/sortify/internal/shared"
)

func main() {
	logger := shared.NewLogger(nil)

	config := shared.DefaultConfig()
	if _, err := os.Stat("config.toml"); err == nil {
		if loadedConfig, err := shared.LoadConfig("config.toml"); err == nil {
			config = loadedConfig
		}
	}

	var (
		spotifyService services.Service
		authenticator  *services.Authenticator
		presets        *repositories.PresetRepository
	)

	if db, err := shared.NewDatabase(config.Database.Path); err != nil {
		logger.Warn("database unavailable, run 'sortify setup database'", "error", err)
	} else {
		defer db.Close()
		shared.ConfigureDatabase(db, config.Database.MaxOpenConns, config.Database.MaxIdleConns)
		if err := shared.RunMigrations(db); err != nil {
			logger.Warn("database migrations failed, run 'sortify setup database'", "error", err)
		}

		creds := repositories.NewCredentialRepository(db)
		session := repositories.NewSessionStore()

		authenticator = services.NewAuthenticator(&config.Credentials.Spotify, creds, session)
		spotify := services.NewSpotifyService(creds, authenticator)
		spotify.SetTokenRefreshCallback(func(record *models.TokenRecord) {
			logger.Debug("access token refreshed", "expires_at", record.ExpiresAt)
		})
		spotifyService = spotify
		presets = repositories.NewPresetRepository(db)
	}

	runner := NewRunner(RunnerOpts{
		Config:  config,
		Spotify: spotifyService,
		Auth:    authenticator,
		Presets: presets,
		Logger:  logger,
	})

	app := &cli.Command{
		Name:     "sortify",
		Usage:    "Sort Spotify playlists into new playlists",
		Version:  "0.1.0",
		Commands: runner.register(),
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		logger.Fatalf("application error: %v", err)
	}
}
