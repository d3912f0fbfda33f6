package main

import (
	"context"
	"os"

	"github.com/desertthunder/ytmigrate/internal/services"
	"github.com/desertthunder/ytmigrate/internal/shared"
	"github.com/urfave/cli/v3"
	"golang.org/x/oauth2"
)

func main() {
	logger := shared.NewLogger(nil)

	if err := shared.LoadEnv(); err != nil {
		logger.Warn("failed to load .env", "error", err)
	}

	configPath := os.Getenv("YTMIGRATE_CONFIG")
	if configPath == "" {
		configPath = "config.toml"
	}

	config := shared.DefaultConfig()
	if _, err := os.Stat(configPath); err == nil {
		loaded, err := shared.LoadConfig(configPath)
		if err != nil {
			logger.Fatalf("invalid config %s: %v", configPath, err)
		}
		config = loaded
	}
	config.ApplyEnv()
	shared.SetLogLevel(logger, shared.ParseLogLevel(config.Log.Level))

	var spotifyService services.SourceCatalog
	if svc, err := services.NewSpotifyService(config.Credentials.Spotify.Map()); err == nil {
		refresh := config.Credentials.Spotify.RefreshToken
		svc.SetTokenRefreshCallback(func(t *oauth2.Token) {
			logger.Debug("spotify access token refreshed", "expiry", t.Expiry)
			if t.RefreshToken != "" && t.RefreshToken != refresh {
				logger.Warn("spotify rotated the refresh token; update refresh_token in your config")
			}
		})
		spotifyService = svc
	}

	runner := NewRunner(RunnerOpts{
		Config:     config,
		ConfigPath: configPath,
		Spotify:    spotifyService,
		YouTube:    services.NewYouTubeService(config.Credentials.YouTube.ProxyURL),
		Logger:     logger,
	})

	app := &cli.Command{
		Name:     "ytmigrate",
		Usage:    "Migrate Spotify playlists and Liked Songs to YouTube Music",
		Version:  "0.1.0",
		Commands: runner.register(),
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		logger.Fatalf("application error: %v", err)
	}
}
