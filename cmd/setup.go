package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/desertthunder/ytmigrate/internal/server"
	"github.com/desertthunder/ytmigrate/internal/services"
	"github.com/desertthunder/ytmigrate/internal/shared"
	"github.com/desertthunder/ytmigrate/internal/ui"
	"github.com/urfave/cli/v3"
)

const defaultAuthFile = "browser.json"

// SetupConfig writes the embedded config template to --config.
func (r *Runner) SetupConfig(ctx context.Context, cmd *cli.Command) error {
	path := cmd.String("config")
	if path == "" {
		return fmt.Errorf("%w: --config path is required", shared.ErrMissingArgument)
	}
	if err := shared.CreateConfigFile(path); err != nil {
		return err
	}

	r.logger.Info("config file created", "path", path)
	r.writePlain("%s\n", ui.OK("Config template written to "+path))
	r.writePlain("%s\n", ui.Help("Fill in credentials.spotify and credentials.youtube, then run 'ytmigrate setup youtube'."))
	return nil
}

// SetupDatabase initializes the match audit database and runs migrations.
func (r *Runner) SetupDatabase(ctx context.Context, cmd *cli.Command) error {
	cfg := r.config.Database
	if cfg.Path == "" {
		return fmt.Errorf("%w: database.path is empty, the audit log is disabled", shared.ErrInvalidConfig)
	}

	if dir := filepath.Dir(cfg.Path); cfg.Path != ":memory:" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	r.logger.Info("initializing database", "path", cfg.Path)
	db, err := shared.OpenAuditDatabase(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer db.Close()

	r.logger.Infof("setup complete for database: %v", cfg.Path)
	r.writePlain("%s\n", ui.OK("Audit database ready at "+cfg.Path))
	return nil
}

// SetupYouTube turns a DevTools "Copy as cURL" dump into the browser.json the proxy authenticates with.
func (r *Runner) SetupYouTube(ctx context.Context, cmd *cli.Command) error {
	curlFile := cmd.String("curl-file")
	if curlFile == "" {
		return fmt.Errorf("%w: --curl-file must be provided", shared.ErrMissingArgument)
	}

	auth, err := shared.ParseCurlFile(curlFile)
	if err != nil {
		return fmt.Errorf("failed to parse cURL file: %w", err)
	}
	r.logger.Debug("parsed browser headers", "count", len(auth), "headers_raw_length", len(auth.HeadersRaw()))

	outputPath := cmd.String("output")
	if outputPath == "" {
		outputPath = r.config.Credentials.YouTube.AuthFile
	}
	if outputPath == "" {
		outputPath = defaultAuthFile
	}

	if dir := filepath.Dir(outputPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	if err := auth.WriteFile(outputPath); err != nil {
		return err
	}

	r.logger.Info("browser.json saved", "path", outputPath)
	r.writePlain("%s\n", ui.OK("YouTube Music authentication saved to "+outputPath))
	r.writePlainln("Next steps:")
	r.writePlain("1. Set credentials.youtube.auth_file = \"%s\" in your config\n", outputPath)
	r.writePlain("2. Run 'ytmigrate search \"your song\"' to test authentication\n")
	return nil
}

// SetupSpotify runs the authorization code flow on a loopback callback and stores the refresh token.
func (r *Runner) SetupSpotify(ctx context.Context, cmd *cli.Command) error {
	svc, ok := r.spotify.(services.OAuthService)
	if !ok {
		return fmt.Errorf("%w: spotify client_id and client_secret must be set", shared.ErrMissingCredentials)
	}

	addr := fmt.Sprintf("127.0.0.1:%d", cmd.Int("port"))
	redirect := "http://" + addr + "/callback"

	handler := server.NewCallbackHandler(svc.OAuthConfig(redirect), shared.GenerateID(), "/callback")
	router := server.NewBasicRouter()
	router.Use(server.Logging(r.logger))
	router.Handler(handler)

	srv, err := server.Listen(addr, router)
	if err != nil {
		return fmt.Errorf("failed to start callback server on %s: %w", addr, err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			r.logger.Warn("callback server shutdown", "error", err)
		}
	}()

	r.writePlain("Add %s as a redirect URI of your Spotify app, then open:\n\n", redirect)
	r.writePlain("  %s\n\n", handler.AuthCodeURL())
	if !cmd.Bool("no-browser") {
		if err := shared.OpenURL(handler.AuthCodeURL()); err != nil {
			r.logger.Debug("could not open a browser", "error", err)
		}
	}
	r.writePlain("%s\n", ui.Help("Waiting for the authorization callback..."))

	waitCtx, cancel := context.WithTimeout(ctx, cmd.Duration("timeout"))
	defer cancel()
	token, err := handler.Wait(waitCtx)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAuthFailed, err)
	}
	if token.RefreshToken == "" {
		return fmt.Errorf("%w: no refresh token returned", shared.ErrAuthFailed)
	}

	envFile := cmd.String("env-file")
	if err := shared.SaveEnvValue(envFile, "SPOTIFY_REFRESH_TOKEN", token.RefreshToken); err != nil {
		return err
	}

	r.logger.Info("spotify refresh token saved", "path", envFile)
	r.writePlain("%s\n", ui.OK("Spotify authorized; SPOTIFY_REFRESH_TOKEN saved to "+envFile))
	return nil
}
