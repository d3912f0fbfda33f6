package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/ytmigrate/internal/services"
	"github.com/desertthunder/ytmigrate/internal/shared"
	"github.com/desertthunder/ytmigrate/internal/ui"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config     *shared.Config
	configPath string
	spotify    services.SourceCatalog
	youtube    services.TargetCatalog
	logger     *log.Logger
	output     io.Writer
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	Spotify    services.SourceCatalog
	YouTube    services.TargetCatalog
	Logger     *log.Logger
	Output     io.Writer
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}

	return &Runner{
		config:     opts.Config,
		configPath: opts.ConfigPath,
		spotify:    opts.Spotify,
		youtube:    opts.YouTube,
		logger:     opts.Logger,
		output:     opts.Output,
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		syncCommand, checkpointCommand, searchCommand, spotifyCommand, auditCommand, setupCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// authSpotify authenticates the source catalog from the configured refresh token.
func (r *Runner) authSpotify(ctx context.Context) error {
	if r.spotify == nil {
		return fmt.Errorf("%w: spotify client_id and client_secret must be set", shared.ErrMissingCredentials)
	}
	if err := r.spotify.Authenticate(ctx, r.config.Credentials.Spotify.Map()); err != nil {
		return fmt.Errorf("spotify: %w", err)
	}
	return nil
}

// authYouTube points the target catalog at the configured ytmusicapi auth file.
func (r *Runner) authYouTube(ctx context.Context) error {
	if r.youtube == nil {
		return fmt.Errorf("%w: YouTube Music service not initialized", shared.ErrServiceUnavailable)
	}
	yt := r.config.Credentials.YouTube
	if _, err := os.Stat(yt.AuthFile); yt.AuthFile == "" || err != nil {
		return fmt.Errorf("%w: youtube auth_file %q is not readable", shared.ErrInvalidCredentials, yt.AuthFile)
	}
	if err := r.youtube.Authenticate(ctx, map[string]string{"auth_file": yt.AuthFile}); err != nil {
		return fmt.Errorf("youtube: %w", err)
	}
	return nil
}

// writeJSON writes data followed by a newline.
func (r *Runner) writeJSON(data any, pretty bool) error {
	out, err := shared.MarshalJSON(data, pretty)
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}
	return r.write(append(out, '\n'))
}

func (r *Runner) writePlain(format string, args ...any) error {
	return r.write([]byte(fmt.Sprintf(format, args...)))
}

// writePlainln writes one line set off by a blank line above it.
func (r *Runner) writePlainln(format string, args ...any) error {
	return r.writePlain("\n"+format+"\n", args...)
}

func (r *Runner) writePlainHeader(title string) {
	rule := strings.Repeat("═", max(len([]rune(title)), 39))
	r.writePlain("%s\n%s\n%s\n", rule, ui.Title(title), rule)
}

func (r *Runner) write(b []byte) error {
	if _, err := r.output.Write(b); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}
