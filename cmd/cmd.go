// submodule cmd contains command definitions
package main

import (
	"time"

	"github.com/urfave/cli/v3"
)

func checkpointFlag() cli.Flag {
	return &cli.StringFlag{
		Name:  "checkpoint",
		Usage: "Checkpoint file path (default: sync.checkpoint_path)",
	}
}

// syncCommand runs and inspects the migration
func syncCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "sync",
		Usage: "Migrate Spotify playlists to YouTube Music",
		Commands: []*cli.Command{
			{
				Name:  "run",
				Usage: "Run the migration; safe to rerun, it resumes from the checkpoint",
				Flags: []cli.Flag{
					&cli.StringSliceFlag{
						Name:    "include",
						Aliases: []string{"i"},
						Usage:   "Only process playlists with these names (overrides config and INCLUDE_PLAYLISTS)",
					},
					&cli.StringSliceFlag{
						Name:    "exclude",
						Aliases: []string{"x"},
						Usage:   "Skip playlists with these names (overrides config and EXCLUDE_PLAYLISTS)",
					},
					checkpointFlag(),
					&cli.StringFlag{
						Name:  "failures",
						Usage: "Failure report CSV path",
					},
					&cli.StringFlag{
						Name:  "manifest",
						Usage: "Write a JSON summary of the run to this path",
					},
					&cli.BoolFlag{
						Name:  "dry-run",
						Usage: "Resolve and checkpoint tracks without creating playlists or adding items",
					},
				},
				Action: r.SyncRun,
			},
			{
				Name:  "status",
				Usage: "Show what the checkpoint has recorded",
				Flags: []cli.Flag{
					checkpointFlag(),
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.SyncStatus,
			},
		},
	}
}

// checkpointCommand handles operator edits of the checkpoint
func checkpointCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "checkpoint",
		Aliases: []string{"cp"},
		Usage:   "Inspect and edit cached track decisions",
		Commands: []*cli.Command{
			{
				Name:  "forget",
				Usage: "Clear cached decisions so the next run searches those tracks again",
				Flags: []cli.Flag{
					checkpointFlag(),
					&cli.StringSliceFlag{
						Name:    "track",
						Aliases: []string{"t"},
						Usage:   "Spotify track ID",
					},
					&cli.BoolFlag{
						Name:  "unmatched",
						Usage: "Forget every track recorded without a match",
					},
				},
				Action: r.CheckpointForget,
			},
			{
				Name:   "list-unmatched",
				Usage:  "List tracks recorded without a match",
				Flags:  []cli.Flag{checkpointFlag()},
				Action: r.CheckpointUnmatched,
			},
		},
	}
}

// searchCommand ranks live search results against a track description
func searchCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "search",
		Usage: "Search YouTube Music and show how each candidate scores",
		Arguments: []cli.Argument{
			&cli.StringArg{
				Name: "query",
			},
		},
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "title",
				Usage: "Source track title (defaults to the query)",
			},
			&cli.StringSliceFlag{
				Name:  "artist",
				Usage: "Source track artist",
			},
			&cli.StringFlag{
				Name:  "duration",
				Usage: "Source track duration as m:ss",
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
		},
		Action: r.Search,
	}
}

// spotifyCommand handles Spotify operations
func spotifyCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "spotify",
		Aliases: []string{"spot"},
		Usage:   "Spotify library operations",
		Commands: []*cli.Command{
			{
				Name:  "playlists",
				Usage: "List Spotify playlists as the sync sees them",
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
				Action: r.SpotifyPlaylists,
			},
			{
				Name:  "tracks",
				Usage: "List the tracks of a playlist (or Liked Songs)",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "id",
						Usage: "Playlist ID; omit for Liked Songs",
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.SpotifyTracks,
			},
		},
	}
}

// auditCommand reads the match audit log
func auditCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "audit",
		Usage: "Review match decisions recorded during sync runs",
		Commands: []*cli.Command{
			{
				Name:  "runs",
				Usage: "List recent sync runs",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum number of runs",
						Value: 10,
					},
				},
				Action: r.AuditRuns,
			},
			{
				Name:  "low-confidence",
				Usage: "List accepted matches that scored below a threshold",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "run",
						Usage: "Run ID (defaults to the latest run)",
					},
					&cli.Float64Flag{
						Name:  "below",
						Usage: "Composite score threshold",
						Value: 0.9,
					},
				},
				Action: r.AuditLowConfidence,
			},
		},
	}
}

// setupCommand handles setup operations for config, database and authentication.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Setup and configuration commands",
		Commands: []*cli.Command{
			{
				Name:  "config",
				Usage: "Write a config.toml template",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "config",
						Aliases: []string{"c"},
						Usage:   "Path to configuration file",
						Value:   "config.toml",
					},
				},
				Action: r.SetupConfig,
			},
			{
				Name:   "database",
				Usage:  "Initialize the match audit database and run migrations",
				Action: r.SetupDatabase,
			},
			{
				Name:  "spotify",
				Usage: "Authorize Spotify in the browser and save the refresh token",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "port",
						Usage: "Loopback port for the OAuth callback",
						Value: 3000,
					},
					&cli.StringFlag{
						Name:  "env-file",
						Usage: "File that receives SPOTIFY_REFRESH_TOKEN",
						Value: ".env",
					},
					&cli.BoolFlag{
						Name:  "no-browser",
						Usage: "Print the authorization URL without opening it",
					},
					&cli.DurationFlag{
						Name:  "timeout",
						Usage: "How long to wait for the callback",
						Value: 5 * time.Minute,
					},
				},
				Action: r.SetupSpotify,
			},
			{
				Name:    "youtube",
				Aliases: []string{"yt", "ytmusic"},
				Usage:   "Write a ytmusicapi browser.json from a DevTools \"Copy as cURL\" file",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "curl-file",
						Usage:    "Path to a file containing the cURL command",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "output",
						Usage: "Output path (default: credentials.youtube.auth_file or browser.json)",
					},
				},
				Action: r.SetupYouTube,
			},
		},
	}
}
