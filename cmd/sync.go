package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/desertthunder/ytmigrate/internal/batch"
	"github.com/desertthunder/ytmigrate/internal/checkpoint"
	"github.com/desertthunder/ytmigrate/internal/formatter"
	"github.com/desertthunder/ytmigrate/internal/matching"
	"github.com/desertthunder/ytmigrate/internal/metrics"
	"github.com/desertthunder/ytmigrate/internal/repositories"
	"github.com/desertthunder/ytmigrate/internal/retry"
	"github.com/desertthunder/ytmigrate/internal/shared"
	"github.com/desertthunder/ytmigrate/internal/tasks"
	"github.com/desertthunder/ytmigrate/internal/ui"
	"github.com/urfave/cli/v3"
)

// SyncRun migrates every selected playlist, resuming from the checkpoint.
func (r *Runner) SyncRun(ctx context.Context, cmd *cli.Command) error {
	if err := r.config.Validate(); err != nil {
		return err
	}
	if err := r.authSpotify(ctx); err != nil {
		return err
	}
	if err := r.authYouTube(ctx); err != nil {
		return err
	}

	sc := r.config.Sync
	opts := tasks.SyncOpts{Include: sc.Include, Exclude: sc.Exclude, DryRun: cmd.Bool("dry-run")}
	if v := cmd.StringSlice("include"); len(v) > 0 {
		opts.Include = v
	}
	if v := cmd.StringSlice("exclude"); len(v) > 0 {
		opts.Exclude = v
	}

	cp, err := checkpoint.Open(checkpoint.NewFileStore(r.checkpointPath(cmd)))
	if err != nil {
		return err
	}

	failuresPath := sc.FailuresPath
	if v := cmd.String("failures"); v != "" {
		failuresPath = v
	}

	engineOpts := tasks.EngineOpts{
		Source:     r.spotify,
		Target:     r.youtube,
		Checkpoint: cp,
		Resolver: matching.Resolver{
			Search: r.youtube.Search,
			Ranker: matching.Ranker{AcceptableFuzz: sc.AcceptableFuzz, MaxCandidates: sc.MaxCandidates},
			Retry:  retry.FromConfig(sc.Retry),
		},
		Mutator: batch.NewMutator(r.youtube, sc.Batch, r.logger),
		Logger:  r.logger,
	}
	if failuresPath != "" {
		engineOpts.Reporter = formatter.NewFailureReport(failuresPath)
	}
	if r.config.Metrics.Textfile != "" {
		engineOpts.Metrics = metrics.New()
	}
	if r.config.Database.Path != "" {
		db, err := shared.OpenAuditDatabase(r.config.Database)
		if err != nil {
			r.logger.Warn("match audit log disabled", "path", r.config.Database.Path, "error", err)
		} else {
			defer db.Close()
			engineOpts.Audit = &tasks.Audit{
				Runs:    repositories.NewSyncRunRepository(db),
				Matches: repositories.NewMatchRepository(db),
			}
		}
	}

	r.logger.Info("starting sync", "include", opts.Include, "exclude", opts.Exclude, "dry_run", opts.DryRun)

	progressCh := make(chan tasks.ProgressUpdate, 100)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for update := range progressCh {
			r.printProgress(update)
		}
	}()

	result, err := tasks.NewEngine(engineOpts).Sync(ctx, opts, progressCh)
	close(progressCh)
	<-done

	if result != nil {
		r.printSummary(result, failuresPath)
		if path := cmd.String("manifest"); path != "" {
			if merr := formatter.WriteRunManifest(result.Manifest(), path); merr != nil {
				r.logger.Error("failed to write manifest", "path", path, "error", merr)
			} else {
				r.logger.Info("manifest written", "path", path)
			}
		}
	}
	if merr := engineOpts.Metrics.WriteTextfile(r.config.Metrics.Textfile); merr != nil {
		r.logger.Warn("failed to export metrics", "error", merr)
	}

	if err != nil {
		return err
	}

	r.writePlainln("%s", ui.OK("Done. Rerun anytime; it resumes and only adds missing songs."))
	return nil
}

func (r *Runner) printProgress(u tasks.ProgressUpdate) {
	switch u.Phase {
	case tasks.ProcessPlaylist:
		r.writePlainln("%s", ui.Title(u.Message))
	case tasks.NoMatch:
		r.writePlain("%s\n", ui.Warn(u.Message))
	case tasks.Report:
		r.writePlain("%s\n", ui.Help(u.Message))
	default:
		r.writePlain("%s\n", u.Message)
	}
}

func (r *Runner) printSummary(result *tasks.SyncResult, failuresPath string) {
	if len(result.Playlists) == 0 {
		return
	}

	rows := make([][]string, 0, len(result.Playlists))
	for _, p := range result.Playlists {
		size := "-"
		if p.Size >= 0 {
			size = strconv.Itoa(p.Size)
		}
		rows = append(rows, []string{
			p.Playlist.Name,
			strconv.Itoa(p.Tracks),
			strconv.Itoa(p.Searched),
			strconv.Itoa(len(p.NoMatch)),
			strconv.Itoa(p.Outcome.Added),
			strconv.Itoa(len(p.Outcome.Failed)),
			size,
		})
	}

	attempted, added, failed := result.Totals()
	r.writePlainln("%s", ui.Table([]string{"Playlist", "Tracks", "Searched", "No match", "Added", "Failed", "Size"}, rows))
	r.writePlain("Attempted %d, added %d, failed %d across %d playlists.\n", attempted, added, failed, len(result.Playlists))
	if failed > 0 {
		r.writePlain("%s\n", ui.Warn(fmt.Sprintf("Rejected items are listed in %s.", failuresPath)))
	}
}

// SyncStatus prints checkpoint statistics.
func (r *Runner) SyncStatus(ctx context.Context, cmd *cli.Command) error {
	path := r.checkpointPath(cmd)
	cp, err := checkpoint.Open(checkpoint.NewFileStore(path))
	if err != nil {
		return err
	}

	stats := cp.Stats()
	if cmd.Bool("json") {
		return r.writeJSON(map[string]any{
			"checkpoint": path,
			"playlists":  stats.Playlists,
			"tracks":     stats.Tracks,
			"matched":    stats.Matched,
			"no_match":   stats.NoMatch,
		}, true)
	}

	r.writePlainHeader("Checkpoint: " + path)
	r.writePlain("Playlists mapped: %d\n", stats.Playlists)
	r.writePlain("Tracks resolved:  %d\n", stats.Tracks)
	r.writePlain("  matched:        %d\n", stats.Matched)
	r.writePlain("  no match:       %d\n", stats.NoMatch)
	return nil
}

func (r *Runner) checkpointPath(cmd *cli.Command) string {
	if v := cmd.String("checkpoint"); v != "" {
		return v
	}
	return r.config.Sync.CheckpointPath
}
