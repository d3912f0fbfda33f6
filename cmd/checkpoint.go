package main

import (
	"context"
	"fmt"
	"os"

	"github.com/desertthunder/ytmigrate/internal/checkpoint"
	"github.com/desertthunder/ytmigrate/internal/repositories"
	"github.com/desertthunder/ytmigrate/internal/shared"
	"github.com/desertthunder/ytmigrate/internal/ui"
	"github.com/urfave/cli/v3"
)

// CheckpointForget removes cached track decisions. A "no match" is never retried
// automatically, so this is how an operator asks for a fresh search.
func (r *Runner) CheckpointForget(ctx context.Context, cmd *cli.Command) error {
	cp, err := checkpoint.Open(checkpoint.NewFileStore(r.checkpointPath(cmd)))
	if err != nil {
		return err
	}

	ids := cmd.StringSlice("track")
	if cmd.Bool("unmatched") {
		ids = append(ids, cp.Unmatched()...)
	}
	if len(ids) == 0 {
		return fmt.Errorf("%w: pass --track ID or --unmatched", shared.ErrMissingArgument)
	}

	forgotten := 0
	for _, id := range ids {
		ok, err := cp.Forget(id)
		if err != nil {
			return err
		}
		if !ok {
			r.writePlain("%s\n", ui.Warn("not in checkpoint: "+id))
			continue
		}
		forgotten++
		r.logger.Debug("forgot track decision", "track", id)
	}

	r.writePlain("%s\n", ui.OK(fmt.Sprintf("Forgot %d track decision(s); the next sync searches them again.", forgotten)))
	return nil
}

// CheckpointUnmatched lists tracks recorded without a match, described from the audit log when available.
func (r *Runner) CheckpointUnmatched(ctx context.Context, cmd *cli.Command) error {
	cp, err := checkpoint.Open(checkpoint.NewFileStore(r.checkpointPath(cmd)))
	if err != nil {
		return err
	}

	ids := cp.Unmatched()
	if len(ids) == 0 {
		r.writePlain("No unmatched tracks.\n")
		return nil
	}

	described := r.describeTracks(ids)
	rows := make([][]string, 0, len(ids))
	for _, id := range ids {
		rows = append(rows, []string{id, described[id]})
	}

	r.writePlain("%s\n", ui.Table([]string{"Spotify track", "Description"}, rows))
	r.writePlain("%s\n", ui.Help("Clear entries with: ytmigrate checkpoint forget --track ID"))
	return nil
}

// describeTracks looks ids up in an existing audit database. Failures only cost the descriptions.
func (r *Runner) describeTracks(ids []string) map[string]string {
	cfg := r.config.Database
	if cfg.Path == "" {
		return map[string]string{}
	}
	if _, err := os.Stat(cfg.Path); err != nil {
		return map[string]string{}
	}

	db, err := shared.OpenAuditDatabase(cfg)
	if err != nil {
		r.logger.Warn("could not open audit log", "error", err)
		return map[string]string{}
	}
	defer db.Close()

	described, err := repositories.NewMatchRepository(db).Describe(ids)
	if err != nil {
		r.logger.Warn("could not describe tracks", "error", err)
		return map[string]string{}
	}
	return described
}
