package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/desertthunder/ytmigrate/internal/repositories"
	"github.com/desertthunder/ytmigrate/internal/shared"
	"github.com/desertthunder/ytmigrate/internal/ui"
	"github.com/urfave/cli/v3"
)

func (r *Runner) openAudit() (*sql.DB, error) {
	if r.config.Database.Path == "" {
		return nil, fmt.Errorf("%w: database.path is empty, the audit log is disabled", shared.ErrInvalidConfig)
	}
	return shared.OpenAuditDatabase(r.config.Database)
}

// AuditRuns lists recent sync runs, newest first.
func (r *Runner) AuditRuns(ctx context.Context, cmd *cli.Command) error {
	db, err := r.openAudit()
	if err != nil {
		return err
	}
	defer db.Close()

	runs, err := repositories.NewSyncRunRepository(db).List(map[string]any{"limit": cmd.Int("limit")})
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		r.writePlain("No sync runs recorded.\n")
		return nil
	}

	rows := make([][]string, 0, len(runs))
	for _, run := range runs {
		finished := "running"
		if at := run.FinishedAt(); at != nil {
			finished = at.Format(time.DateTime)
		}
		rows = append(rows, []string{
			strconv.Itoa(run.Sequence()),
			run.ID(),
			run.StartedAt().Format(time.DateTime),
			finished,
			strconv.Itoa(run.Playlists()),
			strconv.Itoa(run.Added()),
			strconv.Itoa(run.Failed()),
		})
	}
	r.writePlain("%s\n", ui.Table([]string{"#", "Run", "Started", "Finished", "Playlists", "Added", "Failed"}, rows))
	return nil
}

// AuditLowConfidence lists accepted matches of a run that scored below --below.
func (r *Runner) AuditLowConfidence(ctx context.Context, cmd *cli.Command) error {
	db, err := r.openAudit()
	if err != nil {
		return err
	}
	defer db.Close()

	runID := cmd.String("run")
	if runID == "" {
		latest, err := repositories.NewSyncRunRepository(db).Latest()
		if errors.Is(err, repositories.ErrNotFound) {
			r.writePlain("No sync runs recorded.\n")
			return nil
		}
		if err != nil {
			return err
		}
		runID = latest.ID()
	}

	below := cmd.Float64("below")
	matches, err := repositories.NewMatchRepository(db).LowConfidence(runID, below)
	if err != nil {
		return err
	}
	if len(matches) == 0 {
		r.writePlain("%s\n", ui.OK(fmt.Sprintf("No matches below %.2f in run %s.", below, runID)))
		return nil
	}

	rows := make([][]string, 0, len(matches))
	for _, m := range matches {
		s := m.Scores()
		rows = append(rows, []string{
			m.SourceTrack(),
			m.CandidateTitle(),
			m.TargetID(),
			fmt.Sprintf("%.2f", s.Title),
			fmt.Sprintf("%.2f", s.Artist),
			fmt.Sprintf("%.2f", s.Duration),
			fmt.Sprintf("%.2f", s.Composite),
		})
	}
	r.writePlain("%s\n", ui.Table([]string{"Spotify track", "Matched", "Video", "Title~", "Artist~", "Length~", "Score"}, rows))
	r.writePlain("%s\n", ui.Help("Re-search a track with: ytmigrate checkpoint forget --track ID"))
	return nil
}
