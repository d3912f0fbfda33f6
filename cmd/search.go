package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/desertthunder/ytmigrate/internal/matching"
	"github.com/desertthunder/ytmigrate/internal/models"
	"github.com/desertthunder/ytmigrate/internal/retry"
	"github.com/desertthunder/ytmigrate/internal/shared"
	"github.com/desertthunder/ytmigrate/internal/ui"
	"github.com/urfave/cli/v3"
)

// scoredCandidate is one row of the search command's output.
type scoredCandidate struct {
	models.Candidate
	Scores   models.Scores `json:"scores"`
	Selected bool          `json:"selected"`
}

// Search runs one catalog search and shows how the ranker scores each candidate.
func (r *Runner) Search(ctx context.Context, cmd *cli.Command) error {
	query := strings.TrimSpace(cmd.StringArg("query"))
	if query == "" {
		return fmt.Errorf("%w: search query is required", shared.ErrMissingArgument)
	}
	if err := r.authYouTube(ctx); err != nil {
		return err
	}

	src := models.SourceTrack{Name: cmd.String("title"), Artists: cmd.StringSlice("artist")}
	if src.Name == "" {
		src.Name = query
	}
	if d := cmd.String("duration"); d != "" {
		ms, ok := matching.ParseDuration(d)
		if !ok {
			return fmt.Errorf("%w: duration %q is not m:ss", shared.ErrInvalidArgument, d)
		}
		src.DurationMS = ms
	}

	ranker := matching.Ranker{AcceptableFuzz: r.config.Sync.AcceptableFuzz, MaxCandidates: r.config.Sync.MaxCandidates}
	limit := ranker.MaxCandidates
	if limit <= 0 {
		limit = matching.DefaultMaxCandidates
	}

	r.logger.Info("searching YouTube Music", "query", query, "limit", limit)
	candidates, err := retry.Do(ctx, retry.FromConfig(r.config.Sync.Retry), func(ctx context.Context) ([]models.Candidate, error) {
		return r.youtube.Search(ctx, query, limit)
	})
	if err != nil {
		return err
	}

	sel := ranker.SelectBest(src, candidates)
	scored := make([]scoredCandidate, 0, len(candidates))
	for _, c := range candidates {
		b := ranker.Score(src, c)
		selected := sel.Decision.Matched() && c.PlayableID() == sel.Decision.VideoID
		scored = append(scored, scoredCandidate{Candidate: c, Scores: b.Scores(), Selected: selected})
	}

	if cmd.Bool("json") {
		return r.writeJSON(scored, true)
	}

	rows := make([][]string, 0, len(scored))
	for _, s := range scored {
		mark := ""
		if s.Selected {
			mark = "✓"
		}
		rows = append(rows, []string{
			mark,
			s.Title,
			s.ArtistLine(),
			s.Duration,
			s.ResultType,
			s.PlayableID(),
			fmt.Sprintf("%.2f", s.Scores.Title),
			fmt.Sprintf("%.2f", s.Scores.Artist),
			fmt.Sprintf("%.2f", s.Scores.Duration),
			fmt.Sprintf("%.2f", s.Scores.Composite),
		})
	}

	r.writePlain("%s\n", ui.Table([]string{"", "Title", "Artists", "Length", "Type", "ID", "Title~", "Artist~", "Length~", "Score"}, rows))
	if sel.Decision.Matched() {
		r.writePlain("%s\n", ui.OK(fmt.Sprintf("Best match %s (%.2f, threshold %.2f)", sel.Decision.VideoID, sel.Best.Composite, ranker.Threshold())))
	} else {
		r.writePlain("%s\n", ui.Warn(fmt.Sprintf("No candidate reached the threshold %.2f", ranker.Threshold())))
	}
	return nil
}
