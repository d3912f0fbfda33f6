package matching

import (
	"context"
	"strings"

	"github.com/desertthunder/ytmigrate/internal/models"
	"github.com/desertthunder/ytmigrate/internal/retry"
)

// SearchFunc queries the target catalog for at most limit results.
type SearchFunc func(ctx context.Context, query string, limit int) ([]models.Candidate, error)

// Resolver runs one retried search per source track and ranks the results.
type Resolver struct {
	Search SearchFunc
	Ranker Ranker
	Retry  retry.Policy
}

// Query builds the search string for a source track: "<name> <artist, artist>".
func Query(src models.SourceTrack) string {
	return strings.TrimSpace(src.Name + " " + src.ArtistLine())
}

// Resolve searches for src and selects the best candidate.
//
// Search errors are retried under the resolver's policy; once it is exhausted the
// error is returned and no decision is made.
func (r Resolver) Resolve(ctx context.Context, src models.SourceTrack) (Selection, error) {
	limit := r.Ranker.MaxCandidates
	if limit <= 0 {
		limit = DefaultMaxCandidates
	}

	candidates, err := retry.Do(ctx, r.Retry, func(ctx context.Context) ([]models.Candidate, error) {
		return r.Search(ctx, Query(src), limit)
	})
	if err != nil {
		return Selection{}, err
	}
	return r.Ranker.SelectBest(src, candidates), nil
}
