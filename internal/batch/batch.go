// Package batch pushes resolved video ids into a target playlist.
//
// Ids go out in fixed-size batches. Each response is classified with
// [ParseEditResponse]; ids that did not confirm are retried one at a time in a
// single second pass whose failures are final.
package batch

import (
	"context"
	"encoding/json"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/ytmigrate/internal/models"
	"github.com/desertthunder/ytmigrate/internal/shared"
	"golang.org/x/time/rate"
)

const DefaultBatchSize = 50

// Adder submits ids to a playlist and returns the catalog's raw response.
type Adder interface {
	AddItems(ctx context.Context, playlistID string, ids []string) (json.RawMessage, error)
}

// Mutator applies ids to playlists in paced batches. Zero pauses disable pacing.
type Mutator struct {
	Target         Adder
	BatchSize      int
	Pause          time.Duration // between first-pass batches
	RetryPause     time.Duration // before the singleton pass
	SingletonPause time.Duration // between singleton attempts
	Logger         *log.Logger
}

// NewMutator builds a mutator from the [sync.batch] config section.
func NewMutator(target Adder, cfg shared.BatchConfig, logger *log.Logger) *Mutator {
	return &Mutator{
		Target:         target,
		BatchSize:      cfg.Size,
		Pause:          shared.Millis(cfg.PauseMS),
		RetryPause:     shared.Millis(cfg.RetryPauseMS),
		SingletonPause: shared.Millis(cfg.SingletonPauseMS),
		Logger:         logger,
	}
}

// Apply adds ids to playlistID in order and reports what was confirmed.
//
// Empty ids are dropped before anything is sent; Attempted counts the rest.
// Added plus the number of final failures always equals Attempted.
func (m *Mutator) Apply(ctx context.Context, playlistID string, ids []string) models.BatchOutcome {
	pending := make([]string, 0, len(ids))
	for _, id := range ids {
		if id != "" {
			pending = append(pending, id)
		}
	}

	out := models.BatchOutcome{Attempted: len(pending), Failed: []models.ItemFailure{}}
	if len(pending) == 0 {
		return out
	}

	size := m.BatchSize
	if size <= 0 {
		size = DefaultBatchSize
	}

	var failed []models.ItemFailure
	between := pacer(m.Pause)
	for start := 0; start < len(pending); start += size {
		end := min(start+size, len(pending))
		pace(ctx, between)

		added, fails := m.addChunk(ctx, playlistID, pending[start:end])
		out.Added += added
		failed = append(failed, fails...)
	}

	if len(failed) == 0 {
		return out
	}

	m.logger().Debug("retrying failed items individually", "playlist", playlistID, "count", len(failed))

	// the gate's only token is spent up front so the first wait lasts a full RetryPause
	gate := pacer(m.RetryPause)
	if gate != nil {
		gate.Allow()
	}
	pace(ctx, gate)

	singles := pacer(m.SingletonPause)
	for _, f := range failed {
		pace(ctx, singles)

		added, fails := m.addChunk(ctx, playlistID, []string{f.VideoID})
		out.Added += added
		out.Failed = append(out.Failed, fails...)
	}
	return out
}

// addChunk performs one mutation call and classifies every id of the chunk.
func (m *Mutator) addChunk(ctx context.Context, playlistID string, chunk []string) (int, []models.ItemFailure) {
	raw, err := m.Target.AddItems(ctx, playlistID, chunk)
	if err != nil {
		m.logger().Warn("add items call failed", "playlist", playlistID, "size", len(chunk), "error", err)
		return 0, failAll(chunk, reasonException+err.Error())
	}

	resp := ParseEditResponse(raw)
	switch resp.Kind {
	case KindNoDetail:
		return len(chunk), nil
	case KindPerItem:
		added := 0
		var fails []models.ItemFailure
		for i, id := range chunk {
			if i >= len(resp.Items) {
				fails = append(fails, models.ItemFailure{VideoID: id, Reason: reasonUnknown})
				continue
			}
			if resp.Items[i].OK {
				added++
				continue
			}
			fails = append(fails, models.ItemFailure{VideoID: id, Reason: resp.Items[i].Reason})
		}
		return added, fails
	default:
		return 0, failAll(chunk, reasonUnexpected)
	}
}

func (m *Mutator) logger() *log.Logger {
	if m.Logger == nil {
		return log.Default()
	}
	return m.Logger
}

func failAll(chunk []string, reason string) []models.ItemFailure {
	fails := make([]models.ItemFailure, len(chunk))
	for i, id := range chunk {
		fails[i] = models.ItemFailure{VideoID: id, Reason: reason}
	}
	return fails
}

// pacer returns a limiter that lets one call through every d, or nil when d is zero.
func pacer(d time.Duration) *rate.Limiter {
	if d <= 0 {
		return nil
	}
	return rate.NewLimiter(rate.Every(d), 1)
}

// pace blocks on l. A cancelled context ends the wait early; the following call reports the cancellation.
func pace(ctx context.Context, l *rate.Limiter) {
	if l == nil {
		return
	}
	_ = l.Wait(ctx)
}
