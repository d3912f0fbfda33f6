// package tasks implements the Spotify → YouTube Music sync run.
//
// The core abstraction is [Engine], which walks every selected source playlist through
// ensure-target, resolve, mutate and report, checkpointing each decision as it goes.
// Progress is emitted via channels for non-blocking status reporting to the CLI layer.
package tasks

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/ytmigrate/internal/checkpoint"
	"github.com/desertthunder/ytmigrate/internal/formatter"
	"github.com/desertthunder/ytmigrate/internal/matching"
	"github.com/desertthunder/ytmigrate/internal/metrics"
	"github.com/desertthunder/ytmigrate/internal/models"
	"github.com/desertthunder/ytmigrate/internal/services"
	"github.com/desertthunder/ytmigrate/internal/shared"
)

const (
	maxTitleLength       = 150
	maxDescriptionLength = 1000
)

// Resolver turns a source track into a match selection, issuing at most one search.
type Resolver interface {
	Resolve(ctx context.Context, src models.SourceTrack) (matching.Selection, error)
}

// Mutator adds resolved ids to a target playlist and reports the per-item outcome.
type Mutator interface {
	Apply(ctx context.Context, playlistID string, ids []string) models.BatchOutcome
}

// RunStore persists sync run rows.
type RunStore interface {
	Create(run *models.SyncRun) error
	Update(run *models.SyncRun) error
}

// MatchStore persists match decisions.
type MatchStore interface {
	Create(m *models.MatchRecord) error
}

// Audit groups the stores of the match audit log. Audit writes never fail a run.
type Audit struct {
	Runs    RunStore
	Matches MatchStore
}

// EngineOpts carries the collaborators of an [Engine]. Reporter, Audit and Metrics are optional.
type EngineOpts struct {
	Source     services.SourceCatalog
	Target     services.TargetCatalog
	Checkpoint *checkpoint.Checkpoint
	Resolver   Resolver
	Mutator    Mutator
	Reporter   *formatter.FailureReport
	Audit      *Audit
	Metrics    *metrics.Metrics
	Logger     *log.Logger
	Now        func() time.Time
}

// SyncOpts selects what a run processes.
type SyncOpts struct {
	Include []string
	Exclude []string
	DryRun  bool // resolve and checkpoint decisions but create and add nothing
}

// PlaylistResult is the REPORT of one processed playlist.
type PlaylistResult struct {
	Playlist  models.PlaylistDescriptor
	TargetID  string
	Created   bool
	Tracks    int
	CacheHits int
	Searched  int
	NoMatch   []string // normalized descriptions of tracks without a match
	Pending   int      // resolved ids not yet present on the target
	Outcome   models.BatchOutcome
	Size      int // target size after mutation, -1 when it could not be read
}

// SyncResult contains everything a run did.
type SyncResult struct {
	RunID      string
	User       *models.User
	StartedAt  time.Time
	FinishedAt time.Time
	DryRun     bool
	Playlists  []PlaylistResult
}

// Totals sums the mutation outcomes of every playlist.
func (r *SyncResult) Totals() (attempted, added, failed int) {
	for _, p := range r.Playlists {
		attempted += p.Outcome.Attempted
		added += p.Outcome.Added
		failed += len(p.Outcome.Failed)
	}
	return attempted, added, failed
}

// Searches returns how many tracks were resolved by search during the run.
func (r *SyncResult) Searches() int {
	n := 0
	for _, p := range r.Playlists {
		n += p.Searched
	}
	return n
}

// Manifest converts the result into the JSON run manifest.
func (r *SyncResult) Manifest() *formatter.RunManifest {
	m := &formatter.RunManifest{
		RunID:      r.RunID,
		StartedAt:  r.StartedAt,
		FinishedAt: r.FinishedAt,
		DryRun:     r.DryRun,
		Playlists:  make([]formatter.PlaylistManifest, 0, len(r.Playlists)),
	}
	for _, p := range r.Playlists {
		m.Playlists = append(m.Playlists, formatter.PlaylistManifest{
			SourceID:  p.Playlist.ID,
			TargetID:  p.TargetID,
			Name:      p.Playlist.Name,
			Tracks:    p.Tracks,
			CacheHits: p.CacheHits,
			Searched:  p.Searched,
			NoMatch:   len(p.NoMatch),
			Attempted: p.Outcome.Attempted,
			Added:     p.Outcome.Added,
			Failed:    len(p.Outcome.Failed),
			Size:      p.Size,
			Created:   p.Created,
		})
	}
	return m
}

// Engine runs the sync. It is not safe for concurrent use: playlists are processed strictly in sequence.
type Engine struct {
	source     services.SourceCatalog
	target     services.TargetCatalog
	checkpoint *checkpoint.Checkpoint
	resolver   Resolver
	mutator    Mutator
	reporter   *formatter.FailureReport
	audit      *Audit
	metrics    *metrics.Metrics
	logger     *log.Logger
	now        func() time.Time
}

// NewEngine creates a new Engine with the provided collaborators.
func NewEngine(opts EngineOpts) *Engine {
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Engine{
		source:     opts.Source,
		target:     opts.Target,
		checkpoint: opts.Checkpoint,
		resolver:   opts.Resolver,
		mutator:    opts.Mutator,
		reporter:   opts.Reporter,
		audit:      opts.Audit,
		metrics:    opts.Metrics,
		logger:     logger,
		now:        now,
	}
}

// sendProgress sends a progress update through the channel without blocking.
func (e *Engine) sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

// Sync migrates every selected playlist.
//
// Listing, playlist creation, search retry exhaustion and checkpoint write failures abort the run
// and are returned together with the partial result. Mutation failures are reported per playlist.
func (e *Engine) Sync(ctx context.Context, opts SyncOpts, progress chan<- ProgressUpdate) (*SyncResult, error) {
	if e.source == nil || e.target == nil {
		return nil, fmt.Errorf("%w: catalog clients not initialized", shared.ErrServiceUnavailable)
	}
	if e.checkpoint == nil || e.resolver == nil || e.mutator == nil {
		return nil, fmt.Errorf("%w: engine is missing its checkpoint, resolver or mutator", shared.ErrInvalidInput)
	}

	result := &SyncResult{RunID: shared.GenerateID(), StartedAt: e.now(), DryRun: opts.DryRun}

	user, err := e.source.CurrentUser(ctx)
	if err != nil {
		return result, fmt.Errorf("failed to identify Spotify user: %w", err)
	}
	result.User = user
	e.sendProgress(progress, loggedInUpdate(user))

	listed, err := e.source.ListPlaylists(ctx)
	if err != nil {
		return result, fmt.Errorf("failed to list Spotify playlists: %w", err)
	}
	e.sendProgress(progress, foundPlaylistsUpdate(len(listed)))

	candidates := make([]models.PlaylistDescriptor, 0, len(listed)+1)
	candidates = append(candidates, listed...)
	candidates = append(candidates, models.LikedSongs(0))
	selected := FilterPlaylists(candidates, opts.Include, opts.Exclude)
	if len(selected) == 0 {
		e.sendProgress(progress, nothingSelectedUpdate())
		result.FinishedAt = e.now()
		return result, nil
	}

	run := e.startRun(result)
	auditID := ""
	if run != nil {
		auditID = run.ID()
	}

	var runErr error
	for i, pl := range selected {
		if err := ctx.Err(); err != nil {
			runErr = err
			break
		}

		e.sendProgress(progress, processingUpdate(i+1, len(selected), pl))
		pr, err := e.syncPlaylist(ctx, auditID, pl, opts, progress)
		result.Playlists = append(result.Playlists, pr)
		if err != nil {
			runErr = fmt.Errorf("playlist '%s': %w", pl.Name, err)
			break
		}
		e.metrics.IncPlaylistsSynced()
	}

	result.FinishedAt = e.now()
	e.finishRun(run, result)
	e.metrics.MarkRun(result.FinishedAt.Unix())

	return result, runErr
}

// syncPlaylist runs ENSURE_TARGET_PLAYLIST → RESOLVE_TRACKS → MUTATE → REPORT for one playlist.
// auditID is empty when the audit log is not recording this run.
func (e *Engine) syncPlaylist(ctx context.Context, auditID string, pl models.PlaylistDescriptor, opts SyncOpts, progress chan<- ProgressUpdate) (PlaylistResult, error) {
	logger := shared.WithLogger(e.logger, "playlist", pl.Name)
	pr := PlaylistResult{Playlist: pl, Size: -1}

	targetID, mapped := e.checkpoint.Playlist(pl.ID)
	if !mapped && !opts.DryRun {
		id, created, err := e.EnsurePlaylist(ctx, pl)
		if err != nil {
			return pr, err
		}
		if targetID, err = e.checkpoint.RecordPlaylist(pl.ID, id); err != nil {
			return pr, err
		}
		mapped = true
		pr.Created = created
		if created {
			e.metrics.IncPlaylistsCreated()
		}
		logger.Info("target playlist ready", "target", targetID, "created", created)
		e.sendProgress(progress, ensuredUpdate(pl.Name, targetID, created))
	}
	pr.TargetID = targetID

	tracks, err := e.fetchTracks(ctx, pl)
	if err != nil {
		return pr, err
	}
	pr.Tracks = len(tracks)
	e.sendProgress(progress, tracksFoundUpdate(len(tracks)))

	toAdd, described, err := e.resolveTracks(ctx, auditID, tracks, &pr, progress)
	if err != nil {
		return pr, err
	}
	logger.Debug("tracks resolved", "tracks", pr.Tracks, "cached", pr.CacheHits, "searched", pr.Searched, "no_match", len(pr.NoMatch))

	if len(toAdd) == 0 {
		e.sendProgress(progress, nothingToAddUpdate())
		return pr, nil
	}

	pending := toAdd
	if mapped {
		pending = e.missingFromTarget(ctx, logger, targetID, toAdd, &pr)
	}
	pr.Pending = len(pending)

	if opts.DryRun {
		e.sendProgress(progress, dryRunUpdate(pl.Name, len(pending)))
		return pr, nil
	}
	if len(pending) == 0 {
		e.sendProgress(progress, nothingToAddUpdate())
		return pr, nil
	}

	pr.Outcome = e.mutator.Apply(ctx, targetID, pending)
	e.metrics.AddAdded(pr.Outcome.Added)
	for _, f := range pr.Outcome.Failed {
		e.metrics.IncFailed(f.Reason)
	}
	e.sendProgress(progress, outcomeUpdate(pl.Name, pr.Outcome))

	if items, err := e.target.PlaylistItems(ctx, targetID); err != nil {
		logger.Warn("could not confirm playlist size", "target", targetID, "error", err)
	} else {
		pr.Size = len(items)
		e.sendProgress(progress, sizeUpdate(pr.Size))
	}

	if len(pr.Outcome.Failed) > 0 {
		e.reportFailures(logger, pr.Outcome.Failed, described, progress)
	}

	logger.Info("playlist synced", "attempted", pr.Outcome.Attempted, "added", pr.Outcome.Added, "failed", len(pr.Outcome.Failed))
	return pr, nil
}

// EnsurePlaylist returns the target playlist whose normalized title equals the source name,
// creating a private one when none exists.
func (e *Engine) EnsurePlaylist(ctx context.Context, pl models.PlaylistDescriptor) (id string, created bool, err error) {
	owned, err := e.target.ListOwnedPlaylists(ctx)
	if err != nil {
		return "", false, fmt.Errorf("failed to list YT Music playlists: %w", err)
	}

	want := shared.Slug(pl.Name)
	for _, o := range owned {
		if shared.Slug(o.Title) == want {
			return o.ID, false, nil
		}
	}

	id, err = e.target.CreatePlaylist(ctx,
		shared.Truncate(pl.Name, maxTitleLength),
		shared.Truncate(pl.Description, maxDescriptionLength),
		services.PrivacyPrivate,
	)
	if err != nil {
		return "", false, fmt.Errorf("failed to create YT Music playlist: %w", err)
	}
	return id, true, nil
}

func (e *Engine) fetchTracks(ctx context.Context, pl models.PlaylistDescriptor) ([]models.SourceTrack, error) {
	if pl.Liked {
		tracks, err := e.source.ListLikedTracks(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list liked songs: %w", err)
		}
		return tracks, nil
	}

	tracks, err := e.source.ListPlaylistTracks(ctx, pl.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list playlist tracks: %w", err)
	}
	return tracks, nil
}

// resolveTracks reuses checkpointed decisions and searches for the rest, saving each new decision
// before moving on. It returns the ids to add in source order and a description per video id.
func (e *Engine) resolveTracks(ctx context.Context, auditID string, tracks []models.SourceTrack, pr *PlaylistResult, progress chan<- ProgressUpdate) ([]string, map[string]string, error) {
	toAdd := make([]string, 0, len(tracks))
	described := make(map[string]string, len(tracks))

	for i, t := range tracks {
		if t.ID == "" {
			continue
		}
		desc := shared.DescribeTrack(t.Name, t.Artists)

		decision, ok := e.checkpoint.Track(t.ID)
		if ok {
			pr.CacheHits++
			e.metrics.IncCacheHits()
		} else {
			sel, err := e.resolver.Resolve(ctx, t)
			if err != nil {
				return nil, nil, fmt.Errorf("search for %q: %w", desc, err)
			}
			pr.Searched++
			e.metrics.IncSearches()

			if decision, err = e.checkpoint.RecordTrack(t.ID, sel.Decision); err != nil {
				return nil, nil, err
			}
			e.recordMatch(auditID, t, desc, sel)

			if !decision.Matched() {
				pr.NoMatch = append(pr.NoMatch, desc)
				e.metrics.IncNoMatch()
				e.sendProgress(progress, noMatchUpdate(i+1, len(tracks), desc))
			}
		}

		if decision.Matched() {
			toAdd = append(toAdd, decision.VideoID)
			if _, seen := described[decision.VideoID]; !seen {
				described[decision.VideoID] = desc
			}
		}
	}

	return toAdd, described, nil
}

// missingFromTarget drops ids already present on the target playlist. When the playlist cannot
// be read every id is submitted.
func (e *Engine) missingFromTarget(ctx context.Context, logger *log.Logger, targetID string, ids []string, pr *PlaylistResult) []string {
	existing, err := e.target.PlaylistItems(ctx, targetID)
	if err != nil {
		logger.Warn("could not read target playlist, submitting every resolved id", "target", targetID, "error", err)
		return ids
	}
	pr.Size = len(existing)

	present := make(map[string]struct{}, len(existing))
	for _, id := range existing {
		present[id] = struct{}{}
	}

	missing := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := present[id]; !ok {
			missing = append(missing, id)
		}
	}
	return missing
}

func (e *Engine) reportFailures(logger *log.Logger, failed []models.ItemFailure, described map[string]string, progress chan<- ProgressUpdate) {
	for _, f := range failed {
		logger.Warn("item rejected", "video_id", f.VideoID, "track", described[f.VideoID], "reason", f.Reason)
	}
	if e.reporter == nil {
		return
	}

	rows := make([]formatter.FailureRow, 0, len(failed))
	for _, f := range failed {
		rows = append(rows, formatter.FailureRow{VideoID: f.VideoID, SourceTrack: described[f.VideoID], Reason: f.Reason})
	}
	if err := e.reporter.Write(rows); err != nil {
		logger.Error("failed to write failure report", "path", e.reporter.Path, "error", err)
		return
	}
	e.sendProgress(progress, failureReportUpdate(e.reporter.Path, len(rows)))
}

func (e *Engine) startRun(result *SyncResult) *models.SyncRun {
	if e.audit == nil || e.audit.Runs == nil {
		return nil
	}
	run := models.NewSyncRun(result.StartedAt)
	if err := e.audit.Runs.Create(run); err != nil {
		e.logger.Warn("audit log unavailable for this run", "error", err)
		return nil
	}
	result.RunID = run.ID()
	return run
}

func (e *Engine) finishRun(run *models.SyncRun, result *SyncResult) {
	if run == nil {
		return
	}
	_, added, failed := result.Totals()
	run.Finish(result.FinishedAt, len(result.Playlists), added, failed)
	if err := e.audit.Runs.Update(run); err != nil {
		e.logger.Warn("failed to finish audit run", "run", run.ID(), "error", err)
	}
}

func (e *Engine) recordMatch(auditID string, t models.SourceTrack, desc string, sel matching.Selection) {
	if auditID == "" || e.audit.Matches == nil {
		return
	}
	title := ""
	if sel.Candidate != nil {
		title = sel.Candidate.Title
	}
	rec := models.NewMatchRecord(auditID, t.ID, desc, sel.Decision.VideoID, title, sel.Best.Scores(), e.now())
	if err := e.audit.Matches.Create(rec); err != nil {
		e.logger.Warn("failed to record match decision", "track", t.ID, "error", err)
	}
}
