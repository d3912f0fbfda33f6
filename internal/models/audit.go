package models

import (
	"errors"
	"time"
)

// SyncRun is one invocation of the sync command as recorded in the audit log.
type SyncRun struct {
	id         string
	sequence   int
	startedAt  time.Time
	finishedAt *time.Time
	playlists  int
	added      int
	failed     int
}

// NewSyncRun starts a run record at the given time. The repository assigns id and sequence.
func NewSyncRun(startedAt time.Time) *SyncRun {
	return &SyncRun{startedAt: startedAt}
}

// RestoreSyncRun rebuilds a run from stored columns.
func RestoreSyncRun(id string, sequence int, startedAt time.Time, finishedAt *time.Time, playlists, added, failed int) *SyncRun {
	return &SyncRun{
		id:         id,
		sequence:   sequence,
		startedAt:  startedAt,
		finishedAt: finishedAt,
		playlists:  playlists,
		added:      added,
		failed:     failed,
	}
}

func (r *SyncRun) ID() string             { return r.id }
func (r *SyncRun) SetID(id string)        { r.id = id }
func (r *SyncRun) Sequence() int          { return r.sequence }
func (r *SyncRun) SetSequence(n int)      { r.sequence = n }
func (r *SyncRun) CreatedAt() time.Time   { return r.startedAt }
func (r *SyncRun) StartedAt() time.Time   { return r.startedAt }
func (r *SyncRun) FinishedAt() *time.Time { return r.finishedAt }
func (r *SyncRun) Playlists() int         { return r.playlists }
func (r *SyncRun) Added() int             { return r.added }
func (r *SyncRun) Failed() int            { return r.failed }
func (r *SyncRun) Finished() bool         { return r.finishedAt != nil }

// Finish stamps the run with its totals.
func (r *SyncRun) Finish(at time.Time, playlists, added, failed int) {
	r.finishedAt = &at
	r.playlists = playlists
	r.added = added
	r.failed = failed
}

// Validate checks that the run has a start time and consistent totals.
func (r *SyncRun) Validate() error {
	if r.startedAt.IsZero() {
		return errors.New("sync run requires a start time")
	}
	if r.playlists < 0 || r.added < 0 || r.failed < 0 {
		return errors.New("sync run totals cannot be negative")
	}
	if r.finishedAt != nil && r.finishedAt.Before(r.startedAt) {
		return errors.New("sync run cannot finish before it starts")
	}
	return nil
}

// Scores is the per-field breakdown behind a match decision.
type Scores struct {
	Title     float64
	Artist    float64
	Duration  float64
	TypeBonus float64
	Composite float64
}

// MatchRecord is a match decision written to the audit log when a track is resolved by search.
// TargetID is empty for a no-match decision.
type MatchRecord struct {
	id             string
	runID          string
	sourceTrackID  string
	sourceTrack    string
	targetID       string
	candidateTitle string
	scores         Scores
	createdAt      time.Time
}

// NewMatchRecord builds an audit row. sourceTrack is the normalized "title — artists" description.
func NewMatchRecord(runID, sourceTrackID, sourceTrack, targetID, candidateTitle string, scores Scores, at time.Time) *MatchRecord {
	return &MatchRecord{
		runID:          runID,
		sourceTrackID:  sourceTrackID,
		sourceTrack:    sourceTrack,
		targetID:       targetID,
		candidateTitle: candidateTitle,
		scores:         scores,
		createdAt:      at,
	}
}

func (m *MatchRecord) ID() string             { return m.id }
func (m *MatchRecord) SetID(id string)        { m.id = id }
func (m *MatchRecord) RunID() string          { return m.runID }
func (m *MatchRecord) SourceTrackID() string  { return m.sourceTrackID }
func (m *MatchRecord) SourceTrack() string    { return m.sourceTrack }
func (m *MatchRecord) TargetID() string       { return m.targetID }
func (m *MatchRecord) CandidateTitle() string { return m.candidateTitle }
func (m *MatchRecord) Scores() Scores         { return m.scores }
func (m *MatchRecord) CreatedAt() time.Time   { return m.createdAt }
func (m *MatchRecord) Matched() bool          { return m.targetID != "" }

// Validate checks the required references of the record.
func (m *MatchRecord) Validate() error {
	if m.runID == "" {
		return errors.New("match record requires a run id")
	}
	if m.sourceTrackID == "" {
		return errors.New("match record requires a source track id")
	}
	if m.createdAt.IsZero() {
		return errors.New("match record requires a timestamp")
	}
	return nil
}
