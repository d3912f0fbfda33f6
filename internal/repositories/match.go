package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/ytmigrate/internal/models"
	"github.com/desertthunder/ytmigrate/internal/shared"
)

// MatchRepository implements models.Repository[*models.MatchRecord] for the match audit log.
type MatchRepository struct {
	db *sql.DB
}

// NewMatchRepository creates a new MatchRepository with the given database connection
func NewMatchRepository(db *sql.DB) *MatchRepository {
	return &MatchRepository{db: db}
}

const matchColumns = `id, run_id, source_track_id, source_track, target_id, candidate_title,
	score, title_score, artist_score, duration_score, type_bonus, created_at`

// Create inserts a match decision with a generated ID.
func (r *MatchRepository) Create(m *models.MatchRecord) error {
	if err := m.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	id := shared.GenerateID()
	s := m.Scores()

	query := `INSERT INTO match_decisions (` + matchColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	var targetID, candidateTitle any
	if m.Matched() {
		targetID = m.TargetID()
	}
	if m.CandidateTitle() != "" {
		candidateTitle = m.CandidateTitle()
	}

	_, err := r.db.Exec(query,
		id,
		m.RunID(),
		m.SourceTrackID(),
		m.SourceTrack(),
		targetID,
		candidateTitle,
		s.Composite,
		s.Title,
		s.Artist,
		s.Duration,
		s.TypeBonus,
		m.CreatedAt(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert match decision: %w", err)
	}

	m.SetID(id)
	return nil
}

// Get retrieves a match decision by ID.
func (r *MatchRepository) Get(id string) (*models.MatchRecord, error) {
	query := `SELECT ` + matchColumns + ` FROM match_decisions WHERE id = ?`

	m, err := scanMatch(r.db.QueryRow(query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: match decision %s", ErrNotFound, id)
	}
	return m, err
}

// List retrieves match decisions ordered by score, lowest first.
//
// Supported criteria:
//   - "run_id" (string): only decisions of that run
//   - "below" (float64): only decisions scoring strictly below the value
//   - "matched" (bool): only matched (true) or unmatched (false) decisions
//   - "source_track_id" (string): only decisions for that source track
//   - "limit" (int)
func (r *MatchRepository) List(criteria map[string]any) ([]*models.MatchRecord, error) {
	query := `SELECT ` + matchColumns + ` FROM match_decisions WHERE 1 = 1`
	args := []any{}

	if runID, ok := criteria["run_id"].(string); ok && runID != "" {
		query += " AND run_id = ?"
		args = append(args, runID)
	}
	if trackID, ok := criteria["source_track_id"].(string); ok && trackID != "" {
		query += " AND source_track_id = ?"
		args = append(args, trackID)
	}
	if below, ok := criteria["below"].(float64); ok {
		query += " AND score < ?"
		args = append(args, below)
	}
	if matched, ok := criteria["matched"].(bool); ok {
		if matched {
			query += " AND target_id IS NOT NULL"
		} else {
			query += " AND target_id IS NULL"
		}
	}

	query += " ORDER BY score ASC, created_at ASC"

	if limit, ok := criteria["limit"].(int); ok && limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query match decisions: %w", err)
	}
	defer rows.Close()

	var records []*models.MatchRecord
	for rows.Next() {
		m, err := scanMatch(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return records, nil
}

// LowConfidence returns matched decisions of a run that scored below threshold, weakest first.
func (r *MatchRepository) LowConfidence(runID string, threshold float64) ([]*models.MatchRecord, error) {
	return r.List(map[string]any{"run_id": runID, "below": threshold, "matched": true})
}

// Describe returns the most recent description recorded for each of the given source track ids.
// Ids without a recorded decision are absent from the result.
func (r *MatchRepository) Describe(ids []string) (map[string]string, error) {
	out := make(map[string]string, len(ids))
	stmt, err := r.db.Prepare(`
		SELECT source_track FROM match_decisions
		WHERE source_track_id = ?
		ORDER BY created_at DESC
		LIMIT 1
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare lookup: %w", err)
	}
	defer stmt.Close()

	for _, id := range ids {
		var desc string
		switch err := stmt.QueryRow(id).Scan(&desc); {
		case errors.Is(err, sql.ErrNoRows):
			continue
		case err != nil:
			return nil, fmt.Errorf("failed to describe track %s: %w", id, err)
		}
		out[id] = desc
	}
	return out, nil
}

func scanMatch(s scanner) (*models.MatchRecord, error) {
	var (
		id             string
		runID          string
		sourceTrackID  string
		sourceTrack    string
		targetID       sql.NullString
		candidateTitle sql.NullString
		scores         models.Scores
		createdAt      time.Time
	)

	err := s.Scan(&id, &runID, &sourceTrackID, &sourceTrack, &targetID, &candidateTitle,
		&scores.Composite, &scores.Title, &scores.Artist, &scores.Duration, &scores.TypeBonus, &createdAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan match decision: %w", err)
	}

	m := models.NewMatchRecord(runID, sourceTrackID, sourceTrack, targetID.String, candidateTitle.String, scores, createdAt)
	m.SetID(id)
	return m, nil
}
