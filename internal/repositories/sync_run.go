package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/ytmigrate/internal/models"
	"github.com/desertthunder/ytmigrate/internal/shared"
)

// ErrNotFound is returned when a lookup matches no row.
var ErrNotFound = errors.New("record not found")

// SyncRunRepository implements models.Repository[*models.SyncRun].
type SyncRunRepository struct {
	db *sql.DB
}

// NewSyncRunRepository creates a new SyncRunRepository with the given database connection
func NewSyncRunRepository(db *sql.DB) *SyncRunRepository {
	return &SyncRunRepository{db: db}
}

// Create inserts a run with a generated ID and sequence.
func (r *SyncRunRepository) Create(run *models.SyncRun) error {
	if err := run.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	sequence, err := NextSequence(r.db, "sync_runs")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	id := shared.GenerateID()

	query := `
		INSERT INTO sync_runs (id, sequence, started_at, finished_at, playlists, tracks_added, tracks_failed)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	var finishedAt any
	if f := run.FinishedAt(); f != nil {
		finishedAt = *f
	}

	if _, err := r.db.Exec(query, id, sequence, run.StartedAt(), finishedAt, run.Playlists(), run.Added(), run.Failed()); err != nil {
		return fmt.Errorf("failed to insert sync run: %w", err)
	}

	run.SetID(id)
	run.SetSequence(sequence)
	return nil
}

// Get retrieves a run by ID.
func (r *SyncRunRepository) Get(id string) (*models.SyncRun, error) {
	query := `
		SELECT id, sequence, started_at, finished_at, playlists, tracks_added, tracks_failed
		FROM sync_runs
		WHERE id = ?
	`

	run, err := scanRun(r.db.QueryRow(query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: sync run %s", ErrNotFound, id)
	}
	return run, err
}

// Latest returns the most recent run.
func (r *SyncRunRepository) Latest() (*models.SyncRun, error) {
	query := `
		SELECT id, sequence, started_at, finished_at, playlists, tracks_added, tracks_failed
		FROM sync_runs
		ORDER BY sequence DESC
		LIMIT 1
	`

	run, err := scanRun(r.db.QueryRow(query))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: no sync runs recorded", ErrNotFound)
	}
	return run, err
}

// Update writes the totals and finish time of a run.
func (r *SyncRunRepository) Update(run *models.SyncRun) error {
	if err := run.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	query := `
		UPDATE sync_runs
		SET finished_at = ?, playlists = ?, tracks_added = ?, tracks_failed = ?
		WHERE id = ?
	`

	var finishedAt any
	if f := run.FinishedAt(); f != nil {
		finishedAt = *f
	}

	result, err := r.db.Exec(query, finishedAt, run.Playlists(), run.Added(), run.Failed(), run.ID())
	if err != nil {
		return fmt.Errorf("failed to update sync run: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: sync run %s", ErrNotFound, run.ID())
	}

	return nil
}

// List retrieves runs newest first. Supported criteria: "limit" (int).
func (r *SyncRunRepository) List(criteria map[string]any) ([]*models.SyncRun, error) {
	query := `
		SELECT id, sequence, started_at, finished_at, playlists, tracks_added, tracks_failed
		FROM sync_runs
		ORDER BY sequence DESC
	`

	args := []any{}
	if limit, ok := criteria["limit"].(int); ok && limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query sync runs: %w", err)
	}
	defer rows.Close()

	var runs []*models.SyncRun
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return runs, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(s scanner) (*models.SyncRun, error) {
	var (
		id         string
		sequence   int
		startedAt  time.Time
		finishedAt sql.NullTime
		playlists  int
		added      int
		failed     int
	)

	if err := s.Scan(&id, &sequence, &startedAt, &finishedAt, &playlists, &added, &failed); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan sync run: %w", err)
	}

	var finished *time.Time
	if finishedAt.Valid {
		finished = &finishedAt.Time
	}

	return models.RestoreSyncRun(id, sequence, startedAt, finished, playlists, added, failed), nil
}
