package repositories

import (
	"database/sql"
	"fmt"
)

// NextSequence bumps the "<table>_sequence" counter and returns the new value.
//
// The counter row is seeded by the migration that creates the table. A single
// UPDATE ... RETURNING keeps the increment and the read in one statement.
func NextSequence(db *sql.DB, table string) (int, error) {
	var sequence int
	query := fmt.Sprintf("UPDATE %s_sequence SET value = value + 1 WHERE id = 1 RETURNING value", table)
	if err := db.QueryRow(query).Scan(&sequence); err != nil {
		if err == sql.ErrNoRows {
			return 0, fmt.Errorf("sequence for %s is not seeded", table)
		}
		return 0, fmt.Errorf("failed to advance sequence for %s: %w", table, err)
	}
	return sequence, nil
}
