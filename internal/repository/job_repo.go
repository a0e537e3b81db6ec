package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"time"

	"deskhub/internal/db"
)

type JobRepository struct {
	DB *sql.DB
}

func NewJobRepository(db *sql.DB) *JobRepository {
	return &JobRepository{DB: db}
}

// CancelStalePending cancels PENDING bookings created before cutoff and
// returns the ids of the spaces they belonged to.
func (r *JobRepository) CancelStalePending(ctx context.Context, cutoff time.Time) ([]int, error) {
	query := `
		UPDATE bookings
		SET status = $1, updated_at = NOW()
		WHERE status = $2 AND created_at < $3
		RETURNING space_id`
	rows, err := r.DB.QueryContext(ctx, query, string(db.BookingCancelled), string(db.BookingPending), cutoff)
	if err != nil {
		return nil, fmt.Errorf("error cancelling stale pending bookings: %w", err)
	}
	defer rows.Close()

	seen := map[int]bool{}
	var spaceIDs []int
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("error scanning space ID: %w", err)
		}
		if !seen[id] {
			seen[id] = true
			spaceIDs = append(spaceIDs, id)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error after iterating rows: %w", err)
	}
	log.Printf("Cancelled stale pending bookings on %d spaces", len(spaceIDs))
	return spaceIDs, nil
}
