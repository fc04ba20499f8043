package repository

import (
	"database/sql"
	"fmt"
	"log"
	"time"

	"github.com/lib/pq"
)

type JobRepository struct {
	DB *sql.DB
}

func NewJobRepository(database *sql.DB) *JobRepository {
	return &JobRepository{DB: database}
}

// GetStalePendingRequestIDs returns the IDs of pending requests older than
// the cutoff.
func (r *JobRepository) GetStalePendingRequestIDs(cutoff time.Time) ([]int, error) {
	rows, err := r.DB.Query(
		`SELECT id FROM parking_requests WHERE status = 'pending' AND request_time < $1`, cutoff)
	if err != nil {
		return nil, fmt.Errorf("error querying stale pending requests: %w", err)
	}
	defer rows.Close()

	var ids []int
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("error scanning request ID: %w", err)
		}
		ids = append(ids, id)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error after iterating rows: %w", err)
	}
	return ids, nil
}

// ExpireRequests marks the given requests expired and returns their reserved
// slots to available, in one transaction. The status guards mean a request
// approved or rejected between the sweep's read and this write is left
// alone.
func (r *JobRepository) ExpireRequests(ids []int) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	tx, err := r.DB.Begin()
	if err != nil {
		return 0, fmt.Errorf("error starting expiry transaction: %w", err)
	}
	defer rollbackUnlessCommitted(tx)

	result, err := tx.Exec(
		`UPDATE parking_requests SET status = 'expired', response_time = NOW()
		 WHERE id = ANY($1) AND status = 'pending'`,
		pq.Array(ids))
	if err != nil {
		return 0, fmt.Errorf("error expiring requests: %w", err)
	}
	expired, err := result.RowsAffected()
	if err != nil {
		log.Printf("Could not get rows affected: %v", err)
		expired = 0
	}

	_, err = tx.Exec(
		`UPDATE parking_slots SET status = 'available', updated_at = NOW()
		 WHERE status = 'reserved'
		   AND id IN (SELECT slot_id FROM parking_requests WHERE id = ANY($1) AND status = 'expired')`,
		pq.Array(ids))
	if err != nil {
		return 0, fmt.Errorf("error freeing reserved slots: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("error committing expiry transaction: %w", err)
	}
	return expired, nil
}
