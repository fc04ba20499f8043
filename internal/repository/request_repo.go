package repository

import (
	"database/sql"
	stderrors "errors"
	"fmt"
	"log"

	"github.com/lib/pq"

	"parkwise/internal/db"
	apperrors "parkwise/internal/errors"
)

// RequestFilter narrows List. Zero values mean "no filter".
type RequestFilter struct {
	Status      string
	RequestedBy int
	SlotID      int
}

// RequestStore persists reservation requests. The composite transitions
// (create, approve, reject) each run in a single transaction so the whole
// multi-entity step commits or nothing does.
type RequestStore interface {
	Create(vehicleID, slotID, requesterID int) (*db.Request, error)
	GetByID(id int) (*db.Request, error)
	List(filter RequestFilter) ([]db.Request, error)
	Approve(requestID, adminID int, token string) (*db.Request, *db.Session, error)
	Reject(requestID, adminID int, reason string) (*db.Request, error)
}

type requestStore struct {
	DB *sql.DB
}

func NewRequestStore(database *sql.DB) RequestStore {
	return &requestStore{DB: database}
}

const requestColumns = `id, vehicle_id, slot_id, requested_by, status, request_time,
	response_time, responded_by, COALESCE(reason, ''), session_id`

func scanRequest(row interface{ Scan(...interface{}) error }) (*db.Request, error) {
	var req db.Request
	err := row.Scan(
		&req.ID, &req.VehicleID, &req.SlotID, &req.RequestedBy, &req.Status, &req.RequestTime,
		&req.ResponseTime, &req.RespondedBy, &req.Reason, &req.SessionID,
	)
	if err != nil {
		return nil, err
	}
	return &req, nil
}

// Create reserves the slot and inserts a pending request in one transaction.
// A partial unique index on (slot_id) WHERE status = 'pending' backstops the
// one-pending-request-per-slot invariant even if the slot reservation races.
func (r *requestStore) Create(vehicleID, slotID, requesterID int) (*db.Request, error) {
	tx, err := r.DB.Begin()
	if err != nil {
		return nil, fmt.Errorf("error starting create-request transaction: %w", err)
	}
	defer rollbackUnlessCommitted(tx)

	if err := reserveSlot(tx, slotID); err != nil {
		return nil, err
	}

	var req db.Request
	err = tx.QueryRow(
		`INSERT INTO parking_requests (vehicle_id, slot_id, requested_by, status, request_time)
		 VALUES ($1, $2, $3, 'pending', NOW())
		 RETURNING id, vehicle_id, slot_id, requested_by, status, request_time`,
		vehicleID, slotID, requesterID,
	).Scan(&req.ID, &req.VehicleID, &req.SlotID, &req.RequestedBy, &req.Status, &req.RequestTime)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, apperrors.ConflictError{Resource: "parking request", Msg: "slot already has a pending request"}
		}
		return nil, fmt.Errorf("error inserting parking request: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("error committing create-request transaction: %w", err)
	}
	return &req, nil
}

func (r *requestStore) GetByID(id int) (*db.Request, error) {
	row := r.DB.QueryRow(`SELECT `+requestColumns+` FROM parking_requests WHERE id = $1`, id)
	req, err := scanRequest(row)
	if err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.NotFoundError{Resource: "parking request", Err: err}
		}
		return nil, fmt.Errorf("error querying parking request %d: %w", id, err)
	}
	return req, nil
}

func (r *requestStore) List(filter RequestFilter) ([]db.Request, error) {
	query := `SELECT ` + requestColumns + ` FROM parking_requests WHERE TRUE`
	var args []interface{}
	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}
	if filter.Status != "" {
		query += ` AND status = ` + arg(filter.Status)
	}
	if filter.RequestedBy != 0 {
		query += ` AND requested_by = ` + arg(filter.RequestedBy)
	}
	if filter.SlotID != 0 {
		query += ` AND slot_id = ` + arg(filter.SlotID)
	}
	query += ` ORDER BY request_time DESC`

	rows, err := r.DB.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("error listing parking requests: %w", err)
	}
	defer rows.Close()

	var requests []db.Request
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning parking request: %w", err)
		}
		requests = append(requests, *req)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error after iterating parking requests: %w", err)
	}
	return requests, nil
}

// Approve flips the request pending -> approved, creates the session with the
// supplied token, and occupies the slot, all in one transaction. The CAS on
// the request status decides the winner when two admins approve concurrently;
// the loser's transaction never reaches the session insert.
func (r *requestStore) Approve(requestID, adminID int, token string) (*db.Request, *db.Session, error) {
	tx, err := r.DB.Begin()
	if err != nil {
		return nil, nil, fmt.Errorf("error starting approve transaction: %w", err)
	}
	defer rollbackUnlessCommitted(tx)

	var req db.Request
	err = tx.QueryRow(
		`UPDATE parking_requests
		 SET status = 'approved', response_time = NOW(), responded_by = $2
		 WHERE id = $1 AND status = 'pending'
		 RETURNING id, vehicle_id, slot_id, requested_by, status, request_time, response_time, responded_by`,
		requestID, adminID,
	).Scan(&req.ID, &req.VehicleID, &req.SlotID, &req.RequestedBy, &req.Status,
		&req.RequestTime, &req.ResponseTime, &req.RespondedBy)
	if err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return nil, nil, apperrors.ConflictError{Resource: "parking request", Msg: "request is not pending"}
		}
		return nil, nil, fmt.Errorf("error approving parking request %d: %w", requestID, err)
	}

	session, err := insertSession(tx, req.VehicleID, req.SlotID, adminID, token)
	if err != nil {
		return nil, nil, err
	}

	if err := occupySlot(tx, req.SlotID, req.VehicleID, session.ID); err != nil {
		return nil, nil, err
	}

	if _, err := tx.Exec(`UPDATE parking_requests SET session_id = $2 WHERE id = $1`, req.ID, session.ID); err != nil {
		return nil, nil, fmt.Errorf("error linking session to request %d: %w", req.ID, err)
	}
	req.SessionID = &session.ID

	if err := tx.Commit(); err != nil {
		return nil, nil, fmt.Errorf("error committing approve transaction: %w", err)
	}
	return &req, session, nil
}

// Reject flips the request pending -> rejected and returns the slot to
// available in one transaction.
func (r *requestStore) Reject(requestID, adminID int, reason string) (*db.Request, error) {
	tx, err := r.DB.Begin()
	if err != nil {
		return nil, fmt.Errorf("error starting reject transaction: %w", err)
	}
	defer rollbackUnlessCommitted(tx)

	var req db.Request
	err = tx.QueryRow(
		`UPDATE parking_requests
		 SET status = 'rejected', response_time = NOW(), responded_by = $2, reason = $3
		 WHERE id = $1 AND status = 'pending'
		 RETURNING `+requestColumns,
		requestID, adminID, reason,
	).Scan(&req.ID, &req.VehicleID, &req.SlotID, &req.RequestedBy, &req.Status,
		&req.RequestTime, &req.ResponseTime, &req.RespondedBy, &req.Reason, &req.SessionID)
	if err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.ConflictError{Resource: "parking request", Msg: "request is not pending"}
		}
		return nil, fmt.Errorf("error rejecting parking request %d: %w", requestID, err)
	}

	if err := unreserveSlot(tx, req.SlotID); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("error committing reject transaction: %w", err)
	}
	return &req, nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return stderrors.As(err, &pqErr) && pqErr.Code == "23505"
}

func rollbackUnlessCommitted(tx *sql.Tx) {
	if err := tx.Rollback(); err != nil && !stderrors.Is(err, sql.ErrTxDone) {
		log.Printf("Error rolling back transaction: %v", err)
	}
}
