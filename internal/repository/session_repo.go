package repository

import (
	"database/sql"
	stderrors "errors"
	"fmt"
	"time"

	"parkwise/internal/db"
	apperrors "parkwise/internal/errors"
)

// SessionFilter narrows List. Zero values mean "no filter".
type SessionFilter struct {
	Status    string
	VehicleID int
	IssuedBy  int
}

// SessionStore persists parking sessions. Terminal transitions run in one
// transaction together with the slot release so a completed or cancelled
// session never leaves its slot occupied.
type SessionStore interface {
	CreateDirect(vehicleID, slotID, issuerID int, token string) (*db.Session, error)
	GetByID(id int) (*db.Session, error)
	GetByToken(token string) (*db.Session, error)
	List(filter SessionFilter) ([]db.Session, error)
	SetQRCodeURL(id int, url string) error
	RecordEntry(id int, entry time.Time) (*db.Session, error)
	Complete(id int, exit time.Time, amount int) (*db.Session, error)
	Cancel(id int) (*db.Session, error)
}

type sessionStore struct {
	DB *sql.DB
}

func NewSessionStore(database *sql.DB) SessionStore {
	return &sessionStore{DB: database}
}

const sessionColumns = `id, vehicle_id, slot_id, issued_by, token, COALESCE(qr_code_url, ''),
	booking_time, entry_time, exit_time, status, amount`

func scanSession(row interface{ Scan(...interface{}) error }) (*db.Session, error) {
	var s db.Session
	err := row.Scan(
		&s.ID, &s.VehicleID, &s.SlotID, &s.IssuedBy, &s.Token, &s.QRCodeURL,
		&s.BookingTime, &s.EntryTime, &s.ExitTime, &s.Status, &s.Amount,
	)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// insertSession is shared with the approval transaction in the request store.
// The unique index on token turns the (astronomically unlikely) collision
// into a Conflict instead of two sessions answering one scan.
func insertSession(e interface {
	QueryRow(query string, args ...interface{}) *sql.Row
}, vehicleID, slotID, issuerID int, token string) (*db.Session, error) {
	var s db.Session
	err := e.QueryRow(
		`INSERT INTO parking_sessions (vehicle_id, slot_id, issued_by, token, status, booking_time)
		 VALUES ($1, $2, $3, $4, 'active', NOW())
		 RETURNING `+sessionColumns,
		vehicleID, slotID, issuerID, token,
	).Scan(&s.ID, &s.VehicleID, &s.SlotID, &s.IssuedBy, &s.Token, &s.QRCodeURL,
		&s.BookingTime, &s.EntryTime, &s.ExitTime, &s.Status, &s.Amount)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, apperrors.ConflictError{Resource: "parking session", Msg: "session token already exists"}
		}
		return nil, fmt.Errorf("error inserting parking session: %w", err)
	}
	return &s, nil
}

// CreateDirect books a session without a prior request. It occupies the slot
// only from the available state; a reserved slot belongs to whoever holds the
// pending request, and the CAS keeps a concurrent reservation from being
// stolen between the handler's validation and this write.
func (r *sessionStore) CreateDirect(vehicleID, slotID, issuerID int, token string) (*db.Session, error) {
	tx, err := r.DB.Begin()
	if err != nil {
		return nil, fmt.Errorf("error starting create-session transaction: %w", err)
	}
	defer rollbackUnlessCommitted(tx)

	session, err := insertSession(tx, vehicleID, slotID, issuerID, token)
	if err != nil {
		return nil, err
	}

	res, err := tx.Exec(
		`UPDATE parking_slots
		 SET status = 'occupied', current_vehicle_id = $2, current_session_id = $3,
		     last_occupied = NOW(), updated_at = NOW()
		 WHERE id = $1 AND status = 'available' AND is_active`,
		slotID, vehicleID, session.ID)
	if err != nil {
		return nil, fmt.Errorf("error occupying slot %d: %w", slotID, err)
	}
	if err := conflictOnZeroRows(res, "parking slot", "slot is not available"); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("error committing create-session transaction: %w", err)
	}
	return session, nil
}

func (r *sessionStore) GetByID(id int) (*db.Session, error) {
	row := r.DB.QueryRow(`SELECT `+sessionColumns+` FROM parking_sessions WHERE id = $1`, id)
	session, err := scanSession(row)
	if err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.NotFoundError{Resource: "parking session", Err: err}
		}
		return nil, fmt.Errorf("error querying parking session %d: %w", id, err)
	}
	return session, nil
}

func (r *sessionStore) GetByToken(token string) (*db.Session, error) {
	row := r.DB.QueryRow(`SELECT `+sessionColumns+` FROM parking_sessions WHERE token = $1`, token)
	session, err := scanSession(row)
	if err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.NotFoundError{Resource: "parking session", Err: err}
		}
		return nil, fmt.Errorf("error querying parking session by token: %w", err)
	}
	return session, nil
}

func (r *sessionStore) List(filter SessionFilter) ([]db.Session, error) {
	query := `SELECT ` + sessionColumns + ` FROM parking_sessions WHERE TRUE`
	var args []interface{}
	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}
	if filter.Status != "" {
		query += ` AND status = ` + arg(filter.Status)
	}
	if filter.VehicleID != 0 {
		query += ` AND vehicle_id = ` + arg(filter.VehicleID)
	}
	if filter.IssuedBy != 0 {
		query += ` AND issued_by = ` + arg(filter.IssuedBy)
	}
	query += ` ORDER BY booking_time DESC`

	rows, err := r.DB.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("error listing parking sessions: %w", err)
	}
	defer rows.Close()

	var sessions []db.Session
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning parking session: %w", err)
		}
		sessions = append(sessions, *s)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error after iterating parking sessions: %w", err)
	}
	return sessions, nil
}

// SetQRCodeURL records the rendered QR reference. Best-effort caller; the
// session transition it decorates has already committed.
func (r *sessionStore) SetQRCodeURL(id int, url string) error {
	_, err := r.DB.Exec(`UPDATE parking_sessions SET qr_code_url = $2 WHERE id = $1`, id, url)
	if err != nil {
		return fmt.Errorf("error storing QR code URL for session %d: %w", id, err)
	}
	return nil
}

// RecordEntry stamps the entry time on a first scan. The entry_time IS NULL
// guard makes a duplicate concurrent first scan lose rather than overwrite.
func (r *sessionStore) RecordEntry(id int, entry time.Time) (*db.Session, error) {
	row := r.DB.QueryRow(
		`UPDATE parking_sessions SET entry_time = $2
		 WHERE id = $1 AND status = 'active' AND entry_time IS NULL
		 RETURNING `+sessionColumns,
		id, entry)
	session, err := scanSession(row)
	if err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.ConflictError{Resource: "parking session", Msg: "entry already recorded or session not active"}
		}
		return nil, fmt.Errorf("error recording entry for session %d: %w", id, err)
	}
	return session, nil
}

// Complete flips the session active -> completed with its exit time and
// computed amount, then releases the slot, in one transaction.
func (r *sessionStore) Complete(id int, exit time.Time, amount int) (*db.Session, error) {
	return r.finish(id, "completing",
		`UPDATE parking_sessions SET status = 'completed', exit_time = $2, amount = $3
		 WHERE id = $1 AND status = 'active'
		 RETURNING `+sessionColumns,
		id, exit, amount)
}

// Cancel flips the session active -> cancelled, no amount charged, and
// releases the slot, in one transaction.
func (r *sessionStore) Cancel(id int) (*db.Session, error) {
	return r.finish(id, "cancelling",
		`UPDATE parking_sessions SET status = 'cancelled'
		 WHERE id = $1 AND status = 'active'
		 RETURNING `+sessionColumns,
		id)
}

func (r *sessionStore) finish(id int, verb, query string, args ...interface{}) (*db.Session, error) {
	tx, err := r.DB.Begin()
	if err != nil {
		return nil, fmt.Errorf("error starting %s transaction: %w", verb, err)
	}
	defer rollbackUnlessCommitted(tx)

	session, err := scanSession(tx.QueryRow(query, args...))
	if err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.ConflictError{Resource: "parking session", Msg: "session is not active"}
		}
		return nil, fmt.Errorf("error %s session %d: %w", verb, id, err)
	}

	if err := releaseSlot(tx, session.SlotID); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("error committing %s transaction: %w", verb, err)
	}
	return session, nil
}
