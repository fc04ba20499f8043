package repository

import (
	"database/sql"
	stderrors "errors"
	"fmt"

	"parkwise/internal/db"
	apperrors "parkwise/internal/errors"
)

// execer is satisfied by *sql.DB and *sql.Tx so the slot transitions can run
// standalone or inside a larger transaction (request approval, session exit).
type execer interface {
	Exec(query string, args ...interface{}) (sql.Result, error)
}

// SlotFilter narrows List. Zero values mean "no filter".
type SlotFilter struct {
	BlockID     int
	Status      string
	Class       string
	VehicleType string
}

// SlotRegistry owns every slot status transition. Each transition is a single
// compare-and-set UPDATE keyed on the expected prior status; zero rows
// affected means another writer got there first and the caller sees Conflict.
type SlotRegistry interface {
	GetByID(id int) (*db.Slot, error)
	List(filter SlotFilter) ([]db.Slot, error)
	Reserve(id int) error
	Unreserve(id int) error
	Occupy(id, vehicleID, sessionID int) error
	Release(id int) error
	SetMaintenance(id int, on bool) error
}

type slotRegistry struct {
	DB *sql.DB
}

func NewSlotRegistry(database *sql.DB) SlotRegistry {
	return &slotRegistry{DB: database}
}

const slotColumns = `id, slot_number, block_id, floor, class, vehicle_type, status,
	is_active, current_vehicle_id, current_session_id, last_occupied, created_at, updated_at`

func scanSlot(row interface{ Scan(...interface{}) error }) (*db.Slot, error) {
	var s db.Slot
	err := row.Scan(
		&s.ID, &s.SlotNumber, &s.BlockID, &s.Floor, &s.Class, &s.VehicleType, &s.Status,
		&s.IsActive, &s.CurrentVehicleID, &s.CurrentSessionID, &s.LastOccupied, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *slotRegistry) GetByID(id int) (*db.Slot, error) {
	row := r.DB.QueryRow(`SELECT `+slotColumns+` FROM parking_slots WHERE id = $1`, id)
	slot, err := scanSlot(row)
	if err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.NotFoundError{Resource: "parking slot", Err: err}
		}
		return nil, fmt.Errorf("error querying parking slot %d: %w", id, err)
	}
	return slot, nil
}

func (r *slotRegistry) List(filter SlotFilter) ([]db.Slot, error) {
	query := `SELECT ` + slotColumns + ` FROM parking_slots WHERE is_active`
	var args []interface{}
	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}
	if filter.BlockID != 0 {
		query += ` AND block_id = ` + arg(filter.BlockID)
	}
	if filter.Status != "" {
		query += ` AND status = ` + arg(filter.Status)
	}
	if filter.Class != "" {
		query += ` AND class = ` + arg(filter.Class)
	}
	if filter.VehicleType != "" {
		query += ` AND vehicle_type = ` + arg(filter.VehicleType)
	}
	query += ` ORDER BY slot_number`

	rows, err := r.DB.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("error listing parking slots: %w", err)
	}
	defer rows.Close()

	var slots []db.Slot
	for rows.Next() {
		slot, err := scanSlot(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning parking slot: %w", err)
		}
		slots = append(slots, *slot)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error after iterating parking slots: %w", err)
	}
	return slots, nil
}

func (r *slotRegistry) Reserve(id int) error   { return reserveSlot(r.DB, id) }
func (r *slotRegistry) Unreserve(id int) error { return unreserveSlot(r.DB, id) }

func (r *slotRegistry) Occupy(id, vehicleID, sessionID int) error {
	return occupySlot(r.DB, id, vehicleID, sessionID)
}

func (r *slotRegistry) Release(id int) error { return releaseSlot(r.DB, id) }

// SetMaintenance flips the administrative maintenance state. Entering
// maintenance requires the slot to be free; leaving it returns the slot to
// available.
func (r *slotRegistry) SetMaintenance(id int, on bool) error {
	if on {
		return casSlot(r.DB, id, "slot is reserved or occupied",
			`UPDATE parking_slots SET status = 'maintenance', updated_at = NOW()
			 WHERE id = $1 AND status = 'available'`)
	}
	return casSlot(r.DB, id, "slot is not in maintenance",
		`UPDATE parking_slots SET status = 'available', updated_at = NOW()
		 WHERE id = $1 AND status = 'maintenance'`)
}

// reserveSlot: available -> reserved.
func reserveSlot(e execer, id int) error {
	return casSlot(e, id, "slot is not available",
		`UPDATE parking_slots SET status = 'reserved', updated_at = NOW()
		 WHERE id = $1 AND status = 'available' AND is_active`)
}

// unreserveSlot: reserved -> available. Defensive; the request workflow is
// the only caller.
func unreserveSlot(e execer, id int) error {
	return casSlot(e, id, "slot is not reserved",
		`UPDATE parking_slots SET status = 'available', updated_at = NOW()
		 WHERE id = $1 AND status = 'reserved'`)
}

// occupySlot: reserved|available -> occupied, setting the occupancy pointers
// and the last-occupied timestamp. The available path serves direct session
// creation.
func occupySlot(e execer, id, vehicleID, sessionID int) error {
	res, err := e.Exec(
		`UPDATE parking_slots
		 SET status = 'occupied', current_vehicle_id = $2, current_session_id = $3,
		     last_occupied = NOW(), updated_at = NOW()
		 WHERE id = $1 AND status IN ('available', 'reserved') AND is_active`,
		id, vehicleID, sessionID)
	if err != nil {
		return fmt.Errorf("error occupying slot %d: %w", id, err)
	}
	return conflictOnZeroRows(res, "parking slot", "slot is occupied or in maintenance")
}

// releaseSlot: occupied -> available, clearing the occupancy pointers.
func releaseSlot(e execer, id int) error {
	res, err := e.Exec(
		`UPDATE parking_slots
		 SET status = 'available', current_vehicle_id = NULL, current_session_id = NULL,
		     updated_at = NOW()
		 WHERE id = $1 AND status = 'occupied'`,
		id)
	if err != nil {
		return fmt.Errorf("error releasing slot %d: %w", id, err)
	}
	return conflictOnZeroRows(res, "parking slot", "slot is not occupied")
}

func casSlot(e execer, id int, conflictMsg, query string) error {
	res, err := e.Exec(query, id)
	if err != nil {
		return fmt.Errorf("error updating slot %d status: %w", id, err)
	}
	return conflictOnZeroRows(res, "parking slot", conflictMsg)
}

func conflictOnZeroRows(res sql.Result, resource, msg string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("error reading rows affected: %w", err)
	}
	if n == 0 {
		return apperrors.ConflictError{Resource: resource, Msg: msg}
	}
	return nil
}
