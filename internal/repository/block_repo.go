package repository

import (
	"database/sql"
	stderrors "errors"
	"fmt"

	"github.com/lib/pq"

	"parkwise/internal/db"
	apperrors "parkwise/internal/errors"
)

type BlockStore interface {
	// Create inserts the block and its pre-computed slots in one
	// transaction. Provisioning is an explicit ordered operation; there is
	// no hook that grows slots behind a save.
	Create(block *db.Block, slots []db.Slot) error
	GetByID(id int) (*db.Block, error)
	List() ([]db.Block, error)
}

type blockStore struct {
	DB *sql.DB
}

func NewBlockStore(database *sql.DB) BlockStore {
	return &blockStore{DB: database}
}

const blockColumns = `id, name, COALESCE(description, ''), floor, total_slots, is_active, created_by, created_at, updated_at`

func scanBlock(row interface{ Scan(...interface{}) error }) (*db.Block, error) {
	var b db.Block
	err := row.Scan(&b.ID, &b.Name, &b.Description, &b.Floor, &b.TotalSlots,
		&b.IsActive, &b.CreatedBy, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *blockStore) Create(block *db.Block, slots []db.Slot) error {
	tx, err := r.DB.Begin()
	if err != nil {
		return fmt.Errorf("error starting create-block transaction: %w", err)
	}
	defer rollbackUnlessCommitted(tx)

	err = tx.QueryRow(
		`INSERT INTO blocks (name, description, floor, total_slots, is_active, created_by, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, TRUE, $5, NOW(), NOW())
		 RETURNING id, created_at, updated_at`,
		block.Name, block.Description, block.Floor, block.TotalSlots, block.CreatedBy,
	).Scan(&block.ID, &block.CreatedAt, &block.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.ConflictError{Resource: "block", Msg: fmt.Sprintf("block %q already exists", block.Name)}
		}
		return fmt.Errorf("error inserting block: %w", err)
	}

	stmt, err := tx.Prepare(pq.CopyIn("parking_slots",
		"slot_number", "block_id", "floor", "class", "vehicle_type", "status", "is_active"))
	if err != nil {
		return fmt.Errorf("error preparing slot copy: %w", err)
	}
	for _, slot := range slots {
		if _, err := stmt.Exec(slot.SlotNumber, block.ID, slot.Floor, slot.Class,
			slot.VehicleType, db.SlotAvailable, true); err != nil {
			stmt.Close()
			return fmt.Errorf("error buffering slot %s: %w", slot.SlotNumber, err)
		}
	}
	if _, err := stmt.Exec(); err != nil {
		stmt.Close()
		return fmt.Errorf("error flushing slot copy: %w", err)
	}
	if err := stmt.Close(); err != nil {
		return fmt.Errorf("error closing slot copy: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("error committing create-block transaction: %w", err)
	}
	return nil
}

func (r *blockStore) GetByID(id int) (*db.Block, error) {
	row := r.DB.QueryRow(`SELECT `+blockColumns+` FROM blocks WHERE id = $1`, id)
	block, err := scanBlock(row)
	if err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.NotFoundError{Resource: "block", Err: err}
		}
		return nil, fmt.Errorf("error querying block %d: %w", id, err)
	}
	return block, nil
}

func (r *blockStore) List() ([]db.Block, error) {
	rows, err := r.DB.Query(`SELECT ` + blockColumns + ` FROM blocks WHERE is_active ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("error listing blocks: %w", err)
	}
	defer rows.Close()

	var blocks []db.Block
	for rows.Next() {
		b, err := scanBlock(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning block: %w", err)
		}
		blocks = append(blocks, *b)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error after iterating blocks: %w", err)
	}
	return blocks, nil
}
