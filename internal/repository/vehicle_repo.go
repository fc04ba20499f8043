package repository

import (
	"database/sql"
	stderrors "errors"
	"fmt"

	"parkwise/internal/db"
	apperrors "parkwise/internal/errors"
)

type VehicleStore interface {
	Create(vehicle *db.Vehicle) error
	GetByID(id int) (*db.Vehicle, error)
	ListByOwner(ownerID int) ([]db.Vehicle, error)
	// OwnerContact returns the owner's email and phone for notification
	// delivery.
	OwnerContact(vehicleID int) (email, phone string, err error)
}

type vehicleStore struct {
	DB *sql.DB
}

func NewVehicleStore(database *sql.DB) VehicleStore {
	return &vehicleStore{DB: database}
}

const vehicleColumns = `id, license_plate, vehicle_type, COALESCE(make, ''), COALESCE(model, ''), COALESCE(color, ''), owner_id, created_at`

func scanVehicle(row interface{ Scan(...interface{}) error }) (*db.Vehicle, error) {
	var v db.Vehicle
	err := row.Scan(&v.ID, &v.LicensePlate, &v.VehicleType, &v.Make, &v.Model, &v.Color, &v.OwnerID, &v.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func (r *vehicleStore) Create(vehicle *db.Vehicle) error {
	err := r.DB.QueryRow(
		`INSERT INTO vehicles (license_plate, vehicle_type, make, model, color, owner_id, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, NOW())
		 RETURNING id, created_at`,
		vehicle.LicensePlate, vehicle.VehicleType, vehicle.Make, vehicle.Model, vehicle.Color, vehicle.OwnerID,
	).Scan(&vehicle.ID, &vehicle.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.ConflictError{Resource: "vehicle", Msg: fmt.Sprintf("license plate %q already registered", vehicle.LicensePlate)}
		}
		return fmt.Errorf("error inserting vehicle: %w", err)
	}
	return nil
}

func (r *vehicleStore) GetByID(id int) (*db.Vehicle, error) {
	row := r.DB.QueryRow(`SELECT `+vehicleColumns+` FROM vehicles WHERE id = $1`, id)
	vehicle, err := scanVehicle(row)
	if err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.NotFoundError{Resource: "vehicle", Err: err}
		}
		return nil, fmt.Errorf("error querying vehicle %d: %w", id, err)
	}
	return vehicle, nil
}

func (r *vehicleStore) ListByOwner(ownerID int) ([]db.Vehicle, error) {
	rows, err := r.DB.Query(`SELECT `+vehicleColumns+` FROM vehicles WHERE owner_id = $1 ORDER BY created_at DESC`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("error listing vehicles for owner %d: %w", ownerID, err)
	}
	defer rows.Close()

	var vehicles []db.Vehicle
	for rows.Next() {
		v, err := scanVehicle(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning vehicle: %w", err)
		}
		vehicles = append(vehicles, *v)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error after iterating vehicles: %w", err)
	}
	return vehicles, nil
}

func (r *vehicleStore) OwnerContact(vehicleID int) (string, string, error) {
	var email, phone string
	err := r.DB.QueryRow(
		`SELECT u.email, COALESCE(u.phone, '')
		 FROM vehicles v JOIN users u ON v.owner_id = u.id
		 WHERE v.id = $1`,
		vehicleID).Scan(&email, &phone)
	if err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return "", "", apperrors.NotFoundError{Resource: "vehicle owner", Err: err}
		}
		return "", "", fmt.Errorf("error querying owner contact for vehicle %d: %w", vehicleID, err)
	}
	return email, phone, nil
}
