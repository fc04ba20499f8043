package repository

import (
	"database/sql"
	stderrors "errors"
	"fmt"

	"parkwise/internal/db"
	apperrors "parkwise/internal/errors"
)

// RateCatalog is the read/write surface over hourly rates. The allocation
// core only calls ActiveRate; the CRUD methods serve the admin endpoints.
type RateCatalog interface {
	ActiveRate(class, vehicleType string) (*db.Rate, error)
	Create(rate *db.Rate) error
	Update(rate *db.Rate) error
	GetByID(id int) (*db.Rate, error)
	List() ([]db.Rate, error)
	Deactivate(id, adminID int) error
}

type rateCatalog struct {
	DB *sql.DB
}

func NewRateCatalog(database *sql.DB) RateCatalog {
	return &rateCatalog{DB: database}
}

const rateColumns = `id, class, vehicle_type, hourly_rate, COALESCE(description, ''), is_active, updated_by, updated_at`

func scanRate(row interface{ Scan(...interface{}) error }) (*db.Rate, error) {
	var rate db.Rate
	err := row.Scan(&rate.ID, &rate.Class, &rate.VehicleType, &rate.HourlyRate,
		&rate.Description, &rate.IsActive, &rate.UpdatedBy, &rate.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &rate, nil
}

// ActiveRate returns the active rate for a slot class and vehicle type. The
// caller treats sql.ErrNoRows as a missing rate configuration, never as a
// free stay.
func (r *rateCatalog) ActiveRate(class, vehicleType string) (*db.Rate, error) {
	row := r.DB.QueryRow(
		`SELECT `+rateColumns+` FROM parking_rates
		 WHERE class = $1 AND vehicle_type = $2 AND is_active
		 ORDER BY updated_at DESC LIMIT 1`,
		class, vehicleType)
	rate, err := scanRate(row)
	if err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.DependencyError{
				Dependency: "rate catalog",
				Msg:        fmt.Sprintf("no active rate for %s %s", class, vehicleType),
				Err:        err,
			}
		}
		return nil, fmt.Errorf("error querying rate for %s %s: %w", class, vehicleType, err)
	}
	return rate, nil
}

func (r *rateCatalog) Create(rate *db.Rate) error {
	err := r.DB.QueryRow(
		`INSERT INTO parking_rates (class, vehicle_type, hourly_rate, description, is_active, updated_by, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, NOW())
		 RETURNING id, updated_at`,
		rate.Class, rate.VehicleType, rate.HourlyRate, rate.Description, rate.IsActive, rate.UpdatedBy,
	).Scan(&rate.ID, &rate.UpdatedAt)
	if err != nil {
		return fmt.Errorf("error inserting parking rate: %w", err)
	}
	return nil
}

func (r *rateCatalog) Update(rate *db.Rate) error {
	res, err := r.DB.Exec(
		`UPDATE parking_rates
		 SET hourly_rate = $2, description = $3, is_active = $4, updated_by = $5, updated_at = NOW()
		 WHERE id = $1`,
		rate.ID, rate.HourlyRate, rate.Description, rate.IsActive, rate.UpdatedBy)
	if err != nil {
		return fmt.Errorf("error updating parking rate %d: %w", rate.ID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("error reading rows affected: %w", err)
	}
	if n == 0 {
		return apperrors.NotFoundError{Resource: "parking rate"}
	}
	return nil
}

func (r *rateCatalog) GetByID(id int) (*db.Rate, error) {
	row := r.DB.QueryRow(`SELECT `+rateColumns+` FROM parking_rates WHERE id = $1`, id)
	rate, err := scanRate(row)
	if err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.NotFoundError{Resource: "parking rate", Err: err}
		}
		return nil, fmt.Errorf("error querying parking rate %d: %w", id, err)
	}
	return rate, nil
}

func (r *rateCatalog) List() ([]db.Rate, error) {
	rows, err := r.DB.Query(`SELECT ` + rateColumns + ` FROM parking_rates ORDER BY class, vehicle_type`)
	if err != nil {
		return nil, fmt.Errorf("error listing parking rates: %w", err)
	}
	defer rows.Close()

	var rates []db.Rate
	for rows.Next() {
		rate, err := scanRate(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning parking rate: %w", err)
		}
		rates = append(rates, *rate)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error after iterating parking rates: %w", err)
	}
	return rates, nil
}

func (r *rateCatalog) Deactivate(id, adminID int) error {
	res, err := r.DB.Exec(
		`UPDATE parking_rates SET is_active = FALSE, updated_by = $2, updated_at = NOW() WHERE id = $1`,
		id, adminID)
	if err != nil {
		return fmt.Errorf("error deactivating parking rate %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("error reading rows affected: %w", err)
	}
	if n == 0 {
		return apperrors.NotFoundError{Resource: "parking rate"}
	}
	return nil
}
