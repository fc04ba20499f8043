package repository

import (
	"database/sql"
	stderrors "errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"parkwise/internal/db"
	apperrors "parkwise/internal/errors"
)

type UserStore interface {
	GetByEmail(email string) (*db.User, error)
	GetByID(id int) (*db.User, error)
	// Create hashes the password with bcrypt before insert.
	Create(name, email, phone, password string, isAdmin bool) (*db.User, error)
}

type userStore struct {
	db *sql.DB
}

func NewUserStore(database *sql.DB) UserStore {
	return &userStore{db: database}
}

const userColumns = `id, name, email, COALESCE(phone, ''), password_hash, is_admin, created_at`

func scanUser(row interface{ Scan(...interface{}) error }) (*db.User, error) {
	var u db.User
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.Phone, &u.PasswordHash, &u.IsAdmin, &u.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *userStore) GetByEmail(email string) (*db.User, error) {
	row := r.db.QueryRow(`SELECT `+userColumns+` FROM users WHERE email = $1`, email)
	user, err := scanUser(row)
	if err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("error querying user by email: %w", err)
	}
	return user, nil
}

func (r *userStore) GetByID(id int) (*db.User, error) {
	row := r.db.QueryRow(`SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	user, err := scanUser(row)
	if err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.NotFoundError{Resource: "user", Err: err}
		}
		return nil, fmt.Errorf("error querying user %d: %w", id, err)
	}
	return user, nil
}

func (r *userStore) Create(name, email, phone, password string, isAdmin bool) (*db.User, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("error hashing password: %w", err)
	}

	user := &db.User{Name: name, Email: email, Phone: phone, PasswordHash: string(hashed), IsAdmin: isAdmin}
	err = r.db.QueryRow(
		`INSERT INTO users (name, email, phone, password_hash, is_admin, created_at)
		 VALUES ($1, $2, $3, $4, $5, NOW())
		 RETURNING id, created_at`,
		name, email, phone, string(hashed), isAdmin,
	).Scan(&user.ID, &user.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, apperrors.ConflictError{Resource: "user", Msg: fmt.Sprintf("email %q already registered", email)}
		}
		return nil, fmt.Errorf("error inserting user: %w", err)
	}
	return user, nil
}
