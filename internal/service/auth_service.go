package service

import (
	stderrors "errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"parkwise/internal/db"
	apperrors "parkwise/internal/errors"
	"parkwise/internal/repository"
)

type AuthService interface {
	Login(email, password string) (string, error)
	Register(name, email, phone, password string, isAdmin bool) (*db.User, error)
}

type authService struct {
	users      repository.UserStore
	secret     string
	expiration time.Duration
}

func NewAuthService(users repository.UserStore, secret string, expiration time.Duration) AuthService {
	return &authService{users: users, secret: secret, expiration: expiration}
}

func (s *authService) Login(email, password string) (string, error) {
	user, err := s.users.GetByEmail(email)
	if err != nil {
		return "", err
	}
	if user == nil {
		return "", apperrors.ValidationError{Msg: "invalid credentials"}
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", apperrors.ValidationError{Msg: "invalid credentials"}
	}
	if s.secret == "" {
		return "", stderrors.New("JWT_SECRET not set")
	}

	claims := jwt.MapClaims{
		"user_id":  user.ID,
		"email":    user.Email,
		"is_admin": user.IsAdmin,
		"exp":      time.Now().Add(s.expiration).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.secret))
}

func (s *authService) Register(name, email, phone, password string, isAdmin bool) (*db.User, error) {
	if name == "" || email == "" || password == "" {
		return nil, apperrors.ValidationError{Msg: "name, email and password are required"}
	}
	return s.users.Create(name, email, phone, password, isAdmin)
}
