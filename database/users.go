package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"shopshield-service/models"

	"golang.org/x/crypto/bcrypt"
)

// CreateUser registers a new user with a bcrypt-hashed password
func (s *Service) CreateUser(ctx context.Context, req models.SignUpRequest) (*models.User, error) {
	var existing int64
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM users WHERE email = ?", req.Email).Scan(&existing)
	if err != nil {
		return nil, fmt.Errorf("failed to check user existence: %w", err)
	}
	if existing > 0 {
		return nil, errors.New("user already exists")
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	res, err := s.db.ExecContext(ctx,
		"INSERT INTO users (name, email, password_hash) VALUES (?, ?, ?)",
		req.Name, req.Email, string(passwordHash))
	if err != nil {
		return nil, fmt.Errorf("failed to insert user: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get user id: %w", err)
	}

	return &models.User{
		ID:    id,
		Name:  req.Name,
		Email: req.Email,
	}, nil
}

// Authenticate verifies an email/password pair and returns the user id
func (s *Service) Authenticate(ctx context.Context, email, password string) (int64, error) {
	var userID int64
	var passwordHash string
	err := s.db.QueryRowContext(ctx,
		"SELECT id, password_hash FROM users WHERE email = ?", email).Scan(&userID, &passwordHash)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, errors.New("invalid credentials")
		}
		return 0, fmt.Errorf("failed to query user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(passwordHash), []byte(password)); err != nil {
		return 0, errors.New("invalid credentials")
	}
	return userID, nil
}
