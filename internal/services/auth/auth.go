// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"codeberg.org/oliverandrich/advisorhub/internal/models"
	"codeberg.org/oliverandrich/advisorhub/internal/repository"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAccountInactive    = errors.New("account is not active")
)

// dummyHash is used for constant-time login to prevent timing attacks
var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("dummy-password-for-timing"), bcrypt.DefaultCost)

// Service authenticates accounts against stored password hashes.
type Service struct {
	repo              *repository.Repository
	passwordValidator *PasswordValidator
}

// NewService creates a new auth service.
func NewService(repo *repository.Repository) *Service {
	return &Service{
		repo:              repo,
		passwordValidator: DefaultPasswordValidator(),
	}
}

// PasswordValidator returns the password validator for use in other services.
func (s *Service) PasswordValidator() *PasswordValidator {
	return s.passwordValidator
}

// Login authenticates an account and returns it if successful.
func (s *Service) Login(ctx context.Context, email, password string) (*models.Account, error) {
	account, err := s.repo.GetAccountByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			// Constant-time: always perform bcrypt comparison to prevent timing attacks
			_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
			slog.Warn("login_failed", "email", email, "reason", "account_not_found")
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to get account: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(password)); err != nil {
		slog.Warn("login_failed", "email", email, "reason", "invalid_password")
		return nil, ErrInvalidCredentials
	}

	if !account.IsActive() {
		slog.Warn("login_failed", "email", email, "reason", "account_inactive")
		return nil, ErrAccountInactive
	}

	slog.Info("login_success", "account_id", account.ID, "email", account.Email)
	return account, nil
}
