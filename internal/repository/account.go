// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package repository

import (
	"context"
	"strings"
	"time"

	"codeberg.org/oliverandrich/advisorhub/internal/models"
)

// CreateAccount creates a new account. The email is stored lowercase.
func (r *Repository) CreateAccount(ctx context.Context, email, displayName, passwordHash string) (*models.Account, error) {
	now := time.Now().UTC()
	email = strings.ToLower(strings.TrimSpace(email))

	res, err := r.db.ExecContext(ctx,
		`INSERT INTO accounts (email, display_name, password_hash, status, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		email, displayName, passwordHash, models.AccountStatusActive, now, now)
	if err != nil {
		return nil, err
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}

	return r.GetAccountByID(ctx, id)
}

// GetAccountByID retrieves an account by ID.
func (r *Repository) GetAccountByID(ctx context.Context, id int64) (*models.Account, error) {
	var account models.Account
	err := r.db.GetContext(ctx, &account, `SELECT * FROM accounts WHERE id = ?`, id)
	if err != nil {
		return nil, wrapErr(err)
	}
	return &account, nil
}

// GetAccountByEmail retrieves an account by case-insensitive email match.
func (r *Repository) GetAccountByEmail(ctx context.Context, email string) (*models.Account, error) {
	var account models.Account
	err := r.db.GetContext(ctx, &account,
		`SELECT * FROM accounts WHERE email = ?`, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return nil, wrapErr(err)
	}
	return &account, nil
}

// UpdateAccountPassword replaces an account's password hash.
func (r *Repository) UpdateAccountPassword(ctx context.Context, id int64, passwordHash string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE accounts SET password_hash = ?, updated_at = ? WHERE id = ?`,
		passwordHash, time.Now().UTC(), id)
	return err
}

// SetAccountStatus updates an account's status.
func (r *Repository) SetAccountStatus(ctx context.Context, id int64, status string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE accounts SET status = ?, updated_at = ? WHERE id = ?`,
		status, time.Now().UTC(), id)
	return err
}
