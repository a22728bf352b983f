// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package repository

import (
	"context"
	"time"

	"codeberg.org/oliverandrich/advisorhub/internal/models"
)

// CreateResetToken persists a new reset token and returns it with its ID set.
func (r *Repository) CreateResetToken(ctx context.Context, token *models.ResetToken) error {
	now := time.Now().UTC()
	token.CreatedAt = now
	token.UpdatedAt = now

	res, err := r.db.ExecContext(ctx,
		`INSERT INTO reset_tokens
		 (account_id, email, secret_hash, expires_at, used, used_at, requested_from_ip, user_agent, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		token.AccountID, token.Email, token.SecretHash, token.ExpiresAt,
		token.Used, token.UsedAt, token.RequestedFromIP, token.UserAgent,
		token.CreatedAt, token.UpdatedAt)
	if err != nil {
		return err
	}

	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	token.ID = id
	return nil
}

// GetResetTokenBySecretHash retrieves a reset token by its secret hash.
func (r *Repository) GetResetTokenBySecretHash(ctx context.Context, secretHash string) (*models.ResetToken, error) {
	var token models.ResetToken
	err := r.db.GetContext(ctx, &token,
		`SELECT * FROM reset_tokens WHERE secret_hash = ?`, secretHash)
	if err != nil {
		return nil, wrapErr(err)
	}
	return &token, nil
}

// InvalidateAccountResetTokens marks every still-valid token of an account as
// used. Returns the number of tokens invalidated.
func (r *Repository) InvalidateAccountResetTokens(ctx context.Context, accountID int64) (int64, error) {
	now := time.Now().UTC()
	res, err := r.db.ExecContext(ctx,
		`UPDATE reset_tokens SET used = 1, used_at = ?, updated_at = ?
		 WHERE account_id = ? AND used = 0 AND expires_at > ?`,
		now, now, accountID, now)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// ConsumeResetToken atomically marks a token as used. The conditional update
// guarantees that of two concurrent calls on the same still-valid token only
// one observes an affected row; the loser gets ErrNotFound.
func (r *Repository) ConsumeResetToken(ctx context.Context, secretHash string) error {
	now := time.Now().UTC()
	res, err := r.db.ExecContext(ctx,
		`UPDATE reset_tokens SET used = 1, used_at = ?, updated_at = ?
		 WHERE secret_hash = ? AND used = 0 AND expires_at > ?`,
		now, now, secretHash, now)
	if err != nil {
		return err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteResetToken deletes a token by ID.
func (r *Repository) DeleteResetToken(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM reset_tokens WHERE id = ?`, id)
	return err
}

// DeleteExpiredResetTokens deletes tokens whose expiry lies before the given
// time. Safe to run concurrently with live traffic. Returns the number of
// deleted rows.
func (r *Repository) DeleteExpiredResetTokens(ctx context.Context, before time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM reset_tokens WHERE expires_at < ?`, before.UTC())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// CountValidResetTokens returns the number of unused, unexpired tokens for an
// account.
func (r *Repository) CountValidResetTokens(ctx context.Context, accountID int64) (int64, error) {
	var count int64
	err := r.db.GetContext(ctx, &count,
		`SELECT COUNT(*) FROM reset_tokens WHERE account_id = ? AND used = 0 AND expires_at > ?`,
		accountID, time.Now().UTC())
	return count, err
}
