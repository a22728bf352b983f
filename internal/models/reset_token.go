// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package models

import "time"

// ResetToken is a single-use password reset token. The plaintext secret is
// never stored; SecretHash holds its SHA256 hash. Email is captured at request
// time for display and audit, even after the token is consumed.
type ResetToken struct { //nolint:govet // fieldalignment: readability over optimization
	ID              int64      `db:"id" json:"id"`
	AccountID       int64      `db:"account_id" json:"account_id"`
	Email           string     `db:"email" json:"email"`
	SecretHash      string     `db:"secret_hash" json:"-"`
	ExpiresAt       time.Time  `db:"expires_at" json:"expires_at"`
	Used            bool       `db:"used" json:"used"`
	UsedAt          *time.Time `db:"used_at" json:"used_at"`
	RequestedFromIP string     `db:"requested_from_ip" json:"requested_from_ip"`
	UserAgent       string     `db:"user_agent" json:"user_agent"`
	CreatedAt       time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time  `db:"updated_at" json:"updated_at"`
}

// Valid reports whether the token is unused and unexpired at the given time.
func (t *ResetToken) Valid(now time.Time) bool {
	return !t.Used && now.Before(t.ExpiresAt)
}

// Expired reports whether the token has passed its expiry.
func (t *ResetToken) Expired(now time.Time) bool {
	return !now.Before(t.ExpiresAt)
}
