package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/qtrack/clinic-api/internal/repository"
)

// Auth token kinds
const (
	tokenKindVerification = "verification"
	tokenKindReset        = "reset"
)

func (r *tokenRepository) StoreVerificationToken(ctx context.Context, staffID uuid.UUID, token string, expiry time.Time) error {
	return r.store(ctx, staffID, token, tokenKindVerification, expiry)
}

func (r *tokenRepository) ValidateVerificationToken(ctx context.Context, token string) (uuid.UUID, error) {
	return r.validate(ctx, token, tokenKindVerification)
}

func (r *tokenRepository) StoreResetToken(ctx context.Context, staffID uuid.UUID, token string, expiry time.Time) error {
	return r.store(ctx, staffID, token, tokenKindReset, expiry)
}

func (r *tokenRepository) ValidateResetToken(ctx context.Context, token string) (uuid.UUID, error) {
	return r.validate(ctx, token, tokenKindReset)
}

func (r *tokenRepository) InvalidateToken(ctx context.Context, token string) error {
	_, err := r.db.ExecContext(ctx, `UPDATE auth_tokens SET used_at = now() WHERE token = $1`, token)
	if err != nil {
		return fmt.Errorf("failed to invalidate token: %w", err)
	}
	return nil
}

func (r *tokenRepository) RevokeRefreshToken(ctx context.Context, tokenHash string, expiry time.Time) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO revoked_tokens (token_hash, expires_at, revoked_at)
		VALUES ($1, $2, now())
		ON CONFLICT (token_hash) DO NOTHING
	`, tokenHash, expiry)
	if err != nil {
		return fmt.Errorf("failed to revoke refresh token: %w", err)
	}
	return nil
}

func (r *tokenRepository) IsRefreshTokenRevoked(ctx context.Context, tokenHash string) (bool, error) {
	var revoked bool
	err := r.db.GetContext(ctx, &revoked, `
		SELECT EXISTS (
			SELECT 1 FROM revoked_tokens
			WHERE token_hash = $1 AND expires_at > now()
		)
	`, tokenHash)
	if err != nil {
		return false, fmt.Errorf("failed to check refresh token revocation: %w", err)
	}
	return revoked, nil
}

func (r *tokenRepository) store(ctx context.Context, staffID uuid.UUID, token, kind string, expiry time.Time) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO auth_tokens (id, staff_id, token, kind, expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5, now())
	`, uuid.New(), staffID, token, kind, expiry)
	if err != nil {
		return fmt.Errorf("failed to store %s token: %w", kind, err)
	}
	return nil
}

func (r *tokenRepository) validate(ctx context.Context, token, kind string) (uuid.UUID, error) {
	var staffID uuid.UUID
	err := r.db.GetContext(ctx, &staffID, `
		SELECT staff_id FROM auth_tokens
		WHERE token = $1 AND kind = $2 AND expires_at > now() AND used_at IS NULL
	`, token, kind)
	if errors.Is(err, sql.ErrNoRows) {
		return uuid.Nil, repository.ErrNotFound
	}
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to validate %s token: %w", kind, err)
	}
	return staffID, nil
}
