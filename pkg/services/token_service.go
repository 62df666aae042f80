package services

import (
	"context"
	"fmt"
	"time"

	"github.com/codeready-toolchain/cleo/ent"
	"github.com/codeready-toolchain/cleo/ent/refreshtoken"
)

// refreshTokenTTL is how long a rotated refresh token stays valid before it
// must be exchanged again.
const refreshTokenTTL = 30 * 24 * time.Hour

// TokenService manages our own rotating session refresh tokens, distinct
// from the external platform's OAuth access/refresh tokens stored on User.
type TokenService struct {
	client *ent.Client
}

// NewTokenService creates a new TokenService.
func NewTokenService(client *ent.Client) *TokenService {
	return &TokenService{client: client}
}

// Issue creates a new refresh token for a user, e.g. right after login.
func (s *TokenService) Issue(httpCtx context.Context, userID string) (*ent.RefreshToken, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	tokenID, err := generateOpaqueToken()
	if err != nil {
		return nil, fmt.Errorf("failed to generate refresh token: %w", err)
	}

	token, err := s.client.RefreshToken.Create().
		SetID(tokenID).
		SetUserID(userID).
		SetExpiresAt(time.Now().Add(refreshTokenTTL)).
		Save(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to issue refresh token: %w", err)
	}

	return token, nil
}

// Rotate consumes a refresh token and issues a replacement in the same
// transaction, so a reused or stolen token can never be exchanged twice.
func (s *TokenService) Rotate(httpCtx context.Context, tokenID string) (*ent.RefreshToken, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	tx, err := s.client.Tx(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback()

	old, err := tx.RefreshToken.Query().
		Where(
			refreshtoken.IDEQ(tokenID),
			refreshtoken.ExpiresAtGT(time.Now()),
		).
		Only(ctx)
	if err != nil {
		if ent.IsNotFound(err) {
			return nil, ErrRefreshTokenExpired
		}
		return nil, fmt.Errorf("failed to look up refresh token: %w", err)
	}

	if err := tx.RefreshToken.DeleteOneID(tokenID).Exec(ctx); err != nil {
		return nil, fmt.Errorf("failed to delete refresh token: %w", err)
	}

	newTokenID, err := generateOpaqueToken()
	if err != nil {
		return nil, fmt.Errorf("failed to generate refresh token: %w", err)
	}

	replacement, err := tx.RefreshToken.Create().
		SetID(newTokenID).
		SetUserID(old.UserID).
		SetExpiresAt(time.Now().Add(refreshTokenTTL)).
		Save(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to issue replacement refresh token: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit rotation: %w", err)
	}

	return replacement, nil
}

// Revoke deletes a refresh token outright, e.g. on logout.
func (s *TokenService) Revoke(ctx context.Context, tokenID string) error {
	err := s.client.RefreshToken.DeleteOneID(tokenID).Exec(ctx)
	if err != nil {
		if ent.IsNotFound(err) {
			return nil
		}
		return fmt.Errorf("failed to revoke refresh token: %w", err)
	}
	return nil
}

// RevokeAllForUser deletes every refresh token for a user, e.g. on password
// change or suspected compromise.
func (s *TokenService) RevokeAllForUser(ctx context.Context, userID string) (int, error) {
	count, err := s.client.RefreshToken.Delete().
		Where(refreshtoken.UserIDEQ(userID)).
		Exec(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to revoke user refresh tokens: %w", err)
	}
	return count, nil
}

// CleanupExpiredTokens removes refresh tokens past their expiry, for the
// periodic retention sweep.
func (s *TokenService) CleanupExpiredTokens(ctx context.Context) (int, error) {
	count, err := s.client.RefreshToken.Delete().
		Where(refreshtoken.ExpiresAtLT(time.Now())).
		Exec(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to cleanup expired refresh tokens: %w", err)
	}
	return count, nil
}
