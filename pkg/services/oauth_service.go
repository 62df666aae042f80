package services

import (
	"context"
	"fmt"
	"time"

	"github.com/codeready-toolchain/cleo/ent"
	"github.com/codeready-toolchain/cleo/ent/oauthstate"
)

// oauthStateValidity is how long a saved OAuth state/PKCE verifier pair
// remains consumable, matching the external login flow's redirect round trip.
const oauthStateValidity = 10 * time.Minute

// OAuthService manages the short-lived PKCE state used during external login.
type OAuthService struct {
	client *ent.Client
}

// NewOAuthService creates a new OAuthService.
func NewOAuthService(client *ent.Client) *OAuthService {
	return &OAuthService{client: client}
}

// SaveState persists the state/code_verifier pair issued at the start of
// the OAuth redirect.
func (s *OAuthService) SaveState(httpCtx context.Context, state, codeVerifier string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := s.client.OAuthState.Create().
		SetID(state).
		SetCodeVerifier(codeVerifier).
		Exec(ctx)
	if err != nil {
		if ent.IsConstraintError(err) {
			return ErrAlreadyExists
		}
		return fmt.Errorf("failed to save oauth state: %w", err)
	}

	return nil
}

// ConsumeState looks up the code_verifier for a state, then deletes the row
// regardless of whether it was found or already expired — consuming it at
// most once. A missing or stale row returns ErrOAuthStateExpiredOrConsumed.
func (s *OAuthService) ConsumeState(httpCtx context.Context, state string) (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	cutoff := time.Now().Add(-oauthStateValidity)

	row, err := s.client.OAuthState.Query().
		Where(
			oauthstate.IDEQ(state),
			oauthstate.CreatedAtGT(cutoff),
		).
		Only(ctx)

	// Clean up the state row unconditionally, mirroring the lookup-then-delete
	// pattern the original implementation uses: a replayed state must not be
	// reusable even if it was already expired.
	deleted, delErr := s.client.OAuthState.Delete().
		Where(oauthstate.IDEQ(state)).
		Exec(context.Background())
	if delErr != nil {
		return "", fmt.Errorf("failed to delete oauth state: %w", delErr)
	}

	if err != nil {
		if ent.IsNotFound(err) {
			return "", ErrOAuthStateExpiredOrConsumed
		}
		return "", fmt.Errorf("failed to look up oauth state: %w", err)
	}
	// A concurrent caller that read the same row but lost the delete race
	// must not also get the verifier.
	if deleted == 0 {
		return "", ErrOAuthStateExpiredOrConsumed
	}

	return row.CodeVerifier, nil
}

// CleanupExpiredStates removes stale state rows that were never consumed
// (the user abandoned the login flow mid-redirect).
func (s *OAuthService) CleanupExpiredStates(ctx context.Context) (int, error) {
	cutoff := time.Now().Add(-oauthStateValidity)

	count, err := s.client.OAuthState.Delete().
		Where(oauthstate.CreatedAtLT(cutoff)).
		Exec(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to cleanup expired oauth states: %w", err)
	}

	return count, nil
}
