package services

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/codeready-toolchain/cleo/ent"
	"github.com/codeready-toolchain/cleo/ent/user"
	"github.com/codeready-toolchain/cleo/pkg/models"
	"github.com/google/uuid"
)

// UserService manages user identity, OAuth tokens, and the ingest api_token.
type UserService struct {
	client *ent.Client
}

// NewUserService creates a new UserService.
func NewUserService(client *ent.Client) *UserService {
	return &UserService{client: client}
}

// UpsertUser creates a user on first login or refreshes its username and
// (when one is given) access token on subsequent logins. It never writes
// the refresh token; UpdateTokens does that.
func (s *UserService) UpsertUser(httpCtx context.Context, req models.CreateUserRequest) (*ent.User, error) {
	if req.ExternalID == "" {
		return nil, NewValidationError("external_id", "required")
	}
	if req.Username == "" {
		return nil, NewValidationError("username", "required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	existing, err := s.client.User.Query().
		Where(user.ExternalIDEQ(req.ExternalID)).
		Only(ctx)
	if err != nil && !ent.IsNotFound(err) {
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}

	if existing != nil {
		update := existing.Update().
			SetUsername(req.Username).
			SetUpdatedAt(time.Now())
		if req.AccessToken != "" {
			update = update.SetAccessToken(req.AccessToken)
		}
		updated, err := update.Save(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to update user: %w", err)
		}
		return updated, nil
	}

	apiToken, err := generateOpaqueToken()
	if err != nil {
		return nil, fmt.Errorf("failed to generate api token: %w", err)
	}

	newUser, err := s.client.User.Create().
		SetID(uuid.New().String()).
		SetExternalID(req.ExternalID).
		SetUsername(req.Username).
		SetNillableAccessToken(nonEmptyPtr(req.AccessToken)).
		SetAPIToken(apiToken).
		Save(ctx)
	if err != nil {
		if ent.IsConstraintError(err) {
			return nil, ErrAlreadyExists
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return newUser, nil
}

// GetUser retrieves a user by ID.
func (s *UserService) GetUser(ctx context.Context, userID string) (*ent.User, error) {
	u, err := s.client.User.Get(ctx, userID)
	if err != nil {
		if ent.IsNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return u, nil
}

// GetUserByAPIToken authenticates an ingest request by its opaque api_token.
func (s *UserService) GetUserByAPIToken(ctx context.Context, apiToken string) (*ent.User, error) {
	u, err := s.client.User.Query().
		Where(user.APITokenEQ(apiToken)).
		Only(ctx)
	if err != nil {
		if ent.IsNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to look up user by api token: %w", err)
	}
	return u, nil
}

// UpdateTokens rotates the external platform's access/refresh tokens,
// preserving the existing refresh_token if the caller doesn't supply one.
func (s *UserService) UpdateTokens(httpCtx context.Context, userID string, req models.UpdateUserTokensRequest) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	update := s.client.User.UpdateOneID(userID).
		SetAccessToken(req.AccessToken).
		SetUpdatedAt(time.Now())

	if req.RefreshToken != "" {
		update = update.SetRefreshToken(req.RefreshToken)
	}
	if req.ExpiresInSecs > 0 {
		update = update.SetTokenExpiresAt(time.Now().Add(time.Duration(req.ExpiresInSecs) * time.Second))
	}

	if err := update.Exec(ctx); err != nil {
		if ent.IsNotFound(err) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to update user tokens: %w", err)
	}

	return nil
}

// RegenerateAPIToken issues a fresh ingest token, invalidating the old one.
func (s *UserService) RegenerateAPIToken(ctx context.Context, userID string) (string, error) {
	apiToken, err := generateOpaqueToken()
	if err != nil {
		return "", fmt.Errorf("failed to generate api token: %w", err)
	}

	err = s.client.User.UpdateOneID(userID).
		SetAPIToken(apiToken).
		SetUpdatedAt(time.Now()).
		Exec(ctx)
	if err != nil {
		if ent.IsNotFound(err) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("failed to regenerate api token: %w", err)
	}

	return apiToken, nil
}

// generateOpaqueToken returns a random 32-byte hex string, used for both
// api_token and refresh token identifiers.
func generateOpaqueToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

func nonEmptyPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
