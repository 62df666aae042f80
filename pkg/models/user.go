package models

import "github.com/codeready-toolchain/cleo/ent"

// CreateUserRequest contains fields for provisioning a user on first login.
type CreateUserRequest struct {
	ExternalID  string `json:"external_id"`
	Username    string `json:"username"`
	AccessToken string `json:"access_token,omitempty"`
}

// UpdateUserTokensRequest updates the external platform's OAuth tokens.
type UpdateUserTokensRequest struct {
	AccessToken   string `json:"access_token"`
	RefreshToken  string `json:"refresh_token,omitempty"`
	ExpiresInSecs int    `json:"expires_in_secs,omitempty"`
}

// UserResponse wraps a User, excluding sensitive fields by relying on ent's
// generated Sensitive() marshaling exclusion.
type UserResponse struct {
	*ent.User
}
