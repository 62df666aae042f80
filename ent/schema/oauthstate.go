package schema

import (
	"time"

	"entgo.io/ent"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"
)

// OAuthState holds the schema definition for the OAuthState entity.
//
// Short-lived PKCE record, valid for at most 10 minutes, consumed at most
// once via an atomic delete-and-return (see pkg/services.OAuthService).
type OAuthState struct {
	ent.Schema
}

// Fields of the OAuthState.
func (OAuthState) Fields() []ent.Field {
	return []ent.Field{
		field.String("id").
			StorageKey("state").
			Unique().
			Immutable().
			Comment("The OAuth2 state parameter itself"),
		field.String("code_verifier").
			Immutable().
			Sensitive(),
		field.Time("created_at").
			Default(time.Now).
			Immutable(),
	}
}

// Indexes of the OAuthState.
func (OAuthState) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("created_at"),
	}
}
