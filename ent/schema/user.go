package schema

import (
	"time"

	"entgo.io/ent"
	"entgo.io/ent/dialect/entsql"
	"entgo.io/ent/schema/edge"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"
)

// User holds the schema definition for the User entity.
//
// Identity, OAuth tokens, and the opaque token the desktop agent uses to
// authenticate against the ingest API. Created on first successful external
// login; tokens rotated on refresh (see RefreshToken); api_token regenerated
// on user request.
type User struct {
	ent.Schema
}

// Fields of the User.
func (User) Fields() []ent.Field {
	return []ent.Field{
		field.String("id").
			StorageKey("user_id").
			Unique().
			Immutable(),
		field.String("external_id").
			Comment("Platform user id from the external social platform"),
		field.String("username"),
		field.String("access_token").
			Optional().
			Nillable().
			Sensitive(),
		field.String("refresh_token").
			Optional().
			Nillable().
			Sensitive().
			Comment("Legacy external-platform refresh token; see RefreshToken for our own rotation"),
		field.Time("token_expires_at").
			Optional().
			Nillable(),
		field.String("api_token").
			Unique().
			Sensitive().
			Comment("Opaque token the desktop agent presents on every ingest request"),
		field.Bool("allowlisted").
			Default(false),
		field.Time("created_at").
			Default(time.Now).
			Immutable(),
		field.Time("updated_at").
			Default(time.Now).
			UpdateDefault(time.Now),
	}
}

// Edges of the User.
func (User) Edges() []ent.Edge {
	return []ent.Edge{
		edge.To("captures", Capture.Type).
			Annotations(entsql.OnDelete(entsql.Cascade)),
		edge.To("tweets", Tweet.Type).
			Annotations(entsql.OnDelete(entsql.Cascade)),
		edge.To("threads", Thread.Type).
			Annotations(entsql.OnDelete(entsql.Cascade)),
		edge.To("activity_events", ActivityEvent.Type).
			Annotations(entsql.OnDelete(entsql.Cascade)),
		edge.To("refresh_tokens", RefreshToken.Type).
			Annotations(entsql.OnDelete(entsql.Cascade)),
		edge.To("agent_runs", AgentRun.Type).
			Annotations(entsql.OnDelete(entsql.Cascade)),
	}
}

// Indexes of the User.
func (User) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("external_id").Unique(),
		index.Fields("api_token").Unique(),
	}
}
