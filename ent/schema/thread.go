package schema

import (
	"time"

	"entgo.io/ent"
	"entgo.io/ent/dialect/entsql"
	"entgo.io/ent/schema/edge"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"
)

// Thread holds the schema definition for the Thread entity.
//
// Status transitions are draft -> posting -> {posted, partial_failed}. Only
// a draft thread may be edited, reordered, or have members added/removed.
// Tweet positions within a thread form a dense sequence 0..N-1 at all times.
type Thread struct {
	ent.Schema
}

// Fields of the Thread.
func (Thread) Fields() []ent.Field {
	return []ent.Field{
		field.String("id").
			StorageKey("thread_id").
			Unique().
			Immutable(),
		field.String("user_id").
			Immutable(),
		field.String("title").
			Optional().
			Nillable(),
		field.JSON("copy_options", []string{}).
			Optional().
			Comment("Alternative full-thread variations"),
		field.Enum("status").
			Values("draft", "posting", "posted", "partial_failed").
			Default("draft"),
		field.Time("created_at").
			Default(time.Now).
			Immutable(),
		field.Time("posted_at").
			Optional().
			Nillable(),
		field.String("first_tweet_external_id").
			Optional().
			Nillable(),
	}
}

// Edges of the Thread.
func (Thread) Edges() []ent.Edge {
	return []ent.Edge{
		edge.From("user", User.Type).
			Ref("threads").
			Field("user_id").
			Unique().
			Required().
			Immutable(),
		edge.To("tweets", Tweet.Type).
			Annotations(entsql.OnDelete(entsql.SetNull)),
	}
}

// Indexes of the Thread.
func (Thread) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("user_id", "status"),
		index.Fields("user_id", "created_at"),
	}
}
