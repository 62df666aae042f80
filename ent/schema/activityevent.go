package schema

import (
	"time"

	"entgo.io/ent"
	"entgo.io/ent/schema/edge"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"
)

// ActivityEvent holds the schema definition for the ActivityEvent entity.
//
// Produced by the Activity Observer, buffered on the agent, flushed in
// batches, and appended to this append-only table on ingest.
type ActivityEvent struct {
	ent.Schema
}

// Fields of the ActivityEvent.
func (ActivityEvent) Fields() []ent.Field {
	return []ent.Field{
		field.String("id").
			StorageKey("event_id").
			Unique().
			Immutable(),
		field.String("user_id").
			Immutable(),
		field.Int64("interval_id").
			Immutable(),
		field.Enum("event_type").
			Values("foreground_switch", "mouse_click").
			Immutable(),
		field.String("application").
			Optional().
			Nillable().
			Immutable(),
		field.String("window").
			Optional().
			Nillable().
			Immutable(),
		field.Time("occurred_at").
			Immutable(),
		field.Time("created_at").
			Default(time.Now).
			Immutable(),
	}
}

// Edges of the ActivityEvent.
func (ActivityEvent) Edges() []ent.Edge {
	return []ent.Edge{
		edge.From("user", User.Type).
			Ref("activity_events").
			Field("user_id").
			Unique().
			Required().
			Immutable(),
	}
}

// Indexes of the ActivityEvent.
func (ActivityEvent) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("user_id", "interval_id"),
		index.Fields("user_id", "occurred_at"),
	}
}
