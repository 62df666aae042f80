package schema

import (
	"time"

	"entgo.io/ent"
	"entgo.io/ent/schema/edge"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"
)

// Event holds the schema definition for the Event entity.
//
// Persisted pub/sub envelope backing pkg/events' WebSocket catchup: every
// durable event (run.status, timeline_event.created/completed) is written
// here before NOTIFY, so a client that reconnects mid-run can replay from
// last_event_id instead of losing history.
type Event struct {
	ent.Schema
}

// Fields of the Event.
func (Event) Fields() []ent.Field {
	return []ent.Field{
		field.Int("id").
			StorageKey("event_seq").
			Unique().
			Immutable().
			Comment("Monotonically increasing, used as the catchup cursor"),
		field.String("run_id").
			Immutable(),
		field.String("channel").
			Immutable().
			Comment("e.g. 'run:<run_id>' or the global runs channel"),
		field.String("event_type").
			Immutable(),
		field.JSON("payload", map[string]interface{}{}),
		field.Time("created_at").
			Default(time.Now).
			Immutable(),
	}
}

// Edges of the Event.
func (Event) Edges() []ent.Edge {
	return []ent.Edge{
		edge.From("run", AgentRun.Type).
			Ref("events").
			Field("run_id").
			Unique().
			Required().
			Immutable(),
	}
}

// Indexes of the Event.
func (Event) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("channel", "id"),
		index.Fields("run_id", "id"),
	}
}
