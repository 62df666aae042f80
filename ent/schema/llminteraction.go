package schema

import (
	"time"

	"entgo.io/ent"
	"entgo.io/ent/schema/edge"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"
)

// LLMInteraction holds the schema definition for the LLMInteraction entity.
//
// Full technical record of one call to the external LLM provider (debug/
// observability tab), grounded on the sidecar's gRPC Generate response.
type LLMInteraction struct {
	ent.Schema
}

// Fields of the LLMInteraction.
func (LLMInteraction) Fields() []ent.Field {
	return []ent.Field{
		field.String("id").
			StorageKey("interaction_id").
			Unique().
			Immutable(),
		field.String("run_id").
			Immutable(),

		field.Time("created_at").
			Default(time.Now).
			Immutable(),

		field.Enum("interaction_type").
			Values("iteration", "forced_conclusion"),
		field.String("model_name"),

		field.String("last_message_id").
			Optional().
			Nillable(),

		field.JSON("llm_request", map[string]interface{}{}),
		field.JSON("llm_response", map[string]interface{}{}),
		field.Text("thinking_content").
			Optional().
			Nillable(),
		field.JSON("response_metadata", map[string]interface{}{}).
			Optional(),

		field.Int("input_tokens").
			Optional().
			Nillable(),
		field.Int("output_tokens").
			Optional().
			Nillable(),
		field.Int("total_tokens").
			Optional().
			Nillable(),
		field.Int("duration_ms").
			Optional().
			Nillable(),
		field.String("error_message").
			Optional().
			Nillable(),
	}
}

// Edges of the LLMInteraction.
func (LLMInteraction) Edges() []ent.Edge {
	return []ent.Edge{
		edge.From("run", AgentRun.Type).
			Ref("llm_interactions").
			Field("run_id").
			Unique().
			Required().
			Immutable(),
		edge.From("last_message", Message.Type).
			Ref("llm_interactions").
			Field("last_message_id").
			Unique(),
		edge.To("timeline_events", TimelineEvent.Type),
	}
}

// Indexes of the LLMInteraction.
func (LLMInteraction) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("run_id", "created_at"),
	}
}
