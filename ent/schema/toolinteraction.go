package schema

import (
	"time"

	"entgo.io/ent"
	"entgo.io/ent/schema/edge"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"
)

// ToolInteraction holds the schema definition for the ToolInteraction entity.
//
// Full technical record of one domain tool call made by the Collateral
// Agent — WriteTweet, WriteThread, GetMoreContext, ExtractText, or
// MarkComplete (renamed, adapted from the teacher's MCPInteraction: this
// agent calls fixed domain tools directly, not MCP servers).
type ToolInteraction struct {
	ent.Schema
}

// Fields of the ToolInteraction.
func (ToolInteraction) Fields() []ent.Field {
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

		field.String("tool_name").
			Comment("write_tweet, write_thread, get_more_context, extract_text, mark_complete"),

		field.JSON("tool_arguments", map[string]interface{}{}).
			Optional(),
		field.JSON("tool_result", map[string]interface{}{}).
			Optional(),

		field.Int("duration_ms").
			Optional().
			Nillable(),
		field.String("error_message").
			Optional().
			Nillable(),
	}
}

// Edges of the ToolInteraction.
func (ToolInteraction) Edges() []ent.Edge {
	return []ent.Edge{
		edge.From("run", AgentRun.Type).
			Ref("tool_interactions").
			Field("run_id").
			Unique().
			Required().
			Immutable(),
		edge.To("timeline_events", TimelineEvent.Type),
	}
}

// Indexes of the ToolInteraction.
func (ToolInteraction) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("run_id", "created_at"),
	}
}
