package schema

import (
	"time"

	"entgo.io/ent"
	"entgo.io/ent/schema/edge"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"
)

// TimelineEvent holds the schema definition for the TimelineEvent entity.
//
// User-facing trace of a single agent run: thinking, tool calls, tool
// results, and the final answer, streamed in real time over pkg/events.
type TimelineEvent struct {
	ent.Schema
}

// Fields of the TimelineEvent.
func (TimelineEvent) Fields() []ent.Field {
	return []ent.Field{
		field.String("id").
			StorageKey("event_id").
			Unique().
			Immutable(),
		field.String("run_id").
			Immutable(),

		field.Int("sequence_number").
			Comment("Order within the run"),

		field.Time("created_at").
			Default(time.Now).
			Immutable(),
		field.Time("updated_at").
			Default(time.Now).
			UpdateDefault(time.Now),

		// llm_thinking    — reasoning text, parsed from the ReAct response.
		// llm_response    — intermediate assistant text.
		// tool_call       — WriteTweet/WriteThread/GetMoreContext/ExtractText/MarkComplete invoked.
		// tool_result     — tool call observation appended to the conversation.
		// final_answer    — MarkComplete reached, loop terminated.
		field.Enum("event_type").
			Values(
				"llm_thinking",
				"llm_response",
				"tool_call",
				"tool_result",
				"final_answer",
			),
		field.Enum("status").
			Values("streaming", "completed", "failed").
			Default("streaming"),
		field.Text("content"),
		field.JSON("metadata", map[string]interface{}{}).
			Optional().
			Comment("tool_name, arguments, etc."),

		field.String("llm_interaction_id").
			Optional().
			Nillable(),
		field.String("tool_interaction_id").
			Optional().
			Nillable(),
	}
}

// Edges of the TimelineEvent.
func (TimelineEvent) Edges() []ent.Edge {
	return []ent.Edge{
		edge.From("run", AgentRun.Type).
			Ref("timeline_events").
			Field("run_id").
			Unique().
			Required().
			Immutable(),
		edge.From("llm_interaction", LLMInteraction.Type).
			Ref("timeline_events").
			Field("llm_interaction_id").
			Unique(),
		edge.From("tool_interaction", ToolInteraction.Type).
			Ref("timeline_events").
			Field("tool_interaction_id").
			Unique(),
	}
}

// Indexes of the TimelineEvent.
func (TimelineEvent) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("run_id", "sequence_number"),
		index.Fields("created_at"),
	}
}
