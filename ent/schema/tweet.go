package schema

import (
	"time"

	"entgo.io/ent"
	"entgo.io/ent/dialect/entsql"
	"entgo.io/ent/schema/edge"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"
)

// Tweet holds the schema definition for the Tweet entity (draft or posted).
//
// posted_at is set iff publish_status = posted iff tweet_id is set;
// dismissed_at is set iff publish_status = dismissed; a tweet belonging to a
// thread has thread_position >= 0 and unique within the thread.
type Tweet struct {
	ent.Schema
}

// Fields of the Tweet.
func (Tweet) Fields() []ent.Field {
	return []ent.Field{
		field.String("id").
			StorageKey("tweet_id").
			Unique().
			Immutable(),
		field.String("user_id").
			Immutable(),
		field.Text("text").
			Comment("<= 280 chars"),
		field.JSON("copy_options", []string{}).
			Optional().
			Comment("Alternative copy the agent proposed"),

		field.String("video_source_capture_id").
			Optional().
			Nillable(),
		field.Float("video_start_timestamp").
			Optional().
			Nillable(),
		field.Float("video_duration_secs").
			Optional().
			Nillable(),
		field.JSON("image_capture_ids", []string{}).
			Optional().
			Comment("<= 4 entries"),
		field.JSON("media_options", []map[string]interface{}{}).
			Optional().
			Comment("Alternative media selections the agent considered"),
		field.Text("rationale").
			Optional().
			Nillable(),

		field.Time("created_at").
			Default(time.Now).
			Immutable(),

		field.String("thread_id").
			Optional().
			Nillable(),
		field.Int("thread_position").
			Optional().
			Nillable(),

		field.String("tweet_external_id").
			Optional().
			Nillable().
			Comment("External platform tweet id, set once posted"),
		field.String("reply_to_tweet_id").
			Optional().
			Nillable().
			Comment("External platform id this tweet replies to"),
		field.Time("posted_at").
			Optional().
			Nillable(),
		field.Time("dismissed_at").
			Optional().
			Nillable(),

		field.Enum("publish_status").
			Values("pending", "posting", "posted", "failed", "dismissed").
			Default("pending"),
		field.Int("publish_attempts").
			Default(0),
		field.String("publish_error").
			Optional().
			Nillable(),
		field.Time("publish_error_at").
			Optional().
			Nillable(),
	}
}

// Edges of the Tweet.
func (Tweet) Edges() []ent.Edge {
	return []ent.Edge{
		edge.From("user", User.Type).
			Ref("tweets").
			Field("user_id").
			Unique().
			Required().
			Immutable(),
		edge.From("thread", Thread.Type).
			Ref("tweets").
			Field("thread_id").
			Unique(),
	}
}

// Indexes of the Tweet.
func (Tweet) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("user_id", "publish_status"),
		index.Fields("user_id", "created_at"),
		index.Fields("thread_id", "thread_position").
			Unique().
			Annotations(entsql.IndexWhere("thread_id IS NOT NULL")),
	}
}
