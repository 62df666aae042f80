package schema

import (
	"time"

	"entgo.io/ent"
	"entgo.io/ent/dialect/entsql"
	"entgo.io/ent/schema/edge"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"
)

// Capture holds the schema definition for the Capture entity.
//
// A single media artifact (screenshot or short recording) produced by the
// desktop agent and owned exclusively by its user. frames_processing is true
// iff a frame worker holds a lease whose age is under the configured lease
// TTL; frame_attempts is monotonically nondecreasing; a capture with
// frames_extracted=true has a manifest object at its derived frames path.
type Capture struct {
	ent.Schema
}

// Fields of the Capture.
func (Capture) Fields() []ent.Field {
	return []ent.Field{
		field.String("id").
			StorageKey("capture_id").
			Unique().
			Immutable(),
		field.String("user_id").
			Immutable(),
		field.Enum("media_type").
			Values("image", "video").
			Immutable(),
		field.String("mime_type").
			Immutable(),
		field.String("storage_path").
			Immutable().
			Comment("Object store key; unique"),
		field.Time("captured_at").
			Immutable(),
		field.Int64("interval_id").
			Immutable().
			Comment("Per-process monotonic 5-minute bucket from the agent"),

		field.Bool("frames_extracted").
			Default(false),
		field.Bool("frames_processing").
			Default(false),
		field.Time("frames_processing_started_at").
			Optional().
			Nillable().
			Comment("Lease start; frames_processing is true iff now - this < lease TTL"),
		field.Int("frame_attempts").
			Default(0),
		field.String("frame_error").
			Optional().
			Nillable(),

		field.String("thumbnail_path").
			Optional().
			Nillable(),
		field.Int("thumbnail_attempts").
			Default(0),

		field.String("source_capture_id").
			Optional().
			Nillable().
			Comment("Set when this capture is a derived crop/trim of another capture"),
		field.JSON("edit_params", map[string]interface{}{}).
			Optional().
			Comment("Crop{x,y,w,h} or Trim{start,end} discriminated by a 'kind' field"),

		field.Time("created_at").
			Default(time.Now).
			Immutable(),
		field.Time("deleted_at").
			Optional().
			Nillable().
			Comment("Soft delete reserved for a separate retention task; core never sets this"),
	}
}

// Edges of the Capture.
func (Capture) Edges() []ent.Edge {
	return []ent.Edge{
		edge.From("user", User.Type).
			Ref("captures").
			Field("user_id").
			Unique().
			Required().
			Immutable(),
		edge.To("source_capture", Capture.Type).
			Unique().
			Field("source_capture_id").
			Annotations(entsql.OnDelete(entsql.SetNull)),
	}
}

// Indexes of the Capture.
func (Capture) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("storage_path").Unique(),
		index.Fields("user_id", "captured_at"),
		index.Fields("frames_extracted", "frames_processing").
			Annotations(entsql.IndexWhere("frames_extracted = false AND deleted_at IS NULL")),
		index.Fields("thumbnail_path").
			Annotations(entsql.IndexWhere("thumbnail_path IS NULL AND deleted_at IS NULL")),
	}
}
