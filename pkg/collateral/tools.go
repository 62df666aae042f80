package collateral

import "github.com/codeready-toolchain/cleo/pkg/llm"

// Tool names the Collateral Agent can call.
const (
	ToolWriteTweet     = "WriteTweet"
	ToolWriteThread    = "WriteThread"
	ToolGetMoreContext = "GetMoreContext"
	ToolExtractText    = "ExtractText"
	ToolMarkComplete   = "MarkComplete"
)

// tools returns the five tool definitions offered to the model each turn.
// WriteTweet/WriteThread/GetMoreContext/ExtractText are the four
// content-and-research tools; MarkComplete is the termination signal the
// loop requires before it will stop, distinct from the content tools.
func tools() []llm.ToolDefinition {
	return []llm.ToolDefinition{
		{
			Name:        ToolWriteTweet,
			Description: "Draft a single standalone tweet from the capture window.",
			ParametersSchema: `{
				"type": "object",
				"properties": {
					"text": {"type": "string", "description": "Tweet body, <= 280 characters"},
					"copy_options": {"type": "array", "items": {"type": "string"}, "description": "Alternative phrasings considered"},
					"image_capture_ids": {"type": "array", "items": {"type": "string"}, "description": "<= 4 capture IDs to attach as images"},
					"video_source_capture_id": {"type": "string"},
					"video_start_timestamp": {"type": "number"},
					"video_duration_secs": {"type": "number"},
					"rationale": {"type": "string", "description": "Why this moment is worth sharing"}
				},
				"required": ["text"]
			}`,
		},
		{
			Name:        ToolWriteThread,
			Description: "Draft a multi-tweet thread from the capture window.",
			ParametersSchema: `{
				"type": "object",
				"properties": {
					"title": {"type": "string"},
					"copy_options": {"type": "array", "items": {"type": "string"}},
					"tweets": {
						"type": "array",
						"items": {
							"type": "object",
							"properties": {
								"text": {"type": "string"},
								"image_capture_ids": {"type": "array", "items": {"type": "string"}},
								"video_source_capture_id": {"type": "string"},
								"video_start_timestamp": {"type": "number"},
								"video_duration_secs": {"type": "number"},
								"rationale": {"type": "string"}
							},
							"required": ["text"]
						}
					}
				},
				"required": ["tweets"]
			}`,
		},
		{
			Name:        ToolGetMoreContext,
			Description: "Fetch a finer-grained sub-range of captures and activity events than the initial window summary.",
			ParametersSchema: `{
				"type": "object",
				"properties": {
					"start": {"type": "string", "description": "RFC3339 timestamp"},
					"end": {"type": "string", "description": "RFC3339 timestamp"},
					"interval_id": {"type": "integer", "description": "Optional: drill into a single observation interval"}
				},
				"required": ["start", "end"]
			}`,
		},
		{
			Name:        ToolExtractText,
			Description: "Run OCR on an image capture, or on a frame extracted from a video capture at a given timestamp.",
			ParametersSchema: `{
				"type": "object",
				"properties": {
					"capture_id": {"type": "string"},
					"timestamp": {"type": "string", "description": "HH:MM or MM:SS offset into a video capture; omit for image captures"}
				},
				"required": ["capture_id"]
			}`,
		},
		{
			Name:        ToolMarkComplete,
			Description: "Signal that drafting is finished for this window. Must be called exactly once to end the run.",
			ParametersSchema: `{
				"type": "object",
				"properties": {
					"summary": {"type": "string"},
					"drafts_created": {"type": "integer"}
				},
				"required": ["summary"]
			}`,
		},
	}
}
