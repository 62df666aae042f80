package models

import (
	"time"

	"github.com/codeready-toolchain/cleo/ent"
)

// EditParamsKind discriminates the closed sum type stored in Capture.edit_params.
type EditParamsKind string

const (
	EditParamsKindCrop EditParamsKind = "crop"
	EditParamsKindTrim EditParamsKind = "trim"
)

// CropParams describes a pixel-rectangle crop of a source capture.
type CropParams struct {
	Kind   EditParamsKind `json:"kind"`
	X      int            `json:"x"`
	Y      int            `json:"y"`
	Width  int            `json:"w"`
	Height int            `json:"h"`
}

// TrimParams describes a time-range trim of a source video capture.
type TrimParams struct {
	Kind  EditParamsKind `json:"kind"`
	Start float64        `json:"start"`
	End   float64        `json:"end"`
}

// CreateCaptureRequest contains fields for ingesting a new capture from the
// desktop agent.
type CreateCaptureRequest struct {
	UserID      string    `json:"user_id"`
	MediaType   string    `json:"media_type"` // "image", "video"
	MimeType    string    `json:"mime_type"`
	StoragePath string    `json:"storage_path"`
	CapturedAt  time.Time `json:"captured_at"`
	IntervalID  int64     `json:"interval_id"`

	SourceCaptureID string         `json:"source_capture_id,omitempty"`
	EditParams      map[string]any `json:"edit_params,omitempty"`
}

// CaptureFilters contains filtering options for listing captures.
type CaptureFilters struct {
	UserID           string `json:"user_id,omitempty"`
	IntervalID       *int64 `json:"interval_id,omitempty"`
	PendingFrames    bool   `json:"pending_frames,omitempty"`
	PendingThumbnail bool   `json:"pending_thumbnail,omitempty"`
	Limit            int    `json:"limit,omitempty"`
	Offset           int    `json:"offset,omitempty"`
}

// CaptureListResponse contains a paginated capture list.
type CaptureListResponse struct {
	Captures   []*ent.Capture `json:"captures"`
	TotalCount int            `json:"total_count"`
	Limit      int            `json:"limit"`
	Offset     int            `json:"offset"`
}
