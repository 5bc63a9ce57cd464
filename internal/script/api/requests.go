package api

import (
	"time"

	"github.com/chattersim/chattersim/internal/script/importer"
)

// ItemRequest is the request body for creating or updating a queue item
type ItemRequest struct {
	Sender          string `json:"sender" binding:"required"`
	Kind            string `json:"kind" binding:"required"`
	Content         string `json:"content"`
	DelayAfterMs    int    `json:"delay_after_ms"`
	AudioDurationMs int    `json:"audio_duration_ms"`
	VideoDurationMs int    `json:"video_duration_ms"`
}

// ReplaceRequest is the request body for swapping the whole queue
type ReplaceRequest struct {
	Items []ItemRequest `json:"items" binding:"required"`
}

// ItemResponse is the API representation of a queue item
type ItemResponse struct {
	ID              string    `json:"id"`
	Sender          string    `json:"sender"`
	Kind            string    `json:"kind"`
	Content         string    `json:"content,omitempty"`
	DelayAfterMs    int       `json:"delay_after_ms,omitempty"`
	AudioDurationMs int       `json:"audio_duration_ms,omitempty"`
	VideoDurationMs int       `json:"video_duration_ms,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// ItemsListResponse is the response for listing the queue
type ItemsListResponse struct {
	Items []*ItemResponse `json:"items"`
	Total int             `json:"total"`
}

// ImportResponse reports the outcome of a CSV import
type ImportResponse struct {
	Imported int                 `json:"imported"`
	Skipped  int                 `json:"skipped"`
	Errors   []importer.RowError `json:"errors,omitempty"`
}
