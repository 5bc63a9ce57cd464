// Package models defines the script domain model: the editable queue of
// message descriptions a playback run consumes.
package models

import (
	"fmt"
	"time"

	v1 "github.com/chattersim/chattersim/pkg/api/v1"
)

// QueueItem is one scripted message with its timing metadata. Items are
// authored before a run and are read-only while a run is in flight (the
// engine works on a snapshot).
type QueueItem struct {
	ID              string    `json:"id"`
	Sender          v1.Sender `json:"sender"`
	Kind            v1.Kind   `json:"kind"`
	Content         string    `json:"content"`
	DelayAfterMs    int       `json:"delay_after_ms"`
	AudioDurationMs int       `json:"audio_duration_ms,omitempty"`
	VideoDurationMs int       `json:"video_duration_ms,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// ValidSender reports whether s is one of the supported senders.
func ValidSender(s v1.Sender) bool {
	return s == v1.SenderMe || s == v1.SenderFriend
}

// ValidKind reports whether k is one of the supported message kinds.
func ValidKind(k v1.Kind) bool {
	switch k {
	case v1.KindText, v1.KindAudio, v1.KindImage, v1.KindGIF, v1.KindSticker, v1.KindVideo:
		return true
	}
	return false
}

// Validate checks the item against the composer rules: known sender and
// kind, non-negative delays and durations, and for audio/video without
// content an explicit positive duration fallback so the engine always has
// something to wait on.
func (i *QueueItem) Validate() error {
	if !ValidSender(i.Sender) {
		return fmt.Errorf("sender must be 'me' or 'friend', got %q", i.Sender)
	}
	if !ValidKind(i.Kind) {
		return fmt.Errorf("unsupported message kind %q", i.Kind)
	}
	if i.DelayAfterMs < 0 {
		return fmt.Errorf("delay_after_ms must be non-negative, got %d", i.DelayAfterMs)
	}
	if i.AudioDurationMs < 0 {
		return fmt.Errorf("audio_duration_ms must be non-negative, got %d", i.AudioDurationMs)
	}
	if i.VideoDurationMs < 0 {
		return fmt.Errorf("video_duration_ms must be non-negative, got %d", i.VideoDurationMs)
	}
	if i.Content == "" {
		switch i.Kind {
		case v1.KindText:
			// Empty text is allowed; it renders as an empty bubble.
		case v1.KindAudio:
			if i.AudioDurationMs <= 0 {
				return fmt.Errorf("audio without content requires a positive audio_duration_ms")
			}
		case v1.KindVideo:
			if i.VideoDurationMs <= 0 {
				return fmt.Errorf("video without content requires a positive video_duration_ms")
			}
		default:
			return fmt.Errorf("%s messages require content", i.Kind)
		}
	}
	return nil
}

// DelayAfter returns the mandatory pause after this item as a duration.
func (i *QueueItem) DelayAfter() time.Duration {
	return time.Duration(i.DelayAfterMs) * time.Millisecond
}

// Clone returns a copy of the item.
func (i *QueueItem) Clone() *QueueItem {
	c := *i
	return &c
}
