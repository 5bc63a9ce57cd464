// Package v1 contains the wire types shared between the chattersim services
// and their clients.
package v1

import "time"

// Sender identifies which side of the conversation a message belongs to.
type Sender string

const (
	SenderMe     Sender = "me"
	SenderFriend Sender = "friend"
)

// Kind is the content type of a message.
type Kind string

const (
	KindText    Kind = "text"
	KindAudio   Kind = "audio"
	KindImage   Kind = "image"
	KindGIF     Kind = "gif"
	KindSticker Kind = "sticker"
	KindVideo   Kind = "video"
)

// Ticks is the delivery state of an outgoing message.
// Only messages sent by "me" carry ticks.
type Ticks string

const (
	TicksSent      Ticks = "sent"
	TicksDelivered Ticks = "delivered"
)

// Message is one rendered conversation entry produced by the playback engine.
type Message struct {
	ID              string    `json:"id"`
	Sender          Sender    `json:"sender"`
	Kind            Kind      `json:"kind"`
	Content         string    `json:"content"`
	CreatedAt       time.Time `json:"created_at"`
	Ticks           Ticks     `json:"ticks,omitempty"`
	AudioDurationMs int       `json:"audio_duration_ms,omitempty"`
	VideoDurationMs int       `json:"video_duration_ms,omitempty"`
	IsPlayingAudio  bool      `json:"is_playing_audio,omitempty"`
	IsPlayingVideo  bool      `json:"is_playing_video,omitempty"`
}

// Snapshot is the complete observable conversation state at one instant.
// Every engine state transition produces a new snapshot; clients replace
// their local state wholesale on receipt.
type Snapshot struct {
	RunID            string    `json:"run_id"`
	Active           bool      `json:"active"`
	Messages         []Message `json:"messages"`
	TypingText       string    `json:"typing_text"`
	ShowSendButton   bool      `json:"show_send_button"`
	IsRecordingAudio bool      `json:"is_recording_audio"`
	ShowFriendTyping bool      `json:"show_friend_typing"`
	ShowKeypad       bool      `json:"show_keypad"`
}

// RunStatus describes the engine's current run, if any.
type RunStatus struct {
	Active bool   `json:"active"`
	RunID  string `json:"run_id,omitempty"`
}

// EchoRequest asks the presentation layer to play an audio clip while the
// engine simulates recording an outgoing voice message. The presentation
// layer reports completion with the given signal id.
type EchoRequest struct {
	RunID    string `json:"run_id"`
	SignalID string `json:"signal_id"`
	Content  string `json:"content"`
}
