package engine

import (
	"time"

	"github.com/chattersim/chattersim/internal/common/config"
)

// Timing holds the playback pacing parameters as durations.
type Timing struct {
	SettleDelay      time.Duration // reset pause before the first item
	KeypadDelay      time.Duration // keyboard pop-up simulation
	TypingInterval   time.Duration // per-character reveal speed
	SendHesitation   time.Duration // pause between full reveal and send
	MediaSelectDelay time.Duration // picking an attachment
	DeliveredDelay   time.Duration // sent -> delivered tick
	FriendTyping     time.Duration // friend typing indicator duration
	FriendViewing    time.Duration // dwell on incoming image/gif/sticker

	ReadingWordsPerMinute int           // reading speed for incoming text
	MinReading            time.Duration // floor for the reading delay

	DefaultMeAudio     time.Duration // outgoing audio fallback duration
	DefaultFriendAudio time.Duration // incoming audio fallback duration
	DefaultFriendVideo time.Duration // incoming video fallback duration
}

// TimingFromConfig converts the millisecond configuration into durations.
func TimingFromConfig(cfg config.PlaybackConfig) Timing {
	ms := func(v int) time.Duration { return time.Duration(v) * time.Millisecond }
	return Timing{
		SettleDelay:           ms(cfg.SettleDelayMs),
		KeypadDelay:           ms(cfg.KeypadDelayMs),
		TypingInterval:        ms(cfg.TypingIntervalMs),
		SendHesitation:        ms(cfg.SendHesitationMs),
		MediaSelectDelay:      ms(cfg.MediaSelectDelayMs),
		DeliveredDelay:        ms(cfg.DeliveredDelayMs),
		FriendTyping:          ms(cfg.FriendTypingMs),
		FriendViewing:         ms(cfg.FriendViewingMs),
		ReadingWordsPerMinute: cfg.ReadingWordsPerMinute,
		MinReading:            ms(cfg.MinReadingMs),
		DefaultMeAudio:        ms(cfg.DefaultMeAudioMs),
		DefaultFriendAudio:    ms(cfg.DefaultFriendAudioMs),
		DefaultFriendVideo:    ms(cfg.DefaultFriendVideoMs),
	}
}

// readingDelay computes how long the friend's text stays on screen before the
// next item: word count over reading speed, with a floor.
func (t Timing) readingDelay(words int) time.Duration {
	if t.ReadingWordsPerMinute <= 0 {
		return t.MinReading
	}
	d := time.Duration(words) * time.Minute / time.Duration(t.ReadingWordsPerMinute)
	if d < t.MinReading {
		return t.MinReading
	}
	return d
}

// pick returns the item-provided duration in milliseconds, or fallback when
// the item carries none.
func pick(durationMs int, fallback time.Duration) time.Duration {
	if durationMs > 0 {
		return time.Duration(durationMs) * time.Millisecond
	}
	return fallback
}
