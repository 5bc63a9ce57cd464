// Package projection holds the observable conversation state produced by a
// playback run: the ordered message list plus the transient UI flags.
package projection

import (
	"sync"

	v1 "github.com/chattersim/chattersim/pkg/api/v1"
)

// Observer receives a complete snapshot after every state transition.
type Observer func(v1.Snapshot)

// Projection is the conversation state of one run. All mutations replace the
// affected slice wholesale, so every change observers see is a discrete,
// self-consistent snapshot. Each run owns a fresh Projection; a superseded
// run keeps mutating its own orphaned instance, which nobody observes.
type Projection struct {
	mu       sync.RWMutex
	state    v1.Snapshot
	observer Observer
}

// New creates a projection for the given run id
func New(runID string, observer Observer) *Projection {
	return &Projection{
		state: v1.Snapshot{
			RunID:    runID,
			Messages: []v1.Message{},
		},
		observer: observer,
	}
}

// Snapshot returns a copy of the current state
func (p *Projection) Snapshot() v1.Snapshot {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.copyState()
}

// Reset clears messages and all transient flags, keeping the run id
func (p *Projection) Reset() {
	p.mutate(func(s *v1.Snapshot) {
		s.Messages = []v1.Message{}
		s.TypingText = ""
		s.ShowSendButton = false
		s.IsRecordingAudio = false
		s.ShowFriendTyping = false
		s.ShowKeypad = false
	})
}

// SetActive marks the run active or finished
func (p *Projection) SetActive(active bool) {
	p.mutate(func(s *v1.Snapshot) { s.Active = active })
}

// AppendMessage adds a message to the end of the conversation
func (p *Projection) AppendMessage(msg v1.Message) {
	p.mutate(func(s *v1.Snapshot) {
		messages := make([]v1.Message, len(s.Messages), len(s.Messages)+1)
		copy(messages, s.Messages)
		s.Messages = append(messages, msg)
	})
}

// SetTicks advances the delivery state of a message
func (p *Projection) SetTicks(messageID string, ticks v1.Ticks) {
	p.updateMessage(messageID, func(m *v1.Message) { m.Ticks = ticks })
}

// SetPlayingAudio flips the transient playing flag of an audio message
func (p *Projection) SetPlayingAudio(messageID string, playing bool) {
	p.updateMessage(messageID, func(m *v1.Message) { m.IsPlayingAudio = playing })
}

// SetPlayingVideo flips the transient playing flag of a video message
func (p *Projection) SetPlayingVideo(messageID string, playing bool) {
	p.updateMessage(messageID, func(m *v1.Message) { m.IsPlayingVideo = playing })
}

// SetTypingText sets the in-progress outgoing text
func (p *Projection) SetTypingText(text string) {
	p.mutate(func(s *v1.Snapshot) { s.TypingText = text })
}

// SetSendButton shows or hides the send affordance
func (p *Projection) SetSendButton(visible bool) {
	p.mutate(func(s *v1.Snapshot) { s.ShowSendButton = visible })
}

// SetRecordingAudio flips the outgoing voice-recording flag
func (p *Projection) SetRecordingAudio(recording bool) {
	p.mutate(func(s *v1.Snapshot) { s.IsRecordingAudio = recording })
}

// SetFriendTyping shows or hides the incoming typing indicator
func (p *Projection) SetFriendTyping(typing bool) {
	p.mutate(func(s *v1.Snapshot) { s.ShowFriendTyping = typing })
}

// SetKeypad shows or hides the keypad input area
func (p *Projection) SetKeypad(visible bool) {
	p.mutate(func(s *v1.Snapshot) { s.ShowKeypad = visible })
}

// MessageCount returns the number of messages in the conversation
func (p *Projection) MessageCount() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.state.Messages)
}

func (p *Projection) mutate(fn func(*v1.Snapshot)) {
	p.mu.Lock()
	fn(&p.state)
	snapshot := p.copyState()
	p.mu.Unlock()

	if p.observer != nil {
		p.observer(snapshot)
	}
}

// updateMessage rebuilds the message slice with one entry changed, so the
// previous slice stays valid for readers holding an older snapshot.
func (p *Projection) updateMessage(messageID string, fn func(*v1.Message)) {
	p.mutate(func(s *v1.Snapshot) {
		messages := make([]v1.Message, len(s.Messages))
		copy(messages, s.Messages)
		for i := range messages {
			if messages[i].ID == messageID {
				fn(&messages[i])
				break
			}
		}
		s.Messages = messages
	})
}

func (p *Projection) copyState() v1.Snapshot {
	snapshot := p.state
	messages := make([]v1.Message, len(p.state.Messages))
	copy(messages, p.state.Messages)
	snapshot.Messages = messages
	return snapshot
}
