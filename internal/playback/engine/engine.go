// Package engine implements the playback scheduler: a sequential, time-driven
// interpreter that walks the scripted message queue and drives conversation
// state transitions with realistic pacing.
package engine

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/chattersim/chattersim/internal/common/logger"
	"github.com/chattersim/chattersim/internal/events"
	"github.com/chattersim/chattersim/internal/events/bus"
	"github.com/chattersim/chattersim/internal/playback/projection"
	"github.com/chattersim/chattersim/internal/playback/signals"
	"github.com/chattersim/chattersim/internal/script/models"
	v1 "github.com/chattersim/chattersim/pkg/api/v1"
)

// ErrEmptyQueue is returned when a run is requested with nothing to simulate.
// It is a warning condition, not a failure.
var ErrEmptyQueue = errors.New("message queue is empty, nothing to simulate")

// Run is one execution of the engine over one queue snapshot. It owns its
// projection and signal registry; a superseded run keeps both, orphaned, so
// its late wakeups cannot touch the successor's state.
type Run struct {
	ID         string
	generation uint64
	queue      []*models.QueueItem
	projection *projection.Projection
	signals    *signals.Registry
	ctx        context.Context
	cancel     context.CancelFunc
	done       chan struct{}
}

// Done is closed when the run finishes or is abandoned
func (r *Run) Done() <-chan struct{} {
	return r.done
}

// Projection returns the run's conversation state
func (r *Run) Projection() *projection.Projection {
	return r.projection
}

// Finished reports whether the run has completed or been abandoned
func (r *Run) Finished() bool {
	select {
	case <-r.done:
		return true
	default:
		return false
	}
}

// Engine replays scripted conversations. At most one run is current at a
// time; starting a new run supersedes the active one.
type Engine struct {
	timing   Timing
	eventBus bus.EventBus
	logger   *logger.Logger

	mu         sync.Mutex
	generation uint64
	current    *Run
}

// New creates a playback engine
func New(timing Timing, eventBus bus.EventBus, log *logger.Logger) *Engine {
	return &Engine{
		timing:   timing,
		eventBus: eventBus,
		logger:   log.WithFields(zap.String("component", "playback_engine")),
	}
}

// Start begins a new run over the given queue snapshot. An active run is
// cancelled first; its pending waits wake up, notice the cancellation, and
// become no-ops. An empty queue returns ErrEmptyQueue without starting
// anything.
func (e *Engine) Start(queue []*models.QueueItem) (*Run, error) {
	if len(queue) == 0 {
		e.logger.Warn("message queue is empty, nothing to simulate")
		return nil, ErrEmptyQueue
	}

	e.mu.Lock()
	if prev := e.current; prev != nil && !prev.Finished() {
		e.logger.Info("superseding active run", zap.String("run_id", prev.ID))
		e.publishRunEvent(events.RunSuperseded, prev.ID)
		prev.cancel()
	}

	e.generation++
	ctx, cancel := context.WithCancel(context.Background())
	run := &Run{
		ID:         uuid.New().String(),
		generation: e.generation,
		queue:      queue,
		signals:    signals.NewRegistry(),
		ctx:        ctx,
		cancel:     cancel,
		done:       make(chan struct{}),
	}
	run.projection = projection.New(run.ID, func(s v1.Snapshot) {
		e.publishSnapshot(run, s)
	})
	e.current = run
	e.mu.Unlock()

	e.logger.Info("starting run",
		zap.String("run_id", run.ID),
		zap.Uint64("generation", run.generation),
		zap.Int("queue_items", len(queue)))
	e.publishRunEvent(events.RunStarted, run.ID)

	go e.runLoop(run)
	return run, nil
}

// Stop cancels the active run, if any
func (e *Engine) Stop() bool {
	e.mu.Lock()
	run := e.current
	e.mu.Unlock()

	if run == nil || run.Finished() {
		return false
	}
	e.logger.Info("stopping run", zap.String("run_id", run.ID))
	e.publishRunEvent(events.RunStopped, run.ID)
	run.cancel()
	return true
}

// Status reports whether a run is active and which run was current last
func (e *Engine) Status() v1.RunStatus {
	e.mu.Lock()
	run := e.current
	e.mu.Unlock()

	if run == nil {
		return v1.RunStatus{}
	}
	return v1.RunStatus{Active: !run.Finished(), RunID: run.ID}
}

// Snapshot returns the current run's conversation state, if a run exists
func (e *Engine) Snapshot() (v1.Snapshot, bool) {
	e.mu.Lock()
	run := e.current
	e.mu.Unlock()

	if run == nil {
		return v1.Snapshot{}, false
	}
	return run.projection.Snapshot(), true
}

// ResolveMedia delivers a completion signal from the presentation layer.
// Signals for unknown runs or messages are no-ops: they come from stale
// clients or already-superseded runs.
func (e *Engine) ResolveMedia(runID, messageID string) {
	e.mu.Lock()
	run := e.current
	e.mu.Unlock()

	if run == nil || run.ID != runID {
		e.logger.Debug("ignoring completion signal for unknown run",
			zap.String("run_id", runID),
			zap.String("message_id", messageID))
		return
	}
	run.signals.Resolve(messageID)
}

func (e *Engine) isCurrent(run *Run) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.current == run
}

// runLoop is the sequential interpreter. It processes items strictly in
// queue order; item N+1 has no visible effect before item N's processing,
// including its trailing delay, has completed.
func (e *Engine) runLoop(run *Run) {
	log := e.logger.WithRunID(run.ID)
	p := run.projection

	defer func() {
		completed := run.ctx.Err() == nil
		run.signals.Abandon()
		p.SetKeypad(false)
		p.SetActive(false)
		close(run.done)
		run.cancel()
		if completed && e.isCurrent(run) {
			e.publishRunEvent(events.RunFinished, run.ID)
			log.Info("run finished", zap.Int("messages", p.MessageCount()))
		} else {
			log.Debug("abandoned run exited")
		}
	}()

	p.Reset()
	p.SetActive(true)

	// Settle delay so the presentation can unmount stale content first
	if !e.sleep(run, e.timing.SettleDelay) {
		return
	}

	for _, item := range run.queue {
		var ok bool
		if item.Sender == v1.SenderMe {
			ok = e.playOutgoing(run, item)
		} else {
			ok = e.playIncoming(run, item)
		}
		if !ok {
			return
		}
		if !e.sleep(run, item.DelayAfter()) {
			return
		}
	}
}

// playOutgoing simulates "me" composing and sending one message
func (e *Engine) playOutgoing(run *Run, item *models.QueueItem) bool {
	t := e.timing
	p := run.projection

	p.SetKeypad(true)
	if !e.sleep(run, t.KeypadDelay) {
		return false
	}

	var messageID string

	switch item.Kind {
	case v1.KindText:
		p.SetSendButton(false)
		runes := []rune(item.Content)
		for i := range runes {
			p.SetTypingText(string(runes[:i+1]))
			if !e.sleep(run, t.TypingInterval) {
				return false
			}
		}
		p.SetSendButton(true)
		if !e.sleep(run, t.SendHesitation) {
			return false
		}
		messageID = e.appendMessage(run, item, v1.TicksSent, false)
		p.SetTypingText("")
		p.SetSendButton(false)

	case v1.KindAudio:
		p.SetRecordingAudio(true)
		p.SetTypingText("")
		p.SetSendButton(false)

		fallback := pick(item.AudioDurationMs, t.DefaultMeAudio)
		if item.Content != "" {
			// Ask the presentation layer to play the recording echo, but
			// never wait longer than the fallback duration: a broken or
			// missing clip must not stall the run.
			signalID := "echo-" + uuid.New().String()
			ch := run.signals.Register(signalID)
			e.publishEcho(run, signalID, item.Content)
			if !e.waitSignalTimeout(run, ch, fallback) {
				return false
			}
		} else if !e.sleep(run, fallback) {
			return false
		}
		p.SetRecordingAudio(false)
		messageID = e.appendMessage(run, item, v1.TicksSent, false)

	default: // image, gif, sticker, video
		p.SetTypingText("Sending " + string(item.Kind) + "...")
		p.SetSendButton(true)
		if !e.sleep(run, t.MediaSelectDelay) {
			return false
		}
		messageID = e.appendMessage(run, item, v1.TicksSent, false)
		p.SetTypingText("")
		p.SetSendButton(false)
	}

	if !e.sleep(run, t.DeliveredDelay) {
		return false
	}
	p.SetTicks(messageID, v1.TicksDelivered)

	p.SetKeypad(false)
	return true
}

// playIncoming simulates the friend sending one message
func (e *Engine) playIncoming(run *Run, item *models.QueueItem) bool {
	t := e.timing
	p := run.projection

	p.SetKeypad(false)
	p.SetFriendTyping(true)
	if !e.sleep(run, t.FriendTyping) {
		return false
	}
	p.SetFriendTyping(false)

	switch item.Kind {
	case v1.KindText:
		e.appendMessage(run, item, "", false)
		words := len(strings.Fields(item.Content))
		return e.sleep(run, t.readingDelay(words))

	case v1.KindAudio:
		if item.Content == "" {
			e.appendMessage(run, item, "", false)
			return e.sleep(run, pick(item.AudioDurationMs, t.DefaultFriendAudio))
		}
		// Register before the message becomes visible so a fast client
		// cannot resolve ahead of the registration.
		messageID := uuid.New().String()
		ch := run.signals.Register(messageID)
		e.appendMessageWithID(run, item, messageID, "", true)
		if !e.waitSignal(run, ch) {
			return false
		}
		p.SetPlayingAudio(messageID, false)
		return true

	case v1.KindVideo:
		if item.Content == "" {
			e.appendMessage(run, item, "", false)
			return e.sleep(run, pick(item.VideoDurationMs, t.DefaultFriendVideo))
		}
		messageID := uuid.New().String()
		ch := run.signals.Register(messageID)
		e.appendMessageWithID(run, item, messageID, "", true)
		if !e.waitSignal(run, ch) {
			return false
		}
		p.SetPlayingVideo(messageID, false)
		return true

	default: // image, gif, sticker
		e.appendMessage(run, item, "", false)
		return e.sleep(run, t.FriendViewing)
	}
}

// appendMessage creates a message from the item and adds it to the projection
func (e *Engine) appendMessage(run *Run, item *models.QueueItem, ticks v1.Ticks, playing bool) string {
	return e.appendMessageWithID(run, item, uuid.New().String(), ticks, playing)
}

func (e *Engine) appendMessageWithID(run *Run, item *models.QueueItem, messageID string, ticks v1.Ticks, playing bool) string {
	msg := v1.Message{
		ID:              messageID,
		Sender:          item.Sender,
		Kind:            item.Kind,
		Content:         item.Content,
		CreatedAt:       time.Now().UTC(),
		Ticks:           ticks,
		AudioDurationMs: item.AudioDurationMs,
		VideoDurationMs: item.VideoDurationMs,
	}
	if playing {
		switch item.Kind {
		case v1.KindAudio:
			msg.IsPlayingAudio = true
		case v1.KindVideo:
			msg.IsPlayingVideo = true
		}
	}
	run.projection.AppendMessage(msg)
	return messageID
}

// sleep waits for d or until the run is abandoned. Returns false on abandon.
func (e *Engine) sleep(run *Run, d time.Duration) bool {
	if d <= 0 {
		return run.ctx.Err() == nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return true
	case <-run.ctx.Done():
		return false
	}
}

// waitSignal blocks until the completion signal fires or the run is
// abandoned. This wait is intentionally unbounded: the presentation layer
// guarantees it resolves on media end or error.
func (e *Engine) waitSignal(run *Run, ch <-chan struct{}) bool {
	select {
	case <-ch:
		return true
	case <-run.ctx.Done():
		return false
	}
}

// waitSignalTimeout waits for the signal with a bounded duration fallback.
// Returns false only when the run is abandoned.
func (e *Engine) waitSignalTimeout(run *Run, ch <-chan struct{}, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ch:
		return true
	case <-timer.C:
		return true
	case <-run.ctx.Done():
		return false
	}
}

func (e *Engine) publishSnapshot(run *Run, snapshot v1.Snapshot) {
	if e.eventBus == nil || !e.isCurrent(run) {
		return
	}
	event := bus.NewEvent(events.SnapshotChanged, "playback-engine", map[string]interface{}{
		"run_id":   run.ID,
		"snapshot": snapshot,
	})
	if err := e.eventBus.Publish(run.ctx, events.SubjectPlaybackSnapshot, event); err != nil {
		e.logger.Warn("failed to publish snapshot", zap.Error(err))
	}
}

func (e *Engine) publishEcho(run *Run, signalID, content string) {
	if e.eventBus == nil {
		return
	}
	event := bus.NewEvent(events.EchoRequested, "playback-engine", map[string]interface{}{
		"run_id":    run.ID,
		"signal_id": signalID,
		"content":   content,
	})
	if err := e.eventBus.Publish(run.ctx, events.SubjectPlaybackEcho, event); err != nil {
		e.logger.Warn("failed to publish echo request", zap.Error(err))
	}
}

func (e *Engine) publishRunEvent(eventType, runID string) {
	if e.eventBus == nil {
		return
	}
	event := bus.NewEvent(eventType, "playback-engine", map[string]interface{}{
		"run_id": runID,
	})
	if err := e.eventBus.Publish(context.Background(), events.SubjectPlaybackRun, event); err != nil {
		e.logger.Warn("failed to publish run event",
			zap.String("event_type", eventType),
			zap.Error(err))
	}
}
