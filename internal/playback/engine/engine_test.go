package engine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chattersim/chattersim/internal/common/logger"
	"github.com/chattersim/chattersim/internal/events"
	"github.com/chattersim/chattersim/internal/events/bus"
	"github.com/chattersim/chattersim/internal/script/models"
	v1 "github.com/chattersim/chattersim/pkg/api/v1"
)

// testTiming keeps every pause in the low-millisecond range so runs complete
// quickly while still exercising the real scheduling paths.
func testTiming() Timing {
	return Timing{
		SettleDelay:           time.Millisecond,
		KeypadDelay:           time.Millisecond,
		TypingInterval:        time.Millisecond,
		SendHesitation:        time.Millisecond,
		MediaSelectDelay:      time.Millisecond,
		DeliveredDelay:        time.Millisecond,
		FriendTyping:          time.Millisecond,
		FriendViewing:         time.Millisecond,
		ReadingWordsPerMinute: 60000, // 1ms per word
		MinReading:            time.Millisecond,
		DefaultMeAudio:        2 * time.Millisecond,
		DefaultFriendAudio:    2 * time.Millisecond,
		DefaultFriendVideo:    2 * time.Millisecond,
	}
}

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	return New(testTiming(), nil, logger.Default())
}

func waitForRun(t *testing.T, run *Run) {
	t.Helper()
	select {
	case <-run.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("run did not finish in time")
	}
}

func item(sender v1.Sender, kind v1.Kind, content string) *models.QueueItem {
	return &models.QueueItem{Sender: sender, Kind: kind, Content: content}
}

func TestEngine_EmptyQueue(t *testing.T) {
	e := newTestEngine(t)

	run, err := e.Start(nil)
	assert.ErrorIs(t, err, ErrEmptyQueue)
	assert.Nil(t, run)
	assert.False(t, e.Status().Active)
}

func TestEngine_OneMessagePerItemInOrder(t *testing.T) {
	e := newTestEngine(t)

	queue := []*models.QueueItem{
		item(v1.SenderMe, v1.KindText, "hello there"),
		item(v1.SenderFriend, v1.KindText, "hi"),
		item(v1.SenderMe, v1.KindImage, "photo.jpg"),
		item(v1.SenderFriend, v1.KindSticker, "wave.png"),
	}

	run, err := e.Start(queue)
	require.NoError(t, err)
	waitForRun(t, run)

	snap := run.Projection().Snapshot()
	require.Len(t, snap.Messages, len(queue))
	for i, msg := range snap.Messages {
		assert.Equal(t, queue[i].Sender, msg.Sender, "message %d sender", i)
		assert.Equal(t, queue[i].Kind, msg.Kind, "message %d kind", i)
		assert.Equal(t, queue[i].Content, msg.Content, "message %d content", i)
	}
	assert.False(t, snap.Active)
}

func TestEngine_OutgoingReachesDelivered(t *testing.T) {
	e := newTestEngine(t)

	run, err := e.Start([]*models.QueueItem{
		item(v1.SenderMe, v1.KindText, "ping"),
	})
	require.NoError(t, err)
	waitForRun(t, run)

	snap := run.Projection().Snapshot()
	require.Len(t, snap.Messages, 1)
	assert.Equal(t, v1.TicksDelivered, snap.Messages[0].Ticks)
}

func TestEngine_IncomingHasNoTicks(t *testing.T) {
	e := newTestEngine(t)

	run, err := e.Start([]*models.QueueItem{
		item(v1.SenderFriend, v1.KindText, "pong"),
	})
	require.NoError(t, err)
	waitForRun(t, run)

	snap := run.Projection().Snapshot()
	require.Len(t, snap.Messages, 1)
	assert.Empty(t, snap.Messages[0].Ticks)
}

func TestEngine_TransientFlagsClearedAtEnd(t *testing.T) {
	e := newTestEngine(t)

	run, err := e.Start([]*models.QueueItem{
		item(v1.SenderMe, v1.KindText, "bye"),
		item(v1.SenderFriend, v1.KindText, "bye"),
	})
	require.NoError(t, err)
	waitForRun(t, run)

	snap := run.Projection().Snapshot()
	assert.False(t, snap.Active)
	assert.False(t, snap.ShowKeypad)
	assert.False(t, snap.ShowFriendTyping)
	assert.False(t, snap.IsRecordingAudio)
	assert.False(t, snap.ShowSendButton)
	assert.Empty(t, snap.TypingText)
}

func TestEngine_FriendAudioWithoutContentUsesDuration(t *testing.T) {
	e := newTestEngine(t)

	audio := item(v1.SenderFriend, v1.KindAudio, "")
	audio.AudioDurationMs = 30

	start := time.Now()
	run, err := e.Start([]*models.QueueItem{audio})
	require.NoError(t, err)
	waitForRun(t, run)

	// Duration fallback must gate the run; no completion signal is involved.
	assert.GreaterOrEqual(t, time.Since(start), 30*time.Millisecond)
	snap := run.Projection().Snapshot()
	require.Len(t, snap.Messages, 1)
	assert.False(t, snap.Messages[0].IsPlayingAudio)
}

func TestEngine_FriendAudioWithContentWaitsForSignal(t *testing.T) {
	e := newTestEngine(t)

	run, err := e.Start([]*models.QueueItem{
		item(v1.SenderFriend, v1.KindAudio, "voice.mp3"),
		item(v1.SenderFriend, v1.KindText, "done"),
	})
	require.NoError(t, err)

	// Wait for the audio message to appear with its playing flag set
	var messageID string
	require.Eventually(t, func() bool {
		snap := run.Projection().Snapshot()
		if len(snap.Messages) == 0 {
			return false
		}
		messageID = snap.Messages[0].ID
		return snap.Messages[0].IsPlayingAudio
	}, 2*time.Second, time.Millisecond)

	// The run must be parked on the signal, not progressing
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, 1, run.Projection().MessageCount())
	assert.False(t, run.Finished())

	e.ResolveMedia(run.ID, messageID)
	waitForRun(t, run)

	snap := run.Projection().Snapshot()
	require.Len(t, snap.Messages, 2)
	assert.False(t, snap.Messages[0].IsPlayingAudio)
}

func TestEngine_ResolveIsIdempotent(t *testing.T) {
	e := newTestEngine(t)

	run, err := e.Start([]*models.QueueItem{
		item(v1.SenderFriend, v1.KindVideo, "clip.mp4"),
	})
	require.NoError(t, err)

	var messageID string
	require.Eventually(t, func() bool {
		snap := run.Projection().Snapshot()
		if len(snap.Messages) == 0 {
			return false
		}
		messageID = snap.Messages[0].ID
		return snap.Messages[0].IsPlayingVideo
	}, 2*time.Second, time.Millisecond)

	e.ResolveMedia(run.ID, messageID)
	e.ResolveMedia(run.ID, messageID)
	e.ResolveMedia(run.ID, "unknown-message")
	e.ResolveMedia("unknown-run", messageID)

	waitForRun(t, run)
	assert.False(t, run.Projection().Snapshot().Messages[0].IsPlayingVideo)
}

func TestEngine_MeAudioEchoResolvesEarly(t *testing.T) {
	memBus := bus.NewMemoryEventBus(logger.Default())
	defer memBus.Close()
	e := New(testTiming(), memBus, logger.Default())

	echoes := make(chan *bus.Event, 1)
	_, err := memBus.Subscribe(events.SubjectPlaybackEcho, func(ctx context.Context, event *bus.Event) error {
		select {
		case echoes <- event:
		default:
		}
		return nil
	})
	require.NoError(t, err)

	audio := item(v1.SenderMe, v1.KindAudio, "note.ogg")
	audio.AudioDurationMs = 5000 // would stall without the signal

	run, err := e.Start([]*models.QueueItem{audio})
	require.NoError(t, err)

	select {
	case event := <-echoes:
		runID, _ := event.Data["run_id"].(string)
		signalID, _ := event.Data["signal_id"].(string)
		assert.Equal(t, run.ID, runID)
		assert.Equal(t, "note.ogg", event.Data["content"])
		e.ResolveMedia(runID, signalID)
	case <-time.After(2 * time.Second):
		t.Fatal("no echo request published")
	}

	waitForRun(t, run)
	snap := run.Projection().Snapshot()
	require.Len(t, snap.Messages, 1)
	assert.Equal(t, v1.TicksDelivered, snap.Messages[0].Ticks)
}

func TestEngine_SupersessionAbandonsActiveRun(t *testing.T) {
	e := newTestEngine(t)

	// Park the first run on an unbounded media wait
	first, err := e.Start([]*models.QueueItem{
		item(v1.SenderFriend, v1.KindAudio, "long.mp3"),
	})
	require.NoError(t, err)
	require.Eventually(t, func() bool {
		return first.Projection().MessageCount() == 1
	}, 2*time.Second, time.Millisecond)

	second, err := e.Start([]*models.QueueItem{
		item(v1.SenderFriend, v1.KindText, "fresh start"),
	})
	require.NoError(t, err)

	waitForRun(t, first)
	waitForRun(t, second)

	assert.NotEqual(t, first.ID, second.ID)
	assert.Equal(t, second.ID, e.Status().RunID)

	// The superseded run stopped where it was; the new run played in full
	assert.Equal(t, 1, first.Projection().MessageCount())
	snap := second.Projection().Snapshot()
	require.Len(t, snap.Messages, 1)
	assert.Equal(t, "fresh start", snap.Messages[0].Content)
}

func TestEngine_SupersededRunDoesNotPublish(t *testing.T) {
	memBus := bus.NewMemoryEventBus(logger.Default())
	defer memBus.Close()
	e := New(testTiming(), memBus, logger.Default())

	first, err := e.Start([]*models.QueueItem{
		item(v1.SenderFriend, v1.KindAudio, "long.mp3"),
	})
	require.NoError(t, err)
	require.Eventually(t, func() bool {
		return first.Projection().MessageCount() == 1
	}, 2*time.Second, time.Millisecond)

	second, err := e.Start([]*models.QueueItem{
		item(v1.SenderFriend, v1.KindText, "only me"),
	})
	require.NoError(t, err)

	published := make(chan string, 64)
	_, err = memBus.Subscribe(events.SubjectPlaybackSnapshot, func(ctx context.Context, event *bus.Event) error {
		runID, _ := event.Data["run_id"].(string)
		published <- runID
		return nil
	})
	require.NoError(t, err)

	waitForRun(t, first)
	waitForRun(t, second)
	time.Sleep(20 * time.Millisecond)

	for {
		select {
		case runID := <-published:
			assert.Equal(t, second.ID, runID, "snapshot published for a superseded run")
		default:
			return
		}
	}
}

func TestEngine_StopEndsRun(t *testing.T) {
	e := newTestEngine(t)

	run, err := e.Start([]*models.QueueItem{
		item(v1.SenderFriend, v1.KindAudio, "park.mp3"),
	})
	require.NoError(t, err)
	require.Eventually(t, func() bool {
		return run.Projection().MessageCount() == 1
	}, 2*time.Second, time.Millisecond)

	assert.True(t, e.Stop())
	waitForRun(t, run)

	assert.False(t, e.Status().Active)
	// A second stop has nothing to do
	assert.False(t, e.Stop())
}

func TestEngine_TypingRevealsTextIncrementally(t *testing.T) {
	timing := testTiming()
	timing.TypingInterval = 5 * time.Millisecond
	e := New(timing, nil, logger.Default())

	run, err := e.Start([]*models.QueueItem{
		item(v1.SenderMe, v1.KindText, "abc"),
	})
	require.NoError(t, err)

	sawPartial := false
	require.Eventually(t, func() bool {
		text := run.Projection().Snapshot().TypingText
		if text != "" && text != "abc" {
			sawPartial = true
		}
		return sawPartial
	}, 2*time.Second, time.Millisecond)

	waitForRun(t, run)
	assert.Empty(t, run.Projection().Snapshot().TypingText)
}

func TestEngine_DelayAfterGatesNextItem(t *testing.T) {
	e := newTestEngine(t)

	slow := item(v1.SenderFriend, v1.KindText, "wait")
	slow.DelayAfterMs = 40

	start := time.Now()
	run, err := e.Start([]*models.QueueItem{
		slow,
		item(v1.SenderFriend, v1.KindText, "after"),
	})
	require.NoError(t, err)
	waitForRun(t, run)

	assert.GreaterOrEqual(t, time.Since(start), 40*time.Millisecond)
	assert.Equal(t, 2, run.Projection().MessageCount())
}

func TestTiming_ReadingDelay(t *testing.T) {
	timing := Timing{ReadingWordsPerMinute: 200, MinReading: time.Second}

	// 200 wpm: 100 words take 30s, 1 word hits the one-second floor
	assert.Equal(t, 30*time.Second, timing.readingDelay(100))
	assert.Equal(t, time.Second, timing.readingDelay(1))
	assert.Equal(t, time.Second, timing.readingDelay(0))
}
