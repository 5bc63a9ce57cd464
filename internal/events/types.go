// Package events provides event types and utilities for the chattersim event system.
package events

// Event types for playback runs
const (
	RunStarted    = "run.started"
	RunFinished   = "run.finished"
	RunSuperseded = "run.superseded"
	RunStopped    = "run.stopped"
)

// Event types for conversation state
const (
	SnapshotChanged = "snapshot.changed"
	EchoRequested   = "echo.requested"
)

// Event types for script editing
const (
	ScriptItemCreated = "script.item_created"
	ScriptItemUpdated = "script.item_updated"
	ScriptItemDeleted = "script.item_deleted"
	ScriptReplaced    = "script.replaced"
	ScriptCleared     = "script.cleared"
)

// Bus subjects
const (
	SubjectPlaybackSnapshot = "playback.snapshot"
	SubjectPlaybackEcho     = "playback.echo"
	SubjectPlaybackRun      = "playback.run"
	SubjectScript           = "script"
)
