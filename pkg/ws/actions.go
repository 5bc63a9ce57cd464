package ws

// Action constants for WebSocket messages
const (
	// Health
	ActionHealthCheck = "health.check"

	// Script actions
	ActionScriptList = "script.list"

	// Playback actions
	ActionPlaybackStart  = "playback.start"
	ActionPlaybackStop   = "playback.stop"
	ActionPlaybackStatus = "playback.status"

	// Media completion signal (client -> server)
	ActionMediaEnded = "playback.media_ended"

	// Notification actions (server -> client)
	ActionPlaybackSnapshot   = "playback.snapshot"
	ActionPlaybackEcho       = "playback.echo"
	ActionPlaybackRunStarted = "playback.run_started"
	ActionPlaybackRunEnded   = "playback.run_ended"
	ActionScriptChanged      = "script.changed"
)

// Error codes
const (
	ErrorCodeBadRequest    = "BAD_REQUEST"
	ErrorCodeNotFound      = "NOT_FOUND"
	ErrorCodeInternalError = "INTERNAL_ERROR"
	ErrorCodeValidation    = "VALIDATION_ERROR"
	ErrorCodeUnknownAction = "UNKNOWN_ACTION"
)
