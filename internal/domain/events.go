package domain

// EventType identifies a drill feed event.
type EventType string

// Drill progression events.
const (
	// EventShotLogged records a shot appended to the session log.
	EventShotLogged EventType = "drill.shot_logged"
	// EventStepAdvanced records the active step completing and the index moving forward.
	EventStepAdvanced EventType = "drill.step_advanced"
	// EventSessionCompleted records the terminal transition of a session.
	EventSessionCompleted EventType = "drill.session_completed"
	// EventSessionAbandoned records a session being abandoned before completion.
	EventSessionAbandoned EventType = "drill.session_abandoned"
)

// Vision events.
const (
	// EventConnectionChanged records a classifier connection status change.
	EventConnectionChanged EventType = "vision.connection_changed"
)

// DrillEvent is one entry in a session's live event feed.
// Shot is set for shot_logged events; StepIndex is the session's step
// pointer after the event was applied.
type DrillEvent struct {
	Type          EventType
	SessionID     string
	StepIndex     int
	Shot          *ShotEvent
	CreatedAtUnix int64
}
