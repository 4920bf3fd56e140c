// Package domain defines the core types for the BallPoint practice tracker.
package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Zone is one of the three court-relative shooting positions.
type Zone string

const (
	ZoneLeft   Zone = "LEFT"
	ZoneCenter Zone = "CENTER"
	ZoneRight  Zone = "RIGHT"
)

// Zones lists all valid zones in court order, left to right.
var Zones = []Zone{ZoneLeft, ZoneCenter, ZoneRight}

// ParseZone normalizes a raw position string into a Zone.
// Returns ErrZoneInvalid for anything outside the three known positions.
func ParseZone(raw string) (Zone, error) {
	switch Zone(strings.ToUpper(strings.TrimSpace(raw))) {
	case ZoneLeft:
		return ZoneLeft, nil
	case ZoneCenter:
		return ZoneCenter, nil
	case ZoneRight:
		return ZoneRight, nil
	}
	return "", WrapEngineError(ErrZoneInvalid.Code, "parse zone "+raw, nil)
}

// ShotOutcome is the classifier's verdict on one attempt.
type ShotOutcome string

const (
	OutcomeMake ShotOutcome = "MAKE"
	OutcomeMiss ShotOutcome = "MISS"
)

// ParseOutcome normalizes a raw classifier result string into a ShotOutcome.
func ParseOutcome(raw string) (ShotOutcome, error) {
	switch ShotOutcome(strings.ToUpper(strings.TrimSpace(raw))) {
	case OutcomeMake:
		return OutcomeMake, nil
	case OutcomeMiss:
		return OutcomeMiss, nil
	}
	return "", WrapEngineError(ErrOutcomeInvalid.Code, "parse outcome "+raw, nil)
}

// ShotEvent is one classified attempt. Created once when a classification
// arrives, appended to the session's shot log, and never mutated.
type ShotEvent struct {
	ID            string
	Outcome       ShotOutcome
	Zone          Zone
	CreatedAtUnix int64
}

// NewShotEvent mints a shot event with a fresh ID and the current time.
func NewShotEvent(outcome ShotOutcome, zone Zone) ShotEvent {
	return ShotEvent{
		ID:            uuid.New().String(),
		Outcome:       outcome,
		Zone:          zone,
		CreatedAtUnix: time.Now().Unix(),
	}
}

// Step is one segment of a drill program: a target zone plus exactly one
// completion policy. A zero threshold means that policy is unset.
type Step struct {
	Zone           Zone
	AttemptsTarget int
	MakesTarget    int
}

// Target returns the step's configured threshold, whichever policy is set.
// Attempt-based policy takes precedence, matching the engine's check order.
func (s Step) Target() int {
	if s.AttemptsTarget > 0 {
		return s.AttemptsTarget
	}
	return s.MakesTarget
}

// AttemptBased reports whether the step completes on attempts rather than makes.
func (s Step) AttemptBased() bool {
	return s.AttemptsTarget > 0
}

// Program is the ordered list of steps a session walks through.
// Immutable once a session begins.
type Program struct {
	Name  string
	Steps []Step
}

// SessionStatus is the lifecycle state of a drill session.
type SessionStatus string

const (
	SessionActive    SessionStatus = "active"
	SessionCompleted SessionStatus = "completed"
	SessionAbandoned SessionStatus = "abandoned"
)

// DrillSession is the live state of one walk through a Program.
// CurrentStepIndex == len(Program.Steps) signals overall completion.
// Shots is append-only and includes off-zone attempts.
type DrillSession struct {
	ID               string
	Program          Program
	CurrentStepIndex int
	Shots            []ShotEvent
	Status           SessionStatus
	StartedAtUnix    int64
	CompletedAtUnix  int64
}

// IsActive reports whether the session still accepts shot events.
func (s *DrillSession) IsActive() bool {
	return s.Status == SessionActive
}

// Completed reports whether the session reached its terminal transition.
func (s *DrillSession) Completed() bool {
	return s.Status == SessionCompleted
}

// CurrentStep returns the active step, or false at the terminal index.
func (s *DrillSession) CurrentStep() (Step, bool) {
	if s.CurrentStepIndex < 0 || s.CurrentStepIndex >= len(s.Program.Steps) {
		return Step{}, false
	}
	return s.Program.Steps[s.CurrentStepIndex], true
}

// ConnectionStatus describes the state of a vision classifier connection.
type ConnectionStatus string

const (
	ConnConnecting   ConnectionStatus = "connecting"
	ConnConnected    ConnectionStatus = "connected"
	ConnDisconnected ConnectionStatus = "disconnected"
	ConnFailed       ConnectionStatus = "failed"
)
