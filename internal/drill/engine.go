// Package drill implements the BallPoint drill progression state machine.
package drill

import (
	"time"

	"github.com/Johnjr1/BallPoint/internal/domain"
	"github.com/google/uuid"
)

// Transition describes what a single Apply call did to a session.
// It is the engine's discrete notification point: the host inspects it to
// trigger feedback, event fan-out, and the one-time archiver handoff.
type Transition struct {
	// Accepted is false when the session was not active and the event was dropped.
	Accepted bool
	// StepAdvanced is true when the active step completed on this call.
	StepAdvanced bool
	// Completed is true only on the terminal transition. It fires exactly once
	// per session; the handoff to the archiver must key on this edge.
	Completed bool
	// StepIndex is the session's step pointer after the call.
	StepIndex int
}

// Start creates a new active session at step 0 with an empty shot log.
// The program is validated before any session state exists, so an invalid
// program can never surface as a mid-drill error.
func Start(program domain.Program) (*domain.DrillSession, error) {
	if err := ValidateProgram(program); err != nil {
		return nil, err
	}
	return &domain.DrillSession{
		ID:            uuid.New().String(),
		Program:       program,
		Status:        domain.SessionActive,
		StartedAtUnix: time.Now().Unix(),
	}, nil
}

// Apply processes one classified shot event against the session.
//
// The transition algorithm:
//  1. If the session is not active, drop the event (no-op, not an error).
//  2. Append the event to the shot log unconditionally; off-zone shots are
//     recorded for statistics but never count toward progression.
//  3. If the event's zone differs from the active step's zone, stop here.
//  4. Recompute attempts and makes for the step's zone over the full log.
//  5. If the step's policy threshold is reached, advance the step pointer;
//     reaching the end of the program is the terminal transition.
//
// Apply never fails. Callers must not invoke it concurrently for the same
// session; serialization is the host's responsibility.
func Apply(s *domain.DrillSession, event domain.ShotEvent) Transition {
	if !s.IsActive() {
		return Transition{StepIndex: s.CurrentStepIndex}
	}

	s.Shots = append(s.Shots, event)

	step, ok := s.CurrentStep()
	if !ok {
		// Active session past the last step cannot occur through Start/Apply;
		// treat it as logged-only rather than indexing out of bounds.
		return Transition{Accepted: true, StepIndex: s.CurrentStepIndex}
	}

	if event.Zone != step.Zone {
		return Transition{Accepted: true, StepIndex: s.CurrentStepIndex}
	}

	attempts, makes := ZoneCounts(s.Shots, step.Zone)
	if !stepComplete(step, attempts, makes) {
		return Transition{Accepted: true, StepIndex: s.CurrentStepIndex}
	}

	s.CurrentStepIndex++
	tr := Transition{Accepted: true, StepAdvanced: true, StepIndex: s.CurrentStepIndex}

	if s.CurrentStepIndex >= len(s.Program.Steps) {
		s.Status = domain.SessionCompleted
		s.CompletedAtUnix = time.Now().Unix()
		tr.Completed = true
	}
	return tr
}

// ZoneCounts returns the attempt and make totals for one zone across a shot log.
func ZoneCounts(shots []domain.ShotEvent, zone domain.Zone) (attempts, makes int) {
	for _, shot := range shots {
		if shot.Zone != zone {
			continue
		}
		attempts++
		if shot.Outcome == domain.OutcomeMake {
			makes++
		}
	}
	return attempts, makes
}

// stepComplete evaluates the step's completion policy against the counts.
// Attempt-based policy is checked first; construction forbids a step carrying
// both thresholds, but if one slips through, attempts win.
func stepComplete(step domain.Step, attempts, makes int) bool {
	if step.AttemptsTarget > 0 {
		return attempts >= step.AttemptsTarget
	}
	if step.MakesTarget > 0 {
		return makes >= step.MakesTarget
	}
	return false
}
