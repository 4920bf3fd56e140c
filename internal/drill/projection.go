package drill

import (
	"fmt"

	"github.com/Johnjr1/BallPoint/internal/domain"
)

// Presentation projection: pure reads over a session, re-derivable at any time.
// Consumers treat these as derived state, never authoritative.

const (
	noSessionText = "Select a program to begin"
	completedText = "Drill complete. Nice shooting!"
	abandonedText = "Session ended"
)

// InstructionText formats what the user should do next: the active step's
// zone and a current/target fraction computed with the step's own policy.
func InstructionText(s *domain.DrillSession) string {
	if s == nil {
		return noSessionText
	}
	if s.Completed() {
		return completedText
	}
	step, ok := s.CurrentStep()
	if !ok {
		// Guard against the terminal index on a non-completed session.
		return abandonedText
	}

	attempts, makes := ZoneCounts(s.Shots, step.Zone)
	if step.AttemptBased() {
		return fmt.Sprintf("Shoot from the %s: %d/%d attempts", zoneLabel(step.Zone), attempts, step.AttemptsTarget)
	}
	return fmt.Sprintf("Shoot from the %s: %d/%d makes", zoneLabel(step.Zone), makes, step.MakesTarget)
}

// ActiveZone returns the zone the user should shoot from next.
// ok is false when there is no session or the session is finished.
func ActiveZone(s *domain.DrillSession) (domain.Zone, bool) {
	if s == nil || s.Completed() {
		return "", false
	}
	step, ok := s.CurrentStep()
	if !ok {
		return "", false
	}
	return step.Zone, true
}

func zoneLabel(z domain.Zone) string {
	switch z {
	case domain.ZoneLeft:
		return "left"
	case domain.ZoneCenter:
		return "center"
	case domain.ZoneRight:
		return "right"
	}
	return string(z)
}
