// Package feedback delivers fire-and-forget progression cues. The engine
// only exposes discrete step-advanced / drill-completed notification points;
// anything timed (sound, haptics, animation) belongs to the host hook here.
package feedback

import (
	"log"
	"os/exec"

	"github.com/Johnjr1/BallPoint/internal/domain"
)

// Nop discards all notifications.
type Nop struct{}

func (Nop) StepAdvanced(*domain.DrillSession)   {}
func (Nop) DrillCompleted(*domain.DrillSession) {}

// Log writes progression milestones to the process log.
type Log struct{}

// StepAdvanced logs the step transition.
func (Log) StepAdvanced(s *domain.DrillSession) {
	log.Printf("session %s: advanced to step %d/%d", s.ID, s.CurrentStepIndex, len(s.Program.Steps))
}

// DrillCompleted logs the terminal transition.
func (Log) DrillCompleted(s *domain.DrillSession) {
	log.Printf("session %s: drill completed after %d shots", s.ID, len(s.Shots))
}

// Command runs a host-configured command on each milestone, passing the
// milestone name as the first argument. Start errors are ignored; feedback
// failure must never affect the session.
type Command struct {
	Path string
}

// StepAdvanced fires the hook with "step".
func (c Command) StepAdvanced(*domain.DrillSession) {
	c.fire("step")
}

// DrillCompleted fires the hook with "complete".
func (c Command) DrillCompleted(*domain.DrillSession) {
	c.fire("complete")
}

func (c Command) fire(milestone string) {
	if c.Path == "" {
		return
	}
	_ = exec.Command(c.Path, milestone).Start()
}
