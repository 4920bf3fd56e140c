package vision

import (
	"sync"

	"github.com/Johnjr1/BallPoint/internal/domain"
)

// ManualSource is a detection producer driven by explicit Push calls:
// keyboard input, a test harness, or a simulated practice run. It feeds the
// same ingress path as a live classifier, so the core never special-cases it.
type ManualSource struct {
	dets      chan Detection
	status    chan domain.ConnectionStatus
	closeOnce sync.Once
}

// NewManualSource creates a manual source that reports itself connected.
func NewManualSource() *ManualSource {
	s := &ManualSource{
		dets:   make(chan Detection, detectionChannelBuffer),
		status: make(chan domain.ConnectionStatus, statusChannelBuffer),
	}
	s.status <- domain.ConnConnected
	return s
}

// Push delivers one classification. Returns false if the source's buffer is
// full or the source is closed; manual input is best-effort, never blocking.
func (s *ManualSource) Push(outcome domain.ShotOutcome, zone domain.Zone) (ok bool) {
	defer func() {
		if recover() != nil {
			ok = false
		}
	}()
	select {
	case s.dets <- Detection{Outcome: outcome, Zone: zone}:
		return true
	default:
		return false
	}
}

// Detections returns the detection channel.
func (s *ManualSource) Detections() <-chan Detection {
	return s.dets
}

// Status returns the connection status channel.
func (s *ManualSource) Status() <-chan domain.ConnectionStatus {
	return s.status
}

// Close ends the stream. Safe to call more than once.
func (s *ManualSource) Close() error {
	s.closeOnce.Do(func() {
		close(s.dets)
	})
	return nil
}
