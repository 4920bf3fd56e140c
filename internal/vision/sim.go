package vision

import (
	"sync"
	"time"

	"github.com/Johnjr1/BallPoint/internal/domain"
)

// SimSource replays a scripted detection sequence at a fixed interval. Used
// for demos and rehearsing a drill without a camera; when the script runs out
// the source reports disconnected and closes its detection stream.
type SimSource struct {
	dets      chan Detection
	status    chan domain.ConnectionStatus
	stop      chan struct{}
	closeOnce sync.Once
}

// NewSimSource starts replaying the script immediately. A zero interval
// emits as fast as the consumer drains.
func NewSimSource(script []Detection, interval time.Duration) *SimSource {
	s := &SimSource{
		dets:   make(chan Detection, detectionChannelBuffer),
		status: make(chan domain.ConnectionStatus, statusChannelBuffer),
		stop:   make(chan struct{}),
	}
	s.status <- domain.ConnConnected
	go s.replay(script, interval)
	return s
}

func (s *SimSource) replay(script []Detection, interval time.Duration) {
	defer func() {
		select {
		case s.status <- domain.ConnDisconnected:
		default:
		}
		close(s.dets)
	}()

	for _, det := range script {
		if interval > 0 {
			select {
			case <-s.stop:
				return
			case <-time.After(interval):
			}
		}
		select {
		case <-s.stop:
			return
		case s.dets <- det:
		}
	}
}

// Detections returns the detection channel.
func (s *SimSource) Detections() <-chan Detection {
	return s.dets
}

// Status returns the connection status channel.
func (s *SimSource) Status() <-chan domain.ConnectionStatus {
	return s.status
}

// Close stops the replay. Safe to call more than once.
func (s *SimSource) Close() error {
	s.closeOnce.Do(func() {
		close(s.stop)
	})
	return nil
}
