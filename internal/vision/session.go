package vision

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os/exec"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Johnjr1/BallPoint/internal/domain"
)

const (
	detectionChannelBuffer = 64
	statusChannelBuffer    = 8
)

// Detection is one normalized classification: an outcome and a court zone.
// The drill session's ShotEvent is minted later, at the ingress boundary.
type Detection struct {
	Outcome domain.ShotOutcome
	Zone    domain.Zone
}

// Source is a producer of classified shot detections. The process-backed
// Session and the ManualSource both satisfy it; the runner treats them alike.
type Source interface {
	Detections() <-chan Detection
	Status() <-chan domain.ConnectionStatus
	Close() error
}

// Session represents a running classifier process emitting JSON lines on stdout.
type Session struct {
	ID        string
	Provider  string
	cmd       *exec.Cmd
	stdout    io.ReadCloser
	dets      chan Detection
	status    chan domain.ConnectionStatus
	done      chan struct{}
	doneOnce  sync.Once
	startedAt int64
}

// Start launches the classifier process and begins reading detections from stdout.
func (s *Session) Start(ctx context.Context) error {
	s.pushStatus(domain.ConnConnecting)
	if err := s.cmd.Start(); err != nil {
		s.pushStatus(domain.ConnFailed)
		return fmt.Errorf("start vision session %s: %w", s.ID, err)
	}
	s.startedAt = time.Now().UnixNano()
	s.pushStatus(domain.ConnConnected)

	go s.readStdout()
	return nil
}

// Close terminates the classifier process. Wait is called after Kill to
// reclaim OS resources and avoid zombie processes.
func (s *Session) Close() error {
	if s.cmd.Process == nil {
		return nil
	}
	err := s.cmd.Process.Kill()
	// Wait reclaims OS process resources. Ignore its error since Kill
	// already signals termination; Wait may return "process already finished".
	_ = s.cmd.Wait()
	s.markDone()
	return err
}

// Detections returns a receive-only channel of normalized detections.
func (s *Session) Detections() <-chan Detection {
	return s.dets
}

// Status returns a receive-only channel of connection status changes.
func (s *Session) Status() <-chan domain.ConnectionStatus {
	return s.status
}

// Done returns a channel that is closed when the session terminates.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

func (s *Session) markDone() {
	s.doneOnce.Do(func() {
		close(s.done)
	})
}

// pushStatus publishes a status change without blocking; a consumer that
// falls behind misses intermediate states, never the stream itself.
func (s *Session) pushStatus(status domain.ConnectionStatus) {
	select {
	case s.status <- status:
	default:
	}
}

// readStdout reads JSON lines from the process stdout and publishes detections.
// Unrecognized lines are dropped; the producer side is responsible for shape.
func (s *Session) readStdout() {
	defer s.markDone()
	defer close(s.dets)

	scanner := bufio.NewScanner(s.stdout)
	for scanner.Scan() {
		det, err := ParseDetection(scanner.Bytes())
		if err != nil {
			continue
		}
		s.dets <- det
	}
	s.pushStatus(domain.ConnDisconnected)
}

// ParseDetection converts a raw classifier JSON line into a Detection.
// The wire shape is {"result": "make"|"miss", "position": "left"|"center"|"right"}.
func ParseDetection(line []byte) (Detection, error) {
	var raw struct {
		Result   string `json:"result"`
		Position string `json:"position"`
	}
	if err := json.Unmarshal(line, &raw); err != nil {
		return Detection{}, domain.WrapEngineError(domain.ErrDetectionInvalid.Code, "parse detection", err)
	}

	outcome, err := domain.ParseOutcome(raw.Result)
	if err != nil {
		return Detection{}, err
	}
	zone, err := domain.ParseZone(raw.Position)
	if err != nil {
		return Detection{}, err
	}
	return Detection{Outcome: outcome, Zone: zone}, nil
}

// SessionManager creates, tracks, and stops classifier sessions.
type SessionManager struct {
	registry *ProviderRegistry
	mu       sync.RWMutex
	sessions map[string]*Session
	seq      atomic.Int64
}

// NewSessionManager creates a manager backed by the given provider registry.
func NewSessionManager(registry *ProviderRegistry) *SessionManager {
	return &SessionManager{
		registry: registry,
		sessions: make(map[string]*Session),
	}
}

// Create starts a new classifier session for the named provider.
func (m *SessionManager) Create(ctx context.Context, provider string) (*Session, error) {
	spec, err := m.registry.Get(provider)
	if err != nil {
		return nil, err
	}

	id := fmt.Sprintf("cam-%s-%d-%d", provider, time.Now().UnixNano(), m.seq.Add(1))
	cmd := exec.CommandContext(ctx, spec.Command, spec.Args...)
	for k, v := range spec.Env {
		cmd.Env = append(cmd.Env, k+"="+v)
	}

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("stdout pipe for %s: %w", id, err)
	}

	sess := &Session{
		ID:       id,
		Provider: provider,
		cmd:      cmd,
		stdout:   stdout,
		dets:     make(chan Detection, detectionChannelBuffer),
		status:   make(chan domain.ConnectionStatus, statusChannelBuffer),
		done:     make(chan struct{}),
	}

	if err := sess.Start(ctx); err != nil {
		return nil, err
	}

	m.mu.Lock()
	m.sessions[id] = sess
	m.mu.Unlock()

	return sess, nil
}

// Get returns a session by ID, or ErrVisionSessionNotFound.
func (m *SessionManager) Get(sessionID string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	sess, ok := m.sessions[sessionID]
	if !ok {
		return nil, domain.ErrVisionSessionNotFound
	}
	return sess, nil
}

// Stop terminates a session by ID, or returns ErrVisionSessionNotFound.
func (m *SessionManager) Stop(sessionID string) error {
	m.mu.Lock()
	sess, ok := m.sessions[sessionID]
	if !ok {
		m.mu.Unlock()
		return domain.ErrVisionSessionNotFound
	}
	delete(m.sessions, sessionID)
	m.mu.Unlock()

	return sess.Close()
}

// StopAll terminates every tracked session. Used during shutdown.
func (m *SessionManager) StopAll() {
	m.mu.Lock()
	sessions := make([]*Session, 0, len(m.sessions))
	for _, sess := range m.sessions {
		sessions = append(sessions, sess)
	}
	m.sessions = make(map[string]*Session)
	m.mu.Unlock()

	for _, sess := range sessions {
		_ = sess.Close()
	}
}
