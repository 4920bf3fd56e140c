// Package runner hosts live drill sessions. It owns the single-writer
// discipline the engine assumes: every ApplyShot for a session goes through
// that session's mutex, no matter which producer delivered the shot. It also
// performs the exactly-once handoff of finished shot logs to the archiver.
package runner

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/Johnjr1/BallPoint/internal/domain"
	"github.com/Johnjr1/BallPoint/internal/drill"
	"github.com/Johnjr1/BallPoint/internal/guard"
	"github.com/Johnjr1/BallPoint/internal/vision"
)

const eventBuffer = 32

// Archiver receives a finished session exactly once. Failures are logged
// and never affect in-memory session state.
type Archiver interface {
	Save(ctx context.Context, session *domain.DrillSession) error
}

// Notifier is the fire-and-forget feedback hook for progression milestones.
type Notifier interface {
	StepAdvanced(session *domain.DrillSession)
	DrillCompleted(session *domain.DrillSession)
}

// Config holds tunable parameters for the manager's sweep loop.
type Config struct {
	// IdleMaxAge abandons an active session with no shots for this long.
	IdleMaxAge time.Duration
	// RetainAge evicts finished sessions from memory after this long.
	RetainAge time.Duration
	// SweepInterval is how often the reaper runs.
	SweepInterval time.Duration
}

// Manager creates, tracks, and reaps live drill sessions.
type Manager struct {
	archiver Archiver
	notifier Notifier
	guard    *guard.Guard
	cfg      Config

	mu   sync.Mutex
	live map[string]*liveSession

	stopCh   chan struct{}
	stopOnce sync.Once

	// now is stubbed in tests.
	now func() time.Time
}

type liveSession struct {
	// mu serializes every state mutation for this session.
	mu         sync.Mutex
	session    *domain.DrillSession
	lastShotAt time.Time
	finishedAt time.Time
	archived   bool
	subs       map[int]chan domain.DrillEvent
	nextSub    int
}

// NewManager creates a Manager with sensible defaults for zero-value config fields.
func NewManager(archiver Archiver, notifier Notifier, g *guard.Guard, cfg Config) *Manager {
	if cfg.IdleMaxAge == 0 {
		cfg.IdleMaxAge = 30 * time.Minute
	}
	if cfg.RetainAge == 0 {
		cfg.RetainAge = time.Hour
	}
	if cfg.SweepInterval == 0 {
		cfg.SweepInterval = time.Minute
	}
	return &Manager{
		archiver: archiver,
		notifier: notifier,
		guard:    g,
		cfg:      cfg,
		live:     make(map[string]*liveSession),
		stopCh:   make(chan struct{}),
		now:      time.Now,
	}
}

// StartSession creates a live session for the program and returns a snapshot.
func (m *Manager) StartSession(program domain.Program) (*domain.DrillSession, error) {
	session, err := drill.Start(program)
	if err != nil {
		return nil, err
	}

	ls := &liveSession{
		session:    session,
		lastShotAt: m.now(),
		subs:       make(map[int]chan domain.DrillEvent),
	}

	m.mu.Lock()
	m.live[session.ID] = ls
	m.mu.Unlock()

	return cloneSession(session), nil
}

// Snapshot returns a copy of the session's current state.
func (m *Manager) Snapshot(sessionID string) (*domain.DrillSession, error) {
	ls, err := m.get(sessionID)
	if err != nil {
		return nil, err
	}

	ls.mu.Lock()
	defer ls.mu.Unlock()
	return cloneSession(ls.session), nil
}

// ApplyShot vets, mints, and applies one classified shot. The returned
// transition reports what happened; a post-completion shot is a no-op with
// Accepted=false, not an error. Guard rejections are returned to the
// producer and never reach the engine.
func (m *Manager) ApplyShot(ctx context.Context, sessionID string, outcome domain.ShotOutcome, zone domain.Zone) (drill.Transition, error) {
	ls, err := m.get(sessionID)
	if err != nil {
		return drill.Transition{}, err
	}

	if err := m.guard.Admit(sessionID, outcome, zone); err != nil {
		return drill.Transition{}, err
	}

	ls.mu.Lock()
	defer ls.mu.Unlock()

	if !ls.session.IsActive() {
		return drill.Transition{StepIndex: ls.session.CurrentStepIndex}, nil
	}

	event := domain.NewShotEvent(outcome, zone)
	tr := drill.Apply(ls.session, event)
	now := m.now()
	ls.lastShotAt = now

	if tr.Accepted {
		ls.publish(domain.DrillEvent{
			Type:          domain.EventShotLogged,
			SessionID:     sessionID,
			StepIndex:     tr.StepIndex,
			Shot:          &event,
			CreatedAtUnix: now.Unix(),
		})
	}
	if tr.StepAdvanced && !tr.Completed {
		ls.publish(domain.DrillEvent{
			Type:          domain.EventStepAdvanced,
			SessionID:     sessionID,
			StepIndex:     tr.StepIndex,
			CreatedAtUnix: now.Unix(),
		})
		m.notifier.StepAdvanced(ls.session)
	}
	if tr.Completed {
		ls.finishedAt = now
		ls.publish(domain.DrillEvent{
			Type:          domain.EventSessionCompleted,
			SessionID:     sessionID,
			StepIndex:     tr.StepIndex,
			CreatedAtUnix: now.Unix(),
		})
		m.notifier.DrillCompleted(ls.session)
		m.archiveLocked(ctx, ls)
		m.guard.Forget(sessionID)
	}

	return tr, nil
}

// Abandon ends an active session without completing it. The partial shot
// log is still archived for statistics.
func (m *Manager) Abandon(sessionID string) error {
	ls, err := m.get(sessionID)
	if err != nil {
		return err
	}

	ls.mu.Lock()
	defer ls.mu.Unlock()

	if !ls.session.IsActive() {
		return nil
	}

	now := m.now()
	ls.session.Status = domain.SessionAbandoned
	ls.finishedAt = now
	ls.publish(domain.DrillEvent{
		Type:          domain.EventSessionAbandoned,
		SessionID:     sessionID,
		StepIndex:     ls.session.CurrentStepIndex,
		CreatedAtUnix: now.Unix(),
	})
	m.archiveLocked(context.Background(), ls)
	m.guard.Forget(sessionID)
	return nil
}

// Subscribe registers a listener for the session's drill event feed.
// The returned cancel func must be called when the listener is done.
func (m *Manager) Subscribe(sessionID string) (<-chan domain.DrillEvent, func(), error) {
	ls, err := m.get(sessionID)
	if err != nil {
		return nil, nil, err
	}

	ls.mu.Lock()
	id := ls.nextSub
	ls.nextSub++
	ch := make(chan domain.DrillEvent, eventBuffer)
	ls.subs[id] = ch
	ls.mu.Unlock()

	cancel := func() {
		ls.mu.Lock()
		defer ls.mu.Unlock()
		if _, ok := ls.subs[id]; ok {
			delete(ls.subs, id)
			close(ch)
		}
	}
	return ch, cancel, nil
}

// Attach consumes a vision source, forwarding detections into the session
// until the source closes or the manager stops. Status changes surface on
// the session's event feed. Guard rejections and post-completion shots are
// dropped silently; the producer has no one to report them to.
func (m *Manager) Attach(sessionID string, src vision.Source) {
	go func() {
		for {
			select {
			case <-m.stopCh:
				return
			case status, ok := <-src.Status():
				if !ok {
					continue
				}
				if ls, err := m.get(sessionID); err == nil {
					ls.mu.Lock()
					ls.publish(domain.DrillEvent{
						Type:          domain.EventConnectionChanged,
						SessionID:     sessionID,
						StepIndex:     ls.session.CurrentStepIndex,
						CreatedAtUnix: m.now().Unix(),
					})
					ls.mu.Unlock()
					log.Printf("session %s: vision connection %s", sessionID, status)
				}
			case det, ok := <-src.Detections():
				if !ok {
					return
				}
				if _, err := m.ApplyShot(context.Background(), sessionID, det.Outcome, det.Zone); err != nil {
					log.Printf("session %s: dropped detection: %v", sessionID, err)
				}
			}
		}
	}()
}

// Start launches the reaper loop.
func (m *Manager) Start() {
	ticker := time.NewTicker(m.cfg.SweepInterval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-m.stopCh:
				return
			case <-ticker.C:
				m.sweep()
			}
		}
	}()
}

// Stop signals the reaper and attached sources to stop. Safe to call multiple times.
func (m *Manager) Stop() {
	m.stopOnce.Do(func() { close(m.stopCh) })
}

// sweep abandons idle sessions and evicts finished ones past the retain age.
func (m *Manager) sweep() {
	now := m.now()

	m.mu.Lock()
	candidates := make(map[string]*liveSession, len(m.live))
	for id, ls := range m.live {
		candidates[id] = ls
	}
	m.mu.Unlock()

	for id, ls := range candidates {
		ls.mu.Lock()
		idle := ls.session.IsActive() && now.Sub(ls.lastShotAt) > m.cfg.IdleMaxAge
		evict := !ls.session.IsActive() && !ls.finishedAt.IsZero() && now.Sub(ls.finishedAt) > m.cfg.RetainAge
		ls.mu.Unlock()

		if idle {
			if err := m.Abandon(id); err != nil {
				log.Printf("abandon idle session %s: %v", id, err)
			}
			continue
		}
		if evict {
			m.mu.Lock()
			delete(m.live, id)
			m.mu.Unlock()
		}
	}
}

func (m *Manager) get(sessionID string) (*liveSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ls, ok := m.live[sessionID]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return ls, nil
}

// archiveLocked hands the finished session to the archiver exactly once.
// The guard is on the completed edge, not the level: re-entry cannot happen
// even if the same terminal state is observed twice. Archive failure is
// logged and never rolls back the session.
func (m *Manager) archiveLocked(ctx context.Context, ls *liveSession) {
	if ls.archived {
		return
	}
	ls.archived = true

	if err := m.archiver.Save(ctx, cloneSession(ls.session)); err != nil {
		log.Printf("archive session %s: %v", ls.session.ID, err)
	}
}

// publish fans an event out to subscribers without blocking; a slow
// subscriber misses events rather than stalling the ingress path.
// Callers hold ls.mu.
func (ls *liveSession) publish(ev domain.DrillEvent) {
	for _, ch := range ls.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}

// cloneSession deep-copies a session so readers never alias live state.
func cloneSession(s *domain.DrillSession) *domain.DrillSession {
	out := *s
	out.Shots = append([]domain.ShotEvent(nil), s.Shots...)
	out.Program.Steps = append([]domain.Step(nil), s.Program.Steps...)
	return &out
}
