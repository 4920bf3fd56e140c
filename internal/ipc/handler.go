// Package ipc provides the HTTP API for the BallPoint tracker.
package ipc

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/Johnjr1/BallPoint/internal/domain"
	"github.com/Johnjr1/BallPoint/internal/drill"
	"github.com/Johnjr1/BallPoint/internal/runner"
	"github.com/Johnjr1/BallPoint/internal/stats"
	"github.com/Johnjr1/BallPoint/internal/store"
	"github.com/Johnjr1/BallPoint/internal/vision"
)

// Handler holds all dependencies for the HTTP handlers.
type Handler struct {
	Manager  *runner.Manager
	Archiver store.Archiver
	Stats    *stats.Aggregator
	Vision   *vision.SessionManager
}

// CreateSessionRequest is the body for POST /api/v1/sessions. Either a
// template name alone, or a full custom program description.
type CreateSessionRequest struct {
	Template  string   `json:"template,omitempty"`
	Name      string   `json:"name,omitempty"`
	Zones     []string `json:"zones,omitempty"`
	MakeBased bool     `json:"make_based,omitempty"`
	Threshold int      `json:"threshold,omitempty"`
}

// ShotRequest is the body for POST /api/v1/sessions/{sessionID}/shots.
type ShotRequest struct {
	Outcome string `json:"outcome"`
	Zone    string `json:"zone"`
}

// AttachRequest is the body for POST /api/v1/sessions/{sessionID}/vision.
type AttachRequest struct {
	Provider string `json:"provider"`
}

// ShotView is one logged shot in a session view.
type ShotView struct {
	ID      string `json:"id"`
	Outcome string `json:"outcome"`
	Zone    string `json:"zone"`
	At      int64  `json:"at"`
}

// SessionView is the presentation projection of a drill session.
type SessionView struct {
	ID          string           `json:"id"`
	Program     string           `json:"program"`
	Status      string           `json:"status"`
	StepIndex   int              `json:"step_index"`
	StepCount   int              `json:"step_count"`
	Instruction string           `json:"instruction"`
	ActiveZone  string           `json:"active_zone,omitempty"`
	Shots       []ShotView       `json:"shots"`
	Zones       []stats.ZoneLine `json:"zones"`
	StartedAt   int64            `json:"started_at"`
	CompletedAt int64            `json:"completed_at,omitempty"`
}

// ProgramView is one catalog entry in the programs list.
type ProgramView struct {
	Name  string     `json:"name"`
	Steps []StepView `json:"steps"`
}

// StepView is one step in a catalog entry.
type StepView struct {
	Zone      string `json:"zone"`
	Target    int    `json:"target"`
	MakeBased bool   `json:"make_based"`
}

// ShotResult is the response for a logged shot.
type ShotResult struct {
	Accepted     bool   `json:"accepted"`
	StepAdvanced bool   `json:"step_advanced"`
	Completed    bool   `json:"completed"`
	StepIndex    int    `json:"step_index"`
	Instruction  string `json:"instruction"`
}

// APIError is a structured error response.
type APIError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Health handles GET /api/v1/health.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// ListPrograms handles GET /api/v1/programs.
func (h *Handler) ListPrograms(w http.ResponseWriter, r *http.Request) {
	views := []ProgramView{}
	for _, name := range drill.TemplateNames() {
		p, err := drill.TemplateProgram(name)
		if err != nil {
			writeError(w, err)
			return
		}
		views = append(views, programView(p))
	}
	writeJSON(w, http.StatusOK, views)
}

// CreateSession handles POST /api/v1/sessions.
func (h *Handler) CreateSession(w http.ResponseWriter, r *http.Request) {
	var req CreateSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, APIError{Code: 400, Message: "invalid request body"})
		return
	}

	var program domain.Program
	var err error
	switch {
	case req.Template != "":
		program, err = drill.TemplateProgram(req.Template)
	case len(req.Zones) > 0:
		zones := make([]domain.Zone, 0, len(req.Zones))
		for _, raw := range req.Zones {
			zone, zerr := domain.ParseZone(raw)
			if zerr != nil {
				writeError(w, zerr)
				return
			}
			zones = append(zones, zone)
		}
		program, err = drill.BuildProgram(req.Name, zones, req.MakeBased, req.Threshold)
	default:
		writeJSON(w, http.StatusBadRequest, APIError{Code: 400, Message: "template or zones is required"})
		return
	}
	if err != nil {
		writeError(w, err)
		return
	}

	session, err := h.Manager.StartSession(program)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, sessionView(session))
}

// GetSession handles GET /api/v1/sessions/{sessionID}.
func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	session, err := h.Manager.Snapshot(r.PathValue("sessionID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sessionView(session))
}

// LogShot handles POST /api/v1/sessions/{sessionID}/shots.
func (h *Handler) LogShot(w http.ResponseWriter, r *http.Request) {
	sessionID := r.PathValue("sessionID")
	var req ShotRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, APIError{Code: 400, Message: "invalid request body"})
		return
	}

	outcome, err := domain.ParseOutcome(req.Outcome)
	if err != nil {
		writeError(w, err)
		return
	}
	zone, err := domain.ParseZone(req.Zone)
	if err != nil {
		writeError(w, err)
		return
	}

	tr, err := h.Manager.ApplyShot(r.Context(), sessionID, outcome, zone)
	if err != nil {
		writeError(w, err)
		return
	}

	session, err := h.Manager.Snapshot(sessionID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ShotResult{
		Accepted:     tr.Accepted,
		StepAdvanced: tr.StepAdvanced,
		Completed:    tr.Completed,
		StepIndex:    tr.StepIndex,
		Instruction:  drill.InstructionText(session),
	})
}

// AbandonSession handles POST /api/v1/sessions/{sessionID}/abandon.
func (h *Handler) AbandonSession(w http.ResponseWriter, r *http.Request) {
	if err := h.Manager.Abandon(r.PathValue("sessionID")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// AttachVision handles POST /api/v1/sessions/{sessionID}/vision.
func (h *Handler) AttachVision(w http.ResponseWriter, r *http.Request) {
	sessionID := r.PathValue("sessionID")
	var req AttachRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, APIError{Code: 400, Message: "invalid request body"})
		return
	}
	if req.Provider == "" {
		writeJSON(w, http.StatusBadRequest, APIError{Code: 400, Message: "provider is required"})
		return
	}

	// The drill session must exist before a camera is pointed at it.
	if _, err := h.Manager.Snapshot(sessionID); err != nil {
		writeError(w, err)
		return
	}

	// The classifier process must outlive this request; its lifetime is
	// bound to the vision session manager, not the HTTP exchange.
	src, err := h.Vision.Create(context.Background(), req.Provider)
	if err != nil {
		writeError(w, err)
		return
	}
	h.Manager.Attach(sessionID, src)
	writeJSON(w, http.StatusCreated, map[string]string{"vision_session": src.ID})
}

// StreamEvents handles GET /api/v1/sessions/{sessionID}/events/stream (SSE).
func (h *Handler) StreamEvents(w http.ResponseWriter, r *http.Request) {
	sessionID := r.PathValue("sessionID")
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeJSON(w, http.StatusInternalServerError, APIError{Code: 500, Message: "streaming not supported"})
		return
	}

	feed, cancel, err := h.Manager.Subscribe(sessionID)
	if err != nil {
		writeError(w, err)
		return
	}
	defer cancel()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	flusher.Flush()

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case ev, open := <-feed:
			if !open {
				return
			}
			writeSSEEvent(w, flusher, ev)
			if ev.Type == domain.EventSessionCompleted || ev.Type == domain.EventSessionAbandoned {
				return
			}
		}
	}
}

// ListHistory handles GET /api/v1/history.
func (h *Handler) ListHistory(w http.ResponseWriter, r *http.Request) {
	sessions, err := h.Archiver.ListAll(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	views := []SessionView{}
	for _, s := range sessions {
		views = append(views, sessionView(s))
	}
	writeJSON(w, http.StatusOK, views)
}

// ClearHistory handles DELETE /api/v1/history.
func (h *Handler) ClearHistory(w http.ResponseWriter, r *http.Request) {
	if err := h.Archiver.Clear(r.Context()); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetStats handles GET /api/v1/stats.
func (h *Handler) GetStats(w http.ResponseWriter, r *http.Request) {
	summary, err := h.Stats.Summary(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func sessionView(s *domain.DrillSession) SessionView {
	shots := make([]ShotView, 0, len(s.Shots))
	for _, shot := range s.Shots {
		shots = append(shots, ShotView{
			ID:      shot.ID,
			Outcome: string(shot.Outcome),
			Zone:    string(shot.Zone),
			At:      shot.CreatedAtUnix,
		})
	}

	view := SessionView{
		ID:          s.ID,
		Program:     s.Program.Name,
		Status:      string(s.Status),
		StepIndex:   s.CurrentStepIndex,
		StepCount:   len(s.Program.Steps),
		Instruction: drill.InstructionText(s),
		Shots:       shots,
		Zones:       stats.SessionLines(s),
		StartedAt:   s.StartedAtUnix,
		CompletedAt: s.CompletedAtUnix,
	}
	if zone, ok := drill.ActiveZone(s); ok {
		view.ActiveZone = string(zone)
	}
	return view
}

func programView(p domain.Program) ProgramView {
	steps := make([]StepView, 0, len(p.Steps))
	for _, step := range p.Steps {
		steps = append(steps, StepView{
			Zone:      string(step.Zone),
			Target:    step.Target(),
			MakeBased: !step.AttemptBased(),
		})
	}
	return ProgramView{Name: p.Name, Steps: steps}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	if engErr, ok := err.(*domain.EngineError); ok {
		status := http.StatusInternalServerError
		switch engErr.Code {
		case domain.ErrSessionNotFound.Code, domain.ErrTemplateUnknown.Code, domain.ErrVisionSessionNotFound.Code:
			status = http.StatusNotFound
		case domain.ErrRateLimitExceeded.Code:
			status = http.StatusTooManyRequests
		case domain.ErrDuplicateDetection.Code:
			status = http.StatusConflict
		case domain.ErrProgramInvalid.Code, domain.ErrZoneInvalid.Code, domain.ErrOutcomeInvalid.Code, domain.ErrDetectionInvalid.Code:
			status = http.StatusUnprocessableEntity
		case domain.ErrSessionNotActive.Code:
			status = http.StatusConflict
		case domain.ErrProviderUnavailable.Code:
			status = http.StatusBadGateway
		}
		writeJSON(w, status, APIError{Code: engErr.Code, Message: engErr.Message})
		return
	}
	writeJSON(w, http.StatusInternalServerError, APIError{Code: -1, Message: err.Error()})
}

func writeSSEEvent(w http.ResponseWriter, f http.Flusher, ev domain.DrillEvent) {
	data, _ := json.Marshal(ev)
	fmt.Fprintf(w, "event: %s\ndata: %s\n\n", ev.Type, data)
	f.Flush()
}
