package ipc

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/Johnjr1/BallPoint/internal/feedback"
	"github.com/Johnjr1/BallPoint/internal/guard"
	"github.com/Johnjr1/BallPoint/internal/runner"
	"github.com/Johnjr1/BallPoint/internal/stats"
	"github.com/Johnjr1/BallPoint/internal/store"
	"github.com/Johnjr1/BallPoint/internal/vision"
)

func newTestHandler(t *testing.T) *Handler {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	db, err := store.NewDB(dbPath)
	if err != nil {
		t.Fatalf("create db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	archiver := store.NewArchiver(db)
	manager := runner.NewManager(archiver, feedback.Nop{}, guard.NewGuard(guard.Config{}), runner.Config{})
	t.Cleanup(manager.Stop)

	return &Handler{
		Manager:  manager,
		Archiver: archiver,
		Stats:    stats.NewAggregator(db),
		Vision:   vision.NewSessionManager(vision.NewProviderRegistry()),
	}
}

func createSession(t *testing.T, h *Handler, body string) SessionView {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/sessions", bytes.NewBufferString(body))
	w := httptest.NewRecorder()

	h.CreateSession(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
	var view SessionView
	json.NewDecoder(w.Body).Decode(&view)
	return view
}

func logShot(t *testing.T, h *Handler, sessionID, body string) ShotResult {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/sessions/"+sessionID+"/shots", bytes.NewBufferString(body))
	req.SetPathValue("sessionID", sessionID)
	w := httptest.NewRecorder()

	h.LogShot(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var result ShotResult
	json.NewDecoder(w.Body).Decode(&result)
	return result
}

func TestListPrograms(t *testing.T) {
	h := newTestHandler(t)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/programs", nil)
	w := httptest.NewRecorder()

	h.ListPrograms(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var views []ProgramView
	json.NewDecoder(w.Body).Decode(&views)
	if len(views) == 0 {
		t.Fatal("expected at least one catalog program")
	}
	for _, v := range views {
		if len(v.Steps) == 0 {
			t.Errorf("program %s has no steps", v.Name)
		}
	}
}

func TestCreateSession_FromTemplate(t *testing.T) {
	h := newTestHandler(t)
	view := createSession(t, h, `{"template":"around-the-world"}`)

	if view.Program != "around-the-world" {
		t.Errorf("program = %s", view.Program)
	}
	if view.Status != "active" || view.StepIndex != 0 {
		t.Errorf("view = status %s, step %d", view.Status, view.StepIndex)
	}
	if view.ActiveZone != "LEFT" {
		t.Errorf("active zone = %s, want LEFT", view.ActiveZone)
	}
	if view.Instruction == "" {
		t.Error("expected an instruction line")
	}
}

func TestCreateSession_CustomProgram(t *testing.T) {
	h := newTestHandler(t)
	view := createSession(t, h, `{"name":"my drill","zones":["center","left"],"make_based":true,"threshold":2}`)

	if view.StepCount != 2 {
		t.Errorf("step count = %d, want 2", view.StepCount)
	}
	if view.ActiveZone != "CENTER" {
		t.Errorf("active zone = %s, want CENTER", view.ActiveZone)
	}
}

func TestCreateSession_UnknownTemplate(t *testing.T) {
	h := newTestHandler(t)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/sessions", bytes.NewBufferString(`{"template":"nope"}`))
	w := httptest.NewRecorder()

	h.CreateSession(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d: %s", w.Code, w.Body.String())
	}
}

func TestCreateSession_InvalidBody(t *testing.T) {
	h := newTestHandler(t)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/sessions", bytes.NewBufferString("not json"))
	w := httptest.NewRecorder()

	h.CreateSession(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestGetSession_NotFound(t *testing.T) {
	h := newTestHandler(t)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/sessions/nonexistent", nil)
	req.SetPathValue("sessionID", "nonexistent")
	w := httptest.NewRecorder()

	h.GetSession(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}

func TestLogShot_AdvancesAndCompletes(t *testing.T) {
	h := newTestHandler(t)
	view := createSession(t, h, `{"name":"short","zones":["left","center"],"threshold":1}`)

	result := logShot(t, h, view.ID, `{"outcome":"make","zone":"left"}`)
	if !result.Accepted || !result.StepAdvanced || result.Completed {
		t.Fatalf("first shot result = %+v", result)
	}

	result = logShot(t, h, view.ID, `{"outcome":"miss","zone":"center"}`)
	if !result.Completed {
		t.Fatalf("second shot result = %+v", result)
	}

	// The completed session lands in the archive.
	req := httptest.NewRequest(http.MethodGet, "/api/v1/history", nil)
	w := httptest.NewRecorder()
	h.ListHistory(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("history: expected 200, got %d", w.Code)
	}
	var history []SessionView
	json.NewDecoder(w.Body).Decode(&history)
	if len(history) != 1 {
		t.Fatalf("history length = %d, want 1", len(history))
	}
	if history[0].Status != "completed" || len(history[0].Shots) != 2 {
		t.Errorf("archived view = %+v", history[0])
	}
}

func TestLogShot_OffZoneLoggedOnly(t *testing.T) {
	h := newTestHandler(t)
	view := createSession(t, h, `{"template":"center-makes"}`)

	result := logShot(t, h, view.ID, `{"outcome":"make","zone":"right"}`)
	if !result.Accepted || result.StepAdvanced {
		t.Fatalf("off-zone result = %+v", result)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/sessions/"+view.ID, nil)
	req.SetPathValue("sessionID", view.ID)
	w := httptest.NewRecorder()
	h.GetSession(w, req)

	var after SessionView
	json.NewDecoder(w.Body).Decode(&after)
	if len(after.Shots) != 1 {
		t.Errorf("shot log length = %d, want 1", len(after.Shots))
	}
	if after.StepIndex != 0 {
		t.Errorf("step index = %d, want 0", after.StepIndex)
	}
}

func TestLogShot_InvalidZone(t *testing.T) {
	h := newTestHandler(t)
	view := createSession(t, h, `{"template":"center-makes"}`)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/sessions/"+view.ID+"/shots",
		bytes.NewBufferString(`{"outcome":"make","zone":"behind-the-backboard"}`))
	req.SetPathValue("sessionID", view.ID)
	w := httptest.NewRecorder()

	h.LogShot(w, req)

	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d: %s", w.Code, w.Body.String())
	}
}

func TestAbandonSession(t *testing.T) {
	h := newTestHandler(t)
	view := createSession(t, h, `{"template":"center-makes"}`)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/sessions/"+view.ID+"/abandon", nil)
	req.SetPathValue("sessionID", view.ID)
	w := httptest.NewRecorder()

	h.AbandonSession(w, req)

	if w.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", w.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/v1/sessions/"+view.ID, nil)
	req.SetPathValue("sessionID", view.ID)
	w = httptest.NewRecorder()
	h.GetSession(w, req)

	var after SessionView
	json.NewDecoder(w.Body).Decode(&after)
	if after.Status != "abandoned" {
		t.Errorf("status = %s, want abandoned", after.Status)
	}
}

func TestAttachVision_UnknownProvider(t *testing.T) {
	h := newTestHandler(t)
	view := createSession(t, h, `{"template":"center-makes"}`)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/sessions/"+view.ID+"/vision",
		bytes.NewBufferString(`{"provider":"nope"}`))
	req.SetPathValue("sessionID", view.ID)
	w := httptest.NewRecorder()

	h.AttachVision(w, req)

	if w.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d: %s", w.Code, w.Body.String())
	}
}

func TestStreamEvents_DeliversShot(t *testing.T) {
	h := newTestHandler(t)
	view := createSession(t, h, `{"template":"center-makes"}`)

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/sessions/"+view.ID+"/events/stream", nil).WithContext(ctx)
	req.SetPathValue("sessionID", view.ID)
	w := httptest.NewRecorder()

	done := make(chan struct{})
	go func() {
		defer close(done)
		h.StreamEvents(w, req)
	}()

	// Give the handler a moment to subscribe before the shot lands.
	time.Sleep(50 * time.Millisecond)
	logShot(t, h, view.ID, `{"outcome":"make","zone":"center"}`)
	<-done

	if ct := w.Header().Get("Content-Type"); ct != "text/event-stream" {
		t.Errorf("expected text/event-stream, got %s", ct)
	}
	if !bytes.Contains(w.Body.Bytes(), []byte("drill.shot_logged")) {
		t.Errorf("expected shot_logged event in stream, got: %s", w.Body.String())
	}
}

func TestStats_EmptyArchive(t *testing.T) {
	h := newTestHandler(t)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/stats", nil)
	w := httptest.NewRecorder()

	h.GetStats(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
}

func TestClearHistory(t *testing.T) {
	h := newTestHandler(t)
	view := createSession(t, h, `{"name":"short","zones":["left"],"threshold":1}`)
	logShot(t, h, view.ID, `{"outcome":"make","zone":"left"}`)

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/history", nil)
	w := httptest.NewRecorder()
	h.ClearHistory(w, req)
	if w.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", w.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/v1/history", nil)
	w = httptest.NewRecorder()
	h.ListHistory(w, req)
	var history []SessionView
	json.NewDecoder(w.Body).Decode(&history)
	if len(history) != 0 {
		t.Errorf("history length after clear = %d, want 0", len(history))
	}
}

func TestCORSHeaders(t *testing.T) {
	h := newTestHandler(t)
	srv := NewServer(h, ":0")

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/sessions/s1", nil)
	w := httptest.NewRecorder()

	srv.httpServer.Handler.ServeHTTP(w, req)

	if w.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Error("expected CORS origin *")
	}
	if w.Code != http.StatusNoContent {
		t.Errorf("expected 204 for OPTIONS, got %d", w.Code)
	}
}
