package vision

import (
	"testing"
	"time"

	"github.com/Johnjr1/BallPoint/internal/domain"
)

func TestParseDetection(t *testing.T) {
	tests := []struct {
		name    string
		line    string
		want    Detection
		wantErr bool
	}{
		{
			"make left",
			`{"result":"make","position":"left"}`,
			Detection{Outcome: domain.OutcomeMake, Zone: domain.ZoneLeft},
			false,
		},
		{
			"miss center",
			`{"result":"miss","position":"center"}`,
			Detection{Outcome: domain.OutcomeMiss, Zone: domain.ZoneCenter},
			false,
		},
		{
			"uppercase and padding",
			`{"result":" MAKE ","position":"RIGHT"}`,
			Detection{Outcome: domain.OutcomeMake, Zone: domain.ZoneRight},
			false,
		},
		{"unknown result", `{"result":"swish","position":"left"}`, Detection{}, true},
		{"unknown position", `{"result":"make","position":"baseline"}`, Detection{}, true},
		{"missing fields", `{"type":"heartbeat"}`, Detection{}, true},
		{"not json", `three pointer!`, Detection{}, true},
		{"empty", ``, Detection{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseDetection([]byte(tt.line))
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseDetection(%q) error = %v, wantErr %v", tt.line, err, tt.wantErr)
			}
			if err == nil && got != tt.want {
				t.Errorf("ParseDetection(%q) = %+v, want %+v", tt.line, got, tt.want)
			}
		})
	}
}

func TestProviderRegistry(t *testing.T) {
	reg := NewProviderRegistry()

	spec := ProviderSpec{Name: "hoopnet", Command: "hoopnet-client"}
	if err := reg.Register(spec); err != nil {
		t.Fatalf("Register: %v", err)
	}

	got, err := reg.Get("hoopnet")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Command != "hoopnet-client" {
		t.Errorf("Command = %q, want hoopnet-client", got.Command)
	}

	if err := reg.Register(spec); err == nil {
		t.Error("expected error on duplicate Register, got nil")
	}

	if _, err := reg.Get("other"); err != domain.ErrProviderUnavailable {
		t.Errorf("Get(other) error = %v, want ErrProviderUnavailable", err)
	}
}

func TestProviderRegistry_ListSorted(t *testing.T) {
	reg := NewProviderRegistry()
	for _, name := range []string{"zed", "alpha", "mid"} {
		if err := reg.Register(ProviderSpec{Name: name, Command: name}); err != nil {
			t.Fatalf("Register %s: %v", name, err)
		}
	}

	names := reg.List()
	want := []string{"alpha", "mid", "zed"}
	if len(names) != len(want) {
		t.Fatalf("List() = %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("List()[%d] = %q, want %q", i, names[i], want[i])
		}
	}
}

func TestSessionManager_GetUnknown(t *testing.T) {
	m := NewSessionManager(NewProviderRegistry())

	if _, err := m.Get("missing"); err != domain.ErrVisionSessionNotFound {
		t.Errorf("Get error = %v, want ErrVisionSessionNotFound", err)
	}
	if err := m.Stop("missing"); err != domain.ErrVisionSessionNotFound {
		t.Errorf("Stop error = %v, want ErrVisionSessionNotFound", err)
	}
}

func TestManualSource(t *testing.T) {
	src := NewManualSource()

	if status := <-src.Status(); status != domain.ConnConnected {
		t.Errorf("initial status = %s, want connected", status)
	}

	if !src.Push(domain.OutcomeMake, domain.ZoneCenter) {
		t.Fatal("Push returned false")
	}

	det := <-src.Detections()
	if det.Outcome != domain.OutcomeMake || det.Zone != domain.ZoneCenter {
		t.Errorf("detection = %+v", det)
	}

	if err := src.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if _, open := <-src.Detections(); open {
		t.Error("detections channel still open after Close")
	}
	if src.Push(domain.OutcomeMiss, domain.ZoneLeft) {
		t.Error("Push succeeded after Close")
	}

	// Close is idempotent.
	if err := src.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
}

func TestSimSource_ReplaysScriptThenDisconnects(t *testing.T) {
	script := []Detection{
		{Outcome: domain.OutcomeMake, Zone: domain.ZoneLeft},
		{Outcome: domain.OutcomeMiss, Zone: domain.ZoneCenter},
	}
	src := NewSimSource(script, 0)
	defer src.Close()

	if status := <-src.Status(); status != domain.ConnConnected {
		t.Fatalf("initial status = %s, want connected", status)
	}

	var got []Detection
	for det := range src.Detections() {
		got = append(got, det)
	}
	if len(got) != len(script) {
		t.Fatalf("replayed %d detections, want %d", len(got), len(script))
	}
	for i, det := range got {
		if det != script[i] {
			t.Errorf("detection %d = %+v, want %+v", i, det, script[i])
		}
	}

	if status := <-src.Status(); status != domain.ConnDisconnected {
		t.Errorf("final status = %s, want disconnected", status)
	}
}

func TestSimSource_CloseStopsReplay(t *testing.T) {
	script := make([]Detection, 100)
	for i := range script {
		script[i] = Detection{Outcome: domain.OutcomeMiss, Zone: domain.ZoneRight}
	}
	src := NewSimSource(script, time.Hour)

	if err := src.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	// The stream must end without draining the whole script.
	count := 0
	for range src.Detections() {
		count++
	}
	if count >= len(script) {
		t.Errorf("replay did not stop early; got %d detections", count)
	}
}
