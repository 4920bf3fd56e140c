package drill

import (
	"strings"
	"testing"

	"github.com/Johnjr1/BallPoint/internal/domain"
)

func TestBuildProgram(t *testing.T) {
	zones := []domain.Zone{domain.ZoneLeft, domain.ZoneCenter, domain.ZoneLeft}

	p, err := BuildProgram("custom", zones, true, 4)
	if err != nil {
		t.Fatalf("BuildProgram: %v", err)
	}
	if len(p.Steps) != 3 {
		t.Fatalf("steps = %d, want 3", len(p.Steps))
	}
	for i, step := range p.Steps {
		if step.Zone != zones[i] {
			t.Errorf("step %d zone = %s, want %s", i, step.Zone, zones[i])
		}
		if step.MakesTarget != 4 {
			t.Errorf("step %d MakesTarget = %d, want 4", i, step.MakesTarget)
		}
		if step.AttemptsTarget != 0 {
			t.Errorf("step %d AttemptsTarget = %d, want 0", i, step.AttemptsTarget)
		}
	}
}

func TestBuildProgram_AttemptBased(t *testing.T) {
	p, err := BuildProgram("custom", []domain.Zone{domain.ZoneRight}, false, 2)
	if err != nil {
		t.Fatalf("BuildProgram: %v", err)
	}
	if !p.Steps[0].AttemptBased() {
		t.Error("step is not attempt-based")
	}
	if p.Steps[0].Target() != 2 {
		t.Errorf("Target() = %d, want 2", p.Steps[0].Target())
	}
}

func TestBuildProgram_Invalid(t *testing.T) {
	tests := []struct {
		name      string
		zones     []domain.Zone
		threshold int
	}{
		{"empty zones", nil, 3},
		{"zero threshold", []domain.Zone{domain.ZoneLeft}, 0},
		{"negative threshold", []domain.Zone{domain.ZoneLeft}, -1},
		{"bad zone", []domain.Zone{"BASELINE"}, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := BuildProgram("bad", tt.zones, false, tt.threshold)
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			engErr, ok := err.(*domain.EngineError)
			if !ok {
				t.Fatalf("error type = %T, want *domain.EngineError", err)
			}
			if engErr.Code != domain.ErrProgramInvalid.Code {
				t.Errorf("code = %d, want %d", engErr.Code, domain.ErrProgramInvalid.Code)
			}
		})
	}
}

func TestValidateProgram(t *testing.T) {
	tests := []struct {
		name    string
		program domain.Program
		wantErr bool
	}{
		{
			"valid mixed policies",
			domain.Program{Name: "ok", Steps: []domain.Step{
				{Zone: domain.ZoneLeft, AttemptsTarget: 3},
				{Zone: domain.ZoneRight, MakesTarget: 2},
			}},
			false,
		},
		{"no steps", domain.Program{Name: "empty"}, true},
		{
			"neither policy",
			domain.Program{Name: "none", Steps: []domain.Step{{Zone: domain.ZoneCenter}}},
			true,
		},
		{
			"both policies",
			domain.Program{Name: "both", Steps: []domain.Step{
				{Zone: domain.ZoneCenter, AttemptsTarget: 3, MakesTarget: 3},
			}},
			true,
		},
		{
			"negative attempts",
			domain.Program{Name: "neg", Steps: []domain.Step{
				{Zone: domain.ZoneCenter, AttemptsTarget: -2},
			}},
			true,
		},
		{
			"invalid zone",
			domain.Program{Name: "zone", Steps: []domain.Step{
				{Zone: "CORNER", AttemptsTarget: 3},
			}},
			true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateProgram(tt.program)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateProgram() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateProgram_AggregatesProblems(t *testing.T) {
	p := domain.Program{Name: "multi", Steps: []domain.Step{
		{Zone: "CORNER"},
		{Zone: domain.ZoneLeft, AttemptsTarget: 2, MakesTarget: 2},
	}}

	err := ValidateProgram(p)
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	// Both defects should appear in one error message.
	msg := err.Error()
	for _, want := range []string{"step 0", "step 1"} {
		if !strings.Contains(msg, want) {
			t.Errorf("error %q does not mention %q", msg, want)
		}
	}
}

func TestTemplates(t *testing.T) {
	names := TemplateNames()
	if len(names) == 0 {
		t.Fatal("template catalog is empty")
	}

	for _, name := range names {
		t.Run(name, func(t *testing.T) {
			p, err := TemplateProgram(name)
			if err != nil {
				t.Fatalf("TemplateProgram(%s): %v", name, err)
			}
			if err := ValidateProgram(p); err != nil {
				t.Errorf("template %s is invalid: %v", name, err)
			}
		})
	}
}

func TestTemplateProgram_Unknown(t *testing.T) {
	_, err := TemplateProgram("does-not-exist")
	if err == nil {
		t.Fatal("expected error for unknown template, got nil")
	}
}

func TestTemplateProgram_ReturnsCopy(t *testing.T) {
	p1, _ := TemplateProgram("around-the-world")
	p1.Steps[0].AttemptsTarget = 99

	p2, _ := TemplateProgram("around-the-world")
	if p2.Steps[0].AttemptsTarget == 99 {
		t.Error("mutating a returned template leaked into the catalog")
	}
}
