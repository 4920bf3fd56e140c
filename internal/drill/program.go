package drill

import (
	"fmt"
	"sort"

	"github.com/Johnjr1/BallPoint/internal/domain"
)

// templates is the fixed catalog of named programs.
var templates = map[string]domain.Program{
	"around-the-world": {
		Name: "around-the-world",
		Steps: []domain.Step{
			{Zone: domain.ZoneLeft, AttemptsTarget: 5},
			{Zone: domain.ZoneCenter, AttemptsTarget: 5},
			{Zone: domain.ZoneRight, AttemptsTarget: 5},
		},
	},
	"center-makes": {
		Name: "center-makes",
		Steps: []domain.Step{
			{Zone: domain.ZoneCenter, MakesTarget: 10},
		},
	},
	"wing-work": {
		Name: "wing-work",
		Steps: []domain.Step{
			{Zone: domain.ZoneLeft, MakesTarget: 3},
			{Zone: domain.ZoneRight, MakesTarget: 3},
			{Zone: domain.ZoneLeft, MakesTarget: 3},
			{Zone: domain.ZoneRight, MakesTarget: 3},
		},
	},
	"quick-circuit": {
		Name: "quick-circuit",
		Steps: []domain.Step{
			{Zone: domain.ZoneLeft, AttemptsTarget: 3},
			{Zone: domain.ZoneCenter, AttemptsTarget: 3},
			{Zone: domain.ZoneRight, AttemptsTarget: 3},
			{Zone: domain.ZoneCenter, AttemptsTarget: 3},
		},
	},
}

// TemplateNames returns the catalog's template names in sorted order.
func TemplateNames() []string {
	names := make([]string, 0, len(templates))
	for name := range templates {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// TemplateProgram returns a copy of the named template's program.
// Returns ErrTemplateUnknown if the name is not in the catalog.
func TemplateProgram(name string) (domain.Program, error) {
	tpl, ok := templates[name]
	if !ok {
		return domain.Program{}, domain.WrapEngineError(domain.ErrTemplateUnknown.Code, "template "+name, nil)
	}
	p := domain.Program{Name: tpl.Name, Steps: make([]domain.Step, len(tpl.Steps))}
	copy(p.Steps, tpl.Steps)
	return p, nil
}

// BuildProgram constructs a custom program from an ordered zone list.
// Duplicates in zones are permitted (a zone may appear more than once to form
// multi-round programs). makeBased selects the make-count policy for every
// step; otherwise every step is attempt-based. The threshold applies uniformly.
func BuildProgram(name string, zones []domain.Zone, makeBased bool, threshold int) (domain.Program, error) {
	steps := make([]domain.Step, len(zones))
	for i, zone := range zones {
		step := domain.Step{Zone: zone}
		if makeBased {
			step.MakesTarget = threshold
		} else {
			step.AttemptsTarget = threshold
		}
		steps[i] = step
	}

	p := domain.Program{Name: name, Steps: steps}
	if err := ValidateProgram(p); err != nil {
		return domain.Program{}, err
	}
	return p, nil
}

// ValidateProgram fails fast on any construction defect: an empty step list,
// a step with neither or both thresholds set, a non-positive threshold, or an
// unknown zone. Problems are aggregated so a caller sees all of them at once.
func ValidateProgram(p domain.Program) error {
	var problems []string

	if len(p.Steps) == 0 {
		problems = append(problems, "program has no steps")
	}

	for i, step := range p.Steps {
		if !validZone(step.Zone) {
			problems = append(problems, fmt.Sprintf("step %d: invalid zone %q", i, step.Zone))
		}
		hasAttempts := step.AttemptsTarget != 0
		hasMakes := step.MakesTarget != 0
		switch {
		case !hasAttempts && !hasMakes:
			problems = append(problems, fmt.Sprintf("step %d: no completion policy set", i))
		case hasAttempts && hasMakes:
			problems = append(problems, fmt.Sprintf("step %d: both attempts and makes targets set", i))
		case hasAttempts && step.AttemptsTarget < 1:
			problems = append(problems, fmt.Sprintf("step %d: attempts target must be positive", i))
		case hasMakes && step.MakesTarget < 1:
			problems = append(problems, fmt.Sprintf("step %d: makes target must be positive", i))
		}
	}

	if len(problems) > 0 {
		return domain.NewEngineError(
			domain.ErrProgramInvalid.Code,
			fmt.Sprintf("%s %q: %v", domain.ErrProgramInvalid.Message, p.Name, problems),
		)
	}
	return nil
}

func validZone(z domain.Zone) bool {
	switch z {
	case domain.ZoneLeft, domain.ZoneCenter, domain.ZoneRight:
		return true
	}
	return false
}
