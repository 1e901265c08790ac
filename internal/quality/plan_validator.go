// Package quality checks interpreter output against the abstract-art
// standards before any image is rendered. Validation is pure and
// deterministic: the same plan and style always produce the same verdict.
package quality

import (
	"fmt"
	"strings"

	"github.com/dreamcard/dreamcard-back/internal/plan"
	"github.com/dreamcard/dreamcard-back/internal/style"
)

// Config carries the content-policy knobs. The forbidden-subject list is the
// system's content policy and ships as data, not logic.
type Config struct {
	MinAbstractionLevel float64
	MaxConcreteRatio    float64
	WarnConcreteRatio   float64
	MinPaletteLength    int
	MinSceneLength      int
	MinCaptionLength    int
	MaxCaptionLength    int
	ForbiddenSubjects   []string
	PhaseKeywords       [plan.NumPanels][]string
}

// DefaultConfig returns the production thresholds.
func DefaultConfig() Config {
	return Config{
		MinAbstractionLevel: 0.70,
		MaxConcreteRatio:    0.30,
		WarnConcreteRatio:   0.15,
		MinPaletteLength:    15,
		MinSceneLength:      80,
		MinCaptionLength:    10,
		MaxCaptionLength:    50,
		ForbiddenSubjects: []string{
			"room", "corridor", "hallway", "building", "person",
			"face", "body", "man", "woman", "tiger", "train", "staircase",
		},
		PhaseKeywords: [plan.NumPanels][]string{
			{"calm", "quiet", "establish", "entry", "distant", "vast", "negative space", "70%", "75%"},
			{"chaos", "conflict", "impossible", "twisted", "clash", "turbulence", "tension", "distortion"},
			{"dissolv", "disperse", "fade", "void", "80%", "85%", "negative space", "particle", "mist", "release"},
		},
	}
}

// Result is the validator's verdict. Failures block acceptance and drive the
// interpreter's retry loop; warnings are logged only.
type Result struct {
	Passed   bool
	Failures []string
	Warnings []string
}

type PlanValidator struct {
	config Config
}

func NewPlanValidator(config Config) *PlanValidator {
	if config.MinAbstractionLevel <= 0 {
		config = DefaultConfig()
	}
	return &PlanValidator{config: config}
}

// Validate applies the full rule set to a plan for the given style profile.
func (v *PlanValidator) Validate(p plan.ThreePanelPlan, profile style.Profile) Result {
	failures := make([]string, 0, 4)
	warnings := make([]string, 0, 4)

	if p.AbstractionLevel < v.config.MinAbstractionLevel {
		failures = append(failures, fmt.Sprintf(
			"abstraction level too low: %.2f (need >=%.2f for art quality)",
			p.AbstractionLevel, v.config.MinAbstractionLevel,
		))
	}

	if len(p.Panels) != plan.NumPanels {
		failures = append(failures, fmt.Sprintf("must have exactly %d panels, got %d", plan.NumPanels, len(p.Panels)))
		return Result{Passed: false, Failures: failures, Warnings: warnings}
	}

	for i, panel := range p.Panels {
		if panel.ConcreteRatio > v.config.MaxConcreteRatio {
			failures = append(failures, fmt.Sprintf(
				"panel %d concrete ratio too high: %.0f%% (need <=%.0f%%)",
				i+1, panel.ConcreteRatio*100, v.config.MaxConcreteRatio*100,
			))
		}
		if panel.ConcreteRatio > v.config.WarnConcreteRatio {
			warnings = append(warnings, fmt.Sprintf(
				"panel %d concrete ratio suboptimal: %.0f%% (target <=%.0f%% for best art)",
				i+1, panel.ConcreteRatio*100, v.config.WarnConcreteRatio*100,
			))
		}
	}

	distances := make([]string, 0, plan.NumPanels)
	progressionOK := true
	for i, panel := range p.Panels {
		distances = append(distances, panel.Distance)
		if panel.Distance != plan.ExpectedDistances[i] {
			progressionOK = false
		}
	}
	if !progressionOK {
		failures = append(failures, fmt.Sprintf(
			"energy progression must be wide->medium->close, got: %s",
			strings.Join(distances, "->"),
		))
	}

	if len(strings.TrimSpace(p.GlobalPalette)) < v.config.MinPaletteLength {
		failures = append(failures, "global palette description missing or too short (need detailed color description)")
	}

	for i, panel := range p.Panels {
		if panel.Compose == "" || !plan.KnownCompose(panel.Compose) {
			failures = append(failures, fmt.Sprintf("panel %d missing or invalid 'compose' field", i+1))
		}
		if panel.Distance == "" || !plan.KnownDistance(panel.Distance) {
			failures = append(failures, fmt.Sprintf("panel %d missing or invalid 'distance' field", i+1))
		}
		if len(panel.Scene) < v.config.MinSceneLength {
			failures = append(failures, fmt.Sprintf(
				"panel %d scene too short (need %d+ chars for detailed abstract description)",
				i+1, v.config.MinSceneLength,
			))
		}
		if len(panel.Caption) < v.config.MinCaptionLength || len(panel.Caption) > v.config.MaxCaptionLength {
			failures = append(failures, fmt.Sprintf(
				"panel %d caption must be %d-%d characters (philosophical phrase)",
				i+1, v.config.MinCaptionLength, v.config.MaxCaptionLength,
			))
		}

		if found := v.forbiddenSubjects(panel.Scene); len(found) > 0 {
			failures = append(failures, fmt.Sprintf(
				"panel %d contains forbidden literal subjects: %s (must use abstract language)",
				i+1, strings.Join(found, ", "),
			))
		}
	}

	for i, panel := range p.Panels {
		if !containsAny(strings.ToLower(panel.Scene), v.config.PhaseKeywords[i]) {
			warnings = append(warnings, phaseWarning(i))
		}
	}

	if !v.mentionsArtist(p, profile) {
		warnings = append(warnings, fmt.Sprintf(
			"panels should reference %s for style consistency", profile.ArtistReference,
		))
	}

	return Result{
		Passed:   len(failures) == 0,
		Failures: failures,
		Warnings: warnings,
	}
}

func (v *PlanValidator) forbiddenSubjects(scene string) []string {
	lowered := strings.ToLower(scene)
	found := make([]string, 0, 2)
	for _, word := range v.config.ForbiddenSubjects {
		if strings.Contains(lowered, word) {
			found = append(found, word)
		}
	}
	return found
}

// mentionsArtist checks whether any scene names one of the style's reference
// artists. A miss is a style-consistency warning, not a failure.
func (v *PlanValidator) mentionsArtist(p plan.ThreePanelPlan, profile style.Profile) bool {
	names := make([]string, 0, 2)
	for _, part := range strings.Split(strings.ToLower(profile.ArtistReference), "+") {
		fields := strings.Fields(strings.TrimSpace(part))
		if len(fields) > 0 {
			names = append(names, fields[0])
		}
	}
	for _, panel := range p.Panels {
		lowered := strings.ToLower(panel.Scene)
		for _, name := range names {
			if name != "" && strings.Contains(lowered, name) {
				return true
			}
		}
	}
	return false
}

func containsAny(value string, keywords []string) bool {
	for _, keyword := range keywords {
		if strings.Contains(value, keyword) {
			return true
		}
	}
	return false
}

func phaseWarning(index int) string {
	switch index {
	case 0:
		return "panel 1 should establish CALM/STATIC energy (sensation phase)"
	case 1:
		return "panel 2 should show CHAOS/CONFLICT energy (distortion phase)"
	default:
		return "panel 3 should express DISSOLUTION/VOID energy (echo phase)"
	}
}
