// Package plan defines the three-panel structure produced by the dream
// interpreter and the tolerant parsing of model output into it.
package plan

const NumPanels = 3

// Composition hooks and camera distances accepted in a panel plan.
const (
	ComposeCenter   = "center"
	ComposeThirds   = "thirds"
	ComposeDiagonal = "diagonal"
	ComposeSymmetry = "symmetry"

	DistanceWide   = "wide"
	DistanceMedium = "medium"
	DistanceClose  = "close"
)

// ExpectedDistances is the fixed wide->medium->close energy progression the
// three panels must follow.
var ExpectedDistances = [NumPanels]string{DistanceWide, DistanceMedium, DistanceClose}

// PanelPlan is one panel of the interpreter's output. ConcreteRatio is the
// model's own estimate of concrete-noun density, used only for validation.
type PanelPlan struct {
	Scene         string  `json:"scene"`
	Caption       string  `json:"caption"`
	Compose       string  `json:"compose"`
	Distance      string  `json:"distance"`
	ConcreteRatio float64 `json:"concrete_ratio,omitempty"`
}

// ThreePanelPlan is the structured interpretation of a dream: an abstraction
// score, a global palette, and exactly three panel plans. It is an
// intermediate artifact, never persisted as its own entity.
type ThreePanelPlan struct {
	AbstractionLevel float64     `json:"abstraction_level"`
	GlobalPalette    string      `json:"global_palette"`
	Panels           []PanelPlan `json:"panels"`
}

func KnownCompose(value string) bool {
	switch value {
	case ComposeCenter, ComposeThirds, ComposeDiagonal, ComposeSymmetry:
		return true
	}
	return false
}

func KnownDistance(value string) bool {
	switch value {
	case DistanceWide, DistanceMedium, DistanceClose:
		return true
	}
	return false
}
