// Package progress maps the single persisted progress float onto the fixed
// pipeline checkpoints and the coarse stage label polled by clients. The
// stage is re-derivable from the stored value alone, so the server never
// tracks "which stage" separately from the number.
package progress

import (
	"math"

	"github.com/dreamcard/dreamcard-back/internal/plan"
)

// Checkpoints written by the pipeline. The worker only ever advances
// through them in order, so a reader can never observe a rendering value
// before the parsing checkpoint.
const (
	Parsing   = 0.10
	Sketching = 0.35
	Rendering = 0.80
	Complete  = 1.0
)

type Stage string

const (
	StageParsing   Stage = "parsing"
	StageSketching Stage = "sketching"
	StageRendering Stage = "rendering"
	StageCollaging Stage = "collaging"
)

// StageOf projects a progress value in [0,1] onto its stage label.
func StageOf(value float64) Stage {
	switch {
	case value < Parsing:
		return StageParsing
	case value < Sketching:
		return StageSketching
	case value < Rendering:
		return StageRendering
	default:
		return StageCollaging
	}
}

// AfterPanel returns the progress value once panels 0..index have all been
// rendered and stored: the rendering band (Parsing..Rendering) advanced in
// equal per-panel increments.
func AfterPanel(index int) float64 {
	completed := float64(index + 1)
	return Parsing + completed/float64(plan.NumPanels)*(Rendering-Parsing)
}

// Percent converts the store-side 0..1 value to the queue-side 0..100 scale.
func Percent(value float64) int {
	if value < 0 {
		return 0
	}
	if value > 1 {
		return 100
	}
	return int(math.Round(value * 100))
}
