// Package render composes the final image prompts for each panel and drives
// the image generation client. Prompt assembly is deterministic so a panel's
// prompt depends only on (scene, style, panel index).
package render

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/dreamcard/dreamcard-back/internal/imagegen"
	"github.com/dreamcard/dreamcard-back/internal/style"
)

var ErrRender = errors.New("panel rendering failed")

// Fixed rendering parameters shared by every panel and style.
const (
	Width          = 768
	Height         = 1024
	InferenceSteps = 35
	GuidanceScale  = 9.0
	Scheduler      = "DPMSolverMultistep"
	OutputFormat   = "png"
)

// Cross-style negative prompt fragments. These guard the abstract-art
// contract at the image model level, independent of the plan validator.
const (
	negativeRepresentational = "photorealistic, photography, 3d render, cgi, anime, cartoon, illustration style, concept art, digital art style"
	negativeIndirect         = "silhouette, shadow of person, human figure, humanoid shape, character, portrait, hands, limbs"
	negativeArchitectural    = "room interior, corridor, hallway, building exterior, architecture, walls, floor, ceiling, door, window, furniture, staircase"
	negativeTraditionalMedia = "watercolor on paper, ink wash, sumi-e, calligraphy, pencil sketch, charcoal drawing, pastel crayon"
)

type Renderer struct {
	generator imagegen.ImageGenerator
	logger    zerolog.Logger
}

func NewRenderer(generator imagegen.ImageGenerator, logger zerolog.Logger) *Renderer {
	return &Renderer{generator: generator, logger: logger}
}

// RenderPanel generates one panel image and returns its provider-hosted URL.
// An empty output list from the generator is a rendering failure.
func (r *Renderer) RenderPanel(ctx context.Context, scene string, styleID string, panelIndex int) (string, error) {
	profile, err := style.Lookup(styleID)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrRender, err)
	}

	prompt := BuildPrompt(profile, panelIndex, scene)
	negative := BuildNegativePrompt(profile)

	r.logger.Debug().
		Int("panel", panelIndex).
		Str("style", styleID).
		Int("prompt_len", len(prompt)).
		Msg("render: generating panel image")

	result, err := r.generator.GenerateImage(ctx, imagegen.GenerateImageRequest{
		Prompt:         prompt,
		NegativePrompt: negative,
		Width:          Width,
		Height:         Height,
		InferenceSteps: InferenceSteps,
		GuidanceScale:  GuidanceScale,
		Scheduler:      Scheduler,
		OutputFormat:   OutputFormat,
	})
	if err != nil {
		return "", fmt.Errorf("%w: panel %d: %v", ErrRender, panelIndex, err)
	}
	if len(result.URLs) == 0 {
		return "", fmt.Errorf("%w: panel %d: generator returned no images", ErrRender, panelIndex)
	}
	return result.URLs[0], nil
}

// BuildPrompt layers the style's artistic prefix, the panel's composition
// template, the interpreted scene, and the style's base prompt.
func BuildPrompt(profile style.Profile, panelIndex int, scene string) string {
	parts := []string{
		profile.ArtistPrefix(panelIndex),
		compositionTemplate(profile, panelIndex),
		strings.TrimSpace(scene),
		profile.Prompt,
	}
	joined := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(part), ","))
		if trimmed != "" {
			joined = append(joined, trimmed)
		}
	}
	return strings.Join(joined, ", ")
}

// BuildNegativePrompt appends the cross-style guards to the style's own
// negative prompt.
func BuildNegativePrompt(profile style.Profile) string {
	return strings.Join([]string{
		profile.Negative,
		negativeRepresentational,
		negativeIndirect,
		negativeArchitectural,
		negativeTraditionalMedia,
	}, ", ")
}

func compositionTemplate(profile style.Profile, panelIndex int) string {
	if panelIndex < 0 || panelIndex > 2 {
		panelIndex = 0
	}
	return profile.CompositionGuide[panelIndex]
}
