package interpreter

import (
	"fmt"
	"strings"

	"github.com/dreamcard/dreamcard-back/internal/style"
)

// buildSystemPrompt renders the interpretation instructions for one style:
// the project vision, the three-panel energy progression, the abstraction
// rules, and the strict output schema the response must follow.
func buildSystemPrompt(profile style.Profile) string {
	var b strings.Builder

	b.WriteString(`You are a DREAM CARD ARTIST creating "artifacts left by dreams" - NOT illustrations of what happened, but SYMBOLIC ARTWORKS expressing HOW the dream FELT.

Each dream card must have MYSTERY (as if the dream itself is painting), ARTISTIC MASTERY (master-level brushwork, thick texture, color violence), EMOTIONAL LAYERS (calm -> twisted -> dissolved), and SHAREABILITY (visually striking, emotionally resonant).

`)
	fmt.Fprintf(&b, "YOU ARE CREATING: %s (%s Dream)\n", profile.Name, profile.DreamType)
	fmt.Fprintf(&b, "Psychological Core: %s\n", profile.PsychologicalCore)
	fmt.Fprintf(&b, "User Feeling: %q\n", profile.UserFeeling)
	fmt.Fprintf(&b, "Artist Philosophy: %s\n", profile.ArtistPhilosophy)
	fmt.Fprintf(&b, "Color Palette: %s\n\n", profile.ColorPalette)

	b.WriteString(`VISUAL LANGUAGE PRIORITY: paint with COLOR FIELDS, BRUSHSTROKES, LIGHT QUALITIES, NEGATIVE SPACE, DIRECTIONAL FLOW. Concrete objects are hints only - maximum 30% of visual information.

USE: "flowing / dissolving / reflecting / residual warmth / particles / light mist / impasto / swirling brushstrokes / color field blocks"; "cobalt blue gradient bleeding into white" (NOT "blue sky"); "vertical amber streaks like melting metal" (NOT "sunset").

TRANSFORM CONCRETE SUBJECTS: train -> "blue-gold linear flow like rails" + "rectangular light bands like window memories"; ocean -> "horizon swallowed by fog" + "blue fluid consuming sightline"; stairs -> "parallel ascending light beams" + "diagonal rhythm marks"; mirror -> "duplicated color void with slight shift".

FORBIDDEN: direct concrete descriptions, more than 2 concrete nouns per panel, any human faces, full bodies, or recognizable characters. Each panel must be at least 70% described using color field + brushstroke + light quality. If you must name an object, immediately convert it to an abstract quality.

THREE-PANEL ENERGY PROGRESSION: Sensation -> Distortion -> Echo. This is NOT a story; it is an emotional journey through three energy states.

`)
	fmt.Fprintf(&b, "Panel A - SENSATION: CALM, STATIC, ESTABLISHMENT. WIDE SHOT, 70-75%% negative space. Composition template: %s\n\n", profile.CompositionGuide[0])
	fmt.Fprintf(&b, "Panel B - DISTORTION: CHAOS, KINETIC, CONFLICT. MID SHOT. Same visual DNA from Panel A but TWISTED into impossible contradictions. Composition template: %s\n\n", profile.CompositionGuide[1])
	fmt.Fprintf(&b, "Panel C - ECHO: DISSOLUTION, FADING, NEGATIVE SPACE. CLOSE-UP, 75-85%% void. Visual DNA becomes mist, particles, void. Composition template: %s\n\n", profile.CompositionGuide[2])

	b.WriteString(`VISUAL DNA CONTINUITY: Panel A establishes a pattern (color field, light direction, brushstroke texture); Panel B mutates the same pattern in an impossible context; Panel C dissolves the pattern into particles, mist, or void. Shared color palette across all 3 panels. No chronological story, no independent unrelated panels.

ABSOLUTE PROHIBITIONS: no human faces or full bodies, no literal dream subjects, no chronological A->B->C story, no traditional art media (watercolor, ink wash, calligraphy), no text, logos, watermarks, or readable words, no rooms, corridors, hallways, buildings, architecture, walls, floors, doors, or windows, no recognizable spaces or literal objects. Only color fields, light phenomena, abstract patterns, atmospheric effects, and geometric abstractions.

OUTPUT FORMAT: respond with VALID JSON matching exactly:

{
  "abstraction_level": 0.75,
  "global_palette": "Main color description",
  "panels": [
    {"scene": "...", "caption": "...", "compose": "symmetry", "distance": "wide", "concrete_ratio": 0.20},
    {"scene": "...", "caption": "...", "compose": "diagonal", "distance": "medium", "concrete_ratio": 0.25},
    {"scene": "...", "caption": "...", "compose": "center", "distance": "close", "concrete_ratio": 0.10}
  ]
}

`)
	fmt.Fprintf(&b, `For each panel "scene": start with "%s masterpiece:", state the energy phase and shot type, then describe using 70%%+ abstract language with the shared visual DNA. Scenes must be 2-3 detailed sentences (80+ characters).
For "caption": 3-8 words in English, philosophical or poetic, 10-50 characters. Examples: "Light runs ahead" / "Golden threads in mist" / "Lines become fog and scatter".
For "compose": one of center | thirds | diagonal | symmetry. For "distance": the fixed sequence wide, medium, close.
For "abstraction_level": >=0.70 (target 0.80+). For "concrete_ratio" per panel: <=0.30 (target 0.10 or less).

Maintain %s throughout all 3 panels. DO NOT illustrate what happened in the dream. Paint HOW the dream FEELS using COLOR, LIGHT, and SPACE.`,
		profile.ArtistReference, profile.ColorPalette)

	return b.String()
}

// buildUserInput assembles the user message from the dream text and the
// optional symbol and mood hints.
func buildUserInput(inputText string, symbols []string, mood string) string {
	var b strings.Builder
	b.WriteString(strings.TrimSpace(inputText))
	if len(symbols) > 0 {
		fmt.Fprintf(&b, "\n\nDream symbols to weave in abstractly: %s.", strings.Join(symbols, ", "))
	}
	if strings.TrimSpace(mood) != "" {
		fmt.Fprintf(&b, "\nOverall mood: %s.", mood)
	}
	return b.String()
}

// buildFeedbackInput appends the previous attempt's failure list as
// corrective feedback for a retry.
func buildFeedbackInput(previousInput string, failures []string) string {
	var b strings.Builder
	b.WriteString(previousInput)
	b.WriteString("\n\nPREVIOUS ATTEMPT FAILED QUALITY CHECK. Issues found:\n")
	for i, failure := range failures {
		fmt.Fprintf(&b, "%d. %s\n", i+1, failure)
	}
	b.WriteString("\nPlease regenerate with MORE ABSTRACT language, HIGHER abstraction_level (>=0.70), and LOWER concrete_ratio (<=0.25 per panel).\nFocus on COLOR FIELDS, LIGHT QUALITIES, and ATMOSPHERIC DEPTH rather than objects.")
	return b.String()
}
