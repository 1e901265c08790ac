// Package style holds the static dream-style configuration: per-style prompt
// templates, per-panel composition guides, and negative prompts. The data is
// read-only at runtime; the renderer and interpreter treat its shape as a
// contract (3 composition templates + 1 positive template + 1 negative per
// style).
package style

import (
	"fmt"
	"sort"
	"strings"
)

const (
	StyleMemory  = "memory"
	StyleSurreal = "surreal"
	StyleLucid   = "lucid"
	StylePastel  = "pastel"
)

// Profile describes one dream style. CompositionGuide and ArtistPrefixes are
// indexed by panel (0=wide, 1=medium, 2=close); the templates encode the
// wide/medium/close progression and are not interchangeable across indices.
type Profile struct {
	ID                string
	Name              string
	DreamType         string
	PsychologicalCore string
	UserFeeling       string
	ArtistReference   string
	ArtistPhilosophy  string
	ColorPalette      string
	CompositionGuide  [3]string
	ArtistPrefixes    [3]string
	SketchPrompt      string
	Prompt            string
	Negative          string
}

// ArtistPrefix returns the artistic-technique prefix for a panel index.
func (p Profile) ArtistPrefix(panelIndex int) string {
	if panelIndex < 0 || panelIndex > 2 {
		panelIndex = 0
	}
	return p.ArtistPrefixes[panelIndex]
}

var profiles = map[string]Profile{
	StyleMemory: {
		ID:                StyleMemory,
		Name:              "Memory Dream",
		DreamType:         "Memory",
		PsychologicalCore: "Nostalgia, loss, tenderness, longing for the past",
		UserFeeling:       "Dreams of places I've been, people I've lost, childhood scenes",
		ArtistReference:   "Vincent van Gogh late period + Paul Cezanne",
		ArtistPhilosophy:  "Van Gogh's tender warmth meets Cezanne's solid architectural structure. Memory has weight and geometry.",
		ColorPalette:      "Mist blue, golden fog, ochre red, amber warmth, Cezanne earth tones",
		CompositionGuide: [3]string{
			"SENSATION - WIDE SHOT: establish memory's atmosphere. Distant mist blue color field with golden fog particles, 70% negative space creating nostalgic emptiness, soft geometric structure like Cezanne planes, warm amber light remnants as memory temperature, tender impasto texture visible, calm entry point into past",
			"DISTORTION - MID SHOT: memory space conflicts with reality. Impossible atmospheric geometry where warm ochre defies gravity, floating color planes and inverted Cezanne blocks, mist blue clashing with amber creating spatial disorientation, thick Van Gogh brushwork showing memory's emotional turbulence, environmental tension through color temperature war",
			"ECHO - CLOSE-UP: memory dissolves into feeling. Extreme close-up of golden fog dispersing into blue void with 80% darkness, soft impasto texture fading like breath on glass, amber warmth becoming particles, emotional release through color dissolution, negative space dominates as memory becomes intangible",
		},
		ArtistPrefixes: sharedPrefixes("abstract memory dream, tender thick impasto brushwork technique, geometric color field composition, soft mist blue and warm golden amber atmosphere, visible paint texture creating emotional depth, architectural color planes with nostalgic haze, post-impressionist color theory, warm earth tones meeting cool atmospheric depth, abstract emotional landscape,"),
		SketchPrompt:   "soft geometric sketch, Cezanne-inspired planes, warm-cool color zones, nostalgic atmosphere guide, tender structural composition",
		Prompt:         "memory dream atmosphere, Vincent van Gogh tender impasto warmth meets Paul Cezanne geometric color planes, mist blue and golden amber fog creating nostalgic depth, soft ochre and earth tones, thick visible brushwork with architectural structure, warm light remnants like memory temperature, atmospheric haze with geometric solidity, emotional weight through color and form, past solidified as color architecture",
		Negative:       "cold digital, oversaturated neon, harsh contrast, chaotic cluttered, modern smartphone aesthetic, flat no-depth, photorealistic details, text, watermark, faces, full bodies, literal objects, sharp edges",
	},
	StyleSurreal: {
		ID:                StyleSurreal,
		Name:              "Surreal Dream",
		DreamType:         "Surreal",
		PsychologicalCore: "Unease, conflict, absurdity, the world's rules are broken",
		UserFeeling:       "World logic fails, physics breaks, impossible juxtapositions",
		ArtistReference:   "Salvador Dali + Rene Magritte",
		ArtistPhilosophy:  "Dali's melting reality meets Magritte's impossible contradictions. Dreams expose the absurdity beneath rational surfaces.",
		ColorPalette:      "Purple-orange clash, green-red inversion, complementary color violence, Magritte sky blue vs earth brown",
		CompositionGuide: [3]string{
			"SENSATION - WIDE SHOT: establish surreal calm before chaos. Magritte-style color field where sky purple meets earth orange with 70% negative space, crisp hard edges like hyper-real painting, single impossible element hinting inverted gravity, deceptive clarity creating unease, rational surface hiding irrational core",
			"DISTORTION - MID SHOT: logic breaks violently. Dali melting forms clash with Magritte solid objects, green-red complementary violence creating visual screaming, impossible spatial contradictions where up is down and inside is outside, thick paint texture showing reality's fragmentation, environmental chaos through color war and form conflict",
			"ECHO - CLOSE-UP: absurdity becomes acceptance. Extreme close-up of contradictory colors merging, purple bleeding into orange like a wound, Magritte precision dissolving into Dali liquidity, 80% void as logic surrenders, emotional release through accepting impossibility, negative space as mind giving up understanding",
		},
		ArtistPrefixes: sharedPrefixes("surrealist masterpiece in the style of Salvador Dali and Rene Magritte, surreal dream atmosphere, melting distortion meets impossible clarity, purple-orange complementary color clash, green-red inversion, hyper-realistic paint texture with irrational composition, impossible spatial contradictions, hard-edge precision breaking into liquid forms, absurdist juxtaposition, dream logic,"),
		SketchPrompt:   "surrealist composition sketch, Magritte hard edges, Dali melting forms, impossible object placement, complementary color zones, contradictory perspective",
		Prompt:         "surrealist masterpiece, Salvador Dali melting distortion meets Rene Magritte impossible clarity, purple-orange complementary color clash creating visual tension, green-red inversion, hyper-realistic paint texture with irrational composition, impossible spatial contradictions, hard-edge precision breaking into liquid forms, absurdist juxtaposition, dream logic exposing reality's fragility, color violence through complementary warfare",
		Negative:       "natural realistic, logical composition, harmonious colors, cozy warm, soft romantic, impressionist blur, text, watermark, faces, full bodies, literal narrative, photographic realism, conventional beauty",
	},
	StyleLucid: {
		ID:                StyleLucid,
		Name:              "Lucid Dream",
		DreamType:         "Lucid",
		PsychologicalCore: "Awareness, floating, threshold between sleep and wake",
		UserFeeling:       "I know I'm dreaming, consciousness floating in void, liminal spaces",
		ArtistReference:   "James Turrell + Syd Mead",
		ArtistPhilosophy:  "Turrell's pure light phenomena meets Syd Mead's visionary architecture. Lucid dreams are consciousness observing itself as light in void.",
		ColorPalette:      "Cobalt blue void, cold white light, cyan glow, obsidian black, neon threshold markers",
		CompositionGuide: [3]string{
			"SENSATION - WIDE SHOT: consciousness awakens in void. Turrell-style vast cobalt blue light field with 75% negative space, single pure cold white light source creating liminal threshold, clean geometric light boundaries, volumetric haze revealing space's depth, calm awareness of being in-between states, symmetrical order as mind recognizes dream",
			"DISTORTION - MID SHOT: light architecture defies reality. Syd Mead impossible geometry made of pure cyan-white light beams, vertical light defying gravity with mirror reflections creating infinite recursion, low-angle perspective as consciousness looks up into void, atmospheric blue fog with neon accents marking impossible thresholds, spatial turbulence through light phenomena",
			"ECHO - CLOSE-UP: awareness dissolves back into sleep. Extreme close-up of light particles dispersing into obsidian void with 85% darkness, soft bloom as consciousness fades, cold white becoming cyan mist then disappearing, emotional release through accepting return to unconsciousness, negative space as awareness surrenders control",
		},
		ArtistPrefixes: sharedPrefixes("surrealist masterpiece in the style of Yves Tanguy and Giorgio de Chirico, lucid dream atmosphere, floating biomorphic forms in infinite void meets metaphysical shadows, deep twilight blue and purple gradient sky, pale moonlight creating long enigmatic shadows, organic surrealist shapes suspended weightlessly, dusty rose horizon line, atmospheric depth with soft haze, dreamlike solitude and floating consciousness, mysterious teal accents,"),
		SketchPrompt:   "light installation sketch, Turrell-inspired light fields, geometric light boundaries, volumetric fog indication, pure color zones cobalt and cyan",
		Prompt:         "lucid dream atmosphere, James Turrell pure light field installations meets Syd Mead visionary architecture, cobalt blue void with cold white and cyan light phenomena, heavy volumetric fog revealing spatial depth, clean geometric light boundaries, impossible light architecture defying gravity, wet reflective surfaces doubling light, soft bloom and atmospheric glow, liminal threshold aesthetic, consciousness as observer of light in void, negative space dominating",
		Negative:       "warm daylight, earthy natural colors, dry matte surfaces, cozy intimate mood, organic textures, busy cluttered, oversaturated rainbow, generic cyberpunk street, realistic objects, faces, full bodies, literal architecture, flat composition without depth",
	},
	StylePastel: {
		ID:                StylePastel,
		Name:              "Pastel Dream",
		DreamType:         "Pastel",
		PsychologicalCore: "Healing, lightness, tenderness, spring-like comfort",
		UserFeeling:       "Beautiful dreams, gentle comfort, therapeutic softness, hope",
		ArtistReference:   "Claude Monet + Vincent van Gogh Almond Blossoms",
		ArtistPhilosophy:  "Monet's impressionist light dappling meets Van Gogh's tender blossom hope. Pastel dreams are visual therapy, color as comfort.",
		ColorPalette:      "Soft pink-white, mint green, lavender, peach, sky blue, cream, impressionist dappled light",
		CompositionGuide: [3]string{
			"SENSATION - WIDE SHOT: enter gentle healing space. Monet-style distant color field in soft pink-white and mint green with 70% soft negative space, dappled impressionist light creating atmospheric tenderness, delicate short brushstrokes visible like Van Gogh blossoms, warm peach light as comfort temperature, calm entry into therapeutic dream",
			"DISTORTION - MID SHOT: gentle impossibility without violence. Van Gogh blossom branches floating in Monet water lily space, soft lavender and sky blue creating tender spatial contradiction, impressionist blur making gravity optional, short gentle brushstrokes showing emotional lightness, environmental ease through pastel color harmony",
			"ECHO - CLOSE-UP: comfort dissolves into peace. Extreme close-up of pink-white blossom paint dispersing into cream void with 75% soft light, impressionist dabs becoming light particles, peach and lavender fading like spring breeze, emotional release through gentle dissolution, negative space as pure comfort, watercolor softness",
		},
		// The pastel style needs per-panel contrast: three similar gentle
		// scenes read as one image, so each panel gets its own axis.
		ArtistPrefixes: [3]string{
			"impressionist masterpiece in the style of Claude Monet water lilies, pastel dream atmosphere, HORIZONTAL wide landscape composition, soft pink-white and mint green color fields, dappled light across calm surface, delicate short brushstrokes scattered in top third, warm peach light, therapeutic stillness, watercolor softness,",
			"impressionist masterpiece in the style of Vincent van Gogh Almond Blossoms in wind, pastel dream atmosphere, DIAGONAL 45-degree dynamic composition, soft lavender and sky blue swirling in motion blur, flowing branches bending, petals in gentle turbulent movement, impressionist wind-blown energy, tender chaos with rhythm,",
			"impressionist masterpiece in the style of Claude Monet and Vincent van Gogh, pastel dream atmosphere, VERTICAL extreme close-up composition, single pink-white blossom dissolving upward into cream void, impressionist dabs becoming light particles, peach and lavender fading vertically, gentle upward dissolution, watercolor softness,",
		},
		SketchPrompt: "soft impressionist sketch, Monet dappled light zones, Van Gogh blossom composition, pastel color fields, gentle atmospheric guide, tender brushwork indication",
		Prompt:       "pastel dream atmosphere, Claude Monet impressionist dappled light meets Vincent van Gogh Almond Blossoms tender brushwork, soft pink-white and mint green color fields, lavender and peach warmth, delicate short brushstrokes visible, gentle atmospheric haze with bokeh, impressionist light dissolving forms, therapeutic color harmony, spring renewal mood, watercolor softness, visual comfort through pastel dissolution",
		Negative:     "harsh contrast, oversaturated vivid neon, sharp aggressive edges, dark gritty violent mood, photorealistic details, industrial cold metal, bold graphic design, text, watermark, faces, full bodies, literal objects, realistic rendering, dramatic tension",
	},
}

func sharedPrefixes(prefix string) [3]string {
	return [3]string{prefix, prefix, prefix}
}

// Lookup returns the profile for a style identifier.
func Lookup(id string) (Profile, error) {
	profile, ok := profiles[strings.TrimSpace(id)]
	if !ok {
		return Profile{}, fmt.Errorf("unknown style %q", id)
	}
	return profile, nil
}

// Known reports whether the identifier names a configured style.
func Known(id string) bool {
	_, ok := profiles[strings.TrimSpace(id)]
	return ok
}

// IDs returns the configured style identifiers in stable order.
func IDs() []string {
	ids := make([]string, 0, len(profiles))
	for id := range profiles {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
