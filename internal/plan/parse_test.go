package plan

import (
	"errors"
	"testing"
)

func TestParseCleanOutput(t *testing.T) {
	raw := `{
		"abstraction_level": 0.85,
		"global_palette": "cobalt blue bleeding into amber fog",
		"panels": [
			{"scene":"wide field","caption":"Light runs ahead","compose":"symmetry","distance":"wide","concrete_ratio":0.1},
			{"scene":"mid clash","caption":"Golden threads in mist","compose":"diagonal","distance":"medium","concrete_ratio":0.2},
			{"scene":"close void","caption":"Lines become fog","compose":"center","distance":"close","concrete_ratio":0.05}
		]
	}`

	parsed, err := Parse(raw)
	if err != nil {
		t.Fatalf("expected parse to succeed: %v", err)
	}
	if parsed.AbstractionLevel != 0.85 {
		t.Fatalf("abstraction = %v, want 0.85", parsed.AbstractionLevel)
	}
	if len(parsed.Panels) != NumPanels {
		t.Fatalf("panels = %d, want %d", len(parsed.Panels), NumPanels)
	}
	if parsed.Panels[2].Distance != DistanceClose {
		t.Fatalf("panel 3 distance = %q, want close", parsed.Panels[2].Distance)
	}
}

func TestParseStripsSurroundingProse(t *testing.T) {
	raw := "Here is the plan you asked for:\n```json\n" +
		`{"abstraction_level":0.8,"global_palette":"mist blue and gold","panels":[` +
		`{"scene":"a","caption":"b","compose":"center","distance":"wide"},` +
		`{"scene":"c","caption":"d","compose":"center","distance":"medium"},` +
		`{"scene":"e","caption":"f","compose":"center","distance":"close"}]}` +
		"\n```\nLet me know if you need changes."

	parsed, err := Parse(raw)
	if err != nil {
		t.Fatalf("expected parse to succeed: %v", err)
	}
	if parsed.GlobalPalette != "mist blue and gold" {
		t.Fatalf("palette = %q", parsed.GlobalPalette)
	}
}

func TestParseRepairsTrailingCommas(t *testing.T) {
	raw := `{"abstraction_level":0.8,"global_palette":"amber haze","panels":[
		{"scene":"a","caption":"b","compose":"center","distance":"wide",},
		{"scene":"c","caption":"d","compose":"center","distance":"medium",},
		{"scene":"e","caption":"f","compose":"center","distance":"close",},
	]}`

	if _, err := Parse(raw); err != nil {
		t.Fatalf("expected trailing commas to be repaired: %v", err)
	}
}

func TestParseRepairsTruncatedDecimals(t *testing.T) {
	raw := `{"abstraction_level": 0.,"global_palette":"amber haze","panels":[
		{"scene":"a","caption":"b","compose":"center","distance":"wide","concrete_ratio": 1.},
		{"scene":"c","caption":"d","compose":"center","distance":"medium"},
		{"scene":"e","caption":"f","compose":"center","distance":"close"}
	]}`

	parsed, err := Parse(raw)
	if err != nil {
		t.Fatalf("expected truncated decimals to be repaired: %v", err)
	}
	if parsed.Panels[0].ConcreteRatio != 1.0 {
		t.Fatalf("concrete ratio = %v, want 1.0", parsed.Panels[0].ConcreteRatio)
	}
}

func TestParseRejectsNonJSON(t *testing.T) {
	for _, raw := range []string{"", "no object here", "{broken", "{]}"} {
		if _, err := Parse(raw); !errors.Is(err, ErrUnparseable) {
			t.Fatalf("Parse(%q) err = %v, want ErrUnparseable", raw, err)
		}
	}
}
