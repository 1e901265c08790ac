package plan

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

var ErrUnparseable = errors.New("model output is not a three-panel plan")

var (
	trailingCommaPattern   = regexp.MustCompile(`,(\s*[}\]])`)
	truncatedNumberPattern = regexp.MustCompile(`:\s*(\d+\.)\s*([,}\]])`)
)

// Parse extracts a ThreePanelPlan from raw model output. Models reliably
// produce near-valid JSON, so parsing is two-staged: first normalize the
// known defect patterns (prose around the object, trailing commas,
// truncated decimals), then strict-decode. A body that still fails strict
// decoding is reported as ErrUnparseable so the caller can retry instead of
// guessing at the content.
func Parse(raw string) (ThreePanelPlan, error) {
	body, err := extractObject(raw)
	if err != nil {
		return ThreePanelPlan{}, err
	}
	normalized := Normalize(body)

	var parsed ThreePanelPlan
	decoder := json.NewDecoder(strings.NewReader(normalized))
	if err := decoder.Decode(&parsed); err != nil {
		return ThreePanelPlan{}, fmt.Errorf("%w: %v", ErrUnparseable, err)
	}
	return parsed, nil
}

// Normalize rewrites known near-JSON defects into strict JSON: trailing
// commas before a closing brace or bracket, and numbers truncated right
// after the decimal point ("0." -> "0.0").
func Normalize(body string) string {
	body = trailingCommaPattern.ReplaceAllString(body, "$1")
	body = truncatedNumberPattern.ReplaceAllString(body, ": ${1}0$2")
	return body
}

// extractObject pulls the outermost {...} block out of model output that may
// be wrapped in prose or markdown fences.
func extractObject(raw string) (string, error) {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start < 0 || end <= start {
		return "", fmt.Errorf("%w: no JSON object found", ErrUnparseable)
	}
	return raw[start : end+1], nil
}
