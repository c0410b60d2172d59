package advisor

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/foxseedlab/kissandost/internal/conversation"
)

var (
	fenceStart = regexp.MustCompile("(?is)^\\s*```(?:json)?\\s*")
	fenceEnd   = regexp.MustCompile("(?is)\\s*```\\s*$")
)

// ParseAdviceJSON extracts the advice object from raw model output. The span
// from the first '{' to the last '}' is decoded; output without braces has
// its code fences stripped instead. Missing steps and finding are defaulted.
func ParseAdviceJSON(raw string) (conversation.Advice, error) {
	text := strings.TrimSpace(raw)
	if text == "" {
		text = "{}"
	}
	start := strings.IndexByte(text, '{')
	end := strings.LastIndexByte(text, '}')
	if start != -1 && end > start {
		text = text[start : end+1]
	} else {
		text = cleanFences(text)
	}

	var w *adviceWire
	if err := json.Unmarshal([]byte(text), &w); err != nil {
		return conversation.Advice{}, fmt.Errorf("%w: failed to parse advice json: %v", ErrAdvisoryFailed, err)
	}
	if w == nil {
		return conversation.Advice{}, fmt.Errorf("%w: advice json is null", ErrAdvisoryFailed)
	}
	a := conversation.Advice{
		Language: w.Language,
		Heading:  w.Heading,
		Finding:  w.Finding,
		Strategy: w.Strategy,
	}
	// a non-array actionable_steps is treated as absent
	var steps []string
	if len(w.Steps) > 0 && json.Unmarshal(w.Steps, &steps) == nil {
		a.Steps = steps
	}
	return a.WithDefaults(), nil
}

type adviceWire struct {
	Language string          `json:"advice_language"`
	Heading  string          `json:"summary_heading"`
	Finding  string          `json:"diagnosis_or_market_finding"`
	Steps    json.RawMessage `json:"actionable_steps"`
	Strategy string          `json:"long_term_strategy"`
}

func cleanFences(s string) string {
	s = strings.TrimPrefix(s, "\uFEFF")
	s = fenceStart.ReplaceAllString(s, "")
	s = fenceEnd.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}
