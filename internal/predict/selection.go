package predict

import (
	"strings"

	"golang.org/x/text/cases"

	"github.com/Prabal729/disease-2/internal/model"
)

// folded case-folds s for matching. Casers are stateful, so each call
// gets its own.
func folded(s string) string {
	return cases.Fold().String(strings.TrimSpace(s))
}

// BuildVector marks each selected symptom with 1 and every other feature
// with 0. Selected names that are not features are returned as unknown.
func BuildVector(features, selected []string) (model.SymptomVector, []string) {
	vec := make(model.SymptomVector, len(features))
	for _, f := range features {
		vec[f] = 0
	}
	var unknown []string
	for _, s := range selected {
		if _, ok := vec[s]; !ok {
			unknown = append(unknown, s)
			continue
		}
		vec[s] = 1
	}
	return vec, unknown
}

// FilterFeatures returns the features containing query, ignoring case.
// An empty query returns every feature.
func FilterFeatures(features []string, query string) []string {
	q := folded(query)
	if q == "" {
		return features
	}
	var out []string
	for _, f := range features {
		if strings.Contains(folded(f), q) {
			out = append(out, f)
		}
	}
	return out
}

// Preset is a named set of substrings that select related symptoms.
type Preset struct {
	Name   string   `json:"name"`
	Tokens []string `json:"tokens"`
}

var presets = []Preset{
	{Name: "Flu-like", Tokens: []string{"fever", "cough", "fatigue", "headache", "throat", "aches"}},
	{Name: "Cardio Risk", Tokens: []string{"chest", "pressure", "hypertension", "heart", "palp", "bp"}},
	{Name: "Respiratory", Tokens: []string{"breath", "wheeze", "asthma", "oxygen", "spo2", "resp"}},
}

// Presets lists the built-in presets.
func Presets() []Preset {
	return append([]Preset(nil), presets...)
}

// PresetByName finds a preset, ignoring case.
func PresetByName(name string) (Preset, bool) {
	n := folded(name)
	for _, p := range presets {
		if folded(p.Name) == n {
			return p, true
		}
	}
	return Preset{}, false
}

// Match returns the features containing any of the preset's tokens.
func (p Preset) Match(features []string) []string {
	var out []string
	for _, f := range features {
		ff := folded(f)
		for _, tok := range p.Tokens {
			if strings.Contains(ff, tok) {
				out = append(out, f)
				break
			}
		}
	}
	return out
}

// AllSelected reports whether every filtered feature is selected. It is
// false for an empty filter.
func AllSelected(filtered, selected []string) bool {
	if len(filtered) == 0 {
		return false
	}
	set := toSet(selected)
	for _, f := range filtered {
		if !set[f] {
			return false
		}
	}
	return true
}

// ToggleAll deselects the filtered features when all of them are selected,
// and selects them otherwise. Other selections are kept.
func ToggleAll(filtered, selected []string) []string {
	drop := AllSelected(filtered, selected)
	fset := toSet(filtered)
	var out []string
	for _, s := range selected {
		if drop && fset[s] {
			continue
		}
		out = append(out, s)
	}
	if !drop {
		have := toSet(out)
		for _, f := range filtered {
			if !have[f] {
				out = append(out, f)
				have[f] = true
			}
		}
	}
	return out
}

func toSet(xs []string) map[string]bool {
	set := make(map[string]bool, len(xs))
	for _, x := range xs {
		set[x] = true
	}
	return set
}

// LiveRiskEstimate is the selected share of all features, as a percentage.
func LiveRiskEstimate(selected, total int) float64 {
	return float64(selected) / float64(max(1, total)) * 100
}

// Level grades a prediction's confidence.
type Level string

const (
	Low      Level = "Low"
	Moderate Level = "Moderate"
	High     Level = "High"
)

// LevelFor grades confidence: below 50 (or unknown) is Low, below 80 is
// Moderate, otherwise High.
func LevelFor(confidence *float64) Level {
	switch {
	case confidence == nil || *confidence < 50:
		return Low
	case *confidence < 80:
		return Moderate
	default:
		return High
	}
}

// Recommendations returns the confidence level and the advice shown with it.
func Recommendations(confidence *float64) (Level, []string) {
	level := LevelFor(confidence)
	var first string
	switch level {
	case High:
		first = "Consult a healthcare professional promptly"
	case Moderate:
		first = "Schedule a follow-up consultation"
	default:
		first = "Maintain routine health monitoring"
	}
	return level, []string{
		first,
		"Review symptom accuracy and completeness",
		"Consider additional clinical tests if available",
		"Monitor changes over the next 48 hours",
	}
}
