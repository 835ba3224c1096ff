package classifier

import "strings"

// Risk levels produced by the classifiers.
const (
	LevelLow    = "LOW"
	LevelMedium = "MEDIUM"
	LevelHigh   = "HIGH"
)

// Classifier maps free text to a risk level. Implementations must be safe for concurrent use.
type Classifier interface {
	Classify(text string) string
}

// Func adapts a plain function to the Classifier interface.
type Func func(text string) string

// Classify calls f(text).
func (f Func) Classify(text string) string {
	return f(text)
}

// KeywordClassifier scores report descriptions by keyword.
type KeywordClassifier struct {
	High   []string
	Medium []string
}

// NewKeywordClassifier returns the default report risk classifier.
func NewKeywordClassifier() *KeywordClassifier {
	return &KeywordClassifier{
		High:   []string{"danger", "attack"},
		Medium: []string{"suspicious"},
	}
}

// Classify returns HIGH, MEDIUM or LOW.
func (k *KeywordClassifier) Classify(text string) string {
	lower := strings.ToLower(text)
	for _, kw := range k.High {
		if strings.Contains(lower, kw) {
			return LevelHigh
		}
	}
	for _, kw := range k.Medium {
		if strings.Contains(lower, kw) {
			return LevelMedium
		}
	}
	return LevelLow
}

// PanicClassifier maps an alert short code to a panic level.
type PanicClassifier struct {
	codes map[string]string
}

// NewPanicClassifier returns the classifier for SOS/HELP/SAFE codes.
func NewPanicClassifier() *PanicClassifier {
	return &PanicClassifier{
		codes: map[string]string{
			"SOS":  LevelHigh,
			"HELP": LevelMedium,
			"SAFE": LevelLow,
		},
	}
}

// Classify returns the level for a known code and LOW otherwise.
func (p *PanicClassifier) Classify(code string) string {
	if level, ok := p.codes[strings.ToUpper(strings.TrimSpace(code))]; ok {
		return level
	}
	return LevelLow
}

// Weight converts a level to a heatmap weight.
func Weight(level string) int {
	switch strings.ToUpper(level) {
	case LevelHigh:
		return 3
	case LevelMedium:
		return 2
	default:
		return 1
	}
}
