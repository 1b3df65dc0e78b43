package disease

import (
	"strings"
	"unicode/utf8"
)

// Class is the outcome of classifying a free-text disease name.
type Class string

const (
	ClassKnown        Class = "known"
	ClassPlausibleNew Class = "plausible-new"
	ClassInvalid      Class = "invalid"
)

// Rules holds the tuning thresholds for names that are not in the known
// list. They are heuristics, not clinical facts, and come from config.
type Rules struct {
	MinLength     int
	MinWords      int
	MinWordLength int
}

// DefaultRules are the thresholds used when nothing is configured.
var DefaultRules = Rules{MinLength: 6, MinWords: 2, MinWordLength: 3}

// Verdict explains a classification.
type Verdict struct {
	Class  Class  `json:"class"`
	Reason string `json:"reason,omitempty"`
}

func (v Verdict) Valid() bool {
	return v.Class != ClassInvalid
}

// KnownList supplies the disease names accepted without heuristics.
type KnownList interface {
	Diseases() []string
}

// Validator classifies disease names locally, without the prediction oracle.
type Validator struct {
	rules Rules
	known map[string]struct{}
}

func NewValidator(known KnownList, rules Rules) *Validator {
	v := &Validator{rules: rules, known: make(map[string]struct{})}
	for _, d := range known.Diseases() {
		v.known[normalize(d)] = struct{}{}
	}
	return v
}

// normalize lowercases and drops everything but ASCII letters and digits.
func normalize(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func allowedRune(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		return true
	case r == ' ', r == '\'', r == '-':
		return true
	}
	return false
}

// Classify runs the rule chain in order and stops at the first rule that
// applies.
func (v *Validator) Classify(name string) Verdict {
	if n := normalize(name); n != "" {
		if _, ok := v.known[n]; ok {
			return Verdict{Class: ClassKnown}
		}
	}

	clean := strings.TrimSpace(name)
	if utf8.RuneCountInString(clean) < v.rules.MinLength {
		return Verdict{Class: ClassInvalid, Reason: "name is too short"}
	}
	if !strings.ContainsFunc(clean, isASCIILetter) {
		return Verdict{Class: ClassInvalid, Reason: "name has no letters"}
	}
	if strings.ContainsFunc(clean, func(r rune) bool { return !allowedRune(r) }) {
		return Verdict{Class: ClassInvalid, Reason: "name contains unsupported characters"}
	}

	words := strings.Fields(clean)
	if len(words) < v.rules.MinWords {
		return Verdict{Class: ClassInvalid, Reason: "name has too few words"}
	}
	for _, w := range words {
		if utf8.RuneCountInString(w) < v.rules.MinWordLength {
			return Verdict{Class: ClassInvalid, Reason: "name has a word that is too short"}
		}
	}
	return Verdict{Class: ClassPlausibleNew}
}

func isASCIILetter(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}
