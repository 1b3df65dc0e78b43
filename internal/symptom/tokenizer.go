package symptom

import (
	"iter"
	"slices"
	"strings"
)

// MaxSuggestions bounds the autocomplete list.
const MaxSuggestions = 8

// Vocabulary is the part of the catalog the tokenizer needs.
type Vocabulary interface {
	Symptoms() []string
}

// Tokenizer parses comma separated symptom text as it is typed and matches
// the trailing, possibly incomplete, segment against the vocabulary.
type Tokenizer struct {
	entries []string
	lower   []string
	limit   int
}

func NewTokenizer(vocab Vocabulary) *Tokenizer {
	entries := vocab.Symptoms()
	lower := make([]string, len(entries))
	for i, e := range entries {
		lower[i] = strings.ToLower(e)
	}
	return &Tokenizer{entries: entries, lower: lower, limit: MaxSuggestions}
}

// ActiveToken returns the trimmed text after the last comma.
func ActiveToken(text string) string {
	if i := strings.LastIndexByte(text, ','); i >= 0 {
		text = text[i+1:]
	}
	return strings.TrimSpace(text)
}

// committed returns the trimmed, non-empty segments of text.
func committed(text string) []string {
	var parts []string
	for _, p := range strings.Split(text, ",") {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return parts
}

// Suggest yields vocabulary entries containing the active token, case
// insensitively, in vocabulary order. The sequence can be ranged over any
// number of times and stops after MaxSuggestions entries.
func (t *Tokenizer) Suggest(text string) iter.Seq[string] {
	needle := strings.ToLower(ActiveToken(text))
	return func(yield func(string) bool) {
		if needle == "" {
			return
		}
		n := 0
		for i, l := range t.lower {
			if n == t.limit {
				return
			}
			if !strings.Contains(l, needle) {
				continue
			}
			n++
			if !yield(t.entries[i]) {
				return
			}
		}
	}
}

// Suggestions collects Suggest into a slice.
func (t *Tokenizer) Suggestions(text string) []string {
	return slices.Collect(t.Suggest(text))
}

// Select replaces the active segment of text with suggestion and leaves a
// trailing ", " so the next symptom can be typed straight away. Segments
// already committed are never replaced: with nothing typed after the last
// comma the suggestion is appended.
func Select(text, suggestion string) string {
	parts := committed(text)
	if len(parts) == 0 || ActiveToken(text) == "" {
		parts = append(parts, suggestion)
	} else {
		parts[len(parts)-1] = suggestion
	}
	return join(parts)
}

func join(parts []string) string {
	return strings.Join(parts, ", ") + ", "
}

// Accept commits the active segment: the first suggestion when there is
// one, otherwise the typed text verbatim. Vocabulary membership is checked
// at submission, not here. When nothing has been typed after the last comma
// the last committed segment is re-committed. ok is false when text holds
// nothing to commit.
func (t *Tokenizer) Accept(text string) (updated string, ok bool) {
	for s := range t.Suggest(text) {
		return Select(text, s), true
	}
	parts := committed(text)
	if len(parts) == 0 {
		return text, false
	}
	active := ActiveToken(text)
	if active == "" {
		return join(parts), true
	}
	return Select(text, active), true
}
