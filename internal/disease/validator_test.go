package disease

import (
	"testing"

	"medica-diagnosis/internal/catalog"
)

func newTestValidator(t *testing.T, rules Rules) *Validator {
	t.Helper()
	c, err := catalog.Default()
	if err != nil {
		t.Fatalf("load catalog: %v", err)
	}
	return NewValidator(c, rules)
}

func TestClassify(t *testing.T) {
	v := newTestValidator(t, DefaultRules)

	tests := []struct {
		name string
		in   string
		want Class
	}{
		{name: "known exact", in: "Malaria", want: ClassKnown},
		{name: "known case and whitespace", in: "  MALARIA  ", want: ClassKnown},
		{name: "known ignoring punctuation", in: "covid 19", want: ClassKnown},
		{name: "known apostrophe", in: "parkinsons disease", want: ClassKnown},
		{name: "known short abbreviation", in: "ibs", want: ClassKnown},
		{name: "unknown short", in: "flu", want: ClassInvalid},
		{name: "empty", in: "   ", want: ClassInvalid},
		{name: "digits only", in: "123456", want: ClassInvalid},
		{name: "too short digits", in: "12345", want: ClassInvalid},
		{name: "special symbols", in: "Heart@Attack2", want: ClassInvalid},
		{name: "tab is not an allowed separator", in: "Viral\tFever", want: ClassInvalid},
		{name: "single word", in: "Unknownitis", want: ClassInvalid},
		{name: "short word", in: "Viral Fe ver", want: ClassInvalid},
		{name: "plausible two words", in: "Viral Fever", want: ClassPlausibleNew},
		{name: "plausible hyphen and apostrophe", in: "Tick-borne Lyme's disease", want: ClassPlausibleNew},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := v.Classify(tt.in)
			if got.Class != tt.want {
				t.Errorf("Classify(%q) = %+v, want %s", tt.in, got, tt.want)
			}
			if got.Valid() != (tt.want != ClassInvalid) {
				t.Errorf("Valid() mismatch for %q", tt.in)
			}
		})
	}
}

func TestClassify_RuleOrder(t *testing.T) {
	v := newTestValidator(t, DefaultRules)

	// too short wins over "no letters"
	if got := v.Classify("1234"); got.Reason != "name is too short" {
		t.Errorf("expected length rule first, got %q", got.Reason)
	}
	// unsupported characters win over word count
	if got := v.Classify("Fever!!"); got.Reason != "name contains unsupported characters" {
		t.Errorf("expected character rule before word rule, got %q", got.Reason)
	}
}

func TestClassify_ConfiguredRules(t *testing.T) {
	v := newTestValidator(t, Rules{MinLength: 4, MinWords: 1, MinWordLength: 2})

	if got := v.Classify("Zika"); got.Class != ClassPlausibleNew {
		t.Errorf("expected single word to pass relaxed rules, got %+v", got)
	}
	if got := v.Classify("flu"); got.Class != ClassInvalid {
		t.Errorf("expected 3 chars to fail MinLength=4, got %+v", got)
	}
}
