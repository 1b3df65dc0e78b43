package catalog

import (
	"errors"
	"strings"
	"testing"

	"medica-diagnosis/internal/validation"
)

func mustDefault(t *testing.T) *Catalog {
	t.Helper()
	c, err := Default()
	if err != nil {
		t.Fatalf("load default catalog: %v", err)
	}
	return c
}

func TestDefault_Sizes(t *testing.T) {
	c := mustDefault(t)
	if n := len(c.Symptoms()); n != 76 {
		t.Errorf("expected 76 symptoms, got %d", n)
	}
	if n := len(c.Diseases()); n != 79 {
		t.Errorf("expected 79 diseases, got %d", n)
	}
}

func TestDefault_AcceptsColdIntolerance(t *testing.T) {
	c := mustDefault(t)
	got, err := c.ParseSymptoms("Cold Intolerance, fatigue")
	if err != nil {
		t.Fatalf("expected cold intolerance to be accepted, got %v", err)
	}
	if len(got) != 2 || got[0] != "cold intolerance" {
		t.Errorf("unexpected tokens %v", got)
	}
}

func TestDefault_IndexClosedOverVocabulary(t *testing.T) {
	c := mustDefault(t)
	for _, d := range c.Diseases() {
		for _, s := range c.SymptomsFor(d) {
			if !c.IsSymptom(s) {
				t.Errorf("disease %q refers to %q which is not a vocabulary entry", d, s)
			}
		}
	}
}

func TestSymptomsFor(t *testing.T) {
	c := mustDefault(t)

	got := c.SymptomsFor("Influenza")
	want := []string{"body pain", "chills", "cough", "fever", "headache"}
	if strings.Join(got, "|") != strings.Join(want, "|") {
		t.Errorf("expected %v, got %v", want, got)
	}

	if syms := c.SymptomsFor("Not A Disease"); syms != nil {
		t.Errorf("expected nil for unknown disease, got %v", syms)
	}
}

func TestSymptomsFor_ReturnsCopy(t *testing.T) {
	c := mustDefault(t)
	syms := c.SymptomsFor("Malaria")
	syms[0] = "mutated"
	if c.SymptomsFor("Malaria")[0] == "mutated" {
		t.Fatal("index must not be mutable through returned slices")
	}
}

func TestParseSymptoms(t *testing.T) {
	c := mustDefault(t)

	tests := []struct {
		name    string
		raw     string
		want    []string
		invalid string
	}{
		{name: "valid", raw: "Fever, headache", want: []string{"fever", "headache"}},
		{name: "trailing separator", raw: "fever, cough, ", want: []string{"fever", "cough"}},
		{name: "all invalid tokens listed", raw: "fever, foo, Bar", invalid: "Invalid symptom(s): foo, bar"},
		{name: "empty", raw: " , ", want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := c.ParseSymptoms(tt.raw)
			if tt.invalid != "" {
				var ve *validation.ValidationError
				if !errors.As(err, &ve) {
					t.Fatalf("expected ValidationError, got %v", err)
				}
				if ve.Message != tt.invalid {
					t.Errorf("expected message %q, got %q", tt.invalid, ve.Message)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if strings.Join(got, "|") != strings.Join(tt.want, "|") {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestLoad_RejectsUnknownIndexedSymptom(t *testing.T) {
	doc := "symptoms: [fever]\ndiseases:\n  Flu: [fever, cough]\n"
	if _, err := Load(strings.NewReader(doc)); err == nil {
		t.Fatal("expected error for symptom outside the vocabulary")
	}
}

func TestLoad_RejectsNonCanonicalSymptom(t *testing.T) {
	doc := "symptoms: [Fever]\n"
	if _, err := Load(strings.NewReader(doc)); err == nil {
		t.Fatal("expected error for non-lowercase symptom")
	}
}

func TestLoad_DeduplicatesIndexEntries(t *testing.T) {
	doc := "symptoms: [fever, cough]\ndiseases:\n  Flu: [fever, fever, cough]\n"
	c, err := Load(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n := len(c.SymptomsFor("Flu")); n != 2 {
		t.Errorf("expected 2 symptoms after dedup, got %d", n)
	}
}
