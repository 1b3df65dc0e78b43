package treatment

import (
	"strings"
	"testing"
	"time"

	"medica-diagnosis/internal/agent"
	"medica-diagnosis/internal/validation"
)

func validTreatmentForm() Form {
	return Form{Disease: "Viral Fever", Age: "34", Duration: "3", Symptoms: "fever, headache", BloodGroup: "O+"}
}

func TestFormValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Form)
		fields []string
	}{
		{"valid", func(*Form) {}, nil},
		{"missing disease", func(f *Form) { f.Disease = "  " }, []string{"disease"}},
		{"age zero", func(f *Form) { f.Age = "0" }, []string{"age"}},
		{"age too high", func(f *Form) { f.Age = "151" }, []string{"age"}},
		{"age upper bound", func(f *Form) { f.Age = "150" }, nil},
		{"age not a number", func(f *Form) { f.Age = "old" }, []string{"age"}},
		{"everything missing", func(f *Form) { *f = Form{} }, []string{"age", "bloodGroup", "disease", "duration", "symptoms"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := validTreatmentForm()
			tt.mutate(&f)
			err := f.Validate()
			if tt.fields == nil {
				if err != nil {
					t.Fatalf("expected no error, got %v", err)
				}
				return
			}
			errs, ok := err.(validation.Errors)
			if !ok {
				t.Fatalf("expected validation.Errors, got %T (%v)", err, err)
			}
			got := errs.Fields()
			if len(got) != len(tt.fields) {
				t.Fatalf("expected fields %v, got %v", tt.fields, got)
			}
			for _, name := range tt.fields {
				if got[name] == "" {
					t.Errorf("expected error for %s, got %v", name, got)
				}
			}
		})
	}
}

func TestRender(t *testing.T) {
	tr := agent.Treatment{
		Medications: []agent.Medication{
			{Name: "Paracetamol"},
			{Name: "ORS", Intake: "0-1-0", Timing: "before food"},
		},
		Lifestyle: []string{"Rest"},
	}
	want := `--------------------------------
Doctor's Prescription
--------------------------------
Disease    : Viral Fever
Age        : 34
Symptoms   : fever, headache
Blood Group: O+
Duration   : 3

Medications:
  - Paracetamol (1-0-1, after food)
  - ORS (0-1-0, before food)

Lifestyle:
  - Rest

Follow-up:
  Consult doctor
--------------------------------`
	if got := Render(validTreatmentForm(), tr); got != want {
		t.Errorf("unexpected prescription:\n%s\nwant:\n%s", got, want)
	}
}

func TestRender_EmptyTreatment(t *testing.T) {
	got := Render(validTreatmentForm(), agent.Treatment{Followup: "Return in 5 days"})
	for _, want := range []string{"  - No medications prescribed\n", "  - No lifestyle advice provided\n", "  Return in 5 days\n"} {
		if !strings.Contains(got, want) {
			t.Errorf("expected %q in:\n%s", want, got)
		}
	}
}

func TestSymptomList(t *testing.T) {
	f := Form{Symptoms: " fever,, headache ,"}
	got := f.SymptomList()
	if len(got) != 2 || got[0] != "fever" || got[1] != "headache" {
		t.Errorf("unexpected symptoms %v", got)
	}
}

func TestFileName(t *testing.T) {
	p := &Prescription{
		Form:      Form{Disease: "Crohn's Disease"},
		CreatedAt: time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC),
	}
	want := "prescription_Crohn_s_Disease_1714557600000.pdf"
	if got := p.FileName(); got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}
