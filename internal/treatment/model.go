package treatment

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"medica-diagnosis/internal/agent"
	"medica-diagnosis/internal/validation"
)

const (
	defaultIntake   = "1-0-1"
	defaultTiming   = "after food"
	defaultFollowup = "Consult doctor"

	minAge = 1
	maxAge = 150

	rule = "--------------------------------"
)

// Form is the treatment planning input. Field names match the planner's
// wire format.
type Form struct {
	Disease    string `json:"disease"`
	Age        string `json:"age"`
	Duration   string `json:"duration"`
	Symptoms   string `json:"symptoms"`
	BloodGroup string `json:"bloodGroup"`
}

// Validate checks every field except the disease gate and reports all
// failures together.
func (f Form) Validate() error {
	var errs validation.Errors
	add := func(field, msg string) {
		errs = append(errs, &validation.ValidationError{Field: field, Message: msg})
	}

	if strings.TrimSpace(f.Disease) == "" {
		add("disease", "Disease field is required")
	}
	if age := strings.TrimSpace(f.Age); age == "" {
		add("age", "Age field is required")
	} else if n, err := strconv.Atoi(age); err != nil || n < minAge || n > maxAge {
		add("age", "Please enter a valid age (1-150)")
	}
	if strings.TrimSpace(f.Duration) == "" {
		add("duration", "Duration field is required")
	}
	if strings.TrimSpace(f.Symptoms) == "" {
		add("symptoms", "Symptoms field is required")
	}
	if f.BloodGroup == "" {
		add("bloodGroup", "Blood group is required")
	}
	return errs.Err()
}

func (f Form) request() agent.TreatmentRequest {
	return agent.TreatmentRequest{
		Disease:    f.Disease,
		Age:        f.Age,
		Duration:   f.Duration,
		Symptoms:   f.Symptoms,
		BloodGroup: f.BloodGroup,
	}
}

// SymptomList splits the symptom text on commas, dropping empty entries.
func (f Form) SymptomList() []string {
	var out []string
	for _, s := range strings.Split(f.Symptoms, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// Prescription is a generated treatment plan together with the form it
// was requested for.
type Prescription struct {
	ID        string          `json:"id"`
	Form      Form            `json:"form"`
	Treatment agent.Treatment `json:"treatment"`
	Text      string          `json:"text"`
	CreatedAt time.Time       `json:"created_at"`
}

var unsafeFileChars = regexp.MustCompile(`[^a-zA-Z0-9]+`)

// FileName is the download name of the prescription PDF.
func (p *Prescription) FileName() string {
	disease := strings.Trim(unsafeFileChars.ReplaceAllString(p.Form.Disease, "_"), "_")
	if disease == "" {
		disease = "treatment"
	}
	return fmt.Sprintf("prescription_%s_%d.pdf", disease, p.CreatedAt.UnixMilli())
}

// MedicationLine renders one medication with the default intake and timing
// filled in.
func MedicationLine(m agent.Medication) string {
	intake, timing := m.Intake, m.Timing
	if intake == "" {
		intake = defaultIntake
	}
	if timing == "" {
		timing = defaultTiming
	}
	return fmt.Sprintf("%s (%s, %s)", m.Name, intake, timing)
}

// Followup returns the follow-up advice, or the default when none was given.
func Followup(t agent.Treatment) string {
	if t.Followup == "" {
		return defaultFollowup
	}
	return t.Followup
}

// Render produces the plain-text prescription document.
func Render(f Form, t agent.Treatment) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\nDoctor's Prescription\n%s\n", rule, rule)
	fmt.Fprintf(&b, "Disease    : %s\n", f.Disease)
	fmt.Fprintf(&b, "Age        : %s\n", f.Age)
	fmt.Fprintf(&b, "Symptoms   : %s\n", f.Symptoms)
	fmt.Fprintf(&b, "Blood Group: %s\n", f.BloodGroup)
	fmt.Fprintf(&b, "Duration   : %s\n", f.Duration)

	b.WriteString("\nMedications:\n")
	if len(t.Medications) == 0 {
		b.WriteString("  - No medications prescribed\n")
	}
	for _, m := range t.Medications {
		fmt.Fprintf(&b, "  - %s\n", MedicationLine(m))
	}

	b.WriteString("\nLifestyle:\n")
	if len(t.Lifestyle) == 0 {
		b.WriteString("  - No lifestyle advice provided\n")
	}
	for _, item := range t.Lifestyle {
		fmt.Fprintf(&b, "  - %s\n", item)
	}

	fmt.Fprintf(&b, "\nFollow-up:\n  %s\n", Followup(t))
	b.WriteString(rule)
	return b.String()
}
