package diagnosis

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"medica-diagnosis/internal/agent"
	"medica-diagnosis/internal/prediction"
	"medica-diagnosis/internal/validation"
)

// PatientForm keeps every field as typed. Values are only converted to
// numbers when an oracle request is built.
type PatientForm struct {
	Symptoms         string `json:"symptoms"`
	Age              string `json:"age"`
	Gender           string `json:"gender"`
	Severity         string `json:"severity"`
	Temperature      string `json:"temperature"`
	HeartRate        string `json:"heart_rate"`
	BloodPressure    string `json:"blood_pressure"`
	OxygenSaturation string `json:"oxygen_saturation"`
}

func (f *PatientForm) field(name validation.Field) *string {
	switch name {
	case validation.FieldSymptoms:
		return &f.Symptoms
	case validation.FieldAge:
		return &f.Age
	case validation.FieldGender:
		return &f.Gender
	case validation.FieldSeverity:
		return &f.Severity
	case validation.FieldTemperature:
		return &f.Temperature
	case validation.FieldHeartRate:
		return &f.HeartRate
	case validation.FieldBloodPressure:
		return &f.BloodPressure
	case validation.FieldOxygenSaturation:
		return &f.OxygenSaturation
	}
	return nil
}

// Set stores value for a known field; unknown fields are ignored.
func (f *PatientForm) Set(name validation.Field, value string) {
	if p := f.field(name); p != nil {
		*p = value
	}
}

func (f PatientForm) Get(name validation.Field) string {
	if p := f.field(name); p != nil {
		return *p
	}
	return ""
}

func (f PatientForm) Values() map[validation.Field]string {
	out := make(map[validation.Field]string, len(validation.FormFields))
	for _, name := range validation.FormFields {
		out[name] = f.Get(name)
	}
	return out
}

// PredictRequest converts the form into the first-round oracle body. The
// form must already have passed validation.ValidateForm.
func (f PatientForm) PredictRequest() (agent.PredictRequest, error) {
	age, err := validation.ParseAge(f.Age)
	if err != nil {
		return agent.PredictRequest{}, err
	}
	temp, err := validation.ParseTemperature(f.Temperature)
	if err != nil {
		return agent.PredictRequest{}, err
	}
	hr, err := validation.ParseHeartRate(f.HeartRate)
	if err != nil {
		return agent.PredictRequest{}, err
	}
	bp := strings.TrimSpace(f.BloodPressure)
	if _, err := validation.ParseBloodPressure(bp); err != nil {
		return agent.PredictRequest{}, err
	}
	spo2, err := validation.ParseOxygenSaturation(f.OxygenSaturation)
	if err != nil {
		return agent.PredictRequest{}, err
	}
	return agent.PredictRequest{
		Symptoms: strings.TrimSpace(f.Symptoms),
		Vitals: agent.Vitals{
			BloodPressure:    bp,
			HeartRate:        hr,
			Age:              age,
			Temperature:      temp,
			OxygenSaturation: spo2,
		},
	}, nil
}

// Session is one user's diagnostic workspace.
type Session struct {
	ID          uuid.UUID         `json:"id"`
	Form        PatientForm       `json:"form"`
	FieldErrors map[string]string `json:"field_errors,omitempty"`

	// Request is the first-round request behind Result; refinement reuses
	// its symptoms and vitals.
	Request *agent.PredictRequest `json:"-"`
	Result  *prediction.Result    `json:"prediction"`

	// Selection is the pending refinement selection.
	Selection []string `json:"selected_symptoms"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Handoff carries the diagnosis into treatment planning.
type Handoff struct {
	Disease  string `json:"disease"`
	Age      string `json:"age"`
	Symptoms string `json:"symptoms"`
}

// Reset empties the form and drops any prediction and selection.
func (s *Session) Reset() {
	s.Form = PatientForm{}
	s.FieldErrors = nil
	s.Request = nil
	s.Result = nil
	s.Selection = nil
}

func (s *Session) clone() *Session {
	c := *s
	if s.FieldErrors != nil {
		c.FieldErrors = make(map[string]string, len(s.FieldErrors))
		for k, v := range s.FieldErrors {
			c.FieldErrors[k] = v
		}
	}
	if s.Request != nil {
		r := *s.Request
		c.Request = &r
	}
	if s.Result != nil {
		r := *s.Result
		r.Models = make([]prediction.ModelResult, len(s.Result.Models))
		for i, m := range s.Result.Models {
			m.Prediction.TopPredictions = append([]prediction.SinglePrediction(nil), m.Prediction.TopPredictions...)
			r.Models[i] = m
		}
		c.Result = &r
	}
	c.Selection = append([]string(nil), s.Selection...)
	return &c
}
