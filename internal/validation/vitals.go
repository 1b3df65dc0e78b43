package validation

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// Field names a patient form field. The values double as JSON keys.
type Field string

const (
	FieldSymptoms         Field = "symptoms"
	FieldAge              Field = "age"
	FieldGender           Field = "gender"
	FieldSeverity         Field = "severity"
	FieldTemperature      Field = "temperature"
	FieldHeartRate        Field = "heart_rate"
	FieldBloodPressure    Field = "blood_pressure"
	FieldOxygenSaturation Field = "oxygen_saturation"
)

// FormFields lists every patient form field; all of them are required
// before a prediction can be requested.
var FormFields = []Field{
	FieldSymptoms,
	FieldAge,
	FieldGender,
	FieldSeverity,
	FieldTemperature,
	FieldHeartRate,
	FieldBloodPressure,
	FieldOxygenSaturation,
}

// ParseField reports whether name is a known form field.
func ParseField(name string) (Field, bool) {
	for _, f := range FormFields {
		if string(f) == name {
			return f, true
		}
	}
	return "", false
}

// Clinical ranges, inclusive.
const (
	MinTemperatureF = 95.0
	MaxTemperatureF = 107.0
	MinHeartRate    = 30
	MaxHeartRate    = 220
	MinSystolic     = 70
	MaxSystolic     = 250
	MinDiastolic    = 40
	MaxDiastolic    = 140
	MinOxygenSat    = 80
	MaxOxygenSat    = 100
	MinAge          = 1
	MaxAge          = 120
)

const (
	msgTemperature   = "Temperature must be between 95°F and 107°F"
	msgHeartRate     = "Heart rate must be between 30 and 220 bpm"
	msgBPFormat      = `Blood pressure must be in format "Systolic/Diastolic" (e.g., 120/80)`
	msgBPRange       = "Blood pressure values are out of valid range"
	msgOxygen        = "Oxygen saturation must be between 80% and 100%"
	msgAge           = "Age must be between 1 and 120"
	msgFieldRequired = "This field is required"
)

var bloodPressureRe = regexp.MustCompile(`^(\d{2,3})/(\d{2,3})$`)

// BloodPressure is a parsed systolic/diastolic reading in mmHg.
type BloodPressure struct {
	Systolic  int
	Diastolic int
}

func (bp BloodPressure) String() string {
	return fmt.Sprintf("%d/%d", bp.Systolic, bp.Diastolic)
}

func fieldErr(f Field, msg string) *ValidationError {
	return &ValidationError{Field: string(f), Message: msg}
}

// ParseTemperature parses a temperature in °F and checks its range.
func ParseTemperature(value string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil || math.IsNaN(v) || v < MinTemperatureF || v > MaxTemperatureF {
		return 0, fieldErr(FieldTemperature, msgTemperature)
	}
	return v, nil
}

// ParseHeartRate parses an integer heart rate in bpm and checks its range.
func ParseHeartRate(value string) (int, error) {
	v, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil || v < MinHeartRate || v > MaxHeartRate {
		return 0, fieldErr(FieldHeartRate, msgHeartRate)
	}
	return v, nil
}

// ParseBloodPressure checks the SYS/DIA format first and the ranges second,
// so a malformed reading always reports the format error.
func ParseBloodPressure(value string) (BloodPressure, error) {
	m := bloodPressureRe.FindStringSubmatch(value)
	if m == nil {
		return BloodPressure{}, fieldErr(FieldBloodPressure, msgBPFormat)
	}
	sys, _ := strconv.Atoi(m[1])
	dia, _ := strconv.Atoi(m[2])
	if sys < MinSystolic || sys > MaxSystolic || dia < MinDiastolic || dia > MaxDiastolic {
		return BloodPressure{}, fieldErr(FieldBloodPressure, msgBPRange)
	}
	return BloodPressure{Systolic: sys, Diastolic: dia}, nil
}

// ParseOxygenSaturation parses an integer SpO2 percentage and checks its range.
func ParseOxygenSaturation(value string) (int, error) {
	v, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil || v < MinOxygenSat || v > MaxOxygenSat {
		return 0, fieldErr(FieldOxygenSaturation, msgOxygen)
	}
	return v, nil
}

// ParseAge parses an integer age in years.
func ParseAge(value string) (int, error) {
	v, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil || v < MinAge || v > MaxAge {
		return 0, fieldErr(FieldAge, msgAge)
	}
	return v, nil
}

// ValidateField runs the per-field rule. An empty value means "not yet
// entered" and is never an error; fields without a rule always pass.
func ValidateField(f Field, value string) error {
	if value == "" {
		return nil
	}
	var err error
	switch f {
	case FieldTemperature:
		_, err = ParseTemperature(value)
	case FieldHeartRate:
		_, err = ParseHeartRate(value)
	case FieldBloodPressure:
		_, err = ParseBloodPressure(value)
	case FieldOxygenSaturation:
		_, err = ParseOxygenSaturation(value)
	case FieldAge:
		_, err = ParseAge(value)
	}
	return err
}

// ValidateForm is the holistic pre-submission check: every field must be
// non-empty and every field rule must pass. All failures are returned
// together.
func ValidateForm(values map[Field]string) error {
	var errs Errors
	for _, f := range FormFields {
		v := values[f]
		if strings.TrimSpace(v) == "" {
			errs = append(errs, fieldErr(f, msgFieldRequired))
			continue
		}
		if err := ValidateField(f, v); err != nil {
			errs = append(errs, err.(*ValidationError))
		}
	}
	return errs.Err()
}
