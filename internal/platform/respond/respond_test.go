package respond

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"medica-diagnosis/internal/validation"
)

func TestValidation(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		handled bool
		fields  int
	}{
		{"single", &validation.ValidationError{Field: "age", Message: "bad"}, true, 1},
		{"wrapped", fmt.Errorf("submit: %w", &validation.ValidationError{Field: "age", Message: "bad"}), true, 1},
		{"collection", validation.Errors{{Field: "age", Message: "a"}, {Field: "gender", Message: "b"}}.Err(), true, 2},
		{"other", errors.New("boom"), false, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			if got := Validation(rec, tt.err); got != tt.handled {
				t.Fatalf("expected handled=%v, got %v", tt.handled, got)
			}
			if !tt.handled {
				return
			}
			if rec.Code != http.StatusBadRequest {
				t.Errorf("expected 400, got %d", rec.Code)
			}
			var body ErrorBody
			if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if len(body.Errors) != tt.fields || body.Error == "" {
				t.Errorf("unexpected body %+v", body)
			}
		})
	}
}

func TestBearerToken(t *testing.T) {
	tests := map[string]string{
		"Bearer abc":  "abc",
		"bearer xyz ": "xyz",
		"Basic abc":   "",
		"Bearer ":     "",
		"":            "",
	}
	for header, want := range tests {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		if header != "" {
			r.Header.Set("Authorization", header)
		}
		if got := BearerToken(r); got != want {
			t.Errorf("BearerToken(%q) = %q, want %q", header, got, want)
		}
	}
}
