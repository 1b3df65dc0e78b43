package respond

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"medica-diagnosis/internal/validation"
)

type ErrorBody struct {
	Error  string            `json:"error"`
	Errors map[string]string `json:"errors,omitempty"`
}

func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func Error(w http.ResponseWriter, status int, msg string) {
	JSON(w, status, ErrorBody{Error: msg})
}

// Validation writes a 400 carrying every field error in err. It reports
// false, writing nothing, when err is not a validation error.
func Validation(w http.ResponseWriter, err error) bool {
	var ves validation.Errors
	if errors.As(err, &ves) {
		msgs := make([]string, 0, len(ves))
		for _, e := range ves {
			msgs = append(msgs, e.Message)
		}
		JSON(w, http.StatusBadRequest, ErrorBody{Error: strings.Join(msgs, "; "), Errors: ves.Fields()})
		return true
	}
	var ve *validation.ValidationError
	if errors.As(err, &ve) {
		body := ErrorBody{Error: ve.Message}
		if ve.Field != "" {
			body.Errors = map[string]string{ve.Field: ve.Message}
		}
		JSON(w, http.StatusBadRequest, body)
		return true
	}
	return false
}

// BearerToken returns the token from an "Authorization: Bearer" header.
func BearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if len(h) > len(prefix) && strings.EqualFold(h[:len(prefix)], prefix) {
		return strings.TrimSpace(h[len(prefix):])
	}
	return ""
}
