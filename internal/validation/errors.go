package validation

import (
	"errors"
	"sort"
	"strings"
)

// ValidationError is a local, field-scoped rejection. It is always raised
// before any network call is made.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

// Errors collects several field errors so they can be reported together.
type Errors []*ValidationError

func (es Errors) Error() string {
	msgs := make([]string, 0, len(es))
	for _, e := range es {
		msgs = append(msgs, e.Error())
	}
	return strings.Join(msgs, "; ")
}

// Fields returns the errors keyed by field name, as rendered to clients.
func (es Errors) Fields() map[string]string {
	out := make(map[string]string, len(es))
	for _, e := range es {
		out[e.Field] = e.Message
	}
	return out
}

// Err returns nil for an empty collection so callers can `return errs.Err()`.
func (es Errors) Err() error {
	if len(es) == 0 {
		return nil
	}
	sort.SliceStable(es, func(i, j int) bool { return es[i].Field < es[j].Field })
	return es
}

// IsValidation reports whether err is, or wraps, a ValidationError or Errors.
func IsValidation(err error) bool {
	var ve *ValidationError
	var ves Errors
	return errors.As(err, &ve) || errors.As(err, &ves)
}
