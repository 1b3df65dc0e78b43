package feedback

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"medica-diagnosis/internal/validation"
)

// AnonymousEmail stands in for the sender of a message-only submission.
const AnonymousEmail = "anonymous"

type Feedback struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name,omitempty"`
	Email     string    `json:"email"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}

type SubmitRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Message string `json:"message"`
}

type MessageRequest struct {
	Email   string `json:"email"`
	Message string `json:"message"`
}

// Validate requires every field of the contact form.
func (r SubmitRequest) Validate() error {
	var errs validation.Errors
	if strings.TrimSpace(r.Name) == "" {
		errs = append(errs, &validation.ValidationError{Field: "name", Message: "Name is required"})
	}
	if strings.TrimSpace(r.Email) == "" {
		errs = append(errs, &validation.ValidationError{Field: "email", Message: "Email is required"})
	}
	if strings.TrimSpace(r.Message) == "" {
		errs = append(errs, &validation.ValidationError{Field: "message", Message: "Message is required"})
	}
	return errs.Err()
}

// Validate requires only the message.
func (r MessageRequest) Validate() error {
	if strings.TrimSpace(r.Message) == "" {
		return &validation.ValidationError{Field: "message", Message: "Feedback message is required"}
	}
	return nil
}

// summary is the text sent to the doctor chat.
func (f *Feedback) summary() string {
	from := f.Email
	if f.Name != "" {
		from = f.Name + " <" + f.Email + ">"
	}
	return "New feedback from " + from + "\n\n" + f.Message
}
