package feedback

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	DefaultListLimit = 50
	MaxListLimit     = 200
)

// Notifier delivers a short text to a chat.
type Notifier interface {
	SendMessage(ctx context.Context, chatID int64, text string) error
}

type Service interface {
	Submit(ctx context.Context, req SubmitRequest) (*Feedback, error)
	SubmitMessage(ctx context.Context, req MessageRequest) (*Feedback, error)
	List(ctx context.Context, limit int) ([]Feedback, error)
}

type service struct {
	repo     Repository
	notifier Notifier
	chatID   int64
	logger   zerolog.Logger
}

// NewService wires feedback storage. notifier may be nil, in which case
// nothing is forwarded to the doctor chat.
func NewService(repo Repository, notifier Notifier, chatID int64, logger zerolog.Logger) Service {
	return &service{
		repo:     repo,
		notifier: notifier,
		chatID:   chatID,
		logger:   logger.With().Str("component", "feedback").Logger(),
	}
}

func (s *service) Submit(ctx context.Context, req SubmitRequest) (*Feedback, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	return s.store(ctx, &Feedback{
		Name:    strings.TrimSpace(req.Name),
		Email:   strings.TrimSpace(req.Email),
		Message: strings.TrimSpace(req.Message),
	})
}

// SubmitMessage stores a message-only submission; a missing email is
// recorded as AnonymousEmail.
func (s *service) SubmitMessage(ctx context.Context, req MessageRequest) (*Feedback, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	email := strings.TrimSpace(req.Email)
	if email == "" {
		email = AnonymousEmail
	}
	return s.store(ctx, &Feedback{
		Email:   email,
		Message: strings.TrimSpace(req.Message),
	})
}

func (s *service) store(ctx context.Context, f *Feedback) (*Feedback, error) {
	f.ID = uuid.New()
	if err := s.repo.Create(ctx, f); err != nil {
		return nil, fmt.Errorf("failed to store feedback: %w", err)
	}
	s.logger.Info().Str("feedback_id", f.ID.String()).Msg("feedback stored")

	// Delivery is best effort; the feedback is already saved.
	if s.notifier != nil && s.chatID != 0 {
		if err := s.notifier.SendMessage(ctx, s.chatID, f.summary()); err != nil {
			s.logger.Warn().Err(err).Str("feedback_id", f.ID.String()).Msg("failed to notify doctor chat")
		}
	}
	return f, nil
}

// List returns the newest feedback first. A non-positive limit selects
// DefaultListLimit; larger limits are capped at MaxListLimit.
func (s *service) List(ctx context.Context, limit int) ([]Feedback, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}
	return s.repo.List(ctx, limit)
}
