package diagnosis

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"medica-diagnosis/internal/agent"
	"medica-diagnosis/internal/catalog"
	"medica-diagnosis/internal/platform/session"
	"medica-diagnosis/internal/prediction"
	"medica-diagnosis/internal/refinement"
	"medica-diagnosis/internal/symptom"
	"medica-diagnosis/internal/validation"
)

var (
	// ErrBusy is returned when a round is already in flight for the session.
	// The new round is not queued.
	ErrBusy = errors.New("a diagnostic round is already in progress")
	// ErrNoPrediction is returned by operations that need a prior result.
	ErrNoPrediction = errors.New("no prediction available")
	// ErrRoundDiscarded is returned when the session was reset or completed
	// while its round was in flight. The oracle's answer is dropped.
	ErrRoundDiscarded = errors.New("session was reset during the round")
)

type Service interface {
	CreateSession(ctx context.Context) (*Session, error)
	GetSession(ctx context.Context, id uuid.UUID) (*Session, error)
	DeleteSession(ctx context.Context, id uuid.UUID) error
	SetToken(ctx context.Context, id uuid.UUID, token string) error

	UpdateField(ctx context.Context, id uuid.UUID, field validation.Field, value string) (*Session, error)
	Suggest(text string) []string
	SelectSuggestion(ctx context.Context, id uuid.UUID, suggestion string) (*Session, error)
	AcceptSymptom(ctx context.Context, id uuid.UUID) (*Session, error)

	Submit(ctx context.Context, id uuid.UUID) (*Session, error)
	Candidates(ctx context.Context, id uuid.UUID) ([]string, error)
	SetSelection(ctx context.Context, id uuid.UUID, symptoms []string) (*Session, error)
	Refine(ctx context.Context, id uuid.UUID) (*Session, error)

	Reset(ctx context.Context, id uuid.UUID) (*Session, error)
	Complete(ctx context.Context, id uuid.UUID) (*Handoff, error)
}

type service struct {
	repo      Repository
	oracle    agent.OracleClient
	tokens    session.TokenStore
	catalog   *catalog.Catalog
	tokenizer *symptom.Tokenizer
	engine    *refinement.Engine
	logger    zerolog.Logger

	mu       sync.Mutex
	inflight map[uuid.UUID]*round
}

// round tracks one in-flight prediction for a session.
type round struct {
	reset bool
}

func NewService(repo Repository, oracle agent.OracleClient, tokens session.TokenStore, cat *catalog.Catalog, logger zerolog.Logger) Service {
	return &service{
		repo:      repo,
		oracle:    oracle,
		tokens:    tokens,
		catalog:   cat,
		tokenizer: symptom.NewTokenizer(cat),
		engine:    refinement.NewEngine(cat),
		logger:    logger.With().Str("component", "diagnosis").Logger(),
		inflight:  make(map[uuid.UUID]*round),
	}
}

// begin marks a round in flight for id; it reports false when one already is.
func (s *service) begin(id uuid.UUID) (*round, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, busy := s.inflight[id]; busy {
		return nil, false
	}
	rd := &round{}
	s.inflight[id] = rd
	return rd, true
}

// interrupt flags the in-flight round of id, if any, so its result is not
// written back.
func (s *service) interrupt(id uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if rd, ok := s.inflight[id]; ok {
		rd.reset = true
	}
}

// commit writes a round's outcome back to the session unless the round was
// interrupted. It holds s.mu so a concurrent interrupt lands either before
// the check or after the write.
func (s *service) commit(ctx context.Context, id uuid.UUID, rd *round, apply func(*Session)) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if rd.reset {
		return nil, ErrRoundDiscarded
	}
	sess, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	apply(sess)
	if err := s.repo.Save(ctx, sess); err != nil {
		return nil, err
	}
	return sess, nil
}

func (s *service) end(id uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.inflight, id)
}

func (s *service) CreateSession(ctx context.Context) (*Session, error) {
	sess := &Session{
		ID:        uuid.New(),
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	if err := s.repo.Save(ctx, sess); err != nil {
		return nil, err
	}
	return sess, nil
}

func (s *service) GetSession(ctx context.Context, id uuid.UUID) (*Session, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *service) DeleteSession(ctx context.Context, id uuid.UUID) error {
	s.interrupt(id)
	s.tokens.Clear(id)
	return s.repo.Delete(ctx, id)
}

// SetToken records the bearer token for an existing session. Tokens for
// unknown sessions are not kept.
func (s *service) SetToken(ctx context.Context, id uuid.UUID, token string) error {
	if _, err := s.repo.GetByID(ctx, id); err != nil {
		return err
	}
	s.tokens.Set(id, token)
	return nil
}

// UpdateField stores a raw value and re-runs that field's rule. The field
// error, if any, is kept on the session rather than returned.
func (s *service) UpdateField(ctx context.Context, id uuid.UUID, field validation.Field, value string) (*Session, error) {
	sess, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	s.setField(sess, field, value)
	if err := s.repo.Save(ctx, sess); err != nil {
		return nil, err
	}
	return sess, nil
}

func (s *service) setField(sess *Session, field validation.Field, value string) {
	sess.Form.Set(field, value)
	if err := validation.ValidateField(field, value); err != nil {
		var ve *validation.ValidationError
		if errors.As(err, &ve) {
			if sess.FieldErrors == nil {
				sess.FieldErrors = make(map[string]string)
			}
			sess.FieldErrors[string(field)] = ve.Message
		}
		return
	}
	delete(sess.FieldErrors, string(field))
}

func (s *service) Suggest(text string) []string {
	return s.tokenizer.Suggestions(text)
}

func (s *service) SelectSuggestion(ctx context.Context, id uuid.UUID, suggestion string) (*Session, error) {
	sess, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	s.setField(sess, validation.FieldSymptoms, symptom.Select(sess.Form.Symptoms, suggestion))
	if err := s.repo.Save(ctx, sess); err != nil {
		return nil, err
	}
	return sess, nil
}

func (s *service) AcceptSymptom(ctx context.Context, id uuid.UUID) (*Session, error) {
	sess, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	updated, ok := s.tokenizer.Accept(sess.Form.Symptoms)
	if !ok {
		return sess, nil
	}
	s.setField(sess, validation.FieldSymptoms, updated)
	if err := s.repo.Save(ctx, sess); err != nil {
		return nil, err
	}
	return sess, nil
}

// Submit runs the first prediction round. Any previous result is dropped
// before validation, so a failed round leaves the session without one.
func (s *service) Submit(ctx context.Context, id uuid.UUID) (*Session, error) {
	rd, ok := s.begin(id)
	if !ok {
		return nil, ErrBusy
	}
	defer s.end(id)

	sess, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	sess.Request, sess.Result, sess.Selection = nil, nil, nil
	if err := s.repo.Save(ctx, sess); err != nil {
		return nil, err
	}

	req, err := s.prepare(sess)
	if err != nil {
		return nil, err
	}

	token, _ := s.tokens.Get(id)
	res, err := s.oracle.Predict(ctx, token, req)
	if err != nil {
		s.logger.Warn().Err(err).Str("session_id", id.String()).Msg("prediction round failed")
		return nil, fmt.Errorf("predict: %w", err)
	}

	sess, err = s.commit(ctx, id, rd, func(sess *Session) {
		sess.Request = &req
		sess.Result = res
		sess.Selection = nil
	})
	if errors.Is(err, ErrRoundDiscarded) {
		s.logger.Info().Str("session_id", id.String()).Msg("session reset during prediction, result dropped")
	}
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("session_id", id.String()).
		Str("predicted_disease", res.PredictedDisease).
		Int("models", len(res.Models)).
		Msg("prediction round complete")
	return sess, nil
}

// prepare runs the holistic form check and the vocabulary check and builds
// the first-round request. Nothing here touches the network.
func (s *service) prepare(sess *Session) (agent.PredictRequest, error) {
	if err := validation.ValidateForm(sess.Form.Values()); err != nil {
		return agent.PredictRequest{}, err
	}
	tokens, err := s.catalog.ParseSymptoms(sess.Form.Symptoms)
	if err != nil {
		return agent.PredictRequest{}, err
	}
	if len(tokens) == 0 {
		return agent.PredictRequest{}, &validation.ValidationError{
			Field:   string(validation.FieldSymptoms),
			Message: "Enter at least one symptom",
		}
	}
	return sess.Form.PredictRequest()
}

func (s *service) Candidates(ctx context.Context, id uuid.UUID) ([]string, error) {
	sess, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if sess.Result == nil {
		return nil, ErrNoPrediction
	}
	return s.engine.CandidatesFor(sess.Result), nil
}

func (s *service) SetSelection(ctx context.Context, id uuid.UUID, symptoms []string) (*Session, error) {
	sess, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if sess.Result == nil {
		return nil, ErrNoPrediction
	}
	sel, err := s.engine.Selection(sess.Result, symptoms)
	if err != nil {
		return nil, err
	}
	sess.Selection = sel
	if err := s.repo.Save(ctx, sess); err != nil {
		return nil, err
	}
	return sess, nil
}

// Refine runs a refinement round. On failure the previous result and the
// selection are kept so the user can retry.
func (s *service) Refine(ctx context.Context, id uuid.UUID) (*Session, error) {
	rd, ok := s.begin(id)
	if !ok {
		return nil, ErrBusy
	}
	defer s.end(id)

	sess, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if sess.Result == nil || sess.Request == nil {
		return nil, ErrNoPrediction
	}

	req, err := refinement.BuildRequest(*sess.Request, sess.Selection, refinement.TopDiseases(sess.Result))
	if err != nil {
		return nil, err
	}

	token, _ := s.tokens.Get(id)
	res, err := s.oracle.Repredict(ctx, token, req)
	if err != nil {
		s.logger.Warn().
			Err(err).
			Str("session_id", id.String()).
			Bool("empty", errors.Is(err, prediction.ErrNoPredictions)).
			Msg("refinement round failed")
		return nil, fmt.Errorf("repredict: %w", err)
	}

	sess, err = s.commit(ctx, id, rd, func(sess *Session) {
		sess.Result = res
		sess.Selection = nil
	})
	if errors.Is(err, ErrRoundDiscarded) {
		s.logger.Info().Str("session_id", id.String()).Msg("session reset during refinement, result dropped")
	}
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("session_id", id.String()).
		Str("predicted_disease", res.PredictedDisease).
		Strs("top_diseases", req.TopDiseases).
		Msg("refinement round complete")
	return sess, nil
}

func (s *service) Reset(ctx context.Context, id uuid.UUID) (*Session, error) {
	s.interrupt(id)
	sess, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	sess.Reset()
	if err := s.repo.Save(ctx, sess); err != nil {
		return nil, err
	}
	return sess, nil
}

// Complete ends the diagnostic session: it returns what treatment planning
// needs and resets the form.
func (s *service) Complete(ctx context.Context, id uuid.UUID) (*Handoff, error) {
	sess, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if sess.Result == nil {
		return nil, ErrNoPrediction
	}
	s.interrupt(id)
	h := &Handoff{
		Disease:  sess.Result.PredictedDisease,
		Age:      sess.Form.Age,
		Symptoms: sess.Form.Symptoms,
	}
	sess.Reset()
	if err := s.repo.Save(ctx, sess); err != nil {
		return nil, err
	}
	return h, nil
}
