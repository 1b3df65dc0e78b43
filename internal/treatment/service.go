package treatment

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"medica-diagnosis/internal/agent"
	"medica-diagnosis/internal/disease"
	"medica-diagnosis/internal/validation"
)

// InvalidDiseaseMessage is shown when a disease name fails the local gate.
const InvalidDiseaseMessage = "Invalid disease name. Please enter a valid medical condition (e.g. 'Viral Fever')."

var (
	ErrNoTreatment          = errors.New("no treatment data returned")
	ErrPrescriptionNotFound = errors.New("prescription not found")
	ErrReportsDisabled      = errors.New("prescription reports are not configured")
)

// Reporter renders prescriptions and delivers them to the doctor.
type Reporter interface {
	RenderPDF(p *Prescription) ([]byte, error)
	SendPrescription(ctx context.Context, p *Prescription) error
}

type Service interface {
	CheckDisease(name string) disease.Verdict
	Plan(ctx context.Context, form Form) (*Prescription, error)
	Get(id string) (*Prescription, error)
	PDF(id string) ([]byte, *Prescription, error)
	SendToDoctor(ctx context.Context, id string) error
}

type service struct {
	validator *disease.Validator
	client    agent.TreatmentClient
	reporter  Reporter
	logger    zerolog.Logger

	mu            sync.RWMutex
	prescriptions map[string]*Prescription
}

// NewService wires the treatment planner. reporter may be nil.
func NewService(validator *disease.Validator, client agent.TreatmentClient, reporter Reporter, logger zerolog.Logger) Service {
	return &service{
		validator:     validator,
		client:        client,
		reporter:      reporter,
		logger:        logger.With().Str("component", "treatment").Logger(),
		prescriptions: make(map[string]*Prescription),
	}
}

func (s *service) CheckDisease(name string) disease.Verdict {
	return s.validator.Classify(name)
}

// Plan gates the disease name locally, validates the remaining fields and
// only then asks the planner for a treatment.
func (s *service) Plan(ctx context.Context, form Form) (*Prescription, error) {
	if v := s.validator.Classify(form.Disease); !v.Valid() {
		s.logger.Warn().Str("disease", form.Disease).Str("reason", v.Reason).Msg("disease name rejected")
		return nil, &validation.ValidationError{Field: "disease", Message: InvalidDiseaseMessage}
	}
	if err := form.Validate(); err != nil {
		return nil, err
	}

	resp, err := s.client.RequestTreatment(ctx, form.request())
	if err != nil {
		return nil, fmt.Errorf("request treatment: %w", err)
	}
	if resp.Treatment == nil {
		return nil, ErrNoTreatment
	}

	p := &Prescription{
		ID:        resp.ID,
		Form:      form,
		Treatment: *resp.Treatment,
		Text:      Render(form, *resp.Treatment),
		CreatedAt: time.Now(),
	}
	if p.ID == "" {
		p.ID = uuid.NewString()
	}

	s.mu.Lock()
	s.prescriptions[p.ID] = p
	s.mu.Unlock()

	s.logger.Info().
		Str("prescription_id", p.ID).
		Str("disease", form.Disease).
		Int("medications", len(p.Treatment.Medications)).
		Msg("treatment plan generated")
	return p, nil
}

func (s *service) Get(id string) (*Prescription, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.prescriptions[id]
	if !ok {
		return nil, ErrPrescriptionNotFound
	}
	return p, nil
}

func (s *service) PDF(id string) ([]byte, *Prescription, error) {
	if s.reporter == nil {
		return nil, nil, ErrReportsDisabled
	}
	p, err := s.Get(id)
	if err != nil {
		return nil, nil, err
	}
	data, err := s.reporter.RenderPDF(p)
	if err != nil {
		return nil, nil, err
	}
	return data, p, nil
}

func (s *service) SendToDoctor(ctx context.Context, id string) error {
	if s.reporter == nil {
		return ErrReportsDisabled
	}
	p, err := s.Get(id)
	if err != nil {
		return err
	}
	return s.reporter.SendPrescription(ctx, p)
}
