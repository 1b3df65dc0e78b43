package treatment

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"medica-diagnosis/internal/agent"
	"medica-diagnosis/internal/catalog"
	"medica-diagnosis/internal/disease"
	"medica-diagnosis/internal/platform/respond"
	"medica-diagnosis/internal/validation"
)

type fakePlanner struct {
	calls []agent.TreatmentRequest
	resp  *agent.TreatmentResponse
	err   error
}

func (f *fakePlanner) RequestTreatment(ctx context.Context, req agent.TreatmentRequest) (*agent.TreatmentResponse, error) {
	f.calls = append(f.calls, req)
	return f.resp, f.err
}

type fakeReporter struct {
	sent []*Prescription
}

func (f *fakeReporter) RenderPDF(p *Prescription) ([]byte, error) {
	return []byte("%PDF-1.4 " + p.ID), nil
}

func (f *fakeReporter) SendPrescription(ctx context.Context, p *Prescription) error {
	f.sent = append(f.sent, p)
	return nil
}

func planResponse() *agent.TreatmentResponse {
	return &agent.TreatmentResponse{
		ID: "tp-1",
		Treatment: &agent.Treatment{
			Medications: []agent.Medication{{Name: "Paracetamol"}},
			Lifestyle:   []string{"Rest"},
			Followup:    "Review in 3 days",
		},
	}
}

func newTestTreatmentService(t *testing.T, planner *fakePlanner, reporter Reporter) Service {
	t.Helper()
	cat, err := catalog.Default()
	if err != nil {
		t.Fatalf("load catalog: %v", err)
	}
	return NewService(disease.NewValidator(cat, disease.DefaultRules), planner, reporter, zerolog.Nop())
}

func TestPlan_InvalidDiseaseNeverReachesPlanner(t *testing.T) {
	planner := &fakePlanner{resp: planResponse()}
	svc := newTestTreatmentService(t, planner, nil)

	for _, name := range []string{"flu", "123456", "Heart@Attack2", ""} {
		form := validTreatmentForm()
		form.Disease = name
		_, err := svc.Plan(context.Background(), form)
		var ve *validation.ValidationError
		if !errors.As(err, &ve) || ve.Field != "disease" || ve.Message != InvalidDiseaseMessage {
			t.Errorf("%q: expected disease gate error, got %v", name, err)
		}
	}
	if len(planner.calls) != 0 {
		t.Errorf("expected no planner calls, got %d", len(planner.calls))
	}
}

func TestPlan_FormErrorsAfterGate(t *testing.T) {
	planner := &fakePlanner{resp: planResponse()}
	svc := newTestTreatmentService(t, planner, nil)

	form := validTreatmentForm()
	form.BloodGroup = ""
	form.Duration = ""
	_, err := svc.Plan(context.Background(), form)
	var errs validation.Errors
	if !errors.As(err, &errs) || len(errs) != 2 {
		t.Fatalf("expected two field errors, got %v", err)
	}
	if len(planner.calls) != 0 {
		t.Errorf("expected no planner calls, got %d", len(planner.calls))
	}
}

func TestPlan_Success(t *testing.T) {
	planner := &fakePlanner{resp: planResponse()}
	svc := newTestTreatmentService(t, planner, nil)

	p, err := svc.Plan(context.Background(), validTreatmentForm())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.ID != "tp-1" || !strings.Contains(p.Text, "Paracetamol (1-0-1, after food)") {
		t.Errorf("unexpected prescription %+v", p)
	}
	if planner.calls[0].BloodGroup != "O+" || planner.calls[0].Disease != "Viral Fever" {
		t.Errorf("unexpected planner request %+v", planner.calls[0])
	}

	got, err := svc.Get("tp-1")
	if err != nil || got != p {
		t.Errorf("expected stored prescription, got %v, %v", got, err)
	}
}

func TestPlan_KnownDisease(t *testing.T) {
	planner := &fakePlanner{resp: planResponse()}
	svc := newTestTreatmentService(t, planner, nil)

	form := validTreatmentForm()
	form.Disease = "Malaria"
	if _, err := svc.Plan(context.Background(), form); err != nil {
		t.Fatalf("expected known disease to pass the gate, got %v", err)
	}
}

func TestPlan_NoTreatment(t *testing.T) {
	svc := newTestTreatmentService(t, &fakePlanner{resp: &agent.TreatmentResponse{}}, nil)
	if _, err := svc.Plan(context.Background(), validTreatmentForm()); !errors.Is(err, ErrNoTreatment) {
		t.Fatalf("expected ErrNoTreatment, got %v", err)
	}
}

func TestPlan_GeneratesIDWhenMissing(t *testing.T) {
	resp := planResponse()
	resp.ID = ""
	svc := newTestTreatmentService(t, &fakePlanner{resp: resp}, nil)
	p, err := svc.Plan(context.Background(), validTreatmentForm())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.ID == "" {
		t.Error("expected generated prescription ID")
	}
}

func TestReports(t *testing.T) {
	reporter := &fakeReporter{}
	svc := newTestTreatmentService(t, &fakePlanner{resp: planResponse()}, reporter)
	p, _ := svc.Plan(context.Background(), validTreatmentForm())

	data, got, err := svc.PDF(p.ID)
	if err != nil || got != p || !strings.HasPrefix(string(data), "%PDF") {
		t.Fatalf("unexpected PDF result: %q, %v", data, err)
	}
	if err := svc.SendToDoctor(context.Background(), p.ID); err != nil {
		t.Fatalf("send: %v", err)
	}
	if len(reporter.sent) != 1 {
		t.Errorf("expected one delivery, got %d", len(reporter.sent))
	}
	if _, _, err := svc.PDF("missing"); !errors.Is(err, ErrPrescriptionNotFound) {
		t.Errorf("expected ErrPrescriptionNotFound, got %v", err)
	}

	disabled := newTestTreatmentService(t, &fakePlanner{resp: planResponse()}, nil)
	if err := disabled.SendToDoctor(context.Background(), p.ID); !errors.Is(err, ErrReportsDisabled) {
		t.Errorf("expected ErrReportsDisabled, got %v", err)
	}
}

func newTreatmentRouter(t *testing.T, planner *fakePlanner) http.Handler {
	t.Helper()
	r := chi.NewRouter()
	r.Route("/api", func(r chi.Router) {
		RegisterRoutes(r, NewHandler(newTestTreatmentService(t, planner, &fakeReporter{})))
	})
	return r
}

func TestHandler_CheckDisease(t *testing.T) {
	h := newTreatmentRouter(t, &fakePlanner{})

	tests := []struct {
		name  string
		valid bool
		class disease.Class
	}{
		{"Malaria", true, disease.ClassKnown},
		{"Viral Fever", true, disease.ClassPlausibleNew},
		{"flu", false, disease.ClassInvalid},
	}
	for _, tt := range tests {
		body, _ := json.Marshal(DiseaseCheckRequest{Name: tt.name})
		req := httptest.NewRequest(http.MethodPost, "/api/diseases/check", strings.NewReader(string(body)))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		var resp DiseaseCheckResponse
		if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
			t.Fatalf("%s: decode: %v", tt.name, err)
		}
		if resp.Valid != tt.valid || resp.Class != string(tt.class) {
			t.Errorf("%s: unexpected verdict %+v", tt.name, resp)
		}
	}
}

func TestHandler_Plan(t *testing.T) {
	h := newTreatmentRouter(t, &fakePlanner{resp: planResponse()})

	body, _ := json.Marshal(validTreatmentForm())
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/treatment", strings.NewReader(string(body))))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/prescriptions/tp-1/pdf", nil))
	if rec.Code != http.StatusOK || rec.Header().Get("Content-Type") != "application/pdf" {
		t.Fatalf("unexpected PDF response %d %q", rec.Code, rec.Header().Get("Content-Type"))
	}
	if !strings.Contains(rec.Header().Get("Content-Disposition"), "prescription_Viral_Fever_") {
		t.Errorf("unexpected disposition %q", rec.Header().Get("Content-Disposition"))
	}
}

func TestHandler_PlanErrors(t *testing.T) {
	h := newTreatmentRouter(t, &fakePlanner{resp: &agent.TreatmentResponse{}})

	form := validTreatmentForm()
	form.Disease = "xyz"
	body, _ := json.Marshal(form)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/treatment", strings.NewReader(string(body))))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	var eb respond.ErrorBody
	json.NewDecoder(rec.Body).Decode(&eb)
	if eb.Errors["disease"] != InvalidDiseaseMessage {
		t.Errorf("unexpected error body %+v", eb)
	}

	body, _ = json.Marshal(validTreatmentForm())
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/treatment", strings.NewReader(string(body))))
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", rec.Code)
	}
	json.NewDecoder(rec.Body).Decode(&eb)
	if eb.Error != "No treatment data returned from API." {
		t.Errorf("unexpected error %q", eb.Error)
	}
}
