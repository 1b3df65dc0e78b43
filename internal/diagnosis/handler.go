package diagnosis

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"medica-diagnosis/internal/platform/respond"
	"medica-diagnosis/internal/prediction"
	"medica-diagnosis/internal/refinement"
	"medica-diagnosis/internal/validation"
)

type Handler struct {
	svc Service
}

func NewHandler(svc Service) *Handler {
	return &Handler{svc: svc}
}

type FieldRequest struct {
	Value string `json:"value"`
}

type SuggestionRequest struct {
	Suggestion string `json:"suggestion"`
}

type SelectionRequest struct {
	Symptoms []string `json:"symptoms"`
}

type CandidatesResponse struct {
	TopDiseases []string `json:"top_diseases"`
	Candidates  []string `json:"candidates"`
	Selected    []string `json:"selected"`
}

// sessionID parses the {id} URL parameter and records any bearer token
// presented with the request against that session. An unknown session is
// answered with 404 before anything is stored.
func (h *Handler) sessionID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respond.Error(w, http.StatusBadRequest, "Invalid session ID")
		return uuid.Nil, false
	}
	if token := respond.BearerToken(r); token != "" {
		if err := h.svc.SetToken(r.Context(), id, token); err != nil {
			h.fail(w, err)
			return uuid.Nil, false
		}
	}
	return id, true
}

func (h *Handler) fail(w http.ResponseWriter, err error) {
	if respond.Validation(w, err) {
		return
	}
	var oe *prediction.OracleError
	switch {
	case errors.Is(err, ErrSessionNotFound):
		respond.Error(w, http.StatusNotFound, "Session not found")
	case errors.Is(err, ErrBusy):
		respond.Error(w, http.StatusConflict, "A prediction is already in progress")
	case errors.Is(err, ErrNoPrediction):
		respond.Error(w, http.StatusConflict, "Run a prediction first")
	case errors.Is(err, ErrRoundDiscarded):
		respond.Error(w, http.StatusConflict, "Session was reset while the prediction was running")
	case errors.As(err, &oe):
		respond.Error(w, http.StatusBadGateway, oe.Message)
	case errors.Is(err, prediction.ErrNoPredictions):
		respond.Error(w, http.StatusBadGateway, "No predictions returned")
	default:
		respond.Error(w, http.StatusInternalServerError, "Internal server error")
	}
}

func (h *Handler) CreateSession(w http.ResponseWriter, r *http.Request) {
	s, err := h.svc.CreateSession(r.Context())
	if err != nil {
		h.fail(w, err)
		return
	}
	if token := respond.BearerToken(r); token != "" {
		if err := h.svc.SetToken(r.Context(), s.ID, token); err != nil {
			h.fail(w, err)
			return
		}
	}
	respond.JSON(w, http.StatusCreated, s)
}

func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	id, ok := h.sessionID(w, r)
	if !ok {
		return
	}
	s, err := h.svc.GetSession(r.Context(), id)
	if err != nil {
		h.fail(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, s)
}

func (h *Handler) DeleteSession(w http.ResponseWriter, r *http.Request) {
	id, ok := h.sessionID(w, r)
	if !ok {
		return
	}
	if err := h.svc.DeleteSession(r.Context(), id); err != nil {
		h.fail(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) UpdateField(w http.ResponseWriter, r *http.Request) {
	id, ok := h.sessionID(w, r)
	if !ok {
		return
	}
	field, ok := validation.ParseField(chi.URLParam(r, "field"))
	if !ok {
		respond.Error(w, http.StatusNotFound, "Unknown field")
		return
	}
	var req FieldRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, http.StatusBadRequest, "Invalid request")
		return
	}
	s, err := h.svc.UpdateField(r.Context(), id, field, req.Value)
	if err != nil {
		h.fail(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, s)
}

func (h *Handler) Suggest(w http.ResponseWriter, r *http.Request) {
	suggestions := h.svc.Suggest(r.URL.Query().Get("q"))
	if suggestions == nil {
		suggestions = []string{}
	}
	respond.JSON(w, http.StatusOK, map[string][]string{"suggestions": suggestions})
}

func (h *Handler) SelectSuggestion(w http.ResponseWriter, r *http.Request) {
	id, ok := h.sessionID(w, r)
	if !ok {
		return
	}
	var req SuggestionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Suggestion == "" {
		respond.Error(w, http.StatusBadRequest, "Invalid request")
		return
	}
	s, err := h.svc.SelectSuggestion(r.Context(), id, req.Suggestion)
	if err != nil {
		h.fail(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, s)
}

func (h *Handler) AcceptSymptom(w http.ResponseWriter, r *http.Request) {
	id, ok := h.sessionID(w, r)
	if !ok {
		return
	}
	s, err := h.svc.AcceptSymptom(r.Context(), id)
	if err != nil {
		h.fail(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, s)
}

func (h *Handler) Predict(w http.ResponseWriter, r *http.Request) {
	id, ok := h.sessionID(w, r)
	if !ok {
		return
	}
	s, err := h.svc.Submit(r.Context(), id)
	if err != nil {
		h.fail(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, s.Result)
}

func (h *Handler) GetRefinement(w http.ResponseWriter, r *http.Request) {
	id, ok := h.sessionID(w, r)
	if !ok {
		return
	}
	s, err := h.svc.GetSession(r.Context(), id)
	if err != nil {
		h.fail(w, err)
		return
	}
	candidates, err := h.svc.Candidates(r.Context(), id)
	if err != nil {
		h.fail(w, err)
		return
	}
	h.writeRefinement(w, s, candidates)
}

func (h *Handler) SetSelection(w http.ResponseWriter, r *http.Request) {
	id, ok := h.sessionID(w, r)
	if !ok {
		return
	}
	var req SelectionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, http.StatusBadRequest, "Invalid request")
		return
	}
	s, err := h.svc.SetSelection(r.Context(), id, req.Symptoms)
	if err != nil {
		h.fail(w, err)
		return
	}
	candidates, err := h.svc.Candidates(r.Context(), id)
	if err != nil {
		h.fail(w, err)
		return
	}
	h.writeRefinement(w, s, candidates)
}

func (h *Handler) writeRefinement(w http.ResponseWriter, s *Session, candidates []string) {
	resp := CandidatesResponse{
		TopDiseases: refinement.TopDiseases(s.Result),
		Candidates:  candidates,
		Selected:    s.Selection,
	}
	if resp.Candidates == nil {
		resp.Candidates = []string{}
	}
	if resp.Selected == nil {
		resp.Selected = []string{}
	}
	respond.JSON(w, http.StatusOK, resp)
}

func (h *Handler) Repredict(w http.ResponseWriter, r *http.Request) {
	id, ok := h.sessionID(w, r)
	if !ok {
		return
	}
	s, err := h.svc.Refine(r.Context(), id)
	if err != nil {
		h.fail(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, s.Result)
}

func (h *Handler) Reset(w http.ResponseWriter, r *http.Request) {
	id, ok := h.sessionID(w, r)
	if !ok {
		return
	}
	s, err := h.svc.Reset(r.Context(), id)
	if err != nil {
		h.fail(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, s)
}

func (h *Handler) Complete(w http.ResponseWriter, r *http.Request) {
	id, ok := h.sessionID(w, r)
	if !ok {
		return
	}
	handoff, err := h.svc.Complete(r.Context(), id)
	if err != nil {
		h.fail(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, handoff)
}

func RegisterRoutes(r chi.Router, h *Handler) {
	r.Get("/symptoms/suggest", h.Suggest)

	r.Post("/sessions", h.CreateSession)
	r.Route("/sessions/{id}", func(r chi.Router) {
		r.Get("/", h.GetSession)
		r.Delete("/", h.DeleteSession)
		r.Put("/fields/{field}", h.UpdateField)
		r.Post("/symptoms/select", h.SelectSuggestion)
		r.Post("/symptoms/accept", h.AcceptSymptom)
		r.Post("/predict", h.Predict)
		r.Get("/refinement", h.GetRefinement)
		r.Put("/refinement", h.SetSelection)
		r.Post("/repredict", h.Repredict)
		r.Post("/reset", h.Reset)
		r.Post("/complete", h.Complete)
	})
}
