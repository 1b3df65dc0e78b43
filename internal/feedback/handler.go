package feedback

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"medica-diagnosis/internal/platform/respond"
)

type Handler struct {
	svc Service
}

func NewHandler(svc Service) *Handler {
	return &Handler{svc: svc}
}

type SubmitResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	ID      string `json:"id"`
}

func (h *Handler) submitted(w http.ResponseWriter, f *Feedback, err error) {
	if err != nil {
		if respond.Validation(w, err) {
			return
		}
		respond.Error(w, http.StatusInternalServerError, "Failed to store feedback")
		return
	}
	respond.JSON(w, http.StatusOK, SubmitResponse{
		Success: true,
		Message: "Feedback submitted successfully",
		ID:      f.ID.String(),
	})
}

func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	var req SubmitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, http.StatusBadRequest, "Invalid request")
		return
	}
	f, err := h.svc.Submit(r.Context(), req)
	h.submitted(w, f, err)
}

func (h *Handler) SubmitMessage(w http.ResponseWriter, r *http.Request) {
	var req MessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, http.StatusBadRequest, "Invalid request")
		return
	}
	f, err := h.svc.SubmitMessage(r.Context(), req)
	h.submitted(w, f, err)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			respond.Error(w, http.StatusBadRequest, "Invalid limit")
			return
		}
		limit = n
	}
	entries, err := h.svc.List(r.Context(), limit)
	if err != nil {
		respond.Error(w, http.StatusInternalServerError, "Failed to load feedback")
		return
	}
	if entries == nil {
		entries = []Feedback{}
	}
	respond.JSON(w, http.StatusOK, map[string]any{"feedback": entries})
}

func RegisterRoutes(r chi.Router, h *Handler) {
	r.Post("/feedback", h.Submit)
	r.Get("/feedback", h.List)
	r.Post("/submit-feedback", h.SubmitMessage)
}
