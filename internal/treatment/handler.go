package treatment

import (
	"encoding/json"
	"errors"
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

type DiseaseCheckRequest struct {
	Name string `json:"name"`
}

type DiseaseCheckResponse struct {
	Name   string `json:"name"`
	Valid  bool   `json:"valid"`
	Class  string `json:"class"`
	Reason string `json:"reason,omitempty"`
}

func (h *Handler) fail(w http.ResponseWriter, err error, status int, msg string) {
	if respond.Validation(w, err) {
		return
	}
	switch {
	case errors.Is(err, ErrPrescriptionNotFound):
		respond.Error(w, http.StatusNotFound, "Prescription not found")
	case errors.Is(err, ErrNoTreatment):
		respond.Error(w, http.StatusBadGateway, "No treatment data returned from API.")
	case errors.Is(err, ErrReportsDisabled):
		respond.Error(w, http.StatusNotImplemented, "Prescription reports are not configured")
	default:
		respond.Error(w, status, msg+": "+err.Error())
	}
}

func (h *Handler) CheckDisease(w http.ResponseWriter, r *http.Request) {
	var req DiseaseCheckRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, http.StatusBadRequest, "Invalid request")
		return
	}
	v := h.svc.CheckDisease(req.Name)
	respond.JSON(w, http.StatusOK, DiseaseCheckResponse{
		Name:   req.Name,
		Valid:  v.Valid(),
		Class:  string(v.Class),
		Reason: v.Reason,
	})
}

func (h *Handler) Plan(w http.ResponseWriter, r *http.Request) {
	var form Form
	if err := json.NewDecoder(r.Body).Decode(&form); err != nil {
		respond.Error(w, http.StatusBadRequest, "Invalid request")
		return
	}
	p, err := h.svc.Plan(r.Context(), form)
	if err != nil {
		h.fail(w, err, http.StatusBadGateway, "Failed to generate treatment plan")
		return
	}
	respond.JSON(w, http.StatusOK, p)
}

func (h *Handler) GetPrescription(w http.ResponseWriter, r *http.Request) {
	p, err := h.svc.Get(chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, err, http.StatusInternalServerError, "Failed to load prescription")
		return
	}
	respond.JSON(w, http.StatusOK, p)
}

func (h *Handler) DownloadPDF(w http.ResponseWriter, r *http.Request) {
	data, p, err := h.svc.PDF(chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, err, http.StatusInternalServerError, "Could not render prescription")
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="`+p.FileName()+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.Write(data)
}

func (h *Handler) SendToDoctor(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.SendToDoctor(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.fail(w, err, http.StatusBadGateway, "Could not send prescription")
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

func RegisterRoutes(r chi.Router, h *Handler) {
	r.Post("/diseases/check", h.CheckDisease)
	r.Post("/treatment", h.Plan)
	r.Get("/prescriptions/{id}", h.GetPrescription)
	r.Get("/prescriptions/{id}/pdf", h.DownloadPDF)
	r.Post("/prescriptions/{id}/send", h.SendToDoctor)
}
