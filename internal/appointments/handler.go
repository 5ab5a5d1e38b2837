package appointments

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/crestline/estatesite/internal/apierr"
	"github.com/crestline/estatesite/internal/telemetry/tracing"
	"github.com/crestline/estatesite/pkg"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

var (
	errInvalidID   = apierr.New(apierr.Validation, "invalid appointment id")
	errInvalidBody = apierr.New(apierr.Validation, "invalid request body")
)

type Handler struct {
	service        *Service
	detailedErrors bool
}

func NewHandler(service *Service, detailedErrors bool) *Handler {
	return &Handler{
		service:        service,
		detailedErrors: detailedErrors,
	}
}

type appointmentResponse struct {
	Success     bool         `json:"success"`
	Message     string       `json:"message,omitempty"`
	Appointment *Appointment `json:"appointment"`
}

type listResponse struct {
	Success      bool          `json:"success"`
	Appointments []Appointment `json:"appointments"`
}

type statsResponse struct {
	Success bool  `json:"success"`
	Stats   Stats `json:"stats"`
}

func (h *Handler) SetupRoutes(r *mux.Router) {
	r.HandleFunc("/api/appointments/send-appointment", h.HandleBook).Methods("POST", "OPTIONS").Name("book-appointment")

	r.HandleFunc("/api/admin/appointments", h.HandleList).Methods("GET", "OPTIONS").Name("list-appointments")
	r.HandleFunc("/api/admin/appointments/stats/summary", h.HandleStats).Methods("GET", "OPTIONS").Name("appointments-stats")
	r.HandleFunc("/api/admin/appointments/{id:[0-9]+}", h.HandleGet).Methods("GET", "OPTIONS").Name("get-appointment")
	r.HandleFunc("/api/admin/appointments/{id:[0-9]+}/status", h.HandleUpdateStatus).Methods("PUT", "OPTIONS").Name("update-appointment-status")
	r.HandleFunc("/api/admin/appointments/{id:[0-9]+}", h.HandleDelete).Methods("DELETE", "OPTIONS").Name("delete-appointment")
}

func (h *Handler) HandleBook(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.appointments.book")
	defer span.End()

	var req BookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Debugf("book appointment, decode body: %s", err)
		apierr.Write(w, errInvalidBody, h.detailedErrors)
		return
	}

	appointment, err := h.service.Book(ctx, req)
	if err != nil {
		apierr.Write(w, err, h.detailedErrors)
		return
	}

	pkg.WriteJSON(w, http.StatusCreated, appointmentResponse{
		Success:     true,
		Message:     "appointment request received",
		Appointment: appointment,
	})
}

func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.appointments.list")
	defer span.End()

	status := Status(r.URL.Query().Get("status"))
	appointments, err := h.service.List(ctx, status)
	if err != nil {
		apierr.Write(w, err, h.detailedErrors)
		return
	}
	pkg.WriteJSONOK(w, listResponse{Success: true, Appointments: appointments})
}

func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		apierr.Write(w, err, h.detailedErrors)
		return
	}

	appointment, err := h.service.Get(r.Context(), id)
	if err != nil {
		apierr.Write(w, err, h.detailedErrors)
		return
	}
	pkg.WriteJSONOK(w, appointmentResponse{Success: true, Appointment: appointment})
}

func (h *Handler) HandleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		apierr.Write(w, err, h.detailedErrors)
		return
	}

	var body struct {
		Status Status `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		apierr.Write(w, errInvalidBody, h.detailedErrors)
		return
	}

	appointment, err := h.service.UpdateStatus(r.Context(), id, body.Status)
	if err != nil {
		apierr.Write(w, err, h.detailedErrors)
		return
	}
	pkg.WriteJSONOK(w, appointmentResponse{Success: true, Appointment: appointment})
}

func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		apierr.Write(w, err, h.detailedErrors)
		return
	}

	if err := h.service.Delete(r.Context(), id); err != nil {
		apierr.Write(w, err, h.detailedErrors)
		return
	}
	pkg.WriteJSONOK(w, apierr.Response{Success: true, Message: "appointment deleted"})
}

func (h *Handler) HandleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.Stats(r.Context())
	if err != nil {
		apierr.Write(w, err, h.detailedErrors)
		return
	}
	pkg.WriteJSONOK(w, statsResponse{Success: true, Stats: stats})
}

func pathID(r *http.Request) (int, error) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil || id <= 0 {
		return 0, errInvalidID
	}
	return id, nil
}
