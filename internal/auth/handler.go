package auth

import (
	"encoding/json"
	"errors"
	"mime"
	"net/http"

	"github.com/crestline/estatesite/internal/apierr"
	"github.com/crestline/estatesite/internal/telemetry/metrics"
	"github.com/crestline/estatesite/internal/telemetry/tracing"
	"github.com/crestline/estatesite/pkg"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

type Handler struct {
	service        *Service
	metrics        *metrics.Manager
	detailedErrors bool
}

func NewHandler(service *Service, metrics *metrics.Manager, detailedErrors bool) *Handler {
	return &Handler{
		service:        service,
		metrics:        metrics,
		detailedErrors: detailedErrors,
	}
}

func (h *Handler) SetupRoutes(r *mux.Router) {
	r.HandleFunc("/api/admin/login", h.HandleLogin).Methods("POST", "OPTIONS").Name("admin-login")
	r.HandleFunc("/api/admin/logout", h.HandleLogout).Methods("POST", "OPTIONS").Name("admin-logout")
	r.HandleFunc("/api/admin/verify", h.HandleVerify).Methods("GET", "OPTIONS").Name("admin-verify")
}

type credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Success bool `json:"success"`
	LoginResult
}

type verifyResponse struct {
	Valid bool     `json:"valid"`
	User  *Account `json:"user"`
}

func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.auth.login")
	defer span.End()

	creds, err := readCredentials(r)
	if err != nil {
		log.Debugf("login: read credentials: %s", err)
		apierr.Write(w, apierr.Wrap(apierr.Validation, "invalid login request", err), h.detailedErrors)
		return
	}

	result, err := h.service.Login(ctx, creds.Username, creds.Password)
	if err != nil {
		h.metrics.CounterLogins.WithLabelValues(loginResultLabel(err)).Inc()
		apierr.Write(w, err, h.detailedErrors)
		return
	}
	h.metrics.CounterLogins.WithLabelValues("success").Inc()

	pkg.WriteJSONOK(w, loginResponse{
		Success:     true,
		LoginResult: *result,
	})
}

func (h *Handler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	identity, ok := IdentityFrom(r.Context())
	if !ok {
		apierr.Write(w, ErrInvalidToken, h.detailedErrors)
		return
	}

	h.service.Logout(r.Context(), identity)
	pkg.WriteJSONOK(w, apierr.Response{
		Success: true,
		Message: "logged out",
	})
}

func (h *Handler) HandleVerify(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.auth.verify")
	defer span.End()

	identity, ok := IdentityFrom(ctx)
	if !ok {
		apierr.Write(w, ErrInvalidToken, h.detailedErrors)
		return
	}

	account, err := h.service.CurrentAccount(ctx, identity)
	if err != nil {
		apierr.Write(w, err, h.detailedErrors)
		return
	}

	pkg.WriteJSONOK(w, verifyResponse{
		Valid: true,
		User:  account,
	})
}

// readCredentials accepts both JSON and form encoded login bodies.
func readCredentials(r *http.Request) (credentials, error) {
	var creds credentials
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "application/json" {
		if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
			return creds, err
		}
		return creds, nil
	}

	if err := r.ParseForm(); err != nil {
		return creds, err
	}
	creds.Username = r.Form.Get("username")
	creds.Password = r.Form.Get("password")
	return creds, nil
}

func loginResultLabel(err error) string {
	switch {
	case errors.Is(err, ErrInvalidCredentials):
		return "invalid_credentials"
	case errors.Is(err, ErrMissingCredentials):
		return "missing_credentials"
	default:
		return "error"
	}
}
