package admins

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/crestline/estatesite/internal/apierr"
	"github.com/crestline/estatesite/internal/auth"
	"github.com/crestline/estatesite/internal/middleware"
	"github.com/crestline/estatesite/pkg"

	"github.com/gorilla/mux"
)

var (
	errInvalidID   = apierr.New(apierr.Validation, "invalid user id")
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

type accountResponse struct {
	Success bool          `json:"success"`
	User    *auth.Account `json:"user"`
}

type listResponse struct {
	Success bool           `json:"success"`
	Users   []auth.Account `json:"users"`
}

// SetupRoutes registers the admin user routes. Reads are open to any admin,
// mutations need a super_admin token.
func (h *Handler) SetupRoutes(r *mux.Router) {
	superAdmin := middleware.RequireRole(auth.RoleSuperAdmin)

	r.HandleFunc("/api/admin/users", h.HandleList).Methods("GET", "OPTIONS").Name("list-admin-users")
	r.HandleFunc("/api/admin/users/{id:[0-9]+}", h.HandleGet).Methods("GET", "OPTIONS").Name("get-admin-user")
	r.Handle("/api/admin/users", superAdmin(http.HandlerFunc(h.HandleCreate))).Methods("POST", "OPTIONS").Name("create-admin-user")
	r.Handle("/api/admin/users/{id:[0-9]+}", superAdmin(http.HandlerFunc(h.HandleUpdate))).Methods("PUT", "OPTIONS").Name("update-admin-user")
	r.Handle("/api/admin/users/{id:[0-9]+}/toggle-active", superAdmin(http.HandlerFunc(h.HandleToggleActive))).Methods("PATCH", "OPTIONS").Name("toggle-admin-user")
	r.Handle("/api/admin/users/{id:[0-9]+}", superAdmin(http.HandlerFunc(h.HandleDelete))).Methods("DELETE", "OPTIONS").Name("delete-admin-user")
}

func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	accounts, err := h.service.List(r.Context())
	if err != nil {
		apierr.Write(w, err, h.detailedErrors)
		return
	}
	pkg.WriteJSONOK(w, listResponse{Success: true, Users: accounts})
}

func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		apierr.Write(w, err, h.detailedErrors)
		return
	}

	account, err := h.service.Get(r.Context(), id)
	if err != nil {
		apierr.Write(w, err, h.detailedErrors)
		return
	}
	pkg.WriteJSONOK(w, accountResponse{Success: true, User: account})
}

func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req CreateAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apierr.Write(w, errInvalidBody, h.detailedErrors)
		return
	}

	account, err := h.service.Create(r.Context(), req)
	if err != nil {
		apierr.Write(w, err, h.detailedErrors)
		return
	}
	pkg.WriteJSON(w, http.StatusCreated, accountResponse{Success: true, User: account})
}

func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		apierr.Write(w, err, h.detailedErrors)
		return
	}

	var req UpdateAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apierr.Write(w, errInvalidBody, h.detailedErrors)
		return
	}

	account, err := h.service.Update(r.Context(), id, req)
	if err != nil {
		apierr.Write(w, err, h.detailedErrors)
		return
	}
	pkg.WriteJSONOK(w, accountResponse{Success: true, User: account})
}

func (h *Handler) HandleToggleActive(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		apierr.Write(w, err, h.detailedErrors)
		return
	}

	account, err := h.service.ToggleActive(r.Context(), id)
	if err != nil {
		apierr.Write(w, err, h.detailedErrors)
		return
	}
	pkg.WriteJSONOK(w, accountResponse{Success: true, User: account})
}

func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		apierr.Write(w, err, h.detailedErrors)
		return
	}

	actor, _ := auth.IdentityFrom(r.Context())
	if err := h.service.Delete(r.Context(), actor, id); err != nil {
		apierr.Write(w, err, h.detailedErrors)
		return
	}
	pkg.WriteJSONOK(w, apierr.Response{Success: true, Message: "user deleted"})
}

func pathID(r *http.Request) (int, error) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil || id <= 0 {
		return 0, errInvalidID
	}
	return id, nil
}
