package properties

import (
	"encoding/json"
	"net/http"

	"github.com/crestline/estatesite/internal/apierr"
	"github.com/crestline/estatesite/internal/telemetry/tracing"
	"github.com/crestline/estatesite/pkg"

	"github.com/gorilla/mux"
)

var errInvalidBody = apierr.New(apierr.Validation, "invalid request body")

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

type buildingResponse struct {
	Success  bool      `json:"success"`
	Building *Building `json:"building"`
}

type buildingsResponse struct {
	Success   bool       `json:"success"`
	Buildings []Building `json:"buildings"`
}

type UnitsPayload struct {
	Units []Unit `json:"units"`
}

type unitsResponse struct {
	Success bool   `json:"success"`
	Units   []Unit `json:"units"`
}

func (h *Handler) SetupRoutes(r *mux.Router) {
	r.HandleFunc("/api/buildings", h.HandleListBuildings).Methods("GET", "OPTIONS").Name("list-buildings")
	r.HandleFunc("/api/buildings/{id}", h.HandleGetBuilding).Methods("GET", "OPTIONS").Name("get-building")
	r.HandleFunc("/api/buildings/{id}/units", h.HandleListUnits).Methods("GET", "OPTIONS").Name("list-units")

	r.HandleFunc("/api/admin/buildings", h.HandleCreateBuilding).Methods("POST", "OPTIONS").Name("create-building")
	r.HandleFunc("/api/admin/buildings/{id}", h.HandleUpdateBuilding).Methods("PUT", "OPTIONS").Name("update-building")
	r.HandleFunc("/api/admin/buildings/{id}", h.HandleDeleteBuilding).Methods("DELETE", "OPTIONS").Name("delete-building")
	r.HandleFunc("/api/admin/buildings/{id}/units", h.HandleEditorUnits).Methods("GET", "OPTIONS").Name("editor-units")
	r.HandleFunc("/api/admin/buildings/{id}/units", h.HandleSaveUnits).Methods("PUT", "OPTIONS").Name("save-units")
}

func (h *Handler) HandleListBuildings(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.properties.list_buildings")
	defer span.End()

	buildings, err := h.service.Buildings(ctx)
	if err != nil {
		apierr.Write(w, err, h.detailedErrors)
		return
	}
	pkg.WriteJSONOK(w, buildingsResponse{Success: true, Buildings: buildings})
}

func (h *Handler) HandleGetBuilding(w http.ResponseWriter, r *http.Request) {
	building, err := h.service.Building(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		apierr.Write(w, err, h.detailedErrors)
		return
	}
	pkg.WriteJSONOK(w, buildingResponse{Success: true, Building: building})
}

func (h *Handler) HandleListUnits(w http.ResponseWriter, r *http.Request) {
	h.writeUnits(w, r, true)
}

func (h *Handler) HandleEditorUnits(w http.ResponseWriter, r *http.Request) {
	h.writeUnits(w, r, false)
}

func (h *Handler) writeUnits(w http.ResponseWriter, r *http.Request, cached bool) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.properties.list_units")
	defer span.End()

	units, err := h.service.Units(ctx, mux.Vars(r)["id"], cached)
	if err != nil {
		apierr.Write(w, err, h.detailedErrors)
		return
	}
	pkg.WriteJSONOK(w, unitsResponse{Success: true, Units: units})
}

func (h *Handler) HandleSaveUnits(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.properties.save_units")
	defer span.End()

	var payload UnitsPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		apierr.Write(w, errInvalidBody, h.detailedErrors)
		return
	}

	saved, err := h.service.SaveUnits(ctx, mux.Vars(r)["id"], payload.Units)
	if err != nil {
		apierr.Write(w, err, h.detailedErrors)
		return
	}
	pkg.WriteJSONOK(w, unitsResponse{Success: true, Units: saved})
}

func (h *Handler) HandleCreateBuilding(w http.ResponseWriter, r *http.Request) {
	var building Building
	if err := json.NewDecoder(r.Body).Decode(&building); err != nil {
		apierr.Write(w, errInvalidBody, h.detailedErrors)
		return
	}

	created, err := h.service.CreateBuilding(r.Context(), building)
	if err != nil {
		apierr.Write(w, err, h.detailedErrors)
		return
	}
	pkg.WriteJSON(w, http.StatusCreated, buildingResponse{Success: true, Building: created})
}

func (h *Handler) HandleUpdateBuilding(w http.ResponseWriter, r *http.Request) {
	var building Building
	if err := json.NewDecoder(r.Body).Decode(&building); err != nil {
		apierr.Write(w, errInvalidBody, h.detailedErrors)
		return
	}
	building.ID = mux.Vars(r)["id"]

	updated, err := h.service.UpdateBuilding(r.Context(), building)
	if err != nil {
		apierr.Write(w, err, h.detailedErrors)
		return
	}
	pkg.WriteJSONOK(w, buildingResponse{Success: true, Building: updated})
}

func (h *Handler) HandleDeleteBuilding(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteBuilding(r.Context(), mux.Vars(r)["id"]); err != nil {
		apierr.Write(w, err, h.detailedErrors)
		return
	}
	pkg.WriteJSONOK(w, apierr.Response{Success: true, Message: "building deleted"})
}
