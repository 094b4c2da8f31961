package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"reserva/internal/model"
	"reserva/internal/store"
)

type FacilityHandler struct {
	facilities   *store.FacilityStore
	locations    *store.LocationStore
	reservations *store.ReservationStore
	logger       *slog.Logger
}

func NewFacilityHandler(fs *store.FacilityStore, ls *store.LocationStore, rs *store.ReservationStore, logger *slog.Logger) *FacilityHandler {
	return &FacilityHandler{facilities: fs, locations: ls, reservations: rs, logger: logger}
}

type facilityRequest struct {
	Name string `json:"name"`
}

// facilityPayload embeds the facility's reservations so clients can show
// availability from a single fetch.
type facilityPayload struct {
	model.Facility
	Reservations []model.Reservation `json:"reservations"`
}

func (h *FacilityHandler) ListByLocation(w http.ResponseWriter, r *http.Request) {
	locationID, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid location id")
		return
	}

	location, err := h.locations.GetByID(locationID)
	if err != nil {
		h.logger.Error("get location", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to get location")
		return
	}
	if location == nil {
		writeError(w, http.StatusNotFound, "location not found")
		return
	}

	facilities, err := h.facilities.ListByLocation(locationID)
	if err != nil {
		h.logger.Error("list facilities", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list facilities")
		return
	}
	if facilities == nil {
		facilities = []model.Facility{}
	}
	writeData(w, http.StatusOK, facilities)
}

func (h *FacilityHandler) Create(w http.ResponseWriter, r *http.Request) {
	locationID, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid location id")
		return
	}

	location, err := h.locations.GetByID(locationID)
	if err != nil {
		h.logger.Error("get location", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to get location")
		return
	}
	if location == nil {
		writeError(w, http.StatusNotFound, "location not found")
		return
	}

	var req facilityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}

	facility, err := h.facilities.Create(locationID, req.Name)
	if err != nil {
		h.logger.Error("create facility", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create facility")
		return
	}

	writeData(w, http.StatusCreated, facility)
}

func (h *FacilityHandler) Get(w http.ResponseWriter, r *http.Request) {
	locationID, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid location id")
		return
	}
	facilityID, err := pathID(r, "facility_id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid facility id")
		return
	}

	facility, err := h.facilities.Get(locationID, facilityID)
	if err != nil {
		h.logger.Error("get facility", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to get facility")
		return
	}
	if facility == nil {
		writeError(w, http.StatusNotFound, "facility not found")
		return
	}

	reservations, err := h.reservations.ListByFacility(facility.ID)
	if err != nil {
		h.logger.Error("list facility reservations", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list reservations")
		return
	}
	if reservations == nil {
		reservations = []model.Reservation{}
	}

	writeData(w, http.StatusOK, facilityPayload{Facility: *facility, Reservations: reservations})
}

// Delete removes a facility with no reservations. Facilities that are still
// booked are protected until the reservations are cancelled.
func (h *FacilityHandler) Delete(w http.ResponseWriter, r *http.Request) {
	locationID, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid location id")
		return
	}
	facilityID, err := pathID(r, "facility_id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid facility id")
		return
	}

	facility, err := h.facilities.Get(locationID, facilityID)
	if err != nil {
		h.logger.Error("get facility", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to get facility")
		return
	}
	if facility == nil {
		writeError(w, http.StatusNotFound, "facility not found")
		return
	}

	if err := h.facilities.Delete(facilityID); err != nil {
		if errors.Is(err, store.ErrInUse) {
			writeError(w, http.StatusConflict, "facility still has reservations")
			return
		}
		h.logger.Error("delete facility", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to delete facility")
		return
	}

	writeData(w, http.StatusOK, facility)
}
