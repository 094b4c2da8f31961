package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"reserva/internal/auth"
	"reserva/internal/model"
	"reserva/internal/store"
	ws "reserva/internal/websocket"
)

type ReservationHandler struct {
	reservations *store.ReservationStore
	facilities   *store.FacilityStore
	hub          *ws.Hub
	logger       *slog.Logger
}

func NewReservationHandler(rs *store.ReservationStore, fs *store.FacilityStore, hub *ws.Hub, logger *slog.Logger) *ReservationHandler {
	return &ReservationHandler{reservations: rs, facilities: fs, hub: hub, logger: logger}
}

type reservationRequest struct {
	NetID     string `json:"netid"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
}

// List returns a facility's reservations ordered by start time.
func (h *ReservationHandler) List(w http.ResponseWriter, r *http.Request) {
	facilityID, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid facility id")
		return
	}

	facility, err := h.facilities.GetByID(facilityID)
	if err != nil {
		h.logger.Error("get facility", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to get facility")
		return
	}
	if facility == nil {
		writeError(w, http.StatusNotFound, "facility not found")
		return
	}

	reservations, err := h.reservations.ListByFacility(facilityID)
	if err != nil {
		h.logger.Error("list reservations", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list reservations")
		return
	}
	if reservations == nil {
		reservations = []model.Reservation{}
	}
	writeData(w, http.StatusOK, reservations)
}

// Create books a facility for the authenticated user. The principal from
// the session token is authoritative; the netid in the body must agree with
// it.
func (h *ReservationHandler) Create(w http.ResponseWriter, r *http.Request) {
	ac, ok := auth.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid session token")
		return
	}

	facilityID, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid facility id")
		return
	}

	facility, err := h.facilities.GetByID(facilityID)
	if err != nil {
		h.logger.Error("get facility", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to get facility")
		return
	}
	if facility == nil {
		writeError(w, http.StatusNotFound, "facility not found")
		return
	}

	var req reservationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	req.NetID = strings.TrimSpace(req.NetID)
	if req.NetID == "" || req.StartTime == "" || req.EndTime == "" {
		writeError(w, http.StatusBadRequest, "netid, start_time, and end_time are required")
		return
	}
	if req.NetID != ac.NetID {
		writeError(w, http.StatusUnauthorized, "netid does not match authenticated user")
		return
	}

	start, err := time.Parse(time.RFC3339, req.StartTime)
	if err != nil {
		writeError(w, http.StatusBadRequest, "start_time must be RFC3339 format")
		return
	}
	end, err := time.Parse(time.RFC3339, req.EndTime)
	if err != nil {
		writeError(w, http.StatusBadRequest, "end_time must be RFC3339 format")
		return
	}

	reservation, err := h.reservations.Create(facilityID, ac.UserID, start, end)
	if err != nil {
		if errors.Is(err, store.ErrConflict) {
			writeError(w, http.StatusConflict, "time range conflicts with an existing reservation")
			return
		}
		h.logger.Error("create reservation", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create reservation")
		return
	}

	h.hub.Broadcast(ws.NewMessage("reservation", "created", reservation.ID, map[string]any{
		"facility_id": reservation.FacilityID,
		"start_time":  reservation.StartTime,
		"end_time":    reservation.EndTime,
	}))

	writeData(w, http.StatusCreated, reservation)
}

// Cancel deletes a reservation. Only the owning user may cancel; a valid
// session for some other user is still rejected.
func (h *ReservationHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	ac, ok := auth.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid session token")
		return
	}

	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid reservation id")
		return
	}

	reservation, err := h.reservations.GetByID(id)
	if err != nil {
		h.logger.Error("get reservation", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to get reservation")
		return
	}
	if reservation == nil {
		writeError(w, http.StatusNotFound, "reservation not found")
		return
	}
	if reservation.UserID != ac.UserID {
		writeError(w, http.StatusUnauthorized, "reservation belongs to another user")
		return
	}

	if err := h.reservations.Delete(id); err != nil {
		h.logger.Error("delete reservation", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to cancel reservation")
		return
	}

	h.hub.Broadcast(ws.NewMessage("reservation", "cancelled", reservation.ID, map[string]any{
		"facility_id": reservation.FacilityID,
	}))

	writeData(w, http.StatusOK, reservation)
}
