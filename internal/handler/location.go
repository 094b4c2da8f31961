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

type LocationHandler struct {
	locations *store.LocationStore
	logger    *slog.Logger
}

func NewLocationHandler(ls *store.LocationStore, logger *slog.Logger) *LocationHandler {
	return &LocationHandler{locations: ls, logger: logger}
}

type locationRequest struct {
	Code         string `json:"code"`
	Name         string `json:"name"`
	Address      string `json:"address"`
	WeekdayOpen  string `json:"weekday_open"`
	WeekdayClose string `json:"weekday_close"`
	WeekendOpen  string `json:"weekend_open"`
	WeekendClose string `json:"weekend_close"`
}

func (h *LocationHandler) List(w http.ResponseWriter, r *http.Request) {
	locations, err := h.locations.List()
	if err != nil {
		h.logger.Error("list locations", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list locations")
		return
	}
	if locations == nil {
		locations = []model.Location{}
	}
	writeData(w, http.StatusOK, locations)
}

func (h *LocationHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req locationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	fields := []*string{&req.Code, &req.Name, &req.Address,
		&req.WeekdayOpen, &req.WeekdayClose, &req.WeekendOpen, &req.WeekendClose}
	for _, f := range fields {
		*f = strings.TrimSpace(*f)
		if *f == "" {
			writeError(w, http.StatusBadRequest,
				"code, name, address, and all four operating times are required")
			return
		}
	}

	location, err := h.locations.Create(req.Code, req.Name, req.Address,
		req.WeekdayOpen, req.WeekdayClose, req.WeekendOpen, req.WeekendClose)
	if err != nil {
		h.logger.Error("create location", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create location")
		return
	}

	writeData(w, http.StatusCreated, location)
}

func (h *LocationHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	location, err := h.locations.GetByID(id)
	if err != nil {
		h.logger.Error("get location", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to get location")
		return
	}
	if location == nil {
		writeError(w, http.StatusNotFound, "location not found")
		return
	}

	writeData(w, http.StatusOK, location)
}

// Delete removes an empty location. Locations that still own facilities are
// protected: delete the facilities first.
func (h *LocationHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	location, err := h.locations.GetByID(id)
	if err != nil {
		h.logger.Error("get location", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to get location")
		return
	}
	if location == nil {
		writeError(w, http.StatusNotFound, "location not found")
		return
	}

	if err := h.locations.Delete(id); err != nil {
		if errors.Is(err, store.ErrInUse) {
			writeError(w, http.StatusConflict, "location still has facilities")
			return
		}
		h.logger.Error("delete location", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to delete location")
		return
	}

	writeData(w, http.StatusOK, location)
}
