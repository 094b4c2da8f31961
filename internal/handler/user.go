package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"reserva/internal/model"
	"reserva/internal/store"
)

type UserHandler struct {
	users        *store.UserStore
	reservations *store.ReservationStore
	logger       *slog.Logger
}

func NewUserHandler(us *store.UserStore, rs *store.ReservationStore, logger *slog.Logger) *UserHandler {
	return &UserHandler{users: us, reservations: rs, logger: logger}
}

// userPayload embeds the user's reservations. Tokens and the password
// digest are excluded by the model's json tags.
type userPayload struct {
	model.User
	Reservations []model.Reservation `json:"reservations"`
}

func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	user, err := h.users.GetByID(id)
	if err != nil {
		h.logger.Error("get user", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to get user")
		return
	}
	if user == nil {
		writeError(w, http.StatusNotFound, "user not found")
		return
	}

	reservations, err := h.reservations.ListByUser(id)
	if err != nil {
		h.logger.Error("list user reservations", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list reservations")
		return
	}
	if reservations == nil {
		reservations = []model.Reservation{}
	}

	writeData(w, http.StatusOK, userPayload{User: *user, Reservations: reservations})
}

// Delete is an administrative operation; users with live reservations are
// protected until those are cancelled.
func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	user, err := h.users.GetByID(id)
	if err != nil {
		h.logger.Error("get user", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to get user")
		return
	}
	if user == nil {
		writeError(w, http.StatusNotFound, "user not found")
		return
	}

	if err := h.users.Delete(id); err != nil {
		if errors.Is(err, store.ErrInUse) {
			writeError(w, http.StatusConflict, "user still has reservations")
			return
		}
		h.logger.Error("delete user", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to delete user")
		return
	}

	writeData(w, http.StatusOK, user)
}
