package server

import (
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"reserva/internal/auth"
	"reserva/internal/handler"
	"reserva/internal/middleware"
	"reserva/internal/store"
	ws "reserva/internal/websocket"
)

type Server struct {
	db           *sql.DB
	hub          *ws.Hub
	sessions     *auth.SessionManager
	authH        *handler.AuthHandler
	locationH    *handler.LocationHandler
	facilityH    *handler.FacilityHandler
	userH        *handler.UserHandler
	reservationH *handler.ReservationHandler
	rateLimiter  *middleware.RateLimiter
	logger       *slog.Logger
}

func New(db *sql.DB, bcryptCost int, logger *slog.Logger) *Server {
	hub := ws.NewHub(logger.With("component", "websocket"))

	userStore := store.NewUserStore(db)
	locationStore := store.NewLocationStore(db)
	facilityStore := store.NewFacilityStore(db)
	reservationStore := store.NewReservationStore(db)

	sessions := auth.NewSessionManager(userStore, bcryptCost)

	return &Server{
		db:           db,
		hub:          hub,
		sessions:     sessions,
		authH:        handler.NewAuthHandler(sessions, logger.With("component", "auth")),
		locationH:    handler.NewLocationHandler(locationStore, logger.With("component", "location")),
		facilityH:    handler.NewFacilityHandler(facilityStore, locationStore, reservationStore, logger.With("component", "facility")),
		userH:        handler.NewUserHandler(userStore, reservationStore, logger.With("component", "user")),
		reservationH: handler.NewReservationHandler(reservationStore, facilityStore, hub, logger.With("component", "reservation")),
		rateLimiter:  middleware.NewRateLimiter(),
		logger:       logger,
	}
}

// RateLimiter returns the rate limiter for cleanup tasks.
func (s *Server) RateLimiter() *middleware.RateLimiter {
	return s.rateLimiter
}

func (s *Server) Router() http.Handler {
	mux := http.NewServeMux()

	// Account and session lifecycle
	mux.HandleFunc("POST /register", s.rateLimitedHandler(s.authH.Register))
	mux.HandleFunc("POST /login", s.rateLimitedHandler(s.authH.Login))
	mux.HandleFunc("POST /session", s.authH.Renew)

	// Browsing is open; only booking mutations require a session
	mux.HandleFunc("GET /api/locations", s.locationH.List)
	mux.HandleFunc("POST /api/locations", s.locationH.Create)
	mux.HandleFunc("GET /api/locations/{id}", s.locationH.Get)
	mux.HandleFunc("DELETE /api/locations/{id}", s.locationH.Delete)

	mux.HandleFunc("GET /api/locations/{id}/facilities", s.facilityH.ListByLocation)
	mux.HandleFunc("POST /api/locations/{id}/facilities", s.facilityH.Create)
	mux.HandleFunc("GET /api/locations/{id}/facilities/{facility_id}", s.facilityH.Get)
	mux.HandleFunc("DELETE /api/locations/{id}/facilities/{facility_id}", s.facilityH.Delete)

	mux.HandleFunc("GET /api/users/{id}", s.userH.Get)
	mux.HandleFunc("DELETE /api/users/{id}", s.userH.Delete)

	mux.HandleFunc("GET /api/facilities/{id}/reservations", s.reservationH.List)

	// Protected routes — wrapped with RequireAuth middleware
	requireAuth := middleware.RequireAuth(s.sessions)
	mux.Handle("POST /logout", requireAuth(http.HandlerFunc(s.authH.Logout)))
	mux.Handle("POST /api/facilities/{id}/reservations", requireAuth(http.HandlerFunc(s.reservationH.Create)))
	mux.Handle("DELETE /api/reservations/{id}", requireAuth(http.HandlerFunc(s.reservationH.Cancel)))

	// Live availability feed
	mux.HandleFunc("GET /ws", ws.HandleWebSocket(s.hub, s.logger.With("component", "websocket")))

	mux.HandleFunc("GET /health", s.healthHandler)

	return middleware.RequestLogger(s.logger.With("component", "http"))(mux)
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *Server) rateLimitedHandler(h http.HandlerFunc) http.HandlerFunc {
	keyFunc := func(r *http.Request) string {
		return middleware.RealIP(r)
	}
	rl := middleware.RateLimit(s.rateLimiter, keyFunc, 10, time.Minute)
	return func(w http.ResponseWriter, r *http.Request) {
		rl(http.HandlerFunc(h)).ServeHTTP(w, r)
	}
}
