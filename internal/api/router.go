package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"deskhub/internal/auth"
	apperrors "deskhub/internal/errors"
)

type Handlers struct {
	Auth     *AuthHandler
	Spaces   *SpaceHandler
	Bookings *BookingHandler
	Admin    *AdminHandler
	Stripe   *StripeWebhookHandler
}

func health(w http.ResponseWriter, r *http.Request) {
	apperrors.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func NewRouter(h Handlers, tokens *auth.TokenManager) *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/healthz", health).Methods("GET")

	// Public endpoints
	r.HandleFunc("/api/auth/register", h.Auth.Register).Methods("POST")
	r.HandleFunc("/api/auth/login", h.Auth.Login).Methods("POST")
	r.HandleFunc("/api/spaces", h.Spaces.SearchSpaces).Methods("GET")
	r.HandleFunc("/api/spaces/{id}", h.Spaces.GetSpace).Methods("GET")
	r.HandleFunc("/api/spaces/{id}/availability", h.Spaces.GetAvailability).Methods("GET")
	r.HandleFunc("/api/spaces/{id}/availability/check", h.Spaces.CheckAvailability).Methods("POST")
	r.HandleFunc("/api/bookings/session", h.Bookings.GetBookingBySession).Methods("GET")
	r.HandleFunc("/api/stripe/webhook", h.Stripe.HandleWebhook).Methods("POST")

	// Authenticated endpoints
	user := r.PathPrefix("/api").Subrouter()
	user.Use(tokens.RequireUser)
	user.HandleFunc("/spaces", h.Spaces.CreateSpace).Methods("POST")
	user.HandleFunc("/spaces/{id}", h.Spaces.UpdateSpace).Methods("PUT")
	user.HandleFunc("/spaces/{id}", h.Spaces.DeleteSpace).Methods("DELETE")
	user.HandleFunc("/bookings", h.Bookings.CreateBooking).Methods("POST")
	user.HandleFunc("/bookings", h.Bookings.ListMyBookings).Methods("GET")
	user.HandleFunc("/host/bookings", h.Bookings.ListHostBookings).Methods("GET")
	user.HandleFunc("/bookings/{code}", h.Bookings.GetBooking).Methods("GET")
	user.HandleFunc("/bookings/{code}", h.Bookings.CancelBooking).Methods("DELETE")

	// Admin endpoints
	admin := r.PathPrefix("/admin").Subrouter()
	admin.Use(tokens.RequireUser, auth.RequireAdmin)
	admin.HandleFunc("/bookings", h.Admin.ListBookings).Methods("GET")
	admin.HandleFunc("/bookings/{code}", h.Admin.CancelBooking).Methods("DELETE")

	return r
}
