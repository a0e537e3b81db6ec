package api

import (
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"deskhub/internal/db"
	"deskhub/internal/entities"
	apperrors "deskhub/internal/errors"
	"deskhub/internal/service"
)

type AdminHandler struct {
	Service *service.AdminService
}

func NewAdminHandler(svc *service.AdminService) *AdminHandler {
	return &AdminHandler{Service: svc}
}

// ListBookings accepts status, space_id, from and to filters plus paging.
func (h *AdminHandler) ListBookings(w http.ResponseWriter, r *http.Request) {
	var f entities.BookingFilter
	var err error

	if status := strings.ToUpper(r.URL.Query().Get("status")); status != "" {
		switch db.BookingStatus(status) {
		case db.BookingPending, db.BookingConfirmed, db.BookingCancelled:
			f.Status = db.BookingStatus(status)
		default:
			apperrors.Write(w, apperrors.ErrBadRequest("status must be one of PENDING, CONFIRMED, CANCELLED"))
			return
		}
	}
	if f.SpaceID, err = queryInt(r, "space_id"); err != nil {
		apperrors.Write(w, err)
		return
	}
	if f.From, err = queryDate(r, "from"); err != nil {
		apperrors.Write(w, err)
		return
	}
	if f.To, err = queryDate(r, "to"); err != nil {
		apperrors.Write(w, err)
		return
	}
	if f.Limit, f.Offset, err = paging(r); err != nil {
		apperrors.Write(w, err)
		return
	}

	list, err := h.Service.ListBookings(r.Context(), f)
	if err != nil {
		apperrors.Write(w, err)
		return
	}
	apperrors.WriteJSON(w, http.StatusOK, list)
}

func (h *AdminHandler) CancelBooking(w http.ResponseWriter, r *http.Request) {
	if err := h.Service.CancelBooking(r.Context(), actorFrom(r).ID, mux.Vars(r)["code"]); err != nil {
		apperrors.Write(w, err)
		return
	}
	apperrors.WriteJSON(w, http.StatusOK, map[string]string{"message": "Booking cancelled"})
}
