package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"deskhub/internal/entities"
	apperrors "deskhub/internal/errors"
	"deskhub/internal/service"
)

type BookingHandler struct {
	Service *service.BookingService
}

func NewBookingHandler(svc *service.BookingService) *BookingHandler {
	return &BookingHandler{Service: svc}
}

type CreateBookingRequest struct {
	SpaceID   int    `json:"spaceId" validate:"required,gt=0"`
	UserName  string `json:"userName" validate:"required"`
	UserEmail string `json:"userEmail" validate:"required,email"`
	UserPhone string `json:"userPhone"`
	StartDate string `json:"startDate" validate:"required"`
	EndDate   string `json:"endDate" validate:"required"`
}

func (h *BookingHandler) CreateBooking(w http.ResponseWriter, r *http.Request) {
	var req CreateBookingRequest
	if err := decodeJSON(r, &req); err != nil {
		apperrors.Write(w, err)
		return
	}
	start, end, err := parseDateRange(req.StartDate, req.EndDate)
	if err != nil {
		apperrors.Write(w, err)
		return
	}

	resp, err := h.Service.CreateBooking(r.Context(), actorFrom(r).ID, entities.BookingRequest{
		SpaceID:   req.SpaceID,
		UserName:  req.UserName,
		UserEmail: req.UserEmail,
		UserPhone: req.UserPhone,
		StartDate: start,
		EndDate:   end,
	})
	if err != nil {
		apperrors.Write(w, err)
		return
	}
	apperrors.WriteJSON(w, http.StatusCreated, resp)
}

func (h *BookingHandler) ListMyBookings(w http.ResponseWriter, r *http.Request) {
	limit, offset, err := paging(r)
	if err != nil {
		apperrors.Write(w, err)
		return
	}
	list, err := h.Service.ListUserBookings(r.Context(), actorFrom(r).ID, limit, offset)
	if err != nil {
		apperrors.Write(w, err)
		return
	}
	apperrors.WriteJSON(w, http.StatusOK, list)
}

func (h *BookingHandler) ListHostBookings(w http.ResponseWriter, r *http.Request) {
	limit, offset, err := paging(r)
	if err != nil {
		apperrors.Write(w, err)
		return
	}
	list, err := h.Service.ListHostBookings(r.Context(), actorFrom(r).ID, limit, offset)
	if err != nil {
		apperrors.Write(w, err)
		return
	}
	apperrors.WriteJSON(w, http.StatusOK, list)
}

func (h *BookingHandler) GetBooking(w http.ResponseWriter, r *http.Request) {
	resp, err := h.Service.GetBooking(r.Context(), actorFrom(r), mux.Vars(r)["code"])
	if err != nil {
		apperrors.Write(w, err)
		return
	}
	apperrors.WriteJSON(w, http.StatusOK, resp)
}

func (h *BookingHandler) CancelBooking(w http.ResponseWriter, r *http.Request) {
	if err := h.Service.CancelBooking(r.Context(), actorFrom(r), mux.Vars(r)["code"]); err != nil {
		apperrors.Write(w, err)
		return
	}
	apperrors.WriteJSON(w, http.StatusOK, map[string]string{"message": "Booking cancelled"})
}

// GetBookingBySession serves the checkout success page.
func (h *BookingHandler) GetBookingBySession(w http.ResponseWriter, r *http.Request) {
	sessionID := r.URL.Query().Get("session_id")
	if sessionID == "" {
		apperrors.Write(w, apperrors.ErrBadRequest("session_id required"))
		return
	}
	resp, err := h.Service.GetBySessionID(r.Context(), sessionID)
	if err != nil {
		apperrors.Write(w, err)
		return
	}
	apperrors.WriteJSON(w, http.StatusOK, resp)
}
