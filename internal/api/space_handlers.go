package api

import (
	"net/http"

	"deskhub/internal/db"
	"deskhub/internal/entities"
	apperrors "deskhub/internal/errors"
	"deskhub/internal/service"
	"deskhub/internal/utils"
)

type SpaceHandler struct {
	Spaces       *service.SpaceService
	Availability *service.AvailabilityService
}

func NewSpaceHandler(spaces *service.SpaceService, availability *service.AvailabilityService) *SpaceHandler {
	return &SpaceHandler{Spaces: spaces, Availability: availability}
}

type SpaceRequest struct {
	Title         string                `json:"title" validate:"required"`
	Description   string                `json:"description"`
	WorkspaceType string                `json:"workspaceType" validate:"required"`
	Address       string                `json:"address"`
	City          string                `json:"city"`
	Latitude      float64               `json:"latitude" validate:"gte=-90,lte=90"`
	Longitude     float64               `json:"longitude" validate:"gte=-180,lte=180"`
	Capacity      int                   `json:"capacity" validate:"gte=0"`
	PricePerDay   int64                 `json:"pricePerDay" validate:"gte=0"`
	Currency      string                `json:"currency" validate:"omitempty,len=3"`
	Amenities     []string              `json:"amenities"`
	Availability  db.WeeklyAvailability `json:"availability"`
	Details       db.Details            `json:"details"`
}

func (req SpaceRequest) toSpace() (*db.Space, error) {
	wt, err := utils.ParseWorkspaceType(req.WorkspaceType)
	if err != nil {
		return nil, apperrors.ErrBadRequest(err.Error())
	}
	return &db.Space{
		Title:         req.Title,
		Description:   req.Description,
		WorkspaceType: wt,
		Address:       req.Address,
		City:          req.City,
		Latitude:      req.Latitude,
		Longitude:     req.Longitude,
		Capacity:      req.Capacity,
		PricePerDay:   req.PricePerDay,
		Currency:      req.Currency,
		Amenities:     req.Amenities,
		Availability:  req.Availability,
		Details:       req.Details,
	}, nil
}

type AvailabilityCheckRequest struct {
	StartDate string `json:"startDate" validate:"required"`
	EndDate   string `json:"endDate" validate:"required"`
}

func (h *SpaceHandler) SearchSpaces(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var f entities.SpaceFilter
	var err error

	if t := q.Get("type"); t != "" {
		if f.WorkspaceType, err = utils.ParseWorkspaceType(t); err != nil {
			apperrors.Write(w, apperrors.ErrBadRequest(err.Error()))
			return
		}
	}
	f.City = q.Get("city")
	if f.MinCapacity, err = queryInt(r, "min_capacity"); err != nil {
		apperrors.Write(w, err)
		return
	}
	maxPrice, err := queryInt(r, "max_price")
	if err != nil {
		apperrors.Write(w, err)
		return
	}
	f.MaxPrice = int64(maxPrice)
	if f.FreeFrom, err = queryDate(r, "start_date"); err != nil {
		apperrors.Write(w, err)
		return
	}
	if f.FreeTo, err = queryDate(r, "end_date"); err != nil {
		apperrors.Write(w, err)
		return
	}
	if f.Limit, f.Offset, err = paging(r); err != nil {
		apperrors.Write(w, err)
		return
	}

	list, err := h.Spaces.SearchSpaces(r.Context(), f)
	if err != nil {
		apperrors.Write(w, err)
		return
	}
	apperrors.WriteJSON(w, http.StatusOK, list)
}

func (h *SpaceHandler) GetSpace(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		apperrors.Write(w, err)
		return
	}
	space, err := h.Spaces.GetSpace(r.Context(), id)
	if err != nil {
		apperrors.Write(w, err)
		return
	}
	apperrors.WriteJSON(w, http.StatusOK, space)
}

func (h *SpaceHandler) CreateSpace(w http.ResponseWriter, r *http.Request) {
	var req SpaceRequest
	if err := decodeJSON(r, &req); err != nil {
		apperrors.Write(w, err)
		return
	}
	space, err := req.toSpace()
	if err != nil {
		apperrors.Write(w, err)
		return
	}
	if err := h.Spaces.CreateSpace(r.Context(), actorFrom(r), space); err != nil {
		apperrors.Write(w, err)
		return
	}
	apperrors.WriteJSON(w, http.StatusCreated, space)
}

func (h *SpaceHandler) UpdateSpace(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		apperrors.Write(w, err)
		return
	}
	var req SpaceRequest
	if err := decodeJSON(r, &req); err != nil {
		apperrors.Write(w, err)
		return
	}
	space, err := req.toSpace()
	if err != nil {
		apperrors.Write(w, err)
		return
	}
	if err := h.Spaces.UpdateSpace(r.Context(), actorFrom(r), id, space); err != nil {
		apperrors.Write(w, err)
		return
	}
	apperrors.WriteJSON(w, http.StatusOK, space)
}

func (h *SpaceHandler) DeleteSpace(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		apperrors.Write(w, err)
		return
	}
	if err := h.Spaces.DeleteSpace(r.Context(), actorFrom(r), id); err != nil {
		apperrors.Write(w, err)
		return
	}
	apperrors.WriteJSON(w, http.StatusOK, map[string]string{"message": "Space deleted"})
}

// GetAvailability returns the weekly hours and the blocked dates of a space.
func (h *SpaceHandler) GetAvailability(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		apperrors.Write(w, err)
		return
	}
	view, err := h.Availability.UnavailableDates(r.Context(), id)
	if err != nil {
		apperrors.Write(w, err)
		return
	}
	apperrors.WriteJSON(w, http.StatusOK, view)
}

func (h *SpaceHandler) CheckAvailability(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		apperrors.Write(w, err)
		return
	}
	var req AvailabilityCheckRequest
	if err := decodeJSON(r, &req); err != nil {
		apperrors.Write(w, err)
		return
	}
	start, end, err := parseDateRange(req.StartDate, req.EndDate)
	if err != nil {
		apperrors.Write(w, err)
		return
	}
	verdict, err := h.Availability.ValidateBookingRange(r.Context(), id, start, end)
	if err != nil {
		apperrors.Write(w, err)
		return
	}
	resp := entities.AvailabilityCheckResponse{Available: verdict == service.VerdictOK}
	if !resp.Available {
		resp.Message = service.ErrBookingConflict.Message
	}
	apperrors.WriteJSON(w, http.StatusOK, resp)
}
