package entities

import (
	"cloud.google.com/go/civil"

	"deskhub/internal/db"
)

// AvailabilityView is what the booking date picker needs: the weekly hours to
// display and the days that must be disabled.
type AvailabilityView struct {
	SpaceID          int                   `json:"spaceId"`
	Availability     db.WeeklyAvailability `json:"availability"`
	UnavailableDates []civil.Date          `json:"unavailableDates"`
}

type AvailabilityCheckResponse struct {
	Available bool   `json:"available"`
	Message   string `json:"message,omitempty"`
}
