package entities

import (
	"cloud.google.com/go/civil"

	"deskhub/internal/db"
)

type BookingFilter struct {
	SpaceID int
	UserID  int
	HostID  int
	Status  db.BookingStatus
	From    *civil.Date // bookings ending on or after
	To      *civil.Date // bookings starting on or before
	Limit   int
	Offset  int
}

type BookingsList struct {
	Total    int64             `json:"total"`
	Limit    int               `json:"limit"`
	Offset   int               `json:"offset"`
	Bookings []BookingResponse `json:"bookings"`
}
