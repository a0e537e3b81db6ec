package entities

import "cloud.google.com/go/civil"

type BookingRequest struct {
	SpaceID   int
	UserName  string
	UserEmail string
	UserPhone string
	StartDate civil.Date
	EndDate   civil.Date
}
