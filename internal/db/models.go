package db

import (
	"time"

	"cloud.google.com/go/civil"
)

type WorkspaceType string

const (
	WorkspaceDesk          WorkspaceType = "desk"
	WorkspacePrivateOffice WorkspaceType = "private_office"
	WorkspaceMeetingRoom   WorkspaceType = "meeting_room"
	WorkspaceCoworking     WorkspaceType = "coworking"
)

func (t WorkspaceType) Valid() bool {
	switch t {
	case WorkspaceDesk, WorkspacePrivateOffice, WorkspaceMeetingRoom, WorkspaceCoworking:
		return true
	}
	return false
}

type BookingStatus string

const (
	BookingPending   BookingStatus = "PENDING"
	BookingConfirmed BookingStatus = "CONFIRMED"
	BookingCancelled BookingStatus = "CANCELLED"
	// BookingCompleted is never stored; see Booking.EffectiveStatus.
	BookingCompleted BookingStatus = "COMPLETED"
)

// ActiveBookingStatuses are the statuses that block dates.
var ActiveBookingStatuses = []BookingStatus{BookingPending, BookingConfirmed}

func (s BookingStatus) Active() bool {
	return s == BookingPending || s == BookingConfirmed
}

const (
	PaymentPending   = "pending"
	PaymentSucceeded = "succeeded"
	PaymentRefunded  = "refunded"
)

type Role string

const (
	RoleRenter Role = "renter"
	RoleHost   Role = "host"
	RoleAdmin  Role = "admin"
)

type Account struct {
	ID           int       `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	FullName     string    `json:"fullName"`
	Phone        string    `json:"phone"`
	Role         Role      `json:"role"`
	CreatedAt    time.Time `json:"createdAt"`
}

type Space struct {
	ID            int                `json:"id"`
	HostID        int                `json:"hostId"`
	Title         string             `json:"title"`
	Description   string             `json:"description"`
	WorkspaceType WorkspaceType      `json:"workspaceType"`
	Address       string             `json:"address"`
	City          string             `json:"city"`
	Latitude      float64            `json:"latitude"`
	Longitude     float64            `json:"longitude"`
	Capacity      int                `json:"capacity"`
	PricePerDay   int64              `json:"pricePerDay"`
	Currency      string             `json:"currency"`
	Amenities     []string           `json:"amenities"`
	Availability  WeeklyAvailability `json:"availability"`
	Details       Details            `json:"details"`
	CreatedAt     time.Time          `json:"createdAt"`
	UpdatedAt     time.Time          `json:"updatedAt"`
}

type Booking struct {
	ID                    int
	Code                  string
	SpaceID               int
	UserID                int
	UserName              string
	UserEmail             string
	UserPhone             string
	StartDate             civil.Date
	EndDate               civil.Date
	Status                BookingStatus
	TotalPrice            int64
	Currency              string
	StripeSessionID       string
	StripePaymentIntentID string
	PaymentStatus         string
	CreatedAt             time.Time
	UpdatedAt             time.Time
}

// EffectiveStatus reports COMPLETED for a confirmed booking whose last day is
// before today; otherwise the stored status.
func (b Booking) EffectiveStatus(today civil.Date) BookingStatus {
	if b.Status == BookingConfirmed && b.EndDate.Before(today) {
		return BookingCompleted
	}
	return b.Status
}

// Dates enumerates every calendar day of the booking, end date included.
func (b Booking) Dates() []civil.Date {
	if b.EndDate.Before(b.StartDate) {
		return nil
	}
	days := make([]civil.Date, 0, b.EndDate.DaysSince(b.StartDate)+1)
	for d := b.StartDate; !d.After(b.EndDate); d = d.AddDays(1) {
		days = append(days, d)
	}
	return days
}
