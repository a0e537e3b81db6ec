package entities

import (
	"time"

	"cloud.google.com/go/civil"

	"deskhub/internal/db"
)

type BookingResponse struct {
	Code          string           `json:"code"`
	SpaceID       int              `json:"spaceId"`
	UserName      string           `json:"userName"`
	UserEmail     string           `json:"userEmail"`
	UserPhone     string           `json:"userPhone"`
	StartDate     civil.Date       `json:"startDate"`
	EndDate       civil.Date       `json:"endDate"`
	Status        db.BookingStatus `json:"status"`
	TotalPrice    int64            `json:"totalPrice"`
	Currency      string           `json:"currency"`
	PaymentStatus string           `json:"paymentStatus"`
	CreatedAt     time.Time        `json:"createdAt"`
	UpdatedAt     time.Time        `json:"updatedAt"`
}

// NewBookingResponse reports the effective status as of today.
func NewBookingResponse(b db.Booking, today civil.Date) BookingResponse {
	return BookingResponse{
		Code:          b.Code,
		SpaceID:       b.SpaceID,
		UserName:      b.UserName,
		UserEmail:     b.UserEmail,
		UserPhone:     b.UserPhone,
		StartDate:     b.StartDate,
		EndDate:       b.EndDate,
		Status:        b.EffectiveStatus(today),
		TotalPrice:    b.TotalPrice,
		Currency:      b.Currency,
		PaymentStatus: b.PaymentStatus,
		CreatedAt:     b.CreatedAt,
		UpdatedAt:     b.UpdatedAt,
	}
}

type CheckoutResponse struct {
	Code      string `json:"code"`
	URL       string `json:"url"`
	SessionID string `json:"sessionId"`
}
