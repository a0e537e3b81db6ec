package service

import (
	"context"

	"deskhub/internal/db"
	"deskhub/internal/entities"
)

// AdminService exposes booking management across all spaces.
type AdminService struct {
	bookings *BookingService
}

func NewAdminService(bookings *BookingService) *AdminService {
	return &AdminService{bookings: bookings}
}

func (s *AdminService) ListBookings(ctx context.Context, f entities.BookingFilter) (*entities.BookingsList, error) {
	return s.bookings.ListBookings(ctx, f)
}

func (s *AdminService) CancelBooking(ctx context.Context, adminID int, code string) error {
	return s.bookings.CancelBooking(ctx, Actor{ID: adminID, Role: db.RoleAdmin}, code)
}
