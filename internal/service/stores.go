package service

import (
	"context"
	"time"

	"cloud.google.com/go/civil"

	"deskhub/internal/db"
	"deskhub/internal/entities"
)

// SpaceStore is implemented by repository.SpaceRepository.
type SpaceStore interface {
	GetSpace(ctx context.Context, id int) (*db.Space, error)
	CreateSpace(ctx context.Context, s *db.Space) error
	UpdateSpace(ctx context.Context, s *db.Space) error
	DeleteSpace(ctx context.Context, id int) error
	SearchSpaces(ctx context.Context, f entities.SpaceFilter) ([]db.Space, int64, error)
}

// BookingStore is implemented by repository.BookingRepository.
type BookingStore interface {
	ListActiveBookings(ctx context.Context, spaceID int, from civil.Date) ([]db.Booking, error)
	CreateIfAvailable(ctx context.Context, b *db.Booking, check func(existing []db.Booking) error) error
	GetByCode(ctx context.Context, code string) (*db.Booking, error)
	GetByStripeSessionID(ctx context.Context, sessionID string) (*db.Booking, error)
	GetByPaymentIntentID(ctx context.Context, paymentIntentID string) (*db.Booking, error)
	SetStripeSession(ctx context.Context, id int, sessionID string) error
	UpdateStatus(ctx context.Context, id int, status db.BookingStatus, paymentStatus string) error
	Confirm(ctx context.Context, id int, paymentIntentID string) error
	ListBookings(ctx context.Context, f entities.BookingFilter) ([]db.Booking, int64, error)
}

// JobStore is implemented by repository.JobRepository.
type JobStore interface {
	CancelStalePending(ctx context.Context, cutoff time.Time) ([]int, error)
}

// Actor is the authenticated caller of an operation.
type Actor struct {
	ID   int
	Role db.Role
}

func (a Actor) IsAdmin() bool {
	return a.Role == db.RoleAdmin
}

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

func clampPage(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
