package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"cloud.google.com/go/civil"
	"github.com/google/uuid"

	"deskhub/internal/db"
	"deskhub/internal/entities"
	"deskhub/internal/repository"
	"deskhub/internal/utils"
)

type BookingService struct {
	Spaces       SpaceStore
	Bookings     BookingStore
	Availability *AvailabilityService
	Payments     PaymentGateway
	Notifier     Notifier
	Now          func() time.Time
	NewCode      func() string
}

func NewBookingService(spaces SpaceStore, bookings BookingStore, availability *AvailabilityService, payments PaymentGateway, notifier Notifier) *BookingService {
	return &BookingService{
		Spaces:       spaces,
		Bookings:     bookings,
		Availability: availability,
		Payments:     payments,
		Notifier:     notifier,
		Now:          time.Now,
		NewCode:      uuid.NewString,
	}
}

func (s *BookingService) today() civil.Date {
	return utils.Today(s.Now())
}

// CreateBooking reserves the requested dates as PENDING and opens a checkout
// session for the total price.
func (s *BookingService) CreateBooking(ctx context.Context, userID int, req entities.BookingRequest) (*entities.CheckoutResponse, error) {
	if req.EndDate.Before(req.StartDate) {
		return nil, ErrInvalidRange
	}
	if req.StartDate.Before(s.today()) {
		return nil, ErrStartInPast
	}

	space, err := s.Spaces.GetSpace(ctx, req.SpaceID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrSpaceNotFound
		}
		return nil, fmt.Errorf("loading space %d: %w", req.SpaceID, err)
	}

	booking := &db.Booking{
		Code:          s.NewCode(),
		SpaceID:       space.ID,
		UserID:        userID,
		UserName:      req.UserName,
		UserEmail:     req.UserEmail,
		UserPhone:     req.UserPhone,
		StartDate:     req.StartDate,
		EndDate:       req.EndDate,
		Status:        db.BookingPending,
		TotalPrice:    space.PricePerDay * int64(utils.DaysInclusive(req.StartDate, req.EndDate)),
		Currency:      space.Currency,
		PaymentStatus: db.PaymentPending,
	}

	err = s.Bookings.CreateIfAvailable(ctx, booking, func(existing []db.Booking) error {
		if c := FindConflict(existing, req.StartDate, req.EndDate); c != nil {
			log.Printf("Booking request %s..%s on space %d overlaps booking %s", req.StartDate, req.EndDate, space.ID, c.Code)
			return ErrBookingConflict
		}
		return nil
	})
	switch {
	case err == nil:
	case errors.Is(err, repository.ErrConflict):
		return nil, ErrBookingConflict
	case errors.Is(err, repository.ErrNotFound):
		return nil, ErrSpaceNotFound
	default:
		return nil, err
	}
	s.Availability.Invalidate(ctx, space.ID)

	checkout, err := s.Payments.CreateCheckoutSession(ctx, CheckoutRequest{
		Amount:        booking.TotalPrice,
		Currency:      booking.Currency,
		Description:   fmt.Sprintf("%s (%s to %s)", space.Title, booking.StartDate, booking.EndDate),
		CustomerEmail: booking.UserEmail,
		BookingCode:   booking.Code,
	})
	if err != nil {
		s.release(ctx, booking)
		return nil, fmt.Errorf("creating checkout session for booking %s: %w", booking.Code, err)
	}
	if err := s.Bookings.SetStripeSession(ctx, booking.ID, checkout.ID); err != nil {
		s.release(ctx, booking)
		return nil, err
	}

	log.Printf("Booking %s created for space %d (%s..%s)", booking.Code, space.ID, booking.StartDate, booking.EndDate)
	return &entities.CheckoutResponse{
		Code:      booking.Code,
		URL:       checkout.URL,
		SessionID: checkout.ID,
	}, nil
}

// release frees the dates of a booking whose checkout could not be started.
func (s *BookingService) release(ctx context.Context, b *db.Booking) {
	if err := s.Bookings.UpdateStatus(ctx, b.ID, db.BookingCancelled, ""); err != nil {
		log.Printf("ALERT: could not release booking %s: %v", b.Code, err)
	}
	s.Availability.Invalidate(ctx, b.SpaceID)
}

func (s *BookingService) getByCode(ctx context.Context, code string) (*db.Booking, error) {
	b, err := s.Bookings.GetByCode(ctx, code)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrBookingNotFound
		}
		return nil, err
	}
	return b, nil
}

// GetBooking returns a booking of the caller. Bookings of other users are
// reported as not found unless the caller is an admin.
func (s *BookingService) GetBooking(ctx context.Context, actor Actor, code string) (*entities.BookingResponse, error) {
	b, err := s.getByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if b.UserID != actor.ID && !actor.IsAdmin() {
		return nil, ErrBookingNotFound
	}
	resp := entities.NewBookingResponse(*b, s.today())
	return &resp, nil
}

func (s *BookingService) GetBySessionID(ctx context.Context, sessionID string) (*entities.BookingResponse, error) {
	b, err := s.Bookings.GetByStripeSessionID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrBookingNotFound
		}
		return nil, err
	}
	resp := entities.NewBookingResponse(*b, s.today())
	return &resp, nil
}

// ListBookings pages through bookings. Limit defaults to 20 and is capped at 100.
func (s *BookingService) ListBookings(ctx context.Context, f entities.BookingFilter) (*entities.BookingsList, error) {
	f.Limit, f.Offset = clampPage(f.Limit, f.Offset)
	bookings, total, err := s.Bookings.ListBookings(ctx, f)
	if err != nil {
		return nil, err
	}
	today := s.today()
	list := &entities.BookingsList{
		Total:    total,
		Limit:    f.Limit,
		Offset:   f.Offset,
		Bookings: make([]entities.BookingResponse, 0, len(bookings)),
	}
	for _, b := range bookings {
		list.Bookings = append(list.Bookings, entities.NewBookingResponse(b, today))
	}
	return list, nil
}

func (s *BookingService) ListUserBookings(ctx context.Context, userID, limit, offset int) (*entities.BookingsList, error) {
	return s.ListBookings(ctx, entities.BookingFilter{UserID: userID, Limit: limit, Offset: offset})
}

func (s *BookingService) ListHostBookings(ctx context.Context, hostID, limit, offset int) (*entities.BookingsList, error) {
	return s.ListBookings(ctx, entities.BookingFilter{HostID: hostID, Limit: limit, Offset: offset})
}

// CancelBooking cancels a PENDING or CONFIRMED booking that has not ended yet,
// refunding it when the payment went through. Only the renter or an admin may
// cancel.
func (s *BookingService) CancelBooking(ctx context.Context, actor Actor, code string) error {
	b, err := s.getByCode(ctx, code)
	if err != nil {
		return err
	}
	if b.UserID != actor.ID && !actor.IsAdmin() {
		return ErrBookingNotFound
	}
	if !b.Status.Active() || b.EndDate.Before(s.today()) {
		return ErrNotCancellable
	}

	paymentStatus := ""
	if b.PaymentStatus == db.PaymentSucceeded {
		if err := s.Payments.RefundPayment(ctx, b.StripePaymentIntentID, b.StripeSessionID); err != nil {
			return fmt.Errorf("refunding booking %s: %w", b.Code, err)
		}
		paymentStatus = db.PaymentRefunded
	}

	if err := s.Bookings.UpdateStatus(ctx, b.ID, db.BookingCancelled, paymentStatus); err != nil {
		return err
	}
	s.Availability.Invalidate(ctx, b.SpaceID)
	log.Printf("Booking %s cancelled by user %d", b.Code, actor.ID)
	s.notify(ctx, *b, db.BookingCancelled)
	return nil
}

// ConfirmBySession marks the booking paid through a checkout session as
// CONFIRMED. Repeated deliveries for a confirmed booking are ignored. A payment
// for a booking that was already cancelled is refunded.
func (s *BookingService) ConfirmBySession(ctx context.Context, sessionID, paymentIntentID string) error {
	b, err := s.Bookings.GetByStripeSessionID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrBookingNotFound
		}
		return err
	}

	if b.Status == db.BookingPending {
		err := s.Bookings.Confirm(ctx, b.ID, paymentIntentID)
		if err == nil {
			log.Printf("Booking %s confirmed", b.Code)
			s.notify(ctx, *b, db.BookingConfirmed)
			return nil
		}
		if !errors.Is(err, repository.ErrNotFound) {
			return err
		}
		// The booking left PENDING after it was read, e.g. the expiry job ran.
		if b, err = s.Bookings.GetByStripeSessionID(ctx, sessionID); err != nil {
			return err
		}
	}
	return s.settlePayment(ctx, b, sessionID, paymentIntentID)
}

// settlePayment handles a completed checkout for a booking that is no longer
// PENDING.
func (s *BookingService) settlePayment(ctx context.Context, b *db.Booking, sessionID, paymentIntentID string) error {
	switch b.Status {
	case db.BookingConfirmed:
		return nil
	case db.BookingCancelled:
		if b.PaymentStatus == db.PaymentRefunded {
			return nil
		}
		log.Printf("Checkout %s completed for cancelled booking %s, refunding", sessionID, b.Code)
		if err := s.Payments.RefundPayment(ctx, paymentIntentID, sessionID); err != nil {
			return fmt.Errorf("refunding late payment for booking %s: %w", b.Code, err)
		}
		return s.Bookings.UpdateStatus(ctx, b.ID, db.BookingCancelled, db.PaymentRefunded)
	}
	return fmt.Errorf("booking %s could not be confirmed from status %s", b.Code, b.Status)
}

// ExpireBySession releases a PENDING booking whose checkout session expired
// without payment.
func (s *BookingService) ExpireBySession(ctx context.Context, sessionID string) error {
	b, err := s.Bookings.GetByStripeSessionID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrBookingNotFound
		}
		return err
	}
	if b.Status != db.BookingPending {
		return nil
	}
	if err := s.Bookings.UpdateStatus(ctx, b.ID, db.BookingCancelled, ""); err != nil {
		return err
	}
	s.Availability.Invalidate(ctx, b.SpaceID)
	log.Printf("Booking %s released after checkout %s expired", b.Code, sessionID)
	return nil
}

// CancelByPaymentIntent handles a refund issued outside of CancelBooking.
func (s *BookingService) CancelByPaymentIntent(ctx context.Context, paymentIntentID string) error {
	b, err := s.Bookings.GetByPaymentIntentID(ctx, paymentIntentID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrBookingNotFound
		}
		return err
	}
	if b.Status == db.BookingCancelled {
		if b.PaymentStatus != db.PaymentRefunded {
			return s.Bookings.UpdateStatus(ctx, b.ID, db.BookingCancelled, db.PaymentRefunded)
		}
		return nil
	}
	if err := s.Bookings.UpdateStatus(ctx, b.ID, db.BookingCancelled, db.PaymentRefunded); err != nil {
		return err
	}
	s.Availability.Invalidate(ctx, b.SpaceID)
	log.Printf("Booking %s cancelled after refund of %s", b.Code, paymentIntentID)
	s.notify(ctx, *b, db.BookingCancelled)
	return nil
}

func (s *BookingService) notify(ctx context.Context, b db.Booking, status db.BookingStatus) {
	if s.Notifier == nil {
		return
	}
	space, err := s.Spaces.GetSpace(ctx, b.SpaceID)
	if err != nil {
		log.Printf("Could not load space %d for booking %s notification: %v", b.SpaceID, b.Code, err)
		space = nil
	}
	s.Notifier.NotifyBooking(b, space, status)
}
