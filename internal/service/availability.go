package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"time"

	"cloud.google.com/go/civil"

	"deskhub/internal/db"
	"deskhub/internal/entities"
	"deskhub/internal/repository"
	"deskhub/internal/utils"
)

// Verdict is the outcome of validating a proposed booking range.
type Verdict int

const (
	VerdictOK Verdict = iota
	VerdictConflict
)

func (v Verdict) String() string {
	if v == VerdictConflict {
		return "conflict"
	}
	return "ok"
}

// RangesOverlap reports whether two inclusive date ranges share at least one day.
func RangesOverlap(aStart, aEnd, bStart, bEnd civil.Date) bool {
	return !aStart.After(bEnd) && !aEnd.Before(bStart)
}

// FindConflict returns the first active booking overlapping [start, end], or nil.
func FindConflict(bookings []db.Booking, start, end civil.Date) *db.Booking {
	for i := range bookings {
		b := &bookings[i]
		if !b.Status.Active() {
			continue
		}
		if RangesOverlap(b.StartDate, b.EndDate, start, end) {
			return b
		}
	}
	return nil
}

// UnavailableDates returns every day covered by an active booking, ascending
// and without duplicates. The result is never nil.
func UnavailableDates(bookings []db.Booking) []civil.Date {
	seen := map[civil.Date]struct{}{}
	dates := []civil.Date{}
	for _, b := range bookings {
		if !b.Status.Active() {
			continue
		}
		for _, d := range b.Dates() {
			if _, ok := seen[d]; ok {
				continue
			}
			seen[d] = struct{}{}
			dates = append(dates, d)
		}
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })
	return dates
}

type AvailabilityService struct {
	Spaces   SpaceStore
	Bookings BookingStore
	Cache    repository.AvailabilityCache
	Now      func() time.Time
}

func NewAvailabilityService(spaces SpaceStore, bookings BookingStore, cache repository.AvailabilityCache) *AvailabilityService {
	if cache == nil {
		cache = repository.NoopAvailabilityCache{}
	}
	return &AvailabilityService{
		Spaces:   spaces,
		Bookings: bookings,
		Cache:    cache,
		Now:      time.Now,
	}
}

func (s *AvailabilityService) today() civil.Date {
	return utils.Today(s.Now())
}

func (s *AvailabilityService) getSpace(ctx context.Context, spaceID int) (*db.Space, error) {
	space, err := s.Spaces.GetSpace(ctx, spaceID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrSpaceNotFound
		}
		return nil, err
	}
	return space, nil
}

// UnavailableDates returns the weekly hours of a space together with every
// date blocked by a booking that has not ended before today.
func (s *AvailabilityService) UnavailableDates(ctx context.Context, spaceID int) (*entities.AvailabilityView, error) {
	today := s.today()

	view, ok, err := s.Cache.Get(ctx, spaceID, today)
	if err != nil {
		log.Printf("Availability cache read failed for space %d: %v", spaceID, err)
	} else if ok {
		return view, nil
	}

	space, err := s.getSpace(ctx, spaceID)
	if err != nil {
		return nil, err
	}
	bookings, err := s.Bookings.ListActiveBookings(ctx, spaceID, today)
	if err != nil {
		return nil, fmt.Errorf("loading bookings for space %d: %w", spaceID, err)
	}

	view = &entities.AvailabilityView{
		SpaceID:          spaceID,
		Availability:     space.Availability,
		UnavailableDates: UnavailableDates(bookings),
	}
	if err := s.Cache.Set(ctx, spaceID, today, view); err != nil {
		log.Printf("Availability cache write failed for space %d: %v", spaceID, err)
	}
	return view, nil
}

// ValidateBookingRange decides whether [start, end] can be booked on the space.
// A conflict is reported through the verdict; errors are reserved for an
// unknown space, an inverted range and storage failures.
func (s *AvailabilityService) ValidateBookingRange(ctx context.Context, spaceID int, start, end civil.Date) (Verdict, error) {
	if end.Before(start) {
		return VerdictOK, ErrInvalidRange
	}
	if _, err := s.getSpace(ctx, spaceID); err != nil {
		return VerdictOK, err
	}
	bookings, err := s.Bookings.ListActiveBookings(ctx, spaceID, start)
	if err != nil {
		return VerdictOK, fmt.Errorf("loading bookings for space %d: %w", spaceID, err)
	}
	if c := FindConflict(bookings, start, end); c != nil {
		log.Printf("Range %s..%s on space %d overlaps booking %s", start, end, spaceID, c.Code)
		return VerdictConflict, nil
	}
	return VerdictOK, nil
}

// Invalidate drops the cached view of a space after its bookings changed.
func (s *AvailabilityService) Invalidate(ctx context.Context, spaceID int) {
	if err := s.Cache.Invalidate(ctx, spaceID); err != nil {
		log.Printf("Availability cache invalidation failed for space %d: %v", spaceID, err)
	}
}
