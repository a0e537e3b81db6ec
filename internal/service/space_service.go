package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"deskhub/internal/db"
	"deskhub/internal/entities"
	apperrors "deskhub/internal/errors"
	"deskhub/internal/repository"
)

type SpaceService struct {
	Spaces       SpaceStore
	Availability *AvailabilityService
}

func NewSpaceService(spaces SpaceStore, availability *AvailabilityService) *SpaceService {
	return &SpaceService{Spaces: spaces, Availability: availability}
}

func (s *SpaceService) GetSpace(ctx context.Context, id int) (*db.Space, error) {
	space, err := s.Spaces.GetSpace(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrSpaceNotFound
		}
		return nil, err
	}
	return space, nil
}

func normalizeSpace(space *db.Space) error {
	space.Title = strings.TrimSpace(space.Title)
	if space.Title == "" {
		return apperrors.ErrBadRequest("title is required")
	}
	if space.PricePerDay < 0 {
		return apperrors.ErrBadRequest("pricePerDay must not be negative")
	}
	if space.Capacity <= 0 {
		space.Capacity = 1
	}
	space.Currency = strings.ToLower(strings.TrimSpace(space.Currency))
	if space.Currency == "" {
		space.Currency = "usd"
	}
	if err := space.Validate(); err != nil {
		return apperrors.ErrBadRequest(err.Error())
	}
	return nil
}

// CreateSpace lists a new space owned by the actor. Renters cannot list spaces.
func (s *SpaceService) CreateSpace(ctx context.Context, actor Actor, space *db.Space) error {
	if actor.Role != db.RoleHost && !actor.IsAdmin() {
		return ErrForbidden
	}
	space.HostID = actor.ID
	if err := normalizeSpace(space); err != nil {
		return err
	}
	if err := s.Spaces.CreateSpace(ctx, space); err != nil {
		return err
	}
	log.Printf("Space %d listed by host %d", space.ID, actor.ID)
	return nil
}

func (s *SpaceService) ownedSpace(ctx context.Context, actor Actor, id int) (*db.Space, error) {
	existing, err := s.GetSpace(ctx, id)
	if err != nil {
		return nil, err
	}
	if existing.HostID != actor.ID && !actor.IsAdmin() {
		return nil, ErrForbidden
	}
	return existing, nil
}

// UpdateSpace replaces the listing's attributes. The owner cannot be changed.
func (s *SpaceService) UpdateSpace(ctx context.Context, actor Actor, id int, space *db.Space) error {
	existing, err := s.ownedSpace(ctx, actor, id)
	if err != nil {
		return err
	}
	space.ID = id
	space.HostID = existing.HostID
	space.CreatedAt = existing.CreatedAt
	if err := normalizeSpace(space); err != nil {
		return err
	}
	if err := s.Spaces.UpdateSpace(ctx, space); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrSpaceNotFound
		}
		return err
	}
	s.Availability.Invalidate(ctx, id)
	return nil
}

// DeleteSpace removes a listing that no PENDING or CONFIRMED booking still
// needs. Upcoming bookings must be cancelled first so renters get refunded.
func (s *SpaceService) DeleteSpace(ctx context.Context, actor Actor, id int) error {
	if _, err := s.ownedSpace(ctx, actor, id); err != nil {
		return err
	}
	upcoming, err := s.Availability.Bookings.ListActiveBookings(ctx, id, s.Availability.today())
	if err != nil {
		return fmt.Errorf("loading bookings for space %d: %w", id, err)
	}
	if len(upcoming) > 0 {
		log.Printf("Space %d not deleted: %d upcoming bookings", id, len(upcoming))
		return ErrSpaceHasBookings
	}
	if err := s.Spaces.DeleteSpace(ctx, id); err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return ErrSpaceNotFound
		case errors.Is(err, repository.ErrInUse):
			return ErrSpaceHasHistory
		}
		return err
	}
	s.Availability.Invalidate(ctx, id)
	log.Printf("Space %d deleted by user %d", id, actor.ID)
	return nil
}

// SearchSpaces filters listings. A date range must be given completely and
// keeps only spaces free on every day of it.
func (s *SpaceService) SearchSpaces(ctx context.Context, f entities.SpaceFilter) (*entities.SpacesList, error) {
	if (f.FreeFrom == nil) != (f.FreeTo == nil) {
		return nil, apperrors.ErrBadRequest("start_date and end_date must be given together")
	}
	if f.FreeFrom != nil && f.FreeTo.Before(*f.FreeFrom) {
		return nil, ErrInvalidRange
	}
	f.Limit, f.Offset = clampPage(f.Limit, f.Offset)

	spaces, total, err := s.Spaces.SearchSpaces(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("searching spaces: %w", err)
	}
	return &entities.SpacesList{
		Total:  total,
		Limit:  f.Limit,
		Offset: f.Offset,
		Spaces: spaces,
	}, nil
}
