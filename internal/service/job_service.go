package service

import (
	"context"
	"fmt"
	"log"
	"time"
)

type JobService struct {
	Repo         JobStore
	Availability *AvailabilityService
	PendingTTL   time.Duration
	Now          func() time.Time
}

func NewJobService(repo JobStore, availability *AvailabilityService, pendingTTL time.Duration) *JobService {
	return &JobService{Repo: repo, Availability: availability, PendingTTL: pendingTTL, Now: time.Now}
}

// ExpireStalePending cancels PENDING bookings whose checkout was started more
// than PendingTTL ago, releasing their dates.
func (s *JobService) ExpireStalePending(ctx context.Context) error {
	log.Println("Cron Job: Checking for stale pending bookings...")

	cutoff := s.Now().Add(-s.PendingTTL)
	spaceIDs, err := s.Repo.CancelStalePending(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("cron job: failed to cancel stale pending bookings: %w", err)
	}
	if len(spaceIDs) == 0 {
		log.Println("Cron Job: No stale pending bookings found.")
		return nil
	}

	for _, id := range spaceIDs {
		s.Availability.Invalidate(ctx, id)
	}
	log.Printf("Cron Job: Released pending bookings on spaces %v", spaceIDs)
	return nil
}
