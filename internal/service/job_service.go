package service

import (
	"fmt"
	"log"
	"time"

	"parkwise/internal/repository"
)

// JobService hosts the scheduled maintenance work, currently the pending
// request expiry sweep. Expiry is a periodic sweep by design: an untouched
// stale request stays pending until the sweep runs, then flips to expired
// and frees its slot.
type JobService struct {
	Repo *repository.JobRepository
	TTL  time.Duration
}

func NewJobService(repo *repository.JobRepository, ttl time.Duration) *JobService {
	return &JobService{Repo: repo, TTL: ttl}
}

// ExpireStaleRequests expires every pending request older than the TTL and
// returns the reserved slots to available.
func (s *JobService) ExpireStaleRequests() error {
	cutoff := time.Now().Add(-s.TTL)
	log.Printf("Cron Job: checking for pending requests older than %s...", s.TTL)

	ids, err := s.Repo.GetStalePendingRequestIDs(cutoff)
	if err != nil {
		return fmt.Errorf("cron job: failed to get stale pending requests: %w", err)
	}
	if len(ids) == 0 {
		log.Println("Cron Job: no stale pending requests found.")
		return nil
	}

	log.Printf("Cron Job: found %d stale pending requests. IDs: %v", len(ids), ids)
	expired, err := s.Repo.ExpireRequests(ids)
	if err != nil {
		return fmt.Errorf("cron job: failed to expire requests: %w", err)
	}
	log.Printf("Cron Job: expired %d requests and freed their slots.", expired)
	return nil
}
