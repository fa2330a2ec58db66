// Package scheduler runs periodic refresh passes over the stored listings.
package scheduler

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/robfig/cron/v3"
	"bnbtrack/services"
)

type Scheduler struct {
	listings *services.ListingService
	spec     string
	cron     *cron.Cron

	// Refresh passes run sequentially, a slow pass must not overlap the
	// next tick.
	mu sync.Mutex
}

func New(listings *services.ListingService, spec string) *Scheduler {
	return &Scheduler{
		listings: listings,
		spec:     spec,
		cron:     cron.New(),
	}
}

func (s *Scheduler) Start(ctx context.Context) error {
	if s.spec == "" {
		log.Println("No refresh schedule configured")
		return nil
	}

	log.Printf("Starting refresh scheduler with cron: %s", s.spec)
	_, err := s.cron.AddFunc(s.spec, func() {
		s.TriggerNow(ctx)
	})
	if err != nil {
		return fmt.Errorf("invalid cron expression %q: %w", s.spec, err)
	}
	s.cron.Start()
	return nil
}

func (s *Scheduler) Stop() {
	s.cron.Stop()
}

// TriggerNow runs a refresh pass immediately, waiting out any pass already
// in flight.
func (s *Scheduler) TriggerNow(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listings.RefreshAll(ctx)
}
