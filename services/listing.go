package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"bnbtrack/models"
	"bnbtrack/normalize"
	"bnbtrack/pricing"
	"bnbtrack/scraper"
	"bnbtrack/storage"
)

// ListingService drives the acquisition pipeline: resolve the booking URL,
// fetch the raw payload, normalize it and persist the result. Each
// acquisition leaves an audit row in acquisition_runs.
type ListingService struct {
	store    storage.Store
	fetcher  scraper.Fetcher
	archive  storage.Archiver
	currency string
}

// NewListingService creates a new ListingService. archive may be nil when
// payload archiving is disabled.
func NewListingService(store storage.Store, fetcher scraper.Fetcher, archive storage.Archiver, currency string) *ListingService {
	return &ListingService{
		store:    store,
		fetcher:  fetcher,
		archive:  archive,
		currency: currency,
	}
}

// AddListing acquires the listing behind a booking URL and saves it with its
// trip cost. Re-adding an existing listing replaces the stored record.
func (s *ListingService) AddListing(ctx context.Context, rawURL string, dailyCost, miscCost float64) (*models.Listing, error) {
	// 1. Resolve identity and stay parameters from the URL.
	stay, err := scraper.ResolveListingURL(rawURL)
	if err != nil {
		return nil, err
	}

	// 2. Validate the cost inputs before spending a fetch on them.
	cost, err := pricing.Total(dailyCost, miscCost, stay.Nights)
	if err != nil {
		return nil, err
	}

	run := s.startRun(ctx, stay.ListingID, rawURL)

	// 3. Fetch the raw payload.
	payload, err := s.fetcher.Fetch(ctx, scraper.FetchRequest{
		ListingID: stay.ListingID,
		URL:       rawURL,
		CheckIn:   stay.CheckIn.Format("2006-01-02"),
		CheckOut:  stay.CheckOut.Format("2006-01-02"),
		Adults:    stay.Adults,
		Currency:  s.currency,
	})
	if err != nil {
		s.finishRun(ctx, run, models.RunStatusFailed, err)
		return nil, err
	}

	if s.archive != nil {
		if err := s.archive.Archive(ctx, stay.ListingID, payload); err != nil {
			log.Printf("Warning: failed to archive payload for listing %d: %v", stay.ListingID, err)
		}
	}

	// 4. Normalize into the canonical shape.
	listing, err := normalize.Build(payload)
	if err != nil {
		s.finishRun(ctx, run, models.RunStatusFailed, err)
		return nil, err
	}

	// 5. Attach identity and cost, then persist.
	listing.ID = stay.ListingID
	listing.URL = rawURL
	listing.Duration = stay.Nights
	listing.DailyCost = dailyCost
	listing.MiscCost = miscCost
	listing.Cost = cost

	if err := s.store.Upsert(ctx, listing); err != nil {
		s.finishRun(ctx, run, models.RunStatusFailed, err)
		return nil, err
	}

	s.finishRun(ctx, run, models.RunStatusCompleted, nil)
	return listing, nil
}

// UpdateListingCost replaces the cost inputs of a stored listing and
// recomputes the trip total against its stored duration.
func (s *ListingService) UpdateListingCost(ctx context.Context, id int64, dailyCost, miscCost float64) (*models.Listing, error) {
	listing, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	cost, err := pricing.Total(dailyCost, miscCost, listing.Duration)
	if err != nil {
		return nil, err
	}

	listing.DailyCost = dailyCost
	listing.MiscCost = miscCost
	listing.Cost = cost

	if err := s.store.Upsert(ctx, listing); err != nil {
		return nil, err
	}
	return listing, nil
}

func (s *ListingService) GetListing(ctx context.Context, id int64) (*models.Listing, error) {
	return s.store.GetByID(ctx, id)
}

func (s *ListingService) GetListingsByLocation(ctx context.Context, location string) ([]models.Listing, error) {
	return s.store.GetByLocation(ctx, location)
}

func (s *ListingService) AllListings(ctx context.Context) ([]models.Listing, error) {
	return s.store.All(ctx)
}

func (s *ListingService) CountListings(ctx context.Context) (int, error) {
	return s.store.Count(ctx)
}

func (s *ListingService) UpdateNotes(ctx context.Context, id int64, notes string) error {
	return s.store.UpdateNotes(ctx, id, notes)
}

func (s *ListingService) DeleteListing(ctx context.Context, id int64) error {
	return s.store.Delete(ctx, id)
}

// RefreshListing refetches a stored listing from its original booking URL
// and replaces everything but the cost inputs and notes.
func (s *ListingService) RefreshListing(ctx context.Context, id int64) (*models.Listing, error) {
	existing, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	stay, err := scraper.ResolveListingURL(existing.URL)
	if err != nil {
		return nil, fmt.Errorf("stored url for listing %d no longer resolves: %w", id, err)
	}

	run := s.startRun(ctx, id, existing.URL)

	payload, err := s.fetcher.Fetch(ctx, scraper.FetchRequest{
		ListingID: id,
		URL:       existing.URL,
		CheckIn:   stay.CheckIn.Format("2006-01-02"),
		CheckOut:  stay.CheckOut.Format("2006-01-02"),
		Adults:    stay.Adults,
		Currency:  s.currency,
	})
	if err != nil {
		s.finishRun(ctx, run, models.RunStatusFailed, err)
		return nil, err
	}

	if s.archive != nil {
		if err := s.archive.Archive(ctx, id, payload); err != nil {
			log.Printf("Warning: failed to archive payload for listing %d: %v", id, err)
		}
	}

	listing, err := normalize.Build(payload)
	if err != nil {
		s.finishRun(ctx, run, models.RunStatusFailed, err)
		return nil, err
	}

	listing.ID = existing.ID
	listing.URL = existing.URL
	listing.Duration = existing.Duration
	listing.DailyCost = existing.DailyCost
	listing.MiscCost = existing.MiscCost
	listing.Cost = existing.Cost
	listing.Notes = existing.Notes
	listing.CreatedAt = existing.CreatedAt

	if err := s.store.Upsert(ctx, listing); err != nil {
		s.finishRun(ctx, run, models.RunStatusFailed, err)
		return nil, err
	}

	s.finishRun(ctx, run, models.RunStatusCompleted, nil)
	return listing, nil
}

// RefreshAll refreshes every stored listing sequentially. Failures are
// logged and skipped so one broken listing never stalls the rest.
func (s *ListingService) RefreshAll(ctx context.Context) {
	listings, err := s.store.All(ctx)
	if err != nil {
		log.Printf("Warning: refresh pass could not list listings: %v", err)
		return
	}

	log.Printf("Refreshing %d listings", len(listings))
	for _, listing := range listings {
		if ctx.Err() != nil {
			return
		}
		if _, err := s.RefreshListing(ctx, listing.ID); err != nil {
			log.Printf("Warning: refresh failed for listing %d: %v", listing.ID, err)
		}
	}
}

// DumpListing returns the stored listing as indented JSON for debugging.
func (s *ListingService) DumpListing(ctx context.Context, id int64) ([]byte, error) {
	listing, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return json.MarshalIndent(listing, "", "  ")
}

func (s *ListingService) startRun(ctx context.Context, listingID int64, url string) *models.AcquisitionRun {
	run := &models.AcquisitionRun{
		ID:        uuid.New(),
		ListingID: listingID,
		URL:       url,
		Status:    models.RunStatusRunning,
		StartedAt: time.Now().UTC(),
	}
	if err := s.store.CreateRun(ctx, run); err != nil {
		log.Printf("Warning: failed to record run for listing %d: %v", listingID, err)
	}
	return run
}

func (s *ListingService) finishRun(ctx context.Context, run *models.AcquisitionRun, status string, cause error) {
	msg := ""
	if cause != nil {
		msg = cause.Error()
	}
	if err := s.store.FinishRun(ctx, run.ID, status, msg); err != nil {
		log.Printf("Warning: failed to finish run %s: %v", run.ID, err)
	}
}
