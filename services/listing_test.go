package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"testing"

	"bnbtrack/models"
	"bnbtrack/scraper"
	"bnbtrack/storage"
)

const bookingURL = "https://www.airbnb.com/rooms/12345?check_in=2025-06-01&check_out=2025-06-05&adults=2"

const stubPayload = `{
	"rating": {"cleanliness": 5.0, "location": 4.5, "review_count": 10},
	"location_descriptions": [{"title": "Neighbourhood highlights", "content": "Shinjuku, Tokyo"}],
	"images": [{"url": "https://img.example.com/1.jpg"}]
}`

type stubFetcher struct {
	payload  json.RawMessage
	err      error
	requests []scraper.FetchRequest
}

func (f *stubFetcher) Name() string { return "stub" }

func (f *stubFetcher) Fetch(_ context.Context, req scraper.FetchRequest) (json.RawMessage, error) {
	f.requests = append(f.requests, req)
	if f.err != nil {
		return nil, f.err
	}
	return f.payload, nil
}

func newTestService(t *testing.T, fetcher scraper.Fetcher) *ListingService {
	t.Helper()
	store, err := storage.NewSQLiteStore(filepath.Join(t.TempDir(), "listings.db"))
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return NewListingService(store, fetcher, nil, "SGD")
}

func TestAddListing(t *testing.T) {
	fetcher := &stubFetcher{payload: json.RawMessage(stubPayload)}
	svc := newTestService(t, fetcher)
	ctx := context.Background()

	listing, err := svc.AddListing(ctx, bookingURL, 100, 50)
	if err != nil {
		t.Fatalf("AddListing failed: %v", err)
	}

	if listing.ID != 12345 {
		t.Errorf("id = %d, want 12345", listing.ID)
	}
	if listing.Duration != 4 {
		t.Errorf("duration = %d, want 4 nights", listing.Duration)
	}
	if listing.Cost != 450 {
		t.Errorf("cost = %v, want 100*4+50 = 450", listing.Cost)
	}
	if listing.Location != "Shinjuku, Tokyo" {
		t.Errorf("location = %q, want the normalized neighbourhood", listing.Location)
	}

	if len(fetcher.requests) != 1 {
		t.Fatalf("fetch calls = %d, want 1", len(fetcher.requests))
	}
	req := fetcher.requests[0]
	if req.ListingID != 12345 || req.Adults != 2 || req.Currency != "SGD" {
		t.Errorf("fetch request = %+v, want resolved stay parameters", req)
	}

	// The listing must be retrievable through the store afterwards.
	stored, err := svc.GetListing(ctx, 12345)
	if err != nil {
		t.Fatalf("GetListing failed: %v", err)
	}
	if stored.Cost != 450 {
		t.Errorf("stored cost = %v, want 450", stored.Cost)
	}
}

func TestAddListingValidatesBeforeFetching(t *testing.T) {
	fetcher := &stubFetcher{payload: json.RawMessage(stubPayload)}
	svc := newTestService(t, fetcher)
	ctx := context.Background()

	cases := []struct {
		name string
		url  string
		cost float64
		want error
	}{
		{"bad url", "https://www.airbnb.com/help", 100, models.ErrInvalidURL},
		{"missing dates", "https://www.airbnb.com/rooms/12345", 100, models.ErrMissingDates},
		{"negative cost", bookingURL, -1, models.ErrInvalidCost},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := svc.AddListing(ctx, tc.url, tc.cost, 0); !errors.Is(err, tc.want) {
				t.Errorf("AddListing error = %v, want %v", err, tc.want)
			}
		})
	}

	if len(fetcher.requests) != 0 {
		t.Errorf("fetch calls = %d, want 0 for invalid input", len(fetcher.requests))
	}
}

func TestAddListingFetchFailure(t *testing.T) {
	cause := fmt.Errorf("%w: upstream returned 503", models.ErrFetch)
	svc := newTestService(t, &stubFetcher{err: cause})
	ctx := context.Background()

	if _, err := svc.AddListing(ctx, bookingURL, 100, 50); !errors.Is(err, models.ErrFetch) {
		t.Errorf("AddListing error = %v, want ErrFetch", err)
	}
	if _, err := svc.GetListing(ctx, 12345); !errors.Is(err, models.ErrNotFound) {
		t.Errorf("expected nothing stored after a failed fetch, got %v", err)
	}
}

func TestAddListingMalformedPayload(t *testing.T) {
	svc := newTestService(t, &stubFetcher{payload: json.RawMessage(`<html>`)})

	if _, err := svc.AddListing(context.Background(), bookingURL, 100, 50); !errors.Is(err, models.ErrMalformedPayload) {
		t.Errorf("AddListing error = %v, want ErrMalformedPayload", err)
	}
}

func TestUpdateListingCost(t *testing.T) {
	svc := newTestService(t, &stubFetcher{payload: json.RawMessage(stubPayload)})
	ctx := context.Background()

	if _, err := svc.AddListing(ctx, bookingURL, 100, 50); err != nil {
		t.Fatalf("AddListing failed: %v", err)
	}

	updated, err := svc.UpdateListingCost(ctx, 12345, 120, 30)
	if err != nil {
		t.Fatalf("UpdateListingCost failed: %v", err)
	}
	if updated.Cost != 510 {
		t.Errorf("cost = %v, want 120*4+30 = 510", updated.Cost)
	}

	if _, err := svc.UpdateListingCost(ctx, 12345, -5, 0); !errors.Is(err, models.ErrInvalidCost) {
		t.Errorf("UpdateListingCost error = %v, want ErrInvalidCost", err)
	}
	if _, err := svc.UpdateListingCost(ctx, 9999, 100, 0); !errors.Is(err, models.ErrNotFound) {
		t.Errorf("UpdateListingCost on missing listing = %v, want ErrNotFound", err)
	}
}

func TestRefreshListingKeepsCostAndNotes(t *testing.T) {
	fetcher := &stubFetcher{payload: json.RawMessage(stubPayload)}
	svc := newTestService(t, fetcher)
	ctx := context.Background()

	if _, err := svc.AddListing(ctx, bookingURL, 100, 50); err != nil {
		t.Fatalf("AddListing failed: %v", err)
	}
	if err := svc.UpdateNotes(ctx, 12345, "near the station"); err != nil {
		t.Fatalf("UpdateNotes failed: %v", err)
	}

	fetcher.payload = json.RawMessage(`{
		"rating": {"cleanliness": 4.0, "review_count": 11},
		"location_descriptions": [{"title": "Neighbourhood highlights", "content": "Shibuya, Tokyo"}]
	}`)

	refreshed, err := svc.RefreshListing(ctx, 12345)
	if err != nil {
		t.Fatalf("RefreshListing failed: %v", err)
	}
	if refreshed.Location != "Shibuya, Tokyo" {
		t.Errorf("location = %q, want the refreshed value", refreshed.Location)
	}
	if refreshed.Cost != 450 || refreshed.DailyCost != 100 {
		t.Errorf("cost inputs changed on refresh: %+v", refreshed)
	}
	if refreshed.Notes != "near the station" {
		t.Errorf("notes = %q, want them preserved across refresh", refreshed.Notes)
	}
}

func TestDeleteListing(t *testing.T) {
	svc := newTestService(t, &stubFetcher{payload: json.RawMessage(stubPayload)})
	ctx := context.Background()

	if _, err := svc.AddListing(ctx, bookingURL, 100, 50); err != nil {
		t.Fatalf("AddListing failed: %v", err)
	}
	if err := svc.DeleteListing(ctx, 12345); err != nil {
		t.Fatalf("DeleteListing failed: %v", err)
	}
	if err := svc.DeleteListing(ctx, 12345); !errors.Is(err, models.ErrNotFound) {
		t.Errorf("second DeleteListing = %v, want ErrNotFound", err)
	}
}

func TestGetListingsByLocation(t *testing.T) {
	svc := newTestService(t, &stubFetcher{payload: json.RawMessage(stubPayload)})
	ctx := context.Background()

	if _, err := svc.AddListing(ctx, bookingURL, 100, 50); err != nil {
		t.Fatalf("AddListing failed: %v", err)
	}

	found, err := svc.GetListingsByLocation(ctx, "TOKYO")
	if err != nil {
		t.Fatalf("GetListingsByLocation failed: %v", err)
	}
	if len(found) != 1 {
		t.Fatalf("got %d listings, want 1", len(found))
	}

	n, err := svc.CountListings(ctx)
	if err != nil {
		t.Fatalf("CountListings failed: %v", err)
	}
	if n != 1 {
		t.Errorf("count = %d, want 1", n)
	}
}
