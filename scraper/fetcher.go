package scraper

import (
	"context"
	"encoding/json"

	"bnbtrack/config"
	"bnbtrack/httputil"
)

// FetchRequest carries everything a backend needs to pull one listing's raw
// payload for a specific stay window.
type FetchRequest struct {
	ListingID int64
	URL       string
	CheckIn   string // YYYY-MM-DD
	CheckOut  string // YYYY-MM-DD
	Adults    int
	Currency  string
}

// Fetcher pulls the raw, unnormalized payload for one listing. The payload is
// opaque to the fetcher; shaping it is the normalizer's job.
type Fetcher interface {
	Name() string
	Fetch(ctx context.Context, req FetchRequest) (json.RawMessage, error)
}

func NewFetcher(cfg *config.FetcherConfig, clients *httputil.Clients) Fetcher {
	switch cfg.Backend {
	case "browser":
		return NewBrowserFetcher(cfg)
	default:
		return NewAPIFetcher(cfg, clients.Fetch)
	}
}
