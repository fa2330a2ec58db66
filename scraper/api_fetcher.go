package scraper

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strconv"

	"bnbtrack/config"
	"bnbtrack/models"
)

// APIFetcher pulls listing payloads from a JSON detail endpoint (a pyairbnb
// style gateway). It is the default backend.
type APIFetcher struct {
	cfg    *config.FetcherConfig
	client *http.Client
}

func NewAPIFetcher(cfg *config.FetcherConfig, client *http.Client) *APIFetcher {
	return &APIFetcher{cfg: cfg, client: client}
}

func (f *APIFetcher) Name() string {
	return "api"
}

func (f *APIFetcher) Fetch(ctx context.Context, req FetchRequest) (json.RawMessage, error) {
	if f.cfg.Endpoint == "" {
		return nil, fmt.Errorf("%w: no fetcher endpoint configured", models.ErrFetch)
	}

	endpoint, err := url.Parse(f.cfg.Endpoint)
	if err != nil {
		return nil, fmt.Errorf("%w: bad endpoint %q: %v", models.ErrFetch, f.cfg.Endpoint, err)
	}

	q := endpoint.Query()
	q.Set("room_id", strconv.FormatInt(req.ListingID, 10))
	q.Set("check_in", req.CheckIn)
	q.Set("check_out", req.CheckOut)
	q.Set("adults", strconv.Itoa(req.Adults))
	q.Set("currency", req.Currency)
	if f.cfg.Locale != "" {
		q.Set("locale", f.cfg.Locale)
	}
	endpoint.RawQuery = q.Encode()

	log.Printf("API fetch: listing %d (%s to %s)", req.ListingID, req.CheckIn, req.CheckOut)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrFetch, err)
	}
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36")
	if f.cfg.APIKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+f.cfg.APIKey)
	}

	resp, err := f.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrFetch, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("%w: endpoint returned %d: %s", models.ErrFetch, resp.StatusCode, string(body))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %v", models.ErrFetch, err)
	}

	return json.RawMessage(body), nil
}
