package scraper

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"sync"

	"github.com/playwright-community/playwright-go"

	"bnbtrack/config"
	"bnbtrack/models"
)

// BrowserFetcher drives a real browser to load the listing page and lifts
// the payload out of the page's embedded state script. Used when the API
// backend is unavailable or walled off.
type BrowserFetcher struct {
	cfg *config.FetcherConfig

	mu      sync.Mutex
	pw      *playwright.Playwright
	browser playwright.Browser
}

func NewBrowserFetcher(cfg *config.FetcherConfig) *BrowserFetcher {
	return &BrowserFetcher{cfg: cfg}
}

func (f *BrowserFetcher) Name() string {
	return "browser"
}

func (f *BrowserFetcher) ensureBrowser() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.browser != nil {
		return nil
	}

	pw, err := playwright.Run()
	if err != nil {
		return fmt.Errorf("start playwright: %w", err)
	}

	headless := true
	if f.cfg.Headless != nil {
		headless = *f.cfg.Headless
	}

	browser, err := pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(headless),
	})
	if err != nil {
		pw.Stop()
		return fmt.Errorf("launch chromium: %w", err)
	}

	f.pw = pw
	f.browser = browser
	return nil
}

func (f *BrowserFetcher) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.browser != nil {
		f.browser.Close()
		f.browser = nil
	}
	if f.pw != nil {
		f.pw.Stop()
		f.pw = nil
	}
}

func (f *BrowserFetcher) Fetch(ctx context.Context, req FetchRequest) (json.RawMessage, error) {
	if err := f.ensureBrowser(); err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrFetch, err)
	}

	page, err := f.browser.NewPage()
	if err != nil {
		return nil, fmt.Errorf("%w: new page: %v", models.ErrFetch, err)
	}
	defer page.Close()

	log.Printf("Browser fetch: listing %d via %s", req.ListingID, req.URL)

	if _, err := page.Goto(req.URL, playwright.PageGotoOptions{
		Timeout:   playwright.Float(float64(f.cfg.TimeoutMS)),
		WaitUntil: playwright.WaitUntilStateDomcontentloaded,
	}); err != nil {
		return nil, fmt.Errorf("%w: goto: %v", models.ErrFetch, err)
	}

	// The state script is injected server-side, so domcontentloaded is enough.
	content, err := page.Content()
	if err != nil {
		return nil, fmt.Errorf("%w: page content: %v", models.ErrFetch, err)
	}

	return ExtractEmbeddedState(strings.NewReader(content), f.cfg.StateSelector)
}
