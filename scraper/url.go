package scraper

import (
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"time"

	"bnbtrack/models"
)

// StayRequest is everything the rest of the pipeline needs from a listing
// URL: the platform listing id plus the requested stay window.
type StayRequest struct {
	ListingID int64
	CheckIn   time.Time
	CheckOut  time.Time
	Nights    int
	Adults    int
}

const dateLayout = "2006-01-02"

// Listing pages are always /rooms/<numeric id>, optionally with a trailing
// segment or slash.
var roomPathRe = regexp.MustCompile(`(?:^|/)rooms/(\d+)(?:/|$)`)

// ResolveListingURL validates a listing URL and decomposes it into a
// StayRequest. It is deterministic and performs no I/O.
//
// check_in and check_out query parameters are required and must form a valid
// date range; a missing or non-numeric adults parameter silently defaults
// to 1.
func ResolveListingURL(raw string) (*StayRequest, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrInvalidURL, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("%w: %q", models.ErrInvalidURL, raw)
	}

	m := roomPathRe.FindStringSubmatch(u.Path)
	if m == nil {
		return nil, fmt.Errorf("%w: no numeric listing id in path %q", models.ErrInvalidURL, u.Path)
	}
	listingID, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: listing id %q", models.ErrInvalidURL, m[1])
	}

	q := u.Query()
	checkInStr := q.Get("check_in")
	checkOutStr := q.Get("check_out")
	if checkInStr == "" || checkOutStr == "" {
		return nil, fmt.Errorf("%w: %q", models.ErrMissingDates, raw)
	}

	checkIn, err := time.Parse(dateLayout, checkInStr)
	if err != nil {
		return nil, fmt.Errorf("%w: check_in %q", models.ErrInvalidDate, checkInStr)
	}
	checkOut, err := time.Parse(dateLayout, checkOutStr)
	if err != nil {
		return nil, fmt.Errorf("%w: check_out %q", models.ErrInvalidDate, checkOutStr)
	}
	if !checkOut.After(checkIn) {
		return nil, fmt.Errorf("%w: check_in %s, check_out %s", models.ErrInvalidDateRange, checkInStr, checkOutStr)
	}

	adults := 1
	if v, err := strconv.Atoi(q.Get("adults")); err == nil && v > 0 {
		adults = v
	}

	return &StayRequest{
		ListingID: listingID,
		CheckIn:   checkIn,
		CheckOut:  checkOut,
		Nights:    int(checkOut.Sub(checkIn).Hours() / 24),
		Adults:    adults,
	}, nil
}
