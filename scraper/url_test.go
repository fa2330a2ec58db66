package scraper

import (
	"errors"
	"testing"

	"bnbtrack/models"
)

func TestResolveListingURL_Valid(t *testing.T) {
	raw := "https://www.airbnb.com/rooms/12345?check_in=2023-12-01&check_out=2023-12-05&adults=2"

	req, err := ResolveListingURL(raw)
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if req.ListingID != 12345 {
		t.Fatalf("expected listing id 12345, got %d", req.ListingID)
	}
	if req.Nights != 4 {
		t.Fatalf("expected 4 nights, got %d", req.Nights)
	}
	if req.Adults != 2 {
		t.Fatalf("expected 2 adults, got %d", req.Adults)
	}
	if got := req.CheckIn.Format("2006-01-02"); got != "2023-12-01" {
		t.Fatalf("unexpected check-in %s", got)
	}
	if got := req.CheckOut.Format("2006-01-02"); got != "2023-12-05" {
		t.Fatalf("unexpected check-out %s", got)
	}
}

func TestResolveListingURL_RegionalHostAndExtraParams(t *testing.T) {
	raw := "https://www.airbnb.com.sg/rooms/987654321?locale=en&check_in=2024-03-10&check_out=2024-03-11&children=0"

	req, err := ResolveListingURL(raw)
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if req.ListingID != 987654321 {
		t.Fatalf("expected listing id 987654321, got %d", req.ListingID)
	}
	if req.Nights != 1 {
		t.Fatalf("expected 1 night, got %d", req.Nights)
	}
	if req.Adults != 1 {
		t.Fatalf("expected adults to default to 1, got %d", req.Adults)
	}
}

func TestResolveListingURL_AdultsNonNumericDefaults(t *testing.T) {
	raw := "https://www.airbnb.com/rooms/111?check_in=2024-01-01&check_out=2024-01-03&adults=two"

	req, err := ResolveListingURL(raw)
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if req.Adults != 1 {
		t.Fatalf("expected adults 1, got %d", req.Adults)
	}
}

func TestResolveListingURL_Errors(t *testing.T) {
	tests := []struct {
		name string
		url  string
		want error
	}{
		{"not a url", "://nope", models.ErrInvalidURL},
		{"no scheme", "www.airbnb.com/rooms/123?check_in=2024-01-01&check_out=2024-01-02", models.ErrInvalidURL},
		{"no listing id", "https://www.airbnb.com/s/Tokyo/homes?check_in=2024-01-01&check_out=2024-01-02", models.ErrInvalidURL},
		{"non-numeric id", "https://www.airbnb.com/rooms/abc?check_in=2024-01-01&check_out=2024-01-02", models.ErrInvalidURL},
		{"missing check_in", "https://www.airbnb.com/rooms/123?check_out=2024-01-02", models.ErrMissingDates},
		{"missing check_out", "https://www.airbnb.com/rooms/123?check_in=2024-01-01", models.ErrMissingDates},
		{"garbage check_in", "https://www.airbnb.com/rooms/123?check_in=tomorrow&check_out=2024-01-02", models.ErrInvalidDate},
		{"garbage check_out", "https://www.airbnb.com/rooms/123?check_in=2024-01-01&check_out=01/02/2024", models.ErrInvalidDate},
		{"check_out equals check_in", "https://www.airbnb.com/rooms/123?check_in=2024-01-01&check_out=2024-01-01", models.ErrInvalidDateRange},
		{"check_out before check_in", "https://www.airbnb.com/rooms/123?check_in=2024-01-05&check_out=2024-01-01", models.ErrInvalidDateRange},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ResolveListingURL(tt.url)
			if err == nil {
				t.Fatalf("expected error for %q", tt.url)
			}
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
		})
	}
}
