package models

import (
	"time"
)

// Listing is the canonical record for one rental property and a chosen stay
// window. The ID is the platform's listing identifier, assigned externally
// and never generated locally.
type Listing struct {
	ID              int64           `json:"id" db:"id"`
	URL             string          `json:"url" db:"url"`
	Duration        int             `json:"duration" db:"duration"`
	DailyCost       float64         `json:"daily_cost" db:"daily_cost"`
	MiscCost        float64         `json:"misc_cost" db:"misc_cost"`
	Cost            float64         `json:"cost" db:"cost"`
	Coordinates     string          `json:"coordinates"`
	SuperHost       bool            `json:"super_host"`
	Capacity        int             `json:"capacity"`
	AverageRating   float64         `json:"average_rating"`
	CheckInOut      []string        `json:"check_in_out"`
	Amenities       []AmenityGroup  `json:"amenities"`
	Images          []string        `json:"images"`
	Location        string          `json:"location" db:"location"`
	GettingAround   string          `json:"getting_around"`
	Highlights      []string        `json:"highlights"`
	ReviewsSummary  ReviewsSummary  `json:"reviews_summary"`
	HouseRules      HouseRules      `json:"house_rules"`
	PropertyDetails PropertyDetails `json:"property_details"`
	Notes           string          `json:"notes,omitempty"`
	CreatedAt       time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at" db:"updated_at"`
}

// AmenityGroup is one named amenity category with its items. Group order and
// item order are display-relevant and survive store round-trips, which is why
// amenities are a slice of groups rather than a map.
type AmenityGroup struct {
	Category string   `json:"category"`
	Items    []string `json:"items"`
}

type ReviewsSummary struct {
	TotalReviews  int      `json:"total_reviews"`
	RecentReviews []Review `json:"recent_reviews"`
}

// Review is owned by exactly one listing's ReviewsSummary and is never
// persisted on its own.
type Review struct {
	Comment string `json:"comment"`
	Rating  int    `json:"rating"`
	Date    string `json:"date"`
}

type HouseRules struct {
	CheckInOut      []string    `json:"check_in_out"`
	GeneralRules    []RuleGroup `json:"general_rules"`
	AdditionalRules []string    `json:"additional_rules"`
}

type RuleGroup struct {
	Category string   `json:"category"`
	Rules    []string `json:"rules"`
}

type PropertyDetails struct {
	RoomType        string   `json:"room_type"`
	IsGuestFavorite bool     `json:"is_guest_favorite"`
	IsSuperHost     bool     `json:"is_super_host"`
	Layout          []string `json:"layout"`
}

// Cover returns the listing's cover image, the first image in source order.
func (l *Listing) Cover() string {
	if len(l.Images) == 0 {
		return ""
	}
	return l.Images[0]
}

// AmenityItems returns the items for a category, or nil if the listing does
// not have that category.
func (l *Listing) AmenityItems(category string) []string {
	for _, g := range l.Amenities {
		if g.Category == category {
			return g.Items
		}
	}
	return nil
}
