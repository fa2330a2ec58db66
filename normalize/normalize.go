// Package normalize shapes the fetcher's raw listing payload into the
// canonical Listing record. The payload is deeply nested and almost entirely
// optional: every section is decoded on its own, and anything missing or
// misshapen degrades to a typed empty default instead of failing the whole
// normalization. The only hard failure is a payload that is not a JSON
// object at all.
package normalize

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"bnbtrack/models"
)

const maxRecentReviews = 5

// Build produces a partial Listing from a raw payload. Identity, URL, cost
// and duration are the orchestrator's to fill in; everything else comes from
// the payload or its defaults.
func Build(raw json.RawMessage) (*models.Listing, error) {
	var top map[string]json.RawMessage
	if len(raw) == 0 || json.Unmarshal(raw, &top) != nil {
		return nil, fmt.Errorf("%w: top level is not a json object", models.ErrMalformedPayload)
	}

	listing := &models.Listing{
		CheckInOut: []string{},
		Amenities:  []models.AmenityGroup{},
		Images:     []string{},
		Highlights: []string{},
		ReviewsSummary: models.ReviewsSummary{
			RecentReviews: []models.Review{},
		},
	}

	listing.Coordinates = coordinates(top["coordinates"])
	listing.SuperHost = boolSection(top["is_super_host"])
	listing.Capacity = intSection(top["person_capacity"])

	rating := ratingSection(top["rating"])
	listing.AverageRating = averageRating(rating)
	listing.ReviewsSummary.TotalReviews = reviewCount(rating)
	listing.ReviewsSummary.RecentReviews = recentReviews(top["reviews"])

	listing.HouseRules = houseRules(top["house_rules"])
	listing.CheckInOut = listing.HouseRules.CheckInOut

	listing.Amenities = amenities(top["amenities"])
	listing.Images = images(top["images"])
	listing.Location, listing.GettingAround = locationInfo(top["location_descriptions"])
	listing.Highlights = highlights(top["highlights"])
	listing.PropertyDetails = propertyDetails(top)

	return listing, nil
}

// round2 rounds half away from zero at two decimals. Done once here, never
// at render time.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func coordinates(raw json.RawMessage) string {
	var c models.RawCoordinates
	if raw == nil || json.Unmarshal(raw, &c) != nil {
		return ""
	}
	if c.Latitude == 0 && c.Longitude == 0 {
		return ""
	}
	return strconv.FormatFloat(c.Latitude, 'f', -1, 64) + "," +
		strconv.FormatFloat(c.Longitude, 'f', -1, 64)
}

func boolSection(raw json.RawMessage) bool {
	var v bool
	if raw == nil || json.Unmarshal(raw, &v) != nil {
		return false
	}
	return v
}

func intSection(raw json.RawMessage) int {
	var v int
	if raw == nil || json.Unmarshal(raw, &v) != nil {
		return 0
	}
	return v
}

func ratingSection(raw json.RawMessage) map[string]interface{} {
	var m map[string]interface{}
	if raw == nil || json.Unmarshal(raw, &m) != nil {
		return nil
	}
	return m
}

// averageRating is the mean of the numeric rating-category values, excluding
// the aggregate review_count. Values outside [0, 10] are skipped as noise.
func averageRating(rating map[string]interface{}) float64 {
	var sum float64
	var n int
	for key, value := range rating {
		if key == "review_count" {
			continue
		}
		v, ok := toFloat(value)
		if !ok || v < 0 || v > 10 {
			continue
		}
		sum += v
		n++
	}
	if n == 0 {
		return 0.0
	}
	return round2(sum / float64(n))
}

func reviewCount(rating map[string]interface{}) int {
	v, ok := toFloat(rating["review_count"])
	if !ok || v < 0 {
		return 0
	}
	return int(v)
}

// recentReviews keeps source order and drops malformed entries (missing
// comment or non-numeric rating) rather than failing. Only English reviews
// are kept, capped at maxRecentReviews.
func recentReviews(raw json.RawMessage) []models.Review {
	reviews := []models.Review{}

	var entries []models.RawReview
	if raw == nil || json.Unmarshal(raw, &entries) != nil {
		return reviews
	}

	for _, entry := range entries {
		if len(reviews) == maxRecentReviews {
			break
		}
		if !strings.EqualFold(entry.Language, "en") {
			continue
		}
		comment := strings.TrimSpace(entry.Comments)
		if comment == "" {
			continue
		}
		rating, ok := toFloat(entry.Rating)
		if !ok {
			continue
		}
		reviews = append(reviews, models.Review{
			Comment: comment,
			Rating:  int(rating),
			Date:    strings.TrimSpace(entry.LocalizedDate),
		})
	}

	return reviews
}

// houseRules groups general rules by their category label as supplied. The
// "Checking in and out" group is hoisted into CheckInOut instead of staying
// a general rule.
func houseRules(raw json.RawMessage) models.HouseRules {
	rules := models.HouseRules{
		CheckInOut:      []string{},
		GeneralRules:    []models.RuleGroup{},
		AdditionalRules: []string{},
	}

	var section models.RawHouseRules
	if raw == nil || json.Unmarshal(raw, &section) != nil {
		return rules
	}

	for _, line := range strings.Split(section.Additional, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			rules.AdditionalRules = append(rules.AdditionalRules, line)
		}
	}

	for _, group := range section.General {
		title := strings.TrimSpace(group.Title)
		values := []string{}
		for _, item := range group.Values {
			if v := strings.TrimSpace(item.Title); v != "" {
				values = append(values, v)
			}
		}
		if len(values) == 0 {
			continue
		}
		if strings.EqualFold(title, "checking in and out") {
			rules.CheckInOut = values
		} else {
			rules.GeneralRules = append(rules.GeneralRules, models.RuleGroup{
				Category: title,
				Rules:    values,
			})
		}
	}

	return rules
}

// amenities preserves the source's category and item order. Duplicate
// category headers are last-seen-wins with the first occurrence's position
// kept, so repeated headers never reorder the display.
func amenities(raw json.RawMessage) []models.AmenityGroup {
	groups := []models.AmenityGroup{}

	var entries []models.RawAmenityGroup
	if raw == nil || json.Unmarshal(raw, &entries) != nil {
		return groups
	}

	position := make(map[string]int)
	for _, entry := range entries {
		category := strings.TrimSpace(entry.Title)
		if category == "" {
			continue
		}

		items := []string{}
		for _, item := range entry.Values {
			title := strings.TrimSpace(item.Title)
			if title == "" {
				continue
			}
			if subtitle := strings.TrimSpace(item.Subtitle); subtitle != "" {
				title += ": (" + subtitle + ")"
			}
			items = append(items, title)
		}
		if len(items) == 0 {
			continue
		}

		if i, seen := position[category]; seen {
			groups[i].Items = items
			continue
		}
		position[category] = len(groups)
		groups = append(groups, models.AmenityGroup{Category: category, Items: items})
	}

	return groups
}

func images(raw json.RawMessage) []string {
	urls := []string{}

	var entries []models.RawImage
	if raw == nil || json.Unmarshal(raw, &entries) != nil {
		return urls
	}
	for _, entry := range entries {
		if u := strings.TrimSpace(entry.URL); u != "" {
			urls = append(urls, u)
		}
	}
	return urls
}

// locationInfo splits the location description blocks into the search label
// and the getting-around text. An uncategorized first description doubles as
// the location when no neighbourhood block exists.
func locationInfo(raw json.RawMessage) (location, gettingAround string) {
	var entries []models.RawLocationDescription
	if raw == nil || json.Unmarshal(raw, &entries) != nil {
		return "", ""
	}

	for _, entry := range entries {
		title := strings.ToLower(strings.TrimSpace(entry.Title))
		content := cleanHTML(entry.Content)

		switch {
		case title == "getting around":
			gettingAround = content
		case title == "neighbourhood highlights":
			location = content
		case location == "" && content != "":
			location = content
		}
	}
	return location, gettingAround
}

func highlights(raw json.RawMessage) []string {
	titles := []string{}

	var entries []models.RawHighlight
	if raw == nil || json.Unmarshal(raw, &entries) != nil {
		return titles
	}
	for _, entry := range entries {
		if t := strings.TrimSpace(entry.Title); t != "" {
			titles = append(titles, t)
		}
	}
	return titles
}

func propertyDetails(top map[string]json.RawMessage) models.PropertyDetails {
	details := models.PropertyDetails{
		Layout: []string{},
	}

	var roomType string
	if raw := top["room_type"]; raw != nil {
		if json.Unmarshal(raw, &roomType) == nil {
			details.RoomType = strings.TrimSpace(roomType)
		}
	}
	details.IsGuestFavorite = boolSection(top["is_guest_favorite"])
	details.IsSuperHost = boolSection(top["is_super_host"])

	var sub models.RawSubDescription
	if raw := top["sub_description"]; raw != nil && json.Unmarshal(raw, &sub) == nil && sub.Items != nil {
		details.Layout = sub.Items
	}

	return details
}

func cleanHTML(content string) string {
	content = strings.ReplaceAll(content, "<br />", "\n")
	content = strings.ReplaceAll(content, "&nbsp;", " ")
	return strings.TrimSpace(content)
}

// toFloat coerces the loosely typed numbers the payload carries: JSON
// numbers decode to float64, but ratings have been seen as strings too.
func toFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case string:
		s := strings.TrimSpace(n)
		if s == "" {
			return 0, false
		}
		f, err := strconv.ParseFloat(s, 64)
		return f, err == nil
	default:
		return 0, false
	}
}
