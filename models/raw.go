package models

// Raw payload structures mirror the fetcher's response shape for a single
// listing page. Every field is optional on the wire; each section is decoded
// independently so one malformed section never poisons the rest.

type RawCoordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

type RawAmenityGroup struct {
	Title  string           `json:"title"`
	Values []RawAmenityItem `json:"values"`
}

type RawAmenityItem struct {
	Title    string `json:"title"`
	Subtitle string `json:"subtitle"`
}

type RawImage struct {
	URL string `json:"url"`
}

type RawLocationDescription struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

type RawHighlight struct {
	Title string `json:"title"`
}

// RawReview keeps rating and comments loosely typed; payloads have been seen
// carrying ratings both as numbers and as strings.
type RawReview struct {
	Comments      string      `json:"comments"`
	Rating        interface{} `json:"rating"`
	Language      string      `json:"language"`
	LocalizedDate string      `json:"localizedDate"`
}

type RawHouseRules struct {
	Additional string         `json:"additional"`
	General    []RawRuleGroup `json:"general"`
}

type RawRuleGroup struct {
	Title  string        `json:"title"`
	Values []RawRuleItem `json:"values"`
}

type RawRuleItem struct {
	Title string `json:"title"`
}

type RawSubDescription struct {
	Items []string `json:"items"`
}
