package scraper

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"bnbtrack/models"
)

// ExtractEmbeddedState pulls the JSON state blob that listing pages embed in
// a script tag. Pages wrap the listing payload in an envelope keyed
// "listing"; when that key is present the inner object is returned, otherwise
// the whole blob is.
func ExtractEmbeddedState(r io.Reader, selector string) (json.RawMessage, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w: parse page html: %v", models.ErrFetch, err)
	}

	node := doc.Find(selector).First()
	if node.Length() == 0 {
		return nil, fmt.Errorf("%w: no state script matching %q in page", models.ErrFetch, selector)
	}

	text := strings.TrimSpace(node.Text())
	if text == "" {
		return nil, fmt.Errorf("%w: state script %q is empty", models.ErrFetch, selector)
	}

	var envelope map[string]json.RawMessage
	if err := json.Unmarshal([]byte(text), &envelope); err != nil {
		return nil, fmt.Errorf("%w: state script is not a json object: %v", models.ErrFetch, err)
	}
	if inner, ok := envelope["listing"]; ok {
		return inner, nil
	}

	return json.RawMessage(text), nil
}
