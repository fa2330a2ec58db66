package scraper

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"bnbtrack/models"
)

const statePage = `<html><head></head><body>
<div id="root"></div>
<script id="data-deferred-state-0" type="application/json">
{"listing":{"room_type":"Entire rental unit","person_capacity":4}}
</script>
</body></html>`

const bareStatePage = `<html><body>
<script id="data-deferred-state-0" type="application/json">
{"room_type":"Private room","person_capacity":2}
</script>
</body></html>`

func TestExtractEmbeddedState_Envelope(t *testing.T) {
	raw, err := ExtractEmbeddedState(strings.NewReader(statePage), "script#data-deferred-state-0")
	if err != nil {
		t.Fatalf("extract failed: %v", err)
	}

	var payload struct {
		RoomType       string `json:"room_type"`
		PersonCapacity int    `json:"person_capacity"`
	}
	if err := json.Unmarshal(raw, &payload); err != nil {
		t.Fatalf("payload is not json: %v", err)
	}
	if payload.RoomType != "Entire rental unit" {
		t.Fatalf("unexpected room type %q", payload.RoomType)
	}
	if payload.PersonCapacity != 4 {
		t.Fatalf("unexpected capacity %d", payload.PersonCapacity)
	}
}

func TestExtractEmbeddedState_NoEnvelope(t *testing.T) {
	raw, err := ExtractEmbeddedState(strings.NewReader(bareStatePage), "script#data-deferred-state-0")
	if err != nil {
		t.Fatalf("extract failed: %v", err)
	}

	var payload map[string]interface{}
	if err := json.Unmarshal(raw, &payload); err != nil {
		t.Fatalf("payload is not json: %v", err)
	}
	if payload["room_type"] != "Private room" {
		t.Fatalf("unexpected room type %v", payload["room_type"])
	}
}

func TestExtractEmbeddedState_MissingScript(t *testing.T) {
	_, err := ExtractEmbeddedState(strings.NewReader("<html><body></body></html>"), "script#data-deferred-state-0")
	if err == nil {
		t.Fatal("expected error for page without state script")
	}
	if !errors.Is(err, models.ErrFetch) {
		t.Fatalf("expected ErrFetch, got %v", err)
	}
}

func TestExtractEmbeddedState_NotJSON(t *testing.T) {
	page := `<html><body><script id="data-deferred-state-0">var x = 1;</script></body></html>`
	_, err := ExtractEmbeddedState(strings.NewReader(page), "script#data-deferred-state-0")
	if err == nil {
		t.Fatal("expected error for non-json state script")
	}
	if !errors.Is(err, models.ErrFetch) {
		t.Fatalf("expected ErrFetch, got %v", err)
	}
}
