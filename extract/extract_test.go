package extract

import (
	"errors"
	"strings"
	"testing"
)

const listingDoc = `<!DOCTYPE html>
<html><head><title>wyniki</title></head><body>
<div id="root">cards</div>
<script id="__NEXT_DATA__" type="application/json">
{"props":{"pageProps":{"data":{"searchAds":{"pagination":{"totalPages":7},"items":[{"estate":"HOUSE","slug":"x-ID1","href":"/pl/oferta/x-ID1"}]}}}}}
</script>
</body></html>`

const detailDoc = `<!DOCTYPE html>
<html><body>
<script id="__NEXT_DATA__" type="application/json">
{"props":{"pageProps":{"ad":{"id":42,"slug":"x-ID1","characteristics":[]}}}}
</script>
</body></html>`

func TestSearchData(t *testing.T) {
	searchAds, err := SearchData(strings.NewReader(listingDoc))
	if err != nil {
		t.Fatalf("extract failed: %v", err)
	}

	pagination, ok := searchAds["pagination"].(map[string]any)
	if !ok {
		t.Fatalf("pagination missing: %v", searchAds)
	}
	if pagination["totalPages"] != 7.0 {
		t.Fatalf("expected 7 pages, got %v", pagination["totalPages"])
	}
}

func TestAdPayload(t *testing.T) {
	ad, err := AdPayload(strings.NewReader(detailDoc))
	if err != nil {
		t.Fatalf("extract failed: %v", err)
	}
	if ad["slug"] != "x-ID1" {
		t.Fatalf("expected slug x-ID1, got %v", ad["slug"])
	}
}

func TestPageProps_MissingElement(t *testing.T) {
	doc := `<html><body><script id="other">{}</script></body></html>`

	_, err := PageProps(strings.NewReader(doc))
	if !errors.Is(err, ErrMissingPayload) {
		t.Fatalf("expected ErrMissingPayload, got %v", err)
	}
}

func TestPageProps_InvalidJSON(t *testing.T) {
	doc := `<html><body><script id="__NEXT_DATA__">{not json</script></body></html>`

	_, err := PageProps(strings.NewReader(doc))
	if !errors.Is(err, ErrMalformedPayload) {
		t.Fatalf("expected ErrMalformedPayload, got %v", err)
	}
}

func TestPageProps_UnresolvablePath(t *testing.T) {
	doc := `<html><body><script id="__NEXT_DATA__">{"props":{"other":1}}</script></body></html>`

	_, err := PageProps(strings.NewReader(doc))
	if !errors.Is(err, ErrMalformedPayload) {
		t.Fatalf("expected ErrMalformedPayload, got %v", err)
	}
}

func TestSearchData_DetailDocIsMalformed(t *testing.T) {
	_, err := SearchData(strings.NewReader(detailDoc))
	if !errors.Is(err, ErrMalformedPayload) {
		t.Fatalf("expected ErrMalformedPayload for a detail doc, got %v", err)
	}
}
