package extract

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/PuerkitoBio/goquery"
)

// The listing site is a Next.js app: every page carries exactly one
// script#__NEXT_DATA__ element whose body is the page's structured content.
const payloadSelector = "script#__NEXT_DATA__"

var (
	// ErrMissingPayload means the embedded data element is absent from the
	// document. Treated by callers as a transient source-side anomaly.
	ErrMissingPayload = errors.New("embedded payload element not found")

	// ErrMalformedPayload means the element was present but its content was
	// not valid JSON, or the expected path did not resolve.
	ErrMalformedPayload = errors.New("embedded payload malformed")
)

// PageProps parses an HTML document and returns the object at
// props.pageProps inside the embedded payload.
func PageProps(r io.Reader) (map[string]any, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}

	sel := doc.Find(payloadSelector)
	if sel.Length() == 0 {
		return nil, ErrMissingPayload
	}

	var root map[string]any
	if err := json.Unmarshal([]byte(sel.First().Text()), &root); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}

	pageProps, ok := at(root, "props", "pageProps")
	if !ok {
		return nil, fmt.Errorf("%w: props.pageProps missing", ErrMalformedPayload)
	}
	return pageProps, nil
}

// SearchData returns the search-results object (props.pageProps.data.searchAds)
// from a listing page.
func SearchData(r io.Reader) (map[string]any, error) {
	pageProps, err := PageProps(r)
	if err != nil {
		return nil, err
	}
	searchAds, ok := at(pageProps, "data", "searchAds")
	if !ok {
		return nil, fmt.Errorf("%w: data.searchAds missing", ErrMalformedPayload)
	}
	return searchAds, nil
}

// AdPayload returns the single offer object (props.pageProps.ad) from a
// detail page.
func AdPayload(r io.Reader) (map[string]any, error) {
	pageProps, err := PageProps(r)
	if err != nil {
		return nil, err
	}
	ad, ok := at(pageProps, "ad")
	if !ok {
		return nil, fmt.Errorf("%w: ad missing", ErrMalformedPayload)
	}
	return ad, nil
}

func at(m map[string]any, path ...string) (map[string]any, bool) {
	cur := m
	for _, key := range path {
		next, ok := cur[key].(map[string]any)
		if !ok {
			return nil, false
		}
		cur = next
	}
	return cur, true
}
