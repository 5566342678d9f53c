package crawler

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"oto_scraper/identity"
)

// Fetcher retrieves listing and detail pages from the target site with a
// randomized browser identity per request.
type Fetcher struct {
	client  *http.Client
	baseURL string
}

func NewFetcher(client *http.Client, baseURL string) *Fetcher {
	return &Fetcher{client: client, baseURL: baseURL}
}

// ListingHTML fetches one search-results page for a category.
func (f *Fetcher) ListingHTML(ctx context.Context, category string, page int) (string, error) {
	url := fmt.Sprintf("%s/pl/wyniki/sprzedaz/%s/cala-polska?page=%d", f.baseURL, category, page)
	return f.get(ctx, url)
}

// DetailHTML fetches one offer's detail page by canonical URL.
func (f *Fetcher) DetailHTML(ctx context.Context, url string) (string, error) {
	return f.get(ctx, url)
}

func (f *Fetcher) get(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header = identity.RandomHeaders()

	resp, err := f.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("get %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("get %s: status %d", url, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", url, err)
	}
	return string(body), nil
}
