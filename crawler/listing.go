package crawler

import (
	"fmt"

	"oto_scraper/extract"
	"oto_scraper/models"
)

// totalPages reads the category's page count from a listing payload's
// pagination sub-object.
func totalPages(searchAds map[string]any) (int, error) {
	pagination, ok := searchAds["pagination"].(map[string]any)
	if !ok {
		return 0, fmt.Errorf("%w: pagination missing", extract.ErrMalformedPayload)
	}
	pages, ok := pagination["totalPages"].(float64)
	if !ok {
		return 0, fmt.Errorf("%w: totalPages missing", extract.ErrMalformedPayload)
	}
	return int(pages), nil
}

// parseOffers pulls the offer summaries out of a listing payload's item
// array. Items with unexpected shapes are skipped, not fatal.
func parseOffers(searchAds map[string]any) []models.OfferSummary {
	items, _ := searchAds["items"].([]any)

	offers := make([]models.OfferSummary, 0, len(items))
	for _, item := range items {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		kind, _ := m["estate"].(string)
		href, _ := m["href"].(string)
		slug, _ := m["slug"].(string)
		title, _ := m["title"].(string)
		offers = append(offers, models.OfferSummary{
			Kind:  models.OfferKind(kind),
			Href:  href,
			Slug:  slug,
			Title: title,
		})
	}
	return offers
}
