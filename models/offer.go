package models

// OfferKind is the advert classification carried on each listing item.
type OfferKind string

const (
	OfferKindHouse      OfferKind = "HOUSE"
	OfferKindFlat       OfferKind = "FLAT"
	OfferKindInvestment OfferKind = "INVESTMENT"
)

// OfferSummary is one entry from a listing page's advert array.
type OfferSummary struct {
	Kind  OfferKind `json:"estate"`
	Href  string    `json:"href"`
	Slug  string    `json:"slug"`
	Title string    `json:"title"`
}
