package models

import "encoding/json"

// CanonicalRecord is the flat normalized form of one offer's detail payload.
// Fixed columns are named fields; feature-taxonomy columns live in Features
// and are merged in at serialization time. On a name collision the feature
// column wins.
type CanonicalRecord struct {
	ID                 any
	Price              *float64
	PropertySizeM2     *float64
	TerrainArea        *float64
	Market             *string
	RoomsNum           *string
	BuildingType       *string
	FloorsNum          *string
	BuildYear          *string
	ConstructionStatus *string
	Rent               *float64
	CityName           *string
	ProvinceCode       *string
	Latitude           *float64
	Longitude          *float64
	StreetName         *string
	IsAgencyOffer      int
	IsDeveloperOffer   int
	SecurityTypes      []string
	MediaTypes         []string
	Slug               string

	// Features holds the dynamic columns contributed by featuresByCategory.
	// Values are []string or nil.
	Features map[string]any
}

// Columns flattens the record into a single column→value map, fixed columns
// first, feature columns layered on top.
func (r *CanonicalRecord) Columns() map[string]any {
	cols := map[string]any{
		"id":                  r.ID,
		"price":               nullable(r.Price),
		"property_size_m2":    nullable(r.PropertySizeM2),
		"terrain_area":        nullable(r.TerrainArea),
		"market":              nullable(r.Market),
		"rooms_num":           nullable(r.RoomsNum),
		"building_type":       nullable(r.BuildingType),
		"floors_num":          nullable(r.FloorsNum),
		"build_year":          nullable(r.BuildYear),
		"construction_status": nullable(r.ConstructionStatus),
		"rent":                nullable(r.Rent),
		"city_name":           nullable(r.CityName),
		"province_code":       nullable(r.ProvinceCode),
		"latitude":            nullable(r.Latitude),
		"longitude":           nullable(r.Longitude),
		"street_name":         nullable(r.StreetName),
		"is_agency_offer":     r.IsAgencyOffer,
		"is_developer_offer":  r.IsDeveloperOffer,
		"Security_types":      stringsOrNull(r.SecurityTypes),
		"Media_types":         stringsOrNull(r.MediaTypes),
		"slug":                r.Slug,
	}
	for label, value := range r.Features {
		cols[label] = value
	}
	return cols
}

// MarshalJSON emits the flat column map. encoding/json sorts map keys, which
// keeps the output stable across writes of the same record.
func (r *CanonicalRecord) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.Columns())
}

func nullable[T any](p *T) any {
	if p == nil {
		return nil
	}
	return *p
}

func stringsOrNull(s []string) any {
	if s == nil {
		return nil
	}
	return s
}
