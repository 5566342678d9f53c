package normalize

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"oto_scraper/models"
)

// ErrIncompleteRecord is returned when the payload lacks the slug that
// downstream storage keys on. Deliberately loud: no placeholder is
// substituted.
var ErrIncompleteRecord = errors.New("payload missing slug")

// Record flattens one offer detail payload into a canonical record. Missing
// optional fields normalize to null values; only a missing slug is an error.
func Record(payload map[string]any) (*models.CanonicalRecord, error) {
	slug, _ := payload["slug"].(string)
	if slug == "" {
		return nil, ErrIncompleteRecord
	}

	chars := characteristics(payload)

	rec := &models.CanonicalRecord{
		ID:   payload["id"],
		Slug: slug,

		Market:             firstString(chars, "market"),
		RoomsNum:           firstString(chars, "rooms_num"),
		BuildingType:       firstString(chars, "building_type"),
		FloorsNum:          firstString(chars, "floors_num"),
		BuildYear:          firstString(chars, "build_year"),
		ConstructionStatus: firstString(chars, "construction_status"),
		Rent:               firstFloat(chars, "rent"),

		CityName:     PathString(payload, "location", "address", "city", "name"),
		ProvinceCode: PathString(payload, "location", "address", "province", "code"),
		Latitude:     PathFloat(payload, "location", "coordinates", "latitude"),
		Longitude:    PathFloat(payload, "location", "coordinates", "longitude"),
		StreetName:   PathString(payload, "location", "address", "street", "name"),

		SecurityTypes: PathStringList(payload, "target", "Security_types"),
		MediaTypes:    PathStringList(payload, "target", "Media_types"),
	}

	if agencyType := PathString(payload, "agency", "type"); agencyType != nil && *agencyType == "agency" {
		rec.IsAgencyOffer = 1
	}
	if advertType, _ := payload["advertType"].(string); advertType == "DEVELOPER_UNIT" {
		rec.IsDeveloperOffer = 1
	}

	rec.Features = featureColumns(payload)

	// Final coercion pass: the three headline numerics are floats in the
	// record even when the source carries them as strings.
	rec.Price = asFloat(firstValue(chars, "price"))
	rec.PropertySizeM2 = asFloat(firstValue(chars, "m"))
	rec.TerrainArea = asFloat(firstValue(chars, "terrain_area"))

	return rec, nil
}

// characteristics returns the payload's key/value characteristic list, or
// nil when absent.
func characteristics(payload map[string]any) []any {
	list, _ := payload["characteristics"].([]any)
	return list
}

// firstValue scans the characteristics list and returns the value of the
// first entry matching key. Duplicate keys take the first occurrence.
func firstValue(chars []any, key string) any {
	for _, entry := range chars {
		m, ok := entry.(map[string]any)
		if !ok {
			continue
		}
		if k, _ := m["key"].(string); k == key {
			return m["value"]
		}
	}
	return nil
}

func firstString(chars []any, key string) *string {
	return asString(firstValue(chars, key))
}

func firstFloat(chars []any, key string) *float64 {
	return asFloat(firstValue(chars, key))
}

// featureColumns builds one column per feature label. An empty taxonomy
// short-circuits to no extra columns.
func featureColumns(payload map[string]any) map[string]any {
	groups, _ := payload["featuresByCategory"].([]any)
	if len(groups) == 0 {
		return nil
	}

	cols := make(map[string]any, len(groups))
	for _, entry := range groups {
		m, ok := entry.(map[string]any)
		if !ok {
			continue
		}
		label, _ := m["label"].(string)
		if label == "" {
			continue
		}
		cols[label] = featureValue(m["values"])
	}
	return cols
}

func featureValue(v any) any {
	switch values := v.(type) {
	case nil:
		return nil
	case string:
		if values == "" {
			return nil
		}
		return []string{values}
	case []any:
		out := make([]string, 0, len(values))
		for _, item := range values {
			if s := asString(item); s != nil {
				out = append(out, *s)
			}
		}
		if len(out) == 0 {
			return nil
		}
		return out
	default:
		if s := asString(v); s != nil {
			return []string{*s}
		}
		return nil
	}
}

// PathString walks nested maps and returns the string at the path, or nil
// when any segment is absent or the leaf has another type.
func PathString(m map[string]any, path ...string) *string {
	return asString(pathValue(m, path...))
}

// PathFloat is PathString for float leaves, accepting numeric strings.
func PathFloat(m map[string]any, path ...string) *float64 {
	return asFloat(pathValue(m, path...))
}

// PathStringList returns the list of strings at the path, or nil.
func PathStringList(m map[string]any, path ...string) []string {
	list, ok := pathValue(m, path...).([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(list))
	for _, item := range list {
		if s := asString(item); s != nil {
			out = append(out, *s)
		}
	}
	return out
}

func pathValue(m map[string]any, path ...string) any {
	var cur any = m
	for _, key := range path {
		node, ok := cur.(map[string]any)
		if !ok {
			return nil
		}
		cur, ok = node[key]
		if !ok {
			return nil
		}
	}
	return cur
}

func asString(v any) *string {
	var s string
	switch value := v.(type) {
	case nil:
		return nil
	case string:
		s = value
	case float64:
		s = strconv.FormatFloat(value, 'f', -1, 64)
	case json.Number:
		s = value.String()
	case bool:
		s = strconv.FormatBool(value)
	default:
		s = fmt.Sprint(value)
	}
	return &s
}

func asFloat(v any) *float64 {
	var f float64
	switch value := v.(type) {
	case nil:
		return nil
	case float64:
		f = value
	case int:
		f = float64(value)
	case json.Number:
		parsed, err := value.Float64()
		if err != nil {
			return nil
		}
		f = parsed
	case string:
		parsed, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return nil
		}
		f = parsed
	default:
		return nil
	}
	return &f
}
