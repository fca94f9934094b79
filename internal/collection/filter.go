package collection

import (
	"encoding/json"
	"net/url"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"

	"storefront/internal/models"
)

// Filters maps a gjson path to the values it may match.
// Multiple values for the same path are treated as OR, different paths as AND.
type Filters map[string][]string

// FiltersFromQuery builds filters from URL query parameters. Keys starting
// with an underscore are reserved for the caller (cache busters such as
// ?_=1700000000) and never filter.
func FiltersFromQuery(query url.Values) Filters {
	f := make(Filters, len(query))
	for key, values := range query {
		if key == "" || strings.HasPrefix(key, "_") {
			continue
		}
		f[key] = values
	}
	return f
}

// Apply returns the records matching every filter, preserving order
func (f Filters) Apply(records []models.Record) []models.Record {
	if len(f) == 0 {
		return records
	}

	matched := make([]models.Record, 0, len(records))
	for _, rec := range records {
		data, err := json.Marshal(rec)
		if err != nil {
			continue
		}
		if f.matches(data) {
			matched = append(matched, rec)
		}
	}
	return matched
}

// matches checks if a record matches the filters
func (f Filters) matches(data []byte) bool {
	for path, values := range f {
		if len(values) == 0 {
			continue
		}

		result := gjson.GetBytes(data, path)
		if !result.Exists() {
			return false // Field doesn't exist in record
		}

		found := false
		for _, value := range values {
			if matchesValue(result, value) {
				found = true
				break
			}
		}

		if !found {
			return false // AND logic between different paths
		}
	}

	return true
}

// matchesValue checks if a JSON value matches a filter value
func matchesValue(result gjson.Result, filterValue string) bool {
	switch result.Type {
	case gjson.String:
		return result.Str == filterValue
	case gjson.Number:
		// Try to parse filter as number
		if filterNum, err := strconv.ParseFloat(filterValue, 64); err == nil {
			return result.Num == filterNum
		}
		return false
	case gjson.True, gjson.False:
		// Try to parse filter as boolean
		if filterBool, err := strconv.ParseBool(filterValue); err == nil {
			return result.Bool() == filterBool
		}
		return false
	case gjson.Null:
		return filterValue == "null"
	default:
		return result.Raw == filterValue
	}
}
