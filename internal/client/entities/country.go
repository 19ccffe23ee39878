package entities

import (
	"fmt"
	"strings"

	"github.com/dmitrijs2005/admindata/internal/client/bridge"
	"github.com/dmitrijs2005/admindata/internal/models"
)

// Third-party country payload fields.
const (
	countryAnchor = "cca2"
	countryName   = "name"
)

// CountriesOperation is the bridge operation returning every country.
const CountriesOperation = "countries"

// CountryParser parses the country reference API (restcountries v3 shape)
// into country records keyed by ISO alpha-2 code.
var CountryParser = bridge.AnchorParser{
	Anchor:    countryAnchor,
	Transform: countryRecord,
}

func countryRecord(raw models.Record) (models.Record, error) {
	code := strings.ToUpper(raw.String(countryAnchor))

	name := ""
	switch n := raw[countryName].(type) {
	case string:
		name = n
	case map[string]any:
		if common, ok := n["common"].(string); ok {
			name = common
		}
	}
	if name == "" {
		return nil, fmt.Errorf("country %s has no name", code)
	}

	r := models.Record{
		models.FieldID: code,
		"code":         code,
		"name":         name,
	}
	if region := raw.String("region"); region != "" {
		r["region"] = region
	}
	if caps, ok := raw["capital"].([]any); ok && len(caps) > 0 {
		if c, ok := caps[0].(string); ok {
			r["capital"] = c
		}
	}
	return r, nil
}

// CountryFetch asks the bridge for all countries.
func CountryFetch() bridge.FetchParam {
	return bridge.FetchParam{
		Code: Countries.Name + ":all",
		Call: bridge.Call{Operation: CountriesOperation},
	}
}
