package config

import "strings"

// SupportedCounties is the closed set of administrative regions a record may
// belong to (the 26 counties of the Republic of Ireland).
var SupportedCounties = []string{
	"Carlow", "Cavan", "Clare", "Cork", "Donegal", "Dublin", "Galway",
	"Kerry", "Kildare", "Kilkenny", "Laois", "Leitrim", "Limerick",
	"Longford", "Louth", "Mayo", "Meath", "Monaghan", "Offaly",
	"Roscommon", "Sligo", "Tipperary", "Waterford", "Westmeath",
	"Wexford", "Wicklow",
}

// GetCountyNames returns the supported county names.
func GetCountyNames() []string {
	names := make([]string, len(SupportedCounties))
	copy(names, SupportedCounties)
	return names
}

// NormalizeCounty maps arbitrary casing and surrounding whitespace onto the
// canonical county name, or returns "" when the county is not in the set.
func NormalizeCounty(name string) string {
	trimmed := strings.TrimSpace(name)
	trimmed = strings.TrimPrefix(trimmed, "Co. ")
	trimmed = strings.TrimPrefix(trimmed, "County ")
	for _, county := range SupportedCounties {
		if strings.EqualFold(county, trimmed) {
			return county
		}
	}
	return ""
}

// IsValidCounty reports whether the name belongs to the closed county set.
func IsValidCounty(name string) bool {
	return NormalizeCounty(name) != ""
}
