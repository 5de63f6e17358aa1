package locale

import (
	"strings"
)

// FallbackRegion is used when the time zone names no known country.
const FallbackRegion = "VN"

type Country struct {
	Code      string   // ISO 3166-1 alpha-2 country code (e.g., "VN", "US")
	Name      string   // Human-readable country name
	TimeZones []string // IANA zones that imply this country
}

var Countries = map[string]Country{
	"VN": {
		Code:      "VN",
		Name:      "Vietnam",
		TimeZones: []string{"Asia/Ho_Chi_Minh", "Asia/Saigon"},
	},
	"US": {
		Code:      "US",
		Name:      "United States",
		TimeZones: []string{"America/New_York", "America/Chicago", "America/Denver", "America/Los_Angeles", "US/Eastern", "US/Pacific"},
	},
	"IL": {
		Code:      "IL",
		Name:      "Israel",
		TimeZones: []string{"Asia/Jerusalem", "Israel", "Asia/Tel_Aviv"},
	},
}

// DetectRegion maps an IANA time zone to the country whose phone numbering
// plan local numbers are parsed with.
func DetectRegion(tz string) string {
	for code, country := range Countries {
		for _, zone := range country.TimeZones {
			if strings.EqualFold(tz, zone) {
				return code
			}
		}
	}
	return FallbackRegion
}
