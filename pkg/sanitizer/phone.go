package sanitizer

import (
	"strings"

	"github.com/nyaruka/phonenumbers"
)

var (
	defaultRegions = []string{
		"VN",
		"US",
	}
)

// NormalizePhone formats phone as E.164, trying each region in order for
// numbers written without a country code. It returns "" when no region
// yields a valid number.
func NormalizePhone(phone string, regions ...string) string {
	phone = strings.TrimSpace(phone)

	if phone == "" {
		return ""
	}
	if len(regions) == 0 {
		regions = defaultRegions
	}

	for _, region := range regions {
		parsedNumber, err := phonenumbers.Parse(phone, strings.ToUpper(region))
		if err == nil && phonenumbers.IsValidNumber(parsedNumber) {
			return phonenumbers.Format(parsedNumber, phonenumbers.E164)
		}
	}
	return ""
}
