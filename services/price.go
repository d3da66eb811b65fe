package services

import (
	"regexp"
	"strconv"
	"strings"

	"wishlist-tracker/models"
)

// priceRegexp captures the numeric part of a price string
var priceRegexp = regexp.MustCompile(`\d[\d,]*(?:\.\d+)?`)

// ParsePrice converts a captured price string such as "$1,234.56" into a
// number. It reports false for N/A and for strings with no usable number.
func ParsePrice(raw string) (float64, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" || raw == models.NotAvailable {
		return 0, false
	}

	match := priceRegexp.FindString(raw)
	if match == "" {
		return 0, false
	}

	val, err := strconv.ParseFloat(strings.ReplaceAll(match, ",", ""), 64)
	if err != nil || val < 0 {
		return 0, false
	}
	return val, true
}
