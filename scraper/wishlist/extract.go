package wishlist

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"wishlist-tracker/models"
)

// Selectors for each semantic field inside one item container.
const (
	nameSelector          = `a.a-link-normal[id^="itemName_"]`
	byLineSelector        = `span.a-size-base[id^="item-byline-"]`
	priceSymbolSelector   = `span.a-price-symbol`
	priceWholeSelector    = `span.a-price-whole`
	priceFractionSelector = `span.a-price-fraction`
	usedNewPriceSelector  = `span.a-color-price.itemUsedAndNewPrice`
	ratingSelector        = `span.a-icon-alt`
	reviewCountSelector   = `a[class="a-size-base a-link-normal"]`
	itemIDSelector        = `input[name="itemId"]`
	externalIDSelector    = `input[name="itemExternalId"]`
)

var (
	wholeRegexp    = regexp.MustCompile(`^\d[\d,.\s]*$`)
	fractionRegexp = regexp.MustCompile(`^\d+$`)
	digitRegexp    = regexp.MustCompile(`\d`)
)

// ExtractName returns the item's display name from the title attribute of
// the item link. A missing name is fatal for the item.
func ExtractName(f Fragment) (string, error) {
	var name string
	f.find(nameSelector).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		title, ok := s.Attr("title")
		if ok && strings.TrimSpace(title) != "" {
			name = title
			return false
		}
		return true
	})
	if name == "" {
		return "", &ExtractError{Field: "name", Err: ErrItemNameNotFound}
	}
	return name, nil
}

// ExtractByLine returns the author/byline text. Unlike the commercial fields
// it does not degrade: a missing byline is fatal for the item.
// The whole span text is read, so a byline wrapped in a link still counts.
func ExtractByLine(f Fragment) (string, error) {
	text := strings.TrimSpace(f.find(byLineSelector).First().Text())
	if text == "" {
		return "", &ExtractError{Field: "byline", Err: ErrByLineNotFound}
	}
	return text, nil
}

// ExtractPrice assembles the list price from its symbol, whole and fraction
// parts, e.g. "$12.34".
func ExtractPrice(f Fragment) models.Field[string] {
	symbol, ok := firstContent(f.find(priceSymbolSelector))
	if !ok {
		return models.Unavailable[string]()
	}
	whole, ok := firstContent(f.find(priceWholeSelector))
	if !ok {
		return models.Unavailable[string]()
	}
	fraction, ok := firstContent(f.find(priceFractionSelector))
	if !ok {
		return models.Unavailable[string]()
	}

	symbol = strings.TrimSpace(symbol)
	whole = strings.TrimRight(strings.TrimSpace(whole), ".,")
	fraction = strings.TrimSpace(fraction)
	if !wholeRegexp.MatchString(whole) || !fractionRegexp.MatchString(fraction) {
		return models.Unavailable[string]()
	}
	return models.Available(symbol + whole + "." + fraction)
}

// ExtractUsedNewPrice returns the "Used & New" offer price text.
func ExtractUsedNewPrice(f Fragment) models.Field[string] {
	text, ok := firstContent(f.find(usedNewPriceSelector))
	if !ok {
		return models.Unavailable[string]()
	}
	text = strings.TrimSpace(text)
	if !digitRegexp.MatchString(text) {
		return models.Unavailable[string]()
	}
	return models.Available(text)
}

// ExtractRating parses "X out of Y stars" into (X, Y). Both numbers are
// taken by position; the scale is never assumed.
func ExtractRating(f Fragment) models.Field[models.Rating] {
	text, ok := firstContent(f.find(ratingSelector))
	if !ok {
		return models.Unavailable[models.Rating]()
	}
	rating, ok := ParseRating(text)
	if !ok {
		return models.Unavailable[models.Rating]()
	}
	return models.Available(rating)
}

// ParseRating reads the first and fourth whitespace-separated tokens of a
// rating sentence as value and scale.
func ParseRating(text string) (models.Rating, bool) {
	parts := strings.Fields(text)
	if len(parts) < 4 {
		return models.Rating{}, false
	}
	value, err := strconv.ParseFloat(parts[0], 64)
	if err != nil {
		return models.Rating{}, false
	}
	scale, err := strconv.ParseFloat(parts[3], 64)
	if err != nil || scale <= 0 || value < 0 || value > scale {
		return models.Rating{}, false
	}
	return models.Rating{Value: value, Scale: scale}, true
}

// ExtractReviewCount returns the number of reviews, or zero when the count
// is missing or unreadable.
func ExtractReviewCount(f Fragment) int {
	text, ok := firstContent(f.find(reviewCountSelector))
	if !ok {
		return 0
	}
	text = strings.ReplaceAll(strings.TrimSpace(text), ",", "")
	n, err := strconv.Atoi(text)
	if err != nil || n < 0 {
		return 0
	}
	return n
}

// ExtractItemID returns the site-assigned item identifier, or "".
func ExtractItemID(f Fragment) string {
	return inputValue(f, itemIDSelector)
}

// ExtractExternalID returns the secondary external identifier, or "".
func ExtractExternalID(f Fragment) string {
	return inputValue(f, externalIDSelector)
}

func inputValue(f Fragment, selector string) string {
	val, ok := f.find(selector).First().Attr("value")
	if !ok {
		return ""
	}
	return strings.TrimSpace(val)
}

func (f Fragment) find(selector string) *goquery.Selection {
	if f.sel == nil {
		return &goquery.Selection{}
	}
	return f.sel.Find(selector)
}

// firstContent returns the text of the first child node of the first
// matched element.
func firstContent(s *goquery.Selection) (string, bool) {
	if s.Length() == 0 {
		return "", false
	}
	child := s.First().Contents().First()
	if child.Length() == 0 {
		return "", false
	}
	return child.Text(), true
}
