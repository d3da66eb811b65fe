package wishlist

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Fragment is the markup subtree of one wish-list item.
// It is only consumed by the field extractors and never persisted.
type Fragment struct {
	sel *goquery.Selection
}

// HTML renders the fragment back to markup, mostly for debug logging.
func (f Fragment) HTML() string {
	if f.sel == nil {
		return ""
	}
	out, err := goquery.OuterHtml(f.sel)
	if err != nil {
		return ""
	}
	return out
}

// ParseFragments splits a rendered document into one Fragment per element
// matching selector, in document order.
func ParseFragments(document, selector string) ([]Fragment, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(document))
	if err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}

	var fragments []Fragment
	doc.Find(selector).Each(func(_ int, s *goquery.Selection) {
		fragments = append(fragments, Fragment{sel: s})
	})
	return fragments, nil
}

// FragmentFromHTML wraps a standalone markup snippet as a single Fragment.
func FragmentFromHTML(snippet string) (Fragment, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(snippet))
	if err != nil {
		return Fragment{}, fmt.Errorf("parse fragment: %w", err)
	}
	return Fragment{sel: doc.Find("body")}, nil
}
