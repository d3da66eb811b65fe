package wishlist

import (
	"fmt"
	"strings"
	"testing"
)

// itemHTML renders one item container the way the list page lays it out.
// Empty arguments omit the corresponding markup.
type itemParts struct {
	Name        string
	ByLine      string
	Symbol      string
	Whole       string
	Fraction    string
	UsedNew     string
	Rating      string
	Reviews     string
	ItemID      string
	ExternalID  string
	nameNoTitle bool
}

func itemHTML(p itemParts) string {
	var b strings.Builder
	b.WriteString(`<div class="a-fixed-left-grid-inner" style="padding-left:220px">`)
	if p.Name != "" {
		fmt.Fprintf(&b, `<h3><a class="a-link-normal" id="itemName_%s" title="%s" href="/dp/%s">%s</a></h3>`,
			p.ItemID, p.Name, p.ExternalID, p.Name)
	}
	if p.nameNoTitle {
		b.WriteString(`<a class="a-link-normal" id="itemName_X" href="/dp/x">untitled</a>`)
	}
	if p.ByLine != "" {
		fmt.Fprintf(&b, `<span class="a-size-base" id="item-byline-%s">%s</span>`, p.ItemID, p.ByLine)
	}
	if p.Symbol != "" || p.Whole != "" || p.Fraction != "" {
		b.WriteString(`<span class="a-price">`)
		if p.Symbol != "" {
			fmt.Fprintf(&b, `<span class="a-price-symbol">%s</span>`, p.Symbol)
		}
		if p.Whole != "" {
			fmt.Fprintf(&b, `<span class="a-price-whole">%s<span class="a-price-decimal">.</span></span>`, p.Whole)
		}
		if p.Fraction != "" {
			fmt.Fprintf(&b, `<span class="a-price-fraction">%s</span>`, p.Fraction)
		}
		b.WriteString(`</span>`)
	}
	if p.UsedNew != "" {
		fmt.Fprintf(&b, `<span class="a-color-price itemUsedAndNewPrice">%s</span>`, p.UsedNew)
	}
	if p.Rating != "" {
		fmt.Fprintf(&b, `<i class="a-icon a-icon-star-small"><span class="a-icon-alt">%s</span></i>`, p.Rating)
	}
	if p.Reviews != "" {
		fmt.Fprintf(&b, `<a class="a-size-base a-link-normal" href="/reviews">%s</a>`, p.Reviews)
	}
	if p.ItemID != "" {
		fmt.Fprintf(&b, `<input type="hidden" name="itemId" value="%s">`, p.ItemID)
	}
	if p.ExternalID != "" {
		fmt.Fprintf(&b, `<input type="hidden" name="itemExternalId" value="%s">`, p.ExternalID)
	}
	b.WriteString(`</div>`)
	return b.String()
}

func fullItem() itemParts {
	return itemParts{
		Name:       "The Go Programming Language",
		ByLine:     "by Alan Donovan (Paperback)",
		Symbol:     "$",
		Whole:      "12",
		Fraction:   "34",
		UsedNew:    "$9.10",
		Rating:     "4.5 out of 5 stars",
		Reviews:    "1,234",
		ItemID:     "I2ABCDEF",
		ExternalID: "0134190440",
	}
}

func pageHTML(items ...string) string {
	return "<html><body><div id=\"g-items\">" + strings.Join(items, "") + "</div></body></html>"
}

func mustFragment(t *testing.T, snippet string) Fragment {
	t.Helper()
	f, err := FragmentFromHTML(snippet)
	if err != nil {
		t.Fatalf("FragmentFromHTML: %v", err)
	}
	return f
}
