package armslist

import (
	"bytes"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/elkriver/inventory-cli/internal/resilience"
)

// Plausibility band for parsed prices; anything outside is kept as text only.
const (
	minPlausiblePrice = 10.0
	maxPlausiblePrice = 50000.0
)

var nonNumericRe = regexp.MustCompile(`[^\d.]`)

// parseListings extracts classified ads from a search results page. The
// markup has no stable schema, so listing containers are located by partial
// class-name match with a fallback chain, and each candidate is parsed
// independently: one malformed element never aborts the whole parse.
func parseListings(body []byte, baseURL string) ([]Listing, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, resilience.NewParseError("armslist search results", err)
	}

	elements := divsWithClassContaining(doc, "listing")
	if elements.Length() == 0 {
		elements = divsWithClassContaining(doc, "item", "product")
	}

	listings := make([]Listing, 0, elements.Length())
	elements.Each(func(_ int, item *goquery.Selection) {
		listings = append(listings, parseListing(item, baseURL))
	})

	return listings, nil
}

// divsWithClassContaining selects divs whose class attribute contains any of
// the given substrings, case-insensitively.
func divsWithClassContaining(doc *goquery.Document, substrings ...string) *goquery.Selection {
	return doc.Find("div").FilterFunction(func(_ int, s *goquery.Selection) bool {
		class, ok := s.Attr("class")
		if !ok {
			return false
		}
		lower := strings.ToLower(class)
		for _, sub := range substrings {
			if strings.Contains(lower, sub) {
				return true
			}
		}
		return false
	})
}

// parseListing extracts one ad's fields, each independently best-effort.
func parseListing(item *goquery.Selection, baseURL string) Listing {
	title := "No Title"
	if h := item.Find("h3, h2").First(); h.Length() > 0 {
		title = strings.TrimSpace(h.Text())
	}

	priceText := "Price not listed"
	if p := childWithClassContaining(item, "span, div", "price"); p != nil {
		priceText = strings.TrimSpace(p.Text())
	}
	price := parsePrice(priceText)

	link := "#"
	if a := item.Find("a[href]").First(); a.Length() > 0 {
		href, _ := a.Attr("href")
		if strings.HasPrefix(href, "/") {
			link = baseURL + href
		} else if href != "" {
			link = href
		}
	}

	location := "Location not specified"
	if loc := childWithClassContaining(item, "div", "location"); loc != nil {
		location = strings.TrimSpace(loc.Text())
	}

	ships := false
	if sh := childWithClassContaining(item, "span", "ship"); sh != nil {
		ships = strings.EqualFold(strings.TrimSpace(sh.Text()), "will ship")
	}

	return Listing{
		Title:     title,
		Price:     price,
		PriceText: priceText,
		Link:      link,
		Location:  location,
		Ships:     ships,
		Source:    sourceLabel,
	}
}

// childWithClassContaining returns the first descendant matching selector
// whose class contains sub (case-insensitive), or nil.
func childWithClassContaining(item *goquery.Selection, selector, sub string) *goquery.Selection {
	found := item.Find(selector).FilterFunction(func(_ int, s *goquery.Selection) bool {
		class, ok := s.Attr("class")
		return ok && strings.Contains(strings.ToLower(class), sub)
	})
	if found.Length() == 0 {
		return nil
	}
	return found.First()
}

// parsePrice normalizes a price string like "$1,234.56" to a number. Values
// outside the plausibility band are discarded rather than reported.
func parsePrice(priceText string) *float64 {
	if !strings.Contains(priceText, "$") {
		return nil
	}
	cleaned := nonNumericRe.ReplaceAllString(priceText, "")
	value, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return nil
	}
	if value < minPlausiblePrice || value > maxPlausiblePrice {
		return nil
	}
	return &value
}
