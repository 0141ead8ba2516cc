package model

// MarketListing is a single live listing scraped from an online marketplace.
// Price is nil when missing from the page or outside the plausibility band
// enforced at the client layer.
type MarketListing struct {
	Title     string   `json:"title"`
	Price     *float64 `json:"price"`
	PriceText string   `json:"price_text"`
	Link      string   `json:"link"`
	Location  string   `json:"location"`
	Ships     bool     `json:"ships"`
	Source    string   `json:"source"`
}

// ValidPrices extracts the non-nil prices from a set of market listings.
func ValidPrices(listings []MarketListing) []float64 {
	var prices []float64
	for _, l := range listings {
		if l.Price != nil {
			prices = append(prices, *l.Price)
		}
	}
	return prices
}
