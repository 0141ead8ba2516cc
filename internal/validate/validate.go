// Package validate normalizes and rejects malformed firearm descriptors before
// they reach the pricing model, the marketplace client, or the record store.
package validate

import (
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/elkriver/inventory-cli/internal/model"
)

// Field length limits.
const (
	MaxManufacturerLen = 50
	MaxModelLen        = 50
	MaxCaliberLen      = 30
	MaxSectionLen      = 50
	MaxDescriptionLen  = 500
	MaxURLLen          = 2048
)

// Price plausibility band for listing prices.
const (
	MinPrice = 10.0
	MaxPrice = 50000.0
)

// ValidationError is a malformed firearm descriptor. It is never retried and
// surfaces as an immediate per-task failure.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func invalid(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

// Per-field character whitelists.
var (
	manufacturerPattern = regexp.MustCompile(`^[A-Za-z0-9\s&\-\.]{1,50}$`)
	modelPattern        = regexp.MustCompile(`^[A-Za-z0-9\s\-\./]{1,50}$`)
	caliberPattern      = regexp.MustCompile(`^[A-Za-z0-9\s\-\.X/]{1,30}$`)
	sectionPattern      = regexp.MustCompile(`^[A-Za-z0-9\s]{1,50}$`)
)

// sqlTokens are command-injection-style fragments rejected in any field.
// Defense in depth: the same validator guards the persistence collaborator.
var sqlTokens = []string{"SELECT", "INSERT", "UPDATE", "DELETE", "DROP", "UNION", "--", ";"}

// xssTokens are markup fragments rejected in free-text fields.
var xssTokens = []string{"<script", "<iframe", "<object", "<embed", "javascript:", "onload=", "onerror="}

// allowedDomains restricts scraping and listing URLs to known hosts.
var allowedDomains = map[string]bool{
	"elkriverguns.com":     true,
	"www.elkriverguns.com": true,
	"armslist.com":         true,
	"www.armslist.com":     true,
}

func containsSQLToken(s string) bool {
	for _, tok := range sqlTokens {
		if strings.Contains(s, tok) {
			return true
		}
	}
	return false
}

// Manufacturer validates and normalizes a manufacturer name to upper case.
func Manufacturer(manufacturer string) (string, error) {
	cleaned := strings.ToUpper(strings.TrimSpace(manufacturer))
	if cleaned == "" {
		return "", invalid("manufacturer", "must not be empty")
	}
	if len(cleaned) > MaxManufacturerLen {
		return "", invalid("manufacturer", fmt.Sprintf("too long (max %d characters)", MaxManufacturerLen))
	}
	if !manufacturerPattern.MatchString(cleaned) {
		return "", invalid("manufacturer", "contains invalid characters")
	}
	if containsSQLToken(cleaned) {
		return "", invalid("manufacturer", "contains invalid content")
	}
	return cleaned, nil
}

// Model validates and normalizes a model name to upper case.
func Model(modelName string) (string, error) {
	cleaned := strings.ToUpper(strings.TrimSpace(modelName))
	if cleaned == "" {
		return "", invalid("model", "must not be empty")
	}
	if len(cleaned) > MaxModelLen {
		return "", invalid("model", fmt.Sprintf("too long (max %d characters)", MaxModelLen))
	}
	if !modelPattern.MatchString(cleaned) {
		return "", invalid("model", "contains invalid characters")
	}
	if containsSQLToken(cleaned) {
		return "", invalid("model", "contains invalid content")
	}
	return cleaned, nil
}

// Caliber validates and normalizes a caliber designation to upper case.
func Caliber(caliber string) (string, error) {
	cleaned := strings.ToUpper(strings.TrimSpace(caliber))
	if cleaned == "" {
		return "", invalid("caliber", "must not be empty")
	}
	if len(cleaned) > MaxCaliberLen {
		return "", invalid("caliber", fmt.Sprintf("too long (max %d characters)", MaxCaliberLen))
	}
	if !caliberPattern.MatchString(cleaned) {
		return "", invalid("caliber", "contains invalid characters")
	}
	if containsSQLToken(cleaned) {
		return "", invalid("caliber", "contains invalid content")
	}
	return cleaned, nil
}

// SearchParams validates the (manufacturer, model, caliber) triple used for
// pricing and marketplace search, returning the cleaned values.
func SearchParams(manufacturer, modelName, caliber string) (string, string, string, error) {
	m, err := Manufacturer(manufacturer)
	if err != nil {
		return "", "", "", err
	}
	mo, err := Model(modelName)
	if err != nil {
		return "", "", "", err
	}
	c, err := Caliber(caliber)
	if err != nil {
		return "", "", "", err
	}
	return m, mo, c, nil
}

// Price parses and validates a listing price, accepting "$1,234.56" style
// strings, and rounds to cents.
func Price(raw string) (float64, error) {
	cleaned := strings.NewReplacer("$", "", ",", "").Replace(strings.TrimSpace(raw))
	price, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, invalid("price", "must be a valid number")
	}
	return PriceValue(price)
}

// PriceValue validates a numeric price against the plausibility band.
func PriceValue(price float64) (float64, error) {
	if price < MinPrice {
		return 0, invalid("price", fmt.Sprintf("too low (minimum $%.0f)", MinPrice))
	}
	if price > MaxPrice {
		return 0, invalid("price", fmt.Sprintf("too high (maximum $%.0f)", MaxPrice))
	}
	return float64(int(price*100+0.5)) / 100, nil
}

// Condition validates a condition string against the allowed set.
func Condition(condition string) (model.Condition, error) {
	cleaned := model.Condition(strings.ToLower(strings.TrimSpace(condition)))
	if cleaned != model.ConditionNew && cleaned != model.ConditionUsed {
		return "", invalid("condition", "must be one of: new, used")
	}
	return cleaned, nil
}

// Section validates an inventory section name.
func Section(section string) (string, error) {
	cleaned := strings.TrimSpace(section)
	if cleaned == "" {
		return "", invalid("section", "must not be empty")
	}
	if len(cleaned) > MaxSectionLen {
		return "", invalid("section", fmt.Sprintf("too long (max %d characters)", MaxSectionLen))
	}
	if !sectionPattern.MatchString(cleaned) {
		return "", invalid("section", "contains invalid characters")
	}
	return cleaned, nil
}

// Description validates a free-text description. Empty is allowed.
func Description(description string) (string, error) {
	cleaned := strings.TrimSpace(description)
	if len(cleaned) > MaxDescriptionLen {
		return "", invalid("description", fmt.Sprintf("too long (max %d characters)", MaxDescriptionLen))
	}
	lower := strings.ToLower(cleaned)
	for _, tok := range xssTokens {
		if strings.Contains(lower, tok) {
			return "", invalid("description", "contains invalid content")
		}
	}
	if containsSQLToken(strings.ToUpper(cleaned)) {
		return "", invalid("description", "contains invalid content")
	}
	return cleaned, nil
}

// URL validates a scraping URL against the scheme and domain allowlist.
func URL(raw string) (string, error) {
	if raw == "" {
		return "", invalid("url", "must not be empty")
	}
	if len(raw) > MaxURLLen {
		return "", invalid("url", fmt.Sprintf("too long (max %d characters)", MaxURLLen))
	}
	parsed, err := url.Parse(raw)
	if err != nil {
		return "", invalid("url", "invalid format")
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return "", invalid("url", "scheme must be http or https")
	}
	if !allowedDomains[strings.ToLower(parsed.Host)] {
		return "", invalid("url", "domain not in allowlist")
	}
	return raw, nil
}

// Listing validates a complete scraped listing and returns the cleaned copy.
func Listing(l model.Listing) (model.Listing, error) {
	m, err := Manufacturer(l.Manufacturer)
	if err != nil {
		return model.Listing{}, err
	}
	mo, err := Model(l.Model)
	if err != nil {
		return model.Listing{}, err
	}
	c, err := Caliber(l.Caliber)
	if err != nil {
		return model.Listing{}, err
	}
	price, err := PriceValue(l.Price)
	if err != nil {
		return model.Listing{}, err
	}
	cond, err := Condition(string(l.Condition))
	if err != nil {
		return model.Listing{}, err
	}
	section, err := Section(l.Section)
	if err != nil {
		return model.Listing{}, err
	}
	desc, err := Description(l.Description)
	if err != nil {
		return model.Listing{}, err
	}

	return model.Listing{
		Section:      section,
		Manufacturer: m,
		Model:        mo,
		Caliber:      c,
		Price:        price,
		Description:  desc,
		Condition:    cond,
	}, nil
}

var displayEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&#x27;",
)

// SanitizeForDisplay HTML-escapes text for safe rendering by the dashboard
// collaborator.
func SanitizeForDisplay(text string) string {
	return strings.TrimSpace(displayEscaper.Replace(text))
}
