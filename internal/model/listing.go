// Package model defines the core data types shared across the estimation pipeline.
package model

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
)

// Condition describes whether a firearm is sold new or used.
type Condition string

const (
	ConditionNew  Condition = "new"
	ConditionUsed Condition = "used"
)

// Listing is one scraped inventory row from the retailer site. Immutable once
// scraped; identity is the content hash of its descriptor fields.
type Listing struct {
	Section      string    `json:"section"`
	Manufacturer string    `json:"manufacturer"`
	Model        string    `json:"model"`
	Caliber      string    `json:"caliber"`
	Price        float64   `json:"price"`
	Description  string    `json:"description"`
	Condition    Condition `json:"condition"`
}

// Hash returns the content hash identifying this listing across scrapes.
// Condition is included so a new and a used gun with identical specs stay
// distinct records.
func (l Listing) Hash() string {
	unique := fmt.Sprintf("%s|%s|%s|%g|%s|%s",
		l.Manufacturer, l.Model, l.Caliber, l.Price, l.Description, l.Condition)
	sum := md5.Sum([]byte(unique))
	return hex.EncodeToString(sum[:])
}
