package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Prices are written as JSON numbers, matching the records the browser build
// keeps under the same storage keys. Quoted prices are still accepted on read.
func init() {
	decimal.MarshalJSONWithoutQuotes = true
}

// SavedProperty is the summary kept in the local saved collection.
type SavedProperty struct {
	ID           int64           `json:"id"`
	Title        string          `json:"title"`
	Price        decimal.Decimal `json:"price"`
	Location     string          `json:"location"`
	Beds         *int            `json:"beds"`
	Baths        *int            `json:"baths"`
	Sqft         *int            `json:"sqft"`
	Status       string          `json:"status"`
	PropertyType string          `json:"property_type"`
	PrimaryImage *string         `json:"primaryImage"`
	SavedAt      time.Time       `json:"savedAt"`
}

// RecentlyViewed is the summary kept in the local recently-viewed collection.
type RecentlyViewed struct {
	ID           int64           `json:"id"`
	Title        string          `json:"title"`
	Price        decimal.Decimal `json:"price"`
	Location     string          `json:"location"`
	Beds         *int            `json:"beds"`
	Baths        *int            `json:"baths"`
	PrimaryImage *string         `json:"primaryImage"`
	ViewedAt     time.Time       `json:"viewedAt"`
}
