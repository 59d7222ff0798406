package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Property is the listing shape returned by the backend API.
type Property struct {
	ID           int64           `json:"id" validate:"required,gt=0"`
	Title        string          `json:"title" validate:"required,max=200"`
	Description  string          `json:"description,omitempty"`
	Price        decimal.Decimal `json:"price"`
	Location     string          `json:"location" validate:"max=200"`
	PropertyType string          `json:"property_type,omitempty"`
	Status       string          `json:"status,omitempty"`
	Beds         *int            `json:"beds" validate:"omitempty,gte=0"`
	Baths        *int            `json:"baths" validate:"omitempty,gte=0"`
	Sqft         *int            `json:"sqft" validate:"omitempty,gte=0"`
	YearBuilt    *int            `json:"year_built,omitempty"`
	Latitude     *float64        `json:"latitude,omitempty"`
	Longitude    *float64        `json:"longitude,omitempty"`
	IsPublished  bool            `json:"is_published,omitempty"`
	Images       []PropertyImage `json:"images,omitempty"`
	CreatedAt    *time.Time      `json:"created_at,omitempty"`
}

type PropertyImage struct {
	ID      int64  `json:"id,omitempty"`
	Image   string `json:"image"`
	Caption string `json:"caption,omitempty"`
}

// PaginatedProperties is the DRF page envelope of GET /properties/.
type PaginatedProperties struct {
	Count    int64      `json:"count"`
	Next     *string    `json:"next"`
	Previous *string    `json:"previous"`
	Results  []Property `json:"results"`
}
