package transformers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"houseofstone-client/internal/models"
)

type propertyTransformer struct{}

func NewPropertyTransformer() PropertyTransformer {
	return &propertyTransformer{}
}

// TransformAPIResponse decodes a single property from a detail response.
func (t *propertyTransformer) TransformAPIResponse(body []byte) (*models.Property, error) {
	var property models.Property
	if err := json.Unmarshal(body, &property); err != nil {
		return nil, fmt.Errorf("failed to decode property: %w", err)
	}
	if property.ID == 0 {
		return nil, fmt.Errorf("property id is missing")
	}
	return &property, nil
}

// TransformAPIList accepts both a bare JSON array and a paginated envelope.
func (t *propertyTransformer) TransformAPIList(body []byte) ([]models.Property, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var list []models.Property
		if err := json.Unmarshal(trimmed, &list); err != nil {
			return nil, fmt.Errorf("failed to decode property list: %w", err)
		}
		return list, nil
	}
	var page models.PaginatedProperties
	if err := json.Unmarshal(trimmed, &page); err != nil {
		return nil, fmt.Errorf("failed to decode property page: %w", err)
	}
	return page.Results, nil
}

func (t *propertyTransformer) ToSaved(property *models.Property, savedAt time.Time) models.SavedProperty {
	return models.SavedProperty{
		ID:           property.ID,
		Title:        property.Title,
		Price:        property.Price,
		Location:     property.Location,
		Beds:         property.Beds,
		Baths:        property.Baths,
		Sqft:         property.Sqft,
		Status:       property.Status,
		PropertyType: property.PropertyType,
		PrimaryImage: primaryImage(property),
		SavedAt:      savedAt.UTC(),
	}
}

func (t *propertyTransformer) ToRecentlyViewed(property *models.Property, viewedAt time.Time) models.RecentlyViewed {
	return models.RecentlyViewed{
		ID:           property.ID,
		Title:        property.Title,
		Price:        property.Price,
		Location:     property.Location,
		Beds:         property.Beds,
		Baths:        property.Baths,
		PrimaryImage: primaryImage(property),
		ViewedAt:     viewedAt.UTC(),
	}
}

// primaryImage is the first image, or nil when there is none.
func primaryImage(property *models.Property) *string {
	if len(property.Images) == 0 || property.Images[0].Image == "" {
		return nil
	}
	img := property.Images[0].Image
	return &img
}
