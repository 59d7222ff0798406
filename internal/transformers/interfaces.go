package transformers

import (
	"time"

	"houseofstone-client/internal/models"
)

type PropertyTransformer interface {
	TransformAPIResponse(body []byte) (*models.Property, error)
	TransformAPIList(body []byte) ([]models.Property, error)
	ToSaved(property *models.Property, savedAt time.Time) models.SavedProperty
	ToRecentlyViewed(property *models.Property, viewedAt time.Time) models.RecentlyViewed
}
