package transformers

import (
	"testing"
	"time"

	"houseofstone-client/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransformAPIResponse(t *testing.T) {
	tr := NewPropertyTransformer()
	p, err := tr.TransformAPIResponse([]byte(`{"id":42,"title":"Villa","price":"500000.00","beds":4,"baths":null,"images":[{"image":"https://cdn.example.com/a.jpg"},{"image":"b.jpg"}]}`))
	require.NoError(t, err)
	assert.Equal(t, int64(42), p.ID)
	assert.True(t, p.Price.Equal(decimal.NewFromInt(500000)))
	require.NotNil(t, p.Beds)
	assert.Equal(t, 4, *p.Beds)
	assert.Nil(t, p.Baths)

	_, err = tr.TransformAPIResponse([]byte(`{"title":"no id"}`))
	assert.Error(t, err)
}

func TestTransformAPIList(t *testing.T) {
	tr := NewPropertyTransformer()

	list, err := tr.TransformAPIList([]byte(`[{"id":1,"title":"A","price":1},{"id":2,"title":"B","price":2}]`))
	require.NoError(t, err)
	assert.Len(t, list, 2)

	list, err = tr.TransformAPIList([]byte(` {"count":3,"next":"https://api/properties/?page=2","previous":null,"results":[{"id":3,"title":"C","price":"3.50"}]}`))
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "3.5", list[0].Price.String())
}

func TestSummaries(t *testing.T) {
	tr := NewPropertyTransformer()
	beds := 3
	p := &models.Property{
		ID:           7,
		Title:        "Townhouse",
		Price:        decimal.RequireFromString("275000"),
		Location:     "Harare",
		Beds:         &beds,
		Status:       "available",
		PropertyType: "house",
		Images:       []models.PropertyImage{{Image: "front.jpg"}},
	}
	at := time.Date(2026, 2, 3, 4, 5, 6, 0, time.FixedZone("CAT", 2*3600))

	saved := tr.ToSaved(p, at)
	assert.Equal(t, int64(7), saved.ID)
	require.NotNil(t, saved.PrimaryImage)
	assert.Equal(t, "front.jpg", *saved.PrimaryImage)
	assert.Equal(t, "house", saved.PropertyType)
	assert.Equal(t, time.UTC, saved.SavedAt.Location())

	p.Images = nil
	viewed := tr.ToRecentlyViewed(p, at)
	assert.Nil(t, viewed.PrimaryImage)
	assert.Equal(t, at.UTC(), viewed.ViewedAt)
}
