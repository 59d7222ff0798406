package handlers

import (
	"net/http"

	"houseofstone-client/internal/services"
	"houseofstone-client/internal/transformers"
	"houseofstone-client/pkg/api"
	"houseofstone-client/pkg/logger"

	"github.com/gin-gonic/gin"
)

// PropertyHandler proxies public listing reads through the API client, so
// repeated reads are served from its response cache.
type PropertyHandler struct {
	properties  *api.PropertiesAPI
	saves       *services.SavedPropertiesService
	transformer transformers.PropertyTransformer
}

func NewPropertyHandler(client *api.Client, saves *services.SavedPropertiesService) *PropertyHandler {
	return &PropertyHandler{
		properties:  client.Properties(),
		saves:       saves,
		transformer: transformers.NewPropertyTransformer(),
	}
}

func (h *PropertyHandler) GetProperties(c *gin.Context) {
	resp, err := h.properties.List(c.Request.Context(), c.Request.URL.Query())
	if err != nil {
		_ = c.Error(err)
		return
	}
	writeUpstream(c, resp)
}

// GetPropertyByID returns the property and records it as recently viewed.
func (h *PropertyHandler) GetPropertyByID(c *gin.Context) {
	id, err := parseID(c.Param("id"))
	if err != nil {
		_ = c.Error(err)
		return
	}
	resp, err := h.properties.Get(c.Request.Context(), id)
	if err != nil {
		_ = c.Error(err)
		return
	}

	if h.saves != nil {
		if property, err := h.transformer.TransformAPIResponse(resp.Body); err != nil {
			logger.Default().Warnf("Property not recorded as viewed: id=%d, error=%v", id, err)
		} else if err := h.saves.RecordView(c.Request.Context(), property); err != nil {
			logger.Default().Warnf("Property not recorded as viewed: id=%d, error=%v", id, err)
		}
	}
	writeUpstream(c, resp)
}

func writeUpstream(c *gin.Context, resp *api.Response) {
	if resp.Cached {
		c.Header("X-Cache", "HIT")
	} else {
		c.Header("X-Cache", "MISS")
	}
	c.Data(http.StatusOK, "application/json; charset=utf-8", resp.Body)
}
