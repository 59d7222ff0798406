package handlers

import (
	"net/http"

	"houseofstone-client/internal/models"
	"houseofstone-client/internal/services"

	"github.com/gin-gonic/gin"
)

type SavesHandler struct {
	saves     *services.SavedPropertiesService
	favorites services.FavoritesSyncer
}

func NewSavesHandler(saves *services.SavedPropertiesService, favorites services.FavoritesSyncer) *SavesHandler {
	return &SavesHandler{saves: saves, favorites: favorites}
}

func (h *SavesHandler) ListSaved(c *gin.Context) {
	saved := h.saves.Saved()
	c.JSON(http.StatusOK, gin.H{"count": len(saved), "results": saved})
}

// Toggle accepts a property as returned by the API.
func (h *SavesHandler) Toggle(c *gin.Context) {
	var property models.Property
	if err := c.ShouldBindJSON(&property); err != nil {
		_ = c.Error(badRequest(err))
		return
	}
	saved, err := h.saves.Toggle(c.Request.Context(), &property)
	if err != nil {
		_ = c.Error(badRequest(err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": property.ID, "saved": saved, "count": h.saves.SavedCount()})
}

func (h *SavesHandler) IsSaved(c *gin.Context) {
	id, err := parseID(c.Param("id"))
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": id, "saved": h.saves.IsSaved(id)})
}

func (h *SavesHandler) Remove(c *gin.Context) {
	id, err := parseID(c.Param("id"))
	if err != nil {
		_ = c.Error(err)
		return
	}
	removed := h.saves.Remove(c.Request.Context(), id)
	c.JSON(http.StatusOK, gin.H{"id": id, "removed": removed})
}

// Clear empties the saved collection; with ?all=true recently viewed goes too.
func (h *SavesHandler) Clear(c *gin.Context) {
	if c.Query("all") == "true" {
		h.saves.ClearAll(c.Request.Context())
	} else {
		h.saves.ClearSaved(c.Request.Context())
	}
	c.Status(http.StatusNoContent)
}

func (h *SavesHandler) ListRecentlyViewed(c *gin.Context) {
	viewed := h.saves.RecentlyViewed()
	c.JSON(http.StatusOK, gin.H{"count": len(viewed), "results": viewed})
}

func (h *SavesHandler) RecordView(c *gin.Context) {
	var property models.Property
	if err := c.ShouldBindJSON(&property); err != nil {
		_ = c.Error(badRequest(err))
		return
	}
	if err := h.saves.RecordView(c.Request.Context(), &property); err != nil {
		_ = c.Error(badRequest(err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": h.saves.RecentlyViewedCount()})
}

func (h *SavesHandler) ClearRecentlyViewed(c *gin.Context) {
	h.saves.ClearRecentlyViewed(c.Request.Context())
	c.Status(http.StatusNoContent)
}

// Merge pushes local saves to the signed-in account. Partial failures are
// reported in the body with the ids that stayed local.
func (h *SavesHandler) Merge(c *gin.Context) {
	result, err := h.saves.MergeToAccount(c.Request.Context(), h.favorites)
	body := gin.H{"synced": ids(result.Synced), "failed": ids(result.Failed)}
	if err != nil {
		if len(result.Synced) == 0 {
			_ = c.Error(err)
			return
		}
		body["error"] = err.Error()
		c.JSON(http.StatusMultiStatus, body)
		return
	}
	c.JSON(http.StatusOK, body)
}

func ids(list []int64) []int64 {
	if list == nil {
		return []int64{}
	}
	return list
}
