package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// RegisterCategoryIconHandlers registers the public category icon routes
func RegisterCategoryIconHandlers(r *gin.Engine, icons CategoryIcons, logger zerolog.Logger) {
	handler := &categoryIconHandler{
		icons:  icons,
		logger: logger.With().Str("handler", "category_icon").Logger(),
	}

	api := r.Group("/api/categoryIcons")
	{
		api.GET("", handler.listIcons)
		api.GET("/:category", handler.getIcon)
	}
}

type categoryIconHandler struct {
	icons  CategoryIcons
	logger zerolog.Logger
}

func (h *categoryIconHandler) listIcons(c *gin.Context) {
	icons, err := h.icons.List(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err, "Failed to get category icons")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": icons})
}

func (h *categoryIconHandler) getIcon(c *gin.Context) {
	icon, err := h.icons.GetByCategory(c.Request.Context(), c.Param("category"))
	if err != nil {
		respondError(c, h.logger, err, "Failed to get category icon")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": icon})
}
