package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// RegisterTemplateHandlers registers the public template routes
func RegisterTemplateHandlers(r *gin.Engine, templates Templates, recs Recommendations, logger zerolog.Logger) {
	handler := &templateHandler{
		templates: templates,
		recs:      recs,
		logger:    logger.With().Str("handler", "template").Logger(),
	}

	api := r.Group("/api/templates")
	{
		api.GET("", handler.listTemplates)
		api.GET("/category/:category", handler.listByCategory)
		api.GET("/recommendations/:deviceId", handler.getRecommendations)
		api.GET("/:id", handler.getTemplate)
	}
}

type templateHandler struct {
	templates Templates
	recs      Recommendations
	logger    zerolog.Logger
}

func (h *templateHandler) listTemplates(c *gin.Context) {
	page, err := h.templates.ListActive(c.Request.Context(), queryInt(c, "page"), queryInt(c, "limit"))
	if err != nil {
		respondError(c, h.logger, err, "Failed to get templates")
		return
	}
	c.JSON(http.StatusOK, page)
}

func (h *templateHandler) listByCategory(c *gin.Context) {
	page, err := h.templates.ListByCategory(c.Request.Context(), c.Param("category"), queryInt(c, "page"), queryInt(c, "limit"))
	if err != nil {
		respondError(c, h.logger, err, "Failed to get templates")
		return
	}
	c.JSON(http.StatusOK, page)
}

func (h *templateHandler) getTemplate(c *gin.Context) {
	t, err := h.templates.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err, "Failed to get template")
		return
	}
	c.JSON(http.StatusOK, t)
}

// getRecommendations always answers 200. Failures fall back to defaults.
func (h *templateHandler) getRecommendations(c *gin.Context) {
	recs := h.recs.GetRecommendations(c.Request.Context(), c.Param("deviceId"), queryInt(c, "limit"))
	c.JSON(http.StatusOK, gin.H{
		"success":         true,
		"recommendations": recs,
	})
}
