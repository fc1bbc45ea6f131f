package handlers

import (
	"net/http"

	"github.com/brandonhuynh1/eventwish-api/internal/models"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// RegisterWishHandlers registers the shared wish routes
func RegisterWishHandlers(r *gin.Engine, wishes Wishes, logger zerolog.Logger) {
	handler := &wishHandler{
		wishes: wishes,
		logger: logger.With().Str("handler", "wish").Logger(),
	}

	// older clients create wishes here
	r.POST("/api/share", handler.createWish)

	api := r.Group("/api/wishes")
	{
		api.POST("", handler.createWish)
		api.GET("/:shortCode", handler.getWish)
		api.POST("/:shortCode/share", handler.shareWish)
		api.GET("/:shortCode/analytics", handler.analytics)
	}
}

type wishHandler struct {
	wishes Wishes
	logger zerolog.Logger
}

func (h *wishHandler) createWish(c *gin.Context) {
	var in models.SharedWishInput
	if err := c.ShouldBindJSON(&in); err != nil {
		fail(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	wish, err := h.wishes.Create(c.Request.Context(), in)
	if err != nil {
		respondError(c, h.logger, err, "Failed to create shared wish")
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "data": wish})
}

func (h *wishHandler) getWish(c *gin.Context) {
	viewer := models.WishViewer{
		IP:        c.ClientIP(),
		Referrer:  c.Request.Referer(),
		UserAgent: c.Request.UserAgent(),
	}
	wish, err := h.wishes.Get(c.Request.Context(), c.Param("shortCode"), viewer)
	if err != nil {
		respondError(c, h.logger, err, "Failed to get shared wish")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": wish})
}

func (h *wishHandler) shareWish(c *gin.Context) {
	var req struct {
		Platform string `json:"platform"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	wish, err := h.wishes.Share(c.Request.Context(), c.Param("shortCode"), req.Platform)
	if err != nil {
		respondError(c, h.logger, err, "Failed to update shared wish")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Shared wish updated successfully",
		"data":    wish,
	})
}

func (h *wishHandler) analytics(c *gin.Context) {
	a, err := h.wishes.Analytics(c.Request.Context(), c.Param("shortCode"))
	if err != nil {
		respondError(c, h.logger, err, "Failed to get wish analytics")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": a})
}
