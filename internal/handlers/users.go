package handlers

import (
	"net/http"

	"github.com/brandonhuynh1/eventwish-api/internal/models"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// RegisterUserHandlers registers all user-related routes
func RegisterUserHandlers(r *gin.Engine, users Users, authCfg AuthConfig, logger zerolog.Logger) {
	handler := &userHandler{
		users:  users,
		logger: logger.With().Str("handler", "user").Logger(),
	}

	api := r.Group("/api/users")
	{
		api.POST("/register", handler.register)
		api.PUT("/activity", handler.updateActivity)
		api.POST("/template-view", handler.recordTemplateView)
		api.POST("/engagement", handler.recordEngagement)
		api.GET("/:deviceId", handler.getUser)
		api.PUT("/:deviceId/profile", authMiddleware(authCfg, handler.logger), handler.updateProfile)
	}
}

type userHandler struct {
	users  Users
	logger zerolog.Logger
}

func (h *userHandler) register(c *gin.Context) {
	var req struct {
		DeviceID string `json:"deviceId"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	user, created, err := h.users.Register(c.Request.Context(), req.DeviceID)
	if err != nil {
		respondError(c, h.logger, err, "Server error during registration")
		return
	}

	if !created {
		c.JSON(http.StatusOK, gin.H{"success": true, "message": "User already exists", "user": user})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "message": "User registered successfully", "user": user})
}

func (h *userHandler) getUser(c *gin.Context) {
	user, err := h.users.Get(c.Request.Context(), c.Param("deviceId"))
	if err != nil {
		respondError(c, h.logger, err, "Server error retrieving user")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "user": user})
}

func (h *userHandler) updateActivity(c *gin.Context) {
	var req struct {
		DeviceID string `json:"deviceId"`
		Category string `json:"category"`
		Source   string `json:"source"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := h.users.UpdateActivity(c.Request.Context(), req.DeviceID, req.Category, req.Source); err != nil {
		respondError(c, h.logger, err, "Server error during activity update")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "User activity updated"})
}

func (h *userHandler) recordTemplateView(c *gin.Context) {
	var req struct {
		DeviceID   string `json:"deviceId"`
		TemplateID string `json:"templateId"`
		Category   string `json:"category"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := h.users.RecordTemplateView(c.Request.Context(), req.DeviceID, req.TemplateID, req.Category); err != nil {
		respondError(c, h.logger, err, "Server error recording template view")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Template view recorded"})
}

func (h *userHandler) recordEngagement(c *gin.Context) {
	var req struct {
		DeviceID   string `json:"deviceId"`
		TemplateID string `json:"templateId"`
		Action     string `json:"action"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	user, err := h.users.RecordEngagement(c.Request.Context(), req.DeviceID, req.TemplateID, req.Action)
	if err != nil {
		respondError(c, h.logger, err, "Server error recording engagement")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"message":   "Engagement recorded",
		"likes":     user.Likes,
		"favorites": user.Favorites,
	})
}

// updateProfile links the authenticated Firebase account to the device
func (h *userHandler) updateProfile(c *gin.Context) {
	identity := identityFrom(c)

	var patch models.ProfileUpdate
	if err := c.ShouldBindJSON(&patch); err != nil {
		fail(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	user, err := h.users.UpdateProfile(c.Request.Context(), c.Param("deviceId"), identity.UID, patch)
	if err != nil {
		respondError(c, h.logger, err, "Failed to update profile")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Profile updated", "user": user})
}
