package handlers

import (
	"net/http"

	"github.com/brandonhuynh1/eventwish-api/internal/auth"
	"github.com/brandonhuynh1/eventwish-api/internal/models"
	"github.com/brandonhuynh1/eventwish-api/internal/services"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// RegisterAdminHandlers registers the admin panel routes. Every route needs
// a Firebase identity whose email maps to an admin role.
func RegisterAdminHandlers(r *gin.Engine, templates Templates, icons CategoryIcons, adUnits AdUnits, authCfg AuthConfig, logger zerolog.Logger) {
	handler := &adminHandler{
		templates: templates,
		icons:     icons,
		adUnits:   adUnits,
		roles:     authCfg.Roles,
		logger:    logger.With().Str("handler", "admin").Logger(),
	}

	view := requirePermission(authCfg.Roles, auth.PermContentView, handler.logger)
	edit := requirePermission(authCfg.Roles, auth.PermContentEdit, handler.logger)

	admin := r.Group("/api/admin")
	admin.Use(authMiddleware(authCfg, handler.logger))
	{
		admin.GET("/verify", handler.verify)

		admin.GET("/templates", view, handler.listTemplates)
		admin.GET("/templates/:id", view, handler.getTemplate)
		admin.POST("/templates", edit, handler.createTemplate)
		admin.PUT("/templates/:id", edit, handler.updateTemplate)
		admin.DELETE("/templates/:id", edit, handler.deleteTemplate)

		admin.POST("/categoryIcons", edit, handler.createIcon)
		admin.PUT("/categoryIcons/:category", edit, handler.updateIcon)
		admin.DELETE("/categoryIcons/:category", edit, handler.deleteIcon)

		admin.GET("/ad-units", view, handler.listAdUnits)
		admin.POST("/ad-units", edit, handler.createAdUnit)
		admin.PUT("/ad-units/:id", edit, handler.updateAdUnit)
		admin.DELETE("/ad-units/:id", edit, handler.deleteAdUnit)
	}
}

type adminHandler struct {
	templates Templates
	icons     CategoryIcons
	adUnits   AdUnits
	roles     *auth.Roles
	logger    zerolog.Logger
}

// verify tells the admin panel whether the signed in user is an admin
func (h *adminHandler) verify(c *gin.Context) {
	identity := identityFrom(c)
	role := h.roles.RoleFor(identity.Email)
	if role == "" {
		h.logger.Warn().Str("uid", identity.UID).Msg("Admin verification failed")
		c.JSON(http.StatusForbidden, gin.H{
			"success": false,
			"isAdmin": false,
			"message": "User is not authorized for admin access",
		})
		return
	}

	h.logger.Info().Str("uid", identity.UID).Str("role", role).Msg("Admin verification successful")
	c.JSON(http.StatusOK, gin.H{
		"success":     true,
		"isAdmin":     true,
		"role":        role,
		"permissions": auth.Permissions(role),
	})
}

func (h *adminHandler) listTemplates(c *gin.Context) {
	page, err := h.templates.AdminList(c.Request.Context(), services.AdminTemplateQuery{
		Category: c.Query("category"),
		Search:   c.Query("q"),
		Sort:     c.Query("sort"),
		Order:    c.Query("order"),
		Page:     queryInt(c, "page"),
		Limit:    queryInt(c, "limit"),
	})
	if err != nil {
		respondError(c, h.logger, err, "Failed to get templates")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "templates": page.Data, "pagination": gin.H{
		"page":       page.Page,
		"limit":      page.Limit,
		"totalPages": page.TotalPages,
		"totalItems": page.TotalItems,
		"hasMore":    page.HasMore,
	}, "categories": page.Categories})
}

func (h *adminHandler) getTemplate(c *gin.Context) {
	t, err := h.templates.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err, "Failed to get template")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "template": t})
}

func (h *adminHandler) createTemplate(c *gin.Context) {
	var in models.TemplatePatch
	if err := c.ShouldBindJSON(&in); err != nil {
		fail(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	t, err := h.templates.Create(c.Request.Context(), in)
	if err != nil {
		respondError(c, h.logger, err, "Failed to create template")
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "message": "Template created successfully", "template": t})
}

func (h *adminHandler) updateTemplate(c *gin.Context) {
	var patch models.TemplatePatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		fail(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	t, err := h.templates.Update(c.Request.Context(), c.Param("id"), patch)
	if err != nil {
		respondError(c, h.logger, err, "Failed to update template")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Template updated successfully", "template": t})
}

func (h *adminHandler) deleteTemplate(c *gin.Context) {
	if err := h.templates.Delete(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, h.logger, err, "Failed to delete template")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Template deleted successfully"})
}

func (h *adminHandler) createIcon(c *gin.Context) {
	var in models.CategoryIcon
	if err := c.ShouldBindJSON(&in); err != nil {
		fail(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	icon, err := h.icons.Create(c.Request.Context(), in)
	if err != nil {
		respondError(c, h.logger, err, "Failed to create category icon")
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "data": icon})
}

func (h *adminHandler) updateIcon(c *gin.Context) {
	var patch models.CategoryIconPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		fail(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	icon, err := h.icons.Update(c.Request.Context(), c.Param("category"), patch)
	if err != nil {
		respondError(c, h.logger, err, "Failed to update category icon")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": icon})
}

func (h *adminHandler) deleteIcon(c *gin.Context) {
	if err := h.icons.Delete(c.Request.Context(), c.Param("category")); err != nil {
		respondError(c, h.logger, err, "Failed to delete category icon")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Category icon deleted successfully"})
}

func (h *adminHandler) listAdUnits(c *gin.Context) {
	units, err := h.adUnits.List(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err, "Failed to get ad units")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "adUnits": units})
}

func (h *adminHandler) createAdUnit(c *gin.Context) {
	var in models.AdUnitInput
	if err := c.ShouldBindJSON(&in); err != nil {
		fail(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	unit, err := h.adUnits.Create(c.Request.Context(), in)
	if err != nil {
		respondError(c, h.logger, err, "Failed to create ad unit")
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "adUnit": unit})
}

func (h *adminHandler) updateAdUnit(c *gin.Context) {
	var patch models.AdUnitPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		fail(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	unit, err := h.adUnits.Update(c.Request.Context(), c.Param("id"), patch)
	if err != nil {
		respondError(c, h.logger, err, "Failed to update ad unit")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "adUnit": unit})
}

func (h *adminHandler) deleteAdUnit(c *gin.Context) {
	if err := h.adUnits.Delete(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, h.logger, err, "Failed to delete ad unit")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Ad unit deleted successfully"})
}
