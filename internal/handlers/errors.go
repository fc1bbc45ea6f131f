package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/brandonhuynh1/eventwish-api/internal/services"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// respondError maps service errors onto status codes. Anything unexpected
// is logged and answered with fallback.
func respondError(c *gin.Context, logger zerolog.Logger, err error, fallback string) {
	var (
		cooldown *services.CooldownError
		short    *services.InsufficientCoinsError
		missing  *services.NotFoundError
	)

	switch {
	case errors.As(err, &cooldown):
		c.JSON(http.StatusTooManyRequests, gin.H{
			"success":  false,
			"message":  "Please wait before claiming another reward",
			"waitTime": cooldown.WaitSeconds(),
		})
	case errors.As(err, &short):
		c.JSON(http.StatusBadRequest, gin.H{
			"success":  false,
			"message":  "Not enough coins to unlock feature",
			"required": short.Required,
			"current":  short.Current,
		})
	case errors.Is(err, services.ErrInvalidSignature):
		c.JSON(http.StatusUnauthorized, gin.H{
			"success":   false,
			"valid":     false,
			"message":   "Invalid signature",
			"timestamp": time.Now().UnixMilli(),
		})
	case errors.Is(err, services.ErrInvalidInput):
		fail(c, http.StatusBadRequest, err.Error())
	case errors.As(err, &missing):
		fail(c, http.StatusNotFound, missing.Error())
	case errors.Is(err, services.ErrNotFound):
		fail(c, http.StatusNotFound, "Resource not found")
	case errors.Is(err, services.ErrConflict):
		fail(c, http.StatusConflict, "Resource already exists")
	case errors.Is(err, services.ErrForbidden):
		fail(c, http.StatusForbidden, "Device is linked to a different account")
	default:
		logger.Error().Err(err).Str("path", c.FullPath()).Msg(fallback)
		fail(c, http.StatusInternalServerError, fallback)
	}
}

func fail(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"success": false, "message": message})
}

// queryInt reads a positive integer query parameter, or 0 when absent or invalid
func queryInt(c *gin.Context, name string) int {
	v, err := strconv.Atoi(c.Query(name))
	if err != nil || v < 0 {
		return 0
	}
	return v
}
