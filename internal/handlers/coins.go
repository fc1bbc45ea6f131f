package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/brandonhuynh1/eventwish-api/internal/services"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// RegisterCoinsHandlers registers the coin and unlock routes, plus the
// realtime balance feed
func RegisterCoinsHandlers(r *gin.Engine, coins Coins, events Subscriber, logger zerolog.Logger) {
	handler := &coinsHandler{
		coins:  coins,
		events: events,
		logger: logger.With().Str("handler", "coins").Logger(),
	}

	r.GET("/ws/coins/:deviceId", handler.coinUpdatesWebSocket)
	r.GET("/api/server/time", handler.serverTime)

	api := r.Group("/api/coins")
	{
		api.GET("/plan", handler.getPlan)
		api.GET("/time", handler.serverTime)
		api.POST("/validate", handler.validateUnlock)
		api.POST("/report", handler.reportUnlock)
		api.GET("/:deviceId", handler.getCoins)
		api.POST("/:deviceId", handler.addCoins)
		api.POST("/:deviceId/unlock", handler.unlock)
		api.GET("/:deviceId/history", handler.history)
	}
}

type coinsHandler struct {
	coins  Coins
	events Subscriber
	logger zerolog.Logger
}

func (h *coinsHandler) serverTime(c *gin.Context) {
	now := h.coins.ServerTime()
	iso := now.UTC().Format(time.RFC3339Nano)
	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"timestamp":  now.UnixMilli(),
		"date":       iso,
		"serverTime": iso,
		"timeZone":   now.Location().String(),
	})
}

func (h *coinsHandler) getPlan(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"success": true, "plan": h.coins.Plan()})
}

func (h *coinsHandler) getCoins(c *gin.Context) {
	balance, err := h.coins.GetCoins(c.Request.Context(), c.Param("deviceId"))
	if err != nil {
		respondError(c, h.logger, err, "Error getting coins")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":       true,
		"coins":         balance.Coins,
		"isUnlocked":    balance.IsUnlocked,
		"remainingTime": balance.RemainingTime,
		"unlockExpiry":  balance.UnlockExpiry,
		"lastReward":    balance.LastReward,
		"plan":          balance.Plan,
	})
}

func (h *coinsHandler) history(c *gin.Context) {
	rewards, err := h.coins.History(c.Request.Context(), c.Param("deviceId"), queryInt(c, "limit"))
	if err != nil {
		respondError(c, h.logger, err, "Error getting reward history")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "rewardHistory": rewards})
}

func (h *coinsHandler) addCoins(c *gin.Context) {
	var req struct {
		Amount     int             `json:"amount"`
		AdUnitID   string          `json:"adUnitId"`
		AdName     string          `json:"adName"`
		DeviceInfo json.RawMessage `json:"deviceInfo"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	balance, err := h.coins.AddCoins(c.Request.Context(), c.Param("deviceId"), services.RewardInput{
		Amount:     req.Amount,
		AdUnitID:   req.AdUnitID,
		AdName:     req.AdName,
		DeviceInfo: req.DeviceInfo,
	})
	if err != nil {
		respondError(c, h.logger, err, "Error adding coins")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":       true,
		"coins":         balance.Coins,
		"added":         req.Amount,
		"isUnlocked":    balance.IsUnlocked,
		"remainingTime": balance.RemainingTime,
		"unlockExpiry":  balance.UnlockExpiry,
		"plan":          balance.Plan,
	})
}

func (h *coinsHandler) unlock(c *gin.Context) {
	var req struct {
		Duration int `json:"duration"`
	}
	// the body is optional, chunked or not
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		fail(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	result, err := h.coins.Unlock(c.Request.Context(), c.Param("deviceId"), req.Duration)
	if err != nil {
		respondError(c, h.logger, err, "Error unlocking feature")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":        true,
		"isUnlocked":     result.IsUnlocked,
		"unlockDuration": result.UnlockDuration,
		"remainingTime":  result.RemainingTime,
		"unlockExpiry":   result.UnlockExpiry,
		"timestamp":      result.Timestamp,
		"signature":      result.Signature,
		"coins":          result.Coins,
	})
}

type unlockClaim struct {
	DeviceID  string `json:"deviceId"`
	Timestamp int64  `json:"timestamp"`
	Duration  int    `json:"duration"`
	Signature string `json:"signature"`
}

func (h *coinsHandler) validateUnlock(c *gin.Context) {
	var req unlockClaim
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "Missing required parameters")
		return
	}

	v, err := h.coins.ValidateUnlock(req.DeviceID, req.Timestamp, req.Duration, req.Signature)
	if err != nil {
		respondError(c, h.logger, err, "Error validating unlock")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":       true,
		"valid":         v.Valid,
		"expired":       v.Expired,
		"timestamp":     h.coins.ServerTime().UnixMilli(),
		"unlockExpiry":  v.UnlockExpiry,
		"remainingTime": v.RemainingTime,
	})
}

func (h *coinsHandler) reportUnlock(c *gin.Context) {
	var req unlockClaim
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "Missing required parameters")
		return
	}

	signature, err := h.coins.ReportUnlock(c.Request.Context(), req.DeviceID, req.Timestamp, req.Duration)
	if err != nil {
		respondError(c, h.logger, err, "Error reporting unlock")
		return
	}

	now := h.coins.ServerTime()
	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"message":    "Unlock reported successfully",
		"signature":  signature,
		"timestamp":  now.UnixMilli(),
		"serverTime": now.UTC().Format(time.RFC3339Nano),
	})
}
