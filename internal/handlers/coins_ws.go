package handlers

import (
	"net/http"
	"time"

	"github.com/brandonhuynh1/eventwish-api/internal/services"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

const (
	wsWriteWait  = 10 * time.Second
	wsPongWait   = 60 * time.Second
	wsPingPeriod = wsPongWait * 9 / 10
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Mobile clients send no Origin header
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// coinUpdatesWebSocket streams balance events for one device, starting
// with the current balance
func (h *coinsHandler) coinUpdatesWebSocket(c *gin.Context) {
	deviceID, err := services.ValidateDeviceID(c.Param("deviceId"))
	if err != nil {
		respondError(c, h.logger, err, "Invalid device")
		return
	}

	// Subscribe to Redis before taking the snapshot so no event falls between them
	ctx := c.Request.Context()
	pubsub := h.events.Subscribe(ctx, services.CoinsChannel(deviceID))
	defer pubsub.Close()
	if _, err := pubsub.Receive(ctx); err != nil {
		h.logger.Error().Err(err).Str("deviceId", deviceID).Msg("Failed to subscribe to coin events")
		fail(c, http.StatusServiceUnavailable, "Realtime updates unavailable")
		return
	}
	ch := pubsub.Channel()

	snapshot, err := h.coins.CurrentEvent(ctx, deviceID)
	if err != nil {
		respondError(c, h.logger, err, "Error getting coins")
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to upgrade to WebSocket connection")
		return
	}
	defer conn.Close()

	conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
	if err := conn.WriteJSON(snapshot); err != nil {
		h.logger.Error().Err(err).Msg("Failed to send initial balance")
		return
	}

	// The reader only handles control frames and notices the client leaving
	closed := make(chan struct{})
	conn.SetReadDeadline(time.Now().Add(wsPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(wsPingPeriod)
	defer ticker.Stop()

	h.logger.Debug().Str("deviceId", deviceID).Msg("Coin feed connected")
	for {
		select {
		case msg, ok := <-ch:
			if !ok {
				return
			}
			// Forward the balance event to the WebSocket client
			conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteMessage(websocket.TextMessage, []byte(msg.Payload)); err != nil {
				h.logger.Warn().Err(err).Msg("Failed to write to WebSocket")
				return
			}
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(wsWriteWait)); err != nil {
				return
			}
		case <-closed:
			h.logger.Debug().Str("deviceId", deviceID).Msg("Coin feed disconnected")
			return
		case <-ctx.Done():
			return
		}
	}
}
