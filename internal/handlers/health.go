package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// RegisterHealthHandlers registers /health. Each dependency is pinged
// concurrently under a short deadline.
func RegisterHealthHandlers(r *gin.Engine, deps map[string]Pinger, logger zerolog.Logger) {
	handler := &healthHandler{
		deps:   deps,
		logger: logger.With().Str("handler", "health").Logger(),
	}
	r.GET("/health", handler.health)
}

type healthHandler struct {
	deps   map[string]Pinger
	logger zerolog.Logger
}

func (h *healthHandler) health(c *gin.Context) {
	start := time.Now()
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	results := make(map[string]string, len(h.deps))
	statuses := make([]string, len(h.deps))
	names := make([]string, 0, len(h.deps))
	for name := range h.deps {
		names = append(names, name)
	}

	var g errgroup.Group
	for i, name := range names {
		i, pinger := i, h.deps[name]
		g.Go(func() error {
			if err := pinger.Ping(ctx); err != nil {
				statuses[i] = "down"
				return err
			}
			statuses[i] = "up"
			return nil
		})
	}
	err := g.Wait()

	status := "up"
	for i, name := range names {
		results[name] = statuses[i]
		if statuses[i] != "up" {
			status = "degraded"
		}
	}

	code := http.StatusOK
	if err != nil {
		h.logger.Warn().Err(err).Msg("Health check failed")
		code = http.StatusServiceUnavailable
	}

	c.Header("Cache-Control", "no-cache, no-store, must-revalidate")
	c.JSON(code, gin.H{
		"success":      err == nil,
		"status":       status,
		"timestamp":    time.Now().UTC().Format(time.RFC3339),
		"responseTime": time.Since(start).String(),
		"services":     results,
	})
}
