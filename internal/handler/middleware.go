package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/aykutaslan/event-analytics-pipeline/internal/dto"
)

// rateLimit applies the sliding-window admission controller to every
// request, keyed by client network origin. A denied request is rejected
// before any handler runs, so it has no side effects.
func (h *Handler) rateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		clientID := c.ClientIP()

		if !h.limiter.Allow(clientID) {
			h.log.Warn("Rate limit exceeded", zap.String("client", clientID))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, dto.ErrorResponse{
				Error:   "rate_limit_exceeded",
				Message: "too many requests",
			})
			return
		}

		c.Next()
	}
}
