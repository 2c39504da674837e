package middlewares

import (
	"net/http"
	"time"

	"github.com/b2bbillings/b2bbillings-sub002/config"
	"github.com/b2bbillings/b2bbillings-sub002/utils"
	"github.com/gin-gonic/gin"
)

// RateLimiter is a fixed-window limiter keyed per business and route. Search
// endpoints use a 500ms window with limit 1, which collapses keystroke bursts
// into one query the same way a client-side debounce would.
func RateLimiter(window time.Duration, limit int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		rdb := config.GetRedisDB()
		if rdb == nil {
			// Redis still connecting; let the request through.
			c.Next()
			return
		}

		businessId, _ := utils.GetBusinessIdFromContext(c.Request.Context())
		if businessId == "" {
			businessId = c.ClientIP()
		}
		key := "rate:" + businessId + ":" + c.FullPath()

		ctx := c.Request.Context()
		count, err := rdb.Incr(ctx, key).Result()
		if err != nil {
			c.Next()
			return
		}
		if count == 1 {
			rdb.Expire(ctx, key, window)
		}
		if count > limit {
			c.JSON(http.StatusTooManyRequests, utils.Response{
				Success: false,
				Message: "too many requests",
			})
			c.Abort()
			return
		}
		c.Next()
	}
}
