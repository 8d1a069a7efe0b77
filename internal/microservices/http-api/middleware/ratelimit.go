package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"reviewhub/pkg/apperror"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

const throttleTimeout = time.Second

// CheckRateLimit counts one hit against key in a fixed window.
// Returns true if the hit is within limit.
func CheckRateLimit(ctx context.Context, rdb *redis.Client, key string, limit int, window time.Duration) (bool, error) {
	// SET NX EX opens the window and INCR counts in the same transaction,
	// so a counter never exists without a TTL
	var incr *redis.IntCmd
	if _, err := rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.SetNX(ctx, key, 0, window)
		incr = pipe.Incr(ctx, key)
		return nil
	}); err != nil {
		return false, err
	}
	return incr.Val() <= int64(limit), nil
}

// Throttle limits requests per client IP under the given resource name,
// keyed as rl:<resource>:ip:<ip>. A nil client or a Redis failure lets the
// request through.
func Throttle(rdb *redis.Client, resource string, limit int, window time.Duration, logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if rdb == nil {
			c.Next()
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), throttleTimeout)
		defer cancel()

		key := fmt.Sprintf("rl:%s:ip:%s", resource, c.ClientIP())
		allowed, err := CheckRateLimit(ctx, rdb, key, limit, window)
		if err != nil {
			logger.WarnContext(c.Request.Context(), "rate limit unavailable, allowing request",
				"resource", resource, "error", err)
			c.Next()
			return
		}
		if !allowed {
			c.Header("Retry-After", strconv.Itoa(int(window.Seconds())))
			abortWithError(c, apperror.RateLimited("Request was throttled."))
			return
		}
		c.Next()
	}
}
