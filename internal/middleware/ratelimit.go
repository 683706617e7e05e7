package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/AnshRaj112/wellnest-backend/internal/logging"
	"github.com/AnshRaj112/wellnest-backend/pkg/clientip"
	"github.com/redis/go-redis/v9"
)

const (
	// RateLimitWindow is the fixed counting window per IP
	RateLimitWindow = 120 * time.Second
	// RateLimitMaxRequests is the maximum number of requests allowed in the window
	RateLimitMaxRequests = 100
	// RateLimitKeyPrefix is the Redis key prefix for rate limiting
	RateLimitKeyPrefix = "ratelimit:"
	// BlockedIPKeyPrefix is the Redis key prefix for blocked IPs
	BlockedIPKeyPrefix = "blocked_ip:"
	// BlockedIPDuration is how long an IP stays blocked after exceeding the window
	BlockedIPDuration = 15 * time.Minute

	redisLimitTimeout = 500 * time.Millisecond
)

// RedisRateLimit counts requests per IP in Redis and blocks an IP that exceeds
// the window. Any Redis error lets the request through.
func RedisRateLimit(client *redis.Client) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := clientip.RealClientIP(r)
			ctx, cancel := context.WithTimeout(r.Context(), redisLimitTimeout)
			defer cancel()

			blockedKey := BlockedIPKeyPrefix + ip
			blocked, err := client.Exists(ctx, blockedKey).Result()
			if err == nil && blocked > 0 {
				writeTooMany(w, `{"success":false,"message":"Your IP has been temporarily blocked due to excessive requests. Please try again later."}`)
				return
			}

			key := RateLimitKeyPrefix + ip
			n, err := client.Incr(ctx, key).Result()
			if err != nil {
				logging.Debug().Err(err).Msg("rate limiter unavailable, allowing request")
				next.ServeHTTP(w, r)
				return
			}
			if n == 1 {
				// first hit opens the window
				client.Expire(ctx, key, RateLimitWindow)
			}

			count := int(n)
			if count > RateLimitMaxRequests {
				if err := client.Set(ctx, blockedKey, "1", BlockedIPDuration).Err(); err != nil {
					logging.Warn().Err(err).Str("ip", ip).Msg("failed to record blocked IP")
				}
				writeTooMany(w, fmt.Sprintf(`{"success":false,"message":"Rate limit exceeded. Please try again later.","retry_after":%d}`, int(BlockedIPDuration.Seconds())))
				return
			}

			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(RateLimitMaxRequests))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(RateLimitMaxRequests-count))
			next.ServeHTTP(w, r)
		})
	}
}

func writeTooMany(w http.ResponseWriter, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusTooManyRequests)
	_, _ = w.Write([]byte(body))
}
