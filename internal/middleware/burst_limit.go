package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

// BurstLimit is a cheap Redis pre-filter in front of the ledger caps: it
// bounds per-minute attempts per telephone number (falling back to the origin
// IP) before any database row is touched. Fails open when Redis is down so an
// outage never blocks provisioning; the ledger caps still apply.
func BurstLimit(cache *redis.Client, maxPerMinute int) fiber.Handler {
	if maxPerMinute <= 0 {
		maxPerMinute = 5
	}
	return func(c *fiber.Ctx) error {
		if cache == nil {
			return c.Next()
		}

		var req struct {
			TelephoneNumber string `json:"telephone_number"`
		}
		_ = c.BodyParser(&req)

		key := strings.TrimSpace(req.TelephoneNumber)
		if key == "" {
			key = c.IP()
		}
		key = "burst:provision:" + key

		count, err := cache.Incr(c.UserContext(), key).Result()
		if err != nil {
			return c.Next()
		}
		if count == 1 {
			cache.Expire(c.UserContext(), key, time.Minute)
		}
		if count > int64(maxPerMinute) {
			return fiber.NewError(http.StatusTooManyRequests, "too many attempts, try again later")
		}
		return c.Next()
	}
}
