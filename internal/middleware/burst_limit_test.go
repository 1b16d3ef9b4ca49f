package middleware

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

func setupBurstApp(t *testing.T, maxPerMinute int) (*fiber.App, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	cache := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { cache.Close() })

	app := fiber.New()
	app.Post("/create-account", BurstLimit(cache, maxPerMinute), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})
	return app, mr
}

func postAccount(t *testing.T, app *fiber.App, body string) int {
	t.Helper()
	req := httptest.NewRequest(fiber.MethodPost, "/create-account", strings.NewReader(body))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	resp.Body.Close()
	return resp.StatusCode
}

func TestBurstLimitBlocksAfterCap(t *testing.T) {
	app, _ := setupBurstApp(t, 2)
	body := `{"telephone_number":"+4915112345678"}`

	for i := 0; i < 2; i++ {
		if status := postAccount(t, app, body); status != fiber.StatusOK {
			t.Fatalf("request %d: status %d", i+1, status)
		}
	}
	if status := postAccount(t, app, body); status != fiber.StatusTooManyRequests {
		t.Fatalf("expected 429 over the burst cap, got %d", status)
	}

	// A different number is tracked separately.
	if status := postAccount(t, app, `{"telephone_number":"+4915187654321"}`); status != fiber.StatusOK {
		t.Fatalf("fresh number blocked: %d", status)
	}
}

func TestBurstLimitExpires(t *testing.T) {
	app, mr := setupBurstApp(t, 1)
	body := `{"telephone_number":"+4915112345678"}`

	if status := postAccount(t, app, body); status != fiber.StatusOK {
		t.Fatalf("first request: %d", status)
	}
	if status := postAccount(t, app, body); status != fiber.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", status)
	}

	mr.FastForward(61 * time.Second)

	if status := postAccount(t, app, body); status != fiber.StatusOK {
		t.Fatalf("request after expiry: %d", status)
	}
}

func TestBurstLimitFailsOpenWithoutCache(t *testing.T) {
	app := fiber.New()
	app.Post("/create-account", BurstLimit(nil, 1), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})

	for i := 0; i < 3; i++ {
		if status := postAccount(t, app, `{"telephone_number":"+4915112345678"}`); status != fiber.StatusOK {
			t.Fatalf("request %d without cache: %d", i+1, status)
		}
	}
}
