package middleware

import (
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"

	"github.com/walletd/walletd/internal/logging"
)

func setupTestApp(t *testing.T) (*fiber.App, func()) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("start miniredis: %v", err)
	}

	cache := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	app := fiber.New()
	logger := logging.Discard()
	app.Use(Idempotency(cache, time.Minute, logger))
	app.Post("/resource", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{"ok": true})
	})

	cleanup := func() {
		cache.Close()
		mr.Close()
	}

	return app, cleanup
}

func TestIdempotencyRequiresHeader(t *testing.T) {
	app, cleanup := setupTestApp(t)
	defer cleanup()

	req := httptest.NewRequest(fiber.MethodPost, "/resource", strings.NewReader("{}"))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}

	if resp.StatusCode != fiber.StatusBadRequest {
		t.Fatalf("expected %d got %d", fiber.StatusBadRequest, resp.StatusCode)
	}
}

func TestIdempotencyReturnsCachedResponse(t *testing.T) {
	app, cleanup := setupTestApp(t)
	defer cleanup()

	body := strings.NewReader("{}")
	req := httptest.NewRequest(fiber.MethodPost, "/resource", body)
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	req.Header.Set(idempotencyKeyHeader, "abc123")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("first request: %v", err)
	}

	if resp.StatusCode != fiber.StatusCreated {
		t.Fatalf("expected status %d got %d", fiber.StatusCreated, resp.StatusCode)
	}

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	resp.Body.Close()

	// Second request should return the cached response without invoking handler again.
	req2 := httptest.NewRequest(fiber.MethodPost, "/resource", strings.NewReader("{}"))
	req2.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	req2.Header.Set(idempotencyKeyHeader, "abc123")

	resp2, err := app.Test(req2)
	if err != nil {
		t.Fatalf("second request: %v", err)
	}

	if resp2.StatusCode != fiber.StatusCreated {
		t.Fatalf("expected cached status %d got %d", fiber.StatusCreated, resp2.StatusCode)
	}

	cachedPayload, err := io.ReadAll(resp2.Body)
	if err != nil {
		t.Fatalf("read cached body: %v", err)
	}
	resp2.Body.Close()

	if string(cachedPayload) != string(payload) {
		t.Fatalf("expected cached payload %s got %s", string(payload), string(cachedPayload))
	}

	var decoded map[string]any
	if err := json.Unmarshal(cachedPayload, &decoded); err != nil {
		t.Fatalf("cached payload invalid json: %v", err)
	}
}

func TestIdempotencyKeysAreScopedPerUser(t *testing.T) {
	mr := miniredis.RunT(t)
	cache := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer cache.Close()

	calls := 0
	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		c.Locals(UserIDKey, c.Get("X-User"))
		return c.Next()
	})
	app.Use(Idempotency(cache, time.Minute, logging.Discard()))
	app.Post("/transfers", func(c *fiber.Ctx) error {
		calls++
		return c.SendStatus(fiber.StatusCreated)
	})

	for _, user := range []string{"alice", "bob", "alice"} {
		req := httptest.NewRequest(fiber.MethodPost, "/transfers", nil)
		req.Header.Set("X-User", user)
		req.Header.Set(idempotencyKeyHeader, "same-key")
		resp, err := app.Test(req)
		if err != nil {
			t.Fatalf("request for %s: %v", user, err)
		}
		if resp.StatusCode != fiber.StatusCreated {
			t.Fatalf("expected %d got %d", fiber.StatusCreated, resp.StatusCode)
		}
	}

	if calls != 2 {
		t.Fatalf("expected handler to run once per user, ran %d times", calls)
	}
	if !mr.Exists(idempotencyPrefix + "alice:same-key") {
		t.Fatalf("expected user scoped key to be stored")
	}
}

func TestIdempotencyReleasesKeyOnHandlerError(t *testing.T) {
	mr := miniredis.RunT(t)
	cache := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer cache.Close()

	app := fiber.New()
	app.Use(Idempotency(cache, time.Minute, logging.Discard()))
	app.Post("/transfers", func(c *fiber.Ctx) error {
		return fiber.NewError(fiber.StatusServiceUnavailable, "store down")
	})

	req := httptest.NewRequest(fiber.MethodPost, "/transfers", nil)
	req.Header.Set(idempotencyKeyHeader, "retry-me")
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if resp.StatusCode != fiber.StatusServiceUnavailable {
		t.Fatalf("expected %d got %d", fiber.StatusServiceUnavailable, resp.StatusCode)
	}
	if mr.Exists(idempotencyPrefix + "retry-me") {
		t.Fatalf("expected key to be released after failure")
	}
}

func TestIdempotencyConcurrentDuplicateRunsHandlerOnce(t *testing.T) {
	mr := miniredis.RunT(t)
	cache := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer cache.Close()

	// Hold both requests right after their initial GET so that each one sees
	// an unused key before either reserves it.
	var arrived int32
	bothLooked := make(chan struct{})
	cache.AddHook(commandHook{after: func(_ context.Context, cmd redis.Cmder) {
		if cmd.Name() != "get" {
			return
		}
		switch atomic.AddInt32(&arrived, 1) {
		case 1:
			select {
			case <-bothLooked:
			case <-time.After(2 * time.Second):
			}
		case 2:
			close(bothLooked)
		}
	}})

	var calls int32
	app := fiber.New()
	app.Use(Idempotency(cache, time.Minute, logging.Discard()))
	app.Post("/transfers", func(c *fiber.Ctx) error {
		atomic.AddInt32(&calls, 1)
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{"ok": true})
	})

	statuses := make([]int, 2)
	var wg sync.WaitGroup
	for i := range statuses {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			req := httptest.NewRequest(fiber.MethodPost, "/transfers", nil)
			req.Header.Set(idempotencyKeyHeader, "double-submit")
			resp, err := app.Test(req, 5000)
			if err != nil {
				t.Errorf("request %d: %v", i, err)
				return
			}
			statuses[i] = resp.StatusCode
		}(i)
	}
	wg.Wait()

	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Fatalf("expected handler to run once, ran %d times (statuses %v)", got, statuses)
	}
	created := 0
	for _, status := range statuses {
		switch status {
		case fiber.StatusCreated:
			created++
		case fiber.StatusConflict:
		default:
			t.Fatalf("unexpected status %d", status)
		}
	}
	if created == 0 {
		t.Fatalf("expected one request to succeed, got %v", statuses)
	}
}

func TestIdempotencyLostReservationReportsConflict(t *testing.T) {
	mr := miniredis.RunT(t)
	cache := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer cache.Close()

	// Another request reserves the key just after our lookup missed.
	var once sync.Once
	cache.AddHook(commandHook{after: func(_ context.Context, cmd redis.Cmder) {
		if cmd.Name() == "get" {
			once.Do(func() { mr.Set(idempotencyPrefix+"taken", inProgressMarker) })
		}
	}})

	calls := 0
	app := fiber.New()
	app.Use(Idempotency(cache, time.Minute, logging.Discard()))
	app.Post("/transfers", func(c *fiber.Ctx) error {
		calls++
		return c.SendStatus(fiber.StatusCreated)
	})

	req := httptest.NewRequest(fiber.MethodPost, "/transfers", nil)
	req.Header.Set(idempotencyKeyHeader, "taken")
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if resp.StatusCode != fiber.StatusConflict {
		t.Fatalf("expected %d got %d", fiber.StatusConflict, resp.StatusCode)
	}
	if calls != 0 {
		t.Fatalf("expected handler not to run, ran %d times", calls)
	}
	if got, _ := mr.Get(idempotencyPrefix + "taken"); got != inProgressMarker {
		t.Fatalf("expected the other request's reservation to survive, got %q", got)
	}
}
