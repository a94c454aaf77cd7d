package handler

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/merchkit/countdown/internal/app/model"
	"github.com/merchkit/countdown/internal/app/service"
	"go.uber.org/zap"
)

func newStorefrontApp(svc service.TimerService, rateLimit fiber.Handler) *fiber.App {
	app := fiber.New()
	NewStorefrontHandler(StorefrontDeps{
		Logger:    zap.NewNop(),
		Timers:    svc,
		RateLimit: rateLimit,
	}).Register(app)
	return app
}

func TestActiveTimers(t *testing.T) {
	start := time.Now().UTC().Add(-time.Hour)
	end := time.Now().UTC().Add(time.Hour)

	t.Run("returns running timers", func(t *testing.T) {
		svc := &mockTimerService{
			listActiveFn: func(ctx context.Context, storeDomain, productID string, now time.Time) ([]model.Timer, error) {
				if storeDomain != "alpha.myshopify.com" || productID != "P1" {
					t.Fatalf("unexpected lookup: %q %q", storeDomain, productID)
				}
				return []model.Timer{{
					ID:          "t1",
					StoreDomain: storeDomain,
					ProductID:   productID,
					StartTime:   start,
					EndTime:     end,
					Active:      true,
				}}, nil
			},
		}
		app := newStorefrontApp(svc, nil)

		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/timer/alpha.myshopify.com?productId=P1", nil))
		if err != nil {
			t.Fatalf("request failed: %v", err)
		}
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("expected 200, got %d", resp.StatusCode)
		}
		body := decodeBody(t, resp)
		timers, ok := body["timers"].([]any)
		if !ok || len(timers) != 1 {
			t.Fatalf("expected one timer, got %v", body)
		}
	})

	t.Run("empty result is a JSON array", func(t *testing.T) {
		app := newStorefrontApp(&mockTimerService{}, nil)

		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/timer/alpha.myshopify.com", nil))
		if err != nil {
			t.Fatalf("request failed: %v", err)
		}
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("expected 200, got %d", resp.StatusCode)
		}
		raw, err := io.ReadAll(resp.Body)
		if err != nil {
			t.Fatalf("failed to read response body: %v", err)
		}
		if !strings.Contains(string(raw), `"timers":[]`) {
			t.Fatalf("expected an empty timers array, got %s", raw)
		}
	})

	t.Run("store failure stays opaque", func(t *testing.T) {
		svc := &mockTimerService{
			listActiveFn: func(ctx context.Context, storeDomain, productID string, now time.Time) ([]model.Timer, error) {
				return nil, service.ErrStoreUnavailable
			},
		}
		app := newStorefrontApp(svc, nil)

		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/timer/alpha.myshopify.com", nil))
		if err != nil {
			t.Fatalf("request failed: %v", err)
		}
		if resp.StatusCode != http.StatusInternalServerError {
			t.Fatalf("expected 500, got %d", resp.StatusCode)
		}
		body := decodeBody(t, resp)
		if body["error"] != "internal server error" {
			t.Fatalf("public feed leaked failure detail: %v", body)
		}
	})

	t.Run("rate limit handler runs first", func(t *testing.T) {
		limited := func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "rate limit exceeded",
			})
		}
		app := newStorefrontApp(&mockTimerService{}, limited)

		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/timer/alpha.myshopify.com", nil))
		if err != nil {
			t.Fatalf("request failed: %v", err)
		}
		if resp.StatusCode != http.StatusTooManyRequests {
			t.Fatalf("expected 429, got %d", resp.StatusCode)
		}
	})
}

func TestHealth(t *testing.T) {
	app := newStorefrontApp(&mockTimerService{}, nil)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/health", nil))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	body := decodeBody(t, resp)
	if body["status"] != "ok" {
		t.Fatalf("expected ok status without a pool, got %v", body)
	}
}

func TestWidgetPage(t *testing.T) {
	t.Run("renders active timer", func(t *testing.T) {
		end := time.Now().UTC().Add(30 * time.Minute)
		svc := &mockTimerService{
			listActiveFn: func(ctx context.Context, storeDomain, productID string, now time.Time) ([]model.Timer, error) {
				return []model.Timer{{
					ID:             "t1",
					StoreDomain:    storeDomain,
					ProductID:      productID,
					EndTime:        end,
					Message:        "Sale ends soon",
					UrgencyMinutes: 5,
					Active:         true,
				}}, nil
			},
		}
		app := newStorefrontApp(svc, nil)

		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/widget/alpha.myshopify.com/P1", nil))
		if err != nil {
			t.Fatalf("request failed: %v", err)
		}
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("expected 200, got %d", resp.StatusCode)
		}
		raw, err := io.ReadAll(resp.Body)
		if err != nil {
			t.Fatalf("failed to read response body: %v", err)
		}
		if !strings.Contains(string(raw), "Sale ends soon") {
			t.Fatalf("rendered page is missing the timer message")
		}
	})

	t.Run("failure renders the empty placeholder", func(t *testing.T) {
		svc := &mockTimerService{
			listActiveFn: func(ctx context.Context, storeDomain, productID string, now time.Time) ([]model.Timer, error) {
				return nil, service.ErrStoreUnavailable
			},
		}
		app := newStorefrontApp(svc, nil)

		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/widget/alpha.myshopify.com/P1", nil))
		if err != nil {
			t.Fatalf("request failed: %v", err)
		}
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("shopper must never see an error, got %d", resp.StatusCode)
		}
	})
}
