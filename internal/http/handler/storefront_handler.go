package handler

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/merchkit/countdown/internal/app/service"
	"github.com/merchkit/countdown/internal/countdown"
	"github.com/merchkit/countdown/internal/http/view"
	"go.uber.org/zap"
)

// StorefrontDeps groups dependencies required by the public read handlers.
type StorefrontDeps struct {
	Logger *zap.Logger
	Timers service.TimerService
	Pool   *pgxpool.Pool
	// RateLimit, when non-nil, guards the public data feed.
	RateLimit fiber.Handler
}

// StorefrontHandler implements the public storefront endpoints: the widget
// data feed and the embeddable widget page. No authentication is required.
type StorefrontHandler struct {
	logger    *zap.Logger
	timers    service.TimerService
	pool      *pgxpool.Pool
	rateLimit fiber.Handler
}

// NewStorefrontHandler creates a storefront handler with the provided dependencies.
func NewStorefrontHandler(deps StorefrontDeps) *StorefrontHandler {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StorefrontHandler{
		logger:    logger,
		timers:    deps.Timers,
		pool:      deps.Pool,
		rateLimit: deps.RateLimit,
	}
}

// Register wires storefront routes onto the provided router.
func (h *StorefrontHandler) Register(router fiber.Router) {
	router.Get("/", h.Health)
	router.Get("/health", h.Health)
	router.Get("/widget/:shop/:productId", h.WidgetPage)
	api := router.Group("/api")
	{
		if h.rateLimit != nil {
			api.Get("/timer/:shop", h.rateLimit, h.ActiveTimers)
		} else {
			api.Get("/timer/:shop", h.ActiveTimers)
		}
	}
}

// Health reports service liveness, including a storage ping when a pool is
// wired.
func (h *StorefrontHandler) Health(c *fiber.Ctx) error {
	status := "ok"
	if h.pool != nil {
		ctx, cancel := context.WithTimeout(requestContext(c), 2*time.Second)
		defer cancel()
		if err := h.pool.Ping(ctx); err != nil {
			h.logger.Warn("health check storage ping failed", zap.Error(err))
			status = "degraded"
		}
	}

	return c.JSON(fiber.Map{
		"service": "countdown",
		"status":  status,
		"time":    time.Now().UTC().Format(time.RFC3339),
	})
}

// ActiveTimers handles GET /api/timer/:shop — the widget data feed. Results
// are the store's currently running timers, soonest-ending first; the widget
// shows only the first. An optional productId query narrows the listing.
func (h *StorefrontHandler) ActiveTimers(c *fiber.Ctx) error {
	shop := c.Params("shop")
	if shop == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "missing shop parameter",
		})
	}
	productID := c.Query("productId")

	timers, err := h.timers.ListActive(requestContext(c), shop, productID, time.Now().UTC())
	if err != nil {
		// The public feed never explains failures.
		h.logger.Error("active timer lookup failed",
			zap.String("shop", shop),
			zap.String("product_id", productID),
			zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "internal server error",
		})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"timers":  timers,
	})
}

// WidgetPage handles GET /widget/:shop/:productId — a server-rendered embed
// carrying the countdown for one product. With no active timer it renders an
// empty placeholder; the shopper never sees an error.
func (h *StorefrontHandler) WidgetPage(c *fiber.Ctx) error {
	shop := c.Params("shop")
	productID := c.Params("productId")

	timers, err := h.timers.ListActive(requestContext(c), shop, productID, time.Now().UTC())
	if err != nil {
		h.logger.Error("widget page lookup failed",
			zap.String("shop", shop),
			zap.String("product_id", productID),
			zap.Error(err))
		timers = nil
	}

	if len(timers) == 0 {
		html, rerr := view.RenderWidgetPage(view.WidgetPageData{})
		if rerr != nil {
			return c.SendStatus(fiber.StatusInternalServerError)
		}
		return c.Type("html", "utf-8").SendString(html)
	}

	timer := timers[0]
	styles := countdown.ResolveStyles(nil, timer.Styles)
	html, err := view.RenderWidgetPage(view.WidgetPageData{
		HasTimer:       true,
		Title:          styles.Title,
		Message:        timer.Message,
		Background:     styles.Background,
		TextColor:      styles.TextColor,
		Size:           styles.Size,
		Position:       styles.Position,
		UrgencyDisplay: styles.UrgencyDisplay,
		EndTimeMillis:  timer.EndTime.UnixMilli(),
		UrgencyMinutes: timer.UrgencyMinutes,
	})
	if err != nil {
		h.logger.Error("failed to render widget page", zap.Error(err))
		return c.SendStatus(fiber.StatusInternalServerError)
	}

	return c.Type("html", "utf-8").SendString(html)
}
