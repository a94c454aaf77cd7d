package handler

import (
	"context"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/merchkit/countdown/internal/app/service"
	"github.com/merchkit/countdown/internal/http/middleware"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

// AdminDeps groups dependencies required by the management API handlers.
type AdminDeps struct {
	Logger *zap.Logger
	Timers service.TimerService
}

// AdminHandler implements the merchant-facing timer management endpoints.
type AdminHandler struct {
	logger *zap.Logger
	timers service.TimerService
}

// NewAdminHandler creates a management handler with the provided dependencies.
func NewAdminHandler(deps AdminDeps) *AdminHandler {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AdminHandler{
		logger: logger,
		timers: deps.Timers,
	}
}

// Register wires management routes onto the provided router.
func (h *AdminHandler) Register(router fiber.Router) {
	api := router.Group("/api")
	{
		timers := api.Group("/timer")
		{
			timers.Post("/", h.CreateTimer)
			timers.Get("/:shop/all", h.ListStoreTimers)
			timers.Put("/:id", h.UpdateTimer)
			timers.Delete("/:id", h.DeleteTimer)
		}
	}
}

// CreateTimerRequest represents the request body for creating a timer.
// ProductID accepts a string or a number; platform product ids arrive both
// ways.
type CreateTimerRequest struct {
	StoreDomain    string            `json:"storeDomain"`
	ProductID      any               `json:"productId"`
	StartTime      string            `json:"startTime"`
	EndTime        string            `json:"endTime"`
	Message        *string           `json:"message"`
	Styles         datatypes.JSONMap `json:"styles"`
	UrgencyMinutes *int              `json:"urgencyMinutes"`
	Active         *bool             `json:"active"`
	Metadata       datatypes.JSONMap `json:"metadata"`
}

// UpdateTimerRequest is the partial body for PUT. storeDomain is not
// accepted: ownership never changes.
type UpdateTimerRequest struct {
	ProductID      any               `json:"productId"`
	StartTime      *string           `json:"startTime"`
	EndTime        *string           `json:"endTime"`
	Message        *string           `json:"message"`
	Styles         datatypes.JSONMap `json:"styles"`
	UrgencyMinutes *int              `json:"urgencyMinutes"`
	Active         *bool             `json:"active"`
	Metadata       datatypes.JSONMap `json:"metadata"`
}

// coerceID renders a JSON string-or-number id as a string.
func coerceID(v any) (string, bool) {
	switch id := v.(type) {
	case nil:
		return "", false
	case string:
		return id, true
	case float64:
		return strconv.FormatFloat(id, 'f', -1, 64), true
	default:
		return "", false
	}
}

// CreateTimer handles POST /api/timer
func (h *AdminHandler) CreateTimer(c *fiber.Ctx) error {
	var req CreateTimerRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}

	// A verified session outranks whatever the payload declares, so a
	// merchant cannot create timers under another store's domain.
	storeDomain := middleware.SessionStore(c)
	if storeDomain == "" {
		storeDomain = req.StoreDomain
	}

	productID, _ := coerceID(req.ProductID)

	input := service.CreateTimerInput{
		StoreDomain:    storeDomain,
		ProductID:      productID,
		StartTime:      req.StartTime,
		EndTime:        req.EndTime,
		Message:        req.Message,
		Styles:         req.Styles,
		UrgencyMinutes: req.UrgencyMinutes,
		Active:         req.Active,
		Metadata:       req.Metadata,
	}

	timer, err := h.timers.Create(requestContext(c), input)
	if err != nil {
		return respondServiceError(c, h.logger, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"timer":   timer,
	})
}

// UpdateTimer handles PUT /api/timer/:id
func (h *AdminHandler) UpdateTimer(c *fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "missing id parameter",
		})
	}

	var req UpdateTimerRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}

	patch := service.UpdateTimerInput{
		StartTime:      req.StartTime,
		EndTime:        req.EndTime,
		Message:        req.Message,
		Styles:         req.Styles,
		UrgencyMinutes: req.UrgencyMinutes,
		Active:         req.Active,
		Metadata:       req.Metadata,
	}
	if productID, ok := coerceID(req.ProductID); ok {
		patch.ProductID = &productID
	}

	timer, err := h.timers.Update(requestContext(c), id, middleware.SessionStore(c), patch)
	if err != nil {
		return respondServiceError(c, h.logger, err)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"timer":   timer,
	})
}

// DeleteTimer handles DELETE /api/timer/:id
func (h *AdminHandler) DeleteTimer(c *fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "missing id parameter",
		})
	}

	if err := h.timers.Delete(requestContext(c), id, middleware.SessionStore(c)); err != nil {
		return respondServiceError(c, h.logger, err)
	}

	return c.JSON(fiber.Map{
		"success": true,
	})
}

// ListStoreTimers handles GET /api/timer/:shop/all — the management listing
// behind the merchant editing surface. Unlike the public read it returns
// every timer the store owns, regardless of window or flag.
func (h *AdminHandler) ListStoreTimers(c *fiber.Ctx) error {
	shop := c.Params("shop")
	if shop == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "missing shop parameter",
		})
	}

	if session := middleware.SessionStore(c); session != "" && session != shop {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "forbidden",
		})
	}

	limit := 50
	if parsed := c.QueryInt("limit"); parsed > 0 && parsed <= 200 {
		limit = parsed
	}
	offset := 0
	if parsed := c.QueryInt("offset"); parsed > 0 {
		offset = parsed
	}

	timers, err := h.timers.ListByStore(requestContext(c), shop, limit, offset)
	if err != nil {
		return respondServiceError(c, h.logger, err)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"timers":  timers,
	})
}

func requestContext(c *fiber.Ctx) context.Context {
	if ctx := c.UserContext(); ctx != nil {
		return ctx
	}
	return context.Background()
}
