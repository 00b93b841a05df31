package handlers

import (
	"context"
	"errors"

	"crackerstore/internal/middleware"
	"crackerstore/internal/models"
	"crackerstore/internal/services"

	"github.com/gofiber/fiber/v2"
)

// OrderHandler handles the admin order review routes.
type OrderHandler struct {
	service *services.OrderService
}

// NewOrderHandler creates a new OrderHandler.
func NewOrderHandler(service *services.OrderService) *OrderHandler {
	return &OrderHandler{
		service: service,
	}
}

// RegisterRoutes registers the order routes on an authenticated router.
func (h *OrderHandler) RegisterRoutes(router fiber.Router) {
	orderRoutes := router.Group("/orders")
	orderRoutes.Get("/", h.HandleGetOrders)
	orderRoutes.Post("/:id/accept", h.HandleAcceptOrder)
	orderRoutes.Post("/:id/reject", h.HandleRejectOrder)
}

// HandleGetOrders lists orders, filtered by ?q=.
func (h *OrderHandler) HandleGetOrders(c *fiber.Ctx) error {
	list, err := h.service.ListOrders(c.UserContext(), middleware.AdminSession(c), c.Query("q"))
	if err != nil {
		return backendFailure(c, "Could not retrieve orders", err)
	}
	return c.JSON(fiber.Map{
		"orders":  list.Orders,
		"summary": list.Summary,
		"count":   len(list.Orders),
	})
}

// ReviewRequest carries the admin's explicit confirmation.
type ReviewRequest struct {
	Confirm bool `json:"confirm"`
}

// HandleAcceptOrder accepts an order.
func (h *OrderHandler) HandleAcceptOrder(c *fiber.Ctx) error {
	return h.review(c, "accept", h.service.AcceptOrder)
}

// HandleRejectOrder rejects an order.
func (h *OrderHandler) HandleRejectOrder(c *fiber.Ctx) error {
	return h.review(c, "reject", h.service.RejectOrder)
}

type reviewFunc = func(ctx context.Context, admin *models.AdminSession, orderID string, confirmed bool) (*services.ReviewResult, error)

func (h *OrderHandler) review(c *fiber.Ctx, action string, call reviewFunc) error {
	var req ReviewRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return invalidBody(c, err)
		}
	}

	result, err := call(c.UserContext(), middleware.AdminSession(c), c.Params("id"), req.Confirm)
	if err != nil {
		var conflict *services.StockConflictError
		switch {
		case errors.Is(err, services.ErrConfirmationRequired):
			return c.Status(fiber.StatusPreconditionRequired).JSON(fiber.Map{
				"message": "Please confirm before you " + action + " this order",
				"error":   err.Error(),
			})
		case errors.As(err, &conflict):
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"message":  conflict.Message,
				"details":  conflict.Details,
				"order_id": conflict.OrderID,
			})
		default:
			return backendFailure(c, "Could not "+action+" order", err)
		}
	}
	return c.JSON(result)
}
