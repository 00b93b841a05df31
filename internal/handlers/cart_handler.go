package handlers

import (
	"errors"
	"strings"

	"crackerstore/internal/repositories"
	"crackerstore/internal/services"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
)

// CartHandler handles shopper sessions and their carts.
type CartHandler struct {
	sessions *services.SessionService
	products *services.ProductService
}

// NewCartHandler creates a new CartHandler.
func NewCartHandler(sessions *services.SessionService, products *services.ProductService) *CartHandler {
	return &CartHandler{
		sessions: sessions,
		products: products,
	}
}

// RegisterRoutes registers the session and cart routes with the Fiber app.
func (h *CartHandler) RegisterRoutes(router fiber.Router) {
	sessionRoutes := router.Group("/sessions")
	sessionRoutes.Post("/", h.HandleCreateSession)
	sessionRoutes.Delete("/:sid", h.HandleEndSession)

	cartRoutes := sessionRoutes.Group("/:sid/cart")
	cartRoutes.Get("/", h.HandleGetCart)
	cartRoutes.Delete("/", h.HandleClearCart)
	cartRoutes.Post("/items", h.HandleAddItem)
	cartRoutes.Post("/items/:pid/increment", h.HandleIncrement)
	cartRoutes.Post("/items/:pid/decrement", h.HandleDecrement)
	cartRoutes.Delete("/items/:pid", h.HandleRemoveItem)
}

// HandleCreateSession starts a shopper session.
func (h *CartHandler) HandleCreateSession(c *fiber.Ctx) error {
	sess := h.sessions.Create()
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"session_id": sess.ID,
		"cart":       sess.Cart.Snapshot(),
	})
}

// HandleEndSession tears a session down.
func (h *CartHandler) HandleEndSession(c *fiber.Ctx) error {
	if err := h.sessions.End(c.Params("sid")); err != nil {
		if errors.Is(err, services.ErrSessionNotFound) {
			return sessionNotFound(c)
		}
		log.Error().Err(err).Str("session_id", c.Params("sid")).Msg("error ending session")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not end session",
			"error":   err.Error(),
		})
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// HandleGetCart returns the cart view.
func (h *CartHandler) HandleGetCart(c *fiber.Ctx) error {
	sess, err := h.sessions.Get(c.Params("sid"))
	if err != nil {
		return backendFailure(c, "Could not load cart", err)
	}
	return c.JSON(fiber.Map{
		"cart": sess.Cart.Snapshot(),
	})
}

// AddItemRequest represents the request body for adding a product.
type AddItemRequest struct {
	ProductID string `json:"product_id"`
}

// HandleAddItem adds one unit of a catalogue product.
func (h *CartHandler) HandleAddItem(c *fiber.Ctx) error {
	var req AddItemRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c, err)
	}
	req.ProductID = strings.TrimSpace(req.ProductID)
	if req.ProductID == "" {
		return validationFailed(c, map[string]string{"product_id": "Product is required"})
	}

	product, err := h.products.GetProductByID(req.ProductID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"message": "Product with ID " + req.ProductID + " not found",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not retrieve product",
			"error":   err.Error(),
		})
	}

	sess, changed, err := h.sessions.AddToCart(c.Params("sid"), *product)
	return h.cartResponse(c, sess, changed, err)
}

// HandleIncrement raises a line's quantity.
func (h *CartHandler) HandleIncrement(c *fiber.Ctx) error {
	sess, changed, err := h.sessions.Increment(c.Params("sid"), c.Params("pid"))
	return h.cartResponse(c, sess, changed, err)
}

// HandleDecrement lowers a line's quantity.
func (h *CartHandler) HandleDecrement(c *fiber.Ctx) error {
	sess, changed, err := h.sessions.Decrement(c.Params("sid"), c.Params("pid"))
	return h.cartResponse(c, sess, changed, err)
}

// HandleRemoveItem drops a line.
func (h *CartHandler) HandleRemoveItem(c *fiber.Ctx) error {
	sess, changed, err := h.sessions.RemoveItem(c.Params("sid"), c.Params("pid"))
	return h.cartResponse(c, sess, changed, err)
}

// HandleClearCart empties the cart and resets checkout, cancelling any hold.
func (h *CartHandler) HandleClearCart(c *fiber.Ctx) error {
	sess, err := h.sessions.ClearCart(c.Params("sid"))
	if err != nil {
		if errors.Is(err, services.ErrSessionNotFound) {
			return sessionNotFound(c)
		}
		return submitConflictOr(c, err, "Could not clear cart")
	}
	return c.JSON(fiber.Map{
		"message": "Cart cleared",
		"cart":    sess.Cart.Snapshot(),
	})
}

// cartResponse renders the cart after a mutation. A cart that did not change
// is still a 200: bounds and read-only carts turn operations into no-ops.
func (h *CartHandler) cartResponse(c *fiber.Ctx, sess *services.ShopperSession, changed bool, err error) error {
	if err != nil {
		if errors.Is(err, services.ErrSessionNotFound) {
			return sessionNotFound(c)
		}
		log.Error().Err(err).Str("session_id", c.Params("sid")).Msg("error updating cart")
		if sess == nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"message": "Could not update cart",
				"error":   err.Error(),
			})
		}
	}
	return c.JSON(fiber.Map{
		"changed": changed,
		"cart":    sess.Cart.Snapshot(),
	})
}
