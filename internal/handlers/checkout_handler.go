package handlers

import (
	"errors"
	"strings"

	"crackerstore/internal/checkout"
	"crackerstore/internal/services"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
)

// CheckoutHandler drives order placement for a shopper session.
type CheckoutHandler struct {
	sessions *services.SessionService
}

// NewCheckoutHandler creates a new CheckoutHandler.
func NewCheckoutHandler(sessions *services.SessionService) *CheckoutHandler {
	return &CheckoutHandler{
		sessions: sessions,
	}
}

// RegisterRoutes registers the checkout routes with the Fiber app.
func (h *CheckoutHandler) RegisterRoutes(router fiber.Router) {
	checkoutRoutes := router.Group("/sessions/:sid/checkout")
	checkoutRoutes.Get("/", h.HandleGetCheckout)
	checkoutRoutes.Post("/", h.HandleSubmit)
	checkoutRoutes.Put("/customer", h.HandleSetCustomer)
	checkoutRoutes.Put("/coupon", h.HandleSetCoupon)
	checkoutRoutes.Get("/receipt", h.HandleGetReceipt)
}

func (h *CheckoutHandler) session(c *fiber.Ctx) (*services.ShopperSession, error) {
	return h.sessions.Get(c.Params("sid"))
}

// HandleGetCheckout returns the checkout read model.
func (h *CheckoutHandler) HandleGetCheckout(c *fiber.Ctx) error {
	sess, err := h.session(c)
	if err != nil {
		return backendFailure(c, "Could not load checkout", err)
	}
	return c.JSON(sess.Checkout.Snapshot())
}

// CustomerRequest represents the checkout form.
type CustomerRequest struct {
	Name   string `json:"name"`
	Mobile string `json:"mobile"`
}

// HandleSetCustomer records the customer's name and mobile number.
func (h *CheckoutHandler) HandleSetCustomer(c *fiber.Ctx) error {
	var req CustomerRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c, err)
	}
	sess, err := h.session(c)
	if err != nil {
		return backendFailure(c, "Could not update customer", err)
	}
	sess.Checkout.SetCustomer(req.Name, req.Mobile)
	return c.JSON(sess.Checkout.Snapshot())
}

// CouponRequest represents the promo code input.
type CouponRequest struct {
	Code string `json:"code"`
}

// HandleSetCoupon records the promo code and returns the advisory preview.
func (h *CheckoutHandler) HandleSetCoupon(c *fiber.Ctx) error {
	var req CouponRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c, err)
	}
	sess, err := h.session(c)
	if err != nil {
		return backendFailure(c, "Could not update coupon", err)
	}

	preview := sess.Checkout.SetCouponCode(req.Code)
	resp := fiber.Map{
		"code":    strings.TrimSpace(req.Code),
		"valid":   preview != nil,
		"preview": preview,
	}
	if preview == nil && strings.TrimSpace(req.Code) != "" {
		resp["message"] = "Coupon not recognised. Final pricing is confirmed when the order is placed."
	}
	return c.JSON(resp)
}

// HandleSubmit places the order.
func (h *CheckoutHandler) HandleSubmit(c *fiber.Ctx) error {
	sess, receipt, err := h.sessions.Submit(c.UserContext(), c.Params("sid"))
	if err != nil {
		var (
			verr *checkout.ValidationError
			cerr *checkout.CouponError
			serr *checkout.SubmissionError
			rerr *checkout.ReceiptError
		)
		switch {
		case errors.Is(err, services.ErrSessionNotFound):
			return sessionNotFound(c)
		case errors.As(err, &verr):
			return validationFailed(c, verr.Fields)
		case errors.As(err, &rerr) && receipt != nil:
			return c.Status(fiber.StatusCreated).JSON(fiber.Map{
				"message":      "Order placed, but the receipt could not be generated",
				"warning":      rerr.Error(),
				"receipt":      receipt,
				"hold_seconds": sess.Checkout.Snapshot().HoldRemaining,
			})
		case errors.As(err, &cerr):
			return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
				"message": cerr.Message,
				"kind":    "coupon",
			})
		case errors.As(err, &serr):
			log.Warn().Err(err).Str("session_id", sess.ID).Msg("order submission failed")
			return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
				"message": serr.Message,
				"kind":    "submission",
			})
		default:
			return submitConflictOr(c, err, "Could not place order")
		}
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message":      "Order placed successfully",
		"receipt":      receipt,
		"hold_seconds": sess.Checkout.Snapshot().HoldRemaining,
	})
}

// HandleGetReceipt downloads the last receipt as text.
func (h *CheckoutHandler) HandleGetReceipt(c *fiber.Ctx) error {
	sess, err := h.session(c)
	if err != nil {
		return backendFailure(c, "Could not load receipt", err)
	}
	receipt, doc := sess.Checkout.Receipt()
	if receipt == nil || doc == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"message": "No receipt available",
		})
	}

	c.Attachment(strings.TrimSuffix(receipt.FileName, ".pdf") + ".txt")
	c.Set(fiber.HeaderContentType, fiber.MIMETextPlainCharsetUTF8)
	return c.Send(doc)
}

// submitConflictOr answers 409 for requests refused because of an in-flight
// or just-placed order.
func submitConflictOr(c *fiber.Ctx, err error, message string) error {
	if errors.Is(err, checkout.ErrSubmitInFlight) || errors.Is(err, checkout.ErrOrderOnHold) {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"message": err.Error(),
		})
	}
	log.Error().Err(err).Str("path", c.Path()).Msg(message)
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"message": message,
		"error":   err.Error(),
	})
}
