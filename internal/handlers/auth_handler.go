package handlers

import (
	"errors"

	"crackerstore/internal/middleware"
	"crackerstore/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
)

// AuthHandler handles HTTP requests for admin authentication.
type AuthHandler struct {
	authService *services.AuthService
	validate    *validator.Validate
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(authService *services.AuthService) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		validate:    validator.New(),
	}
}

// RegisterRoutes registers the public admin routes.
func (h *AuthHandler) RegisterRoutes(router fiber.Router) {
	router.Post("/admin/login", h.HandleLogin)
}

// RegisterProtectedRoutes registers routes that need an admin session.
func (h *AuthHandler) RegisterProtectedRoutes(router fiber.Router) {
	router.Post("/logout", h.HandleLogout)
}

// LoginRequest represents the request body for login.
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// HandleLogin verifies the admin with the backend and issues a JWT token.
func (h *AuthHandler) HandleLogin(c *fiber.Ctx) error {
	var req LoginRequest
	if err := c.BodyParser(&req); err != nil {
		log.Debug().Err(err).Msg("error parsing login request body")
		return invalidBody(c, err)
	}

	if err := h.validate.Struct(req); err != nil {
		return validationFailed(c, structErrors(err))
	}

	token, session, err := h.authService.LoginAdmin(c.UserContext(), req.Username, req.Password)
	if err != nil {
		log.Warn().Err(err).Str("username", req.Username).Msg("admin login failed")
		if errors.Is(err, services.ErrInvalidCredentials) {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"message": "Authentication failed",
				"error":   err.Error(),
			})
		}
		return backendFailure(c, "Authentication failed", err)
	}

	return c.JSON(fiber.Map{
		"message":  "Login successful",
		"token":    token,
		"username": session.Username,
	})
}

// HandleLogout ends the caller's admin session.
func (h *AuthHandler) HandleLogout(c *fiber.Ctx) error {
	session := middleware.AdminSession(c)
	if session == nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"message": "Not logged in",
			"reauth":  true,
		})
	}
	if err := h.authService.Logout(session.ID); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not log out",
			"error":   err.Error(),
		})
	}
	return c.JSON(fiber.Map{
		"message": "Logged out",
	})
}
