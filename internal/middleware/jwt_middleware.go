package middleware

import (
	"strings"

	"crackerstore/internal/models"
	"crackerstore/internal/services"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
)

// LocalsAdminSession is the c.Locals key holding the *models.AdminSession.
const LocalsAdminSession = "admin_session"

// AuthRequired is a Fiber middleware that resolves the bearer token to an
// admin session and stores it in the request locals.
func AuthRequired(authService *services.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"message": "Authorization header is required",
				"reauth":  true,
			})
		}

		// Expected format: "Bearer <token>"
		parts := strings.SplitN(authHeader, " ", 2)
		if !(len(parts) == 2 && parts[0] == "Bearer") {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"message": "Authorization header format must be 'Bearer <token>'",
				"reauth":  true,
			})
		}

		session, err := authService.Authenticate(parts[1])
		if err != nil {
			log.Debug().Err(err).Msg("admin authentication failed")
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"message": "Invalid or expired token",
				"error":   err.Error(),
				"reauth":  true,
			})
		}

		c.Locals(LocalsAdminSession, session)
		c.Locals("username", session.Username)

		return c.Next()
	}
}

// AdminSession returns the session stored by AuthRequired, or nil.
func AdminSession(c *fiber.Ctx) *models.AdminSession {
	session, _ := c.Locals(LocalsAdminSession).(*models.AdminSession)
	return session
}
