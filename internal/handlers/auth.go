package handlers

import (
	"net/http"
	"strings"

	"event-gallery/internal/models"
	"event-gallery/internal/services"
	"event-gallery/internal/session"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
)

// LoginHandler checks the admin credential and opens a session
func LoginHandler(auth *services.AuthService, sessions *session.Manager) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req models.LoginRequest
		if err := c.BodyParser(&req); err != nil {
			log.Warnw("unreadable login request", "ip", c.IP(), "error", err)
			return c.Status(http.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
		}

		if err := auth.Authenticate(req.Username, req.Password); err != nil {
			log.Warnw("failed admin login", "username", req.Username, "ip", c.IP())
			return c.Status(http.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
		}

		if err := sessions.Login(c, req.Username); err != nil {
			log.Errorw("failed to save session", "error", err)
			return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "failed to create session"})
		}

		if !wantsJSON(c) {
			return c.Redirect("/", http.StatusSeeOther)
		}

		token, err := auth.GenerateToken(req.Username)
		if err != nil {
			return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "failed to generate access token"})
		}
		return c.JSON(models.LoginResponse{
			Message:  "Logged in",
			Username: req.Username,
			Token:    token,
		})
	}
}

// LogoutHandler destroys the session and returns to the gallery
func LogoutHandler(sessions *session.Manager) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := sessions.Logout(c); err != nil {
			log.Errorw("failed to destroy session", "error", err)
		}
		return c.Redirect("/", http.StatusSeeOther)
	}
}

// AdminOnly lets a request through when its session, or a bearer token in the
// Authorization header, belongs to the admin.
func AdminOnly(auth *services.AuthService, sessions *session.Manager) fiber.Handler {
	return func(c *fiber.Ctx) error {
		username := ""

		authHeader := c.Get(fiber.HeaderAuthorization)
		if token, ok := strings.CutPrefix(authHeader, "Bearer "); ok && token != "" {
			if u, err := auth.ValidateToken(token); err == nil {
				username = u
			}
		}

		if username == "" {
			u, err := sessions.Username(c)
			if err != nil {
				log.Errorw("failed to load session", "error", err)
			}
			username = u
		}

		if username != services.AdminUsername {
			return c.Status(http.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
		}

		c.Locals("username", username)
		return c.Next()
	}
}
