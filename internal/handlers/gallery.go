package handlers

import (
	"net/http"

	"event-gallery/internal/services"
	"event-gallery/internal/session"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
)

// GalleryHandler renders every photo, the photo count and the admin identity
func GalleryHandler(photos *services.PhotoService, sessions *session.Manager) fiber.Handler {
	return func(c *fiber.Ctx) error {
		list, count, err := photos.Gallery(c.Context())
		if err != nil {
			log.Errorw("failed to load photos", "error", err)
			return c.Status(http.StatusInternalServerError).SendString("Error loading photos")
		}

		username, err := sessions.Username(c)
		if err != nil {
			log.Errorw("failed to load session", "error", err)
		}

		if wantsJSON(c) {
			return c.JSON(fiber.Map{"photos": list, "count": count, "username": username})
		}
		return c.Render("index", fiber.Map{
			"Photos":        list,
			"PhotoCount":    count,
			"Username":      username,
			"IsAdmin":       username == services.AdminUsername,
			"MaxBatchFiles": photos.MaxBatchFiles(),
		})
	}
}

// ListPhotosHandler returns the gallery as JSON
func ListPhotosHandler(photos *services.PhotoService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		list, count, err := photos.Gallery(c.Context())
		if err != nil {
			log.Errorw("failed to load photos", "error", err)
			return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "Error loading photos"})
		}
		return c.JSON(fiber.Map{"photos": list, "count": count})
	}
}
