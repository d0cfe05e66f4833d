package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"event-gallery/internal/services"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
)

// DeletePhotoHandler removes a photo's stored object and row by id
func DeletePhotoHandler(photos *services.PhotoService, hub *Hub) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := strconv.ParseInt(c.Params("id"), 10, 64)
		if err != nil || id <= 0 {
			return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "invalid photo id"})
		}

		if err := photos.DeletePhoto(c.Context(), id); err != nil {
			if errors.Is(err, services.ErrNotFound) {
				return c.Status(http.StatusNotFound).JSON(fiber.Map{"error": "Photo not found"})
			}
			log.Errorw("failed to delete photo", "photo_id", id, "error", err)
			return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "Error deleting photo"})
		}

		if count, err := photos.Count(c.Context()); err == nil {
			hub.GalleryUpdated(count)
		}

		if !wantsJSON(c) {
			return c.Redirect("/", http.StatusSeeOther)
		}
		return c.JSON(fiber.Map{"message": "Photo deleted successfully"})
	}
}
