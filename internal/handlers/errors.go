package handlers

import (
	"errors"
	"net/http"

	"event-gallery/internal/services"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
)

// statusFor maps service errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, services.ErrNoFilesProvided),
		errors.Is(err, services.ErrBatchTooLarge),
		errors.Is(err, services.ErrUnsupportedFileType),
		errors.Is(err, services.ErrFileTooLarge),
		errors.Is(err, services.ErrDuplicateDetected),
		errors.Is(err, services.ErrUnsafeContent):
		return http.StatusBadRequest
	case errors.Is(err, services.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, services.ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// ErrorHandler renders errors that escape handlers as {error} bodies.
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := http.StatusInternalServerError
	message := "Something went wrong on the server"

	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
		message = fe.Message
		// The body limit is sized from the batch and file limits, so an
		// oversized body is a batch with too many or too large files.
		if code == http.StatusRequestEntityTooLarge {
			code = http.StatusBadRequest
			message = "upload too large: too many files or a file over the size limit"
		}
	} else {
		log.Errorw("unhandled error", "method", c.Method(), "path", c.Path(), "error", err)
	}
	return c.Status(code).JSON(fiber.Map{"error": message})
}

// wantsJSON reports whether the client prefers JSON over an HTML page.
func wantsJSON(c *fiber.Ctx) bool {
	return c.Accepts(fiber.MIMETextHTML, fiber.MIMEApplicationJSON) == fiber.MIMEApplicationJSON
}
