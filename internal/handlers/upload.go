package handlers

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"event-gallery/internal/models"
	"event-gallery/internal/services"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
)

// UploadHandler accepts a multipart batch in the "photos" (or "photo") field
func UploadHandler(photos *services.PhotoService, hub *Hub) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var headers []*multipart.FileHeader
		if form, err := c.MultipartForm(); err == nil {
			headers = append(form.File["photos"], form.File["photo"]...)
		}

		// Count before reading so an oversized batch is rejected without
		// touching file contents.
		if len(headers) > photos.MaxBatchFiles() {
			return uploadError(c, fmt.Errorf("%w: maximum is %d", services.ErrBatchTooLarge, photos.MaxBatchFiles()))
		}

		files := make([]models.UploadFile, 0, len(headers))
		for _, fh := range headers {
			file, err := readUpload(fh)
			if err != nil {
				log.Errorw("failed to read uploaded file", "file", fh.Filename, "error", err)
				return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "failed to read uploaded file"})
			}
			files = append(files, file)
		}

		created, err := photos.ProcessBatch(c.Context(), files)
		if err != nil {
			return uploadError(c, err)
		}

		if count, err := photos.Count(c.Context()); err == nil {
			hub.GalleryUpdated(count)
		}

		if !wantsJSON(c) {
			return c.Redirect("/", http.StatusSeeOther)
		}
		return c.Status(http.StatusCreated).JSON(fiber.Map{"photos": created})
	}
}

func readUpload(fh *multipart.FileHeader) (models.UploadFile, error) {
	src, err := fh.Open()
	if err != nil {
		return models.UploadFile{}, err
	}
	defer src.Close()

	data, err := io.ReadAll(src)
	if err != nil {
		return models.UploadFile{}, err
	}
	return models.UploadFile{
		Name:        fh.Filename,
		ContentType: fh.Header.Get(fiber.HeaderContentType),
		Data:        data,
	}, nil
}

func uploadError(c *fiber.Ctx, err error) error {
	status := statusFor(err)
	message := err.Error()
	if status == http.StatusInternalServerError {
		log.Errorw("error processing images", "error", err)
		message = "Error processing images"
		var fileErr *services.FileError
		if errors.As(err, &fileErr) {
			message = "Error processing file " + fileErr.File
		}
	}
	return c.Status(status).JSON(fiber.Map{"error": message})
}
