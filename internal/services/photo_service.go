package services

import (
	"context"
	"fmt"

	"event-gallery/internal/models"

	"github.com/gofiber/fiber/v2/log"
)

const (
	DedupOff      = "off"
	DedupFilename = "filename"
	DedupContent  = "content"
)

type PhotoServiceOptions struct {
	MaxBatchFiles    int
	MaxFileSizeBytes int
	DedupMode        string
}

// PhotoService runs the gallery operations over the record store, the
// object storage, the moderation gate and the image processor.
type PhotoService struct {
	store     PhotoStore
	storage   ObjectStorage
	moderator Moderator
	processor *ImageProcessor
	opts      PhotoServiceOptions
}

func NewPhotoService(store PhotoStore, storage ObjectStorage, moderator Moderator, processor *ImageProcessor, opts PhotoServiceOptions) *PhotoService {
	if opts.MaxBatchFiles <= 0 {
		opts.MaxBatchFiles = 10
	}
	if opts.DedupMode == "" {
		opts.DedupMode = DedupContent
	}
	return &PhotoService{
		store:     store,
		storage:   storage,
		moderator: moderator,
		processor: processor,
		opts:      opts,
	}
}

func (s *PhotoService) MaxBatchFiles() int {
	return s.opts.MaxBatchFiles
}

// Gallery returns every photo, most recent first, with the total count.
func (s *PhotoService) Gallery(ctx context.Context) ([]models.Photo, int, error) {
	photos, err := s.store.List(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("list photos: %w", err)
	}
	count, err := s.store.Count(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("count photos: %w", err)
	}
	return photos, count, nil
}

func (s *PhotoService) Count(ctx context.Context) (int, error) {
	return s.store.Count(ctx)
}

// DeletePhoto removes the row and then the stored object. A failed object
// removal is logged; the photo is gone from the gallery either way.
func (s *PhotoService) DeletePhoto(ctx context.Context, id int64) error {
	url, err := s.store.GetURL(ctx, id)
	if err != nil {
		return err
	}

	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}

	if err := s.storage.Delete(context.WithoutCancel(ctx), url); err != nil {
		log.Errorw("failed to delete stored object", "photo_id", id, "url", url, "error", err)
	}

	log.Infow("photo deleted", "photo_id", id, "url", url)
	return nil
}
