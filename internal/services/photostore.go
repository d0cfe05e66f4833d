package services

import (
	"context"

	"event-gallery/internal/models"
)

// PhotoStore persists photo URL rows. Listings are most recent first.
type PhotoStore interface {
	Migrate(ctx context.Context) error
	List(ctx context.Context) ([]models.Photo, error)
	ListURLs(ctx context.Context) ([]string, error)
	Count(ctx context.Context) (int, error)
	Insert(ctx context.Context, url string) (models.Photo, error)
	// InsertBatch inserts every url in one transaction; either all rows are
	// created or none.
	InsertBatch(ctx context.Context, urls []string) ([]models.Photo, error)
	GetURL(ctx context.Context, id int64) (string, error)
	Delete(ctx context.Context, id int64) error
}
