package services

import (
	"context"
	"errors"
	"fmt"

	"event-gallery/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// pgxConn is the part of *pgxpool.Pool the store uses.
type pgxConn interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
}

type PostgresPhotoStore struct {
	pool pgxConn
}

func NewPostgresPhotoStore(pool *pgxpool.Pool) *PostgresPhotoStore {
	return &PostgresPhotoStore{pool: pool}
}

func (s *PostgresPhotoStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `CREATE TABLE IF NOT EXISTS photos (
		id BIGSERIAL PRIMARY KEY,
		url TEXT NOT NULL
	)`)
	if err != nil {
		return fmt.Errorf("create photos table: %w", err)
	}
	return nil
}

func (s *PostgresPhotoStore) List(ctx context.Context) ([]models.Photo, error) {
	rows, err := s.pool.Query(ctx, `SELECT id, url FROM photos ORDER BY id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	photos := []models.Photo{}
	for rows.Next() {
		var p models.Photo
		if err := rows.Scan(&p.ID, &p.URL); err != nil {
			return nil, err
		}
		photos = append(photos, p)
	}
	return photos, rows.Err()
}

func (s *PostgresPhotoStore) ListURLs(ctx context.Context) ([]string, error) {
	rows, err := s.pool.Query(ctx, `SELECT url FROM photos`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var urls []string
	for rows.Next() {
		var url string
		if err := rows.Scan(&url); err != nil {
			return nil, err
		}
		urls = append(urls, url)
	}
	return urls, rows.Err()
}

func (s *PostgresPhotoStore) Count(ctx context.Context) (int, error) {
	var count int
	err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM photos`).Scan(&count)
	return count, err
}

func (s *PostgresPhotoStore) Insert(ctx context.Context, url string) (models.Photo, error) {
	photo := models.Photo{URL: url}
	err := s.pool.QueryRow(ctx, `INSERT INTO photos (url) VALUES ($1) RETURNING id`, url).Scan(&photo.ID)
	return photo, err
}

func (s *PostgresPhotoStore) InsertBatch(ctx context.Context, urls []string) ([]models.Photo, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	photos := make([]models.Photo, 0, len(urls))
	for _, url := range urls {
		photo := models.Photo{URL: url}
		if err := tx.QueryRow(ctx, `INSERT INTO photos (url) VALUES ($1) RETURNING id`, url).Scan(&photo.ID); err != nil {
			return nil, err
		}
		photos = append(photos, photo)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return photos, nil
}

func (s *PostgresPhotoStore) GetURL(ctx context.Context, id int64) (string, error) {
	var url string
	err := s.pool.QueryRow(ctx, `SELECT url FROM photos WHERE id = $1`, id).Scan(&url)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrNotFound
	}
	return url, err
}

func (s *PostgresPhotoStore) Delete(ctx context.Context, id int64) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM photos WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
