package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"event-gallery/internal/models"
)

// SQLitePhotoStore backs the gallery with a local SQLite file, for
// development without a Postgres server.
type SQLitePhotoStore struct {
	db *sql.DB
}

func NewSQLitePhotoStore(db *sql.DB) *SQLitePhotoStore {
	return &SQLitePhotoStore{db: db}
}

func (s *SQLitePhotoStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS photos (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		url TEXT NOT NULL
	)`)
	if err != nil {
		return fmt.Errorf("create photos table: %w", err)
	}
	return nil
}

func (s *SQLitePhotoStore) List(ctx context.Context) ([]models.Photo, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, url FROM photos ORDER BY id DESC`)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = rows.Close()
	}()

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

func (s *SQLitePhotoStore) ListURLs(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT url FROM photos`)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = rows.Close()
	}()

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

func (s *SQLitePhotoStore) Count(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM photos`).Scan(&count)
	return count, err
}

func (s *SQLitePhotoStore) Insert(ctx context.Context, url string) (models.Photo, error) {
	res, err := s.db.ExecContext(ctx, `INSERT INTO photos (url) VALUES (?)`, url)
	if err != nil {
		return models.Photo{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return models.Photo{}, err
	}
	return models.Photo{ID: id, URL: url}, nil
}

func (s *SQLitePhotoStore) InsertBatch(ctx context.Context, urls []string) ([]models.Photo, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	photos := make([]models.Photo, 0, len(urls))
	for _, url := range urls {
		res, err := tx.ExecContext(ctx, `INSERT INTO photos (url) VALUES (?)`, url)
		if err != nil {
			return nil, err
		}
		id, err := res.LastInsertId()
		if err != nil {
			return nil, err
		}
		photos = append(photos, models.Photo{ID: id, URL: url})
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return photos, nil
}

func (s *SQLitePhotoStore) GetURL(ctx context.Context, id int64) (string, error) {
	var url string
	err := s.db.QueryRowContext(ctx, `SELECT url FROM photos WHERE id = ?`, id).Scan(&url)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	return url, err
}

func (s *SQLitePhotoStore) Delete(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM photos WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
