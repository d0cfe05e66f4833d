package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"path"
	"path/filepath"
	"regexp"
	"strings"

	"event-gallery/internal/models"

	"github.com/gofiber/fiber/v2/log"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

var (
	allowedTypes = regexp.MustCompile(`jpeg|jpg|png|gif`)
	unsafeChars  = regexp.MustCompile(`[^A-Za-z0-9_-]+`)
)

// ProcessBatch validates a batch, runs every file through moderation,
// processing and upload concurrently, and records the resulting URLs.
//
// The batch is all-or-nothing: rows are inserted in one transaction only
// after every file uploaded, and on any failure the objects already uploaded
// by this batch are removed again.
func (s *PhotoService) ProcessBatch(ctx context.Context, files []models.UploadFile) ([]models.Photo, error) {
	if len(files) == 0 {
		return nil, ErrNoFilesProvided
	}
	if len(files) > s.opts.MaxBatchFiles {
		return nil, fmt.Errorf("%w: got %d, maximum is %d", ErrBatchTooLarge, len(files), s.opts.MaxBatchFiles)
	}

	for _, f := range files {
		if err := s.validateFile(f); err != nil {
			return nil, &FileError{File: f.Name, Err: err}
		}
	}

	tokens := make([]string, len(files))
	keys := make([]string, len(files))
	for i, f := range files {
		tokens[i] = s.dedupToken(f)
		keys[i] = objectKey(tokens[i])
	}
	if err := s.checkDuplicates(ctx, files, tokens); err != nil {
		return nil, err
	}

	urls := make([]string, len(files))
	errs := make([]error, len(files))

	// Siblings are never cancelled: every pipeline runs to completion so the
	// compensation below knows exactly which objects exist.
	var g errgroup.Group
	for i := range files {
		i := i
		g.Go(func() error {
			urls[i], errs[i] = s.processFile(ctx, files[i], keys[i])
			return errs[i]
		})
	}

	if err := g.Wait(); err != nil {
		var firstErr error
		var firstName string
		var uploaded []string
		for i, err := range errs {
			if err != nil {
				log.Errorw("failed to process file", "file", files[i].Name, "error", err)
				if firstErr == nil {
					firstErr, firstName = err, files[i].Name
				}
				continue
			}
			uploaded = append(uploaded, urls[i])
		}
		s.removeObjects(ctx, uploaded)
		return nil, &FileError{File: firstName, Err: firstErr}
	}

	photos, err := s.store.InsertBatch(ctx, urls)
	if err != nil {
		log.Errorw("failed to record batch", "files", len(files), "error", err)
		s.removeObjects(ctx, urls)
		return nil, fmt.Errorf("%w: record photos: %v", ErrUpstream, err)
	}

	log.Infow("batch uploaded", "files", len(files))
	return photos, nil
}

// processFile runs moderate, process and upload strictly in that order.
func (s *PhotoService) processFile(ctx context.Context, f models.UploadFile, key string) (string, error) {
	verdict, err := s.moderator.Check(ctx, f.Data)
	if err != nil {
		return "", err
	}
	if verdict.Unsafe() {
		log.Warnw("rejected unsafe image", "file", f.Name, "adult", verdict.Adult.String(), "violence", verdict.Violence.String())
		return "", ErrUnsafeContent
	}

	processed, err := s.processor.Process(f.Data)
	if err != nil {
		return "", err
	}

	return s.storage.Upload(ctx, key, processed)
}

func (s *PhotoService) validateFile(f models.UploadFile) error {
	ext := strings.ToLower(filepath.Ext(f.Name))
	if !allowedTypes.MatchString(ext) || !allowedTypes.MatchString(strings.ToLower(f.ContentType)) {
		return ErrUnsupportedFileType
	}
	if s.opts.MaxFileSizeBytes > 0 && len(f.Data) > s.opts.MaxFileSizeBytes {
		return ErrFileTooLarge
	}
	return nil
}

// dedupToken is what the duplicate check matches on: the content hash or
// the sanitized file stem. It is empty when the file is not checked.
func (s *PhotoService) dedupToken(f models.UploadFile) string {
	switch s.opts.DedupMode {
	case DedupContent:
		sum := sha256.Sum256(f.Data)
		return hex.EncodeToString(sum[:])
	case DedupFilename:
		base := path.Base(filepath.ToSlash(f.Name))
		stem := unsafeChars.ReplaceAllString(strings.TrimSuffix(base, path.Ext(base)), "_")
		if stem != "" && stem != "_" {
			return stem
		}
	}
	return ""
}

// objectKey names the stored object "<token>/<uuid>.jpg". Every upload gets
// its own object, so removing one never touches an object another row uses.
func objectKey(token string) string {
	name := uuid.New().String() + ".jpg"
	if token == "" {
		return name
	}
	return token + "/" + name
}

func (s *PhotoService) checkDuplicates(ctx context.Context, files []models.UploadFile, tokens []string) error {
	if s.opts.DedupMode == DedupOff {
		return nil
	}

	seen := make(map[string]string, len(tokens))
	for i, token := range tokens {
		if token == "" {
			continue
		}
		if other, ok := seen[token]; ok {
			return fmt.Errorf("%w: %s and %s are the same photo", ErrDuplicateDetected, other, files[i].Name)
		}
		seen[token] = files[i].Name
	}

	existing, err := s.store.ListURLs(ctx)
	if err != nil {
		return fmt.Errorf("%w: list photos: %v", ErrUpstream, err)
	}
	for _, url := range existing {
		for i, token := range tokens {
			if token != "" && strings.Contains(url, "/"+token+"/") {
				return fmt.Errorf("%w: %s", ErrDuplicateDetected, files[i].Name)
			}
		}
	}
	return nil
}

func (s *PhotoService) removeObjects(ctx context.Context, urls []string) {
	ctx = context.WithoutCancel(ctx)
	for _, url := range urls {
		if err := s.storage.Delete(ctx, url); err != nil {
			log.Errorw("failed to remove object of failed batch", "url", url, "error", err)
		}
	}
}
