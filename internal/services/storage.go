package services

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// ObjectStorage stores processed images and removes them by URL.
type ObjectStorage interface {
	Upload(ctx context.Context, key string, data []byte) (string, error)
	Delete(ctx context.Context, objectURL string) error
}

// objectClient abstracts the MinIO calls the storage needs, for testability.
type objectClient interface {
	PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
	RemoveObject(ctx context.Context, bucketName, objectName string, opts minio.RemoveObjectOptions) error
	BucketExists(ctx context.Context, bucketName string) (bool, error)
	MakeBucket(ctx context.Context, bucketName string, opts minio.MakeBucketOptions) error
	SetBucketPolicy(ctx context.Context, bucketName, policy string) error
}

type MinioStorageConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
	// PublicURL is the externally reachable base for objects, e.g.
	// https://cdn.example.com. Defaults to the endpoint.
	PublicURL string
	// Prefix is a folder prepended to every object key.
	Prefix  string
	Timeout time.Duration
}

// MinioStorage keeps gallery images in a MinIO or S3-compatible bucket.
type MinioStorage struct {
	client    objectClient
	bucket    string
	publicURL string
	prefix    string
	timeout   time.Duration
}

func NewMinioStorage(cfg MinioStorageConfig) (*MinioStorage, error) {
	endpoint := strings.TrimPrefix(strings.TrimPrefix(cfg.Endpoint, "https://"), "http://")
	if i := strings.Index(endpoint, "/"); i != -1 {
		endpoint = endpoint[:i]
	}

	// Batches upload in parallel; the default transport only keeps 2 idle
	// conns per host.
	transport := &http.Transport{
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 100,
		IdleConnTimeout:     90 * time.Second,
	}
	client, err := minio.New(endpoint, &minio.Options{
		Creds:     credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure:    cfg.UseSSL,
		Transport: transport,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}

	publicURL := cfg.PublicURL
	if publicURL == "" {
		scheme := "http"
		if cfg.UseSSL {
			scheme = "https"
		}
		publicURL = scheme + "://" + endpoint
	}

	return newMinioStorage(client, cfg.Bucket, publicURL, cfg.Prefix, cfg.Timeout), nil
}

func newMinioStorage(client objectClient, bucket, publicURL, prefix string, timeout time.Duration) *MinioStorage {
	return &MinioStorage{
		client:    client,
		bucket:    bucket,
		publicURL: strings.TrimSuffix(publicURL, "/"),
		prefix:    strings.Trim(prefix, "/"),
		timeout:   timeout,
	}
}

// EnsureBucket creates the bucket when missing and makes its objects
// publicly readable so stored URLs resolve.
func (s *MinioStorage) EnsureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("%w: check bucket %q: %v", ErrUpstream, s.bucket, err)
	}
	if !exists {
		if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{}); err != nil {
			return fmt.Errorf("%w: create bucket %q: %v", ErrUpstream, s.bucket, err)
		}
		log.Infow("created bucket", "bucket", s.bucket)
	}
	if err := s.client.SetBucketPolicy(ctx, s.bucket, publicReadPolicy(s.bucket)); err != nil {
		return fmt.Errorf("%w: set bucket policy %q: %v", ErrUpstream, s.bucket, err)
	}
	return nil
}

func (s *MinioStorage) Upload(ctx context.Context, key string, data []byte) (string, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	objectKey := s.objectKey(key)
	_, err := s.client.PutObject(ctx, s.bucket, objectKey,
		bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: "image/jpeg"})
	if err != nil {
		return "", fmt.Errorf("%w: put %q: %v", ErrUpstream, objectKey, err)
	}
	return s.publicURL + "/" + s.bucket + "/" + objectKey, nil
}

func (s *MinioStorage) Delete(ctx context.Context, objectURL string) error {
	publicID, err := PublicIDFromURL(objectURL, s.bucket)
	if err != nil {
		return err
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	if err := s.client.RemoveObject(ctx, s.bucket, publicID, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("%w: delete %q: %v", ErrUpstream, publicID, err)
	}
	return nil
}

func (s *MinioStorage) objectKey(key string) string {
	if s.prefix == "" {
		return key
	}
	return path.Join(s.prefix, key)
}

func (s *MinioStorage) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, s.timeout)
}

// PublicIDFromURL derives the object key from a stored URL by dropping the
// scheme, host, query, fragment and the bucket path segment. URLs that do
// not contain the bucket segment yield their last path element.
func PublicIDFromURL(objectURL, bucket string) (string, error) {
	u, err := url.Parse(objectURL)
	if err != nil {
		return "", fmt.Errorf("parse object url %q: %w", objectURL, err)
	}
	p := strings.TrimPrefix(u.Path, "/")
	if p == "" {
		return "", fmt.Errorf("object url %q has no path", objectURL)
	}

	marker := bucket + "/"
	if strings.HasPrefix(p, marker) {
		p = strings.TrimPrefix(p, marker)
	} else if i := strings.Index(p, "/"+marker); i != -1 {
		p = p[i+len(marker)+1:]
	} else {
		p = path.Base(p)
	}
	if p == "" || p == "." {
		return "", fmt.Errorf("object url %q has no object key", objectURL)
	}
	return p, nil
}

func publicReadPolicy(bucket string) string {
	return `{"Version":"2012-10-17","Statement":[{"Effect":"Allow","Principal":{"AWS":["*"]},` +
		`"Action":["s3:GetObject"],"Resource":["arn:aws:s3:::` + bucket + `/*"]}]}`
}
