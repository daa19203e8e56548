// Package minio stores source content and rendered artifacts in an
// S3-compatible object store. References take the form "bucket/object/key".
package minio

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"narrate/internal/logging"
	"narrate/internal/services"
)

// Config holds object store connection settings.
type Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Region    string
	UseSSL    bool
}

// ObjectInfo describes a stored object.
type ObjectInfo struct {
	Ref         string
	SizeBytes   int64
	ContentType string
}

// objectAPI is the slice of the MinIO client the store calls.
type objectAPI interface {
	StatObject(ctx context.Context, bucket, object string, opts minio.StatObjectOptions) (minio.ObjectInfo, error)
	FGetObject(ctx context.Context, bucket, object, filePath string, opts minio.GetObjectOptions) error
	PutObject(ctx context.Context, bucket, object string, reader io.Reader, size int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
	FPutObject(ctx context.Context, bucket, object, filePath string, opts minio.PutObjectOptions) (minio.UploadInfo, error)
	BucketExists(ctx context.Context, bucket string) (bool, error)
	MakeBucket(ctx context.Context, bucket string, opts minio.MakeBucketOptions) error
}

// ContentStore reads and writes pipeline content in object storage.
type ContentStore struct {
	client objectAPI
	logger *slog.Logger
}

// New connects a content store.
func New(cfg Config, logger *slog.Logger) (*ContentStore, error) {
	if strings.TrimSpace(cfg.Endpoint) == "" {
		return nil, services.Wrap(services.ErrValidation, "storage", "configure", "endpoint is required", nil)
	}
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, "storage", "connect", "object store connection", err)
	}
	return &ContentStore{
		client: client,
		logger: logging.NewComponentLogger(logger, "storage"),
	}, nil
}

// Stat verifies the referenced object exists and returns its metadata.
func (s *ContentStore) Stat(ctx context.Context, ref string) (ObjectInfo, error) {
	bucket, object, err := splitRef(ref)
	if err != nil {
		return ObjectInfo{}, err
	}
	info, err := s.client.StatObject(ctx, bucket, object, minio.StatObjectOptions{})
	if err != nil {
		if isNoSuchKey(err) {
			return ObjectInfo{}, services.Wrap(services.ErrNotFound, "storage", "stat",
				fmt.Sprintf("object %s not found", ref), err)
		}
		return ObjectInfo{}, services.Wrap(services.ErrTransient, "storage", "stat",
			fmt.Sprintf("stat object %s", ref), err)
	}
	return ObjectInfo{Ref: ref, SizeBytes: info.Size, ContentType: info.ContentType}, nil
}

// FetchTo downloads the referenced object to a local path.
func (s *ContentStore) FetchTo(ctx context.Context, ref, localPath string) error {
	bucket, object, err := splitRef(ref)
	if err != nil {
		return err
	}
	if err := s.client.FGetObject(ctx, bucket, object, localPath, minio.GetObjectOptions{}); err != nil {
		if isNoSuchKey(err) {
			return services.Wrap(services.ErrNotFound, "storage", "fetch",
				fmt.Sprintf("object %s not found", ref), err)
		}
		return services.Wrap(services.ErrTransient, "storage", "fetch",
			fmt.Sprintf("fetch object %s", ref), err)
	}
	s.logger.Debug("object fetched", logging.String("ref", ref), logging.String("path", localPath))
	return nil
}

// Store writes payload bytes under the reference, creating the bucket on
// first use.
func (s *ContentStore) Store(ctx context.Context, ref, contentType string, payload []byte) error {
	bucket, object, err := splitRef(ref)
	if err != nil {
		return err
	}
	if err := s.ensureBucket(ctx, bucket); err != nil {
		return err
	}
	_, err = s.client.PutObject(ctx, bucket, object, bytes.NewReader(payload), int64(len(payload)),
		minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return services.Wrap(services.ErrTransient, "storage", "store",
			fmt.Sprintf("store object %s", ref), err)
	}
	s.logger.Debug("object stored",
		logging.String("ref", ref),
		logging.Int("bytes", len(payload)),
	)
	return nil
}

// StoreFile uploads a local file under the reference.
func (s *ContentStore) StoreFile(ctx context.Context, ref, contentType, localPath string) error {
	bucket, object, err := splitRef(ref)
	if err != nil {
		return err
	}
	if err := s.ensureBucket(ctx, bucket); err != nil {
		return err
	}
	_, err = s.client.FPutObject(ctx, bucket, object, localPath,
		minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return services.Wrap(services.ErrTransient, "storage", "store",
			fmt.Sprintf("store object %s", ref), err)
	}
	return nil
}

func (s *ContentStore) ensureBucket(ctx context.Context, bucket string) error {
	exists, err := s.client.BucketExists(ctx, bucket)
	if err != nil {
		return services.Wrap(services.ErrTransient, "storage", "store",
			fmt.Sprintf("check bucket %s", bucket), err)
	}
	if exists {
		return nil
	}
	if err := s.client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}); err != nil {
		return services.Wrap(services.ErrTransient, "storage", "store",
			fmt.Sprintf("create bucket %s", bucket), err)
	}
	return nil
}

// splitRef separates "bucket/object/key" into bucket and object key.
func splitRef(ref string) (bucket, object string, err error) {
	trimmed := strings.Trim(strings.TrimSpace(ref), "/")
	bucket, object, found := strings.Cut(trimmed, "/")
	if !found || bucket == "" || object == "" {
		return "", "", services.Wrap(services.ErrValidation, "storage", "parse",
			fmt.Sprintf("reference %q must look like bucket/object", ref), nil)
	}
	return bucket, object, nil
}

func isNoSuchKey(err error) bool {
	resp := minio.ToErrorResponse(err)
	return resp.Code == "NoSuchKey" || resp.Code == "NoSuchBucket"
}
