package storage

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/mediakit/convert/internal/config"
	"github.com/mediakit/convert/internal/metrics"
)

// Storage provides object storage operations for source videos,
// converted outputs and snapshot images.
type Storage struct {
	client     *minio.Client
	bucketName string
}

// New creates a new storage client and ensures the bucket exists.
func New(cfg config.StorageConfig) (*Storage, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}

	ctx := context.Background()
	exists, err := client.BucketExists(ctx, cfg.BucketName)
	if err != nil {
		return nil, fmt.Errorf("failed to check bucket existence: %w", err)
	}

	if !exists {
		err = client.MakeBucket(ctx, cfg.BucketName, minio.MakeBucketOptions{
			Region: cfg.Region,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create bucket: %w", err)
		}
	}

	return &Storage{
		client:     client,
		bucketName: cfg.BucketName,
	}, nil
}

// Upload uploads a stream to storage.
func (s *Storage) Upload(ctx context.Context, objectName string, reader io.Reader, size int64, contentType string) error {
	info, err := s.client.PutObject(ctx, s.bucketName, objectName, reader, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		metrics.StorageOperationsTotal.WithLabelValues("upload", "error").Inc()
		return fmt.Errorf("failed to upload object: %w", err)
	}

	metrics.StorageOperationsTotal.WithLabelValues("upload", "success").Inc()
	metrics.StorageBytesTransferred.WithLabelValues("upload").Add(float64(info.Size))
	return nil
}

// Download opens an object for reading.
func (s *Storage) Download(ctx context.Context, objectName string) (io.ReadCloser, error) {
	object, err := s.client.GetObject(ctx, s.bucketName, objectName, minio.GetObjectOptions{})
	if err != nil {
		metrics.StorageOperationsTotal.WithLabelValues("download", "error").Inc()
		return nil, fmt.Errorf("failed to download object: %w", err)
	}

	metrics.StorageOperationsTotal.WithLabelValues("download", "success").Inc()
	return object, nil
}

// UploadFile uploads a file from the local filesystem.
func (s *Storage) UploadFile(ctx context.Context, objectName, filePath string) error {
	contentType := getContentType(filePath)

	info, err := s.client.FPutObject(ctx, s.bucketName, objectName, filePath, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		metrics.StorageOperationsTotal.WithLabelValues("upload", "error").Inc()
		return fmt.Errorf("failed to upload file: %w", err)
	}

	metrics.StorageOperationsTotal.WithLabelValues("upload", "success").Inc()
	metrics.StorageBytesTransferred.WithLabelValues("upload").Add(float64(info.Size))
	return nil
}

// DownloadFile downloads an object to the local filesystem.
func (s *Storage) DownloadFile(ctx context.Context, objectName, filePath string) error {
	err := s.client.FGetObject(ctx, s.bucketName, objectName, filePath, minio.GetObjectOptions{})
	if err != nil {
		metrics.StorageOperationsTotal.WithLabelValues("download", "error").Inc()
		return fmt.Errorf("failed to download file: %w", err)
	}

	metrics.StorageOperationsTotal.WithLabelValues("download", "success").Inc()
	return nil
}

// Delete deletes an object from storage.
func (s *Storage) Delete(ctx context.Context, objectName string) error {
	err := s.client.RemoveObject(ctx, s.bucketName, objectName, minio.RemoveObjectOptions{})
	if err != nil {
		return fmt.Errorf("failed to delete object: %w", err)
	}

	return nil
}

// StatSize returns the size of an object in bytes.
func (s *Storage) StatSize(ctx context.Context, objectName string) (int64, error) {
	info, err := s.client.StatObject(ctx, s.bucketName, objectName, minio.StatObjectOptions{})
	if err != nil {
		return 0, fmt.Errorf("failed to stat object: %w", err)
	}

	return info.Size, nil
}

// GetURL returns a presigned URL for an object.
func (s *Storage) GetURL(ctx context.Context, objectName string) (string, error) {
	url, err := s.client.PresignedGetObject(ctx, s.bucketName, objectName, time.Hour, nil)
	if err != nil {
		return "", fmt.Errorf("failed to generate URL: %w", err)
	}

	return url.String(), nil
}

// List lists objects with a prefix.
func (s *Storage) List(ctx context.Context, prefix string) ([]string, error) {
	var objects []string

	for object := range s.client.ListObjects(ctx, s.bucketName, minio.ListObjectsOptions{
		Prefix:    prefix,
		Recursive: true,
	}) {
		if object.Err != nil {
			return nil, fmt.Errorf("failed to list objects: %w", object.Err)
		}
		objects = append(objects, object.Key)
	}

	return objects, nil
}

// getContentType returns the content type based on file extension.
func getContentType(filePath string) string {
	ext := filepath.Ext(filePath)
	switch ext {
	case ".flv":
		return "video/x-flv"
	case ".mp4":
		return "video/mp4"
	case ".mov":
		return "video/quicktime"
	case ".avi":
		return "video/x-msvideo"
	case ".mkv":
		return "video/x-matroska"
	case ".webm":
		return "video/webm"
	case ".3gp":
		return "video/3gpp"
	case ".jpeg", ".jpg":
		return "image/jpeg"
	default:
		return "application/octet-stream"
	}
}
