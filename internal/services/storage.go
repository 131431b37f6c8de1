package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"path/filepath"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// objectCacheControl is the caching hint set on every uploaded image.
const objectCacheControl = "max-age=3600"

// ErrStorageUnavailable means both upload key strategies failed.
var ErrStorageUnavailable = errors.New("failed to upload image to storage")

// AssetStore uploads an image and resolves a publicly retrievable URL.
type AssetStore interface {
	Store(ctx context.Context, content []byte, contentType, fileName, ownerID string) (string, error)
}

// objectUploader is the raw upload seam, satisfied by the minio client.
type objectUploader interface {
	putObject(ctx context.Context, key string, reader io.Reader, size int64, contentType string) error
}

// StorageService handles S3-compatible object storage for uploaded images
type StorageService struct {
	client     *minio.Client
	uploader   objectUploader
	bucketName string
	region     string
	publicBase string
	now        func() time.Time
}

type minioUploader struct {
	client *minio.Client
	bucket string
}

func (u *minioUploader) putObject(ctx context.Context, key string, reader io.Reader, size int64, contentType string) error {
	_, err := u.client.PutObject(ctx, u.bucket, key, reader, size, minio.PutObjectOptions{
		ContentType:  contentType,
		CacheControl: objectCacheControl,
	})
	return err
}

// NewStorageService creates a new S3 storage service. publicURL optionally
// overrides the base under which uploaded objects are publicly reachable.
func NewStorageService(endpoint, accessKey, secretKey, bucketName, region string, useSSL bool, publicURL string) (*StorageService, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
		Region: region,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create S3 client: %w", err)
	}

	base := strings.TrimSuffix(publicURL, "/")
	if base == "" {
		base = client.EndpointURL().String() + "/" + bucketName
	}

	return &StorageService{
		client:     client,
		uploader:   &minioUploader{client: client, bucket: bucketName},
		bucketName: bucketName,
		region:     region,
		publicBase: base,
		now:        time.Now,
	}, nil
}

// EnsureBucket creates the bucket if it doesn't exist
func (s *StorageService) EnsureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucketName)
	if err != nil {
		return fmt.Errorf("failed to check bucket existence: %w", err)
	}

	if !exists {
		err = s.client.MakeBucket(ctx, s.bucketName, minio.MakeBucketOptions{
			Region: s.region,
		})
		if err != nil {
			return fmt.Errorf("failed to create bucket: %w", err)
		}
	}

	return nil
}

// Store uploads an image and returns its public URL. The primary key nests
// the object under the owner; if that upload fails for any reason, one flat
// fallback key is tried before the whole call fails. Uploads overwrite any
// existing object under the same key.
func (s *StorageService) Store(ctx context.Context, content []byte, contentType, fileName, ownerID string) (string, error) {
	key := s.objectKey(ownerID, fileName)
	err := s.uploader.putObject(ctx, key, bytes.NewReader(content), int64(len(content)), contentType)
	if err == nil {
		return s.publicURL(key), nil
	}
	log.Printf("Storage upload of %s failed, retrying with flat key: %v", key, err)

	fallbackKey := s.fallbackKey(fileName)
	err = s.uploader.putObject(ctx, fallbackKey, bytes.NewReader(content), int64(len(content)), contentType)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}

	return s.publicURL(fallbackKey), nil
}

// objectKey is "{owner}/{epochMillis}{.ext}". Files without an extension get
// a key without one.
func (s *StorageService) objectKey(ownerID, fileName string) string {
	return fmt.Sprintf("%s/%d%s", ownerID, s.now().UnixMilli(), filepath.Ext(fileName))
}

// fallbackKey is "{epochMillis}-{fileName}", flat in the bucket root.
func (s *StorageService) fallbackKey(fileName string) string {
	return fmt.Sprintf("%d-%s", s.now().UnixMilli(), fileName)
}

func (s *StorageService) publicURL(key string) string {
	return s.publicBase + "/" + key
}

// GetBucketName returns the bucket name
func (s *StorageService) GetBucketName() string {
	return s.bucketName
}
