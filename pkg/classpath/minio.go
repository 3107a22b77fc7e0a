package classpath

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// MinioConfig holds the settings of a bucket-backed classpath entry.
type MinioConfig struct {
	Endpoint  string
	Bucket    string
	AccessKey string
	SecretKey string
	UseSSL    bool
	// Prefix is prepended to every object key.
	Prefix string

	// Client, when set, is used instead of Endpoint and the keys.
	Client *minio.Client
}

func (c *MinioConfig) validate() error {
	if c.Bucket == "" {
		return fmt.Errorf("bucket is required")
	}
	if c.Client != nil {
		return nil
	}
	if c.Endpoint == "" {
		return fmt.Errorf("endpoint is required when client is not provided")
	}
	return nil
}

// MinioLocator loads classes from objects in a MinIO or S3-compatible
// bucket, keyed by resource name under an optional prefix.
type MinioLocator struct {
	client *minio.Client
	bucket string
	prefix string
}

func NewMinioLocator(cfg MinioConfig) (*MinioLocator, error) {
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("minio: invalid config: %w", err)
	}
	client := cfg.Client
	if client == nil {
		var err error
		client, err = minio.New(cfg.Endpoint, &minio.Options{
			Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
			Secure: cfg.UseSSL,
		})
		if err != nil {
			return nil, fmt.Errorf("minio: creating client: %w", err)
		}
	}
	return &MinioLocator{
		client: client,
		bucket: cfg.Bucket,
		prefix: strings.Trim(cfg.Prefix, "/"),
	}, nil
}

// Open checks that the bucket exists.
func (m *MinioLocator) Open() error {
	ok, err := m.client.BucketExists(context.Background(), m.bucket)
	if err != nil {
		return fmt.Errorf("minio: checking bucket %s: %w", m.bucket, translateMinioError(err))
	}
	if !ok {
		return fmt.Errorf("minio: bucket %s: %w", m.bucket, ErrNotFound)
	}
	return nil
}

func (m *MinioLocator) Close() error { return nil }

// OpenResource stats the object first: GetObject defers errors to the
// first read.
func (m *MinioLocator) OpenResource(_, resourceName string) (io.ReadCloser, error) {
	ctx := context.Background()
	key := m.key(resourceName)
	if _, err := m.client.StatObject(ctx, m.bucket, key, minio.StatObjectOptions{}); err != nil {
		err = translateMinioError(err)
		if err == ErrNotFound {
			return nil, notFound(m, resourceName)
		}
		return nil, fmt.Errorf("minio: stat %s: %w", key, err)
	}
	obj, err := m.client.GetObject(ctx, m.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("minio: get %s: %w", key, translateMinioError(err))
	}
	return obj, nil
}

func (m *MinioLocator) key(resourceName string) string {
	if m.prefix == "" {
		return resourceName
	}
	return path.Join(m.prefix, resourceName)
}

func (m *MinioLocator) String() string {
	if m.prefix == "" {
		return "s3://" + m.bucket
	}
	return "s3://" + m.bucket + "/" + m.prefix
}

// translateMinioError maps missing keys and buckets to ErrNotFound.
func translateMinioError(err error) error {
	switch minio.ToErrorResponse(err).Code {
	case "NoSuchKey", "NoSuchBucket":
		return ErrNotFound
	}
	return err
}
