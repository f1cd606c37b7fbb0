package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// MinioStorage implements Storage using a MinIO (or any host-addressed S3-compatible) backend.
type MinioStorage struct {
	client     *minio.Client
	publicBase string
}

// NewMinioStorage creates a MinIO client. It performs no network calls;
// buckets are prepared separately with EnsureBucket.
func NewMinioStorage(endpoint, accessKey, secretKey, region, publicBase string, useSSL bool) (*MinioStorage, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
		Region: region,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}

	return &MinioStorage{
		client:     client,
		publicBase: strings.TrimRight(publicBase, "/"),
	}, nil
}

// List returns the objects directly under opts.Prefix. Common prefixes
// ("folders") are skipped.
func (s *MinioStorage) List(ctx context.Context, bucket string, opts ListOptions) (*Page, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// One extra entry past the window tells us whether the listing was truncated.
	want := opts.Offset + opts.Limit + 1
	var objects []Object
	for info := range s.client.ListObjects(ctx, bucket, minio.ListObjectsOptions{
		Prefix:       opts.Prefix,
		WithMetadata: true,
	}) {
		if info.Err != nil {
			return nil, fmt.Errorf("list objects in %q: %w", bucket, info.Err)
		}
		if strings.HasSuffix(info.Key, "/") {
			continue
		}
		objects = append(objects, objectFromMinio(info, opts.Prefix))
		if opts.Limit > 0 && len(objects) >= want {
			break
		}
	}
	return window(objects, opts), nil
}

// Upload streams reader to MinIO under key. size must be the exact byte count
// (pass -1 only if the size is genuinely unknown; MinIO will buffer it).
func (s *MinioStorage) Upload(ctx context.Context, bucket, key string, reader io.Reader, size int64, contentType string, overwrite bool) error {
	if !overwrite {
		_, err := s.client.StatObject(ctx, bucket, key, minio.StatObjectOptions{})
		if err == nil {
			return fmt.Errorf("put object %q: %w", key, ErrObjectExists)
		}
		if !isNoSuchKey(err) {
			return fmt.Errorf("stat object %q: %w", key, err)
		}
	}

	_, err := s.client.PutObject(ctx, bucket, key, reader, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return fmt.Errorf("put object %q: %w", key, err)
	}
	return nil
}

// Download opens the object at key. The returned body must be closed.
func (s *MinioStorage) Download(ctx context.Context, bucket, key string) (*Blob, error) {
	obj, err := s.client.GetObject(ctx, bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("get object %q: %w", key, err)
	}
	// GetObject is lazy; Stat surfaces a missing key before the caller starts reading.
	info, err := obj.Stat()
	if err != nil {
		_ = obj.Close()
		if isNoSuchKey(err) {
			return nil, fmt.Errorf("get object %q: %w", key, ErrObjectNotFound)
		}
		return nil, fmt.Errorf("stat object %q: %w", key, err)
	}
	return &Blob{Body: obj, Size: info.Size, ContentType: info.ContentType}, nil
}

// Delete removes the given keys from the bucket in one batch.
func (s *MinioStorage) Delete(ctx context.Context, bucket string, keys []string) error {
	objectsCh := make(chan minio.ObjectInfo, len(keys))
	for _, k := range keys {
		objectsCh <- minio.ObjectInfo{Key: k}
	}
	close(objectsCh)

	var errs []error
	for rerr := range s.client.RemoveObjects(ctx, bucket, objectsCh, minio.RemoveObjectsOptions{}) {
		errs = append(errs, fmt.Errorf("remove object %q: %w", rerr.ObjectName, rerr.Err))
	}
	return errors.Join(errs...)
}

// PublicURL returns the browser-accessible URL for the given key.
// For local MinIO: "http://localhost:9000/gallery/gallery-u1-1700000000000.png"
func (s *MinioStorage) PublicURL(bucket, key string) string {
	return publicURL(s.publicBase, bucket, key)
}

// EnsureBucket creates the bucket if needed and, for public buckets, applies an
// anonymous read policy.
func (s *MinioStorage) EnsureBucket(ctx context.Context, bucket string, public bool) error {
	exists, err := s.client.BucketExists(ctx, bucket)
	if err != nil {
		return fmt.Errorf("check bucket existence: %w", err)
	}
	if !exists {
		if err := s.client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}); err != nil {
			return fmt.Errorf("create bucket %q: %w", bucket, err)
		}
	}

	if !public {
		return nil
	}
	if err := s.client.SetBucketPolicy(ctx, bucket, publicReadPolicy(bucket)); err != nil {
		return fmt.Errorf("set bucket policy: %w", err)
	}
	return nil
}

func objectFromMinio(info minio.ObjectInfo, prefix string) Object {
	size := info.Size
	o := Object{
		Name:      strings.TrimPrefix(info.Key, prefix),
		ID:        strings.Trim(info.ETag, `"`),
		CreatedAt: info.LastModified,
		Size:      &size,
	}
	if info.ContentType != "" || len(info.UserMetadata) > 0 {
		o.Metadata = make(map[string]string, len(info.UserMetadata)+1)
		for k, v := range info.UserMetadata {
			o.Metadata[k] = v
		}
		if info.ContentType != "" {
			o.Metadata["mimetype"] = info.ContentType
		}
	}
	return o
}

func isNoSuchKey(err error) bool {
	return minio.ToErrorResponse(err).Code == "NoSuchKey"
}

// publicReadPolicy returns an S3 bucket policy JSON that allows anonymous GET on all objects.
func publicReadPolicy(bucket string) string {
	policy := map[string]interface{}{
		"Version": "2012-10-17",
		"Statement": []map[string]interface{}{
			{
				"Effect":    "Allow",
				"Principal": "*",
				"Action":    "s3:GetObject",
				"Resource":  fmt.Sprintf("arn:aws:s3:::%s/*", bucket),
			},
		},
	}
	b, _ := json.Marshal(policy)
	return string(b)
}
