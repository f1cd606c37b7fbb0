package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
)

// Upper bound of a single ListObjectsV2 page.
const s3MaxKeys = 1000

// S3Storage implements Storage with aws-sdk-go-v2 against an S3-compatible endpoint.
// Path-style addressing is forced so endpoints with a path prefix keep working.
type S3Storage struct {
	client     *s3.Client
	region     string
	publicBase string
}

// NewS3Storage builds the S3 client from static credentials.
func NewS3Storage(ctx context.Context, endpoint, accessKey, secretKey, region, publicBase string) (*S3Storage, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(accessKey, secretKey, "")),
	)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
		o.UsePathStyle = true
	})

	return &S3Storage{
		client:     client,
		region:     region,
		publicBase: strings.TrimRight(publicBase, "/"),
	}, nil
}

// List returns the objects directly under opts.Prefix.
func (s *S3Storage) List(ctx context.Context, bucket string, opts ListOptions) (*Page, error) {
	want := opts.Offset + opts.Limit + 1
	pageSize := int32(s3MaxKeys)
	if opts.Limit > 0 && want < s3MaxKeys {
		pageSize = int32(want)
	}

	p := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket:    aws.String(bucket),
		Prefix:    aws.String(opts.Prefix),
		Delimiter: aws.String("/"),
		MaxKeys:   aws.Int32(pageSize),
	})

	var objects []Object
	for p.HasMorePages() {
		out, err := p.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("list objects in %q: %w", bucket, err)
		}
		for _, o := range out.Contents {
			objects = append(objects, objectFromS3(o, opts.Prefix))
		}
		if opts.Limit > 0 && len(objects) >= want {
			break
		}
	}
	return window(objects, opts), nil
}

// Upload puts the object under key. With overwrite false the write is
// conditional (If-None-Match: *), so a taken key fails atomically.
func (s *S3Storage) Upload(ctx context.Context, bucket, key string, reader io.Reader, size int64, contentType string, overwrite bool) error {
	body, err := seekable(reader)
	if err != nil {
		return fmt.Errorf("buffer object %q: %w", key, err)
	}

	in := &s3.PutObjectInput{
		Bucket:      aws.String(bucket),
		Key:         aws.String(key),
		Body:        body,
		ContentType: aws.String(contentType),
	}
	if size >= 0 {
		in.ContentLength = aws.Int64(size)
	}
	if !overwrite {
		in.IfNoneMatch = aws.String("*")
	}

	if _, err := s.client.PutObject(ctx, in); err != nil {
		if apiErrorCode(err) == "PreconditionFailed" {
			return fmt.Errorf("put object %q: %w", key, ErrObjectExists)
		}
		return fmt.Errorf("put object %q: %w", key, err)
	}
	return nil
}

// Download opens the object at key. The returned body must be closed.
func (s *S3Storage) Download(ctx context.Context, bucket, key string) (*Blob, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var nsk *types.NoSuchKey
		if errors.As(err, &nsk) {
			return nil, fmt.Errorf("get object %q: %w", key, ErrObjectNotFound)
		}
		return nil, fmt.Errorf("get object %q: %w", key, err)
	}
	return &Blob{
		Body:        out.Body,
		Size:        aws.ToInt64(out.ContentLength),
		ContentType: aws.ToString(out.ContentType),
	}, nil
}

// Delete removes keys in one DeleteObjects call.
func (s *S3Storage) Delete(ctx context.Context, bucket string, keys []string) error {
	ids := make([]types.ObjectIdentifier, 0, len(keys))
	for _, k := range keys {
		ids = append(ids, types.ObjectIdentifier{Key: aws.String(k)})
	}

	out, err := s.client.DeleteObjects(ctx, &s3.DeleteObjectsInput{
		Bucket: aws.String(bucket),
		Delete: &types.Delete{Objects: ids, Quiet: aws.Bool(true)},
	})
	if err != nil {
		return fmt.Errorf("delete objects in %q: %w", bucket, err)
	}

	var errs []error
	for _, e := range out.Errors {
		errs = append(errs, fmt.Errorf("remove object %q: %s", aws.ToString(e.Key), aws.ToString(e.Message)))
	}
	return errors.Join(errs...)
}

// PublicURL returns the browser-accessible URL for the given key.
// For the platform: "https://xyz.supabase.co/storage/v1/object/public/avatars/profiles/a.png"
func (s *S3Storage) PublicURL(bucket, key string) string {
	return publicURL(s.publicBase, bucket, key)
}

// EnsureBucket creates the bucket when HeadBucket reports it missing.
func (s *S3Storage) EnsureBucket(ctx context.Context, bucket string, public bool) error {
	_, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(bucket)})
	if err != nil {
		var nf *types.NotFound
		if !errors.As(err, &nf) {
			return fmt.Errorf("check bucket existence: %w", err)
		}
		in := &s3.CreateBucketInput{Bucket: aws.String(bucket)}
		if s.region != "" && s.region != "us-east-1" {
			in.CreateBucketConfiguration = &types.CreateBucketConfiguration{
				LocationConstraint: types.BucketLocationConstraint(s.region),
			}
		}
		if _, err := s.client.CreateBucket(ctx, in); err != nil {
			return fmt.Errorf("create bucket %q: %w", bucket, err)
		}
	}

	if !public {
		return nil
	}
	_, err = s.client.PutBucketPolicy(ctx, &s3.PutBucketPolicyInput{
		Bucket: aws.String(bucket),
		Policy: aws.String(publicReadPolicy(bucket)),
	})
	if err != nil {
		return fmt.Errorf("set bucket policy: %w", err)
	}
	return nil
}

func objectFromS3(o types.Object, prefix string) Object {
	obj := Object{
		Name:      strings.TrimPrefix(aws.ToString(o.Key), prefix),
		ID:        strings.Trim(aws.ToString(o.ETag), `"`),
		CreatedAt: aws.ToTime(o.LastModified),
	}
	if o.Size != nil {
		size := *o.Size
		obj.Size = &size
	}
	return obj
}

// seekable returns r unchanged when it can seek; otherwise it buffers r in memory.
// The SDK needs a seekable body to sign the payload over plain HTTP.
func seekable(r io.Reader) (io.ReadSeeker, error) {
	if rs, ok := r.(io.ReadSeeker); ok {
		return rs, nil
	}
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return bytes.NewReader(b), nil
}

func apiErrorCode(err error) string {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		return apiErr.ErrorCode()
	}
	return ""
}
