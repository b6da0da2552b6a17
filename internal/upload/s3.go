// Package upload ships finished archives to S3-compatible object storage.
// Upload runs only after the archive is durably renamed into place and
// before any source deletion.
package upload

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/hashicorp/go-cleanhttp"
	"github.com/spf13/afero"

	v1 "github.com/multiarc/multiarc/apis/v1"
)

// S3Uploader is the part of the manager.Uploader API used here. It allows
// for easy mocking in tests.
type S3Uploader interface {
	Upload(ctx context.Context, input *s3.PutObjectInput, opts ...func(*manager.Uploader)) (*manager.UploadOutput, error)
}

// S3 uploads archive files to one bucket under an optional key prefix.
type S3 struct {
	bucket   string
	prefix   string
	uploader S3Uploader
}

// NewS3 builds an uploader from the request's upload spec. Custom endpoints
// and path-style addressing support S3-compatible services (R2, MinIO).
func NewS3(ctx context.Context, spec *v1.S3UploadSpec) (*S3, error) {
	opts := []func(*config.LoadOptions) error{
		config.WithHTTPClient(cleanhttp.DefaultPooledClient()),
	}

	if spec.Region != "" {
		opts = append(opts, config.WithRegion(spec.Region))
	}

	if spec.AccessKeyID != "" && spec.SecretAccessKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(spec.AccessKeyID, spec.SecretAccessKey, ""),
		))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	var s3Opts []func(*s3.Options)
	if spec.Endpoint != "" {
		s3Opts = append(s3Opts, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(spec.Endpoint)
		})
	}
	if spec.ForcePathStyle {
		s3Opts = append(s3Opts, func(o *s3.Options) {
			o.UsePathStyle = true
		})
	}

	client := s3.NewFromConfig(awsCfg, s3Opts...)

	return &S3{
		bucket:   spec.Bucket,
		prefix:   spec.Prefix,
		uploader: manager.NewUploader(client),
	}, nil
}

// NewS3WithUploader builds an uploader around a custom S3Uploader. This is
// useful for testing.
func NewS3WithUploader(bucket, prefix string, uploader S3Uploader) *S3 {
	return &S3{bucket: bucket, prefix: prefix, uploader: uploader}
}

// Upload sends the archive at archivePath to the bucket, keyed by the
// archive's base name under the configured prefix.
func (s *S3) Upload(ctx context.Context, fsys afero.Fs, archivePath string) (err error) {
	f, err := fsys.Open(archivePath)
	if err != nil {
		return fmt.Errorf("failed to open archive %s: %w", archivePath, err)
	}
	defer func() {
		err = errors.Join(err, f.Close())
	}()

	key := path.Base(archivePath)
	if s.prefix != "" {
		key = path.Join(s.prefix, key)
	}

	input := &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
		Body:   f,
	}
	if contentType := contentTypeForArchive(key); contentType != "" {
		input.ContentType = aws.String(contentType)
	}

	if _, err := s.uploader.Upload(ctx, input); err != nil {
		return fmt.Errorf("failed to upload to s3://%s/%s: %w", s.bucket, key, err)
	}
	return nil
}

// contentTypeForArchive returns the Content-Type for an archive key based on
// its suffix.
func contentTypeForArchive(key string) string {
	lower := strings.ToLower(key)
	switch {
	case strings.HasSuffix(lower, ".tar.gz"), strings.HasSuffix(lower, ".tgz"):
		return "application/gzip"
	case strings.HasSuffix(lower, ".tar.bz2"), strings.HasSuffix(lower, ".tbz2"), strings.HasSuffix(lower, ".tbz"):
		return "application/x-bzip2"
	case strings.HasSuffix(lower, ".zip"):
		return "application/zip"
	case strings.HasSuffix(lower, ".tar"):
		return "application/x-tar"
	default:
		return "application/octet-stream"
	}
}
