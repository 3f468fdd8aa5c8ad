// Package s3store keeps diary image attachments in an S3-compatible bucket.
package s3store

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/google/uuid"

	"github.com/ericfisherdev/mydiary/internal/adapter/driven/localfs"
	"github.com/ericfisherdev/mydiary/internal/domain/model"
	"github.com/ericfisherdev/mydiary/internal/domain/port/driven"
)

const refScheme = "s3://"

var _ driven.AttachmentStore = (*Store)(nil)

// Config selects the bucket and how to reach it. Endpoint is only needed for
// non-AWS services such as MinIO.
type Config struct {
	Region    string
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
}

// objectAPI is the subset of *s3.Client the store calls.
type objectAPI interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// Store implements driven.AttachmentStore. Refs have the form
// s3://<bucket>/images/<yyyy>/<mm>/<uuid><ext>.
type Store struct {
	client objectAPI
	bucket string
	now    func() time.Time
}

// New builds an S3 client from cfg. Static credentials are used when both
// keys are set; otherwise the default AWS credential chain applies.
func New(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("s3 bucket is required")
	}

	opts := []func(*config.LoadOptions) error{config.WithRegion(cfg.Region)}
	if cfg.AccessKey != "" && cfg.SecretKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	return newStore(client, cfg.Bucket), nil
}

func newStore(client objectAPI, bucket string) *Store {
	return &Store{client: client, bucket: bucket, now: time.Now}
}

func (s *Store) Put(ctx context.Context, name, contentType string, r io.Reader) (string, error) {
	ext, err := localfs.ImageExtension(name, contentType)
	if err != nil {
		return "", err
	}

	// PutObject needs a seekable body to sign the payload.
	data, err := io.ReadAll(r)
	if err != nil {
		return "", &model.StorageError{Op: "read upload", Err: err}
	}

	now := s.now()
	key := fmt.Sprintf("images/%04d/%02d/%s%s", now.Year(), int(now.Month()), uuid.NewString(), ext)

	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(int64(len(data))),
	})
	if err != nil {
		return "", &model.StorageError{Op: "put object " + key, Err: err}
	}

	return refScheme + s.bucket + "/" + key, nil
}

func (s *Store) Open(ctx context.Context, ref string) (io.ReadCloser, error) {
	key, ok := s.key(ref)
	if !ok {
		return nil, driven.ErrAttachmentNotFound
	}

	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var noKey *types.NoSuchKey
		if errors.As(err, &noKey) {
			return nil, driven.ErrAttachmentNotFound
		}
		return nil, &model.StorageError{Op: "get object " + key, Err: err}
	}
	return out.Body, nil
}

// Local downloads the object into a temp file. cleanup removes it.
func (s *Store) Local(ctx context.Context, ref string) (string, func(), error) {
	body, err := s.Open(ctx, ref)
	if err != nil {
		return "", nil, err
	}
	defer body.Close()

	tmp, err := os.CreateTemp("", "mydiary-*"+path.Ext(ref))
	if err != nil {
		return "", nil, fmt.Errorf("create temp image: %w", err)
	}
	cleanup := func() { _ = os.Remove(tmp.Name()) }

	if _, err := io.Copy(tmp, body); err != nil {
		_ = tmp.Close()
		cleanup()
		return "", nil, fmt.Errorf("download image: %w", err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return "", nil, fmt.Errorf("close temp image: %w", err)
	}
	return tmp.Name(), cleanup, nil
}

// Delete removes the object. S3 reports success for missing keys.
func (s *Store) Delete(ctx context.Context, ref string) error {
	key, ok := s.key(ref)
	if !ok {
		return driven.ErrAttachmentNotFound
	}
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return &model.StorageError{Op: "delete object " + key, Err: err}
	}
	return nil
}

func (s *Store) Owns(ref string) bool {
	_, ok := s.key(ref)
	return ok
}

// key extracts the object key from a ref in this store's bucket.
func (s *Store) key(ref string) (string, bool) {
	rest, ok := strings.CutPrefix(ref, refScheme+s.bucket+"/")
	if !ok || rest == "" || strings.Contains(rest, "..") {
		return "", false
	}
	return rest, true
}
