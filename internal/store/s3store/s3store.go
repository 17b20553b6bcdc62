// Package s3store implements record storage on an S3-compatible object
// store, one object per record under the "records/" prefix.
package s3store

import (
	"context"
	"errors"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/chaiyot-k/textpaste/internal/apperr"
)

const (
	backend     = "s3"
	keyPrefix   = "records/"
	contentType = "text/plain; charset=utf-8"
)

// Config holds the connection settings for the S3 backend. Endpoint is
// optional and overrides the AWS default, which allows minio and other
// S3-compatible deployments.
type Config struct {
	Endpoint  string
	Region    string
	Bucket    string
	AccessKey string
	SecretKey string
}

// api is the subset of the S3 client used by the store.
type api interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	HeadObject(ctx context.Context, in *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
	ListObjectsV2(ctx context.Context, in *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
	HeadBucket(ctx context.Context, in *s3.HeadBucketInput, optFns ...func(*s3.Options)) (*s3.HeadBucketOutput, error)
}

// Store is an S3-backed record store.
type Store struct {
	client api
	bucket string
}

// New builds the S3 client from the given config and returns the store.
func New(ctx context.Context, cfg Config) (*Store, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKey,
			cfg.SecretKey,
			"",
		)))
	if err != nil {
		return nil, apperr.NewStorageError(backend, "init", "", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	return &Store{client: client, bucket: cfg.Bucket}, nil
}

// newWithClient is used by tests to inject a fake client.
func newWithClient(client api, bucket string) *Store {
	return &Store{client: client, bucket: bucket}
}

func (s *Store) Put(ctx context.Context, id, content string) error {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(keyPrefix + id),
		Body:        strings.NewReader(content),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return apperr.NewStorageError(backend, "put", id, err)
	}
	return nil
}

func (s *Store) List(ctx context.Context) ([]string, error) {
	var ids []string
	var continuation *string
	for {
		out, err := s.client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
			Bucket:            aws.String(s.bucket),
			Prefix:            aws.String(keyPrefix),
			ContinuationToken: continuation,
		})
		if err != nil {
			return nil, apperr.NewStorageError(backend, "list", "", err)
		}
		for _, obj := range out.Contents {
			ids = append(ids, strings.TrimPrefix(aws.ToString(obj.Key), keyPrefix))
		}
		if !aws.ToBool(out.IsTruncated) {
			break
		}
		continuation = out.NextContinuationToken
	}
	return ids, nil
}

func (s *Store) Get(ctx context.Context, id string) (string, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(keyPrefix + id),
	})
	if err != nil {
		var noKey *types.NoSuchKey
		if errors.As(err, &noKey) {
			return "", apperr.NewStorageError(backend, "get", id, apperr.ErrNotFound)
		}
		return "", apperr.NewStorageError(backend, "get", id, err)
	}
	defer out.Body.Close()

	b, err := io.ReadAll(out.Body)
	if err != nil {
		return "", apperr.NewStorageError(backend, "get", id, err)
	}
	return string(b), nil
}

func (s *Store) Delete(ctx context.Context, id string) error {
	// DeleteObject succeeds on missing keys, so probe first to keep the
	// not-found contract.
	_, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(keyPrefix + id),
	})
	if err != nil {
		var notFound *types.NotFound
		if errors.As(err, &notFound) {
			return apperr.NewStorageError(backend, "delete", id, apperr.ErrNotFound)
		}
		return apperr.NewStorageError(backend, "delete", id, err)
	}

	_, err = s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(keyPrefix + id),
	})
	if err != nil {
		return apperr.NewStorageError(backend, "delete", id, err)
	}
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	_, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(s.bucket),
	})
	if err != nil {
		return apperr.NewStorageError(backend, "ping", "", err)
	}
	return nil
}
