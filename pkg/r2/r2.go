// Package r2 implements kv.Store for Cloudflare R2.
package r2

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"swa/pkg/kv"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	smithyhttp "github.com/aws/smithy-go/transport/http"
)

const contentType = "application/json"

// Config holds R2 connection details.
type Config struct {
	AccountID        string
	AccessKey        string
	SecretAccessKey  string
	Bucket           string
	Region           string
	EndpointOverride string
	// Prefix is prepended to every key, e.g. "swa/".
	Prefix string
}

// Storage implements kv.Store for Cloudflare R2. Each key is one object.
type Storage struct {
	client *s3.Client
	bucket string
	prefix string
}

// Init bootstraps the R2 client using static credentials.
func (s *Storage) Init(ctx context.Context, param any) error {
	cfg, ok := param.(Config)
	if !ok {
		if p, ok := param.(*Config); ok && p != nil {
			cfg = *p
		} else {
			return fmt.Errorf("r2: unexpected config type %T", param)
		}
	}

	if cfg.AccountID == "" && cfg.EndpointOverride == "" {
		return errors.New("r2: AccountID or EndpointOverride required")
	}
	if cfg.AccessKey == "" || cfg.SecretAccessKey == "" || cfg.Bucket == "" {
		return errors.New("r2: AccessKey, SecretAccessKey, and Bucket are required")
	}
	if cfg.Region == "" {
		cfg.Region = "auto"
	}

	awsCfg, err := config.LoadDefaultConfig(ctx,
		config.WithRegion(cfg.Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretAccessKey, "")),
	)
	if err != nil {
		return fmt.Errorf("r2: load config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		base := cfg.EndpointOverride
		if base == "" {
			base = fmt.Sprintf("https://%s.r2.cloudflarestorage.com", cfg.AccountID)
		}
		o.BaseEndpoint = aws.String(base)
		o.UsePathStyle = cfg.EndpointOverride != ""
	})

	s.client = client
	s.bucket = cfg.Bucket
	s.prefix = cfg.Prefix
	return nil
}

// Close cleans up resources; no-op for R2.
func (s *Storage) Close(_ context.Context) error {
	return nil
}

// Get downloads the object stored under key.
func (s *Storage) Get(ctx context.Context, key string) ([]byte, error) {
	if err := s.ensureClient(); err != nil {
		return nil, err
	}

	resp, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.objectKey(key)),
	})
	if err != nil {
		return nil, mapError(err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("r2: read object: %w", err)
	}
	return data, nil
}

// Set uploads value as the object for key, replacing any previous one.
func (s *Storage) Set(ctx context.Context, key string, value []byte) error {
	if err := s.ensureClient(); err != nil {
		return err
	}
	if key == "" {
		return kv.ErrEmptyKey
	}

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(s.objectKey(key)),
		Body:          bytes.NewReader(value),
		ContentLength: aws.Int64(int64(len(value))),
		ContentType:   aws.String(contentType),
	})
	return mapError(err)
}

// Delete removes an object. S3 deletes are idempotent, so existence is
// checked first to report kv.ErrNotFound.
func (s *Storage) Delete(ctx context.Context, key string) error {
	if err := s.ensureClient(); err != nil {
		return err
	}

	if _, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.objectKey(key)),
	}); err != nil {
		return mapError(err)
	}

	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.objectKey(key)),
	})
	return mapError(err)
}

// Keys lists object keys under prefix.
func (s *Storage) Keys(ctx context.Context, prefix string) ([]string, error) {
	if err := s.ensureClient(); err != nil {
		return nil, err
	}

	var keys []string
	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(s.objectKey(prefix)),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, mapError(err)
		}
		for _, obj := range page.Contents {
			keys = append(keys, strings.TrimPrefix(aws.ToString(obj.Key), s.prefix))
		}
	}
	return keys, nil
}

func (s *Storage) objectKey(key string) string {
	return s.prefix + key
}

func (s *Storage) ensureClient() error {
	if s.client == nil {
		return errors.New("r2: client not initialized")
	}
	return nil
}

func mapError(err error) error {
	if err == nil {
		return nil
	}

	var nsk *types.NoSuchKey
	if errors.As(err, &nsk) {
		return kv.ErrNotFound
	}
	var nf *types.NotFound
	if errors.As(err, &nf) {
		return kv.ErrNotFound
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch strings.ToLower(apiErr.ErrorCode()) {
		case "nosuchkey", "notfound", "404":
			return kv.ErrNotFound
		}
	}

	var respErr *smithyhttp.ResponseError
	if errors.As(err, &respErr) && respErr.HTTPStatusCode() == http.StatusNotFound {
		return kv.ErrNotFound
	}

	return fmt.Errorf("r2: %w", err)
}

// Ensure Storage implements Store interface.
var _ kv.Store = (*Storage)(nil)
