package utils

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"microloan/config"
)

// objectAPI is the subset of the S3 client used for loan images.
type objectAPI interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// R2ImageStore uploads loan images to a Cloudflare R2 bucket.
type R2ImageStore struct {
	client     objectAPI
	bucket     string
	publicBase string
}

func r2Endpoint(accountID string) string {
	return fmt.Sprintf("https://%s.r2.cloudflarestorage.com", accountID)
}

// NewR2ImageStore builds an S3 client pointed at the account's R2 endpoint.
func NewR2ImageStore(ctx context.Context, cfg config.R2Config) (*R2ImageStore, error) {
	if !cfg.Enabled() {
		return nil, errors.New("missing required R2 settings")
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion("auto"),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKeyID,
			cfg.SecretAccessKey,
			"",
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("load R2 config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(r2Endpoint(cfg.AccountID))
	})
	return newR2ImageStore(client, cfg.Bucket, cfg.PublicURL), nil
}

func newR2ImageStore(client objectAPI, bucket, publicBase string) *R2ImageStore {
	return &R2ImageStore{
		client:     client,
		bucket:     bucket,
		publicBase: strings.TrimRight(publicBase, "/"),
	}
}

// Upload stores body under key and returns its public URL.
func (s *R2ImageStore) Upload(ctx context.Context, key, contentType string, body []byte) (string, error) {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("upload to R2: %w", err)
	}
	return s.PublicURL(key), nil
}

// Delete removes the object behind a URL previously returned by Upload.
// URLs outside the bucket's public base are left alone.
func (s *R2ImageStore) Delete(ctx context.Context, fileURL string) error {
	if !strings.HasPrefix(fileURL, s.publicBase+"/") {
		return nil
	}
	key, err := s.keyFromURL(fileURL)
	if err != nil {
		return err
	}

	_, err = s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("delete R2 object: %w", err)
	}
	return nil
}

// PublicURL returns the public address of key. Each path segment is escaped.
func (s *R2ImageStore) PublicURL(key string) string {
	segments := strings.Split(key, "/")
	for i, seg := range segments {
		segments[i] = url.PathEscape(seg)
	}
	return s.publicBase + "/" + strings.Join(segments, "/")
}

func (s *R2ImageStore) keyFromURL(fileURL string) (string, error) {
	u, err := url.Parse(fileURL)
	if err != nil {
		return "", fmt.Errorf("invalid file URL: %w", err)
	}
	base, err := url.Parse(s.publicBase)
	if err != nil {
		return "", fmt.Errorf("invalid public base: %w", err)
	}
	key := strings.TrimPrefix(u.Path, strings.TrimRight(base.Path, "/")+"/")
	if key == "" {
		return "", fmt.Errorf("url %q has no object key", fileURL)
	}
	return key, nil
}
