package storage

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// DocumentURLBuilder maps a document id to the URL the admin UI opens.
type DocumentURLBuilder interface {
	DocumentURL(documentID uint) string
}

// S3Storage resolves KYC document objects stored under <prefix>/<document_id>.
type S3Storage struct {
	client        *s3.Client
	bucket        string
	baseURL       string
	prefix        string
	presignExpiry time.Duration
}

type Options struct {
	Region          string
	Bucket          string
	AccessKeyID     string
	SecretAccessKey string
	BaseURL         string // CloudFront or custom domain, optional
	DocumentPrefix  string
	PresignExpiry   time.Duration
}

func NewS3Storage(opts Options) *S3Storage {
	var cfg aws.Config
	var err error

	if opts.AccessKeyID != "" && opts.SecretAccessKey != "" {
		cfg = aws.Config{
			Region: opts.Region,
			Credentials: credentials.NewStaticCredentialsProvider(
				opts.AccessKeyID,
				opts.SecretAccessKey,
				"",
			),
		}
	} else {
		// default credential chain (env, ~/.aws/credentials, IAM role)
		cfg, err = config.LoadDefaultConfig(context.TODO(),
			config.WithRegion(opts.Region),
		)
		if err != nil {
			cfg = aws.Config{
				Region: opts.Region,
			}
		}
	}

	prefix := strings.Trim(opts.DocumentPrefix, "/")
	if prefix == "" {
		prefix = "documents"
	}
	expiry := opts.PresignExpiry
	if expiry <= 0 {
		expiry = 15 * time.Minute
	}

	return &S3Storage{
		client:        s3.NewFromConfig(cfg),
		bucket:        opts.Bucket,
		baseURL:       strings.TrimRight(opts.BaseURL, "/"),
		prefix:        prefix,
		presignExpiry: expiry,
	}
}

// DocumentKey is the object key of a document. Deterministic in the id.
func (s *S3Storage) DocumentKey(documentID uint) string {
	return fmt.Sprintf("%s/%d", s.prefix, documentID)
}

// DocumentURL builds the public URL without calling AWS.
func (s *S3Storage) DocumentURL(documentID uint) string {
	key := s.DocumentKey(documentID)
	if s.baseURL != "" {
		return fmt.Sprintf("%s/%s", s.baseURL, key)
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.bucket, s.client.Options().Region, key)
}

// PresignDocumentURL returns a short-lived GET URL for private buckets.
func (s *S3Storage) PresignDocumentURL(ctx context.Context, documentID uint) (string, error) {
	presignClient := s3.NewPresignClient(s.client)

	req, err := presignClient.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.DocumentKey(documentID)),
	}, s3.WithPresignExpires(s.presignExpiry))
	if err != nil {
		return "", fmt.Errorf("failed to presign document %d: %w", documentID, err)
	}
	return req.URL, nil
}
