package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/google/uuid"
)

type CloudflareR2Config struct {
	AccountID       string
	AccessKeyID     string
	SecretAccessKey string
	BucketName      string
	// Endpoint overrides the account endpoint, e.g. for MinIO in development.
	Endpoint     string
	Prefix       string
	UsePathStyle bool
}

type cloudflareR2Store struct {
	s3Client   *s3.Client
	bucketName string
	prefix     string
}

// NewCloudflareR2Store keeps snapshots as objects in an R2 (or any S3
// compatible) bucket. A PutObject replaces the object atomically.
func NewCloudflareR2Store(ctx context.Context, cfg CloudflareR2Config) (SnapshotStore, error) {
	if cfg.AccessKeyID == "" || cfg.SecretAccessKey == "" || cfg.BucketName == "" {
		return nil, errors.New("invalid Cloudflare R2 configuration: access key, secret and bucket are required")
	}

	endpoint := cfg.Endpoint
	if endpoint == "" {
		if cfg.AccountID == "" {
			return nil, errors.New("invalid Cloudflare R2 configuration: account id or endpoint is required")
		}
		endpoint = fmt.Sprintf("https://%s.r2.cloudflarestorage.com", cfg.AccountID)
	}

	sdkCfg, err := config.LoadDefaultConfig(ctx,
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, "")),
		config.WithRegion("auto"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS SDK config for R2: %w", err)
	}

	client := s3.NewFromConfig(sdkCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(endpoint)
		o.UsePathStyle = cfg.UsePathStyle
	})

	return &cloudflareR2Store{
		s3Client:   client,
		bucketName: cfg.BucketName,
		prefix:     cfg.Prefix,
	}, nil
}

func (s *cloudflareR2Store) key(tournamentID uuid.UUID) string {
	return path.Join(s.prefix, snapshotName(tournamentID))
}

func (s *cloudflareR2Store) Exists(ctx context.Context, tournamentID uuid.UUID) (bool, error) {
	_, err := s.s3Client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucketName),
		Key:    aws.String(s.key(tournamentID)),
	})
	if err != nil {
		if isObjectMissing(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to head snapshot object (key: %s): %w", s.key(tournamentID), err)
	}
	return true, nil
}

func (s *cloudflareR2Store) Load(ctx context.Context, tournamentID uuid.UUID) ([]byte, error) {
	rc, err := s.Open(ctx, tournamentID)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot object (key: %s): %w", s.key(tournamentID), err)
	}
	return data, nil
}

func (s *cloudflareR2Store) Open(ctx context.Context, tournamentID uuid.UUID) (io.ReadCloser, error) {
	out, err := s.s3Client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucketName),
		Key:    aws.String(s.key(tournamentID)),
	})
	if err != nil {
		if isObjectMissing(err) {
			return nil, ErrSnapshotNotFound
		}
		return nil, fmt.Errorf("failed to get snapshot object (key: %s): %w", s.key(tournamentID), err)
	}
	return out.Body, nil
}

func (s *cloudflareR2Store) Save(ctx context.Context, tournamentID uuid.UUID, data []byte) error {
	_, err := s.s3Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucketName),
		Key:           aws.String(s.key(tournamentID)),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
		ContentType:   aws.String(SnapshotContentType),
	})
	if err != nil {
		return fmt.Errorf("failed to upload snapshot object (key: %s): %w", s.key(tournamentID), err)
	}
	return nil
}

func (s *cloudflareR2Store) Delete(ctx context.Context, tournamentID uuid.UUID) error {
	_, err := s.s3Client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucketName),
		Key:    aws.String(s.key(tournamentID)),
	})
	if err != nil {
		return fmt.Errorf("failed to delete snapshot object (key: %s): %w", s.key(tournamentID), err)
	}
	return nil
}

func (s *cloudflareR2Store) Ping(ctx context.Context) error {
	_, err := s.s3Client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(s.bucketName)})
	if err != nil {
		return fmt.Errorf("snapshot bucket %s unavailable: %w", s.bucketName, err)
	}
	return nil
}

func isObjectMissing(err error) bool {
	var noSuchKey *types.NoSuchKey
	var notFound *types.NotFound
	if errors.As(err, &noSuchKey) || errors.As(err, &notFound) {
		return true
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NoSuchKey", "NotFound":
			return true
		}
	}
	return false
}
