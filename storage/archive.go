package storage

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// Archiver keeps the raw payload of every acquisition so a listing can be
// re-normalized later without refetching.
type Archiver interface {
	Archive(ctx context.Context, listingID int64, payload []byte) error
}

// LocalArchive writes payloads under dir/<listing_id>/<timestamp>.json.
type LocalArchive struct {
	dir string
}

func NewLocalArchive(dir string) (*LocalArchive, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create archive dir: %w", err)
	}
	return &LocalArchive{dir: dir}, nil
}

func (a *LocalArchive) Archive(_ context.Context, listingID int64, payload []byte) error {
	dir := filepath.Join(a.dir, strconv.FormatInt(listingID, 10))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create archive dir for listing %d: %w", listingID, err)
	}
	name := filepath.Join(dir, archiveStamp()+".json")
	if err := os.WriteFile(name, payload, 0o644); err != nil {
		return fmt.Errorf("write archive for listing %d: %w", listingID, err)
	}
	return nil
}

// S3Config holds configuration for S3-compatible payload storage.
type S3Config struct {
	Bucket          string
	Region          string
	Endpoint        string // for DO Spaces, R2, MinIO
	AccessKeyID     string
	SecretAccessKey string
}

// S3Archive uploads payloads to an S3-compatible bucket under
// raw/<listing_id>/<timestamp>.json.
type S3Archive struct {
	client *s3.Client
	bucket string
}

func NewS3Archive(ctx context.Context, cfg S3Config) (*S3Archive, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	var client *s3.Client
	if cfg.Endpoint != "" {
		client = s3.NewFromConfig(awsCfg, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		})
	} else {
		client = s3.NewFromConfig(awsCfg)
	}

	return &S3Archive{
		client: client,
		bucket: cfg.Bucket,
	}, nil
}

func (a *S3Archive) Archive(ctx context.Context, listingID int64, payload []byte) error {
	key := fmt.Sprintf("raw/%d/%s.json", listingID, archiveStamp())
	_, err := a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(payload),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("put object %s: %w", key, err)
	}
	return nil
}

func archiveStamp() string {
	return time.Now().UTC().Format("20060102T150405")
}
