// Package storage archives issued receipts to S3-compatible object storage.
package storage

import (
	"bytes"
	"context"
	"fmt"

	"hospital-frontdesk/config"
	"hospital-frontdesk/internal/domain/entity"

	"github.com/aws/aws-sdk-go-v2/aws"
	awscfg "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3ReceiptArchiver writes each receipt snapshot as receipts/{YYYY}/{MM}/{number}.json.
// Re-issuing a receipt overwrites the object with the refreshed snapshot.
type S3ReceiptArchiver struct {
	client *s3.Client
	bucket string
}

func NewS3ReceiptArchiver(ctx context.Context, cfg config.ReceiptConfig) (*S3ReceiptArchiver, error) {
	if cfg.ArchiveBucket == "" {
		return nil, fmt.Errorf("s3: bucket name is required")
	}

	opts := []func(*awscfg.LoadOptions) error{awscfg.WithRegion(cfg.Region)}
	if cfg.AccessKeyID != "" {
		opts = append(opts, awscfg.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := awscfg.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("s3: load config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	return &S3ReceiptArchiver{client: client, bucket: cfg.ArchiveBucket}, nil
}

func (a *S3ReceiptArchiver) Archive(ctx context.Context, receipt *entity.Receipt) error {
	key := ObjectKey(receipt)
	_, err := a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(receipt.Snapshot),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("s3 upload %q: %w", key, err)
	}
	return nil
}

// ObjectKey returns the archive key of a receipt
func ObjectKey(receipt *entity.Receipt) string {
	return fmt.Sprintf("receipts/%s/%s.json", receipt.CreatedAt.UTC().Format("2006/01"), receipt.ReceiptNumber)
}
