package service

import (
	"context"

	"hospital-frontdesk/internal/domain/entity"
)

// ReceiptArchiver keeps a copy of every issued receipt outside the database
type ReceiptArchiver interface {
	Archive(ctx context.Context, receipt *entity.Receipt) error
}

// NoopReceiptArchiver is used when no archive bucket is configured
type NoopReceiptArchiver struct{}

func (NoopReceiptArchiver) Archive(ctx context.Context, receipt *entity.Receipt) error {
	return nil
}
