package repository

import (
	"context"

	"hospital-frontdesk/internal/domain/entity"

	"github.com/google/uuid"
)

type InvoiceRepository interface {
	// Create inserts the invoice together with its initial items
	Create(ctx context.Context, invoice *entity.Invoice) error
	// Update writes the invoice's own columns; items and payments are append-only
	Update(ctx context.Context, invoice *entity.Invoice) error
	AddItem(ctx context.Context, item *entity.InvoiceItem) error
	AddPayment(ctx context.Context, payment *entity.PaymentTransaction) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Invoice, error)
	// FindByIDForUpdate loads the invoice and holds a row lock until the transaction ends
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*entity.Invoice, error)
	FindActiveByVisitID(ctx context.Context, visitID uuid.UUID) (*entity.Invoice, error)
}

type ReceiptRepository interface {
	Create(ctx context.Context, receipt *entity.Receipt) error
	Update(ctx context.Context, receipt *entity.Receipt) error
	FindByInvoiceID(ctx context.Context, invoiceID uuid.UUID) (*entity.Receipt, error)
}
