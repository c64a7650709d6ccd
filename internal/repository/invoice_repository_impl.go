package repository

import (
	"context"
	"errors"

	"hospital-frontdesk/internal/domain/entity"
	domainRepo "hospital-frontdesk/internal/domain/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type invoiceRepository struct {
	db *gorm.DB
}

func NewInvoiceRepository(db *gorm.DB) domainRepo.InvoiceRepository {
	return &invoiceRepository{db: db}
}

func (r *invoiceRepository) Create(ctx context.Context, invoice *entity.Invoice) error {
	return translateError(conn(ctx, r.db).Omit("Payments", "Receipt", "Visit").Create(invoice).Error)
}

func (r *invoiceRepository) Update(ctx context.Context, invoice *entity.Invoice) error {
	return conn(ctx, r.db).Model(&entity.Invoice{}).
		Where("id = ?", invoice.ID).
		Updates(map[string]interface{}{
			"status":     invoice.Status,
			"subtotal":   invoice.Subtotal,
			"discount":   invoice.Discount,
			"tax":        invoice.Tax,
			"paid_total": invoice.PaidTotal,
			"issued_at":  invoice.IssuedAt,
			"voided_at":  invoice.VoidedAt,
			"updated_at": invoice.UpdatedAt,
		}).Error
}

func (r *invoiceRepository) AddItem(ctx context.Context, item *entity.InvoiceItem) error {
	return conn(ctx, r.db).Create(item).Error
}

func (r *invoiceRepository) AddPayment(ctx context.Context, payment *entity.PaymentTransaction) error {
	return conn(ctx, r.db).Create(payment).Error
}

func (r *invoiceRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Invoice, error) {
	return r.find(conn(ctx, r.db), id)
}

func (r *invoiceRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*entity.Invoice, error) {
	return r.find(conn(ctx, r.db).Clauses(clause.Locking{Strength: "UPDATE"}), id)
}

func (r *invoiceRepository) FindActiveByVisitID(ctx context.Context, visitID uuid.UUID) (*entity.Invoice, error) {
	var invoice entity.Invoice
	err := r.preload(conn(ctx, r.db)).
		Where("visit_id = ? AND status != ?", visitID, entity.InvoiceStatusVoid).
		First(&invoice).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &invoice, nil
}

func (r *invoiceRepository) find(db *gorm.DB, id uuid.UUID) (*entity.Invoice, error) {
	var invoice entity.Invoice
	err := r.preload(db).Where("id = ?", id).First(&invoice).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &invoice, nil
}

func (r *invoiceRepository) preload(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC") }).
		Preload("Payments", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC") }).
		Preload("Receipt")
}
