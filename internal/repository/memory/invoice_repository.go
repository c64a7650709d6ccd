package memory

import (
	"context"

	"hospital-frontdesk/internal/domain/entity"
	domainRepo "hospital-frontdesk/internal/domain/repository"

	"github.com/google/uuid"
)

type invoiceRepository struct{ s *Store }

func (r *invoiceRepository) Create(ctx context.Context, invoice *entity.Invoice) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, exists := r.s.invoices[invoice.ID]; exists {
		return domainRepo.ErrDuplicate
	}
	for _, inv := range r.s.invoices {
		if inv.VisitID == invoice.VisitID && !inv.IsVoid() {
			return domainRepo.ErrDuplicate
		}
	}
	r.s.invoices[invoice.ID] = stripInvoice(*invoice)
	r.s.items[invoice.ID] = append([]entity.InvoiceItem(nil), invoice.Items...)
	return nil
}

func (r *invoiceRepository) Update(ctx context.Context, invoice *entity.Invoice) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, exists := r.s.invoices[invoice.ID]; !exists {
		return nil
	}
	r.s.invoices[invoice.ID] = stripInvoice(*invoice)
	return nil
}

func (r *invoiceRepository) AddItem(ctx context.Context, item *entity.InvoiceItem) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.items[item.InvoiceID] = append(r.s.items[item.InvoiceID], *item)
	return nil
}

func (r *invoiceRepository) AddPayment(ctx context.Context, payment *entity.PaymentTransaction) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.payments[payment.InvoiceID] = append(r.s.payments[payment.InvoiceID], *payment)
	return nil
}

func (r *invoiceRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Invoice, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return r.s.loadInvoice(id), nil
}

// FindByIDForUpdate behaves like FindByID; usecases hold the per-invoice lock.
func (r *invoiceRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*entity.Invoice, error) {
	return r.FindByID(ctx, id)
}

func (r *invoiceRepository) FindActiveByVisitID(ctx context.Context, visitID uuid.UUID) (*entity.Invoice, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for id, inv := range r.s.invoices {
		if inv.VisitID == visitID && !inv.IsVoid() {
			return r.s.loadInvoice(id), nil
		}
	}
	return nil, nil
}

func stripInvoice(inv entity.Invoice) entity.Invoice {
	inv.Items = nil
	inv.Payments = nil
	inv.Receipt = nil
	inv.Visit = nil
	return inv
}

// loadInvoice assembles the aggregate from its parts; caller holds s.mu
func (s *Store) loadInvoice(id uuid.UUID) *entity.Invoice {
	inv, ok := s.invoices[id]
	if !ok {
		return nil
	}
	inv.Items = append([]entity.InvoiceItem(nil), s.items[id]...)
	inv.Payments = append([]entity.PaymentTransaction(nil), s.payments[id]...)
	if receipt, ok := s.receipts[id]; ok {
		inv.Receipt = &receipt
	}
	return &inv
}

type receiptRepository struct{ s *Store }

func (r *receiptRepository) Create(ctx context.Context, receipt *entity.Receipt) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, exists := r.s.receipts[receipt.InvoiceID]; exists {
		return domainRepo.ErrDuplicate
	}
	for _, existing := range r.s.receipts {
		if existing.ReceiptNumber == receipt.ReceiptNumber {
			return domainRepo.ErrDuplicate
		}
	}
	r.s.receipts[receipt.InvoiceID] = *receipt
	return nil
}

func (r *receiptRepository) Update(ctx context.Context, receipt *entity.Receipt) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.receipts[receipt.InvoiceID] = *receipt
	return nil
}

func (r *receiptRepository) FindByInvoiceID(ctx context.Context, invoiceID uuid.UUID) (*entity.Receipt, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	receipt, ok := r.s.receipts[invoiceID]
	if !ok {
		return nil, nil
	}
	return &receipt, nil
}
