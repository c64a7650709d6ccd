package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// InvoiceStatus is the ledger state machine. DRAFT is initial, PAID and VOID are terminal.
type InvoiceStatus string

const (
	InvoiceStatusDraft         InvoiceStatus = "DRAFT"
	InvoiceStatusIssued        InvoiceStatus = "ISSUED"
	InvoiceStatusPartiallyPaid InvoiceStatus = "PARTIALLY_PAID"
	InvoiceStatusPaid          InvoiceStatus = "PAID"
	InvoiceStatusVoid          InvoiceStatus = "VOID"
)

// InvoiceItemCategory classifies a charge line
type InvoiceItemCategory string

const (
	ItemCategoryConsultation InvoiceItemCategory = "CONSULTATION"
	ItemCategoryEmergency    InvoiceItemCategory = "EMERGENCY"
	ItemCategoryLab          InvoiceItemCategory = "LAB"
	ItemCategoryImaging      InvoiceItemCategory = "IMAGING"
	ItemCategoryMedicine     InvoiceItemCategory = "MEDICINE"
	ItemCategoryProcedure    InvoiceItemCategory = "PROCEDURE"
	ItemCategoryOther        InvoiceItemCategory = "OTHER"
)

// PaymentMethod is how a payment was tendered
type PaymentMethod string

const (
	PaymentMethodCash         PaymentMethod = "CASH"
	PaymentMethodCard         PaymentMethod = "CARD"
	PaymentMethodBankTransfer PaymentMethod = "BANK_TRANSFER"
	PaymentMethodMobileWallet PaymentMethod = "MOBILE_WALLET"
	PaymentMethodOther        PaymentMethod = "OTHER"
)

// Invoice is the billing ledger of a single visit.
// Subtotal and PaidTotal are recomputed from Items and Payments by Recalculate;
// Total, BalanceDue and OverpaidAmount are always derived.
type Invoice struct {
	ID        uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	VisitID   uuid.UUID       `gorm:"type:uuid;not null;index" json:"visit_id"`
	Status    InvoiceStatus   `gorm:"type:varchar(20);not null;default:'DRAFT';index" json:"status"`
	Subtotal  decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"subtotal"`
	Discount  decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"discount"`
	Tax       decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"tax"`
	PaidTotal decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"paid_total"`
	IssuedAt  *time.Time      `json:"issued_at,omitempty"`
	VoidedAt  *time.Time      `json:"voided_at,omitempty"`
	CreatedAt time.Time       `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time       `gorm:"not null" json:"updated_at"`

	// Relationships
	Items    []InvoiceItem        `gorm:"foreignKey:InvoiceID" json:"items,omitempty"`
	Payments []PaymentTransaction `gorm:"foreignKey:InvoiceID" json:"payments,omitempty"`
	Receipt  *Receipt             `gorm:"foreignKey:InvoiceID" json:"receipt,omitempty"`
	Visit    *Visit               `gorm:"foreignKey:VisitID" json:"visit,omitempty"`
}

func (Invoice) TableName() string {
	return "invoices"
}

// Total returns subtotal - discount + tax
func (i *Invoice) Total() decimal.Decimal {
	return i.Subtotal.Sub(i.Discount).Add(i.Tax)
}

// BalanceDue returns what is still owed, never negative
func (i *Invoice) BalanceDue() decimal.Decimal {
	due := i.Total().Sub(i.PaidTotal)
	if due.IsNegative() {
		return decimal.Zero
	}
	return due
}

// OverpaidAmount returns how much was paid beyond the total
func (i *Invoice) OverpaidAmount() decimal.Decimal {
	over := i.PaidTotal.Sub(i.Total())
	if over.IsNegative() {
		return decimal.Zero
	}
	return over
}

// IsVoid checks if the invoice was voided
func (i *Invoice) IsVoid() bool {
	return i.Status == InvoiceStatusVoid
}

// IsPaid checks if the invoice is settled
func (i *Invoice) IsPaid() bool {
	return i.Status == InvoiceStatusPaid
}

// Recalculate recomputes Subtotal and PaidTotal from the owned items and
// payments, then re-derives the payment status. Without a payment the
// status stays DRAFT or ISSUED, even at a zero total, so the invoice keeps
// accepting charges.
func (i *Invoice) Recalculate() {
	subtotal := decimal.Zero
	for _, item := range i.Items {
		subtotal = subtotal.Add(item.LineTotal)
	}
	paid := decimal.Zero
	for _, p := range i.Payments {
		paid = paid.Add(p.Amount)
	}
	i.Subtotal = subtotal
	i.PaidTotal = paid

	if i.Status == InvoiceStatusVoid || !i.PaidTotal.IsPositive() {
		return
	}
	if i.PaidTotal.GreaterThanOrEqual(i.Total()) {
		i.Status = InvoiceStatusPaid
	} else {
		i.Status = InvoiceStatusPartiallyPaid
	}
}

// InvoiceItem is an immutable charge line
type InvoiceItem struct {
	ID          uuid.UUID           `gorm:"type:uuid;primaryKey" json:"id"`
	InvoiceID   uuid.UUID           `gorm:"type:uuid;not null;index" json:"invoice_id"`
	Description string              `gorm:"type:varchar(255);not null" json:"description"`
	Category    InvoiceItemCategory `gorm:"type:varchar(20);not null" json:"category"`
	Quantity    int                 `gorm:"not null" json:"quantity"`
	UnitPrice   decimal.Decimal     `gorm:"type:decimal(12,2);not null" json:"unit_price"`
	LineTotal   decimal.Decimal     `gorm:"type:decimal(12,2);not null" json:"line_total"`
	CreatedAt   time.Time           `gorm:"not null" json:"created_at"`
}

func (InvoiceItem) TableName() string {
	return "invoice_items"
}

// NewInvoiceItem builds a line with lineTotal = quantity x unitPrice
func NewInvoiceItem(invoiceID uuid.UUID, description string, category InvoiceItemCategory, quantity int, unitPrice decimal.Decimal, at time.Time) InvoiceItem {
	return InvoiceItem{
		ID:          uuid.New(),
		InvoiceID:   invoiceID,
		Description: description,
		Category:    category,
		Quantity:    quantity,
		UnitPrice:   unitPrice,
		LineTotal:   unitPrice.Mul(decimal.NewFromInt(int64(quantity))),
		CreatedAt:   at,
	}
}

// PaymentTransaction is an append-only payment against an invoice
type PaymentTransaction struct {
	ID        uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	InvoiceID uuid.UUID       `gorm:"type:uuid;not null;index" json:"invoice_id"`
	Amount    decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"amount"`
	Method    PaymentMethod   `gorm:"type:varchar(20);not null" json:"method"`
	Reference *string         `gorm:"type:varchar(255)" json:"reference,omitempty"`
	CreatedAt time.Time       `gorm:"not null" json:"created_at"`
}

func (PaymentTransaction) TableName() string {
	return "payment_transactions"
}

// Receipt is a frozen copy of the ledger. ReceiptNumber is assigned once
// and kept; the snapshot is refreshed on every issuance.
type Receipt struct {
	ID            uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	InvoiceID     uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex" json:"invoice_id"`
	ReceiptNumber string         `gorm:"type:varchar(50);uniqueIndex;not null" json:"receipt_number"`
	Snapshot      datatypes.JSON `gorm:"type:jsonb;not null" json:"snapshot"`
	CreatedAt     time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt     time.Time      `gorm:"not null" json:"updated_at"`
}

func (Receipt) TableName() string {
	return "receipts"
}

// Valid item categories
var InvoiceItemCategories = map[InvoiceItemCategory]bool{
	ItemCategoryConsultation: true,
	ItemCategoryEmergency:    true,
	ItemCategoryLab:          true,
	ItemCategoryImaging:      true,
	ItemCategoryMedicine:     true,
	ItemCategoryProcedure:    true,
	ItemCategoryOther:        true,
}

// Valid payment methods
var PaymentMethods = map[PaymentMethod]bool{
	PaymentMethodCash:         true,
	PaymentMethodCard:         true,
	PaymentMethodBankTransfer: true,
	PaymentMethodMobileWallet: true,
	PaymentMethodOther:        true,
}
