package dto

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Request DTOs

type CreateInvoiceRequest struct {
	VisitID uuid.UUID `json:"visit_id" validate:"required"`
}

// AddInvoiceItemRequest is range checked by the ledger, which reports
// quantity <= 0 or unit_price < 0 as an invalid item.
type AddInvoiceItemRequest struct {
	Description string          `json:"description" validate:"required,max=255"`
	Category    string          `json:"category" validate:"required"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
}

type RecordPaymentRequest struct {
	Amount    decimal.Decimal `json:"amount"`
	Method    string          `json:"method" validate:"required"`
	Reference *string         `json:"reference,omitempty" validate:"omitempty,max=255"`
}

type AdjustInvoiceRequest struct {
	Discount *decimal.Decimal `json:"discount,omitempty"`
	Tax      *decimal.Decimal `json:"tax,omitempty"`
}

type AddProcedureChargeRequest struct {
	ProcedureOrderID uuid.UUID `json:"procedure_order_id" validate:"required"`
}

// Response DTOs

type InvoiceItemResponse struct {
	ID          uuid.UUID       `json:"id"`
	Description string          `json:"description"`
	Category    string          `json:"category"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	LineTotal   decimal.Decimal `json:"line_total"`
	CreatedAt   time.Time       `json:"created_at"`
}

type PaymentResponse struct {
	ID        uuid.UUID       `json:"id"`
	Amount    decimal.Decimal `json:"amount"`
	Method    string          `json:"method"`
	Reference *string         `json:"reference,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}

type InvoiceResponse struct {
	ID             uuid.UUID             `json:"id"`
	VisitID        uuid.UUID             `json:"visit_id"`
	Status         string                `json:"status"`
	Subtotal       decimal.Decimal       `json:"subtotal"`
	Discount       decimal.Decimal       `json:"discount"`
	Tax            decimal.Decimal       `json:"tax"`
	Total          decimal.Decimal       `json:"total"`
	PaidTotal      decimal.Decimal       `json:"paid_total"`
	BalanceDue     decimal.Decimal       `json:"balance_due"`
	OverpaidAmount decimal.Decimal       `json:"overpaid_amount"`
	Warning        string                `json:"warning,omitempty"`
	Items          []InvoiceItemResponse `json:"items"`
	Payments       []PaymentResponse     `json:"payments"`
	ReceiptNumber  *string               `json:"receipt_number,omitempty"`
	IssuedAt       *time.Time            `json:"issued_at,omitempty"`
	VoidedAt       *time.Time            `json:"voided_at,omitempty"`
	CreatedAt      time.Time             `json:"created_at"`
	UpdatedAt      time.Time             `json:"updated_at"`
}

// ReceiptSnapshot is the frozen ledger copy stored with a receipt
type ReceiptSnapshot struct {
	ReceiptNumber string          `json:"receipt_number"`
	GeneratedAt   time.Time       `json:"generated_at"`
	TokenNumber   int             `json:"token_number"`
	VisitDate     time.Time       `json:"visit_date"`
	Patient       *PatientSummary `json:"patient,omitempty"`
	Doctor        *DoctorResponse `json:"doctor,omitempty"`
	Invoice       InvoiceResponse `json:"invoice"`
}

type ReceiptResponse struct {
	ID            uuid.UUID       `json:"id"`
	InvoiceID     uuid.UUID       `json:"invoice_id"`
	ReceiptNumber string          `json:"receipt_number"`
	Snapshot      json.RawMessage `json:"snapshot"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}
