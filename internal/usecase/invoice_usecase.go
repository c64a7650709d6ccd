package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"hospital-frontdesk/internal/converter"
	"hospital-frontdesk/internal/delivery/dto"
	"hospital-frontdesk/internal/domain/entity"
	"hospital-frontdesk/internal/domain/repository"
	"hospital-frontdesk/internal/infrastructure/metrics"
	"hospital-frontdesk/internal/service"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"
)

var (
	ErrInvoiceNotFound        = errors.New("invoice not found")
	ErrInvoiceAlreadyExists   = errors.New("visit already has an active invoice")
	ErrInvoiceVoided          = errors.New("invoice is void")
	ErrInvoiceClosed          = errors.New("invoice is fully paid")
	ErrAlreadyIssued          = errors.New("invoice is already issued")
	ErrCannotVoidPaidInvoice  = errors.New("cannot void a paid invoice")
	ErrInvalidItem            = errors.New("invalid invoice item")
	ErrInvalidPayment         = errors.New("invalid payment")
	ErrInvalidAdjustment      = errors.New("invalid invoice adjustment")
	ErrProcedureOrderMismatch = errors.New("procedure order belongs to another visit")
)

// consultationItemDescription labels the line seeded from the visit's fee
const consultationItemDescription = "Consultation fee"

// receiptNumberAttempts bounds retries on a receipt number collision
const receiptNumberAttempts = 3

type InvoiceUsecase interface {
	CreateInvoice(ctx context.Context, req *dto.CreateInvoiceRequest) (*dto.InvoiceResponse, error)
	GetInvoice(ctx context.Context, invoiceID uuid.UUID) (*dto.InvoiceResponse, error)
	GetInvoiceByVisit(ctx context.Context, visitID uuid.UUID) (*dto.InvoiceResponse, error)
	AddItem(ctx context.Context, invoiceID uuid.UUID, req *dto.AddInvoiceItemRequest) (*dto.InvoiceResponse, error)
	AddProcedureCharge(ctx context.Context, invoiceID uuid.UUID, req *dto.AddProcedureChargeRequest) (*dto.InvoiceResponse, error)
	RecordPayment(ctx context.Context, invoiceID uuid.UUID, req *dto.RecordPaymentRequest) (*dto.InvoiceResponse, error)
	AdjustInvoice(ctx context.Context, invoiceID uuid.UUID, req *dto.AdjustInvoiceRequest) (*dto.InvoiceResponse, error)
	IssueInvoice(ctx context.Context, invoiceID uuid.UUID) (*dto.InvoiceResponse, error)
	VoidInvoice(ctx context.Context, invoiceID uuid.UUID) (*dto.InvoiceResponse, error)
	IssueReceipt(ctx context.Context, invoiceID uuid.UUID) (*dto.ReceiptResponse, error)
}

type invoiceUsecase struct {
	log          *logrus.Logger
	tx           repository.Transactor
	invoiceRepo  repository.InvoiceRepository
	receiptRepo  repository.ReceiptRepository
	visitRepo    repository.VisitRepository
	orderRepo    repository.ProcedureOrderRepository
	clock        *service.BusinessClock
	invoiceLocks *service.KeyedMutex
	archiver     service.ReceiptArchiver
	metrics      *metrics.Metrics
}

func NewInvoiceUsecase(
	log *logrus.Logger,
	tx repository.Transactor,
	invoiceRepo repository.InvoiceRepository,
	receiptRepo repository.ReceiptRepository,
	visitRepo repository.VisitRepository,
	orderRepo repository.ProcedureOrderRepository,
	clock *service.BusinessClock,
	invoiceLocks *service.KeyedMutex,
	archiver service.ReceiptArchiver,
	metrics *metrics.Metrics,
) InvoiceUsecase {
	return &invoiceUsecase{
		log:          log,
		tx:           tx,
		invoiceRepo:  invoiceRepo,
		receiptRepo:  receiptRepo,
		visitRepo:    visitRepo,
		orderRepo:    orderRepo,
		clock:        clock,
		invoiceLocks: invoiceLocks,
		archiver:     archiver,
		metrics:      metrics,
	}
}

// CreateInvoice opens the ledger of a visit in DRAFT, seeded with one
// CONSULTATION line from the visit's fee snapshot when that fee is positive.
func (u *invoiceUsecase) CreateInvoice(ctx context.Context, req *dto.CreateInvoiceRequest) (*dto.InvoiceResponse, error) {
	visit, err := u.visitRepo.FindByID(ctx, req.VisitID)
	if err != nil {
		u.log.Warnf("Failed to find visit %s: %+v", req.VisitID, err)
		return nil, unavailable(err)
	}
	if visit == nil {
		return nil, ErrVisitNotFound
	}
	if visit.Status == entity.VisitStatusCancelled {
		return nil, ErrInvalidTransition
	}

	unlock := u.invoiceLocks.Lock("visit:" + visit.ID.String())
	defer unlock()

	now := u.clock.Now()
	invoice := &entity.Invoice{
		ID:        uuid.New(),
		VisitID:   visit.ID,
		Status:    entity.InvoiceStatusDraft,
		Subtotal:  decimal.Zero,
		Discount:  decimal.Zero,
		Tax:       decimal.Zero,
		PaidTotal: decimal.Zero,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if visit.ConsultationFee.IsPositive() {
		invoice.Items = append(invoice.Items, entity.NewInvoiceItem(
			invoice.ID, consultationItemDescription, entity.ItemCategoryConsultation, 1, visit.ConsultationFee, now,
		))
	}
	invoice.Recalculate()

	err = u.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		existing, err := u.invoiceRepo.FindActiveByVisitID(ctx, visit.ID)
		if err != nil {
			return unavailable(err)
		}
		if existing != nil {
			return ErrInvoiceAlreadyExists
		}

		if err := u.invoiceRepo.Create(ctx, invoice); err != nil {
			if errors.Is(err, repository.ErrDuplicate) {
				return ErrInvoiceAlreadyExists
			}
			return unavailable(err)
		}
		return nil
	})
	if err != nil {
		u.metrics.InvoiceOperation("create", "rejected")
		u.log.Warnf("Failed to create invoice for visit %s: %+v", visit.ID, err)
		return nil, txError(err)
	}

	u.metrics.InvoiceOperation("create", "ok")
	u.log.Infof("Invoice created: id=%s, visit=%s, subtotal=%s, by=%s", invoice.ID, visit.ID, invoice.Subtotal, actor(ctx))
	return converter.InvoiceToResponse(invoice), nil
}

func (u *invoiceUsecase) GetInvoice(ctx context.Context, invoiceID uuid.UUID) (*dto.InvoiceResponse, error) {
	invoice, err := u.invoiceRepo.FindByID(ctx, invoiceID)
	if err != nil {
		u.log.Warnf("Failed to find invoice %s: %+v", invoiceID, err)
		return nil, unavailable(err)
	}
	if invoice == nil {
		return nil, ErrInvoiceNotFound
	}
	return converter.InvoiceToResponse(invoice), nil
}

func (u *invoiceUsecase) GetInvoiceByVisit(ctx context.Context, visitID uuid.UUID) (*dto.InvoiceResponse, error) {
	invoice, err := u.invoiceRepo.FindActiveByVisitID(ctx, visitID)
	if err != nil {
		u.log.Warnf("Failed to find invoice for visit %s: %+v", visitID, err)
		return nil, unavailable(err)
	}
	if invoice == nil {
		return nil, ErrInvoiceNotFound
	}
	return converter.InvoiceToResponse(invoice), nil
}

// AddItem appends an immutable charge line and recomputes the totals
func (u *invoiceUsecase) AddItem(ctx context.Context, invoiceID uuid.UUID, req *dto.AddInvoiceItemRequest) (*dto.InvoiceResponse, error) {
	category := entity.InvoiceItemCategory(req.Category)
	if req.Description == "" || !entity.InvoiceItemCategories[category] || req.Quantity <= 0 || req.UnitPrice.IsNegative() || !isCents(req.UnitPrice) {
		return nil, ErrInvalidItem
	}
	unitPrice := req.UnitPrice.Round(2)

	invoice, err := u.mutate(ctx, "add_item", invoiceID, func(ctx context.Context, invoice *entity.Invoice, now time.Time) error {
		if err := ensureOpen(invoice); err != nil {
			return err
		}
		return u.appendItem(ctx, invoice, entity.NewInvoiceItem(invoice.ID, req.Description, category, req.Quantity, unitPrice, now))
	})
	if err != nil {
		return nil, err
	}

	u.log.Infof("Invoice item added: invoice=%s, category=%s, subtotal=%s, by=%s", invoiceID, category, invoice.Subtotal, actor(ctx))
	return converter.InvoiceToResponse(invoice), nil
}

// AddProcedureCharge bills a procedure order of the same visit at the
// procedure's default fee
func (u *invoiceUsecase) AddProcedureCharge(ctx context.Context, invoiceID uuid.UUID, req *dto.AddProcedureChargeRequest) (*dto.InvoiceResponse, error) {
	order, err := u.orderRepo.FindByID(ctx, req.ProcedureOrderID)
	if err != nil {
		u.log.Warnf("Failed to find procedure order %s: %+v", req.ProcedureOrderID, err)
		return nil, unavailable(err)
	}
	if order == nil {
		return nil, ErrProcedureOrderNotFound
	}
	if order.Procedure == nil {
		return nil, ErrProcedureNotFound
	}

	invoice, err := u.mutate(ctx, "add_procedure_charge", invoiceID, func(ctx context.Context, invoice *entity.Invoice, now time.Time) error {
		if err := ensureOpen(invoice); err != nil {
			return err
		}
		if order.VisitID != invoice.VisitID {
			return ErrProcedureOrderMismatch
		}
		description := fmt.Sprintf("%s (%s)", order.Procedure.Name, order.Procedure.Code)
		return u.appendItem(ctx, invoice, entity.NewInvoiceItem(invoice.ID, description, entity.ItemCategoryProcedure, 1, order.Procedure.DefaultFee, now))
	})
	if err != nil {
		return nil, err
	}

	u.log.Infof("Procedure charged: invoice=%s, order=%s, by=%s", invoiceID, order.ID, actor(ctx))
	return converter.InvoiceToResponse(invoice), nil
}

// RecordPayment appends a payment and re-derives the status. Overpayment is
// accepted but flagged on the response and logged for staff follow-up.
func (u *invoiceUsecase) RecordPayment(ctx context.Context, invoiceID uuid.UUID, req *dto.RecordPaymentRequest) (*dto.InvoiceResponse, error) {
	method := entity.PaymentMethod(req.Method)
	if !req.Amount.IsPositive() || !isCents(req.Amount) || !entity.PaymentMethods[method] {
		return nil, ErrInvalidPayment
	}
	amount := req.Amount.Round(2)

	invoice, err := u.mutate(ctx, "record_payment", invoiceID, func(ctx context.Context, invoice *entity.Invoice, now time.Time) error {
		if err := ensureOpen(invoice); err != nil {
			return err
		}

		payment := entity.PaymentTransaction{
			ID:        uuid.New(),
			InvoiceID: invoice.ID,
			Amount:    amount,
			Method:    method,
			Reference: req.Reference,
			CreatedAt: now,
		}
		if err := u.invoiceRepo.AddPayment(ctx, &payment); err != nil {
			return unavailable(err)
		}

		invoice.Payments = append(invoice.Payments, payment)
		invoice.Recalculate()
		invoice.UpdatedAt = now
		if err := u.invoiceRepo.Update(ctx, invoice); err != nil {
			return unavailable(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	u.metrics.PaymentRecorded(string(method), amount.InexactFloat64())
	response := converter.InvoiceToResponse(invoice)
	if over := invoice.OverpaidAmount(); over.IsPositive() {
		response.Warning = fmt.Sprintf("Overpayment of %s recorded; confirm with the payer", over.StringFixed(2))
		u.log.Warnf("Overpayment advisory: invoice=%s, overpaid=%s, by=%s", invoiceID, over.StringFixed(2), actor(ctx))
	}

	u.log.Infof("Payment recorded: invoice=%s, amount=%s, method=%s, status=%s, by=%s", invoiceID, amount, method, invoice.Status, actor(ctx))
	return response, nil
}

// AdjustInvoice sets discount and tax; the total may not go negative
func (u *invoiceUsecase) AdjustInvoice(ctx context.Context, invoiceID uuid.UUID, req *dto.AdjustInvoiceRequest) (*dto.InvoiceResponse, error) {
	for _, v := range []*decimal.Decimal{req.Discount, req.Tax} {
		if v != nil && (v.IsNegative() || !isCents(*v)) {
			return nil, ErrInvalidAdjustment
		}
	}

	invoice, err := u.mutate(ctx, "adjust", invoiceID, func(ctx context.Context, invoice *entity.Invoice, now time.Time) error {
		if err := ensureOpen(invoice); err != nil {
			return err
		}

		discount, tax := invoice.Discount, invoice.Tax
		if req.Discount != nil {
			discount = req.Discount.Round(2)
		}
		if req.Tax != nil {
			tax = req.Tax.Round(2)
		}
		if invoice.Subtotal.Sub(discount).Add(tax).IsNegative() {
			return ErrInvalidAdjustment
		}

		invoice.Discount = discount
		invoice.Tax = tax
		invoice.Recalculate()
		invoice.UpdatedAt = now
		if err := u.invoiceRepo.Update(ctx, invoice); err != nil {
			return unavailable(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	u.log.Infof("Invoice adjusted: invoice=%s, discount=%s, tax=%s, by=%s", invoiceID, invoice.Discount, invoice.Tax, actor(ctx))
	return converter.InvoiceToResponse(invoice), nil
}

// IssueInvoice moves a DRAFT invoice to ISSUED
func (u *invoiceUsecase) IssueInvoice(ctx context.Context, invoiceID uuid.UUID) (*dto.InvoiceResponse, error) {
	invoice, err := u.mutate(ctx, "issue", invoiceID, func(ctx context.Context, invoice *entity.Invoice, now time.Time) error {
		if invoice.IsVoid() {
			return ErrInvoiceVoided
		}
		if invoice.Status != entity.InvoiceStatusDraft {
			return ErrAlreadyIssued
		}

		invoice.Status = entity.InvoiceStatusIssued
		invoice.IssuedAt = &now
		invoice.UpdatedAt = now
		if err := u.invoiceRepo.Update(ctx, invoice); err != nil {
			return unavailable(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	u.log.Infof("Invoice issued: invoice=%s, total=%s, by=%s", invoiceID, invoice.Total(), actor(ctx))
	return converter.InvoiceToResponse(invoice), nil
}

// VoidInvoice freezes a non-PAID invoice; its totals stay as they were
func (u *invoiceUsecase) VoidInvoice(ctx context.Context, invoiceID uuid.UUID) (*dto.InvoiceResponse, error) {
	invoice, err := u.mutate(ctx, "void", invoiceID, func(ctx context.Context, invoice *entity.Invoice, now time.Time) error {
		if invoice.IsPaid() {
			return ErrCannotVoidPaidInvoice
		}
		if invoice.IsVoid() {
			return ErrInvoiceVoided
		}

		invoice.Status = entity.InvoiceStatusVoid
		invoice.VoidedAt = &now
		invoice.UpdatedAt = now
		if err := u.invoiceRepo.Update(ctx, invoice); err != nil {
			return unavailable(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	u.log.Infof("Invoice voided: invoice=%s, by=%s", invoiceID, actor(ctx))
	return converter.InvoiceToResponse(invoice), nil
}

// IssueReceipt stores a snapshot of the current ledger. The receipt number
// is assigned on first issuance and kept; the snapshot is refreshed each time.
func (u *invoiceUsecase) IssueReceipt(ctx context.Context, invoiceID uuid.UUID) (*dto.ReceiptResponse, error) {
	var receipt *entity.Receipt

	_, err := u.mutate(ctx, "issue_receipt", invoiceID, func(ctx context.Context, invoice *entity.Invoice, now time.Time) error {
		if invoice.IsVoid() {
			return ErrInvoiceVoided
		}

		visit, err := u.visitRepo.FindByID(ctx, invoice.VisitID)
		if err != nil {
			return unavailable(err)
		}

		existing, err := u.receiptRepo.FindByInvoiceID(ctx, invoice.ID)
		if err != nil {
			return unavailable(err)
		}

		if existing != nil {
			snapshot, err := buildSnapshot(existing.ReceiptNumber, now, invoice, visit)
			if err != nil {
				return err
			}
			existing.Snapshot = snapshot
			existing.UpdatedAt = now
			if err := u.receiptRepo.Update(ctx, existing); err != nil {
				return unavailable(err)
			}
			receipt = existing
			return nil
		}

		for attempt := 1; ; attempt++ {
			number := generateReceiptNumber(now)
			snapshot, err := buildSnapshot(number, now, invoice, visit)
			if err != nil {
				return err
			}
			candidate := &entity.Receipt{
				ID:            uuid.New(),
				InvoiceID:     invoice.ID,
				ReceiptNumber: number,
				Snapshot:      snapshot,
				CreatedAt:     now,
				UpdatedAt:     now,
			}
			err = u.receiptRepo.Create(ctx, candidate)
			if err == nil {
				receipt = candidate
				return nil
			}
			if !errors.Is(err, repository.ErrDuplicate) || attempt == receiptNumberAttempts {
				return unavailable(err)
			}
		}
	})
	if err != nil {
		return nil, err
	}

	if err := u.archiver.Archive(ctx, receipt); err != nil {
		u.log.Warnf("Failed to archive receipt %s: %+v", receipt.ReceiptNumber, err)
	}

	u.log.Infof("Receipt issued: invoice=%s, number=%s, by=%s", invoiceID, receipt.ReceiptNumber, actor(ctx))
	return converter.ReceiptToResponse(receipt), nil
}

// mutate loads the invoice with a row lock while holding the per-invoice
// mutex and runs apply in one transaction, so concurrent ledger writes on
// the same invoice always see each other's totals.
func (u *invoiceUsecase) mutate(
	ctx context.Context,
	operation string,
	invoiceID uuid.UUID,
	apply func(ctx context.Context, invoice *entity.Invoice, now time.Time) error,
) (*entity.Invoice, error) {
	unlock := u.invoiceLocks.Lock(invoiceID.String())
	defer unlock()

	var invoice *entity.Invoice
	err := u.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		inv, err := u.invoiceRepo.FindByIDForUpdate(ctx, invoiceID)
		if err != nil {
			return unavailable(err)
		}
		if inv == nil {
			return ErrInvoiceNotFound
		}
		if err := apply(ctx, inv, u.clock.Now()); err != nil {
			return err
		}
		invoice = inv
		return nil
	})
	if err != nil {
		u.metrics.InvoiceOperation(operation, "rejected")
		if errors.Is(err, ErrUnavailable) || errors.Is(err, repository.ErrTransaction) {
			u.log.Warnf("Failed invoice %s on %s: %+v", operation, invoiceID, err)
		}
		return nil, txError(err)
	}

	u.metrics.InvoiceOperation(operation, "ok")
	return invoice, nil
}

func (u *invoiceUsecase) appendItem(ctx context.Context, invoice *entity.Invoice, item entity.InvoiceItem) error {
	if err := u.invoiceRepo.AddItem(ctx, &item); err != nil {
		return unavailable(err)
	}

	invoice.Items = append(invoice.Items, item)
	invoice.Recalculate()
	invoice.UpdatedAt = item.CreatedAt
	if err := u.invoiceRepo.Update(ctx, invoice); err != nil {
		return unavailable(err)
	}
	return nil
}

// ensureOpen rejects writes to VOID and PAID invoices
func ensureOpen(invoice *entity.Invoice) error {
	if invoice.IsVoid() {
		return ErrInvoiceVoided
	}
	if invoice.IsPaid() {
		return ErrInvoiceClosed
	}
	return nil
}

func buildSnapshot(number string, at time.Time, invoice *entity.Invoice, visit *entity.Visit) (datatypes.JSON, error) {
	snapshot := dto.ReceiptSnapshot{
		ReceiptNumber: number,
		GeneratedAt:   at,
		Invoice:       *converter.InvoiceToResponse(invoice),
	}
	snapshot.Invoice.ReceiptNumber = &number
	if visit != nil {
		snapshot.TokenNumber = visit.TokenNumber
		snapshot.VisitDate = visit.VisitDate
		snapshot.Patient = converter.PatientToSummary(visit.Patient)
		snapshot.Doctor = converter.DoctorToResponse(visit.Doctor)
	}

	data, err := json.Marshal(snapshot)
	if err != nil {
		return nil, fmt.Errorf("marshal receipt snapshot: %w", err)
	}
	return datatypes.JSON(data), nil
}

// isCents reports whether d fits the ledger's two decimal places. Trailing
// zeros ("10.500") are fine; sub-cent amounts are not.
func isCents(d decimal.Decimal) bool {
	return d.Equal(d.Round(2))
}

// generateReceiptNumber generates a receipt number: RCPT-YYYYMMDD-XXXXXX
func generateReceiptNumber(at time.Time) string {
	id := uuid.New()
	return fmt.Sprintf("RCPT-%s-%X", at.Format("20060102"), id[:3])
}
