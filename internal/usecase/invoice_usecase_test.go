package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"regexp"
	"sync"
	"testing"

	"hospital-frontdesk/internal/delivery/dto"
	"hospital-frontdesk/internal/domain/entity"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func TestInvoiceLifecycle(t *testing.T) {
	f := newFixture(t, QueuePolicy{})
	ctx := context.Background()

	visit := f.createVisit(t, f.doctor, f.patients[0], false)
	invoice := f.createInvoice(t, visit.ID)

	if invoice.Status != string(entity.InvoiceStatusDraft) {
		t.Fatalf("status = %s, want DRAFT", invoice.Status)
	}
	if len(invoice.Items) != 1 || invoice.Items[0].Category != string(entity.ItemCategoryConsultation) {
		t.Fatalf("items = %+v, want one CONSULTATION line", invoice.Items)
	}
	assertDecimal(t, "subtotal", invoice.Subtotal, 500)

	if _, err := f.invoices.CreateInvoice(ctx, &dto.CreateInvoiceRequest{VisitID: visit.ID}); !errors.Is(err, ErrInvoiceAlreadyExists) {
		t.Fatalf("second CreateInvoice error = %v, want ErrInvoiceAlreadyExists", err)
	}

	invoice, err := f.invoices.AddItem(ctx, invoice.ID, &dto.AddInvoiceItemRequest{
		Description: "Blood panel", Category: "LAB", Quantity: 2, UnitPrice: dec(150),
	})
	if err != nil {
		t.Fatalf("AddItem: %v", err)
	}
	assertDecimal(t, "subtotal", invoice.Subtotal, 800)
	assertDecimal(t, "line_total", invoice.Items[1].LineTotal, 300)

	invoice, err = f.invoices.AdjustInvoice(ctx, invoice.ID, &dto.AdjustInvoiceRequest{Discount: decPtr(50), Tax: decPtr(10)})
	if err != nil {
		t.Fatalf("AdjustInvoice: %v", err)
	}
	assertDecimal(t, "total", invoice.Total, 760)
	assertDecimal(t, "balance_due", invoice.BalanceDue, 760)

	invoice, err = f.invoices.IssueInvoice(ctx, invoice.ID)
	if err != nil {
		t.Fatalf("IssueInvoice: %v", err)
	}
	if invoice.Status != string(entity.InvoiceStatusIssued) || invoice.IssuedAt == nil {
		t.Fatalf("issued invoice = %+v", invoice)
	}
	if _, err := f.invoices.IssueInvoice(ctx, invoice.ID); !errors.Is(err, ErrAlreadyIssued) {
		t.Errorf("IssueInvoice twice error = %v, want ErrAlreadyIssued", err)
	}

	invoice, err = f.invoices.RecordPayment(ctx, invoice.ID, &dto.RecordPaymentRequest{Amount: dec(300), Method: "CASH"})
	if err != nil {
		t.Fatalf("RecordPayment: %v", err)
	}
	if invoice.Status != string(entity.InvoiceStatusPartiallyPaid) {
		t.Errorf("status = %s, want PARTIALLY_PAID", invoice.Status)
	}
	assertDecimal(t, "balance_due", invoice.BalanceDue, 460)

	invoice, err = f.invoices.RecordPayment(ctx, invoice.ID, &dto.RecordPaymentRequest{Amount: dec(460), Method: "CARD"})
	if err != nil {
		t.Fatalf("RecordPayment: %v", err)
	}
	if invoice.Status != string(entity.InvoiceStatusPaid) {
		t.Errorf("status = %s, want PAID", invoice.Status)
	}
	assertDecimal(t, "paid_total", invoice.PaidTotal, 760)
	assertDecimal(t, "balance_due", invoice.BalanceDue, 0)
	if invoice.Warning != "" {
		t.Errorf("exact payment produced warning %q", invoice.Warning)
	}

	// PAID is terminal for ledger writes
	if _, err := f.invoices.AddItem(ctx, invoice.ID, &dto.AddInvoiceItemRequest{Description: "Late", Category: "OTHER", Quantity: 1, UnitPrice: dec(1)}); !errors.Is(err, ErrInvoiceClosed) {
		t.Errorf("AddItem on PAID error = %v, want ErrInvoiceClosed", err)
	}
	if _, err := f.invoices.RecordPayment(ctx, invoice.ID, &dto.RecordPaymentRequest{Amount: dec(1), Method: "CASH"}); !errors.Is(err, ErrInvoiceClosed) {
		t.Errorf("RecordPayment on PAID error = %v, want ErrInvoiceClosed", err)
	}
	if _, err := f.invoices.VoidInvoice(ctx, invoice.ID); !errors.Is(err, ErrCannotVoidPaidInvoice) {
		t.Errorf("VoidInvoice on PAID error = %v, want ErrCannotVoidPaidInvoice", err)
	}

	byVisit, err := f.invoices.GetInvoiceByVisit(ctx, visit.ID)
	if err != nil {
		t.Fatalf("GetInvoiceByVisit: %v", err)
	}
	if byVisit.ID != invoice.ID || len(byVisit.Payments) != 2 {
		t.Errorf("GetInvoiceByVisit = %+v", byVisit)
	}
}

func TestCreateInvoiceRejectsMissingOrCancelledVisit(t *testing.T) {
	f := newFixture(t, QueuePolicy{})
	ctx := context.Background()

	if _, err := f.invoices.CreateInvoice(ctx, &dto.CreateInvoiceRequest{VisitID: uuid.New()}); !errors.Is(err, ErrVisitNotFound) {
		t.Errorf("CreateInvoice(unknown visit) error = %v, want ErrVisitNotFound", err)
	}

	visit := f.createVisit(t, f.doctor, f.patients[0], false)
	if _, err := f.visits.CancelVisit(ctx, visit.ID); err != nil {
		t.Fatalf("CancelVisit: %v", err)
	}
	if _, err := f.invoices.CreateInvoice(ctx, &dto.CreateInvoiceRequest{VisitID: visit.ID}); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("CreateInvoice(cancelled visit) error = %v, want ErrInvalidTransition", err)
	}

	for name, call := range map[string]func(context.Context, uuid.UUID) (*dto.InvoiceResponse, error){
		"GetInvoice":        f.invoices.GetInvoice,
		"GetInvoiceByVisit": f.invoices.GetInvoiceByVisit,
		"IssueInvoice":      f.invoices.IssueInvoice,
		"VoidInvoice":       f.invoices.VoidInvoice,
	} {
		if _, err := call(ctx, uuid.New()); !errors.Is(err, ErrInvoiceNotFound) {
			t.Errorf("%s(unknown) error = %v, want ErrInvoiceNotFound", name, err)
		}
	}
}

func TestCreateInvoiceWithoutConsultationFee(t *testing.T) {
	f := newFixture(t, QueuePolicy{})
	free := entity.Doctor{ID: uuid.New(), Name: "Dr. Volunteer", ConsultationFee: decimal.Zero, IsActive: true}
	f.store.PutDoctor(free)

	visit := f.createVisit(t, free, f.patients[0], false)
	invoice := f.createInvoice(t, visit.ID)
	if len(invoice.Items) != 0 {
		t.Errorf("items = %d, want none for a zero fee", len(invoice.Items))
	}
	assertDecimal(t, "subtotal", invoice.Subtotal, 0)
}

func TestInvoiceInputValidation(t *testing.T) {
	f := newFixture(t, QueuePolicy{})
	ctx := context.Background()
	invoice := f.createInvoice(t, f.createVisit(t, f.doctor, f.patients[0], false).ID)

	items := []dto.AddInvoiceItemRequest{
		{Description: "", Category: "LAB", Quantity: 1, UnitPrice: dec(10)},
		{Description: "X", Category: "SURGERY", Quantity: 1, UnitPrice: dec(10)},
		{Description: "X", Category: "LAB", Quantity: 0, UnitPrice: dec(10)},
		{Description: "X", Category: "LAB", Quantity: 1, UnitPrice: dec(-1)},
		{Description: "X", Category: "LAB", Quantity: 3, UnitPrice: decimal.RequireFromString("0.333")},
	}
	for i := range items {
		if _, err := f.invoices.AddItem(ctx, invoice.ID, &items[i]); !errors.Is(err, ErrInvalidItem) {
			t.Errorf("AddItem(%+v) error = %v, want ErrInvalidItem", items[i], err)
		}
	}

	// zero priced lines are allowed
	if _, err := f.invoices.AddItem(ctx, invoice.ID, &dto.AddInvoiceItemRequest{Description: "Follow up", Category: "OTHER", Quantity: 1, UnitPrice: dec(0)}); err != nil {
		t.Errorf("AddItem(zero price): %v", err)
	}

	payments := []dto.RecordPaymentRequest{
		{Amount: dec(0), Method: "CASH"},
		{Amount: dec(-5), Method: "CASH"},
		{Amount: dec(5), Method: "CHEQUE"},
		{Amount: decimal.RequireFromString("0.004"), Method: "CASH"},
	}
	for i := range payments {
		if _, err := f.invoices.RecordPayment(ctx, invoice.ID, &payments[i]); !errors.Is(err, ErrInvalidPayment) {
			t.Errorf("RecordPayment(%+v) error = %v, want ErrInvalidPayment", payments[i], err)
		}
	}

	subCent := decimal.RequireFromString("0.005")
	adjustments := []dto.AdjustInvoiceRequest{
		{Discount: decPtr(-1)},
		{Tax: decPtr(-1)},
		{Discount: decPtr(501)},
		{Discount: &subCent},
		{Tax: &subCent},
	}
	for i := range adjustments {
		if _, err := f.invoices.AdjustInvoice(ctx, invoice.ID, &adjustments[i]); !errors.Is(err, ErrInvalidAdjustment) {
			t.Errorf("AdjustInvoice(%d) error = %v, want ErrInvalidAdjustment", i, err)
		}
	}

	// a discount equal to subtotal plus tax brings the total to exactly zero
	adjusted, err := f.invoices.AdjustInvoice(ctx, invoice.ID, &dto.AdjustInvoiceRequest{Discount: decPtr(550), Tax: decPtr(50)})
	if err != nil {
		t.Fatalf("AdjustInvoice: %v", err)
	}
	assertDecimal(t, "total", adjusted.Total, 0)

	got, _ := f.invoices.GetInvoice(ctx, invoice.ID)
	if got.Status != string(entity.InvoiceStatusDraft) || len(got.Payments) != 0 {
		t.Errorf("rejected writes changed the invoice: %+v", got)
	}
}

func TestMoneyAmountsAreStoredInCents(t *testing.T) {
	f := newFixture(t, QueuePolicy{})
	ctx := context.Background()
	invoice := f.createInvoice(t, f.createVisit(t, f.doctor, f.patients[0], false).ID)

	updated, err := f.invoices.AddItem(ctx, invoice.ID, &dto.AddInvoiceItemRequest{
		Description: "Dressing", Category: "OTHER", Quantity: 3, UnitPrice: decimal.RequireFromString("10.500"),
	})
	if err != nil {
		t.Fatalf("AddItem(10.500): %v", err)
	}
	item := updated.Items[len(updated.Items)-1]
	if !item.UnitPrice.Equal(decimal.RequireFromString("10.5")) || item.UnitPrice.Exponent() < -2 {
		t.Errorf("unit_price = %s, want 10.50", item.UnitPrice)
	}
	if !item.LineTotal.Equal(decimal.RequireFromString("31.5")) || item.LineTotal.Exponent() < -2 {
		t.Errorf("line_total = %s, want 31.50", item.LineTotal)
	}

	paid, err := f.invoices.RecordPayment(ctx, invoice.ID, &dto.RecordPaymentRequest{Amount: decimal.RequireFromString("0.010"), Method: "CASH"})
	if err != nil {
		t.Fatalf("RecordPayment(0.010): %v", err)
	}
	if !paid.PaidTotal.Equal(decimal.RequireFromString("0.01")) {
		t.Errorf("paid_total = %s, want 0.01", paid.PaidTotal)
	}
	if !paid.Total.Equal(decimal.RequireFromString("531.5")) {
		t.Errorf("total = %s, want 531.50", paid.Total)
	}
}

func TestZeroTotalInvoiceBecomesPaidOnlyWithPayment(t *testing.T) {
	f := newFixture(t, QueuePolicy{})
	ctx := context.Background()
	free := entity.Doctor{ID: uuid.New(), Name: "Dr. Volunteer", ConsultationFee: decimal.Zero, IsActive: true}
	f.store.PutDoctor(free)
	invoice := f.createInvoice(t, f.createVisit(t, free, f.patients[0], false).ID)

	issued, err := f.invoices.IssueInvoice(ctx, invoice.ID)
	if err != nil {
		t.Fatalf("IssueInvoice: %v", err)
	}
	assertDecimal(t, "total", issued.Total, 0)
	if issued.Status != string(entity.InvoiceStatusIssued) {
		t.Fatalf("zero total invoice status = %s, want ISSUED until a payment arrives", issued.Status)
	}

	// still open for charges
	charged, err := f.invoices.AddItem(ctx, invoice.ID, &dto.AddInvoiceItemRequest{Description: "Bandage", Category: "OTHER", Quantity: 1, UnitPrice: dec(20)})
	if err != nil {
		t.Fatalf("AddItem on zero total invoice: %v", err)
	}
	assertDecimal(t, "total", charged.Total, 20)

	paid, err := f.invoices.RecordPayment(ctx, invoice.ID, &dto.RecordPaymentRequest{Amount: dec(20), Method: "CASH"})
	if err != nil {
		t.Fatalf("RecordPayment: %v", err)
	}
	if paid.Status != string(entity.InvoiceStatusPaid) {
		t.Errorf("status = %s, want PAID", paid.Status)
	}
}

func TestOverpaymentIsAcceptedWithWarning(t *testing.T) {
	f := newFixture(t, QueuePolicy{})
	ctx := context.Background()
	invoice := f.createInvoice(t, f.createVisit(t, f.doctor, f.patients[0], false).ID)

	paid, err := f.invoices.RecordPayment(ctx, invoice.ID, &dto.RecordPaymentRequest{Amount: dec(600), Method: "MOBILE_WALLET"})
	if err != nil {
		t.Fatalf("RecordPayment: %v", err)
	}
	if paid.Status != string(entity.InvoiceStatusPaid) {
		t.Errorf("status = %s, want PAID", paid.Status)
	}
	assertDecimal(t, "overpaid_amount", paid.OverpaidAmount, 100)
	assertDecimal(t, "balance_due", paid.BalanceDue, 0)
	if paid.Warning == "" {
		t.Error("overpayment should carry a warning")
	}
}

func TestVoidInvoice(t *testing.T) {
	f := newFixture(t, QueuePolicy{})
	ctx := context.Background()
	visit := f.createVisit(t, f.doctor, f.patients[0], false)
	invoice := f.createInvoice(t, visit.ID)

	if _, err := f.invoices.RecordPayment(ctx, invoice.ID, &dto.RecordPaymentRequest{Amount: dec(200), Method: "CASH"}); err != nil {
		t.Fatalf("RecordPayment: %v", err)
	}

	voided, err := f.invoices.VoidInvoice(ctx, invoice.ID)
	if err != nil {
		t.Fatalf("VoidInvoice: %v", err)
	}
	if voided.Status != string(entity.InvoiceStatusVoid) || voided.VoidedAt == nil {
		t.Fatalf("voided = %+v", voided)
	}
	assertDecimal(t, "subtotal after void", voided.Subtotal, 500)
	assertDecimal(t, "paid_total after void", voided.PaidTotal, 200)

	if _, err := f.invoices.VoidInvoice(ctx, invoice.ID); !errors.Is(err, ErrInvoiceVoided) {
		t.Errorf("VoidInvoice twice error = %v, want ErrInvoiceVoided", err)
	}
	if _, err := f.invoices.RecordPayment(ctx, invoice.ID, &dto.RecordPaymentRequest{Amount: dec(1), Method: "CASH"}); !errors.Is(err, ErrInvoiceVoided) {
		t.Errorf("RecordPayment on VOID error = %v, want ErrInvoiceVoided", err)
	}
	if _, err := f.invoices.AdjustInvoice(ctx, invoice.ID, &dto.AdjustInvoiceRequest{Tax: decPtr(1)}); !errors.Is(err, ErrInvoiceVoided) {
		t.Errorf("AdjustInvoice on VOID error = %v, want ErrInvoiceVoided", err)
	}
	if _, err := f.invoices.IssueInvoice(ctx, invoice.ID); !errors.Is(err, ErrInvoiceVoided) {
		t.Errorf("IssueInvoice on VOID error = %v, want ErrInvoiceVoided", err)
	}
	if _, err := f.invoices.IssueReceipt(ctx, invoice.ID); !errors.Is(err, ErrInvoiceVoided) {
		t.Errorf("IssueReceipt on VOID error = %v, want ErrInvoiceVoided", err)
	}

	// a voided invoice frees the visit for a new one
	replacement := f.createInvoice(t, visit.ID)
	if replacement.ID == invoice.ID {
		t.Error("replacement invoice reused the voided id")
	}
	current, _ := f.invoices.GetInvoiceByVisit(ctx, visit.ID)
	if current.ID != replacement.ID {
		t.Errorf("GetInvoiceByVisit = %s, want replacement %s", current.ID, replacement.ID)
	}
}

func TestConcurrentPaymentsAreAllCounted(t *testing.T) {
	f := newFixture(t, QueuePolicy{})
	ctx := context.Background()
	invoice := f.createInvoice(t, f.createVisit(t, f.doctor, f.patients[0], false).ID)

	const n = 10
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := f.invoices.RecordPayment(ctx, invoice.ID, &dto.RecordPaymentRequest{Amount: dec(50), Method: "CASH"}); err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Errorf("RecordPayment: %v", err)
	}

	got, _ := f.invoices.GetInvoice(ctx, invoice.ID)
	if len(got.Payments) != n {
		t.Errorf("payments = %d, want %d", len(got.Payments), n)
	}
	assertDecimal(t, "paid_total", got.PaidTotal, 500)
	if got.Status != string(entity.InvoiceStatusPaid) {
		t.Errorf("status = %s, want PAID", got.Status)
	}
}

func TestAddProcedureCharge(t *testing.T) {
	f := newFixture(t, QueuePolicy{})
	ctx := context.Background()

	visit := f.createVisit(t, f.doctor, f.patients[0], false)
	other := f.createVisit(t, f.doctor, f.patients[1], false)
	invoice := f.createInvoice(t, visit.ID)

	order, err := f.orders.CreateOrder(ctx, &dto.CreateProcedureOrderRequest{VisitID: visit.ID, ProcedureID: f.procedure.ID})
	if err != nil {
		t.Fatalf("CreateOrder: %v", err)
	}
	otherOrder, err := f.orders.CreateOrder(ctx, &dto.CreateProcedureOrderRequest{VisitID: other.ID, ProcedureID: f.procedure.ID})
	if err != nil {
		t.Fatalf("CreateOrder: %v", err)
	}

	charged, err := f.invoices.AddProcedureCharge(ctx, invoice.ID, &dto.AddProcedureChargeRequest{ProcedureOrderID: order.ID})
	if err != nil {
		t.Fatalf("AddProcedureCharge: %v", err)
	}
	last := charged.Items[len(charged.Items)-1]
	if last.Category != string(entity.ItemCategoryProcedure) || last.Description != "Complete Blood Count (LAB-CBC)" {
		t.Errorf("procedure line = %+v", last)
	}
	assertDecimal(t, "subtotal", charged.Subtotal, 700)

	if _, err := f.invoices.AddProcedureCharge(ctx, invoice.ID, &dto.AddProcedureChargeRequest{ProcedureOrderID: otherOrder.ID}); !errors.Is(err, ErrProcedureOrderMismatch) {
		t.Errorf("charging another visit's order error = %v, want ErrProcedureOrderMismatch", err)
	}
	if _, err := f.invoices.AddProcedureCharge(ctx, invoice.ID, &dto.AddProcedureChargeRequest{ProcedureOrderID: uuid.New()}); !errors.Is(err, ErrProcedureOrderNotFound) {
		t.Errorf("charging unknown order error = %v, want ErrProcedureOrderNotFound", err)
	}
}

func TestIssueReceiptKeepsNumberAndRefreshesSnapshot(t *testing.T) {
	f := newFixture(t, QueuePolicy{})
	ctx := context.Background()
	visit := f.createVisit(t, f.doctor, f.patients[0], false)
	invoice := f.createInvoice(t, visit.ID)

	first, err := f.invoices.IssueReceipt(ctx, invoice.ID)
	if err != nil {
		t.Fatalf("IssueReceipt: %v", err)
	}
	if !regexp.MustCompile(`^RCPT-20240603-[0-9A-F]{6}$`).MatchString(first.ReceiptNumber) {
		t.Errorf("receipt number = %q", first.ReceiptNumber)
	}

	var snapshot dto.ReceiptSnapshot
	if err := json.Unmarshal(first.Snapshot, &snapshot); err != nil {
		t.Fatalf("decode snapshot: %v", err)
	}
	if snapshot.TokenNumber != visit.TokenNumber || snapshot.Patient == nil || snapshot.Patient.Name != f.patients[0].Name {
		t.Errorf("snapshot = %+v", snapshot)
	}
	assertDecimal(t, "snapshot subtotal", snapshot.Invoice.Subtotal, 500)

	if _, err := f.invoices.RecordPayment(ctx, invoice.ID, &dto.RecordPaymentRequest{Amount: dec(500), Method: "CASH"}); err != nil {
		t.Fatalf("RecordPayment: %v", err)
	}

	second, err := f.invoices.IssueReceipt(ctx, invoice.ID)
	if err != nil {
		t.Fatalf("IssueReceipt again: %v", err)
	}
	if second.ReceiptNumber != first.ReceiptNumber || second.ID != first.ID {
		t.Errorf("receipt identity changed: %s -> %s", first.ReceiptNumber, second.ReceiptNumber)
	}
	if err := json.Unmarshal(second.Snapshot, &snapshot); err != nil {
		t.Fatalf("decode snapshot: %v", err)
	}
	if snapshot.Invoice.Status != string(entity.InvoiceStatusPaid) {
		t.Errorf("refreshed snapshot status = %s, want PAID", snapshot.Invoice.Status)
	}

	got, _ := f.invoices.GetInvoice(ctx, invoice.ID)
	if got.ReceiptNumber == nil || *got.ReceiptNumber != first.ReceiptNumber {
		t.Errorf("invoice receipt_number = %v, want %s", got.ReceiptNumber, first.ReceiptNumber)
	}
}
