package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"hospital-frontdesk/internal/delivery/dto"
	"hospital-frontdesk/internal/usecase"
	"hospital-frontdesk/pkg/response"
	"hospital-frontdesk/pkg/validator"

	"github.com/google/uuid"
)

type InvoiceHandler struct {
	invoiceUsecase usecase.InvoiceUsecase
	validator      *validator.CustomValidator
}

func NewInvoiceHandler(invoiceUsecase usecase.InvoiceUsecase, validator *validator.CustomValidator) *InvoiceHandler {
	return &InvoiceHandler{
		invoiceUsecase: invoiceUsecase,
		validator:      validator,
	}
}

func (h *InvoiceHandler) CreateInvoice(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateInvoiceRequest
	if !h.decode(w, r, &req) {
		return
	}

	invoice, err := h.invoiceUsecase.CreateInvoice(r.Context(), &req)
	if err != nil {
		writeInvoiceError(w, err, "Failed to create invoice")
		return
	}

	response.Success(w, http.StatusCreated, "Invoice created successfully", invoice)
}

func (h *InvoiceHandler) GetInvoice(w http.ResponseWriter, r *http.Request) {
	h.read(w, r, h.invoiceUsecase.GetInvoice, "Invoice retrieved successfully")
}

func (h *InvoiceHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	var req dto.AddInvoiceItemRequest
	h.mutate(w, r, &req, func(ctx context.Context, id uuid.UUID) (*dto.InvoiceResponse, error) {
		return h.invoiceUsecase.AddItem(ctx, id, &req)
	}, "Item added successfully")
}

func (h *InvoiceHandler) AddProcedureCharge(w http.ResponseWriter, r *http.Request) {
	var req dto.AddProcedureChargeRequest
	h.mutate(w, r, &req, func(ctx context.Context, id uuid.UUID) (*dto.InvoiceResponse, error) {
		return h.invoiceUsecase.AddProcedureCharge(ctx, id, &req)
	}, "Procedure charged successfully")
}

func (h *InvoiceHandler) RecordPayment(w http.ResponseWriter, r *http.Request) {
	var req dto.RecordPaymentRequest
	h.mutate(w, r, &req, func(ctx context.Context, id uuid.UUID) (*dto.InvoiceResponse, error) {
		return h.invoiceUsecase.RecordPayment(ctx, id, &req)
	}, "Payment recorded successfully")
}

func (h *InvoiceHandler) AdjustInvoice(w http.ResponseWriter, r *http.Request) {
	var req dto.AdjustInvoiceRequest
	h.mutate(w, r, &req, func(ctx context.Context, id uuid.UUID) (*dto.InvoiceResponse, error) {
		return h.invoiceUsecase.AdjustInvoice(ctx, id, &req)
	}, "Invoice adjusted successfully")
}

func (h *InvoiceHandler) IssueInvoice(w http.ResponseWriter, r *http.Request) {
	h.read(w, r, h.invoiceUsecase.IssueInvoice, "Invoice issued successfully")
}

func (h *InvoiceHandler) VoidInvoice(w http.ResponseWriter, r *http.Request) {
	h.read(w, r, h.invoiceUsecase.VoidInvoice, "Invoice voided successfully")
}

func (h *InvoiceHandler) GetReceipt(w http.ResponseWriter, r *http.Request) {
	invoiceID, ok := pathUUID(r, "id")
	if !ok {
		response.BadRequest(w, "Invalid invoice ID")
		return
	}

	receipt, err := h.invoiceUsecase.IssueReceipt(r.Context(), invoiceID)
	if err != nil {
		writeInvoiceError(w, err, "Failed to issue receipt")
		return
	}

	response.Success(w, http.StatusOK, "Receipt issued successfully", receipt)
}

// read handles the invoice operations that take no body
func (h *InvoiceHandler) read(
	w http.ResponseWriter,
	r *http.Request,
	apply func(ctx context.Context, invoiceID uuid.UUID) (*dto.InvoiceResponse, error),
	message string,
) {
	invoiceID, ok := pathUUID(r, "id")
	if !ok {
		response.BadRequest(w, "Invalid invoice ID")
		return
	}

	invoice, err := apply(r.Context(), invoiceID)
	if err != nil {
		writeInvoiceError(w, err, "Failed to process invoice")
		return
	}

	response.Success(w, http.StatusOK, message, invoice)
}

func (h *InvoiceHandler) mutate(
	w http.ResponseWriter,
	r *http.Request,
	req interface{},
	apply func(ctx context.Context, invoiceID uuid.UUID) (*dto.InvoiceResponse, error),
	message string,
) {
	invoiceID, ok := pathUUID(r, "id")
	if !ok {
		response.BadRequest(w, "Invalid invoice ID")
		return
	}

	if !h.decode(w, r, req) {
		return
	}

	invoice, err := apply(r.Context(), invoiceID)
	if err != nil {
		writeInvoiceError(w, err, "Failed to update invoice")
		return
	}

	response.Success(w, http.StatusOK, message, invoice)
}

func (h *InvoiceHandler) decode(w http.ResponseWriter, r *http.Request, req interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body", nil)
		return false
	}

	if err := h.validator.Validate(req); err != nil {
		response.ValidationError(w, h.validator.FormatValidationErrors(err))
		return false
	}
	return true
}

func writeInvoiceError(w http.ResponseWriter, err error, message string) {
	switch {
	case errors.Is(err, usecase.ErrInvoiceNotFound):
		response.NotFound(w, "Invoice not found")
	case errors.Is(err, usecase.ErrVisitNotFound):
		response.NotFound(w, "Visit not found")
	case errors.Is(err, usecase.ErrProcedureOrderNotFound), errors.Is(err, usecase.ErrProcedureNotFound):
		response.NotFound(w, "Procedure order not found")
	case errors.Is(err, usecase.ErrInvoiceAlreadyExists):
		response.Conflict(w, "Visit already has an active invoice")
	case errors.Is(err, usecase.ErrInvoiceVoided):
		response.Conflict(w, "Invoice is void")
	case errors.Is(err, usecase.ErrInvoiceClosed):
		response.Conflict(w, "Invoice is already fully paid")
	case errors.Is(err, usecase.ErrAlreadyIssued):
		response.Conflict(w, "Invoice is already issued")
	case errors.Is(err, usecase.ErrCannotVoidPaidInvoice):
		response.Conflict(w, "Cannot void a paid invoice")
	case errors.Is(err, usecase.ErrInvalidTransition):
		response.Conflict(w, "Visit status does not allow an invoice")
	case errors.Is(err, usecase.ErrInvalidItem):
		response.UnprocessableEntity(w, "Invalid item: quantity must be positive and unit price non-negative")
	case errors.Is(err, usecase.ErrInvalidPayment):
		response.UnprocessableEntity(w, "Invalid payment: amount must be positive")
	case errors.Is(err, usecase.ErrInvalidAdjustment):
		response.UnprocessableEntity(w, "Invalid adjustment: total cannot be negative")
	case errors.Is(err, usecase.ErrProcedureOrderMismatch):
		response.UnprocessableEntity(w, "Procedure order belongs to another visit")
	default:
		serverError(w, err, message)
	}
}
