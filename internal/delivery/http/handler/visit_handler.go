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

type VisitHandler struct {
	visitUsecase   usecase.VisitQueueUsecase
	invoiceUsecase usecase.InvoiceUsecase
	validator      *validator.CustomValidator
}

func NewVisitHandler(visitUsecase usecase.VisitQueueUsecase, invoiceUsecase usecase.InvoiceUsecase, validator *validator.CustomValidator) *VisitHandler {
	return &VisitHandler{
		visitUsecase:   visitUsecase,
		invoiceUsecase: invoiceUsecase,
		validator:      validator,
	}
}

func (h *VisitHandler) CreateVisit(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateVisitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body", nil)
		return
	}

	if err := h.validator.Validate(&req); err != nil {
		response.ValidationError(w, h.validator.FormatValidationErrors(err))
		return
	}

	visit, err := h.visitUsecase.CreateVisit(r.Context(), &req)
	if err != nil {
		switch {
		case errors.Is(err, usecase.ErrInvalidDoctor):
			response.BadRequest(w, "Doctor does not exist or is inactive")
		case errors.Is(err, usecase.ErrInvalidPatient):
			response.BadRequest(w, "Patient does not exist")
		case errors.Is(err, usecase.ErrDuplicateToken):
			response.Conflict(w, "Token collision, please retry")
		default:
			serverError(w, err, "Failed to create visit")
		}
		return
	}

	response.Success(w, http.StatusCreated, "Visit created successfully", visit)
}

func (h *VisitHandler) GetVisit(w http.ResponseWriter, r *http.Request) {
	visitID, ok := pathUUID(r, "id")
	if !ok {
		response.BadRequest(w, "Invalid visit ID")
		return
	}

	visit, err := h.visitUsecase.GetVisit(r.Context(), visitID)
	if err != nil {
		switch {
		case errors.Is(err, usecase.ErrVisitNotFound):
			response.NotFound(w, "Visit not found")
		default:
			serverError(w, err, "Failed to get visit")
		}
		return
	}

	response.Success(w, http.StatusOK, "Visit retrieved successfully", visit)
}

func (h *VisitHandler) ListToday(w http.ResponseWriter, r *http.Request) {
	visits, err := h.visitUsecase.ListToday(r.Context())
	if err != nil {
		serverError(w, err, "Failed to get today's visits")
		return
	}

	response.Success(w, http.StatusOK, "Visits retrieved successfully", visits)
}

func (h *VisitHandler) CallNext(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.visitUsecase.CallNext, "Visit called successfully")
}

func (h *VisitHandler) CompleteVisit(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.visitUsecase.CompleteVisit, "Visit completed successfully")
}

func (h *VisitHandler) CancelVisit(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.visitUsecase.CancelVisit, "Visit cancelled successfully")
}

func (h *VisitHandler) GetVisitInvoice(w http.ResponseWriter, r *http.Request) {
	visitID, ok := pathUUID(r, "id")
	if !ok {
		response.BadRequest(w, "Invalid visit ID")
		return
	}

	invoice, err := h.invoiceUsecase.GetInvoiceByVisit(r.Context(), visitID)
	if err != nil {
		switch {
		case errors.Is(err, usecase.ErrInvoiceNotFound):
			response.NotFound(w, "Visit has no active invoice")
		default:
			serverError(w, err, "Failed to get invoice")
		}
		return
	}

	response.Success(w, http.StatusOK, "Invoice retrieved successfully", invoice)
}

func (h *VisitHandler) transition(
	w http.ResponseWriter,
	r *http.Request,
	apply func(ctx context.Context, visitID uuid.UUID) (*dto.VisitResponse, error),
	message string,
) {
	visitID, ok := pathUUID(r, "id")
	if !ok {
		response.BadRequest(w, "Invalid visit ID")
		return
	}

	visit, err := apply(r.Context(), visitID)
	if err != nil {
		switch {
		case errors.Is(err, usecase.ErrVisitNotFound):
			response.NotFound(w, "Visit not found")
		case errors.Is(err, usecase.ErrNotNextInQueue):
			response.Conflict(w, "Visit is not next in the doctor's queue")
		case errors.Is(err, usecase.ErrConsultationInProgress):
			response.Conflict(w, "Doctor already has a visit in consultation")
		case errors.Is(err, usecase.ErrInvalidTransition):
			response.Conflict(w, "Visit status does not allow this action")
		default:
			serverError(w, err, "Failed to update visit")
		}
		return
	}

	response.Success(w, http.StatusOK, message, visit)
}
