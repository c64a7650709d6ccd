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

type ProcedureOrderHandler struct {
	orderUsecase usecase.ProcedureOrderUsecase
	validator    *validator.CustomValidator
}

func NewProcedureOrderHandler(orderUsecase usecase.ProcedureOrderUsecase, validator *validator.CustomValidator) *ProcedureOrderHandler {
	return &ProcedureOrderHandler{
		orderUsecase: orderUsecase,
		validator:    validator,
	}
}

func (h *ProcedureOrderHandler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateProcedureOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body", nil)
		return
	}

	if err := h.validator.Validate(&req); err != nil {
		response.ValidationError(w, h.validator.FormatValidationErrors(err))
		return
	}

	order, err := h.orderUsecase.CreateOrder(r.Context(), &req)
	if err != nil {
		writeOrderError(w, err, "Failed to create procedure order")
		return
	}

	response.Success(w, http.StatusCreated, "Procedure ordered successfully", order)
}

func (h *ProcedureOrderHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	h.apply(w, r, h.orderUsecase.GetOrder, "Procedure order retrieved successfully")
}

func (h *ProcedureOrderHandler) StartProcedure(w http.ResponseWriter, r *http.Request) {
	h.apply(w, r, h.orderUsecase.StartProcedure, "Procedure started successfully")
}

func (h *ProcedureOrderHandler) CompleteProcedure(w http.ResponseWriter, r *http.Request) {
	h.apply(w, r, h.orderUsecase.CompleteProcedure, "Procedure completed successfully")
}

func (h *ProcedureOrderHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	var req dto.UpdateProcedureOrderStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body", nil)
		return
	}

	if err := h.validator.Validate(&req); err != nil {
		response.ValidationError(w, h.validator.FormatValidationErrors(err))
		return
	}

	h.apply(w, r, func(ctx context.Context, orderID uuid.UUID) (*dto.ProcedureOrderResponse, error) {
		return h.orderUsecase.UpdateStatus(ctx, orderID, &req)
	}, "Procedure order updated successfully")
}

func (h *ProcedureOrderHandler) ListForVisit(w http.ResponseWriter, r *http.Request) {
	visitID, ok := pathUUID(r, "visitId")
	if !ok {
		response.BadRequest(w, "Invalid visit ID")
		return
	}

	orders, err := h.orderUsecase.ListForVisit(r.Context(), visitID)
	if err != nil {
		writeOrderError(w, err, "Failed to get procedure orders")
		return
	}

	response.Success(w, http.StatusOK, "Procedure orders retrieved successfully", orders)
}

func (h *ProcedureOrderHandler) ListRequested(w http.ResponseWriter, r *http.Request) {
	orders, err := h.orderUsecase.ListRequested(r.Context())
	if err != nil {
		serverError(w, err, "Failed to get requested procedures")
		return
	}

	response.Success(w, http.StatusOK, "Requested procedures retrieved successfully", orders)
}

func (h *ProcedureOrderHandler) ListOngoing(w http.ResponseWriter, r *http.Request) {
	orders, err := h.orderUsecase.ListOngoing(r.Context())
	if err != nil {
		serverError(w, err, "Failed to get ongoing procedures")
		return
	}

	response.Success(w, http.StatusOK, "Ongoing procedures retrieved successfully", orders)
}

func (h *ProcedureOrderHandler) apply(
	w http.ResponseWriter,
	r *http.Request,
	fn func(ctx context.Context, orderID uuid.UUID) (*dto.ProcedureOrderResponse, error),
	message string,
) {
	orderID, ok := pathUUID(r, "id")
	if !ok {
		response.BadRequest(w, "Invalid procedure order ID")
		return
	}

	order, err := fn(r.Context(), orderID)
	if err != nil {
		writeOrderError(w, err, "Failed to update procedure order")
		return
	}

	response.Success(w, http.StatusOK, message, order)
}

func writeOrderError(w http.ResponseWriter, err error, message string) {
	switch {
	case errors.Is(err, usecase.ErrProcedureOrderNotFound):
		response.NotFound(w, "Procedure order not found")
	case errors.Is(err, usecase.ErrProcedureNotFound):
		response.NotFound(w, "Procedure not found")
	case errors.Is(err, usecase.ErrVisitNotFound):
		response.NotFound(w, "Visit not found")
	case errors.Is(err, usecase.ErrInvalidTransition):
		response.Conflict(w, "Procedure order status does not allow this action")
	default:
		serverError(w, err, message)
	}
}
