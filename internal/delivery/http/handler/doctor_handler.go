package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"hospital-frontdesk/internal/delivery/dto"
	"hospital-frontdesk/internal/delivery/http/middleware"
	"hospital-frontdesk/internal/usecase"
	"hospital-frontdesk/pkg/response"
	"hospital-frontdesk/pkg/validator"

	"github.com/google/uuid"
)

type DoctorHandler struct {
	doctorUsecase    usecase.DoctorUsecase
	visitUsecase     usecase.VisitQueueUsecase
	emergencyUsecase usecase.EmergencyUsecase
	validator        *validator.CustomValidator
}

func NewDoctorHandler(
	doctorUsecase usecase.DoctorUsecase,
	visitUsecase usecase.VisitQueueUsecase,
	emergencyUsecase usecase.EmergencyUsecase,
	validator *validator.CustomValidator,
) *DoctorHandler {
	return &DoctorHandler{
		doctorUsecase:    doctorUsecase,
		visitUsecase:     visitUsecase,
		emergencyUsecase: emergencyUsecase,
		validator:        validator,
	}
}

func (h *DoctorHandler) ListDoctors(w http.ResponseWriter, r *http.Request) {
	doctors, err := h.doctorUsecase.ListDoctors(r.Context())
	if err != nil {
		serverError(w, err, "Failed to get doctors")
		return
	}

	response.Success(w, http.StatusOK, "Doctors retrieved successfully", doctors)
}

func (h *DoctorHandler) GetQueue(w http.ResponseWriter, r *http.Request) {
	doctorID, ok := pathUUID(r, "id")
	if !ok {
		response.BadRequest(w, "Invalid doctor ID")
		return
	}
	h.writeQueue(w, r, doctorID)
}

// GetMyQueue serves the queue of the doctor account making the request
func (h *DoctorHandler) GetMyQueue(w http.ResponseWriter, r *http.Request) {
	doctorID, ok := middleware.GetDoctorIDFromContext(r.Context())
	if !ok {
		response.Forbidden(w, "Account is not linked to a doctor")
		return
	}
	h.writeQueue(w, r, doctorID)
}

func (h *DoctorHandler) writeQueue(w http.ResponseWriter, r *http.Request, doctorID uuid.UUID) {
	queue, err := h.visitUsecase.GetQueue(r.Context(), doctorID)
	if err != nil {
		switch {
		case errors.Is(err, usecase.ErrDoctorNotFound):
			response.NotFound(w, "Doctor not found")
		default:
			serverError(w, err, "Failed to get queue")
		}
		return
	}

	response.Success(w, http.StatusOK, "Queue retrieved successfully", queue)
}

func (h *DoctorHandler) SetEmergency(w http.ResponseWriter, r *http.Request) {
	doctorID, ok := pathUUID(r, "id")
	if !ok {
		response.BadRequest(w, "Invalid doctor ID")
		return
	}

	var req dto.SetEmergencyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body", nil)
		return
	}

	if err := h.validator.Validate(&req); err != nil {
		response.ValidationError(w, h.validator.FormatValidationErrors(err))
		return
	}

	state, err := h.emergencyUsecase.SetEmergency(r.Context(), doctorID, &req)
	if err != nil {
		switch {
		case errors.Is(err, usecase.ErrDoctorNotFound):
			response.NotFound(w, "Doctor not found")
		case errors.Is(err, usecase.ErrVisitNotFound):
			response.NotFound(w, "Visit not found")
		case errors.Is(err, usecase.ErrVisitDoctorMismatch):
			response.UnprocessableEntity(w, "Visit does not belong to this doctor")
		case errors.Is(err, usecase.ErrEmergencyProtocolDisabled):
			response.Conflict(w, "Emergency protocol is disabled")
		default:
			serverError(w, err, "Failed to update emergency state")
		}
		return
	}

	response.Success(w, http.StatusOK, "Emergency state updated successfully", state)
}

func (h *DoctorHandler) ListEmergencies(w http.ResponseWriter, r *http.Request) {
	emergencies, err := h.emergencyUsecase.ListActive(r.Context())
	if err != nil {
		serverError(w, err, "Failed to get emergencies")
		return
	}

	response.Success(w, http.StatusOK, "Emergencies retrieved successfully", emergencies)
}
