package converter

import (
	"hospital-frontdesk/internal/delivery/dto"
	"hospital-frontdesk/internal/domain/entity"
)

// ProcedureToResponse converts a Procedure entity to ProcedureResponse DTO
func ProcedureToResponse(procedure *entity.Procedure) *dto.ProcedureResponse {
	if procedure == nil {
		return nil
	}

	return &dto.ProcedureResponse{
		ID:         procedure.ID,
		Code:       procedure.Code,
		Name:       procedure.Name,
		Department: procedure.Department,
		DefaultFee: procedure.DefaultFee,
	}
}

// ProcedureOrderToResponse converts a ProcedureOrder entity to ProcedureOrderResponse DTO
func ProcedureOrderToResponse(order *entity.ProcedureOrder) *dto.ProcedureOrderResponse {
	if order == nil {
		return nil
	}

	response := &dto.ProcedureOrderResponse{
		ID:          order.ID,
		VisitID:     order.VisitID,
		ProcedureID: order.ProcedureID,
		Notes:       order.Notes,
		Status:      string(order.Status),
		StartedAt:   order.StartedAt,
		CompletedAt: order.CompletedAt,
		Procedure:   ProcedureToResponse(order.Procedure),
		CreatedAt:   order.CreatedAt,
		UpdatedAt:   order.UpdatedAt,
	}

	// Include visit context for worklists
	if order.Visit != nil {
		summary := &dto.ProcedureVisitSummary{
			TokenNumber: order.Visit.TokenNumber,
			IsEmergency: order.Visit.IsEmergency,
		}
		if order.Visit.Patient != nil {
			summary.PatientName = order.Visit.Patient.Name
		}
		if order.Visit.Doctor != nil {
			summary.DoctorName = order.Visit.Doctor.Name
			summary.RoomNumber = order.Visit.Doctor.RoomNumber
		}
		response.Visit = summary
	}

	return response
}

// ProcedureOrdersToResponses converts a slice of ProcedureOrder entities to slice of ProcedureOrderResponse DTOs
func ProcedureOrdersToResponses(orders []entity.ProcedureOrder) []dto.ProcedureOrderResponse {
	responses := make([]dto.ProcedureOrderResponse, len(orders))
	for i := range orders {
		responses[i] = *ProcedureOrderToResponse(&orders[i])
	}
	return responses
}
