package converter

import (
	"hospital-frontdesk/internal/delivery/dto"
	"hospital-frontdesk/internal/service"
)

// EmergencyToResponse converts an active EmergencyState to EmergencyResponse DTO
func EmergencyToResponse(state *service.EmergencyState) *dto.EmergencyResponse {
	if state == nil {
		return nil
	}

	activatedAt := state.ActivatedAt
	return &dto.EmergencyResponse{
		DoctorID:    state.DoctorID,
		IsActive:    true,
		VisitID:     state.VisitID,
		TokenNumber: state.TokenNumber,
		PatientName: state.PatientName,
		RoomNumber:  state.RoomNumber,
		ActivatedAt: &activatedAt,
	}
}

// EmergenciesToResponses converts a slice of EmergencyState to slice of EmergencyResponse DTOs
func EmergenciesToResponses(states []service.EmergencyState) []dto.EmergencyResponse {
	responses := make([]dto.EmergencyResponse, len(states))
	for i := range states {
		responses[i] = *EmergencyToResponse(&states[i])
	}
	return responses
}
