package converter

import (
	"hospital-frontdesk/internal/delivery/dto"
	"hospital-frontdesk/internal/domain/entity"
)

// VisitToResponse converts a Visit entity to VisitResponse DTO
func VisitToResponse(visit *entity.Visit) *dto.VisitResponse {
	if visit == nil {
		return nil
	}

	return &dto.VisitResponse{
		ID:                    visit.ID,
		PatientID:             visit.PatientID,
		DoctorID:              visit.DoctorID,
		BusinessDay:           visit.BusinessDay.Format("2006-01-02"),
		TokenNumber:           visit.TokenNumber,
		VisitDate:             visit.VisitDate,
		Status:                string(visit.Status),
		IsEmergency:           visit.IsEmergency,
		ConsultationFee:       visit.ConsultationFee,
		ConsultationStartedAt: visit.ConsultationStartedAt,
		CompletedAt:           visit.CompletedAt,
		CancelledAt:           visit.CancelledAt,
		Patient:               PatientToSummary(visit.Patient),
		Doctor:                DoctorToResponse(visit.Doctor),
		CreatedAt:             visit.CreatedAt,
		UpdatedAt:             visit.UpdatedAt,
	}
}

// VisitsToResponses converts a slice of Visit entities to slice of VisitResponse DTOs
func VisitsToResponses(visits []entity.Visit) []dto.VisitResponse {
	responses := make([]dto.VisitResponse, len(visits))
	for i := range visits {
		responses[i] = *VisitToResponse(&visits[i])
	}
	return responses
}
