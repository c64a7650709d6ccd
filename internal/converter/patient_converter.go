package converter

import (
	"hospital-frontdesk/internal/delivery/dto"
	"hospital-frontdesk/internal/domain/entity"
)

// PatientToSummary converts a Patient entity to PatientSummary DTO
func PatientToSummary(patient *entity.Patient) *dto.PatientSummary {
	if patient == nil {
		return nil
	}

	return &dto.PatientSummary{
		ID:        patient.ID,
		PatientID: patient.PatientID,
		Name:      patient.Name,
		Age:       patient.Age,
		Gender:    patient.Gender,
		Phone:     patient.Phone,
	}
}
