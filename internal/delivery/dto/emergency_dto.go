package dto

import (
	"time"

	"github.com/google/uuid"
)

// Request DTOs

type SetEmergencyRequest struct {
	Active  *bool      `json:"active" validate:"required"`
	VisitID *uuid.UUID `json:"visit_id,omitempty"`
}

// Response DTOs

type EmergencyResponse struct {
	DoctorID    uuid.UUID  `json:"doctor_id"`
	IsActive    bool       `json:"is_active"`
	VisitID     *uuid.UUID `json:"visit_id,omitempty"`
	TokenNumber int        `json:"token_number,omitempty"`
	PatientName string     `json:"patient_name,omitempty"`
	RoomNumber  string     `json:"room_number,omitempty"`
	ActivatedAt *time.Time `json:"activated_at,omitempty"`
}

type EmergencyListResponse struct {
	Emergencies []EmergencyResponse `json:"emergencies"`
	Total       int                 `json:"total"`
}
