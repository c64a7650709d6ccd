package dto

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Request DTOs

type CreateVisitRequest struct {
	PatientID   uuid.UUID `json:"patient_id" validate:"required"`
	DoctorID    uuid.UUID `json:"doctor_id" validate:"required"`
	IsEmergency bool      `json:"is_emergency"`
}

// Response DTOs

type VisitResponse struct {
	ID                    uuid.UUID       `json:"id"`
	PatientID             uuid.UUID       `json:"patient_id"`
	DoctorID              uuid.UUID       `json:"doctor_id"`
	BusinessDay           string          `json:"business_day"`
	TokenNumber           int             `json:"token_number"`
	VisitDate             time.Time       `json:"visit_date"`
	Status                string          `json:"status"`
	IsEmergency           bool            `json:"is_emergency"`
	ConsultationFee       decimal.Decimal `json:"consultation_fee"`
	ConsultationStartedAt *time.Time      `json:"consultation_started_at,omitempty"`
	CompletedAt           *time.Time      `json:"completed_at,omitempty"`
	CancelledAt           *time.Time      `json:"cancelled_at,omitempty"`
	Patient               *PatientSummary `json:"patient,omitempty"`
	Doctor                *DoctorResponse `json:"doctor,omitempty"`
	CreatedAt             time.Time       `json:"created_at"`
	UpdatedAt             time.Time       `json:"updated_at"`
}

type VisitListResponse struct {
	Visits []VisitResponse `json:"visits"`
	Total  int             `json:"total"`
}

// QueueItemResponse is computed at read time and never stored.
// TimeWaiting is in seconds and only meaningful for WAITING visits.
type QueueItemResponse struct {
	Position    int             `json:"position,omitempty"`
	Visit       VisitResponse   `json:"visit"`
	Patient     *PatientSummary `json:"patient,omitempty"`
	TimeWaiting int64           `json:"time_waiting"`
}

type QueueResponse struct {
	DoctorID     uuid.UUID           `json:"doctor_id"`
	BusinessDay  string              `json:"business_day"`
	CurrentToken *int                `json:"current_token"`
	Items        []QueueItemResponse `json:"items"`
	Total        int                 `json:"total"`
	Emergency    *EmergencyResponse  `json:"emergency,omitempty"`
}
