package dto

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Request DTOs

type CreateProcedureOrderRequest struct {
	VisitID     uuid.UUID `json:"visit_id" validate:"required"`
	ProcedureID uuid.UUID `json:"procedure_id" validate:"required"`
	Notes       string    `json:"notes" validate:"omitempty,max=1000"`
}

type UpdateProcedureOrderStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=IN_PROGRESS COMPLETED"`
}

// Response DTOs

type ProcedureResponse struct {
	ID         uuid.UUID       `json:"id"`
	Code       string          `json:"code"`
	Name       string          `json:"name"`
	Department string          `json:"department,omitempty"`
	DefaultFee decimal.Decimal `json:"default_fee"`
}

// ProcedureVisitSummary is the visit context a worklist needs for dispatch
type ProcedureVisitSummary struct {
	TokenNumber int    `json:"token_number"`
	IsEmergency bool   `json:"is_emergency"`
	PatientName string `json:"patient_name,omitempty"`
	DoctorName  string `json:"doctor_name,omitempty"`
	RoomNumber  string `json:"room_number,omitempty"`
}

type ProcedureOrderResponse struct {
	ID          uuid.UUID              `json:"id"`
	VisitID     uuid.UUID              `json:"visit_id"`
	ProcedureID uuid.UUID              `json:"procedure_id"`
	Notes       string                 `json:"notes,omitempty"`
	Status      string                 `json:"status"`
	StartedAt   *time.Time             `json:"started_at,omitempty"`
	CompletedAt *time.Time             `json:"completed_at,omitempty"`
	Procedure   *ProcedureResponse     `json:"procedure,omitempty"`
	Visit       *ProcedureVisitSummary `json:"visit,omitempty"`
	CreatedAt   time.Time              `json:"created_at"`
	UpdatedAt   time.Time              `json:"updated_at"`
}

type ProcedureOrderListResponse struct {
	Orders []ProcedureOrderResponse `json:"orders"`
	Total  int                      `json:"total"`
}
