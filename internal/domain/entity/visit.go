package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// VisitStatus represents the lifecycle state of a visit
type VisitStatus string

const (
	VisitStatusWaiting        VisitStatus = "WAITING"
	VisitStatusInConsultation VisitStatus = "IN_CONSULTATION"
	VisitStatusCompleted      VisitStatus = "COMPLETED"
	VisitStatusCancelled      VisitStatus = "CANCELLED"
)

// Visit is one patient's trip through a doctor's queue on a business day.
// TokenNumber is unique per (DoctorID, BusinessDay).
type Visit struct {
	ID                    uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	PatientID             uuid.UUID       `gorm:"type:uuid;not null;index" json:"patient_id"`
	DoctorID              uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_visits_doctor_day_token,priority:1" json:"doctor_id"`
	BusinessDay           time.Time       `gorm:"type:date;not null;index;uniqueIndex:idx_visits_doctor_day_token,priority:2" json:"business_day"`
	TokenNumber           int             `gorm:"not null;uniqueIndex:idx_visits_doctor_day_token,priority:3" json:"token_number"`
	VisitDate             time.Time       `gorm:"not null;index" json:"visit_date"`
	Status                VisitStatus     `gorm:"type:varchar(20);not null;default:'WAITING';index" json:"status"`
	IsEmergency           bool            `gorm:"not null;default:false" json:"is_emergency"`
	ConsultationFee       decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"consultation_fee"`
	ConsultationStartedAt *time.Time      `json:"consultation_started_at,omitempty"`
	CompletedAt           *time.Time      `json:"completed_at,omitempty"`
	CancelledAt           *time.Time      `json:"cancelled_at,omitempty"`
	CreatedAt             time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt             time.Time       `gorm:"autoUpdateTime" json:"updated_at"`

	// Relationships
	Patient *Patient `gorm:"foreignKey:PatientID" json:"patient,omitempty"`
	Doctor  *Doctor  `gorm:"foreignKey:DoctorID" json:"doctor,omitempty"`
}

func (Visit) TableName() string {
	return "visits"
}

// IsWaiting checks if the visit is still waiting to be called
func (v *Visit) IsWaiting() bool {
	return v.Status == VisitStatusWaiting
}

// IsInConsultation checks if the doctor is currently seeing the patient
func (v *Visit) IsInConsultation() bool {
	return v.Status == VisitStatusInConsultation
}

// IsActive reports whether the visit still belongs in the doctor's queue
func (v *Visit) IsActive() bool {
	return v.Status == VisitStatusWaiting || v.Status == VisitStatusInConsultation
}

// StartConsultation moves a waiting visit into consultation
func (v *Visit) StartConsultation(at time.Time) {
	v.Status = VisitStatusInConsultation
	v.ConsultationStartedAt = &at
}

// Complete marks the consultation as finished
func (v *Visit) Complete(at time.Time) {
	v.Status = VisitStatusCompleted
	v.CompletedAt = &at
}

// Cancel removes a waiting visit from the queue
func (v *Visit) Cancel(at time.Time) {
	v.Status = VisitStatusCancelled
	v.CancelledAt = &at
}

// QueuesBefore reports whether v is served before other: emergencies first,
// then FIFO by visit date, then by token number.
func (v *Visit) QueuesBefore(other *Visit) bool {
	if v.IsEmergency != other.IsEmergency {
		return v.IsEmergency
	}
	if !v.VisitDate.Equal(other.VisitDate) {
		return v.VisitDate.Before(other.VisitDate)
	}
	return v.TokenNumber < other.TokenNumber
}
