package entity

import (
	"time"

	"github.com/google/uuid"
)

// ProcedureOrderStatus is forward-only: REQUESTED -> IN_PROGRESS -> COMPLETED
type ProcedureOrderStatus string

const (
	ProcedureOrderStatusRequested  ProcedureOrderStatus = "REQUESTED"
	ProcedureOrderStatusInProgress ProcedureOrderStatus = "IN_PROGRESS"
	ProcedureOrderStatusCompleted  ProcedureOrderStatus = "COMPLETED"
)

// ProcedureOrder is an ancillary procedure ordered for a visit
type ProcedureOrder struct {
	ID          uuid.UUID            `gorm:"type:uuid;primaryKey" json:"id"`
	VisitID     uuid.UUID            `gorm:"type:uuid;not null;index" json:"visit_id"`
	ProcedureID uuid.UUID            `gorm:"type:uuid;not null;index" json:"procedure_id"`
	Notes       string               `gorm:"type:text" json:"notes,omitempty"`
	Status      ProcedureOrderStatus `gorm:"type:varchar(20);not null;default:'REQUESTED';index" json:"status"`
	StartedAt   *time.Time           `json:"started_at,omitempty"`
	CompletedAt *time.Time           `json:"completed_at,omitempty"`
	CreatedAt   time.Time            `gorm:"not null" json:"created_at"`
	UpdatedAt   time.Time            `gorm:"autoUpdateTime" json:"updated_at"`

	// Relationships
	Visit     *Visit     `gorm:"foreignKey:VisitID" json:"visit,omitempty"`
	Procedure *Procedure `gorm:"foreignKey:ProcedureID" json:"procedure,omitempty"`
}

func (ProcedureOrder) TableName() string {
	return "procedure_orders"
}

// Start moves a requested order into progress
func (o *ProcedureOrder) Start(at time.Time) {
	o.Status = ProcedureOrderStatusInProgress
	o.StartedAt = &at
}

// Complete finishes an in-progress order
func (o *ProcedureOrder) Complete(at time.Time) {
	o.Status = ProcedureOrderStatusCompleted
	o.CompletedAt = &at
}
