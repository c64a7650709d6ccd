package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Procedure is an ancillary service from the admin catalogue (lab, imaging, ...)
type Procedure struct {
	ID         uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	Code       string          `gorm:"type:varchar(50);uniqueIndex;not null" json:"code"`
	Name       string          `gorm:"type:varchar(255);not null" json:"name"`
	Department string          `gorm:"type:varchar(100)" json:"department,omitempty"`
	DefaultFee decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"default_fee"`
	CreatedAt  time.Time       `gorm:"autoCreateTime" json:"created_at"`
}

func (Procedure) TableName() string {
	return "procedures"
}
