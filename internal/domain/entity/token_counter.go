package entity

import (
	"time"

	"github.com/google/uuid"
)

// TokenCounter holds the last token issued for a doctor on a business day
type TokenCounter struct {
	DoctorID    uuid.UUID `gorm:"type:uuid;primaryKey" json:"doctor_id"`
	BusinessDay time.Time `gorm:"type:date;primaryKey" json:"business_day"`
	LastToken   int       `gorm:"not null" json:"last_token"`
}

func (TokenCounter) TableName() string {
	return "token_counters"
}
