package entity

import (
	"time"

	"github.com/google/uuid"
)

// Patient is owned by patient registration; visits only reference it.
type Patient struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	PatientID string    `gorm:"column:patient_code;type:varchar(32);uniqueIndex;not null" json:"patient_id"`
	Name      string    `gorm:"type:varchar(255);not null" json:"name"`
	Age       int       `gorm:"not null" json:"age"`
	Gender    string    `gorm:"type:varchar(10);not null" json:"gender"`
	Phone     string    `gorm:"type:varchar(20);index" json:"phone"`
	Address   string    `gorm:"type:text" json:"address,omitempty"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (Patient) TableName() string {
	return "patients"
}

// Gender constants
const (
	GenderMale   = "MALE"
	GenderFemale = "FEMALE"
	GenderOther  = "OTHER"
)
