package dto

import (
	"github.com/google/uuid"
)

// PatientSummary is the patient identity shown next to visits and receipts
type PatientSummary struct {
	ID        uuid.UUID `json:"id"`
	PatientID string    `json:"patient_id"`
	Name      string    `json:"name"`
	Age       int       `json:"age"`
	Gender    string    `json:"gender"`
	Phone     string    `json:"phone,omitempty"`
}
