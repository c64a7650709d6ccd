package validator

import (
	"testing"

	"github.com/google/uuid"
)

type sampleRequest struct {
	VisitID uuid.UUID `json:"visit_id" validate:"required"`
	Status  string    `json:"status" validate:"required,oneof=IN_PROGRESS COMPLETED"`
	Reset   *string   `json:"token_reset_time,omitempty" validate:"omitempty,len=5"`
}

func TestFormatValidationErrorsUsesJSONNames(t *testing.T) {
	cv := NewValidator()
	reset := "6:00"

	err := cv.Validate(&sampleRequest{Status: "DONE", Reset: &reset})
	if err == nil {
		t.Fatal("expected validation error")
	}

	got := cv.FormatValidationErrors(err)
	want := map[string]string{
		"visit_id":         "visit_id is required",
		"status":           "status must be one of: IN_PROGRESS, COMPLETED",
		"token_reset_time": "token_reset_time must be exactly 5 characters",
	}
	for field, msg := range want {
		if got[field] != msg {
			t.Errorf("%s: got %q, want %q", field, got[field], msg)
		}
	}
}

func TestValidRequestPasses(t *testing.T) {
	cv := NewValidator()
	if err := cv.Validate(&sampleRequest{VisitID: uuid.New(), Status: "COMPLETED"}); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}
