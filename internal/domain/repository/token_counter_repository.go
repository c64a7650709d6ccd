package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type TokenCounterRepository interface {
	// Next atomically increments and returns the counter for (doctorID, day)
	Next(ctx context.Context, doctorID uuid.UUID, day time.Time) (int, error)
}
