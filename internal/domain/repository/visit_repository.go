package repository

import (
	"context"
	"time"

	"hospital-frontdesk/internal/domain/entity"

	"github.com/google/uuid"
)

type VisitRepository interface {
	Create(ctx context.Context, visit *entity.Visit) error
	Update(ctx context.Context, visit *entity.Visit) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Visit, error)
	FindActiveByDoctor(ctx context.Context, doctorID uuid.UUID) ([]entity.Visit, error)
	FindByBusinessDay(ctx context.Context, day time.Time) ([]entity.Visit, error)
	MaxTokensByBusinessDay(ctx context.Context, day time.Time) (map[uuid.UUID]int, error)
	// LockDoctorQueue serializes queue mutations for a doctor until the
	// surrounding transaction ends.
	LockDoctorQueue(ctx context.Context, doctorID uuid.UUID) error
}
