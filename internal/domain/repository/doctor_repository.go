package repository

import (
	"context"

	"hospital-frontdesk/internal/domain/entity"

	"github.com/google/uuid"
)

type DoctorRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Doctor, error)
	FindAllActive(ctx context.Context) ([]entity.Doctor, error)
}
