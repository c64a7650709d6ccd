package repository

import (
	"context"

	"hospital-frontdesk/internal/domain/entity"

	"github.com/google/uuid"
)

type ProcedureRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Procedure, error)
}

type ProcedureOrderRepository interface {
	Create(ctx context.Context, order *entity.ProcedureOrder) error
	Update(ctx context.Context, order *entity.ProcedureOrder) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.ProcedureOrder, error)
	// FindByIDForUpdate locks the order row until the surrounding transaction ends
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*entity.ProcedureOrder, error)
	FindByVisitID(ctx context.Context, visitID uuid.UUID) ([]entity.ProcedureOrder, error)
	FindByStatus(ctx context.Context, status entity.ProcedureOrderStatus) ([]entity.ProcedureOrder, error)
}
