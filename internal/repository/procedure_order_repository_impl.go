package repository

import (
	"context"
	"errors"

	"hospital-frontdesk/internal/domain/entity"
	domainRepo "hospital-frontdesk/internal/domain/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type procedureOrderRepository struct {
	db *gorm.DB
}

func NewProcedureOrderRepository(db *gorm.DB) domainRepo.ProcedureOrderRepository {
	return &procedureOrderRepository{db: db}
}

func (r *procedureOrderRepository) Create(ctx context.Context, order *entity.ProcedureOrder) error {
	return conn(ctx, r.db).Omit("Visit", "Procedure").Create(order).Error
}

func (r *procedureOrderRepository) Update(ctx context.Context, order *entity.ProcedureOrder) error {
	return conn(ctx, r.db).Omit("Visit", "Procedure").Save(order).Error
}

func (r *procedureOrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.ProcedureOrder, error) {
	return r.find(conn(ctx, r.db), id)
}

// FindByIDForUpdate takes a row lock so status transitions from different
// instances serialize on the order
func (r *procedureOrderRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*entity.ProcedureOrder, error) {
	return r.find(conn(ctx, r.db).Clauses(clause.Locking{Strength: "UPDATE"}), id)
}

func (r *procedureOrderRepository) find(db *gorm.DB, id uuid.UUID) (*entity.ProcedureOrder, error) {
	var order entity.ProcedureOrder
	err := db.
		Preload("Procedure").Preload("Visit.Patient").Preload("Visit.Doctor").
		Where("id = ?", id).
		First(&order).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &order, nil
}

func (r *procedureOrderRepository) FindByVisitID(ctx context.Context, visitID uuid.UUID) ([]entity.ProcedureOrder, error) {
	var orders []entity.ProcedureOrder
	err := conn(ctx, r.db).Preload("Procedure").
		Where("visit_id = ?", visitID).
		Order("created_at ASC").
		Find(&orders).Error
	if err != nil {
		return nil, err
	}
	return orders, nil
}

// FindByStatus returns the cross-doctor worklist for one status; callers sort it.
func (r *procedureOrderRepository) FindByStatus(ctx context.Context, status entity.ProcedureOrderStatus) ([]entity.ProcedureOrder, error) {
	var orders []entity.ProcedureOrder
	err := conn(ctx, r.db).
		Preload("Procedure").Preload("Visit.Patient").Preload("Visit.Doctor").
		Where("status = ?", status).
		Find(&orders).Error
	if err != nil {
		return nil, err
	}
	return orders, nil
}
