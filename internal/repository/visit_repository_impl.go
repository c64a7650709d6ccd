package repository

import (
	"context"
	"errors"
	"time"

	"hospital-frontdesk/internal/domain/entity"
	domainRepo "hospital-frontdesk/internal/domain/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type visitRepository struct {
	db *gorm.DB
}

func NewVisitRepository(db *gorm.DB) domainRepo.VisitRepository {
	return &visitRepository{db: db}
}

func (r *visitRepository) Create(ctx context.Context, visit *entity.Visit) error {
	return translateError(conn(ctx, r.db).Omit("Patient", "Doctor").Create(visit).Error)
}

func (r *visitRepository) Update(ctx context.Context, visit *entity.Visit) error {
	return conn(ctx, r.db).Omit("Patient", "Doctor").Save(visit).Error
}

func (r *visitRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Visit, error) {
	var visit entity.Visit
	err := conn(ctx, r.db).Preload("Patient").Preload("Doctor").Where("id = ?", id).First(&visit).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &visit, nil
}

func (r *visitRepository) FindActiveByDoctor(ctx context.Context, doctorID uuid.UUID) ([]entity.Visit, error) {
	var visits []entity.Visit
	err := conn(ctx, r.db).Preload("Patient").
		Where("doctor_id = ? AND status IN ?", doctorID, []entity.VisitStatus{entity.VisitStatusWaiting, entity.VisitStatusInConsultation}).
		Order("is_emergency DESC, visit_date ASC, token_number ASC").
		Find(&visits).Error
	if err != nil {
		return nil, err
	}
	return visits, nil
}

func (r *visitRepository) FindByBusinessDay(ctx context.Context, day time.Time) ([]entity.Visit, error) {
	var visits []entity.Visit
	err := conn(ctx, r.db).Preload("Patient").Preload("Doctor").
		Where("business_day = ?", day.Format("2006-01-02")).
		Order("visit_date ASC").
		Find(&visits).Error
	if err != nil {
		return nil, err
	}
	return visits, nil
}

func (r *visitRepository) MaxTokensByBusinessDay(ctx context.Context, day time.Time) (map[uuid.UUID]int, error) {
	type row struct {
		DoctorID uuid.UUID
		MaxToken int
	}
	var rows []row
	err := conn(ctx, r.db).Model(&entity.Visit{}).
		Select("doctor_id, COALESCE(MAX(token_number), 0) AS max_token").
		Where("business_day = ?", day.Format("2006-01-02")).
		Group("doctor_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	result := make(map[uuid.UUID]int, len(rows))
	for _, r := range rows {
		result[r.DoctorID] = r.MaxToken
	}
	return result, nil
}

// LockDoctorQueue takes a transaction-scoped advisory lock keyed by doctor.
// Outside a transaction the lock would be released immediately, so callers
// must run inside Transactor.WithinTransaction.
func (r *visitRepository) LockDoctorQueue(ctx context.Context, doctorID uuid.UUID) error {
	return conn(ctx, r.db).Exec("SELECT pg_advisory_xact_lock(hashtext(?))", "doctor-queue:"+doctorID.String()).Error
}
