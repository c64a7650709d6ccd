package repository

import (
	"context"
	"time"

	domainRepo "hospital-frontdesk/internal/domain/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type tokenCounterRepository struct {
	db *gorm.DB
}

func NewTokenCounterRepository(db *gorm.DB) domainRepo.TokenCounterRepository {
	return &tokenCounterRepository{db: db}
}

// Next upserts the counter row and returns the incremented value in one
// statement; the row lock it takes is held by the surrounding transaction.
func (r *tokenCounterRepository) Next(ctx context.Context, doctorID uuid.UUID, day time.Time) (int, error) {
	var token int
	err := conn(ctx, r.db).Raw(`
		INSERT INTO token_counters (doctor_id, business_day, last_token)
		VALUES (?, ?, 1)
		ON CONFLICT (doctor_id, business_day)
		DO UPDATE SET last_token = token_counters.last_token + 1
		RETURNING last_token
	`, doctorID, day.Format("2006-01-02")).Scan(&token).Error
	if err != nil {
		return 0, err
	}
	return token, nil
}
