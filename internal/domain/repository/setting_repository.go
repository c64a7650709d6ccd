package repository

import (
	"context"

	"hospital-frontdesk/internal/domain/entity"
)

type SettingRepository interface {
	FindAll(ctx context.Context) ([]entity.AppSetting, error)
	Upsert(ctx context.Context, setting *entity.AppSetting) error
}
