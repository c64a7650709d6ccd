package usecase

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"hospital-frontdesk/internal/delivery/dto"
	"hospital-frontdesk/internal/domain/entity"
	"hospital-frontdesk/internal/domain/repository"
	"hospital-frontdesk/internal/service"

	"github.com/sirupsen/logrus"
)

var ErrInvalidSettings = errors.New("invalid settings")

type SettingsUsecase interface {
	// Load merges persisted settings over the configured defaults and
	// publishes the result to the holder
	Load(ctx context.Context) error
	GetSettings(ctx context.Context) (*dto.SettingsResponse, error)
	UpdateSettings(ctx context.Context, req *dto.UpdateSettingsRequest) (*dto.SettingsResponse, error)
}

type settingsUsecase struct {
	log         *logrus.Logger
	tx          repository.Transactor
	settingRepo repository.SettingRepository
	holder      *service.SettingsHolder
	clock       *service.BusinessClock
}

func NewSettingsUsecase(
	log *logrus.Logger,
	tx repository.Transactor,
	settingRepo repository.SettingRepository,
	holder *service.SettingsHolder,
	clock *service.BusinessClock,
) SettingsUsecase {
	return &settingsUsecase{
		log:         log,
		tx:          tx,
		settingRepo: settingRepo,
		holder:      holder,
		clock:       clock,
	}
}

func (u *settingsUsecase) Load(ctx context.Context) error {
	stored, err := u.settingRepo.FindAll(ctx)
	if err != nil {
		u.log.Warnf("Failed to load settings: %+v", err)
		return unavailable(err)
	}

	settings := u.holder.Current()
	for _, s := range stored {
		switch s.Key {
		case entity.SettingTokenResetTime:
			reset, err := service.ParseResetTime(s.Value)
			if err != nil {
				u.log.Warnf("Ignoring stored %s=%q: %+v", s.Key, s.Value, err)
				continue
			}
			settings.TokenResetTime = reset
		case entity.SettingEmergencyProtocolEnabled:
			enabled, err := strconv.ParseBool(s.Value)
			if err != nil {
				u.log.Warnf("Ignoring stored %s=%q: %+v", s.Key, s.Value, err)
				continue
			}
			settings.EmergencyProtocolEnabled = enabled
		}
	}

	u.holder.Set(settings)
	u.log.Infof("Settings loaded: token_reset_time=%s, emergency_protocol_enabled=%t", settings.TokenResetTime, settings.EmergencyProtocolEnabled)
	return nil
}

func (u *settingsUsecase) GetSettings(ctx context.Context) (*dto.SettingsResponse, error) {
	return u.toResponse(u.holder.Current()), nil
}

// UpdateSettings persists the changed values and then swaps the live
// snapshot; operations already running keep the snapshot they started with.
func (u *settingsUsecase) UpdateSettings(ctx context.Context, req *dto.UpdateSettingsRequest) (*dto.SettingsResponse, error) {
	settings := u.holder.Current()
	var changed []entity.AppSetting

	if req.TokenResetTime != nil {
		reset, err := service.ParseResetTime(*req.TokenResetTime)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidSettings, err)
		}
		settings.TokenResetTime = reset
		changed = append(changed, entity.AppSetting{Key: entity.SettingTokenResetTime, Value: reset.String()})
	}
	if req.EmergencyProtocolEnabled != nil {
		settings.EmergencyProtocolEnabled = *req.EmergencyProtocolEnabled
		changed = append(changed, entity.AppSetting{
			Key:   entity.SettingEmergencyProtocolEnabled,
			Value: strconv.FormatBool(*req.EmergencyProtocolEnabled),
		})
	}

	if len(changed) == 0 {
		return u.toResponse(settings), nil
	}

	err := u.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		for i := range changed {
			if err := u.settingRepo.Upsert(ctx, &changed[i]); err != nil {
				return unavailable(err)
			}
		}
		return nil
	})
	if err != nil {
		u.log.Warnf("Failed to update settings: %+v", err)
		return nil, txError(err)
	}

	u.holder.Set(settings)
	u.log.Infof("Settings updated: token_reset_time=%s, emergency_protocol_enabled=%t, by=%s", settings.TokenResetTime, settings.EmergencyProtocolEnabled, actor(ctx))
	return u.toResponse(settings), nil
}

func (u *settingsUsecase) toResponse(settings service.Settings) *dto.SettingsResponse {
	return &dto.SettingsResponse{
		TokenResetTime:           settings.TokenResetTime.String(),
		EmergencyProtocolEnabled: settings.EmergencyProtocolEnabled,
		BusinessTimezone:         u.clock.Location().String(),
		CurrentBusinessDay:       u.clock.Today().Format("2006-01-02"),
	}
}
