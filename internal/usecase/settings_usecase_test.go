package usecase

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"hospital-frontdesk/internal/delivery/dto"
	"hospital-frontdesk/internal/domain/entity"
	"hospital-frontdesk/internal/service"

	"github.com/sirupsen/logrus"
)

func strPtr(v string) *string { return &v }

func TestUpdateSettingsPersistsAndAppliesLive(t *testing.T) {
	f := newFixture(t, QueuePolicy{})
	ctx := context.Background()

	got, err := f.config.UpdateSettings(ctx, &dto.UpdateSettingsRequest{
		TokenResetTime:           strPtr("06:30"),
		EmergencyProtocolEnabled: boolPtr(false),
	})
	if err != nil {
		t.Fatalf("UpdateSettings: %v", err)
	}
	if got.TokenResetTime != "06:30" || got.EmergencyProtocolEnabled {
		t.Errorf("response = %+v", got)
	}
	if got.BusinessTimezone != "UTC" {
		t.Errorf("business_timezone = %s, want UTC", got.BusinessTimezone)
	}

	live := f.settings.Current()
	if live.TokenResetTime != (service.ResetTime{Hour: 6, Minute: 30}) || live.EmergencyProtocolEnabled {
		t.Errorf("live settings = %+v", live)
	}

	stored, _ := f.store.Settings().FindAll(ctx)
	if len(stored) != 2 {
		t.Fatalf("stored settings = %+v, want 2 rows", stored)
	}

	// a fresh process picks the stored values up on Load
	log := logrus.New()
	log.SetOutput(io.Discard)
	holder := service.NewSettingsHolder(service.Settings{EmergencyProtocolEnabled: true})
	clock := service.NewBusinessClock(holder, time.UTC)
	if err := NewSettingsUsecase(log, f.store.Transactor(), f.store.Settings(), holder, clock).Load(ctx); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if holder.Current() != live {
		t.Errorf("loaded settings = %+v, want %+v", holder.Current(), live)
	}
}

func TestUpdateSettingsRejectsInvalidResetTime(t *testing.T) {
	f := newFixture(t, QueuePolicy{})
	before := f.settings.Current()

	_, err := f.config.UpdateSettings(context.Background(), &dto.UpdateSettingsRequest{
		TokenResetTime:           strPtr("25:00"),
		EmergencyProtocolEnabled: boolPtr(false),
	})
	if !errors.Is(err, ErrInvalidSettings) {
		t.Fatalf("UpdateSettings error = %v, want ErrInvalidSettings", err)
	}
	if f.settings.Current() != before {
		t.Error("rejected update changed live settings")
	}
}

func TestUpdateSettingsEmptyRequest(t *testing.T) {
	f := newFixture(t, QueuePolicy{})

	got, err := f.config.UpdateSettings(context.Background(), &dto.UpdateSettingsRequest{})
	if err != nil {
		t.Fatalf("UpdateSettings: %v", err)
	}
	if got.TokenResetTime != "00:00" || !got.EmergencyProtocolEnabled {
		t.Errorf("response = %+v", got)
	}
	if stored, _ := f.store.Settings().FindAll(context.Background()); len(stored) != 0 {
		t.Errorf("empty update stored %d rows", len(stored))
	}
}

func TestLoadIgnoresMalformedStoredValues(t *testing.T) {
	f := newFixture(t, QueuePolicy{})
	ctx := context.Background()

	f.store.Settings().Upsert(ctx, &entity.AppSetting{Key: entity.SettingTokenResetTime, Value: "noon"})
	f.store.Settings().Upsert(ctx, &entity.AppSetting{Key: entity.SettingEmergencyProtocolEnabled, Value: "false"})

	if err := f.config.Load(ctx); err != nil {
		t.Fatalf("Load: %v", err)
	}
	got := f.settings.Current()
	if got.TokenResetTime != (service.ResetTime{}) {
		t.Errorf("reset time = %s, want default 00:00", got.TokenResetTime)
	}
	if got.EmergencyProtocolEnabled {
		t.Error("emergency protocol should be disabled from storage")
	}
}

func TestResetTimeChangeMovesBusinessDay(t *testing.T) {
	f := newFixture(t, QueuePolicy{})
	ctx := context.Background()

	// the fixture clock reads 09:00 UTC; a 10:00 reset puts it on the previous day
	if _, err := f.config.UpdateSettings(ctx, &dto.UpdateSettingsRequest{TokenResetTime: strPtr("10:00")}); err != nil {
		t.Fatalf("UpdateSettings: %v", err)
	}
	visit := f.createVisit(t, f.doctor, f.patients[0], false)
	if visit.BusinessDay != "2024-06-02" {
		t.Errorf("business_day = %s, want 2024-06-02", visit.BusinessDay)
	}
}

func TestListDoctorsReturnsActiveOnly(t *testing.T) {
	f := newFixture(t, QueuePolicy{})

	got, err := f.doctorsUC.ListDoctors(context.Background())
	if err != nil {
		t.Fatalf("ListDoctors: %v", err)
	}
	if got.Total != 2 {
		t.Fatalf("doctors = %d, want 2", got.Total)
	}
	if got.Doctors[0].Name != f.doctor.Name {
		t.Errorf("doctors not sorted by name: %+v", got.Doctors)
	}
}
