package memory

import (
	"context"
	"sort"
	"time"

	"hospital-frontdesk/internal/domain/entity"

	"github.com/google/uuid"
)

type settingRepository struct{ s *Store }

func (r *settingRepository) FindAll(ctx context.Context) ([]entity.AppSetting, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	settings := make([]entity.AppSetting, 0, len(r.s.settings))
	for _, setting := range r.s.settings {
		settings = append(settings, setting)
	}
	sort.Slice(settings, func(i, j int) bool { return settings[i].Key < settings[j].Key })
	return settings, nil
}

func (r *settingRepository) Upsert(ctx context.Context, setting *entity.AppSetting) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	setting.UpdatedAt = time.Now()
	r.s.settings[setting.Key] = *setting
	return nil
}

type tokenCounterRepository struct{ s *Store }

func (r *tokenCounterRepository) Next(ctx context.Context, doctorID uuid.UUID, day time.Time) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	key := counterKey{doctorID: doctorID, day: dayKey(day)}
	r.s.counters[key]++
	return r.s.counters[key], nil
}
