package memory

import (
	"context"
	"sort"
	"time"

	"hospital-frontdesk/internal/domain/entity"
	domainRepo "hospital-frontdesk/internal/domain/repository"

	"github.com/google/uuid"
)

type visitRepository struct{ s *Store }

func (r *visitRepository) Create(ctx context.Context, visit *entity.Visit) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, exists := r.s.visits[visit.ID]; exists {
		return domainRepo.ErrDuplicate
	}
	day := dayKey(visit.BusinessDay)
	for _, v := range r.s.visits {
		if v.DoctorID == visit.DoctorID && dayKey(v.BusinessDay) == day && v.TokenNumber == visit.TokenNumber {
			return domainRepo.ErrDuplicate
		}
	}
	now := time.Now()
	visit.CreatedAt = now
	visit.UpdatedAt = now
	r.s.visits[visit.ID] = stripVisit(*visit)
	return nil
}

func (r *visitRepository) Update(ctx context.Context, visit *entity.Visit) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, exists := r.s.visits[visit.ID]; !exists {
		return nil
	}
	visit.UpdatedAt = time.Now()
	r.s.visits[visit.ID] = stripVisit(*visit)
	return nil
}

func (r *visitRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Visit, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	visit, ok := r.s.visits[id]
	if !ok {
		return nil, nil
	}
	r.s.hydrateVisit(&visit)
	return &visit, nil
}

func (r *visitRepository) FindActiveByDoctor(ctx context.Context, doctorID uuid.UUID) ([]entity.Visit, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var visits []entity.Visit
	for _, v := range r.s.visits {
		if v.DoctorID == doctorID && v.IsActive() {
			r.s.hydrateVisit(&v)
			visits = append(visits, v)
		}
	}
	sort.Slice(visits, func(i, j int) bool { return visits[i].QueuesBefore(&visits[j]) })
	return visits, nil
}

func (r *visitRepository) FindByBusinessDay(ctx context.Context, day time.Time) ([]entity.Visit, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	key := dayKey(day)
	var visits []entity.Visit
	for _, v := range r.s.visits {
		if dayKey(v.BusinessDay) == key {
			r.s.hydrateVisit(&v)
			visits = append(visits, v)
		}
	}
	sort.Slice(visits, func(i, j int) bool { return visits[i].VisitDate.Before(visits[j].VisitDate) })
	return visits, nil
}

func (r *visitRepository) MaxTokensByBusinessDay(ctx context.Context, day time.Time) (map[uuid.UUID]int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	key := dayKey(day)
	result := make(map[uuid.UUID]int)
	for _, v := range r.s.visits {
		if dayKey(v.BusinessDay) == key && v.TokenNumber > result[v.DoctorID] {
			result[v.DoctorID] = v.TokenNumber
		}
	}
	return result, nil
}

// LockDoctorQueue is a no-op; in-process callers serialize with a keyed mutex.
func (r *visitRepository) LockDoctorQueue(ctx context.Context, doctorID uuid.UUID) error {
	return nil
}

func stripVisit(v entity.Visit) entity.Visit {
	v.Patient = nil
	v.Doctor = nil
	return v
}

// hydrateVisit attaches copies of the patient and doctor; caller holds s.mu
func (s *Store) hydrateVisit(v *entity.Visit) {
	if p, ok := s.patients[v.PatientID]; ok {
		v.Patient = &p
	}
	if d, ok := s.doctors[v.DoctorID]; ok {
		v.Doctor = &d
	}
}
