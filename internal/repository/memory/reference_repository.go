package memory

import (
	"context"
	"sort"

	"hospital-frontdesk/internal/domain/entity"

	"github.com/google/uuid"
)

type doctorRepository struct{ s *Store }

func (r *doctorRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Doctor, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	doctor, ok := r.s.doctors[id]
	if !ok {
		return nil, nil
	}
	return &doctor, nil
}

func (r *doctorRepository) FindAllActive(ctx context.Context) ([]entity.Doctor, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	doctors := make([]entity.Doctor, 0, len(r.s.doctors))
	for _, d := range r.s.doctors {
		if d.IsActive {
			doctors = append(doctors, d)
		}
	}
	sort.Slice(doctors, func(i, j int) bool { return doctors[i].Name < doctors[j].Name })
	return doctors, nil
}

type patientRepository struct{ s *Store }

func (r *patientRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Patient, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	patient, ok := r.s.patients[id]
	if !ok {
		return nil, nil
	}
	return &patient, nil
}

type procedureRepository struct{ s *Store }

func (r *procedureRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Procedure, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	procedure, ok := r.s.procedures[id]
	if !ok {
		return nil, nil
	}
	return &procedure, nil
}
