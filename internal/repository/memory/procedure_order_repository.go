package memory

import (
	"context"
	"sort"
	"time"

	"hospital-frontdesk/internal/domain/entity"
	domainRepo "hospital-frontdesk/internal/domain/repository"

	"github.com/google/uuid"
)

type procedureOrderRepository struct{ s *Store }

func (r *procedureOrderRepository) Create(ctx context.Context, order *entity.ProcedureOrder) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, exists := r.s.orders[order.ID]; exists {
		return domainRepo.ErrDuplicate
	}
	order.UpdatedAt = time.Now()
	r.s.orders[order.ID] = stripOrder(*order)
	return nil
}

func (r *procedureOrderRepository) Update(ctx context.Context, order *entity.ProcedureOrder) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	order.UpdatedAt = time.Now()
	r.s.orders[order.ID] = stripOrder(*order)
	return nil
}

func (r *procedureOrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.ProcedureOrder, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	order, ok := r.s.orders[id]
	if !ok {
		return nil, nil
	}
	r.s.hydrateOrder(&order)
	return &order, nil
}

// FindByIDForUpdate behaves like FindByID; usecases hold the per-order lock.
func (r *procedureOrderRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*entity.ProcedureOrder, error) {
	return r.FindByID(ctx, id)
}

func (r *procedureOrderRepository) FindByVisitID(ctx context.Context, visitID uuid.UUID) ([]entity.ProcedureOrder, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var orders []entity.ProcedureOrder
	for _, o := range r.s.orders {
		if o.VisitID == visitID {
			r.s.hydrateOrder(&o)
			o.Visit = nil
			orders = append(orders, o)
		}
	}
	sort.Slice(orders, func(i, j int) bool { return orders[i].CreatedAt.Before(orders[j].CreatedAt) })
	return orders, nil
}

func (r *procedureOrderRepository) FindByStatus(ctx context.Context, status entity.ProcedureOrderStatus) ([]entity.ProcedureOrder, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var orders []entity.ProcedureOrder
	for _, o := range r.s.orders {
		if o.Status == status {
			r.s.hydrateOrder(&o)
			orders = append(orders, o)
		}
	}
	return orders, nil
}

func stripOrder(o entity.ProcedureOrder) entity.ProcedureOrder {
	o.Visit = nil
	o.Procedure = nil
	return o
}

// hydrateOrder attaches the procedure and the visit with its people; caller holds s.mu
func (s *Store) hydrateOrder(o *entity.ProcedureOrder) {
	if p, ok := s.procedures[o.ProcedureID]; ok {
		o.Procedure = &p
	}
	if v, ok := s.visits[o.VisitID]; ok {
		s.hydrateVisit(&v)
		o.Visit = &v
	}
}
