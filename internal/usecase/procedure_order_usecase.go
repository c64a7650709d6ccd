package usecase

import (
	"context"
	"errors"
	"sort"
	"time"

	"hospital-frontdesk/internal/converter"
	"hospital-frontdesk/internal/delivery/dto"
	"hospital-frontdesk/internal/domain/entity"
	"hospital-frontdesk/internal/domain/repository"
	"hospital-frontdesk/internal/service"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

var (
	ErrProcedureOrderNotFound = errors.New("procedure order not found")
	ErrProcedureNotFound      = errors.New("procedure not found")
)

type ProcedureOrderUsecase interface {
	CreateOrder(ctx context.Context, req *dto.CreateProcedureOrderRequest) (*dto.ProcedureOrderResponse, error)
	GetOrder(ctx context.Context, orderID uuid.UUID) (*dto.ProcedureOrderResponse, error)
	StartProcedure(ctx context.Context, orderID uuid.UUID) (*dto.ProcedureOrderResponse, error)
	CompleteProcedure(ctx context.Context, orderID uuid.UUID) (*dto.ProcedureOrderResponse, error)
	UpdateStatus(ctx context.Context, orderID uuid.UUID, req *dto.UpdateProcedureOrderStatusRequest) (*dto.ProcedureOrderResponse, error)
	ListForVisit(ctx context.Context, visitID uuid.UUID) (*dto.ProcedureOrderListResponse, error)
	ListRequested(ctx context.Context) (*dto.ProcedureOrderListResponse, error)
	ListOngoing(ctx context.Context) (*dto.ProcedureOrderListResponse, error)
}

type procedureOrderUsecase struct {
	log           *logrus.Logger
	tx            repository.Transactor
	orderRepo     repository.ProcedureOrderRepository
	procedureRepo repository.ProcedureRepository
	visitRepo     repository.VisitRepository
	clock         *service.BusinessClock
	orderLocks    *service.KeyedMutex
}

func NewProcedureOrderUsecase(
	log *logrus.Logger,
	tx repository.Transactor,
	orderRepo repository.ProcedureOrderRepository,
	procedureRepo repository.ProcedureRepository,
	visitRepo repository.VisitRepository,
	clock *service.BusinessClock,
	orderLocks *service.KeyedMutex,
) ProcedureOrderUsecase {
	return &procedureOrderUsecase{
		log:           log,
		tx:            tx,
		orderRepo:     orderRepo,
		procedureRepo: procedureRepo,
		visitRepo:     visitRepo,
		clock:         clock,
		orderLocks:    orderLocks,
	}
}

func (u *procedureOrderUsecase) CreateOrder(ctx context.Context, req *dto.CreateProcedureOrderRequest) (*dto.ProcedureOrderResponse, error) {
	visit, err := u.visitRepo.FindByID(ctx, req.VisitID)
	if err != nil {
		u.log.Warnf("Failed to find visit %s: %+v", req.VisitID, err)
		return nil, unavailable(err)
	}
	if visit == nil {
		return nil, ErrVisitNotFound
	}
	if visit.Status == entity.VisitStatusCancelled {
		return nil, ErrInvalidTransition
	}

	procedure, err := u.procedureRepo.FindByID(ctx, req.ProcedureID)
	if err != nil {
		u.log.Warnf("Failed to find procedure %s: %+v", req.ProcedureID, err)
		return nil, unavailable(err)
	}
	if procedure == nil {
		return nil, ErrProcedureNotFound
	}

	now := u.clock.Now()
	order := &entity.ProcedureOrder{
		ID:          uuid.New(),
		VisitID:     visit.ID,
		ProcedureID: procedure.ID,
		Notes:       req.Notes,
		Status:      entity.ProcedureOrderStatusRequested,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := u.orderRepo.Create(ctx, order); err != nil {
		u.log.Warnf("Failed to create procedure order for visit %s: %+v", visit.ID, err)
		return nil, unavailable(err)
	}

	order.Visit = visit
	order.Procedure = procedure
	u.log.Infof("Procedure ordered: order=%s, visit=%s, procedure=%s, by=%s", order.ID, visit.ID, procedure.Code, actor(ctx))
	return converter.ProcedureOrderToResponse(order), nil
}

func (u *procedureOrderUsecase) GetOrder(ctx context.Context, orderID uuid.UUID) (*dto.ProcedureOrderResponse, error) {
	order, err := u.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		u.log.Warnf("Failed to find procedure order %s: %+v", orderID, err)
		return nil, unavailable(err)
	}
	if order == nil {
		return nil, ErrProcedureOrderNotFound
	}
	return converter.ProcedureOrderToResponse(order), nil
}

// StartProcedure moves a REQUESTED order to IN_PROGRESS
func (u *procedureOrderUsecase) StartProcedure(ctx context.Context, orderID uuid.UUID) (*dto.ProcedureOrderResponse, error) {
	return u.transition(ctx, orderID, entity.ProcedureOrderStatusRequested, func(order *entity.ProcedureOrder, now time.Time) {
		order.Start(now)
	})
}

// CompleteProcedure moves an IN_PROGRESS order to COMPLETED
func (u *procedureOrderUsecase) CompleteProcedure(ctx context.Context, orderID uuid.UUID) (*dto.ProcedureOrderResponse, error) {
	return u.transition(ctx, orderID, entity.ProcedureOrderStatusInProgress, func(order *entity.ProcedureOrder, now time.Time) {
		order.Complete(now)
	})
}

func (u *procedureOrderUsecase) UpdateStatus(ctx context.Context, orderID uuid.UUID, req *dto.UpdateProcedureOrderStatusRequest) (*dto.ProcedureOrderResponse, error) {
	switch entity.ProcedureOrderStatus(req.Status) {
	case entity.ProcedureOrderStatusInProgress:
		return u.StartProcedure(ctx, orderID)
	case entity.ProcedureOrderStatusCompleted:
		return u.CompleteProcedure(ctx, orderID)
	default:
		return nil, ErrInvalidTransition
	}
}

func (u *procedureOrderUsecase) ListForVisit(ctx context.Context, visitID uuid.UUID) (*dto.ProcedureOrderListResponse, error) {
	visit, err := u.visitRepo.FindByID(ctx, visitID)
	if err != nil {
		u.log.Warnf("Failed to find visit %s: %+v", visitID, err)
		return nil, unavailable(err)
	}
	if visit == nil {
		return nil, ErrVisitNotFound
	}

	orders, err := u.orderRepo.FindByVisitID(ctx, visitID)
	if err != nil {
		u.log.Warnf("Failed to list procedure orders for visit %s: %+v", visitID, err)
		return nil, unavailable(err)
	}

	return &dto.ProcedureOrderListResponse{
		Orders: converter.ProcedureOrdersToResponses(orders),
		Total:  len(orders),
	}, nil
}

// ListRequested returns the pending worklist, emergencies first then oldest order first
func (u *procedureOrderUsecase) ListRequested(ctx context.Context) (*dto.ProcedureOrderListResponse, error) {
	return u.worklist(ctx, entity.ProcedureOrderStatusRequested, func(o *entity.ProcedureOrder) time.Time {
		return o.CreatedAt
	})
}

// ListOngoing returns the in-progress worklist, emergencies first then earliest start first
func (u *procedureOrderUsecase) ListOngoing(ctx context.Context) (*dto.ProcedureOrderListResponse, error) {
	return u.worklist(ctx, entity.ProcedureOrderStatusInProgress, func(o *entity.ProcedureOrder) time.Time {
		if o.StartedAt != nil {
			return *o.StartedAt
		}
		return o.CreatedAt
	})
}

func (u *procedureOrderUsecase) worklist(
	ctx context.Context,
	status entity.ProcedureOrderStatus,
	since func(o *entity.ProcedureOrder) time.Time,
) (*dto.ProcedureOrderListResponse, error) {
	orders, err := u.orderRepo.FindByStatus(ctx, status)
	if err != nil {
		u.log.Warnf("Failed to list %s procedure orders: %+v", status, err)
		return nil, unavailable(err)
	}

	sort.SliceStable(orders, func(i, j int) bool {
		ei := orders[i].Visit != nil && orders[i].Visit.IsEmergency
		ej := orders[j].Visit != nil && orders[j].Visit.IsEmergency
		if ei != ej {
			return ei
		}
		return since(&orders[i]).Before(since(&orders[j]))
	})

	return &dto.ProcedureOrderListResponse{
		Orders: converter.ProcedureOrdersToResponses(orders),
		Total:  len(orders),
	}, nil
}

// transition applies a forward-only status change when the order is in the expected state
func (u *procedureOrderUsecase) transition(
	ctx context.Context,
	orderID uuid.UUID,
	from entity.ProcedureOrderStatus,
	apply func(order *entity.ProcedureOrder, now time.Time),
) (*dto.ProcedureOrderResponse, error) {
	unlock := u.orderLocks.Lock(orderID.String())
	defer unlock()

	var order *entity.ProcedureOrder
	err := u.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		o, err := u.orderRepo.FindByIDForUpdate(ctx, orderID)
		if err != nil {
			return unavailable(err)
		}
		if o == nil {
			return ErrProcedureOrderNotFound
		}
		if o.Status != from {
			return ErrInvalidTransition
		}

		now := u.clock.Now()
		apply(o, now)
		o.UpdatedAt = now
		if err := u.orderRepo.Update(ctx, o); err != nil {
			return unavailable(err)
		}
		order = o
		return nil
	})
	if err != nil {
		u.log.Warnf("Failed to update procedure order %s: %+v", orderID, err)
		return nil, txError(err)
	}

	u.log.Infof("Procedure order %s moved to %s, by=%s", orderID, order.Status, actor(ctx))
	return converter.ProcedureOrderToResponse(order), nil
}
