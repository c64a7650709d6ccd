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
	"hospital-frontdesk/internal/infrastructure/eventbus"
	"hospital-frontdesk/internal/infrastructure/metrics"
	"hospital-frontdesk/internal/service"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

var (
	ErrVisitNotFound          = errors.New("visit not found")
	ErrDoctorNotFound         = errors.New("doctor not found")
	ErrInvalidDoctor          = errors.New("doctor does not exist or is inactive")
	ErrInvalidPatient         = errors.New("patient does not exist")
	ErrNotNextInQueue         = errors.New("visit is not next in the doctor's queue")
	ErrConsultationInProgress = errors.New("doctor already has a visit in consultation")
	ErrDuplicateToken         = errors.New("token already issued for this doctor and day")
)

type VisitQueueUsecase interface {
	CreateVisit(ctx context.Context, req *dto.CreateVisitRequest) (*dto.VisitResponse, error)
	GetVisit(ctx context.Context, visitID uuid.UUID) (*dto.VisitResponse, error)
	GetQueue(ctx context.Context, doctorID uuid.UUID) (*dto.QueueResponse, error)
	CallNext(ctx context.Context, visitID uuid.UUID) (*dto.VisitResponse, error)
	CompleteVisit(ctx context.Context, visitID uuid.UUID) (*dto.VisitResponse, error)
	CancelVisit(ctx context.Context, visitID uuid.UUID) (*dto.VisitResponse, error)
	ListToday(ctx context.Context) (*dto.VisitListResponse, error)
}

// QueuePolicy holds the configuration-dependent queue rules
type QueuePolicy struct {
	AllowConsultationOverlap bool
}

type visitQueueUsecase struct {
	log         *logrus.Logger
	tx          repository.Transactor
	visitRepo   repository.VisitRepository
	doctorRepo  repository.DoctorRepository
	patientRepo repository.PatientRepository
	allocator   service.TokenAllocator
	clock       *service.BusinessClock
	queueLocks  *service.KeyedMutex
	emergencies EmergencyUsecase
	publisher   eventbus.Publisher
	metrics     *metrics.Metrics
	policy      QueuePolicy
}

func NewVisitQueueUsecase(
	log *logrus.Logger,
	tx repository.Transactor,
	visitRepo repository.VisitRepository,
	doctorRepo repository.DoctorRepository,
	patientRepo repository.PatientRepository,
	allocator service.TokenAllocator,
	clock *service.BusinessClock,
	queueLocks *service.KeyedMutex,
	emergencies EmergencyUsecase,
	publisher eventbus.Publisher,
	metrics *metrics.Metrics,
	policy QueuePolicy,
) VisitQueueUsecase {
	return &visitQueueUsecase{
		log:         log,
		tx:          tx,
		visitRepo:   visitRepo,
		doctorRepo:  doctorRepo,
		patientRepo: patientRepo,
		allocator:   allocator,
		clock:       clock,
		queueLocks:  queueLocks,
		emergencies: emergencies,
		publisher:   publisher,
		metrics:     metrics,
		policy:      policy,
	}
}

// CreateVisit issues the next token for the doctor and enqueues the visit as WAITING.
//
// Flow:
// 1. Validate doctor (active) and patient
// 2. Lock the doctor's queue (in process, then in the database)
// 3. Issue token and insert visit in one transaction
// 4. If the insert or commit fails -> release the token
// 5. Publish queue events and raise the emergency signal for emergency visits
func (u *visitQueueUsecase) CreateVisit(ctx context.Context, req *dto.CreateVisitRequest) (*dto.VisitResponse, error) {
	// Step 1: Validate referenced records
	doctor, err := u.doctorRepo.FindByID(ctx, req.DoctorID)
	if err != nil {
		u.log.Warnf("Failed to find doctor %s: %+v", req.DoctorID, err)
		return nil, unavailable(err)
	}
	if doctor == nil || !doctor.IsActive {
		return nil, ErrInvalidDoctor
	}

	patient, err := u.patientRepo.FindByID(ctx, req.PatientID)
	if err != nil {
		u.log.Warnf("Failed to find patient %s: %+v", req.PatientID, err)
		return nil, unavailable(err)
	}
	if patient == nil {
		return nil, ErrInvalidPatient
	}

	now := u.clock.Now()
	day := u.clock.DayOf(now)

	// Step 2: Serialize with other mutations of this doctor's queue
	unlock := u.queueLocks.Lock(req.DoctorID.String())
	defer unlock()

	var visit *entity.Visit
	issued := 0

	// Step 3: Token and insert share one transaction
	err = u.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := u.visitRepo.LockDoctorQueue(ctx, req.DoctorID); err != nil {
			return unavailable(err)
		}

		token, err := u.allocator.Issue(ctx, req.DoctorID, day)
		if err != nil {
			u.log.Warnf("Failed to issue token for doctor %s: %+v", req.DoctorID, err)
			return unavailable(err)
		}
		issued = token

		visit = &entity.Visit{
			ID:              uuid.New(),
			PatientID:       req.PatientID,
			DoctorID:        req.DoctorID,
			BusinessDay:     day,
			TokenNumber:     token,
			VisitDate:       now,
			Status:          entity.VisitStatusWaiting,
			IsEmergency:     req.IsEmergency,
			ConsultationFee: doctor.ConsultationFee,
		}
		if err := u.visitRepo.Create(ctx, visit); err != nil {
			if errors.Is(err, repository.ErrDuplicate) {
				return ErrDuplicateToken
			}
			return unavailable(err)
		}
		return nil
	})
	if err != nil {
		// Step 4: COMPENSATE - give the token back so the sequence stays gap free
		if issued > 0 {
			releaseCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if releaseErr := u.allocator.Release(releaseCtx, req.DoctorID, day, issued); releaseErr != nil {
				u.log.Errorf("CRITICAL: Failed to release token %d for doctor %s: %+v", issued, req.DoctorID, releaseErr)
			}
		}
		u.log.Warnf("Failed to create visit for doctor %s: %+v", req.DoctorID, err)
		return nil, txError(err)
	}

	visit.Patient = patient
	visit.Doctor = doctor

	// Step 5: Notify subscribers
	u.metrics.VisitCreated(visit.IsEmergency)
	u.publishQueueChange(ctx, visit, "created", nil)
	if err := u.emergencies.ActivateForVisit(ctx, visit); err != nil {
		u.log.Warnf("Failed to raise emergency for visit %s: %+v", visit.ID, err)
	}

	u.log.Infof("Visit created: id=%s, doctor=%s, token=%d, emergency=%t, by=%s", visit.ID, visit.DoctorID, visit.TokenNumber, visit.IsEmergency, actor(ctx))
	return converter.VisitToResponse(visit), nil
}

func (u *visitQueueUsecase) GetVisit(ctx context.Context, visitID uuid.UUID) (*dto.VisitResponse, error) {
	visit, err := u.visitRepo.FindByID(ctx, visitID)
	if err != nil {
		u.log.Warnf("Failed to find visit %s: %+v", visitID, err)
		return nil, unavailable(err)
	}
	if visit == nil {
		return nil, ErrVisitNotFound
	}
	return converter.VisitToResponse(visit), nil
}

// GetQueue returns the doctor's WAITING and IN_CONSULTATION visits in
// dispatch order: emergencies first, then FIFO by visit date, then token.
func (u *visitQueueUsecase) GetQueue(ctx context.Context, doctorID uuid.UUID) (*dto.QueueResponse, error) {
	doctor, err := u.doctorRepo.FindByID(ctx, doctorID)
	if err != nil {
		u.log.Warnf("Failed to find doctor %s: %+v", doctorID, err)
		return nil, unavailable(err)
	}
	if doctor == nil {
		return nil, ErrDoctorNotFound
	}

	visits, err := u.visitRepo.FindActiveByDoctor(ctx, doctorID)
	if err != nil {
		u.log.Warnf("Failed to load queue for doctor %s: %+v", doctorID, err)
		return nil, unavailable(err)
	}
	sortQueue(visits)

	now := u.clock.Now()
	queue := &dto.QueueResponse{
		DoctorID:    doctorID,
		BusinessDay: u.clock.DayOf(now).Format("2006-01-02"),
		Items:       make([]dto.QueueItemResponse, 0, len(visits)),
		Total:       len(visits),
	}

	position := 0
	for i := range visits {
		visit := &visits[i]
		item := dto.QueueItemResponse{
			Visit:   *converter.VisitToResponse(visit),
			Patient: converter.PatientToSummary(visit.Patient),
		}
		if visit.IsWaiting() {
			position++
			item.Position = position
			item.TimeWaiting = int64(now.Sub(visit.VisitDate).Seconds())
			if item.TimeWaiting < 0 {
				item.TimeWaiting = 0
			}
		} else if queue.CurrentToken == nil {
			token := visit.TokenNumber
			queue.CurrentToken = &token
		}
		queue.Items = append(queue.Items, item)
	}

	if u.emergencies != nil {
		if list, err := u.emergencies.ListActive(ctx); err != nil {
			u.log.Warnf("Failed to read emergency state for doctor %s: %+v", doctorID, err)
		} else {
			for i := range list.Emergencies {
				if list.Emergencies[i].DoctorID == doctorID {
					queue.Emergency = &list.Emergencies[i]
					break
				}
			}
		}
	}

	return queue, nil
}

// CallNext moves visitID into consultation if it is the eligible head of its
// doctor's queue. Checks run in order: visit still WAITING, no other
// consultation running (unless overlap is allowed), visit is the head.
func (u *visitQueueUsecase) CallNext(ctx context.Context, visitID uuid.UUID) (*dto.VisitResponse, error) {
	visit, err := u.transition(ctx, visitID, func(ctx context.Context, visit *entity.Visit, now time.Time) error {
		if !visit.IsWaiting() {
			return ErrInvalidTransition
		}

		active, err := u.visitRepo.FindActiveByDoctor(ctx, visit.DoctorID)
		if err != nil {
			return unavailable(err)
		}
		sortQueue(active)

		var head *entity.Visit
		for i := range active {
			if active[i].IsInConsultation() && !u.policy.AllowConsultationOverlap {
				return ErrConsultationInProgress
			}
			if head == nil && active[i].IsWaiting() {
				head = &active[i]
			}
		}
		if head == nil || head.ID != visit.ID {
			return ErrNotNextInQueue
		}

		visit.StartConsultation(now)
		return nil
	}, u.releaseEmergency)
	if err != nil {
		u.metrics.QueueCall(callResult(err))
		return nil, err
	}

	u.metrics.QueueCall("called")
	u.metrics.VisitTransition(string(visit.Status))
	token := visit.TokenNumber
	u.publishQueueChange(ctx, visit, "called", &token)

	u.log.Infof("Visit called: id=%s, doctor=%s, token=%d, by=%s", visit.ID, visit.DoctorID, visit.TokenNumber, actor(ctx))
	return converter.VisitToResponse(visit), nil
}

// CompleteVisit finishes a consultation (IN_CONSULTATION -> COMPLETED)
func (u *visitQueueUsecase) CompleteVisit(ctx context.Context, visitID uuid.UUID) (*dto.VisitResponse, error) {
	visit, err := u.transition(ctx, visitID, func(ctx context.Context, visit *entity.Visit, now time.Time) error {
		if !visit.IsInConsultation() {
			return ErrInvalidTransition
		}
		visit.Complete(now)
		return nil
	}, nil)
	if err != nil {
		return nil, err
	}

	u.metrics.VisitTransition(string(visit.Status))
	u.publishQueueChange(ctx, visit, "completed", nil)

	u.log.Infof("Visit completed: id=%s, doctor=%s, token=%d, by=%s", visit.ID, visit.DoctorID, visit.TokenNumber, actor(ctx))
	return converter.VisitToResponse(visit), nil
}

// CancelVisit removes a waiting visit from the queue (WAITING -> CANCELLED)
func (u *visitQueueUsecase) CancelVisit(ctx context.Context, visitID uuid.UUID) (*dto.VisitResponse, error) {
	visit, err := u.transition(ctx, visitID, func(ctx context.Context, visit *entity.Visit, now time.Time) error {
		if !visit.IsWaiting() {
			return ErrInvalidTransition
		}
		visit.Cancel(now)
		return nil
	}, u.releaseEmergency)
	if err != nil {
		return nil, err
	}

	u.metrics.VisitTransition(string(visit.Status))
	u.publishQueueChange(ctx, visit, "cancelled", nil)

	u.log.Infof("Visit cancelled: id=%s, doctor=%s, token=%d, by=%s", visit.ID, visit.DoctorID, visit.TokenNumber, actor(ctx))
	return converter.VisitToResponse(visit), nil
}

// ListToday returns every visit of the current business day
func (u *visitQueueUsecase) ListToday(ctx context.Context) (*dto.VisitListResponse, error) {
	visits, err := u.visitRepo.FindByBusinessDay(ctx, u.clock.Today())
	if err != nil {
		u.log.Warnf("Failed to list today's visits: %+v", err)
		return nil, unavailable(err)
	}

	return &dto.VisitListResponse{
		Visits: converter.VisitsToResponses(visits),
		Total:  len(visits),
	}, nil
}

// transition runs apply on a freshly loaded visit while holding the doctor's
// queue lock, and persists the result in one transaction. apply must leave
// the visit untouched when it returns an error. committed, when set, runs
// after the commit with the lock still held.
func (u *visitQueueUsecase) transition(
	ctx context.Context,
	visitID uuid.UUID,
	apply func(ctx context.Context, visit *entity.Visit, now time.Time) error,
	committed func(ctx context.Context, visit *entity.Visit),
) (*entity.Visit, error) {
	current, err := u.visitRepo.FindByID(ctx, visitID)
	if err != nil {
		u.log.Warnf("Failed to find visit %s: %+v", visitID, err)
		return nil, unavailable(err)
	}
	if current == nil {
		return nil, ErrVisitNotFound
	}

	unlock := u.queueLocks.Lock(current.DoctorID.String())
	defer unlock()

	var visit *entity.Visit
	err = u.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := u.visitRepo.LockDoctorQueue(ctx, current.DoctorID); err != nil {
			return unavailable(err)
		}

		// Reload under the lock; the first read may be stale
		v, err := u.visitRepo.FindByID(ctx, visitID)
		if err != nil {
			return unavailable(err)
		}
		if v == nil {
			return ErrVisitNotFound
		}

		if err := apply(ctx, v, u.clock.Now()); err != nil {
			return err
		}
		if err := u.visitRepo.Update(ctx, v); err != nil {
			return unavailable(err)
		}
		visit = v
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrUnavailable) {
			u.log.Warnf("Failed to update visit %s: %+v", visitID, err)
		}
		return nil, txError(err)
	}

	if committed != nil {
		committed(ctx, visit)
	}
	return visit, nil
}

// releaseEmergency lets the emergency signal follow a visit out of the waiting queue
func (u *visitQueueUsecase) releaseEmergency(ctx context.Context, visit *entity.Visit) {
	if err := u.emergencies.ClearForVisit(ctx, visit); err != nil {
		u.log.Warnf("Failed to release emergency after visit %s left the queue: %+v", visit.ID, err)
	}
}

// publishQueueChange notifies queue displays and the doctor's terminal
func (u *visitQueueUsecase) publishQueueChange(ctx context.Context, visit *entity.Visit, action string, currentToken *int) {
	payload := map[string]any{
		"action":      action,
		"visitId":     visit.ID.String(),
		"tokenNumber": visit.TokenNumber,
		"status":      string(visit.Status),
		"isEmergency": visit.IsEmergency,
	}
	if currentToken != nil {
		payload["currentToken"] = *currentToken
	}
	publish(ctx, u.log, u.publisher, eventbus.NewEvent(eventbus.EventQueueUpdate, visit.DoctorID, payload))
	publish(ctx, u.log, u.publisher, eventbus.NewEvent(eventbus.EventDoctorQueueRefresh, visit.DoctorID, nil))
}

// sortQueue orders visits by dispatch priority
func sortQueue(visits []entity.Visit) {
	sort.SliceStable(visits, func(i, j int) bool { return visits[i].QueuesBefore(&visits[j]) })
}

func callResult(err error) string {
	switch {
	case errors.Is(err, ErrNotNextInQueue):
		return "not_next"
	case errors.Is(err, ErrConsultationInProgress):
		return "consultation_in_progress"
	case errors.Is(err, ErrInvalidTransition):
		return "invalid_transition"
	case errors.Is(err, ErrVisitNotFound):
		return "not_found"
	default:
		return "error"
	}
}
