package usecase

import (
	"context"
	"errors"

	"hospital-frontdesk/internal/converter"
	"hospital-frontdesk/internal/delivery/dto"
	"hospital-frontdesk/internal/domain/entity"
	"hospital-frontdesk/internal/domain/repository"
	"hospital-frontdesk/internal/infrastructure/eventbus"
	"hospital-frontdesk/internal/service"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

var (
	ErrEmergencyProtocolDisabled = errors.New("emergency protocol is disabled")
	ErrVisitDoctorMismatch       = errors.New("visit does not belong to this doctor")
)

type EmergencyUsecase interface {
	SetEmergency(ctx context.Context, doctorID uuid.UUID, req *dto.SetEmergencyRequest) (*dto.EmergencyResponse, error)
	ListActive(ctx context.Context) (*dto.EmergencyListResponse, error)
	// ActivateForVisit raises the signal for a newly created emergency visit
	ActivateForVisit(ctx context.Context, visit *entity.Visit) error
	// ClearForVisit drops the signal once the referenced visit leaves the
	// waiting queue. Callers hold the doctor's queue lock.
	ClearForVisit(ctx context.Context, visit *entity.Visit) error
}

type emergencyUsecase struct {
	log        *logrus.Logger
	registry   service.EmergencyRegistry
	doctorRepo repository.DoctorRepository
	visitRepo  repository.VisitRepository
	settings   *service.SettingsHolder
	clock      *service.BusinessClock
	publisher  eventbus.Publisher
}

func NewEmergencyUsecase(
	log *logrus.Logger,
	registry service.EmergencyRegistry,
	doctorRepo repository.DoctorRepository,
	visitRepo repository.VisitRepository,
	settings *service.SettingsHolder,
	clock *service.BusinessClock,
	publisher eventbus.Publisher,
) EmergencyUsecase {
	return &emergencyUsecase{
		log:        log,
		registry:   registry,
		doctorRepo: doctorRepo,
		visitRepo:  visitRepo,
		settings:   settings,
		clock:      clock,
		publisher:  publisher,
	}
}

// SetEmergency raises or dismisses a doctor's emergency signal. Raising it
// requires the emergency protocol; dismissing is always allowed.
func (u *emergencyUsecase) SetEmergency(ctx context.Context, doctorID uuid.UUID, req *dto.SetEmergencyRequest) (*dto.EmergencyResponse, error) {
	active := req.Active != nil && *req.Active

	doctor, err := u.doctorRepo.FindByID(ctx, doctorID)
	if err != nil {
		u.log.Warnf("Failed to find doctor %s: %+v", doctorID, err)
		return nil, unavailable(err)
	}
	if doctor == nil {
		return nil, ErrDoctorNotFound
	}

	if !active {
		if err := u.clear(ctx, doctorID); err != nil {
			return nil, err
		}
		u.log.Infof("Emergency dismissed: doctor=%s, by=%s", doctorID, actor(ctx))
		return &dto.EmergencyResponse{DoctorID: doctorID, IsActive: false}, nil
	}

	if !u.settings.Current().EmergencyProtocolEnabled {
		return nil, ErrEmergencyProtocolDisabled
	}

	state := service.EmergencyState{
		DoctorID:    doctorID,
		RoomNumber:  doctor.RoomNumber,
		ActivatedAt: u.clock.Now(),
	}

	if req.VisitID != nil {
		visit, err := u.visitRepo.FindByID(ctx, *req.VisitID)
		if err != nil {
			u.log.Warnf("Failed to find visit %s: %+v", *req.VisitID, err)
			return nil, unavailable(err)
		}
		if visit == nil {
			return nil, ErrVisitNotFound
		}
		if visit.DoctorID != doctorID {
			return nil, ErrVisitDoctorMismatch
		}
		fillFromVisit(&state, visit)
	}

	if err := u.activate(ctx, state); err != nil {
		return nil, err
	}

	u.log.Infof("Emergency raised: doctor=%s, token=%d, by=%s", doctorID, state.TokenNumber, actor(ctx))
	return converter.EmergencyToResponse(&state), nil
}

func (u *emergencyUsecase) ListActive(ctx context.Context) (*dto.EmergencyListResponse, error) {
	states, err := u.registry.List(ctx)
	if err != nil {
		u.log.Warnf("Failed to list emergencies: %+v", err)
		return nil, unavailable(err)
	}

	return &dto.EmergencyListResponse{
		Emergencies: converter.EmergenciesToResponses(states),
		Total:       len(states),
	}, nil
}

func (u *emergencyUsecase) ActivateForVisit(ctx context.Context, visit *entity.Visit) error {
	if !visit.IsEmergency || !u.settings.Current().EmergencyProtocolEnabled {
		return nil
	}

	state := service.EmergencyState{
		DoctorID:    visit.DoctorID,
		ActivatedAt: u.clock.Now(),
	}
	fillFromVisit(&state, visit)
	if state.RoomNumber == "" {
		if doctor, err := u.doctorRepo.FindByID(ctx, visit.DoctorID); err == nil && doctor != nil {
			state.RoomNumber = doctor.RoomNumber
		}
	}

	return u.activate(ctx, state)
}

// ClearForVisit releases the signal when it references visit, or when it
// references no visit and visit itself is an emergency. The signal then moves
// to the doctor's earliest emergency still waiting, if there is one.
func (u *emergencyUsecase) ClearForVisit(ctx context.Context, visit *entity.Visit) error {
	state, err := u.registry.Get(ctx, visit.DoctorID)
	if err != nil {
		return unavailable(err)
	}
	if state == nil {
		return nil
	}

	matches := state.VisitID != nil && *state.VisitID == visit.ID
	unbound := state.VisitID == nil && visit.IsEmergency
	if !matches && !unbound {
		return nil
	}

	next, err := u.nextWaitingEmergency(ctx, visit)
	if err != nil {
		return err
	}
	if next != nil && u.settings.Current().EmergencyProtocolEnabled {
		u.log.Infof("Emergency moved: doctor=%s, from=%s, to=%s", visit.DoctorID, visit.ID, next.ID)
		return u.ActivateForVisit(ctx, next)
	}

	return u.clear(ctx, visit.DoctorID)
}

func (u *emergencyUsecase) nextWaitingEmergency(ctx context.Context, leaving *entity.Visit) (*entity.Visit, error) {
	active, err := u.visitRepo.FindActiveByDoctor(ctx, leaving.DoctorID)
	if err != nil {
		u.log.Warnf("Failed to find waiting emergencies for doctor %s: %+v", leaving.DoctorID, err)
		return nil, unavailable(err)
	}
	sortQueue(active)

	for i := range active {
		if active[i].ID != leaving.ID && active[i].IsEmergency && active[i].IsWaiting() {
			return &active[i], nil
		}
	}
	return nil, nil
}

func (u *emergencyUsecase) activate(ctx context.Context, state service.EmergencyState) error {
	if err := u.registry.Activate(ctx, state); err != nil {
		u.log.Warnf("Failed to store emergency for doctor %s: %+v", state.DoctorID, err)
		return unavailable(err)
	}

	payload := map[string]any{
		"isActive":   true,
		"roomNumber": state.RoomNumber,
	}
	if state.VisitID != nil {
		payload["tokenNumber"] = state.TokenNumber
		payload["patientName"] = state.PatientName
	}
	publish(ctx, u.log, u.publisher, eventbus.NewEvent(eventbus.EventEmergencyActive, state.DoctorID, payload))
	publish(ctx, u.log, u.publisher, eventbus.NewEvent(eventbus.EventDoctorQueueRefresh, state.DoctorID, nil))
	return nil
}

func (u *emergencyUsecase) clear(ctx context.Context, doctorID uuid.UUID) error {
	if err := u.registry.Clear(ctx, doctorID); err != nil {
		u.log.Warnf("Failed to clear emergency for doctor %s: %+v", doctorID, err)
		return unavailable(err)
	}

	publish(ctx, u.log, u.publisher, eventbus.NewEvent(eventbus.EventEmergencyActive, doctorID, map[string]any{
		"isActive": false,
	}))
	publish(ctx, u.log, u.publisher, eventbus.NewEvent(eventbus.EventDoctorQueueRefresh, doctorID, nil))
	return nil
}

func fillFromVisit(state *service.EmergencyState, visit *entity.Visit) {
	id := visit.ID
	state.VisitID = &id
	state.TokenNumber = visit.TokenNumber
	if visit.Patient != nil {
		state.PatientName = visit.Patient.Name
	}
	if visit.Doctor != nil {
		state.RoomNumber = visit.Doctor.RoomNumber
	}
}
