package usecase

import (
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"hospital-frontdesk/internal/delivery/dto"
	"hospital-frontdesk/internal/domain/entity"
	"hospital-frontdesk/internal/infrastructure/eventbus"
	"hospital-frontdesk/internal/repository/memory"
	"hospital-frontdesk/internal/service"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// testClock advances one second on every read so visit dates are strictly ordered
type testClock struct {
	mu   sync.Mutex
	base time.Time
	tick time.Duration
}

func (c *testClock) now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tick += time.Second
	return c.base.Add(c.tick)
}

// advance moves the clock forward by d
func (c *testClock) advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tick += d
}

type eventRecorder struct {
	mu     sync.Mutex
	events []eventbus.Event
}

func (r *eventRecorder) Publish(_ context.Context, event eventbus.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return nil
}

func (r *eventRecorder) count(name string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, e := range r.events {
		if e.Name == name {
			n++
		}
	}
	return n
}

func (r *eventRecorder) last(name string) *eventbus.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := len(r.events) - 1; i >= 0; i-- {
		if r.events[i].Name == name {
			e := r.events[i]
			return &e
		}
	}
	return nil
}

type fixture struct {
	store    *memory.Store
	clock    *testClock
	settings *service.SettingsHolder
	events   *eventRecorder

	visits      VisitQueueUsecase
	emergencies EmergencyUsecase
	invoices    InvoiceUsecase
	orders      ProcedureOrderUsecase
	config      SettingsUsecase
	doctorsUC   DoctorUsecase

	doctor      entity.Doctor
	otherDoctor entity.Doctor
	patients    []entity.Patient
	procedure   entity.Procedure
}

func newFixture(t *testing.T, policy QueuePolicy) *fixture {
	t.Helper()

	log := logrus.New()
	log.SetOutput(io.Discard)

	f := &fixture{
		store:  memory.NewStore(),
		clock:  &testClock{base: time.Date(2024, 6, 3, 9, 0, 0, 0, time.UTC)},
		events: &eventRecorder{},
		settings: service.NewSettingsHolder(service.Settings{
			TokenResetTime:           service.ResetTime{},
			EmergencyProtocolEnabled: true,
		}),
	}

	f.doctor = entity.Doctor{ID: uuid.New(), Name: "Dr. Amina Rahman", Specialization: "General Medicine", ConsultationFee: decimal.NewFromInt(500), RoomNumber: "101", IsActive: true}
	f.otherDoctor = entity.Doctor{ID: uuid.New(), Name: "Dr. Tanvir Hasan", Specialization: "Pediatrics", ConsultationFee: decimal.NewFromInt(700), RoomNumber: "102", IsActive: true}
	f.store.PutDoctor(f.doctor)
	f.store.PutDoctor(f.otherDoctor)
	f.store.PutDoctor(entity.Doctor{ID: uuid.New(), Name: "Dr. Retired", ConsultationFee: decimal.NewFromInt(100), IsActive: false})

	for i, name := range []string{"Karim Uddin", "Salma Begum", "Rafi Ahmed", "Nadia Islam"} {
		p := entity.Patient{ID: uuid.New(), PatientID: "P-000" + string(rune('1'+i)), Name: name, Age: 30 + i, Gender: entity.GenderOther}
		f.store.PutPatient(p)
		f.patients = append(f.patients, p)
	}

	f.procedure = entity.Procedure{ID: uuid.New(), Code: "LAB-CBC", Name: "Complete Blood Count", Department: "Laboratory", DefaultFee: decimal.NewFromInt(200)}
	f.store.PutProcedure(f.procedure)

	clock := service.NewBusinessClock(f.settings, time.UTC).WithNow(f.clock.now)

	queueLocks := service.NewKeyedMutex("doctor-queue", log)
	invoiceLocks := service.NewKeyedMutex("invoice", log)
	orderLocks := service.NewKeyedMutex("procedure-order", log)
	t.Cleanup(func() {
		queueLocks.Stop()
		invoiceLocks.Stop()
		orderLocks.Stop()
	})

	tx := f.store.Transactor()
	f.emergencies = NewEmergencyUsecase(log, service.NewMemoryEmergencyRegistry(), f.store.Doctors(), f.store.Visits(), f.settings, clock, f.events)
	f.visits = NewVisitQueueUsecase(
		log, tx, f.store.Visits(), f.store.Doctors(), f.store.Patients(),
		service.NewDatabaseTokenAllocator(f.store.TokenCounters()), clock, queueLocks,
		f.emergencies, f.events, nil, policy,
	)
	f.invoices = NewInvoiceUsecase(
		log, tx, f.store.Invoices(), f.store.Receipts(), f.store.Visits(), f.store.ProcedureOrders(),
		clock, invoiceLocks, service.NoopReceiptArchiver{}, nil,
	)
	f.orders = NewProcedureOrderUsecase(log, tx, f.store.ProcedureOrders(), f.store.Procedures(), f.store.Visits(), clock, orderLocks)
	f.config = NewSettingsUsecase(log, tx, f.store.Settings(), f.settings, clock)
	f.doctorsUC = NewDoctorUsecase(log, f.store.Doctors())

	return f
}

func (f *fixture) createVisit(t *testing.T, doctor entity.Doctor, patient entity.Patient, emergency bool) *dto.VisitResponse {
	t.Helper()
	visit, err := f.visits.CreateVisit(context.Background(), &dto.CreateVisitRequest{
		PatientID:   patient.ID,
		DoctorID:    doctor.ID,
		IsEmergency: emergency,
	})
	if err != nil {
		t.Fatalf("CreateVisit: %v", err)
	}
	return visit
}

func (f *fixture) createInvoice(t *testing.T, visitID uuid.UUID) *dto.InvoiceResponse {
	t.Helper()
	invoice, err := f.invoices.CreateInvoice(context.Background(), &dto.CreateInvoiceRequest{VisitID: visitID})
	if err != nil {
		t.Fatalf("CreateInvoice: %v", err)
	}
	return invoice
}

func dec(v int64) decimal.Decimal {
	return decimal.NewFromInt(v)
}

func decPtr(v int64) *decimal.Decimal {
	d := decimal.NewFromInt(v)
	return &d
}

func assertDecimal(t *testing.T, field string, got decimal.Decimal, want int64) {
	t.Helper()
	if !got.Equal(decimal.NewFromInt(want)) {
		t.Errorf("%s = %s, want %d", field, got, want)
	}
}
