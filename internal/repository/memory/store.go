// Package memory holds an in-process implementation of the repository
// interfaces. It backs the test suites and the DB_DRIVER=memory demo mode.
//
// Records are stored by value and copied on every read, so callers can
// never mutate stored state without going through a repository method.
package memory

import (
	"context"
	"sync"
	"time"

	"hospital-frontdesk/internal/domain/entity"
	domainRepo "hospital-frontdesk/internal/domain/repository"

	"github.com/google/uuid"
)

type counterKey struct {
	doctorID uuid.UUID
	day      string
}

type Store struct {
	mu sync.RWMutex

	doctors    map[uuid.UUID]entity.Doctor
	patients   map[uuid.UUID]entity.Patient
	procedures map[uuid.UUID]entity.Procedure
	visits     map[uuid.UUID]entity.Visit
	orders     map[uuid.UUID]entity.ProcedureOrder
	invoices   map[uuid.UUID]entity.Invoice
	items      map[uuid.UUID][]entity.InvoiceItem
	payments   map[uuid.UUID][]entity.PaymentTransaction
	receipts   map[uuid.UUID]entity.Receipt
	settings   map[string]entity.AppSetting
	counters   map[counterKey]int
}

func NewStore() *Store {
	return &Store{
		doctors:    make(map[uuid.UUID]entity.Doctor),
		patients:   make(map[uuid.UUID]entity.Patient),
		procedures: make(map[uuid.UUID]entity.Procedure),
		visits:     make(map[uuid.UUID]entity.Visit),
		orders:     make(map[uuid.UUID]entity.ProcedureOrder),
		invoices:   make(map[uuid.UUID]entity.Invoice),
		items:      make(map[uuid.UUID][]entity.InvoiceItem),
		payments:   make(map[uuid.UUID][]entity.PaymentTransaction),
		receipts:   make(map[uuid.UUID]entity.Receipt),
		settings:   make(map[string]entity.AppSetting),
		counters:   make(map[counterKey]int),
	}
}

// PutDoctor inserts or replaces a doctor record
func (s *Store) PutDoctor(doctor entity.Doctor) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.doctors[doctor.ID] = doctor
}

// PutPatient inserts or replaces a patient record
func (s *Store) PutPatient(patient entity.Patient) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.patients[patient.ID] = patient
}

// PutProcedure inserts or replaces a catalogue procedure
func (s *Store) PutProcedure(procedure entity.Procedure) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.procedures[procedure.ID] = procedure
}

func (s *Store) Doctors() domainRepo.DoctorRepository { return &doctorRepository{s} }

func (s *Store) Patients() domainRepo.PatientRepository { return &patientRepository{s} }

func (s *Store) Procedures() domainRepo.ProcedureRepository { return &procedureRepository{s} }

func (s *Store) Visits() domainRepo.VisitRepository { return &visitRepository{s} }

func (s *Store) ProcedureOrders() domainRepo.ProcedureOrderRepository {
	return &procedureOrderRepository{s}
}

func (s *Store) Invoices() domainRepo.InvoiceRepository { return &invoiceRepository{s} }

func (s *Store) Receipts() domainRepo.ReceiptRepository { return &receiptRepository{s} }

func (s *Store) Settings() domainRepo.SettingRepository { return &settingRepository{s} }

func (s *Store) TokenCounters() domainRepo.TokenCounterRepository {
	return &tokenCounterRepository{s}
}

// Transactor returns a transactor that runs fn directly. The store has no
// rollback; usecases validate before they write and serialize per key.
func (s *Store) Transactor() domainRepo.Transactor { return transactor{} }

type transactor struct{}

func (transactor) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func dayKey(day time.Time) string {
	return day.Format("2006-01-02")
}
