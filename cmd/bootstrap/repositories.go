package bootstrap

import (
	domainRepo "hospital-frontdesk/internal/domain/repository"
	"hospital-frontdesk/internal/repository"
	"hospital-frontdesk/internal/repository/memory"

	"gorm.io/gorm"
)

type repositories struct {
	tx            domainRepo.Transactor
	doctors       domainRepo.DoctorRepository
	patients      domainRepo.PatientRepository
	procedures    domainRepo.ProcedureRepository
	visits        domainRepo.VisitRepository
	orders        domainRepo.ProcedureOrderRepository
	invoices      domainRepo.InvoiceRepository
	receipts      domainRepo.ReceiptRepository
	settings      domainRepo.SettingRepository
	tokenCounters domainRepo.TokenCounterRepository
}

// newRepositories returns the postgres repositories, or the seeded
// in-memory store when db is nil
func newRepositories(db *gorm.DB) *repositories {
	if db == nil {
		store := memory.NewStore()
		memory.Seed(store)
		return &repositories{
			tx:            store.Transactor(),
			doctors:       store.Doctors(),
			patients:      store.Patients(),
			procedures:    store.Procedures(),
			visits:        store.Visits(),
			orders:        store.ProcedureOrders(),
			invoices:      store.Invoices(),
			receipts:      store.Receipts(),
			settings:      store.Settings(),
			tokenCounters: store.TokenCounters(),
		}
	}

	return &repositories{
		tx:            repository.NewTransactor(db),
		doctors:       repository.NewDoctorRepository(db),
		patients:      repository.NewPatientRepository(db),
		procedures:    repository.NewProcedureRepository(db),
		visits:        repository.NewVisitRepository(db),
		orders:        repository.NewProcedureOrderRepository(db),
		invoices:      repository.NewInvoiceRepository(db),
		receipts:      repository.NewReceiptRepository(db),
		settings:      repository.NewSettingRepository(db),
		tokenCounters: repository.NewTokenCounterRepository(db),
	}
}
