package memory

import (
	"time"

	"hospital-frontdesk/internal/domain/entity"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// seedID derives a stable id so demo clients can bookmark seeded records
func seedID(name string) uuid.UUID {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte("hospital-frontdesk/"+name))
}

// Seed loads a small set of doctors, patients and procedures for demo mode
func Seed(s *Store) {
	now := time.Now()

	doctors := []entity.Doctor{
		{ID: seedID("doctor/1"), Name: "Dr. Amina Rahman", Specialization: "General Medicine", ConsultationFee: decimal.NewFromInt(500), RoomNumber: "101", IsActive: true},
		{ID: seedID("doctor/2"), Name: "Dr. Tanvir Hasan", Specialization: "Pediatrics", ConsultationFee: decimal.NewFromInt(700), RoomNumber: "102", IsActive: true},
		{ID: seedID("doctor/3"), Name: "Dr. Nusrat Jahan", Specialization: "Cardiology", ConsultationFee: decimal.NewFromInt(1200), RoomNumber: "201", IsActive: true},
	}
	for _, d := range doctors {
		d.CreatedAt = now
		d.UpdatedAt = now
		s.PutDoctor(d)
	}

	patients := []entity.Patient{
		{ID: seedID("patient/1"), PatientID: "P-0001", Name: "Karim Uddin", Age: 45, Gender: entity.GenderMale, Phone: "01700000001"},
		{ID: seedID("patient/2"), PatientID: "P-0002", Name: "Salma Begum", Age: 32, Gender: entity.GenderFemale, Phone: "01700000002"},
		{ID: seedID("patient/3"), PatientID: "P-0003", Name: "Rafi Ahmed", Age: 8, Gender: entity.GenderMale, Phone: "01700000003"},
	}
	for _, p := range patients {
		p.CreatedAt = now
		s.PutPatient(p)
	}

	procedures := []entity.Procedure{
		{ID: seedID("procedure/cbc"), Code: "LAB-CBC", Name: "Complete Blood Count", Department: "Laboratory", DefaultFee: decimal.NewFromInt(200)},
		{ID: seedID("procedure/xray"), Code: "IMG-XRAY-CHEST", Name: "Chest X-Ray", Department: "Radiology", DefaultFee: decimal.NewFromInt(600)},
		{ID: seedID("procedure/ecg"), Code: "CARD-ECG", Name: "Electrocardiogram", Department: "Cardiology", DefaultFee: decimal.NewFromInt(350)},
	}
	for _, p := range procedures {
		p.CreatedAt = now
		s.PutProcedure(p)
	}
}
